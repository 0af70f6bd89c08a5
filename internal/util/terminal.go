package util

import (
	"golang.org/x/term"
)

// IsTerminal checks if the given file descriptor is a terminal.
// Colored log output is disabled when stderr is redirected.
func IsTerminal(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}
