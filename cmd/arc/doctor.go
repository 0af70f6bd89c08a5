package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/franz/archivist/internal/archive"
	"github.com/franz/archivist/internal/util"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks on the environment and configuration",
	Long: `Run diagnostic checks to ensure arc can operate correctly.

This command checks:
- Archive file accessibility and parseability
- Collections directory (readable, live vs backup files)
- Media directory presence
- Artifacts directory writability
- Disk space availability

Use this command to troubleshoot issues before running arc operations.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

type checkResult struct {
	name    string
	message string
	error   bool
	warning bool
}

func runDoctor(cmd *cobra.Command, args []string) error {
	util.InfoLog("=== Archive Doctor - System Diagnostics ===")
	util.InfoLog("")

	fs := afero.NewOsFs()
	results := []checkResult{}

	results = append(results, checkArchive(fs, viper.GetString("archive")))
	results = append(results, checkCollectionsDir(viper.GetString("collections")))

	if media := viper.GetString("media"); media != "" {
		results = append(results, checkMediaDir(media))
		results = append(results, checkDiskSpace(media, "media"))
	}

	results = append(results, checkArtifactsDir(viper.GetString("artifacts")))

	// Print results
	util.InfoLog("")
	util.InfoLog("=== Diagnostic Results ===")
	util.InfoLog("")

	hasErrors := false
	hasWarnings := false

	for _, r := range results {
		symbol := "✓"
		if r.error {
			symbol = "✗"
			hasErrors = true
		} else if r.warning {
			symbol = "⚠"
			hasWarnings = true
		}

		line := fmt.Sprintf("[%s] %s", symbol, r.name)
		if r.message != "" {
			line += fmt.Sprintf(": %s", r.message)
		}

		if r.error {
			util.ErrorLog("%s", line)
		} else if r.warning {
			util.WarnLog("%s", line)
		} else {
			util.SuccessLog("%s", line)
		}
	}

	util.InfoLog("")
	if hasErrors {
		util.ErrorLog("Some critical checks failed. Please resolve errors before running arc.")
		return fmt.Errorf("system diagnostics failed")
	} else if hasWarnings {
		util.WarnLog("Some checks produced warnings. Review them before proceeding.")
	} else {
		util.SuccessLog("All checks passed! System is ready for arc operations.")
	}

	return nil
}

// checkArchive verifies the archive document exists and parses
func checkArchive(fs afero.Fs, path string) checkResult {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return checkResult{
				name:    "Archive",
				message: fmt.Sprintf("%s (will be created on first run)", path),
			}
		}
		return checkResult{
			name:    "Archive",
			error:   true,
			message: fmt.Sprintf("cannot access %s: %v", path, err),
		}
	}

	reg, err := archive.Load(fs, path)
	if err != nil {
		return checkResult{
			name:    "Archive",
			error:   true,
			message: fmt.Sprintf("cannot parse %s: %v", path, err),
		}
	}

	return checkResult{
		name: "Archive",
		message: fmt.Sprintf("%s (%s, %d items, %d persons)",
			path, util.FormatBytes(info.Size()), len(reg.Items()), len(reg.Persons())),
	}
}

// checkCollectionsDir verifies the collections directory is readable
// and counts live collections vs backups
func checkCollectionsDir(path string) checkResult {
	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return checkResult{
				name:    "Collections directory",
				message: fmt.Sprintf("%s (will be created on first run)", path),
			}
		}
		return checkResult{
			name:    "Collections directory",
			error:   true,
			message: fmt.Sprintf("cannot read %s: %v", path, err),
		}
	}

	live, backups := 0, 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), ".json") {
			live++
		} else {
			backups++
		}
	}

	return checkResult{
		name:    "Collections directory",
		message: fmt.Sprintf("%s (%d collections, %d backups/archived)", path, live, backups),
	}
}

// checkMediaDir verifies the media directory exists
func checkMediaDir(path string) checkResult {
	info, err := os.Stat(path)
	if err != nil {
		return checkResult{
			name:    "Media directory",
			error:   true,
			message: fmt.Sprintf("cannot access %s: %v", path, err),
		}
	}
	if !info.IsDir() {
		return checkResult{
			name:    "Media directory",
			error:   true,
			message: fmt.Sprintf("%s is not a directory", path),
		}
	}
	return checkResult{name: "Media directory", message: path}
}

// checkArtifactsDir verifies the event log directory is writable
func checkArtifactsDir(path string) checkResult {
	if err := os.MkdirAll(path, 0755); err != nil {
		return checkResult{
			name:    "Artifacts directory",
			error:   true,
			message: fmt.Sprintf("cannot create %s: %v", path, err),
		}
	}

	testFile := filepath.Join(path, ".arc_write_test")
	f, err := os.Create(testFile)
	if err != nil {
		return checkResult{
			name:    "Artifacts directory",
			error:   true,
			message: fmt.Sprintf("cannot write to %s: %v", path, err),
		}
	}
	f.Close()
	os.Remove(testFile)

	return checkResult{name: "Artifacts directory", message: fmt.Sprintf("%s (writable)", path)}
}

// checkDiskSpace verifies available disk space
func checkDiskSpace(path string, label string) checkResult {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return checkResult{
			name:    fmt.Sprintf("Disk space (%s)", label),
			warning: true,
			message: fmt.Sprintf("cannot determine disk space: %v", err),
		}
	}

	availBytes := stat.Bavail * uint64(stat.Bsize)
	totalBytes := stat.Blocks * uint64(stat.Bsize)
	usedBytes := totalBytes - (stat.Bfree * uint64(stat.Bsize))

	availGB := float64(availBytes) / (1024 * 1024 * 1024)
	usedPercent := float64(usedBytes) / float64(totalBytes) * 100

	warning := false
	warningMsg := ""
	if availGB < 1 {
		warning = true
		warningMsg = " (low space!)"
	} else if usedPercent > 90 {
		warning = true
		warningMsg = " (>90% used)"
	}

	return checkResult{
		name:    fmt.Sprintf("Disk space (%s)", label),
		warning: warning,
		message: fmt.Sprintf("%.1f GB available%s", availGB, warningMsg),
	}
}
