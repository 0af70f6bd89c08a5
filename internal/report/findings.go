package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
)

// Severity of a validation finding. The distinction is load-bearing:
// errors mean the archive is inconsistent and must be fixed, warnings
// mean recoverable drift with an explicit cleanup path, info entries
// are cleanup candidates only.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Finding is one validation result with enough structured context to
// locate the offending record.
type Finding struct {
	Severity   Severity
	Type       string
	Message    string
	Accession  string
	Link       string
	PersonID   string
	Collection string
	Path       string
}

// Findings is an ordered list of validation results.
type Findings []Finding

// Errors returns only error-severity findings.
func (f Findings) Errors() Findings { return f.filter(SeverityError) }

// Warnings returns only warning-severity findings.
func (f Findings) Warnings() Findings { return f.filter(SeverityWarning) }

// Infos returns only info-severity findings.
func (f Findings) Infos() Findings { return f.filter(SeverityInfo) }

func (f Findings) filter(sev Severity) Findings {
	var out Findings
	for _, fd := range f {
		if fd.Severity == sev {
			out = append(out, fd)
		}
	}
	return out
}

// CountByType tallies findings per type string.
func (f Findings) CountByType() map[string]int {
	out := make(map[string]int)
	for _, fd := range f {
		out[fd.Type]++
	}
	return out
}

// WriteReport renders the findings as a plain-text report: a summary
// block with counts, then the itemized errors, warnings, and
// informational findings.
func WriteReport(w io.Writer, f Findings, archivePath string) error {
	errors := f.Errors()
	warnings := f.Warnings()
	infos := f.Infos()

	fmt.Fprintf(w, "Archive validation report\n")
	fmt.Fprintf(w, "Generated: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	if archivePath != "" {
		fmt.Fprintf(w, "Archive:   %s\n", archivePath)
	}
	fmt.Fprintf(w, "\n")

	fmt.Fprintf(w, "Summary\n")
	fmt.Fprintf(w, "-------\n")
	fmt.Fprintf(w, "  errors:   %d\n", len(errors))
	fmt.Fprintf(w, "  warnings: %d\n", len(warnings))
	fmt.Fprintf(w, "  info:     %d\n", len(infos))
	for _, line := range typeCounts(f) {
		fmt.Fprintf(w, "  %s\n", line)
	}
	fmt.Fprintf(w, "\n")

	writeSection(w, "Errors", errors)
	writeSection(w, "Warnings", warnings)
	writeSection(w, "Info", infos)
	return nil
}

func typeCounts(f Findings) []string {
	counts := f.CountByType()
	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Strings(types)

	out := make([]string, 0, len(types))
	for _, t := range types {
		out = append(out, fmt.Sprintf("%-28s %d", t, counts[t]))
	}
	return out
}

func writeSection(w io.Writer, title string, f Findings) {
	if len(f) == 0 {
		return
	}
	fmt.Fprintf(w, "%s (%d)\n", title, len(f))
	fmt.Fprintf(w, "%s\n", strings.Repeat("-", len(title)))
	for _, fd := range f {
		fmt.Fprintf(w, "  [%s] %s\n", fd.Type, fd.Message)
		for _, field := range []struct{ label, value string }{
			{"accession", fd.Accession},
			{"link", fd.Link},
			{"personID", fd.PersonID},
			{"collection", fd.Collection},
			{"path", fd.Path},
		} {
			if field.value != "" {
				fmt.Fprintf(w, "      %-10s %s\n", field.label+":", field.value)
			}
		}
	}
	fmt.Fprintf(w, "\n")
}
