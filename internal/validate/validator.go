// Package validate implements the read-only consistency sweep over the
// archive, the collection membership check, and the explicit cleanup of
// orphaned face descriptors.
package validate

import (
	"fmt"
	"regexp"

	"github.com/franz/archivist/internal/archive"
	"github.com/franz/archivist/internal/collection"
	"github.com/franz/archivist/internal/report"
)

// Finding type strings. Reports group counts by these.
const (
	TypeMissingPersonID  = "missing person id"
	TypeInvalidPersonRef = "invalid person reference"
	TypeInvalidSourceRef = "invalid source reference"
	TypeInvalidPlaylist  = "invalid playlist reference"
	TypeMalformedTime    = "malformed time"
	TypeDuplicateAcc     = "duplicate accession"
	TypeMultipleMaiden   = "multiple maiden names"
	TypeMissingFile      = "missing media file"
	TypeOrphanFile       = "orphaned file"
	TypeOrphanDescriptor = "orphaned descriptor"
	TypeUnreferenced     = "unreferenced person"
	TypeUnknownLink      = "unknown collection link"
)

// timePattern matches playlist start/duration strings: H:MM:SS or
// HH:MM:SS with an optional fractional second.
var timePattern = regexp.MustCompile(`^\d{1,2}:[0-5]\d:[0-5]\d(\.\d+)?$`)

// Validator performs read-only sweeps. It never mutates the registry;
// repairs go through explicit operations like CleanupDescriptors.
type Validator struct {
	reg *archive.Registry
}

// New creates a validator over the registry.
func New(reg *archive.Registry) *Validator {
	return &Validator{reg: reg}
}

// Sweep runs every referential check that needs no disk access:
// person and source references, playlist targets and time strings,
// accession uniqueness, surname sanity, descriptor attachment, and
// unreferenced persons.
func (v *Validator) Sweep() report.Findings {
	var f report.Findings
	f = append(f, v.checkItems()...)
	f = append(f, v.checkPersons()...)
	f = append(f, v.checkDescriptors()...)
	f = append(f, v.checkUnreferenced()...)
	return f
}

func (v *Validator) checkItems() report.Findings {
	var f report.Findings
	seenAccessions := make(map[string]string) // accession -> first link

	for _, it := range v.reg.Items() {
		if first, dup := seenAccessions[it.Accession]; dup {
			f = append(f, report.Finding{
				Severity:  report.SeverityError,
				Type:      TypeDuplicateAcc,
				Message:   fmt.Sprintf("accession %s used by both %s and %s", it.Accession, first, it.Link),
				Accession: it.Accession,
				Link:      it.Link,
			})
		} else {
			seenAccessions[it.Accession] = it.Link
		}

		for i, ref := range it.Persons {
			if ref.PersonID == "" {
				f = append(f, report.Finding{
					Severity:  report.SeverityError,
					Type:      TypeMissingPersonID,
					Message:   fmt.Sprintf("person entry %d on %s has no personID", i, it.Link),
					Accession: it.Accession,
					Link:      it.Link,
				})
				continue
			}
			if _, ok := v.reg.GetPerson(ref.PersonID); !ok {
				f = append(f, report.Finding{
					Severity:  report.SeverityError,
					Type:      TypeInvalidPersonRef,
					Message:   fmt.Sprintf("item %s references unknown person %s", it.Link, ref.PersonID),
					Accession: it.Accession,
					Link:      it.Link,
					PersonID:  ref.PersonID,
				})
			}
		}

		for _, src := range it.Sources {
			if src.PersonID == "" {
				continue // a source without a person is allowed
			}
			if _, ok := v.reg.GetPerson(src.PersonID); !ok {
				f = append(f, report.Finding{
					Severity:  report.SeverityError,
					Type:      TypeInvalidSourceRef,
					Message:   fmt.Sprintf("source on %s references unknown person %s", it.Link, src.PersonID),
					Accession: it.Accession,
					Link:      it.Link,
					PersonID:  src.PersonID,
				})
			}
		}

		f = append(f, v.checkPlaylist(it)...)
	}
	return f
}

func (v *Validator) checkPlaylist(it *archive.Item) report.Findings {
	var f report.Findings
	for _, pl := range it.Playlist {
		if _, ok := v.reg.GetItemByLink(pl.Ref); !ok {
			f = append(f, report.Finding{
				Severity:  report.SeverityError,
				Type:      TypeInvalidPlaylist,
				Message:   fmt.Sprintf("playlist on %s references unknown link %s", it.Link, pl.Ref),
				Accession: it.Accession,
				Link:      it.Link,
			})
		}
		for _, ts := range []struct{ label, value string }{
			{"starttime", pl.StartTime},
			{"duration", pl.Duration},
		} {
			if ts.value != "" && !timePattern.MatchString(ts.value) {
				f = append(f, report.Finding{
					Severity:  report.SeverityError,
					Type:      TypeMalformedTime,
					Message:   fmt.Sprintf("playlist %s on %s has malformed %s %q", pl.Ref, it.Link, ts.label, ts.value),
					Accession: it.Accession,
					Link:      it.Link,
				})
			}
		}
	}
	return f
}

func (v *Validator) checkPersons() report.Findings {
	var f report.Findings
	for id, p := range v.reg.Persons() {
		maiden := 0
		for _, n := range p.Last {
			if !n.Married() {
				maiden++
			}
		}
		if maiden > 1 {
			f = append(f, report.Finding{
				Severity: report.SeverityError,
				Type:     TypeMultipleMaiden,
				Message:  fmt.Sprintf("person %s (%s) has %d maiden-type last names", id, p.DisplayName(), maiden),
				PersonID: id,
			})
		}
	}
	return f
}

// checkDescriptors flags face records whose link no longer exists, or
// whose person is not tagged on the item the link resolves to. These
// are warnings with an explicit cleanup path, not errors.
func (v *Validator) checkDescriptors() report.Findings {
	var f report.Findings
	for id, p := range v.reg.Persons() {
		for _, d := range p.FaceBioData {
			if orphan, msg := v.descriptorOrphan(id, d); orphan {
				f = append(f, report.Finding{
					Severity: report.SeverityWarning,
					Type:     TypeOrphanDescriptor,
					Message:  msg,
					PersonID: id,
					Link:     d.Link,
				})
			}
		}
	}
	return f
}

func (v *Validator) descriptorOrphan(personID string, d archive.Descriptor) (bool, string) {
	it, ok := v.reg.GetItemByLink(d.Link)
	if !ok {
		return true, fmt.Sprintf("descriptor for person %s points at unknown link %s", personID, d.Link)
	}
	for _, ref := range it.Persons {
		if ref.PersonID == personID {
			return false, ""
		}
	}
	return true, fmt.Sprintf("descriptor for person %s on %s, but the person is not tagged on that item", personID, d.Link)
}

func (v *Validator) checkUnreferenced() report.Findings {
	var f report.Findings
	for id, p := range v.reg.Persons() {
		if len(v.reg.GetItemsForPerson(id)) == 0 {
			f = append(f, report.Finding{
				Severity: report.SeverityInfo,
				Type:     TypeUnreferenced,
				Message:  fmt.Sprintf("person %s (%s) is referenced by no items", id, p.DisplayName()),
				PersonID: id,
			})
		}
	}
	return f
}

// CheckCollection verifies that every link in a collection resolves to
// a known item.
func (v *Validator) CheckCollection(c *collection.Collection) report.Findings {
	var f report.Findings
	for _, link := range c.Links() {
		if _, ok := v.reg.GetItemByLink(link); !ok {
			f = append(f, report.Finding{
				Severity:   report.SeverityError,
				Type:       TypeUnknownLink,
				Message:    fmt.Sprintf("collection %s contains unknown link %s", c.Key, link),
				Collection: c.Key,
				Link:       link,
			})
		}
	}
	return f
}
