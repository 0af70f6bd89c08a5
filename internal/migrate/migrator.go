// Package migrate performs the one-shot transform from legacy archives
// with person biographies embedded in every item to the centralized
// person registry with stable identifiers.
package migrate

import (
	"encoding/json"
	"fmt"

	"github.com/franz/archivist/internal/archive"
	"github.com/franz/archivist/internal/identity"
	"github.com/franz/archivist/internal/report"
	"github.com/franz/archivist/internal/util"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
)

// detectSample bounds how many items Detect inspects. Legacy shape is
// all-or-nothing per archive, so a small sample is enough.
const detectSample = 50

// Detect reports whether the archive still carries the legacy embedded
// person shape.
func Detect(reg *archive.Registry) bool {
	items := reg.Items()
	n := len(items)
	if n > detectSample {
		n = detectSample
	}
	for _, it := range items[:n] {
		for i := range it.Persons {
			if it.Persons[i].HasInlineBiography() {
				return true
			}
		}
		for i := range it.Sources {
			if it.Sources[i].First != "" || len(it.Sources[i].Last) > 0 {
				return true
			}
		}
	}
	return false
}

// Result summarizes a migration run.
type Result struct {
	PersonsCreated      int
	ReferencesRewritten int
	Deduplicated        int // inline records collapsed into an existing person
	Skipped             int // blank entries left untouched
	TypesNormalized     int // legacy media types rewritten
}

// Migrator rewrites a legacy archive in place.
type Migrator struct {
	reg    *archive.Registry
	logger *report.EventLogger

	// byIdentity maps identity keys to generated personIDs. The keys
	// are a migration artifact and exist only for the duration of the
	// run; they are never stored on person records.
	byIdentity map[string]string
}

// New creates a migrator.
func New(reg *archive.Registry, logger *report.EventLogger) *Migrator {
	return &Migrator{reg: reg, logger: logger, byIdentity: make(map[string]string)}
}

// Run executes the migration over every item: media-type synonyms are
// normalized, each inline person record is collapsed by identity key
// into one registry entry, and the item-side records become plain
// {personID} references. The run ends with a resolution check that
// logs, never throws.
func (m *Migrator) Run() (*Result, error) {
	res := &Result{}
	items := m.reg.Items()
	bar := progressbar.Default(int64(len(items)), "migrating archive")

	for _, it := range items {
		if it.Type == "tape" {
			// Retired synonym from the camcorder era.
			it.Type = archive.TypeVideo
			res.TypesNormalized++
			m.reg.MarkDirty()
		}

		for i := range it.Persons {
			ref := &it.Persons[i]
			if !ref.HasInlineBiography() {
				continue
			}
			id, err := m.resolveInline(ref.First, ref.Last, ref.TMGID, res)
			if err != nil {
				util.WarnLog("Item %s person entry %d: %v, skipping", it.Link, i, err)
				res.Skipped++
				continue
			}
			ref.PersonID = id
			ref.First, ref.Last, ref.TMGID = "", nil, nil
			res.ReferencesRewritten++
			m.reg.MarkDirty()
		}

		for i := range it.Sources {
			src := &it.Sources[i]
			if src.First == "" && len(src.Last) == 0 {
				continue
			}
			id, err := m.resolveInline(src.First, src.Last, src.TMGID, res)
			if err != nil {
				util.WarnLog("Item %s source entry %d: %v, skipping", it.Link, i, err)
				res.Skipped++
				continue
			}
			src.PersonID = id
			src.First, src.Last, src.TMGID = "", nil, nil
			res.ReferencesRewritten++
			m.reg.MarkDirty()
		}

		bar.Add(1)
	}

	m.verify()

	util.SuccessLog("Migration complete: %d persons created, %d references rewritten, %d duplicates collapsed, %d skipped",
		res.PersonsCreated, res.ReferencesRewritten, res.Deduplicated, res.Skipped)
	return res, nil
}

// resolveInline returns the personID for an inline biographical record,
// creating the registry entry on first sight of its identity key.
func (m *Migrator) resolveInline(first string, rawLast json.RawMessage, tmgid *int, res *Result) (string, error) {
	lasts, err := identity.NormalizeLast(rawLast)
	if err != nil {
		return "", err
	}
	key, err := identity.Key(first, lasts)
	if err != nil {
		return "", err
	}

	if id, ok := m.byIdentity[key]; ok {
		res.Deduplicated++
		return id, nil
	}

	p := &archive.Person{
		PersonID: uuid.NewString(),
		TMGID:    tmgid,
		First:    first,
		Last:     lastEntries(rawLast, lasts),
	}
	if err := m.reg.AddPerson(p); err != nil {
		return "", err
	}
	m.byIdentity[key] = p.PersonID
	m.logger.LogMigrate(p.PersonID, fmt.Sprintf("created from embedded record %q", p.DisplayName()))
	res.PersonsCreated++
	return p.PersonID, nil
}

// lastEntries builds the structured surname list for the new person
// record. Object-form legacy entries keep their type ("married"); the
// scalar and string-array forms carry no type. Order is preserved
// exactly as stored -- it is chronologically significant.
func lastEntries(raw json.RawMessage, normalized []string) []archive.LastName {
	var entries []archive.LastName
	if err := json.Unmarshal(raw, &entries); err == nil && len(entries) > 0 && entries[0].Last != "" {
		return entries
	}
	out := make([]archive.LastName, 0, len(normalized))
	for _, l := range normalized {
		out = append(out, archive.LastName{Last: l})
	}
	return out
}

// verify checks that every rewritten reference resolves. Failures are
// logged and reported, never thrown: the archive stays loadable and the
// validator will surface the same findings.
func (m *Migrator) verify() {
	for _, it := range m.reg.Items() {
		for _, ref := range it.Persons {
			if ref.PersonID == "" {
				continue
			}
			if _, ok := m.reg.GetPerson(ref.PersonID); !ok {
				util.ErrorLog("Post-migration: item %s references unknown person %s", it.Link, ref.PersonID)
				m.logger.Log(&report.Event{
					Level:    report.LevelError,
					Event:    report.EventError,
					Link:     it.Link,
					PersonID: ref.PersonID,
					Reason:   "rewritten reference does not resolve",
				})
			}
		}
		for _, src := range it.Sources {
			if src.PersonID == "" {
				continue
			}
			if _, ok := m.reg.GetPerson(src.PersonID); !ok {
				util.ErrorLog("Post-migration: item %s source references unknown person %s", it.Link, src.PersonID)
				m.logger.Log(&report.Event{
					Level:    report.LevelError,
					Event:    report.EventError,
					Link:     it.Link,
					PersonID: src.PersonID,
					Reason:   "rewritten source reference does not resolve",
				})
			}
		}
	}
}
