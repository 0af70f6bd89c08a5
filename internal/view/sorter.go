// Package view builds denormalized, sorted projections of the archive
// for display. Items appear once per value of a multi-valued field, so
// a person with two surnames yields two rows in the person view.
package view

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/franz/archivist/internal/archive"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Mode selects one of the six display orderings.
type Mode string

const (
	ModeDate      Mode = "date"
	ModePerson    Mode = "person"
	ModeLocation  Mode = "location"
	ModeFile      Mode = "file"
	ModeSource    Mode = "source"
	ModeAccession Mode = "accession"
)

// Modes lists the supported modes for flag validation.
var Modes = []Mode{ModeDate, ModePerson, ModeLocation, ModeFile, ModeSource, ModeAccession}

// Row is one entry in a projection. Columns are the display values for
// the mode; keys and date carry the sort ordering.
type Row struct {
	Item    *archive.Item
	Columns []string

	keys []string
	date time.Time
}

// Sorter resolves references through the registry and produces sorted
// projections. Text ordering is locale collation, not byte order.
type Sorter struct {
	reg  *archive.Registry
	coll *collate.Collator
}

// NewSorter creates a sorter over the registry.
func NewSorter(reg *archive.Registry) *Sorter {
	return &Sorter{reg: reg, coll: collate.New(language.English)}
}

// Rows produces the projection for a mode.
func (s *Sorter) Rows(mode Mode) ([]Row, error) {
	var rows []Row
	switch mode {
	case ModeDate:
		rows = s.dateRows()
	case ModePerson:
		rows = s.personRows()
	case ModeLocation:
		rows = s.locationRows()
	case ModeFile:
		rows = s.fileRows()
	case ModeSource:
		rows = s.sourceRows()
	case ModeAccession:
		return s.accessionRows(), nil
	default:
		return nil, fmt.Errorf("unknown sort mode %q", mode)
	}
	s.sortRows(rows)
	return rows, nil
}

// sortRows orders by the string keys under collation, then by date.
// The sort is stable so ties preserve original item order.
func (s *Sorter) sortRows(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		for k := 0; k < len(a.keys) && k < len(b.keys); k++ {
			if c := s.coll.CompareString(a.keys[k], b.keys[k]); c != 0 {
				return c < 0
			}
		}
		return a.date.Before(b.date)
	})
}

// SortDate constructs the comparable date for an item. Missing pieces
// default low: year 0, January, the 1st. Invalid month abbreviations
// also fall back to January.
func SortDate(d archive.Date) time.Time {
	month := time.January
	if m, ok := monthAbbrev[strings.ToLower(d.Month)]; ok {
		month = m
	}
	day := d.Day
	if day < 1 {
		day = 1
	}
	return time.Date(d.Year, month, day, 0, 0, 0, 0, time.UTC)
}

var monthAbbrev = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

func formatDate(d archive.Date) string {
	parts := []string{}
	if d.Day > 0 {
		parts = append(parts, fmt.Sprintf("%d", d.Day))
	}
	if d.Month != "" {
		parts = append(parts, d.Month)
	}
	if d.Year != 0 {
		parts = append(parts, fmt.Sprintf("%d", d.Year))
	}
	return strings.Join(parts, " ")
}

func (s *Sorter) dateRows() []Row {
	var rows []Row
	for _, it := range s.reg.Items() {
		rows = append(rows, Row{
			Item:    it,
			Columns: []string{formatDate(it.Date), it.Accession, it.Link},
			date:    SortDate(it.Date),
		})
	}
	return rows
}

// personRows fans out one row per (item, person reference, last-name
// entry). The row keyed by one surname uses the person's other-category
// surnames as its secondary tiebreak: maiden names break ties on a
// married-name row and vice versa.
func (s *Sorter) personRows() []Row {
	var rows []Row
	for _, it := range s.reg.Items() {
		for _, ref := range it.Persons {
			p, ok := s.reg.GetPerson(ref.PersonID)
			if !ok {
				continue // validator reports these
			}
			names := p.Last
			if len(names) == 0 {
				names = []archive.LastName{{}}
			}
			for _, n := range names {
				var other []string
				if n.Married() {
					other = p.UnmarriedNames()
				} else {
					other = p.MarriedNames()
				}
				sorted := append([]string(nil), other...)
				sort.Strings(sorted)
				otherKey := strings.Join(sorted, " ")

				rows = append(rows, Row{
					Item:    it,
					Columns: []string{n.Last, p.First, otherKey, it.Accession, it.Link},
					keys:    []string{n.Last, p.First, otherKey},
					date:    SortDate(it.Date),
				})
			}
		}
	}
	return rows
}

func (s *Sorter) locationRows() []Row {
	var rows []Row
	for _, it := range s.reg.Items() {
		for _, loc := range it.Locations {
			rows = append(rows, Row{
				Item:    it,
				Columns: []string{loc.State, loc.City, loc.Detail, it.Accession, it.Link},
				keys:    []string{loc.State, loc.City, loc.Detail},
				date:    SortDate(it.Date),
			})
		}
	}
	return rows
}

func (s *Sorter) fileRows() []Row {
	var rows []Row
	for _, it := range s.reg.Items() {
		rows = append(rows, Row{
			Item:    it,
			Columns: []string{it.Link, it.Accession},
			keys:    []string{it.Link},
		})
	}
	return rows
}

// sourceRows fans out per (item, source, non-married surname of the
// source person). Married names do not participate in the source view.
func (s *Sorter) sourceRows() []Row {
	var rows []Row
	for _, it := range s.reg.Items() {
		for _, src := range it.Sources {
			p, ok := s.reg.GetPerson(src.PersonID)
			if !ok {
				continue
			}
			names := p.UnmarriedNames()
			if len(names) == 0 {
				names = []string{""}
			}
			for _, last := range names {
				rows = append(rows, Row{
					Item:    it,
					Columns: []string{last, p.First, src.Received, it.Accession, it.Link},
					keys:    []string{last, p.First, src.Received},
					date:    SortDate(it.Date),
				})
			}
		}
	}
	return rows
}

func (s *Sorter) accessionRows() []Row {
	var rows []Row
	for _, it := range s.reg.Items() {
		rows = append(rows, Row{
			Item:    it,
			Columns: []string{it.Accession, it.Link},
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return s.CompareAccessions(rows[i].Item.Accession, rows[j].Item.Accession) < 0
	})
	return rows
}
