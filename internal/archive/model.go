package archive

import "encoding/json"

// Media types for items. "tape" is a retired legacy type that the
// migrator rewrites to "video" on load.
const (
	TypePhoto = "photo"
	TypeAudio = "audio"
	TypeVideo = "video"

	legacyTypeTape = "tape"
)

// DescriptorLength is the fixed size of a face descriptor vector.
const DescriptorLength = 128

// Date is a partial calendar date as recorded on an accession.
// Month is a 3-letter English abbreviation ("Jan".."Dec") or empty.
// Any component may be zero/empty when unknown.
type Date struct {
	Year  int    `json:"year,omitempty"`
	Month string `json:"month,omitempty"`
	Day   int    `json:"day,omitempty"`
}

// Location is one place associated with an item. Older archives carry a
// single free-form GPS string instead of split coordinates.
type Location struct {
	Detail    string  `json:"detail,omitempty"`
	City      string  `json:"city,omitempty"`
	State     string  `json:"state,omitempty"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
	GPS       string  `json:"gps,omitempty"`
}

// PersonRef links an item to a person in the registry. Position and
// Context are item-local attributes ("second from left", "bride").
//
// The First/Last/TMGID fields only appear in legacy archives where the
// biography was embedded in every item; the migrator moves them into the
// registry and clears them. Last may be a scalar or an array in old data.
type PersonRef struct {
	PersonID string `json:"personID,omitempty"`
	Position string `json:"position,omitempty"`
	Context  string `json:"context,omitempty"`

	First string          `json:"first,omitempty"`
	Last  json.RawMessage `json:"last,omitempty"`
	TMGID *int            `json:"TMGID,omitempty"`
}

// HasInlineBiography reports whether this reference still carries legacy
// embedded person data instead of a registry identifier.
func (r *PersonRef) HasInlineBiography() bool {
	return r.First != "" || len(r.Last) > 0
}

// SourceRef records who an item was received from and when.
type SourceRef struct {
	PersonID string `json:"personID,omitempty"`
	Received string `json:"received,omitempty"`

	First string          `json:"first,omitempty"`
	Last  json.RawMessage `json:"last,omitempty"`
	TMGID *int            `json:"TMGID,omitempty"`
}

// PlaylistRef points an audio/video item at a segment of another item.
type PlaylistRef struct {
	Ref       string `json:"ref"`
	StartTime string `json:"starttime,omitempty"`
	Duration  string `json:"duration,omitempty"`
}

// Item is the metadata record for one physical media file. Link (the
// filename, unique within its media-type subdirectory) is the de facto
// primary key; Accession is the human-facing number and is not
// guaranteed unique across imports.
type Item struct {
	Accession string        `json:"accession"`
	Link      string        `json:"link"`
	Type      string        `json:"type"`
	Date      Date          `json:"date,omitempty"`
	Locations []Location    `json:"location,omitempty"`
	Persons   []PersonRef   `json:"person,omitempty"`
	Sources   []SourceRef   `json:"source,omitempty"`
	Playlist  []PlaylistRef `json:"playlist,omitempty"`
}

// LastName is one entry in a person's chronological surname history.
// Type "married" is semantically distinct from maiden/other names.
// Storage order is chronologically significant and is never re-sorted;
// only derived views may reorder.
type LastName struct {
	Last string `json:"last"`
	Type string `json:"type,omitempty"`
}

// Married reports whether this is a married-name entry.
func (n LastName) Married() bool {
	return n.Type == "married"
}

// Descriptor is one face record attached to a person: where the face was
// found (Link + Region), which detector produced it (Model), and the
// embedding used for matching. At most one descriptor exists per
// (person, link) pair.
type Descriptor struct {
	Link       string    `json:"link"`
	Model      string    `json:"model"`
	Region     Region    `json:"region"`
	Descriptor []float64 `json:"descriptor"`
	Confidence float64   `json:"confidence"`
}

// Region is a center-based bounding box, normalized 0..1 relative to the
// image dimensions.
type Region struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Person is one registry entry. PersonID is generated once and never
// reused; it is the only identifier external references may carry.
type Person struct {
	PersonID    string       `json:"personID"`
	TMGID       *int         `json:"TMGID,omitempty"`
	First       string       `json:"first,omitempty"`
	Last        []LastName   `json:"last,omitempty"`
	FaceBioData []Descriptor `json:"faceBioData,omitempty"`
}

// MarriedNames returns the married-name strings in storage order.
func (p *Person) MarriedNames() []string {
	var out []string
	for _, n := range p.Last {
		if n.Married() {
			out = append(out, n.Last)
		}
	}
	return out
}

// UnmarriedNames returns the maiden/other name strings in storage order.
func (p *Person) UnmarriedNames() []string {
	var out []string
	for _, n := range p.Last {
		if !n.Married() {
			out = append(out, n.Last)
		}
	}
	return out
}

// DisplayName renders "First Last" using the first surname entry.
func (p *Person) DisplayName() string {
	name := p.First
	if len(p.Last) > 0 {
		if name != "" {
			name += " "
		}
		name += p.Last[0].Last
	}
	return name
}

// Document is the on-disk shape of the archive: one JSON document with
// all accession items and the person registry keyed by personID.
type Document struct {
	Accessions Accessions         `json:"accessions"`
	Persons    map[string]*Person `json:"persons"`
}

// Accessions wraps the item list to match the archive file layout.
type Accessions struct {
	Items []*Item `json:"item"`
}
