// Package face maintains the per-person descriptor records and the
// matching math over them. The detector itself is external; this
// package only consumes its output (vector, region, confidence).
package face

import (
	"fmt"
	"math"
	"sort"

	"github.com/franz/archivist/internal/archive"
	"github.com/franz/archivist/internal/util"
)

const (
	// DefaultMatchThreshold is the maximum Euclidean distance at which
	// two descriptors are considered the same face.
	DefaultMatchThreshold = 0.6

	// DefaultIOUThreshold is the minimum overlap at which two
	// detections from different models count as the same face.
	DefaultIOUThreshold = 0.5
)

// Index provides descriptor operations over the person registry. It
// does not own the records; they live in each person's faceBioData.
type Index struct {
	reg *archive.Registry
}

// NewIndex wraps a registry.
func NewIndex(reg *archive.Registry) *Index {
	return &Index{reg: reg}
}

// Add attaches a descriptor record to a person. Any existing record for
// the same (person, link) pair is removed first: last write wins, the
// at-most-one-per-link invariant holds at every write.
func (x *Index) Add(personID, link, model string, region archive.Region, vector []float64, confidence float64) error {
	p, ok := x.reg.GetPerson(personID)
	if !ok {
		return fmt.Errorf("add descriptor: person %s: %w", personID, util.ErrNotFound)
	}
	if len(vector) != archive.DescriptorLength {
		return fmt.Errorf("add descriptor: vector has %d elements, want %d",
			len(vector), archive.DescriptorLength)
	}

	kept := p.FaceBioData[:0]
	for _, d := range p.FaceBioData {
		if d.Link != link {
			kept = append(kept, d)
		}
	}
	p.FaceBioData = append(kept, archive.Descriptor{
		Link:       link,
		Model:      model,
		Region:     region,
		Descriptor: vector,
		Confidence: confidence,
	})
	x.reg.MarkDirty()
	return nil
}

// RemoveByLink deletes every descriptor record, across all persons,
// whose link matches. Returns the number removed.
func (x *Index) RemoveByLink(link string) int {
	removed := 0
	for _, p := range x.reg.Persons() {
		kept := p.FaceBioData[:0]
		for _, d := range p.FaceBioData {
			if d.Link == link {
				removed++
			} else {
				kept = append(kept, d)
			}
		}
		p.FaceBioData = kept
	}
	if removed > 0 {
		x.reg.MarkDirty()
	}
	return removed
}

// Known pairs a stored descriptor with the person it belongs to.
type Known struct {
	PersonID   string
	Descriptor archive.Descriptor
}

// ForLink collects every descriptor record attached to the given link,
// across all persons.
func (x *Index) ForLink(link string) []Known {
	var out []Known
	for id, p := range x.reg.Persons() {
		for _, d := range p.FaceBioData {
			if d.Link == link {
				out = append(out, Known{PersonID: id, Descriptor: d})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PersonID < out[j].PersonID })
	return out
}

// All collects every descriptor record in the registry.
func (x *Index) All() []Known {
	var out []Known
	for id, p := range x.reg.Persons() {
		for _, d := range p.FaceBioData {
			out = append(out, Known{PersonID: id, Descriptor: d})
		}
	}
	return out
}

// MatchResult identifies the closest known face for a probe vector.
type MatchResult struct {
	PersonID   string
	Link       string
	Distance   float64
	Confidence float64 // 1 - distance
}

// Match compares a probe vector against every known descriptor and
// returns the closest one, but only when its Euclidean distance is
// below threshold. Pass threshold <= 0 for the default.
func Match(vector []float64, known []Known, threshold float64) (*MatchResult, bool) {
	if threshold <= 0 {
		threshold = DefaultMatchThreshold
	}

	best := math.Inf(1)
	var bestKnown *Known
	for i := range known {
		d := Distance(vector, known[i].Descriptor.Descriptor)
		if d < best {
			best = d
			bestKnown = &known[i]
		}
	}

	if bestKnown == nil || best >= threshold {
		return nil, false
	}
	return &MatchResult{
		PersonID:   bestKnown.PersonID,
		Link:       bestKnown.Descriptor.Link,
		Distance:   best,
		Confidence: 1 - best,
	}, true
}

// Distance is the Euclidean distance between two descriptor vectors.
// Mismatched lengths yield +Inf so a malformed record can never win a
// match.
func Distance(a, b []float64) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Detection is one face reported by a detector run, before storage.
// The JSON shape matches the external detector's output contract.
type Detection struct {
	Model      string         `json:"model"`
	Region     archive.Region `json:"region"`
	Descriptor []float64      `json:"descriptor"`
	Confidence float64        `json:"confidence"`
}

// Dedupe collapses detections of the same face produced by multiple
// detector models over one image. Two detections whose regions overlap
// above iouThreshold are the same face; the higher-confidence one is
// kept. Pass iouThreshold <= 0 for the default.
//
// The pairwise scan is quadratic, which is fine at the expected scale
// of tens of faces per image.
func Dedupe(dets []Detection, iouThreshold float64) []Detection {
	if iouThreshold <= 0 {
		iouThreshold = DefaultIOUThreshold
	}
	if len(dets) < 2 {
		return dets
	}

	sorted := make([]Detection, len(dets))
	copy(sorted, dets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	keep := make([]bool, len(sorted))
	for i := range keep {
		keep[i] = true
	}
	for i := 0; i < len(sorted); i++ {
		if !keep[i] {
			continue
		}
		for j := i + 1; j < len(sorted); j++ {
			if !keep[j] {
				continue
			}
			if IOU(sorted[i].Region, sorted[j].Region) > iouThreshold {
				keep[j] = false
			}
		}
	}

	var out []Detection
	for i, d := range sorted {
		if keep[i] {
			out = append(out, d)
		}
	}
	return out
}

// IOU computes intersection-over-union of two center-based normalized
// regions.
func IOU(a, b archive.Region) float64 {
	ax1, ay1, ax2, ay2 := corners(a)
	bx1, by1, bx2, by2 := corners(b)

	x1 := math.Max(ax1, bx1)
	y1 := math.Max(ay1, by1)
	x2 := math.Min(ax2, bx2)
	y2 := math.Min(ay2, by2)

	intersection := math.Max(0, x2-x1) * math.Max(0, y2-y1)
	union := a.W*a.H + b.W*b.H - intersection
	if union <= 0 {
		return 0
	}
	return intersection / union
}

func corners(r archive.Region) (x1, y1, x2, y2 float64) {
	return r.X - r.W/2, r.Y - r.H/2, r.X + r.W/2, r.Y + r.H/2
}
