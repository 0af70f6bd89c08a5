package migrate

import (
	"encoding/json"
	"testing"

	"github.com/franz/archivist/internal/archive"
)

func legacyRegistry() *archive.Registry {
	tmg := 42
	return archive.NewRegistry(&archive.Document{
		Accessions: archive.Accessions{Items: []*archive.Item{
			{Accession: "A1", Link: "wedding.jpg", Type: archive.TypePhoto,
				Persons: []archive.PersonRef{
					{First: "Edna", Last: json.RawMessage(`"Moss"`), TMGID: &tmg, Position: "left"},
					{First: "Ray", Last: json.RawMessage(`["Russell"]`)},
				}},
			{Accession: "A2", Link: "picnic.jpg", Type: archive.TypePhoto,
				Persons: []archive.PersonRef{
					// Same identity as the scalar form above.
					{First: "Edna", Last: json.RawMessage(`["Moss"]`)},
				},
				Sources: []archive.SourceRef{
					{First: "Ray", Last: json.RawMessage(`["Russell"]`), Received: "1998-04-12"},
				}},
			{Accession: "A3", Link: "camcorder.mp4", Type: "tape"},
		}},
		Persons: map[string]*archive.Person{},
	})
}

func TestDetect(t *testing.T) {
	if !Detect(legacyRegistry()) {
		t.Error("expected legacy shape to be detected")
	}

	modern := archive.NewRegistry(&archive.Document{
		Accessions: archive.Accessions{Items: []*archive.Item{
			{Accession: "A1", Link: "x.jpg",
				Persons: []archive.PersonRef{{PersonID: "p1"}}},
		}},
		Persons: map[string]*archive.Person{"p1": {PersonID: "p1"}},
	})
	if Detect(modern) {
		t.Error("modern archive must not trigger migration")
	}
}

func TestRunDeduplicatesByIdentity(t *testing.T) {
	reg := legacyRegistry()
	res, err := New(reg, nil).Run()
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	// Edna Moss appears twice (scalar and array form), Ray Russell
	// twice (person and source): two registry entries total.
	if res.PersonsCreated != 2 {
		t.Errorf("expected 2 persons created, got %d", res.PersonsCreated)
	}
	if res.Deduplicated != 2 {
		t.Errorf("expected 2 duplicates collapsed, got %d", res.Deduplicated)
	}
	if res.ReferencesRewritten != 4 {
		t.Errorf("expected 4 references rewritten, got %d", res.ReferencesRewritten)
	}
	if len(reg.Persons()) != 2 {
		t.Errorf("expected 2 registry entries, got %d", len(reg.Persons()))
	}
}

func TestRunRewritesReferences(t *testing.T) {
	reg := legacyRegistry()
	if _, err := New(reg, nil).Run(); err != nil {
		t.Fatalf("run: %v", err)
	}

	wedding, _ := reg.GetItemByLink("wedding.jpg")
	picnic, _ := reg.GetItemByLink("picnic.jpg")

	// Every reference resolves, inline biography is gone, item-local
	// attributes survive.
	for _, ref := range wedding.Persons {
		if ref.PersonID == "" {
			t.Fatal("reference not rewritten")
		}
		if _, ok := reg.GetPerson(ref.PersonID); !ok {
			t.Errorf("rewritten reference %s does not resolve", ref.PersonID)
		}
		if ref.First != "" || len(ref.Last) != 0 || ref.TMGID != nil {
			t.Errorf("inline biography should be cleared: %+v", ref)
		}
	}
	if wedding.Persons[0].Position != "left" {
		t.Error("item-local position lost in rewrite")
	}

	// Same identity resolved to the same personID across items, and
	// across the person/source distinction.
	if wedding.Persons[0].PersonID != picnic.Persons[0].PersonID {
		t.Error("Edna Moss should map to one personID everywhere")
	}
	if wedding.Persons[1].PersonID != picnic.Sources[0].PersonID {
		t.Error("Ray Russell the source is the same person as Ray Russell the subject")
	}
	if picnic.Sources[0].Received != "1998-04-12" {
		t.Error("source received date lost in rewrite")
	}

	// The canonical biography came from the first occurrence.
	edna, _ := reg.GetPerson(wedding.Persons[0].PersonID)
	if edna.TMGID == nil || *edna.TMGID != 42 {
		t.Errorf("TMGID from first occurrence should be kept: %+v", edna)
	}
	if len(edna.Last) != 1 || edna.Last[0].Last != "Moss" {
		t.Errorf("surname wrong: %+v", edna.Last)
	}
}

func TestRunNormalizesRetiredMediaType(t *testing.T) {
	reg := legacyRegistry()
	res, err := New(reg, nil).Run()
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.TypesNormalized != 1 {
		t.Errorf("expected 1 type normalized, got %d", res.TypesNormalized)
	}
	it, _ := reg.GetItemByLink("camcorder.mp4")
	if it.Type != archive.TypeVideo {
		t.Errorf("expected tape -> video, got %s", it.Type)
	}
}

func TestRunSkipsBlankEntries(t *testing.T) {
	reg := archive.NewRegistry(&archive.Document{
		Accessions: archive.Accessions{Items: []*archive.Item{
			{Accession: "A1", Link: "x.jpg",
				Persons: []archive.PersonRef{
					{Position: "somewhere", First: "", Last: json.RawMessage(`null`)},
					{First: "Edna", Last: json.RawMessage(`"Moss"`)},
				}},
			{Accession: "A2", Link: "y.jpg",
				Persons: []archive.PersonRef{
					// A second blank must not merge with the first.
					{Position: "elsewhere", Last: json.RawMessage(`null`)},
				}},
		}},
		Persons: map[string]*archive.Person{},
	})

	res, err := New(reg, nil).Run()
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.PersonsCreated != 1 {
		t.Errorf("blank entries must never create persons, got %d", res.PersonsCreated)
	}
	if res.Skipped != 2 {
		t.Errorf("expected 2 blank entries skipped, got %d", res.Skipped)
	}

	// Skipped refs are left for the validator to report: no personID,
	// position intact.
	x, _ := reg.GetItemByLink("x.jpg")
	if x.Persons[0].PersonID != "" {
		t.Error("blank entry must not receive a personID")
	}
	if x.Persons[0].Position != "somewhere" {
		t.Error("blank entry must be left untouched")
	}
}

func TestRunKeepsMarriedTypeFromObjectForm(t *testing.T) {
	reg := archive.NewRegistry(&archive.Document{
		Accessions: archive.Accessions{Items: []*archive.Item{
			{Accession: "A1", Link: "x.jpg",
				Persons: []archive.PersonRef{
					{First: "Edna", Last: json.RawMessage(`[{"last":"Moss"},{"last":"Russell","type":"married"}]`)},
				}},
		}},
		Persons: map[string]*archive.Person{},
	})

	if _, err := New(reg, nil).Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	it, _ := reg.GetItemByLink("x.jpg")
	p, _ := reg.GetPerson(it.Persons[0].PersonID)
	if len(p.Last) != 2 {
		t.Fatalf("expected 2 surname entries, got %+v", p.Last)
	}
	if p.Last[0].Last != "Moss" || p.Last[0].Type != "" {
		t.Errorf("first entry wrong: %+v", p.Last[0])
	}
	if p.Last[1].Last != "Russell" || !p.Last[1].Married() {
		t.Errorf("married type lost: %+v", p.Last[1])
	}
}
