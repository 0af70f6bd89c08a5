package archive

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/franz/archivist/internal/util"
	"github.com/spf13/afero"
)

func testRegistry() *Registry {
	doc := &Document{
		Accessions: Accessions{Items: []*Item{
			{Accession: "A1", Link: "wedding.jpg", Type: TypePhoto,
				Persons: []PersonRef{{PersonID: "p-moss"}}},
			{Accession: "A2", Link: "picnic.jpg", Type: TypePhoto,
				Sources: []SourceRef{{PersonID: "p-russell", Received: "1998-04-12"}}},
			{Accession: "A3", Link: "reunion.mp3", Type: TypeAudio},
		}},
		Persons: map[string]*Person{
			"p-moss":    {PersonID: "p-moss", First: "Edna", Last: []LastName{{Last: "Moss"}}},
			"p-russell": {PersonID: "p-russell", First: "Ray", Last: []LastName{{Last: "Russell"}}},
			"p-idle":    {PersonID: "p-idle", First: "Nobody"},
		},
	}
	return NewRegistry(doc)
}

func TestSavePersonCreatesAndUpdates(t *testing.T) {
	reg := testRegistry()

	id, err := reg.SavePerson(&Person{First: "New", Last: []LastName{{Last: "Person"}}})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if id == "" {
		t.Fatal("expected a generated personID")
	}
	if !reg.Dirty() {
		t.Error("expected registry to be dirty after create")
	}

	p, ok := reg.GetPerson(id)
	if !ok {
		t.Fatal("created person not found")
	}
	p.First = "Renamed"
	if _, err := reg.SavePerson(p); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	got, _ := reg.GetPerson(id)
	if got.First != "Renamed" {
		t.Errorf("expected update in place, got first=%s", got.First)
	}
}

func TestSavePersonRejectsUnknownID(t *testing.T) {
	reg := testRegistry()
	if _, err := reg.SavePerson(&Person{PersonID: "made-up"}); !errors.Is(err, util.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeletePersonReferentialProtection(t *testing.T) {
	reg := testRegistry()

	// Referenced as a tagged person
	if err := reg.DeletePerson("p-moss"); !errors.Is(err, util.ErrReferenced) {
		t.Errorf("expected ErrReferenced for tagged person, got %v", err)
	}
	// Referenced as a source
	if err := reg.DeletePerson("p-russell"); !errors.Is(err, util.ErrReferenced) {
		t.Errorf("expected ErrReferenced for source person, got %v", err)
	}
	// Unreferenced
	if err := reg.DeletePerson("p-idle"); err != nil {
		t.Errorf("expected unreferenced delete to succeed, got %v", err)
	}
	if _, ok := reg.GetPerson("p-idle"); ok {
		t.Error("expected person to be gone")
	}
}

func TestGetItemsForPerson(t *testing.T) {
	reg := testRegistry()

	items := reg.GetItemsForPerson("p-moss")
	if len(items) != 1 || items[0].Link != "wedding.jpg" {
		t.Errorf("expected wedding.jpg, got %v", items)
	}
	items = reg.GetItemsForPerson("p-russell")
	if len(items) != 1 || items[0].Link != "picnic.jpg" {
		t.Errorf("expected source scan to find picnic.jpg, got %v", items)
	}
	if items = reg.GetItemsForPerson("p-idle"); len(items) != 0 {
		t.Errorf("expected no items, got %d", len(items))
	}
}

func TestSaveItemReplacesByAccession(t *testing.T) {
	reg := testRegistry()

	if err := reg.SaveItem(&Item{Accession: "A3", Link: "reunion.mp3", Type: TypeAudio,
		Date: Date{Year: 1977}}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	it, _ := reg.GetItemByLink("reunion.mp3")
	if it.Date.Year != 1977 {
		t.Errorf("expected replacement, got year %d", it.Date.Year)
	}

	if err := reg.SaveItem(&Item{Accession: "A99", Link: "x.jpg"}); !errors.Is(err, util.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown accession, got %v", err)
	}
}

func TestDeleteItemLeavesDescriptors(t *testing.T) {
	reg := testRegistry()
	p, _ := reg.GetPerson("p-moss")
	p.FaceBioData = []Descriptor{{Link: "wedding.jpg", Model: "m1",
		Descriptor: make([]float64, DescriptorLength)}}

	if err := reg.DeleteItem("wedding.jpg"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, ok := reg.GetItemByLink("wedding.jpg"); ok {
		t.Error("expected item to be gone")
	}
	// Descriptor purge is a separate maintenance operation.
	if len(p.FaceBioData) != 1 {
		t.Error("expected descriptors to survive item deletion")
	}
}

func TestArchiveRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := filepath.Join("data", "archive.json")

	reg := testRegistry()
	reg.MarkDirty()
	if err := reg.Save(fs, path); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if reg.Dirty() {
		t.Error("expected dirty flag cleared after save")
	}

	loaded, err := Load(fs, path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(loaded.Items()) != 3 {
		t.Errorf("expected 3 items, got %d", len(loaded.Items()))
	}
	if len(loaded.Persons()) != 3 {
		t.Errorf("expected 3 persons, got %d", len(loaded.Persons()))
	}
	p, ok := loaded.GetPerson("p-moss")
	if !ok || p.First != "Edna" || len(p.Last) != 1 || p.Last[0].Last != "Moss" {
		t.Errorf("person record did not round-trip: %+v", p)
	}
}

func TestSaveSkipsWhenClean(t *testing.T) {
	fs := afero.NewMemMapFs()
	reg := testRegistry()
	if err := reg.Save(fs, "archive.json"); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if ok, _ := afero.Exists(fs, "archive.json"); ok {
		t.Error("clean registry should not write anything")
	}
}

func TestLoadMissingArchiveStartsEmpty(t *testing.T) {
	reg, err := Load(afero.NewMemMapFs(), "missing.json")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(reg.Items()) != 0 || len(reg.Persons()) != 0 {
		t.Error("expected empty registry")
	}
	if !reg.Dirty() {
		t.Error("fresh registry should be dirty so the first flush creates the file")
	}
}
