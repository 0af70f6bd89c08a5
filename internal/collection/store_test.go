package collection

import (
	"errors"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/franz/archivist/internal/util"
	"github.com/spf13/afero"
)

func newTestStore(t *testing.T) (*Store, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll("collections", 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	s, err := Open(fs, "collections", nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return s, fs
}

func mustCreate(t *testing.T, s *Store, key string, links ...string) *Collection {
	t.Helper()
	c, err := s.Create(key, key, "The "+key+" collection")
	if err != nil {
		t.Fatalf("create %s: %v", key, err)
	}
	for _, l := range links {
		if _, err := c.AddItem(l); err != nil {
			t.Fatalf("add %s: %v", l, err)
		}
	}
	return c
}

func TestAddItemIdempotent(t *testing.T) {
	s, _ := newTestStore(t)
	c := mustCreate(t, s, "trips")

	added, err := c.AddItem("beach.jpg")
	if err != nil || !added {
		t.Fatalf("first add: added=%v err=%v", added, err)
	}
	added, err = c.AddItem("beach.jpg")
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if added {
		t.Error("second add should be a no-op")
	}
	if got := c.Links(); len(got) != 1 {
		t.Errorf("expected 1 link, got %v", got)
	}
}

func TestRemoveItemIdempotent(t *testing.T) {
	s, _ := newTestStore(t)
	c := mustCreate(t, s, "trips", "beach.jpg", "dunes.jpg")

	n, err := c.RemoveItem("beach.jpg")
	if err != nil || n != 1 {
		t.Fatalf("first remove: n=%d err=%v", n, err)
	}
	n, err = c.RemoveItem("beach.jpg")
	if err != nil {
		t.Fatalf("second remove: %v", err)
	}
	if n != 0 {
		t.Error("second remove should change nothing")
	}
	if got := c.Links(); len(got) != 1 || got[0] != "dunes.jpg" {
		t.Errorf("expected [dunes.jpg], got %v", got)
	}
}

func TestFlushClearsDirtyAndRoundTrips(t *testing.T) {
	s, fs := newTestStore(t)
	c := mustCreate(t, s, "trips", "beach.jpg", "dunes.jpg")

	if !c.Dirty() {
		t.Fatal("new collection should be dirty")
	}
	if err := s.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if c.Dirty() {
		t.Error("flush should clear the dirty flag")
	}

	reopened, err := Open(fs, "collections", nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := reopened.Get("trips")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Text != "trips" || got.Title != "The trips collection" {
		t.Errorf("labels did not round-trip: %+v", got)
	}
	links := got.Links()
	if len(links) != 2 || links[0] != "beach.jpg" || links[1] != "dunes.jpg" {
		t.Errorf("links did not round-trip: %v", links)
	}
	if got.Dirty() {
		t.Error("freshly loaded collection should be clean")
	}
}

func TestLegacyItemKeysUpgrade(t *testing.T) {
	fs := afero.NewMemMapFs()
	legacy := `{"key":"old","text":"old","title":"Old","itemKeys":[
		{"accession":"A1","link":"beach.jpg"},
		{"accession":"A2","link":"dunes.jpg"}]}`
	if err := afero.WriteFile(fs, "collections/old.json", []byte(legacy), 0644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	s, err := Open(fs, "collections", nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	c, err := s.Get("old")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	links := c.Links()
	if len(links) != 2 || links[0] != "beach.jpg" || links[1] != "dunes.jpg" {
		t.Errorf("expected upgraded links, got %v", links)
	}
	if !c.Dirty() {
		t.Error("upgraded collection should be dirty so the new shape is persisted")
	}

	// After a flush, the file holds plain link strings.
	if err := s.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	data, _ := afero.ReadFile(fs, "collections/old.json")
	if strings.Contains(string(data), "accession") {
		t.Errorf("expected link-only itemKeys after flush, got %s", data)
	}
}

func TestBackupOmitsJSONSuffix(t *testing.T) {
	s, fs := newTestStore(t)
	mustCreate(t, s, "trips", "beach.jpg")

	path, err := s.Backup("trips", "20240101-120000")
	if err != nil {
		t.Fatalf("backup: %v", err)
	}
	if filepath.Ext(path) == ".json" {
		t.Errorf("backup name must not end in .json: %s", path)
	}
	if ok, _ := afero.Exists(fs, "collections/trips.20240101-120000"); !ok {
		t.Error("expected backup file on disk")
	}

	// Directory ingestion never picks the backup up.
	reopened, err := Open(fs, "collections", nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if keys := reopened.Keys(); len(keys) != 1 || keys[0] != "trips" {
		t.Errorf("expected only the live collection, got %v", keys)
	}
}

func TestDeleteArchivesInsteadOfErasing(t *testing.T) {
	s, fs := newTestStore(t)
	mustCreate(t, s, "trips", "beach.jpg")

	if err := s.Delete("trips"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get("trips"); !errors.Is(err, util.ErrNotFound) {
		t.Errorf("expected collection out of the active set, got %v", err)
	}
	if ok, _ := afero.Exists(fs, "collections/trips.json"); ok {
		t.Error("live file should be renamed away")
	}

	entries, _ := afero.ReadDir(fs, "collections")
	found := false
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "trips.archived.") {
			found = true
			if strings.HasSuffix(e.Name(), ".json") {
				t.Errorf("archived name must not end in .json: %s", e.Name())
			}
		}
	}
	if !found {
		t.Error("expected an archived file to remain on disk")
	}
}

func TestUnionAndIntersectLaws(t *testing.T) {
	s, _ := newTestStore(t)
	a := mustCreate(t, s, "a", "1.jpg", "2.jpg")
	mustCreate(t, s, "b", "2.jpg", "3.jpg")

	res, err := s.Union("a", "b")
	if err != nil {
		t.Fatalf("union: %v", err)
	}
	if res.Added != 1 || res.Skipped != 1 || res.Kept != 2 {
		t.Errorf("union counts wrong: %s", res)
	}
	got := a.Links()
	sort.Strings(got)
	want := []string{"1.jpg", "2.jpg", "3.jpg"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("union result: expected %v, got %v", want, got)
		}
	}

	// Re-running with unchanged inputs yields zero further change.
	res, err = s.Union("a", "b")
	if err != nil {
		t.Fatalf("second union: %v", err)
	}
	if res.Added != 0 || res.Skipped != 2 {
		t.Errorf("union should be idempotent: %s", res)
	}

	// intersect(a union b, b) keeps exactly b's members.
	res, err = s.Intersect("a", "b")
	if err != nil {
		t.Fatalf("intersect: %v", err)
	}
	if res.Kept != 2 || res.Removed != 1 {
		t.Errorf("intersect counts wrong: %s", res)
	}
	got = a.Links()
	sort.Strings(got)
	if len(got) != 2 || got[0] != "2.jpg" || got[1] != "3.jpg" {
		t.Errorf("intersect result: %v", got)
	}
}

func TestDifferenceThenIntersectIsEmpty(t *testing.T) {
	s, _ := newTestStore(t)
	a := mustCreate(t, s, "a", "1.jpg", "2.jpg", "3.jpg")
	mustCreate(t, s, "b", "2.jpg", "3.jpg")

	res, err := s.Difference("a", "b")
	if err != nil {
		t.Fatalf("difference: %v", err)
	}
	if res.Removed != 2 || res.Kept != 1 {
		t.Errorf("difference counts wrong: %s", res)
	}

	if _, err := s.Intersect("a", "b"); err != nil {
		t.Fatalf("intersect: %v", err)
	}
	if a.Len() != 0 {
		t.Errorf("difference(a,b) then intersect(.,b) should be empty, got %v", a.Links())
	}
}

func TestSetOpsRequireBothCollections(t *testing.T) {
	s, _ := newTestStore(t)
	mustCreate(t, s, "a", "1.jpg")

	if _, err := s.Union("a", "missing"); !errors.Is(err, util.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing source, got %v", err)
	}
	if _, err := s.Union("missing", "a"); !errors.Is(err, util.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing target, got %v", err)
	}
}

func TestAddAllSkipsExisting(t *testing.T) {
	s, _ := newTestStore(t)
	c := mustCreate(t, s, "everything", "1.jpg")

	res, err := s.AddAll("everything", []string{"1.jpg", "2.jpg", "3.jpg"})
	if err != nil {
		t.Fatalf("addall: %v", err)
	}
	if res.Added != 2 || res.Skipped != 1 {
		t.Errorf("addall counts wrong: %s", res)
	}
	if c.Len() != 3 {
		t.Errorf("expected 3 links, got %d", c.Len())
	}
}

func TestBackupFailureAbortsMutation(t *testing.T) {
	// Seed a store on a writable fs, flush it, then reopen everything
	// on a read-only view: the backup write fails, and the union must
	// leave the target untouched.
	base := afero.NewMemMapFs()
	base.MkdirAll("collections", 0755)
	s, err := Open(base, "collections", nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	mustCreate(t, s, "a", "1.jpg")
	mustCreate(t, s, "b", "2.jpg")
	if err := s.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	ro, err := Open(afero.NewReadOnlyFs(base), "collections", nil)
	if err != nil {
		t.Fatalf("reopen read-only: %v", err)
	}
	_, err = ro.Union("a", "b")
	if !errors.Is(err, util.ErrBackupFailed) {
		t.Fatalf("expected ErrBackupFailed, got %v", err)
	}

	a, _ := ro.Get("a")
	if got := a.Links(); len(got) != 1 || got[0] != "1.jpg" {
		t.Errorf("target mutated despite failed backup: %v", got)
	}
	if a.Dirty() {
		t.Error("target should not be dirty after an aborted operation")
	}
}
