package archive

import (
	"fmt"

	"github.com/franz/archivist/internal/util"
	"github.com/google/uuid"
)

// Registry is the single source of truth for items and persons. It owns
// the archive document and tracks a dirty flag so that persistence can
// be deferred to an explicit flush by the host command.
//
// Registry is not safe for concurrent use; the expected caller issues
// one operation at a time.
type Registry struct {
	doc   *Document
	dirty bool
}

// NewRegistry wraps an archive document. A nil document yields an empty
// registry marked dirty so the first flush creates the file.
func NewRegistry(doc *Document) *Registry {
	dirty := false
	if doc == nil {
		doc = &Document{Persons: map[string]*Person{}}
		dirty = true
	}
	if doc.Persons == nil {
		doc.Persons = map[string]*Person{}
	}
	return &Registry{doc: doc, dirty: dirty}
}

// Dirty reports whether the registry has unsaved mutations.
func (r *Registry) Dirty() bool { return r.dirty }

// MarkDirty flags the registry for the next flush. Exposed for the
// migrator, which rewrites the document wholesale.
func (r *Registry) MarkDirty() { r.dirty = true }

// markClean is called by Save after a successful write.
func (r *Registry) markClean() { r.dirty = false }

// Items returns the live item slice. Callers must not reorder it.
func (r *Registry) Items() []*Item { return r.doc.Accessions.Items }

// Persons returns the live person map keyed by personID.
func (r *Registry) Persons() map[string]*Person { return r.doc.Persons }

// GetPerson looks up a person by id.
func (r *Registry) GetPerson(id string) (*Person, bool) {
	p, ok := r.doc.Persons[id]
	return p, ok
}

// SavePerson creates or updates a person. With an empty PersonID a new
// identifier is generated; otherwise the existing record is replaced in
// place. Supplying an id that is already bound to a different logical
// person record is the caller's bug, but supplying an unknown non-empty
// id is rejected so typos cannot mint identifiers.
func (r *Registry) SavePerson(p *Person) (string, error) {
	if p == nil {
		return "", fmt.Errorf("save person: nil record")
	}
	if p.PersonID == "" {
		p.PersonID = uuid.NewString()
	} else if _, ok := r.doc.Persons[p.PersonID]; !ok {
		return "", fmt.Errorf("save person %s: %w", p.PersonID, util.ErrNotFound)
	}
	r.doc.Persons[p.PersonID] = p
	r.dirty = true
	return p.PersonID, nil
}

// AddPerson inserts a person that already carries a generated id.
// Used by the migrator, which assigns identifiers itself.
func (r *Registry) AddPerson(p *Person) error {
	if p.PersonID == "" {
		return fmt.Errorf("add person: missing personID")
	}
	if _, ok := r.doc.Persons[p.PersonID]; ok {
		return fmt.Errorf("add person %s: %w", p.PersonID, util.ErrConflict)
	}
	r.doc.Persons[p.PersonID] = p
	r.dirty = true
	return nil
}

// DeletePerson removes a person only if no item references it, either
// as a tagged person or as a source. Referential protection, not a
// cascading delete.
func (r *Registry) DeletePerson(id string) error {
	if _, ok := r.doc.Persons[id]; !ok {
		return fmt.Errorf("delete person %s: %w", id, util.ErrNotFound)
	}
	if items := r.GetItemsForPerson(id); len(items) > 0 {
		return fmt.Errorf("delete person %s: referenced by %d item(s): %w",
			id, len(items), util.ErrReferenced)
	}
	delete(r.doc.Persons, id)
	r.dirty = true
	return nil
}

// GetItemsForPerson returns every item that references the person,
// either in its person list or as a source. Linear scan; the archive is
// small enough that no index is kept.
func (r *Registry) GetItemsForPerson(id string) []*Item {
	var out []*Item
	for _, it := range r.doc.Accessions.Items {
		if itemReferencesPerson(it, id) {
			out = append(out, it)
		}
	}
	return out
}

func itemReferencesPerson(it *Item, id string) bool {
	for _, ref := range it.Persons {
		if ref.PersonID == id {
			return true
		}
	}
	for _, src := range it.Sources {
		if src.PersonID == id {
			return true
		}
	}
	return false
}

// GetItemByLink looks up an item by its filename key.
func (r *Registry) GetItemByLink(link string) (*Item, bool) {
	for _, it := range r.doc.Accessions.Items {
		if it.Link == link {
			return it, true
		}
	}
	return nil, false
}

// SaveItem replaces the record whose accession matches the incoming
// one. Fails when no record matches; item creation goes through the
// import flow, not through save.
func (r *Registry) SaveItem(it *Item) error {
	if it == nil || it.Accession == "" {
		return fmt.Errorf("save item: missing accession")
	}
	for i, existing := range r.doc.Accessions.Items {
		if existing.Accession == it.Accession {
			r.doc.Accessions.Items[i] = it
			r.dirty = true
			return nil
		}
	}
	return fmt.Errorf("save item %s: %w", it.Accession, util.ErrNotFound)
}

// DeleteItem removes the item with the given link. Descriptor records
// pointing at the link are deliberately left in place so the user can
// reattach a re-imported file; the validator flags them and the cleanup
// operation removes them.
func (r *Registry) DeleteItem(link string) error {
	items := r.doc.Accessions.Items
	for i, it := range items {
		if it.Link == link {
			r.doc.Accessions.Items = append(items[:i], items[i+1:]...)
			r.dirty = true
			return nil
		}
	}
	return fmt.Errorf("delete item %s: %w", link, util.ErrNotFound)
}
