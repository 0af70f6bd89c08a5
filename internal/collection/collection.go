// Package collection implements the named item-subset store: one JSON
// file per collection, deferred persistence with per-collection dirty
// flags, timestamped backups before any bulk mutation, and archival
// instead of deletion.
package collection

import (
	"encoding/json"
	"fmt"

	"github.com/franz/archivist/internal/util"
)

// Collection is a named subset of the archive's items, stored as link
// values. Membership order is positionally stable; duplicates are
// rejected at add time.
//
// State machine: clean -> dirty on creation or any mutation,
// dirty -> clean only after a successful write to disk.
type Collection struct {
	Key   string
	Text  string
	Title string

	links    []string
	dirty    bool
	archived bool
}

// New creates a collection. New collections start dirty so the first
// flush persists them.
func New(key, text, title string) *Collection {
	return &Collection{Key: key, Text: text, Title: title, dirty: true}
}

// Dirty reports whether the collection has unsaved changes.
func (c *Collection) Dirty() bool { return c.dirty }

// Archived reports whether the collection has been archived. Archived
// collections reject further mutation.
func (c *Collection) Archived() bool { return c.archived }

// Links returns a copy of the membership list in stored order.
func (c *Collection) Links() []string {
	out := make([]string, len(c.links))
	copy(out, c.links)
	return out
}

// Len returns the number of items.
func (c *Collection) Len() int { return len(c.links) }

// Contains reports membership of a link.
func (c *Collection) Contains(link string) bool {
	for _, l := range c.links {
		if l == link {
			return true
		}
	}
	return false
}

// AddItem appends a link. Adding a link that is already present is a
// no-op reported as false; the caller logs the conflict. Returns an
// error only for archived collections.
func (c *Collection) AddItem(link string) (bool, error) {
	if c.archived {
		return false, fmt.Errorf("add to %s: %w", c.Key, util.ErrArchived)
	}
	if c.Contains(link) {
		return false, nil
	}
	c.links = append(c.links, link)
	c.dirty = true
	return true, nil
}

// RemoveItem filters out all entries matching link. Idempotent: a
// second call removes nothing. Returns the number removed.
func (c *Collection) RemoveItem(link string) (int, error) {
	if c.archived {
		return 0, fmt.Errorf("remove from %s: %w", c.Key, util.ErrArchived)
	}
	kept := c.links[:0]
	removed := 0
	for _, l := range c.links {
		if l == link {
			removed++
		} else {
			kept = append(kept, l)
		}
	}
	if removed > 0 {
		c.links = kept
		c.dirty = true
	}
	return removed, nil
}

// fileDocument is the on-disk collection shape. ItemKeys holds raw
// messages because legacy files stored {accession, link} objects where
// current files store plain link strings.
type fileDocument struct {
	Key      string            `json:"key"`
	Text     string            `json:"text"`
	Title    string            `json:"title"`
	ItemKeys []json.RawMessage `json:"itemKeys"`
}

type legacyItemKey struct {
	Accession string `json:"accession"`
	Link      string `json:"link"`
}

// decode parses a collection file, upgrading the legacy itemKeys shape
// to the link-only array. The upgrade is silent apart from a logged
// migration note; the file is rewritten in the new shape on the next
// flush because the upgrade marks the collection dirty.
func decode(data []byte) (*Collection, bool, error) {
	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, false, fmt.Errorf("%v: %w", err, util.ErrCorrupt)
	}

	c := &Collection{Key: doc.Key, Text: doc.Text, Title: doc.Title}
	upgraded := false
	for _, raw := range doc.ItemKeys {
		var link string
		if err := json.Unmarshal(raw, &link); err == nil {
			c.links = append(c.links, link)
			continue
		}
		var legacy legacyItemKey
		if err := json.Unmarshal(raw, &legacy); err != nil || legacy.Link == "" {
			return nil, false, fmt.Errorf("itemKeys entry %s: %w", string(raw), util.ErrCorrupt)
		}
		c.links = append(c.links, legacy.Link)
		upgraded = true
	}
	if upgraded {
		c.dirty = true
	}
	return c, upgraded, nil
}

// encode renders the collection in the current file shape.
func (c *Collection) encode() ([]byte, error) {
	keys := make([]json.RawMessage, len(c.links))
	for i, l := range c.links {
		enc, err := json.Marshal(l)
		if err != nil {
			return nil, err
		}
		keys[i] = enc
	}
	doc := fileDocument{Key: c.Key, Text: c.Text, Title: c.Title, ItemKeys: keys}
	return json.MarshalIndent(&doc, "", "  ")
}
