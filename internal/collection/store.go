package collection

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/franz/archivist/internal/report"
	"github.com/franz/archivist/internal/util"
	"github.com/spf13/afero"
)

// Store manages the active set of collections in one directory. It
// stores link strings only; resolution against the item registry is the
// caller's job.
type Store struct {
	fs     afero.Fs
	dir    string
	logger *report.EventLogger

	collections map[string]*Collection
}

// Open loads every live collection from dir. Only *.json files are
// ingested, which is why backups and archived collections are written
// without that suffix.
func Open(fs afero.Fs, dir string, logger *report.EventLogger) (*Store, error) {
	s := &Store{
		fs:          fs,
		dir:         dir,
		logger:      logger,
		collections: make(map[string]*Collection),
	}

	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, fmt.Errorf("read collections directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		path := filepath.Join(dir, name)
		data, err := afero.ReadFile(fs, path)
		if err != nil {
			return nil, fmt.Errorf("read collection %s: %w", path, err)
		}
		c, upgraded, err := decode(data)
		if err != nil {
			return nil, fmt.Errorf("parse collection %s: %w", path, err)
		}
		if c.Key == "" {
			c.Key = strings.TrimSuffix(name, ".json")
		}
		if upgraded {
			util.InfoLog("Collection %s: upgraded legacy itemKeys format", c.Key)
			s.logger.Log(&report.Event{
				Level:      report.LevelInfo,
				Event:      report.EventMigrate,
				Collection: c.Key,
				Reason:     "legacy itemKeys upgraded to link array",
			})
		}
		s.collections[c.Key] = c
	}

	util.DebugLog("Loaded %d collections from %s", len(s.collections), dir)
	return s, nil
}

// Get resolves a collection by key.
func (s *Store) Get(key string) (*Collection, error) {
	c, ok := s.collections[key]
	if !ok {
		return nil, fmt.Errorf("collection %s: %w", key, util.ErrNotFound)
	}
	return c, nil
}

// Keys returns the active collection keys, sorted.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.collections))
	for k := range s.collections {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Create adds a new empty collection to the active set.
func (s *Store) Create(key, text, title string) (*Collection, error) {
	if key == "" {
		return nil, fmt.Errorf("create collection: empty key")
	}
	if _, ok := s.collections[key]; ok {
		return nil, fmt.Errorf("collection %s: %w", key, util.ErrConflict)
	}
	c := New(key, text, title)
	s.collections[key] = c
	return c, nil
}

// AddItem adds a link to a collection, logging a conflict when the
// link is already present.
func (s *Store) AddItem(key, link string) error {
	c, err := s.Get(key)
	if err != nil {
		return err
	}
	added, err := c.AddItem(link)
	if err != nil {
		return err
	}
	if !added {
		util.WarnLog("Collection %s already contains %s", key, link)
		s.logger.LogConflict(key, link, "already present")
		return nil
	}
	s.logger.LogAdd(key, link)
	return nil
}

// RemoveItem removes a link from a collection. Idempotent.
func (s *Store) RemoveItem(key, link string) error {
	c, err := s.Get(key)
	if err != nil {
		return err
	}
	removed, err := c.RemoveItem(link)
	if err != nil {
		return err
	}
	if removed > 0 {
		s.logger.LogRemove(key, link)
	}
	return nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// flushOne writes a dirty collection to disk and clears its flag.
func (s *Store) flushOne(c *Collection) error {
	if !c.dirty {
		return nil
	}
	data, err := c.encode()
	if err != nil {
		return fmt.Errorf("encode collection %s: %w", c.Key, err)
	}
	path := s.path(c.Key)
	if err := util.WriteFileAtomic(s.fs, path, data); err != nil {
		return fmt.Errorf("save collection %s: %w", c.Key, err)
	}
	c.dirty = false
	s.logger.LogSave(path)
	util.DebugLog("Collection %s saved (%d items)", c.Key, c.Len())
	return nil
}

// Flush persists every dirty collection. This is the explicit save-all
// step owned by the host command; mutation methods never touch disk.
func (s *Store) Flush() error {
	keys := s.Keys()
	for _, k := range keys {
		if err := s.flushOne(s.collections[k]); err != nil {
			return err
		}
	}
	return nil
}

// Backup flushes any pending changes for the collection, then copies
// the persisted file to <key>.<timestamp> in the same directory. The
// missing .json suffix keeps directory ingestion from ever loading a
// backup as a live collection. Returns the backup path.
func (s *Store) Backup(key, timestamp string) (string, error) {
	c, err := s.Get(key)
	if err != nil {
		return "", err
	}
	if err := s.flushOne(c); err != nil {
		return "", fmt.Errorf("%v: %w", err, util.ErrBackupFailed)
	}
	dst := filepath.Join(s.dir, key+"."+timestamp)
	if err := util.CopyFile(s.fs, s.path(key), dst); err != nil {
		return "", fmt.Errorf("backup collection %s: %v: %w", key, err, util.ErrBackupFailed)
	}
	s.logger.LogBackup(key, dst)
	return dst, nil
}

// Delete archives a collection: pending changes are flushed, the file
// is renamed to <key>.archived.<timestamp> (again no .json suffix), and
// the collection leaves the active set. Nothing is erased.
func (s *Store) Delete(key string) error {
	c, err := s.Get(key)
	if err != nil {
		return err
	}
	if err := s.flushOne(c); err != nil {
		return err
	}
	archived := filepath.Join(s.dir, fmt.Sprintf("%s.archived.%s", key, util.Timestamp()))
	if err := s.fs.Rename(s.path(key), archived); err != nil {
		return fmt.Errorf("archive collection %s: %w", key, err)
	}
	c.archived = true
	delete(s.collections, key)
	s.logger.LogDelete(key, archived)
	util.InfoLog("Collection %s archived to %s", key, archived)
	return nil
}
