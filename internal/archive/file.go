package archive

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/franz/archivist/internal/util"
	"github.com/spf13/afero"
)

// Load reads the archive document from path. A missing file yields an
// empty registry so a fresh archive can be built up and flushed.
func Load(fs afero.Fs, path string) (*Registry, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			util.WarnLog("Archive %s does not exist, starting empty", path)
			return NewRegistry(nil), nil
		}
		return nil, fmt.Errorf("read archive %s: %w", path, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse archive %s: %v: %w", path, err, util.ErrCorrupt)
	}
	return NewRegistry(&doc), nil
}

// Save persists the registry when it is dirty. The write is atomic so a
// crash never leaves a truncated archive, and the dirty flag clears
// only after the rename succeeds.
func (r *Registry) Save(fs afero.Fs, path string) error {
	if !r.dirty {
		util.DebugLog("Archive unchanged, skipping save")
		return nil
	}

	data, err := json.MarshalIndent(r.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode archive: %w", err)
	}
	if err := util.WriteFileAtomic(fs, path, data); err != nil {
		return fmt.Errorf("save archive %s: %w", path, err)
	}
	r.markClean()
	util.DebugLog("Archive saved: %s (%d items, %d persons)",
		path, len(r.doc.Accessions.Items), len(r.doc.Persons))
	return nil
}
