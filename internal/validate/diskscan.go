package validate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
	"github.com/franz/archivist/internal/archive"
	"github.com/franz/archivist/internal/report"
	"github.com/franz/archivist/internal/util"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/afero"
)

// mediaSubdirs maps each media type to its subdirectory under the
// media root. Links are unique within their subdirectory only.
var mediaSubdirs = map[string]string{
	archive.TypePhoto: "photos",
	archive.TypeAudio: "audio",
	archive.TypeVideo: "videos",
}

// ScanDisk cross-checks the archive against the media directory:
// items whose file is missing, and on-disk files no item references.
// This is the slow part of validation, so it reports progress.
func (v *Validator) ScanDisk(fs afero.Fs, mediaDir string) report.Findings {
	var f report.Findings

	items := v.reg.Items()
	bar := progressbar.Default(int64(len(items)), "checking media files")

	referenced := make(map[string]bool)
	for _, it := range items {
		rel := itemMediaPath(it)
		referenced[rel] = true
		exists, err := afero.Exists(fs, filepath.Join(mediaDir, rel))
		if err != nil {
			util.WarnLog("Cannot stat %s: %v", rel, err)
		} else if !exists {
			f = append(f, report.Finding{
				Severity:  report.SeverityWarning,
				Type:      TypeMissingFile,
				Message:   fmt.Sprintf("item %s has no file at %s", it.Accession, rel),
				Accession: it.Accession,
				Link:      it.Link,
				Path:      rel,
			})
		}
		bar.Add(1)
	}

	f = append(f, v.scanOrphans(fs, mediaDir, referenced)...)
	return f
}

// scanOrphans walks each media subdirectory looking for files no item
// claims. Orphaned audio files get identified by their embedded tags
// when possible, so the warning names the recording rather than just a
// filename.
func (v *Validator) scanOrphans(fs afero.Fs, mediaDir string, referenced map[string]bool) report.Findings {
	var f report.Findings
	for mediaType, sub := range mediaSubdirs {
		dir := filepath.Join(mediaDir, sub)
		entries, err := afero.ReadDir(fs, dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			util.WarnLog("Cannot read %s: %v", dir, err)
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
				continue
			}
			rel := filepath.Join(sub, entry.Name())
			if referenced[rel] {
				continue
			}
			msg := fmt.Sprintf("file %s is not referenced by any item", rel)
			if mediaType == archive.TypeAudio {
				if desc := describeAudio(fs, filepath.Join(mediaDir, rel)); desc != "" {
					msg = fmt.Sprintf("%s (%s)", msg, desc)
				}
			}
			f = append(f, report.Finding{
				Severity: report.SeverityWarning,
				Type:     TypeOrphanFile,
				Message:  msg,
				Path:     rel,
			})
		}
	}
	return f
}

func itemMediaPath(it *archive.Item) string {
	sub, ok := mediaSubdirs[it.Type]
	if !ok {
		sub = it.Type
	}
	return filepath.Join(sub, it.Link)
}

// describeAudio reads embedded tags from an orphaned audio file.
// Best effort; untagged or unreadable files return "".
func describeAudio(fs afero.Fs, path string) string {
	file, err := fs.Open(path)
	if err != nil {
		return ""
	}
	defer file.Close()

	meta, err := tag.ReadFrom(file)
	if err != nil {
		return ""
	}
	title, artist := meta.Title(), meta.Artist()
	switch {
	case title != "" && artist != "":
		return fmt.Sprintf("%s - %s", artist, title)
	case title != "":
		return title
	default:
		return ""
	}
}
