package collection

import (
	"fmt"

	"github.com/franz/archivist/internal/util"
)

// SetOpResult reports what a set operation changed. All four operations
// are idempotent: re-running one with unchanged inputs yields zeros.
type SetOpResult struct {
	Added   int // links newly added to the target
	Removed int // links removed from the target
	Kept    int // links that remained
	Skipped int // duplicates that were already present

	BackupPath string
}

func (r *SetOpResult) String() string {
	return fmt.Sprintf("added=%d removed=%d kept=%d skipped=%d",
		r.Added, r.Removed, r.Kept, r.Skipped)
}

// prepare resolves target and source and takes a timestamped backup of
// the target. The backup must succeed before any mutation: a failure
// aborts the whole operation so a bulk edit can never leave the only
// copy of a collection half-applied.
func (s *Store) prepare(targetKey, sourceKey string) (target, source *Collection, backupPath string, err error) {
	target, err = s.Get(targetKey)
	if err != nil {
		return nil, nil, "", err
	}
	source, err = s.Get(sourceKey)
	if err != nil {
		return nil, nil, "", err
	}
	backupPath, err = s.Backup(targetKey, util.Timestamp())
	if err != nil {
		return nil, nil, "", err
	}
	return target, source, backupPath, nil
}

// Union adds every source link not already in the target.
func (s *Store) Union(targetKey, sourceKey string) (*SetOpResult, error) {
	target, source, backup, err := s.prepare(targetKey, sourceKey)
	if err != nil {
		return nil, err
	}

	res := &SetOpResult{Kept: target.Len(), BackupPath: backup}
	for _, link := range source.links {
		added, err := target.AddItem(link)
		if err != nil {
			return nil, err
		}
		if added {
			res.Added++
		} else {
			res.Skipped++
		}
	}
	s.logger.LogSetOp("union", targetKey, sourceKey, res.Added, res.Removed, res.Kept, res.Skipped)
	return res, nil
}

// Difference removes from the target every link present in the source.
func (s *Store) Difference(targetKey, sourceKey string) (*SetOpResult, error) {
	target, source, backup, err := s.prepare(targetKey, sourceKey)
	if err != nil {
		return nil, err
	}

	res := &SetOpResult{BackupPath: backup}
	members := make(map[string]bool, source.Len())
	for _, link := range source.links {
		members[link] = true
	}
	for _, link := range target.Links() {
		if members[link] {
			n, err := target.RemoveItem(link)
			if err != nil {
				return nil, err
			}
			res.Removed += n
		} else {
			res.Kept++
		}
	}
	s.logger.LogSetOp("difference", targetKey, sourceKey, res.Added, res.Removed, res.Kept, res.Skipped)
	return res, nil
}

// Intersect keeps only the target links also present in the source.
func (s *Store) Intersect(targetKey, sourceKey string) (*SetOpResult, error) {
	target, source, backup, err := s.prepare(targetKey, sourceKey)
	if err != nil {
		return nil, err
	}

	res := &SetOpResult{BackupPath: backup}
	members := make(map[string]bool, source.Len())
	for _, link := range source.links {
		members[link] = true
	}
	for _, link := range target.Links() {
		if members[link] {
			res.Kept++
		} else {
			n, err := target.RemoveItem(link)
			if err != nil {
				return nil, err
			}
			res.Removed += n
		}
	}
	s.logger.LogSetOp("intersect", targetKey, sourceKey, res.Added, res.Removed, res.Kept, res.Skipped)
	return res, nil
}

// AddAll adds every known archive link to the target collection. The
// target is backed up first like any other bulk mutation.
func (s *Store) AddAll(targetKey string, allLinks []string) (*SetOpResult, error) {
	target, err := s.Get(targetKey)
	if err != nil {
		return nil, err
	}
	backup, err := s.Backup(targetKey, util.Timestamp())
	if err != nil {
		return nil, err
	}

	res := &SetOpResult{Kept: target.Len(), BackupPath: backup}
	for _, link := range allLinks {
		added, err := target.AddItem(link)
		if err != nil {
			return nil, err
		}
		if added {
			res.Added++
		} else {
			res.Skipped++
		}
	}
	s.logger.LogSetOp("addall", targetKey, "", res.Added, res.Removed, res.Kept, res.Skipped)
	return res, nil
}
