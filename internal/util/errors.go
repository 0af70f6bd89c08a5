package util

import "errors"

// Sentinel errors for common failure modes
var (
	// ErrNotFound indicates a required record, collection, or file was not found
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a duplicate key or a link that is already present
	ErrConflict = errors.New("conflict")

	// ErrReferenced indicates a record is protected from deletion by references
	ErrReferenced = errors.New("still referenced")

	// ErrCorrupt indicates a file is corrupt or unreadable
	ErrCorrupt = errors.New("corrupt file")

	// ErrBackupFailed indicates a pre-mutation backup could not be written;
	// the requested mutation is aborted before any data changes
	ErrBackupFailed = errors.New("backup failed")

	// ErrInvalidConfig indicates invalid configuration
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrArchived indicates an operation against an archived collection
	ErrArchived = errors.New("collection is archived")
)
