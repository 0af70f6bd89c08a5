package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType represents the type of event
type EventType string

const (
	EventLoad     EventType = "load"
	EventMigrate  EventType = "migrate"
	EventAdd      EventType = "add"
	EventRemove   EventType = "remove"
	EventConflict EventType = "conflict"
	EventBackup   EventType = "backup"
	EventSetOp    EventType = "setop"
	EventDelete   EventType = "delete"
	EventSave     EventType = "save"
	EventValidate EventType = "validate"
	EventCleanup  EventType = "cleanup"
	EventError    EventType = "error"
)

// EventLevel represents the severity level
type EventLevel string

const (
	LevelDebug   EventLevel = "debug"
	LevelInfo    EventLevel = "info"
	LevelWarning EventLevel = "warning"
	LevelError   EventLevel = "error"
)

// levelPriority maps event levels to numeric priorities for comparison
var levelPriority = map[EventLevel]int{
	LevelDebug:   0,
	LevelInfo:    1,
	LevelWarning: 2,
	LevelError:   3,
}

// Event represents a single audit event. Mutating operations log one
// event per affected record so bulk edits can be reconstructed.
type Event struct {
	Timestamp  time.Time         `json:"ts"`
	Level      EventLevel        `json:"level"`
	Event      EventType         `json:"event"`
	Collection string            `json:"collection,omitempty"`
	Link       string            `json:"link,omitempty"`
	Accession  string            `json:"accession,omitempty"`
	PersonID   string            `json:"person_id,omitempty"`
	Op         string            `json:"op,omitempty"`
	Path       string            `json:"path,omitempty"`
	Reason     string            `json:"reason,omitempty"`
	Error      string            `json:"error,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// EventLogger writes events to a JSONL file
type EventLogger struct {
	file     *os.File
	encoder  *json.Encoder
	mu       sync.Mutex
	path     string
	minLevel EventLevel
}

// NewEventLogger creates a new event logger with a minimum log level.
// A nil *EventLogger is valid and discards everything, so callers can
// skip log setup for read-only commands.
func NewEventLogger(outputDir string, minLevel EventLevel) (*EventLogger, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	filename := fmt.Sprintf("events-%s.jsonl", timestamp)
	path := filepath.Join(outputDir, filename)

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create event log: %w", err)
	}

	return &EventLogger{
		file:     file,
		encoder:  json.NewEncoder(file),
		path:     path,
		minLevel: minLevel,
	}, nil
}

// Path returns the event log file path.
func (l *EventLogger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Log writes an event to the JSONL file
func (l *EventLogger) Log(event *Event) error {
	if l == nil || l.file == nil {
		return nil
	}
	if levelPriority[event.Level] < levelPriority[l.minLevel] {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := l.encoder.Encode(event); err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	return nil
}

// LogAdd logs an item added to a collection
func (l *EventLogger) LogAdd(collection, link string) error {
	return l.Log(&Event{Level: LevelInfo, Event: EventAdd, Collection: collection, Link: link})
}

// LogRemove logs an item removed from a collection
func (l *EventLogger) LogRemove(collection, link string) error {
	return l.Log(&Event{Level: LevelInfo, Event: EventRemove, Collection: collection, Link: link})
}

// LogConflict logs a duplicate add that was skipped
func (l *EventLogger) LogConflict(collection, link, reason string) error {
	return l.Log(&Event{
		Level:      LevelWarning,
		Event:      EventConflict,
		Collection: collection,
		Link:       link,
		Reason:     reason,
	})
}

// LogBackup logs a collection backup
func (l *EventLogger) LogBackup(collection, path string) error {
	return l.Log(&Event{Level: LevelInfo, Event: EventBackup, Collection: collection, Path: path})
}

// LogSetOp logs a set-algebra operation between two collections
func (l *EventLogger) LogSetOp(op, target, source string, added, removed, kept, skipped int) error {
	return l.Log(&Event{
		Level:      LevelInfo,
		Event:      EventSetOp,
		Op:         op,
		Collection: target,
		Extra: map[string]string{
			"source":  source,
			"added":   fmt.Sprintf("%d", added),
			"removed": fmt.Sprintf("%d", removed),
			"kept":    fmt.Sprintf("%d", kept),
			"skipped": fmt.Sprintf("%d", skipped),
		},
	})
}

// LogDelete logs a collection being archived
func (l *EventLogger) LogDelete(collection, archivedPath string) error {
	return l.Log(&Event{
		Level:      LevelWarning,
		Event:      EventDelete,
		Collection: collection,
		Path:       archivedPath,
	})
}

// LogMigrate logs a migration step
func (l *EventLogger) LogMigrate(personID, reason string) error {
	return l.Log(&Event{Level: LevelInfo, Event: EventMigrate, PersonID: personID, Reason: reason})
}

// LogCleanup logs an orphaned descriptor removal
func (l *EventLogger) LogCleanup(personID, link string) error {
	return l.Log(&Event{Level: LevelInfo, Event: EventCleanup, PersonID: personID, Link: link})
}

// LogSave logs a flush of a dirty aggregate to disk
func (l *EventLogger) LogSave(path string) error {
	return l.Log(&Event{Level: LevelDebug, Event: EventSave, Path: path})
}

// Close flushes and closes the event log
func (l *EventLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}
