package main

import (
	"fmt"

	"github.com/franz/archivist/internal/archive"
	"github.com/franz/archivist/internal/collection"
	"github.com/franz/archivist/internal/report"
	"github.com/franz/archivist/internal/util"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// appContext bundles the open handles a command works with. There is
// exactly one registry instance per process; the collection store and
// the validator reference it, never copy it.
type appContext struct {
	fs          afero.Fs
	registry    *archive.Registry
	collections *collection.Store
	logger      *report.EventLogger
	archivePath string
}

// openApp loads the archive and the collections directory according to
// the current flags/config. withLogger controls whether an event log
// file is opened; read-only commands skip it.
func openApp(withLogger bool) (*appContext, error) {
	util.SetVerbose(viper.GetBool("verbose"))
	util.SetQuiet(viper.GetBool("quiet"))

	fs := afero.NewOsFs()

	var logger *report.EventLogger
	if withLogger {
		logLevel := report.LevelInfo
		if viper.GetBool("quiet") {
			logLevel = report.LevelWarning
		} else if viper.GetBool("verbose") {
			logLevel = report.LevelDebug
		}
		var err error
		logger, err = report.NewEventLogger(viper.GetString("artifacts"), logLevel)
		if err != nil {
			return nil, fmt.Errorf("open event log: %w", err)
		}
	}

	archivePath := viper.GetString("archive")
	reg, err := archive.Load(fs, archivePath)
	if err != nil {
		return nil, err
	}

	collDir := viper.GetString("collections")
	if err := fs.MkdirAll(collDir, 0755); err != nil {
		return nil, fmt.Errorf("create collections directory %s: %w", collDir, err)
	}
	store, err := collection.Open(fs, collDir, logger)
	if err != nil {
		return nil, err
	}

	return &appContext{
		fs:          fs,
		registry:    reg,
		collections: store,
		logger:      logger,
		archivePath: archivePath,
	}, nil
}

// flush is the single save-all-dirty step. Mutating commands call it
// exactly once before exiting; nothing else performs I/O on the archive
// or the collections.
func (app *appContext) flush() error {
	if err := app.registry.Save(app.fs, app.archivePath); err != nil {
		return err
	}
	if err := app.collections.Flush(); err != nil {
		return err
	}
	return nil
}

// close releases the event log.
func (app *appContext) close() {
	if err := app.logger.Close(); err != nil {
		util.WarnLog("Closing event log: %v", err)
	}
}
