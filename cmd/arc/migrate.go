package main

import (
	"github.com/franz/archivist/internal/migrate"
	"github.com/franz/archivist/internal/util"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Upgrade a legacy archive to the centralized person registry",
	Long: `Migrate detects the legacy archive shape, where every item carried its
own embedded copy of each person's biography, and rewrites it to the
centralized registry: duplicate embedded records are collapsed by their
biographical identity, each unique person receives one stable
identifier, and item records keep only references.

Runs once; an already-migrated archive is left untouched.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().Bool("force", false, "run even when no legacy shape is detected")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	app, err := openApp(true)
	if err != nil {
		return err
	}
	defer app.close()

	force, _ := cmd.Flags().GetBool("force")
	if !migrate.Detect(app.registry) && !force {
		util.InfoLog("No legacy shape detected, nothing to migrate")
		return nil
	}

	m := migrate.New(app.registry, app.logger)
	res, err := m.Run()
	if err != nil {
		return err
	}

	util.InfoLog("Persons: %d created, %d duplicates collapsed", res.PersonsCreated, res.Deduplicated)
	util.InfoLog("References rewritten: %d (skipped %d blank entries)", res.ReferencesRewritten, res.Skipped)
	if res.TypesNormalized > 0 {
		util.InfoLog("Media types normalized: %d", res.TypesNormalized)
	}

	return app.flush()
}
