package main

import (
	"github.com/franz/archivist/internal/util"
	"github.com/franz/archivist/internal/validate"
	"github.com/spf13/cobra"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove orphaned face descriptors",
	Long: `Cleanup removes exactly the descriptor records the validator flags as
orphaned: records whose link no longer resolves to an item, and records
whose person is no longer tagged on that item. Deleting an item leaves
its descriptors behind on purpose so a re-imported file can be
reattached; this command is the explicit, idempotent purge.`,
	RunE: runCleanup,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	app, err := openApp(true)
	if err != nil {
		return err
	}
	defer app.close()

	v := validate.New(app.registry)
	removed := v.CleanupDescriptors(app.logger)
	if removed == 0 {
		util.InfoLog("No orphaned descriptors found")
		return nil
	}
	util.SuccessLog("Removed %d orphaned descriptor(s)", removed)
	return app.flush()
}
