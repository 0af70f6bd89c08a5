package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/franz/archivist/internal/archive"
	"github.com/franz/archivist/internal/util"
	"github.com/spf13/cobra"
)

var itemCmd = &cobra.Command{
	Use:   "item",
	Short: "Inspect and maintain item records",
}

var itemShowCmd = &cobra.Command{
	Use:   "show <link>",
	Short: "Print one item record as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(false)
		if err != nil {
			return err
		}
		it, ok := app.registry.GetItemByLink(args[0])
		if !ok {
			return fmt.Errorf("item %s: %w", args[0], util.ErrNotFound)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(it)
	},
}

var itemSaveCmd = &cobra.Command{
	Use:   "save <item.json>",
	Short: "Replace the item record matching the file's accession",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(true)
		if err != nil {
			return err
		}
		defer app.close()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}
		var it archive.Item
		if err := json.Unmarshal(data, &it); err != nil {
			return fmt.Errorf("parse %s: %v: %w", args[0], err, util.ErrCorrupt)
		}
		if err := app.registry.SaveItem(&it); err != nil {
			return err
		}
		util.SuccessLog("Item %s saved", it.Accession)
		return app.flush()
	},
}

var itemDeleteCmd = &cobra.Command{
	Use:   "delete <link>",
	Short: "Delete an item record",
	Long: `Delete removes the item from the archive. Face descriptors pointing at
the link are left in place so a re-imported file can be reattached;
run arc cleanup to purge them.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(true)
		if err != nil {
			return err
		}
		defer app.close()

		if err := app.registry.DeleteItem(args[0]); err != nil {
			return err
		}
		util.SuccessLog("Item %s deleted", args[0])
		return app.flush()
	},
}

func init() {
	rootCmd.AddCommand(itemCmd)
	itemCmd.AddCommand(itemShowCmd, itemSaveCmd, itemDeleteCmd)
}
