package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/franz/archivist/internal/util"
	"github.com/spf13/cobra"
)

var collectionCmd = &cobra.Command{
	Use:     "collection",
	Aliases: []string{"coll"},
	Short:   "Manage named collections of items",
	Long: `Collections are named subsets of the archive, one JSON file each under
the collections directory. Bulk operations (union, diff, intersect,
addall) take a timestamped backup of the target collection before
mutating anything; a failed backup aborts the operation untouched.

Deleting a collection archives its file under a timestamped name rather
than erasing it.`,
}

var collListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active collections",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(false)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "KEY\tITEMS\tTEXT\tTITLE")
		for _, key := range app.collections.Keys() {
			c, err := app.collections.Get(key)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", c.Key, c.Len(), c.Text, c.Title)
		}
		return w.Flush()
	},
}

var collCreateCmd = &cobra.Command{
	Use:   "create <key>",
	Short: "Create a new empty collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(true)
		if err != nil {
			return err
		}
		defer app.close()

		text, _ := cmd.Flags().GetString("text")
		title, _ := cmd.Flags().GetString("title")
		if _, err := app.collections.Create(args[0], text, title); err != nil {
			return err
		}
		util.SuccessLog("Collection %s created", args[0])
		return app.flush()
	},
}

var collAddCmd = &cobra.Command{
	Use:   "add <key> <link>...",
	Short: "Add items to a collection",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(true)
		if err != nil {
			return err
		}
		defer app.close()

		key := args[0]
		for _, link := range args[1:] {
			if _, ok := app.registry.GetItemByLink(link); !ok {
				util.WarnLog("Link %s is not a known item", link)
			}
			if err := app.collections.AddItem(key, link); err != nil {
				return err
			}
		}
		return app.flush()
	},
}

var collRemoveCmd = &cobra.Command{
	Use:   "remove <key> <link>...",
	Short: "Remove items from a collection",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(true)
		if err != nil {
			return err
		}
		defer app.close()

		key := args[0]
		for _, link := range args[1:] {
			if err := app.collections.RemoveItem(key, link); err != nil {
				return err
			}
		}
		return app.flush()
	},
}

var collDeleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Archive a collection (never erases the file)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(true)
		if err != nil {
			return err
		}
		defer app.close()

		if err := app.collections.Delete(args[0]); err != nil {
			return err
		}
		return app.flush()
	},
}

var collBackupCmd = &cobra.Command{
	Use:   "backup <key>",
	Short: "Take a timestamped backup of a collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(true)
		if err != nil {
			return err
		}
		defer app.close()

		path, err := app.collections.Backup(args[0], util.Timestamp())
		if err != nil {
			return err
		}
		util.SuccessLog("Backup written: %s", path)
		return app.flush()
	},
}

// setOpCommand builds one of the three two-collection set operations;
// they differ only in which store method runs.
func setOpCommand(use, short string, op func(app *appContext, target, source string) (fmt.Stringer, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(true)
			if err != nil {
				return err
			}
			defer app.close()

			res, err := op(app, args[0], args[1])
			if err != nil {
				return err
			}
			util.SuccessLog("%s %s <- %s: %s", cmd.Name(), args[0], args[1], res)
			return app.flush()
		},
	}
}

var collAddAllCmd = &cobra.Command{
	Use:   "addall <key>",
	Short: "Add every archive item to a collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(true)
		if err != nil {
			return err
		}
		defer app.close()

		links := make([]string, 0, len(app.registry.Items()))
		for _, it := range app.registry.Items() {
			links = append(links, it.Link)
		}
		res, err := app.collections.AddAll(args[0], links)
		if err != nil {
			return err
		}
		util.SuccessLog("addall %s: %s", args[0], res)
		return app.flush()
	},
}

func init() {
	rootCmd.AddCommand(collectionCmd)

	collCreateCmd.Flags().String("text", "", "short label")
	collCreateCmd.Flags().String("title", "", "long label")

	collectionCmd.AddCommand(collListCmd, collCreateCmd, collAddCmd, collRemoveCmd,
		collDeleteCmd, collBackupCmd, collAddAllCmd)

	collectionCmd.AddCommand(setOpCommand("union <target> <source>",
		"Add the source collection's items to the target",
		func(app *appContext, target, source string) (fmt.Stringer, error) {
			return app.collections.Union(target, source)
		}))
	collectionCmd.AddCommand(setOpCommand("diff <target> <source>",
		"Remove the source collection's items from the target",
		func(app *appContext, target, source string) (fmt.Stringer, error) {
			return app.collections.Difference(target, source)
		}))
	collectionCmd.AddCommand(setOpCommand("intersect <target> <source>",
		"Keep only target items also present in the source",
		func(app *appContext, target, source string) (fmt.Stringer, error) {
			return app.collections.Intersect(target, source)
		}))
}
