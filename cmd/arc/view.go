package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/franz/archivist/internal/util"
	"github.com/franz/archivist/internal/view"
	"github.com/spf13/cobra"
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Print a sorted projection of the archive",
	Long: `View prints the archive in one of six orderings:

  date       one row per item, by constructed date
  person     one row per item x tagged person x surname
  location   one row per item x location
  file       one row per item, by filename
  source     one row per item x source x non-married surname
  accession  one row per item, numeric-aware accession order

Multi-valued fields fan out, so an item tagged with a person who has
two surnames appears twice in the person view.`,
	RunE: runView,
}

func init() {
	rootCmd.AddCommand(viewCmd)

	viewCmd.Flags().String("by", "date", "sort mode: date|person|location|file|source|accession")
}

var viewHeaders = map[view.Mode][]string{
	view.ModeDate:      {"DATE", "ACCESSION", "LINK"},
	view.ModePerson:    {"LAST", "FIRST", "OTHER NAMES", "ACCESSION", "LINK"},
	view.ModeLocation:  {"STATE", "CITY", "DETAIL", "ACCESSION", "LINK"},
	view.ModeFile:      {"LINK", "ACCESSION"},
	view.ModeSource:    {"LAST", "FIRST", "RECEIVED", "ACCESSION", "LINK"},
	view.ModeAccession: {"ACCESSION", "LINK"},
}

func runView(cmd *cobra.Command, args []string) error {
	app, err := openApp(false)
	if err != nil {
		return err
	}

	by, _ := cmd.Flags().GetString("by")
	mode := view.Mode(by)
	headers, ok := viewHeaders[mode]
	if !ok {
		return fmt.Errorf("unknown sort mode %q (want one of: %s)", by, modeList())
	}

	sorter := view.NewSorter(app.registry)
	rows, err := sorter.Rows(mode)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row.Columns, "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	util.DebugLog("%d rows in %s view", len(rows), mode)
	return nil
}

func modeList() string {
	names := make([]string, len(view.Modes))
	for i, m := range view.Modes {
		names[i] = string(m)
	}
	return strings.Join(names, "|")
}
