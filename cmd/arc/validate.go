package main

import (
	"fmt"
	"os"

	"github.com/franz/archivist/internal/report"
	"github.com/franz/archivist/internal/util"
	"github.com/franz/archivist/internal/validate"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check referential integrity of the archive",
	Long: `Validate sweeps the archive and reports three kinds of findings:

Errors are referential violations: unresolved person references,
playlist entries pointing at missing items or carrying malformed time
strings, duplicate accession numbers. The archive is inconsistent
until these are fixed.

Warnings are recoverable drift: media files missing on disk, files on
disk no item references, and orphaned face descriptors. Orphaned
descriptors have an explicit cleanup path (arc cleanup).

Info findings are cleanup candidates only, such as persons no item
references.

The validator never modifies the archive.`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().Bool("collections", false, "also check collection membership")
	validateCmd.Flags().Bool("disk", false, "also scan the media directory")
	validateCmd.Flags().String("report", "", "write the report to a file instead of stdout")
}

func runValidate(cmd *cobra.Command, args []string) error {
	app, err := openApp(false)
	if err != nil {
		return err
	}

	v := validate.New(app.registry)
	findings := v.Sweep()

	if ok, _ := cmd.Flags().GetBool("collections"); ok {
		for _, key := range app.collections.Keys() {
			c, err := app.collections.Get(key)
			if err != nil {
				return err
			}
			findings = append(findings, v.CheckCollection(c)...)
		}
	}

	if ok, _ := cmd.Flags().GetBool("disk"); ok {
		mediaDir := viper.GetString("media")
		if mediaDir == "" {
			return fmt.Errorf("--disk requires a media directory (use --media or set in config)")
		}
		findings = append(findings, v.ScanDisk(app.fs, mediaDir)...)
	}

	out := os.Stdout
	if path, _ := cmd.Flags().GetString("report"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create report %s: %w", path, err)
		}
		defer f.Close()
		out = f
		util.InfoLog("Writing report to %s", path)
	}

	if err := report.WriteReport(out, findings, app.archivePath); err != nil {
		return err
	}

	nErrors := len(findings.Errors())
	if nErrors > 0 {
		return fmt.Errorf("archive has %d integrity error(s)", nErrors)
	}
	util.SuccessLog("Archive is consistent (%d warnings, %d info)",
		len(findings.Warnings()), len(findings.Infos()))
	return nil
}
