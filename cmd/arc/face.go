package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/franz/archivist/internal/face"
	"github.com/franz/archivist/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var faceCmd = &cobra.Command{
	Use:   "face",
	Short: "Manage the face descriptor index",
	Long: `The face index attaches descriptor records produced by an external
detector to persons in the registry. Detector output is consumed as a
JSON file holding an array of detections:

  [{"model": "...", "region": {"x":0.5,"y":0.5,"w":0.2,"h":0.3},
    "descriptor": [128 floats], "confidence": 0.97}]

Detections from multiple models over one image are deduplicated by
region overlap before use; matching compares Euclidean distance in
descriptor space.`,
}

var faceListCmd = &cobra.Command{
	Use:   "list <link>",
	Short: "List descriptor records attached to an item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(false)
		if err != nil {
			return err
		}
		idx := face.NewIndex(app.registry)
		for _, k := range idx.ForLink(args[0]) {
			p, _ := app.registry.GetPerson(k.PersonID)
			name := "?"
			if p != nil {
				name = p.DisplayName()
			}
			fmt.Printf("%s  %s  model=%s confidence=%.2f\n",
				k.PersonID, name, k.Descriptor.Model, k.Descriptor.Confidence)
		}
		return nil
	},
}

var faceAddCmd = &cobra.Command{
	Use:   "add <personID> <link> <detections.json>",
	Short: "Attach a detection to a person",
	Long: `Attach the highest-confidence detection from the detector output file
to the person, replacing any existing descriptor for that (person, link)
pair.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(true)
		if err != nil {
			return err
		}
		defer app.close()

		dets, err := readDetections(args[2])
		if err != nil {
			return err
		}
		dets = face.Dedupe(dets, viper.GetFloat64("iou-threshold"))
		if len(dets) == 0 {
			return fmt.Errorf("no detections in %s", args[2])
		}

		d := dets[0] // highest confidence after dedupe
		idx := face.NewIndex(app.registry)
		if err := idx.Add(args[0], args[1], d.Model, d.Region, d.Descriptor, d.Confidence); err != nil {
			return err
		}
		util.SuccessLog("Descriptor attached to %s for %s", args[0], args[1])
		return app.flush()
	},
}

var faceRemoveCmd = &cobra.Command{
	Use:   "remove <link>",
	Short: "Remove all descriptor records for an item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(true)
		if err != nil {
			return err
		}
		defer app.close()

		idx := face.NewIndex(app.registry)
		removed := idx.RemoveByLink(args[0])
		util.SuccessLog("Removed %d descriptor(s) for %s", removed, args[0])
		if removed == 0 {
			return nil
		}
		return app.flush()
	},
}

var faceMatchCmd = &cobra.Command{
	Use:   "match <detections.json>",
	Short: "Match detections against every known descriptor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(false)
		if err != nil {
			return err
		}

		dets, err := readDetections(args[0])
		if err != nil {
			return err
		}
		dets = face.Dedupe(dets, viper.GetFloat64("iou-threshold"))

		idx := face.NewIndex(app.registry)
		known := idx.All()
		threshold := viper.GetFloat64("match-threshold")

		for i, d := range dets {
			m, ok := face.Match(d.Descriptor, known, threshold)
			if !ok {
				fmt.Printf("detection %d: no match\n", i)
				continue
			}
			p, _ := app.registry.GetPerson(m.PersonID)
			name := "?"
			if p != nil {
				name = p.DisplayName()
			}
			fmt.Printf("detection %d: %s (%s) confidence=%.2f via %s\n",
				i, name, m.PersonID, m.Confidence, m.Link)
		}
		return nil
	},
}

func readDetections(path string) ([]face.Detection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read detections %s: %w", path, err)
	}
	var dets []face.Detection
	if err := json.Unmarshal(data, &dets); err != nil {
		return nil, fmt.Errorf("parse detections %s: %v: %w", path, err, util.ErrCorrupt)
	}
	return dets, nil
}

func init() {
	rootCmd.AddCommand(faceCmd)
	faceCmd.AddCommand(faceListCmd, faceAddCmd, faceRemoveCmd, faceMatchCmd)

	faceCmd.PersistentFlags().Float64("match-threshold", face.DefaultMatchThreshold,
		"maximum descriptor distance for a match")
	faceCmd.PersistentFlags().Float64("iou-threshold", face.DefaultIOUThreshold,
		"minimum region overlap to collapse detections")
	viper.BindPFlag("match-threshold", faceCmd.PersistentFlags().Lookup("match-threshold"))
	viper.BindPFlag("iou-threshold", faceCmd.PersistentFlags().Lookup("iou-threshold"))
}
