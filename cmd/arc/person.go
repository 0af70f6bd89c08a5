package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/franz/archivist/internal/util"
	"github.com/spf13/cobra"
)

var personCmd = &cobra.Command{
	Use:   "person",
	Short: "Inspect and maintain the person registry",
}

var personListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all persons with their item counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(false)
		if err != nil {
			return err
		}

		ids := make([]string, 0, len(app.registry.Persons()))
		for id := range app.registry.Persons() {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PERSON ID\tNAME\tITEMS\tFACES")
		for _, id := range ids {
			p, _ := app.registry.GetPerson(id)
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\n",
				id, p.DisplayName(), len(app.registry.GetItemsForPerson(id)), len(p.FaceBioData))
		}
		return w.Flush()
	},
}

var personShowCmd = &cobra.Command{
	Use:   "show <personID>",
	Short: "Show one person's record and references",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(false)
		if err != nil {
			return err
		}

		p, ok := app.registry.GetPerson(args[0])
		if !ok {
			return fmt.Errorf("person %s: %w", args[0], util.ErrNotFound)
		}

		fmt.Printf("personID: %s\n", p.PersonID)
		if p.TMGID != nil {
			fmt.Printf("TMGID:    %d\n", *p.TMGID)
		}
		fmt.Printf("first:    %s\n", p.First)
		for _, n := range p.Last {
			line := n.Last
			if n.Type != "" {
				line += " (" + n.Type + ")"
			}
			fmt.Printf("last:     %s\n", line)
		}
		if len(p.FaceBioData) > 0 {
			links := make([]string, 0, len(p.FaceBioData))
			for _, d := range p.FaceBioData {
				links = append(links, d.Link)
			}
			fmt.Printf("faces:    %s\n", strings.Join(links, ", "))
		}
		for _, it := range app.registry.GetItemsForPerson(p.PersonID) {
			fmt.Printf("item:     %s (%s)\n", it.Link, it.Accession)
		}
		return nil
	},
}

var personDeleteCmd = &cobra.Command{
	Use:   "delete <personID>",
	Short: "Delete a person no item references",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(true)
		if err != nil {
			return err
		}
		defer app.close()

		if err := app.registry.DeletePerson(args[0]); err != nil {
			return err
		}
		util.SuccessLog("Person %s deleted", args[0])
		return app.flush()
	},
}

func init() {
	rootCmd.AddCommand(personCmd)
	personCmd.AddCommand(personListCmd, personShowCmd, personDeleteCmd)
}
