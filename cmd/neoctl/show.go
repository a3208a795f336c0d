package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/neodex/internal/render"
	searchuc "github.com/kailas-cloud/neodex/internal/usecase/search"
)

func newShowCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Print one object and its close approaches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := g.loadCatalog(cmd.Context())
			if err != nil {
				return err
			}

			o, err := searchuc.New(cat).Lookup(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if g.format == formatJSON {
				return render.JSON(w, render.NewObject(o))
			}
			if _, err := fmt.Fprintln(w, render.ObjectLine(o)); err != nil {
				return err
			}
			for _, a := range o.Approaches() {
				if _, err := fmt.Fprintln(w, "  "+render.ApproachLine(a)); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
