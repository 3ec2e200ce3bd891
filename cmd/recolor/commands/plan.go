package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gogpu/recolor"
	"github.com/gogpu/recolor/internal/manifest"
)

func (c *CLI) newPlanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Validate the manifest and list the targets a bake would rewrite",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			scene, err := manifest.Load(c.manifest)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ADJUSTMENT\tMODE\tRENDERER\tSLOT\tHASH\tSTATUS")
			for _, adj := range scene.Adjustments() {
				status := "ok"
				if !adj.Enabled {
					status = "disabled"
				} else if err := adj.Validate(); err != nil {
					status = err.Error()
				}
				if !adj.HasValidBindings() {
					_, _ = fmt.Fprintf(w, "%s\t%s\t-\t-\t-\tno valid bindings\n", adj.Name, adj.Mode)
					continue
				}
				for b := range adj.ValidBindings() {
					_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
						adj.Name, adj.Mode, b.Renderer.Name(), b.Slot, recolor.ContentHash(&adj.Settings, b), status)
				}
			}
			return w.Flush()
		},
	}
}
