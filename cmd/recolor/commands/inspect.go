package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/gogpu/recolor/internal/registry"
)

func (c *CLI) newInspectCmd() *cobra.Command {
	var (
		db    string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "inspect [build-id]",
		Short: "List recorded builds, or the assets of one build",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.Open(db)
			if err != nil {
				return err
			}
			defer func() {
				_ = reg.Close()
			}()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			if len(args) == 1 {
				assets, err := reg.Assets(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(w, "KIND\tNAME\tSIZE\tFILE")
				for _, a := range assets {
					size := "-"
					if a.Kind == registry.KindTexture {
						size = fmt.Sprintf("%dx%d", a.Width, a.Height)
					}
					_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.Kind, a.Name, size, a.File)
				}
				return w.Flush()
			}

			builds, err := reg.Builds(cmd.Context(), limit)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(w, "BUILD\tSTARTED\tTARGETS\tTEXTURES\tMATERIALS\tFAILED\tMANIFEST")
			for _, b := range builds {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
					b.ID, b.StartedAt.Local().Format(time.DateTime),
					b.Targets, b.Textures, b.Materials, b.Failed, b.Manifest)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&db, "db", defaultDB, "Path to the build registry database")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of builds to list")
	return cmd
}
