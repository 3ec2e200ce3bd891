package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the CLI version, set at link time with
// -ldflags "-X github.com/gogpu/recolor/cmd/recolor/commands.Version=...".
var Version = "dev"

func (c *CLI) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the application version",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), Version)
		},
	}
}
