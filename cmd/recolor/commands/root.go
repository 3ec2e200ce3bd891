// Package commands implements the recolor CLI.
package commands

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/gogpu/recolor"
)

// CLI is the recolor command line interface.
type CLI struct {
	rootCmd *cobra.Command

	manifest string
	verbose  bool
}

// New creates the CLI.
func New() *CLI {
	c := &CLI{}
	rootCmd := &cobra.Command{
		Use:           "recolor",
		Short:         "Reference-driven texture recoloring",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			c.setupLogger(cmd.ErrOrStderr())
		},
	}
	rootCmd.PersistentFlags().StringVarP(&c.manifest, "manifest", "m", "recolor.yaml", "Path to the scene manifest")
	rootCmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Log debug output")

	rootCmd.AddCommand(c.newBakeCmd())
	rootCmd.AddCommand(c.newPlanCmd())
	rootCmd.AddCommand(c.newInspectCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	c.rootCmd = rootCmd
	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput redirects command output and logs. Used for testing.
func (c *CLI) SetOutput(out, errOut io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(errOut)
}

func (c *CLI) setupLogger(w io.Writer) {
	level := slog.LevelWarn
	if c.verbose {
		level = slog.LevelDebug
	}
	recolor.SetLogger(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}
