package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gogpu/recolor/bake"
	"github.com/gogpu/recolor/internal/manifest"
	"github.com/gogpu/recolor/internal/registry"
	"github.com/gogpu/recolor/session"
)

type bakeOptions struct {
	out    string
	db     string
	cpu    bool
	strict bool
}

func (c *CLI) newBakeCmd() *cobra.Command {
	var opts bakeOptions
	cmd := &cobra.Command{
		Use:   "bake",
		Short: "Bake every enabled adjustment of the manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runBake(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Directory to write produced textures to as PNG")
	cmd.Flags().StringVar(&opts.db, "db", defaultDB, "Path to the build registry database")
	cmd.Flags().BoolVar(&opts.cpu, "cpu", false, "Compute on the CPU even when a GPU is available")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Fail when any adjustment or target was skipped")
	return cmd
}

const defaultDB = ".recolor/builds.db"

func (c *CLI) runBake(cmd *cobra.Command, opts bakeOptions) error {
	ctx := cmd.Context()

	scene, err := manifest.Load(c.manifest)
	if err != nil {
		return err
	}

	reg, err := registry.Open(opts.db)
	if err != nil {
		return err
	}
	defer func() {
		_ = reg.Close()
	}()

	var buildOpts []registry.BuildOption
	if opts.out != "" {
		buildOpts = append(buildOpts, registry.WithOutputDir(opts.out))
	}
	manifestPath, err := filepath.Abs(c.manifest)
	if err != nil {
		manifestPath = c.manifest
	}
	build, err := reg.Begin(ctx, manifestPath, buildOpts...)
	if err != nil {
		return err
	}

	sess := session.New(scene.Host, scene.Host, session.WithForceCPU(opts.cpu))
	rep := bake.Execute(scene, sess, bake.WithSink(build.Sink(ctx)))

	if err := build.Finish(ctx, registry.Summary{
		Targets:   rep.Targets,
		Textures:  rep.Textures,
		Materials: rep.Materials,
		Failed:    rep.Failed,
		Skipped:   rep.Skipped,
	}); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "build %s: %d adjustments, %d targets, %d textures, %d materials",
		build.ID(), rep.Adjustments, rep.Targets, rep.Textures, rep.Materials)
	if rep.Skipped > 0 || rep.Failed > 0 {
		_, _ = fmt.Fprintf(out, " (%d skipped, %d failed)", rep.Skipped, rep.Failed)
	}
	_, _ = fmt.Fprintln(out)

	if opts.strict {
		return rep.Err()
	}
	return nil
}
