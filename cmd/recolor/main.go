// Command recolor bakes reference-driven texture recolors described by a
// YAML scene manifest.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/gogpu/recolor/cmd/recolor/commands"
	_ "github.com/gogpu/recolor/gpu"
)

func main() {
	if err := run(); err != nil {
		// %+v prints the zerr metadata and stack.
		_, _ = fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return commands.New().Execute(ctx)
}
