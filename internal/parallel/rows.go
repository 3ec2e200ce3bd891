// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package parallel splits per-pixel work into horizontal bands processed
// concurrently.
//
// Every band writes a disjoint range of rows, so results never depend on
// scheduling.
package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// minBandRows keeps bands large enough to amortize goroutine startup.
const minBandRows = 16

// Band is a half-open row range [Y0, Y1).
type Band struct {
	Y0, Y1 int
}

// Bands splits height rows into at most workers bands of near-equal size.
// If workers is 0 or negative, GOMAXPROCS is used.
func Bands(height, workers int) []Band {
	if height <= 0 {
		return nil
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	n := min(workers, max(1, height/minBandRows))

	bands := make([]Band, 0, n)
	for i := range n {
		bands = append(bands, Band{
			Y0: height * i / n,
			Y1: height * (i + 1) / n,
		})
	}
	return bands
}

// Rows calls fn once per band, in parallel, and waits for all of them.
// The first error cancels ctx for the remaining bands and is returned.
func Rows(ctx context.Context, height int, fn func(ctx context.Context, b Band) error) error {
	bands := Bands(height, 0)
	if len(bands) == 1 {
		return fn(ctx, bands[0])
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, b := range bands {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(ctx, b)
		})
	}
	return g.Wait()
}
