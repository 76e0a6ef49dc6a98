package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/achilleasa/spheretrace/bench"
	"github.com/achilleasa/spheretrace/types"
	"github.com/urfave/cli"
)

// Parse a comma-separated list of sphere counts.
func parseCounts(spec string) ([]int, error) {
	var counts []int
	for _, field := range strings.Split(spec, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		count, err := strconv.Atoi(field)
		if err != nil {
			return nil, errors.New("invalid sphere count " + strconv.Quote(field))
		}
		counts = append(counts, count)
	}
	return counts, nil
}

// Compare linear and BVH ray queries over scenes of increasing size.
func RunBenchmark(ctx *cli.Context) error {
	setupLogging(ctx)

	cfg := bench.DefaultConfig()
	cfg.Rays = ctx.Int("rays")
	cfg.Seed = ctx.Int64("seed")
	cfg.WorldSize = float32(ctx.Float64("world-size"))
	cfg.Origin = types.Splat(-cfg.WorldSize / 2)
	if spec := ctx.String("counts"); spec != "" {
		counts, err := parseCounts(spec)
		if err != nil {
			return err
		}
		cfg.Counts = counts
	}

	if info, err := bench.GetHostInfo(); err != nil {
		logger.Warningf("could not query host information: %v", err)
	} else {
		logger.Noticef("host information\n%s", info.Table())
	}

	runCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	report, err := bench.Run(runCtx, cfg)
	if report != nil && len(report.Results) != 0 {
		logger.Noticef("benchmark results\n%s", report.Table())
	}
	if err != nil {
		return err
	}

	if dataFile := ctx.String("data"); dataFile != "" {
		f, err := os.Create(dataFile)
		if err != nil {
			return err
		}
		defer f.Close()
		if err = report.WriteData(f); err != nil {
			return err
		}
		logger.Noticef("wrote benchmark data to %s", dataFile)
	}

	if plotFile := ctx.String("plot"); plotFile != "" {
		if err = report.Plot(plotFile, ctx.Int("plot-width"), ctx.Int("plot-height")); err != nil {
			return err
		}
		logger.Noticef("wrote benchmark plot to %s", plotFile)
	}

	return nil
}
