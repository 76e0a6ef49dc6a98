package cmd

import (
	"runtime"

	"github.com/achilleasa/spheretrace/bench"
	"github.com/urfave/cli"
)

// List the host CPU that backs the tracers.
func ListDevices(ctx *cli.Context) error {
	setupLogging(ctx)

	info, err := bench.GetHostInfo()
	if err != nil {
		return err
	}

	logger.Noticef("host provides %d logical CPU(s) for CPU tracers\n%s", runtime.NumCPU(), info.Table())
	return nil
}
