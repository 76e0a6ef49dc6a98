package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/achilleasa/spheretrace/renderer"
	"github.com/achilleasa/spheretrace/server"
	"github.com/achilleasa/spheretrace/tracer"
	"github.com/urfave/cli"
)

const shutdownTimeout = 5 * time.Second

// Serve rendered frames over HTTP until interrupted.
func Serve(ctx *cli.Context) error {
	setupLogging(ctx)

	opts, err := rendererOptions(ctx)
	if err != nil {
		return err
	}

	sc, err := loadScene(ctx)
	if err != nil {
		return err
	}

	r, err := renderer.NewDefault(sc, tracer.PerfectScheduler(), opts)
	if err != nil {
		return err
	}
	defer r.Close()
	defer func() {
		logger.Noticef("performance summary: %s", r.Stats().Summary())
	}()

	srv := server.New(r, sc)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start(ctx.String("addr"))
	}()

	select {
	case err = <-errChan:
		return err
	case sig := <-sigChan:
		logger.Noticef("caught signal %s; shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err = srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errChan
}
