package cmd

import (
	"fmt"
	"image/png"
	"os"
	"time"

	"github.com/achilleasa/spheretrace/renderer"
	"github.com/achilleasa/spheretrace/tracer"
	"github.com/urfave/cli"
)

// Build renderer options from the command flags.
func rendererOptions(ctx *cli.Context) (renderer.Options, error) {
	width, height := ctx.Int("width"), ctx.Int("height")
	if width <= 0 || height <= 0 {
		return renderer.Options{}, fmt.Errorf("%w: %dx%d", renderer.ErrInvalidFrameSize, width, height)
	}

	return renderer.Options{
		FrameW:   uint32(width),
		FrameH:   uint32(height),
		MaxDepth: ctx.Int("depth"),
		Workers:  ctx.Int("workers"),
		UseBVH:   !ctx.Bool("no-bvh"),
	}, nil
}

// Render a still frame.
func RenderFrame(ctx *cli.Context) error {
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

	logger.Notice("rendering frame")
	frame, err := r.Render()
	if err != nil {
		return err
	}

	// Display stats
	logger.Noticef("frame statistics\n%s", r.Stats().Table())

	// Export PNG
	imgFile := ctx.String("out")
	f, err := os.Create(imgFile)
	if err != nil {
		return err
	}
	defer f.Close()

	start := time.Now()
	if err = png.Encode(f, frame); err != nil {
		return err
	}
	logger.Noticef("wrote frame to %s in %d ms", imgFile, time.Since(start).Nanoseconds()/1000000)

	return nil
}
