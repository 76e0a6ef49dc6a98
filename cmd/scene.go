package cmd

import (
	"errors"
	"math/rand"
	"strings"

	"github.com/achilleasa/spheretrace/scene"
	"github.com/achilleasa/spheretrace/scene/reader"
	"github.com/achilleasa/spheretrace/scene/writer"
	"github.com/urfave/cli"
)

// Number of spheres in the scene generated when no scene file is specified.
const defaultSceneSpheres = 500

// Load the scene passed as the first command argument. If no argument is
// present a random scene is generated using the seed flag.
func loadScene(ctx *cli.Context) (*scene.Scene, error) {
	if ctx.NArg() > 1 {
		return nil, errors.New("too many scene file arguments")
	}

	if ctx.NArg() == 0 {
		count := ctx.Int("spheres")
		if count <= 0 {
			count = defaultSceneSpheres
		}
		logger.Noticef("no scene file specified; generating random scene with %d spheres", count)
		return scene.NewRandomScene(rand.New(rand.NewSource(ctx.Int64("seed"))), count), nil
	}

	logger.Noticef("loading scene: %s", ctx.Args().First())
	return reader.ReadScene(ctx.Args().First())
}

// Compile text scenes to binary format.
func CompileScene(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() == 0 {
		return errors.New("missing scene file arguments")
	}

	for idx := 0; idx < ctx.NArg(); idx++ {
		sceneFile := ctx.Args().Get(idx)
		if !strings.HasSuffix(sceneFile, ".scene") {
			logger.Warningf("skipping unsupported file %s", sceneFile)
			continue
		}

		logger.Noticef("parsing and compiling scene: %s", sceneFile)
		sc, err := reader.ReadScene(sceneFile)
		if err != nil {
			return err
		}

		// Display compiled scene info
		logger.Noticef("scene information:\n%s", sc.Stats())

		zipFile := strings.TrimSuffix(sceneFile, ".scene") + ".zip"
		err = writer.WriteScene(sc, zipFile)
		if err != nil {
			return err
		}
	}

	return nil
}

// Display scene info.
func ShowSceneInfo(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return errors.New("missing scene file argument")
	}

	sc, err := reader.ReadScene(ctx.Args().First())
	if err != nil {
		return err
	}

	logger.Noticef("scene information:\n%s", sc.Stats())

	return nil
}
