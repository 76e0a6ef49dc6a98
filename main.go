package main

import (
	"os"

	"github.com/achilleasa/spheretrace/cmd"
	"github.com/achilleasa/spheretrace/log"
	"github.com/achilleasa/spheretrace/renderer"
	"github.com/urfave/cli"
)

var logger = log.New("spheretrace")

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	sceneFlags := []cli.Flag{
		cli.IntFlag{
			Name:   "spheres",
			Value:  500,
			Usage:  "number of spheres in the generated scene when no scene file is specified",
			EnvVar: "SPHERETRACE_SPHERES",
		},
		cli.Int64Flag{
			Name:   "seed",
			Value:  1,
			Usage:  "seed for the random scene generator",
			EnvVar: "SPHERETRACE_SEED",
		},
	}

	renderFlags := append([]cli.Flag{
		cli.IntFlag{
			Name:   "width",
			Value:  int(renderer.DefaultFrameW),
			Usage:  "frame width",
			EnvVar: "SPHERETRACE_WIDTH",
		},
		cli.IntFlag{
			Name:   "height",
			Value:  int(renderer.DefaultFrameH),
			Usage:  "frame height",
			EnvVar: "SPHERETRACE_HEIGHT",
		},
		cli.IntFlag{
			Name:   "depth",
			Value:  renderer.DefaultMaxDepth,
			Usage:  "max recursion depth for reflected and refracted rays",
			EnvVar: "SPHERETRACE_DEPTH",
		},
		cli.IntFlag{
			Name:   "workers",
			Value:  0,
			Usage:  "number of CPU tracers (0 uses all available CPUs)",
			EnvVar: "SPHERETRACE_WORKERS",
		},
		cli.BoolFlag{
			Name:   "no-bvh",
			Usage:  "test rays against every sphere instead of using a BVH",
			EnvVar: "SPHERETRACE_NO_BVH",
		},
	}, sceneFlags...)

	app := cli.NewApp()
	app.Name = "spheretrace"
	app.Usage = "render sphere scenes using recursive ray tracing"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "scene",
			Usage: "scene file tools",
			Subcommands: []cli.Command{
				{
					Name:  "compile",
					Usage: "compile text scene representation into a binary compressed format",
					Description: `
Parse one or more text scene files and write each one to a zip archive next to
the source file. The archive can be supplied as an argument to the render and
serve commands.`,
					ArgsUsage: "scene_file1.scene scene_file2.scene ...",
					Action:    cmd.CompileScene,
				},
				{
					Name:      "info",
					Usage:     "print scene statistics",
					ArgsUsage: "scene_file",
					Action:    cmd.ShowSceneInfo,
				},
			},
		},
		{
			Name:   "list-devices",
			Usage:  "list the host CPU used by the tracers",
			Action: cmd.ListDevices,
		},
		{
			Name:  "render",
			Usage: "render scene",
			Subcommands: []cli.Command{
				{
					Name:  "frame",
					Usage: "render single frame",
					Description: `
Render a single frame and save it as a PNG image. If no scene file is specified
a random scene is generated.`,
					ArgsUsage: "[scene_file]",
					Flags: append([]cli.Flag{
						cli.StringFlag{
							Name:  "out, o",
							Value: "frame.png",
							Usage: "image filename for the rendered frame",
						},
					}, renderFlags...),
					Action: cmd.RenderFrame,
				},
			},
		},
		{
			Name:  "serve",
			Usage: "serve rendered frames over HTTP",
			Description: `
Start an HTTP server exposing the following endpoints:
  GET  /frame.png         render a frame
  GET  /camera            get the camera position and orientation
  POST /camera            update the camera (JSON: x, y, z, yaw, pitch, move, amount)
  GET  /stats             last frame stats and running frame time averages
  GET  /scene             scene statistics
  GET  /spheres/:index    get a sphere position and radius
  PUT  /spheres/:index    move or resize a sphere (JSON: x, y, z, radius); rebuilds the BVH
  POST /bvh               enable or disable the BVH (JSON: enabled)

A performance summary is logged on shutdown.`,
			ArgsUsage: "[scene_file]",
			Flags: append([]cli.Flag{
				cli.StringFlag{
					Name:   "addr",
					Value:  ":8080",
					Usage:  "address to listen on",
					EnvVar: "SPHERETRACE_ADDR",
				},
			}, renderFlags...),
			Action: cmd.Serve,
		},
		{
			Name:  "bench",
			Usage: "compare linear and BVH ray intersection performance",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "rays",
					Value: 10000,
					Usage: "number of random rays per scene",
				},
				cli.StringFlag{
					Name:  "counts",
					Value: "",
					Usage: "comma-separated sphere counts (default 50 to 500 in steps of 50)",
				},
				cli.Float64Flag{
					Name:  "world-size",
					Value: 2000,
					Usage: "edge length of the cube containing the spheres",
				},
				cli.Int64Flag{
					Name:  "seed",
					Value: 1,
					Usage: "seed for the scene and ray generator",
				},
				cli.StringFlag{
					Name:  "data",
					Value: "",
					Usage: "write timings to this file in a gnuplot-compatible format",
				},
				cli.StringFlag{
					Name:  "plot",
					Value: "",
					Usage: "write a PNG plot of the timings to this file",
				},
				cli.IntFlag{
					Name:  "plot-width",
					Value: 800,
					Usage: "plot width",
				},
				cli.IntFlag{
					Name:  "plot-height",
					Value: 600,
					Usage: "plot height",
				},
			},
			Action: cmd.RunBenchmark,
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}
