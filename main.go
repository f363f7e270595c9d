/*
Raycast renders a scene by running a ray tracing compute shader into an
offscreen image and drawing that image onto a full-screen quad.
*/
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/spaghettifunk/raycast/engine"
	"github.com/spaghettifunk/raycast/engine/core"
	"github.com/spaghettifunk/raycast/engine/platform"
	"github.com/spaghettifunk/raycast/engine/renderer"
	"github.com/spaghettifunk/raycast/engine/renderer/opengl"
)

var version = "0.1.0"

func main() {
	app := &cli.App{
		Name:    "raycast",
		Usage:   "GPU compute ray tracer",
		Version: version,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "render",
				Usage: "open a window and render until it is closed",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "TOML config file",
					},
					&cli.StringFlag{
						Name:    "capture",
						Aliases: []string{"o"},
						Usage:   "write the first frame to this file (.png, .tiff or .bmp)",
					},
					&cli.Uint64Flag{
						Name:  "frames",
						Usage: "stop after this many frames (0 renders until closed)",
					},
				},
				Action: render,
			},
			{
				Name:  "version",
				Usage: "print the version",
				Action: func(c *cli.Context) error {
					fmt.Fprintf(c.App.Writer, "%s %s\n", c.App.Name, c.App.Version)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		core.LogError(err.Error())
		os.Exit(1)
	}
}

func render(c *cli.Context) error {
	cfg := engine.DefaultConfig()
	opts := []engine.Option{engine.WithFrameLimit(c.Uint64("frames"))}

	if path := c.String("config"); path != "" {
		loaded, err := engine.LoadConfig(path)
		if err != nil {
			return err
		}
		cfg = loaded
		opts = append(opts, engine.WithConfigPath(path))
	}
	if capture := c.String("capture"); capture != "" {
		cfg.CapturePath = capture
	}
	if c.Bool("verbose") {
		cfg.LogLevel = "debug"
	}

	// signal channel to capture system calls; the frame loop notices the
	// cancelled context at the start of the next frame
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer stop()

	bus := core.NewEventBus()
	opts = append(opts, engine.WithEventBus(bus))

	pipeline, err := engine.New(cfg, platform.New(bus), newDevice, opts...)
	if err != nil {
		return err
	}
	if err := pipeline.Execute(ctx); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}

func newDevice() (renderer.Device, error) {
	return opengl.NewDevice()
}
