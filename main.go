package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/cnosuke/mcp-wayback/config"
	"github.com/cnosuke/mcp-wayback/internal/tracelog"
	"github.com/cnosuke/mcp-wayback/logger"
	"github.com/cnosuke/mcp-wayback/server"
	"github.com/cnosuke/mcp-wayback/types"
)

var (
	// Version and Revision are replaced when building.
	Version  = "0.0.1"
	Revision = "xxx"

	Name  = "mcp-wayback"
	Usage = "Look up archived snapshots in the Wayback Machine"
)

func main() {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s (%s)", Version, Revision)
	app.Name = Name
	app.Usage = Usage

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "path to the config file",
		},
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "enable debug logging",
		},
		&cli.StringFlag{
			Name:  "log",
			Usage: "path to the log file (default: stderr)",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:   "serve",
			Usage:  "Start the HTTP API server",
			Action: serveAction,
		},
		{
			Name:   "mcp",
			Usage:  "Start the MCP server on stdio",
			Action: mcpAction,
		},
		{
			Name:      "test",
			Usage:     "Run a wayback test for a URL or domain and print the result as JSON",
			ArgsUsage: "<target>",
			Action:    testAction,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads the configuration and initializes the global logger.
func setup(c *cli.Context) (*config.Config, error) {
	if err := logger.InitLogger(c.Bool("debug"), c.String("log")); err != nil {
		return nil, err
	}
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, errors.Wrap(err, "failed to load configuration file")
	}
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func serveAction(c *cli.Context) error {
	cfg, err := setup(c)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := signalContext()
	defer cancel()
	return server.RunHTTP(ctx, cfg, logger.Level(c.Bool("debug")))
}

func mcpAction(c *cli.Context) error {
	cfg, err := setup(c)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := signalContext()
	defer cancel()
	return server.Run(ctx, cfg, Name, Version, Revision)
}

func testAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("exactly one target is required")
	}
	target := c.Args().First()

	cfg, err := setup(c)
	if err != nil {
		return err
	}
	defer logger.Sync()

	wb, err := server.NewWayback(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	ctx, cancel = context.WithTimeout(ctx, 2*time.Duration(cfg.Wayback.Timeout)*time.Second)
	defer cancel()
	ctx, rec := tracelog.Start(ctx, logger.Level(c.Bool("debug")))

	resp := &types.APIResponse{}
	if !wb.CanHandle(target) {
		resp.Message = "Target is required and must be a non-empty string"
	} else if outcome, err := wb.TestWayback(ctx, target); err != nil {
		resp.Message = err.Error()
	} else {
		resp.Success = true
		resp.Data = []*types.TestOutcome{outcome}
	}
	resp.Logs = rec.Lines()

	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		return errors.Wrap(err, "failed to write result")
	}
	if !resp.Success {
		zap.S().Debugw("wayback test unsuccessful", "target", target)
		return cli.Exit("", 1)
	}
	return nil
}
