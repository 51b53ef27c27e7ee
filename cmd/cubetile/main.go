package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/cubetile/internal/logger"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:   "cubetile",
		Usage:  "Tiling planner for conv2d weight-gradient kernels",
		Flags:  append(loggingFlags(), targetsDirFlag()),
		Before: setupLogging,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			planCmd(),
			targetsCmd(),
			serveCmd(),
			versionCmd(),
		},
	}
}

// setupLogging applies the config file to the global flags and installs
// the logger in the command context.
func setupLogging(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	applyGlobalConfig(cmd, LoadConfig())

	level := logger.ParseLevel(logLevel)
	if debug {
		level = slog.LevelDebug
	}
	w := cmd.Root().ErrWriter
	tty := isTerminal(w)
	format := logger.Format(logFormat)
	if format == "" || format == "auto" {
		format = logger.FormatText
		if tty {
			format = logger.FormatPretty
		}
	}

	log, err := logger.Setup(w, logger.Options{
		Format: format,
		Level:  level,
		Color:  tty && format == logger.FormatPretty,
	})
	if err != nil {
		return ctx, cli.Exit(fmt.Sprintf("error: %v", err), 1)
	}
	return logger.WithContext(ctx, log), nil
}
