package main

import (
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/cubetile/internal/target"
)

var (
	targetsDir string
	logLevel   string
	logFormat  string
	debug      bool
)

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (auto, pretty, json, text)",
			Value:       "auto",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

func targetsDirFlag() cli.Flag {
	return &cli.StringFlag{
		Name:        "targets-dir",
		Usage:       "directory of extra target YAML files",
		Sources:     cli.EnvVars(target.EnvTargetsDir),
		Destination: &targetsDir,
	}
}

func formatFlag(dest *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "format",
		Aliases:     []string{"f"},
		Usage:       "output format (table, json, yaml)",
		Value:       "table",
		Destination: dest,
	}
}
