package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/cubetile/internal/planfile"
	"github.com/samcharles93/cubetile/internal/version"
)

func versionCmd() *cli.Command {
	var format string

	return &cli.Command{
		Name:  "version",
		Usage: "Print version information",
		Flags: []cli.Flag{formatFlag(&format)},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			info := version.Resolve()
			out := cmd.Root().Writer
			if format != "table" {
				f, err := planfile.ParseFormat(format)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), exitInvalid)
				}
				return planfile.Encode(out, info, f)
			}
			fmt.Fprintf(out, "version:    %s\n", info.Version)
			if info.Commit != "" {
				fmt.Fprintf(out, "commit:     %s\n", info.Commit)
			}
			if info.BuildTime != "" {
				fmt.Fprintf(out, "build time: %s\n", info.BuildTime)
			}
			return nil
		},
	}
}
