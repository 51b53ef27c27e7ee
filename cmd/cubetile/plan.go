package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/cubetile/internal/logger"
	"github.com/samcharles93/cubetile/internal/planfile"
	"github.com/samcharles93/cubetile/internal/target"
	"github.com/samcharles93/cubetile/internal/tiling"
)

const defaultTarget = "cube-large"

// Exit codes of the plan command.
const (
	exitInvalid     = 1
	exitUnreachable = 3
	exitInvariant   = 4
)

func planCmd() *cli.Command {
	var (
		problemPath string
		targetName  string
		format      string
		verify      bool
	)

	return &cli.Command{
		Name:  "plan",
		Usage: "Compute the tiling descriptor for a problem file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "problem",
				Aliases:     []string{"p"},
				Usage:       "problem file (.yaml, .yml or .json)",
				Required:    true,
				Destination: &problemPath,
			},
			&cli.StringFlag{
				Name:        "target",
				Aliases:     []string{"t"},
				Usage:       "target name (see `cubetile targets`)",
				Value:       defaultTarget,
				Destination: &targetName,
			},
			formatFlag(&format),
			&cli.BoolFlag{
				Name:        "verify",
				Usage:       "re-check divisibility and capacity invariants of the result",
				Destination: &verify,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyPlanConfig(cmd, LoadConfig(), &targetName, &format, &verify)

			reg, err := target.Load(targetsDir)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: load targets: %v", err), exitInvalid)
			}
			tgt, err := reg.Lookup(targetName)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), exitInvalid)
			}
			p, err := planfile.LoadProblem(problemPath)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), exitInvalid)
			}
			planfile.FillChannelGroups(&p, tgt.BlockSize)

			rep, err := plan(ctx, p, tgt, verify)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), exitCode(err))
			}
			log.Info("tiling planned",
				"target", tgt.Name,
				"strategy", rep.Descriptor.L1.Strategy,
				"tiling_id", rep.Descriptor.TilingID)

			out := cmd.Root().Writer
			if format == "table" {
				return writeReport(out, rep, tgt)
			}
			f, err := planfile.ParseFormat(format)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), exitInvalid)
			}
			return planfile.Encode(out, rep, f)
		},
	}
}

func plan(ctx context.Context, p tiling.Problem, t tiling.Target, verify bool) (planfile.Report, error) {
	d, err := tiling.GenTiling(ctx, p, t)
	if err != nil {
		return planfile.Report{}, err
	}
	if verify {
		if err := d.Verify(p, t); err != nil {
			return planfile.Report{}, err
		}
	}
	f, err := d.Footprints(p, t)
	if err != nil {
		return planfile.Report{}, err
	}
	return planfile.Report{Problem: p, Descriptor: d, Footprints: f}, nil
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, tiling.ErrUnreachable):
		return exitUnreachable
	case errors.Is(err, tiling.ErrInvariant):
		return exitInvariant
	default:
		return exitInvalid
	}
}
