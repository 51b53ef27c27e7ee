package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v3"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/samcharles93/cubetile/internal/planfile"
	"github.com/samcharles93/cubetile/internal/target"
)

func targetsCmd() *cli.Command {
	var format string

	return &cli.Command{
		Name:  "targets",
		Usage: "List the accelerator targets available for planning",
		Flags: []cli.Flag{formatFlag(&format)},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			reg, err := target.Load(targetsDir)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: load targets: %v", err), exitInvalid)
			}
			all := reg.All()
			out := cmd.Root().Writer

			if format != "table" {
				f, err := planfile.ParseFormat(format)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), exitInvalid)
				}
				return planfile.Encode(out, all, f)
			}

			pr := message.NewPrinter(language.English)
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			pr.Fprintf(tw, "NAME\tCORES\tL0A\tL0B\tL0C\tL1\tUB\tPRESETS\n")
			for _, t := range all {
				pr.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%s,%s\n",
					t.Name, t.CoreNum, t.L0ASize, t.L0BSize, t.L0CSize, t.L1Size, t.UBSize,
					t.Presets[0].Name, t.Presets[1].Name)
			}
			return tw.Flush()
		},
	}
}
