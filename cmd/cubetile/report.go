package main

import (
	"io"
	"text/tabwriter"

	"github.com/samber/lo"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/samcharles93/cubetile/internal/planfile"
	"github.com/samcharles93/cubetile/internal/tiling"
)

// writeReport prints a plan as aligned key/value sections followed by the
// per-level buffer usage.
func writeReport(w io.Writer, rep planfile.Report, t tiling.Target) error {
	pr := message.NewPrinter(language.English)
	d, f := rep.Descriptor, rep.Footprints

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	pr.Fprintf(tw, "target\t%s\n", d.Target)
	pr.Fprintf(tw, "tiling id\t%s\n", d.TilingID)
	pr.Fprintf(tw, "cores\tbatch=%d n=%d m=%d h=%d (%d of %d)\n",
		d.Cores.Batch, d.Cores.N, d.Cores.M, d.Cores.H, d.Cores.Cores(), t.CoreNum)
	pr.Fprintf(tw, "single core\tbatch=%d m=%d n=%d ho=%d k=%d\n",
		d.SingleCore.Batch, d.SingleCore.M, d.SingleCore.N, d.SingleCore.Ho, d.SingleCore.K)
	pr.Fprintf(tw, "l0\tm=%d k=%d n=%d db=%s preset=%s\n",
		d.L0.M, d.L0.K, d.L0.N, dbFlags(d.L0.DoubleBufferA, d.L0.DoubleBufferB, d.L0.DoubleBufferC), d.L0.Preset)
	pr.Fprintf(tw, "l1\t%s ka=%s ma=%s kb=%s nb=%s db=%s repeat=%d/%d load=%d\n",
		d.L1.Strategy, d.L1.KA, d.L1.MA, d.L1.KB, d.L1.NB,
		dbFlags(d.L1.DoubleBufferA, d.L1.DoubleBufferB, false), d.L1.RepeatA, d.L1.RepeatB, d.L1.LoadSize)
	pr.Fprintf(tw, "ub\tka=%d ma=%d kb=%d nb=%d mc=%d db=%s\n",
		d.UB.KA, d.UB.MA, d.UB.KB, d.UB.NB, d.UB.MC, dbFlags(d.UB.DoubleBufferA, d.UB.DoubleBufferB, d.UB.DoubleBufferC))
	pr.Fprintf(tw, "attach\tal1=%d bl1=%d abkl1=%d min_kl1_cmp_kl0=%d\n",
		d.AL1Attach, d.BL1Attach, d.ABKL1Attach, d.MinKL1CmpKL0)
	if err := tw.Flush(); err != nil {
		return err
	}
	pr.Fprintln(w)

	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	pr.Fprintf(tw, "buffer\tused\tcapacity\t\n")
	rows := []struct {
		name     string
		used     int
		capacity int
	}{
		{"l0a", f.L0A, t.L0ASize},
		{"l0b", f.L0B, t.L0BSize},
		{"l0c", f.L0C, t.L0CSize},
		{"l1", f.L1, t.L1Size},
		{"ub", f.UB, t.UBSize},
	}
	for _, r := range rows {
		pr.Fprintf(tw, "%s\t%d\t%d\t\n", r.name, r.used, r.capacity)
	}
	pr.Fprintf(tw, "l0 total\t%d\t%d\t\n", lo.Sum([]int{f.L0A, f.L0B, f.L0C}), lo.Sum([]int{t.L0ASize, t.L0BSize, t.L0CSize}))
	return tw.Flush()
}

// dbFlags renders double-buffer switches as e.g. "A-C".
func dbFlags(a, b, c bool) string {
	out := []byte("---")
	if a {
		out[0] = 'A'
	}
	if b {
		out[1] = 'B'
	}
	if c {
		out[2] = 'C'
	}
	return string(out)
}
