// Package tiling plans the blocked weight-gradient GEMM of a conv2d
// backward-filter operator for a fixed accelerator. The search runs
// strictly in order: core split, accumulator-cache (L0) tile, shared-cache
// (L1) tile, local-buffer (UB) tile, then assembly of the Descriptor.
//
// Every stage is a pure function of its inputs; the same Problem and
// Target always produce the same Descriptor.
package tiling

import (
	"context"

	"github.com/samcharles93/cubetile/internal/logger"
)

// GenTiling runs the whole search for p on t.
func GenTiling(ctx context.Context, p Problem, t Target) (Descriptor, error) {
	log := logger.FromContext(ctx).With("component", "tiling", "target", t.Name)

	pl, err := newPlanner(p, t)
	if err != nil {
		return Descriptor{}, err
	}

	cores := pl.allocateCores()
	sc := pl.shape(cores)
	log.Debug("core split",
		"batch", cores.Batch, "n", cores.N, "m", cores.M, "h", cores.H,
		"single_core", sc)

	l0, err := pl.searchL0(sc)
	if err != nil {
		return Descriptor{}, err
	}
	log.Debug("l0 tile", "m", l0.M, "k", l0.K, "n", l0.N, "preset", l0.Preset)

	l1, err := pl.searchL1(sc, l0)
	if err != nil {
		return Descriptor{}, err
	}
	log.Debug("l1 tile",
		"strategy", l1.Strategy, "ka", l1.KA, "ma", l1.MA, "kb", l1.KB, "nb", l1.NB,
		"repeat_a", l1.RepeatA, "repeat_b", l1.RepeatB, "load", l1.LoadSize)

	ub, err := pl.searchUB(sc, l0, l1)
	if err != nil {
		return Descriptor{}, err
	}

	d := assemble(t.Name, cores, sc, l0, l1, ub)
	log.Debug("tiling done", "id", d.TilingID)
	return d, nil
}
