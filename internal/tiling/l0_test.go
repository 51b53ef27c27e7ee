package tiling

import (
	"errors"
	"testing"
)

// tinyL0Target leaves room for exactly one block per L0 buffer when
// double buffering is off.
func tinyL0Target() (Problem, Target) {
	p := Problem{
		Batch: 1,
		Ho:    4, Wo: 16,
		Hi: 4, Wi: 16,
		Co: 64, Co1: 4,
		Ci: 64, Ci1: 4,
		Kh: 1, Kw: 1,
		StrideH: 1, StrideW: 1,
		BytesA: 2, BytesB: 2, BytesC: 2,
	}
	tgt := testTarget()
	tgt.L0ASize, tgt.L0BSize, tgt.L0CSize = 512, 512, 512
	return p, tgt
}

func TestSearchL0SingleBlock(t *testing.T) {
	t.Parallel()

	p, tgt := tinyL0Target()
	sc := SingleCoreShape{Batch: 1, M: 4, N: 4, Ho: 4, K: 4}
	l0, err := SearchL0(p, tgt, sc)
	if err != nil {
		t.Fatalf("SearchL0: %v", err)
	}
	want := L0Tile{M: 1, K: 1, N: 1, Preset: "db-off"}
	if l0 != want {
		t.Fatalf("l0 = %+v, want %+v", l0, want)
	}
}

func TestSearchL0Unreachable(t *testing.T) {
	t.Parallel()

	p, tgt := tinyL0Target()
	tgt.L0CSize = 256
	sc := SingleCoreShape{Batch: 1, M: 4, N: 4, Ho: 4, K: 4}
	_, err := SearchL0(p, tgt, sc)
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("err = %v, want ErrUnreachable", err)
	}
	var terr *Error
	if !errors.As(err, &terr) || terr.Stage != "l0" {
		t.Fatalf("expected l0 stage error, got %v", err)
	}
}

func TestSearchL0PrefersDoubleBuffered(t *testing.T) {
	t.Parallel()

	tgt := testTarget()
	tgt.L1Size = 32 << 10
	sc := SingleCoreShape{Batch: 1, M: 16, N: 16, Ho: 16, K: 16}
	l0, err := SearchL0(squareProblem(), tgt, sc)
	if err != nil {
		t.Fatalf("SearchL0: %v", err)
	}
	want := L0Tile{M: 8, K: 2, N: 16, DoubleBufferA: true, DoubleBufferB: true, DoubleBufferC: true, Preset: "db-on"}
	if l0 != want {
		t.Fatalf("l0 = %+v, want %+v", l0, want)
	}
}

func TestSearchL0FoldsKernelArea(t *testing.T) {
	t.Parallel()

	p, tgt := resnetProblem(), testTarget()
	_, sc, err := AllocateCores(p, tgt)
	if err != nil {
		t.Fatal(err)
	}
	l0, err := SearchL0(p, tgt, sc)
	if err != nil {
		t.Fatalf("SearchL0: %v", err)
	}
	area := p.KernelArea()
	if l0.N%area != 0 && area%l0.N != 0 {
		t.Fatalf("l0 n=%d not folded on kernel area %d", l0.N, area)
	}
	if sc.M%l0.M != 0 || sc.K%l0.K != 0 || sc.N%l0.N != 0 {
		t.Fatalf("l0 %+v does not divide %+v", l0, sc)
	}
}

func TestSearchL0LargeKernel(t *testing.T) {
	t.Parallel()

	// 7x7 kernel: one channel group is wider than the accumulator allows,
	// so N must fall back to a divisor of the kernel area.
	p := Problem{
		Batch: 1,
		Ho:    112, Wo: 112,
		Hi: 224, Wi: 224,
		Co: 64, Co1: 4,
		Ci: 16, Ci1: 1,
		Kh: 7, Kw: 7,
		StrideH: 2, StrideW: 2,
		BytesA: 2, BytesB: 2, BytesC: 4,
	}
	tgt := testTarget()
	sc := SingleCoreShape{Batch: 1, M: 4, N: 49, Ho: 112, K: 784}
	l0, err := SearchL0(p, tgt, sc)
	if err != nil {
		t.Fatalf("SearchL0: %v", err)
	}
	if 49%l0.N != 0 && l0.N%49 != 0 {
		t.Fatalf("l0 n=%d is not folded on 49", l0.N)
	}
}

func TestSearchL0InvalidShape(t *testing.T) {
	t.Parallel()

	_, err := SearchL0(squareProblem(), testTarget(), SingleCoreShape{Batch: 1, M: 0, N: 1, Ho: 1, K: 1})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestL0CandidateOrdering(t *testing.T) {
	t.Parallel()

	base := l0Candidate{load: 10, mul: 8, util: 0.5}
	tests := []struct {
		name string
		c    l0Candidate
		want bool
	}{
		{"lower load", l0Candidate{load: 9, mul: 1, util: 0.1}, true},
		{"higher load", l0Candidate{load: 11, mul: 64, util: 1}, false},
		{"larger product", l0Candidate{load: 10, mul: 16, util: 0.1}, true},
		{"smaller product", l0Candidate{load: 10, mul: 4, util: 1}, false},
		{"equal utilisation", l0Candidate{load: 10, mul: 8, util: 0.5}, true},
		{"lower utilisation", l0Candidate{load: 10, mul: 8, util: 0.25}, false},
	}
	for _, tc := range tests {
		if got := tc.c.better(base); got != tc.want {
			t.Errorf("%s: better = %v, want %v", tc.name, got, tc.want)
		}
	}
}
