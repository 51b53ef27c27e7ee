package tiling

// planner holds the immutable inputs of one search and the byte model
// derived from them. Every stage is a value-receiver method returning its
// own result record.
type planner struct {
	p Problem
	t Target

	c0   int
	area int

	aBlock  int
	bBlock  int
	cBlock  int
	ubBlock int
}

func newPlanner(p Problem, t Target) (planner, error) {
	if err := t.Validate(); err != nil {
		return planner{}, err
	}
	if err := p.Validate(t.BlockSize); err != nil {
		return planner{}, err
	}
	frac := t.BlockSize * t.BlockSize
	return planner{
		p:       p,
		t:       t,
		c0:      t.BlockSize,
		area:    p.KernelArea(),
		aBlock:  frac * p.BytesA,
		bBlock:  frac * p.BytesB,
		cBlock:  frac * p.BytesC,
		ubBlock: frac * t.UBElementBytes,
	}, nil
}

// aBytes is the shared-cache footprint of a k x m tile of dY.
func (pl planner) aBytes(k, m int) int {
	return k * m * pl.aBlock
}

// bBytes is the shared-cache footprint of the feature-map rows feeding a
// k x n tile of the im2col matrix. Whole channel groups are loaded.
func (pl planner) bBytes(k, n, hoSingle int) int {
	groups := ceilDiv(n, pl.area)
	return groups * pl.hiRows(k, hoSingle) * pl.p.Wi * pl.c0 * pl.p.BytesB
}

func (pl planner) hiRows(k, hoSingle int) int {
	span := k * pl.c0
	rows := ceilDiv(span, pl.p.Wo)
	if span%pl.p.Wo != 0 {
		// a tile that starts mid-row touches one more row
		rows++
	}
	rows = min(rows, hoSingle)
	return min((rows-1)*pl.p.StrideH+pl.p.Kh, pl.p.Hi)
}

func dbFactor(on bool) int {
	if on {
		return 2
	}
	return 1
}

// shape derives the single-core sub-problem for a core split.
func (pl planner) shape(c CoreSplit) SingleCoreShape {
	ho := pl.p.Ho / c.H
	return SingleCoreShape{
		Batch: pl.p.Batch / c.Batch,
		M:     pl.p.Co1 / c.M,
		N:     (pl.p.Ci1 / c.N) * pl.area,
		Ho:    ho,
		K:     ceilDiv(ho*pl.p.Wo, pl.c0),
	}
}
