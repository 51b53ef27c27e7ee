package tiling

// UBTile sizes the three local buffers used for fused elementwise work, in
// blocks. KA/MA divide the L1 tile of dY, KB/NB the L1 tile of X and MC the
// L0 M tile; the output-side buffer always spans the full L0 N tile.
// A buffer whose fused op count is zero is not staged and keeps its
// parent's extents.
type UBTile struct {
	KA            int  `json:"ka" yaml:"ka"`
	MA            int  `json:"ma" yaml:"ma"`
	KB            int  `json:"kb" yaml:"kb"`
	NB            int  `json:"nb" yaml:"nb"`
	MC            int  `json:"mc" yaml:"mc"`
	DoubleBufferA bool `json:"double_buffer_a" yaml:"double_buffer_a"`
	DoubleBufferB bool `json:"double_buffer_b" yaml:"double_buffer_b"`
	DoubleBufferC bool `json:"double_buffer_c" yaml:"double_buffer_c"`
}

// SearchUB sizes the local buffers for the chosen L0 and L1 tiles.
func SearchUB(p Problem, t Target, sc SingleCoreShape, l0 L0Tile, l1 L1Tile) (UBTile, error) {
	pl, err := newPlanner(p, t)
	if err != nil {
		return UBTile{}, err
	}
	if err := sc.validate("ub"); err != nil {
		return UBTile{}, err
	}
	if l0.M <= 0 || l0.N <= 0 || l1.KA <= 0 || l1.MA <= 0 || l1.KB <= 0 || l1.NB <= 0 {
		return UBTile{}, invalidf("ub", "parent tiles must be positive")
	}
	return pl.searchUB(sc, l0, l1)
}

// ubMinimum is the smallest footprint of the three buffers: one block per
// fused op on the input side, one M block by the L0 N tile on the output side.
func (pl planner) ubMinimum(nL0 int) (a, b, c int) {
	return pl.p.FusedA * pl.ubBlock, pl.p.FusedB * pl.ubBlock, pl.p.FusedC * pl.ubBlock * nL0
}

func (pl planner) searchUB(sc SingleCoreShape, l0 L0Tile, l1 L1Tile) (UBTile, error) {
	ub := pl.t.UBSize
	minA, minB, minC := pl.ubMinimum(l0.N)
	if minA+minB+minC > ub {
		return UBTile{}, unreachablef("ub", "minimum local-buffer footprint %d exceeds %d", minA+minB+minC, ub)
	}
	residual := ub - minA - minB - minC

	// Input buffers share the residual in proportion to the traffic their
	// operand already generates in the shared cache.
	var wA, wB int
	if pl.p.FusedA > 0 {
		wA = l1.RepeatA * sc.M
	}
	if pl.p.FusedB > 0 {
		wB = l1.RepeatB * sc.N
	}
	var shareA, shareB int
	if wA+wB > 0 {
		shareA = residual * wA / (wA + wB)
		shareB = residual * wB / (wA + wB)
	}

	tile := UBTile{KA: l1.KA, MA: l1.MA, KB: l1.KB, NB: l1.NB, MC: l0.M}
	var usedA, usedB, usedC int
	if pl.p.FusedA > 0 {
		per := pl.p.FusedA * pl.ubBlock
		tile.MA, tile.KA = snapPair(l1.MA, l1.KA, (minA+shareA)/per)
		usedA = tile.MA * tile.KA * per
	}
	if pl.p.FusedB > 0 {
		per := pl.p.FusedB * pl.ubBlock
		tile.NB, tile.KB = snapPair(l1.NB, l1.KB, (minB+shareB)/per)
		usedB = tile.NB * tile.KB * per
	}
	if pl.p.FusedC > 0 {
		per := pl.p.FusedC * pl.ubBlock * l0.N
		tile.MC = SnapToDivisor(l0.M, (ub-usedA-usedB)/per)
		usedC = tile.MC * per
	}

	total := usedA + usedB + usedC
	for _, buf := range []struct {
		used int
		db   *bool
	}{
		{usedA, &tile.DoubleBufferA},
		{usedB, &tile.DoubleBufferB},
		{usedC, &tile.DoubleBufferC},
	} {
		if buf.used > 0 && total+buf.used <= ub {
			*buf.db = true
			total += buf.used
		}
	}
	return tile, nil
}

// snapPair fits a spatial x K tile into blocks, spatial axis first. Each
// size divides its parent extent.
func snapPair(spatial, k, blocks int) (int, int) {
	s := SnapToDivisor(spatial, blocks)
	return s, SnapToDivisor(k, blocks/s)
}
