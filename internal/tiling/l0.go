package tiling

// L0Tile is the accumulator-cache tile in blocks.
type L0Tile struct {
	M             int    `json:"m" yaml:"m"`
	K             int    `json:"k" yaml:"k"`
	N             int    `json:"n" yaml:"n"`
	DoubleBufferA bool   `json:"double_buffer_a" yaml:"double_buffer_a"`
	DoubleBufferB bool   `json:"double_buffer_b" yaml:"double_buffer_b"`
	DoubleBufferC bool   `json:"double_buffer_c" yaml:"double_buffer_c"`
	Preset        string `json:"preset" yaml:"preset"`
}

type l0Candidate struct {
	tile L0Tile
	load int
	mul  int
	util float64
}

func (c l0Candidate) better(best l0Candidate) bool {
	if c.load != best.load {
		return c.load < best.load
	}
	if c.mul != best.mul {
		return c.mul > best.mul
	}
	return c.util >= best.util
}

// l0Budget is the per-buffer capacity of one preset, in blocks.
type l0Budget struct {
	ps L0Preset
	a  int // m*k
	b  int // k*n
	c  int // m*n
}

// SearchL0 picks the accumulator-cache tile for a single-core shape.
func SearchL0(p Problem, t Target, sc SingleCoreShape) (L0Tile, error) {
	pl, err := newPlanner(p, t)
	if err != nil {
		return L0Tile{}, err
	}
	if err := sc.validate("l0"); err != nil {
		return L0Tile{}, err
	}
	return pl.searchL0(sc)
}

func (pl planner) searchL0(sc SingleCoreShape) (L0Tile, error) {
	on, onOK := pl.searchL0Preset(sc, pl.t.Presets[0])
	off, offOK := pl.searchL0Preset(sc, pl.t.Presets[1])

	var pick l0Candidate
	switch {
	case !onOK && !offOK:
		return L0Tile{}, unreachablef("l0", "no accumulator tile fits %s for shape %+v", pl.t.Name, sc)
	case !onOK:
		pick = off
	case !offOK:
		pick = on
	case off.util > on.util || off.load < on.load:
		pick = off
	default:
		pick = on
	}
	if pick.tile.M <= 0 || pick.tile.K <= 0 || pick.tile.N <= 0 {
		return L0Tile{}, unreachablef("l0", "zero tile %+v", pick.tile)
	}
	return pick.tile, nil
}

func (pl planner) searchL0Preset(sc SingleCoreShape, ps L0Preset) (l0Candidate, bool) {
	bud := l0Budget{
		ps: ps,
		a:  pl.t.L0ASize / (pl.aBlock * dbFactor(ps.DoubleBufferA)),
		b:  pl.t.L0BSize / (pl.bBlock * dbFactor(ps.DoubleBufferB)),
		c:  pl.t.L0CSize / (pl.cBlock * dbFactor(ps.DoubleBufferC)),
	}
	if bud.a < 1 || bud.b < 1 || bud.c < 1 {
		return l0Candidate{}, false
	}

	var (
		best  l0Candidate
		found bool
	)
	visit := func(m, n int) {
		for _, k := range pl.kCandidates(sc, bud, m, n) {
			c := pl.evalL0(sc, bud, m, k, n)
			if !found || c.better(best) {
				best, found = c, true
			}
		}
	}

	if ps.NFirst {
		for _, n := range pl.nCandidates(sc, bud, 1) {
			for _, m := range pl.mCandidates(sc, bud, n) {
				visit(m, n)
			}
		}
	} else {
		for _, m := range pl.mCandidates(sc, bud, 1) {
			for _, n := range pl.nCandidates(sc, bud, m) {
				visit(m, n)
			}
		}
	}
	return best, found
}

// mLimit is the largest admissible M tile when paired with an N tile of n.
// The shared cache must keep room for one K block of B alongside.
func (pl planner) mLimit(sc SingleCoreShape, bud l0Budget, n int) int {
	lim := min(sc.M, bud.a, bud.c/n)
	rest := pl.t.L1Size - pl.bBytes(1, n, sc.Ho)
	return min(lim, rest/pl.aBlock)
}

// nLimit is the largest admissible N tile when paired with an M tile of m.
// Besides the L0 budgets it honours the shared cache (whole channel groups)
// and the output-side local buffer, which stages one M block by N blocks.
func (pl planner) nLimit(sc SingleCoreShape, bud l0Budget, m int) int {
	lim := min(sc.N, bud.b, bud.c/m)
	rest := pl.t.L1Size - pl.aBytes(1, m)
	perGroup := pl.bBytes(1, 1, sc.Ho)
	if rest < perGroup {
		return 0
	}
	lim = min(lim, rest/perGroup*pl.area)
	if pl.p.FusedC > 0 {
		in := (pl.p.FusedA + pl.p.FusedB) * pl.ubBlock
		lim = min(lim, (pl.t.UBSize-in)/(pl.p.FusedC*pl.ubBlock))
	}
	return lim
}

func (pl planner) mCandidates(sc SingleCoreShape, bud l0Budget, n int) []int {
	lim := pl.mLimit(sc, bud, n)
	if lim < 1 {
		return nil
	}
	return NearestPairedFactors(min(bud.ps.TargetM, lim), sc.M, PairOpts{
		Max:      lim,
		Min:      1,
		Fallback: 1,
	})
}

// nCandidates keeps N tiles folded on whole kernel positions: a multiple of
// Kh*Kw when one channel group fits, otherwise a divisor of it.
func (pl planner) nCandidates(sc SingleCoreShape, bud l0Budget, m int) []int {
	lim := pl.nLimit(sc, bud, m)
	if lim < 1 {
		return nil
	}
	base := min(bud.ps.TargetN, lim)
	if pl.area <= lim {
		return NearestPairedFactors(base, sc.N, PairOpts{
			Max:        lim,
			Min:        pl.area,
			MustDivide: pl.area,
			Fallback:   pl.area,
		})
	}
	return NearestPairedFactors(base, pl.area, PairOpts{
		Max:      lim,
		Min:      1,
		Fallback: 1,
	})
}

func (pl planner) kCandidates(sc SingleCoreShape, bud l0Budget, m, n int) []int {
	lim := min(sc.K, bud.a/m, bud.b/n)
	for lim >= 1 && pl.aBytes(lim, m)+pl.bBytes(lim, n, sc.Ho) > pl.t.L1Size {
		lim--
	}
	if lim < 1 {
		return nil
	}
	base := min(bud.ps.TargetK, lim)
	if bud.ps.FullK {
		base = lim
	}
	return NearestPairedFactors(base, sc.K, PairOpts{
		Max:      lim,
		Min:      1,
		Fallback: 1,
	})
}

func (pl planner) evalL0(sc SingleCoreShape, bud l0Budget, m, k, n int) l0Candidate {
	tile := L0Tile{
		M:             m,
		K:             k,
		N:             n,
		DoubleBufferA: bud.ps.DoubleBufferA,
		DoubleBufferB: bud.ps.DoubleBufferB,
		DoubleBufferC: bud.ps.DoubleBufferC,
		Preset:        bud.ps.Name,
	}
	return l0Candidate{
		tile: tile,
		load: pl.l0Load(sc, m, k, n),
		mul:  m * k * n,
		util: float64(m*n*pl.cBlock*dbFactor(bud.ps.DoubleBufferC)) / float64(pl.t.L0CSize),
	}
}

func (pl planner) l0Load(sc SingleCoreShape, m, k, n int) int {
	l1 := pl.t.L1Size
	aFull := pl.aBytes(sc.K, sc.M)
	bFull := pl.bBytes(sc.K, sc.N, sc.Ho)
	switch {
	case aFull+bFull <= l1,
		aFull+pl.bBytes(k, n, sc.Ho) <= l1,
		pl.aBytes(k, m)+bFull <= l1:
		return sc.M + sc.N
	}
	return sc.M*sc.N/m + sc.M*sc.N/n
}
