package tiling

import "fmt"

// L1Strategy says which operands stay resident in the shared cache.
type L1Strategy int

const (
	BothFull L1Strategy = iota
	AFull
	BFull
	NeitherFull
	numL1Strategies
)

var l1StrategyNames = [numL1Strategies]string{"both-full", "a-full", "b-full", "neither"}

func (s L1Strategy) String() string {
	if s < 0 || s >= numL1Strategies {
		return fmt.Sprintf("L1Strategy(%d)", int(s))
	}
	return l1StrategyNames[s]
}

func (s L1Strategy) MarshalText() ([]byte, error) {
	if s < 0 || s >= numL1Strategies {
		return nil, fmt.Errorf("unknown l1 strategy %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *L1Strategy) UnmarshalText(b []byte) error {
	for i, name := range l1StrategyNames {
		if name == string(b) {
			*s = L1Strategy(i)
			return nil
		}
	}
	return fmt.Errorf("unknown l1 strategy %q", b)
}

// L1Tile is the shared-cache tile of both operands, in blocks. KA/MA tile
// dY, KB/NB tile the im2col view of X. RepeatA/RepeatB count how often each
// operand's tile is reloaded because of the other's tiling.
type L1Tile struct {
	Strategy      L1Strategy
	KA, MA        int
	KB, NB        int
	DoubleBufferA bool
	DoubleBufferB bool
	RepeatA       int
	RepeatB       int
	LoadSize      int
}

type l1Result struct {
	tile     L1Tile
	feasible bool
}

// SearchL1 picks the shared-cache tile for an accumulator tile.
func SearchL1(p Problem, t Target, sc SingleCoreShape, l0 L0Tile) (L1Tile, error) {
	pl, err := newPlanner(p, t)
	if err != nil {
		return L1Tile{}, err
	}
	if err := sc.validate("l1"); err != nil {
		return L1Tile{}, err
	}
	if l0.M <= 0 || l0.K <= 0 || l0.N <= 0 || sc.M%l0.M != 0 || sc.K%l0.K != 0 || sc.N%l0.N != 0 {
		return L1Tile{}, invalidf("l1", "l0 tile %dx%dx%d does not divide %+v", l0.M, l0.K, l0.N, sc)
	}
	return pl.searchL1(sc, l0)
}

func (pl planner) searchL1(sc SingleCoreShape, l0 L0Tile) (L1Tile, error) {
	var results [numL1Strategies]l1Result
	results[BothFull] = pl.l1BothFull(sc)
	results[AFull] = pl.l1AFull(sc, l0)
	results[BFull] = pl.l1BFull(sc, l0)
	results[NeitherFull] = pl.l1Neither(sc, l0)

	var (
		best  L1Tile
		found bool
	)
	for _, r := range results[:NeitherFull] {
		if !r.feasible {
			continue
		}
		if !found || r.tile.LoadSize < best.LoadSize ||
			(r.tile.LoadSize == best.LoadSize && r.tile.MA+r.tile.NB > best.MA+best.NB) {
			best, found = r.tile, true
		}
	}

	// resident strategies win ties against "neither"
	if neither := results[NeitherFull]; neither.feasible && (!found || neither.tile.LoadSize < best.LoadSize) {
		best, found = neither.tile, true
	}
	if !found {
		return L1Tile{}, unreachablef("l1", "l0 tile %dx%dx%d leaves no shared-cache tiling", l0.M, l0.K, l0.N)
	}
	pl.applyL1DoubleBuffer(sc, &best)
	return best, nil
}

func (pl planner) l1BothFull(sc SingleCoreShape) l1Result {
	if sc.Batch != 1 || pl.aBytes(sc.K, sc.M)+pl.bBytes(sc.K, sc.N, sc.Ho) > pl.t.L1Size {
		return l1Result{}
	}
	return l1Result{feasible: true, tile: L1Tile{
		Strategy: BothFull,
		KA:       sc.K, MA: sc.M,
		KB: sc.K, NB: sc.N,
		RepeatA: 1, RepeatB: 1,
		LoadSize: sc.M + sc.N,
	}}
}

// l1AFull keeps all of A resident and fits B into what is left. Any K tile
// of B divides the full K of A, so the nest stays aligned.
func (pl planner) l1AFull(sc SingleCoreShape, l0 L0Tile) l1Result {
	rest := pl.t.L1Size - pl.aBytes(sc.K, sc.M)
	if pl.bBytes(l0.K, l0.N, sc.Ho) > rest {
		return l1Result{}
	}
	nb := fitUnits(sc.N, l0.N, func(v int) bool { return pl.bBytes(l0.K, v, sc.Ho) <= rest })
	kb := fitUnits(sc.K, l0.K, func(v int) bool { return pl.bBytes(v, nb, sc.Ho) <= rest })
	return l1Result{feasible: true, tile: L1Tile{
		Strategy: AFull,
		KA:       sc.K, MA: sc.M,
		KB: kb, NB: nb,
		RepeatA: 1, RepeatB: 1,
		LoadSize: sc.M + sc.N,
	}}
}

func (pl planner) l1BFull(sc SingleCoreShape, l0 L0Tile) l1Result {
	rest := pl.t.L1Size - pl.bBytes(sc.K, sc.N, sc.Ho)
	if pl.aBytes(l0.K, l0.M) > rest {
		return l1Result{}
	}
	ma := fitUnits(sc.M, l0.M, func(v int) bool { return pl.aBytes(l0.K, v) <= rest })
	ka := fitUnits(sc.K, l0.K, func(v int) bool { return pl.aBytes(v, ma) <= rest })
	return l1Result{feasible: true, tile: L1Tile{
		Strategy: BFull,
		KA:       ka, MA: ma,
		KB: sc.K, NB: sc.N,
		RepeatA: 1, RepeatB: 1,
		LoadSize: sc.M + sc.N,
	}}
}

// l1Neither tiles both operands. The spatial tiles are chosen first, over
// every pair of L0-aligned divisors whose minimum footprint fits, for the
// lowest reload count; the K tiles then take what the pair leaves. The K
// tiles of A and B must nest so the loop order stays valid.
func (pl planner) l1Neither(sc SingleCoreShape, l0 L0Tile) l1Result {
	l1 := pl.t.L1Size
	if pl.aBytes(l0.K, l0.M)+pl.bBytes(l0.K, l0.N, sc.Ho) > l1 {
		return l1Result{}
	}

	tile := L1Tile{Strategy: NeitherFull}
	found := false
	for _, ma := range l0Multiples(sc.M, l0.M) {
		for _, nb := range l0Multiples(sc.N, l0.N) {
			if pl.aBytes(l0.K, ma)+pl.bBytes(l0.K, nb, sc.Ho) > l1 {
				continue
			}
			repeatA, repeatB := sc.N/nb, sc.M/ma
			load := repeatA*sc.M + repeatB*sc.N
			if !found || load < tile.LoadSize || (load == tile.LoadSize && ma+nb > tile.MA+tile.NB) {
				tile.MA, tile.NB = ma, nb
				tile.RepeatA, tile.RepeatB = repeatA, repeatB
				tile.LoadSize = load
				found = true
			}
		}
	}

	ks := l0Multiples(sc.K, l0.K)
	tile.KA, tile.KB = l0.K, l0.K
	for _, ka := range ks {
		for _, kb := range ks {
			if ka%kb != 0 && kb%ka != 0 {
				continue
			}
			if pl.aBytes(ka, tile.MA)+pl.bBytes(kb, tile.NB, sc.Ho) > l1 {
				continue
			}
			if ka+kb > tile.KA+tile.KB {
				tile.KA, tile.KB = ka, kb
			}
		}
	}
	return l1Result{feasible: true, tile: tile}
}

// l0Multiples lists the multiples of unit that divide total, ascending.
func l0Multiples(total, unit int) []int {
	ds := Divisors(total/unit, total/unit)
	for i := range ds {
		ds[i] *= unit
	}
	return ds
}

// applyL1DoubleBuffer turns on double buffering per operand while the
// doubled footprint still fits.
func (pl planner) applyL1DoubleBuffer(sc SingleCoreShape, tile *L1Tile) {
	a := pl.aBytes(tile.KA, tile.MA)
	b := pl.bBytes(tile.KB, tile.NB, sc.Ho)
	if 2*a+b <= pl.t.L1Size {
		tile.DoubleBufferA = true
		a *= 2
	}
	if a+2*b <= pl.t.L1Size {
		tile.DoubleBufferB = true
	}
}
