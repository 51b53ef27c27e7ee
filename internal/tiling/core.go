package tiling

// AllocateCores splits the batch, N, M and H axes of p across the cores of t.
func AllocateCores(p Problem, t Target) (CoreSplit, SingleCoreShape, error) {
	pl, err := newPlanner(p, t)
	if err != nil {
		return CoreSplit{}, SingleCoreShape{}, err
	}
	split := pl.allocateCores()
	return split, pl.shape(split), nil
}

func (pl planner) allocateCores() CoreSplit {
	p, cores := pl.p, pl.t.CoreNum
	if p.Batch*p.Ci1*p.Co1*p.Ho <= cores {
		return CoreSplit{Batch: p.Batch, N: p.Ci1, M: p.Co1, H: p.Ho}
	}

	batchDivs := Divisors(p.Batch, cores)
	nDivs := Divisors(p.Ci1, cores)
	mDivs := Divisors(p.Co1, cores)
	hDivs := Divisors(p.Ho, cores)

	best := CoreSplit{Batch: 1, N: 1, M: 1, H: 1}
	bestCost := pl.coreCost(pl.shape(best))
	for _, b := range batchDivs {
		for _, n := range nDivs {
			if b*n > cores {
				break
			}
			for _, m := range mDivs {
				if b*n*m > cores {
					break
				}
				for _, h := range hDivs {
					if b*n*m*h > cores {
						break
					}
					c := CoreSplit{Batch: b, N: n, M: m, H: h}
					cost := pl.coreCost(pl.shape(c))
					if betterSplit(c, cost, best, bestCost) {
						best, bestCost = c, cost
					}
				}
			}
		}
	}
	return best
}

func betterSplit(c CoreSplit, cost int, best CoreSplit, bestCost int) bool {
	if cost != bestCost {
		return cost < bestCost
	}
	if c.Cores() != best.Cores() {
		return c.Cores() > best.Cores()
	}
	return c.Batch > best.Batch
}

// coreCost models the shared-cache traffic of one core. When an operand
// can stay resident each operand is streamed once; otherwise the tile-less
// estimate assumes unit tiles on both spatial axes.
func (pl planner) coreCost(sc SingleCoreShape) int {
	l1 := pl.t.L1Size
	aFull := pl.aBytes(sc.K, sc.M)
	bFull := pl.bBytes(sc.K, sc.N, sc.Ho)
	aMin := pl.aBytes(1, 1)
	bMin := pl.bBytes(1, 1, sc.Ho)

	var load int
	switch {
	case sc.Batch == 1 && aFull+bFull <= l1:
		load = sc.M + sc.N
	case aFull+bMin <= l1, aMin+bFull <= l1:
		load = sc.M + sc.N
	default:
		// M*N/tileM + M*N/tileN with tileM = tileN = 1
		load = 2 * sc.M * sc.N
	}
	return load * sc.K * sc.Batch
}
