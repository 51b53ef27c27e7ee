package tiling

// Footprints is the byte usage of a descriptor at every cache level,
// double buffering included.
type Footprints struct {
	L0A int `json:"l0a" yaml:"l0a"`
	L0B int `json:"l0b" yaml:"l0b"`
	L0C int `json:"l0c" yaml:"l0c"`
	L1  int `json:"l1" yaml:"l1"`
	UB  int `json:"ub" yaml:"ub"`
}

// Footprints computes the byte usage of d for p on t.
func (d Descriptor) Footprints(p Problem, t Target) (Footprints, error) {
	pl, err := newPlanner(p, t)
	if err != nil {
		return Footprints{}, err
	}
	return pl.footprints(d), nil
}

func (pl planner) footprints(d Descriptor) Footprints {
	sc, l0, ub := d.SingleCore, d.L0, d.UB
	ka, ma, kb, nb := d.l1Extents()

	var f Footprints
	f.L0A = pl.aBytes(l0.K, l0.M) * dbFactor(l0.DoubleBufferA)
	f.L0B = l0.K * l0.N * pl.bBlock * dbFactor(l0.DoubleBufferB)
	f.L0C = l0.M * l0.N * pl.cBlock * dbFactor(l0.DoubleBufferC)
	f.L1 = pl.aBytes(ka, ma)*dbFactor(d.L1.DoubleBufferA) +
		pl.bBytes(kb, nb, sc.Ho)*dbFactor(d.L1.DoubleBufferB)

	if pl.p.FusedA > 0 {
		f.UB += ub.KA * ub.MA * pl.p.FusedA * pl.ubBlock * dbFactor(ub.DoubleBufferA)
	}
	if pl.p.FusedB > 0 {
		f.UB += ub.KB * ub.NB * pl.p.FusedB * pl.ubBlock * dbFactor(ub.DoubleBufferB)
	}
	if pl.p.FusedC > 0 {
		f.UB += ub.MC * l0.N * pl.p.FusedC * pl.ubBlock * dbFactor(ub.DoubleBufferC)
	}
	return f
}

func (d Descriptor) l1Extents() (ka, ma, kb, nb int) {
	sc := d.SingleCore
	return d.L1.KA.Resolve(sc.K), d.L1.MA.Resolve(sc.M), d.L1.KB.Resolve(sc.K), d.L1.NB.Resolve(sc.N)
}

// Verify checks the core-count, divisibility and capacity invariants of d
// against the problem and target it was generated for.
func (d Descriptor) Verify(p Problem, t Target) error {
	const stage = "verify"
	pl, err := newPlanner(p, t)
	if err != nil {
		return err
	}

	c := d.Cores
	if c.Batch <= 0 || c.N <= 0 || c.M <= 0 || c.H <= 0 {
		return invariantf(stage, "core factors must be positive, got %+v", c)
	}
	if c.Cores() > t.CoreNum {
		return invariantf(stage, "core split %+v uses %d cores, target has %d", c, c.Cores(), t.CoreNum)
	}
	if p.Batch%c.Batch != 0 || p.Ci1%c.N != 0 || p.Co1%c.M != 0 || p.Ho%c.H != 0 {
		return invariantf(stage, "core split %+v does not divide the problem axes", c)
	}
	sc := d.SingleCore
	if want := pl.shape(c); sc != want {
		return invariantf(stage, "single-core shape %+v, want %+v", sc, want)
	}

	l0 := d.L0
	if l0.M <= 0 || l0.K <= 0 || l0.N <= 0 {
		return invariantf(stage, "l0 tile must be positive, got %dx%dx%d", l0.M, l0.K, l0.N)
	}
	if sc.M%l0.M != 0 || sc.K%l0.K != 0 || sc.N%l0.N != 0 {
		return invariantf(stage, "l0 tile %dx%dx%d does not divide %+v", l0.M, l0.K, l0.N, sc)
	}
	if l0.N%pl.area != 0 && pl.area%l0.N != 0 {
		return invariantf(stage, "l0 n=%d is not folded on kernel area %d", l0.N, pl.area)
	}

	ka, ma, kb, nb := d.l1Extents()
	if ka <= 0 || ma <= 0 || kb <= 0 || nb <= 0 {
		return invariantf(stage, "l1 tile must be positive")
	}
	if ka%l0.K != 0 || sc.K%ka != 0 || kb%l0.K != 0 || sc.K%kb != 0 {
		return invariantf(stage, "l1 k tiles %d/%d do not align with l0 k=%d and k=%d", ka, kb, l0.K, sc.K)
	}
	if ka%kb != 0 && kb%ka != 0 {
		return invariantf(stage, "l1 k tiles %d and %d are not nested", ka, kb)
	}
	if ma%l0.M != 0 || sc.M%ma != 0 || nb%l0.N != 0 || sc.N%nb != 0 {
		return invariantf(stage, "l1 spatial tiles m=%d n=%d do not align", ma, nb)
	}

	ub := d.UB
	if ub.KA <= 0 || ub.MA <= 0 || ub.KB <= 0 || ub.NB <= 0 || ub.MC <= 0 {
		return invariantf(stage, "ub tile must be positive, got %+v", ub)
	}
	if ka%ub.KA != 0 || ma%ub.MA != 0 || kb%ub.KB != 0 || nb%ub.NB != 0 || l0.M%ub.MC != 0 {
		return invariantf(stage, "ub tile %+v does not divide its parents", ub)
	}

	f := pl.footprints(d)
	for _, lvl := range []struct {
		name      string
		used, cap int
	}{
		{"l0a", f.L0A, t.L0ASize},
		{"l0b", f.L0B, t.L0BSize},
		{"l0c", f.L0C, t.L0CSize},
		{"l1", f.L1, t.L1Size},
		{"ub", f.UB, t.UBSize},
	} {
		if lvl.used > lvl.cap {
			return invariantf(stage, "%s footprint %d exceeds capacity %d", lvl.name, lvl.used, lvl.cap)
		}
	}
	return nil
}
