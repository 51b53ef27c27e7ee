package tiling

import (
	"fmt"
	"strconv"
)

// L1Layout is the shared-cache part of a Descriptor. Extents of a fully
// resident operand are FullyResident rather than numbers.
type L1Layout struct {
	Strategy      L1Strategy `json:"strategy" yaml:"strategy"`
	KA            Tile       `json:"ka" yaml:"ka"`
	MA            Tile       `json:"ma" yaml:"ma"`
	KB            Tile       `json:"kb" yaml:"kb"`
	NB            Tile       `json:"nb" yaml:"nb"`
	DoubleBufferA bool       `json:"double_buffer_a" yaml:"double_buffer_a"`
	DoubleBufferB bool       `json:"double_buffer_b" yaml:"double_buffer_b"`
	RepeatA       int        `json:"repeat_a" yaml:"repeat_a"`
	RepeatB       int        `json:"repeat_b" yaml:"repeat_b"`
	LoadSize      int        `json:"load_size" yaml:"load_size"`
}

// Attach points of the shared-cache loads in the generated loop nest.
const (
	AttachResident = 0 // loaded once per core
	AttachFullK    = 1 // reloaded per spatial tile with the whole K extent
	AttachTiledK   = 2 // reloaded inside the K loop
)

// Descriptor is the tiling handed to the kernel generator.
type Descriptor struct {
	Target     string          `json:"target" yaml:"target"`
	Cores      CoreSplit       `json:"cores" yaml:"cores"`
	SingleCore SingleCoreShape `json:"single_core" yaml:"single_core"`
	L0         L0Tile          `json:"l0" yaml:"l0"`
	L1         L1Layout        `json:"l1" yaml:"l1"`
	UB         UBTile          `json:"ub" yaml:"ub"`

	AL1Attach   int `json:"al1_attach" yaml:"al1_attach"`
	BL1Attach   int `json:"bl1_attach" yaml:"bl1_attach"`
	ABKL1Attach int `json:"abkl1_attach" yaml:"abkl1_attach"`
	// MinKL1CmpKL0 is 0 when the smaller shared-cache K tile equals the
	// L0 K tile and 1 when it is coarser.
	MinKL1CmpKL0 int `json:"min_kl1_cmp_kl0" yaml:"min_kl1_cmp_kl0"`

	TilingID string `json:"tiling_id" yaml:"tiling_id"`
}

// Assemble merges the stage results into a Descriptor.
func Assemble(p Problem, t Target, cores CoreSplit, sc SingleCoreShape, l0 L0Tile, l1 L1Tile, ub UBTile) (Descriptor, error) {
	if _, err := newPlanner(p, t); err != nil {
		return Descriptor{}, err
	}
	if l1.KA <= 0 || l1.KB <= 0 || l0.K <= 0 {
		return Descriptor{}, invalidf("assemble", "tile extents must be positive")
	}
	return assemble(t.Name, cores, sc, l0, l1, ub), nil
}

func assemble(target string, cores CoreSplit, sc SingleCoreShape, l0 L0Tile, l1 L1Tile, ub UBTile) Descriptor {
	d := Descriptor{
		Target:     target,
		Cores:      cores,
		SingleCore: sc,
		L0:         l0,
		UB:         ub,
		L1: L1Layout{
			Strategy:      l1.Strategy,
			KA:            Explicit(l1.KA),
			MA:            Explicit(l1.MA),
			KB:            Explicit(l1.KB),
			NB:            Explicit(l1.NB),
			DoubleBufferA: l1.DoubleBufferA,
			DoubleBufferB: l1.DoubleBufferB,
			RepeatA:       l1.RepeatA,
			RepeatB:       l1.RepeatB,
			LoadSize:      l1.LoadSize,
		},
	}

	aFull := l1.MA == sc.M && l1.KA == sc.K
	bFull := l1.NB == sc.N && l1.KB == sc.K
	if aFull {
		d.L1.KA, d.L1.MA = FullyResident, FullyResident
	}
	if bFull {
		d.L1.KB, d.L1.NB = FullyResident, FullyResident
	}
	d.AL1Attach = attachPoint(aFull, l1.KA, sc.K)
	d.BL1Attach = attachPoint(bFull, l1.KB, sc.K)

	switch {
	case l1.KA == l1.KB:
		d.ABKL1Attach = 0
	case l1.KA > l1.KB:
		d.ABKL1Attach = 1
	default:
		d.ABKL1Attach = 2
	}
	if min(l1.KA, l1.KB) != l0.K {
		d.MinKL1CmpKL0 = 1
	}

	d.TilingID = EncodeTilingID(d.idDigits())
	return d
}

func attachPoint(resident bool, k, fullK int) int {
	switch {
	case resident:
		return AttachResident
	case k == fullK:
		return AttachFullK
	default:
		return AttachTiledK
	}
}

// TilingIDDigits is the number of base-5 digits in a tiling id.
const TilingIDDigits = 11

func (d Descriptor) idDigits() [TilingIDDigits]int {
	ubDB := 0
	for _, on := range []bool{d.UB.DoubleBufferA, d.UB.DoubleBufferB, d.UB.DoubleBufferC} {
		ubDB += boolDigit(on)
	}
	return [TilingIDDigits]int{
		d.AL1Attach,
		d.BL1Attach,
		d.ABKL1Attach,
		d.MinKL1CmpKL0,
		boolDigit(d.L0.DoubleBufferA),
		boolDigit(d.L0.DoubleBufferB),
		boolDigit(d.L0.DoubleBufferC),
		boolDigit(d.L1.DoubleBufferA),
		boolDigit(d.L1.DoubleBufferB),
		int(d.L1.Strategy),
		ubDB,
	}
}

func boolDigit(b bool) int {
	if b {
		return 1
	}
	return 0
}

// appendDigit shifts one base-5 digit into acc.
func appendDigit(acc uint64, digit int) uint64 {
	return acc*5 + uint64(digit)
}

// EncodeTilingID packs the digits, most significant first, into a base-5
// number rendered in decimal. Digits outside [0,4] are clamped.
func EncodeTilingID(digits [TilingIDDigits]int) string {
	var acc uint64
	for _, d := range digits {
		acc = appendDigit(acc, min(max(d, 0), 4))
	}
	return strconv.FormatUint(acc, 10)
}

// DecodeTilingID recovers the digits of an id produced by EncodeTilingID.
func DecodeTilingID(id string) ([TilingIDDigits]int, error) {
	var digits [TilingIDDigits]int
	v, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return digits, fmt.Errorf("tiling id %q: %w", id, err)
	}
	for i := TilingIDDigits - 1; i >= 0; i-- {
		digits[i] = int(v % 5)
		v /= 5
	}
	if v != 0 {
		return digits, fmt.Errorf("tiling id %q has more than %d digits", id, TilingIDDigits)
	}
	return digits, nil
}
