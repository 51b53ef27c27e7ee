package tiling

import "slices"

// Divisors returns every divisor of n that does not exceed limit, in
// ascending order.
func Divisors(n, limit int) []int {
	if n <= 0 || limit < 1 {
		return nil
	}
	var small, large []int
	for i := 1; i*i <= n; i++ {
		if n%i != 0 {
			continue
		}
		if i <= limit {
			small = append(small, i)
		}
		if j := n / i; j != i && j <= limit {
			large = append(large, j)
		}
	}
	slices.Reverse(large)
	return append(small, large...)
}

// PairOpts bounds a NearestPairedFactors search.
type PairOpts struct {
	Max        int
	Min        int
	MustDivide int
	Fallback   int
}

// NearestPairedFactors returns the divisors of dim that straddle base: the
// smallest one above base (bounded by Max) followed by the largest one at
// or below base (bounded by Min). Both must be multiples of MustDivide.
// When neither exists the result is {Fallback}.
func NearestPairedFactors(base, dim int, opts PairOpts) []int {
	step := max(opts.MustDivide, 1)
	out := make([]int, 0, 2)
	for v := max(base+1, 1); v <= opts.Max && v <= dim; v++ {
		if dim%v == 0 && v%step == 0 {
			out = append(out, v)
			break
		}
	}
	for v := min(base, dim); v >= max(opts.Min, 1); v-- {
		if dim%v == 0 && v%step == 0 {
			out = append(out, v)
			break
		}
	}
	if len(out) == 0 {
		return []int{opts.Fallback}
	}
	return out
}

// SnapToDivisor returns the largest divisor of base that is not greater
// than candidate. It never returns less than 1.
func SnapToDivisor(base, candidate int) int {
	c := min(candidate, base)
	for c > 1 && base%c != 0 {
		c--
	}
	return max(c, 1)
}

// fitUnits returns the largest multiple of unit that divides total and
// satisfies fits, or 0 when not even unit does. unit must divide total.
func fitUnits(total, unit int, fits func(v int) bool) int {
	units := total / unit
	for u := units; u >= 1; u = SnapToDivisor(units, u-1) {
		if fits(u * unit) {
			return u * unit
		}
		if u == 1 {
			break
		}
	}
	return 0
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
