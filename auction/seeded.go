package auction

import "math"

// SeededRandom returns a reproducible float in [0,1) for (seed, index). It
// keeps no state, so concurrent callers need no locking.
func SeededRandom(seed, index int64) float64 {
	return SeededRandomFloat(float64(seed), index)
}

// SeededRandomFloat is SeededRandom for seeds that do not fit the integer
// domain exactly, such as epoch-millisecond based seeds.
func SeededRandomFloat(seed float64, index int64) float64 {
	x := math.Sin(seed+float64(index)) * 10000
	f := x - math.Floor(x)
	// x - floor(x) can round up to 1 for tiny negative x
	if f >= 1 || f < 0 || math.IsNaN(f) {
		return 0
	}
	return f
}

// pick maps a seeded draw onto an index of a list of length n.
func pick(r float64, n int) int {
	i := int(math.Floor(r * float64(n)))
	if i >= n {
		i = n - 1
	}
	return i
}
