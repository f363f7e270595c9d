package math

import "golang.org/x/exp/constraints"

// Clamp returns the value `f` clamped to the range [low, high].
// It works for any numeric type (integers and floats).
func Clamp[T constraints.Ordered](f, low, high T) T {
	if f < low {
		return low
	}
	if f > high {
		return high
	}
	return f
}

// CeilDiv returns ceil(n/d) for positive integers without going through
// floating point. It does not overflow for n near the type's maximum.
// The caller guarantees n >= 0 and d > 0.
func CeilDiv[T constraints.Integer](n, d T) T {
	q := n / d
	if n%d != 0 {
		q++
	}
	return q
}
