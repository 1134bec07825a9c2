// Package mathx holds small generic numeric helpers.
package mathx

import "golang.org/x/exp/constraints"

// Clamp limits v to [lo, hi]. Swapped bounds are tolerated.
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if hi < lo {
		lo, hi = hi, lo
	}
	return Max(lo, Min(v, hi))
}

func Min[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}

func Max[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}
