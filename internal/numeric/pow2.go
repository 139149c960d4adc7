// Package numeric holds small generic helpers shared by the arena package
// and its container packages.
package numeric

import (
	"math/bits"

	"golang.org/x/exp/constraints"
)

// NextPow2 returns the smallest power of two >= n, or 1 if n <= 1.
func NextPow2[T constraints.Integer](n T) T {
	if n <= 1 {
		return 1
	}
	return T(1) << bits.Len64(uint64(n-1))
}

// IsPow2 reports whether n is a positive power of two.
func IsPow2[T constraints.Integer](n T) bool {
	return n > 0 && n&(n-1) == 0
}
