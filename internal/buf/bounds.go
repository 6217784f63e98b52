// Package buf contains overflow-safe size arithmetic shared by the allocator
// and the device drivers.
package buf

import (
	"math"
)

// AddOverflowSafe adds a and b, returning ok = false when the result would overflow int.
func AddOverflowSafe(a, b int) (int, bool) {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return 0, false
	case b < 0 && a < math.MinInt-b:
		return 0, false
	default:
		return a + b, true
	}
}

// MulOverflowSafe multiplies a and b, returning ok = false when the result would overflow int.
func MulOverflowSafe(a, b int) (int, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > 0 && b > 0 {
		if a > math.MaxInt/b {
			return 0, false
		}
	}
	if a < 0 && b < 0 {
		if a < math.MaxInt/b {
			return 0, false
		}
	}
	if a > 0 && b < 0 {
		if b < math.MinInt/a {
			return 0, false
		}
	}
	if a < 0 && b > 0 {
		if a < math.MinInt/b {
			return 0, false
		}
	}
	return a * b, true
}

// AlignUp rounds n up to the next multiple of align.
// It returns ok = false for negative n, non-positive align, or when the
// rounded value would overflow int.
//
//	AlignUp(4000, 4096) // 4096, true
//	AlignUp(4097, 4096) // 8192, true
//	AlignUp(0, 4096)    // 0, true
func AlignUp(n, align int) (int, bool) {
	if n < 0 || align <= 0 {
		return 0, false
	}
	padded, ok := AddOverflowSafe(n, align-1)
	if !ok {
		return 0, false
	}
	return MulOverflowSafe(padded/align, align)
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
