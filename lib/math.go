package lib

import (
	"math/bits"

	"lukechampine.com/uint128"
)

/* This file implements the widened, overflow-checked integer arithmetic the pool math is built on */

// SafeAdd() returns a + b and false if the sum overflows 64 bits
func SafeAdd(a, b uint64) (uint64, bool) {
	sum, carry := bits.Add64(a, b, 0)
	return sum, carry == 0
}

// SafeSub() returns a - b and false if the difference underflows
func SafeSub(a, b uint64) (uint64, bool) {
	diff, borrow := bits.Sub64(a, b, 0)
	return diff, borrow == 0
}

// SafeMulDiv() returns floor(a * b / c) with the product held in 128 bits
// false is returned when c is zero or the quotient doesn't fit 64 bits
func SafeMulDiv(a, b, c uint64) (uint64, bool) {
	if c == 0 {
		return 0, false
	}
	quo := uint128.From64(a).Mul64(b).Div64(c)
	return Narrow(quo)
}

// SqrtProduct() returns floor(sqrt(a * b)) computed exactly over the 128 bit product
func SqrtProduct(a, b uint64) uint64 {
	return Sqrt128(uint128.From64(a).Mul64(b))
}

// Sqrt128() returns the integer square root of a 128 bit value
// the root of any 128 bit value fits 64 bits
func Sqrt128(n uint128.Uint128) uint64 {
	if n.IsZero() {
		return 0
	}
	// binary search the largest r where r*r <= n
	lo, hi := uint64(1), uint64(1)<<32
	if n.Hi != 0 {
		hi = ^uint64(0)
	}
	for lo < hi {
		// upper mid avoids an infinite loop when hi == lo+1
		mid := lo + (hi-lo+1)/2
		if uint128.From64(mid).Mul64(mid).Cmp(n) <= 0 {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

// Narrow() converts a 128 bit value to 64 bits, returning false if it doesn't fit
func Narrow(v uint128.Uint128) (uint64, bool) {
	if v.Hi != 0 {
		return 0, false
	}
	return v.Lo, true
}

// MinUint64() returns the smaller of two values
func MinUint64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
