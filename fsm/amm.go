package fsm

import "github.com/canopy-network/rollup-pool/lib"

/* This file implements the constant product math that prices lp tokens against the pool reserves */

// ComputeMintAmount() returns the lp tokens a deposit of (amountA, amountB) is worth
// an empty pool mints floor(sqrt(amountA * amountB)); otherwise the smaller of the two proportional shares is minted
// so a deposit off the pool ratio never dilutes existing providers
func ComputeMintAmount(reserveA, reserveB, totalSupply, amountA, amountB uint64) (uint64, lib.ErrorI) {
	if amountA == 0 || amountB == 0 {
		return 0, ErrInvalidAmount()
	}
	// first deposit: the geometric mean of the amounts
	if totalSupply == 0 {
		return lib.SqrtProduct(amountA, amountB), nil
	}
	// a pool with supply must hold both reserves
	if reserveA == 0 || reserveB == 0 {
		return 0, ErrInsufficientReserves()
	}
	shareA, ok := lib.SafeMulDiv(amountA, totalSupply, reserveA)
	if !ok {
		return 0, ErrMathOverflow()
	}
	shareB, ok := lib.SafeMulDiv(amountB, totalSupply, reserveB)
	if !ok {
		return 0, ErrMathOverflow()
	}
	return lib.MinUint64(shareA, shareB), nil
}

// ComputeWithdrawAmounts() returns the reserves a burn of lpTokens is worth: floor(lp * reserve / supply) per side
func ComputeWithdrawAmounts(reserveA, reserveB, totalSupply, lpTokens uint64) (amountA, amountB uint64, err lib.ErrorI) {
	switch {
	case totalSupply == 0:
		return 0, 0, ErrInsufficientLiquidity()
	case lpTokens == 0:
		return 0, 0, ErrInvalidAmount()
	case lpTokens > totalSupply:
		return 0, 0, ErrInsufficientLpTokens()
	}
	var ok bool
	if amountA, ok = lib.SafeMulDiv(lpTokens, reserveA, totalSupply); !ok {
		return 0, 0, ErrMathOverflow()
	}
	if amountB, ok = lib.SafeMulDiv(lpTokens, reserveB, totalSupply); !ok {
		return 0, 0, ErrMathOverflow()
	}
	return
}

// checkMinimum() fails with SlippageExceeded when an amount falls below the caller's minimum
func checkMinimum(got, min uint64) lib.ErrorI {
	if got < min {
		return ErrSlippageExceeded(got, min)
	}
	return nil
}
