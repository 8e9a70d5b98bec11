package fsm

import (
	"github.com/canopy-network/rollup-pool/lib"
	"github.com/gagliardetto/solana-go"
)

/* This file implements the position ledger: a provider's fixed set of per-pool slots */

// NewLiquidityProvider() returns an empty position record for an owner
func NewLiquidityProvider(owner solana.PublicKey, bump uint8) *LiquidityProvider {
	return &LiquidityProvider{Version: AccountVersion, Provider: owner, Bump: bump}
}

// Slot() returns the index of the slot bound to a pool, or -1
func (l *LiquidityProvider) Slot(pool solana.PublicKey) int {
	for i := range l.LiquidityPoolsInfo {
		if l.LiquidityPoolsInfo[i].Pool.Equals(pool) {
			return i
		}
	}
	return -1
}

// ApplyDeposit() credits a position: the slot bound to the pool, else the first empty slot
// every sum is computed before any field is written so a failure leaves the record untouched
func (l *LiquidityProvider) ApplyDeposit(pool, tokenMint solana.PublicKey, liquidityAmount, lpTokens uint64, now int64) lib.ErrorI {
	// find the slot
	i := l.Slot(pool)
	if i < 0 {
		if i = l.Slot(solana.PublicKey{}); i < 0 {
			return ErrMaxPoolsReached()
		}
	}
	slot := &l.LiquidityPoolsInfo[i]
	// compute the new values
	slotLiquidity, ok := lib.SafeAdd(slot.LiquidityAmount, liquidityAmount)
	if !ok {
		return ErrMathOverflow()
	}
	slotLp, ok := lib.SafeAdd(slot.LpTokens, lpTokens)
	if !ok {
		return ErrMathOverflow()
	}
	totalLiquidity, ok := lib.SafeAdd(l.TotalLiquidityProvided, liquidityAmount)
	if !ok {
		return ErrMathOverflow()
	}
	totalLp, ok := lib.SafeAdd(l.TotalLpTokens, lpTokens)
	if !ok {
		return ErrMathOverflow()
	}
	// bind an empty slot on first use
	if slot.IsEmpty() {
		slot.Pool, slot.TokenMint = pool, tokenMint
	}
	slot.LiquidityAmount, slot.LpTokens = slotLiquidity, slotLp
	l.TotalLiquidityProvided, l.TotalLpTokens = totalLiquidity, totalLp
	l.LatestLiquidityProvidedOn = now
	return nil
}

// ApplyWithdraw() debits a position; the slot is released exactly when its lp tokens reach zero
func (l *LiquidityProvider) ApplyWithdraw(pool solana.PublicKey, liquidityAmount, lpTokens uint64, now int64) lib.ErrorI {
	i := l.Slot(pool)
	if i < 0 || pool.IsZero() {
		return ErrProviderNotFound()
	}
	slot := &l.LiquidityPoolsInfo[i]
	// lp tokens are checked before liquidity
	if slot.LpTokens < lpTokens {
		return ErrInsufficientLpTokens()
	}
	if slot.LiquidityAmount < liquidityAmount {
		return ErrInsufficientLiquidity()
	}
	// the totals cover every slot so they can't underflow unless the record is corrupt
	totalLiquidity, ok := lib.SafeSub(l.TotalLiquidityProvided, liquidityAmount)
	if !ok {
		return ErrMathOverflow()
	}
	totalLp, ok := lib.SafeSub(l.TotalLpTokens, lpTokens)
	if !ok {
		return ErrMathOverflow()
	}
	slot.LiquidityAmount -= liquidityAmount
	slot.LpTokens -= lpTokens
	l.TotalLiquidityProvided, l.TotalLpTokens = totalLiquidity, totalLp
	l.LatestLiquidityProvidedOn = now
	// release the slot for reuse; liquidity may round to a remainder, lp tokens may not
	if slot.LpTokens == 0 {
		*slot = LiquidityPoolInfo{}
	}
	return nil
}

// InitializeLiquidityProvider() creates an empty position record for an owner in the base context
func (s *StateMachine) InitializeLiquidityProvider(owner solana.PublicKey) (address solana.PublicKey, err lib.ErrorI) {
	err = s.Apply("initialize_liquidity_provider", func() lib.ErrorI {
		if e := s.requireContext("initialize_liquidity_provider", BaseContext); e != nil {
			return e
		}
		var bump uint8
		var e lib.ErrorI
		if address, bump, e = lib.LiquidityProviderAddress(s.programID, owner); e != nil {
			return e
		}
		if e = s.requireWritable(address); e != nil {
			return e
		}
		exists, e := s.accountExists(address)
		if e != nil {
			return e
		}
		if exists {
			return ErrAccountAlreadyExists(liquidityProviderLayout.name, address)
		}
		return s.SetLiquidityProvider(address, NewLiquidityProvider(owner, bump))
	})
	return
}
