package fsm

import (
	"fmt"

	"github.com/canopy-network/rollup-pool/lib"
	"github.com/gagliardetto/solana-go"
)

/* This file implements the pool state controller: gating, reserve deltas and pool administration */

// Direction is the sign of a reserve delta
type Direction uint8

const (
	Deposit  Direction = iota // reserves and supply grow
	Withdraw                  // reserves and supply shrink
)

// CheckPoolStatus() gates every liquidity operation on the pool status; migration is recorded, never enforced
func CheckPoolStatus(pool *Pool) lib.ErrorI {
	if !pool.Status.IsActive {
		return ErrPoolNotActive()
	}
	if pool.Status.IsPaused {
		return ErrPoolPaused()
	}
	return nil
}

// ApplyReserveDelta() moves the reserves and the lp supply of a pool in one direction
// all three values are computed before any is written so a failure leaves the pool untouched
func (p *Pool) ApplyReserveDelta(deltaA, deltaB, deltaSupply uint64, direction Direction, now int64) lib.ErrorI {
	var reserveA, reserveB, supply uint64
	var okA, okB, okS bool
	switch direction {
	case Deposit:
		reserveA, okA = lib.SafeAdd(p.ReserveA, deltaA)
		reserveB, okB = lib.SafeAdd(p.ReserveB, deltaB)
		supply, okS = lib.SafeAdd(p.TotalLpSupply, deltaSupply)
		if !okA || !okB || !okS {
			return ErrMathOverflow()
		}
	case Withdraw:
		reserveA, okA = lib.SafeSub(p.ReserveA, deltaA)
		reserveB, okB = lib.SafeSub(p.ReserveB, deltaB)
		if !okA || !okB {
			return ErrInsufficientReserves()
		}
		if supply, okS = lib.SafeSub(p.TotalLpSupply, deltaSupply); !okS {
			return ErrMathOverflow()
		}
	default:
		return lib.ErrInvalidArgument(fmt.Errorf("unknown direction %d", direction))
	}
	p.ReserveA, p.ReserveB, p.TotalLpSupply = reserveA, reserveB, supply
	p.UpdatedAt = now
	return nil
}

// InitializePool() creates a pool with its lp mint and both vaults in the base context
func (s *StateMachine) InitializePool(signer solana.PublicKey, params AddPoolParams) (address solana.PublicKey, err lib.ErrorI) {
	err = s.Apply("initialize_pool", func() lib.ErrorI {
		if e := s.requireContext("initialize_pool", BaseContext); e != nil {
			return e
		}
		if e := s.requireAdmin(signer); e != nil {
			return e
		}
		// validate the parameters
		if len(params.Name) == 0 || len(params.Name) > MaxPoolNameLen {
			return ErrInvalidPoolName()
		}
		if params.TradeFees > MaxFeeBps || params.ProtocolFees > MaxFeeBps {
			return ErrInvalidFee()
		}
		if params.TokenA.Equals(params.TokenB) {
			return ErrInvalidMints()
		}
		ledger := s.Ledger()
		for _, mint := range []solana.PublicKey{params.TokenA, params.TokenB} {
			if _, e := ledger.GetMint(mint); e != nil {
				return ErrInvalidMints()
			}
		}
		// derive every address of the pool
		var bump uint8
		var e lib.ErrorI
		if address, bump, e = lib.PoolAddress(s.programID, params.Name); e != nil {
			return e
		}
		lpMint, lpMintBump, e := lib.LpMintAddress(s.programID, address)
		if e != nil {
			return e
		}
		vaultA, vaultABump, e := lib.VaultAAddress(s.programID, address, params.TokenA)
		if e != nil {
			return e
		}
		vaultB, vaultBBump, e := lib.VaultBAddress(s.programID, address, params.TokenB)
		if e != nil {
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
			return ErrAccountAlreadyExists(poolLayout.name, address)
		}
		// the program authority owns the lp mint and both vaults
		if e = ledger.CreateMint(lpMint, s.transferAuthority, LpMintDecimals); e != nil {
			return e
		}
		if e = ledger.CreateTokenAccount(vaultA, params.TokenA, s.transferAuthority); e != nil {
			return e
		}
		if e = ledger.CreateTokenAccount(vaultB, params.TokenB, s.transferAuthority); e != nil {
			return e
		}
		now := s.now()
		s.log.Infof("Initialized pool %s at %s", params.Name, address)
		return s.SetPool(address, &Pool{
			Version:     AccountVersion,
			Authority:   s.transferAuthority,
			PoolID:      params.PoolID,
			Name:        params.Name,
			LpMint:      lpMint,
			TokenA:      params.TokenA,
			TokenB:      params.TokenB,
			TokenAVault: vaultA,
			TokenBVault: vaultB,
			Fees: FeeConfig{
				TradeFeeBps:    params.TradeFees,
				ProtocolFeeBps: params.ProtocolFees,
				FeeRecipient:   params.FeeRecipient,
			},
			Status:          PoolStatus{IsActive: true},
			CreatedAt:       now,
			UpdatedAt:       now,
			Bump:            bump,
			LpMintBump:      lpMintBump,
			TokenAVaultBump: vaultABump,
			TokenBVaultBump: vaultBBump,
		})
	})
	return
}

// SetPoolStatus() toggles the paused and migrating flags of a pool; only the admin may sign
func (s *StateMachine) SetPoolStatus(signer, address solana.PublicKey, paused, migrating bool) lib.ErrorI {
	return s.Apply("set_pool_status", func() lib.ErrorI {
		if err := s.requireAdmin(signer); err != nil {
			return err
		}
		if err := s.requireWritable(address); err != nil {
			return err
		}
		pool, err := s.GetPool(address)
		if err != nil {
			return err
		}
		pool.Status.IsPaused, pool.Status.IsMigrating = paused, migrating
		pool.UpdatedAt = s.now()
		s.log.Infof("Pool %s status set to paused=%t migrating=%t", pool.Name, paused, migrating)
		return s.SetPool(address, pool)
	})
}

// requireAdmin() ensures the signer is the configured admin
func (s *StateMachine) requireAdmin(signer solana.PublicKey) lib.ErrorI {
	if s.admin.IsZero() || !s.admin.Equals(signer) {
		return ErrUnauthorized(signer)
	}
	return nil
}

// updatePoolMetrics() publishes the reserves of a pool for this context
func (s *StateMachine) updatePoolMetrics(pool *Pool) {
	s.metrics.UpdatePool(pool.Name, s.context.String(), pool.ReserveA, pool.ReserveB, pool.TotalLpSupply)
}
