package controller

import (
	"github.com/canopy-network/rollup-pool/delegation"
	"github.com/canopy-network/rollup-pool/dispatch"
	"github.com/canopy-network/rollup-pool/fsm"
	"github.com/canopy-network/rollup-pool/lib"
	"github.com/gagliardetto/solana-go"
)

/* This file implements read only queries; program accounts are read from the context that can write them */

// Pool() returns a pool and the context it was read from
func (c *Controller) Pool(address solana.PublicKey) (pool *fsm.Pool, context fsm.Context, err lib.ErrorI) {
	err = c.read(address, func(sm *fsm.StateMachine) (e lib.ErrorI) {
		context = sm.Context()
		pool, e = sm.GetPool(address)
		return
	})
	return
}

// PoolByName() returns the address and the state of a pool by its name
func (c *Controller) PoolByName(name string) (address solana.PublicKey, pool *fsm.Pool, err lib.ErrorI) {
	if address, _, err = lib.PoolAddress(c.Base.ProgramID(), name); err != nil {
		return
	}
	pool, _, err = c.Pool(address)
	return
}

// Pools() returns every pool as committed to the base context
func (c *Controller) Pools() ([]*fsm.PoolWithAddress, lib.ErrorI) {
	c.Lock()
	defer c.Unlock()
	return c.Base.GetPools()
}

// Provider() returns the position record of a provider
func (c *Controller) Provider(owner solana.PublicKey) (lp *fsm.LiquidityProvider, err lib.ErrorI) {
	address, _, err := lib.LiquidityProviderAddress(c.Base.ProgramID(), owner)
	if err != nil {
		return nil, err
	}
	err = c.read(address, func(sm *fsm.StateMachine) (e lib.ErrorI) {
		_, lp, e = sm.GetLiquidityProvider(owner)
		return
	})
	return
}

// DepositReceipt() returns the in flight deposit receipt of a provider, nil if there is none
func (c *Controller) DepositReceipt(owner solana.PublicKey) (receipt *fsm.DepositReceipt, err lib.ErrorI) {
	address, _, err := lib.DepositReceiptAddress(c.Base.ProgramID(), owner)
	if err != nil {
		return nil, err
	}
	err = c.read(address, func(sm *fsm.StateMachine) (e lib.ErrorI) {
		_, receipt, e = sm.GetDepositReceipt(owner)
		return
	})
	return
}

// WithdrawReceipt() returns the in flight withdraw receipt of a provider, nil if there is none
func (c *Controller) WithdrawReceipt(owner solana.PublicKey) (receipt *fsm.WithdrawReceipt, err lib.ErrorI) {
	address, _, err := lib.WithdrawReceiptAddress(c.Base.ProgramID(), owner)
	if err != nil {
		return nil, err
	}
	err = c.read(address, func(sm *fsm.StateMachine) (e lib.ErrorI) {
		_, receipt, e = sm.GetWithdrawReceipt(owner)
		return
	})
	return
}

// GetDelegation() returns the delegation record of an account
func (c *Controller) GetDelegation(account solana.PublicKey) (*delegation.Delegation, lib.ErrorI) {
	c.Lock()
	defer c.Unlock()
	return c.Delegation.GetDelegation(account)
}

// Balance() returns the balance of an owner's associated token account for a mint
func (c *Controller) Balance(owner, mint solana.PublicKey) (uint64, lib.ErrorI) {
	account, err := lib.TokenAccountAddress(owner, mint)
	if err != nil {
		return 0, err
	}
	c.Lock()
	defer c.Unlock()
	return c.Base.Ledger().Balance(account)
}

// Outbox() returns up to limit follow-ups waiting for delivery
func (c *Controller) Outbox(limit int) ([]*dispatch.Intent, lib.ErrorI) {
	c.Lock()
	defer c.Unlock()
	return dispatch.NewOutbox(c.baseDB).Pending(limit)
}

// QuoteDeposit() returns the lp tokens a deposit would mint at the pool's current reserves
func (c *Controller) QuoteDeposit(address solana.PublicKey, amountA, amountB uint64) (uint64, *fsm.Pool, lib.ErrorI) {
	pool, _, err := c.Pool(address)
	if err != nil {
		return 0, nil, err
	}
	lp, err := fsm.ComputeMintAmount(pool.ReserveA, pool.ReserveB, pool.TotalLpSupply, amountA, amountB)
	return lp, pool, err
}

// QuoteWithdraw() returns the amounts burning lp tokens would pay out at the pool's current reserves
func (c *Controller) QuoteWithdraw(address solana.PublicKey, lpTokens uint64) (amountA, amountB uint64, pool *fsm.Pool, err lib.ErrorI) {
	if pool, _, err = c.Pool(address); err != nil {
		return
	}
	amountA, amountB, err = fsm.ComputeWithdrawAmounts(pool.ReserveA, pool.ReserveB, pool.TotalLpSupply, lpTokens)
	return
}

// read() runs a query against the context holding write authority over the account
func (c *Controller) read(account solana.PublicKey, query func(sm *fsm.StateMachine) lib.ErrorI) lib.ErrorI {
	c.Lock()
	defer c.Unlock()
	delegated, err := c.Delegation.IsDelegated(account)
	if err != nil {
		return err
	}
	if delegated {
		return query(c.Rollup)
	}
	return query(c.Base)
}
