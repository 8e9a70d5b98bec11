package controller

import (
	"github.com/canopy-network/rollup-pool/delegation"
	"github.com/canopy-network/rollup-pool/dispatch"
	"github.com/canopy-network/rollup-pool/fsm"
	"github.com/canopy-network/rollup-pool/lib"
	"github.com/gagliardetto/solana-go"
)

/*
	This file implements the operations of the pool node. Each one runs under the controller lock and both
	contexts are committed after it succeeds.

	A deposit is driven in four steps:
	1) Deposit: the base context escrows the tokens and writes a pending receipt
	2) DelegateDeposit: the pool, the position record and the receipt move to the rollup context
	3) AddLiquidityDelegated: the rollup context applies the receipt to the pool and the position
	4) CommitDeposit: the pool and the position are committed, the receipt is released and the mint and close
	   follow-ups are queued; the delivery worker runs them in the base context
	A withdrawal is driven the same way with Withdraw, DelegateWithdraw, RemoveLiquidityDelegated and CommitWithdraw.
*/

// InitPool() creates a pool in the base context
func (c *Controller) InitPool(signer solana.PublicKey, params fsm.AddPoolParams) (address solana.PublicKey, err lib.ErrorI) {
	err = c.execute(func() (e lib.ErrorI) {
		address, e = c.Base.InitializePool(signer, params)
		return
	})
	return
}

// SetPoolStatus() pauses or resumes a base owned pool
func (c *Controller) SetPoolStatus(signer, pool solana.PublicKey, paused, migrating bool) lib.ErrorI {
	return c.execute(func() lib.ErrorI {
		return c.Base.SetPoolStatus(signer, pool, paused, migrating)
	})
}

// InitProvider() creates the position record of a provider in the base context
func (c *Controller) InitProvider(owner solana.PublicKey) (address solana.PublicKey, err lib.ErrorI) {
	err = c.execute(func() (e lib.ErrorI) {
		address, e = c.Base.InitializeLiquidityProvider(owner)
		return
	})
	return
}

// Delegate() delegates accounts to the rollup context
func (c *Controller) Delegate(config delegation.DelegateConfig, accounts ...solana.PublicKey) lib.ErrorI {
	return c.execute(func() lib.ErrorI {
		return c.Delegation.DelegateAccounts(config, accounts...)
	})
}

// Commit() commits delegated accounts without releasing them
func (c *Controller) Commit(accounts ...solana.PublicKey) lib.ErrorI {
	return c.execute(func() lib.ErrorI {
		return c.Delegation.Commit(accounts, nil)
	})
}

// Undelegate() commits delegated accounts and returns them to the base context
func (c *Controller) Undelegate(accounts ...solana.PublicKey) lib.ErrorI {
	return c.execute(func() lib.ErrorI {
		return c.Delegation.CommitAndUndelegate(accounts, nil)
	})
}

// Deposit() escrows a deposit in the base context and returns its receipt
func (c *Controller) Deposit(provider, pool solana.PublicKey, amountA, amountB, minLpTokens uint64) (receipt solana.PublicKey, err lib.ErrorI) {
	err = c.execute(func() (e lib.ErrorI) {
		receipt, e = c.Base.DepositLiquidity(provider, pool, amountA, amountB, minLpTokens)
		return
	})
	return
}

// DelegateDeposit() delegates whatever the rollup context needs to apply a deposit receipt
func (c *Controller) DelegateDeposit(provider, pool solana.PublicKey, config delegation.DelegateConfig) lib.ErrorI {
	return c.execute(func() lib.ErrorI {
		receipt, _, err := lib.DepositReceiptAddress(c.Base.ProgramID(), provider)
		if err != nil {
			return err
		}
		return c.delegateMissing(provider, pool, receipt, config)
	})
}

// AddLiquidityDelegated() applies a deposit receipt in the rollup context
func (c *Controller) AddLiquidityDelegated(provider, pool solana.PublicKey) lib.ErrorI {
	return c.execute(func() lib.ErrorI {
		return c.Rollup.AddLiquidityDelegated(provider, pool)
	})
}

// CommitDeposit() commits an applied deposit and queues the lp token mint and the receipt close
func (c *Controller) CommitDeposit(provider, pool solana.PublicKey) lib.ErrorI {
	err := c.execute(func() lib.ErrorI {
		receiptAddress, receipt, err := c.Rollup.GetDepositReceipt(provider)
		if err != nil {
			return err
		}
		if receipt == nil {
			return fsm.ErrReceiptNotFound(receiptAddress)
		}
		if !receipt.Pool.Equals(pool) {
			return fsm.ErrWrongPool(receipt.Pool, pool)
		}
		// only an applied receipt has follow-ups that can land
		if receipt.Status != fsm.ReceiptApplied {
			return fsm.ErrReceiptNotApplied(receiptAddress)
		}
		bundle, err := dispatch.NewDepositBundle(c.Base.ProgramID(), provider, pool, c.Config.ComputeUnits)
		if err != nil {
			return err
		}
		return c.commitReceipt(provider, pool, receiptAddress, bundle)
	})
	if err == nil {
		c.Worker.Notify()
	}
	return err
}

// Withdraw() burns lp tokens in the base context and returns the withdraw receipt
func (c *Controller) Withdraw(provider, pool solana.PublicKey, lpTokens, minAmountA, minAmountB uint64) (receipt solana.PublicKey, err lib.ErrorI) {
	err = c.execute(func() (e lib.ErrorI) {
		receipt, e = c.Base.WithdrawLiquidity(provider, pool, lpTokens, minAmountA, minAmountB)
		return
	})
	return
}

// DelegateWithdraw() delegates whatever the rollup context needs to apply a withdraw receipt
func (c *Controller) DelegateWithdraw(provider, pool solana.PublicKey, config delegation.DelegateConfig) lib.ErrorI {
	return c.execute(func() lib.ErrorI {
		receipt, _, err := lib.WithdrawReceiptAddress(c.Base.ProgramID(), provider)
		if err != nil {
			return err
		}
		return c.delegateMissing(provider, pool, receipt, config)
	})
}

// RemoveLiquidityDelegated() applies a withdraw receipt in the rollup context
func (c *Controller) RemoveLiquidityDelegated(provider, pool solana.PublicKey) lib.ErrorI {
	return c.execute(func() lib.ErrorI {
		return c.Rollup.RemoveLiquidityDelegated(provider, pool)
	})
}

// CommitWithdraw() commits an applied withdrawal and queues the payout and the receipt close
func (c *Controller) CommitWithdraw(provider, pool solana.PublicKey) lib.ErrorI {
	err := c.execute(func() lib.ErrorI {
		receiptAddress, receipt, err := c.Rollup.GetWithdrawReceipt(provider)
		if err != nil {
			return err
		}
		if receipt == nil {
			return fsm.ErrReceiptNotFound(receiptAddress)
		}
		if !receipt.Pool.Equals(pool) {
			return fsm.ErrWrongPool(receipt.Pool, pool)
		}
		// only an applied receipt has follow-ups that can land
		if receipt.Status != fsm.ReceiptApplied {
			return fsm.ErrReceiptNotApplied(receiptAddress)
		}
		// the payout needs the token mints of the pool
		p, err := c.Rollup.GetPool(pool)
		if err != nil {
			return err
		}
		bundle, err := dispatch.NewWithdrawBundle(c.Base.ProgramID(), provider, pool, p.TokenA, p.TokenB, c.Config.ComputeUnits)
		if err != nil {
			return err
		}
		return c.commitReceipt(provider, pool, receiptAddress, bundle)
	})
	if err == nil {
		c.Worker.Notify()
	}
	return err
}

// Faucet() mints test tokens to an owner, creating the mint and the token account if needed
func (c *Controller) Faucet(mint, owner solana.PublicKey, amount uint64) lib.ErrorI {
	return c.execute(func() lib.ErrorI {
		return c.Base.Apply("faucet", func() lib.ErrorI {
			l := c.Base.Ledger()
			m, err := l.GetMint(mint)
			if err != nil {
				if err = l.CreateMint(mint, c.Base.Admin(), 9); err != nil {
					return err
				}
				if m, err = l.GetMint(mint); err != nil {
					return err
				}
			}
			// pool owned mints are never minted outside of a deposit
			if m.Authority.Equals(c.Base.TransferAuthority()) {
				return fsm.ErrUnauthorized(m.Authority)
			}
			account, err := lib.TokenAccountAddress(owner, mint)
			if err != nil {
				return err
			}
			if _, err = l.GetTokenAccount(account); err != nil {
				if err = l.CreateTokenAccount(account, mint, owner); err != nil {
					return err
				}
			}
			return l.MintTo(mint, account, m.Authority, amount)
		})
	})
}

// commitReceipt() commits the pool and the position record and releases the receipt with the follow-ups
func (c *Controller) commitReceipt(provider, pool, receipt solana.PublicKey, bundle *dispatch.Bundle) lib.ErrorI {
	position, _, err := lib.LiquidityProviderAddress(c.Base.ProgramID(), provider)
	if err != nil {
		return err
	}
	return c.Delegation.CommitAndRelease([]solana.PublicKey{pool, position}, []solana.PublicKey{receipt}, bundle)
}

// delegateMissing() delegates the pool, the position record of the provider and a receipt, skipping any that
// are already delegated so a fresher rollup copy is never overwritten
func (c *Controller) delegateMissing(provider, pool, receipt solana.PublicKey, config delegation.DelegateConfig) lib.ErrorI {
	position, _, err := lib.LiquidityProviderAddress(c.Base.ProgramID(), provider)
	if err != nil {
		return err
	}
	var missing []solana.PublicKey
	for _, account := range []solana.PublicKey{pool, position, receipt} {
		delegated, e := c.Delegation.IsDelegated(account)
		if e != nil {
			return e
		}
		if !delegated {
			missing = append(missing, account)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return c.Delegation.DelegateAccounts(config, missing...)
}
