package fsm

import (
	"github.com/canopy-network/rollup-pool/lib"
	"github.com/gagliardetto/solana-go"
)

/* This file implements both phases of the deposit and withdraw flows */

// phases of a liquidity operation, used as metric labels
const (
	phaseEscrow = "escrow" // tokens moved in the base context
	phaseApply  = "apply"  // virtual reserves moved in the delegated context
	phaseSettle = "settle" // outputs delivered by a follow-up in the base context
)

// DepositLiquidity() is phase one of a deposit: escrow both tokens into the vaults and freeze the numbers in a receipt
// no lp tokens are minted here; MintLpTokens delivers them once the delegated context applied the receipt
func (s *StateMachine) DepositLiquidity(provider, poolAddress solana.PublicKey, amountA, amountB, minLpTokens uint64) (receiptAddress solana.PublicKey, err lib.ErrorI) {
	err = s.Apply("deposit_liquidity", func() lib.ErrorI {
		if e := s.requireContext("deposit_liquidity", BaseContext); e != nil {
			return e
		}
		if amountA == 0 || amountB == 0 {
			return ErrInvalidAmount()
		}
		// the committed base copy of the pool prices the deposit
		pool, e := s.GetPool(poolAddress)
		if e != nil {
			return e
		}
		if e = CheckPoolStatus(pool); e != nil {
			return e
		}
		if _, _, e = s.GetLiquidityProvider(provider); e != nil {
			return e
		}
		// one deposit per provider may be in flight
		receiptAddress, _, e = s.GetDepositReceipt(provider)
		if e != nil {
			return e
		}
		if e = s.requireWritable(receiptAddress); e != nil {
			return e
		}
		if exists, er := s.accountExists(receiptAddress); er != nil || exists {
			if er != nil {
				return er
			}
			return ErrReceiptInFlight(receiptAddress)
		}
		// locate and check the provider's token accounts
		ledger := s.Ledger()
		sourceA, e := lib.TokenAccountAddress(provider, pool.TokenA)
		if e != nil {
			return e
		}
		sourceB, e := lib.TokenAccountAddress(provider, pool.TokenB)
		if e != nil {
			return e
		}
		for source, amount := range map[solana.PublicKey]uint64{sourceA: amountA, sourceB: amountB} {
			if balance, er := ledger.Balance(source); er != nil || balance < amount {
				return ErrInsufficientFunds()
			}
		}
		// price the deposit
		lpTokens, e := ComputeMintAmount(pool.ReserveA, pool.ReserveB, pool.TotalLpSupply, amountA, amountB)
		if e != nil {
			return e
		}
		if e = checkMinimum(lpTokens, minLpTokens); e != nil {
			return e
		}
		// the follow-up mints into the provider's lp account, so it must exist
		if e = s.ensureTokenAccount(provider, pool.LpMint); e != nil {
			return e
		}
		// escrow the inputs
		if e = ledger.Transfer(sourceA, pool.TokenAVault, provider, amountA); e != nil {
			return e
		}
		if e = ledger.Transfer(sourceB, pool.TokenBVault, provider, amountB); e != nil {
			return e
		}
		_, bump, e := lib.DepositReceiptAddress(s.programID, provider)
		if e != nil {
			return e
		}
		s.metrics.IncDeposit(phaseEscrow)
		s.log.Infof("Escrowed deposit of %d/%d into %s for %d lp tokens", amountA, amountB, pool.Name, lpTokens)
		return s.SetDepositReceipt(receiptAddress, &DepositReceipt{
			Version:        AccountVersion,
			Pool:           poolAddress,
			Provider:       provider,
			AmountA:        amountA,
			AmountB:        amountB,
			LpTokensMinted: lpTokens,
			Status:         ReceiptPending,
			Bump:           bump,
		})
	})
	return
}

// AddLiquidityDelegated() is phase two of a deposit: apply the frozen receipt numbers to the delegated pool and position
// a receipt that was already applied or settled makes this a no-op
func (s *StateMachine) AddLiquidityDelegated(provider, poolAddress solana.PublicKey) lib.ErrorI {
	return s.Apply("add_liquidity_delegated", func() lib.ErrorI {
		if err := s.requireContext("add_liquidity_delegated", RollupContext); err != nil {
			return err
		}
		receiptAddress, receipt, err := s.GetDepositReceipt(provider)
		if err != nil {
			return err
		}
		if receipt == nil {
			return ErrReceiptNotFound(receiptAddress)
		}
		if receipt.Status != ReceiptPending {
			s.log.Debugf("Deposit receipt %s already %s", receiptAddress, receipt.Status)
			return nil
		}
		if !receipt.Pool.Equals(poolAddress) {
			return ErrWrongPool(receipt.Pool, poolAddress)
		}
		providerAddress, lp, err := s.GetLiquidityProvider(provider)
		if err != nil {
			return err
		}
		if err = s.requireWritable(poolAddress, providerAddress, receiptAddress); err != nil {
			return err
		}
		pool, err := s.GetPool(poolAddress)
		if err != nil {
			return err
		}
		if err = CheckPoolStatus(pool); err != nil {
			return err
		}
		// the delegated reserves must still price the deposit at least as well as the base copy did
		lpTokens, err := ComputeMintAmount(pool.ReserveA, pool.ReserveB, pool.TotalLpSupply, receipt.AmountA, receipt.AmountB)
		if err != nil {
			return err
		}
		if err = checkMinimum(lpTokens, receipt.LpTokensMinted); err != nil {
			return err
		}
		liquidity, ok := lib.SafeAdd(receipt.AmountA, receipt.AmountB)
		if !ok {
			return ErrMathOverflow()
		}
		// apply the receipt
		now := s.now()
		if err = pool.ApplyReserveDelta(receipt.AmountA, receipt.AmountB, receipt.LpTokensMinted, Deposit, now); err != nil {
			return err
		}
		if err = lp.ApplyDeposit(poolAddress, pool.LpMint, liquidity, receipt.LpTokensMinted, now); err != nil {
			return err
		}
		receipt.Status = ReceiptApplied
		if err = s.SetPool(poolAddress, pool); err != nil {
			return err
		}
		if err = s.SetLiquidityProvider(providerAddress, lp); err != nil {
			return err
		}
		s.updatePoolMetrics(pool)
		s.metrics.IncDeposit(phaseApply)
		s.log.Infof("Applied deposit of %d lp tokens to %s; reserves %d/%d", receipt.LpTokensMinted, pool.Name, pool.ReserveA, pool.ReserveB)
		return s.SetDepositReceipt(receiptAddress, receipt)
	})
}

// WithdrawLiquidity() is phase one of a withdrawal: burn the lp tokens and freeze the owed amounts in a receipt
// the vaults are untouched here; PayoutWithdraw delivers the tokens once the delegated context applied the receipt
func (s *StateMachine) WithdrawLiquidity(provider, poolAddress solana.PublicKey, lpTokens, minAmountA, minAmountB uint64) (receiptAddress solana.PublicKey, err lib.ErrorI) {
	err = s.Apply("withdraw_liquidity", func() lib.ErrorI {
		if e := s.requireContext("withdraw_liquidity", BaseContext); e != nil {
			return e
		}
		if lpTokens == 0 {
			return ErrInvalidAmount()
		}
		pool, e := s.GetPool(poolAddress)
		if e != nil {
			return e
		}
		if e = CheckPoolStatus(pool); e != nil {
			return e
		}
		// one withdrawal per provider may be in flight
		receiptAddress, _, e = s.GetWithdrawReceipt(provider)
		if e != nil {
			return e
		}
		if e = s.requireWritable(receiptAddress); e != nil {
			return e
		}
		if exists, er := s.accountExists(receiptAddress); er != nil || exists {
			if er != nil {
				return er
			}
			return ErrReceiptInFlight(receiptAddress)
		}
		// the provider must hold the lp tokens it burns
		ledger := s.Ledger()
		lpAccount, e := lib.TokenAccountAddress(provider, pool.LpMint)
		if e != nil {
			return e
		}
		if balance, er := ledger.Balance(lpAccount); er != nil || balance < lpTokens {
			return ErrInsufficientTokenBalance()
		}
		// price the withdrawal
		amountA, amountB, e := ComputeWithdrawAmounts(pool.ReserveA, pool.ReserveB, pool.TotalLpSupply, lpTokens)
		if e != nil {
			return e
		}
		if e = checkMinimum(amountA, minAmountA); e != nil {
			return e
		}
		if e = checkMinimum(amountB, minAmountB); e != nil {
			return e
		}
		// escrow the input
		if e = ledger.Burn(pool.LpMint, lpAccount, provider, lpTokens); e != nil {
			return e
		}
		_, bump, e := lib.WithdrawReceiptAddress(s.programID, provider)
		if e != nil {
			return e
		}
		s.metrics.IncWithdraw(phaseEscrow)
		s.log.Infof("Burned %d lp tokens of %s for %d/%d", lpTokens, pool.Name, amountA, amountB)
		return s.SetWithdrawReceipt(receiptAddress, &WithdrawReceipt{
			Version:          AccountVersion,
			Pool:             poolAddress,
			Provider:         provider,
			LpTokensToBurn:   lpTokens,
			AmountAWithdrawn: amountA,
			AmountBWithdrawn: amountB,
			Status:           ReceiptPending,
			Bump:             bump,
		})
	})
	return
}

// RemoveLiquidityDelegated() is phase two of a withdrawal: apply the frozen receipt numbers to the delegated pool and position
// a receipt that was already applied or settled makes this a no-op
func (s *StateMachine) RemoveLiquidityDelegated(provider, poolAddress solana.PublicKey) lib.ErrorI {
	return s.Apply("remove_liquidity_delegated", func() lib.ErrorI {
		if err := s.requireContext("remove_liquidity_delegated", RollupContext); err != nil {
			return err
		}
		receiptAddress, receipt, err := s.GetWithdrawReceipt(provider)
		if err != nil {
			return err
		}
		if receipt == nil {
			return ErrReceiptNotFound(receiptAddress)
		}
		if receipt.Status != ReceiptPending {
			s.log.Debugf("Withdraw receipt %s already %s", receiptAddress, receipt.Status)
			return nil
		}
		if !receipt.Pool.Equals(poolAddress) {
			return ErrWrongPool(receipt.Pool, poolAddress)
		}
		providerAddress, lp, err := s.GetLiquidityProvider(provider)
		if err != nil {
			return err
		}
		if err = s.requireWritable(poolAddress, providerAddress, receiptAddress); err != nil {
			return err
		}
		pool, err := s.GetPool(poolAddress)
		if err != nil {
			return err
		}
		if err = CheckPoolStatus(pool); err != nil {
			return err
		}
		// the position must cover the burn
		slot := lp.Slot(poolAddress)
		if slot < 0 {
			return ErrProviderNotFound()
		}
		if lp.LiquidityPoolsInfo[slot].LpTokens < receipt.LpTokensToBurn {
			return ErrInsufficientLpTokens()
		}
		// the delegated reserves must still cover what the base copy promised
		amountA, amountB, err := ComputeWithdrawAmounts(pool.ReserveA, pool.ReserveB, pool.TotalLpSupply, receipt.LpTokensToBurn)
		if err != nil {
			return err
		}
		if err = checkMinimum(amountA, receipt.AmountAWithdrawn); err != nil {
			return err
		}
		if err = checkMinimum(amountB, receipt.AmountBWithdrawn); err != nil {
			return err
		}
		liquidity, ok := lib.SafeAdd(receipt.AmountAWithdrawn, receipt.AmountBWithdrawn)
		if !ok {
			return ErrMathOverflow()
		}
		// apply the receipt
		now := s.now()
		if err = pool.ApplyReserveDelta(receipt.AmountAWithdrawn, receipt.AmountBWithdrawn, receipt.LpTokensToBurn, Withdraw, now); err != nil {
			return err
		}
		if err = lp.ApplyWithdraw(poolAddress, liquidity, receipt.LpTokensToBurn, now); err != nil {
			return err
		}
		receipt.Status = ReceiptApplied
		if err = s.SetPool(poolAddress, pool); err != nil {
			return err
		}
		if err = s.SetLiquidityProvider(providerAddress, lp); err != nil {
			return err
		}
		s.updatePoolMetrics(pool)
		s.metrics.IncWithdraw(phaseApply)
		s.log.Infof("Applied withdrawal of %d lp tokens from %s; reserves %d/%d", receipt.LpTokensToBurn, pool.Name, pool.ReserveA, pool.ReserveB)
		return s.SetWithdrawReceipt(receiptAddress, receipt)
	})
}

// ensureTokenAccount() creates the associated token account of an owner for a mint if it's missing
func (s *StateMachine) ensureTokenAccount(owner, mint solana.PublicKey) lib.ErrorI {
	account, err := lib.TokenAccountAddress(owner, mint)
	if err != nil {
		return err
	}
	ledger := s.Ledger()
	if _, err = ledger.GetTokenAccount(account); err == nil {
		return nil
	}
	return ledger.CreateTokenAccount(account, mint, owner)
}
