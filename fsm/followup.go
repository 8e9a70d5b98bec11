package fsm

import (
	"github.com/canopy-network/rollup-pool/lib"
	"github.com/gagliardetto/solana-go"
)

/* This file implements the base context follow-ups that deliver the outputs of a settled two phase operation */

// every follow-up is replay safe: a missing or settled receipt makes it a no-op, so redelivery never double pays

// MintLpTokens() mints the lp tokens frozen in an applied deposit receipt to the provider and settles the receipt
func (s *StateMachine) MintLpTokens(provider solana.PublicKey) lib.ErrorI {
	return s.mintLpTokens(provider, nil)
}

// PayoutWithdraw() pays the amounts frozen in an applied withdraw receipt out of the vaults and settles the receipt
func (s *StateMachine) PayoutWithdraw(provider solana.PublicKey) lib.ErrorI {
	return s.payoutWithdraw(provider, nil)
}

// CloseDepositReceipt() deletes a settled deposit receipt, freeing the provider for the next deposit
func (s *StateMachine) CloseDepositReceipt(provider solana.PublicKey) lib.ErrorI {
	return s.closeDepositReceipt(provider, nil)
}

// CloseWithdrawReceipt() deletes a settled withdraw receipt, freeing the provider for the next withdrawal
func (s *StateMachine) CloseWithdrawReceipt(provider solana.PublicKey) lib.ErrorI {
	return s.closeWithdrawReceipt(provider, nil)
}

// mintLpTokens() executes MintLpTokens; non-nil accounts are checked against the derived instruction accounts
func (s *StateMachine) mintLpTokens(provider solana.PublicKey, accounts []*solana.AccountMeta) lib.ErrorI {
	return s.Apply(MintLpTokensName, func() lib.ErrorI {
		if err := s.requireContext(MintLpTokensName, BaseContext); err != nil {
			return err
		}
		receiptAddress, receipt, err := s.GetDepositReceipt(provider)
		if err != nil || receipt == nil || receipt.Status == ReceiptSettled {
			return err
		}
		if receipt.Status != ReceiptApplied {
			return ErrReceiptNotApplied(receiptAddress)
		}
		if err = s.requireWritable(receiptAddress); err != nil {
			return err
		}
		pool, err := s.GetPool(receipt.Pool)
		if err != nil {
			return err
		}
		if accounts != nil {
			expected, e := NewMintLpTokensInstruction(s.programID, provider, receipt.Pool)
			if e != nil {
				return e
			}
			if e = verifyAccounts(expected.Accounts(), accounts); e != nil {
				return e
			}
		}
		// deliver the output
		if err = s.ensureTokenAccount(provider, pool.LpMint); err != nil {
			return err
		}
		lpAccount, err := lib.TokenAccountAddress(provider, pool.LpMint)
		if err != nil {
			return err
		}
		if err = s.Ledger().MintTo(pool.LpMint, lpAccount, s.transferAuthority, receipt.LpTokensMinted); err != nil {
			return err
		}
		receipt.Status = ReceiptSettled
		s.metrics.IncDeposit(phaseSettle)
		s.log.Infof("Minted %d lp tokens of %s to %s", receipt.LpTokensMinted, pool.Name, provider)
		return s.SetDepositReceipt(receiptAddress, receipt)
	})
}

// payoutWithdraw() executes PayoutWithdraw; non-nil accounts are checked against the derived instruction accounts
func (s *StateMachine) payoutWithdraw(provider solana.PublicKey, accounts []*solana.AccountMeta) lib.ErrorI {
	return s.Apply(PayoutWithdrawName, func() lib.ErrorI {
		if err := s.requireContext(PayoutWithdrawName, BaseContext); err != nil {
			return err
		}
		receiptAddress, receipt, err := s.GetWithdrawReceipt(provider)
		if err != nil || receipt == nil || receipt.Status == ReceiptSettled {
			return err
		}
		if receipt.Status != ReceiptApplied {
			return ErrReceiptNotApplied(receiptAddress)
		}
		if err = s.requireWritable(receiptAddress); err != nil {
			return err
		}
		pool, err := s.GetPool(receipt.Pool)
		if err != nil {
			return err
		}
		if accounts != nil {
			expected, e := NewPayoutWithdrawInstruction(s.programID, provider, receipt.Pool, pool.TokenA, pool.TokenB)
			if e != nil {
				return e
			}
			if e = verifyAccounts(expected.Accounts(), accounts); e != nil {
				return e
			}
		}
		// deliver the outputs
		ledger := s.Ledger()
		for _, out := range []struct {
			mint, vault solana.PublicKey
			amount      uint64
		}{
			{pool.TokenA, pool.TokenAVault, receipt.AmountAWithdrawn},
			{pool.TokenB, pool.TokenBVault, receipt.AmountBWithdrawn},
		} {
			if err = s.ensureTokenAccount(provider, out.mint); err != nil {
				return err
			}
			destination, e := lib.TokenAccountAddress(provider, out.mint)
			if e != nil {
				return e
			}
			if err = ledger.Transfer(out.vault, destination, s.transferAuthority, out.amount); err != nil {
				return err
			}
		}
		receipt.Status = ReceiptSettled
		s.metrics.IncWithdraw(phaseSettle)
		s.log.Infof("Paid out %d/%d of %s to %s", receipt.AmountAWithdrawn, receipt.AmountBWithdrawn, pool.Name, provider)
		return s.SetWithdrawReceipt(receiptAddress, receipt)
	})
}

// closeDepositReceipt() executes CloseDepositReceipt; non-nil accounts are checked against the derived instruction accounts
func (s *StateMachine) closeDepositReceipt(provider solana.PublicKey, accounts []*solana.AccountMeta) lib.ErrorI {
	return s.Apply(CloseDepositReceiptName, func() lib.ErrorI {
		if err := s.requireContext(CloseDepositReceiptName, BaseContext); err != nil {
			return err
		}
		receiptAddress, receipt, err := s.GetDepositReceipt(provider)
		if err != nil || receipt == nil {
			return err
		}
		// the consuming follow-up must run first
		if receipt.Status != ReceiptSettled {
			return ErrReceiptNotSettled(receiptAddress)
		}
		return s.closeReceipt(receiptAddress, accounts, func() (*Instruction, lib.ErrorI) {
			return NewCloseDepositReceiptInstruction(s.programID, provider)
		})
	})
}

// closeWithdrawReceipt() executes CloseWithdrawReceipt; non-nil accounts are checked against the derived instruction accounts
func (s *StateMachine) closeWithdrawReceipt(provider solana.PublicKey, accounts []*solana.AccountMeta) lib.ErrorI {
	return s.Apply(CloseWithdrawReceiptName, func() lib.ErrorI {
		if err := s.requireContext(CloseWithdrawReceiptName, BaseContext); err != nil {
			return err
		}
		receiptAddress, receipt, err := s.GetWithdrawReceipt(provider)
		if err != nil || receipt == nil {
			return err
		}
		if receipt.Status != ReceiptSettled {
			return ErrReceiptNotSettled(receiptAddress)
		}
		return s.closeReceipt(receiptAddress, accounts, func() (*Instruction, lib.ErrorI) {
			return NewCloseWithdrawReceiptInstruction(s.programID, provider)
		})
	})
}

// closeReceipt() deletes a settled receipt after checking write authority and the instruction accounts
func (s *StateMachine) closeReceipt(address solana.PublicKey, accounts []*solana.AccountMeta, expected func() (*Instruction, lib.ErrorI)) lib.ErrorI {
	if err := s.requireWritable(address); err != nil {
		return err
	}
	if accounts != nil {
		ix, err := expected()
		if err != nil {
			return err
		}
		if err = verifyAccounts(ix.Accounts(), accounts); err != nil {
			return err
		}
	}
	s.log.Debugf("Closed receipt %s", address)
	return s.DeleteReceipt(address)
}
