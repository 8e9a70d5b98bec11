package fsm

import (
	"github.com/canopy-network/rollup-pool/lib"
	"github.com/gagliardetto/solana-go"
)

/* This file implements the receipt store that carries a liquidity operation between its two phases */

// GetDepositReceipt() returns the deposit receipt of a provider, nil if none is in flight
func (s *StateMachine) GetDepositReceipt(provider solana.PublicKey) (solana.PublicKey, *DepositReceipt, lib.ErrorI) {
	address, _, err := lib.DepositReceiptAddress(s.programID, provider)
	if err != nil {
		return solana.PublicKey{}, nil, err
	}
	receipt := new(DepositReceipt)
	found, err := s.getAccount(address, depositReceiptLayout, receipt)
	if err != nil || !found {
		return address, nil, err
	}
	return address, receipt, nil
}

// SetDepositReceipt() writes a deposit receipt at an address
func (s *StateMachine) SetDepositReceipt(address solana.PublicKey, receipt *DepositReceipt) lib.ErrorI {
	return s.setAccount(address, depositReceiptLayout, receipt)
}

// GetWithdrawReceipt() returns the withdraw receipt of a provider, nil if none is in flight
func (s *StateMachine) GetWithdrawReceipt(provider solana.PublicKey) (solana.PublicKey, *WithdrawReceipt, lib.ErrorI) {
	address, _, err := lib.WithdrawReceiptAddress(s.programID, provider)
	if err != nil {
		return solana.PublicKey{}, nil, err
	}
	receipt := new(WithdrawReceipt)
	found, err := s.getAccount(address, withdrawReceiptLayout, receipt)
	if err != nil || !found {
		return address, nil, err
	}
	return address, receipt, nil
}

// SetWithdrawReceipt() writes a withdraw receipt at an address
func (s *StateMachine) SetWithdrawReceipt(address solana.PublicKey, receipt *WithdrawReceipt) lib.ErrorI {
	return s.setAccount(address, withdrawReceiptLayout, receipt)
}

// DeleteReceipt() closes the receipt account at an address
func (s *StateMachine) DeleteReceipt(address solana.PublicKey) lib.ErrorI {
	return s.Delete(lib.KeyForAccount(address))
}
