package delegation

import (
	"fmt"

	"github.com/canopy-network/rollup-pool/lib"
	"github.com/gagliardetto/solana-go"
)

// This file defines error objects for the Delegation module

func ErrAlreadyDelegated(account solana.PublicKey) lib.ErrorI {
	return lib.NewError(lib.CodeAlreadyDelegated, lib.DelegationModule, fmt.Sprintf("account %s is already delegated", account))
}

func ErrNotDelegated(account solana.PublicKey) lib.ErrorI {
	return lib.NewError(lib.CodeNotDelegated, lib.DelegationModule, fmt.Sprintf("account %s is not delegated", account))
}

func ErrAccountDelegated(account solana.PublicKey) lib.ErrorI {
	return lib.NewError(lib.CodeAccountDelegated, lib.DelegationModule, fmt.Sprintf("account %s is delegated and can't be written by the base context", account))
}

func ErrMissingAccount(account solana.PublicKey) lib.ErrorI {
	return lib.NewError(lib.CodeMissingAccount, lib.DelegationModule, fmt.Sprintf("account %s doesn't exist in the base context", account))
}

func ErrNoAccounts() lib.ErrorI {
	return lib.NewError(lib.CodeNoAccounts, lib.DelegationModule, "no accounts given")
}
