package ledger

import (
	"fmt"

	"github.com/canopy-network/rollup-pool/lib"
	"github.com/gagliardetto/solana-go"
)

// ErrLedger() is the single error kind every token operation fails with
func ErrLedger(msg string) lib.ErrorI {
	return lib.NewError(lib.CodeLedger, lib.LedgerModule, msg)
}

func ErrAccountNotFound(account solana.PublicKey) lib.ErrorI {
	return ErrLedger(fmt.Sprintf("token account %s not found", account))
}

func ErrAccountInUse(account solana.PublicKey) lib.ErrorI {
	return ErrLedger(fmt.Sprintf("account %s already in use", account))
}

func ErrInsufficientFunds(have, want uint64) lib.ErrorI {
	return ErrLedger(fmt.Sprintf("insufficient funds: have %d, want %d", have, want))
}

func ErrMintMismatch() lib.ErrorI {
	return ErrLedger("account not associated with this mint")
}

func ErrOwnerMismatch(authority solana.PublicKey) lib.ErrorI {
	return ErrLedger(fmt.Sprintf("owner does not match, signer %s", authority))
}

func ErrInvalidMintAuthority(authority solana.PublicKey) lib.ErrorI {
	return ErrLedger(fmt.Sprintf("invalid mint authority %s", authority))
}

func ErrOverflow() lib.ErrorI {
	return ErrLedger("operation overflowed")
}
