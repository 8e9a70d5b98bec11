package fsm

import (
	"fmt"

	"github.com/canopy-network/rollup-pool/lib"
	"github.com/gagliardetto/solana-go"
)

// This file defines error objects for the State Machine module

func ErrPoolNotActive() lib.ErrorI {
	return lib.NewError(lib.CodePoolNotActive, lib.StateMachineModule, "pool is not active")
}

func ErrPoolPaused() lib.ErrorI {
	return lib.NewError(lib.CodePoolPaused, lib.StateMachineModule, "pool is paused")
}

func ErrMathOverflow() lib.ErrorI {
	return lib.NewError(lib.CodeMathOverflow, lib.StateMachineModule, "math overflow")
}

func ErrInsufficientReserves() lib.ErrorI {
	return lib.NewError(lib.CodeInsufficientReserves, lib.StateMachineModule, "insufficient reserves")
}

func ErrInsufficientLiquidity() lib.ErrorI {
	return lib.NewError(lib.CodeInsufficientLiquidity, lib.StateMachineModule, "insufficient liquidity")
}

func ErrInsufficientLpTokens() lib.ErrorI {
	return lib.NewError(lib.CodeInsufficientLpTokens, lib.StateMachineModule, "insufficient lp tokens")
}

func ErrInsufficientFunds() lib.ErrorI {
	return lib.NewError(lib.CodeInsufficientFunds, lib.StateMachineModule, "insufficient funds")
}

func ErrInsufficientTokenBalance() lib.ErrorI {
	return lib.NewError(lib.CodeInsufficientTokenBalance, lib.StateMachineModule, "insufficient token balance")
}

func ErrSlippageExceeded(got, min uint64) lib.ErrorI {
	return lib.NewError(lib.CodeSlippageExceeded, lib.StateMachineModule, fmt.Sprintf("slippage exceeded: got %d, minimum %d", got, min))
}

func ErrInvalidAmount() lib.ErrorI {
	return lib.NewError(lib.CodeInvalidAmount, lib.StateMachineModule, "invalid amount")
}

func ErrMaxPoolsReached() lib.ErrorI {
	return lib.NewError(lib.CodeMaxPoolsReached, lib.StateMachineModule, "max pools reached")
}

func ErrProviderNotFound() lib.ErrorI {
	return lib.NewError(lib.CodeProviderNotFound, lib.StateMachineModule, "provider has no position in the pool")
}

func ErrAccountNotFound(name string, address solana.PublicKey) lib.ErrorI {
	return lib.NewError(lib.CodeAccountNotFound, lib.StateMachineModule, fmt.Sprintf("%s account %s not found", name, address))
}

func ErrAccountAlreadyExists(name string, address solana.PublicKey) lib.ErrorI {
	return lib.NewError(lib.CodeAccountAlreadyExists, lib.StateMachineModule, fmt.Sprintf("%s account %s already exists", name, address))
}

func ErrInvalidPoolName() lib.ErrorI {
	return lib.NewError(lib.CodeInvalidPoolName, lib.StateMachineModule, fmt.Sprintf("pool name must be 1 to %d bytes", MaxPoolNameLen))
}

func ErrInvalidFee() lib.ErrorI {
	return lib.NewError(lib.CodeInvalidFee, lib.StateMachineModule, fmt.Sprintf("fee bps must not exceed %d", MaxFeeBps))
}

func ErrReceiptInFlight(address solana.PublicKey) lib.ErrorI {
	return lib.NewError(lib.CodeReceiptInFlight, lib.StateMachineModule, fmt.Sprintf("receipt %s is still in flight", address))
}

func ErrReceiptNotFound(address solana.PublicKey) lib.ErrorI {
	return lib.NewError(lib.CodeReceiptNotFound, lib.StateMachineModule, fmt.Sprintf("receipt %s not found", address))
}

func ErrReceiptNotApplied(address solana.PublicKey) lib.ErrorI {
	return lib.NewError(lib.CodeReceiptNotApplied, lib.StateMachineModule, fmt.Sprintf("receipt %s was not applied in the delegated context", address))
}

func ErrReceiptNotSettled(address solana.PublicKey) lib.ErrorI {
	return lib.NewError(lib.CodeReceiptNotSettled, lib.StateMachineModule, fmt.Sprintf("receipt %s is not settled", address))
}

func ErrInvalidDiscriminator() lib.ErrorI {
	return lib.NewError(lib.CodeInvalidDiscriminator, lib.StateMachineModule, "invalid discriminator")
}

func ErrUnknownInstruction() lib.ErrorI {
	return lib.NewError(lib.CodeUnknownInstruction, lib.StateMachineModule, "unknown instruction")
}

func ErrUnauthorized(signer solana.PublicKey) lib.ErrorI {
	return lib.NewError(lib.CodeUnauthorized, lib.StateMachineModule, fmt.Sprintf("%s is not authorized", signer))
}

func ErrInvalidMints() lib.ErrorI {
	return lib.NewError(lib.CodeInvalidMints, lib.StateMachineModule, "pool mints must exist and be distinct")
}

func ErrAccountSize(name string, size, space int) lib.ErrorI {
	return lib.NewError(lib.CodeAccountSize, lib.StateMachineModule, fmt.Sprintf("%s account is %d bytes, expected %d", name, size, space))
}

func ErrWrongContext(instruction string, c Context) lib.ErrorI {
	return lib.NewError(lib.CodeWrongContext, lib.StateMachineModule, fmt.Sprintf("%s cannot run in the %s context", instruction, c))
}

func ErrWrongPool(receiptPool, pool solana.PublicKey) lib.ErrorI {
	return lib.NewError(lib.CodeWrongPool, lib.StateMachineModule, fmt.Sprintf("receipt belongs to pool %s, not %s", receiptPool, pool))
}

func ErrInvalidAccounts(msg string) lib.ErrorI {
	return lib.NewError(lib.CodeInvalidAccounts, lib.StateMachineModule, fmt.Sprintf("invalid instruction accounts: %s", msg))
}
