package dispatch

import (
	"fmt"

	"github.com/canopy-network/rollup-pool/lib"
	"github.com/gagliardetto/solana-go"
)

// This file defines error objects for the Dispatch module

func ErrInvalidBundleOrder(receipt solana.PublicKey) lib.ErrorI {
	return lib.NewError(lib.CodeInvalidBundleOrder, lib.DispatchModule, fmt.Sprintf("bundle closes receipt %s before consuming it", receipt))
}

func ErrEmptyIntent() lib.ErrorI {
	return lib.NewError(lib.CodeEmptyIntent, lib.DispatchModule, "intent has no payload or accounts")
}

func ErrDeliveryFailed(sequence uint64, err error) lib.ErrorI {
	return lib.NewError(lib.CodeDeliveryFailed, lib.DispatchModule, fmt.Sprintf("delivery of intent %d failed with err: %s", sequence, err.Error()))
}

func ErrIntentNotFound(sequence uint64) lib.ErrorI {
	return lib.NewError(lib.CodeIntentNotFound, lib.DispatchModule, fmt.Sprintf("intent %d not found", sequence))
}
