package dispatch

import (
	"context"

	"github.com/canopy-network/rollup-pool/fsm"
	"github.com/canopy-network/rollup-pool/lib"
)

// InvokerI delivers a single intent to the base context
type InvokerI interface {
	Dispatch(ctx context.Context, intent *Intent) lib.ErrorI
}

var _ InvokerI = &LocalInvoker{}

// LocalInvoker delivers intents to an in-process base context state machine
type LocalInvoker struct {
	sm *fsm.StateMachine
}

// NewLocalInvoker() creates an invoker bound to the base context state machine
func NewLocalInvoker(sm *fsm.StateMachine) *LocalInvoker { return &LocalInvoker{sm: sm} }

// Dispatch() executes the intent as a base context instruction
func (l *LocalInvoker) Dispatch(ctx context.Context, intent *Intent) lib.ErrorI {
	if err := ctx.Err(); err != nil {
		return ErrDeliveryFailed(intent.Sequence, err)
	}
	return l.sm.ExecuteInstruction(intent)
}
