package dispatch

import (
	"github.com/canopy-network/rollup-pool/fsm"
	"github.com/canopy-network/rollup-pool/lib"
	"github.com/gagliardetto/solana-go"
)

/* This file implements follow-up intents: base context instructions scheduled from the delegated context */

// DefaultComputeUnits is the compute budget attached to a follow-up when none is configured
const DefaultComputeUnits = 200_000

var _ solana.Instruction = &Intent{} // an intent is delivered as a plain instruction

// AccountRef is the persisted form of an instruction account reference
type AccountRef struct {
	PublicKey  solana.PublicKey `json:"publicKey"`
	IsWritable bool             `json:"isWritable"`
}

// Intent is one follow-up instruction waiting in the outbox
type Intent struct {
	Sequence     uint64           `json:"sequence"`     // position in the outbox, assigned on enqueue
	Program      solana.PublicKey `json:"program"`      // the destination program
	Payload      []byte           `json:"payload"`      // discriminator + borsh arguments
	AccountRefs  []AccountRef     `json:"accounts"`     // the accounts the instruction touches
	ComputeUnits uint32           `json:"computeUnits"` // the compute budget of the delivery
	EscrowIndex  uint8            `json:"escrowIndex"`  // the escrow paying for the delivery
	Attempts     uint32           `json:"attempts"`     // failed delivery attempts so far
}

// NewIntent() converts an instruction into an intent with a compute budget
func NewIntent(ix solana.Instruction, computeUnits uint32) (*Intent, lib.ErrorI) {
	payload, err := ix.Data()
	if err != nil {
		return nil, lib.ErrMarshal(err)
	}
	if computeUnits == 0 {
		computeUnits = DefaultComputeUnits
	}
	intent := &Intent{Program: ix.ProgramID(), Payload: payload, ComputeUnits: computeUnits}
	for _, meta := range ix.Accounts() {
		intent.AccountRefs = append(intent.AccountRefs, AccountRef{PublicKey: meta.PublicKey, IsWritable: meta.IsWritable})
	}
	if len(intent.Payload) < lib.DiscriminatorLen || len(intent.AccountRefs) == 0 {
		return nil, ErrEmptyIntent()
	}
	return intent, nil
}

// NewMintLpTokensIntent() schedules the lp token mint of an applied deposit
func NewMintLpTokensIntent(programID, provider, pool solana.PublicKey, computeUnits uint32) (*Intent, lib.ErrorI) {
	ix, err := fsm.NewMintLpTokensInstruction(programID, provider, pool)
	if err != nil {
		return nil, err
	}
	return NewIntent(ix, computeUnits)
}

// NewPayoutWithdrawIntent() schedules the payout of an applied withdrawal
func NewPayoutWithdrawIntent(programID, provider, pool, tokenA, tokenB solana.PublicKey, computeUnits uint32) (*Intent, lib.ErrorI) {
	ix, err := fsm.NewPayoutWithdrawInstruction(programID, provider, pool, tokenA, tokenB)
	if err != nil {
		return nil, err
	}
	return NewIntent(ix, computeUnits)
}

// NewCloseDepositReceiptIntent() schedules the close of a settled deposit receipt
func NewCloseDepositReceiptIntent(programID, provider solana.PublicKey, computeUnits uint32) (*Intent, lib.ErrorI) {
	ix, err := fsm.NewCloseDepositReceiptInstruction(programID, provider)
	if err != nil {
		return nil, err
	}
	return NewIntent(ix, computeUnits)
}

// NewCloseWithdrawReceiptIntent() schedules the close of a settled withdraw receipt
func NewCloseWithdrawReceiptIntent(programID, provider solana.PublicKey, computeUnits uint32) (*Intent, lib.ErrorI) {
	ix, err := fsm.NewCloseWithdrawReceiptInstruction(programID, provider)
	if err != nil {
		return nil, err
	}
	return NewIntent(ix, computeUnits)
}

// ProgramID() returns the destination program
func (i *Intent) ProgramID() solana.PublicKey { return i.Program }

// Accounts() returns the account references as instruction metas; follow-ups are never signed
func (i *Intent) Accounts() (metas []*solana.AccountMeta) {
	for _, ref := range i.AccountRefs {
		metas = append(metas, solana.NewAccountMeta(ref.PublicKey, ref.IsWritable, false))
	}
	return
}

// Data() returns the instruction payload
func (i *Intent) Data() ([]byte, error) { return i.Payload, nil }

// Name() returns the name of the follow-up the intent carries, empty if unknown
func (i *Intent) Name() string {
	if len(i.Payload) < lib.DiscriminatorLen {
		return ""
	}
	var d lib.Discriminator
	copy(d[:], i.Payload)
	return fsm.InstructionName(d)
}

// receipt() returns the receipt the intent consumes or closes; it is always the last account
func (i *Intent) receipt() solana.PublicKey {
	if len(i.AccountRefs) == 0 {
		return solana.PublicKey{}
	}
	return i.AccountRefs[len(i.AccountRefs)-1].PublicKey
}

// Bundle is an ordered list of intents scheduled by one commit
type Bundle struct {
	Intents []*Intent `json:"intents"`
}

// NewBundle() creates a bundle from intents in delivery order
func NewBundle(intents ...*Intent) *Bundle { return &Bundle{Intents: intents} }

// NewDepositBundle() builds the follow-ups of an applied deposit: mint the lp tokens, then close the receipt
func NewDepositBundle(programID, provider, pool solana.PublicKey, computeUnits uint32) (*Bundle, lib.ErrorI) {
	mint, err := NewMintLpTokensIntent(programID, provider, pool, computeUnits)
	if err != nil {
		return nil, err
	}
	closeReceipt, err := NewCloseDepositReceiptIntent(programID, provider, computeUnits)
	if err != nil {
		return nil, err
	}
	return NewBundle(mint, closeReceipt), nil
}

// NewWithdrawBundle() builds the follow-ups of an applied withdrawal: pay out the tokens, then close the receipt
func NewWithdrawBundle(programID, provider, pool, tokenA, tokenB solana.PublicKey, computeUnits uint32) (*Bundle, lib.ErrorI) {
	payout, err := NewPayoutWithdrawIntent(programID, provider, pool, tokenA, tokenB, computeUnits)
	if err != nil {
		return nil, err
	}
	closeReceipt, err := NewCloseWithdrawReceiptIntent(programID, provider, computeUnits)
	if err != nil {
		return nil, err
	}
	return NewBundle(payout, closeReceipt), nil
}

// Validate() rejects empty intents and a bundle that closes a receipt before the intent consuming it
func (b *Bundle) Validate() lib.ErrorI {
	for i, intent := range b.Intents {
		if intent == nil || len(intent.Payload) < lib.DiscriminatorLen || len(intent.AccountRefs) == 0 {
			return ErrEmptyIntent()
		}
		if !isClose(intent.Name()) {
			continue
		}
		// no consuming intent for the same receipt may follow the close
		for _, later := range b.Intents[i+1:] {
			if later != nil && isConsume(later.Name()) && later.receipt().Equals(intent.receipt()) {
				return ErrInvalidBundleOrder(intent.receipt())
			}
		}
	}
	return nil
}

// isClose() returns true for follow-ups that delete a receipt
func isClose(name string) bool {
	return name == fsm.CloseDepositReceiptName || name == fsm.CloseWithdrawReceiptName
}

// isConsume() returns true for follow-ups that deliver the outputs of a receipt
func isConsume(name string) bool {
	return name == fsm.MintLpTokensName || name == fsm.PayoutWithdrawName
}
