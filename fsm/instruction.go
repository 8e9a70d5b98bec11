package fsm

import (
	"bytes"
	"fmt"

	"github.com/canopy-network/rollup-pool/lib"
	"github.com/gagliardetto/solana-go"
)

/* This file implements the codec of the base context follow-up instructions */

// names of the follow-up instructions; the discriminator of each is sha256("global:<name>")[:8]
const (
	MintLpTokensName         = "mint_lp_tokens"
	PayoutWithdrawName       = "payout_withdraw"
	CloseDepositReceiptName  = "close_deposit_receipt"
	CloseWithdrawReceiptName = "close_withdraw_receipt"
)

var (
	MintLpTokensDiscriminator         = lib.InstructionDiscriminator(MintLpTokensName)
	PayoutWithdrawDiscriminator       = lib.InstructionDiscriminator(PayoutWithdrawName)
	CloseDepositReceiptDiscriminator  = lib.InstructionDiscriminator(CloseDepositReceiptName)
	CloseWithdrawReceiptDiscriminator = lib.InstructionDiscriminator(CloseWithdrawReceiptName)
)

var _ solana.Instruction = &Instruction{} // enforce the instruction interface

// Instruction is a follow-up addressed to the pool program: a discriminator and the accounts it touches
// the provider is always the first account; follow-ups carry no arguments since the receipt holds the numbers
type Instruction struct {
	Program                 solana.PublicKey
	Discriminator           lib.Discriminator
	solana.AccountMetaSlice `bin:"-" borsh_skip:"true"`
}

// ProgramID() returns the program the instruction is addressed to
func (i *Instruction) ProgramID() solana.PublicKey { return i.Program }

// Accounts() returns the account references of the instruction
func (i *Instruction) Accounts() []*solana.AccountMeta { return i.AccountMetaSlice }

// Data() returns the instruction payload
func (i *Instruction) Data() ([]byte, error) {
	buf := new(bytes.Buffer)
	if _, err := buf.Write(i.Discriminator[:]); err != nil {
		return nil, fmt.Errorf("failed to write discriminator: %w", err)
	}
	return buf.Bytes(), nil
}

// Name() returns the name of the follow-up, or an empty string if the discriminator is unknown
func (i *Instruction) Name() string { return InstructionName(i.Discriminator) }

// InstructionName() returns the name of a follow-up discriminator, or an empty string if it's unknown
func InstructionName(d lib.Discriminator) string {
	switch d {
	case MintLpTokensDiscriminator:
		return MintLpTokensName
	case PayoutWithdrawDiscriminator:
		return PayoutWithdrawName
	case CloseDepositReceiptDiscriminator:
		return CloseDepositReceiptName
	case CloseWithdrawReceiptDiscriminator:
		return CloseWithdrawReceiptName
	}
	return ""
}

// NewMintLpTokensInstruction() builds the follow-up that mints the lp tokens of an applied deposit
func NewMintLpTokensInstruction(programID, provider, pool solana.PublicKey) (*Instruction, lib.ErrorI) {
	authority, _, err := lib.TransferAuthorityAddress(programID)
	if err != nil {
		return nil, err
	}
	lpMint, _, err := lib.LpMintAddress(programID, pool)
	if err != nil {
		return nil, err
	}
	lpAccount, err := lib.TokenAccountAddress(provider, lpMint)
	if err != nil {
		return nil, err
	}
	receipt, _, err := lib.DepositReceiptAddress(programID, provider)
	if err != nil {
		return nil, err
	}
	return &Instruction{
		Program:       programID,
		Discriminator: MintLpTokensDiscriminator,
		AccountMetaSlice: solana.AccountMetaSlice{
			solana.NewAccountMeta(provider, true, false),
			solana.NewAccountMeta(authority, false, false),
			solana.NewAccountMeta(lpMint, true, false),
			solana.NewAccountMeta(lpAccount, true, false),
			solana.NewAccountMeta(solana.TokenProgramID, false, false),
			solana.NewAccountMeta(receipt, true, false),
		},
	}, nil
}

// NewPayoutWithdrawInstruction() builds the follow-up that pays out the amounts of an applied withdrawal
func NewPayoutWithdrawInstruction(programID, provider, pool, tokenA, tokenB solana.PublicKey) (*Instruction, lib.ErrorI) {
	authority, _, err := lib.TransferAuthorityAddress(programID)
	if err != nil {
		return nil, err
	}
	vaultA, _, err := lib.VaultAAddress(programID, pool, tokenA)
	if err != nil {
		return nil, err
	}
	vaultB, _, err := lib.VaultBAddress(programID, pool, tokenB)
	if err != nil {
		return nil, err
	}
	accountA, err := lib.TokenAccountAddress(provider, tokenA)
	if err != nil {
		return nil, err
	}
	accountB, err := lib.TokenAccountAddress(provider, tokenB)
	if err != nil {
		return nil, err
	}
	receipt, _, err := lib.WithdrawReceiptAddress(programID, provider)
	if err != nil {
		return nil, err
	}
	return &Instruction{
		Program:       programID,
		Discriminator: PayoutWithdrawDiscriminator,
		AccountMetaSlice: solana.AccountMetaSlice{
			solana.NewAccountMeta(provider, true, false),
			solana.NewAccountMeta(authority, false, false),
			solana.NewAccountMeta(pool, false, false),
			solana.NewAccountMeta(vaultA, true, false),
			solana.NewAccountMeta(vaultB, true, false),
			solana.NewAccountMeta(accountA, true, false),
			solana.NewAccountMeta(accountB, true, false),
			solana.NewAccountMeta(solana.TokenProgramID, false, false),
			solana.NewAccountMeta(receipt, true, false),
		},
	}, nil
}

// NewCloseDepositReceiptInstruction() builds the follow-up that closes a settled deposit receipt
func NewCloseDepositReceiptInstruction(programID, provider solana.PublicKey) (*Instruction, lib.ErrorI) {
	receipt, _, err := lib.DepositReceiptAddress(programID, provider)
	if err != nil {
		return nil, err
	}
	return newCloseInstruction(programID, CloseDepositReceiptDiscriminator, provider, receipt), nil
}

// NewCloseWithdrawReceiptInstruction() builds the follow-up that closes a settled withdraw receipt
func NewCloseWithdrawReceiptInstruction(programID, provider solana.PublicKey) (*Instruction, lib.ErrorI) {
	receipt, _, err := lib.WithdrawReceiptAddress(programID, provider)
	if err != nil {
		return nil, err
	}
	return newCloseInstruction(programID, CloseWithdrawReceiptDiscriminator, provider, receipt), nil
}

func newCloseInstruction(programID solana.PublicKey, d lib.Discriminator, provider, receipt solana.PublicKey) *Instruction {
	return &Instruction{
		Program:       programID,
		Discriminator: d,
		AccountMetaSlice: solana.AccountMetaSlice{
			solana.NewAccountMeta(provider, true, false),
			solana.NewAccountMeta(receipt, true, false),
		},
	}
}

// ExecuteInstruction() decodes a follow-up addressed to this program and runs it
func (s *StateMachine) ExecuteInstruction(ix solana.Instruction) lib.ErrorI {
	if !ix.ProgramID().Equals(s.programID) {
		return ErrInvalidAccounts(fmt.Sprintf("program %s is not %s", ix.ProgramID(), s.programID))
	}
	data, e := ix.Data()
	if e != nil {
		return lib.ErrMarshal(e)
	}
	if len(data) < lib.DiscriminatorLen {
		return ErrInvalidDiscriminator()
	}
	accounts := ix.Accounts()
	if len(accounts) == 0 || accounts[0] == nil {
		return ErrInvalidAccounts("missing the provider account")
	}
	// the provider is always the first account
	provider := accounts[0].PublicKey
	var d lib.Discriminator
	copy(d[:], data[:lib.DiscriminatorLen])
	switch d {
	case MintLpTokensDiscriminator:
		return s.mintLpTokens(provider, accounts)
	case PayoutWithdrawDiscriminator:
		return s.payoutWithdraw(provider, accounts)
	case CloseDepositReceiptDiscriminator:
		return s.closeDepositReceipt(provider, accounts)
	case CloseWithdrawReceiptDiscriminator:
		return s.closeWithdrawReceipt(provider, accounts)
	default:
		return ErrUnknownInstruction()
	}
}

// verifyAccounts() ensures the accounts passed to an instruction are exactly the ones it derives
func verifyAccounts(expected, got []*solana.AccountMeta) lib.ErrorI {
	if len(expected) != len(got) {
		return ErrInvalidAccounts(fmt.Sprintf("expected %d accounts, got %d", len(expected), len(got)))
	}
	for i := range expected {
		if got[i] == nil || !got[i].PublicKey.Equals(expected[i].PublicKey) {
			return ErrInvalidAccounts(fmt.Sprintf("account %d is not %s", i, expected[i].PublicKey))
		}
		if got[i].IsWritable != expected[i].IsWritable {
			return ErrInvalidAccounts(fmt.Sprintf("account %d has the wrong access", i))
		}
	}
	return nil
}
