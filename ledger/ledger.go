package ledger

import (
	"github.com/canopy-network/rollup-pool/lib"
	"github.com/gagliardetto/solana-go"
)

/*
	The ledger is the token bookkeeping of the base context: mints with a supply and an authority, and
	token accounts holding an amount of one mint on behalf of an owner.

	It is deliberately minimal, only what the pool needs: moving tokens between accounts, minting lp tokens
	and burning them. Every failure is reported as a single LedgerError kind with a descriptive message.
*/

const (
	MintSpace         = 8 + 32 + 8 + 1 + 1 // discriminator + authority + supply + decimals + initialized
	TokenAccountSpace = 8 + 32 + 32 + 8    // discriminator + mint + owner + amount
)

var (
	mintPrefix         = []byte{10} // store key prefix for mints
	tokenAccountPrefix = []byte{11} // store key prefix for token accounts

	mintDiscriminator         = lib.AccountDiscriminator("Mint")
	tokenAccountDiscriminator = lib.AccountDiscriminator("TokenAccount")
)

// LedgerI is the token capability the pool uses to move, mint and burn tokens
type LedgerI interface {
	// CreateMint() creates a mint with zero supply
	CreateMint(mint, authority solana.PublicKey, decimals uint8) lib.ErrorI
	// CreateTokenAccount() creates an empty token account of a mint for an owner
	CreateTokenAccount(account, mint, owner solana.PublicKey) lib.ErrorI
	// Transfer() moves tokens between two accounts of the same mint, signed by the owner of 'from'
	Transfer(from, to, authority solana.PublicKey, amount uint64) lib.ErrorI
	// MintTo() creates tokens in an account, signed by the mint authority
	MintTo(mint, to, authority solana.PublicKey, amount uint64) lib.ErrorI
	// Burn() destroys tokens from an account, signed by the owner of 'from'
	Burn(mint, from, authority solana.PublicKey, amount uint64) lib.ErrorI
	// Balance() returns the amount held by a token account
	Balance(account solana.PublicKey) (uint64, lib.ErrorI)
	// Supply() returns the supply of a mint
	Supply(mint solana.PublicKey) (uint64, lib.ErrorI)
	// GetMint() returns a mint
	GetMint(mint solana.PublicKey) (*Mint, lib.ErrorI)
	// GetTokenAccount() returns a token account
	GetTokenAccount(account solana.PublicKey) (*TokenAccount, lib.ErrorI)
}

var _ LedgerI = &Ledger{} // enforce the ledger interface

// Mint is a token type
type Mint struct {
	Authority   solana.PublicKey `json:"authority"`
	Supply      uint64           `json:"supply"`
	Decimals    uint8            `json:"decimals"`
	Initialized bool             `json:"initialized"`
}

// TokenAccount holds an amount of a mint on behalf of an owner
type TokenAccount struct {
	Mint   solana.PublicKey `json:"mint"`
	Owner  solana.PublicKey `json:"owner"`
	Amount uint64           `json:"amount"`
}

// Ledger is the store backed implementation of the token capability
type Ledger struct {
	store lib.RWStoreI
}

// New() creates a ledger on top of a store; pass the instruction's write set so token movements roll back with it
func New(store lib.RWStoreI) *Ledger { return &Ledger{store: store} }

// CreateMint() creates a mint with zero supply
func (l *Ledger) CreateMint(mint, authority solana.PublicKey, decimals uint8) lib.ErrorI {
	// ensure the mint doesn't exist yet
	bz, err := l.store.Get(KeyForMint(mint))
	if err != nil {
		return err
	}
	if bz != nil {
		return ErrAccountInUse(mint)
	}
	return l.setMint(mint, &Mint{Authority: authority, Decimals: decimals, Initialized: true})
}

// CreateTokenAccount() creates an empty token account of a mint for an owner
func (l *Ledger) CreateTokenAccount(account, mint, owner solana.PublicKey) lib.ErrorI {
	// the mint must exist
	if _, err := l.GetMint(mint); err != nil {
		return err
	}
	// ensure the account doesn't exist yet
	bz, err := l.store.Get(KeyForTokenAccount(account))
	if err != nil {
		return err
	}
	if bz != nil {
		return ErrAccountInUse(account)
	}
	return l.setTokenAccount(account, &TokenAccount{Mint: mint, Owner: owner})
}

// Transfer() moves tokens between two accounts of the same mint, signed by the owner of 'from'
func (l *Ledger) Transfer(from, to, authority solana.PublicKey, amount uint64) lib.ErrorI {
	// load both sides
	src, err := l.GetTokenAccount(from)
	if err != nil {
		return err
	}
	dst, err := l.GetTokenAccount(to)
	if err != nil {
		return err
	}
	// validate the transfer
	if !src.Mint.Equals(dst.Mint) {
		return ErrMintMismatch()
	}
	if !src.Owner.Equals(authority) {
		return ErrOwnerMismatch(authority)
	}
	if src.Amount < amount {
		return ErrInsufficientFunds(src.Amount, amount)
	}
	// a self transfer is a no-op
	if from.Equals(to) {
		return nil
	}
	if dst.Amount+amount < dst.Amount {
		return ErrOverflow()
	}
	// move the tokens
	src.Amount -= amount
	dst.Amount += amount
	if err = l.setTokenAccount(from, src); err != nil {
		return err
	}
	return l.setTokenAccount(to, dst)
}

// MintTo() creates tokens in an account, signed by the mint authority
func (l *Ledger) MintTo(mint, to, authority solana.PublicKey, amount uint64) lib.ErrorI {
	m, err := l.GetMint(mint)
	if err != nil {
		return err
	}
	dst, err := l.GetTokenAccount(to)
	if err != nil {
		return err
	}
	// validate the mint operation
	if !m.Authority.Equals(authority) {
		return ErrInvalidMintAuthority(authority)
	}
	if !dst.Mint.Equals(mint) {
		return ErrMintMismatch()
	}
	if m.Supply+amount < m.Supply || dst.Amount+amount < dst.Amount {
		return ErrOverflow()
	}
	// create the tokens
	m.Supply += amount
	dst.Amount += amount
	if err = l.setMint(mint, m); err != nil {
		return err
	}
	return l.setTokenAccount(to, dst)
}

// Burn() destroys tokens from an account, signed by the owner of 'from'
func (l *Ledger) Burn(mint, from, authority solana.PublicKey, amount uint64) lib.ErrorI {
	m, err := l.GetMint(mint)
	if err != nil {
		return err
	}
	src, err := l.GetTokenAccount(from)
	if err != nil {
		return err
	}
	// validate the burn
	if !src.Mint.Equals(mint) {
		return ErrMintMismatch()
	}
	if !src.Owner.Equals(authority) {
		return ErrOwnerMismatch(authority)
	}
	if src.Amount < amount {
		return ErrInsufficientFunds(src.Amount, amount)
	}
	if m.Supply < amount {
		return ErrOverflow()
	}
	// destroy the tokens
	m.Supply -= amount
	src.Amount -= amount
	if err = l.setMint(mint, m); err != nil {
		return err
	}
	return l.setTokenAccount(from, src)
}

// Balance() returns the amount held by a token account
func (l *Ledger) Balance(account solana.PublicKey) (uint64, lib.ErrorI) {
	a, err := l.GetTokenAccount(account)
	if err != nil {
		return 0, err
	}
	return a.Amount, nil
}

// Supply() returns the supply of a mint
func (l *Ledger) Supply(mint solana.PublicKey) (uint64, lib.ErrorI) {
	m, err := l.GetMint(mint)
	if err != nil {
		return 0, err
	}
	return m.Supply, nil
}

// GetMint() returns a mint
func (l *Ledger) GetMint(mint solana.PublicKey) (*Mint, lib.ErrorI) {
	bz, err := l.store.Get(KeyForMint(mint))
	if err != nil {
		return nil, err
	}
	if bz == nil {
		return nil, ErrAccountNotFound(mint)
	}
	m := new(Mint)
	if err = lib.UnmarshalAccount(mintDiscriminator, bz, m); err != nil {
		return nil, err
	}
	return m, nil
}

// GetTokenAccount() returns a token account
func (l *Ledger) GetTokenAccount(account solana.PublicKey) (*TokenAccount, lib.ErrorI) {
	bz, err := l.store.Get(KeyForTokenAccount(account))
	if err != nil {
		return nil, err
	}
	if bz == nil {
		return nil, ErrAccountNotFound(account)
	}
	a := new(TokenAccount)
	if err = lib.UnmarshalAccount(tokenAccountDiscriminator, bz, a); err != nil {
		return nil, err
	}
	return a, nil
}

// setMint() writes a mint to the store
func (l *Ledger) setMint(mint solana.PublicKey, m *Mint) lib.ErrorI {
	bz, err := lib.MarshalAccount(mintDiscriminator, MintSpace, m)
	if err != nil {
		return err
	}
	return l.store.Set(KeyForMint(mint), bz)
}

// setTokenAccount() writes a token account to the store
func (l *Ledger) setTokenAccount(account solana.PublicKey, a *TokenAccount) lib.ErrorI {
	bz, err := lib.MarshalAccount(tokenAccountDiscriminator, TokenAccountSpace, a)
	if err != nil {
		return err
	}
	return l.store.Set(KeyForTokenAccount(account), bz)
}

func KeyForMint(mint solana.PublicKey) []byte {
	return lib.JoinLenPrefix(mintPrefix, mint.Bytes())
}

func KeyForTokenAccount(account solana.PublicKey) []byte {
	return lib.JoinLenPrefix(tokenAccountPrefix, account.Bytes())
}
