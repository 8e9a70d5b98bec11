package lib

import (
	"errors"

	"github.com/gagliardetto/solana-go"
)

/* This file implements deterministic, registry free addressing of every pool entity */

const (
	// MaxSeedLength is the largest single seed component a program derived address accepts
	MaxSeedLength = 32
	// MaxSeeds is the largest number of seed components a program derived address accepts
	MaxSeeds = 16
)

// seed prefixes of each addressable entity
var (
	PoolSeed              = []byte("pool")
	LiquidityProviderSeed = []byte("liquidity_provider_account_info")
	DepositReceiptSeed    = []byte("deposit_recept")
	WithdrawReceiptSeed   = []byte("withdraw_recept")
	TransferAuthoritySeed = []byte("transfer_authority")
	LpTokenMintSeed       = []byte("lp_token_mint")
	TokenAccountASeed     = []byte("token_account_a")
	TokenAccountBSeed     = []byte("token_account_b")
)

// DeriveAddress() returns the program derived address and bump for a set of seeds
// seed components longer than MaxSeedLength are split into MaxSeedLength chunks; the derivation hashes
// the concatenation of all seeds so a split seed resolves to the same preimage
func DeriveAddress(programID solana.PublicKey, seeds ...[]byte) (solana.PublicKey, uint8, ErrorI) {
	chunked := make([][]byte, 0, len(seeds))
	for _, seed := range seeds {
		for len(seed) > MaxSeedLength {
			chunked = append(chunked, seed[:MaxSeedLength])
			seed = seed[MaxSeedLength:]
		}
		chunked = append(chunked, seed)
	}
	// the bump is appended as one more seed by the derivation
	if len(chunked) >= MaxSeeds {
		return solana.PublicKey{}, 0, ErrInvalidSeeds(errors.New("too many seed components"))
	}
	address, bump, err := solana.FindProgramAddress(chunked, programID)
	if err != nil {
		return solana.PublicKey{}, 0, ErrInvalidSeeds(err)
	}
	return address, bump, nil
}

// PoolAddress() derives the address of the pool with a name
func PoolAddress(programID solana.PublicKey, name string) (solana.PublicKey, uint8, ErrorI) {
	return DeriveAddress(programID, PoolSeed, []byte(name))
}

// LiquidityProviderAddress() derives the address of the position record of an owner
func LiquidityProviderAddress(programID, owner solana.PublicKey) (solana.PublicKey, uint8, ErrorI) {
	return DeriveAddress(programID, LiquidityProviderSeed, owner.Bytes())
}

// DepositReceiptAddress() derives the address of the in-flight deposit receipt of an owner
func DepositReceiptAddress(programID, owner solana.PublicKey) (solana.PublicKey, uint8, ErrorI) {
	return DeriveAddress(programID, DepositReceiptSeed, owner.Bytes())
}

// WithdrawReceiptAddress() derives the address of the in-flight withdraw receipt of an owner
func WithdrawReceiptAddress(programID, owner solana.PublicKey) (solana.PublicKey, uint8, ErrorI) {
	return DeriveAddress(programID, WithdrawReceiptSeed, owner.Bytes())
}

// TransferAuthorityAddress() derives the program authority over the vaults and the lp mints
func TransferAuthorityAddress(programID solana.PublicKey) (solana.PublicKey, uint8, ErrorI) {
	return DeriveAddress(programID, TransferAuthoritySeed)
}

// LpMintAddress() derives the lp token mint of a pool
func LpMintAddress(programID, pool solana.PublicKey) (solana.PublicKey, uint8, ErrorI) {
	return DeriveAddress(programID, LpTokenMintSeed, pool.Bytes())
}

// VaultAAddress() derives the token a vault of a pool
func VaultAAddress(programID, pool, mintA solana.PublicKey) (solana.PublicKey, uint8, ErrorI) {
	return DeriveAddress(programID, TokenAccountASeed, pool.Bytes(), mintA.Bytes())
}

// VaultBAddress() derives the token b vault of a pool
func VaultBAddress(programID, pool, mintB solana.PublicKey) (solana.PublicKey, uint8, ErrorI) {
	return DeriveAddress(programID, TokenAccountBSeed, pool.Bytes(), mintB.Bytes())
}

// TokenAccountAddress() derives the associated token account of an owner for a mint
func TokenAccountAddress(owner, mint solana.PublicKey) (solana.PublicKey, ErrorI) {
	address, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, ErrInvalidSeeds(err)
	}
	return address, nil
}

// PublicKeyFromString() parses a base58 key
func PublicKeyFromString(s string) (solana.PublicKey, ErrorI) {
	key, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return solana.PublicKey{}, ErrInvalidKeyString(err)
	}
	return key, nil
}

// accountPrefix is the store key prefix every program account lives under, in both contexts
var accountPrefix = []byte{1}

// AccountPrefix() returns the prefix of every program account key
func AccountPrefix() []byte { return JoinLenPrefix(accountPrefix) }

// KeyForAccount() returns the store key of a program account; the same key is used by the base and rollup stores
// so a delegated account is copied byte for byte between them
func KeyForAccount(address solana.PublicKey) []byte {
	return JoinLenPrefix(accountPrefix, address.Bytes())
}
