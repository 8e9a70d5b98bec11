package fsm

import (
	"fmt"

	"github.com/canopy-network/rollup-pool/lib"
	"github.com/gagliardetto/solana-go"
)

/* This file defines the fixed size account records of the pool program */

const (
	AccountVersion = 1  // the layout version every record is written with
	MaxPoolNameLen = 50 // the longest pool name
	MaxPools       = 10 // the number of position slots of a liquidity provider
	MaxFeeBps      = 10_000
	LpMintDecimals = 6

	// account spaces, discriminator included
	PoolSpace              = 346
	LiquidityProviderSpace = 866
	DepositReceiptSpace    = 99
	WithdrawReceiptSpace   = 99
)

var (
	poolDiscriminator              = lib.AccountDiscriminator("Pool")
	liquidityProviderDiscriminator = lib.AccountDiscriminator("LiquidityProvider")
	depositReceiptDiscriminator    = lib.AccountDiscriminator("DepositReceipt")
	withdrawReceiptDiscriminator   = lib.AccountDiscriminator("WithdrawReceipt")
)

// Pool is the shared state of a two token pool
// invariant: reserve_a == 0 <=> reserve_b == 0 <=> total_lp_supply == 0
type Pool struct {
	Version         uint8            `json:"version"`
	Authority       solana.PublicKey `json:"authority"`
	PoolID          uint64           `json:"poolID"`
	Name            string           `json:"name"`
	LpMint          solana.PublicKey `json:"lpMint"`
	TokenA          solana.PublicKey `json:"tokenA"`
	TokenB          solana.PublicKey `json:"tokenB"`
	TokenAVault     solana.PublicKey `json:"tokenAVault"`
	TokenBVault     solana.PublicKey `json:"tokenBVault"`
	ReserveA        uint64           `json:"reserveA"`
	ReserveB        uint64           `json:"reserveB"`
	TotalLpSupply   uint64           `json:"totalLpSupply"`
	Fees            FeeConfig        `json:"fees"`
	Status          PoolStatus       `json:"status"`
	CreatedAt       int64            `json:"createdAt"`
	UpdatedAt       int64            `json:"updatedAt"`
	Bump            uint8            `json:"bump"`
	LpMintBump      uint8            `json:"lpMintBump"`
	TokenAVaultBump uint8            `json:"tokenAVaultBump"`
	TokenBVaultBump uint8            `json:"tokenBVaultBump"`
}

// FeeConfig is recorded with the pool; fees are not charged
type FeeConfig struct {
	TradeFeeBps    uint16           `json:"tradeFeeBps"`
	ProtocolFeeBps uint16           `json:"protocolFeeBps"`
	FeeRecipient   solana.PublicKey `json:"feeRecipient"`
}

// PoolStatus gates liquidity operations; IsMigrating is recorded, never enforced
type PoolStatus struct {
	IsActive    bool `json:"isActive"`
	IsPaused    bool `json:"isPaused"`
	IsMigrating bool `json:"isMigrating"`
}

// LiquidityPoolInfo is one position slot; a slot with a zero pool key is empty
type LiquidityPoolInfo struct {
	Pool            solana.PublicKey `json:"pool"`
	TokenMint       solana.PublicKey `json:"tokenMint"`
	LiquidityAmount uint64           `json:"liquidityAmount"`
	LpTokens        uint64           `json:"lpTokens"`
}

// IsEmpty() returns true if the slot isn't bound to a pool
func (l *LiquidityPoolInfo) IsEmpty() bool { return l.Pool.IsZero() }

// LiquidityProvider is a provider's positions across up to MaxPools pools
// invariant: the sum of the slot lp tokens equals TotalLpTokens
type LiquidityProvider struct {
	Version                   uint8                       `json:"version"`
	Provider                  solana.PublicKey            `json:"provider"`
	TotalLiquidityProvided    uint64                      `json:"totalLiquidityProvided"`
	TotalLpTokens             uint64                      `json:"totalLpTokens"`
	LiquidityPoolsInfo        [MaxPools]LiquidityPoolInfo `json:"liquidityPoolsInfo"`
	LatestLiquidityProvidedOn int64                       `json:"latestLiquidityProvidedOn"`
	Bump                      uint8                       `json:"bump"`
}

// ReceiptStatus tracks a receipt through the two phase flow
type ReceiptStatus uint8

const (
	ReceiptPending ReceiptStatus = iota // written in the base context, not yet applied
	ReceiptApplied                      // applied to the delegated pool and position
	ReceiptSettled                      // the consuming follow-up ran in the base context
)

// String() returns the name of the status
func (r ReceiptStatus) String() string {
	switch r {
	case ReceiptPending:
		return "pending"
	case ReceiptApplied:
		return "applied"
	case ReceiptSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// MarshalText() renders the status by name in JSON
func (r ReceiptStatus) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// UnmarshalText() parses the status from its name
func (r *ReceiptStatus) UnmarshalText(text []byte) error {
	for _, status := range []ReceiptStatus{ReceiptPending, ReceiptApplied, ReceiptSettled} {
		if status.String() == string(text) {
			*r = status
			return nil
		}
	}
	return fmt.Errorf("unknown receipt status %q", text)
}

// DepositReceipt freezes the numbers of a deposit between its phases
type DepositReceipt struct {
	Version        uint8            `json:"version"`
	Pool           solana.PublicKey `json:"pool"`
	Provider       solana.PublicKey `json:"provider"`
	AmountA        uint64           `json:"amountA"`
	AmountB        uint64           `json:"amountB"`
	LpTokensMinted uint64           `json:"lpTokensMinted"`
	Status         ReceiptStatus    `json:"status"`
	Bump           uint8            `json:"bump"`
}

// WithdrawReceipt freezes the numbers of a withdrawal between its phases
type WithdrawReceipt struct {
	Version          uint8            `json:"version"`
	Pool             solana.PublicKey `json:"pool"`
	Provider         solana.PublicKey `json:"provider"`
	LpTokensToBurn   uint64           `json:"lpTokensToBurn"`
	AmountAWithdrawn uint64           `json:"amountAWithdrawn"`
	AmountBWithdrawn uint64           `json:"amountBWithdrawn"`
	Status           ReceiptStatus    `json:"status"`
	Bump             uint8            `json:"bump"`
}

// AddPoolParams are the arguments of pool initialization; MaxAumUsd is accepted and ignored
type AddPoolParams struct {
	PoolID       uint64           `json:"poolID"`
	Name         string           `json:"name"`
	MaxAumUsd    uint64           `json:"maxAumUsd"`
	TradeFees    uint16           `json:"tradeFees"`
	ProtocolFees uint16           `json:"protocolFees"`
	FeeRecipient solana.PublicKey `json:"feeRecipient"`
	TokenA       solana.PublicKey `json:"tokenA"`
	TokenB       solana.PublicKey `json:"tokenB"`
}
