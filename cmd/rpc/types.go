package rpc

import (
	"math/big"

	"github.com/canopy-network/rollup-pool/delegation"
	"github.com/canopy-network/rollup-pool/fsm"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// quotes are rendered with this many decimal places
const priceDecimals = 9

// =====================================================
// Query Request Types
// =====================================================

// poolRequest selects a pool by address or, if the address is empty, by name
type poolRequest struct {
	Address solana.PublicKey `json:"address"`
	Name    string           `json:"name"`
}

type ownerRequest struct {
	Owner solana.PublicKey `json:"owner"`
}

type accountRequest struct {
	Account solana.PublicKey `json:"account"`
}

type balanceRequest struct {
	ownerRequest
	Mint solana.PublicKey `json:"mint"`
}

type limitRequest struct {
	Limit int `json:"limit"`
}

type quoteDepositRequest struct {
	poolRequest
	AmountA uint64 `json:"amountA"`
	AmountB uint64 `json:"amountB"`
}

type quoteWithdrawRequest struct {
	poolRequest
	LpTokens uint64 `json:"lpTokens"`
}

// =====================================================
// Admin Request Types
// =====================================================

type txInitPoolRequest struct {
	Signer solana.PublicKey `json:"signer"`
	fsm.AddPoolParams
}

type txSetPoolStatusRequest struct {
	Signer    solana.PublicKey `json:"signer"`
	Pool      solana.PublicKey `json:"pool"`
	Paused    bool             `json:"paused"`
	Migrating bool             `json:"migrating"`
}

// txProviderRequest addresses the in flight operation of a provider in a pool
type txProviderRequest struct {
	Provider solana.PublicKey `json:"provider"`
	Pool     solana.PublicKey `json:"pool"`
}

// txDelegateRequest delegates either the listed accounts or, if a receipt kind is set, whatever
// the delegated context needs to apply the provider's receipt
type txDelegateRequest struct {
	Accounts []solana.PublicKey `json:"accounts"`
	Receipt  string             `json:"receipt"` // 'deposit' or 'withdraw'
	txProviderRequest
	delegation.DelegateConfig
}

type txDepositRequest struct {
	txProviderRequest
	AmountA     uint64 `json:"amountA"`
	AmountB     uint64 `json:"amountB"`
	MinLpTokens uint64 `json:"minLpTokens"`
}

type txWithdrawRequest struct {
	txProviderRequest
	LpTokens   uint64 `json:"lpTokens"`
	MinAmountA uint64 `json:"minAmountA"`
	MinAmountB uint64 `json:"minAmountB"`
}

type txAccountsRequest struct {
	Accounts []solana.PublicKey `json:"accounts"`
}

type txFaucetRequest struct {
	Mint   solana.PublicKey `json:"mint"`
	Owner  solana.PublicKey `json:"owner"`
	Amount uint64           `json:"amount"`
}

// =====================================================
// Result Types
// =====================================================

// PoolResult is a pool with the context it was read from and its spot price
type PoolResult struct {
	Address solana.PublicKey `json:"address"`
	Context string           `json:"context"`
	Price   decimal.Decimal  `json:"price"` // token b per token a
	*fsm.Pool
}

// QuoteDepositResult is the outcome a deposit would have at the current reserves
type QuoteDepositResult struct {
	Pool     solana.PublicKey `json:"pool"`
	LpTokens uint64           `json:"lpTokens"`
	Share    decimal.Decimal  `json:"share"` // fraction of the lp supply after the deposit
}

// QuoteWithdrawResult is the outcome a withdrawal would have at the current reserves
type QuoteWithdrawResult struct {
	Pool    solana.PublicKey `json:"pool"`
	AmountA uint64           `json:"amountA"`
	AmountB uint64           `json:"amountB"`
	Share   decimal.Decimal  `json:"share"` // fraction of the lp supply burned
}

// BalanceResult is the token balance of an owner for a mint
type BalanceResult struct {
	Owner   solana.PublicKey `json:"owner"`
	Mint    solana.PublicKey `json:"mint"`
	Account solana.PublicKey `json:"account"`
	Amount  uint64           `json:"amount"`
}

// TxResult is the outcome of an admin instruction
type TxResult struct {
	Instruction string            `json:"instruction"`
	Address     *solana.PublicKey `json:"address,omitempty"` // the account the instruction created, if any
}

// newPoolResult() renders a pool with its spot price
func newPoolResult(address solana.PublicKey, context fsm.Context, pool *fsm.Pool) *PoolResult {
	return &PoolResult{Address: address, Context: context.String(), Price: ratio(pool.ReserveB, pool.ReserveA), Pool: pool}
}

// ratio() returns numerator / denominator rounded to priceDecimals, zero if the denominator is zero
func ratio(numerator, denominator uint64) decimal.Decimal {
	if denominator == 0 {
		return decimal.Zero
	}
	return toDecimal(numerator).DivRound(toDecimal(denominator), priceDecimals)
}

// toDecimal() converts an amount to a decimal without passing through a signed integer
func toDecimal(amount uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), 0)
}
