package controller

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/canopy-network/rollup-pool/delegation"
	"github.com/canopy-network/rollup-pool/fsm"
	"github.com/canopy-network/rollup-pool/lib"
	"github.com/canopy-network/rollup-pool/store"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
)

func TestDepositWithdrawRoundTrip(t *testing.T) {
	env := newTestEnv(t, 1000)
	// deposit into the empty pool
	env.deposit(t, 400, 900)
	// validate the provider received the promised lp tokens and the receipt is gone
	pool, from, err := env.c.Pool(env.pool)
	require.NoError(t, err)
	require.Equal(t, fsm.RollupContext, from)
	require.Equal(t, uint64(600), env.balance(t, pool.LpMint))
	require.Equal(t, uint64(600), pool.TotalLpSupply)
	receipt, err := env.c.DepositReceipt(env.provider)
	require.NoError(t, err)
	require.Nil(t, receipt)
	// the base context holds the committed pool
	committed, err := env.c.Base.GetPool(env.pool)
	require.NoError(t, err)
	require.Equal(t, uint64(400), committed.ReserveA)
	require.Equal(t, uint64(900), committed.ReserveB)
	// withdraw everything
	env.withdraw(t, 600)
	require.Equal(t, uint64(1000), env.balance(t, env.tokenA))
	require.Equal(t, uint64(1000), env.balance(t, env.tokenB))
	require.Zero(t, env.balance(t, pool.LpMint))
	// the pool is empty again and the position slot is free
	pool, _, err = env.c.Pool(env.pool)
	require.NoError(t, err)
	require.Zero(t, pool.ReserveA)
	require.Zero(t, pool.ReserveB)
	require.Zero(t, pool.TotalLpSupply)
	lp, err := env.c.Provider(env.provider)
	require.NoError(t, err)
	require.Equal(t, -1, lp.Slot(env.pool))
	require.Zero(t, lp.TotalLpTokens)
	// nothing is left to deliver
	intents, err := env.c.Outbox(0)
	require.NoError(t, err)
	require.Empty(t, intents)
}

func TestSecondDepositUsesCommittedReserves(t *testing.T) {
	env := newTestEnv(t, 1000)
	env.deposit(t, 400, 900)
	// the quote matches what the second deposit mints
	quote, _, err := env.c.QuoteDeposit(env.pool, 200, 450)
	require.NoError(t, err)
	require.Equal(t, uint64(300), quote)
	env.deposit(t, 200, 450)
	pool, _, err := env.c.Pool(env.pool)
	require.NoError(t, err)
	require.Equal(t, uint64(900), env.balance(t, pool.LpMint))
	require.Equal(t, uint64(900), pool.TotalLpSupply)
	// a partial withdraw quote
	a, b, _, err := env.c.QuoteWithdraw(env.pool, 300)
	require.NoError(t, err)
	require.Equal(t, uint64(200), a)
	require.Equal(t, uint64(450), b)
}

func TestFollowUpsWaitForCommit(t *testing.T) {
	env := newTestEnv(t, 1000)
	_, err := env.c.Deposit(env.provider, env.pool, 400, 900, 0)
	require.NoError(t, err)
	// a second deposit while the first is in flight is rejected
	_, err = env.c.Deposit(env.provider, env.pool, 1, 1, 0)
	require.ErrorContains(t, err, "in flight")
	require.NoError(t, env.c.DelegateDeposit(env.provider, env.pool, delegation.DelegateConfig{}))
	// the base context can't touch the delegated receipt
	_, err = env.c.Deposit(env.provider, env.pool, 1, 1, 0)
	require.ErrorContains(t, err, "is delegated")
	// nothing is queued before the commit
	intents, err := env.c.Outbox(0)
	require.NoError(t, err)
	require.Empty(t, intents)
	// the commit queues the mint ahead of the close
	require.NoError(t, env.c.AddLiquidityDelegated(env.provider, env.pool))
	require.NoError(t, env.c.CommitDeposit(env.provider, env.pool))
	intents, err = env.c.Outbox(0)
	require.NoError(t, err)
	require.Len(t, intents, 2)
	require.Equal(t, fsm.MintLpTokensName, intents[0].Name())
	require.Equal(t, fsm.CloseDepositReceiptName, intents[1].Name())
	env.deliver(t)
	intents, err = env.c.Outbox(0)
	require.NoError(t, err)
	require.Empty(t, intents)
}

func TestCommitRequiresAppliedReceipt(t *testing.T) {
	tests := []struct {
		name          string
		detail        string
		setup         func(t *testing.T, env *testEnv)
		commit        func(env *testEnv) lib.ErrorI
		errorContains string
	}{
		{
			name:   "pending deposit",
			detail: "a deposit receipt that was delegated but never applied can't be committed",
			setup: func(t *testing.T, env *testEnv) {
				_, err := env.c.Deposit(env.provider, env.pool, 400, 900, 0)
				require.NoError(t, err)
				require.NoError(t, env.c.DelegateDeposit(env.provider, env.pool, delegation.DelegateConfig{}))
			},
			commit:        func(env *testEnv) lib.ErrorI { return env.c.CommitDeposit(env.provider, env.pool) },
			errorContains: "was not applied",
		},
		{
			name:   "pending withdraw",
			detail: "a withdraw receipt that was delegated but never applied can't be committed",
			setup: func(t *testing.T, env *testEnv) {
				env.deposit(t, 400, 900)
				_, err := env.c.Withdraw(env.provider, env.pool, 300, 0, 0)
				require.NoError(t, err)
				require.NoError(t, env.c.DelegateWithdraw(env.provider, env.pool, delegation.DelegateConfig{}))
			},
			commit:        func(env *testEnv) lib.ErrorI { return env.c.CommitWithdraw(env.provider, env.pool) },
			errorContains: "was not applied",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			env := newTestEnv(t, 1000)
			test.setup(t, env)
			// execute the function call
			err := test.commit(env)
			require.ErrorContains(t, err, test.errorContains, test.detail)
			// nothing was queued for the unapplied receipt
			intents, e := env.c.Outbox(0)
			require.NoError(t, e)
			require.Empty(t, intents)
		})
	}
}

func TestUnappliedReceiptDoesNotBlockOthers(t *testing.T) {
	env := newTestEnv(t, 1000)
	// the first provider escrows a deposit and commits without applying it
	_, err := env.c.Deposit(env.provider, env.pool, 400, 900, 0)
	require.NoError(t, err)
	require.NoError(t, env.c.DelegateDeposit(env.provider, env.pool, delegation.DelegateConfig{}))
	require.ErrorContains(t, env.c.CommitDeposit(env.provider, env.pool), "was not applied")
	// a second provider completes a full deposit
	other := env.withProvider(t, newTestKey(10), 1000)
	other.deposit(t, 400, 900)
	pool, _, err := env.c.Pool(env.pool)
	require.NoError(t, err)
	require.Equal(t, uint64(600), other.balance(t, pool.LpMint))
	require.Zero(t, env.balance(t, pool.LpMint))
}

func TestCommitDue(t *testing.T) {
	env := newTestEnv(t, 1000)
	require.NoError(t, env.c.Delegate(delegation.DelegateConfig{CommitFrequencyMS: 1_000}, env.pool))
	// nothing is due right away
	require.NoError(t, env.c.CommitDue(time.Now()))
	d, err := env.c.GetDelegation(env.pool)
	require.NoError(t, err)
	require.Zero(t, d.Commits)
	// the pool is committed once its frequency elapsed
	require.NoError(t, env.c.CommitDue(time.Now().Add(2*time.Second)))
	d, err = env.c.GetDelegation(env.pool)
	require.NoError(t, err)
	require.Equal(t, uint64(1), d.Commits)
	// undelegating returns the pool to the base context
	require.NoError(t, env.c.Undelegate(env.pool))
	d, err = env.c.GetDelegation(env.pool)
	require.NoError(t, err)
	require.Equal(t, delegation.BaseOwned, d.State)
	require.NoError(t, env.c.SetPoolStatus(newTestAdmin(), env.pool, true, false))
	pool, from, err := env.c.Pool(env.pool)
	require.NoError(t, err)
	require.Equal(t, fsm.BaseContext, from)
	require.True(t, pool.Status.IsPaused)
}

func TestFaucet(t *testing.T) {
	env := newTestEnv(t, 0)
	mint := newTestKey(20)
	require.NoError(t, env.c.Faucet(mint, env.provider, 50))
	require.NoError(t, env.c.Faucet(mint, env.provider, 25))
	require.Equal(t, uint64(75), env.balance(t, mint))
	// lp mints are owned by the pool program
	pool, _, err := env.c.Pool(env.pool)
	require.NoError(t, err)
	require.ErrorContains(t, env.c.Faucet(pool.LpMint, env.provider, 1), "is not authorized")
}

// testEnv is a controller with one pool and one funded provider
type testEnv struct {
	c        *Controller
	provider solana.PublicKey
	tokenA   solana.PublicKey
	tokenB   solana.PublicKey
	pool     solana.PublicKey
}

// newTestEnv() creates a controller where the provider holds 'funds' of both pool tokens
func newTestEnv(t *testing.T, funds uint64) *testEnv {
	log := lib.NewNullLogger()
	base, err := store.NewStoreInMemory("base", log)
	require.NoError(t, err)
	rollup, err := store.NewStoreInMemory("rollup", log)
	require.NoError(t, err)
	config := lib.DefaultConfig()
	config.Admin = newTestAdmin().String()
	config.RetryInitialMS, config.RetryMaxMS, config.MaxAttempts = 1, 2, 2
	c, err := New(config, base, rollup, nil, log)
	require.NoError(t, err)
	t.Cleanup(c.Stop)
	env := &testEnv{c: c, provider: newTestKey(7), tokenA: newTestKey(8), tokenB: newTestKey(9)}
	// the faucet creates the token mints
	require.NoError(t, c.Faucet(env.tokenA, env.provider, funds))
	require.NoError(t, c.Faucet(env.tokenB, env.provider, funds))
	env.pool, err = c.InitPool(newTestAdmin(), fsm.AddPoolParams{Name: "sol-usdc", TradeFees: 30, TokenA: env.tokenA, TokenB: env.tokenB})
	require.NoError(t, err)
	_, err = c.InitProvider(env.provider)
	require.NoError(t, err)
	return env
}

// withProvider() returns the environment acting as another funded provider with its own position record
func (e *testEnv) withProvider(t *testing.T, provider solana.PublicKey, funds uint64) *testEnv {
	require.NoError(t, e.c.Faucet(e.tokenA, provider, funds))
	require.NoError(t, e.c.Faucet(e.tokenB, provider, funds))
	_, err := e.c.InitProvider(provider)
	require.NoError(t, err)
	cpy := *e
	cpy.provider = provider
	return &cpy
}

// deposit() drives a deposit through every step and delivers its follow-ups
func (e *testEnv) deposit(t *testing.T, amountA, amountB uint64) {
	_, err := e.c.Deposit(e.provider, e.pool, amountA, amountB, 0)
	require.NoError(t, err)
	require.NoError(t, e.c.DelegateDeposit(e.provider, e.pool, delegation.DelegateConfig{}))
	require.NoError(t, e.c.AddLiquidityDelegated(e.provider, e.pool))
	require.NoError(t, e.c.CommitDeposit(e.provider, e.pool))
	e.deliver(t)
}

// withdraw() drives a withdrawal through every step and delivers its follow-ups
func (e *testEnv) withdraw(t *testing.T, lpTokens uint64) {
	_, err := e.c.Withdraw(e.provider, e.pool, lpTokens, 0, 0)
	require.NoError(t, err)
	require.NoError(t, e.c.DelegateWithdraw(e.provider, e.pool, delegation.DelegateConfig{}))
	require.NoError(t, e.c.RemoveLiquidityDelegated(e.provider, e.pool))
	require.NoError(t, e.c.CommitWithdraw(e.provider, e.pool))
	e.deliver(t)
}

// deliver() drains the outbox
func (e *testEnv) deliver(t *testing.T) {
	_, err := e.c.Worker.DeliverPending(context.Background())
	require.NoError(t, err)
}

// balance() returns the provider's balance of a mint
func (e *testEnv) balance(t *testing.T, mint solana.PublicKey) uint64 {
	balance, err := e.c.Balance(e.provider, mint)
	require.NoError(t, err)
	return balance
}

// newTestKey() returns a deterministic key filled with one byte
func newTestKey(b byte) solana.PublicKey {
	return solana.PublicKeyFromBytes(bytes.Repeat([]byte{b}, solana.PublicKeyLength))
}

// newTestAdmin() returns the admin key of the test controller
func newTestAdmin() solana.PublicKey { return newTestKey(42) }
