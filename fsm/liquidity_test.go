package fsm

import (
	"strconv"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
)

func TestDepositLiquidity(t *testing.T) {
	tests := []struct {
		name             string
		detail           string
		setup            func(t *testing.T, env *testEnv)
		amountA, amountB uint64
		minLpTokens      uint64
		expectedLp       uint64
		errorContains    string
	}{
		{
			name:        "empty pool",
			detail:      "the first deposit escrows both tokens and freezes the geometric mean in a pending receipt",
			amountA:     400,
			amountB:     900,
			minLpTokens: 600,
			expectedLp:  600,
		},
		{
			name:   "non empty pool",
			detail: "a deposit into a funded pool is priced against the committed base copy",
			setup: func(t *testing.T, env *testEnv) {
				env.deposit(t, 400, 900)
			},
			amountA:    40,
			amountB:    90,
			expectedLp: 60,
		},
		{
			name:          "zero amount",
			detail:        "both amounts must be positive",
			amountA:       0,
			amountB:       900,
			errorContains: "invalid amount",
		},
		{
			name:          "insufficient funds",
			detail:        "the provider must hold both amounts",
			amountA:       400,
			amountB:       1001,
			errorContains: "insufficient funds",
		},
		{
			name:          "slippage",
			detail:        "a deposit worth less than the minimum is rejected",
			amountA:       400,
			amountB:       900,
			minLpTokens:   601,
			errorContains: "slippage exceeded",
		},
		{
			name:   "in flight",
			detail: "a second deposit waits for the first receipt to close",
			setup: func(t *testing.T, env *testEnv) {
				_, err := env.base.DepositLiquidity(env.provider, env.pool, 1, 1, 0)
				require.NoError(t, err)
			},
			amountA:       400,
			amountB:       900,
			errorContains: "in flight",
		},
		{
			name:   "paused",
			detail: "a paused pool accepts no deposits",
			setup: func(t *testing.T, env *testEnv) {
				require.NoError(t, env.base.SetPoolStatus(env.admin, env.pool, true, false))
			},
			amountA:       400,
			amountB:       900,
			errorContains: "paused",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			env := newTestEnv(t, 1000)
			if test.setup != nil {
				test.setup(t, env)
			}
			balanceA, balanceB := env.balance(t, env.provider, env.tokenA), env.balance(t, env.provider, env.tokenB)
			// execute the function call
			receiptAddress, err := env.base.DepositLiquidity(env.provider, env.pool, test.amountA, test.amountB, test.minLpTokens)
			require.Equal(t, test.errorContains != "", err != nil, err)
			if err != nil {
				require.ErrorContains(t, err, test.errorContains)
				// validate no tokens moved
				require.Equal(t, balanceA, env.balance(t, env.provider, env.tokenA))
				require.Equal(t, balanceB, env.balance(t, env.provider, env.tokenB))
				return
			}
			// validate the escrow
			require.Equal(t, balanceA-test.amountA, env.balance(t, env.provider, env.tokenA))
			require.Equal(t, balanceB-test.amountB, env.balance(t, env.provider, env.tokenB))
			// validate the receipt
			address, receipt, err := env.base.GetDepositReceipt(env.provider)
			require.NoError(t, err)
			require.Equal(t, receiptAddress, address)
			require.Equal(t, &DepositReceipt{
				Version:        AccountVersion,
				Pool:           env.pool,
				Provider:       env.provider,
				AmountA:        test.amountA,
				AmountB:        test.amountB,
				LpTokensMinted: test.expectedLp,
				Status:         ReceiptPending,
				Bump:           receipt.Bump,
			}, receipt)
			// validate no lp tokens were minted yet
			pool, err := env.base.GetPool(env.pool)
			require.NoError(t, err)
			supply, err := env.base.Ledger().Supply(pool.LpMint)
			require.NoError(t, err)
			require.Equal(t, pool.TotalLpSupply, supply)
		})
	}
}

func TestAddLiquidityDelegated(t *testing.T) {
	tests := []struct {
		name          string
		detail        string
		setup         func(t *testing.T, env *testEnv)
		pool          func(env *testEnv) solana.PublicKey
		errorContains string
	}{
		{
			name:   "apply",
			detail: "the frozen receipt numbers move the delegated pool and position",
		},
		{
			name:   "replay",
			detail: "an applied receipt is a no-op",
			setup: func(t *testing.T, env *testEnv) {
				require.NoError(t, env.rollup.AddLiquidityDelegated(env.provider, env.pool))
			},
		},
		{
			name:   "not found",
			detail: "a provider without a receipt has nothing to apply",
			setup: func(t *testing.T, env *testEnv) {
				address, _, err := env.rollup.GetDepositReceipt(env.provider)
				require.NoError(t, err)
				require.NoError(t, env.rollup.DeleteReceipt(address))
			},
			errorContains: "not found",
		},
		{
			name:          "wrong pool",
			detail:        "a receipt only applies to its own pool",
			pool:          func(env *testEnv) solana.PublicKey { return newTestKey(50) },
			errorContains: "receipt belongs to pool",
		},
		{
			name:   "slippage",
			detail: "delegated reserves that price the deposit below the receipt are rejected",
			setup: func(t *testing.T, env *testEnv) {
				pool, err := env.rollup.GetPool(env.pool)
				require.NoError(t, err)
				pool.ReserveA, pool.ReserveB, pool.TotalLpSupply = 1000, 1000, 10
				require.NoError(t, env.rollup.SetPool(env.pool, pool))
			},
			errorContains: "slippage exceeded",
		},
		{
			name:   "paused",
			detail: "a paused delegated pool rejects the receipt",
			setup: func(t *testing.T, env *testEnv) {
				pool, err := env.rollup.GetPool(env.pool)
				require.NoError(t, err)
				pool.Status.IsPaused = true
				require.NoError(t, env.rollup.SetPool(env.pool, pool))
			},
			errorContains: "paused",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			env := newTestEnv(t, 1000)
			receiptAddress, err := env.base.DepositLiquidity(env.provider, env.pool, 400, 900, 0)
			require.NoError(t, err)
			env.copyToRollup(t, env.pool, env.providerAddress(t), receiptAddress)
			if test.setup != nil {
				test.setup(t, env)
			}
			poolAddress := env.pool
			if test.pool != nil {
				poolAddress = test.pool(env)
			}
			before, err := env.rollup.GetPool(env.pool)
			require.NoError(t, err)
			// execute the function call
			err = env.rollup.AddLiquidityDelegated(env.provider, poolAddress)
			require.Equal(t, test.errorContains != "", err != nil, err)
			pool, e := env.rollup.GetPool(env.pool)
			require.NoError(t, e)
			if err != nil {
				require.ErrorContains(t, err, test.errorContains)
				require.Equal(t, before, pool)
				return
			}
			// validate the delegated state
			require.Equal(t, uint64(400), pool.ReserveA)
			require.Equal(t, uint64(900), pool.ReserveB)
			require.Equal(t, uint64(600), pool.TotalLpSupply)
			_, lp, e := env.rollup.GetLiquidityProvider(env.provider)
			require.NoError(t, e)
			require.Equal(t, LiquidityPoolInfo{Pool: env.pool, TokenMint: pool.LpMint, LiquidityAmount: 1300, LpTokens: 600}, lp.LiquidityPoolsInfo[0])
			require.Equal(t, uint64(600), lp.TotalLpTokens)
			_, receipt, e := env.rollup.GetDepositReceipt(env.provider)
			require.NoError(t, e)
			require.Equal(t, ReceiptApplied, receipt.Status)
		})
	}
}

func TestWithdrawLiquidity(t *testing.T) {
	tests := []struct {
		name                   string
		detail                 string
		lpTokens               uint64
		minAmountA, minAmountB uint64
		expectedA, expectedB   uint64
		errorContains          string
	}{
		{
			name:      "partial",
			detail:    "a withdrawal burns the lp tokens and freezes the owed amounts",
			lpTokens:  300,
			expectedA: 200,
			expectedB: 450,
		},
		{
			name:       "at minimum",
			detail:     "amounts equal to the minimums pass",
			lpTokens:   600,
			minAmountA: 400,
			minAmountB: 900,
			expectedA:  400,
			expectedB:  900,
		},
		{
			name:          "zero",
			detail:        "a zero burn is rejected",
			lpTokens:      0,
			errorContains: "invalid amount",
		},
		{
			name:          "insufficient balance",
			detail:        "the provider must hold the lp tokens it burns",
			lpTokens:      601,
			errorContains: "insufficient token balance",
		},
		{
			name:          "slippage a",
			detail:        "an amount below its minimum is rejected",
			lpTokens:      300,
			minAmountA:    201,
			errorContains: "slippage exceeded",
		},
		{
			name:          "slippage b",
			detail:        "an amount below its minimum is rejected",
			lpTokens:      300,
			minAmountB:    451,
			errorContains: "slippage exceeded",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			env := newTestEnv(t, 1000)
			env.deposit(t, 400, 900)
			pool, err := env.base.GetPool(env.pool)
			require.NoError(t, err)
			// execute the function call
			_, err = env.base.WithdrawLiquidity(env.provider, env.pool, test.lpTokens, test.minAmountA, test.minAmountB)
			require.Equal(t, test.errorContains != "", err != nil, err)
			if err != nil {
				require.ErrorContains(t, err, test.errorContains)
				require.Equal(t, uint64(600), env.balance(t, env.provider, pool.LpMint))
				_, receipt, e := env.base.GetWithdrawReceipt(env.provider)
				require.NoError(t, e)
				require.Nil(t, receipt)
				return
			}
			// validate the burn
			require.Equal(t, 600-test.lpTokens, env.balance(t, env.provider, pool.LpMint))
			// validate the vaults are untouched until the payout
			vaultA, err := env.base.Ledger().Balance(pool.TokenAVault)
			require.NoError(t, err)
			require.Equal(t, uint64(400), vaultA)
			// validate the receipt
			_, receipt, err := env.base.GetWithdrawReceipt(env.provider)
			require.NoError(t, err)
			require.Equal(t, ReceiptPending, receipt.Status)
			require.Equal(t, test.lpTokens, receipt.LpTokensToBurn)
			require.Equal(t, test.expectedA, receipt.AmountAWithdrawn)
			require.Equal(t, test.expectedB, receipt.AmountBWithdrawn)
		})
	}
}

func TestRemoveLiquidityDelegated(t *testing.T) {
	tests := []struct {
		name          string
		detail        string
		setup         func(t *testing.T, env *testEnv)
		errorContains string
	}{
		{
			name:   "apply",
			detail: "the frozen receipt numbers shrink the delegated pool and position",
		},
		{
			name:   "over withdraw",
			detail: "a position holding fewer lp tokens than the receipt is rejected and nothing changes",
			setup: func(t *testing.T, env *testEnv) {
				address, lp, err := env.rollup.GetLiquidityProvider(env.provider)
				require.NoError(t, err)
				lp.LiquidityPoolsInfo[0].LpTokens, lp.TotalLpTokens = 100, 100
				require.NoError(t, env.rollup.SetLiquidityProvider(address, lp))
			},
			errorContains: "insufficient lp tokens",
		},
		{
			name:   "no position",
			detail: "a provider without a slot in the pool is rejected",
			setup: func(t *testing.T, env *testEnv) {
				address, _, err := env.rollup.GetLiquidityProvider(env.provider)
				require.NoError(t, err)
				require.NoError(t, env.rollup.SetLiquidityProvider(address, NewLiquidityProvider(env.provider, 255)))
			},
			errorContains: "no position",
		},
		{
			name:   "slippage",
			detail: "delegated reserves that pay less than the receipt are rejected",
			setup: func(t *testing.T, env *testEnv) {
				pool, err := env.rollup.GetPool(env.pool)
				require.NoError(t, err)
				pool.ReserveA = 300
				require.NoError(t, env.rollup.SetPool(env.pool, pool))
			},
			errorContains: "slippage exceeded",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			env := newTestEnv(t, 1000)
			env.deposit(t, 400, 900)
			receiptAddress, err := env.base.WithdrawLiquidity(env.provider, env.pool, 300, 0, 0)
			require.NoError(t, err)
			env.copyToRollup(t, env.pool, env.providerAddress(t), receiptAddress)
			if test.setup != nil {
				test.setup(t, env)
			}
			poolBefore, err := env.rollup.GetPool(env.pool)
			require.NoError(t, err)
			_, lpBefore, err := env.rollup.GetLiquidityProvider(env.provider)
			require.NoError(t, err)
			// execute the function call
			err = env.rollup.RemoveLiquidityDelegated(env.provider, env.pool)
			require.Equal(t, test.errorContains != "", err != nil, err)
			pool, e := env.rollup.GetPool(env.pool)
			require.NoError(t, e)
			_, lp, e := env.rollup.GetLiquidityProvider(env.provider)
			require.NoError(t, e)
			_, receipt, e := env.rollup.GetWithdrawReceipt(env.provider)
			require.NoError(t, e)
			if err != nil {
				require.ErrorContains(t, err, test.errorContains)
				// validate the state is unchanged
				require.Equal(t, poolBefore, pool)
				require.Equal(t, lpBefore, lp)
				require.Equal(t, ReceiptPending, receipt.Status)
				return
			}
			require.Equal(t, uint64(200), pool.ReserveA)
			require.Equal(t, uint64(450), pool.ReserveB)
			require.Equal(t, uint64(300), pool.TotalLpSupply)
			require.Equal(t, uint64(300), lp.LiquidityPoolsInfo[0].LpTokens)
			require.Equal(t, uint64(650), lp.LiquidityPoolsInfo[0].LiquidityAmount)
			require.Equal(t, ReceiptApplied, receipt.Status)
			// a replay is a no-op
			require.NoError(t, env.rollup.RemoveLiquidityDelegated(env.provider, env.pool))
			replayed, e := env.rollup.GetPool(env.pool)
			require.NoError(t, e)
			require.Equal(t, pool, replayed)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	env := newTestEnv(t, 1000)
	// deposit then withdraw everything
	env.deposit(t, 400, 900)
	pool, err := env.base.GetPool(env.pool)
	require.NoError(t, err)
	require.Equal(t, uint64(600), env.balance(t, env.provider, pool.LpMint))
	env.withdraw(t, 600)
	// validate the provider holds exactly what it started with
	require.Equal(t, uint64(1000), env.balance(t, env.provider, env.tokenA))
	require.Equal(t, uint64(1000), env.balance(t, env.provider, env.tokenB))
	require.Zero(t, env.balance(t, env.provider, pool.LpMint))
	// validate the pool is empty again
	pool, err = env.base.GetPool(env.pool)
	require.NoError(t, err)
	require.Zero(t, pool.ReserveA)
	require.Zero(t, pool.ReserveB)
	require.Zero(t, pool.TotalLpSupply)
	// validate the slot was released
	_, lp, err := env.base.GetLiquidityProvider(env.provider)
	require.NoError(t, err)
	require.Equal(t, -1, lp.Slot(env.pool))
	require.Zero(t, lp.TotalLpTokens)
	// validate both receipts were closed
	for _, get := range []func(solana.PublicKey) (solana.PublicKey, bool){
		func(p solana.PublicKey) (solana.PublicKey, bool) {
			a, r, e := env.base.GetDepositReceipt(p)
			require.NoError(t, e)
			return a, r != nil
		},
		func(p solana.PublicKey) (solana.PublicKey, bool) {
			a, r, e := env.base.GetWithdrawReceipt(p)
			require.NoError(t, e)
			return a, r != nil
		},
	} {
		_, found := get(env.provider)
		require.False(t, found)
	}
}

func TestMaxPoolsThroughDeposits(t *testing.T) {
	env := newTestEnv(t, 1_000_000)
	pools := []solana.PublicKey{env.pool}
	for i := 1; i <= MaxPools; i++ {
		pools = append(pools, env.createPool(t, "pool-"+strconv.Itoa(i)))
	}
	// fill every slot
	for _, pool := range pools[:MaxPools] {
		env.pool = pool
		env.deposit(t, 10, 10)
	}
	// the eleventh distinct pool is rejected in the delegated context
	env.pool = pools[MaxPools]
	receiptAddress, err := env.base.DepositLiquidity(env.provider, env.pool, 10, 10, 0)
	require.NoError(t, err)
	env.copyToRollup(t, env.pool, env.providerAddress(t), receiptAddress)
	require.ErrorContains(t, env.rollup.AddLiquidityDelegated(env.provider, env.pool), "max pools reached")
}
