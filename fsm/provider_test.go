package fsm

import (
	"math"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
)

func TestApplyDeposit(t *testing.T) {
	pool, mint := newTestKey(1), newTestKey(2)
	tests := []struct {
		name          string
		detail        string
		preset        func(lp *LiquidityProvider)
		liquidity     uint64
		lpTokens      uint64
		expectedSlot  int
		expected      LiquidityPoolInfo
		errorContains string
	}{
		{
			name:         "first deposit",
			detail:       "the first deposit binds the first empty slot",
			liquidity:    1300,
			lpTokens:     600,
			expectedSlot: 0,
			expected:     LiquidityPoolInfo{Pool: pool, TokenMint: mint, LiquidityAmount: 1300, LpTokens: 600},
		},
		{
			name:   "existing slot",
			detail: "a deposit into a pool with a position accumulates into its slot",
			preset: func(lp *LiquidityProvider) {
				lp.LiquidityPoolsInfo[3] = LiquidityPoolInfo{Pool: pool, TokenMint: mint, LiquidityAmount: 100, LpTokens: 50}
				lp.TotalLiquidityProvided, lp.TotalLpTokens = 100, 50
			},
			liquidity:    10,
			lpTokens:     5,
			expectedSlot: 3,
			expected:     LiquidityPoolInfo{Pool: pool, TokenMint: mint, LiquidityAmount: 110, LpTokens: 55},
		},
		{
			name:   "first empty slot",
			detail: "a new pool takes the first empty slot, skipping bound ones",
			preset: func(lp *LiquidityProvider) {
				lp.LiquidityPoolsInfo[0] = LiquidityPoolInfo{Pool: newTestKey(10), LiquidityAmount: 1, LpTokens: 1}
				lp.TotalLiquidityProvided, lp.TotalLpTokens = 1, 1
			},
			liquidity:    10,
			lpTokens:     5,
			expectedSlot: 1,
			expected:     LiquidityPoolInfo{Pool: pool, TokenMint: mint, LiquidityAmount: 10, LpTokens: 5},
		},
		{
			name:   "max pools",
			detail: "an eleventh distinct pool has no slot",
			preset: func(lp *LiquidityProvider) {
				for i := range lp.LiquidityPoolsInfo {
					lp.LiquidityPoolsInfo[i] = LiquidityPoolInfo{Pool: newTestKey(byte(10 + i)), LiquidityAmount: 1, LpTokens: 1}
				}
				lp.TotalLiquidityProvided, lp.TotalLpTokens = MaxPools, MaxPools
			},
			liquidity:     10,
			lpTokens:      5,
			errorContains: "max pools reached",
		},
		{
			name:   "overflow",
			detail: "a total that doesn't fit 64 bits overflows",
			preset: func(lp *LiquidityProvider) {
				lp.TotalLiquidityProvided = math.MaxUint64
			},
			liquidity:     1,
			lpTokens:      1,
			errorContains: "math overflow",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			lp := NewLiquidityProvider(newTestKey(7), 255)
			if test.preset != nil {
				test.preset(lp)
			}
			before := *lp
			// execute the function call
			err := lp.ApplyDeposit(pool, mint, test.liquidity, test.lpTokens, testTime)
			// validate the expected error
			require.Equal(t, test.errorContains != "", err != nil, err)
			if err != nil {
				require.ErrorContains(t, err, test.errorContains)
				// validate the record is untouched
				require.Equal(t, before, *lp)
				return
			}
			// validate the slot and the totals
			require.Equal(t, test.expected, lp.LiquidityPoolsInfo[test.expectedSlot])
			require.Equal(t, before.TotalLiquidityProvided+test.liquidity, lp.TotalLiquidityProvided)
			require.Equal(t, before.TotalLpTokens+test.lpTokens, lp.TotalLpTokens)
			require.Equal(t, testTime, lp.LatestLiquidityProvidedOn)
			requireSlotSum(t, lp)
		})
	}
}

func TestApplyWithdraw(t *testing.T) {
	pool := newTestKey(1)
	preset := LiquidityPoolInfo{Pool: pool, TokenMint: newTestKey(2), LiquidityAmount: 1300, LpTokens: 600}
	tests := []struct {
		name          string
		detail        string
		pool          solana.PublicKey
		liquidity     uint64
		lpTokens      uint64
		expected      LiquidityPoolInfo
		errorContains string
	}{
		{
			name:      "partial",
			detail:    "a partial withdrawal debits the slot",
			pool:      pool,
			liquidity: 650,
			lpTokens:  300,
			expected:  LiquidityPoolInfo{Pool: pool, TokenMint: preset.TokenMint, LiquidityAmount: 650, LpTokens: 300},
		},
		{
			name:      "full",
			detail:    "a full withdrawal releases the slot",
			pool:      pool,
			liquidity: 1300,
			lpTokens:  600,
		},
		{
			name:      "lp tokens reach zero",
			detail:    "the slot is released when its lp tokens reach zero even if liquidity remains",
			pool:      pool,
			liquidity: 1299,
			lpTokens:  600,
		},
		{
			name:      "liquidity reaches zero",
			detail:    "the slot is kept while it still holds lp tokens",
			pool:      pool,
			liquidity: 1300,
			lpTokens:  599,
			expected:  LiquidityPoolInfo{Pool: pool, TokenMint: preset.TokenMint, LiquidityAmount: 0, LpTokens: 1},
		},
		{
			name:          "no position",
			detail:        "a pool without a slot has no position",
			pool:          newTestKey(3),
			liquidity:     1,
			lpTokens:      1,
			errorContains: "no position",
		},
		{
			name:          "over withdraw lp",
			detail:        "burning more lp tokens than the slot holds is rejected",
			pool:          pool,
			liquidity:     1,
			lpTokens:      601,
			errorContains: "insufficient lp tokens",
		},
		{
			name:          "over withdraw liquidity",
			detail:        "withdrawing more liquidity than the slot holds is rejected",
			pool:          pool,
			liquidity:     1301,
			lpTokens:      1,
			errorContains: "insufficient liquidity",
		},
		{
			name:          "lp checked first",
			detail:        "lp tokens are checked before liquidity",
			pool:          pool,
			liquidity:     1301,
			lpTokens:      601,
			errorContains: "insufficient lp tokens",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			lp := NewLiquidityProvider(newTestKey(7), 255)
			lp.LiquidityPoolsInfo[2] = preset
			lp.TotalLiquidityProvided, lp.TotalLpTokens = preset.LiquidityAmount, preset.LpTokens
			before := *lp
			// execute the function call
			err := lp.ApplyWithdraw(test.pool, test.liquidity, test.lpTokens, testTime)
			// validate the expected error
			require.Equal(t, test.errorContains != "", err != nil, err)
			if err != nil {
				require.ErrorContains(t, err, test.errorContains)
				require.Equal(t, before, *lp)
				return
			}
			// validate the slot and the totals
			require.Equal(t, test.expected, lp.LiquidityPoolsInfo[2])
			require.Equal(t, before.TotalLiquidityProvided-test.liquidity, lp.TotalLiquidityProvided)
			require.Equal(t, before.TotalLpTokens-test.lpTokens, lp.TotalLpTokens)
			requireSlotSum(t, lp)
		})
	}
}

func TestSlotReuse(t *testing.T) {
	lp := NewLiquidityProvider(newTestKey(7), 255)
	first, second := newTestKey(1), newTestKey(2)
	// fill the first slot and release it
	require.NoError(t, lp.ApplyDeposit(first, newTestKey(3), 100, 10, testTime))
	require.NoError(t, lp.ApplyWithdraw(first, 100, 10, testTime))
	require.True(t, lp.LiquidityPoolsInfo[0].IsEmpty())
	// a deposit into another pool reuses the released slot
	require.NoError(t, lp.ApplyDeposit(second, newTestKey(4), 50, 5, testTime))
	require.Equal(t, 0, lp.Slot(second))
	require.Equal(t, -1, lp.Slot(first))
	requireSlotSum(t, lp)
}

// requireSlotSum() validates the slot lp tokens add up to the record total
func requireSlotSum(t *testing.T, lp *LiquidityProvider) {
	var sum uint64
	for _, slot := range lp.LiquidityPoolsInfo {
		sum += slot.LpTokens
	}
	require.Equal(t, lp.TotalLpTokens, sum)
}
