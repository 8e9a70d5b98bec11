package ledger

import (
	"testing"

	"github.com/canopy-network/rollup-pool/lib"
	"github.com/canopy-network/rollup-pool/store"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
)

type testAccounts struct {
	mint, otherMint, authority solana.PublicKey
	alice, bob                 solana.PublicKey // owners
	aliceAcc, bobAcc, otherAcc solana.PublicKey // token accounts
}

func newTestLedger(t *testing.T) (*Ledger, testAccounts) {
	s, err := store.NewStoreInMemory("ledger", lib.NewNullLogger())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	l := New(s)
	a := testAccounts{
		mint:      solana.NewWallet().PublicKey(),
		otherMint: solana.NewWallet().PublicKey(),
		authority: solana.NewWallet().PublicKey(),
		alice:     solana.NewWallet().PublicKey(),
		bob:       solana.NewWallet().PublicKey(),
		aliceAcc:  solana.NewWallet().PublicKey(),
		bobAcc:    solana.NewWallet().PublicKey(),
		otherAcc:  solana.NewWallet().PublicKey(),
	}
	require.NoError(t, l.CreateMint(a.mint, a.authority, 6))
	require.NoError(t, l.CreateMint(a.otherMint, a.authority, 6))
	require.NoError(t, l.CreateTokenAccount(a.aliceAcc, a.mint, a.alice))
	require.NoError(t, l.CreateTokenAccount(a.bobAcc, a.mint, a.bob))
	require.NoError(t, l.CreateTokenAccount(a.otherAcc, a.otherMint, a.alice))
	require.NoError(t, l.MintTo(a.mint, a.aliceAcc, a.authority, 1_000))
	return l, a
}

func TestCreate(t *testing.T) {
	l, a := newTestLedger(t)
	// duplicates are rejected
	require.ErrorContains(t, l.CreateMint(a.mint, a.authority, 6), "already in use")
	require.ErrorContains(t, l.CreateTokenAccount(a.aliceAcc, a.mint, a.alice), "already in use")
	// a token account needs an existing mint
	require.ErrorContains(t, l.CreateTokenAccount(solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(), a.alice), "not found")
	// reads
	m, err := l.GetMint(a.mint)
	require.NoError(t, err)
	require.Equal(t, uint8(6), m.Decimals)
	require.True(t, m.Initialized)
	acc, err := l.GetTokenAccount(a.aliceAcc)
	require.NoError(t, err)
	require.Equal(t, a.alice, acc.Owner)
}

func TestTransfer(t *testing.T) {
	tests := []struct {
		name          string
		detail        string
		from, to      func(a testAccounts) solana.PublicKey
		authority     func(a testAccounts) solana.PublicKey
		amount        uint64
		errorContains string
		expectedFrom  uint64
		expectedTo    uint64
	}{
		{
			name:         "transfer",
			detail:       "the owner moves tokens",
			from:         func(a testAccounts) solana.PublicKey { return a.aliceAcc },
			to:           func(a testAccounts) solana.PublicKey { return a.bobAcc },
			authority:    func(a testAccounts) solana.PublicKey { return a.alice },
			amount:       400,
			expectedFrom: 600,
			expectedTo:   400,
		},
		{
			name:          "insufficient funds",
			detail:        "the source doesn't hold the amount",
			from:          func(a testAccounts) solana.PublicKey { return a.aliceAcc },
			to:            func(a testAccounts) solana.PublicKey { return a.bobAcc },
			authority:     func(a testAccounts) solana.PublicKey { return a.alice },
			amount:        1_001,
			errorContains: "insufficient funds",
			expectedFrom:  1_000,
		},
		{
			name:          "wrong owner",
			detail:        "only the owner of the source can sign",
			from:          func(a testAccounts) solana.PublicKey { return a.aliceAcc },
			to:            func(a testAccounts) solana.PublicKey { return a.bobAcc },
			authority:     func(a testAccounts) solana.PublicKey { return a.bob },
			amount:        1,
			errorContains: "owner does not match",
			expectedFrom:  1_000,
		},
		{
			name:          "mint mismatch",
			detail:        "both accounts must hold the same mint",
			from:          func(a testAccounts) solana.PublicKey { return a.aliceAcc },
			to:            func(a testAccounts) solana.PublicKey { return a.otherAcc },
			authority:     func(a testAccounts) solana.PublicKey { return a.alice },
			amount:        1,
			errorContains: "not associated with this mint",
			expectedFrom:  1_000,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			l, a := newTestLedger(t)
			err := l.Transfer(test.from(a), test.to(a), test.authority(a), test.amount)
			if test.errorContains != "" {
				require.ErrorContains(t, err, test.errorContains, test.detail)
				require.Equal(t, lib.CodeLedger, err.Code())
				require.Equal(t, lib.LedgerModule, err.Module())
			} else {
				require.NoError(t, err, test.detail)
			}
			from, e := l.Balance(test.from(a))
			require.NoError(t, e)
			require.Equal(t, test.expectedFrom, from, test.detail)
			if test.errorContains == "" {
				to, e := l.Balance(test.to(a))
				require.NoError(t, e)
				require.Equal(t, test.expectedTo, to, test.detail)
			}
		})
	}
}

func TestMintToAndBurn(t *testing.T) {
	l, a := newTestLedger(t)
	// only the mint authority can mint
	require.ErrorContains(t, l.MintTo(a.mint, a.bobAcc, a.bob, 5), "invalid mint authority")
	require.NoError(t, l.MintTo(a.mint, a.bobAcc, a.authority, 5))
	supply, err := l.Supply(a.mint)
	require.NoError(t, err)
	require.EqualValues(t, 1_005, supply)
	// burns are signed by the account owner
	require.ErrorContains(t, l.Burn(a.mint, a.aliceAcc, a.authority, 1), "owner does not match")
	require.ErrorContains(t, l.Burn(a.mint, a.aliceAcc, a.alice, 1_001), "insufficient funds")
	require.ErrorContains(t, l.Burn(a.otherMint, a.aliceAcc, a.alice, 1), "not associated with this mint")
	require.NoError(t, l.Burn(a.mint, a.aliceAcc, a.alice, 100))
	supply, err = l.Supply(a.mint)
	require.NoError(t, err)
	require.EqualValues(t, 905, supply)
	balance, err := l.Balance(a.aliceAcc)
	require.NoError(t, err)
	require.EqualValues(t, 900, balance)
}

func TestLedgerRollsBackWithTxn(t *testing.T) {
	s, err := store.NewStoreInMemory("ledger", lib.NewNullLogger())
	require.NoError(t, err)
	defer s.Close()
	mint, authority, owner, account := solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(),
		solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()
	// create inside a write set and discard it
	txn := s.NewTxn()
	l := New(txn)
	require.NoError(t, l.CreateMint(mint, authority, 6))
	require.NoError(t, l.CreateTokenAccount(account, mint, owner))
	txn.Discard()
	// nothing was created
	_, err = New(s).GetMint(mint)
	require.ErrorContains(t, err, "not found")
}
