package dispatch

import (
	"testing"

	"github.com/canopy-network/rollup-pool/lib"
	"github.com/canopy-network/rollup-pool/store"
	"github.com/stretchr/testify/require"
)

func TestOutboxEnqueue(t *testing.T) {
	outbox := NewOutbox(newTestStore(t))
	// enqueue two bundles
	first := newTestBundle(t, 2)
	second := newTestBundle(t, 3)
	require.NoError(t, outbox.Enqueue(first))
	require.NoError(t, outbox.Enqueue(second))
	// validate sequences are assigned across bundles in order
	pending, err := outbox.Pending(0)
	require.NoError(t, err)
	require.Len(t, pending, 4)
	for i, intent := range pending {
		require.Equal(t, uint64(i), intent.Sequence)
	}
	require.Equal(t, first.Intents[0].Name(), pending[0].Name())
	require.Equal(t, first.Intents[1].Name(), pending[1].Name())
	require.Equal(t, second.Intents[0].AccountRefs, pending[2].AccountRefs)
	// validate the limit
	limited, err := outbox.Pending(3)
	require.NoError(t, err)
	require.Len(t, limited, 3)
	depth, err := outbox.Depth()
	require.NoError(t, err)
	require.Equal(t, 4, depth)
}

func TestOutboxEnqueueInvalid(t *testing.T) {
	outbox := NewOutbox(newTestStore(t))
	bundle := newTestBundle(t, 2)
	// a bundle that closes before minting is never queued
	bundle.Intents[0], bundle.Intents[1] = bundle.Intents[1], bundle.Intents[0]
	require.ErrorContains(t, outbox.Enqueue(bundle), "before consuming it")
	depth, err := outbox.Depth()
	require.NoError(t, err)
	require.Zero(t, depth)
	// an empty bundle is a no-op
	require.NoError(t, outbox.Enqueue(NewBundle()))
	require.NoError(t, outbox.Enqueue(nil))
}

func TestOutboxAckAndAttempt(t *testing.T) {
	outbox := NewOutbox(newTestStore(t))
	require.NoError(t, outbox.Enqueue(newTestBundle(t, 2)))
	// record a failed attempt
	require.NoError(t, outbox.MarkAttempt(0))
	require.NoError(t, outbox.MarkAttempt(0))
	intent, err := outbox.Get(0)
	require.NoError(t, err)
	require.Equal(t, uint32(2), intent.Attempts)
	// acknowledge the head
	require.NoError(t, outbox.Ack(0))
	_, err = outbox.Get(0)
	require.ErrorContains(t, err, "not found")
	require.ErrorContains(t, outbox.MarkAttempt(0), "not found")
	pending, err := outbox.Pending(0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, uint64(1), pending[0].Sequence)
	// sequences keep growing after an ack
	require.NoError(t, outbox.Enqueue(newTestBundle(t, 4)))
	pending, err = outbox.Pending(0)
	require.NoError(t, err)
	require.Equal(t, uint64(2), pending[1].Sequence)
}

func TestOutboxTxn(t *testing.T) {
	db := newTestStore(t)
	txn := db.NewTxn()
	// enqueue inside a write set
	require.NoError(t, NewOutbox(txn).Enqueue(newTestBundle(t, 2)))
	depth, err := NewOutbox(db).Depth()
	require.NoError(t, err)
	require.Zero(t, depth)
	// a discarded write set queues nothing
	txn.Discard()
	depth, err = NewOutbox(db).Depth()
	require.NoError(t, err)
	require.Zero(t, depth)
	// a written one queues the whole bundle
	txn = db.NewTxn()
	require.NoError(t, NewOutbox(txn).Enqueue(newTestBundle(t, 2)))
	require.NoError(t, txn.Write())
	depth, err = NewOutbox(db).Depth()
	require.NoError(t, err)
	require.Equal(t, 2, depth)
}

// newTestBundle() returns a deposit bundle for a provider filled with one byte
func newTestBundle(t *testing.T, provider byte) *Bundle {
	bundle, err := NewDepositBundle(newTestKey(1), newTestKey(provider), newTestKey(3), 0)
	require.NoError(t, err)
	return bundle
}

// newTestStore() returns an in-memory store closed with the test
func newTestStore(t *testing.T) lib.StoreI {
	db, err := store.NewStoreInMemory("base", lib.NewNullLogger())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}
