package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/canopy-network/rollup-pool/fsm"
	"github.com/canopy-network/rollup-pool/lib"
	"github.com/canopy-network/rollup-pool/store"
	"github.com/stretchr/testify/require"
)

func TestDeliverPending(t *testing.T) {
	tests := []struct {
		name              string
		detail            string
		failures          map[uint64]int // sequence -> number of failed attempts before success
		cancelled         bool
		expectedDelivered int
		expectedCalls     []uint64
		expectedPending   []uint64 // sequences left in the outbox
		expectedAttempts  uint32   // recorded attempts of the first intent left
		errorContains     string
	}{
		{
			name:              "all delivered",
			detail:            "every intent is delivered in sequence order",
			expectedDelivered: 4,
			expectedCalls:     []uint64{0, 1, 2, 3},
		},
		{
			name:              "transient failure",
			detail:            "a delivery that fails fewer times than the attempt limit is retried to success",
			failures:          map[uint64]int{0: 2},
			expectedDelivered: 4,
			expectedCalls:     []uint64{0, 0, 0, 1, 2, 3},
		},
		{
			name:              "persistent failure",
			detail:            "an intent failing every attempt doesn't hold back another receipt",
			failures:          map[uint64]int{1: 100},
			expectedDelivered: 3,
			expectedCalls:     []uint64{0, 1, 1, 1, 2, 3},
			expectedPending:   []uint64{1},
			expectedAttempts:  1,
			errorContains:     "delivery of intent 1 failed",
		},
		{
			name:              "blocked receipt",
			detail:            "a failing mint holds back the close of its own receipt only",
			failures:          map[uint64]int{0: 100},
			expectedDelivered: 2,
			expectedCalls:     []uint64{0, 0, 0, 2, 3},
			expectedPending:   []uint64{0, 1},
			expectedAttempts:  1,
			errorContains:     "delivery of intent 0 failed",
		},
		{
			name:            "cancelled",
			detail:          "a cancelled context delivers nothing",
			cancelled:       true,
			expectedPending: []uint64{0, 1, 2, 3},
			errorContains:   "delivery of intent 0 failed",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			db := newTestStore(t)
			outbox := NewOutbox(db)
			require.NoError(t, outbox.Enqueue(newTestBundle(t, 2)))
			require.NoError(t, outbox.Enqueue(newTestBundle(t, 4)))
			require.NoError(t, db.Commit())
			invoker := &testInvoker{failures: test.failures}
			worker := NewWorker(newTestDispatchConfig(), db, invoker, nil, nil, lib.NewNullLogger())
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if test.cancelled {
				cancel()
			}
			// execute the function call
			delivered, err := worker.DeliverPending(ctx)
			require.Equal(t, test.errorContains != "", err != nil, err)
			if err != nil {
				require.ErrorContains(t, err, test.errorContains)
			}
			require.Equal(t, test.expectedDelivered, delivered)
			require.Equal(t, test.expectedCalls, invoker.calls)
			// validate the delivered intents are acknowledged and the rest stay in order
			pending, e := outbox.Pending(0)
			require.NoError(t, e)
			sequences := make([]uint64, 0, len(pending))
			for _, intent := range pending {
				sequences = append(sequences, intent.Sequence)
			}
			if test.expectedPending == nil {
				test.expectedPending = []uint64{}
			}
			require.Equal(t, test.expectedPending, sequences)
			if len(pending) != 0 && !test.cancelled {
				require.Equal(t, test.expectedAttempts, pending[0].Attempts)
			}
		})
	}
}

func TestWorkerRun(t *testing.T) {
	db := newTestStore(t)
	require.NoError(t, NewOutbox(db).Enqueue(newTestBundle(t, 2)))
	require.NoError(t, db.Commit())
	lock := &sync.Mutex{}
	invoker := &testInvoker{}
	config := newTestDispatchConfig()
	config.PollIntervalMS = 60_000
	worker := NewWorker(config, db, invoker, lock, nil, lib.NewNullLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- worker.Run(ctx) }()
	// a notification drains the outbox before the poll interval
	worker.Notify()
	require.Eventually(t, func() bool {
		lock.Lock()
		defer lock.Unlock()
		depth, err := NewOutbox(db).Depth()
		return err == nil && depth == 0
	}, time.Second, 5*time.Millisecond)
	// cancellation stops the worker cleanly
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestLocalInvoker(t *testing.T) {
	log := lib.NewNullLogger()
	db, err := store.NewStoreInMemory("base", log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	sm, err := fsm.New(lib.DefaultConfig(), fsm.BaseContext, db, nil, nil, log)
	require.NoError(t, err)
	provider := newTestKey(7)
	// closing a receipt that doesn't exist is a no-op, so the intent is delivered
	intent, err := NewCloseDepositReceiptIntent(sm.ProgramID(), provider, 0)
	require.NoError(t, err)
	require.NoError(t, NewOutbox(db).Enqueue(NewBundle(intent)))
	require.NoError(t, db.Commit())
	worker := NewWorker(newTestDispatchConfig(), db, NewLocalInvoker(sm), nil, nil, log)
	delivered, err := worker.DeliverPending(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, delivered)
	// an intent addressed to another program never lands
	other, err := NewCloseDepositReceiptIntent(newTestKey(99), provider, 0)
	require.NoError(t, err)
	require.ErrorContains(t, NewLocalInvoker(sm).Dispatch(context.Background(), other), "program")
}

// testInvoker records deliveries and fails a sequence a configured number of times
type testInvoker struct {
	failures map[uint64]int
	calls    []uint64
}

func (i *testInvoker) Dispatch(_ context.Context, intent *Intent) lib.ErrorI {
	i.calls = append(i.calls, intent.Sequence)
	if i.failures[intent.Sequence] > 0 {
		i.failures[intent.Sequence]--
		return ErrDeliveryFailed(intent.Sequence, errors.New("unavailable"))
	}
	return nil
}

// newTestDispatchConfig() returns delivery options with millisecond retries and 3 attempts
func newTestDispatchConfig() lib.DispatchConfig {
	config := lib.DefaultDispatchConfig()
	config.RetryInitialMS, config.RetryMaxMS, config.MaxAttempts = 1, 2, 3
	config.DeliveriesPerSec = 0
	return config
}
