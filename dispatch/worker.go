package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/canopy-network/rollup-pool/lib"
	"github.com/cenkalti/backoff/v4"
	"github.com/gagliardetto/solana-go"
	"golang.org/x/time/rate"
)

/* This file implements the worker that drains the outbox into the base context */

// Worker delivers queued intents in sequence order
// an intent that can't be delivered blocks the later intents of the same receipt, so a close never overtakes the
// mint or payout before it, while other receipts keep flowing
type Worker struct {
	config  lib.DispatchConfig
	db      lib.StoreI    // the base context store the outbox lives in
	invoker InvokerI      // delivers one intent
	lock    sync.Locker   // serializes store access with the rest of the node
	limiter *rate.Limiter // bounds the delivery rate
	notify  chan struct{} // wakes the worker before the next poll
	metrics *lib.Metrics
	log     lib.LoggerI
}

// NewWorker() creates a delivery worker over the base context store
func NewWorker(config lib.DispatchConfig, db lib.StoreI, invoker InvokerI, lock sync.Locker, metrics *lib.Metrics, log lib.LoggerI) *Worker {
	limit := rate.Inf
	if config.DeliveriesPerSec > 0 {
		limit = rate.Limit(config.DeliveriesPerSec)
	}
	burst := config.DeliveryBurst
	if burst <= 0 {
		burst = 1
	}
	if lock == nil {
		lock = &sync.Mutex{}
	}
	return &Worker{
		config:  config,
		db:      db,
		invoker: invoker,
		lock:    lock,
		limiter: rate.NewLimiter(limit, burst),
		notify:  make(chan struct{}, 1),
		metrics: metrics,
		log:     log.WithModule("dispatch"),
	}
}

// Run() drains the outbox on every poll interval or notification until the context is cancelled
func (w *Worker) Run(ctx context.Context) error {
	interval := time.Duration(w.config.PollIntervalMS) * time.Millisecond
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	w.log.Infof("Delivery worker started, polling every %s", interval)
	for {
		select {
		case <-ctx.Done():
			w.log.Info("Delivery worker stopped")
			return nil
		case <-ticker.C:
		case <-w.notify:
		}
		if _, err := w.DeliverPending(ctx); err != nil && ctx.Err() == nil {
			w.log.Warnf("Outbox drain stopped: %s", err.Error())
		}
	}
}

// Notify() asks the worker to drain the outbox without waiting for the next poll
func (w *Worker) Notify() {
	select {
	case w.notify <- struct{}{}:
	default:
	}
}

// DeliverPending() delivers queued intents in order; an intent that fails every retry blocks the later intents of
// its own receipt and the run moves on to the other receipts. The first failure is returned
func (w *Worker) DeliverPending(ctx context.Context) (delivered int, err lib.ErrorI) {
	w.lock.Lock()
	pending, err := NewOutbox(w.db).Pending(w.config.MaxDeliveryPerRun)
	w.lock.Unlock()
	if err != nil {
		return 0, err
	}
	defer w.updateDepth()
	blocked := make(map[solana.PublicKey]struct{})
	for _, intent := range pending {
		receipt := intent.receipt()
		if _, ok := blocked[receipt]; ok {
			continue
		}
		if e := w.deliver(ctx, intent); e != nil {
			blocked[receipt] = struct{}{}
			if err == nil {
				err = e
			}
			if ctx.Err() != nil {
				return
			}
			continue
		}
		delivered++
	}
	return
}

// deliver() delivers one intent with exponential backoff; the lock is only held while the store is touched
func (w *Worker) deliver(ctx context.Context, intent *Intent) lib.ErrorI {
	attempts := 0
	operation := func() error {
		if e := w.limiter.Wait(ctx); e != nil {
			return backoff.Permanent(e)
		}
		attempts++
		w.lock.Lock()
		defer w.lock.Unlock()
		if e := w.invoker.Dispatch(ctx, intent); e != nil {
			w.log.Debugf("Delivery of %s (%d) failed: %s", intent.Name(), intent.Sequence, e.Error())
			return e
		}
		// acknowledge in the same commit as the instruction effects
		if e := NewOutbox(w.db).Ack(intent.Sequence); e != nil {
			w.db.Discard()
			return e
		}
		return w.db.Commit()
	}
	err := backoff.Retry(operation, w.newBackOff(ctx))
	w.metrics.UpdateDelivery(err == nil, max(attempts-1, 0))
	if err == nil {
		w.log.Debugf("Delivered %s (%d)", intent.Name(), intent.Sequence)
		return nil
	}
	if attempts == 0 {
		return ErrDeliveryFailed(intent.Sequence, err)
	}
	// record the failure so the intent's history survives restarts
	w.lock.Lock()
	defer w.lock.Unlock()
	if e := NewOutbox(w.db).MarkAttempt(intent.Sequence); e != nil {
		w.log.Errorf("Marking attempt of intent %d failed: %s", intent.Sequence, e.Error())
	} else if e = w.db.Commit(); e != nil {
		w.log.Errorf("Committing attempt of intent %d failed: %s", intent.Sequence, e.Error())
	}
	return ErrDeliveryFailed(intent.Sequence, err)
}

// newBackOff() returns the retry policy of a single delivery
func (w *Worker) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Duration(w.config.RetryInitialMS) * time.Millisecond
	b.MaxInterval = time.Duration(w.config.RetryMaxMS) * time.Millisecond
	b.MaxElapsedTime = 0 // bounded by attempts instead
	var retries uint64
	if w.config.MaxAttempts > 1 {
		retries = w.config.MaxAttempts - 1
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, retries), ctx)
}

// updateDepth() publishes the outbox depth
func (w *Worker) updateDepth() {
	w.lock.Lock()
	defer w.lock.Unlock()
	if depth, err := NewOutbox(w.db).Depth(); err == nil {
		w.metrics.UpdateOutbox(depth)
	}
}
