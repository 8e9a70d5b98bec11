package dispatch

import (
	"github.com/canopy-network/rollup-pool/lib"
)

/* This file implements the persisted, ordered queue of follow-up intents */

var (
	outboxPrefix   = []byte{30} // store key prefix for queued intents
	sequencePrefix = []byte{31} // store key of the next intent sequence
)

// Outbox is a FIFO of intents persisted in the base context store
// the outbox is bound to whatever store it is handed, so enqueuing inside a Txn commits atomically with the caller
type Outbox struct {
	store lib.RWStoreI
}

// NewOutbox() creates an outbox over a store
func NewOutbox(store lib.RWStoreI) *Outbox { return &Outbox{store: store} }

// Enqueue() validates a bundle and appends its intents in order, assigning each a sequence
func (o *Outbox) Enqueue(bundle *Bundle) lib.ErrorI {
	if bundle == nil || len(bundle.Intents) == 0 {
		return nil
	}
	if err := bundle.Validate(); err != nil {
		return err
	}
	next, err := o.nextSequence()
	if err != nil {
		return err
	}
	for _, intent := range bundle.Intents {
		intent.Sequence, intent.Attempts = next, 0
		if err = o.set(intent); err != nil {
			return err
		}
		next++
	}
	return o.store.Set(lib.JoinLenPrefix(sequencePrefix), lib.FormatUint64(next))
}

// Get() returns a queued intent by its sequence
func (o *Outbox) Get(sequence uint64) (*Intent, lib.ErrorI) {
	bz, err := o.store.Get(keyForIntent(sequence))
	if err != nil {
		return nil, err
	}
	if bz == nil {
		return nil, ErrIntentNotFound(sequence)
	}
	intent := new(Intent)
	if err = lib.Unmarshal(bz, intent); err != nil {
		return nil, err
	}
	return intent, nil
}

// Pending() returns up to limit queued intents in sequence order; a limit of 0 returns all of them
func (o *Outbox) Pending(limit int) (intents []*Intent, err lib.ErrorI) {
	it, err := o.store.Iterator(lib.JoinLenPrefix(outboxPrefix))
	if err != nil {
		return nil, err
	}
	defer it.Close()
	for ; it.Valid(); it.Next() {
		if limit > 0 && len(intents) == limit {
			break
		}
		intent := new(Intent)
		if err = lib.Unmarshal(it.Value(), intent); err != nil {
			return nil, err
		}
		intents = append(intents, intent)
	}
	return
}

// Depth() returns the number of queued intents
func (o *Outbox) Depth() (int, lib.ErrorI) {
	intents, err := o.Pending(0)
	return len(intents), err
}

// Ack() removes a delivered intent
func (o *Outbox) Ack(sequence uint64) lib.ErrorI {
	return o.store.Delete(keyForIntent(sequence))
}

// MarkAttempt() records a failed delivery attempt of an intent
func (o *Outbox) MarkAttempt(sequence uint64) lib.ErrorI {
	intent, err := o.Get(sequence)
	if err != nil {
		return err
	}
	intent.Attempts++
	return o.set(intent)
}

// set() upserts an intent under its sequence
func (o *Outbox) set(intent *Intent) lib.ErrorI {
	bz, err := lib.Marshal(intent)
	if err != nil {
		return err
	}
	return o.store.Set(keyForIntent(intent.Sequence), bz)
}

// nextSequence() returns the sequence the next enqueued intent receives
func (o *Outbox) nextSequence() (uint64, lib.ErrorI) {
	bz, err := o.store.Get(lib.JoinLenPrefix(sequencePrefix))
	if err != nil || bz == nil {
		return 0, err
	}
	return lib.ParseUint64(bz), nil
}

// keyForIntent() returns the store key of an intent; big endian sequences keep the iteration order FIFO
func keyForIntent(sequence uint64) []byte {
	return lib.JoinLenPrefix(outboxPrefix, lib.FormatUint64(sequence))
}
