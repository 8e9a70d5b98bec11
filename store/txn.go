package store

import (
	"bytes"
	"sort"
	"strings"

	"github.com/canopy-network/rollup-pool/lib"
)

// enforce the TxnI interface
var _ lib.TxnI = &Txn{}

/*
	Txn acts like a database transaction
	It saves set/del operations in memory and allows the caller to Write() to the parent or Discard()
	When read from, it merges with the parent as if Write() had already been called

	Every instruction of the state machine runs in its own Txn, so a failing instruction is rolled back
	by simply discarding the write set.

	CONTRACT:
	- Write() is only atomic when the parent is itself a discardable writer (a Store or another Txn)
	- not thread safe
	- deleted values are shadowed until Write()
*/

type Txn struct {
	parent lib.RWStoreI  // store to Write() to
	ops    map[string]op // [string(key)] -> set/del operations saved in memory
	sorted []string      // ops keys sorted lexicographically; needed for ordered writes and iteration
}

// op or Operation has the value portion of the operation and if it's a *delete* or a *set*
type op struct {
	value  []byte // value of key value pair
	delete bool   // is operation delete
}

// NewTxn() creates a new instance of a Txn with the specified parent store
func NewTxn(parent lib.RWStoreI) *Txn {
	return &Txn{parent: parent, ops: make(map[string]op)}
}

// Get() retrieves the value for a given key from either the in-memory operations or the parent store
func (t *Txn) Get(key []byte) ([]byte, lib.ErrorI) {
	if v, found := t.ops[string(key)]; found {
		if v.delete {
			return nil, nil
		}
		return bytes.Clone(v.value), nil
	}
	return t.parent.Get(key)
}

// Set() adds or updates the value for a key in the in-memory operations
func (t *Txn) Set(key, value []byte) lib.ErrorI {
	if len(key) == 0 {
		return ErrInvalidKey()
	}
	t.update(string(key), bytes.Clone(value), false)
	return nil
}

// Delete() marks a key for deletion in the in-memory operations
func (t *Txn) Delete(key []byte) lib.ErrorI {
	if len(key) == 0 {
		return ErrInvalidKey()
	}
	t.update(string(key), nil, true)
	return nil
}

// update() modifies or adds an operation for a key in the in-memory operations and maintains order
func (t *Txn) update(key string, v []byte, delete bool) {
	if _, found := t.ops[key]; !found {
		// insert the key keeping lexicographical order
		i := sort.SearchStrings(t.sorted, key)
		t.sorted = append(t.sorted, "")
		copy(t.sorted[i+1:], t.sorted[i:])
		t.sorted[i] = key
	}
	t.ops[key] = op{value: v, delete: delete}
}

// Iterator() returns an iterator over the merged view of the parent and the in-memory operations
func (t *Txn) Iterator(prefix []byte) (lib.IteratorI, lib.ErrorI) { return t.merge(prefix, false) }

// RevIterator() returns a reverse iterator over the merged view of the parent and the in-memory operations
func (t *Txn) RevIterator(prefix []byte) (lib.IteratorI, lib.ErrorI) { return t.merge(prefix, true) }

// merge() walks the parent and the sorted operations side by side, letting the operations shadow the parent
func (t *Txn) merge(prefix []byte, reverse bool) (lib.IteratorI, lib.ErrorI) {
	parent, err := t.parent.Iterator(prefix)
	if err != nil {
		return nil, err
	}
	defer parent.Close()
	// position the operations at the first key with the prefix
	p := string(prefix)
	i := sort.SearchStrings(t.sorted, p)
	var pairs []kv
	for {
		txnValid := i < len(t.sorted) && strings.HasPrefix(t.sorted[i], p)
		if !txnValid && !parent.Valid() {
			break
		}
		// decide which side holds the next key
		cmp := -1
		if txnValid && parent.Valid() {
			cmp = bytes.Compare([]byte(t.sorted[i]), parent.Key())
		} else if !txnValid {
			cmp = 1
		}
		switch cmp {
		case 1: // use parent
			pairs = append(pairs, kv{key: bytes.Clone(parent.Key()), value: bytes.Clone(parent.Value())})
			parent.Next()
		case 0: // the operation shadows the parent
			parent.Next()
			fallthrough
		case -1: // use txn
			if o := t.ops[t.sorted[i]]; !o.delete {
				pairs = append(pairs, kv{key: []byte(t.sorted[i]), value: bytes.Clone(o.value)})
			}
			i++
		}
	}
	return newMemIterator(pairs, reverse), nil
}

// Discard() clears all in-memory operations
func (t *Txn) Discard() { t.ops, t.sorted = make(map[string]op), nil }

// Write() flushes the in-memory operations to the parent store in key order and clears in-memory changes
func (t *Txn) Write() (err lib.ErrorI) {
	for _, k := range t.sorted {
		v := t.ops[k]
		if v.delete {
			if err = t.parent.Delete([]byte(k)); err != nil {
				return
			}
		} else {
			if err = t.parent.Set([]byte(k), v.value); err != nil {
				return
			}
		}
	}
	t.Discard()
	return
}
