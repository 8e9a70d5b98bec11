package store

import (
	"path/filepath"

	"github.com/canopy-network/rollup-pool/lib"
	"github.com/dgraph-io/badger/v4"
)

var _ lib.StoreI = &Store{} // enforce the Store interface

/*
The Store is a thin abstraction over a single BadgerDB instance holding one context's accounts.

A node keeps two of them: the 'base' store where the slow, final ledger lives, and the 'rollup' store
where delegated accounts are mutated quickly. Every read and write goes through one open read-write
badger transaction (the 'writer') that is committed by Commit() and dropped by Discard(). On top of
that, each instruction runs inside a Txn write set (see NewTxn()) so an instruction that fails half way
leaves no writes behind.

CONTRACT:
- not thread safe; the controller serializes access
- iterators are materialized and closed immediately because badger allows only one open iterator
  per read-write transaction
*/

type Store struct {
	name   string      // the name of the store, for logging
	db     *badger.DB  // underlying database
	writer *badger.Txn // the read-write transaction every operation goes through
	log    lib.LoggerI // logger
}

// New() creates a new instance of a StoreI either in memory or an actual disk DB
func New(config lib.StoreConfig, name string, l lib.LoggerI) (*Store, lib.ErrorI) {
	if config.InMemory {
		return NewStoreInMemory(name, l)
	}
	return NewStore(filepath.Join(config.DataDirPath, name), name, l)
}

// NewStore() creates a new instance of a disk DB
func NewStore(path, name string, log lib.LoggerI) (*Store, lib.ErrorI) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLoggingLevel(badger.ERROR).WithLogger(badgerLogger{log}))
	if err != nil {
		return nil, ErrOpenDB(err)
	}
	return NewStoreWithDB(db, name, log), nil
}

// NewStoreInMemory() creates a new instance of a mem DB
func NewStoreInMemory(name string, log lib.LoggerI) (*Store, lib.ErrorI) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLoggingLevel(badger.ERROR).WithLogger(badgerLogger{log}))
	if err != nil {
		return nil, ErrOpenDB(err)
	}
	return NewStoreWithDB(db, name, log), nil
}

// NewStoreWithDB() returns a Store object given a DB and a logger
func NewStoreWithDB(db *badger.DB, name string, log lib.LoggerI) *Store {
	return &Store{
		name:   name,
		db:     db,
		writer: db.NewTransaction(true),
		log:    log,
	}
}

// Name() returns the name of the store
func (s *Store) Name() string { return s.name }

// NewTxn() wraps the store in a discardable write set
func (s *Store) NewTxn() lib.TxnI { return NewTxn(s) }

// Get() returns the value bytes for a key, nil if the key doesn't exist
func (s *Store) Get(key []byte) ([]byte, lib.ErrorI) {
	item, err := s.writer.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, ErrStoreGet(err)
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return nil, ErrStoreGet(err)
	}
	return val, nil
}

// Set() sets the value bytes for a key
func (s *Store) Set(key, value []byte) lib.ErrorI {
	if err := s.writer.Set(key, value); err != nil {
		return ErrStoreSet(err)
	}
	return nil
}

// Delete() removes a key
func (s *Store) Delete(key []byte) lib.ErrorI {
	if err := s.writer.Delete(key); err != nil {
		return ErrStoreDelete(err)
	}
	return nil
}

// Iterator() returns every key under a prefix in lexicographical order
func (s *Store) Iterator(prefix []byte) (lib.IteratorI, lib.ErrorI) {
	return s.collect(prefix, false)
}

// RevIterator() returns every key under a prefix in reverse lexicographical order
func (s *Store) RevIterator(prefix []byte) (lib.IteratorI, lib.ErrorI) {
	return s.collect(prefix, true)
}

// collect() reads every pair under a prefix into memory and closes the badger iterator
func (s *Store) collect(prefix []byte, reverse bool) (lib.IteratorI, lib.ErrorI) {
	it := s.writer.NewIterator(badger.IteratorOptions{Prefix: prefix})
	defer it.Close()
	var pairs []kv
	for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		value, err := item.ValueCopy(nil)
		if err != nil {
			return nil, ErrIterator(err)
		}
		pairs = append(pairs, kv{key: item.KeyCopy(nil), value: value})
	}
	return newMemIterator(pairs, reverse), nil
}

// Commit() persists every write since the last commit and opens a new writer
func (s *Store) Commit() lib.ErrorI {
	if err := s.writer.Commit(); err != nil {
		// the writer is unusable after a failed commit
		s.writer = s.db.NewTransaction(true)
		return ErrCommitDB(err)
	}
	s.writer = s.db.NewTransaction(true)
	return nil
}

// Discard() drops every write since the last commit
func (s *Store) Discard() {
	s.writer.Discard()
	s.writer = s.db.NewTransaction(true)
}

// Close() discards pending writes and closes the database
func (s *Store) Close() lib.ErrorI {
	s.writer.Discard()
	if err := s.db.Close(); err != nil {
		return ErrCloseDB(err)
	}
	return nil
}

// badgerLogger adapts the project logger to the badger logging interface
type badgerLogger struct{ lib.LoggerI }

// Warningf() satisfies the badger.Logger interface
func (b badgerLogger) Warningf(format string, args ...interface{}) { b.Warnf(format, args...) }
