package fsm

import (
	"runtime/debug"
	"time"

	"github.com/canopy-network/rollup-pool/ledger"
	"github.com/canopy-network/rollup-pool/lib"
	"github.com/gagliardetto/solana-go"
)

// Context identifies which side of the delegation boundary a state machine executes on
type Context uint8

const (
	BaseContext   Context = iota // the slow, final ledger
	RollupContext                // the fast, delegated context
)

// String() returns the name of the context
func (c Context) String() string {
	if c == RollupContext {
		return "rollup"
	}
	return "base"
}

// OwnershipGuardI reports which context currently holds write authority over program accounts
type OwnershipGuardI interface {
	// RequireBaseOwned() fails if any account is delegated
	RequireBaseOwned(accounts ...solana.PublicKey) lib.ErrorI
	// RequireDelegated() fails if any account isn't delegated
	RequireDelegated(accounts ...solana.PublicKey) lib.ErrorI
}

// StateMachine executes the pool program against the store of one context
// the base machine escrows tokens and runs follow-ups, the rollup machine mutates delegated pools and positions
type StateMachine struct {
	db    lib.StoreI   // the root store of the context
	store lib.RWStoreI // the store instructions currently read and write; a Txn while an instruction runs

	context           Context
	programID         solana.PublicKey
	transferAuthority solana.PublicKey
	authorityBump     uint8
	admin             solana.PublicKey
	guard             OwnershipGuardI
	clock             func() time.Time

	Config  lib.Config
	metrics *lib.Metrics
	log     lib.LoggerI
}

// New() creates a new instance of a StateMachine for a context
func New(c lib.Config, context Context, db lib.StoreI, guard OwnershipGuardI, metrics *lib.Metrics, log lib.LoggerI) (*StateMachine, lib.ErrorI) {
	programID, err := lib.PublicKeyFromString(c.ProgramID)
	if err != nil {
		return nil, err
	}
	// the admin is optional; without one pools can't be created or toggled
	var admin solana.PublicKey
	if c.Admin != "" {
		if admin, err = lib.PublicKeyFromString(c.Admin); err != nil {
			return nil, err
		}
	}
	authority, bump, err := lib.TransferAuthorityAddress(programID)
	if err != nil {
		return nil, err
	}
	return &StateMachine{
		db:                db,
		store:             db,
		context:           context,
		programID:         programID,
		transferAuthority: authority,
		authorityBump:     bump,
		admin:             admin,
		guard:             guard,
		clock:             time.Now,
		Config:            c,
		metrics:           metrics,
		log:               log.WithModule(context.String()),
	}, nil
}

// Apply() runs an instruction atomically: every write lands in a Txn that is written on success and
// discarded on error, so a failing instruction leaves no partial state behind
func (s *StateMachine) Apply(name string, instruction func() lib.ErrorI) (err lib.ErrorI) {
	// wrap the store in a discardable write set
	txn := s.TxnWrap()
	defer func() {
		// catch in case there's a panic
		if r := recover(); r != nil {
			s.log.Errorf("%s panicked: %v\n%s", name, r, string(debug.Stack()))
			err = lib.ErrPanic()
		}
		// restore the root store
		s.SetStore(s.db)
		if err != nil {
			txn.Discard()
			s.metrics.IncFailure(err)
			s.log.Warnf("%s failed: %s", name, err.Error())
			return
		}
		err = txn.Write()
	}()
	return instruction()
}

// TxnWrap() points the state machine at a fresh write set over the root store
func (s *StateMachine) TxnWrap() lib.TxnI {
	txn := s.db.NewTxn()
	s.SetStore(txn)
	return txn
}

// Ledger() returns the token capability bound to the current write set
func (s *StateMachine) Ledger() ledger.LedgerI { return ledger.New(s.store) }

// Set() upserts a key-value pair under a key
func (s *StateMachine) Set(k, v []byte) lib.ErrorI { return s.store.Set(k, v) }

// Get() retrieves a key-value pair under a key
// NOTE: returns (nil, nil) if no value is found for that key
func (s *StateMachine) Get(key []byte) ([]byte, lib.ErrorI) { return s.store.Get(key) }

// Delete() deletes a key-value pair under a key
func (s *StateMachine) Delete(key []byte) lib.ErrorI { return s.store.Delete(key) }

// IterateAndExecute() creates an iterator and executes a callback function for each key-value pair
func (s *StateMachine) IterateAndExecute(prefix []byte, callback func(key, value []byte) lib.ErrorI) lib.ErrorI {
	it, err := s.store.Iterator(prefix)
	if err != nil {
		return err
	}
	defer it.Close()
	for ; it.Valid(); it.Next() {
		if err = callback(it.Key(), it.Value()); err != nil {
			return err
		}
	}
	return nil
}

// requireContext() ensures an instruction only runs where it belongs
func (s *StateMachine) requireContext(instruction string, c Context) lib.ErrorI {
	if s.context != c {
		return ErrWrongContext(instruction, s.context)
	}
	return nil
}

// requireWritable() ensures this context holds write authority over the accounts
func (s *StateMachine) requireWritable(accounts ...solana.PublicKey) lib.ErrorI {
	if s.guard == nil {
		return nil
	}
	if s.context == RollupContext {
		return s.guard.RequireDelegated(accounts...)
	}
	return s.guard.RequireBaseOwned(accounts...)
}

// now() returns the unix timestamp of the state machine clock
func (s *StateMachine) now() int64 { return s.clock().Unix() }

func (s *StateMachine) Store() lib.RWStoreI                 { return s.store }
func (s *StateMachine) SetStore(store lib.RWStoreI)         { s.store = store }
func (s *StateMachine) Context() Context                    { return s.context }
func (s *StateMachine) ProgramID() solana.PublicKey         { return s.programID }
func (s *StateMachine) TransferAuthority() solana.PublicKey { return s.transferAuthority }
func (s *StateMachine) Admin() solana.PublicKey             { return s.admin }
func (s *StateMachine) SetClock(clock func() time.Time)     { s.clock = clock }
func (s *StateMachine) SetGuard(guard OwnershipGuardI)      { s.guard = guard }
func (s *StateMachine) Metrics() *lib.Metrics               { return s.metrics }
func (s *StateMachine) Log() lib.LoggerI                    { return s.log }
