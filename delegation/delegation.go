package delegation

import (
	"sort"
	"time"

	"github.com/canopy-network/rollup-pool/dispatch"
	"github.com/canopy-network/rollup-pool/fsm"
	"github.com/canopy-network/rollup-pool/lib"
	"github.com/gagliardetto/solana-go"
)

/*
	This file implements the delegation controller: it moves write authority over program accounts between the
	base and the rollup context. Delegation copies the base bytes into the rollup store, a commit copies the rollup
	bytes back, and an undelegation does the same then releases the account.
*/

var _ fsm.OwnershipGuardI = &Controller{}

// delegationPrefix is the base store key prefix of delegation records
var delegationPrefix = []byte{20}

// Controller tracks which accounts are delegated and synchronizes their bytes across contexts
// NOTE: the controller isn't safe for concurrent use; callers serialize access with the stores
type Controller struct {
	base      lib.StoreI // the base context store; holds the delegation records and the outbox
	rollup    lib.StoreI // the rollup context store
	config    lib.RollupConfig
	validator solana.PublicKey // the default validator
	clock     func() time.Time
	metrics   *lib.Metrics
	log       lib.LoggerI
}

// New() creates a delegation controller over the base and rollup stores
func New(config lib.RollupConfig, base, rollup lib.StoreI, metrics *lib.Metrics, log lib.LoggerI) (*Controller, lib.ErrorI) {
	var validator solana.PublicKey
	if config.DefaultValidator != "" {
		var err lib.ErrorI
		if validator, err = lib.PublicKeyFromString(config.DefaultValidator); err != nil {
			return nil, err
		}
	}
	return &Controller{
		base:      base,
		rollup:    rollup,
		config:    config,
		validator: validator,
		clock:     time.Now,
		metrics:   metrics,
		log:       log.WithModule("delegation"),
	}, nil
}

// Delegate() hands write authority over an account to the rollup context
func (c *Controller) Delegate(account solana.PublicKey, config DelegateConfig) lib.ErrorI {
	return c.DelegateAccounts(config, account)
}

// DelegateAccounts() delegates every account or none of them
func (c *Controller) DelegateAccounts(config DelegateConfig, accounts ...solana.PublicKey) lib.ErrorI {
	accounts = dedupe(accounts)
	if len(accounts) == 0 {
		return ErrNoAccounts()
	}
	// apply the defaults
	if config.CommitFrequencyMS == 0 {
		config.CommitFrequencyMS = c.config.DefaultCommitFrequencyMS
	}
	if config.Validator.IsZero() {
		config.Validator = c.validator
	}
	baseTxn, rollupTxn := c.base.NewTxn(), c.rollup.NewTxn()
	now := c.clock().UnixMilli()
	for _, account := range accounts {
		d, err := getDelegation(baseTxn, account)
		if err != nil {
			return err
		}
		if d != nil {
			return ErrAlreadyDelegated(account)
		}
		// the account must exist in the base context
		bz, err := baseTxn.Get(lib.KeyForAccount(account))
		if err != nil {
			return err
		}
		if bz == nil {
			return ErrMissingAccount(account)
		}
		if err = rollupTxn.Set(lib.KeyForAccount(account), bz); err != nil {
			return err
		}
		if err = setDelegation(baseTxn, &Delegation{
			Account:           account,
			State:             Delegated,
			CommitFrequencyMS: config.CommitFrequencyMS,
			Validator:         config.Validator,
			DelegatedAt:       now,
		}); err != nil {
			return err
		}
		c.log.Debugf("Delegated %s to %s", account, config.Validator)
	}
	if err := writeAll(baseTxn, rollupTxn); err != nil {
		return err
	}
	c.updateMetrics(0, 0)
	return nil
}

// Commit() copies the rollup bytes of delegated accounts back to the base context and queues the follow-ups
// of the commit in the same base write set; the accounts stay delegated
func (c *Controller) Commit(accounts []solana.PublicKey, bundle *dispatch.Bundle) lib.ErrorI {
	return c.CommitAndRelease(accounts, nil, bundle)
}

// CommitAndUndelegate() commits the accounts, then returns write authority over them to the base context
func (c *Controller) CommitAndUndelegate(accounts []solana.PublicKey, bundle *dispatch.Bundle) lib.ErrorI {
	return c.CommitAndRelease(nil, accounts, bundle)
}

// CommitAndRelease() commits both account sets in one transition; the 'keep' accounts stay delegated and the
// 'release' accounts are undelegated
func (c *Controller) CommitAndRelease(keep, release []solana.PublicKey, bundle *dispatch.Bundle) lib.ErrorI {
	keep, release = dedupe(keep), dedupe(release)
	// an account both kept and released is released
	released := make(map[solana.PublicKey]struct{}, len(release))
	for _, account := range release {
		released[account] = struct{}{}
	}
	var committed []solana.PublicKey
	for _, account := range keep {
		if _, ok := released[account]; !ok {
			committed = append(committed, account)
		}
	}
	if len(committed)+len(release) == 0 {
		return ErrNoAccounts()
	}
	baseTxn, rollupTxn := c.base.NewTxn(), c.rollup.NewTxn()
	now := c.clock().UnixMilli()
	for _, account := range committed {
		d, err := c.commit(baseTxn, rollupTxn, account)
		if err != nil {
			return err
		}
		d.LastCommitAt, d.Commits = now, d.Commits+1
		if err = setDelegation(baseTxn, d); err != nil {
			return err
		}
	}
	for _, account := range release {
		if _, err := c.commit(baseTxn, rollupTxn, account); err != nil {
			return err
		}
		if err := baseTxn.Delete(keyForDelegation(account)); err != nil {
			return err
		}
		if err := rollupTxn.Delete(lib.KeyForAccount(account)); err != nil {
			return err
		}
		c.log.Debugf("Undelegated %s", account)
	}
	// queue the follow-ups atomically with the commit
	if err := dispatch.NewOutbox(baseTxn).Enqueue(bundle); err != nil {
		return err
	}
	if err := writeAll(baseTxn, rollupTxn); err != nil {
		return err
	}
	c.updateMetrics(len(committed)+len(release), len(release))
	return nil
}

// commit() copies the rollup bytes of a delegated account over its base bytes and returns its delegation
func (c *Controller) commit(baseTxn, rollupTxn lib.TxnI, account solana.PublicKey) (*Delegation, lib.ErrorI) {
	d, err := getDelegation(baseTxn, account)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, ErrNotDelegated(account)
	}
	key := lib.KeyForAccount(account)
	bz, err := rollupTxn.Get(key)
	if err != nil {
		return nil, err
	}
	// an account closed in the rollup context is closed in the base context
	if bz == nil {
		return d, baseTxn.Delete(key)
	}
	return d, baseTxn.Set(key, bz)
}

// GetDelegation() returns the delegation record of an account; a base owned account has an empty record
func (c *Controller) GetDelegation(account solana.PublicKey) (*Delegation, lib.ErrorI) {
	d, err := getDelegation(c.base, account)
	if err != nil || d != nil {
		return d, err
	}
	return &Delegation{Account: account, State: BaseOwned}, nil
}

// IsDelegated() returns true if the rollup context holds write authority over the account
func (c *Controller) IsDelegated(account solana.PublicKey) (bool, lib.ErrorI) {
	d, err := getDelegation(c.base, account)
	return d != nil, err
}

// Delegations() returns every delegated account in key order
func (c *Controller) Delegations() (delegations []*Delegation, err lib.ErrorI) {
	it, err := c.base.Iterator(lib.JoinLenPrefix(delegationPrefix))
	if err != nil {
		return nil, err
	}
	defer it.Close()
	for ; it.Valid(); it.Next() {
		d := new(Delegation)
		if err = lib.UnmarshalAccount(delegationDiscriminator, it.Value(), d); err != nil {
			return nil, err
		}
		delegations = append(delegations, d)
	}
	return
}

// DueForCommit() returns the delegated accounts whose commit frequency elapsed, most overdue first
func (c *Controller) DueForCommit(now time.Time) ([]solana.PublicKey, lib.ErrorI) {
	delegations, err := c.Delegations()
	if err != nil {
		return nil, err
	}
	var due []*Delegation
	for _, d := range delegations {
		if d.dueAt() <= now.UnixMilli() {
			due = append(due, d)
		}
	}
	sort.SliceStable(due, func(i, j int) bool { return due[i].dueAt() < due[j].dueAt() })
	accounts := make([]solana.PublicKey, 0, len(due))
	for _, d := range due {
		accounts = append(accounts, d.Account)
	}
	return accounts, nil
}

// RequireBaseOwned() fails if the rollup context holds write authority over any of the accounts
func (c *Controller) RequireBaseOwned(accounts ...solana.PublicKey) lib.ErrorI {
	for _, account := range accounts {
		delegated, err := c.IsDelegated(account)
		if err != nil {
			return err
		}
		if delegated {
			return ErrAccountDelegated(account)
		}
	}
	return nil
}

// RequireDelegated() fails if any of the accounts is base owned
func (c *Controller) RequireDelegated(accounts ...solana.PublicKey) lib.ErrorI {
	for _, account := range accounts {
		delegated, err := c.IsDelegated(account)
		if err != nil {
			return err
		}
		if !delegated {
			return ErrNotDelegated(account)
		}
	}
	return nil
}

// SetClock() overrides the clock delegations are stamped with
func (c *Controller) SetClock(clock func() time.Time) { c.clock = clock }

// updateMetrics() publishes the number of delegated accounts with the commit and undelegation counts
func (c *Controller) updateMetrics(commits, undelegations int) {
	if c.metrics == nil {
		return
	}
	delegations, err := c.Delegations()
	if err != nil {
		c.log.Warnf("Listing delegations failed: %s", err.Error())
		return
	}
	c.metrics.UpdateDelegation(len(delegations), commits, undelegations)
}

// getDelegation() reads a delegation record, nil if the account is base owned
func getDelegation(store lib.RStoreI, account solana.PublicKey) (*Delegation, lib.ErrorI) {
	bz, err := store.Get(keyForDelegation(account))
	if err != nil || bz == nil {
		return nil, err
	}
	d := new(Delegation)
	if err = lib.UnmarshalAccount(delegationDiscriminator, bz, d); err != nil {
		return nil, err
	}
	return d, nil
}

// setDelegation() upserts a delegation record
func setDelegation(store lib.WStoreI, d *Delegation) lib.ErrorI {
	bz, err := lib.MarshalAccount(delegationDiscriminator, DelegationSpace, d)
	if err != nil {
		return err
	}
	return store.Set(keyForDelegation(d.Account), bz)
}

// keyForDelegation() returns the base store key of a delegation record
func keyForDelegation(account solana.PublicKey) []byte {
	return lib.JoinLenPrefix(delegationPrefix, account.Bytes())
}

// writeAll() flushes write sets to their parents in order
func writeAll(txns ...lib.TxnI) lib.ErrorI {
	for _, txn := range txns {
		if err := txn.Write(); err != nil {
			return err
		}
	}
	return nil
}

// dedupe() removes repeated accounts, keeping the first occurrence
func dedupe(accounts []solana.PublicKey) (unique []solana.PublicKey) {
	seen := make(map[solana.PublicKey]struct{}, len(accounts))
	for _, account := range accounts {
		if _, ok := seen[account]; ok {
			continue
		}
		seen[account] = struct{}{}
		unique = append(unique, account)
	}
	return
}
