package controller

import (
	"context"
	"sync"
	"time"

	"github.com/canopy-network/rollup-pool/delegation"
	"github.com/canopy-network/rollup-pool/dispatch"
	"github.com/canopy-network/rollup-pool/fsm"
	"github.com/canopy-network/rollup-pool/lib"
	"golang.org/x/sync/errgroup"
)

// Controller acts as the 'manager' of the modules of the pool node
type Controller struct {
	Base       *fsm.StateMachine      // executes in the base context
	Rollup     *fsm.StateMachine      // executes in the delegated context
	Delegation *delegation.Controller // moves write authority between the contexts
	Worker     *dispatch.Worker       // delivers follow-ups to the base context
	baseDB     lib.StoreI
	rollupDB   lib.StoreI
	Config     lib.Config
	metrics    *lib.Metrics
	log        lib.LoggerI
	cancel     context.CancelFunc
	group      *errgroup.Group
	*sync.Mutex
}

// New() creates a new instance of a Controller, this is the entry point when initializing a pool node
func New(c lib.Config, baseDB, rollupDB lib.StoreI, metrics *lib.Metrics, l lib.LoggerI) (*Controller, lib.ErrorI) {
	// the delegation controller guards both state machines
	deleg, err := delegation.New(c.RollupConfig, baseDB, rollupDB, metrics, l)
	if err != nil {
		return nil, err
	}
	base, err := fsm.New(c, fsm.BaseContext, baseDB, deleg, metrics, l)
	if err != nil {
		return nil, err
	}
	rollup, err := fsm.New(c, fsm.RollupContext, rollupDB, deleg, metrics, l)
	if err != nil {
		return nil, err
	}
	mux := &sync.Mutex{}
	return &Controller{
		Base:       base,
		Rollup:     rollup,
		Delegation: deleg,
		Worker:     dispatch.NewWorker(c.DispatchConfig, baseDB, dispatch.NewLocalInvoker(base), mux, metrics, l),
		baseDB:     baseDB,
		rollupDB:   rollupDB,
		Config:     c,
		metrics:    metrics,
		log:        l.WithModule("controller"),
		Mutex:      mux,
	}, nil
}

// Start() begins the Controller service: the commit scheduler and the delivery worker
func (c *Controller) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.group, ctx = errgroup.WithContext(ctx)
	c.group.Go(func() error { return c.Worker.Run(ctx) })
	c.group.Go(func() error { return c.runScheduler(ctx) })
	c.log.Info("Controller started")
}

// Stop() terminates the Controller service
func (c *Controller) Stop() {
	if c.cancel != nil {
		c.cancel()
		if err := c.group.Wait(); err != nil {
			c.log.Error(err.Error())
		}
	}
	c.Lock()
	defer c.Unlock()
	for _, db := range []lib.StoreI{c.baseDB, c.rollupDB} {
		if err := db.Close(); err != nil {
			c.log.Error(err.Error())
		}
	}
}

// runScheduler() commits delegated accounts whose commit frequency elapsed on every scheduler tick
func (c *Controller) runScheduler(ctx context.Context) error {
	tick := time.Duration(c.Config.SchedulerTickMS) * time.Millisecond
	if tick <= 0 {
		tick = time.Second
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if err := c.CommitDue(now); err != nil {
				c.log.Warnf("Scheduled commit failed: %s", err.Error())
			}
		}
	}
}

// CommitDue() commits every delegated account that is due at 'now'
func (c *Controller) CommitDue(now time.Time) lib.ErrorI {
	return c.execute(func() lib.ErrorI {
		due, err := c.Delegation.DueForCommit(now)
		if err != nil || len(due) == 0 {
			return err
		}
		c.log.Debugf("Committing %d due accounts", len(due))
		return c.Delegation.Commit(due, nil)
	})
}

// execute() runs an operation under the lock and persists both contexts, or neither on error
func (c *Controller) execute(operation func() lib.ErrorI) lib.ErrorI {
	c.Lock()
	defer c.Unlock()
	if err := operation(); err != nil {
		c.baseDB.Discard()
		c.rollupDB.Discard()
		return err
	}
	if err := c.baseDB.Commit(); err != nil {
		c.rollupDB.Discard()
		return err
	}
	return c.rollupDB.Commit()
}
