package deal

import (
	"context"
	"sync"
	"time"

	weave "github.com/michaelwinczuk/agent-contracts"
	"github.com/michaelwinczuk/agent-contracts/coin"
	"github.com/michaelwinczuk/agent-contracts/errors"
)

// Clock returns the current time.
type Clock func() time.Time

// Ledger owns a store of deals together with the custody ledger and the
// clock. It is safe for concurrent use: mutations are serialized and every
// mutation is applied completely or not at all.
type Ledger struct {
	mu    sync.RWMutex
	db    weave.CacheableKVStore
	ctrl  *Controller
	clock Clock
	// last is the latest time handed out, used to keep the clock monotonic.
	last time.Time
}

// NewLedger returns a ledger operating on db. Deposits are kept by custody,
// which reads the time provided by clock.
func NewLedger(db weave.CacheableKVStore, custody Custody, clock Clock) *Ledger {
	if clock == nil {
		clock = time.Now
	}
	return &Ledger{
		db:    db,
		ctrl:  NewController(custody),
		clock: clock,
	}
}

// CreateDeal locks deposit from the caller and returns the id of the new
// deal.
func (l *Ledger) CreateDeal(ctx context.Context, caller, provider weave.Address, commitment []byte, duration time.Duration, deposit coin.Coin) (uint64, error) {
	var id uint64
	err := l.Update(ctx, func(ctx weave.Context, db weave.KVStore) error {
		d, err := l.ctrl.Create(ctx, db, caller, provider, commitment, duration, deposit)
		if err != nil {
			return err
		}
		id = d.ID
		return nil
	})
	return id, err
}

// ConfirmDelivery releases the deposit of the deal to its provider.
func (l *Ledger) ConfirmDelivery(ctx context.Context, caller weave.Address, id uint64) error {
	return l.Update(ctx, func(ctx weave.Context, db weave.KVStore) error {
		_, err := l.ctrl.Confirm(ctx, db, caller, id)
		return err
	})
}

// ClaimRefund returns the deposit of an expired deal to its buyer.
func (l *Ledger) ClaimRefund(ctx context.Context, caller weave.Address, id uint64) error {
	return l.Update(ctx, func(ctx weave.Context, db weave.KVStore) error {
		_, err := l.ctrl.ClaimRefund(ctx, db, caller, id)
		return err
	})
}

// QueryDeal returns the deal with given id. No authorization is required.
func (l *Ledger) QueryDeal(id uint64) (*Deal, error) {
	var d *Deal
	err := l.View(func(db weave.ReadOnlyKVStore) (err error) {
		d, err = l.ctrl.Deal(db, id)
		return err
	})
	return d, err
}

// DealsByBuyer returns all deals of given buyer, oldest first.
func (l *Ledger) DealsByBuyer(buyer weave.Address) ([]Deal, error) {
	var deals []Deal
	err := l.View(func(db weave.ReadOnlyKVStore) (err error) {
		deals, err = l.ctrl.DealsByBuyer(db, buyer)
		return err
	})
	return deals, err
}

// DealsByProvider returns all deals of given provider, oldest first.
func (l *Ledger) DealsByProvider(provider weave.Address) ([]Deal, error) {
	var deals []Deal
	err := l.View(func(db weave.ReadOnlyKVStore) (err error) {
		deals, err = l.ctrl.DealsByProvider(db, provider)
		return err
	})
	return deals, err
}

// Update runs fn with exclusive access to the store. Changes are written
// only if fn succeeds. The context passed to fn carries the current time.
func (l *Ledger) Update(ctx context.Context, fn func(weave.Context, weave.KVStore) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	ctx = weave.WithBlockTime(ctx, l.now())
	cache := l.db.CacheWrap()
	if err := fn(ctx, cache); err != nil {
		cache.Discard()
		return err
	}
	return errors.Wrap(cache.Write(), "cannot write ledger changes")
}

// View runs fn with shared, read only access to the store.
func (l *Ledger) View(fn func(weave.ReadOnlyKVStore) error) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return fn(l.db)
}

// now must be called with the write lock held.
func (l *Ledger) now() time.Time {
	t := l.clock()
	if t.Before(l.last) {
		t = l.last
	}
	l.last = t
	return t
}
