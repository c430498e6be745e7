package deal

import (
	"time"

	weave "github.com/michaelwinczuk/agent-contracts"
	"github.com/michaelwinczuk/agent-contracts/coin"
	"github.com/michaelwinczuk/agent-contracts/errors"
	"github.com/michaelwinczuk/agent-contracts/orm"
)

// Controller implements the deal lifecycle. Every operation takes the
// identity of the caller explicitly and is atomic: on failure neither the
// deal nor any balance is modified.
type Controller struct {
	bucket  orm.ModelBucket
	custody Custody
}

// NewController returns a controller keeping the deposits in given custody.
func NewController(custody Custody) *Controller {
	return &Controller{
		bucket:  NewBucket(),
		custody: custody,
	}
}

// Create locks the deposit of the buyer and stores a new active deal.
func (c *Controller) Create(ctx weave.Context, db weave.KVStore, buyer, provider weave.Address, commitment []byte, duration time.Duration, deposit coin.Coin) (*Deal, error) {
	if err := validateDurationTime(duration); err != nil {
		return nil, err
	}
	if err := validateDeposit(&deposit); err != nil {
		return nil, err
	}
	if err := buyer.Validate(); err != nil {
		return nil, errors.Wrap(err, "buyer")
	}

	now, err := c.custody.CurrentTime(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "current time")
	}

	var d *Deal
	err = atomically(db, func(db weave.KVStore) error {
		next, err := dealSeq.NextInt(db)
		if err != nil {
			return errors.Wrap(err, "cannot acquire id")
		}
		id := next - 1
		d = &Deal{
			Metadata:       &weave.Metadata{Schema: 1},
			ID:             id,
			Buyer:          buyer,
			Provider:       provider,
			TaskCommitment: append(Digest(nil), commitment...),
			Amount:         &deposit,
			Deadline:       now.Add(duration),
			State:          StateActive,
			CreatedAt:      now,
			Address:        Condition(id).Address(),
		}
		if err := d.Validate(); err != nil {
			return err
		}
		if err := c.custody.Lock(db, buyer, d.Address, deposit); err != nil {
			return err
		}
		return errors.Wrap(c.bucket.Put(db, Key(id), d), "cannot store deal")
	})
	if err != nil {
		return nil, err
	}
	weave.GetLogger(ctx).Info("deal created",
		"id", d.ID, "buyer", d.Buyer, "provider", d.Provider, "amount", d.Amount, "deadline", d.Deadline)
	return d, nil
}

// Confirm releases the deposit to the provider. Only the buyer can confirm
// and only while the deal is active. There is no deadline check.
func (c *Controller) Confirm(ctx weave.Context, db weave.KVStore, caller weave.Address, id uint64) (*Deal, error) {
	return c.settle(ctx, db, caller, id, StateConfirmed)
}

// ClaimRefund returns the deposit to the buyer. Only the buyer can claim and
// only while the deal is active and the deadline is reached.
func (c *Controller) ClaimRefund(ctx weave.Context, db weave.KVStore, caller weave.Address, id uint64) (*Deal, error) {
	return c.settle(ctx, db, caller, id, StateRefunded)
}

func (c *Controller) settle(ctx weave.Context, db weave.KVStore, caller weave.Address, id uint64, to State) (*Deal, error) {
	now, err := c.custody.CurrentTime(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "current time")
	}

	var d *Deal
	err = atomically(db, func(db weave.KVStore) error {
		found, err := c.Deal(db, id)
		if err != nil {
			return err
		}
		d = found
		if err := CanSettle(d, caller, now, to); err != nil {
			return err
		}

		recipient := d.Provider
		if to == StateRefunded {
			recipient = d.Buyer
		}
		if err := c.custody.Release(db, d.Address, recipient, *d.Amount); err != nil {
			return err
		}
		d.State = to
		d.SettledAt = now
		return errors.Wrap(c.bucket.Put(db, Key(id), d), "cannot store deal")
	})
	if err != nil {
		return nil, err
	}
	weave.GetLogger(ctx).Info("deal settled",
		"id", d.ID, "state", d.State, "buyer", d.Buyer, "provider", d.Provider, "amount", d.Amount)
	return d, nil
}

// CanSettle returns an error if caller cannot move the deal into given
// terminal state at time now. Preconditions are tested in order:
// authorization, state and then the deadline.
func CanSettle(d *Deal, caller weave.Address, now weave.UnixTime, to State) error {
	if !d.Buyer.Equals(caller) {
		return errors.Wrapf(errors.ErrUnauthorized, "only the buyer can settle deal %d", d.ID)
	}
	if d.State != StateActive {
		return errors.Wrapf(errors.ErrState, "deal %d is %s", d.ID, d.State)
	}
	switch to {
	case StateConfirmed:
		return nil
	case StateRefunded:
		if now < d.Deadline {
			return errors.Wrapf(ErrDeadlineNotReached, "deal %d expires at %s", d.ID, d.Deadline)
		}
		return nil
	default:
		return errors.Wrapf(errors.ErrHuman, "%s is not a terminal state", to)
	}
}

// Deal returns the deal with given id.
func (c *Controller) Deal(db weave.ReadOnlyKVStore, id uint64) (*Deal, error) {
	var d Deal
	if err := c.bucket.One(db, Key(id), &d); err != nil {
		return nil, errors.Wrapf(err, "deal %d", id)
	}
	return &d, nil
}

// DealsByBuyer returns all deals of given buyer, oldest first.
func (c *Controller) DealsByBuyer(db weave.ReadOnlyKVStore, buyer weave.Address) ([]Deal, error) {
	var deals []Deal
	if _, err := c.bucket.ByIndex(db, "buyer", buyer, &deals); err != nil {
		return nil, err
	}
	return deals, nil
}

// DealsByProvider returns all deals of given provider, oldest first.
func (c *Controller) DealsByProvider(db weave.ReadOnlyKVStore, provider weave.Address) ([]Deal, error) {
	var deals []Deal
	if _, err := c.bucket.ByIndex(db, "provider", provider, &deals); err != nil {
		return nil, err
	}
	return deals, nil
}

// atomically runs fn on a cache wrap of db. Changes are written only if fn
// succeeds.
func atomically(db weave.KVStore, fn func(weave.KVStore) error) error {
	cstore, ok := db.(weave.CacheableKVStore)
	if !ok {
		return fn(db)
	}
	cache := cstore.CacheWrap()
	if err := fn(cache); err != nil {
		cache.Discard()
		return err
	}
	return errors.Wrap(cache.Write(), "cannot write deal changes")
}
