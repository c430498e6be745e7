package deal

import (
	"context"
	"sync"
	"testing"
	"time"

	weave "github.com/michaelwinczuk/agent-contracts"
	"github.com/michaelwinczuk/agent-contracts/coin"
	"github.com/michaelwinczuk/agent-contracts/errors"
	"github.com/michaelwinczuk/agent-contracts/weavetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func newTestLedger(t testing.TB) (*Ledger, *fixture, *fakeClock) {
	t.Helper()
	f := newFixture(t)
	clock := &fakeClock{now: t0}
	return NewLedger(f.db, NewCashCustody(f.bank), clock.Now), f, clock
}

func TestLedgerLifecycle(t *testing.T) {
	l, f, clock := newTestLedger(t)
	ctx := context.Background()

	id, err := l.CreateDeal(ctx, f.buyer, f.provider, commitment, time.Hour, deposit)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), id)

	d, err := l.QueryDeal(id)
	require.NoError(t, err)
	assert.Equal(t, StateActive, d.State)
	assert.Equal(t, weave.AsUnixTime(t0.Add(time.Hour)), d.Deadline)

	clock.Set(t0.Add(100 * time.Second))
	err = l.ClaimRefund(ctx, f.buyer, id)
	assert.True(t, ErrDeadlineNotReached.Is(err), "%+v", err)

	clock.Set(t0.Add(3601 * time.Second))
	require.NoError(t, l.ClaimRefund(ctx, f.buyer, id))
	assert.Equal(t, coin.NewCoin(1, 0, "ETH"), f.balance(t, f.buyer))

	err = l.ConfirmDelivery(ctx, f.buyer, id)
	assert.True(t, errors.ErrState.Is(err), "%+v", err)

	_, err = l.QueryDeal(id + 1)
	assert.True(t, errors.ErrNotFound.Is(err), "%+v", err)

	byBuyer, err := l.DealsByBuyer(f.buyer)
	require.NoError(t, err)
	require.Len(t, byBuyer, 1)
	assert.Equal(t, StateRefunded, byBuyer[0].State)

	byProvider, err := l.DealsByProvider(f.provider)
	require.NoError(t, err)
	assert.Len(t, byProvider, 1)
}

func TestLedgerQueryReturnsIndependentDeals(t *testing.T) {
	l, f, _ := newTestLedger(t)
	id, err := l.CreateDeal(context.Background(), f.buyer, f.provider, commitment, time.Hour, deposit)
	require.NoError(t, err)

	d, err := l.QueryDeal(id)
	require.NoError(t, err)
	d.State = StateConfirmed
	d.Amount.Whole = 99
	d.Buyer[0] ^= 0xff

	listed, err := l.DealsByProvider(f.provider)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	listed[0].TaskCommitment[0] ^= 0xff

	stored, err := l.QueryDeal(id)
	require.NoError(t, err)
	assert.Equal(t, StateActive, stored.State)
	assert.True(t, stored.Amount.Equals(deposit))
	assert.Equal(t, f.buyer, stored.Buyer)
	assert.Equal(t, Digest(commitment), stored.TaskCommitment)
}

func TestLedgerClockIsMonotonic(t *testing.T) {
	l, f, clock := newTestLedger(t)
	ctx := context.Background()

	clock.Set(t0.Add(2 * time.Hour))
	id, err := l.CreateDeal(ctx, f.buyer, f.provider, commitment, time.Hour, deposit)
	require.NoError(t, err)

	// The clock going backwards does not move the deadline out of reach.
	clock.Set(t0)
	_, err = l.CreateDeal(ctx, f.buyer, f.provider, commitment, time.Hour, deposit)
	require.NoError(t, err)
	d, err := l.QueryDeal(1)
	require.NoError(t, err)
	assert.Equal(t, weave.AsUnixTime(t0.Add(2*time.Hour)), d.CreatedAt)

	clock.Set(t0.Add(3 * time.Hour))
	require.NoError(t, l.ClaimRefund(ctx, f.buyer, id))
}

func TestLedgerConcurrentCreate(t *testing.T) {
	l, f, _ := newTestLedger(t)
	ctx := context.Background()
	small := coin.NewCoin(0, 1000000, "ETH")

	const workers = 32
	ids := make(chan uint64, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := l.CreateDeal(ctx, f.buyer, f.provider, commitment, time.Hour, small)
			if err != nil {
				t.Errorf("create: %+v", err)
				return
			}
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[uint64]bool)
	for id := range ids {
		assert.False(t, seen[id], "id %d allocated twice", id)
		seen[id] = true
	}
	assert.Len(t, seen, workers)
	for id := uint64(0); id < workers; id++ {
		assert.True(t, seen[id], "id %d missing", id)
	}
	// 32 * 0.001 ETH locked
	assert.Equal(t, coin.NewCoin(0, 968000000, "ETH"), f.balance(t, f.buyer))
}

func TestLedgerConcurrentSettle(t *testing.T) {
	l, f, clock := newTestLedger(t)
	ctx := context.Background()

	id, err := l.CreateDeal(ctx, f.buyer, f.provider, commitment, time.Hour, deposit)
	require.NoError(t, err)
	clock.Set(t0.Add(2 * time.Hour))

	// Confirm and refund race. Exactly one wins and the deposit is paid
	// once.
	results := make(chan error, 2)
	go func() { results <- l.ConfirmDelivery(ctx, f.buyer, id) }()
	go func() { results <- l.ClaimRefund(ctx, f.buyer, id) }()

	var failed int
	for i := 0; i < 2; i++ {
		if err := <-results; err != nil {
			assert.True(t, errors.ErrState.Is(err), "%+v", err)
			failed++
		}
	}
	assert.Equal(t, 1, failed)

	d, err := l.QueryDeal(id)
	require.NoError(t, err)
	total, err := f.balance(t, f.buyer).Add(f.balance(t, f.provider))
	require.NoError(t, err)
	assert.Equal(t, coin.NewCoin(1, 0, "ETH"), total)
	assert.True(t, d.State.IsTerminal())
}

func TestLedgerUpdateIsAtomic(t *testing.T) {
	l, f, _ := newTestLedger(t)

	err := l.Update(context.Background(), func(ctx weave.Context, db weave.KVStore) error {
		if _, err := l.ctrl.Create(ctx, db, f.buyer, f.provider, commitment, time.Hour, deposit); err != nil {
			return err
		}
		return errors.Wrap(errors.ErrHuman, "abort")
	})
	require.True(t, errors.ErrHuman.Is(err))

	_, err = l.QueryDeal(0)
	assert.True(t, errors.ErrNotFound.Is(err))
	assert.Equal(t, coin.NewCoin(1, 0, "ETH"), f.balance(t, f.buyer))
}

func TestLedgerUnauthorizedCaller(t *testing.T) {
	l, f, _ := newTestLedger(t)
	ctx := context.Background()
	id, err := l.CreateDeal(ctx, f.buyer, f.provider, commitment, time.Hour, deposit)
	require.NoError(t, err)

	err = l.ConfirmDelivery(ctx, weavetest.NewCondition().Address(), id)
	assert.True(t, errors.ErrUnauthorized.Is(err), "%+v", err)
	err = l.ConfirmDelivery(ctx, f.provider, id)
	assert.True(t, errors.ErrUnauthorized.Is(err), "%+v", err)
}
