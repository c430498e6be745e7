package weavetest

import weave "github.com/michaelwinczuk/agent-contracts"

// Decorator passes every call to the next handler unless a failure is
// configured for it. Calls are counted either way.
type Decorator struct {
	calls int

	CheckErr   error
	DeliverErr error
}

var _ weave.Decorator = (*Decorator)(nil)

func (d *Decorator) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx, next weave.Checker) (*weave.CheckResult, error) {
	d.calls++
	if d.CheckErr != nil {
		return nil, d.CheckErr
	}
	return next.Check(ctx, db, tx)
}

func (d *Decorator) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx, next weave.Deliverer) (*weave.DeliverResult, error) {
	d.calls++
	if d.DeliverErr != nil {
		return nil, d.DeliverErr
	}
	return next.Deliver(ctx, db, tx)
}

// CallCount returns the number of Check and Deliver calls.
func (d *Decorator) CallCount() int {
	return d.calls
}
