package utils

import (
	weave "github.com/michaelwinczuk/agent-contracts"
	"github.com/michaelwinczuk/agent-contracts/errors"
)

// Recovery converts a panic in any handler further down the chain into an
// ErrPanic error. A transaction that panics fails like any other and the
// node keeps running.
type Recovery struct{}

var _ weave.Decorator = Recovery{}

func NewRecovery() Recovery {
	return Recovery{}
}

func (Recovery) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx, next weave.Checker) (_ *weave.CheckResult, err error) {
	defer errors.Recover(&err)
	return next.Check(ctx, db, tx)
}

func (Recovery) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx, next weave.Deliverer) (_ *weave.DeliverResult, err error) {
	defer errors.Recover(&err)
	return next.Deliver(ctx, db, tx)
}
