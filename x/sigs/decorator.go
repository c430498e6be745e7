package sigs

import (
	weave "github.com/michaelwinczuk/agent-contracts"
	"github.com/michaelwinczuk/agent-contracts/errors"
)

const signatureVerifyCost = 500

// RegisterQuery will register this bucket as "/auth"
func RegisterQuery(qr weave.QueryRouter) {
	NewBucket().Register("auth", qr)
}

// Decorator verifies the signatures and adds them to the context
type Decorator struct {
	allowMissingSigs bool
}

var _ weave.Decorator = Decorator{}

// NewDecorator returns a default authentication decorator,
// which appends the chainID before checking the signature,
// and requires at least one signature to be present
func NewDecorator() Decorator {
	return Decorator{}
}

// AllowMissingSigs allows us to pass along items with no signatures
func (d Decorator) AllowMissingSigs() Decorator {
	d.allowMissingSigs = true
	return d
}

// Check verifies signatures before calling down the stack.
func (d Decorator) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx, next weave.Checker) (*weave.CheckResult, error) {
	ctx, n, err := d.authenticate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	res, err := next.Check(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	// Charge for the signature validation, the most expensive part.
	res.GasAllocated += int64(n * signatureVerifyCost)
	return res, nil
}

// Deliver verifies signatures before calling down the stack.
func (d Decorator) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx, next weave.Deliverer) (*weave.DeliverResult, error) {
	ctx, _, err := d.authenticate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	return next.Deliver(ctx, db, tx)
}

func (d Decorator) authenticate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (weave.Context, int, error) {
	stx, ok := tx.(SignedTx)
	if !ok {
		if d.allowMissingSigs {
			return ctx, 0, nil
		}
		return nil, 0, errors.Wrap(errors.ErrUnauthorized, "transaction is not signed")
	}

	signers, err := VerifyTxSignatures(db, stx, weave.GetChainID(ctx))
	if err != nil {
		return nil, 0, errors.Wrap(err, "cannot verify signatures")
	}
	if len(signers) == 0 && !d.allowMissingSigs {
		return nil, 0, errors.Wrap(errors.ErrUnauthorized, "missing signature")
	}
	return withSigners(ctx, signers), len(signers), nil
}
