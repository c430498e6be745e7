package utils

import (
	weave "github.com/michaelwinczuk/agent-contracts"
)

// ActionKey is used by ActionTagger as the Key in the Tag it appends
const ActionKey = "action"

// ActionTagger adds a tag `action = msg.Path()` to every successful
// delivery, so that clients can search for or subscribe to a kind of
// operation, for example all deal confirmations.
type ActionTagger struct{}

var _ weave.Decorator = ActionTagger{}

// NewActionTagger creates a ActionTagger decorator
func NewActionTagger() ActionTagger {
	return ActionTagger{}
}

// Check just passes the request along
func (ActionTagger) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx, next weave.Checker) (*weave.CheckResult, error) {
	return next.Check(ctx, db, tx)
}

// Deliver appends a tag on the result if there is a success.
func (ActionTagger) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx, next weave.Deliverer) (*weave.DeliverResult, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, err
	}
	res, err := next.Deliver(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if msg != nil {
		res.AddTag([]byte(ActionKey), []byte(msg.Path()))
	}
	return res, nil
}
