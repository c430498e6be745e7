package cash

import (
	weave "github.com/michaelwinczuk/agent-contracts"
	"github.com/michaelwinczuk/agent-contracts/errors"
	"github.com/michaelwinczuk/agent-contracts/x"
)

const sendTxCost int64 = 100

// RegisterRoutes will instantiate and register
// all handlers in this package
func RegisterRoutes(r weave.Registry, auth x.Authenticator, control Controller) {
	r.Handle(SendMsg{}.Path(), NewSendHandler(auth, control))
}

// RegisterQuery will register this bucket as "/wallets"
func RegisterQuery(qr weave.QueryRouter) {
	NewBucket().Register("wallets", qr)
}

// SendHandler will handle sending coins
type SendHandler struct {
	auth    x.Authenticator
	control Controller
}

var _ weave.Handler = SendHandler{}

// NewSendHandler creates a handler for SendMsg
func NewSendHandler(auth x.Authenticator, control Controller) SendHandler {
	return SendHandler{
		auth:    auth,
		control: control,
	}
}

// Check just verifies it is properly formed and returns
// the cost of executing it. Funds are not checked.
func (h SendHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, err := h.validate(ctx, tx); err != nil {
		return nil, err
	}
	return weave.NewCheck(sendTxCost, ""), nil
}

// Deliver moves the tokens from source to destination if
// all preconditions are met
func (h SendHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, err := h.validate(ctx, tx)
	if err != nil {
		return nil, err
	}
	if err := h.control.MoveCoins(db, msg.Source, msg.Destination, *msg.Amount); err != nil {
		return nil, err
	}
	res := &weave.DeliverResult{}
	res.AddTag([]byte("cash/sender"), []byte(msg.Source.String()))
	res.AddTag([]byte("cash/recipient"), []byte(msg.Destination.String()))
	return res, nil
}

func (h SendHandler) validate(ctx weave.Context, tx weave.Tx) (*SendMsg, error) {
	var msg SendMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Source) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "account owner signature missing")
	}
	return &msg, nil
}
