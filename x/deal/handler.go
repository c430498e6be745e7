package deal

import (
	"strconv"

	weave "github.com/michaelwinczuk/agent-contracts"
	"github.com/michaelwinczuk/agent-contracts/errors"
	"github.com/michaelwinczuk/agent-contracts/x"
)

const (
	createDealCost int64 = 300
	settleDealCost int64 = 100
)

// Tag keys of the events emitted on every transition. The value is the deal
// id in decimal.
const (
	TagCreated   = "deal/created"
	TagConfirmed = "deal/confirmed"
	TagRefunded  = "deal/refunded"
)

// RegisterRoutes will instantiate and register
// all handlers in this package
func RegisterRoutes(r weave.Registry, auth x.Authenticator, custody Custody) {
	ctrl := NewController(custody)
	r.Handle(pathCreate, CreateHandler{auth: auth, ctrl: ctrl})
	r.Handle(pathConfirm, ConfirmHandler{auth: auth, ctrl: ctrl})
	r.Handle(pathClaimRefund, ClaimRefundHandler{auth: auth, ctrl: ctrl})
}

// RegisterQuery exposes deals under "/deals", "/deals/buyer" and
// "/deals/provider".
func RegisterQuery(qr weave.QueryRouter) {
	NewBucket().Register("deals", qr)
}

// CreateHandler opens a new deal.
type CreateHandler struct {
	auth x.Authenticator
	ctrl *Controller
}

var _ weave.Handler = CreateHandler{}

func (h CreateHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, _, err := h.validate(ctx, tx); err != nil {
		return nil, err
	}
	return weave.NewCheck(createDealCost, ""), nil
}

func (h CreateHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, buyer, err := h.validate(ctx, tx)
	if err != nil {
		return nil, err
	}
	d, err := h.ctrl.Create(ctx, db, buyer, msg.Provider, msg.TaskCommitment, msg.DurationTime(), *msg.Amount)
	if err != nil {
		return nil, err
	}
	res := &weave.DeliverResult{Data: Key(d.ID)}
	res.AddTag([]byte(TagCreated), []byte(strconv.FormatUint(d.ID, 10)))
	return res, nil
}

// validate returns the message and the buyer. The buyer defaults to the main
// signer and must always be authenticated.
func (h CreateHandler) validate(ctx weave.Context, tx weave.Tx) (*CreateMsg, weave.Address, error) {
	var msg CreateMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	buyer := msg.Buyer
	if len(buyer) == 0 {
		signer := x.MainSigner(ctx, h.auth)
		if signer == nil {
			return nil, nil, errors.Wrap(errors.ErrUnauthorized, "missing signature")
		}
		buyer = signer.Address()
	}
	if !h.auth.HasAddress(ctx, buyer) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "buyer signature missing")
	}
	return &msg, buyer, nil
}

// ConfirmHandler releases a deposit to the provider.
type ConfirmHandler struct {
	auth x.Authenticator
	ctrl *Controller
}

var _ weave.Handler = ConfirmHandler{}

func (h ConfirmHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	var msg ConfirmMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if err := checkSettle(ctx, db, h.auth, h.ctrl, msg.DealID, StateConfirmed); err != nil {
		return nil, err
	}
	return weave.NewCheck(settleDealCost, ""), nil
}

func (h ConfirmHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	var msg ConfirmMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	_, caller, err := callerOf(ctx, db, h.auth, h.ctrl, msg.DealID)
	if err != nil {
		return nil, err
	}
	d, err := h.ctrl.Confirm(ctx, db, caller, msg.DealID)
	if err != nil {
		return nil, err
	}
	res := &weave.DeliverResult{}
	res.AddTag([]byte(TagConfirmed), []byte(strconv.FormatUint(d.ID, 10)))
	return res, nil
}

// ClaimRefundHandler returns an expired deposit to the buyer.
type ClaimRefundHandler struct {
	auth x.Authenticator
	ctrl *Controller
}

var _ weave.Handler = ClaimRefundHandler{}

func (h ClaimRefundHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	var msg ClaimRefundMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if err := checkSettle(ctx, db, h.auth, h.ctrl, msg.DealID, StateRefunded); err != nil {
		return nil, err
	}
	return weave.NewCheck(settleDealCost, ""), nil
}

func (h ClaimRefundHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	var msg ClaimRefundMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	_, caller, err := callerOf(ctx, db, h.auth, h.ctrl, msg.DealID)
	if err != nil {
		return nil, err
	}
	d, err := h.ctrl.ClaimRefund(ctx, db, caller, msg.DealID)
	if err != nil {
		return nil, err
	}
	res := &weave.DeliverResult{}
	res.AddTag([]byte(TagRefunded), []byte(strconv.FormatUint(d.ID, 10)))
	return res, nil
}

// callerOf loads the deal and returns it together with the identity acting
// on it. That is the buyer if the buyer signed the transaction, otherwise
// the main signer.
func callerOf(ctx weave.Context, db weave.ReadOnlyKVStore, auth x.Authenticator, ctrl *Controller, id uint64) (*Deal, weave.Address, error) {
	d, err := ctrl.Deal(db, id)
	if err != nil {
		return nil, nil, err
	}
	if auth.HasAddress(ctx, d.Buyer) {
		return d, d.Buyer, nil
	}
	signer := x.MainSigner(ctx, auth)
	if signer == nil {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "missing signature")
	}
	return d, signer.Address(), nil
}

// checkSettle runs all preconditions of a transition without modifying the
// state.
func checkSettle(ctx weave.Context, db weave.ReadOnlyKVStore, auth x.Authenticator, ctrl *Controller, id uint64, to State) error {
	d, caller, err := callerOf(ctx, db, auth, ctrl, id)
	if err != nil {
		return err
	}
	now, err := ctrl.custody.CurrentTime(ctx)
	if err != nil {
		return errors.Wrap(err, "current time")
	}
	return CanSettle(d, caller, now, to)
}
