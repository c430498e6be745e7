package weavetest

import weave "github.com/michaelwinczuk/agent-contracts"

// Handler is a mock implementation of the weave.Handler interface.
//
// Results and errors are returned as configured. Every call is counted.
type Handler struct {
	checkCall   int
	CheckResult weave.CheckResult
	CheckErr    error

	deliverCall   int
	DeliverResult weave.DeliverResult
	DeliverErr    error
}

var _ weave.Handler = (*Handler)(nil)

func (h *Handler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	h.checkCall++
	if h.CheckErr != nil {
		return nil, h.CheckErr
	}
	res := h.CheckResult
	return &res, nil
}

func (h *Handler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	h.deliverCall++
	if h.DeliverErr != nil {
		return nil, h.DeliverErr
	}
	res := h.DeliverResult
	return &res, nil
}

func (h *Handler) DeliverCallCount() int {
	return h.deliverCall
}

func (h *Handler) CallCount() int {
	return h.checkCall + h.deliverCall
}

// WriteHandler writes a single key value pair on every call and returns the
// configured error.
type WriteHandler struct {
	Key, Value []byte
	Err        error
}

var _ weave.Handler = (*WriteHandler)(nil)

func (h *WriteHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if err := db.Set(h.Key, h.Value); err != nil {
		return nil, err
	}
	return &weave.CheckResult{}, h.Err
}

func (h *WriteHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	if err := db.Set(h.Key, h.Value); err != nil {
		return nil, err
	}
	return &weave.DeliverResult{}, h.Err
}

// PanicHandler panics on every call.
type PanicHandler struct {
	Msg string
}

var _ weave.Handler = PanicHandler{}

func (h PanicHandler) Check(weave.Context, weave.KVStore, weave.Tx) (*weave.CheckResult, error) {
	panic(h.Msg)
}

func (h PanicHandler) Deliver(weave.Context, weave.KVStore, weave.Tx) (*weave.DeliverResult, error) {
	panic(h.Msg)
}
