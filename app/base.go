package app

import (
	weave "github.com/michaelwinczuk/agent-contracts"
	"github.com/michaelwinczuk/agent-contracts/errors"
	abci "github.com/tendermint/tendermint/abci/types"
)

// BaseApp runs transactions on top of a StoreApp. Raw transactions are
// decoded and passed to a single handler, usually a decorated router.
type BaseApp struct {
	*StoreApp
	decoder weave.TxDecoder
	handler weave.Handler
	debug   bool
}

var _ abci.Application = BaseApp{}

func NewBaseApp(
	store *StoreApp,
	decoder weave.TxDecoder,
	handler weave.Handler,
	debug bool,
) BaseApp {
	return BaseApp{
		StoreApp: store,
		decoder:  decoder,
		handler:  handler,
		debug:    debug,
	}
}

// DeliverTx applies the transaction to the block state.
func (b BaseApp) DeliverTx(txBytes []byte) abci.ResponseDeliverTx {
	tx, err := b.loadTx(txBytes)
	if err != nil {
		return weave.DeliverTxError(err, b.debug)
	}

	ctx := weave.WithLogInfo(b.BlockContext(),
		"call", "deliver_tx",
		"path", weave.GetPath(tx))

	res, err := b.handler.Deliver(ctx, b.DeliverStore(), tx)
	return weave.DeliverOrError(res, err, b.debug)
}

// CheckTx validates the transaction against the mempool state.
func (b BaseApp) CheckTx(txBytes []byte) abci.ResponseCheckTx {
	tx, err := b.loadTx(txBytes)
	if err != nil {
		return weave.CheckTxError(err, b.debug)
	}

	ctx := weave.WithLogInfo(b.BlockContext(),
		"call", "check_tx",
		"path", weave.GetPath(tx))

	res, err := b.handler.Check(ctx, b.CheckStore(), tx)
	return weave.CheckOrError(res, err, b.debug)
}

// loadTx decodes raw bytes. A decoder panic is returned as an error.
func (b BaseApp) loadTx(txBytes []byte) (tx weave.Tx, err error) {
	defer errors.Recover(&err)
	tx, err = b.decoder(txBytes)
	return
}
