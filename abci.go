package weave

import (
	"github.com/michaelwinczuk/agent-contracts/errors"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/common"
)

// DeliverResult is the outcome of a successfully delivered transaction.
// Failures are always reported as errors.
type DeliverResult struct {
	// Data is returned to the client, for example the key of a created deal.
	Data []byte
	Log  string
	// Tags are indexed by tendermint and make the transaction searchable.
	Tags    []common.KVPair
	GasUsed int64
}

// AddTag appends a key value pair to the indexed tags.
func (d *DeliverResult) AddTag(key, value []byte) {
	d.Tags = append(d.Tags, common.KVPair{Key: key, Value: value})
}

func (d DeliverResult) ToABCI() abci.ResponseDeliverTx {
	return abci.ResponseDeliverTx{
		Data:    d.Data,
		Log:     d.Log,
		Tags:    d.Tags,
		GasUsed: d.GasUsed,
	}
}

// CheckResult is the outcome of a transaction that passed the checks.
type CheckResult struct {
	Data []byte
	Log  string
	// GasAllocated is the most work the transaction may require.
	GasAllocated int64
}

// NewCheck returns a check result allocating given gas.
func NewCheck(gasAllocated int64, log string) *CheckResult {
	return &CheckResult{GasAllocated: gasAllocated, Log: log}
}

func (c CheckResult) ToABCI() abci.ResponseCheckTx {
	return abci.ResponseCheckTx{
		Data:      c.Data,
		Log:       c.Log,
		GasWanted: c.GasAllocated,
	}
}

// DeliverOrError converts the outcome of a handler Deliver call.
func DeliverOrError(result *DeliverResult, err error, debug bool) abci.ResponseDeliverTx {
	if err != nil {
		return DeliverTxError(err, debug)
	}
	return result.ToABCI()
}

// CheckOrError converts the outcome of a handler Check call.
func CheckOrError(result *CheckResult, err error, debug bool) abci.ResponseCheckTx {
	if err != nil {
		return CheckTxError(err, debug)
	}
	return result.ToABCI()
}

// DeliverTxError reports err in a DeliverTx response. Internal errors are
// redacted unless debug is set.
func DeliverTxError(err error, debug bool) abci.ResponseDeliverTx {
	code, log := errors.ABCIInfo(err, debug)
	if code != errors.SuccessABCICode {
		log = "cannot deliver tx: " + log
	}
	return abci.ResponseDeliverTx{Code: code, Log: log}
}

// CheckTxError reports err in a CheckTx response. Internal errors are
// redacted unless debug is set.
func CheckTxError(err error, debug bool) abci.ResponseCheckTx {
	code, log := errors.ABCIInfo(err, debug)
	if code != errors.SuccessABCICode {
		log = "cannot check tx: " + log
	}
	return abci.ResponseCheckTx{Code: code, Log: log}
}
