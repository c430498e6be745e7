package utils

import (
	"time"

	weave "github.com/michaelwinczuk/agent-contracts"
)

// Logging is a decorator to log messages as they pass through
type Logging struct{}

var _ weave.Decorator = Logging{}

// NewLogging creates a Logging decorator
func NewLogging() Logging {
	return Logging{}
}

// Check logs error -> error, success -> debug
func (Logging) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx, next weave.Checker) (*weave.CheckResult, error) {
	start := time.Now()
	res, err := next.Check(ctx, db, tx)
	var resLog string
	if err == nil {
		resLog = res.Log
	}
	logDuration(ctx, tx, start, resLog, err, true)
	return res, err
}

// Deliver logs error -> error, success -> info
func (Logging) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx, next weave.Deliverer) (*weave.DeliverResult, error) {
	start := time.Now()
	res, err := next.Deliver(ctx, db, tx)
	var resLog string
	if err == nil {
		resLog = res.Log
	}
	logDuration(ctx, tx, start, resLog, err, false)
	return res, err
}

func logDuration(ctx weave.Context, tx weave.Tx, start time.Time, msg string, err error, lowPrio bool) {
	logger := weave.GetLogger(ctx).With(
		"path", weave.GetPath(tx),
		"duration", time.Since(start)/time.Microsecond,
	)
	switch {
	case err != nil:
		logger.Error(msg, "err", err)
	case lowPrio:
		logger.Debug(msg)
	default:
		logger.Info(msg)
	}
}
