package weave

import (
	"context"
	"regexp"
	"time"

	"github.com/michaelwinczuk/agent-contracts/errors"
	"github.com/tendermint/tendermint/libs/log"
)

// Context is just an alias for the standard implementation.
// We use functions to extend it to our domain.
type Context = context.Context

type contextKey int // local to the weave module

const (
	contextKeyHeight contextKey = iota
	contextKeyBlockTime
	contextKeyChainID
	contextKeyLogger
)

var (
	// DefaultLogger is used for all context that have not
	// set anything themselves.
	DefaultLogger = log.NewNopLogger()

	// IsValidChainID is the RegExp to ensure valid chain IDs.
	IsValidChainID = regexp.MustCompile(`^[a-zA-Z0-9_\-]{6,20}$`).MatchString
)

// WithHeight sets the block height for the context.
func WithHeight(ctx Context, height int64) Context {
	return context.WithValue(ctx, contextKeyHeight, height)
}

// GetHeight returns the current block height. If none was set, returns
// (0, false).
func GetHeight(ctx Context) (int64, bool) {
	val, ok := ctx.Value(contextKeyHeight).(int64)
	return val, ok
}

// WithBlockTime sets the block time for the context. Block time is always
// represented in UTC.
func WithBlockTime(ctx Context, t time.Time) Context {
	return context.WithValue(ctx, contextKeyBlockTime, t.UTC())
}

// BlockTime returns the current block wall clock time as declared in the
// context. An error is returned if the block time is not present in the
// context or if the zero time value is found.
func BlockTime(ctx Context) (time.Time, error) {
	val, ok := ctx.Value(contextKeyBlockTime).(time.Time)
	if !ok {
		return time.Time{}, errors.Wrap(errors.ErrHuman, "block time not present in the context")
	}
	if val.IsZero() {
		return time.Time{}, errors.Wrap(errors.ErrHuman, "zero value block time")
	}
	return val, nil
}

// WithChainID sets the chain id for the Context. Panics if the value was
// already set or the chain id is not valid.
func WithChainID(ctx Context, chainID string) Context {
	if ctx.Value(contextKeyChainID) != nil {
		panic("Chain ID already set in the context")
	}
	if !IsValidChainID(chainID) {
		panic("Invalid chain ID")
	}
	return context.WithValue(ctx, contextKeyChainID, chainID)
}

// GetChainID returns the current chain id. Panics if the value was not set
// in the context as a transaction must never be processed without it.
func GetChainID(ctx Context) string {
	val, _ := ctx.Value(contextKeyChainID).(string)
	if val == "" {
		panic("Chain ID not set in the context")
	}
	return val
}

// WithLogger sets the logger for this Context.
func WithLogger(ctx Context, logger log.Logger) Context {
	return context.WithValue(ctx, contextKeyLogger, logger)
}

// WithLogInfo accepts keyvalue pairs, and returns another
// context like this, after passing all the keyvals to the
// Logger.
func WithLogInfo(ctx Context, keyvals ...interface{}) Context {
	logger := GetLogger(ctx).With(keyvals...)
	return WithLogger(ctx, logger)
}

// GetLogger returns the currently set logger, or DefaultLogger if none was
// set.
func GetLogger(ctx Context) log.Logger {
	val, ok := ctx.Value(contextKeyLogger).(log.Logger)
	if !ok {
		return DefaultLogger
	}
	return val
}
