package errors

import (
	"errors"
	"fmt"
)

const (
	// SuccessABCICode is the code of a successful ABCI response.
	SuccessABCICode = 0

	// Errors without a registered code are reported as internal, with a
	// generic message in place of their own.
	internalABCICode uint32 = 1
	internalABCILog         = "internal error"
)

// ABCIInfo returns the code and the log of an ABCI response for err.
//
// Only errors carrying an ABCI code expose their message. Any other error is
// internal and is reported as "internal error" unless debug is set. In debug
// mode the log contains the full error, including the stack trace if one was
// recorded.
func ABCIInfo(err error, debug bool) (uint32, string) {
	if isNilErr(err) {
		return SuccessABCICode, ""
	}
	code := abciCode(err)
	switch {
	case debug:
		return code, fmt.Sprintf("%+v", err)
	case code == internalABCICode:
		return internalABCICode, internalABCILog
	default:
		return code, err.Error()
	}
}

type coder interface {
	ABCICode() uint32
}

// abciCode returns the code of the first error in the cause chain that
// declares one.
func abciCode(err error) uint32 {
	if isNilErr(err) {
		return SuccessABCICode
	}
	for {
		if c, ok := err.(coder); ok {
			return c.ABCICode()
		}
		c, ok := err.(causer)
		if !ok {
			return internalABCICode
		}
		err = c.Cause()
	}
}

// Redact replaces internal errors and panics with a generic error so that
// their details are not leaked to clients. Registered errors are returned
// unchanged. Nothing is redacted in debug mode.
func Redact(err error, debug bool) error {
	if debug {
		return err
	}
	if ErrPanic.Is(err) || abciCode(err) == internalABCICode {
		return errors.New(internalABCILog)
	}
	return err
}
