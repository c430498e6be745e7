package sigs

import "github.com/michaelwinczuk/agent-contracts/errors"

// ErrInvalidSequence is returned when a signature sequence does not match
// the account nonce.
var ErrInvalidSequence = errors.Register(120, "invalid sequence number")
