package deal

import "github.com/michaelwinczuk/agent-contracts/errors"

var (
	// ErrInvalidDuration is returned when a deal is requested with a
	// non positive or out of range duration.
	ErrInvalidDuration = errors.Register(1020, "invalid duration")

	// ErrInvalidDeposit is returned when a deal is requested without a
	// positive deposit.
	ErrInvalidDeposit = errors.Register(1021, "invalid deposit")

	// ErrDeadlineNotReached is returned when a refund is claimed before
	// the deal deadline.
	ErrDeadlineNotReached = errors.Register(1022, "deadline not reached")

	// ErrCustody is returned when the custody ledger rejects locking or
	// releasing the deposit.
	ErrCustody = errors.Register(1023, "custody failure")
)
