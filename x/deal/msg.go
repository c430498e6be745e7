package deal

import (
	"time"

	weave "github.com/michaelwinczuk/agent-contracts"
	"github.com/michaelwinczuk/agent-contracts/coin"
	"github.com/michaelwinczuk/agent-contracts/errors"
)

const (
	pathCreate      = "deal/create"
	pathConfirm     = "deal/confirm"
	pathClaimRefund = "deal/claim_refund"

	// MaxDuration limits how far in the future a deadline can be set.
	MaxDuration = 100 * 365 * 24 * time.Hour
)

// CreateMsg opens a new deal, locking the amount from the buyer.
type CreateMsg struct {
	Metadata *weave.Metadata `json:"metadata"`
	// Buyer is optional and defaults to the main signer.
	Buyer          weave.Address `json:"buyer,omitempty"`
	Provider       weave.Address `json:"provider"`
	TaskCommitment Digest        `json:"task_commitment"`
	// Duration in seconds, counted from the block time of creation.
	Duration int64      `json:"duration"`
	Amount   *coin.Coin `json:"amount"`
}

var _ weave.Msg = (*CreateMsg)(nil)

func (CreateMsg) Path() string { return pathCreate }

func (m *CreateMsg) Marshal() ([]byte, error)    { return weave.MarshalBinary(m) }
func (m *CreateMsg) Unmarshal(raw []byte) error { return weave.UnmarshalBinary(raw, m) }

func (m *CreateMsg) Validate() error {
	errs := errors.AppendField(nil, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Duration", validateDuration(m.Duration))
	errs = errors.AppendField(errs, "Amount", validateDeposit(m.Amount))
	if len(m.Buyer) != 0 {
		errs = errors.AppendField(errs, "Buyer", m.Buyer.Validate())
	}
	errs = errors.AppendField(errs, "Provider", m.Provider.Validate())
	if len(m.TaskCommitment) != CommitmentLength {
		errs = errors.AppendField(errs, "TaskCommitment",
			errors.Wrapf(errors.ErrInput, "must be %d bytes", CommitmentLength))
	}
	return errs
}

// DurationTime returns the duration as time.Duration.
func (m *CreateMsg) DurationTime() time.Duration {
	return time.Duration(m.Duration) * time.Second
}

// SecondsToDuration converts a duration given in whole seconds. Values out
// of the accepted range are rejected before conversion so they cannot wrap.
func SecondsToDuration(seconds int64) (time.Duration, error) {
	if err := validateDuration(seconds); err != nil {
		return 0, err
	}
	return time.Duration(seconds) * time.Second, nil
}

// validateDurationTime accepts only positive whole seconds within range.
func validateDurationTime(d time.Duration) error {
	if d%time.Second != 0 {
		return errors.Wrapf(ErrInvalidDuration, "must be whole seconds, got %s", d)
	}
	if d <= 0 {
		return errors.Wrapf(ErrInvalidDuration, "must be positive, got %s", d)
	}
	return validateDuration(int64(d / time.Second))
}

func validateDuration(seconds int64) error {
	if seconds <= 0 {
		return errors.Wrapf(ErrInvalidDuration, "must be positive, got %d", seconds)
	}
	if seconds > int64(MaxDuration/time.Second) {
		return errors.Wrapf(ErrInvalidDuration, "must not exceed %s", MaxDuration)
	}
	return nil
}

func validateDeposit(c *coin.Coin) error {
	if coin.IsEmpty(c) || !c.IsPositive() {
		return errors.Wrapf(ErrInvalidDeposit, "must be positive, got %v", c)
	}
	return errors.Wrap(c.Validate(), "deposit")
}

// ConfirmMsg releases the deposit of an active deal to the provider.
type ConfirmMsg struct {
	Metadata *weave.Metadata `json:"metadata"`
	DealID   uint64          `json:"deal_id"`
}

var _ weave.Msg = (*ConfirmMsg)(nil)

func (ConfirmMsg) Path() string { return pathConfirm }

func (m *ConfirmMsg) Marshal() ([]byte, error)    { return weave.MarshalBinary(m) }
func (m *ConfirmMsg) Unmarshal(raw []byte) error { return weave.UnmarshalBinary(raw, m) }

func (m *ConfirmMsg) Validate() error {
	return errors.AppendField(nil, "Metadata", m.Metadata.Validate())
}

// ClaimRefundMsg returns the deposit of an active, expired deal to the
// buyer.
type ClaimRefundMsg struct {
	Metadata *weave.Metadata `json:"metadata"`
	DealID   uint64          `json:"deal_id"`
}

var _ weave.Msg = (*ClaimRefundMsg)(nil)

func (ClaimRefundMsg) Path() string { return pathClaimRefund }

func (m *ClaimRefundMsg) Marshal() ([]byte, error)    { return weave.MarshalBinary(m) }
func (m *ClaimRefundMsg) Unmarshal(raw []byte) error { return weave.UnmarshalBinary(raw, m) }

func (m *ClaimRefundMsg) Validate() error {
	return errors.AppendField(nil, "Metadata", m.Metadata.Validate())
}
