package cash

import (
	weave "github.com/michaelwinczuk/agent-contracts"
	"github.com/michaelwinczuk/agent-contracts/coin"
	"github.com/michaelwinczuk/agent-contracts/errors"
)

const maxMemoSize int = 128

// SendMsg moves coins from the source to the destination account.
type SendMsg struct {
	Metadata    *weave.Metadata `json:"metadata"`
	Source      weave.Address   `json:"source"`
	Destination weave.Address   `json:"destination"`
	Amount      *coin.Coin      `json:"amount"`
	Memo        string          `json:"memo,omitempty"`
}

var _ weave.Msg = (*SendMsg)(nil)

// Path returns the routing path for this message
func (SendMsg) Path() string {
	return "cash/send"
}

func (m *SendMsg) Marshal() ([]byte, error) {
	return weave.MarshalBinary(m)
}

func (m *SendMsg) Unmarshal(raw []byte) error {
	return weave.UnmarshalBinary(raw, m)
}

// Validate makes sure that this is sensible
func (m *SendMsg) Validate() error {
	errs := errors.AppendField(nil, "Metadata", m.Metadata.Validate())
	if coin.IsEmpty(m.Amount) || !m.Amount.IsPositive() {
		errs = errors.AppendField(errs, "Amount", errors.Wrapf(errors.ErrAmount, "non positive amount %v", m.Amount))
	} else {
		errs = errors.AppendField(errs, "Amount", m.Amount.Validate())
	}
	errs = errors.AppendField(errs, "Source", m.Source.Validate())
	errs = errors.AppendField(errs, "Destination", m.Destination.Validate())
	if len(m.Memo) > maxMemoSize {
		errs = errors.AppendField(errs, "Memo", errors.Wrap(errors.ErrInput, "memo too long"))
	}
	return errs
}
