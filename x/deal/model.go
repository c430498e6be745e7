package deal

import (
	"encoding/hex"
	"encoding/json"
	"strings"

	weave "github.com/michaelwinczuk/agent-contracts"
	"github.com/michaelwinczuk/agent-contracts/coin"
	"github.com/michaelwinczuk/agent-contracts/errors"
	"github.com/michaelwinczuk/agent-contracts/orm"
)

const (
	// BucketName is where the deals are stored.
	BucketName = "deal"

	// CommitmentLength is the size of the task commitment digest.
	CommitmentLength = 32
)

// State is the stage of the deal lifecycle.
type State int32

const (
	StateInvalid State = iota
	StateActive
	StateConfirmed
	StateRefunded
)

var stateNames = map[State]string{
	StateActive:    "active",
	StateConfirmed: "confirmed",
	StateRefunded:  "refunded",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "invalid"
}

// IsTerminal returns true if no transition is possible out of this state.
func (s State) IsTerminal() bool {
	return s == StateConfirmed || s == StateRefunded
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *State) UnmarshalJSON(raw []byte) error {
	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		return errors.Wrap(errors.ErrInput, "state must be a string")
	}
	for st, n := range stateNames {
		if n == strings.ToLower(name) {
			*s = st
			return nil
		}
	}
	return errors.Wrapf(errors.ErrInput, "unknown state %q", name)
}

// Digest is an opaque, fixed size commitment. It is represented as hex in
// JSON.
type Digest []byte

func (d Digest) MarshalJSON() ([]byte, error) {
	return json.Marshal(strings.ToUpper(hex.EncodeToString(d)))
}

func (d *Digest) UnmarshalJSON(raw []byte) error {
	var enc string
	if err := json.Unmarshal(raw, &enc); err != nil {
		return errors.Wrap(errors.ErrInput, "digest must be a hex string")
	}
	bz, err := hex.DecodeString(enc)
	if err != nil {
		return errors.Wrap(errors.ErrInput, "cannot decode hex")
	}
	*d = bz
	return nil
}

// Deal is an agreement between a buyer and a provider. The deposit is kept
// by the custody ledger on the deal address until the deal is settled.
type Deal struct {
	Metadata       *weave.Metadata `json:"metadata"`
	ID             uint64          `json:"id"`
	Buyer          weave.Address   `json:"buyer"`
	Provider       weave.Address   `json:"provider"`
	TaskCommitment Digest          `json:"task_commitment"`
	Amount         *coin.Coin      `json:"amount"`
	Deadline       weave.UnixTime  `json:"deadline"`
	State          State           `json:"state"`
	CreatedAt      weave.UnixTime  `json:"created_at"`
	// SettledAt is the time of the terminal transition, zero while active.
	SettledAt weave.UnixTime `json:"settled_at"`
	// Address holds the deposit.
	Address weave.Address `json:"address"`
}

var _ orm.Model = (*Deal)(nil)

func (d *Deal) Marshal() ([]byte, error) {
	return weave.MarshalBinary(d)
}

func (d *Deal) Unmarshal(raw []byte) error {
	return weave.UnmarshalBinary(raw, d)
}

// Validate ensures the deal is consistent.
func (d *Deal) Validate() error {
	errs := errors.AppendField(nil, "Metadata", d.Metadata.Validate())
	errs = errors.AppendField(errs, "Buyer", d.Buyer.Validate())
	errs = errors.AppendField(errs, "Provider", d.Provider.Validate())
	errs = errors.AppendField(errs, "Address", d.Address.Validate())
	if len(d.TaskCommitment) != CommitmentLength {
		errs = errors.AppendField(errs, "TaskCommitment",
			errors.Wrapf(errors.ErrInput, "must be %d bytes", CommitmentLength))
	}
	if coin.IsEmpty(d.Amount) || !d.Amount.IsPositive() {
		errs = errors.AppendField(errs, "Amount", errors.Wrap(ErrInvalidDeposit, "must be positive"))
	} else {
		errs = errors.AppendField(errs, "Amount", d.Amount.Validate())
	}
	errs = errors.AppendField(errs, "CreatedAt", d.CreatedAt.Validate())
	if d.Deadline <= d.CreatedAt {
		errs = errors.AppendField(errs, "Deadline", errors.Wrap(ErrInvalidDuration, "deadline must be after creation"))
	}
	switch {
	case d.State == StateActive && !d.SettledAt.IsZero():
		errs = errors.AppendField(errs, "SettledAt", errors.Wrap(errors.ErrState, "active deal cannot be settled"))
	case d.State.IsTerminal() && d.SettledAt < d.CreatedAt:
		errs = errors.AppendField(errs, "SettledAt", errors.Wrap(errors.ErrState, "settled before creation"))
	case d.State != StateActive && !d.State.IsTerminal():
		errs = errors.AppendField(errs, "State", errors.Wrapf(errors.ErrState, "%d", d.State))
	}
	return errs
}

// Key returns the primary key of the deal with given id. Keys are 8 bytes
// big endian so that they sort by creation order.
func Key(id uint64) []byte {
	return orm.EncodeSequence(id)
}

// Condition returns the condition owning the deposit of the deal with given
// id.
func Condition(id uint64) weave.Condition {
	return weave.NewCondition("deal", "seq", Key(id))
}

// NewBucket returns a bucket storing deals, indexed by buyer and provider.
func NewBucket() orm.ModelBucket {
	return orm.NewModelBucket(BucketName, &Deal{},
		orm.WithIndex("buyer", buyerIndexer),
		orm.WithIndex("provider", providerIndexer),
	)
}

// dealSeq allocates deal identifiers.
var dealSeq = orm.NewSequence(BucketName, "id")

func buyerIndexer(m orm.Model) ([]byte, error) {
	d, ok := m.(*Deal)
	if !ok {
		return nil, errors.Wrapf(errors.ErrType, "%T", m)
	}
	return d.Buyer, nil
}

func providerIndexer(m orm.Model) ([]byte, error) {
	d, ok := m.(*Deal)
	if !ok {
		return nil, errors.Wrapf(errors.ErrType, "%T", m)
	}
	return d.Provider, nil
}
