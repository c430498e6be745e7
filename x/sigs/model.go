package sigs

import (
	weave "github.com/michaelwinczuk/agent-contracts"
	"github.com/michaelwinczuk/agent-contracts/crypto"
	"github.com/michaelwinczuk/agent-contracts/errors"
	"github.com/michaelwinczuk/agent-contracts/orm"
)

// BucketName is where we store the accounts
const BucketName = "sigs"

// maxSequenceValue is the greatest nonce a javascript client can represent,
// Number.MAX_SAFE_INTEGER.
const maxSequenceValue = (1 << 53) - 1

// UserData is the signing state of a single public key. It is stored under
// the address of the key.
type UserData struct {
	Metadata *weave.Metadata   `json:"metadata"`
	Pubkey   *crypto.PublicKey `json:"pubkey"`
	Sequence int64             `json:"sequence"`
}

var _ orm.Model = (*UserData)(nil)

func (u *UserData) Marshal() ([]byte, error) {
	return weave.MarshalBinary(u)
}

func (u *UserData) Unmarshal(raw []byte) error {
	return weave.UnmarshalBinary(raw, u)
}

func (u *UserData) Validate() error {
	errs := errors.AppendField(nil, "Metadata", u.Metadata.Validate())
	errs = errors.AppendField(errs, "Pubkey", u.Pubkey.Validate())
	if u.Sequence < 0 {
		errs = errors.AppendField(errs, "Sequence", errors.Wrap(ErrInvalidSequence, "negative"))
	}
	return errs
}

// CheckAndIncrementSequence increments the sequence if it is equal to the
// expected value. Otherwise an error is returned.
func (u *UserData) CheckAndIncrementSequence(expected int64) error {
	if u.Sequence != expected {
		return errors.Wrapf(ErrInvalidSequence, "mismatch expected %d, got %d", expected, u.Sequence)
	}
	next := u.Sequence + 1
	if next <= 0 || next > maxSequenceValue {
		return errors.Wrap(errors.ErrOverflow, "sequence out of range")
	}
	u.Sequence = next
	return nil
}

// NewBucket creates the proper bucket for this extension
func NewBucket() orm.ModelBucket {
	return orm.NewModelBucket(BucketName, &UserData{})
}

// loadUser returns the stored state of the key, or a fresh one.
func loadUser(db weave.ReadOnlyKVStore, bucket orm.ModelBucket, pubkey *crypto.PublicKey) (*UserData, error) {
	var u UserData
	switch err := bucket.One(db, pubkey.Address(), &u); {
	case err == nil:
		return &u, nil
	case errors.ErrNotFound.Is(err):
		return &UserData{
			Metadata: &weave.Metadata{Schema: 1},
			Pubkey:   pubkey,
		}, nil
	default:
		return nil, err
	}
}
