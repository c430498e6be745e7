package cash

import (
	weave "github.com/michaelwinczuk/agent-contracts"
	"github.com/michaelwinczuk/agent-contracts/coin"
	"github.com/michaelwinczuk/agent-contracts/errors"
	"github.com/michaelwinczuk/agent-contracts/orm"
)

// BucketName is where we store the balances
const BucketName = "cash"

// Wallet is the set of coins owned by a single address. The address is the
// primary key and is not stored in the model.
type Wallet struct {
	Metadata *weave.Metadata `json:"metadata"`
	Coins    coin.Coins      `json:"coins"`
}

var _ orm.Model = (*Wallet)(nil)

// NewWallet returns an empty wallet.
func NewWallet() *Wallet {
	return &Wallet{Metadata: &weave.Metadata{Schema: 1}}
}

func (w *Wallet) Marshal() ([]byte, error) {
	return weave.MarshalBinary(w)
}

func (w *Wallet) Unmarshal(raw []byte) error {
	return weave.UnmarshalBinary(raw, w)
}

// Validate requires a normalized set of non negative coins.
func (w *Wallet) Validate() error {
	if err := w.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := w.Coins.Validate(); err != nil {
		return errors.Wrap(err, "coins")
	}
	if !w.Coins.IsNonNegative() {
		return errors.Wrap(errors.ErrAmount, "negative balance")
	}
	return nil
}

// NewBucket returns a bucket that stores wallets under their owner address.
func NewBucket() orm.ModelBucket {
	return orm.NewModelBucket(BucketName, &Wallet{})
}
