package deal

import (
	weave "github.com/michaelwinczuk/agent-contracts"
	"github.com/michaelwinczuk/agent-contracts/coin"
	"github.com/michaelwinczuk/agent-contracts/errors"
)

const optKey = "deal"

// Minter creates value. It is used only to fund the custody accounts of
// deals loaded from genesis.
type Minter interface {
	IssueCoins(db weave.KVStore, dest weave.Address, amount coin.Coin) error
}

// GenesisDeal is the genesis file representation of a deal. Ids are
// assigned in the order of declaration.
type GenesisDeal struct {
	Buyer          weave.Address  `json:"buyer"`
	Provider       weave.Address  `json:"provider"`
	TaskCommitment Digest         `json:"task_commitment"`
	Amount         *coin.Coin     `json:"amount"`
	CreatedAt      weave.UnixTime `json:"created_at"`
	Deadline       weave.UnixTime `json:"deadline"`
	// State defaults to active.
	State     State          `json:"state"`
	SettledAt weave.UnixTime `json:"settled_at"`
}

// Initializer loads deals from the genesis file. The deposit of every
// active deal is minted into its custody account.
type Initializer struct {
	Minter Minter
}

var _ weave.Initializer = Initializer{}

func (i Initializer) FromGenesis(opts weave.Options, db weave.KVStore) error {
	var conf struct {
		Deals []GenesisDeal `json:"deals"`
	}
	if err := opts.ReadOptions(optKey, &conf); err != nil {
		return err
	}

	bucket := NewBucket()
	for n, g := range conf.Deals {
		next, err := dealSeq.NextInt(db)
		if err != nil {
			return errors.Wrap(err, "cannot acquire id")
		}
		id := next - 1
		state := g.State
		if state == StateInvalid {
			state = StateActive
		}
		d := &Deal{
			Metadata:       &weave.Metadata{Schema: 1},
			ID:             id,
			Buyer:          g.Buyer,
			Provider:       g.Provider,
			TaskCommitment: g.TaskCommitment,
			Amount:         g.Amount,
			Deadline:       g.Deadline,
			State:          state,
			CreatedAt:      g.CreatedAt,
			SettledAt:      g.SettledAt,
			Address:        Condition(id).Address(),
		}
		if err := bucket.Put(db, Key(id), d); err != nil {
			return errors.Wrapf(err, "deal %d", n)
		}
		if state != StateActive {
			continue
		}
		if i.Minter == nil {
			return errors.Wrap(errors.ErrHuman, "minter required to fund active deals")
		}
		if err := i.Minter.IssueCoins(db, d.Address, *d.Amount); err != nil {
			return errors.Wrapf(err, "fund deal %d", n)
		}
	}
	return nil
}
