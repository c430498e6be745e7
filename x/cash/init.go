package cash

import (
	weave "github.com/michaelwinczuk/agent-contracts"
	"github.com/michaelwinczuk/agent-contracts/coin"
	"github.com/michaelwinczuk/agent-contracts/errors"
)

const optKey = "cash"

// GenesisAccount is used to parse the json from genesis file.
//
//   {"address": "hex:...", "coins": ["10 IOV", "0.5 ETH"]}
type GenesisAccount struct {
	Address weave.Address `json:"address"`
	Coins   coin.Coins    `json:"coins"`
}

// Initializer fulfils the Initializer interface to load data from
// the genesis file
type Initializer struct{}

var _ weave.Initializer = Initializer{}

// FromGenesis will parse initial account info from genesis
// and save it to the database
func (Initializer) FromGenesis(opts weave.Options, db weave.KVStore) error {
	var accts []GenesisAccount
	if err := opts.ReadOptions(optKey, &accts); err != nil {
		return err
	}
	ctrl := NewController(NewBucket())
	for i, acct := range accts {
		if err := acct.Address.Validate(); err != nil {
			return errors.Wrapf(err, "account %d", i)
		}
		for _, c := range acct.Coins {
			if c == nil {
				continue
			}
			if !c.IsPositive() {
				return errors.Wrapf(errors.ErrAmount, "account %s: non positive %v", acct.Address, c)
			}
			if err := ctrl.IssueCoins(db, acct.Address, *c); err != nil {
				return errors.Wrapf(err, "account %s", acct.Address)
			}
		}
	}
	return nil
}
