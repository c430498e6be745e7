package app

import (
	"encoding/json"
	"fmt"

	weave "github.com/michaelwinczuk/agent-contracts"
	"github.com/michaelwinczuk/agent-contracts/coin"
	"github.com/michaelwinczuk/agent-contracts/crypto"
	"github.com/michaelwinczuk/agent-contracts/errors"
)

// DefaultBalance is the amount given to the development account.
var DefaultBalance = coin.NewCoin(1000, 0, "ETH")

// GenInitOptions will produce some basic options for one rich
// account, to use for dev mode.
//
// The first argument is the ticker, the second the address. When no address
// is given a new key is generated and its seed printed.
func GenInitOptions(args []string) (json.RawMessage, error) {
	amount := DefaultBalance
	if len(args) > 0 {
		if !coin.IsCC(args[0]) {
			return nil, errors.Wrapf(errors.ErrCurrency, "invalid ticker %s", args[0])
		}
		amount.Ticker = args[0]
	}

	var addr weave.Address
	if len(args) > 1 {
		var err error
		if addr, err = weave.ParseAddress(args[1]); err != nil {
			return nil, err
		}
	} else {
		key := crypto.GenPrivKeyEd25519()
		addr = key.PublicKey().Address()
		fmt.Printf("Generated development key, seed: %X\n", key.Ed25519[:32])
	}

	state := map[string]interface{}{
		"cash": []interface{}{
			map[string]interface{}{
				"address": addr,
				"coins":   []string{amount.String()},
			},
		},
	}
	raw, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	return raw, nil
}
