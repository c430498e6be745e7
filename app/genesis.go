package app

import (
	"encoding/json"
	"os"

	weave "github.com/michaelwinczuk/agent-contracts"
	"github.com/michaelwinczuk/agent-contracts/errors"
)

// Genesis file format, designed to be overlayed with tendermint genesis
type Genesis struct {
	ChainID  string        `json:"chain_id"`
	AppState weave.Options `json:"app_state"`
}

// LoadGenesis reads the chain id and the application state from given
// genesis file.
func LoadGenesis(filePath string) (Genesis, error) {
	var gen Genesis
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return gen, errors.Wrapf(errors.ErrInput, "loading genesis file: %s", err)
	}
	if err := json.Unmarshal(raw, &gen); err != nil {
		return gen, errors.Wrapf(errors.ErrInput, "unmarshaling genesis file: %s", err)
	}
	return gen, nil
}

// ChainInitializers lets you initialize many extensions with one function
func ChainInitializers(inits ...weave.Initializer) weave.Initializer {
	return chainInitializer{inits: inits}
}

type chainInitializer struct {
	inits []weave.Initializer
}

// FromGenesis will pass opts to all Initializers in the list,
// aborting at the first error.
func (c chainInitializer) FromGenesis(opts weave.Options, kv weave.KVStore) error {
	for _, i := range c.inits {
		if err := i.FromGenesis(opts, kv); err != nil {
			return err
		}
	}
	return nil
}
