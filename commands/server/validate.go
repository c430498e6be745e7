package server

import (
	"encoding/json"
	"os"

	weave "github.com/michaelwinczuk/agent-contracts"
	"github.com/michaelwinczuk/agent-contracts/errors"
	"github.com/michaelwinczuk/agent-contracts/store"
	"github.com/spf13/cobra"
)

// ValidateGenesisCmd checks that genesis files can be loaded by the
// application.
func ValidateGenesisCmd(ini weave.Initializer, conf *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "validate-genesis [files...]",
		Short: "Load genesis files into a throwaway store",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{conf.GenesisFile()}
			}
			return ValidateGenesis(ini, args)
		},
	}
}

// ValidateGenesis loads the app_state of every given genesis file with the
// initializer. The result is discarded.
func ValidateGenesis(ini weave.Initializer, genesisPaths []string) error {
	for _, path := range genesisPaths {
		if err := validateGenesis(ini, path); err != nil {
			return errors.Wrap(err, path)
		}
	}
	return nil
}

func validateGenesis(ini weave.Initializer, genesisPath string) error {
	b, err := os.ReadFile(genesisPath)
	if err != nil {
		return errors.Wrapf(errors.ErrInput, "cannot read genesis file: %s", err)
	}
	var genesis struct {
		State weave.Options `json:"app_state"`
	}
	if err := json.Unmarshal(b, &genesis); err != nil {
		return errors.Wrapf(errors.ErrInput, "cannot JSON deserialize genesis: %s", err)
	}

	// Use in memory store because we want to discard the result.
	db := store.MemStore()
	if err := ini.FromGenesis(genesis.State, db); err != nil {
		return errors.Wrap(err, "cannot initialize from genesis")
	}
	return nil
}
