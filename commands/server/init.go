package server

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/michaelwinczuk/agent-contracts/errors"
	"github.com/spf13/cobra"
	"github.com/tendermint/tendermint/libs/log"
)

// GenOptions can parse command-line and flag to
// generate default app_state for the genesis file.
// This is application-specific
type GenOptions func(args []string) (json.RawMessage, error)

// InitCmd will initialize the home directory: the configuration file and the
// genesis file with the application state produced by gen.
func InitCmd(gen GenOptions, conf *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "init [args...]",
		Short: "Initialize the configuration and the genesis file",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := conf.Logger(os.Stdout)
			if err != nil {
				return err
			}
			return Init(gen, logger, *conf, args)
		},
	}
}

// Init writes the configuration file if missing and sets the app_state of
// the genesis file. An existing genesis file, for example created by
// tendermint init, is preserved apart from the app_state.
func Init(gen GenOptions, logger log.Logger, conf Config, args []string) error {
	cfgPath := filepath.Join(conf.Home, ConfigFile)
	if fileExists(cfgPath) {
		logger.Info("Found config file", "path", cfgPath)
	} else {
		if err := WriteConfig(conf); err != nil {
			return err
		}
		logger.Info("Generated config file", "path", cfgPath)
	}

	genFile := conf.GenesisFile()
	if !fileExists(genFile) {
		doc := GenesisDoc{}
		raw, err := json.Marshal(conf.ChainID)
		if err != nil {
			return errors.Wrap(errors.ErrInput, err.Error())
		}
		doc["chain_id"] = raw
		if err := writeGenesis(genFile, doc); err != nil {
			return err
		}
		logger.Info("Generated genesis file", "path", genFile)
	}

	if gen == nil {
		return nil
	}
	options, err := gen(args)
	if err != nil {
		return err
	}
	return addGenesisOptions(genFile, options)
}

func fileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return !os.IsNotExist(err)
}

// GenesisDoc involves some tendermint-specific structures we don't
// want to parse, so we just grab it into a raw object format,
// so we can add one line.
type GenesisDoc map[string]json.RawMessage

func addGenesisOptions(filename string, options json.RawMessage) error {
	bz, err := os.ReadFile(filename)
	if err != nil {
		return errors.Wrapf(errors.ErrInput, "cannot read genesis: %s", err)
	}
	var doc GenesisDoc
	if err := json.Unmarshal(bz, &doc); err != nil {
		return errors.Wrapf(errors.ErrInput, "cannot decode genesis: %s", err)
	}
	doc["app_state"] = options
	return writeGenesis(filename, doc)
}

func writeGenesis(filename string, doc GenesisDoc) error {
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrapf(errors.ErrInput, "cannot encode genesis: %s", err)
	}
	if err := os.WriteFile(filename, out, 0o600); err != nil {
		return errors.Wrapf(errors.ErrInput, "cannot write genesis: %s", err)
	}
	return nil
}
