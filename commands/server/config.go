package server

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/michaelwinczuk/agent-contracts/errors"
	"github.com/tendermint/tendermint/libs/log"
)

// ConfigFile is the name of the node configuration file inside of the home
// directory.
const ConfigFile = "config.toml"

// Config is the node configuration, read from a TOML file.
type Config struct {
	// Home is the directory holding the database, the genesis and this
	// configuration.
	Home string `toml:"-"`

	// ChainID is used by init when no genesis file exists.
	ChainID string `toml:"chain_id"`

	// ABCIBind is the address the ABCI socket server listens on.
	ABCIBind string `toml:"abci_bind"`

	// HTTPBind is the address the HTTP gateway listens on.
	HTTPBind string `toml:"http_bind"`

	// LogLevel is one of debug, info, error or none.
	LogLevel string `toml:"log_level"`

	// Debug returns the full error information to clients.
	Debug bool `toml:"debug"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig(home string) Config {
	return Config{
		Home:     home,
		ChainID:  "deal-devnet",
		ABCIBind: "tcp://localhost:26658",
		HTTPBind: "localhost:8080",
		LogLevel: "info",
	}
}

// LoadConfig reads the configuration from the home directory. Missing values
// are taken from the default configuration. A missing file is not an error.
func LoadConfig(home string) (Config, error) {
	conf := DefaultConfig(home)
	path := filepath.Join(home, ConfigFile)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return conf, nil
	}
	if _, err := toml.DecodeFile(path, &conf); err != nil {
		return conf, errors.Wrapf(errors.ErrInput, "cannot decode %s: %s", path, err)
	}
	conf.Home = home
	return conf, conf.Validate()
}

// Validate returns an error if the configuration cannot be used.
func (c Config) Validate() error {
	var errs error
	if c.Home == "" {
		errs = errors.AppendField(errs, "Home", errors.ErrEmpty)
	}
	if c.ABCIBind == "" {
		errs = errors.AppendField(errs, "ABCIBind", errors.ErrEmpty)
	}
	if c.HTTPBind == "" {
		errs = errors.AppendField(errs, "HTTPBind", errors.ErrEmpty)
	}
	if _, err := log.AllowLevel(c.LogLevel); err != nil {
		errs = errors.AppendField(errs, "LogLevel", errors.Wrap(errors.ErrInput, err.Error()))
	}
	return errs
}

// WriteConfig stores the configuration in the home directory.
func WriteConfig(c Config) error {
	if err := os.MkdirAll(c.Home, 0o755); err != nil {
		return errors.Wrapf(errors.ErrInput, "cannot create home: %s", err)
	}
	f, err := os.Create(filepath.Join(c.Home, ConfigFile))
	if err != nil {
		return errors.Wrapf(errors.ErrInput, "cannot create config: %s", err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return errors.Wrapf(errors.ErrInput, "cannot encode config: %s", err)
	}
	return nil
}

// Logger returns a logger writing to given file, filtered by the configured
// level.
func (c Config) Logger(w *os.File) (log.Logger, error) {
	lvl, err := log.AllowLevel(c.LogLevel)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	logger := log.NewTMLogger(log.NewSyncWriter(w))
	return log.NewFilter(logger, lvl), nil
}

// GenesisFile returns the path of the genesis file.
func (c Config) GenesisFile() string {
	return filepath.Join(c.Home, "genesis.json")
}

// DBPath returns the path of the application database.
func (c Config) DBPath() string {
	return filepath.Join(c.Home, "data", "deals.db")
}
