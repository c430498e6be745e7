package main

import (
	"fmt"
	"os"
	"path/filepath"

	weave "github.com/michaelwinczuk/agent-contracts"
	"github.com/michaelwinczuk/agent-contracts/cmd/dealsd/app"
	"github.com/michaelwinczuk/agent-contracts/commands/server"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func defaultHome() string {
	if home := os.Getenv("DEALSD_HOME"); home != "" {
		return home
	}
	return filepath.Join(os.ExpandEnv("$HOME"), ".dealsd")
}

func main() {
	conf := server.DefaultConfig(defaultHome())

	root := &cobra.Command{
		Use:           "dealsd",
		Short:         "Escrow ledger for agent service deals",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd, &conf)
		},
	}
	root.PersistentFlags().StringVar(&conf.Home, "home", conf.Home, "directory to store files under")
	root.PersistentFlags().StringVar(&conf.LogLevel, "log_level", conf.LogLevel, "log level (eg. info, debug, error)")

	root.AddCommand(
		server.InitCmd(app.GenInitOptions, &conf),
		server.StartCmd(app.GenerateApp, &conf),
		serveCmd(&conf),
		server.ValidateGenesisCmd(app.Initializers(), &conf),
		&cobra.Command{
			Use:   "version",
			Short: "Print the application version",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Println(weave.Version())
			},
		},
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %+v\n\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration file of the home directory. Flags set
// on the command line take precedence over the file values.
func loadConfig(cmd *cobra.Command, conf *server.Config) error {
	changed := make(map[string]string)
	cmd.Flags().Visit(func(f *pflag.Flag) {
		changed[f.Name] = f.Value.String()
	})

	loaded, err := server.LoadConfig(conf.Home)
	if err != nil {
		return err
	}
	*conf = loaded

	for name, value := range changed {
		if err := cmd.Flags().Set(name, value); err != nil {
			return err
		}
	}
	return conf.Validate()
}
