package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/michaelwinczuk/agent-contracts/errors"
	"github.com/spf13/cobra"
	"github.com/tendermint/tendermint/abci/server"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/log"
)

// AppGenerator lets us lazily initialize app, using home dir
// and logger potentially initialized with other flags
type AppGenerator func(conf Config, logger log.Logger) (abci.Application, error)

// StartCmd runs the ABCI socket server until the process is interrupted.
func StartCmd(gen AppGenerator, conf *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Run the abci server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := conf.Logger(os.Stdout)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return Start(ctx, gen, logger, *conf)
		},
	}
	cmd.Flags().StringVar(&conf.ABCIBind, "bind", conf.ABCIBind, "address server listens on")
	cmd.Flags().BoolVar(&conf.Debug, "debug", conf.Debug, "call stack returned on error")
	return cmd
}

// Start serves the application until the context is cancelled.
func Start(ctx context.Context, gen AppGenerator, logger log.Logger, conf Config) error {
	app, err := gen(conf, logger)
	if err != nil {
		return err
	}

	logger.Info("Starting ABCI app", "bind", conf.ABCIBind)
	svr, err := server.NewServer(conf.ABCIBind, "socket", app)
	if err != nil {
		return errors.Wrapf(errors.ErrInput, "cannot create listener: %s", err)
	}
	svr.SetLogger(logger.With("module", "abci-server"))
	if err := svr.Start(); err != nil {
		return errors.Wrapf(errors.ErrState, "cannot start server: %s", err)
	}

	<-ctx.Done()
	logger.Info("Stopping ABCI app")
	return svr.Stop()
}
