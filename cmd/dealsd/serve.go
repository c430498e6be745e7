package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/michaelwinczuk/agent-contracts/app"
	dealsd "github.com/michaelwinczuk/agent-contracts/cmd/dealsd/app"
	"github.com/michaelwinczuk/agent-contracts/cmd/dealsd/gateway"
	"github.com/michaelwinczuk/agent-contracts/commands/server"
	"github.com/michaelwinczuk/agent-contracts/x/cash"
	"github.com/michaelwinczuk/agent-contracts/x/deal"
	"github.com/spf13/cobra"
)

// serveCmd runs the HTTP gateway over an in memory ledger loaded from the
// genesis file. State is lost on exit.
func serveCmd(conf *server.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP gateway over an in memory ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := conf.Logger(os.Stdout)
			if err != nil {
				return err
			}
			genesis, err := app.LoadGenesis(conf.GenesisFile())
			if err != nil {
				return err
			}

			bank := cash.NewController(cash.NewBucket())
			ledger, err := gateway.NewMemLedger(genesis, dealsd.Initializers(), deal.NewCashCustody(bank), nil)
			if err != nil {
				return err
			}
			srv := gateway.NewServer(ledger, bank, logger.With("module", "gateway"))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return gateway.Serve(ctx, conf.HTTPBind, srv.Handler(), logger)
		},
	}
	cmd.Flags().StringVar(&conf.HTTPBind, "http", conf.HTTPBind, "address the gateway listens on")
	return cmd
}
