package gateway

import (
	"context"
	"net/http"
	"time"

	weave "github.com/michaelwinczuk/agent-contracts"
	"github.com/michaelwinczuk/agent-contracts/app"
	"github.com/michaelwinczuk/agent-contracts/errors"
	"github.com/michaelwinczuk/agent-contracts/store"
	"github.com/michaelwinczuk/agent-contracts/x/deal"
	"github.com/tendermint/tendermint/libs/log"
)

// NewMemLedger returns a ledger over an in memory store loaded with the
// genesis state.
func NewMemLedger(genesis app.Genesis, init weave.Initializer, custody deal.Custody, clock deal.Clock) (*deal.Ledger, error) {
	db := store.MemStore()
	if init != nil {
		if err := init.FromGenesis(genesis.AppState, db); err != nil {
			return nil, errors.Wrap(err, "load genesis")
		}
	}
	return deal.NewLedger(db, custody, clock), nil
}

// Serve listens on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, h http.Handler, logger log.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP gateway", "addr", addr)
		done <- srv.ListenAndServe()
	}()

	select {
	case err := <-done:
		return errors.Wrap(err, "serve")
	case <-ctx.Done():
	}

	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdown); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	logger.Info("HTTP gateway stopped")
	return nil
}
