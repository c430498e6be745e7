/*
Package app links together all the various components
to construct the deal ledger node.
*/
package app

import (
	"context"
	"path/filepath"
	"strings"

	weave "github.com/michaelwinczuk/agent-contracts"
	"github.com/michaelwinczuk/agent-contracts/app"
	"github.com/michaelwinczuk/agent-contracts/commands/server"
	"github.com/michaelwinczuk/agent-contracts/errors"
	"github.com/michaelwinczuk/agent-contracts/store/iavl"
	"github.com/michaelwinczuk/agent-contracts/x"
	"github.com/michaelwinczuk/agent-contracts/x/cash"
	"github.com/michaelwinczuk/agent-contracts/x/deal"
	"github.com/michaelwinczuk/agent-contracts/x/sigs"
	"github.com/michaelwinczuk/agent-contracts/x/utils"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/log"
)

// Name is returned by the ABCI info call.
const Name = "dealsd"

// Authenticator returns the typical authentication,
// just using public key signatures
func Authenticator() x.Authenticator {
	return x.ChainAuth(sigs.Authenticate{})
}

// Chain returns a chain of decorators, to handle authentication,
// logging, and recovery
func Chain() app.Decorators {
	return app.ChainDecorators(
		utils.NewLogging(),
		utils.NewRecovery(),
		utils.NewActionTagger(),
		// on CheckTx, bad tx don't affect state
		utils.NewSavepoint().OnCheck(),
		sigs.NewDecorator(),
		// on DeliverTx, bad tx will increment nonce
		// even if the message fails
		utils.NewSavepoint().OnDeliver(),
	)
}

// Router returns a router dispatching to the cash and the deal handlers.
// Deal deposits are kept in cash wallets.
func Router(authFn x.Authenticator) *app.Router {
	r := app.NewRouter()
	bank := cash.NewController(cash.NewBucket())
	cash.RegisterRoutes(r, authFn, bank)
	deal.RegisterRoutes(r, authFn, deal.NewCashCustody(bank))
	return r
}

// QueryRouter returns a default query router,
// allowing access to "/wallets", "/auth" and "/deals"
func QueryRouter() weave.QueryRouter {
	r := weave.NewQueryRouter()
	r.RegisterAll(
		cash.RegisterQuery,
		sigs.RegisterQuery,
		deal.RegisterQuery,
	)
	return r
}

// Initializers loads the cash accounts first so that genesis deals can be
// funded.
func Initializers() weave.Initializer {
	return app.ChainInitializers(
		cash.Initializer{},
		deal.Initializer{Minter: cash.NewController(cash.NewBucket())},
	)
}

// Stack wires up a standard router with a standard decorator
// chain. This can be passed into BaseApp.
func Stack() weave.Handler {
	authFn := Authenticator()
	return Chain().WithHandler(Router(authFn))
}

// Application constructs a basic ABCI application with
// the given arguments.
func Application(name string, h weave.Handler, tx weave.TxDecoder, dbPath string, debug bool) (app.BaseApp, error) {
	kv, err := CommitKVStore(dbPath)
	if err != nil {
		return app.BaseApp{}, err
	}
	store, err := app.NewStoreApp(name, kv, QueryRouter(), context.Background())
	if err != nil {
		return app.BaseApp{}, err
	}
	store.WithInit(Initializers())
	return app.NewBaseApp(store, tx, h, debug), nil
}

// CommitKVStore returns an initialized KVStore that persists
// the data to the named path.
func CommitKVStore(dbPath string) (weave.CommitKVStore, error) {
	// memory backed case, just for testing
	if dbPath == "" {
		return iavl.NewMemCommitStore(), nil
	}

	path, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "invalid database name: %s", dbPath)
	}
	// Some external calls accidentally add a ".db", which is now removed
	path = strings.TrimSuffix(path, filepath.Ext(path))

	dir := filepath.Dir(path)
	name := filepath.Base(path)
	return iavl.NewCommitStore(dir, name)
}

// GenerateApp is used to create a stub for server/start.go command
func GenerateApp(conf server.Config, logger log.Logger) (abci.Application, error) {
	application, err := Application(Name, Stack(), TxDecoder, conf.DBPath(), conf.Debug)
	if err != nil {
		return nil, err
	}
	application.WithLogger(logger)
	return application, nil
}
