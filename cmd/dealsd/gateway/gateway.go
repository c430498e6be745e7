/*
Package gateway exposes a deal ledger over HTTP.

The gateway is meant for local development. Callers are not authenticated,
the caller address is taken from the X-Caller header.
*/
package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	weave "github.com/michaelwinczuk/agent-contracts"
	"github.com/michaelwinczuk/agent-contracts/coin"
	"github.com/michaelwinczuk/agent-contracts/errors"
	"github.com/michaelwinczuk/agent-contracts/x/cash"
	"github.com/michaelwinczuk/agent-contracts/x/deal"
	"github.com/tendermint/tendermint/libs/log"
)

// CallerHeader carries the address of the account performing a request.
const CallerHeader = "X-Caller"

// Server serves the deal ledger API.
type Server struct {
	ledger *deal.Ledger
	bank   cash.Controller
	logger log.Logger
}

// NewServer returns a server over ledger. Balances are read from bank.
func NewServer(ledger *deal.Ledger, bank cash.Controller, logger log.Logger) *Server {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Server{ledger: ledger, bank: bank, logger: logger}
}

// Handler returns the router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(s.withLogger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/deals", func(r chi.Router) {
		r.Get("/", s.handleListDeals)
		r.Post("/", s.handleCreateDeal)
		r.Get("/{id}", s.handleGetDeal)
		r.Post("/{id}/confirm", s.handleConfirm)
		r.Post("/{id}/refund", s.handleRefund)
	})
	r.Get("/accounts/{address}", s.handleBalance)
	return r
}

// withLogger makes the server logger available to the ledger.
func (s *Server) withLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := weave.WithLogger(r.Context(), s.logger.With(
			"request_id", middleware.GetReqID(r.Context())))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CreateRequest is the body of a deal creation.
type CreateRequest struct {
	Provider       weave.Address `json:"provider"`
	TaskCommitment deal.Digest   `json:"task_commitment"`
	// Duration in seconds.
	Duration int64     `json:"duration"`
	Amount   coin.Coin `json:"amount"`
}

// CreateResponse returns the id of a created deal.
type CreateResponse struct {
	ID uint64 `json:"id"`
}

// BalanceResponse lists the coins held by an address.
type BalanceResponse struct {
	Address weave.Address `json:"address"`
	Coins   coin.Coins    `json:"coins"`
}

func (s *Server) handleCreateDeal(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.Wrapf(errors.ErrInput, "decode request: %s", err))
		return
	}
	if err := req.Provider.Validate(); err != nil {
		s.writeError(w, errors.Field("provider", err, "invalid address"))
		return
	}

	duration, err := deal.SecondsToDuration(req.Duration)
	if err != nil {
		s.writeError(w, errors.Field("duration", err, "invalid duration"))
		return
	}
	id, err := s.ledger.CreateDeal(r.Context(), caller, req.Provider, req.TaskCommitment, duration, req.Amount)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreateResponse{ID: id})
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	s.settle(w, r, s.ledger.ConfirmDelivery)
}

func (s *Server) handleRefund(w http.ResponseWriter, r *http.Request) {
	s.settle(w, r, s.ledger.ClaimRefund)
}

// settle runs a transition and responds with the settled deal.
func (s *Server) settle(w http.ResponseWriter, r *http.Request, fn func(context.Context, weave.Address, uint64) error) {
	caller, err := callerOf(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	id, err := dealID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := fn(r.Context(), caller, id); err != nil {
		s.writeError(w, err)
		return
	}
	d, err := s.ledger.QueryDeal(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleGetDeal(w http.ResponseWriter, r *http.Request) {
	id, err := dealID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	d, err := s.ledger.QueryDeal(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// handleListDeals requires exactly one of the buyer or provider filters.
func (s *Server) handleListDeals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	buyer, provider := q.Get("buyer"), q.Get("provider")

	var (
		deals []deal.Deal
		err   error
	)
	switch {
	case buyer != "" && provider == "":
		var addr weave.Address
		if addr, err = parseAddress(buyer); err == nil {
			deals, err = s.ledger.DealsByBuyer(addr)
		}
	case provider != "" && buyer == "":
		var addr weave.Address
		if addr, err = parseAddress(provider); err == nil {
			deals, err = s.ledger.DealsByProvider(addr)
		}
	default:
		err = errors.Wrap(errors.ErrInput, "exactly one of buyer or provider filter is required")
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	if deals == nil {
		deals = []deal.Deal{}
	}
	writeJSON(w, http.StatusOK, deals)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddress(chi.URLParam(r, "address"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	var coins coin.Coins
	err = s.ledger.View(func(db weave.ReadOnlyKVStore) error {
		var err error
		coins, err = s.bank.Balance(db, addr)
		return err
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	if coins == nil {
		coins = coin.Coins{}
	}
	writeJSON(w, http.StatusOK, BalanceResponse{Address: addr, Coins: coins})
}

func callerOf(r *http.Request) (weave.Address, error) {
	raw := r.Header.Get(CallerHeader)
	if raw == "" {
		return nil, errors.Wrapf(errors.ErrUnauthorized, "missing %s header", CallerHeader)
	}
	return parseAddress(raw)
}

func parseAddress(raw string) (weave.Address, error) {
	addr, err := weave.ParseAddress(raw)
	if err != nil {
		return nil, err
	}
	if err := addr.Validate(); err != nil {
		return nil, err
	}
	return addr, nil
}

func dealID(r *http.Request) (uint64, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrInput, "invalid deal id %q", chi.URLParam(r, "id"))
	}
	return id, nil
}
