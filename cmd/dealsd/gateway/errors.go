package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/michaelwinczuk/agent-contracts/errors"
	"github.com/michaelwinczuk/agent-contracts/x/deal"
)

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code    uint32 `json:"code"`
	Message string `json:"message"`
}

// statusOf maps registered errors to HTTP status codes. Custody failures are
// matched first as they may carry the cause reported by the bank.
func statusOf(err error) int {
	switch {
	case deal.ErrCustody.Is(err):
		return http.StatusUnprocessableEntity
	case errors.ErrNotFound.Is(err):
		return http.StatusNotFound
	case errors.ErrUnauthorized.Is(err):
		return http.StatusForbidden
	case errors.ErrState.Is(err), deal.ErrDeadlineNotReached.Is(err):
		return http.StatusConflict
	case errors.ErrInput.Is(err),
		errors.ErrEmpty.Is(err),
		errors.ErrMsg.Is(err),
		errors.ErrAmount.Is(err),
		errors.ErrCurrency.Is(err),
		errors.ErrOverflow.Is(err),
		errors.ErrMetadata.Is(err),
		deal.ErrInvalidDuration.Is(err),
		deal.ErrInvalidDeposit.Is(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	code, log := errors.ABCIInfo(err, false)
	writeJSON(w, status, ErrorResponse{Error: ErrorBody{Code: code, Message: log}})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
