package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"warehouse-tree/internal/core"

	"github.com/rs/zerolog/log"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeServiceError maps a service error to an HTTP status and error code.
// The order matters: the history sub-kinds are checked before their parent kind.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrWarehouseNotFound):
		writeError(w, r, err.Error(), "WAREHOUSE_NOT_FOUND", http.StatusNotFound)
	case errors.Is(err, core.ErrCompanyNotFound):
		writeError(w, r, err.Error(), "COMPANY_NOT_FOUND", http.StatusNotFound)
	case errors.Is(err, core.ErrNoWarehouseFound):
		writeError(w, r, err.Error(), "NO_WAREHOUSE_FOUND", http.StatusNotFound)
	case errors.Is(err, core.ErrDuplicateWarehouse):
		writeError(w, r, err.Error(), "DUPLICATE_WAREHOUSE", http.StatusConflict)
	case errors.Is(err, core.ErrHasChildren):
		writeError(w, r, err.Error(), "HAS_CHILDREN", http.StatusConflict)
	case errors.Is(err, core.ErrNonZeroBalance):
		writeError(w, r, err.Error(), "NON_ZERO_BALANCE", http.StatusConflict)
	case errors.Is(err, core.ErrStockLedgerExists):
		writeError(w, r, err.Error(), "STOCK_LEDGER_EXISTS", http.StatusConflict)
	case errors.Is(err, core.ErrHasTransactionHistory):
		writeError(w, r, err.Error(), "HAS_TRANSACTION_HISTORY", http.StatusConflict)
	case errors.Is(err, core.ErrInvalidParent):
		writeError(w, r, err.Error(), "INVALID_PARENT", http.StatusUnprocessableEntity)
	case errors.Is(err, core.ErrInvalidWarehouse):
		writeError(w, r, err.Error(), "INVALID_WAREHOUSE", http.StatusUnprocessableEntity)
	case errors.Is(err, core.ErrCyclicHierarchy):
		log.Error().Err(err).Str("request_id", requestIDFromContext(r.Context())).Msg("cyclic warehouse hierarchy")
		writeError(w, r, err.Error(), "CYCLIC_HIERARCHY", http.StatusConflict)
	default:
		log.Error().Err(err).Str("request_id", requestIDFromContext(r.Context())).Msg("request failed")
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}
