package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"warehouse-tree/internal/app"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc    app.ApplicationService
	router chi.Router
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins string) http.Handler {
	h := &Handler{svc: svc}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(CORS(allowedOrigins))

	// ── Public ────────────────────────────────────────────────────────────────
	r.Get("/api/health", h.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB

		// ── Warehouse tree ────────────────────────────────────────────────────
		r.Get("/api/warehouses/tree", h.apiTreeChildren)
		r.Post("/api/warehouses", h.apiAddNode)
		r.Get("/api/warehouses/{name}", h.apiGetWarehouse)
		r.Delete("/api/warehouses/{name}", h.apiDeleteWarehouse)
		r.Post("/api/warehouses/{name}/convert", h.apiConvertWarehouse)
		r.Post("/api/warehouses/{name}/move", h.apiMoveWarehouse)
		r.Get("/api/warehouses/{name}/descendants", h.apiDescendants)
		r.Get("/api/warehouses/{name}/account", h.apiWarehouseAccount)

		// ── Company-scoped ────────────────────────────────────────────────────
		r.Get("/api/companies/{code}/stock-value", h.apiStockValue)
		r.Post("/api/companies/{code}/warehouses/rebuild", h.apiRebuildTree)

		// ── Accounts ──────────────────────────────────────────────────────────
		r.Get("/api/accounts/{account}/warehouses", h.apiWarehousesByAccount)
	})

	h.router = r
	return r
}

// health returns service status and the default company code, if configured.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	companyCode := ""
	if res, err := h.svc.LoadDefaultCompany(r.Context()); err == nil && res.Company != nil {
		companyCode = res.Company.Code
	}

	type response struct {
		Status  string `json:"status"`
		Company string `json:"company,omitempty"`
	}

	writeJSON(w, http.StatusOK, response{Status: "ok", Company: companyCode})
}

// companyCode extracts the {code} URL parameter.
func companyCode(r *http.Request) string {
	return chi.URLParam(r, "code")
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
