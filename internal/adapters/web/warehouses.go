package web

import (
	"net/http"
	"net/url"
	"strconv"

	"warehouse-tree/internal/app"

	"github.com/go-chi/chi/v5"
)

// warehouseName returns the {name} URL parameter as a warehouse name.
// chi matches against RawPath when it is set, leaving the param escaped.
func warehouseName(r *http.Request) string {
	raw := chi.URLParam(r, "name")
	if r.URL.RawPath == "" {
		return raw
	}
	if name, err := url.PathUnescape(raw); err == nil {
		return name
	}
	return raw
}

// apiTreeChildren handles GET /api/warehouses/tree?company=&parent=&is_root=.
func (h *Handler) apiTreeChildren(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	isRoot, _ := strconv.ParseBool(q.Get("is_root"))

	result, err := h.svc.GetTreeChildren(r.Context(), app.TreeChildrenRequest{
		CompanyCode: q.Get("company"),
		Parent:      q.Get("parent"),
		IsRoot:      isRoot,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result.Nodes)
}

// apiAddNode handles POST /api/warehouses.
func (h *Handler) apiAddNode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WarehouseName   string `json:"warehouse_name"`
		Company         string `json:"company"`
		ParentWarehouse string `json:"parent_warehouse"`
		Account         string `json:"account"`
		IsGroup         bool   `json:"is_group"`
		IsRoot          bool   `json:"is_root"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.WarehouseName == "" {
		writeError(w, r, "warehouse_name is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	result, err := h.svc.AddNode(r.Context(), app.AddNodeRequest{
		WarehouseName:   req.WarehouseName,
		CompanyCode:     req.Company,
		ParentWarehouse: req.ParentWarehouse,
		Account:         req.Account,
		IsGroup:         req.IsGroup,
		IsRoot:          req.IsRoot,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result.Warehouse)
}

// apiGetWarehouse handles GET /api/warehouses/{name}.
func (h *Handler) apiGetWarehouse(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetWarehouse(r.Context(), warehouseName(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result.Warehouse)
}

// apiDeleteWarehouse handles DELETE /api/warehouses/{name}.
func (h *Handler) apiDeleteWarehouse(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteWarehouse(r.Context(), warehouseName(r)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// apiConvertWarehouse handles POST /api/warehouses/{name}/convert.
func (h *Handler) apiConvertWarehouse(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ConvertToGroupOrLedger(r.Context(), warehouseName(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result.Warehouse)
}

// apiMoveWarehouse handles POST /api/warehouses/{name}/move.
func (h *Handler) apiMoveWarehouse(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ParentWarehouse string `json:"parent_warehouse"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.MoveWarehouse(r.Context(), app.MoveWarehouseRequest{
		Name:      warehouseName(r),
		NewParent: req.ParentWarehouse,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result.Warehouse)
}

// apiDescendants handles GET /api/warehouses/{name}/descendants.
func (h *Handler) apiDescendants(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetDescendants(r.Context(), warehouseName(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result.Warehouses)
}

// apiWarehouseAccount handles GET /api/warehouses/{name}/account.
func (h *Handler) apiWarehouseAccount(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetWarehouseAccount(r.Context(), warehouseName(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	type response struct {
		Warehouse string `json:"warehouse"`
		Account   string `json:"account,omitempty"`
	}
	writeJSON(w, http.StatusOK, response{Warehouse: result.Warehouse, Account: result.Account})
}

// apiStockValue handles GET /api/companies/{code}/stock-value.
func (h *Handler) apiStockValue(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetWarehouseWiseStockValue(r.Context(), companyCode(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	type response struct {
		Company  string               `json:"company"`
		Currency string               `json:"currency,omitempty"`
		Values   []app.WarehouseValue `json:"values"`
	}
	writeJSON(w, http.StatusOK, response{
		Company:  result.CompanyCode,
		Currency: result.Currency,
		Values:   result.Values,
	})
}

// apiRebuildTree handles POST /api/companies/{code}/warehouses/rebuild.
func (h *Handler) apiRebuildTree(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.RebuildTree(r.Context(), companyCode(r)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// apiWarehousesByAccount handles GET /api/accounts/{account}/warehouses?company=.
func (h *Handler) apiWarehousesByAccount(w http.ResponseWriter, r *http.Request) {
	account, err := url.PathUnescape(chi.URLParam(r, "account"))
	if err != nil {
		writeError(w, r, "invalid account", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	result, err := h.svc.GetWarehousesBasedOnAccount(r.Context(), account, r.URL.Query().Get("company"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	type response struct {
		Account    string   `json:"account"`
		Warehouses []string `json:"warehouses"`
	}
	writeJSON(w, http.StatusOK, response{Account: result.Account, Warehouses: result.Warehouses})
}
