package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Warehouse is one node of a company's warehouse hierarchy.
// Lft and Rgt are nested-set bounds owned by WarehouseTree; callers never set them.
type Warehouse struct {
	Name            string    `json:"name"`
	WarehouseName   string    `json:"warehouse_name"`
	Company         string    `json:"company,omitempty"` // empty = unscoped
	ParentWarehouse string    `json:"parent_warehouse,omitempty"`
	IsGroup         bool      `json:"is_group"`
	Account         string    `json:"account,omitempty"`
	DocStatus       DocStatus `json:"docstatus"`
	Lft             int       `json:"lft"`
	Rgt             int       `json:"rgt"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// IsRoot reports whether the warehouse has no parent.
func (w Warehouse) IsRoot() bool {
	return w.ParentWarehouse == ""
}

// Contains reports whether other lies strictly inside w's interval.
func (w Warehouse) Contains(other Warehouse) bool {
	return w.Lft < other.Lft && other.Rgt < w.Rgt
}

// NewWarehouse is the caller-supplied part of a warehouse on insertion.
type NewWarehouse struct {
	WarehouseName   string
	Company         string
	ParentWarehouse string
	IsGroup         bool
	Account         string
}

// Bin is the per-(item, warehouse) stock aggregate kept by the stock subsystem.
type Bin struct {
	ItemCode     string          `json:"item_code"`
	Warehouse    string          `json:"warehouse"`
	ActualQty    decimal.Decimal `json:"actual_qty"`
	ReservedQty  decimal.Decimal `json:"reserved_qty"`
	OrderedQty   decimal.Decimal `json:"ordered_qty"`
	IndentedQty  decimal.Decimal `json:"indented_qty"`
	ProjectedQty decimal.Decimal `json:"projected_qty"`
	PlannedQty   decimal.Decimal `json:"planned_qty"`
	StockValue   decimal.Decimal `json:"stock_value"`
}

// HasBalance reports whether the bin still carries a quantity that blocks
// warehouse deletion. ProjectedQty is derived from the other quantities and
// is not checked on its own.
func (b Bin) HasBalance() bool {
	return !b.ActualQty.IsZero() ||
		!b.ReservedQty.IsZero() ||
		!b.OrderedQty.IsZero() ||
		!b.IndentedQty.IsZero() ||
		!b.PlannedQty.IsZero()
}

// TreeNode is a presentation-ready row of the warehouse tree view.
type TreeNode struct {
	Value           string           `json:"value"`
	Expandable      bool             `json:"expandable"`
	Balance         *decimal.Decimal `json:"balance"`
	CompanyCurrency string           `json:"company_currency,omitempty"`
}

// WarehouseDocName returns the stored name of a warehouse: the display name
// suffixed with " - <abbr>" unless it already ends with that suffix.
// An empty abbreviation (no company) leaves the name unchanged.
func WarehouseDocName(warehouseName, abbr string) string {
	if abbr == "" {
		return warehouseName
	}
	suffix := " - " + abbr
	if strings.HasSuffix(warehouseName, suffix) {
		return warehouseName
	}
	return warehouseName + suffix
}
