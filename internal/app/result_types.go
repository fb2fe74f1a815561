package app

import (
	"warehouse-tree/internal/core"

	"github.com/shopspring/decimal"
)

// CompanyResult is returned by LoadDefaultCompany.
type CompanyResult struct {
	Company *core.Company
}

// TreeChildrenResult is returned by GetTreeChildren.
type TreeChildrenResult struct {
	CompanyCode string
	Parent      string
	Nodes       []core.TreeNode
}

// WarehouseResult is returned by single-warehouse operations.
type WarehouseResult struct {
	Warehouse *core.Warehouse
}

// WarehouseListResult is returned by GetDescendants.
type WarehouseListResult struct {
	Warehouses []core.Warehouse
}

// WarehouseValue is one row of a stock value report.
type WarehouseValue struct {
	Warehouse  string          `json:"warehouse"`
	StockValue decimal.Decimal `json:"stock_value"`
}

// StockValueResult is returned by GetWarehouseWiseStockValue.
// Values are ordered by warehouse name.
type StockValueResult struct {
	CompanyCode string
	Currency    string
	Values      []WarehouseValue
}

// WarehouseNamesResult is returned by GetWarehousesBasedOnAccount.
type WarehouseNamesResult struct {
	Account    string
	Warehouses []string
}

// WarehouseAccountResult is returned by GetWarehouseAccount.
// Account is empty when the company does not keep perpetual inventory.
type WarehouseAccountResult struct {
	Warehouse string
	Account   string
}
