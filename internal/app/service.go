package app

import (
	"context"
)

// ApplicationService is the single interface all adapters (CLI, Web) call.
// It decouples presentation from the warehouse tree services. Implementations
// must contain no fmt.Println and no display logic of any kind.
type ApplicationService interface {
	// LoadDefaultCompany loads the company configured as DEFAULT_COMPANY.
	LoadDefaultCompany(ctx context.Context) (*CompanyResult, error)

	// GetTreeChildren lists the direct children of a tree node, annotated with the
	// rolled-up stock balance and the company currency.
	GetTreeChildren(ctx context.Context, req TreeChildrenRequest) (*TreeChildrenResult, error)

	// AddNode inserts a warehouse. IsRoot forces the warehouse to have no parent.
	AddNode(ctx context.Context, req AddNodeRequest) (*WarehouseResult, error)

	// GetWarehouse returns one warehouse by its stored name.
	GetWarehouse(ctx context.Context, name string) (*WarehouseResult, error)

	// ConvertToGroupOrLedger toggles a warehouse between group and ledger.
	ConvertToGroupOrLedger(ctx context.Context, name string) (*WarehouseResult, error)

	// MoveWarehouse re-parents a warehouse; an empty parent makes it a root.
	MoveWarehouse(ctx context.Context, req MoveWarehouseRequest) (*WarehouseResult, error)

	// DeleteWarehouse removes a warehouse without children, balances, or ledger history.
	DeleteWarehouse(ctx context.Context, name string) error

	// GetDescendants returns every warehouse below name.
	GetDescendants(ctx context.Context, name string) (*WarehouseListResult, error)

	// GetWarehouseWiseStockValue returns rolled-up stock value per warehouse of a company.
	GetWarehouseWiseStockValue(ctx context.Context, companyCode string) (*StockValueResult, error)

	// RebuildTree recomputes all nested-set bounds of a company scope.
	RebuildTree(ctx context.Context, companyCode string) error

	// GetWarehousesBasedOnAccount resolves the warehouses booked to an inventory account.
	GetWarehousesBasedOnAccount(ctx context.Context, account, companyCode string) (*WarehouseNamesResult, error)

	// GetWarehouseAccount returns the inventory account that applies to a warehouse.
	GetWarehouseAccount(ctx context.Context, name string) (*WarehouseAccountResult, error)
}
