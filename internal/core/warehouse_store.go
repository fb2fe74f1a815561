package core

import (
	"context"

	"github.com/shopspring/decimal"
)

// WarehouseStore owns transactional access to warehouses, bins, and stock
// ledger entries.
type WarehouseStore interface {
	// View runs fn against one consistent read-only snapshot.
	View(ctx context.Context, fn func(tx WarehouseTx) error) error
	// Mutate runs fn in a transaction holding the company's tree lock, so
	// structural changes to one company scope never interleave.
	// The transaction commits only if fn returns nil.
	Mutate(ctx context.Context, company string, fn func(tx WarehouseTx) error) error
}

// WarehouseTx is the set of queries available inside View or Mutate.
type WarehouseTx interface {
	// GetWarehouse returns ErrWarehouseNotFound if name does not exist.
	GetWarehouse(ctx context.Context, name string) (*Warehouse, error)
	// ListWarehouses returns every warehouse of exactly this company scope
	// ("" = unscoped), ordered by lft.
	ListWarehouses(ctx context.Context, company string) ([]Warehouse, error)
	// ListChildren returns non-cancelled direct children of parent ("" = roots)
	// whose company is company or unscoped, ordered by name.
	ListChildren(ctx context.Context, parent, company string) ([]Warehouse, error)
	// ListByAccount returns warehouses whose own account is account, ordered by name.
	ListByAccount(ctx context.Context, account string) ([]Warehouse, error)

	InsertWarehouse(ctx context.Context, w Warehouse) error
	// UpdateWarehouse persists the parent, group flag, account, and bounds of w.
	UpdateWarehouse(ctx context.Context, w Warehouse) error
	// UpdateBounds persists lft, rgt, and parent for each warehouse.
	UpdateBounds(ctx context.Context, ws []Warehouse) error
	DeleteWarehouse(ctx context.Context, name string) error

	ListBins(ctx context.Context, warehouse string) ([]Bin, error)
	DeleteBins(ctx context.Context, warehouse string) error
	HasLedgerEntries(ctx context.Context, warehouse string) (bool, error)
	// StockValueByWarehouse sums bin stock_value per warehouse of the company scope.
	StockValueByWarehouse(ctx context.Context, company string) (map[string]decimal.Decimal, error)
}
