package core

import (
	"errors"
	"fmt"
)

// Validation failures returned by the hierarchy and aggregation services.
// They are wrapped with context via fmt.Errorf("%w: ...") and matched with errors.Is.
var (
	ErrWarehouseNotFound  = errors.New("warehouse not found")
	ErrDuplicateWarehouse = errors.New("warehouse already exists")
	ErrInvalidWarehouse   = errors.New("invalid warehouse")
	ErrCompanyNotFound    = errors.New("company not found")

	ErrInvalidParent         = errors.New("invalid parent warehouse")
	ErrHasChildren           = errors.New("warehouse has child warehouses")
	ErrHasTransactionHistory = errors.New("warehouse has transaction history")
	ErrCyclicHierarchy       = errors.New("cyclic warehouse hierarchy")
	ErrNoWarehouseFound      = errors.New("no warehouse found")

	// Both deletion guards are kinds of transaction history.
	ErrNonZeroBalance    = fmt.Errorf("%w: non-zero stock balance", ErrHasTransactionHistory)
	ErrStockLedgerExists = fmt.Errorf("%w: stock ledger entries exist", ErrHasTransactionHistory)
)
