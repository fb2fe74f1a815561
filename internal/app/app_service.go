package app

import (
	"context"
	"fmt"
	"sort"

	"warehouse-tree/internal/core"
)

type appService struct {
	hierarchy      core.HierarchyService
	stockValue     core.StockValueService
	companies      core.CompanyRegistry
	defaultCompany string
}

// NewAppService constructs an appService that satisfies ApplicationService.
// defaultCompany is the company code used by LoadDefaultCompany; it may be empty.
func NewAppService(
	hierarchy core.HierarchyService,
	stockValue core.StockValueService,
	companies core.CompanyRegistry,
	defaultCompany string,
) ApplicationService {
	return &appService{
		hierarchy:      hierarchy,
		stockValue:     stockValue,
		companies:      companies,
		defaultCompany: defaultCompany,
	}
}

// LoadDefaultCompany loads the company configured as DEFAULT_COMPANY.
func (s *appService) LoadDefaultCompany(ctx context.Context) (*CompanyResult, error) {
	if s.defaultCompany == "" {
		return nil, fmt.Errorf("%w: DEFAULT_COMPANY is not set", core.ErrCompanyNotFound)
	}
	c, err := s.companies.GetCompany(ctx, s.defaultCompany)
	if err != nil {
		return nil, err
	}
	return &CompanyResult{Company: c}, nil
}

// GetTreeChildren lists one level of the tree with rolled-up balances.
// Balance stays nil for warehouses without stock value.
func (s *appService) GetTreeChildren(ctx context.Context, req TreeChildrenRequest) (*TreeChildrenResult, error) {
	parent := req.Parent
	if req.IsRoot {
		parent = ""
	}

	children, err := s.hierarchy.GetChildren(ctx, parent, req.CompanyCode)
	if err != nil {
		return nil, err
	}

	var currency string
	if req.CompanyCode != "" {
		c, err := s.companies.GetCompany(ctx, req.CompanyCode)
		if err != nil {
			return nil, err
		}
		currency = c.DefaultCurrency
	}

	values, err := s.stockValue.GetWarehouseWiseStockValue(ctx, req.CompanyCode)
	if err != nil {
		return nil, err
	}

	nodes := make([]core.TreeNode, 0, len(children))
	for _, w := range children {
		node := core.TreeNode{
			Value:           w.Name,
			Expandable:      w.IsGroup,
			CompanyCurrency: currency,
		}
		if v, ok := values[w.Name]; ok {
			balance := v
			node.Balance = &balance
		}
		nodes = append(nodes, node)
	}
	return &TreeChildrenResult{CompanyCode: req.CompanyCode, Parent: parent, Nodes: nodes}, nil
}

// AddNode inserts a warehouse into the tree.
func (s *appService) AddNode(ctx context.Context, req AddNodeRequest) (*WarehouseResult, error) {
	parent := req.ParentWarehouse
	if req.IsRoot {
		parent = ""
	}
	w, err := s.hierarchy.AddWarehouse(ctx, core.NewWarehouse{
		WarehouseName:   req.WarehouseName,
		Company:         req.CompanyCode,
		ParentWarehouse: parent,
		IsGroup:         req.IsGroup,
		Account:         req.Account,
	})
	if err != nil {
		return nil, err
	}
	return &WarehouseResult{Warehouse: w}, nil
}

// GetWarehouse returns one warehouse by its stored name.
func (s *appService) GetWarehouse(ctx context.Context, name string) (*WarehouseResult, error) {
	w, err := s.hierarchy.GetWarehouse(ctx, name)
	if err != nil {
		return nil, err
	}
	return &WarehouseResult{Warehouse: w}, nil
}

// ConvertToGroupOrLedger toggles a warehouse between group and ledger.
func (s *appService) ConvertToGroupOrLedger(ctx context.Context, name string) (*WarehouseResult, error) {
	w, err := s.hierarchy.ConvertToGroupOrLedger(ctx, name)
	if err != nil {
		return nil, err
	}
	return &WarehouseResult{Warehouse: w}, nil
}

// MoveWarehouse re-parents a warehouse.
func (s *appService) MoveWarehouse(ctx context.Context, req MoveWarehouseRequest) (*WarehouseResult, error) {
	w, err := s.hierarchy.MoveWarehouse(ctx, req.Name, req.NewParent)
	if err != nil {
		return nil, err
	}
	return &WarehouseResult{Warehouse: w}, nil
}

// DeleteWarehouse removes a warehouse.
func (s *appService) DeleteWarehouse(ctx context.Context, name string) error {
	return s.hierarchy.DeleteWarehouse(ctx, name)
}

// GetDescendants returns every warehouse below name.
func (s *appService) GetDescendants(ctx context.Context, name string) (*WarehouseListResult, error) {
	ws, err := s.hierarchy.GetDescendants(ctx, name)
	if err != nil {
		return nil, err
	}
	return &WarehouseListResult{Warehouses: ws}, nil
}

// GetWarehouseWiseStockValue returns rolled-up stock value per warehouse.
func (s *appService) GetWarehouseWiseStockValue(ctx context.Context, companyCode string) (*StockValueResult, error) {
	var currency string
	if companyCode != "" {
		c, err := s.companies.GetCompany(ctx, companyCode)
		if err != nil {
			return nil, err
		}
		currency = c.DefaultCurrency
	}

	values, err := s.stockValue.GetWarehouseWiseStockValue(ctx, companyCode)
	if err != nil {
		return nil, err
	}

	rows := make([]WarehouseValue, 0, len(values))
	for name, v := range values {
		rows = append(rows, WarehouseValue{Warehouse: name, StockValue: v})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Warehouse < rows[j].Warehouse })

	return &StockValueResult{CompanyCode: companyCode, Currency: currency, Values: rows}, nil
}

// RebuildTree recomputes all nested-set bounds of a company scope.
func (s *appService) RebuildTree(ctx context.Context, companyCode string) error {
	return s.hierarchy.RebuildTree(ctx, companyCode)
}

// GetWarehousesBasedOnAccount resolves the warehouses booked to an inventory account.
func (s *appService) GetWarehousesBasedOnAccount(ctx context.Context, account, companyCode string) (*WarehouseNamesResult, error) {
	names, err := s.hierarchy.GetWarehousesBasedOnAccount(ctx, account, companyCode)
	if err != nil {
		return nil, err
	}
	return &WarehouseNamesResult{Account: account, Warehouses: names}, nil
}

// GetWarehouseAccount returns the inventory account that applies to a warehouse.
func (s *appService) GetWarehouseAccount(ctx context.Context, name string) (*WarehouseAccountResult, error) {
	account, err := s.hierarchy.GetWarehouseAccount(ctx, name)
	if err != nil {
		return nil, err
	}
	return &WarehouseAccountResult{Warehouse: name, Account: account}, nil
}
