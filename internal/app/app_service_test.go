package app_test

import (
	"context"
	"fmt"
	"testing"

	"warehouse-tree/internal/app"
	"warehouse-tree/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubHierarchy struct {
	core.HierarchyService
	children   []core.Warehouse
	lastParent string
	added      core.NewWarehouse
}

func (s *stubHierarchy) GetChildren(ctx context.Context, parent, company string) ([]core.Warehouse, error) {
	s.lastParent = parent
	return s.children, nil
}

func (s *stubHierarchy) AddWarehouse(ctx context.Context, req core.NewWarehouse) (*core.Warehouse, error) {
	s.added = req
	return &core.Warehouse{Name: req.WarehouseName + " - TC", Company: req.Company, ParentWarehouse: req.ParentWarehouse}, nil
}

type stubStockValue map[string]decimal.Decimal

func (s stubStockValue) GetWarehouseWiseStockValue(ctx context.Context, company string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out, nil
}

type stubCompanies map[string]*core.Company

func (s stubCompanies) GetCompany(ctx context.Context, code string) (*core.Company, error) {
	c, ok := s[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrCompanyNotFound, code)
	}
	return c, nil
}

func newStubApp(h *stubHierarchy, values stubStockValue, defaultCompany string) app.ApplicationService {
	companies := stubCompanies{"1000": {Code: "1000", Abbr: "TC", DefaultCurrency: "INR"}}
	return app.NewAppService(h, values, companies, defaultCompany)
}

func TestGetTreeChildren_AttachesBalances(t *testing.T) {
	h := &stubHierarchy{children: []core.Warehouse{
		{Name: "Finished Goods - TC", IsGroup: false},
		{Name: "Stores - TC", IsGroup: true},
	}}
	values := stubStockValue{"Stores - TC": decimal.NewFromInt(150)}
	svc := newStubApp(h, values, "1000")

	result, err := svc.GetTreeChildren(context.Background(), app.TreeChildrenRequest{
		CompanyCode: "1000",
		Parent:      "ignored",
		IsRoot:      true,
	})
	require.NoError(t, err)

	assert.Empty(t, h.lastParent, "is_root must list roots")
	require.Len(t, result.Nodes, 2)

	assert.Equal(t, "Finished Goods - TC", result.Nodes[0].Value)
	assert.False(t, result.Nodes[0].Expandable)
	assert.Nil(t, result.Nodes[0].Balance)

	assert.Equal(t, "Stores - TC", result.Nodes[1].Value)
	assert.True(t, result.Nodes[1].Expandable)
	require.NotNil(t, result.Nodes[1].Balance)
	assert.True(t, decimal.NewFromInt(150).Equal(*result.Nodes[1].Balance))
	assert.Equal(t, "INR", result.Nodes[1].CompanyCurrency)
}

func TestGetTreeChildren_UnknownCompany(t *testing.T) {
	svc := newStubApp(&stubHierarchy{}, stubStockValue{}, "")

	_, err := svc.GetTreeChildren(context.Background(), app.TreeChildrenRequest{CompanyCode: "9999", IsRoot: true})

	require.ErrorIs(t, err, core.ErrCompanyNotFound)
}

func TestAddNode_RootIgnoresParent(t *testing.T) {
	h := &stubHierarchy{}
	svc := newStubApp(h, stubStockValue{}, "1000")

	result, err := svc.AddNode(context.Background(), app.AddNodeRequest{
		WarehouseName:   "Stores",
		CompanyCode:     "1000",
		ParentWarehouse: "All Warehouses - TC",
		IsGroup:         true,
		IsRoot:          true,
	})
	require.NoError(t, err)

	assert.Empty(t, h.added.ParentWarehouse)
	assert.True(t, h.added.IsGroup)
	assert.Equal(t, "Stores - TC", result.Warehouse.Name)
}

func TestGetWarehouseWiseStockValue_SortedRows(t *testing.T) {
	values := stubStockValue{
		"WIP - TC":            decimal.NewFromInt(100),
		"Stores - TC":         decimal.NewFromInt(150),
		"Finished Goods - TC": decimal.NewFromInt(50),
	}
	svc := newStubApp(&stubHierarchy{}, values, "1000")

	result, err := svc.GetWarehouseWiseStockValue(context.Background(), "1000")
	require.NoError(t, err)

	assert.Equal(t, "INR", result.Currency)
	require.Len(t, result.Values, 3)
	assert.Equal(t, "Finished Goods - TC", result.Values[0].Warehouse)
	assert.Equal(t, "Stores - TC", result.Values[1].Warehouse)
	assert.Equal(t, "WIP - TC", result.Values[2].Warehouse)
}

func TestLoadDefaultCompany(t *testing.T) {
	svc := newStubApp(&stubHierarchy{}, stubStockValue{}, "1000")
	result, err := svc.LoadDefaultCompany(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "TC", result.Company.Abbr)

	svc = newStubApp(&stubHierarchy{}, stubStockValue{}, "")
	_, err = svc.LoadDefaultCompany(context.Background())
	require.ErrorIs(t, err, core.ErrCompanyNotFound)
}
