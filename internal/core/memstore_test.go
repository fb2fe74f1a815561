package core_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"warehouse-tree/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// memState is the committed content of memStore.
type memState struct {
	warehouses map[string]core.Warehouse
	bins       map[string][]core.Bin
	ledger     map[string]int
}

func (s *memState) clone() *memState {
	c := &memState{
		warehouses: make(map[string]core.Warehouse, len(s.warehouses)),
		bins:       make(map[string][]core.Bin, len(s.bins)),
		ledger:     make(map[string]int, len(s.ledger)),
	}
	for k, v := range s.warehouses {
		c.warehouses[k] = v
	}
	for k, v := range s.bins {
		c.bins[k] = append([]core.Bin(nil), v...)
	}
	for k, v := range s.ledger {
		c.ledger[k] = v
	}
	return c
}

// memStore is an in-memory WarehouseStore. Mutate works on a copy and swaps it
// in only when fn succeeds, which mirrors commit/rollback.
type memStore struct {
	mu    sync.RWMutex
	state *memState
}

func newMemStore() *memStore {
	return &memStore{state: &memState{
		warehouses: make(map[string]core.Warehouse),
		bins:       make(map[string][]core.Bin),
		ledger:     make(map[string]int),
	}}
}

func (s *memStore) View(ctx context.Context, fn func(tx core.WarehouseTx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&memTx{state: s.state, readOnly: true})
}

func (s *memStore) Mutate(ctx context.Context, company string, fn func(tx core.WarehouseTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.state.clone()
	if err := fn(&memTx{state: work}); err != nil {
		return err
	}
	s.state = work
	return nil
}

func (s *memStore) putBin(b core.Bin) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.bins[b.Warehouse] = append(s.state.bins[b.Warehouse], b)
}

func (s *memStore) addLedgerEntry(warehouse string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.ledger[warehouse]++
}

func (s *memStore) binCount(warehouse string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.state.bins[warehouse])
}

// setParent rewrites a parent pointer without touching bounds, to simulate
// rows corrupted outside the service.
func (s *memStore) setParent(name, parent string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := s.state.warehouses[name]
	w.ParentWarehouse = parent
	s.state.warehouses[name] = w
}

func (s *memStore) setDocStatus(name string, status core.DocStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := s.state.warehouses[name]
	w.DocStatus = status
	s.state.warehouses[name] = w
}

var errReadOnly = errors.New("write in read-only transaction")

type memTx struct {
	state    *memState
	readOnly bool
}

func (tx *memTx) GetWarehouse(ctx context.Context, name string) (*core.Warehouse, error) {
	w, ok := tx.state.warehouses[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrWarehouseNotFound, name)
	}
	return &w, nil
}

func (tx *memTx) ListWarehouses(ctx context.Context, company string) ([]core.Warehouse, error) {
	var out []core.Warehouse
	for _, w := range tx.state.warehouses {
		if w.Company == company {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Lft < out[j].Lft })
	return out, nil
}

func (tx *memTx) ListChildren(ctx context.Context, parent, company string) ([]core.Warehouse, error) {
	var out []core.Warehouse
	for _, w := range tx.state.warehouses {
		if w.DocStatus == core.DocStatusCancelled || w.ParentWarehouse != parent {
			continue
		}
		if w.Company != company && w.Company != "" {
			continue
		}
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (tx *memTx) ListByAccount(ctx context.Context, account string) ([]core.Warehouse, error) {
	var out []core.Warehouse
	for _, w := range tx.state.warehouses {
		if w.Account == account {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (tx *memTx) InsertWarehouse(ctx context.Context, w core.Warehouse) error {
	if tx.readOnly {
		return errReadOnly
	}
	if _, exists := tx.state.warehouses[w.Name]; exists {
		return fmt.Errorf("duplicate key %s", w.Name)
	}
	now := time.Now()
	w.CreatedAt, w.UpdatedAt = now, now
	tx.state.warehouses[w.Name] = w
	return nil
}

func (tx *memTx) UpdateWarehouse(ctx context.Context, w core.Warehouse) error {
	if tx.readOnly {
		return errReadOnly
	}
	cur, ok := tx.state.warehouses[w.Name]
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrWarehouseNotFound, w.Name)
	}
	cur.ParentWarehouse = w.ParentWarehouse
	cur.IsGroup = w.IsGroup
	cur.Account = w.Account
	cur.Lft, cur.Rgt = w.Lft, w.Rgt
	cur.UpdatedAt = time.Now()
	tx.state.warehouses[w.Name] = cur
	return nil
}

func (tx *memTx) UpdateBounds(ctx context.Context, ws []core.Warehouse) error {
	if tx.readOnly {
		return errReadOnly
	}
	for _, w := range ws {
		cur, ok := tx.state.warehouses[w.Name]
		if !ok {
			continue
		}
		cur.Lft, cur.Rgt = w.Lft, w.Rgt
		cur.ParentWarehouse = w.ParentWarehouse
		tx.state.warehouses[w.Name] = cur
	}
	return nil
}

func (tx *memTx) DeleteWarehouse(ctx context.Context, name string) error {
	if tx.readOnly {
		return errReadOnly
	}
	if _, ok := tx.state.warehouses[name]; !ok {
		return fmt.Errorf("%w: %s", core.ErrWarehouseNotFound, name)
	}
	delete(tx.state.warehouses, name)
	return nil
}

func (tx *memTx) ListBins(ctx context.Context, warehouse string) ([]core.Bin, error) {
	return append([]core.Bin(nil), tx.state.bins[warehouse]...), nil
}

func (tx *memTx) DeleteBins(ctx context.Context, warehouse string) error {
	if tx.readOnly {
		return errReadOnly
	}
	delete(tx.state.bins, warehouse)
	return nil
}

func (tx *memTx) HasLedgerEntries(ctx context.Context, warehouse string) (bool, error) {
	return tx.state.ledger[warehouse] > 0, nil
}

func (tx *memTx) StockValueByWarehouse(ctx context.Context, company string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal)
	for name, bins := range tx.state.bins {
		w, ok := tx.state.warehouses[name]
		if !ok || w.Company != company {
			continue
		}
		sum := decimal.Zero
		for _, b := range bins {
			sum = sum.Add(b.StockValue)
		}
		if !sum.IsZero() {
			out[name] = sum
		}
	}
	return out, nil
}

// memCompanies is a fixed CompanyRegistry.
type memCompanies map[string]*core.Company

func (m memCompanies) GetCompany(ctx context.Context, code string) (*core.Company, error) {
	c, ok := m[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrCompanyNotFound, code)
	}
	cp := *c
	return &cp, nil
}

func testCompanies() memCompanies {
	return memCompanies{
		"1000": {
			ID: 1, Code: "1000", Name: "Test Company", Abbr: "TC", DefaultCurrency: "INR",
			DefaultInventoryAccount: "1400 - Stock In Hand - TC", EnablePerpetualInventory: true,
		},
		"2000": {
			ID: 2, Code: "2000", Name: "Other Company", Abbr: "OC", DefaultCurrency: "USD",
			EnablePerpetualInventory: false,
		},
	}
}

type testEnv struct {
	ctx        context.Context
	store      *memStore
	companies  memCompanies
	hierarchy  core.HierarchyService
	stockValue core.StockValueService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := newMemStore()
	companies := testCompanies()
	return &testEnv{
		ctx:        context.Background(),
		store:      store,
		companies:  companies,
		hierarchy:  core.NewHierarchyService(store, companies),
		stockValue: core.NewStockValueService(store),
	}
}

// add inserts a warehouse and returns its stored name.
func (e *testEnv) add(t *testing.T, name, company, parent string, isGroup bool) string {
	t.Helper()
	w, err := e.hierarchy.AddWarehouse(e.ctx, core.NewWarehouse{
		WarehouseName:   name,
		Company:         company,
		ParentWarehouse: parent,
		IsGroup:         isGroup,
	})
	require.NoError(t, err, "AddWarehouse(%s)", name)
	return w.Name
}

// requireValidTree asserts that the stored bounds of company form a valid nested set.
func (e *testEnv) requireValidTree(t *testing.T, company string) *core.WarehouseTree {
	t.Helper()
	var tree *core.WarehouseTree
	err := e.store.View(e.ctx, func(tx core.WarehouseTx) error {
		ws, err := tx.ListWarehouses(e.ctx, company)
		if err != nil {
			return err
		}
		tree = core.NewWarehouseTree(company, ws)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, tree.Validate())
	return tree
}
