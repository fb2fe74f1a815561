package core_test

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"

	"warehouse-tree/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimalMap(t *testing.T, want map[string]string, got map[string]decimal.Decimal) {
	t.Helper()
	require.Len(t, got, len(want), "got %v", got)
	for name, v := range want {
		g, ok := got[name]
		if assert.True(t, ok, "missing %s", name) {
			assert.True(t, dec(v).Equal(g), "%s: want %s, got %s", name, v, g)
		}
	}
}

func TestAggregateStockValue_RollsUpToAncestors(t *testing.T) {
	parents := map[string]string{
		"Stores":         "",
		"WIP":            "Stores",
		"Finished Goods": "Stores",
	}
	values := map[string]decimal.Decimal{
		"WIP":            dec("100"),
		"Finished Goods": dec("50"),
	}

	got, err := core.AggregateStockValue(parents, values)

	require.NoError(t, err)
	assertDecimalMap(t, map[string]string{"Stores": "150", "WIP": "100", "Finished Goods": "50"}, got)
}

func TestAggregateStockValue_OwnValueOfGroupCounts(t *testing.T) {
	parents := map[string]string{"All": "", "Mid": "All", "Leaf": "Mid"}
	values := map[string]decimal.Decimal{
		"All":  dec("1.10"),
		"Mid":  dec("2.20"),
		"Leaf": dec("3.30"),
	}

	got, err := core.AggregateStockValue(parents, values)

	require.NoError(t, err)
	assertDecimalMap(t, map[string]string{"All": "6.60", "Mid": "5.50", "Leaf": "3.30"}, got)
}

func TestAggregateStockValue_OmitsZeroTotals(t *testing.T) {
	parents := map[string]string{"All": "", "Empty": "All", "Plus": "All", "Minus": "All"}
	values := map[string]decimal.Decimal{
		"Empty": decimal.Zero,
		"Plus":  dec("40"),
		"Minus": dec("-40"),
	}

	got, err := core.AggregateStockValue(parents, values)

	require.NoError(t, err)
	assertDecimalMap(t, map[string]string{"Plus": "40", "Minus": "-40"}, got)
}

func TestAggregateStockValue_SplittingALeafKeepsTheRootTotal(t *testing.T) {
	parents := map[string]string{"Root": "", "G": "Root", "L1": "G", "L2": "G"}

	whole, err := core.AggregateStockValue(parents, map[string]decimal.Decimal{"L1": dec("0.3")})
	require.NoError(t, err)

	split, err := core.AggregateStockValue(parents, map[string]decimal.Decimal{
		"L1": dec("0.1"),
		"L2": dec("0.2"),
	})
	require.NoError(t, err)

	assert.True(t, whole["Root"].Equal(split["Root"]))
	assert.True(t, whole["G"].Equal(split["G"]))
}

func TestAggregateStockValue_DetectsCycle(t *testing.T) {
	parents := map[string]string{"A": "B", "B": "C", "C": "A"}
	values := map[string]decimal.Decimal{"A": dec("10")}

	_, err := core.AggregateStockValue(parents, values)

	require.ErrorIs(t, err, core.ErrCyclicHierarchy)
}

func TestStockValueService_CompanyScope(t *testing.T) {
	env := newTestEnv(t)
	stores := env.add(t, "Stores", "1000", "", true)
	wip := env.add(t, "WIP", "1000", stores, false)
	fg := env.add(t, "Finished Goods", "1000", stores, false)
	other := env.add(t, "Depot", "2000", "", false)

	env.store.putBin(core.Bin{ItemCode: "RM-1", Warehouse: wip, StockValue: dec("60")})
	env.store.putBin(core.Bin{ItemCode: "RM-2", Warehouse: wip, StockValue: dec("40")})
	env.store.putBin(core.Bin{ItemCode: "FG-1", Warehouse: fg, StockValue: dec("50")})
	env.store.putBin(core.Bin{ItemCode: "FG-1", Warehouse: other, StockValue: dec("999")})

	got, err := env.stockValue.GetWarehouseWiseStockValue(env.ctx, "1000")

	require.NoError(t, err)
	assertDecimalMap(t, map[string]string{stores: "150", wip: "100", fg: "50"}, got)
}

func TestStockValueService_ResultIsCallerOwned(t *testing.T) {
	env := newTestEnv(t)
	leaf := env.add(t, "Stores", "1000", "", false)
	env.store.putBin(core.Bin{ItemCode: "RM-1", Warehouse: leaf, StockValue: dec("5")})

	first, err := env.stockValue.GetWarehouseWiseStockValue(env.ctx, "1000")
	require.NoError(t, err)
	delete(first, leaf)

	second, err := env.stockValue.GetWarehouseWiseStockValue(env.ctx, "1000")
	require.NoError(t, err)
	assert.Contains(t, second, leaf)
}

func TestStockValueService_CorruptedParentChain(t *testing.T) {
	env := newTestEnv(t)
	a := env.add(t, "A", "1000", "", true)
	b := env.add(t, "B", "1000", a, true)
	env.store.putBin(core.Bin{ItemCode: "RM-1", Warehouse: b, StockValue: dec("1")})
	env.store.setParent(a, b)

	_, err := env.stockValue.GetWarehouseWiseStockValue(env.ctx, "1000")

	require.ErrorIs(t, err, core.ErrCyclicHierarchy)
}

func TestStockValueService_ConcurrentReads(t *testing.T) {
	env := newTestEnv(t)
	root := env.add(t, "Stores", "1000", "", true)
	for _, name := range []string{"L1", "L2", "L3"} {
		leaf := env.add(t, name, "1000", root, false)
		env.store.putBin(core.Bin{ItemCode: "X", Warehouse: leaf, StockValue: dec("10")})
	}

	var g errgroup.Group
	for i := 0; i < 16; i++ {
		g.Go(func() error {
			got, err := env.stockValue.GetWarehouseWiseStockValue(env.ctx, "1000")
			if err != nil {
				return err
			}
			if !dec("30").Equal(got[root]) {
				return fmt.Errorf("root total %s, want 30", got[root])
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}

// blockingStore holds every View until release is closed, honouring the
// context it was given while waiting.
type blockingStore struct {
	*memStore
	views   atomic.Int32
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (s *blockingStore) View(ctx context.Context, fn func(tx core.WarehouseTx) error) error {
	s.views.Add(1)
	s.once.Do(func() { close(s.entered) })
	select {
	case <-s.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	return s.memStore.View(ctx, fn)
}

func TestStockValueService_CancelledCallerDoesNotFailOthers(t *testing.T) {
	env := newTestEnv(t)
	leaf := env.add(t, "Stores", "1000", "", false)
	env.store.putBin(core.Bin{ItemCode: "RM-1", Warehouse: leaf, StockValue: dec("42")})

	store := &blockingStore{memStore: env.store, entered: make(chan struct{}), release: make(chan struct{})}
	svc := core.NewStockValueService(store)

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.GetWarehouseWiseStockValue(first, "1000")
		firstErr <- err
	}()
	<-store.entered

	cancel()
	require.ErrorIs(t, <-firstErr, context.Canceled)

	type result struct {
		values map[string]decimal.Decimal
		err    error
	}
	second := make(chan result, 1)
	go func() {
		v, err := svc.GetWarehouseWiseStockValue(context.Background(), "1000")
		second <- result{v, err}
	}()
	close(store.release)

	got := <-second
	require.NoError(t, got.err)
	assertDecimalMap(t, map[string]string{leaf: "42"}, got.values)
	assert.Equal(t, int32(1), store.views.Load())
}

func TestAggregateStockValue_PartitionedValuesSumToWhole(t *testing.T) {
	parents := map[string]string{
		"Root": "",
		"G1":   "Root",
		"G2":   "Root",
		"G11":  "G1",
		"L111": "G11",
		"L112": "G11",
		"L12":  "G1",
		"L21":  "G2",
		"L22":  "G2",
		"L3":   "Root",
	}
	values := map[string]decimal.Decimal{
		"G1":   dec("7.25"),
		"L111": dec("10.10"),
		"L112": dec("0.01"),
		"L12":  dec("-3.50"),
		"L21":  dec("125"),
		"L22":  dec("0.333"),
		"L3":   dec("3.50"),
	}
	whole, err := core.AggregateStockValue(parents, values)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	for round := 0; round < 50; round++ {
		left := make(map[string]decimal.Decimal)
		right := make(map[string]decimal.Decimal)
		for name, v := range values {
			if rng.Intn(2) == 0 {
				left[name] = v
			} else {
				right[name] = v
			}
		}

		a, err := core.AggregateStockValue(parents, left)
		require.NoError(t, err)
		b, err := core.AggregateStockValue(parents, right)
		require.NoError(t, err)

		for name := range parents {
			sum := a[name].Add(b[name])
			assert.True(t, whole[name].Equal(sum), "round %d, %s: whole %s, halves %s", round, name, whole[name], sum)
		}
	}
}
