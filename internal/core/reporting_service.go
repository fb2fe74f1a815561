package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// ── Aggregation ───────────────────────────────────────────────────────────────

// AggregateStockValue rolls each warehouse's own stock value up into every
// ancestor named by parents (name -> parent, "" for roots).
//
// Zero values are skipped and zero totals are absent from the result. The walk
// from one warehouse takes at most len(parents) steps; a longer walk means the
// parent chain loops and ErrCyclicHierarchy is returned. Decimal addition is
// exact, so the result does not depend on processing order.
func AggregateStockValue(parents map[string]string, values map[string]decimal.Decimal) (map[string]decimal.Decimal, error) {
	totals := make(map[string]decimal.Decimal, len(values))

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	limit := len(parents)
	for _, name := range names {
		v := values[name]
		if v.IsZero() {
			continue
		}
		totals[name] = totals[name].Add(v)

		current := name
		for steps := 0; ; steps++ {
			parent := parents[current]
			if parent == "" {
				break
			}
			if steps >= limit {
				return nil, fmt.Errorf("%w: parent chain of %s does not reach a root", ErrCyclicHierarchy, name)
			}
			totals[parent] = totals[parent].Add(v)
			current = parent
		}
	}

	for name, v := range totals {
		if v.IsZero() {
			delete(totals, name)
		}
	}
	return totals, nil
}

// ── Service ───────────────────────────────────────────────────────────────────

// StockValueService computes warehouse-wise stock value roll-ups.
type StockValueService interface {
	// GetWarehouseWiseStockValue returns, for every warehouse of the company
	// scope with a non-zero result, its own bin stock value plus that of all
	// its descendants.
	GetWarehouseWiseStockValue(ctx context.Context, company string) (map[string]decimal.Decimal, error)
}

type stockValueService struct {
	store  WarehouseStore
	flight singleflight.Group
}

// NewStockValueService constructs a StockValueService reading from store.
func NewStockValueService(store WarehouseStore) StockValueService {
	return &stockValueService{store: store}
}

func (s *stockValueService) GetWarehouseWiseStockValue(ctx context.Context, company string) (map[string]decimal.Decimal, error) {
	// Concurrent requests for one company share a single snapshot read. The
	// shared read outlives any one caller; each caller still stops waiting
	// when its own ctx is done.
	ch := s.flight.DoChan(company, func() (any, error) {
		return s.compute(context.WithoutCancel(ctx), company)
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}

	shared := res.Val.(map[string]decimal.Decimal)
	out := make(map[string]decimal.Decimal, len(shared))
	for k, val := range shared {
		out[k] = val
	}
	return out, nil
}

func (s *stockValueService) compute(ctx context.Context, company string) (map[string]decimal.Decimal, error) {
	start := time.Now()
	defer func() { stockValueDuration.Observe(time.Since(start).Seconds()) }()

	var (
		parents map[string]string
		values  map[string]decimal.Decimal
	)
	err := s.store.View(ctx, func(tx WarehouseTx) error {
		warehouses, err := tx.ListWarehouses(ctx, company)
		if err != nil {
			return err
		}
		parents = make(map[string]string, len(warehouses))
		for _, w := range warehouses {
			parents[w.Name] = w.ParentWarehouse
		}

		values, err = tx.StockValueByWarehouse(ctx, company)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load stock values for company %q: %w", company, err)
	}

	totals, err := AggregateStockValue(parents, values)
	if err != nil {
		if errors.Is(err, ErrCyclicHierarchy) {
			cyclicHierarchyTotal.Inc()
			log.Error().Err(err).Str("company", company).Msg("warehouse hierarchy integrity violated")
		}
		return nil, err
	}
	return totals, nil
}
