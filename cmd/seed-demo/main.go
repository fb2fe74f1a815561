// seed-demo loads a demo company with a small warehouse tree and stock bins.
// It is idempotent: existing warehouses are kept and bin values are reset.
//
// Usage: go run ./cmd/seed-demo
package main

import (
	"context"
	"errors"

	"warehouse-tree/internal/config"
	"warehouse-tree/internal/core"
	"warehouse-tree/internal/db"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const demoCompany = "1000"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	config.SetupLogger(cfg)

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect")
	}
	defer pool.Close()

	log.Info().Msg("restoring demo company")
	if _, err := pool.Exec(ctx, `
		INSERT INTO companies (company_code, name, abbr, default_currency, default_inventory_account, enable_perpetual_inventory)
		VALUES ($1, 'Local Operations India', 'LOI', 'INR', '1400 - Inventory', true)
		ON CONFLICT (company_code) DO UPDATE
		  SET name = EXCLUDED.name,
		      abbr = EXCLUDED.abbr,
		      default_currency = EXCLUDED.default_currency,
		      default_inventory_account = EXCLUDED.default_inventory_account;
	`, demoCompany); err != nil {
		log.Fatal().Err(err).Msg("failed to restore company")
	}

	store := core.NewPGWarehouseStore(pool)
	hierarchy := core.NewHierarchyService(store, core.NewCompanyRegistry(pool))

	type node struct {
		name    string
		parent  string
		isGroup bool
	}
	tree := []node{
		{name: "All Warehouses", isGroup: true},
		{name: "Stores", parent: "All Warehouses - LOI"},
		{name: "Work In Progress", parent: "All Warehouses - LOI"},
		{name: "Finished Goods", parent: "All Warehouses - LOI", isGroup: true},
		{name: "Finished Goods North", parent: "Finished Goods - LOI"},
		{name: "Finished Goods South", parent: "Finished Goods - LOI"},
	}

	log.Info().Msg("restoring warehouse tree")
	for _, n := range tree {
		w, err := hierarchy.AddWarehouse(ctx, core.NewWarehouse{
			WarehouseName:   n.name,
			Company:         demoCompany,
			ParentWarehouse: n.parent,
			IsGroup:         n.isGroup,
		})
		switch {
		case errors.Is(err, core.ErrDuplicateWarehouse):
			log.Debug().Str("warehouse", n.name).Msg("already present")
		case err != nil:
			log.Fatal().Err(err).Str("warehouse", n.name).Msg("failed to add warehouse")
		default:
			log.Info().Str("warehouse", w.Name).Int("lft", w.Lft).Int("rgt", w.Rgt).Msg("added")
		}
	}

	bins := []struct {
		item      string
		warehouse string
		qty       int64
		value     string
	}{
		{"RM-STEEL", "Stores - LOI", 10, "150.00"},
		{"WIP-FRAME", "Work In Progress - LOI", 4, "100.00"},
		{"FG-CHAIR", "Finished Goods North - LOI", 2, "30.00"},
		{"FG-CHAIR", "Finished Goods South - LOI", 1, "20.00"},
	}

	log.Info().Msg("restoring bins")
	for _, b := range bins {
		if _, err := pool.Exec(ctx, `
			INSERT INTO bins (item_code, warehouse, actual_qty, projected_qty, stock_value)
			VALUES ($1, $2, $3, $3, $4)
			ON CONFLICT (item_code, warehouse) DO UPDATE
			  SET actual_qty = EXCLUDED.actual_qty,
			      projected_qty = EXCLUDED.projected_qty,
			      stock_value = EXCLUDED.stock_value;
		`, b.item, b.warehouse, decimal.NewFromInt(b.qty), decimal.RequireFromString(b.value)); err != nil {
			log.Fatal().Err(err).Str("item", b.item).Str("warehouse", b.warehouse).Msg("failed to restore bin")
		}
	}

	log.Info().Msg("demo data restored")
}
