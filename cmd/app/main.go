package main

import (
	"context"
	"fmt"
	"os"

	"warehouse-tree/internal/adapters/cli"
	"warehouse-tree/internal/app"
	"warehouse-tree/internal/config"
	"warehouse-tree/internal/core"
	"warehouse-tree/internal/db"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	config.SetupLogger(cfg)

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to connect to database")
	}
	defer pool.Close()

	store := core.NewPGWarehouseStore(pool)
	companies := core.NewCompanyRegistry(pool)
	svc := app.NewAppService(
		core.NewHierarchyService(store, companies),
		core.NewStockValueService(store),
		companies,
		cfg.DefaultCompany,
	)

	root := cli.NewRootCommand(ctx, svc, cfg.DefaultCompany)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		pool.Close()
		os.Exit(1)
	}
}
