package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CompanyRegistry resolves company attributes used by the warehouse tree:
// the abbreviation for naming, the currency for tree balances, and the
// default inventory account for account-based lookups.
type CompanyRegistry interface {
	// GetCompany returns ErrCompanyNotFound if code does not exist.
	GetCompany(ctx context.Context, code string) (*Company, error)
}

type companyRegistry struct {
	pool *pgxpool.Pool
}

// NewCompanyRegistry constructs a CompanyRegistry backed by the companies table.
func NewCompanyRegistry(pool *pgxpool.Pool) CompanyRegistry {
	return &companyRegistry{pool: pool}
}

func (r *companyRegistry) GetCompany(ctx context.Context, code string) (*Company, error) {
	var c Company
	err := r.pool.QueryRow(ctx, `
		SELECT id, company_code, name, abbr, default_currency,
		       COALESCE(default_inventory_account, ''), enable_perpetual_inventory, created_at
		FROM companies
		WHERE company_code = $1
	`, code).Scan(&c.ID, &c.Code, &c.Name, &c.Abbr, &c.DefaultCurrency,
		&c.DefaultInventoryAccount, &c.EnablePerpetualInventory, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrCompanyNotFound, code)
		}
		return nil, fmt.Errorf("failed to resolve company %s: %w", code, err)
	}
	return &c, nil
}
