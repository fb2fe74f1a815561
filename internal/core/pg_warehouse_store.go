package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type pgWarehouseStore struct {
	pool *pgxpool.Pool
}

// NewPGWarehouseStore constructs a WarehouseStore backed by PostgreSQL.
func NewPGWarehouseStore(pool *pgxpool.Pool) WarehouseStore {
	return &pgWarehouseStore{pool: pool}
}

func (s *pgWarehouseStore) View(ctx context.Context, fn func(tx WarehouseTx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return fmt.Errorf("failed to begin read transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgWarehouseTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to close read transaction: %w", err)
	}
	return nil
}

func (s *pgWarehouseStore) Mutate(ctx context.Context, company string, fn func(tx WarehouseTx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Released automatically at commit or rollback.
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", "warehouse_tree:"+company); err != nil {
		return fmt.Errorf("failed to lock warehouse tree of company %q: %w", company, err)
	}

	if err := fn(&pgWarehouseTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit warehouse tree change: %w", err)
	}
	return nil
}

// ── Queries ───────────────────────────────────────────────────────────────────

type pgWarehouseTx struct {
	tx pgx.Tx
}

const warehouseColumns = `
	name, warehouse_name, COALESCE(company_code, ''), COALESCE(parent_warehouse, ''),
	is_group, COALESCE(account, ''), docstatus, lft, rgt, created_at, updated_at`

func scanWarehouse(row pgx.Row) (Warehouse, error) {
	var w Warehouse
	var docStatus int
	err := row.Scan(&w.Name, &w.WarehouseName, &w.Company, &w.ParentWarehouse,
		&w.IsGroup, &w.Account, &docStatus, &w.Lft, &w.Rgt, &w.CreatedAt, &w.UpdatedAt)
	w.DocStatus = DocStatus(docStatus)
	return w, err
}

func (q *pgWarehouseTx) queryWarehouses(ctx context.Context, sql string, args ...any) ([]Warehouse, error) {
	rows, err := q.tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query warehouses: %w", err)
	}
	defer rows.Close()

	var out []Warehouse
	for rows.Next() {
		w, err := scanWarehouse(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan warehouse: %w", err)
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating warehouse rows: %w", err)
	}
	return out, nil
}

func (q *pgWarehouseTx) GetWarehouse(ctx context.Context, name string) (*Warehouse, error) {
	w, err := scanWarehouse(q.tx.QueryRow(ctx, "SELECT"+warehouseColumns+" FROM warehouses WHERE name = $1", name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrWarehouseNotFound, name)
		}
		return nil, fmt.Errorf("failed to fetch warehouse %s: %w", name, err)
	}
	return &w, nil
}

func (q *pgWarehouseTx) ListWarehouses(ctx context.Context, company string) ([]Warehouse, error) {
	return q.queryWarehouses(ctx, "SELECT"+warehouseColumns+`
		FROM warehouses
		WHERE COALESCE(company_code, '') = $1
		ORDER BY lft
	`, company)
}

func (q *pgWarehouseTx) ListChildren(ctx context.Context, parent, company string) ([]Warehouse, error) {
	return q.queryWarehouses(ctx, "SELECT"+warehouseColumns+`
		FROM warehouses
		WHERE docstatus < 2
		  AND COALESCE(parent_warehouse, '') = $1
		  AND COALESCE(company_code, '') IN ($2, '')
		ORDER BY name
	`, parent, company)
}

func (q *pgWarehouseTx) ListByAccount(ctx context.Context, account string) ([]Warehouse, error) {
	return q.queryWarehouses(ctx, "SELECT"+warehouseColumns+`
		FROM warehouses
		WHERE account = $1
		ORDER BY name
	`, account)
}

func (q *pgWarehouseTx) InsertWarehouse(ctx context.Context, w Warehouse) error {
	_, err := q.tx.Exec(ctx, `
		INSERT INTO warehouses (name, warehouse_name, company_code, parent_warehouse, is_group, account, docstatus, lft, rgt)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, w.Name, w.WarehouseName, nullIfEmpty(w.Company), nullIfEmpty(w.ParentWarehouse),
		w.IsGroup, nullIfEmpty(w.Account), int(w.DocStatus), w.Lft, w.Rgt)
	if err != nil {
		return fmt.Errorf("failed to insert warehouse %s: %w", w.Name, err)
	}
	return nil
}

func (q *pgWarehouseTx) UpdateWarehouse(ctx context.Context, w Warehouse) error {
	tag, err := q.tx.Exec(ctx, `
		UPDATE warehouses
		SET parent_warehouse = $1, is_group = $2, account = $3, lft = $4, rgt = $5, updated_at = NOW()
		WHERE name = $6
	`, nullIfEmpty(w.ParentWarehouse), w.IsGroup, nullIfEmpty(w.Account), w.Lft, w.Rgt, w.Name)
	if err != nil {
		return fmt.Errorf("failed to update warehouse %s: %w", w.Name, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrWarehouseNotFound, w.Name)
	}
	return nil
}

func (q *pgWarehouseTx) UpdateBounds(ctx context.Context, ws []Warehouse) error {
	if len(ws) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, w := range ws {
		batch.Queue(`
			UPDATE warehouses
			SET lft = $1, rgt = $2, parent_warehouse = $3, updated_at = NOW()
			WHERE name = $4
		`, w.Lft, w.Rgt, nullIfEmpty(w.ParentWarehouse), w.Name)
	}
	if err := q.tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to update warehouse bounds: %w", err)
	}
	return nil
}

func (q *pgWarehouseTx) DeleteWarehouse(ctx context.Context, name string) error {
	tag, err := q.tx.Exec(ctx, "DELETE FROM warehouses WHERE name = $1", name)
	if err != nil {
		return fmt.Errorf("failed to delete warehouse %s: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrWarehouseNotFound, name)
	}
	return nil
}

func (q *pgWarehouseTx) ListBins(ctx context.Context, warehouse string) ([]Bin, error) {
	rows, err := q.tx.Query(ctx, `
		SELECT item_code, warehouse, actual_qty, reserved_qty, ordered_qty,
		       indented_qty, projected_qty, planned_qty, stock_value
		FROM bins
		WHERE warehouse = $1
		ORDER BY item_code
	`, warehouse)
	if err != nil {
		return nil, fmt.Errorf("failed to query bins of %s: %w", warehouse, err)
	}
	defer rows.Close()

	var bins []Bin
	for rows.Next() {
		var b Bin
		if err := rows.Scan(&b.ItemCode, &b.Warehouse, &b.ActualQty, &b.ReservedQty, &b.OrderedQty,
			&b.IndentedQty, &b.ProjectedQty, &b.PlannedQty, &b.StockValue); err != nil {
			return nil, fmt.Errorf("failed to scan bin: %w", err)
		}
		bins = append(bins, b)
	}
	return bins, rows.Err()
}

func (q *pgWarehouseTx) DeleteBins(ctx context.Context, warehouse string) error {
	if _, err := q.tx.Exec(ctx, "DELETE FROM bins WHERE warehouse = $1", warehouse); err != nil {
		return fmt.Errorf("failed to delete bins of %s: %w", warehouse, err)
	}
	return nil
}

func (q *pgWarehouseTx) HasLedgerEntries(ctx context.Context, warehouse string) (bool, error) {
	var exists bool
	err := q.tx.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM stock_ledger_entries WHERE warehouse = $1)", warehouse,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check stock ledger of %s: %w", warehouse, err)
	}
	return exists, nil
}

func (q *pgWarehouseTx) StockValueByWarehouse(ctx context.Context, company string) (map[string]decimal.Decimal, error) {
	rows, err := q.tx.Query(ctx, `
		SELECT b.warehouse, SUM(b.stock_value)
		FROM bins b
		JOIN warehouses w ON w.name = b.warehouse
		WHERE COALESCE(w.company_code, '') = $1
		GROUP BY b.warehouse
	`, company)
	if err != nil {
		return nil, fmt.Errorf("failed to sum stock value: %w", err)
	}
	defer rows.Close()

	values := make(map[string]decimal.Decimal)
	for rows.Next() {
		var warehouse string
		var value decimal.NullDecimal
		if err := rows.Scan(&warehouse, &value); err != nil {
			return nil, fmt.Errorf("failed to scan stock value: %w", err)
		}
		if value.Valid && !value.Decimal.IsZero() {
			values[warehouse] = value.Decimal
		}
	}
	return values, rows.Err()
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
