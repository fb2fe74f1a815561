package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// HierarchyService owns the warehouse tree: naming, insertion, re-parenting,
// group/ledger conversion, guarded deletion, and subtree queries.
//
// Mutations load the company scope into a WarehouseTree inside
// WarehouseStore.Mutate, apply the change there, and write back only the rows
// whose bounds moved.
type HierarchyService interface {
	// ResolveName returns the stored name for a new warehouse.
	ResolveName(ctx context.Context, warehouseName, company string) (string, error)
	// AddWarehouse inserts a warehouse as the last child of its parent (or as a root).
	AddWarehouse(ctx context.Context, req NewWarehouse) (*Warehouse, error)
	GetWarehouse(ctx context.Context, name string) (*Warehouse, error)
	// GetChildren returns non-cancelled direct children of parent ("" = roots)
	// in company or unscoped, ordered by name.
	GetChildren(ctx context.Context, parent, company string) ([]Warehouse, error)
	// GetDescendants returns every warehouse strictly below name.
	GetDescendants(ctx context.Context, name string) ([]Warehouse, error)
	// GetSubtree returns name and every warehouse below it.
	GetSubtree(ctx context.Context, name string) ([]Warehouse, error)

	ConvertToLedger(ctx context.Context, name string) (*Warehouse, error)
	ConvertToGroup(ctx context.Context, name string) (*Warehouse, error)
	// ConvertToGroupOrLedger toggles the current group flag.
	ConvertToGroupOrLedger(ctx context.Context, name string) (*Warehouse, error)
	// MoveWarehouse re-parents name under newParent ("" = make it a root).
	MoveWarehouse(ctx context.Context, name, newParent string) (*Warehouse, error)
	// DeleteWarehouse removes a childless warehouse without balances or ledger
	// history, together with its zero-balance bins.
	DeleteWarehouse(ctx context.Context, name string) error
	// RebuildTree recomputes all bounds of a company scope from parent pointers.
	RebuildTree(ctx context.Context, company string) error

	// GetWarehousesBasedOnAccount resolves the ledger warehouses booked to account.
	GetWarehousesBasedOnAccount(ctx context.Context, account, company string) ([]string, error)
	// GetWarehouseAccount returns the inventory account of a warehouse: its own,
	// the nearest ancestor's, or the company default. Empty when the company
	// does not keep perpetual inventory.
	GetWarehouseAccount(ctx context.Context, name string) (string, error)
}

type hierarchyService struct {
	store     WarehouseStore
	companies CompanyRegistry
}

// NewHierarchyService constructs a HierarchyService.
func NewHierarchyService(store WarehouseStore, companies CompanyRegistry) HierarchyService {
	return &hierarchyService{store: store, companies: companies}
}

// ── Naming ────────────────────────────────────────────────────────────────────

func (s *hierarchyService) ResolveName(ctx context.Context, warehouseName, company string) (string, error) {
	warehouseName = strings.TrimSpace(warehouseName)
	if warehouseName == "" {
		return "", fmt.Errorf("%w: warehouse name is required", ErrInvalidWarehouse)
	}
	if company == "" {
		return warehouseName, nil
	}
	c, err := s.companies.GetCompany(ctx, company)
	if err != nil {
		return "", err
	}
	return WarehouseDocName(warehouseName, c.Abbr), nil
}

// ── Mutations ─────────────────────────────────────────────────────────────────

func (s *hierarchyService) AddWarehouse(ctx context.Context, req NewWarehouse) (out *Warehouse, err error) {
	defer func() { observeMutation("insert", err) }()

	// Company lookup stays outside the tree lock.
	name, err := s.ResolveName(ctx, req.WarehouseName, req.Company)
	if err != nil {
		return nil, err
	}

	err = s.store.Mutate(ctx, req.Company, func(tx WarehouseTx) error {
		if _, err := tx.GetWarehouse(ctx, name); err == nil {
			return fmt.Errorf("%w: %s", ErrDuplicateWarehouse, name)
		} else if !errors.Is(err, ErrWarehouseNotFound) {
			return err
		}

		if req.ParentWarehouse != "" {
			parent, err := tx.GetWarehouse(ctx, req.ParentWarehouse)
			if err != nil {
				if errors.Is(err, ErrWarehouseNotFound) {
					return fmt.Errorf("%w: %s does not exist", ErrInvalidParent, req.ParentWarehouse)
				}
				return err
			}
			if parent.Company != req.Company {
				return fmt.Errorf("%w: %s belongs to company %q, not %q",
					ErrInvalidParent, parent.Name, parent.Company, req.Company)
			}
		}

		tree, err := loadTree(ctx, tx, req.Company)
		if err != nil {
			return err
		}
		before := tree.Snapshot()

		inserted, err := tree.Insert(Warehouse{
			Name:            name,
			WarehouseName:   strings.TrimSpace(req.WarehouseName),
			Company:         req.Company,
			ParentWarehouse: req.ParentWarehouse,
			IsGroup:         req.IsGroup,
			Account:         req.Account,
			DocStatus:       DocStatusDraft,
		})
		if err != nil {
			return err
		}

		// Shift existing rows first so the new row never shares bounds with them.
		if err := tx.UpdateBounds(ctx, tree.Changed(before, nil)); err != nil {
			return err
		}
		if err := tx.InsertWarehouse(ctx, inserted); err != nil {
			return err
		}
		out, err = tx.GetWarehouse(ctx, name)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("warehouse", out.Name).Str("company", out.Company).
		Int("lft", out.Lft).Int("rgt", out.Rgt).Msg("warehouse added")
	return out, nil
}

func (s *hierarchyService) ConvertToLedger(ctx context.Context, name string) (out *Warehouse, err error) {
	defer func() { observeMutation("convert_to_ledger", err) }()

	err = s.mutateNode(ctx, name, func(tx WarehouseTx, tree *WarehouseTree) error {
		desc, err := tree.Descendants(name)
		if err != nil {
			return err
		}
		if len(desc) > 0 {
			return fmt.Errorf("%w: warehouses with child nodes cannot be converted to ledger (%s)", ErrHasChildren, name)
		}
		if err := guardLedgerHistory(ctx, tx, name, "converted to ledger"); err != nil {
			return err
		}
		out, err = setGroup(ctx, tx, tree, name, false)
		return err
	})
	return out, err
}

func (s *hierarchyService) ConvertToGroup(ctx context.Context, name string) (out *Warehouse, err error) {
	defer func() { observeMutation("convert_to_group", err) }()

	err = s.mutateNode(ctx, name, func(tx WarehouseTx, tree *WarehouseTree) error {
		if err := guardLedgerHistory(ctx, tx, name, "converted to group"); err != nil {
			return err
		}
		out, err = setGroup(ctx, tx, tree, name, true)
		return err
	})
	return out, err
}

func (s *hierarchyService) ConvertToGroupOrLedger(ctx context.Context, name string) (*Warehouse, error) {
	w, err := s.GetWarehouse(ctx, name)
	if err != nil {
		return nil, err
	}
	if w.IsGroup {
		return s.ConvertToLedger(ctx, name)
	}
	return s.ConvertToGroup(ctx, name)
}

func (s *hierarchyService) MoveWarehouse(ctx context.Context, name, newParent string) (out *Warehouse, err error) {
	defer func() { observeMutation("move", err) }()

	err = s.mutateNode(ctx, name, func(tx WarehouseTx, tree *WarehouseTree) error {
		if newParent != "" {
			if _, ok := tree.Get(newParent); !ok {
				parent, err := tx.GetWarehouse(ctx, newParent)
				if err != nil {
					if errors.Is(err, ErrWarehouseNotFound) {
						return fmt.Errorf("%w: %s does not exist", ErrInvalidParent, newParent)
					}
					return err
				}
				return fmt.Errorf("%w: %s belongs to company %q, not %q",
					ErrInvalidParent, parent.Name, parent.Company, tree.Company())
			}
		}

		before := tree.Snapshot()
		parents := tree.ParentMap()
		if err := tree.Move(name, newParent); err != nil {
			return err
		}
		if err := tx.UpdateBounds(ctx, tree.Changed(before, parents)); err != nil {
			return err
		}
		out, err = tx.GetWarehouse(ctx, name)
		return err
	})
	return out, err
}

func (s *hierarchyService) DeleteWarehouse(ctx context.Context, name string) (err error) {
	defer func() { observeMutation("delete", err) }()

	err = s.mutateNode(ctx, name, func(tx WarehouseTx, tree *WarehouseTree) error {
		bins, err := tx.ListBins(ctx, name)
		if err != nil {
			return err
		}
		for _, b := range bins {
			if b.HasBalance() {
				return fmt.Errorf("%w: warehouse %s can not be deleted as quantity exists for item %s",
					ErrNonZeroBalance, name, b.ItemCode)
			}
		}

		hasLedger, err := tx.HasLedgerEntries(ctx, name)
		if err != nil {
			return err
		}
		if hasLedger {
			return fmt.Errorf("%w: warehouse %s can not be deleted", ErrStockLedgerExists, name)
		}

		desc, err := tree.Descendants(name)
		if err != nil {
			return err
		}
		if len(desc) > 0 {
			return fmt.Errorf("%w: child warehouse exists for %s, it can not be deleted", ErrHasChildren, name)
		}

		if err := tx.DeleteBins(ctx, name); err != nil {
			return err
		}
		before := tree.Snapshot()
		if err := tree.Remove(name); err != nil {
			return err
		}
		if err := tx.DeleteWarehouse(ctx, name); err != nil {
			return err
		}
		return tx.UpdateBounds(ctx, tree.Changed(before, nil))
	})
	if err == nil {
		log.Info().Str("warehouse", name).Msg("warehouse deleted")
	}
	return err
}

func (s *hierarchyService) RebuildTree(ctx context.Context, company string) (err error) {
	defer func() { observeMutation("rebuild", err) }()

	err = s.store.Mutate(ctx, company, func(tx WarehouseTx) error {
		tree, err := loadTree(ctx, tx, company)
		if err != nil {
			return err
		}
		before := tree.Snapshot()
		if err := tree.Rebuild(); err != nil {
			if errors.Is(err, ErrCyclicHierarchy) {
				log.Error().Err(err).Str("company", company).Msg("warehouse hierarchy integrity violated")
			}
			return err
		}
		changed := tree.Changed(before, nil)
		log.Info().Str("company", company).Int("changed", len(changed)).Msg("warehouse tree rebuilt")
		return tx.UpdateBounds(ctx, changed)
	})
	return err
}

// mutateNode resolves name's company, then runs fn under that company's lock
// with the scope loaded into a tree.
func (s *hierarchyService) mutateNode(ctx context.Context, name string, fn func(tx WarehouseTx, tree *WarehouseTree) error) error {
	w, err := s.GetWarehouse(ctx, name)
	if err != nil {
		return err
	}
	return s.store.Mutate(ctx, w.Company, func(tx WarehouseTx) error {
		tree, err := loadTree(ctx, tx, w.Company)
		if err != nil {
			return err
		}
		if _, ok := tree.Get(name); !ok {
			return fmt.Errorf("%w: %s", ErrWarehouseNotFound, name)
		}
		return fn(tx, tree)
	})
}

func loadTree(ctx context.Context, tx WarehouseTx, company string) (*WarehouseTree, error) {
	warehouses, err := tx.ListWarehouses(ctx, company)
	if err != nil {
		return nil, err
	}
	return NewWarehouseTree(company, warehouses), nil
}

func guardLedgerHistory(ctx context.Context, tx WarehouseTx, name, action string) error {
	hasLedger, err := tx.HasLedgerEntries(ctx, name)
	if err != nil {
		return err
	}
	if hasLedger {
		return fmt.Errorf("%w: warehouse %s with existing transactions can not be %s",
			ErrStockLedgerExists, name, action)
	}
	return nil
}

func setGroup(ctx context.Context, tx WarehouseTx, tree *WarehouseTree, name string, isGroup bool) (*Warehouse, error) {
	if err := tree.SetGroup(name, isGroup); err != nil {
		return nil, err
	}
	w, _ := tree.Get(name)
	if err := tx.UpdateWarehouse(ctx, w); err != nil {
		return nil, err
	}
	return tx.GetWarehouse(ctx, name)
}

// ── Queries ───────────────────────────────────────────────────────────────────

func (s *hierarchyService) GetWarehouse(ctx context.Context, name string) (*Warehouse, error) {
	var out *Warehouse
	err := s.store.View(ctx, func(tx WarehouseTx) error {
		var err error
		out, err = tx.GetWarehouse(ctx, name)
		return err
	})
	return out, err
}

func (s *hierarchyService) GetChildren(ctx context.Context, parent, company string) ([]Warehouse, error) {
	var out []Warehouse
	err := s.store.View(ctx, func(tx WarehouseTx) error {
		var err error
		out, err = tx.ListChildren(ctx, parent, company)
		return err
	})
	return out, err
}

func (s *hierarchyService) GetDescendants(ctx context.Context, name string) ([]Warehouse, error) {
	return s.subtreeQuery(ctx, name, (*WarehouseTree).Descendants)
}

func (s *hierarchyService) GetSubtree(ctx context.Context, name string) ([]Warehouse, error) {
	return s.subtreeQuery(ctx, name, (*WarehouseTree).Subtree)
}

func (s *hierarchyService) subtreeQuery(ctx context.Context, name string, pick func(*WarehouseTree, string) ([]Warehouse, error)) ([]Warehouse, error) {
	var out []Warehouse
	err := s.store.View(ctx, func(tx WarehouseTx) error {
		w, err := tx.GetWarehouse(ctx, name)
		if err != nil {
			return err
		}
		tree, err := loadTree(ctx, tx, w.Company)
		if err != nil {
			return err
		}
		out, err = pick(tree, name)
		return err
	})
	return out, err
}

func (s *hierarchyService) GetWarehousesBasedOnAccount(ctx context.Context, account, company string) ([]string, error) {
	var names []string
	seen := make(map[string]bool)
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	var defaultAccount string
	if company != "" {
		c, err := s.companies.GetCompany(ctx, company)
		if err != nil {
			return nil, err
		}
		defaultAccount = c.DefaultInventoryAccount
	}

	err := s.store.View(ctx, func(tx WarehouseTx) error {
		matched, err := tx.ListByAccount(ctx, account)
		if err != nil {
			return err
		}
		trees := make(map[string]*WarehouseTree)
		for _, w := range matched {
			if !w.IsGroup {
				add(w.Name)
				continue
			}
			tree, ok := trees[w.Company]
			if !ok {
				if tree, err = loadTree(ctx, tx, w.Company); err != nil {
					return err
				}
				trees[w.Company] = tree
			}
			subtree, err := tree.Subtree(w.Name)
			if err != nil {
				return err
			}
			for _, d := range subtree {
				add(d.Name)
			}
		}

		if len(names) == 0 && defaultAccount != "" && defaultAccount == account {
			all, err := tx.ListWarehouses(ctx, company)
			if err != nil {
				return err
			}
			for _, w := range all {
				if !w.IsGroup {
					add(w.Name)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: against the account %s", ErrNoWarehouseFound, account)
	}
	return names, nil
}

func (s *hierarchyService) GetWarehouseAccount(ctx context.Context, name string) (string, error) {
	w, err := s.GetWarehouse(ctx, name)
	if err != nil {
		return "", err
	}
	// Accounts are only reported under a company with perpetual inventory.
	if w.Company == "" {
		return "", nil
	}
	c, err := s.companies.GetCompany(ctx, w.Company)
	if err != nil {
		return "", err
	}
	if !c.EnablePerpetualInventory {
		return "", nil
	}
	if w.Account != "" {
		return w.Account, nil
	}

	var account string
	err = s.store.View(ctx, func(tx WarehouseTx) error {
		tree, err := loadTree(ctx, tx, w.Company)
		if err != nil {
			return err
		}
		ancestors, err := tree.Ancestors(name)
		if err != nil {
			return err
		}
		for _, a := range ancestors {
			if a.Account != "" {
				account = a.Account
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if account == "" {
		account = c.DefaultInventoryAccount
	}
	return account, nil
}
