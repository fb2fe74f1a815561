package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"warehouse-tree/internal/app"
	"warehouse-tree/internal/core"

	"github.com/spf13/cobra"
)

// NewRootCommand builds the warehouse CLI on top of svc.
// defaultCompany is used when --company is not given.
func NewRootCommand(ctx context.Context, svc app.ApplicationService, defaultCompany string) *cobra.Command {
	var (
		company string
		asJSON  bool
	)

	root := &cobra.Command{
		Use:           "warehouse",
		Short:         "Manage the warehouse hierarchy and its stock value roll-up",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&company, "company", "c", defaultCompany, "company code")
	root.PersistentFlags().BoolVar(&asJSON, "json", false, "print JSON instead of tables")

	out := func(cmd *cobra.Command) io.Writer { return cmd.OutOrStdout() }

	// ── tree ──────────────────────────────────────────────────────────────────
	treeCmd := &cobra.Command{
		Use:   "tree [parent]",
		Short: "List one level of the warehouse tree (roots when no parent is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := app.TreeChildrenRequest{CompanyCode: company, IsRoot: len(args) == 0}
			if len(args) == 1 {
				req.Parent = args[0]
			}
			result, err := svc.GetTreeChildren(ctx, req)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(out(cmd), result.Nodes)
			}
			printTreeNodes(out(cmd), result)
			return nil
		},
	}

	// ── add ───────────────────────────────────────────────────────────────────
	var (
		addParent  string
		addAccount string
		addGroup   bool
	)
	addCmd := &cobra.Command{
		Use:   "add <warehouse name>",
		Short: "Add a warehouse; without --parent it becomes a root",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := svc.AddNode(ctx, app.AddNodeRequest{
				WarehouseName:   args[0],
				CompanyCode:     company,
				ParentWarehouse: addParent,
				Account:         addAccount,
				IsGroup:         addGroup,
				IsRoot:          addParent == "",
			})
			if err != nil {
				return err
			}
			return printWarehouse(out(cmd), result.Warehouse, asJSON)
		},
	}
	addCmd.Flags().StringVarP(&addParent, "parent", "p", "", "parent warehouse name")
	addCmd.Flags().StringVar(&addAccount, "account", "", "inventory account")
	addCmd.Flags().BoolVarP(&addGroup, "group", "g", false, "create as a group warehouse")

	// ── convert ───────────────────────────────────────────────────────────────
	convertCmd := &cobra.Command{
		Use:   "convert <warehouse>",
		Short: "Toggle a warehouse between group and ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := svc.ConvertToGroupOrLedger(ctx, args[0])
			if err != nil {
				return err
			}
			return printWarehouse(out(cmd), result.Warehouse, asJSON)
		},
	}

	// ── move ──────────────────────────────────────────────────────────────────
	moveCmd := &cobra.Command{
		Use:   "move <warehouse> [new parent]",
		Short: "Re-parent a warehouse; without a new parent it becomes a root",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := app.MoveWarehouseRequest{Name: args[0]}
			if len(args) == 2 {
				req.NewParent = args[1]
			}
			result, err := svc.MoveWarehouse(ctx, req)
			if err != nil {
				return err
			}
			return printWarehouse(out(cmd), result.Warehouse, asJSON)
		},
	}

	// ── delete ────────────────────────────────────────────────────────────────
	deleteCmd := &cobra.Command{
		Use:   "delete <warehouse>",
		Short: "Delete a warehouse without children, balances, or ledger history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := svc.DeleteWarehouse(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "Warehouse %s deleted.\n", args[0])
			return nil
		},
	}

	// ── descendants ───────────────────────────────────────────────────────────
	descendantsCmd := &cobra.Command{
		Use:   "descendants <warehouse>",
		Short: "List every warehouse below a warehouse",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := svc.GetDescendants(ctx, args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(out(cmd), result.Warehouses)
			}
			printWarehouses(out(cmd), result.Warehouses)
			return nil
		},
	}

	// ── stock-value ───────────────────────────────────────────────────────────
	stockValueCmd := &cobra.Command{
		Use:   "stock-value",
		Short: "Show rolled-up stock value per warehouse",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := svc.GetWarehouseWiseStockValue(ctx, company)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(out(cmd), result.Values)
			}
			printStockValue(out(cmd), result)
			return nil
		},
	}

	// ── by-account ────────────────────────────────────────────────────────────
	byAccountCmd := &cobra.Command{
		Use:   "by-account <account>",
		Short: "List the warehouses booked to an inventory account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := svc.GetWarehousesBasedOnAccount(ctx, args[0], company)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(out(cmd), result.Warehouses)
			}
			for _, name := range result.Warehouses {
				fmt.Fprintln(out(cmd), name)
			}
			return nil
		},
	}

	// ── account ───────────────────────────────────────────────────────────────
	accountCmd := &cobra.Command{
		Use:   "account <warehouse>",
		Short: "Show the inventory account that applies to a warehouse",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := svc.GetWarehouseAccount(ctx, args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(out(cmd), result)
			}
			account := result.Account
			if account == "" {
				account = "(none, perpetual inventory disabled)"
			}
			fmt.Fprintf(out(cmd), "%s: %s\n", result.Warehouse, account)
			return nil
		},
	}

	// ── rebuild ───────────────────────────────────────────────────────────────
	rebuildCmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Recompute all nested-set bounds of the company's warehouse tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := svc.RebuildTree(ctx, company); err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "Warehouse tree of %q rebuilt.\n", company)
			return nil
		},
	}

	root.AddCommand(treeCmd, addCmd, convertCmd, moveCmd, deleteCmd, descendantsCmd,
		stockValueCmd, byAccountCmd, accountCmd, rebuildCmd)
	return root
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printWarehouse(w io.Writer, wh *core.Warehouse, asJSON bool) error {
	if asJSON {
		return printJSON(w, wh)
	}
	kind := "ledger"
	if wh.IsGroup {
		kind = "group"
	}
	parent := wh.ParentWarehouse
	if parent == "" {
		parent = "-"
	}
	fmt.Fprintf(w, "%s (%s) parent=%s lft=%d rgt=%d\n", wh.Name, kind, parent, wh.Lft, wh.Rgt)
	return nil
}

func printWarehouses(w io.Writer, ws []core.Warehouse) {
	fmt.Fprintf(w, "%-40s %-6s %6s %6s\n", "NAME", "GROUP", "LFT", "RGT")
	fmt.Fprintln(w, strings.Repeat("-", 62))
	for _, wh := range ws {
		fmt.Fprintf(w, "%-40s %-6t %6d %6d\n", wh.Name, wh.IsGroup, wh.Lft, wh.Rgt)
	}
}

func printTreeNodes(w io.Writer, result *app.TreeChildrenResult) {
	fmt.Fprintf(w, "%-40s %-10s %18s\n", "WAREHOUSE", "EXPANDABLE", "BALANCE")
	fmt.Fprintln(w, strings.Repeat("-", 70))
	for _, n := range result.Nodes {
		balance := ""
		if n.Balance != nil {
			balance = n.Balance.StringFixed(2) + " " + n.CompanyCurrency
		}
		fmt.Fprintf(w, "%-40s %-10t %18s\n", n.Value, n.Expandable, balance)
	}
}

func printStockValue(w io.Writer, result *app.StockValueResult) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 62))
	fmt.Fprintf(w, "  %-58s\n", "WAREHOUSE-WISE STOCK VALUE")
	fmt.Fprintf(w, "  Company  : %s\n", result.CompanyCode)
	fmt.Fprintf(w, "  Currency : %s\n", result.Currency)
	fmt.Fprintln(w, strings.Repeat("=", 62))
	for _, v := range result.Values {
		fmt.Fprintf(w, "  %-40s %18s\n", v.Warehouse, v.StockValue.StringFixed(2))
	}
	fmt.Fprintln(w, strings.Repeat("=", 62))
}
