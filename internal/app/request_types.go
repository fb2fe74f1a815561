package app

// TreeChildrenRequest is the input for listing one level of the warehouse tree.
type TreeChildrenRequest struct {
	CompanyCode string
	Parent      string
	IsRoot      bool // lists root warehouses regardless of Parent
}

// AddNodeRequest is the input for inserting a warehouse into the tree.
type AddNodeRequest struct {
	WarehouseName   string
	CompanyCode     string
	ParentWarehouse string
	Account         string
	IsGroup         bool
	IsRoot          bool
}

// MoveWarehouseRequest is the input for re-parenting a warehouse.
type MoveWarehouseRequest struct {
	Name      string
	NewParent string // empty makes the warehouse a root
}
