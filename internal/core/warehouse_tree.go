package core

import (
	"fmt"
	"sort"
)

// Bounds is a nested-set interval.
type Bounds struct {
	Lft int
	Rgt int
}

// WarehouseTree is an in-memory nested set over the warehouses of one company
// scope. Every company (and the unscoped scope) numbers its bounds 1..2n on its
// own, so a mutation here never touches another company's rows.
//
// WarehouseTree is not safe for concurrent use; HierarchyService builds one per
// operation inside the company's mutation lock.
type WarehouseTree struct {
	company string
	nodes   map[string]*Warehouse
}

// NewWarehouseTree builds a tree from the stored warehouses of one company scope.
// The slice is copied; bounds are taken as stored and can be checked with Validate.
func NewWarehouseTree(company string, warehouses []Warehouse) *WarehouseTree {
	t := &WarehouseTree{
		company: company,
		nodes:   make(map[string]*Warehouse, len(warehouses)),
	}
	for i := range warehouses {
		w := warehouses[i]
		t.nodes[w.Name] = &w
	}
	return t
}

func (t *WarehouseTree) Company() string { return t.company }

func (t *WarehouseTree) Len() int { return len(t.nodes) }

// Get returns a copy of the named node.
func (t *WarehouseTree) Get(name string) (Warehouse, bool) {
	n, ok := t.nodes[name]
	if !ok {
		return Warehouse{}, false
	}
	return *n, true
}

// Nodes returns copies of all nodes ordered by Lft.
func (t *WarehouseTree) Nodes() []Warehouse {
	out := make([]Warehouse, 0, len(t.nodes))
	for _, n := range t.nodes {
		out = append(out, *n)
	}
	sortByLft(out)
	return out
}

// ParentMap returns name -> parent name for every node of the scope.
func (t *WarehouseTree) ParentMap() map[string]string {
	parents := make(map[string]string, len(t.nodes))
	for name, n := range t.nodes {
		parents[name] = n.ParentWarehouse
	}
	return parents
}

// Snapshot captures the current bounds so Changed can report what a mutation moved.
func (t *WarehouseTree) Snapshot() map[string]Bounds {
	snap := make(map[string]Bounds, len(t.nodes))
	for name, n := range t.nodes {
		snap[name] = Bounds{Lft: n.Lft, Rgt: n.Rgt}
	}
	return snap
}

// Changed returns the nodes present in snap whose bounds or parent differ now.
// Nodes added after the snapshot are not included.
func (t *WarehouseTree) Changed(snap map[string]Bounds, parents map[string]string) []Warehouse {
	var out []Warehouse
	for name, b := range snap {
		n, ok := t.nodes[name]
		if !ok {
			continue
		}
		if n.Lft != b.Lft || n.Rgt != b.Rgt || (parents != nil && parents[name] != n.ParentWarehouse) {
			out = append(out, *n)
		}
	}
	sortByLft(out)
	return out
}

// IsDescendant reports whether node lies strictly inside ancestor's interval.
func (t *WarehouseTree) IsDescendant(ancestor, node string) bool {
	a, ok := t.nodes[ancestor]
	if !ok {
		return false
	}
	n, ok := t.nodes[node]
	if !ok {
		return false
	}
	return a.Contains(*n)
}

// Children returns the direct children of name ordered by name.
func (t *WarehouseTree) Children(name string) []Warehouse {
	var out []Warehouse
	for _, n := range t.nodes {
		if n.ParentWarehouse == name {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Descendants returns every node strictly contained in name's interval, ordered by Lft.
func (t *WarehouseTree) Descendants(name string) ([]Warehouse, error) {
	root, ok := t.nodes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWarehouseNotFound, name)
	}
	var out []Warehouse
	for _, n := range t.nodes {
		if root.Contains(*n) {
			out = append(out, *n)
		}
	}
	sortByLft(out)
	return out, nil
}

// Subtree returns name itself followed by its descendants, ordered by Lft.
func (t *WarehouseTree) Subtree(name string) ([]Warehouse, error) {
	desc, err := t.Descendants(name)
	if err != nil {
		return nil, err
	}
	return append([]Warehouse{*t.nodes[name]}, desc...), nil
}

// Ancestors returns the nodes whose interval strictly contains name's,
// nearest first.
func (t *WarehouseTree) Ancestors(name string) ([]Warehouse, error) {
	n, ok := t.nodes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWarehouseNotFound, name)
	}
	var out []Warehouse
	for _, a := range t.nodes {
		if a.Contains(*n) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Lft > out[j].Lft })
	return out, nil
}

// Insert places w as the last child of its parent (or as the last root) and
// shifts every bound at or after the insertion point by two.
// The returned copy carries the assigned bounds.
func (t *WarehouseTree) Insert(w Warehouse) (Warehouse, error) {
	if w.Name == "" {
		return Warehouse{}, fmt.Errorf("%w: name is required", ErrInvalidWarehouse)
	}
	if w.Company != t.company {
		return Warehouse{}, fmt.Errorf("%w: warehouse %s belongs to company %q, tree is %q",
			ErrInvalidWarehouse, w.Name, w.Company, t.company)
	}
	if _, exists := t.nodes[w.Name]; exists {
		return Warehouse{}, fmt.Errorf("%w: %s", ErrDuplicateWarehouse, w.Name)
	}

	var at int
	if w.ParentWarehouse != "" {
		parent, ok := t.nodes[w.ParentWarehouse]
		if !ok {
			return Warehouse{}, fmt.Errorf("%w: %s does not exist in company %q",
				ErrInvalidParent, w.ParentWarehouse, t.company)
		}
		if !parent.IsGroup {
			return Warehouse{}, fmt.Errorf("%w: %s is not a group warehouse", ErrInvalidParent, w.ParentWarehouse)
		}
		at = parent.Rgt
		for _, n := range t.nodes {
			if n.Rgt >= at {
				n.Rgt += 2
			}
			if n.Lft >= at {
				n.Lft += 2
			}
		}
	} else {
		at = t.maxRgt() + 1
	}

	w.Lft = at
	w.Rgt = at + 1
	t.nodes[w.Name] = &w
	return w, nil
}

// Remove deletes a node without children and closes the gap it leaves.
func (t *WarehouseTree) Remove(name string) error {
	n, ok := t.nodes[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrWarehouseNotFound, name)
	}
	width := n.Rgt - n.Lft + 1
	if width > 2 || len(t.Children(name)) > 0 {
		return fmt.Errorf("%w: %s", ErrHasChildren, name)
	}

	delete(t.nodes, name)
	for _, o := range t.nodes {
		if o.Lft > n.Rgt {
			o.Lft -= width
		}
		if o.Rgt > n.Rgt {
			o.Rgt -= width
		}
	}
	return nil
}

// SetGroup flips the group flag of a node. A node with children stays a group.
func (t *WarehouseTree) SetGroup(name string, isGroup bool) error {
	n, ok := t.nodes[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrWarehouseNotFound, name)
	}
	if !isGroup && n.Rgt-n.Lft > 1 {
		return fmt.Errorf("%w: %s", ErrHasChildren, name)
	}
	n.IsGroup = isGroup
	return nil
}

// Move re-parents name under newParent (empty = make it a root) and
// recomputes bounds with the node placed as the new parent's last child.
func (t *WarehouseTree) Move(name, newParent string) error {
	n, ok := t.nodes[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrWarehouseNotFound, name)
	}
	if newParent != "" {
		if newParent == name || t.IsDescendant(name, newParent) {
			return fmt.Errorf("%w: %s can not be moved under its own descendant %s",
				ErrCyclicHierarchy, name, newParent)
		}
		p, ok := t.nodes[newParent]
		if !ok {
			return fmt.Errorf("%w: %s does not exist in company %q", ErrInvalidParent, newParent, t.company)
		}
		if !p.IsGroup {
			return fmt.Errorf("%w: %s is not a group warehouse", ErrInvalidParent, newParent)
		}
	}
	if n.ParentWarehouse == newParent {
		return nil
	}

	old := n.ParentWarehouse
	n.ParentWarehouse = newParent
	if err := t.rebuild(name); err != nil {
		n.ParentWarehouse = old
		return err
	}
	return nil
}

// Rebuild recomputes every bound from the parent pointers, keeping the current
// sibling order. Nodes that cannot be reached from a root form a cycle.
func (t *WarehouseTree) Rebuild() error {
	return t.rebuild("")
}

func (t *WarehouseTree) rebuild(last string) error {
	children := make(map[string][]*Warehouse, len(t.nodes))
	for _, n := range t.nodes {
		if n.ParentWarehouse != "" {
			if _, ok := t.nodes[n.ParentWarehouse]; !ok {
				return fmt.Errorf("%w: parent %s of %s does not exist in company %q",
					ErrInvalidParent, n.ParentWarehouse, n.Name, t.company)
			}
		}
		children[n.ParentWarehouse] = append(children[n.ParentWarehouse], n)
	}
	for key, kids := range children {
		sort.Slice(kids, func(i, j int) bool {
			if kids[i].Name == last {
				return false
			}
			if kids[j].Name == last {
				return true
			}
			if kids[i].Lft != kids[j].Lft {
				return kids[i].Lft < kids[j].Lft
			}
			return kids[i].Name < kids[j].Name
		})
		children[key] = kids
	}

	type frame struct {
		node *Warehouse
		next int
	}
	bounds := make(map[string]Bounds, len(t.nodes))
	counter := 0
	for _, root := range children[""] {
		counter++
		bounds[root.Name] = Bounds{Lft: counter}
		stack := []frame{{node: root}}
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			kids := children[top.node.Name]
			if top.next < len(kids) {
				child := kids[top.next]
				top.next++
				counter++
				bounds[child.Name] = Bounds{Lft: counter}
				stack = append(stack, frame{node: child})
				continue
			}
			counter++
			b := bounds[top.node.Name]
			b.Rgt = counter
			bounds[top.node.Name] = b
			stack = stack[:len(stack)-1]
		}
	}

	if len(bounds) != len(t.nodes) {
		var stuck []string
		for name := range t.nodes {
			if _, ok := bounds[name]; !ok {
				stuck = append(stuck, name)
			}
		}
		sort.Strings(stuck)
		return fmt.Errorf("%w: warehouses %v are not reachable from a root", ErrCyclicHierarchy, stuck)
	}

	for name, b := range bounds {
		t.nodes[name].Lft = b.Lft
		t.nodes[name].Rgt = b.Rgt
	}
	return nil
}

// Validate checks that the stored bounds form a gapless nested set 1..2n whose
// containment agrees with the parent pointers.
func (t *WarehouseTree) Validate() error {
	seen := make(map[int]string, 2*len(t.nodes))
	for name, n := range t.nodes {
		if n.Lft >= n.Rgt {
			return fmt.Errorf("warehouse %s has lft %d >= rgt %d", name, n.Lft, n.Rgt)
		}
		for _, v := range []int{n.Lft, n.Rgt} {
			if v < 1 || v > 2*len(t.nodes) {
				return fmt.Errorf("warehouse %s has bound %d outside 1..%d", name, v, 2*len(t.nodes))
			}
			if other, dup := seen[v]; dup {
				return fmt.Errorf("bound %d is shared by %s and %s", v, other, name)
			}
			seen[v] = name
		}
	}

	ordered := t.Nodes()
	var open []Warehouse
	for _, n := range ordered {
		for len(open) > 0 && open[len(open)-1].Rgt < n.Lft {
			open = open[:len(open)-1]
		}
		enclosing := ""
		if len(open) > 0 {
			top := open[len(open)-1]
			if n.Rgt > top.Rgt {
				return fmt.Errorf("warehouse %s overlaps %s", n.Name, top.Name)
			}
			enclosing = top.Name
		}
		if enclosing != n.ParentWarehouse {
			return fmt.Errorf("warehouse %s is nested under %q but its parent is %q",
				n.Name, enclosing, n.ParentWarehouse)
		}
		open = append(open, n)
	}
	return nil
}

func (t *WarehouseTree) maxRgt() int {
	max := 0
	for _, n := range t.nodes {
		if n.Rgt > max {
			max = n.Rgt
		}
	}
	return max
}

func sortByLft(ws []Warehouse) {
	sort.Slice(ws, func(i, j int) bool { return ws[i].Lft < ws[j].Lft })
}
