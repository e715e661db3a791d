// Package markers translates user-facing marker names into the small dense
// integers used internally by the mesh. Element regions and boundary
// segments keep separate tables; the first use of a name assigns the next
// unused integer.
package markers

// DGInnerEdge is the reserved marker denoting inner edges used for
// discontinuous-Galerkin coupling. It is chosen so that it can never
// collide with a user marker name.
const DGInnerEdge = "-54125631"

// DGInnerEdgeInt is the internal integer reserved for DGInnerEdge. It is
// never handed out by a Table.
const DGInnerEdgeInt = -54125631

// Any is the wildcard accepted by operations that take a marker name and
// should apply to every marker.
const Any = ""

// Table is a bidirectional map between marker names and internal integers.
// Internal markers start at 1; 0 is kept free as the "unset" value of
// freshly created edge nodes.
type Table struct {
	toName map[int]string
	toID   map[string]int
	next   int
}

// NewTable creates an empty marker table.
func NewTable() *Table {
	return &Table{
		toName: make(map[int]string),
		toID:   make(map[string]int),
		next:   1,
	}
}

// Insert returns the internal marker for the given name, assigning the
// next unused integer on first use.
func (t *Table) Insert(name string) int {
	if name == DGInnerEdge {
		return DGInnerEdgeInt
	}
	if id, ok := t.toID[name]; ok {
		return id
	}
	id := t.next
	t.next++
	t.toName[id] = name
	t.toID[name] = id
	return id
}

// Get returns the internal marker for a name without assigning one.
func (t *Table) Get(name string) (int, bool) {
	if name == DGInnerEdge {
		return DGInnerEdgeInt, true
	}
	id, ok := t.toID[name]
	return id, ok
}

// Name returns the user marker name for an internal marker.
func (t *Table) Name(id int) (string, bool) {
	if id == DGInnerEdgeInt {
		return DGInnerEdge, true
	}
	name, ok := t.toName[id]
	return name, ok
}

// Size returns the number of assigned markers, not counting the reserved
// DG inner-edge marker.
func (t *Table) Size() int {
	return len(t.toName)
}

// Names returns all assigned marker names. The order follows the internal
// marker integers, so it is the order of first use.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.toName))
	for id := 1; id < t.next; id++ {
		if name, ok := t.toName[id]; ok {
			names = append(names, name)
		}
	}
	return names
}

// Clone returns an independent copy of the table.
func (t *Table) Clone() *Table {
	c := NewTable()
	c.next = t.next
	for id, name := range t.toName {
		c.toName[id] = name
		c.toID[name] = id
	}
	return c
}
