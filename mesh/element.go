package mesh

import (
	"github.com/notargets/hadapt/curv"
)

// MaxElementSons is the maximum number of sons of a refined element.
const MaxElementSons = 4

// MaxElementEdges is the maximum number of edges (and vertices) of an
// element.
const MaxElementEdges = 4

// Element is one mesh cell, a triangle (NVert == 3) or quadrilateral
// (NVert == 4). Vertex and edge nodes are referenced by id into the
// mesh-wide hash table; the element does not own them. Sons are owned by
// the parent and valid only while the element is inactive; the edge node
// ids are valid only while the element is active (deactivating an element
// releases its edge nodes, which may cease to exist).
//
// Invariant: an element is either active with no sons, or inactive with
// at least two sons.
type Element struct {
	ID     int
	NVert  int
	Marker int

	Active bool // leaf of the refinement tree
	Used   bool // exists vs. logically deleted

	Vn [MaxElementEdges]int // vertex node ids
	En [MaxElementEdges]int // edge node ids, active elements only

	Sons   [MaxElementSons]int // son element ids, -1 when absent
	Parent int                 // parent element id, -1 for base elements

	// curved-boundary map, owned by the element, nil for straight
	// elements
	CM *curv.Map

	// cached inverse reference-order hint consumed by the integration
	// order calculator
	IroCache int
}

// IsTriangle reports whether the element is a triangle.
func (e *Element) IsTriangle() bool { return e.NVert == 3 }

// IsQuad reports whether the element is a quadrilateral.
func (e *Element) IsQuad() bool { return e.NVert == 4 }

// IsCurved reports whether the element carries a curvature map.
func (e *Element) IsCurved() bool { return e.CM != nil }

// NextVert returns the vertex index following i in orientation order.
func (e *Element) NextVert(i int) int { return (i + 1) % e.NVert }

// PrevVert returns the vertex index preceding i in orientation order.
func (e *Element) PrevVert(i int) int { return (i + e.NVert - 1) % e.NVert }

// SonCount returns the number of non-absent sons.
func (e *Element) SonCount() int {
	n := 0
	for _, s := range e.Sons {
		if s != -1 {
			n++
		}
	}
	return n
}

// elementStore is a stable-id slot array of elements. Removal is logical;
// freed slots are reused unless appendOnly is set, which bulk operations
// use while traversing the store.
type elementStore struct {
	items      []*Element
	free       []int
	nitems     int
	appendOnly bool
}

func (s *elementStore) add() *Element {
	s.nitems++
	if n := len(s.free); n > 0 && !s.appendOnly {
		id := s.free[n-1]
		s.free = s.free[:n-1]
		e := &Element{ID: id, Used: true, Parent: -1, Sons: [4]int{-1, -1, -1, -1}}
		s.items[id] = e
		return e
	}
	e := &Element{ID: len(s.items), Used: true, Parent: -1, Sons: [4]int{-1, -1, -1, -1}}
	s.items = append(s.items, e)
	return e
}

func (s *elementStore) remove(id int) {
	if s.items[id].Used {
		s.items[id].Used = false
		s.items[id].CM = nil
		s.nitems--
		s.free = append(s.free, id)
	}
}

// at returns the element in slot id, which may be logically deleted; nil
// for never-allocated ids.
func (s *elementStore) at(id int) *Element {
	if id < 0 || id >= len(s.items) {
		return nil
	}
	return s.items[id]
}

// size returns the maximum element id plus one.
func (s *elementStore) size() int { return len(s.items) }

// numItems returns the number of used elements.
func (s *elementStore) numItems() int { return s.nitems }

func (s *elementStore) freeAll() {
	s.items = nil
	s.free = nil
	s.nitems = 0
	s.appendOnly = false
}
