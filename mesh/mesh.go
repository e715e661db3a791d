package mesh

import (
	"sync/atomic"

	"github.com/notargets/hadapt/markers"
)

// Factory issues mesh sequence numbers from a per-process atomic counter.
// Every topology change of any mesh created by the same factory bumps the
// shared counter, so sequence numbers are unique across meshes and usable
// as cache-invalidation keys by dependents (spatial indices, bounding
// boxes, marker areas).
type Factory struct {
	seq atomic.Uint64
}

// NewFactory creates an independent sequence-number factory.
func NewFactory() *Factory { return &Factory{} }

func (f *Factory) next() uint64 { return f.seq.Add(1) }

// NewMesh creates an empty mesh drawing sequence numbers from f.
func (f *Factory) NewMesh() *Mesh {
	m := &Mesh{factory: f}
	m.initTable()
	m.ElementMarkers = markers.NewTable()
	m.BoundaryMarkers = markers.NewTable()
	m.seq = f.next()
	return m
}

var defaultFactory = NewFactory()

// NewMesh creates an empty mesh on the default factory.
func NewMesh() *Mesh { return defaultFactory.NewMesh() }

// Refinement is one entry of the mesh operation log: which element was
// refined and with which kind (KindUnrefine for derefinement). Replaying
// the log against a copy of the base mesh reconstructs the mesh.
type Refinement struct {
	ElementID int
	Kind      int
}

// Mesh owns the node hash table and the element store and orchestrates
// creation, refinement, derefinement, regularization and copying. All
// operations are in-place mutations; concurrent use of one Mesh must be
// serialized by the caller.
type Mesh struct {
	HashTable
	elements elementStore

	nbase    int // number of base (coarse) elements
	nactive  int // number of active (leaf) elements
	ntopvert int // number of top-level vertex nodes
	ninitial int // elements at or below this id belong to the initial mesh

	seq     uint64
	factory *Factory

	// marker name <-> internal id translation
	ElementMarkers  *markers.Table
	BoundaryMarkers *markers.Table

	// operation log for replay/serialization
	refinements []Refinement

	// caches keyed by seq
	bboxSeq            uint64
	bboxValid          bool
	bboxX0, bboxY0     float64
	bboxX1, bboxY1     float64
	markerAreas        map[int]*markerArea
	locator            *elementLocator

	// parent-id array maintained during regularization
	parents []int
}

func (m *Mesh) bumpSeq() {
	m.seq = m.factory.next()
}

// Seq returns the mesh sequence number. It increases on every topology
// change; consumers caching derived structures must compare their stored
// sequence against it and rebuild on mismatch.
func (m *Mesh) Seq() uint64 { return m.seq }

// Refinements returns the log of refinement operations performed on this
// mesh since creation.
func (m *Mesh) Refinements() []Refinement { return m.refinements }

// GetNumElements returns the number of used elements, active or not.
func (m *Mesh) GetNumElements() int { return m.elements.numItems() }

// GetNumBaseElements returns the number of coarse (base) mesh elements.
func (m *Mesh) GetNumBaseElements() int { return m.nbase }

// GetNumUsedBaseElements returns the number of base elements that are not
// logically deleted.
func (m *Mesh) GetNumUsedBaseElements() int {
	n := 0
	for id := 0; id < m.nbase; id++ {
		e := m.elements.at(id)
		if e != nil && e.Used {
			n++
		}
	}
	return n
}

// GetNumActiveElements returns the current number of active elements.
func (m *Mesh) GetNumActiveElements() int { return m.nactive }

// GetMaxElementID returns the maximum element id plus one.
func (m *Mesh) GetMaxElementID() int { return m.elements.size() }

// GetNumVertexNodes returns the number of used vertex nodes.
func (m *Mesh) GetNumVertexNodes() int {
	n := 0
	m.forAllVertexNodes(func(*Node) { n++ })
	return n
}

// GetNumEdgeNodes returns the number of used edge nodes.
func (m *Mesh) GetNumEdgeNodes() int {
	n := 0
	m.forAllEdgeNodes(func(*Node) { n++ })
	return n
}

// GetElement returns the element with the given id; ids outside the store
// yield an InvalidElementIDError. The element may be logically deleted,
// which callers check via Used.
func (m *Mesh) GetElement(id int) (*Element, error) {
	if id < 0 || id >= m.elements.size() {
		return nil, &InvalidElementIDError{ID: id, Max: m.elements.size()}
	}
	return m.elements.at(id), nil
}

// forAllActiveElements calls f for every element active when the
// traversal starts. Elements created by f are not visited.
func (m *Mesh) forAllActiveElements(f func(*Element)) {
	max := m.elements.size()
	for id := 0; id < max; id++ {
		e := m.elements.at(id)
		if e != nil && e.Used && e.Active {
			f(e)
		}
	}
}

// forAllUsedElements calls f for every used element, active or inactive.
func (m *Mesh) forAllUsedElements(f func(*Element)) {
	max := m.elements.size()
	for id := 0; id < max; id++ {
		e := m.elements.at(id)
		if e != nil && e.Used {
			f(e)
		}
	}
}

// forAllInactiveElements calls f for every used, inactive element.
func (m *Mesh) forAllInactiveElements(f func(*Element)) {
	max := m.elements.size()
	for id := 0; id < max; id++ {
		e := m.elements.at(id)
		if e != nil && e.Used && !e.Active {
			f(e)
		}
	}
}

// ForEachActiveElement exposes the active-element traversal to clients
// such as assembly layers and tests.
func (m *Mesh) ForEachActiveElement(f func(*Element)) { m.forAllActiveElements(f) }

// GetBoundingBox returns the corners (bottom-left, top-right) of the
// axis-aligned bounding box of all vertex nodes. The box is cached and
// recomputed when the mesh sequence number has moved.
func (m *Mesh) GetBoundingBox() (x0, y0, x1, y1 float64) {
	if !m.bboxValid || m.bboxSeq != m.seq {
		m.calcBoundingBox()
		m.bboxValid = true
		m.bboxSeq = m.seq
	}
	return m.bboxX0, m.bboxY0, m.bboxX1, m.bboxY1
}

func (m *Mesh) calcBoundingBox() {
	first := true
	m.forAllVertexNodes(func(n *Node) {
		if first {
			m.bboxX0, m.bboxX1 = n.X, n.X
			m.bboxY0, m.bboxY1 = n.Y, n.Y
			first = false
			return
		}
		if n.X > m.bboxX1 {
			m.bboxX1 = n.X
		}
		if n.X < m.bboxX0 {
			m.bboxX0 = n.X
		}
		if n.Y > m.bboxY1 {
			m.bboxY1 = n.Y
		}
		if n.Y < m.bboxY0 {
			m.bboxY0 = n.Y
		}
	})
}

// Rescale divides all vertex coordinates by the reference lengths xref
// and yref. Meshes with curved elements cannot be rescaled; the first
// curved element encountered is reported via CurvedError.
func (m *Mesh) Rescale(xref, yref float64) error {
	var curved *Element
	m.forAllUsedElements(func(e *Element) {
		if curved == nil && e.CM != nil {
			curved = e
		}
	})
	if curved != nil {
		return &CurvedError{ElementID: curved.ID}
	}
	m.forAllVertexNodes(func(n *Node) {
		n.X /= xref
		n.Y /= yref
	})
	m.bumpSeq()
	return nil
}

// Free releases all curvature maps, the node table, the element store,
// the marker tables, the caches and the operation log, returning the mesh
// to its freshly constructed state.
func (m *Mesh) Free() {
	m.forAllUsedElements(func(e *Element) { e.CM = nil })
	m.elements.freeAll()
	m.initTable()
	m.ElementMarkers = markers.NewTable()
	m.BoundaryMarkers = markers.NewTable()
	m.refinements = nil
	m.bboxValid = false
	m.markerAreas = nil
	m.locator = nil
	m.parents = nil
	m.nbase, m.nactive, m.ntopvert, m.ninitial = 0, 0, 0, 0
}

// refAllNodes registers the element with all its vertex and edge nodes.
func (m *Mesh) refAllNodes(e *Element) {
	for i := 0; i < e.NVert; i++ {
		m.refElement(e.Vn[i], e.ID)
		m.refElement(e.En[i], e.ID)
	}
}

// unrefAllNodes releases all node references held by the element. Edge
// nodes whose reference count reaches zero cease to exist.
func (m *Mesh) unrefAllNodes(e *Element) {
	for i := 0; i < e.NVert; i++ {
		m.unrefElement(e.Vn[i], e.ID)
		m.unrefElement(e.En[i], e.ID)
	}
}
