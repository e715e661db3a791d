package mesh

import (
	"fmt"

	"github.com/notargets/hadapt/curv"
	"github.com/notargets/hadapt/markers"
)

// Refinement kinds. Triangles support the isotropic split into four
// triangles (KindIso) and the split into three quads (KindTriToQuads).
// Quads support the isotropic split plus the two anisotropic halvings.
// KindUnrefine records a derefinement in the operation log.
const (
	KindIso        = 0  // four congruent sons
	KindHorizontal = 1  // quad only: two sons stacked along eta
	KindVertical   = 2  // quad only: two sons side by side along xi
	KindTriToQuads = 3  // triangle only: three quad sons
	KindUnrefine   = -1 // log entry for derefinement
)

// mustTriangle creates a son triangle during refinement. The parent was
// validated at creation time, so son geometry cannot be degenerate.
func (m *Mesh) mustTriangle(marker int, v0, v1, v2 *Node, cm *curv.Map) *Element {
	e, err := m.createTriangle(marker, v0, v1, v2, cm)
	if err != nil {
		panic(err)
	}
	return e
}

func (m *Mesh) mustQuad(marker int, v0, v1, v2, v3 *Node, cm *curv.Map) *Element {
	e, err := m.createQuad(marker, v0, v1, v2, v3, cm)
	if err != nil {
		panic(err)
	}
	return e
}

// refineTriangleToTriangles splits the active triangle e into four
// similar triangles. The three mid-edge vertex nodes are obtained through
// the hash table, so a neighbor splitting the same edge shares them.
func (m *Mesh) refineTriangleToTriangles(e *Element) {
	// remember boundary flags and markers of the edges being split
	var bnd [3]bool
	var mrk [3]int
	for i := 0; i < 3; i++ {
		en := m.Node(e.En[i])
		bnd[i], mrk[i] = en.Bnd, en.Marker
	}

	x0 := m.GetVertexNode(e.Vn[0], e.Vn[1])
	x1 := m.GetVertexNode(e.Vn[1], e.Vn[2])
	x2 := m.GetVertexNode(e.Vn[2], e.Vn[0])

	var cm [4]*curv.Map
	if e.IsCurved() {
		m.adjustMidNode(e, 0, x0)
		m.adjustMidNode(e, 1, x1)
		m.adjustMidNode(e, 2, x2)
		for i := range cm {
			cm[i] = m.createSonMap(e, i)
		}
	}

	// deactivate the parent; its edge nodes may cease to exist
	e.Active = false
	m.unrefAllNodes(e)

	v0, v1, v2 := m.Node(e.Vn[0]), m.Node(e.Vn[1]), m.Node(e.Vn[2])
	sons := [4]*Element{
		m.mustTriangle(e.Marker, v0, x0, x2, cm[0]),
		m.mustTriangle(e.Marker, x0, v1, x1, cm[1]),
		m.mustTriangle(e.Marker, x2, x1, v2, cm[2]),
		m.mustTriangle(e.Marker, x1, x2, x0, cm[3]),
	}
	for i, s := range sons {
		e.Sons[i] = s.ID
		if s.IsCurved() {
			m.updateRefmapCoeffs(s)
		}
	}

	// restore boundary data on the split edge halves
	setEdge := func(s *Element, i int, k int) {
		en := m.Node(s.En[i])
		en.Bnd, en.Marker = bnd[k], mrk[k]
	}
	setEdge(sons[0], 0, 0)
	setEdge(sons[0], 2, 2)
	setEdge(sons[1], 0, 0)
	setEdge(sons[1], 1, 1)
	setEdge(sons[2], 1, 1)
	setEdge(sons[2], 2, 2)
	m.Node(sons[3].Vn[0]).Bnd = bnd[1]
	m.Node(sons[3].Vn[1]).Bnd = bnd[2]
	m.Node(sons[3].Vn[2]).Bnd = bnd[0]

	m.nactive += 3
}

// refineQuad splits the active quad e isotropically (kind 0) or into two
// halves (kind 1 splits edges 1 and 3, kind 2 splits edges 0 and 2). The
// anisotropic sons occupy slots 0,1 resp. 2,3 of the parent's son array;
// son-edge lookups key on the slot choice.
func (m *Mesh) refineQuad(e *Element, kind int) {
	var bnd [4]bool
	var mrk [4]int
	for i := 0; i < 4; i++ {
		en := m.Node(e.En[i])
		bnd[i], mrk[i] = en.Bnd, en.Marker
	}
	v0, v1, v2, v3 := m.Node(e.Vn[0]), m.Node(e.Vn[1]), m.Node(e.Vn[2]), m.Node(e.Vn[3])

	setEdge := func(s *Element, i, k int) {
		en := m.Node(s.En[i])
		en.Bnd, en.Marker = bnd[k], mrk[k]
	}

	switch kind {
	case KindIso:
		x0 := m.GetVertexNode(e.Vn[0], e.Vn[1])
		x1 := m.GetVertexNode(e.Vn[1], e.Vn[2])
		x2 := m.GetVertexNode(e.Vn[2], e.Vn[3])
		x3 := m.GetVertexNode(e.Vn[3], e.Vn[0])
		mid := m.GetVertexNode(x0.ID, x2.ID)

		var cm [4]*curv.Map
		if e.IsCurved() {
			m.adjustMidNode(e, 0, x0)
			m.adjustMidNode(e, 1, x1)
			m.adjustMidNode(e, 2, x2)
			m.adjustMidNode(e, 3, x3)
			mid.X, mid.Y = m.refMapPoint(e, 0, 0)
			for i := range cm {
				cm[i] = m.createSonMap(e, i)
			}
		}

		e.Active = false
		m.unrefAllNodes(e)

		sons := [4]*Element{
			m.mustQuad(e.Marker, v0, x0, mid, x3, cm[0]),
			m.mustQuad(e.Marker, x0, v1, x1, mid, cm[1]),
			m.mustQuad(e.Marker, mid, x1, v2, x2, cm[2]),
			m.mustQuad(e.Marker, x3, mid, x2, v3, cm[3]),
		}
		for i, s := range sons {
			e.Sons[i] = s.ID
			if s.IsCurved() {
				m.updateRefmapCoeffs(s)
			}
		}
		for i := 0; i < 4; i++ {
			j := 3
			if i > 0 {
				j = i - 1
			}
			setEdge(sons[i], j, j)
			setEdge(sons[i], i, i)
			m.Node(sons[i].Vn[j]).Bnd = bnd[j]
		}
		m.nactive += 3

	case KindHorizontal:
		x1 := m.GetVertexNode(e.Vn[1], e.Vn[2])
		x3 := m.GetVertexNode(e.Vn[3], e.Vn[0])

		var cm [2]*curv.Map
		if e.IsCurved() {
			m.adjustMidNode(e, 1, x1)
			m.adjustMidNode(e, 3, x3)
			for i := range cm {
				cm[i] = m.createSonMap(e, i+4)
			}
		}

		e.Active = false
		m.unrefAllNodes(e)

		sons := [2]*Element{
			m.mustQuad(e.Marker, v0, v1, x1, x3, cm[0]),
			m.mustQuad(e.Marker, x3, x1, v2, v3, cm[1]),
		}
		e.Sons = [4]int{sons[0].ID, sons[1].ID, -1, -1}
		for _, s := range sons {
			if s.IsCurved() {
				m.updateRefmapCoeffs(s)
			}
		}
		setEdge(sons[0], 0, 0)
		setEdge(sons[0], 1, 1)
		setEdge(sons[1], 1, 1)
		setEdge(sons[1], 2, 2)
		setEdge(sons[0], 3, 3)
		setEdge(sons[1], 3, 3)
		m.Node(sons[0].Vn[2]).Bnd = bnd[1]
		m.Node(sons[0].Vn[3]).Bnd = bnd[3]
		m.nactive++

	case KindVertical:
		x0 := m.GetVertexNode(e.Vn[0], e.Vn[1])
		x2 := m.GetVertexNode(e.Vn[2], e.Vn[3])

		var cm [2]*curv.Map
		if e.IsCurved() {
			m.adjustMidNode(e, 0, x0)
			m.adjustMidNode(e, 2, x2)
			for i := range cm {
				cm[i] = m.createSonMap(e, i+6)
			}
		}

		e.Active = false
		m.unrefAllNodes(e)

		sons := [2]*Element{
			m.mustQuad(e.Marker, v0, x0, x2, v3, cm[0]),
			m.mustQuad(e.Marker, x0, v1, v2, x2, cm[1]),
		}
		e.Sons = [4]int{-1, -1, sons[0].ID, sons[1].ID}
		for _, s := range sons {
			if s.IsCurved() {
				m.updateRefmapCoeffs(s)
			}
		}
		setEdge(sons[0], 0, 0)
		setEdge(sons[1], 0, 0)
		setEdge(sons[1], 1, 1)
		setEdge(sons[0], 2, 2)
		setEdge(sons[1], 2, 2)
		setEdge(sons[0], 3, 3)
		m.Node(sons[0].Vn[1]).Bnd = bnd[0]
		m.Node(sons[0].Vn[2]).Bnd = bnd[2]
		m.nactive++

	default:
		panic(fmt.Sprintf("invalid quad refinement kind %d", kind))
	}
}

// refineElement applies the refinement kind to e, propagates the
// integration-order hint to the sons and bumps the mesh sequence.
// Callers have validated that e is used and active.
func (m *Mesh) refineElement(e *Element, kind int) {
	if e.IsTriangle() {
		if kind == KindTriToQuads {
			m.refineTriangleToQuads(e)
		} else {
			m.refineTriangleToTriangles(e)
		}
	} else {
		m.refineQuad(e, kind)
	}
	for _, sid := range e.Sons {
		if sid == -1 {
			continue
		}
		son := m.elements.at(sid)
		son.Parent = e.ID
		son.IroCache = e.IroCache
	}
	m.bumpSeq()
}

// RefineElementID refines the active element id with the given kind and
// records the operation in the refinement log. KindUnrefine is a no-op;
// derefinements replayed from the log go through UnrefineElementID.
func (m *Mesh) RefineElementID(id int, kind int) error {
	if kind == KindUnrefine {
		return nil
	}
	e, err := m.GetElement(id)
	if err != nil {
		return err
	}
	if !e.Used {
		return fmt.Errorf("invalid element id number %d", id)
	}
	if !e.Active {
		return fmt.Errorf("attempt to refine element #%d which has been refined already", id)
	}
	m.refineElement(e, kind)
	m.refinements = append(m.refinements, Refinement{ElementID: id, Kind: kind})
	return nil
}

// RefineAllElements refines every currently active element with the given
// kind. With markAsInitial the refined mesh becomes the new initial mesh
// that UnrefineAllElements(true) will not coarsen past.
func (m *Mesh) RefineAllElements(kind int, markAsInitial bool) error {
	m.ninitial = m.GetMaxElementID()
	m.elements.appendOnly = true
	defer func() { m.elements.appendOnly = false }()

	var err error
	m.forAllActiveElements(func(e *Element) {
		if err != nil {
			return
		}
		k := kind
		if e.IsTriangle() && (k == KindHorizontal || k == KindVertical) {
			k = KindIso
		}
		err = m.RefineElementID(e.ID, k)
	})
	if err != nil {
		return err
	}
	if markAsInitial {
		m.ninitial = m.GetMaxElementID()
	}
	return nil
}

// RefineByCriterion runs depth passes over the active elements, refining
// each element the criterion selects. The criterion returns the
// refinement kind to apply, or a negative value to leave the element
// alone; later passes see the sons created by earlier ones.
func (m *Mesh) RefineByCriterion(criterion func(*Element) int, depth int, markAsInitial bool) error {
	m.elements.appendOnly = true
	defer func() { m.elements.appendOnly = false }()

	for level := 0; level < depth; level++ {
		var err error
		m.forAllActiveElements(func(e *Element) {
			if err != nil {
				return
			}
			if kind := criterion(e); kind >= 0 {
				err = m.RefineElementID(e.ID, kind)
			}
		})
		if err != nil {
			return err
		}
	}
	if markAsInitial {
		m.ninitial = m.GetMaxElementID()
	}
	return nil
}

// RefineTowardsVertex refines elements touching the given top-level
// vertex, depth levels deep.
func (m *Mesh) RefineTowardsVertex(vertexID int, depth int, markAsInitial bool) error {
	criterion := func(e *Element) int {
		for i := 0; i < e.NVert; i++ {
			if e.Vn[i] == vertexID {
				return KindIso
			}
		}
		return -1
	}
	return m.RefineByCriterion(criterion, depth, markAsInitial)
}

// RefineTowardsBoundary performs depth levels of refinement of elements
// next to the boundary with the given marker name; markers.Any selects
// all boundary markers. With aniso enabled, quads that touch the boundary
// with only their horizontal or only their vertical edges are split in
// two instead of four, producing the cheaper boundary-layer refinement.
func (m *Mesh) RefineTowardsBoundary(marker string, depth int, aniso bool, markAsInitial bool) error {
	if marker == markers.Any {
		for _, name := range m.BoundaryMarkers.Names() {
			if err := m.RefineTowardsBoundary(name, depth, aniso, markAsInitial); err != nil {
				return err
			}
		}
		return nil
	}

	mrk, ok := m.BoundaryMarkers.Get(marker)
	if !ok {
		return fmt.Errorf("boundary marker %q not found", marker)
	}

	found := false
	for level := 0; level < depth; level++ {
		// flag the vertices lying on the target boundary; split edges keep
		// the marker, so each pass sees the current active layer
		onBnd := make([]bool, m.MaxNodeID())
		m.forAllActiveElements(func(e *Element) {
			for i := 0; i < e.NVert; i++ {
				if m.Node(e.En[i]).Marker == mrk {
					onBnd[e.Vn[i]] = true
					onBnd[e.Vn[e.NextVert(i)]] = true
					found = true
				}
			}
		})

		edgeOn := func(e *Element, i int) bool {
			return m.Node(e.En[i]).Marker == mrk
		}
		criterion := func(e *Element) int {
			touches := false
			for i := 0; i < e.NVert; i++ {
				if edgeOn(e, i) || onBnd[e.Vn[i]] {
					touches = true
					break
				}
			}
			if !touches {
				return -1
			}
			if e.IsTriangle() || !aniso {
				return KindIso
			}
			// one marked horizontal edge with the far vertices off the
			// boundary, or a one-element strip between two marked edges
			if (edgeOn(e, 0) && !onBnd[e.Vn[2]] && !onBnd[e.Vn[3]]) ||
				(edgeOn(e, 2) && !onBnd[e.Vn[0]] && !onBnd[e.Vn[1]]) ||
				(edgeOn(e, 0) && edgeOn(e, 2) && !edgeOn(e, 1) && !edgeOn(e, 3)) {
				return KindHorizontal
			}
			if (edgeOn(e, 1) && !onBnd[e.Vn[3]] && !onBnd[e.Vn[0]]) ||
				(edgeOn(e, 3) && !onBnd[e.Vn[1]] && !onBnd[e.Vn[2]]) ||
				(edgeOn(e, 1) && edgeOn(e, 3) && !edgeOn(e, 0) && !edgeOn(e, 2)) {
				return KindVertical
			}
			return KindIso
		}
		if err := m.RefineByCriterion(criterion, 1, false); err != nil {
			return err
		}
	}
	if !found {
		return fmt.Errorf("boundary marker %q not found on any active element", marker)
	}
	if markAsInitial {
		m.ninitial = m.GetMaxElementID()
	}
	return nil
}

// RefineInArea refines elements of one material area, depth levels deep.
func (m *Mesh) RefineInArea(marker string, depth int, kind int, markAsInitial bool) error {
	return m.RefineInAreas([]string{marker}, depth, kind, markAsInitial)
}

// RefineInAreas refines elements whose material marker matches any of the
// given names; markers.Any selects every area.
func (m *Mesh) RefineInAreas(names []string, depth int, kind int, markAsInitial bool) error {
	any := false
	sel := make(map[int]bool)
	for _, name := range names {
		if name == markers.Any {
			any = true
			continue
		}
		mrk, ok := m.ElementMarkers.Get(name)
		if !ok {
			return fmt.Errorf("element marker %q not found", name)
		}
		sel[mrk] = true
	}
	criterion := func(e *Element) int {
		if !any && !sel[e.Marker] {
			return -1
		}
		if e.IsTriangle() && (kind == KindHorizontal || kind == KindVertical) {
			return KindIso
		}
		return kind
	}
	return m.RefineByCriterion(criterion, depth, markAsInitial)
}
