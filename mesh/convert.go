package mesh

import (
	"fmt"
	"math"
	"sort"

	"github.com/notargets/hadapt/curv"
)

// arcBetween builds an arc curve spanning the straight segment between
// nodes p1 and p2 with the given opening angle in degrees.
func (m *Mesh) arcBetween(p1, p2 int, angle float64) *curv.Curve {
	n1, n2 := m.Node(p1), m.Node(p2)
	return curv.NewArc(n1.X, n1.Y, n2.X, n2.Y, angle)
}

// interiorElement reports whether no edge of e lies on the boundary.
func (m *Mesh) interiorElement(e *Element) bool {
	for i := 0; i < e.NVert; i++ {
		if m.Node(e.En[i]).Bnd {
			return false
		}
	}
	return true
}

// boundaryRefinementAngles returns the per-edge arc opening angles of e,
// scaled down from the toplevel arcs by the refinement depth: each
// halving level halves the angle spanned by the element's edge.
func (m *Mesh) boundaryRefinementAngles(e *Element, bndOnly bool) [4]float64 {
	var ang [4]float64
	if !e.IsCurved() {
		return ang
	}
	top := e
	multiplier := 1.0
	if !e.CM.Toplevel {
		top = m.elements.at(e.CM.Parent)
		for p := e.CM.Part; p != 0; p >>= 4 {
			multiplier *= 2.0
		}
	}
	for n := 0; n < e.NVert; n++ {
		c := top.CM.Curves[n]
		if c == nil || c.Kind != curv.Arc {
			continue
		}
		if bndOnly && !m.Node(e.En[n]).Bnd {
			continue
		}
		ang[n] = c.Angle / multiplier
	}
	return ang
}

// refineTriangleToQuads splits the active triangle e into three quads
// meeting at the gravity center. Curved boundary edges carried as arcs
// are split into two half-angle arcs owned by the adjacent sons; the
// third edge of a fully curved triangle stays straight, matching the
// established conversion behavior.
func (m *Mesh) refineTriangleToQuads(e *Element) {
	var bnd [3]bool
	var mrk [3]int
	for i := 0; i < 3; i++ {
		en := m.Node(e.En[i])
		bnd[i], mrk[i] = en.Bnd, en.Marker
	}

	x0 := m.GetVertexNode(e.Vn[0], e.Vn[1])
	x1 := m.GetVertexNode(e.Vn[1], e.Vn[2])
	x2 := m.GetVertexNode(e.Vn[2], e.Vn[0])
	mid := m.GetVertexNode(x0.ID, e.Vn[1])
	mid.X = (x0.X + x1.X + x2.X) / 3
	mid.Y = (x0.Y + x1.Y + x2.Y) / 3

	inter := m.interiorElement(e)

	if e.IsCurved() && !inter {
		m.adjustMidNode(e, 0, x0)
		m.adjustMidNode(e, 1, x1)
		m.adjustMidNode(e, 2, x2)
		mid.X, mid.Y = m.refMapPoint(e, -1.0/3.0, -1.0/3.0)
	}

	angles := m.boundaryRefinementAngles(e, false)

	var cm [3]*curv.Map
	if e.IsCurved() && !inter {
		// sons flanking a curved edge receive toplevel maps with the
		// half-angle arcs; edge 2 is not propagated
		if e.CM.Curves[0] != nil {
			half := angles[0] / 2
			if cm[0] == nil {
				cm[0] = curv.NewMap()
				cm[0].Order = 4
			}
			if cm[1] == nil {
				cm[1] = curv.NewMap()
				cm[1].Order = 4
			}
			cm[0].Curves[0] = m.arcBetween(e.Vn[0], x0.ID, half)
			cm[1].Curves[0] = m.arcBetween(x0.ID, e.Vn[1], half)
		}
		if e.CM.Curves[1] != nil {
			half := angles[1] / 2
			if cm[1] == nil {
				cm[1] = curv.NewMap()
				cm[1].Order = 4
			}
			if cm[2] == nil {
				cm[2] = curv.NewMap()
				cm[2].Order = 4
			}
			cm[1].Curves[1] = m.arcBetween(e.Vn[1], x1.ID, half)
			cm[2].Curves[0] = m.arcBetween(x1.ID, e.Vn[2], half)
		}
	}

	v0, v1, v2 := m.Node(e.Vn[0]), m.Node(e.Vn[1]), m.Node(e.Vn[2])
	sons := [3]*Element{
		m.mustQuad(e.Marker, v0, x0, mid, x2, cm[0]),
		m.mustQuad(e.Marker, x0, v1, x1, mid, cm[1]),
		m.mustQuad(e.Marker, x1, v2, x2, mid, cm[2]),
	}
	for _, s := range sons {
		if s.IsCurved() {
			m.updateRefmapCoeffs(s)
		}
	}

	e.Active = false
	m.nactive += 2
	m.unrefAllNodes(e)

	setEdge := func(s *Element, i, k int) {
		en := m.Node(s.En[i])
		en.Bnd, en.Marker = bnd[k], mrk[k]
	}
	setEdge(sons[0], 0, 0)
	setEdge(sons[0], 3, 2)
	setEdge(sons[1], 0, 0)
	setEdge(sons[1], 1, 1)
	setEdge(sons[2], 0, 1)
	setEdge(sons[2], 1, 2)

	e.Sons = [4]int{sons[0].ID, sons[1].ID, sons[2].ID, -1}
	for _, s := range sons {
		s.Parent = e.ID
	}
}

// refineQuadToTriangles splits the active quad e into two triangles
// along its shorter diagonal. Arcs on the quad's edges transfer to the
// triangle sons with their full angle.
func (m *Mesh) refineQuadToTriangles(e *Element) {
	var bnd [4]bool
	var mrk [4]int
	for i := 0; i < 4; i++ {
		en := m.Node(e.En[i])
		bnd[i], mrk[i] = en.Bnd, en.Marker
	}

	e.Active = false
	m.nactive--
	m.unrefAllNodes(e)

	v := [4]*Node{m.Node(e.Vn[0]), m.Node(e.Vn[1]), m.Node(e.Vn[2]), m.Node(e.Vn[3])}

	// split along the shorter diagonal; bcheck selects the 0-2 one
	d02 := (v[0].X-v[2].X)*(v[0].X-v[2].X) + (v[0].Y-v[2].Y)*(v[0].Y-v[2].Y)
	d13 := (v[1].X-v[3].X)*(v[1].X-v[3].X) + (v[1].Y-v[3].Y)*(v[1].Y-v[3].Y)
	bcheck := d02 <= d13

	var cm [2]*curv.Map
	if e.IsCurved() {
		shift := 0
		if !bcheck {
			shift = 1
		}
		for k := 0; k < 2; k++ {
			for idx := 2 * k; idx < 2+2*k; idx++ {
				c := e.CM.Curves[(idx+shift)%4]
				if c == nil || c.Kind != curv.Arc {
					continue
				}
				if cm[k] == nil {
					cm[k] = curv.NewMap()
					cm[k].Order = 4
				}
				cm[k].Curves[idx%2] = m.arcBetween(e.Vn[(idx+shift)%4], e.Vn[(idx+shift+1)%4], c.Angle)
			}
		}
	}

	var sons [2]*Element
	if bcheck {
		sons[0] = m.mustTriangle(e.Marker, v[0], v[1], v[2], cm[0])
		sons[1] = m.mustTriangle(e.Marker, v[2], v[3], v[0], cm[1])
	} else {
		sons[0] = m.mustTriangle(e.Marker, v[1], v[2], v[3], cm[0])
		sons[1] = m.mustTriangle(e.Marker, v[3], v[0], v[1], cm[1])
	}
	for _, s := range sons {
		if s.IsCurved() {
			m.updateRefmapCoeffs(s)
		}
	}
	m.nactive += 2

	setEdge := func(s *Element, i, k int) {
		en := m.Node(s.En[i])
		en.Bnd, en.Marker = bnd[k], mrk[k]
	}
	if bcheck {
		setEdge(sons[0], 0, 0)
		setEdge(sons[0], 1, 1)
		m.Node(sons[0].Vn[1]).Bnd = bnd[0]
		setEdge(sons[1], 0, 2)
		setEdge(sons[1], 1, 3)
		m.Node(sons[1].Vn[2]).Bnd = bnd[1]
	} else {
		setEdge(sons[0], 0, 1)
		setEdge(sons[0], 1, 2)
		m.Node(sons[0].Vn[1]).Bnd = bnd[1]
		setEdge(sons[1], 0, 3)
		setEdge(sons[1], 1, 0)
		m.Node(sons[1].Vn[2]).Bnd = bnd[0]
	}

	e.Sons = [4]int{sons[0].ID, sons[1].ID, -1, -1}
	for _, s := range sons {
		s.Parent = e.ID
	}
}

// refineQuadToQuads is the arc-aware isotropic quad split used by the
// quad-preserving conversion: like refineQuad with KindIso, but sons next
// to a curved boundary edge receive fresh toplevel maps with half-angle
// arcs instead of derived maps.
func (m *Mesh) refineQuadToQuads(e *Element) {
	var bnd [4]bool
	var mrk [4]int
	for i := 0; i < 4; i++ {
		en := m.Node(e.En[i])
		bnd[i], mrk[i] = en.Bnd, en.Marker
	}
	inter := m.interiorElement(e)
	angles := m.boundaryRefinementAngles(e, true)

	x0 := m.GetVertexNode(e.Vn[0], e.Vn[1])
	x1 := m.GetVertexNode(e.Vn[1], e.Vn[2])
	x2 := m.GetVertexNode(e.Vn[2], e.Vn[3])
	x3 := m.GetVertexNode(e.Vn[3], e.Vn[0])
	mid := m.GetVertexNode(x0.ID, x2.ID)

	if e.IsCurved() {
		m.adjustMidNode(e, 0, x0)
		m.adjustMidNode(e, 1, x1)
		m.adjustMidNode(e, 2, x2)
		m.adjustMidNode(e, 3, x3)
		mid.X, mid.Y = m.refMapPoint(e, 0, 0)
	}

	e.Active = false
	m.nactive--
	m.unrefAllNodes(e)

	xs := [4]*Node{x0, x1, x2, x3}
	var cm [4]*curv.Map
	if e.IsCurved() && !inter {
		for i := 0; i < 4; i++ {
			if math.Abs(angles[i]) > 1e-4 {
				if cm[i] == nil {
					cm[i] = curv.NewMap()
					cm[i].Order = 4
				}
				j := (i + 1) % 4
				if cm[j] == nil {
					cm[j] = curv.NewMap()
					cm[j].Order = 4
				}
			}
		}
		// son idx abuts edge idx on its first half and edge idx-1 on the
		// second half of that edge; both arcs start at corner idx
		for idx := 0; idx < 4; idx++ {
			if cm[idx] == nil {
				continue
			}
			if math.Abs(angles[idx%4]) > 1e-4 {
				half := angles[idx%4] / 2
				cm[idx].Curves[idx%4] = m.arcBetween(e.Vn[idx%4], xs[idx%4].ID, half)
			}
			if math.Abs(angles[(idx+3)%4]) > 1e-4 {
				half := angles[(idx+3)%4] / 2
				cm[idx].Curves[(idx+3)%4] = m.arcBetween(e.Vn[idx%4], xs[idx%4].ID, half)
			}
		}
	}

	v := [4]*Node{m.Node(e.Vn[0]), m.Node(e.Vn[1]), m.Node(e.Vn[2]), m.Node(e.Vn[3])}
	sons := [4]*Element{
		m.mustQuad(e.Marker, v[0], x0, mid, x3, cm[0]),
		m.mustQuad(e.Marker, x0, v[1], x1, mid, cm[1]),
		m.mustQuad(e.Marker, mid, x1, v[2], x2, cm[2]),
		m.mustQuad(e.Marker, x3, mid, x2, v[3], cm[3]),
	}
	m.nactive += 4

	for i := 0; i < 4; i++ {
		j := 3
		if i > 0 {
			j = i - 1
		}
		enj := m.Node(sons[i].En[j])
		enj.Bnd, enj.Marker = bnd[j], mrk[j]
		eni := m.Node(sons[i].En[i])
		eni.Bnd, eni.Marker = bnd[i], mrk[i]
		m.Node(sons[i].Vn[j]).Bnd = bnd[j]
	}

	for i, s := range sons {
		if s.IsCurved() {
			m.updateRefmapCoeffs(s)
		}
		e.Sons[i] = s.ID
		s.Parent = e.ID
	}
}

// convertTrianglesToBase replaces the active triangle e by a single new
// base-like triangle over the same vertices. Curved boundary edges are
// rebuilt as toplevel arcs with the depth-scaled angle, cutting the tie
// to the ancestor's curvature map.
func (m *Mesh) convertTrianglesToBase(e *Element) {
	var bnd [3]bool
	var mrk [3]int
	for i := 0; i < 3; i++ {
		en := m.Node(e.En[i])
		bnd[i], mrk[i] = en.Bnd, en.Marker
	}
	inter := m.interiorElement(e)
	angles := m.boundaryRefinementAngles(e, false)

	e.Active = false
	m.unrefAllNodes(e)

	var cm *curv.Map
	if e.IsCurved() && !inter {
		for idx := 0; idx < 3; idx++ {
			if !bnd[idx] {
				continue
			}
			if math.Abs(angles[idx]) <= 1e-4 {
				continue
			}
			if cm == nil {
				cm = curv.NewMap()
				cm.Order = 4
			}
			p1, p2 := e.Vn[idx], e.Vn[(idx+1)%3]
			if p1 > p2 {
				p1, p2 = p2, p1
			}
			cm.Curves[idx] = m.arcBetween(p1, p2, angles[idx])
		}
	}

	enew := m.mustTriangle(e.Marker, m.Node(e.Vn[0]), m.Node(e.Vn[1]), m.Node(e.Vn[2]), cm)
	if enew.IsCurved() {
		m.updateRefmapCoeffs(enew)
	}
	for i := 0; i < 3; i++ {
		en := m.Node(enew.En[i])
		en.Bnd, en.Marker = bnd[i], mrk[i]
	}
	e.Sons = [4]int{enew.ID, -1, -1, -1}
	enew.Parent = e.ID
}

// convertQuadsToBase is the quad counterpart of convertTrianglesToBase.
func (m *Mesh) convertQuadsToBase(e *Element) {
	var bnd [4]bool
	var mrk [4]int
	for i := 0; i < 4; i++ {
		en := m.Node(e.En[i])
		bnd[i], mrk[i] = en.Bnd, en.Marker
	}
	inter := m.interiorElement(e)
	angles := m.boundaryRefinementAngles(e, true)

	e.Active = false
	m.unrefAllNodes(e)

	var cm *curv.Map
	if e.IsCurved() && !inter {
		for idx := 0; idx < 4; idx++ {
			if math.Abs(angles[idx]) <= 1e-4 {
				continue
			}
			if cm == nil {
				cm = curv.NewMap()
				cm.Order = 4
			}
			p1, p2 := e.Vn[idx], e.Vn[(idx+1)%4]
			if p1 > p2 {
				p1, p2 = p2, p1
			}
			cm.Curves[idx] = m.arcBetween(p1, p2, angles[idx])
		}
	}

	enew := m.mustQuad(e.Marker, m.Node(e.Vn[0]), m.Node(e.Vn[1]), m.Node(e.Vn[2]), m.Node(e.Vn[3]), cm)
	if enew.IsCurved() {
		m.updateRefmapCoeffs(enew)
	}
	for i := 0; i < 4; i++ {
		en := m.Node(enew.En[i])
		en.Bnd, en.Marker = bnd[i], mrk[i]
	}
	e.Sons = [4]int{enew.ID, -1, -1, -1}
	enew.Parent = e.ID
}

func (m *Mesh) checkRefinable(id int) (*Element, error) {
	e, err := m.GetElement(id)
	if err != nil {
		return nil, err
	}
	if !e.Used {
		return nil, fmt.Errorf("invalid element id number %d", id)
	}
	if !e.Active {
		return nil, fmt.Errorf("attempt to refine element #%d which has been refined already", id)
	}
	return e, nil
}

// RefineElementToQuadsID refines the active element id into quads: a
// triangle becomes three quads, a quad four.
func (m *Mesh) RefineElementToQuadsID(id int) error {
	e, err := m.checkRefinable(id)
	if err != nil {
		return err
	}
	if e.IsTriangle() {
		m.refineTriangleToQuads(e)
	} else {
		m.refineQuadToQuads(e)
	}
	m.bumpSeq()
	return nil
}

// RefineElementToTrianglesID refines the active element id into
// triangles. Triangles are left alone; a quad is split along its shorter
// diagonal.
func (m *Mesh) RefineElementToTrianglesID(id int) error {
	e, err := m.checkRefinable(id)
	if err != nil {
		return err
	}
	if e.IsTriangle() {
		return nil
	}
	m.refineQuadToTriangles(e)
	m.bumpSeq()
	return nil
}

// ConvertElementToBaseID rebuilds the active element id as a base-like
// element with toplevel curvature.
func (m *Mesh) ConvertElementToBaseID(id int) error {
	e, err := m.checkRefinable(id)
	if err != nil {
		return err
	}
	if e.IsTriangle() {
		m.convertTrianglesToBase(e)
	} else {
		m.convertQuadsToBase(e)
	}
	m.bumpSeq()
	return nil
}

// ConvertQuadsToTriangles converts every active quad into two triangles
// and rebuilds the mesh so the triangles form the new base mesh.
func (m *Mesh) ConvertQuadsToTriangles() error {
	m.elements.appendOnly = true
	m.forAllActiveElements(func(e *Element) {
		if e.IsQuad() {
			m.refineQuadToTriangles(e)
		}
	})
	m.elements.appendOnly = false
	return m.rebuildFromActive()
}

// ConvertToBase flattens the refinement history: every active element is
// re-created as a base element of the new mesh, with curved boundary
// edges rebuilt as toplevel arcs.
func (m *Mesh) ConvertToBase() error {
	m.elements.appendOnly = true
	m.forAllActiveElements(func(e *Element) {
		if e.IsTriangle() {
			m.convertTrianglesToBase(e)
		} else {
			m.convertQuadsToBase(e)
		}
	})
	m.elements.appendOnly = false
	return m.rebuildFromActive()
}

// rebuildFromActive re-creates the mesh from its active elements alone:
// vertices are renumbered densely, the active elements become the base
// elements, boundary markers move with the edges and toplevel curvature
// maps survive. The refinement history and hanging-node structure are
// discarded, which is the point: the result is a standalone base mesh
// equivalent to the current leaves.
func (m *Mesh) rebuildFromActive() error {
	type bedge struct {
		v1, v2 int
		name   string
	}
	type elem struct {
		marker string
		verts  []int
		cm     *curv.Map
	}

	// harvest the active layer
	vertID := make(map[int]int)
	var verts [][2]float64
	mapVert := func(id int) int {
		if nid, ok := vertID[id]; ok {
			return nid
		}
		n := m.Node(id)
		nid := len(verts)
		verts = append(verts, [2]float64{n.X, n.Y})
		vertID[id] = nid
		return nid
	}

	var elems []elem
	var bedges []bedge
	seen := make(map[pairKey]bool)
	m.forAllActiveElements(func(e *Element) {
		name, _ := m.ElementMarkers.Name(e.Marker)
		el := elem{marker: name}
		for i := 0; i < e.NVert; i++ {
			el.verts = append(el.verts, mapVert(e.Vn[i]))
		}
		if e.CM != nil && e.CM.Toplevel {
			el.cm = e.CM.Clone()
		}
		elems = append(elems, el)
		for i := 0; i < e.NVert; i++ {
			en := m.Node(e.En[i])
			if !en.Bnd {
				continue
			}
			key := makeKey(e.Vn[i], e.Vn[e.NextVert(i)])
			if seen[key] {
				continue
			}
			seen[key] = true
			bname, _ := m.BoundaryMarkers.Name(en.Marker)
			bedges = append(bedges, bedge{
				v1:   vertID[e.Vn[i]],
				v2:   vertID[e.Vn[e.NextVert(i)]],
				name: bname,
			})
		}
	})
	sort.Slice(bedges, func(i, j int) bool {
		if bedges[i].v1 != bedges[j].v1 {
			return bedges[i].v1 < bedges[j].v1
		}
		return bedges[i].v2 < bedges[j].v2
	})

	var tris [][3]int
	var triMarkers []string
	var quads [][4]int
	var quadMarkers []string
	var cms []*curv.Map // per new element id, tris first
	for _, el := range elems {
		if len(el.verts) == 3 {
			tris = append(tris, [3]int{el.verts[0], el.verts[1], el.verts[2]})
			triMarkers = append(triMarkers, el.marker)
		}
	}
	for _, el := range elems {
		if len(el.verts) == 3 {
			cms = append(cms, el.cm)
		}
	}
	for _, el := range elems {
		if len(el.verts) == 4 {
			quads = append(quads, [4]int{el.verts[0], el.verts[1], el.verts[2], el.verts[3]})
			quadMarkers = append(quadMarkers, el.marker)
			cms = append(cms, el.cm)
		}
	}

	be := make([][2]int, len(bedges))
	bm := make([]string, len(bedges))
	for i, b := range bedges {
		be[i] = [2]int{b.v1, b.v2}
		bm[i] = b.name
	}

	if err := m.Create(verts, tris, triMarkers, quads, quadMarkers, be, bm); err != nil {
		return err
	}
	for id, cm := range cms {
		if cm == nil {
			continue
		}
		e := m.elements.at(id)
		e.CM = cm
		m.updateRefmapCoeffs(e)
	}
	m.bumpSeq()
	return nil
}
