package mesh

import (
	"fmt"
	"math"

	"github.com/notargets/hadapt/curv"
)

const (
	geomEps     = 1e-12
	geomSqrtEps = 1e-6
)

func vectorLength(a1, a2 float64) float64 {
	return math.Hypot(a1, a2)
}

// sameLine reports whether the three points p, q, r lie on one line,
// within the angular tolerance geomEps.
func sameLine(p1, p2, q1, q2, r1, r2 float64) bool {
	pq1, pq2 := q1-p1, q2-p2
	pr1, pr2 := r1-p1, r2-p2
	sinAngle := (pq1*pr2 - pq2*pr1) / (vectorLength(pq1, pq2) * vectorLength(pr1, pr2))
	return math.Abs(sinAngle) < geomEps
}

// isConvex reports whether b lies counter-clockwise of a.
func isConvex(a1, a2, b1, b2 float64) bool {
	return a1*b2-a2*b1 > 0
}

// checkTriangle validates the vertices of triangle i: nonzero edge
// lengths and non-collinearity. A negatively oriented triangle is fixed
// by swapping v1 and v2; the possibly reordered vertices are returned.
func checkTriangle(i int, v0, v1, v2 *Node) (*Node, *Node, *Node, error) {
	l1 := vectorLength(v1.X-v0.X, v1.Y-v0.Y)
	l2 := vectorLength(v2.X-v1.X, v2.Y-v1.Y)
	l3 := vectorLength(v0.X-v2.X, v0.Y-v2.Y)
	if l1 < geomSqrtEps || l2 < geomSqrtEps || l3 < geomSqrtEps {
		return nil, nil, nil, loadErrorf("edge of triangular element #%d has length below %g", i, geomSqrtEps)
	}
	if sameLine(v0.X, v0.Y, v1.X, v1.Y, v2.X, v2.Y) {
		return nil, nil, nil, loadErrorf("triangular element #%d: all vertices lie on the same line", i)
	}
	if !isConvex(v1.X-v0.X, v1.Y-v0.Y, v2.X-v0.X, v2.Y-v0.Y) {
		v1, v2 = v2, v1
	}
	return v0, v1, v2, nil
}

// checkQuad validates the vertices of quad i: nonzero edge and diagonal
// lengths, no three collinear vertices, and convexity with positive
// orientation. Unlike triangles, a badly oriented quad is an error.
func checkQuad(i int, v0, v1, v2, v3 *Node) error {
	lengths := []float64{
		vectorLength(v1.X-v0.X, v1.Y-v0.Y),
		vectorLength(v2.X-v1.X, v2.Y-v1.Y),
		vectorLength(v3.X-v2.X, v3.Y-v2.Y),
		vectorLength(v0.X-v3.X, v0.Y-v3.Y),
	}
	for _, l := range lengths {
		if l < geomSqrtEps {
			return loadErrorf("edge of quad element #%d has length below %g", i, geomSqrtEps)
		}
	}
	if vectorLength(v2.X-v0.X, v2.Y-v0.Y) < geomSqrtEps ||
		vectorLength(v3.X-v1.X, v3.Y-v1.Y) < geomSqrtEps {
		return loadErrorf("diagonal of quad element #%d has length below %g", i, geomSqrtEps)
	}
	triples := [4][3]*Node{{v0, v1, v2}, {v0, v1, v3}, {v0, v2, v3}, {v1, v2, v3}}
	for _, t := range triples {
		if sameLine(t[0].X, t[0].Y, t[1].X, t[1].Y, t[2].X, t[2].Y) {
			return loadErrorf("quad element #%d: vertices %d, %d, %d lie on the same line",
				i, t[0].ID, t[1].ID, t[2].ID)
		}
	}
	if !isConvex(v1.X-v0.X, v1.Y-v0.Y, v2.X-v0.X, v2.Y-v0.Y) {
		return loadErrorf("vertex %d of quad element #%d does not lie on the right of the diagonal v2-v0", v1.ID, i)
	}
	if !isConvex(v2.X-v0.X, v2.Y-v0.Y, v3.X-v0.X, v3.Y-v0.Y) {
		return loadErrorf("vertex %d of quad element #%d does not lie on the left of the diagonal v2-v0", v3.ID, i)
	}
	if !isConvex(v2.X-v1.X, v2.Y-v1.Y, v3.X-v1.X, v3.Y-v1.Y) {
		return loadErrorf("vertex %d of quad element #%d does not lie on the right of the diagonal v3-v1", v2.ID, i)
	}
	if !isConvex(v3.X-v1.X, v3.Y-v1.Y, v0.X-v1.X, v0.Y-v1.Y) {
		return loadErrorf("vertex %d of quad element #%d does not lie on the left of the diagonal v3-v1", v0.ID, i)
	}
	return nil
}

// createTriangle allocates an active triangle over the given vertex
// nodes, creating or sharing the three edge nodes through the hash table
// and registering the element with all its nodes. Degenerate input is a
// MeshLoadError. Active/base counters are maintained by the caller.
func (m *Mesh) createTriangle(marker int, v0, v1, v2 *Node, cm *curv.Map) (*Element, error) {
	if v0 == v1 || v1 == v2 || v2 == v0 {
		return nil, loadErrorf("some of the vertices [%d, %d, %d] of a triangle are identical",
			v0.ID, v1.ID, v2.ID)
	}
	if v0.X == v1.X && v0.X == v2.X {
		return nil, loadErrorf("vertices [%d, %d, %d] of a triangle share x-coordinates: [%g, %g, %g]",
			v0.ID, v1.ID, v2.ID, v0.X, v1.X, v2.X)
	}
	if v0.Y == v1.Y && v0.Y == v2.Y {
		return nil, loadErrorf("vertices [%d, %d, %d] of a triangle share y-coordinates: [%g, %g, %g]",
			v0.ID, v1.ID, v2.ID, v0.Y, v1.Y, v2.Y)
	}

	e := m.elements.add()
	e.Active = true
	e.Marker = marker
	e.NVert = 3
	e.CM = cm

	e.Vn[0], e.Vn[1], e.Vn[2] = v0.ID, v1.ID, v2.ID
	e.En[0] = m.GetEdgeNode(v0.ID, v1.ID).ID
	e.En[1] = m.GetEdgeNode(v1.ID, v2.ID).ID
	e.En[2] = m.GetEdgeNode(v2.ID, v0.ID).ID

	m.refAllNodes(e)
	return e, nil
}

// createQuad is the quadrilateral counterpart of createTriangle.
func (m *Mesh) createQuad(marker int, v0, v1, v2, v3 *Node, cm *curv.Map) (*Element, error) {
	if v0 == v1 || v1 == v2 || v2 == v3 || v3 == v0 || v2 == v0 || v3 == v1 {
		return nil, loadErrorf("some of the vertices [%d, %d, %d, %d] of a quad are identical",
			v0.ID, v1.ID, v2.ID, v3.ID)
	}
	if (v0.X == v1.X && v0.X == v2.X) || (v0.X == v1.X && v0.X == v3.X) ||
		(v0.X == v2.X && v0.X == v3.X) || (v1.X == v2.X && v2.X == v3.X) {
		return nil, loadErrorf("some of the vertices [%d, %d, %d, %d] of a quad share x-coordinates: [%g, %g, %g, %g]",
			v0.ID, v1.ID, v2.ID, v3.ID, v0.X, v1.X, v2.X, v3.X)
	}
	if (v0.Y == v1.Y && v0.Y == v2.Y) || (v0.Y == v1.Y && v0.Y == v3.Y) ||
		(v0.Y == v2.Y && v0.Y == v3.Y) || (v1.Y == v2.Y && v2.Y == v3.Y) {
		return nil, loadErrorf("some of the vertices [%d, %d, %d, %d] of a quad share y-coordinates: [%g, %g, %g, %g]",
			v0.ID, v1.ID, v2.ID, v3.ID, v0.Y, v1.Y, v2.Y, v3.Y)
	}

	e := m.elements.add()
	e.Active = true
	e.Marker = marker
	e.NVert = 4
	e.CM = cm

	e.Vn[0], e.Vn[1], e.Vn[2], e.Vn[3] = v0.ID, v1.ID, v2.ID, v3.ID
	e.En[0] = m.GetEdgeNode(v0.ID, v1.ID).ID
	e.En[1] = m.GetEdgeNode(v1.ID, v2.ID).ID
	e.En[2] = m.GetEdgeNode(v2.ID, v3.ID).ID
	e.En[3] = m.GetEdgeNode(v3.ID, v0.ID).ID

	m.refAllNodes(e)
	return e, nil
}

// Create bootstraps the mesh from flat arrays: vertex coordinates,
// triangle and quad vertex-index tuples with their region marker names,
// and boundary edges with their boundary marker names. Marker names are
// translated through the conversion tables, assigning internal integers
// on first use. Any previous content of the mesh is released.
func (m *Mesh) Create(verts [][2]float64, tris [][3]int, triMarkers []string,
	quads [][4]int, quadMarkers []string, bEdges [][2]int, bMarkers []string) error {

	if len(tris) != len(triMarkers) {
		return fmt.Errorf("have %d triangles but %d triangle markers", len(tris), len(triMarkers))
	}
	if len(quads) != len(quadMarkers) {
		return fmt.Errorf("have %d quads but %d quad markers", len(quads), len(quadMarkers))
	}
	if len(bEdges) != len(bMarkers) {
		return fmt.Errorf("have %d boundary edges but %d boundary markers", len(bEdges), len(bMarkers))
	}

	m.Free()

	// create top-level vertex nodes
	for i, v := range verts {
		node := m.addNode()
		if node.ID != i {
			return fmt.Errorf("vertex node id %d does not match input position %d", node.ID, i)
		}
		node.Kind = VertexNode
		node.Ref = topLevelRef
		node.X, node.Y = v[0], v[1]
	}
	m.ntopvert = len(verts)

	for i, t := range tris {
		v0, v1, v2, err := checkTriangle(i, m.Node(t[0]), m.Node(t[1]), m.Node(t[2]))
		if err != nil {
			return err
		}
		if _, err := m.createTriangle(m.ElementMarkers.Insert(triMarkers[i]), v0, v1, v2, nil); err != nil {
			return err
		}
	}

	for i, q := range quads {
		v0, v1, v2, v3 := m.Node(q[0]), m.Node(q[1]), m.Node(q[2]), m.Node(q[3])
		if err := checkQuad(i, v0, v1, v2, v3); err != nil {
			return err
		}
		if _, err := m.createQuad(m.ElementMarkers.Insert(quadMarkers[i]), v0, v1, v2, v3, nil); err != nil {
			return err
		}
	}

	// set boundary markers
	for i, b := range bEdges {
		en := m.PeekEdgeNode(b[0], b[1])
		if en == nil {
			return fmt.Errorf("boundary data error: edge %d-%d does not exist", b[0], b[1])
		}
		en.Marker = m.BoundaryMarkers.Insert(bMarkers[i])
		m.Node(b[0]).Bnd = true
		m.Node(b[1]).Bnd = true
		en.Bnd = true
	}

	m.nbase = len(tris) + len(quads)
	m.nactive = m.nbase
	m.ninitial = m.nbase
	m.bumpSeq()

	return m.initialCheck()
}

// initialCheck verifies positive orientation of every active element: the
// constant part of the reference-map Jacobian for straight elements, a
// sampled Jacobian for curved ones.
func (m *Mesh) initialCheck() error {
	var err error
	m.forAllActiveElements(func(e *Element) {
		if err != nil {
			return
		}
		k := 2
		if e.IsQuad() {
			k = 3
		}
		v0, v1, vk := m.Node(e.Vn[0]), m.Node(e.Vn[1]), m.Node(e.Vn[k])
		constJac := 0.25 * ((v1.X-v0.X)*(vk.Y-v0.Y) - (vk.X-v0.X)*(v1.Y-v0.Y))
		if constJac <= 0 {
			err = loadErrorf("element #%d is concave or badly oriented", e.ID)
			return
		}
		if e.IsCurved() {
			if jacErr := m.checkCurvedJacobian(e); jacErr != nil {
				err = jacErr
			}
		}
	})
	return err
}

// checkCurvedJacobian samples the curved reference map on a coarse grid
// and verifies the Jacobian stays positive.
func (m *Mesh) checkCurvedJacobian(e *Element) error {
	const h = 1e-6
	samples := [][2]float64{
		{-0.5, -0.5}, {0.5, -0.5}, {0.0, 0.0}, {-0.5, 0.5},
	}
	if e.IsQuad() {
		samples = append(samples, [2]float64{0.5, 0.5})
	}
	for _, s := range samples {
		x1, y1 := m.refMapPoint(e, s[0]+h, s[1])
		x0, y0 := m.refMapPoint(e, s[0]-h, s[1])
		x3, y3 := m.refMapPoint(e, s[0], s[1]+h)
		x2, y2 := m.refMapPoint(e, s[0], s[1]-h)
		dxdxi, dydxi := (x1-x0)/(2*h), (y1-y0)/(2*h)
		dxdeta, dydeta := (x3-x2)/(2*h), (y3-y2)/(2*h)
		if dxdxi*dydeta-dxdeta*dydxi <= 0 {
			return loadErrorf("element #%d is concave or badly oriented", e.ID)
		}
	}
	return nil
}
