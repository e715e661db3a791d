package mesh

import (
	"github.com/notargets/hadapt/curv"
)

// elementVertexCoords collects the physical corner coordinates of e in
// vertex order.
func (m *Mesh) elementVertexCoords(e *Element) [][2]float64 {
	verts := make([][2]float64, e.NVert)
	for i := 0; i < e.NVert; i++ {
		n := m.Node(e.Vn[i])
		verts[i] = [2]float64{n.X, n.Y}
	}
	return verts
}

// straightPoint maps reference coordinates to physical coordinates of a
// straight element: the linear triangle map or bilinear quad map.
func (m *Mesh) straightPoint(e *Element, xi, eta float64) (x, y float64) {
	v := m.elementVertexCoords(e)
	if e.IsTriangle() {
		l := [3]float64{-(xi + eta) / 2, (1 + xi) / 2, (1 + eta) / 2}
		for i := 0; i < 3; i++ {
			x += l[i] * v[i][0]
			y += l[i] * v[i][1]
		}
		return x, y
	}
	n := [4]float64{
		(1 - xi) * (1 - eta) / 4,
		(1 + xi) * (1 - eta) / 4,
		(1 + xi) * (1 + eta) / 4,
		(1 - xi) * (1 + eta) / 4,
	}
	for i := 0; i < 4; i++ {
		x += n[i] * v[i][0]
		y += n[i] * v[i][1]
	}
	return x, y
}

// refMapPoint maps reference coordinates of e to physical coordinates,
// honoring curved geometry. Derived curvature maps are resolved through
// the sub-element path to the element owning the toplevel map, so points
// on a curved edge of any refinement level lie exactly on the curve.
func (m *Mesh) refMapPoint(e *Element, xi, eta float64) (x, y float64) {
	if e.CM == nil {
		return m.straightPoint(e, xi, eta)
	}
	if e.CM.Toplevel {
		return e.CM.Point(m.elementVertexCoords(e), xi, eta)
	}
	top := m.elements.at(e.CM.Parent)
	if top == nil || top.CM == nil {
		return m.straightPoint(e, xi, eta)
	}
	tx, ty := curv.ToTop(top.IsTriangle(), e.CM.Part, xi, eta)
	return top.CM.Point(m.elementVertexCoords(top), tx, ty)
}

// updateRefmapCoeffs samples the curved map of e at the geometric control
// nodes and stores the result as the map's coefficient matrix, making the
// interpolated CoeffPoint form available to reference-map consumers.
func (m *Mesh) updateRefmapCoeffs(e *Element) {
	if e.CM == nil {
		return
	}
	var ref [][2]float64
	if e.IsTriangle() {
		ref = curv.RefNodesTri[:]
	} else {
		ref = curv.RefNodesQuad[:]
	}
	pts := make([][2]float64, len(ref))
	for i, r := range ref {
		x, y := m.refMapPoint(e, r[0], r[1])
		pts[i] = [2]float64{x, y}
	}
	e.CM.SetCoeffs(pts)
}

// adjustMidNode moves the hanging vertex node created on edge i of the
// curved element e onto the actual curve. Straight edges leave the node at
// the midpoint where the hash table created it.
func (m *Mesh) adjustMidNode(e *Element, i int, node *Node) {
	if e.CM == nil {
		return
	}
	var xi, eta float64
	if e.IsTriangle() {
		switch i {
		case 0:
			xi, eta = 0, -1
		case 1:
			xi, eta = 0, 0
		default:
			xi, eta = -1, 0
		}
	} else {
		switch i {
		case 0:
			xi, eta = 0, -1
		case 1:
			xi, eta = 1, 0
		case 2:
			xi, eta = 0, 1
		default:
			xi, eta = -1, 0
		}
	}
	node.X, node.Y = m.refMapPoint(e, xi, eta)
}

// createSonMap derives a son curvature map for son number `son` of e,
// rooting derived maps at the element carrying the toplevel map.
func (m *Mesh) createSonMap(e *Element, son int) *curv.Map {
	if e.CM == nil {
		return nil
	}
	return curv.CreateSonMap(e.CM, e.ID, son)
}
