package curv

import (
	"gonum.org/v1/gonum/mat"
)

// MaxEdges is the maximum number of edges of a 2D element.
const MaxEdges = 4

// partOverflowMask guards the 4-bits-per-level part encoding: once the top
// bits are occupied the refinement is so deep that the geometry is
// effectively straight and son maps stop being created.
const partOverflowMask uint64 = 0xf000000000000000

// Map describes the curved geometry of one element. A toplevel map carries
// the edge curves directly; a derived map references the element that owns
// the toplevel map plus the sub-element path leading to it. Maps are owned
// by their element and freed with it.
type Map struct {
	Toplevel bool
	Order    int

	// toplevel maps only: per-edge curves, nil entries are straight edges
	Curves [MaxEdges]*Curve

	// derived maps only: element id owning the toplevel map, and the
	// sub-element path (son+1 per level, 4 bits each so the anisotropic
	// quad sons 4..7 fit, deepest level in the low bits)
	Parent int
	Part   uint64

	// geometric control points of the reference map, rows are nodes,
	// columns are x and y; filled in by the owning mesh after refinement
	Coeffs *mat.Dense
}

// NewMap returns an empty toplevel map.
func NewMap() *Map {
	return &Map{Toplevel: true, Parent: -1}
}

// HasCurves reports whether any edge of a toplevel map is curved.
func (m *Map) HasCurves() bool {
	for _, c := range m.Curves {
		if c != nil {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the map. The caller is responsible for
// remapping Parent when copying between meshes.
func (m *Map) Clone() *Map {
	nm := &Map{
		Toplevel: m.Toplevel,
		Order:    m.Order,
		Parent:   m.Parent,
		Part:     m.Part,
	}
	for i, c := range m.Curves {
		if c != nil {
			nm.Curves[i] = c.Clone()
		}
	}
	if m.Coeffs != nil {
		nm.Coeffs = mat.DenseCopyOf(m.Coeffs)
	}
	return nm
}

// CreateSonMap derives the curvature map of son number `son` of the
// element `parentID` carrying map m. Sons of quads use indices 0..3 for
// the isotropic split, 4..5 for the horizontal and 6..7 for the vertical
// split, matching the sub-element transform table. Returns nil when the
// part path would overflow; the son then continues with straight edges.
func CreateSonMap(m *Map, parentID int, son int) *Map {
	if m.Part&partOverflowMask != 0 {
		return nil
	}
	nm := &Map{Toplevel: false, Order: 4}
	if m.Toplevel {
		nm.Parent = parentID
		nm.Part = uint64(son + 1)
	} else {
		nm.Parent = m.Parent
		nm.Part = (m.Part << 4) + uint64(son+1)
	}
	return nm
}

// Trf is an affine sub-element transform in reference coordinates:
// (x, y) -> (MX*x + TX, MY*y + TY).
type Trf struct {
	MX, MY float64
	TX, TY float64
}

// TriTrf maps the reference domain of triangle son i into the parent
// triangle's reference domain. Son 3 is the inverted central triangle.
var TriTrf = [4]Trf{
	{0.5, 0.5, -0.5, -0.5},
	{0.5, 0.5, 0.5, -0.5},
	{0.5, 0.5, -0.5, 0.5},
	{-0.5, -0.5, -0.5, -0.5},
}

// QuadTrf maps the reference domain of quad son i into the parent quad's
// reference domain: 0..3 are the isotropic quarters, 4..5 the horizontal
// halves, 6..7 the vertical halves.
var QuadTrf = [8]Trf{
	{0.5, 0.5, -0.5, -0.5},
	{0.5, 0.5, 0.5, -0.5},
	{0.5, 0.5, 0.5, 0.5},
	{0.5, 0.5, -0.5, 0.5},
	{1.0, 0.5, 0.0, -0.5},
	{1.0, 0.5, 0.0, 0.5},
	{0.5, 1.0, -0.5, 0.0},
	{0.5, 1.0, 0.5, 0.0},
}

// ToTop maps reference coordinates in the derived domain identified by
// part into the toplevel element's reference domain. The part digits are
// applied deepest level first.
func ToTop(triangle bool, part uint64, x, y float64) (float64, float64) {
	for part != 0 {
		son := int(part&0xf) - 1
		var t Trf
		if triangle {
			t = TriTrf[son]
		} else {
			t = QuadTrf[son]
		}
		x = t.MX*x + t.TX
		y = t.MY*y + t.TY
		part >>= 4
	}
	return x, y
}

// Point evaluates a toplevel map at reference coordinates (xi, eta) given
// the physical corner coordinates of the owning element. Triangles use
// reference vertices (-1,-1), (1,-1), (-1,1); quads the square [-1,1]^2.
// Straight edges contribute their linear interpolant; curved edges are
// sampled exactly, so points on a curved edge lie on the curve.
func (m *Map) Point(verts [][2]float64, xi, eta float64) (x, y float64) {
	if len(verts) == 3 {
		return m.triPoint(verts, xi, eta)
	}
	return m.quadPoint(verts, xi, eta)
}

func (m *Map) triPoint(v [][2]float64, xi, eta float64) (x, y float64) {
	// barycentric coordinates of the reference triangle
	l := [3]float64{-(xi + eta) / 2, (1 + xi) / 2, (1 + eta) / 2}
	for i := 0; i < 3; i++ {
		x += l[i] * v[i][0]
		y += l[i] * v[i][1]
	}
	for i := 0; i < 3; i++ {
		c := m.Curves[i]
		if c == nil {
			continue
		}
		a, b := l[i], l[(i+1)%3]
		s := a + b
		if s < 1e-14 {
			continue
		}
		t := b / s
		cx, cy := c.Point(t)
		sx := (1-t)*v[i][0] + t*v[(i+1)%3][0]
		sy := (1-t)*v[i][1] + t*v[(i+1)%3][1]
		x += s * (cx - sx)
		y += s * (cy - sy)
	}
	return x, y
}

func (m *Map) quadPoint(v [][2]float64, xi, eta float64) (x, y float64) {
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
	// per-edge parameter along the edge and blending weight towards it
	t := [4]float64{(1 + xi) / 2, (1 + eta) / 2, (1 - xi) / 2, (1 - eta) / 2}
	w := [4]float64{(1 - eta) / 2, (1 + xi) / 2, (1 + eta) / 2, (1 - xi) / 2}
	for i := 0; i < 4; i++ {
		c := m.Curves[i]
		if c == nil {
			continue
		}
		cx, cy := c.Point(t[i])
		j := (i + 1) % 4
		sx := (1-t[i])*v[i][0] + t[i]*v[j][0]
		sy := (1-t[i])*v[i][1] + t[i]*v[j][1]
		x += w[i] * (cx - sx)
		y += w[i] * (cy - sy)
	}
	return x, y
}
