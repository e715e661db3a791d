package mesh

import (
	"fmt"

	"github.com/notargets/hadapt/spatial"
)

// elementLocator is the point-location accelerator: an R-tree over the
// bounding boxes of the active elements, tagged with the mesh sequence
// number it was built for.
type elementLocator struct {
	seq   uint64
	index *spatial.Index
}

func (m *Mesh) buildLocator() error {
	loc := &elementLocator{seq: m.seq, index: spatial.NewIndex()}
	var err error
	m.forAllActiveElements(func(e *Element) {
		if err != nil {
			return
		}
		poly := m.boundaryPolygon(e)
		x0, y0 := poly[0][0], poly[0][1]
		x1, y1 := x0, y0
		for _, p := range poly[1:] {
			if p[0] < x0 {
				x0 = p[0]
			}
			if p[0] > x1 {
				x1 = p[0]
			}
			if p[1] < y0 {
				y0 = p[1]
			}
			if p[1] > y1 {
				y1 = p[1]
			}
		}
		err = loc.index.Insert(e.ID, x0, y0, x1, y1)
	})
	if err != nil {
		return err
	}
	m.locator = loc
	return nil
}

// pointInPolygon tests containment with a small boundary tolerance, so
// points on shared element edges match at least one of the elements.
func pointInPolygon(poly [][2]float64, x, y float64) bool {
	const eps = 1e-12
	inside := false
	n := len(poly)
	for i := 0; i < n; i++ {
		a, b := poly[i], poly[(i+1)%n]
		// on-edge check
		cross := (b[0]-a[0])*(y-a[1]) - (b[1]-a[1])*(x-a[0])
		if cross*cross < eps {
			if x >= minf(a[0], b[0])-eps && x <= maxf(a[0], b[0])+eps &&
				y >= minf(a[1], b[1])-eps && y <= maxf(a[1], b[1])+eps {
				return true
			}
		}
		if (a[1] > y) != (b[1] > y) {
			xi := a[0] + (y-a[1])/(b[1]-a[1])*(b[0]-a[0])
			if x < xi {
				inside = !inside
			}
		}
	}
	return inside
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// ElementOnPhysicalCoordinates returns the active element containing the
// physical point (x, y). The R-tree is rebuilt lazily whenever the mesh
// sequence number has moved since the last query.
func (m *Mesh) ElementOnPhysicalCoordinates(x, y float64) (*Element, error) {
	if m.locator == nil || m.locator.seq != m.seq {
		if err := m.buildLocator(); err != nil {
			return nil, err
		}
	}
	for _, id := range m.locator.index.SearchPoint(x, y) {
		e := m.elements.at(id)
		if e == nil || !e.Used || !e.Active {
			continue
		}
		if pointInPolygon(m.boundaryPolygon(e), x, y) {
			return e, nil
		}
	}
	return nil, fmt.Errorf("no active element contains point (%g, %g)", x, y)
}
