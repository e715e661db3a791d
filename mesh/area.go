package mesh

import (
	"fmt"
	"math"
)

// curvedEdgeSamples is the number of points sampled per curved edge when
// polygonizing an element for area and containment computations.
const curvedEdgeSamples = 64

// refEdgePoint returns the reference coordinates of the point at
// parameter t in [0, 1] along edge i of an element with nvert vertices.
func refEdgePoint(nvert, i int, t float64) (xi, eta float64) {
	var corners [][2]float64
	if nvert == 3 {
		corners = [][2]float64{{-1, -1}, {1, -1}, {-1, 1}}
	} else {
		corners = [][2]float64{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	}
	a, b := corners[i], corners[(i+1)%nvert]
	return a[0] + t*(b[0]-a[0]), a[1] + t*(b[1]-a[1])
}

// boundaryPolygon samples the element outline in physical coordinates.
// Straight elements yield their corners; curved elements get
// curvedEdgeSamples points per edge so the polygon tracks the curve.
func (m *Mesh) boundaryPolygon(e *Element) [][2]float64 {
	if !e.IsCurved() {
		return m.elementVertexCoords(e)
	}
	var poly [][2]float64
	for i := 0; i < e.NVert; i++ {
		for k := 0; k < curvedEdgeSamples; k++ {
			t := float64(k) / float64(curvedEdgeSamples)
			xi, eta := refEdgePoint(e.NVert, i, t)
			x, y := m.refMapPoint(e, xi, eta)
			poly = append(poly, [2]float64{x, y})
		}
	}
	return poly
}

func polygonArea(poly [][2]float64) float64 {
	s := 0.0
	for i := range poly {
		j := (i + 1) % len(poly)
		s += poly[i][0]*poly[j][1] - poly[j][0]*poly[i][1]
	}
	return 0.5 * s
}

// ElementArea returns the area of the element with the given id. Curved
// elements are polygonized along their curves, so the result converges
// to the true curved area.
func (m *Mesh) ElementArea(id int) (float64, error) {
	e, err := m.GetElement(id)
	if err != nil {
		return 0, err
	}
	if !e.Used {
		return 0, fmt.Errorf("invalid element id number %d", id)
	}
	return math.Abs(polygonArea(m.boundaryPolygon(e))), nil
}

// markerArea caches the summed active-element area of one material
// marker for a particular mesh sequence number.
type markerArea struct {
	seq  uint64
	area float64
}

// GetMarkerArea returns the total area of the active elements in the
// area with the given marker name. Results are memoized per marker and
// invalidated whenever the mesh sequence number moves.
func (m *Mesh) GetMarkerArea(name string) (float64, error) {
	mrk, ok := m.ElementMarkers.Get(name)
	if !ok {
		return 0, fmt.Errorf("element marker %q not found", name)
	}
	if m.markerAreas == nil {
		m.markerAreas = make(map[int]*markerArea)
	}
	if c, ok := m.markerAreas[mrk]; ok && c.seq == m.seq {
		return c.area, nil
	}
	area := 0.0
	m.forAllActiveElements(func(e *Element) {
		if e.Marker == mrk {
			area += math.Abs(polygonArea(m.boundaryPolygon(e)))
		}
	})
	m.markerAreas[mrk] = &markerArea{seq: m.seq, area: area}
	return area, nil
}
