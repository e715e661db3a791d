package mesh

import "testing"

// twoTriangles builds the unit square split into two triangles along the
// 0-2 diagonal, with the four rim edges marked "outer".
func twoTriangles(t *testing.T) *Mesh {
	t.Helper()
	m := NewMesh()
	err := m.Create(
		[][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
		[][3]int{{0, 1, 2}, {0, 2, 3}}, []string{"left", "right"},
		nil, nil,
		[][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}},
		[]string{"outer", "outer", "outer", "outer"},
	)
	if err != nil {
		t.Fatalf("two-triangle mesh: %v", err)
	}
	return m
}

// quadGrid builds an n x n quad grid over the unit square. All elements
// carry the "domain" marker except the center one, which gets "inner";
// the rim edges are marked "wall".
func quadGrid(t *testing.T, n int) *Mesh {
	t.Helper()
	h := 1.0 / float64(n)
	var verts [][2]float64
	for j := 0; j <= n; j++ {
		for i := 0; i <= n; i++ {
			verts = append(verts, [2]float64{float64(i) * h, float64(j) * h})
		}
	}
	var quads [][4]int
	var markers []string
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			v0 := j*(n+1) + i
			quads = append(quads, [4]int{v0, v0 + 1, v0 + n + 2, v0 + n + 1})
			if i == n/2 && j == n/2 {
				markers = append(markers, "inner")
			} else {
				markers = append(markers, "domain")
			}
		}
	}
	var bEdges [][2]int
	var bMarkers []string
	for i := 0; i < n; i++ {
		bEdges = append(bEdges,
			[2]int{i, i + 1},
			[2]int{n*(n+1) + i, n*(n+1) + i + 1},
			[2]int{i * (n + 1), (i + 1) * (n + 1)},
			[2]int{i*(n+1) + n, (i+1)*(n+1) + n})
		bMarkers = append(bMarkers, "wall", "wall", "wall", "wall")
	}
	m := NewMesh()
	if err := m.Create(verts, nil, nil, quads, markers, bEdges, bMarkers); err != nil {
		t.Fatalf("%dx%d quad grid: %v", n, n, err)
	}
	return m
}

// totalActiveArea sums the areas of all active elements.
func totalActiveArea(t *testing.T, m *Mesh) float64 {
	t.Helper()
	total := 0.0
	m.forAllActiveElements(func(e *Element) {
		a, err := m.ElementArea(e.ID)
		if err != nil {
			t.Fatalf("area of element %d: %v", e.ID, err)
		}
		total += a
	})
	return total
}
