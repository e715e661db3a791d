package mesh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefineTriangle_Iso(t *testing.T) {
	m := twoTriangles(t)
	require.NoError(t, m.RefineElementID(0, KindIso))

	assert.Equal(t, 5, m.GetNumActiveElements())
	assert.Equal(t, 6, m.GetNumElements())

	e, _ := m.GetElement(0)
	assert.False(t, e.Active)
	assert.Equal(t, 4, e.SonCount())
	for _, sid := range e.Sons {
		son, err := m.GetElement(sid)
		require.NoError(t, err)
		assert.True(t, son.Active)
		assert.Equal(t, 0, son.Parent)
		assert.Equal(t, e.Marker, son.Marker)
	}
}

func TestRefineTriangles_SharedEdgeNodeIsConsed(t *testing.T) {
	m := twoTriangles(t)

	require.NoError(t, m.RefineElementID(0, KindIso))
	mid := m.PeekVertexNode(0, 2)
	require.NotNil(t, mid, "splitting the diagonal creates its mid vertex")
	assert.InDelta(t, 0.5, mid.X, 1e-15)
	assert.InDelta(t, 0.5, mid.Y, 1e-15)

	require.NoError(t, m.RefineElementID(1, KindIso))
	assert.Same(t, mid, m.PeekVertexNode(0, 2), "the neighbor reuses the node")

	// 4 corners + one midpoint per distinct edge
	assert.Equal(t, 9, m.GetNumVertexNodes())
	assert.Equal(t, 8, m.GetNumActiveElements())
}

func TestRefineQuad_Iso(t *testing.T) {
	m := quadGrid(t, 2)
	require.NoError(t, m.RefineElementID(0, KindIso))

	assert.Equal(t, 7, m.GetNumActiveElements())

	// the quad center vertex appears at the element midpoint
	e, _ := m.GetElement(0)
	x0 := m.PeekVertexNode(e.Vn[0], e.Vn[1])
	x2 := m.PeekVertexNode(e.Vn[2], e.Vn[3])
	require.NotNil(t, x0)
	require.NotNil(t, x2)
	mid := m.PeekVertexNode(x0.ID, x2.ID)
	require.NotNil(t, mid)
	assert.InDelta(t, 0.25, mid.X, 1e-15)
	assert.InDelta(t, 0.25, mid.Y, 1e-15)
}

func TestRefineQuad_Anisotropic(t *testing.T) {
	m := quadGrid(t, 2)

	require.NoError(t, m.RefineElementID(0, KindHorizontal))
	e, _ := m.GetElement(0)
	assert.Equal(t, [4]int{e.Sons[0], e.Sons[1], -1, -1}, e.Sons)
	assert.NotEqual(t, -1, e.Sons[0])
	assert.Equal(t, 5, m.GetNumActiveElements())

	require.NoError(t, m.RefineElementID(1, KindVertical))
	e1, _ := m.GetElement(1)
	assert.Equal(t, -1, e1.Sons[0])
	assert.Equal(t, -1, e1.Sons[1])
	assert.NotEqual(t, -1, e1.Sons[2])
	assert.NotEqual(t, -1, e1.Sons[3])
	assert.Equal(t, 6, m.GetNumActiveElements())
}

func TestRefine_BoundaryDataSurvivesSplit(t *testing.T) {
	m := quadGrid(t, 2)
	wall, _ := m.BoundaryMarkers.Get("wall")

	// element 0 sits in the bottom-left corner; edge 0 lies on the wall
	require.NoError(t, m.RefineElementID(0, KindIso))
	e, _ := m.GetElement(0)
	for _, slot := range []int{0, 1} {
		son, _ := m.GetElement(e.Sons[slot])
		en := m.Node(son.En[0])
		assert.True(t, en.Bnd)
		assert.Equal(t, wall, en.Marker)
	}

	// the interior edges of the sons stay unmarked
	son0, _ := m.GetElement(e.Sons[0])
	assert.False(t, m.Node(son0.En[1]).Bnd)
}

func TestRefine_AreaIsConserved(t *testing.T) {
	m := quadGrid(t, 3)
	require.NoError(t, m.RefineElementID(0, KindIso))
	require.NoError(t, m.RefineElementID(1, KindHorizontal))
	require.NoError(t, m.RefineElementID(2, KindVertical))

	assert.InDelta(t, 1.0, totalActiveArea(t, m), 1e-12)

	tm := twoTriangles(t)
	require.NoError(t, tm.RefineElementID(0, KindIso))
	require.NoError(t, tm.RefineElementToQuadsID(1))
	assert.InDelta(t, 1.0, totalActiveArea(t, tm), 1e-12)
}

func TestRefineElementID_Errors(t *testing.T) {
	m := twoTriangles(t)

	assert.Error(t, m.RefineElementID(99, KindIso))

	require.NoError(t, m.RefineElementID(0, KindIso))
	err := m.RefineElementID(0, KindIso)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refined already")
}

func TestRefineElementID_UnrefineKindIsNoop(t *testing.T) {
	m := quadGrid(t, 2)
	require.NoError(t, m.RefineElementID(0, KindUnrefine))
	assert.Equal(t, 4, m.GetNumActiveElements())
	assert.Empty(t, m.Refinements())

	tm := twoTriangles(t)
	require.NoError(t, tm.RefineElementID(0, KindUnrefine))
	assert.Equal(t, 2, tm.GetNumActiveElements())
}

func TestRefineAllElements(t *testing.T) {
	m := quadGrid(t, 2)
	require.NoError(t, m.RefineAllElements(KindIso, false))
	assert.Equal(t, 16, m.GetNumActiveElements())
	assert.InDelta(t, 1.0, totalActiveArea(t, m), 1e-12)
}

func TestRefineAllElements_TrianglesFallBackToIso(t *testing.T) {
	m := twoTriangles(t)
	require.NoError(t, m.RefineAllElements(KindHorizontal, false))
	assert.Equal(t, 8, m.GetNumActiveElements())
}

func TestRefineTowardsVertex(t *testing.T) {
	m := twoTriangles(t)
	require.NoError(t, m.RefineTowardsVertex(0, 2, false))

	// pass 1 refines both triangles, pass 2 only the corner sons at v0
	assert.Equal(t, 14, m.GetNumActiveElements())
	assert.InDelta(t, 1.0, totalActiveArea(t, m), 1e-12)
}

func TestRefineTowardsBoundary_Aniso(t *testing.T) {
	m := quadGrid(t, 3)
	require.NoError(t, m.RefineTowardsBoundary("wall", 1, true, false))

	// corners split four ways, edge-midside elements two ways, the center
	// element is untouched
	assert.Equal(t, 25, m.GetNumActiveElements())
	center, err := m.GetElement(4)
	require.NoError(t, err)
	assert.True(t, center.Active)
}

func TestRefineTowardsBoundary_AnisoStrip(t *testing.T) {
	// a one-element strip with the marker on both opposite edges is
	// halved towards them, not quartered
	m := NewMesh()
	require.NoError(t, m.Create(
		[][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
		nil, nil,
		[][4]int{{0, 1, 2, 3}}, []string{"strip"},
		[][2]int{{0, 1}, {2, 3}, {1, 2}, {3, 0}},
		[]string{"wall", "wall", "side", "side"},
	))
	require.NoError(t, m.RefineTowardsBoundary("wall", 1, true, false))

	assert.Equal(t, 2, m.GetNumActiveElements())
	e, err := m.GetElement(0)
	require.NoError(t, err)
	assert.NotEqual(t, -1, e.Sons[0])
	assert.Equal(t, -1, e.Sons[2])
}

func TestRefineTowardsBoundary_UnknownMarker(t *testing.T) {
	m := quadGrid(t, 2)
	assert.Error(t, m.RefineTowardsBoundary("nope", 1, false, false))
}

func TestRefineTowardsBoundary_MarkerAbsentFromMesh(t *testing.T) {
	m := quadGrid(t, 2)
	m.BoundaryMarkers.Insert("ghost")
	err := m.RefineTowardsBoundary("ghost", 1, false, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.Equal(t, 4, m.GetNumActiveElements())
}

func TestRefineInArea(t *testing.T) {
	m := quadGrid(t, 3)
	require.NoError(t, m.RefineInArea("inner", 1, KindIso, false))
	assert.Equal(t, 12, m.GetNumActiveElements())

	inner, err := m.GetMarkerArea("inner")
	require.NoError(t, err)
	assert.InDelta(t, 1.0/9.0, inner, 1e-12)
}

func TestRefinements_LogRecordsOperations(t *testing.T) {
	m := twoTriangles(t)
	require.NoError(t, m.RefineElementID(0, KindIso))
	require.NoError(t, m.UnrefineElementID(0))

	log := m.Refinements()
	require.Len(t, log, 2)
	assert.Equal(t, Refinement{ElementID: 0, Kind: KindIso}, log[0])
	assert.Equal(t, Refinement{ElementID: 0, Kind: KindUnrefine}, log[1])
}
