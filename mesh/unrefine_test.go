package mesh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnrefine_RestoresTheMesh(t *testing.T) {
	m := twoTriangles(t)
	wall, _ := m.BoundaryMarkers.Get("outer")

	require.NoError(t, m.RefineElementID(0, KindIso))
	require.NoError(t, m.UnrefineElementID(0))

	assert.Equal(t, 2, m.GetNumActiveElements())
	assert.Equal(t, 2, m.GetNumElements())
	assert.Equal(t, 4, m.GetNumVertexNodes())
	assert.Equal(t, 5, m.GetNumEdgeNodes())

	e, _ := m.GetElement(0)
	assert.True(t, e.Active)
	assert.Equal(t, [4]int{-1, -1, -1, -1}, e.Sons)

	// boundary data recovered from the sons before they vanished
	en := m.Node(e.En[0])
	assert.True(t, en.Bnd)
	assert.Equal(t, wall, en.Marker)

	// the split mid vertex is gone
	assert.Nil(t, m.PeekVertexNode(0, 1))
}

func TestUnrefine_RecursesIntoSubtrees(t *testing.T) {
	m := twoTriangles(t)
	require.NoError(t, m.RefineElementID(0, KindIso))
	e, _ := m.GetElement(0)
	require.NoError(t, m.RefineElementID(e.Sons[0], KindIso))
	require.Equal(t, 8, m.GetNumActiveElements())

	require.NoError(t, m.UnrefineElementID(0))
	assert.Equal(t, 2, m.GetNumActiveElements())
	assert.Equal(t, 2, m.GetNumElements())
	assert.True(t, e.Active)
}

func TestUnrefine_ActiveElementIsANoop(t *testing.T) {
	m := twoTriangles(t)
	require.NoError(t, m.UnrefineElementID(0))
	assert.Equal(t, 2, m.GetNumActiveElements())
	assert.Empty(t, m.Refinements())
}

func TestUnrefine_AnisotropicQuad(t *testing.T) {
	m := quadGrid(t, 2)
	require.NoError(t, m.RefineElementID(0, KindVertical))
	require.NoError(t, m.UnrefineElementID(0))

	assert.Equal(t, 4, m.GetNumActiveElements())
	assert.Equal(t, 4, m.GetNumElements())
	assert.InDelta(t, 1.0, totalActiveArea(t, m), 1e-12)

	// the wall markers on the split edges came back
	wall, _ := m.BoundaryMarkers.Get("wall")
	e, _ := m.GetElement(0)
	assert.Equal(t, wall, m.Node(e.En[0]).Marker)
	assert.Equal(t, wall, m.Node(e.En[3]).Marker)
}

func TestUnrefineAllElements_OneGenerationPerCall(t *testing.T) {
	m := quadGrid(t, 2)
	require.NoError(t, m.RefineAllElements(KindIso, false))
	require.NoError(t, m.RefineAllElements(KindIso, false))
	require.Equal(t, 64, m.GetNumActiveElements())

	require.NoError(t, m.UnrefineAllElements(false))
	assert.Equal(t, 16, m.GetNumActiveElements())

	require.NoError(t, m.UnrefineAllElements(false))
	assert.Equal(t, 4, m.GetNumActiveElements())
}

func TestUnrefineAllElements_KeepInitial(t *testing.T) {
	m := quadGrid(t, 2)
	require.NoError(t, m.RefineAllElements(KindIso, true))
	require.NoError(t, m.RefineAllElements(KindIso, false))
	require.Equal(t, 64, m.GetNumActiveElements())

	// converges to the marked initial mesh, not the base mesh
	for i := 0; i < 4; i++ {
		require.NoError(t, m.UnrefineAllElements(true))
	}
	assert.Equal(t, 16, m.GetNumActiveElements())
}
