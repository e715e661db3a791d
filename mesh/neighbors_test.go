package mesh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActiveEdgeNeighbors_SameLevel(t *testing.T) {
	m := quadGrid(t, 2)
	e, _ := m.GetElement(0)

	// edge 1 of the bottom-left element faces the bottom-right one
	nbs := m.activeEdgeNeighbors(e, 1)
	require.Len(t, nbs, 1)
	assert.Equal(t, 1, nbs[0].elem.ID)

	// boundary edges have no neighbors
	assert.Nil(t, m.activeEdgeNeighbors(e, 0))
}

func TestActiveEdgeNeighbors_AcrossLevels(t *testing.T) {
	m := quadGrid(t, 2)
	require.NoError(t, m.RefineElementID(0, KindIso))
	e1, _ := m.GetElement(1)

	// the coarse neighbor sees the two sons on the split edge
	nbs := m.activeEdgeNeighbors(e1, 3)
	require.Len(t, nbs, 2)
	for _, nb := range nbs {
		assert.Equal(t, 0, nb.elem.Parent)
		assert.True(t, nb.elem.Active)
	}

	// and each son finds the coarse neighbor by walking up
	for _, nb := range nbs {
		edge := localEdgeIndex(nb.elem, nb.edgeNode.ID)
		require.NotEqual(t, -1, edge)
		up := m.activeEdgeNeighbors(nb.elem, edge)
		require.Len(t, up, 1)
		assert.Equal(t, 1, up[0].elem.ID)
	}
}

func TestEdgeContains(t *testing.T) {
	m := quadGrid(t, 2)
	require.NoError(t, m.RefineElementID(0, KindIso))
	e, _ := m.GetElement(0)

	v1, v2 := e.Vn[1], e.Vn[2]
	mid := m.PeekVertexNode(v1, v2)
	require.NotNil(t, mid)

	assert.True(t, m.edgeContains(v1, v2, v1, v2))
	assert.True(t, m.edgeContains(v1, v2, v1, mid.ID))
	assert.True(t, m.edgeContains(v1, v2, mid.ID, v2))
	assert.False(t, m.edgeContains(v1, v2, e.Vn[0], e.Vn[1]))
}
