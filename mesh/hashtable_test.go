package mesh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTable(t *testing.T) *HashTable {
	t.Helper()
	h := &HashTable{}
	h.initTable()
	// two base vertices spanning a horizontal segment
	a := h.addNode()
	a.Kind = VertexNode
	a.Ref = topLevelRef
	a.X, a.Y = 0, 0
	b := h.addNode()
	b.Kind = VertexNode
	b.Ref = topLevelRef
	b.X, b.Y = 2, 0
	return h
}

func TestHashTable_VertexNodeIsConsed(t *testing.T) {
	h := newTestTable(t)

	mid := h.GetVertexNode(0, 1)
	require.NotNil(t, mid)
	assert.Equal(t, VertexNode, mid.Kind)
	assert.InDelta(t, 1.0, mid.X, 1e-15)
	assert.InDelta(t, 0.0, mid.Y, 1e-15)

	// the key is symmetric: either vertex order yields the same node
	again := h.GetVertexNode(1, 0)
	assert.Same(t, mid, again)
	assert.Equal(t, 3, h.MaxNodeID())
}

func TestHashTable_PeekNeverAllocates(t *testing.T) {
	h := newTestTable(t)

	assert.Nil(t, h.PeekVertexNode(0, 1))
	assert.Nil(t, h.PeekEdgeNode(0, 1))
	assert.Equal(t, 2, h.MaxNodeID())

	en := h.GetEdgeNode(0, 1)
	assert.Same(t, en, h.PeekEdgeNode(1, 0))
}

func TestHashTable_EdgeNodeBackrefs(t *testing.T) {
	h := newTestTable(t)
	en := h.GetEdgeNode(0, 1)

	h.refElement(en.ID, 10)
	h.refElement(en.ID, 11)
	assert.Equal(t, [2]int{10, 11}, en.Elem)
	assert.Equal(t, 2, en.Ref)

	h.unrefElement(en.ID, 10)
	assert.Equal(t, [2]int{-1, 11}, en.Elem)
	assert.True(t, en.Used)

	// dropping the last reference removes the node
	h.unrefElement(en.ID, 11)
	assert.False(t, en.Used)
	assert.Nil(t, h.PeekEdgeNode(0, 1))
}

func TestHashTable_FreedSlotIsReused(t *testing.T) {
	h := newTestTable(t)

	en := h.GetEdgeNode(0, 1)
	id := en.ID
	h.refElement(en.ID, 5)
	h.unrefElement(en.ID, 5)
	require.False(t, en.Used)

	vn := h.GetVertexNode(0, 1)
	assert.Equal(t, id, vn.ID, "the freed slot comes back first")
	assert.True(t, vn.Used)
}

func TestHashTable_TopLevelVerticesSurviveUnref(t *testing.T) {
	h := newTestTable(t)

	h.refElement(0, 3)
	h.unrefElement(0, 3)
	assert.True(t, h.Node(0).Used, "topLevelRef keeps base vertices alive")
}

func TestHashTable_CopyTableIsDeep(t *testing.T) {
	h := newTestTable(t)
	h.GetVertexNode(0, 1)

	var c HashTable
	c.copyTable(h)
	c.Node(0).X = 42

	assert.Equal(t, 0.0, h.Node(0).X)
	assert.NotNil(t, c.PeekVertexNode(0, 1))
}
