package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex_SearchPoint(t *testing.T) {
	ix := NewIndex()
	require.NoError(t, ix.Insert(1, 0, 0, 1, 1))
	require.NoError(t, ix.Insert(2, 1, 0, 2, 1))
	require.NoError(t, ix.Insert(3, 0, 1, 1, 2))
	assert.Equal(t, 3, ix.Size())

	ids := ix.SearchPoint(0.5, 0.5)
	assert.Equal(t, []int{1}, ids)

	// a point on the shared boundary hits both boxes
	ids = ix.SearchPoint(1, 0.5)
	assert.ElementsMatch(t, []int{1, 2}, ids)

	assert.Empty(t, ix.SearchPoint(5, 5))
}

func TestIndex_InsertRejectsInvertedBox(t *testing.T) {
	ix := NewIndex()
	assert.Error(t, ix.Insert(1, 1, 0, 0, 1))
	assert.Equal(t, 0, ix.Size())
}

func TestIndex_DegenerateBox(t *testing.T) {
	// point-like boxes are allowed; rtreego expands them internally
	ix := NewIndex()
	require.NoError(t, ix.Insert(7, 0.5, 0.5, 0.5, 0.5))
	assert.Equal(t, []int{7}, ix.SearchPoint(0.5, 0.5))
}
