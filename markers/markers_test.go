package markers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_InsertAssignsDenseIntegers(t *testing.T) {
	tbl := NewTable()

	outer := tbl.Insert("outer")
	inner := tbl.Insert("inner")
	assert.Equal(t, 1, outer, "first marker gets 1, 0 stays the unset value")
	assert.Equal(t, 2, inner)

	// re-inserting is idempotent
	assert.Equal(t, outer, tbl.Insert("outer"))
	assert.Equal(t, 2, tbl.Size())
}

func TestTable_GetAndName(t *testing.T) {
	tbl := NewTable()
	id := tbl.Insert("wall")

	got, ok := tbl.Get("wall")
	require.True(t, ok)
	assert.Equal(t, id, got)

	name, ok := tbl.Name(id)
	require.True(t, ok)
	assert.Equal(t, "wall", name)

	_, ok = tbl.Get("missing")
	assert.False(t, ok)
	_, ok = tbl.Name(99)
	assert.False(t, ok)
}

func TestTable_DGInnerEdgeIsReserved(t *testing.T) {
	tbl := NewTable()

	id := tbl.Insert(DGInnerEdge)
	assert.Equal(t, DGInnerEdgeInt, id)
	assert.Equal(t, 0, tbl.Size(), "reserved marker is not stored")

	got, ok := tbl.Get(DGInnerEdge)
	require.True(t, ok)
	assert.Equal(t, DGInnerEdgeInt, got)

	name, ok := tbl.Name(DGInnerEdgeInt)
	require.True(t, ok)
	assert.Equal(t, DGInnerEdge, name)
}

func TestTable_NamesFollowFirstUseOrder(t *testing.T) {
	tbl := NewTable()
	tbl.Insert("c")
	tbl.Insert("a")
	tbl.Insert("b")
	assert.Equal(t, []string{"c", "a", "b"}, tbl.Names())
}

func TestTable_CloneIsIndependent(t *testing.T) {
	tbl := NewTable()
	tbl.Insert("outer")

	c := tbl.Clone()
	c.Insert("inner")

	assert.Equal(t, 1, tbl.Size())
	assert.Equal(t, 2, c.Size())

	// ids keep matching for shared names
	a, _ := tbl.Get("outer")
	b, _ := c.Get("outer")
	assert.Equal(t, a, b)
}
