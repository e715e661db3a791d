package mesh

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/hadapt/curv"
)

// deepRefineCorner refines element 0 twice towards its upper-right
// corner, leaving depth-2 hanging nodes on the neighbors of element 0.
func deepRefineCorner(t *testing.T, m *Mesh) {
	t.Helper()
	require.NoError(t, m.RefineElementID(0, KindIso))
	e, _ := m.GetElement(0)
	// son 2 touches the two edges shared with the neighbors
	require.NoError(t, m.RefineElementID(e.Sons[2], KindIso))
}

// maxEdgeDegree returns the deepest hanging-node level over all edges of
// all active elements.
func maxEdgeDegree(m *Mesh) int {
	max := 0
	m.forAllActiveElements(func(e *Element) {
		for i := 0; i < e.NVert; i++ {
			if d := m.GetEdgeDegree(e.Vn[i], e.Vn[e.NextVert(i)]); d > max {
				max = d
			}
		}
	})
	return max
}

func TestGetEdgeDegree(t *testing.T) {
	m := quadGrid(t, 2)
	assert.Equal(t, 0, maxEdgeDegree(m))

	require.NoError(t, m.RefineElementID(0, KindIso))
	e, _ := m.GetElement(0)
	// the unsplit neighbor sees one hanging node on the shared edge
	assert.Equal(t, 1, m.GetEdgeDegree(e.Vn[1], e.Vn[2]))

	deep := quadGrid(t, 2)
	deepRefineCorner(t, deep)
	assert.Equal(t, 2, maxEdgeDegree(deep))
}

func TestRegularize_BoundsHangingDepth(t *testing.T) {
	m := quadGrid(t, 2)
	deepRefineCorner(t, m)
	require.Equal(t, 2, maxEdgeDegree(m))

	parents, err := m.Regularize(1)
	require.NoError(t, err)
	assert.LessOrEqual(t, maxEdgeDegree(m), 1)
	assert.InDelta(t, 1.0, totalActiveArea(t, m), 1e-12)

	// untouched elements map to themselves, new sons to a pre-pass element
	require.Len(t, parents, m.GetMaxElementID())
	m.forAllActiveElements(func(e *Element) {
		p := parents[e.ID]
		assert.GreaterOrEqual(t, p, 0)
		assert.Less(t, p, len(parents))
	})
}

func TestRegularize_AlreadyRegularIsANoop(t *testing.T) {
	m := quadGrid(t, 2)
	before := m.GetNumActiveElements()

	parents, err := m.Regularize(1)
	require.NoError(t, err)
	assert.Equal(t, before, m.GetNumActiveElements())
	for id := 0; id < before; id++ {
		assert.Equal(t, id, parents[id])
	}
}

func TestRegularize_FullyRegularFlattens(t *testing.T) {
	m := quadGrid(t, 2)
	deepRefineCorner(t, m)

	parents, err := m.Regularize(0)
	require.NoError(t, err)

	// no hanging nodes remain and the forest is gone
	assert.Equal(t, 0, maxEdgeDegree(m))
	assert.Equal(t, m.GetNumActiveElements(), m.GetNumBaseElements())
	assert.Equal(t, m.GetNumActiveElements(), m.GetMaxElementID())
	m.forAllActiveElements(func(e *Element) {
		assert.Equal(t, -1, e.Parent)
		assert.Equal(t, [4]int{-1, -1, -1, -1}, e.Sons)
	})
	assert.InDelta(t, 1.0, totalActiveArea(t, m), 1e-12)
	assert.Len(t, parents, m.GetNumActiveElements())
}

func TestRegularize_FullyRegularTriangles(t *testing.T) {
	m := twoTriangles(t)
	require.NoError(t, m.RefineElementID(0, KindIso))

	_, err := m.Regularize(0)
	require.NoError(t, err)
	assert.Equal(t, 0, maxEdgeDegree(m))
	assert.InDelta(t, 1.0, totalActiveArea(t, m), 1e-12)
}

func TestRegularize_CurvedMeshCannotBeMadeRegular(t *testing.T) {
	m := twoTriangles(t)
	e, _ := m.GetElement(0)
	e.CM = curv.NewMap()
	e.CM.Curves[0] = curv.NewArc(0, 0, 1, 0, 30)
	m.updateRefmapCoeffs(e)

	_, err := m.Regularize(0)
	require.Error(t, err)
	var ce *CurvedError
	assert.True(t, errors.As(err, &ce))
}

func TestRegularize_EdgeNodeBackrefsStayConsistent(t *testing.T) {
	m := quadGrid(t, 2)
	deepRefineCorner(t, m)
	_, err := m.Regularize(0)
	require.NoError(t, err)

	// after flattening, every edge-node back-reference points at a used,
	// active element
	m.forAllEdgeNodes(func(n *Node) {
		for k := 0; k < 2; k++ {
			if n.Elem[k] == -1 {
				continue
			}
			e, err := m.GetElement(n.Elem[k])
			require.NoError(t, err)
			assert.True(t, e.Used)
			assert.True(t, e.Active)
		}
	})
}
