package mesh

// NodeKind distinguishes the two node variants stored in the hash table.
type NodeKind uint8

const (
	VertexNode NodeKind = iota
	EdgeNode
)

func (k NodeKind) String() string {
	if k == VertexNode {
		return "vertex"
	}
	return "edge"
}

// topLevelRef keeps base-mesh vertex nodes alive regardless of how many
// elements reference them.
const topLevelRef = 1 << 30

// Node is either a vertex node (coordinates) or an edge node (boundary
// marker plus up to two weak back-references to incident active
// elements). Both kinds are keyed in the hash table by the unordered pair
// (P1, P2) of the vertex ids they were created from; top-level vertices
// carry the pair (-1, -1).
type Node struct {
	ID   int
	Kind NodeKind
	Used bool

	// reference count: the number of active elements using this node
	// (top-level vertices start at topLevelRef)
	Ref int

	// hash key pair, P1 <= P2
	P1, P2 int

	Bnd bool

	// vertex nodes
	X, Y float64

	// edge nodes
	Marker int
	Elem   [2]int // incident active elements, -1 when vacant
}

// IsVertex reports whether the node is a vertex node.
func (n *Node) IsVertex() bool { return n.Kind == VertexNode }

// IsEdge reports whether the node is an edge node.
func (n *Node) IsEdge() bool { return n.Kind == EdgeNode }
