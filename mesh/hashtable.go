package mesh

// pairKey is the symmetric hash key of a node: the unordered pair of the
// two vertex ids the node sits between.
type pairKey struct {
	p1, p2 int
}

func makeKey(a, b int) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{a, b}
}

// HashTable is the deduplicating store of vertex and edge nodes. Nodes
// live in a stable slot array; freed slots are reused. Mid-edge vertex
// nodes and edge nodes are additionally indexed by their symmetric vertex
// pair, which is what makes shared nodes between neighboring elements
// unique (hash-consing): two elements splitting the same edge obtain the
// identical node.
type HashTable struct {
	nodes []*Node
	free  []int

	vmap map[pairKey]int
	emap map[pairKey]int
}

func (h *HashTable) initTable() {
	h.nodes = nil
	h.free = nil
	h.vmap = make(map[pairKey]int)
	h.emap = make(map[pairKey]int)
}

// addNode allocates a node slot, reusing a freed one when available.
func (h *HashTable) addNode() *Node {
	if n := len(h.free); n > 0 {
		id := h.free[n-1]
		h.free = h.free[:n-1]
		node := &Node{ID: id, Used: true, P1: -1, P2: -1, Elem: [2]int{-1, -1}}
		h.nodes[id] = node
		return node
	}
	node := &Node{ID: len(h.nodes), Used: true, P1: -1, P2: -1, Elem: [2]int{-1, -1}}
	h.nodes = append(h.nodes, node)
	return node
}

// Node returns the node with the given id. The id must be valid.
func (h *HashTable) Node(id int) *Node { return h.nodes[id] }

// MaxNodeID returns the maximum node id plus one.
func (h *HashTable) MaxNodeID() int { return len(h.nodes) }

// GetVertexNode returns the vertex node between vertices p1 and p2,
// creating it at the edge midpoint if it does not exist yet.
func (h *HashTable) GetVertexNode(p1, p2 int) *Node {
	key := makeKey(p1, p2)
	if id, ok := h.vmap[key]; ok {
		return h.nodes[id]
	}
	v1, v2 := h.nodes[key.p1], h.nodes[key.p2]
	node := h.addNode()
	node.Kind = VertexNode
	node.P1, node.P2 = key.p1, key.p2
	node.X = (v1.X + v2.X) * 0.5
	node.Y = (v1.Y + v2.Y) * 0.5
	h.vmap[key] = node.ID
	return node
}

// GetEdgeNode returns the edge node between vertices p1 and p2, creating
// it if it does not exist yet.
func (h *HashTable) GetEdgeNode(p1, p2 int) *Node {
	key := makeKey(p1, p2)
	if id, ok := h.emap[key]; ok {
		return h.nodes[id]
	}
	node := h.addNode()
	node.Kind = EdgeNode
	node.P1, node.P2 = key.p1, key.p2
	h.emap[key] = node.ID
	return node
}

// PeekVertexNode returns the vertex node between p1 and p2, or nil. It
// never allocates; a hanging node exists on an edge exactly when this
// returns non-nil.
func (h *HashTable) PeekVertexNode(p1, p2 int) *Node {
	if id, ok := h.vmap[makeKey(p1, p2)]; ok {
		return h.nodes[id]
	}
	return nil
}

// PeekEdgeNode returns the edge node between p1 and p2, or nil.
func (h *HashTable) PeekEdgeNode(p1, p2 int) *Node {
	if id, ok := h.emap[makeKey(p1, p2)]; ok {
		return h.nodes[id]
	}
	return nil
}

func (h *HashTable) removeVertexNode(id int) {
	node := h.nodes[id]
	delete(h.vmap, pairKey{node.P1, node.P2})
	node.Used = false
	h.free = append(h.free, id)
}

func (h *HashTable) removeEdgeNode(id int) {
	node := h.nodes[id]
	delete(h.emap, pairKey{node.P1, node.P2})
	node.Used = false
	h.free = append(h.free, id)
}

// refElement registers element eid with the node: bumps the reference
// count and, for edge nodes, stores the element in a vacant back-reference
// slot.
func (h *HashTable) refElement(nid, eid int) {
	node := h.nodes[nid]
	if node.Kind == EdgeNode {
		if node.Elem[0] == -1 {
			node.Elem[0] = eid
		} else if node.Elem[1] == -1 {
			node.Elem[1] = eid
		}
	}
	node.Ref++
}

// unrefElement drops element eid from the node. A node whose reference
// count reaches zero is removed from the table and its slot freed.
func (h *HashTable) unrefElement(nid, eid int) {
	node := h.nodes[nid]
	if node.Kind == EdgeNode {
		if node.Elem[0] == eid {
			node.Elem[0] = -1
		} else if node.Elem[1] == eid {
			node.Elem[1] = -1
		}
	}
	node.Ref--
	if node.Ref > 0 {
		return
	}
	if node.Kind == VertexNode {
		h.removeVertexNode(nid)
	} else {
		h.removeEdgeNode(nid)
	}
}

// copyTable deep-copies the node storage and both pair indices from src.
func (h *HashTable) copyTable(src *HashTable) {
	h.nodes = make([]*Node, len(src.nodes))
	for i, n := range src.nodes {
		if n != nil {
			c := *n
			h.nodes[i] = &c
		}
	}
	h.free = append([]int(nil), src.free...)
	h.vmap = make(map[pairKey]int, len(src.vmap))
	for k, v := range src.vmap {
		h.vmap[k] = v
	}
	h.emap = make(map[pairKey]int, len(src.emap))
	for k, v := range src.emap {
		h.emap[k] = v
	}
}

// forAllVertexNodes calls f for every used vertex node.
func (h *HashTable) forAllVertexNodes(f func(*Node)) {
	for _, n := range h.nodes {
		if n != nil && n.Used && n.Kind == VertexNode {
			f(n)
		}
	}
}

// forAllEdgeNodes calls f for every used edge node.
func (h *HashTable) forAllEdgeNodes(f func(*Node)) {
	for _, n := range h.nodes {
		if n != nil && n.Used && n.Kind == EdgeNode {
			f(n)
		}
	}
}
