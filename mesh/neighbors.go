package mesh

// edgeNeighbor is one active element adjacent to an edge of another
// active element, together with the neighbor-side edge node of the
// shared segment. For same-level neighbors that node is the shared edge
// node itself; across refinement levels the two sides carry different
// nodes.
type edgeNeighbor struct {
	elem     *Element
	edgeNode *Node
}

// edgeContains reports whether the segment (v1, v2) equals the edge
// (w1, w2) or one of the sub-edges it has been split into.
func (m *Mesh) edgeContains(w1, w2, v1, v2 int) bool {
	if (w1 == v1 && w2 == v2) || (w1 == v2 && w2 == v1) {
		return true
	}
	mid := m.PeekVertexNode(w1, w2)
	if mid == nil {
		return false
	}
	return m.edgeContains(w1, mid.ID, v1, v2) || m.edgeContains(mid.ID, w2, v1, v2)
}

// collectFinerNeighbors descends the splits of the segment (v1, v2) and
// collects the active elements registered on its leaf sub-edges, skipping
// the element the search started from.
func (m *Mesh) collectFinerNeighbors(selfID, v1, v2 int, out *[]edgeNeighbor) {
	if mid := m.PeekVertexNode(v1, v2); mid != nil {
		m.collectFinerNeighbors(selfID, v1, mid.ID, out)
		m.collectFinerNeighbors(selfID, mid.ID, v2, out)
		return
	}
	en := m.PeekEdgeNode(v1, v2)
	if en == nil {
		return
	}
	for k := 0; k < 2; k++ {
		if en.Elem[k] == -1 || en.Elem[k] == selfID {
			continue
		}
		nb := m.elements.at(en.Elem[k])
		if nb != nil && nb.Used && nb.Active {
			*out = append(*out, edgeNeighbor{elem: nb, edgeNode: en})
		}
	}
}

// activeEdgeNeighbors returns the active elements on the far side of
// edge `edge` of the active element e. There are three shapes of
// adjacency: a same-level neighbor sharing the edge node, one or more
// finer neighbors registered on the sub-edges, or a single coarser
// neighbor found by walking the ancestor chain until an edge containing
// this one carries an active registration. Boundary edges have no
// neighbors.
func (m *Mesh) activeEdgeNeighbors(e *Element, edge int) []edgeNeighbor {
	en := m.Node(e.En[edge])
	if en.Bnd {
		return nil
	}
	v1, v2 := e.Vn[edge], e.Vn[e.NextVert(edge)]

	// same level: both back-reference slots occupied
	if en.Elem[0] != -1 && en.Elem[1] != -1 {
		other := en.Elem[0]
		if other == e.ID {
			other = en.Elem[1]
		}
		nb := m.elements.at(other)
		if nb == nil || !nb.Used || !nb.Active {
			return nil
		}
		return []edgeNeighbor{{elem: nb, edgeNode: en}}
	}

	// way down: the far side is refined, neighbors sit on the sub-edges
	if m.PeekVertexNode(v1, v2) != nil {
		var out []edgeNeighbor
		m.collectFinerNeighbors(e.ID, v1, v2, &out)
		if len(out) > 0 {
			return out
		}
	}

	// way up: the far side is coarser, find the ancestor edge covering
	// this one that an active element is registered on
	cur := e
	for cur.Parent != -1 {
		anc := m.elements.at(cur.Parent)
		for i := 0; i < anc.NVert; i++ {
			w1, w2 := anc.Vn[i], anc.Vn[anc.NextVert(i)]
			if !m.edgeContains(w1, w2, v1, v2) {
				continue
			}
			if aen := m.PeekEdgeNode(w1, w2); aen != nil {
				for k := 0; k < 2; k++ {
					if aen.Elem[k] == -1 {
						continue
					}
					nb := m.elements.at(aen.Elem[k])
					if nb != nil && nb.Used && nb.Active && nb.ID != e.ID {
						return []edgeNeighbor{{elem: nb, edgeNode: aen}}
					}
				}
			}
			break
		}
		cur = anc
	}
	return nil
}

// localEdgeIndex returns the local index of the edge of e carrying the
// given edge node, or -1.
func localEdgeIndex(e *Element, edgeNodeID int) int {
	for i := 0; i < e.NVert; i++ {
		if e.En[i] == edgeNodeID {
			return i
		}
	}
	return -1
}
