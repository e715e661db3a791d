package mesh

import "fmt"

// getEdgeSons returns the indices into e.Sons of the sons covering edge
// `edge` of the inactive element e, and how many there are (1 or 2). The
// anisotropic quad splits store their two sons in slots 0,1 (horizontal)
// or 2,3 (vertical), which is what the lookup keys on.
func getEdgeSons(e *Element, edge int) (son1, son2, count int) {
	if e.IsTriangle() {
		return edge, e.NextVert(edge), 2
	}
	switch {
	case e.Sons[2] == -1: // horizontal split
		switch edge {
		case 0:
			return 0, 0, 1
		case 2:
			return 1, 1, 1
		default:
			return 0, 1, 2
		}
	case e.Sons[0] == -1: // vertical split
		switch edge {
		case 1:
			return 3, 3, 1
		case 3:
			return 2, 2, 1
		default:
			return 2, 3, 2
		}
	default: // isotropic split
		return edge, (edge + 1) % 4, 2
	}
}

// getBaseEdgeNode descends from base element base along edge `edge` to
// the first active descendant covering it and returns that descendant's
// edge node, which carries the current boundary marker of the edge.
func (m *Mesh) getBaseEdgeNode(base *Element, edge int) *Node {
	e := base
	for !e.Active {
		son1, _, _ := getEdgeSons(e, edge)
		e = m.elements.at(e.Sons[son1])
	}
	return m.Node(e.En[edge])
}

// unrefineElementInternal removes the sons of e and reactivates it,
// recovering the edge boundary data from the son edge nodes before they
// disappear. The sons must all be active.
func (m *Mesh) unrefineElementInternal(e *Element) {
	m.refinements = append(m.refinements, Refinement{ElementID: e.ID, Kind: KindUnrefine})

	// recover markers and boundary flags from the first son on each edge
	var bnd [MaxElementEdges]bool
	var mrk [MaxElementEdges]int
	for i := 0; i < e.NVert; i++ {
		son1, _, _ := getEdgeSons(e, i)
		son := m.elements.at(e.Sons[son1])
		en := m.Node(son.En[i])
		bnd[i], mrk[i] = en.Bnd, en.Marker
	}

	for i := 0; i < MaxElementSons; i++ {
		sid := e.Sons[i]
		if sid == -1 {
			continue
		}
		son := m.elements.at(sid)
		m.unrefAllNodes(son)
		m.elements.remove(sid)
		m.nactive--
		e.Sons[i] = -1
	}

	// recreate the parent's edge nodes
	for i := 0; i < e.NVert; i++ {
		e.En[i] = m.GetEdgeNode(e.Vn[i], e.Vn[e.NextVert(i)]).ID
	}
	m.refAllNodes(e)
	e.Active = true
	m.nactive++

	for i := 0; i < e.NVert; i++ {
		en := m.Node(e.En[i])
		en.Marker = mrk[i]
		en.Bnd = bnd[i]
	}
}

// UnrefineElementID removes the whole refinement subtree under element
// id, reactivating it as a leaf. Active elements are left alone.
func (m *Mesh) UnrefineElementID(id int) error {
	e, err := m.GetElement(id)
	if err != nil {
		return err
	}
	if !e.Used {
		return fmt.Errorf("invalid element id number %d", id)
	}
	if e.Active {
		return nil
	}
	for _, sid := range e.Sons {
		if sid == -1 {
			continue
		}
		if err := m.UnrefineElementID(sid); err != nil {
			return err
		}
	}
	m.unrefineElementInternal(e)
	m.bumpSeq()
	return nil
}

// UnrefineAllElements coarsens the mesh by one level: every inactive
// element whose sons are all active leaves is unrefined. With keepInitial
// the elements of the initial mesh survive, so repeated calls converge to
// the initial mesh instead of the base mesh.
func (m *Mesh) UnrefineAllElements(keepInitial bool) error {
	var list []int
	m.forAllInactiveElements(func(e *Element) {
		for _, sid := range e.Sons {
			if sid == -1 {
				continue
			}
			son := m.elements.at(sid)
			if !son.Active || (keepInitial && sid < m.ninitial) {
				return
			}
		}
		list = append(list, e.ID)
	})
	for _, id := range list {
		if err := m.UnrefineElementID(id); err != nil {
			return err
		}
	}
	return nil
}
