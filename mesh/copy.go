package mesh

// CopyFrom turns m into a deep copy of src: nodes, elements, curvature
// maps, marker tables, counters and the refinement log. Element and node
// ids are preserved, so id-based references (curvature-map parents, the
// refinement log) stay valid. The copy gets a fresh sequence number.
func (m *Mesh) CopyFrom(src *Mesh) {
	m.Free()
	m.copyTable(&src.HashTable)

	m.elements.items = make([]*Element, len(src.elements.items))
	for i, e := range src.elements.items {
		if e == nil {
			continue
		}
		c := *e
		if e.CM != nil {
			c.CM = e.CM.Clone()
		}
		m.elements.items[i] = &c
	}
	m.elements.free = append([]int(nil), src.elements.free...)
	m.elements.nitems = src.elements.nitems

	m.nbase = src.nbase
	m.nactive = src.nactive
	m.ntopvert = src.ntopvert
	m.ninitial = src.ninitial
	m.ElementMarkers = src.ElementMarkers.Clone()
	m.BoundaryMarkers = src.BoundaryMarkers.Clone()
	m.refinements = append([]Refinement(nil), src.refinements...)
	m.bumpSeq()
}

// Copy returns a deep copy of src drawing sequence numbers from the same
// factory.
func Copy(src *Mesh) *Mesh {
	m := src.factory.NewMesh()
	m.CopyFrom(src)
	return m
}

// CopyBaseFrom turns m into a copy of src's base mesh, dropping all
// refinements. Boundary markers are recovered from the active
// descendants currently carrying them, so a refined-then-copied boundary
// keeps its markers.
func (m *Mesh) CopyBaseFrom(src *Mesh) error {
	m.Free()

	// top-level vertices keep their ids
	for i := 0; i < src.ntopvert; i++ {
		sn := src.Node(i)
		node := m.addNode()
		node.Kind = VertexNode
		node.Ref = topLevelRef
		node.X, node.Y = sn.X, sn.Y
	}
	m.ntopvert = src.ntopvert

	m.ElementMarkers = src.ElementMarkers.Clone()
	m.BoundaryMarkers = src.BoundaryMarkers.Clone()

	nbase := 0
	for id := 0; id < src.nbase; id++ {
		se := src.elements.at(id)
		if se == nil || !se.Used {
			continue
		}
		var cm = se.CM
		if cm != nil {
			cm = cm.Clone()
		}
		var e *Element
		var err error
		if se.IsTriangle() {
			e, err = m.createTriangle(se.Marker, m.Node(se.Vn[0]), m.Node(se.Vn[1]), m.Node(se.Vn[2]), cm)
		} else {
			e, err = m.createQuad(se.Marker, m.Node(se.Vn[0]), m.Node(se.Vn[1]), m.Node(se.Vn[2]), m.Node(se.Vn[3]), cm)
		}
		if err != nil {
			return err
		}
		if e.IsCurved() {
			m.updateRefmapCoeffs(e)
		}
		nbase++

		// recover boundary data from the descendants holding it
		for i := 0; i < se.NVert; i++ {
			ben := src.getBaseEdgeNode(se, i)
			en := m.Node(e.En[i])
			en.Marker = ben.Marker
			if ben.Bnd {
				en.Bnd = true
				m.Node(e.Vn[i]).Bnd = true
				m.Node(e.Vn[e.NextVert(i)]).Bnd = true
			}
		}
	}

	m.nbase = nbase
	m.nactive = nbase
	m.ninitial = nbase
	m.bumpSeq()
	return nil
}

// CopyBase returns a fresh mesh holding only src's base elements.
func CopyBase(src *Mesh) (*Mesh, error) {
	m := src.factory.NewMesh()
	if err := m.CopyBaseFrom(src); err != nil {
		return nil, err
	}
	return m, nil
}

// CopyConverted returns a standalone mesh whose base elements are src's
// current active elements: the refinement forest and hanging-node
// structure are dropped, vertices are renumbered densely and toplevel
// curvature survives. src is left untouched.
func CopyConverted(src *Mesh) (*Mesh, error) {
	m := Copy(src)
	if err := m.rebuildFromActive(); err != nil {
		return nil, err
	}
	return m, nil
}
