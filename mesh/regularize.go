package mesh

// GetEdgeDegree returns the hanging-node depth of the edge between
// vertices v1 and v2: 0 when the edge is not split, otherwise one more
// than the deeper of its two halves.
func (m *Mesh) GetEdgeDegree(v1, v2 int) int {
	v3 := m.PeekVertexNode(v1, v2)
	if v3 == nil {
		return 0
	}
	d1 := m.GetEdgeDegree(v1, v3.ID)
	d2 := m.GetEdgeDegree(v3.ID, v2)
	if d2 > d1 {
		d1 = d2
	}
	return 1 + d1
}

// assignParent records that son i of e belongs to the same regularization
// parent as e itself, growing the parents array as needed.
func (m *Mesh) assignParent(e *Element, i int) {
	sid := e.Sons[i]
	if sid == -1 {
		return
	}
	for sid >= len(m.parents) {
		m.parents = append(m.parents, 0)
	}
	m.parents[sid] = m.parents[e.ID]
}

// regularizeTriangle removes the hanging nodes of a triangle with
// degree-1 edges by splitting it into compatible triangles: one split
// edge yields two sons, two split edges yield three, three split edges
// fall back to the isotropic refinement.
func (m *Mesh) regularizeTriangle(e *Element) error {
	eo := [3]int{
		m.GetEdgeDegree(e.Vn[0], e.Vn[1]),
		m.GetEdgeDegree(e.Vn[1], e.Vn[2]),
		m.GetEdgeDegree(e.Vn[2], e.Vn[0]),
	}
	sum := eo[0] + eo[1] + eo[2]

	if sum == 3 {
		if err := m.RefineElementID(e.ID, KindIso); err != nil {
			return err
		}
	} else if sum > 0 {
		var bnd [3]bool
		var mrk [3]int
		for i := 0; i < 3; i++ {
			en := m.Node(e.En[i])
			bnd[i], mrk[i] = en.Bnd, en.Marker
		}

		if sum == 1 {
			k := 0
			for i := 0; i < 3; i++ {
				if eo[i] == 1 {
					k = i
				}
			}
			k1, k2 := e.NextVert(k), e.PrevVert(k)
			v4 := m.PeekVertexNode(e.Vn[k], e.Vn[k1])

			e.Active = false
			m.nactive++
			m.unrefAllNodes(e)

			t0 := m.mustTriangle(e.Marker, m.Node(e.Vn[k]), v4, m.Node(e.Vn[k2]), nil)
			t1 := m.mustTriangle(e.Marker, v4, m.Node(e.Vn[k1]), m.Node(e.Vn[k2]), nil)

			en := m.Node(t0.En[2])
			en.Bnd, en.Marker = bnd[k2], mrk[k2]
			en = m.Node(t1.En[1])
			en.Bnd, en.Marker = bnd[k1], mrk[k1]

			e.Sons = [4]int{t0.ID, t1.ID, -1, -1}
			t0.Parent, t1.Parent = e.ID, e.ID
		} else if sum == 2 {
			k := 0
			for i := 0; i < 3; i++ {
				if eo[i] == 0 {
					k = i
				}
			}
			k1, k2 := e.NextVert(k), e.PrevVert(k)
			v4 := m.PeekVertexNode(e.Vn[k1], e.Vn[k2])
			v5 := m.PeekVertexNode(e.Vn[k2], e.Vn[k])

			e.Active = false
			m.nactive += 2
			m.unrefAllNodes(e)

			t0 := m.mustTriangle(e.Marker, m.Node(e.Vn[k]), m.Node(e.Vn[k1]), v4, nil)
			t1 := m.mustTriangle(e.Marker, v4, v5, m.Node(e.Vn[k]), nil)
			t2 := m.mustTriangle(e.Marker, v4, m.Node(e.Vn[k2]), v5, nil)

			en := m.Node(t0.En[0])
			en.Bnd, en.Marker = bnd[k], mrk[k]

			e.Sons = [4]int{t0.ID, t1.ID, t2.ID, -1}
			t0.Parent, t1.Parent, t2.Parent = e.ID, e.ID, e.ID
		}
	}

	if !e.Active {
		for i := 0; i < 4; i++ {
			m.assignParent(e, i)
		}
	}
	return nil
}

// regularizeQuad removes the hanging nodes of a quad with degree-1
// edges. Opposite split edges reuse the matching anisotropic refinement;
// other patterns triangulate the quad; three split edges refine
// anisotropically and recurse into the two sons carrying the leftovers.
func (m *Mesh) regularizeQuad(e *Element) error {
	eo := [4]int{
		m.GetEdgeDegree(e.Vn[0], e.Vn[1]),
		m.GetEdgeDegree(e.Vn[1], e.Vn[2]),
		m.GetEdgeDegree(e.Vn[2], e.Vn[3]),
		m.GetEdgeDegree(e.Vn[3], e.Vn[0]),
	}
	sum := eo[0] + eo[1] + eo[2] + eo[3]

	if sum == 4 {
		if err := m.RefineElementID(e.ID, KindIso); err != nil {
			return err
		}
	} else if sum > 0 {
		var bnd [4]bool
		var mrk [4]int
		for i := 0; i < 4; i++ {
			en := m.Node(e.En[i])
			bnd[i], mrk[i] = en.Bnd, en.Marker
		}

		switch {
		case sum == 1:
			k := 0
			for i := 0; i < 4; i++ {
				if eo[i] == 1 {
					k = i
				}
			}
			k1 := e.NextVert(k)
			k2 := e.NextVert(k1)
			k3 := e.PrevVert(k)
			v4 := m.PeekVertexNode(e.Vn[k], e.Vn[k1])

			e.Active = false
			m.nactive += 2
			m.unrefAllNodes(e)

			t0 := m.mustTriangle(e.Marker, m.Node(e.Vn[k]), v4, m.Node(e.Vn[k3]), nil)
			t1 := m.mustTriangle(e.Marker, v4, m.Node(e.Vn[k1]), m.Node(e.Vn[k2]), nil)
			t2 := m.mustTriangle(e.Marker, v4, m.Node(e.Vn[k2]), m.Node(e.Vn[k3]), nil)

			en := m.Node(t0.En[2])
			en.Bnd, en.Marker = bnd[k3], mrk[k3]
			en = m.Node(t1.En[1])
			en.Bnd, en.Marker = bnd[k1], mrk[k1]
			en = m.Node(t2.En[1])
			en.Bnd, en.Marker = bnd[k2], mrk[k2]

			e.Sons = [4]int{t0.ID, t1.ID, t2.ID, -1}
			t0.Parent, t1.Parent, t2.Parent = e.ID, e.ID, e.ID

		case sum == 2 && eo[0] == 1 && eo[2] == 1:
			if err := m.RefineElementID(e.ID, KindVertical); err != nil {
				return err
			}
		case sum == 2 && eo[1] == 1 && eo[3] == 1:
			if err := m.RefineElementID(e.ID, KindHorizontal); err != nil {
				return err
			}
		case sum == 2:
			// two hanging nodes on adjacent edges
			k := 0
			for i := 0; i < 4; i++ {
				if eo[i] == 1 && eo[e.NextVert(i)] == 1 {
					k = i
				}
			}
			k1 := e.NextVert(k)
			k2 := e.NextVert(k1)
			k3 := e.PrevVert(k)
			v4 := m.PeekVertexNode(e.Vn[k], e.Vn[k1])
			v5 := m.PeekVertexNode(e.Vn[k1], e.Vn[k2])

			e.Active = false
			m.nactive += 3
			m.unrefAllNodes(e)

			t0 := m.mustTriangle(e.Marker, m.Node(e.Vn[k1]), v5, v4, nil)
			t1 := m.mustTriangle(e.Marker, v5, m.Node(e.Vn[k2]), m.Node(e.Vn[k3]), nil)
			t2 := m.mustTriangle(e.Marker, v4, v5, m.Node(e.Vn[k3]), nil)
			t3 := m.mustTriangle(e.Marker, v4, m.Node(e.Vn[k3]), m.Node(e.Vn[k]), nil)

			en := m.Node(t1.En[1])
			en.Bnd, en.Marker = bnd[k2], mrk[k2]
			en = m.Node(t3.En[1])
			en.Bnd, en.Marker = bnd[k3], mrk[k3]

			e.Sons = [4]int{t0.ID, t1.ID, t2.ID, t3.ID}
			t0.Parent, t1.Parent, t2.Parent, t3.Parent = e.ID, e.ID, e.ID, e.ID

		default: // sum == 3
			var n, mIdx int
			if eo[0] == 1 && eo[2] == 1 {
				if err := m.RefineElementID(e.ID, KindVertical); err != nil {
					return err
				}
				for i := 0; i < 4; i++ {
					m.assignParent(e, i)
				}
				n, mIdx = 2, 3
			} else {
				if err := m.RefineElementID(e.ID, KindHorizontal); err != nil {
					return err
				}
				for i := 0; i < 4; i++ {
					m.assignParent(e, i)
				}
				n, mIdx = 0, 1
			}
			if err := m.regularizeQuad(m.elements.at(e.Sons[n])); err != nil {
				return err
			}
			if err := m.regularizeQuad(m.elements.at(e.Sons[mIdx])); err != nil {
				return err
			}
		}
	}

	if !e.Active {
		for i := 0; i < 4; i++ {
			m.assignParent(e, i)
		}
	}
	return nil
}

// flatten discards the refinement forest, compacting the active elements
// into a fresh, densely numbered store that becomes the new base mesh.
// Edge-node element back-references and the regularization parents array
// are remapped to the new ids.
func (m *Mesh) flatten() {
	idx := make([]int, m.elements.size())
	var ns elementStore
	m.forAllActiveElements(func(e *Element) {
		ne := ns.add()
		id := ne.ID
		*ne = *e
		ne.ID = id
		ne.Parent = -1
		ne.Sons = [4]int{-1, -1, -1, -1}
		idx[e.ID] = id
		// compaction never increases ids, so in-place remap is safe
		m.parents[id] = m.parents[e.ID]
	})
	m.elements = ns
	m.nbase = ns.numItems()
	m.nactive = ns.numItems()
	m.parents = m.parents[:ns.numItems()]

	m.forAllEdgeNodes(func(node *Node) {
		for k := 0; k < 2; k++ {
			if node.Elem[k] != -1 {
				node.Elem[k] = idx[node.Elem[k]]
			}
		}
	})
	m.bumpSeq()
}

// Regularize bounds the hanging-node depth of every edge by n: elements
// with a deeper-split edge are refined until the bound holds. For n < 1
// the mesh is made fully regular: after enforcing depth 1 the remaining
// hanging nodes are eliminated by triangulating their elements, and the
// forest is flattened into a new base mesh. Meshes with curved elements
// cannot be made regular.
//
// The returned slice maps every element id to the id of the pre-pass
// element it descends from, letting callers transfer per-element data
// onto the regularized mesh.
func (m *Mesh) Regularize(n int) ([]int, error) {
	reg := false
	if n < 1 {
		n = 1
		reg = true
	}

	m.parents = make([]int, m.GetMaxElementID())
	m.forAllActiveElements(func(e *Element) {
		m.parents[e.ID] = e.ID
	})

	for {
		ok := true
		var err error
		m.forAllActiveElements(func(e *Element) {
			if err != nil {
				return
			}
			iso := -1
			if e.IsTriangle() {
				for i := 0; i < 3; i++ {
					if m.GetEdgeDegree(e.Vn[i], e.Vn[e.NextVert(i)]) > n {
						iso = KindIso
						ok = false
						break
					}
				}
			} else {
				d0 := m.GetEdgeDegree(e.Vn[0], e.Vn[1])
				d1 := m.GetEdgeDegree(e.Vn[1], e.Vn[2])
				d2 := m.GetEdgeDegree(e.Vn[2], e.Vn[3])
				d3 := m.GetEdgeDegree(e.Vn[3], e.Vn[0])
				if (d0 > n || d2 > n) && d1 <= n && d3 <= n {
					iso = KindVertical
					ok = false
				} else if d0 <= n && d2 <= n && (d1 > n || d3 > n) {
					iso = KindHorizontal
					ok = false
				} else if d0 > n || d1 > n || d2 > n || d3 > n {
					iso = KindIso
					ok = false
				}
			}
			if iso >= 0 {
				if err = m.RefineElementID(e.ID, iso); err != nil {
					return
				}
				for i := 0; i < 4; i++ {
					m.assignParent(e, i)
				}
			}
		})
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
	}

	if reg {
		var err error
		m.forAllActiveElements(func(e *Element) {
			if err != nil {
				return
			}
			if e.IsCurved() {
				err = &CurvedError{ElementID: e.ID}
				return
			}
			if e.IsTriangle() {
				err = m.regularizeTriangle(e)
			} else {
				err = m.regularizeQuad(e)
			}
		})
		if err != nil {
			return nil, err
		}
		m.flatten()
	}

	return m.parents, nil
}
