package mesh

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// Markers assigned by the eggshell extraction. The shell volume gets
// EggShellMarker; the shell boundary facing the seed region gets
// EggShell1Marker, the opposite boundary EggShell0Marker, and edges
// interior to the shell EggShellInnerMarker.
const (
	EggShellInnerMarker = "Eggshell-inner"
	EggShell1Marker     = "Eggshell-1"
	EggShell0Marker     = "Eggshell-0"
	EggShellMarker      = "Eggshell"
)

// GetEggShell extracts the sub-mesh of `levels` layers of elements
// surrounding the region(s) with the given element marker names. The
// result is a copy of mesh with only the shell elements (and their
// ancestors) kept; its boundary edges carry the eggshell markers.
// sizeHint pre-sizes the shell element list, -1 picks a default.
func GetEggShell(mesh *Mesh, markerNames []string, levels int, sizeHint int) (*Mesh, error) {
	if levels < 2 {
		return nil, &ValueError{Name: "levels", Value: float64(levels), Min: 2}
	}
	target := Copy(mesh)

	shell, err := eggShellStructures(target, markerNames, levels, sizeHint)
	if err != nil {
		return nil, err
	}
	makeEggShellMesh(target, shell)
	fixMarkers(target, mesh)
	return target, nil
}

// eggShellStructures runs the breadth-first sweep outward from the seed
// region: level 1 is the region itself, each following level the active
// neighbors of the previous one. Shell elements get the volume marker;
// the edges crossed when entering the first layer get the 1-marker on
// both sides. Returns the shell elements in discovery order.
func eggShellStructures(target *Mesh, markerNames []string, levels int, sizeHint int) ([]*Element, error) {
	marker1 := target.BoundaryMarkers.Insert(EggShell1Marker)
	target.BoundaryMarkers.Insert(EggShellInnerMarker)
	markerVolume := target.ElementMarkers.Insert(EggShellMarker)

	var internal []int
	for _, name := range markerNames {
		mrk, ok := target.ElementMarkers.Get(name)
		if !ok {
			return nil, fmt.Errorf("marker %q not valid in GetEggShell", name)
		}
		internal = append(internal, mrk)
	}

	if sizeHint < 0 {
		sizeHint = int(math.Sqrt(float64(target.GetNumActiveElements())))
	}
	shell := make([]*Element, 0, sizeHint)

	neighbors := make([]int, target.GetMaxElementID())
	neighborsLocal := make([]int, target.GetMaxElementID())
	target.forAllActiveElements(func(e *Element) {
		for _, mrk := range internal {
			if e.Marker == mrk {
				neighborsLocal[e.ID] = 1
				break
			}
		}
	})

	for level := 1; level <= levels; level++ {
		logrus.Debugf("eggshell level %d", level)
		copy(neighbors, neighborsLocal)
		target.forAllActiveElements(func(e *Element) {
			if neighbors[e.ID] != level {
				return
			}
			logrus.Debugf("eggshell element %d", e.ID)
			for edge := 0; edge < e.NVert; edge++ {
				if target.Node(e.En[edge]).Bnd {
					continue
				}
				for _, nb := range target.activeEdgeNeighbors(e, edge) {
					if neighborsLocal[nb.elem.ID] > 0 {
						continue
					}
					target.Node(e.En[edge]).Marker = marker1
					nb.edgeNode.Marker = marker1
					shell = append(shell, nb.elem)
					nb.elem.Marker = markerVolume
					neighborsLocal[nb.elem.ID] = level + 1
				}
			}
		})
	}
	return shell, nil
}

// makeEggShellMesh strips the copied mesh down to the shell elements and
// their ancestors, repairs hanging nodes on the shell boundary and turns
// the shell's rim edges into boundary edges with the eggshell markers.
func makeEggShellMesh(target *Mesh, shell []*Element) {
	target.forAllActiveElements(func(e *Element) {
		e.Used = false
		for p := e.Parent; p != -1; {
			pe := target.elements.at(p)
			pe.Used = false
			p = pe.Parent
		}
	})

	for _, e := range shell {
		e.Used = true
		for p := e.Parent; p != -1; {
			pe := target.elements.at(p)
			pe.Used = true
			p = pe.Parent
		}
	}

	fixHangingNodes(target, shell)

	// the fixups may have pulled extra elements in
	nactive := 0
	target.forAllActiveElements(func(*Element) { nactive++ })
	target.nactive = nactive

	markerInner, _ := target.BoundaryMarkers.Get(EggShellInnerMarker)
	marker1, _ := target.BoundaryMarkers.Get(EggShell1Marker)
	marker0 := target.BoundaryMarkers.Insert(EggShell0Marker)
	markerVolume := target.ElementMarkers.Insert(EggShellMarker)

	target.forAllActiveElements(func(e *Element) {
		for edge := 0; edge < e.NVert; edge++ {
			en := target.Node(e.En[edge])
			if en.Bnd {
				continue
			}

			shellNeighbor := false
			for _, nb := range target.activeEdgeNeighbors(e, edge) {
				if nb.elem.Marker == markerVolume {
					en.Marker = markerInner
					shellNeighbor = true
					break
				}
			}

			// not facing the shell and not the 1-rim: the 0-rim
			if !shellNeighbor && en.Marker != marker1 {
				en.Marker = marker0
			}
			if en.Marker == marker1 || en.Marker == marker0 {
				en.Bnd = true
				target.Node(e.Vn[edge]).Bnd = true
				target.Node(e.Vn[e.NextVert(edge)]).Bnd = true
			}
		}
	})
}

// fixHangingNodes re-adds elements needed to keep the shell conforming:
// a shell edge with no live neighbor and no finer split must be matched
// by a coarser neighbor, found by walking the parent chain until an edge
// covering it carries registered elements; the subtree under that parent
// is pulled back into the mesh.
func fixHangingNodes(target *Mesh, shell []*Element) {
	markerVolume := target.ElementMarkers.Insert(EggShellMarker)
	for _, el := range shell {
		for edge := 0; edge < el.NVert; edge++ {
			en := target.Node(el.En[edge])
			if en.Bnd {
				continue
			}
			if en.Elem[0] != -1 && en.Elem[1] != -1 {
				continue
			}
			if target.PeekVertexNode(en.P1, en.P2) != nil {
				continue
			}
			elem := el
			for elem.Parent != -1 {
				parent := target.elements.at(elem.Parent)
				parentEdge := target.PeekEdgeNode(parent.Vn[edge], parent.Vn[(edge+1)%parent.NVert])
				if parentEdge != nil && (parentEdge.Elem[0] != -1 || parentEdge.Elem[1] != -1) {
					markElementsDownUsed(target, markerVolume, parent)
					break
				}
				elem = parent
			}
		}
	}
}

// markElementsDownUsed re-enables element and its whole subtree,
// stamping newly pulled-in leaves with the shell volume marker.
func markElementsDownUsed(target *Mesh, markerVolume int, element *Element) {
	if !element.Used && element.Active {
		element.Marker = markerVolume
	}
	if !element.Active {
		for _, sid := range element.Sons {
			if sid != -1 {
				markElementsDownUsed(target, markerVolume, target.elements.at(sid))
			}
		}
	}
	element.Used = true
}

// fixMarkers restores the original element markers of the shell elements
// from the source mesh, undoing the volume stamping used during
// extraction.
func fixMarkers(target, original *Mesh) {
	target.forAllActiveElements(func(e *Element) {
		if oe := original.elements.at(e.ID); oe != nil {
			e.Marker = oe.Marker
		}
	})
}
