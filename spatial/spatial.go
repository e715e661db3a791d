// Package spatial wraps a 2D R-tree for id-keyed bounding boxes, used to
// accelerate point-location queries over mesh elements.
package spatial

import (
	"fmt"

	"github.com/dhconnelly/rtreego"
)

// Item is one indexed entry: an integer id with its bounding box.
type Item struct {
	ID   int
	rect rtreego.Rect
}

// Bounds implements rtreego.Spatial.
func (it *Item) Bounds() rtreego.Rect { return it.rect }

// Index is a two-dimensional R-tree over id-keyed boxes.
type Index struct {
	tree *rtreego.Rtree
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{tree: rtreego.NewTree(2, 25, 50)}
}

// Insert adds the box [x0, x1] x [y0, y1] under the given id.
func (ix *Index) Insert(id int, x0, y0, x1, y1 float64) error {
	if x1 < x0 || y1 < y0 {
		return fmt.Errorf("invalid box [%g, %g] x [%g, %g]", x0, x1, y0, y1)
	}
	rect, err := rtreego.NewRectFromPoints(rtreego.Point{x0, y0}, rtreego.Point{x1, y1})
	if err != nil {
		return err
	}
	ix.tree.Insert(&Item{ID: id, rect: rect})
	return nil
}

// Size returns the number of indexed boxes.
func (ix *Index) Size() int { return ix.tree.Size() }

// SearchPoint returns the ids of all boxes containing the point (x, y).
func (ix *Index) SearchPoint(x, y float64) []int {
	rect := rtreego.Point{x, y}.ToRect(1e-12)
	hits := ix.tree.SearchIntersect(rect)
	ids := make([]int, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.(*Item).ID)
	}
	return ids
}
