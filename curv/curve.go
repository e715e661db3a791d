// Package curv describes curved (non-straight) element edge geometry and
// the per-element curvature maps used to compute exact son coordinates
// during mesh refinement.
package curv

import (
	"fmt"
	"math"
)

// CurveKind identifies the variant carried by a Curve.
type CurveKind uint8

const (
	Nurbs CurveKind = iota // general rational Bézier segment
	Arc                    // circular arc, Angle holds the arc angle in degrees
)

func (k CurveKind) String() string {
	switch k {
	case Nurbs:
		return "nurbs"
	case Arc:
		return "arc"
	default:
		return "unknown"
	}
}

// Curve is a single curved edge: a rational Bézier segment given by
// weighted control points (x, y, w). Arcs are the Arc kind with exactly
// three control points; Angle then records the subtended angle so that
// refinement can halve it when splitting the edge.
type Curve struct {
	Kind  CurveKind
	Angle float64      // degrees, Arc only
	Pt    [][3]float64 // control points (x, y, w)
}

// NewArc constructs the circular arc from (x1, y1) to (x2, y2) subtending
// the given angle in degrees, as a rational quadratic Bézier segment with
// one generated control point.
func NewArc(x1, y1, x2, y2, angle float64) *Curve {
	c := &Curve{
		Kind:  Arc,
		Angle: angle,
		Pt:    make([][3]float64, 3),
	}
	c.Pt[0] = [3]float64{x1, y1, 1.0}
	c.Pt[2] = [3]float64{x2, y2, 1.0}

	a := (180.0 - angle) / 180.0 * math.Pi

	// generate one control point
	x := 1.0 / math.Tan(a*0.5)
	c.Pt[1] = [3]float64{
		0.5 * ((x2 + x1) + (y2-y1)*x),
		0.5 * ((y2 + y1) - (x2-x1)*x),
		math.Cos((math.Pi - a) * 0.5),
	}
	return c
}

// Point evaluates the curve at parameter t in [0, 1] by rational
// de Casteljau reduction.
func (c *Curve) Point(t float64) (x, y float64) {
	n := len(c.Pt)
	if n == 0 {
		return 0, 0
	}
	// homogeneous coordinates (w*x, w*y, w)
	wk := make([][3]float64, n)
	for i, p := range c.Pt {
		wk[i] = [3]float64{p[0] * p[2], p[1] * p[2], p[2]}
	}
	for m := n - 1; m > 0; m-- {
		for i := 0; i < m; i++ {
			for d := 0; d < 3; d++ {
				wk[i][d] = (1-t)*wk[i][d] + t*wk[i+1][d]
			}
		}
	}
	return wk[0][0] / wk[0][2], wk[0][1] / wk[0][2]
}

// Clone returns an independent copy of the curve.
func (c *Curve) Clone() *Curve {
	nc := &Curve{Kind: c.Kind, Angle: c.Angle, Pt: make([][3]float64, len(c.Pt))}
	copy(nc.Pt, c.Pt)
	return nc
}

func (c *Curve) String() string {
	return fmt.Sprintf("%s curve, %d control points", c.Kind, len(c.Pt))
}
