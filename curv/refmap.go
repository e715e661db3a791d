package curv

import (
	"gonum.org/v1/gonum/mat"
)

// RefNodesTri lists the reference coordinates of the geometric control
// nodes of a quadratic triangle map: vertices first, then mid-edge nodes
// in edge order.
var RefNodesTri = [6][2]float64{
	{-1, -1}, {1, -1}, {-1, 1},
	{0, -1}, {0, 0}, {-1, 0},
}

// RefNodesQuad lists the control nodes of a biquadratic quad map:
// vertices, mid-edge nodes in edge order, center.
var RefNodesQuad = [9][2]float64{
	{-1, -1}, {1, -1}, {1, 1}, {-1, 1},
	{0, -1}, {1, 0}, {0, 1}, {-1, 0},
	{0, 0},
}

// triBasis evaluates the quadratic Lagrange basis of RefNodesTri.
func triBasis(xi, eta float64) []float64 {
	l := [3]float64{-(xi + eta) / 2, (1 + xi) / 2, (1 + eta) / 2}
	return []float64{
		l[0] * (2*l[0] - 1),
		l[1] * (2*l[1] - 1),
		l[2] * (2*l[2] - 1),
		4 * l[0] * l[1],
		4 * l[1] * l[2],
		4 * l[2] * l[0],
	}
}

// quadBasis evaluates the biquadratic tensor Lagrange basis of
// RefNodesQuad.
func quadBasis(xi, eta float64) []float64 {
	q := func(s float64) [3]float64 {
		return [3]float64{s * (s - 1) / 2, 1 - s*s, s * (s + 1) / 2}
	}
	h, v := q(xi), q(eta)
	return []float64{
		h[0] * v[0], h[2] * v[0], h[2] * v[2], h[0] * v[2],
		h[1] * v[0], h[2] * v[1], h[1] * v[2], h[0] * v[1],
		h[1] * v[1],
	}
}

// SetCoeffs stores the physical positions of the geometric control nodes
// as the map's reference-map coefficient matrix. pts must follow
// RefNodesTri or RefNodesQuad order.
func (m *Map) SetCoeffs(pts [][2]float64) {
	c := mat.NewDense(len(pts), 2, nil)
	for i, p := range pts {
		c.Set(i, 0, p[0])
		c.Set(i, 1, p[1])
	}
	m.Coeffs = c
}

// CoeffPoint evaluates the quadratic reference map stored in Coeffs at
// (xi, eta). It is the cheap interpolated form of Point used by
// downstream reference-map consumers once the coefficients have been
// computed.
func (m *Map) CoeffPoint(triangle bool, xi, eta float64) (x, y float64) {
	var basis []float64
	if triangle {
		basis = triBasis(xi, eta)
	} else {
		basis = quadBasis(xi, eta)
	}
	b := mat.NewVecDense(len(basis), basis)
	var out mat.VecDense
	out.MulVec(m.Coeffs.T(), b)
	return out.AtVec(0), out.AtVec(1)
}
