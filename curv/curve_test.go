package curv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewArc_QuarterCircle(t *testing.T) {
	// 90 degree arc of the unit circle from (1, 0) to (0, 1)
	c := NewArc(1, 0, 0, 1, 90)
	require.Equal(t, Arc, c.Kind)
	require.Len(t, c.Pt, 3)
	assert.Equal(t, 90.0, c.Angle)

	x, y := c.Point(0)
	assert.InDelta(t, 1, x, 1e-14)
	assert.InDelta(t, 0, y, 1e-14)

	x, y = c.Point(1)
	assert.InDelta(t, 0, x, 1e-14)
	assert.InDelta(t, 1, y, 1e-14)

	// the midpoint lies exactly on the circle
	x, y = c.Point(0.5)
	assert.InDelta(t, math.Sqrt2/2, x, 1e-12)
	assert.InDelta(t, math.Sqrt2/2, y, 1e-12)
}

func TestArc_EveryPointOnCircle(t *testing.T) {
	c := NewArc(1, 0, 0, 1, 90)
	for i := 0; i <= 20; i++ {
		s := float64(i) / 20
		x, y := c.Point(s)
		assert.InDelta(t, 1, math.Hypot(x, y), 1e-12, "t=%g", s)
	}
}

func TestArc_HalvedAngleEndpointsMatch(t *testing.T) {
	full := NewArc(1, 0, 0, 1, 90)
	mx, my := full.Point(0.5)

	// the two half arcs cover the same circle segment
	first := NewArc(1, 0, mx, my, 45)
	second := NewArc(mx, my, 0, 1, 45)
	for i := 0; i <= 10; i++ {
		s := float64(i) / 10
		x, y := first.Point(s)
		assert.InDelta(t, 1, math.Hypot(x, y), 1e-12)
		x, y = second.Point(s)
		assert.InDelta(t, 1, math.Hypot(x, y), 1e-12)
	}
}

func TestCurve_Clone(t *testing.T) {
	c := NewArc(1, 0, 0, 1, 90)
	d := c.Clone()
	d.Pt[1][0] = 42

	assert.NotEqual(t, c.Pt[1][0], d.Pt[1][0])
	assert.Equal(t, c.Kind, d.Kind)
	assert.Equal(t, c.Angle, d.Angle)
}
