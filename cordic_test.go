package sstv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCordicMagnitude(t *testing.T) {
	cases := []struct{ i, q int16 }{
		{10000, 0},
		{0, 10000},
		{-10000, 0},
		{0, -10000},
		{7071, 7071},
		{-7071, -7071},
	}
	for _, c := range cases {
		mag, _ := cordicRectangularToPolar(c.i, c.q)
		want := math.Hypot(float64(c.i), float64(c.q))
		require.InDelta(t, want, float64(mag), want*0.01+2, "i=%d q=%d", c.i, c.q)
	}
}

func TestCordicZero(t *testing.T) {
	mag, phase := cordicRectangularToPolar(0, 0)
	require.Equal(t, uint16(0), mag)
	require.Equal(t, int16(0), phase)
}

func TestCordicPhaseQuadrants(t *testing.T) {
	// The four axis-aligned inputs are a quarter turn apart, so each must
	// give a phase different from the one before it.
	_, p0 := cordicRectangularToPolar(10000, 0)
	_, p1 := cordicRectangularToPolar(0, 10000)
	_, p2 := cordicRectangularToPolar(-10000, 0)
	_, p3 := cordicRectangularToPolar(0, -10000)
	require.NotEqual(t, p0, p1)
	require.NotEqual(t, p1, p2)
	require.NotEqual(t, p2, p3)
}
