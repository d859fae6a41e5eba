package sstv

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestToneFrequencyLinearity(t *testing.T) {
	require.InDelta(t, 1500.0, brightnessToFreq(0), 1.0)
	require.InDelta(t, 2297.0, brightnessToFreq(255), 2.0)
}

func TestColourRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := uint8(rapid.IntRange(0, 255).Draw(t, "r"))
		g := uint8(rapid.IntRange(0, 255).Draw(t, "g"))
		b := uint8(rapid.IntRange(0, 255).Draw(t, "b"))

		y, cr, cb := rgbToYCrCb(r, g, b)
		r2, g2, b2 := ycrcbToRGB(y, cr, cb)

		require.InDelta(t, int(r), int(r2), 2)
		require.InDelta(t, int(g), int(g2), 2)
		require.InDelta(t, int(b), int(b2), 2)
	})
}

func TestRGB565Packing(t *testing.T) {
	require.Equal(t, uint16(0), rgb565(0, 0, 0))
	require.Equal(t, uint16(0xFFFF), rgb565(255, 255, 255))
}
