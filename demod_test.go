package sstv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// feedTone runs n samples of a constant-frequency sine wave through a fresh
// demodulator and returns the steady-state output from the final samples,
// letting the IIR smoother settle first.
func feedTone(t *testing.T, fs, freqHz float64, n int) int16 {
	t.Helper()
	demod := newFreqDemodulator(fs)
	var last int16
	phase := 0.0
	step := 2 * math.Pi * freqHz / fs
	for i := 0; i < n; i++ {
		sample := int16(30000 * math.Sin(phase))
		phase += step
		last = demod.process(sample)
	}
	return last
}

func TestFreqDemodulatorTracksTone(t *testing.T) {
	fs := 15000.0
	for _, freq := range []float64{1500, 1900, 2300} {
		got := feedTone(t, fs, freq, 1200)
		require.InDelta(t, freq, float64(got), 150, "tone at %v Hz", freq)
	}
}

func TestFreqDemodulatorClampsRange(t *testing.T) {
	fs := 15000.0
	got := feedTone(t, fs, 4000, 1200)
	require.LessOrEqual(t, got, int16(2500))
	got = feedTone(t, fs, 200, 1200)
	require.GreaterOrEqual(t, got, int16(1000))
}
