package sstv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestResidueClosure is property 1: the cumulative sample count across many
// generateTone calls must never drift by more than one sample from the
// ideal real-valued total for the fixed-point durations actually passed in.
func TestResidueClosure(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		fs := 15000.0
		enc := NewEncoder(EncoderConfig{SampleRate: fs})
		sink := NewSliceSampleSink()
		enc.sink = sink

		n := rapid.IntRange(1, 200).Draw(t, "n")
		var idealTotal float64
		for i := 0; i < n; i++ {
			durationMS := rapid.Float64Range(0.1, 50).Draw(t, "durationMS")
			duration := msF16(durationMS)
			idealTotal += fs * duration.float() / 1000.0
			err := enc.generateTone(1900, duration)
			require.NoError(t, err)
		}
		actual := float64(len(sink.Samples()))
		require.Less(t, math.Abs(actual-idealTotal), 1.0)
	})
}

// TestGenerateVISEmitsExpectedDuration checks the VIS header's overall
// timing: 30ms start + 8*30ms data + 30ms parity + 30ms stop = 330ms.
func TestGenerateVISEmitsExpectedDuration(t *testing.T) {
	fs := 15000.0
	enc := NewEncoder(EncoderConfig{SampleRate: fs})
	sink := NewSliceSampleSink()
	enc.sink = sink
	require.NoError(t, enc.generateVIS(44)) // Martin M1

	want := fs * (30.0 * 11) / 1000.0
	got := float64(len(sink.Samples()))
	require.InDelta(t, want, got, 1.0)
}

// TestE2EScottieHeaderTiming is a partial check of E2E-3: encoding Scottie S1
// must succeed and emit more samples than the 300 ms leading header tone
// holds. The tone frequencies and the individual segment durations are not
// checked here.
func TestE2EScottieHeaderTiming(t *testing.T) {
	fs := 15000.0
	table := NewModeTable(fs)
	mode, ok := table.ByName("Scottie S1")
	require.True(t, ok)

	enc := NewEncoder(EncoderConfig{SampleRate: fs})
	sink := NewSliceSampleSink()
	src := &ImagePixelSource{Width: mode.Width, Height: mode.MaxHeight,
		RGB: make([]uint8, mode.Width*mode.MaxHeight*3)}

	require.NoError(t, enc.GenerateSSTV(mode, src, sink))

	samples := sink.Samples()
	toneSamples := int(fs * 300 / 1000.0)
	require.Greater(t, len(samples), toneSamples)
}

// TestEncodePDBlueImage checks that a strongly blue PD-50 image encodes
// without error. It does not inspect which chroma slot carries which value.
func TestEncodePDBlueImage(t *testing.T) {
	fs := 15000.0
	table := NewModeTable(fs)
	mode, ok := table.ByName("PD-50")
	require.True(t, ok)

	enc := NewEncoder(EncoderConfig{SampleRate: fs})
	sink := NewSliceSampleSink()
	rgb := make([]uint8, mode.Width*mode.MaxHeight*3)
	// A strongly blue image: rgbToYCrCb gives Cb = 255 and Cr = 107.
	for i := 0; i < mode.Width*mode.MaxHeight; i++ {
		rgb[i*3+2] = 255
	}
	src := &ImagePixelSource{Width: mode.Width, Height: mode.MaxHeight, RGB: rgb}
	require.NoError(t, enc.GenerateSSTV(mode, src, sink))
	require.NotEmpty(t, sink.Samples())
}
