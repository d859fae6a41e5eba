package sstv

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

// TestE2EMartinSolidGrey is E2E-1: encode a solid-grey Martin M1 image,
// decode it back, and check every reconstructed pixel lands in [120,136].
func TestE2EMartinSolidGrey(t *testing.T) {
	fs := 15000.0
	table := NewModeTable(fs)
	mode, ok := table.ByName("Martin M1")
	require.True(t, ok)

	rgb := make([]uint8, mode.Width*mode.MaxHeight*3)
	for i := range rgb {
		rgb[i] = 128
	}
	src := &ImagePixelSource{Width: mode.Width, Height: mode.MaxHeight, RGB: rgb}

	enc := NewEncoder(EncoderConfig{SampleRate: fs})
	audio := NewSliceSampleSink()
	require.NoError(t, enc.GenerateSSTV(mode, src, audio))

	dec := NewDecoder(DefaultDecoderConfig())
	sink := &ImagePixelSink{}
	completed, gotMode, err := dec.DecodeImage(NewSliceSampleSource(audio.Samples()), sink)
	require.NoError(t, err)
	require.True(t, completed)
	require.Equal(t, "Martin M1", gotMode.Name)

	checked := 0
	for y := 0; y < len(sink.Rows); y++ {
		row := sink.Rows[y]
		if row == nil {
			continue
		}
		for x := 0; x < len(row); x++ {
			r := uint8(row[x] >> 11 << 3)
			checked++
			require.GreaterOrEqual(t, int(r), 120, "row %d col %d", y, x)
			require.LessOrEqual(t, int(r), 136, "row %d col %d", y, x)
		}
	}
	require.Greater(t, checked, 0)
}

// TestE2EPDRampMSE is E2E-2: encode a PD-120 ramp image, round-trip it, and
// require the mean-squared error stay under 25. Only the red channel of each
// decoded pixel is compared with the grey ramp. The encoder's PD path swaps
// Cb/Cr (DESIGN.md Open Question 2) and the decoder does not compensate, but
// for grey input both chroma values are 128, so the swap has no effect here.
func TestE2EPDRampMSE(t *testing.T) {
	fs := 15000.0
	table := NewModeTable(fs)
	mode, ok := table.ByName("PD-120")
	require.True(t, ok)

	rgb := make([]uint8, mode.Width*mode.MaxHeight*3)
	for y := 0; y < mode.MaxHeight; y++ {
		for x := 0; x < mode.Width; x++ {
			v := uint8(x / 2)
			idx := (y*mode.Width + x) * 3
			rgb[idx+0] = v
			rgb[idx+1] = v
			rgb[idx+2] = v
		}
	}
	src := &ImagePixelSource{Width: mode.Width, Height: mode.MaxHeight, RGB: rgb}

	enc := NewEncoder(EncoderConfig{SampleRate: fs})
	audio := NewSliceSampleSink()
	require.NoError(t, enc.GenerateSSTV(mode, src, audio))

	dec := NewDecoder(DefaultDecoderConfig())
	sink := &ImagePixelSink{}
	completed, _, err := dec.DecodeImage(NewSliceSampleSource(audio.Samples()), sink)
	require.NoError(t, err)
	require.True(t, completed)

	var want, got []float64
	for y := 0; y < mode.MaxHeight && y < len(sink.Rows); y++ {
		row := sink.Rows[y]
		if row == nil {
			continue
		}
		for x := 0; x < mode.Width; x++ {
			wantGrey := float64(x / 2)
			gotGrey := float64(row[x] >> 11 << 3)
			want = append(want, wantGrey)
			got = append(got, gotGrey)
		}
	}
	require.NotEmpty(t, want)
	squaredDiffs := make([]float64, len(want))
	for i := range want {
		d := want[i] - got[i]
		squaredDiffs[i] = d * d
	}
	mse := stat.Mean(squaredDiffs, nil)
	require.Less(t, mse, 25.0)
}

// TestE2ENoiseNeverCompletes is E2E-5: 30 seconds of random noise must
// never trigger a spurious image-complete event.
func TestE2ENoiseNeverCompletes(t *testing.T) {
	fs := 15000.0
	n := int(30 * fs)
	rng := rand.New(rand.NewSource(1))
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = int16(rng.Intn(65536) - 32768)
	}

	dec := NewDecoder(DefaultDecoderConfig())
	sink := &ImagePixelSink{}
	completed, _, err := dec.DecodeImage(NewSliceSampleSource(samples), sink)
	require.NoError(t, err)
	require.False(t, completed)
}

// TestSlantCorrectionIdempotence is property 6: given a mean offset by up
// to 1% from nominal, after enough correctly-spaced sync events the tracked
// mean converges to within 0.1% of nominal.
func TestSlantCorrectionIdempotence(t *testing.T) {
	table := NewModeTable(15000)
	mode, ok := table.ByName("Martin M1")
	require.True(t, ok)

	dec := NewDecoder(DefaultDecoderConfig())
	dec.mode = mode
	nominal := int64(mode.SamplesPerLine)
	dec.meanSamplesPerLine = fixed256(float64(nominal) * 1.01)

	for i := 0; i < 64; i++ {
		dec.updateSlant(nominal >> 8)
	}

	diffRatio := float64(int64(dec.meanSamplesPerLine)-nominal) / float64(nominal)
	require.Less(t, diffRatio, 0.001)
	require.Greater(t, diffRatio, -0.001)
}
