package sstv

// SampleSource is the decoder's pull interface over signed 16-bit mono PCM.
// NextSample reports ok=false at end of stream; the decoder tolerates any
// start offset, so no framing is implied.
type SampleSource interface {
	NextSample() (sample int16, ok bool)
}

// SampleSink is the encoder's push interface for emitted audio samples.
type SampleSink interface {
	WriteSample(sample int16) error
}

// PixelSource is the encoder's pull interface over a raster image. colour
// selects R(0)/G(1)/B(2).
type PixelSource interface {
	GetPixel(width, height, y, x, colour int) uint8
}

// PixelSink is the decoder's push interface for reconstructed image rows.
// Rows are packed RGB565 per original_source/sstv_library/
// sstv_decoder.cpp's rgb_to_rgb565/ycrcb_to_rgb565.
type PixelSink interface {
	Open(name string, width, height int) error
	WriteRow(row []uint16, y, width, height int) error
	Close() error
}

// sliceSampleSource adapts an in-memory []int16 to SampleSource, useful for
// tests and simple callers that already have the whole PCM buffer.
type sliceSampleSource struct {
	samples []int16
	pos     int
}

// NewSliceSampleSource returns a SampleSource over an in-memory sample
// slice.
func NewSliceSampleSource(samples []int16) SampleSource {
	return &sliceSampleSource{samples: samples}
}

func (s *sliceSampleSource) NextSample() (int16, bool) {
	if s.pos >= len(s.samples) {
		return 0, false
	}
	v := s.samples[s.pos]
	s.pos++
	return v, true
}

// SliceSampleSink is an in-memory accumulating SampleSink, used by callers
// and tests that don't need real audio output.
type SliceSampleSink struct {
	samples []int16
}

// NewSliceSampleSink returns a SampleSink that accumulates every written
// sample into memory, retrievable via Samples.
func NewSliceSampleSink() *SliceSampleSink {
	return &SliceSampleSink{}
}

func (s *SliceSampleSink) WriteSample(sample int16) error {
	s.samples = append(s.samples, sample)
	return nil
}

func (s *SliceSampleSink) Samples() []int16 {
	return s.samples
}

// ImagePixelSource adapts an in-memory RGB image (row-major, 3 bytes per
// pixel) to PixelSource, useful for tests and simple callers.
type ImagePixelSource struct {
	Width, Height int
	RGB           []uint8 // len == Width*Height*3
}

func (s *ImagePixelSource) GetPixel(width, height, y, x, colour int) uint8 {
	idx := (y*s.Width+x)*3 + colour
	if idx < 0 || idx >= len(s.RGB) {
		return 0
	}
	return s.RGB[idx]
}

// ImagePixelSink accumulates decoded RGB565 rows into memory.
type ImagePixelSink struct {
	Width, Height int
	Rows          [][]uint16
}

func (s *ImagePixelSink) Open(name string, width, height int) error {
	s.Width, s.Height = width, height
	s.Rows = make([][]uint16, height)
	return nil
}

func (s *ImagePixelSink) WriteRow(row []uint16, y, width, height int) error {
	if y < 0 || y >= len(s.Rows) {
		return ErrSinkClosed
	}
	cp := make([]uint16, len(row))
	copy(cp, row)
	s.Rows[y] = cp
	return nil
}

func (s *ImagePixelSink) Close() error {
	return nil
}
