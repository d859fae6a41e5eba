package sstv

import "log"

// decoderState is the Decoder FSM's top-level state per spec §3/§4.4.
type decoderState int

const (
	stateDetectSync decoderState = iota
	stateConfirmSync
	stateDecodeLine
)

const decodeLineColourInvalid = 4

// Decoder implements the SSTV decoder FSM: mode detection, confirmation,
// line-by-line decode, slant correction, and sample→(x,y,colour) mapping,
// grounded on original_source/sstv_library/sstv_decoder.cpp's
// decode_sample/sample_to_pixel/decode_image.
type Decoder struct {
	cfg       DecoderConfig
	modeTable *ModeTable
	demod     *freqDemodulator
	sync      *syncDebouncer

	state        decoderState
	confirmCount int

	mode    ModeSpec
	haveMode bool

	meanSamplesPerLine fixed256

	timeoutCounter int64
	timeoutLimit   int64

	imageSample fixed256

	pixelAccumulator int64
	pixelCount       int
	lastX, lastY     int
	lastColour       int
	haveLastPixel    bool

	currentRow [640][4]uint8
	rowWritten [640][4]bool

	sink       PixelSink
	sinkOpen   bool
	fskDecoder *fskIDDecoder
	lastFSKID  string

	// lastCb/lastCr retain the most recently decoded Robot chroma samples,
	// since Robot modes transmit only one chroma channel per row and reuse
	// the other channel's most recent value (spec §3 family table: "2 rows
	// per frame, alternating").
	lastCb, lastCr [640]uint8
}

// NewDecoder builds a decoder for the given configuration. The decoder can
// be reused across multiple frames without teardown, per spec §3 lifecycle.
func NewDecoder(cfg DecoderConfig) *Decoder {
	d := &Decoder{
		cfg:       cfg,
		modeTable: NewModeTable(cfg.SampleRate),
		demod:     newFreqDemodulator(cfg.SampleRate),
		sync:      newSyncDebouncer(),
	}
	d.timeoutLimit = int64(cfg.SyncTimeoutSeconds * cfg.SampleRate)
	if d.timeoutLimit <= 0 {
		d.timeoutLimit = int64(30 * cfg.SampleRate)
	}
	if cfg.DecodeFSKID {
		d.fskDecoder = newFSKIDDecoder(cfg.SampleRate)
	}
	d.reset()
	return d
}

func (d *Decoder) reset() {
	d.state = stateDetectSync
	d.confirmCount = 0
	d.haveMode = false
	d.imageSample = 0
	d.pixelAccumulator = 0
	d.pixelCount = 0
	d.haveLastPixel = false
	d.timeoutCounter = d.timeoutLimit
	d.clearRow()
}

// DecodeImage pulls samples from source, reconstructing rows into sink,
// until the image completes or the source ends. It surfaces sink/source
// errors unwrapped per spec §7's "callback return values are authoritative"
// rule. If source ends mid-frame (after sync has been confirmed but before
// the image completes), it returns ErrSourceClosed.
func (d *Decoder) DecodeImage(source SampleSource, sink PixelSink) (completed bool, mode ModeSpec, err error) {
	d.sink = sink
	for {
		sample, ok := source.NextSample()
		if !ok {
			if d.state == stateDecodeLine {
				return false, d.mode, ErrSourceClosed
			}
			return false, d.mode, nil
		}
		complete, err := d.processSample(sample)
		if err == ErrSyncLost || err == ErrModeMismatch {
			continue // internal, recoverable; keep pulling samples
		}
		if err != nil {
			return false, d.mode, err
		}
		if complete {
			d.lastFSKID = ""
			if d.fskDecoder != nil {
				d.lastFSKID = d.fskDecoder.decodeTrailing(source)
			}
			return true, d.mode, nil
		}
	}
}

// LastFSKID returns the callsign decoded after the most recently completed
// image, or "" if DecodeFSKID is disabled or none was found.
func (d *Decoder) LastFSKID() string {
	return d.lastFSKID
}

// processSample advances the FSM by one audio sample, returning true when
// the frame has completed.
func (d *Decoder) processSample(sample int16) (imageComplete bool, err error) {
	freq := d.demod.process(sample)
	ev, gotSync := d.sync.update(freq)

	switch d.state {
	case stateDetectSync:
		if gotSync {
			mode, ok := d.modeTable.ClassifyLineLength(ev.sampleDelta)
			if !ok {
				return false, ErrModeMismatch
			}
			d.mode = mode
			d.haveMode = true
			d.meanSamplesPerLine = mode.SamplesPerLine
			d.confirmCount = 0
			d.state = stateConfirmSync
		}

	case stateConfirmSync:
		if gotSync {
			if classifyAgainstWindow(d.mode, ev.sampleDelta) {
				d.state = stateDecodeLine
				d.imageSample = 0
				d.pixelAccumulator = 0
				d.pixelCount = 0
				d.haveLastPixel = false
				d.timeoutCounter = d.timeoutLimit
				if !d.sinkOpen && d.sink != nil {
					maxHeight := d.mode.MaxHeight
					if maxHeight == 0 {
						maxHeight = 256
					}
					if openErr := d.sink.Open(d.mode.Name, d.mode.Width, maxHeight); openErr != nil {
						return false, openErr
					}
					d.sinkOpen = true
				}
			} else {
				d.confirmCount++
				if d.confirmCount >= 4 {
					d.state = stateDetectSync
					d.haveMode = false
				}
			}
		}

	case stateDecodeLine:
		x, y, colour := sampleToPixel(d.imageSample, d.mode, d.meanSamplesPerLine)

		if colour != decodeLineColourInvalid {
			if d.haveLastPixel && (x != d.lastX || colour != d.lastColour) {
				finishedY := d.lastY
				d.emitPixel()
				if y != finishedY {
					if err := d.flushRow(finishedY); err != nil {
						return false, err
					}
				}
			}
			d.lastX, d.lastY, d.lastColour = x, y, colour
			d.haveLastPixel = true
			d.pixelAccumulator += int64(freqToBrightness(freq))
			d.pixelCount++
		}

		d.imageSample += 256 // advance by the scale factor

		if gotSync {
			if classifyAgainstWindow(d.mode, ev.sampleDelta) {
				d.timeoutCounter = d.timeoutLimit
				if d.cfg.SlantCorrection {
					d.updateSlant(ev.sampleDelta)
				}
			}
		} else {
			d.timeoutCounter--
			if d.timeoutCounter <= 0 {
				d.state = stateDetectSync
				d.haveMode = false
				return false, ErrSyncLost
			}
		}

		maxHeight := d.mode.MaxHeight
		if maxHeight == 0 {
			maxHeight = 256
		}
		if y >= maxHeight {
			d.emitPixel()
			if err := d.flushRow(d.lastY); err != nil {
				return false, err
			}
			d.state = stateDetectSync
			d.haveMode = false
			if d.sinkOpen && d.sink != nil {
				if err := d.sink.Close(); err != nil {
					return false, err
				}
				d.sinkOpen = false
			}
			return true, nil
		}
	}
	return false, nil
}

// updateSlant applies the quarter-weight IIR drift tracker from spec §4.4:
// mean ← mean − mean/4 + (sampleDelta × scale / num_lines) / 4, where
// num_lines = round(sampleDelta × scale / samples_per_line). sampleDelta is
// the sync debouncer's own measured distance between confirmed hsync
// pulses, so no separate sample counter needs to be kept here.
func (d *Decoder) updateSlant(sampleDelta int64) {
	nominal := int64(d.mode.SamplesPerLine)
	if nominal == 0 || sampleDelta == 0 {
		return
	}
	scaledSamples := sampleDelta * 256
	numLines := (scaledSamples + nominal/2) / nominal
	if numLines == 0 {
		numLines = 1
	}
	perLine := scaledSamples / numLines
	mean := int64(d.meanSamplesPerLine)
	mean = mean - mean/4 + perLine/4
	d.meanSamplesPerLine = fixed256(mean)
}

// emitPixel writes out the previously accumulated pixel, then clears the
// accumulator. It buffers pixels into currentRow until a row completes.
func (d *Decoder) emitPixel() {
	if d.pixelCount == 0 {
		return
	}
	value := uint8(d.pixelAccumulator / int64(d.pixelCount))
	if d.lastX >= 0 && d.lastX < 640 && d.lastColour >= 0 && d.lastColour < 4 {
		d.currentRow[d.lastX][d.lastColour] = value
		d.rowWritten[d.lastX][d.lastColour] = true
	}
	d.pixelAccumulator = 0
	d.pixelCount = 0
}

// flushRow converts the currently buffered row into RGB565 and writes it to
// the sink, then clears the buffer for the next row. For PD, one "line" in
// sample_to_pixel's y covers two image rows (Y-even and Y-odd sharing
// chroma); both are written here.
func (d *Decoder) flushRow(y int) error {
	if d.sink == nil || y < 0 {
		d.clearRow()
		return nil
	}
	width := d.mode.Width
	if width <= 0 || width > 640 {
		width = 640
	}
	maxHeight := d.mode.MaxHeight
	if maxHeight == 0 {
		maxHeight = 256
	}

	switch d.mode.Family {
	case FamilyPD:
		rowEven := make([]uint16, width)
		rowOdd := make([]uint16, width)
		for x := 0; x < width; x++ {
			yEven := d.currentRow[x][0]
			// encoder writes row_cb[col]=cr; row_cr[col]=cb (see
			// DESIGN.md Open Question 2) - the decoder does not
			// compensate, so a PD round trip will show swapped chroma.
			cbSlot := d.currentRow[x][1]
			crSlot := d.currentRow[x][2]
			yOdd := d.currentRow[x][3]
			r, g, b := ycrcbToRGB(yEven, crSlot, cbSlot)
			rowEven[x] = rgb565(r, g, b)
			r, g, b = ycrcbToRGB(yOdd, crSlot, cbSlot)
			rowOdd[x] = rgb565(r, g, b)
		}
		if 2*y < maxHeight {
			if err := d.sink.WriteRow(rowEven, 2*y, width, maxHeight); err != nil {
				return err
			}
		}
		if 2*y+1 < maxHeight {
			if err := d.sink.WriteRow(rowOdd, 2*y+1, width, maxHeight); err != nil {
				return err
			}
		}

	case FamilyRobot:
		row := make([]uint16, width)
		for x := 0; x < width; x++ {
			if d.rowWritten[x][2] {
				d.lastCb[x] = d.currentRow[x][2]
			}
			if d.rowWritten[x][3] {
				d.lastCr[x] = d.currentRow[x][3]
			}
			r, g, b := ycrcbToRGB(d.currentRow[x][0], d.lastCr[x], d.lastCb[x])
			row[x] = rgb565(r, g, b)
		}
		if y < maxHeight {
			if err := d.sink.WriteRow(row, y, width, maxHeight); err != nil {
				return err
			}
		}

	case FamilyBW:
		row := make([]uint16, width)
		for x := 0; x < width; x++ {
			v := d.currentRow[x][0]
			row[x] = rgb565(v, v, v)
		}
		if y < maxHeight {
			if err := d.sink.WriteRow(row, y, width, maxHeight); err != nil {
				return err
			}
		}

	default: // Martin, Scottie, SC2 - direct RGB
		row := make([]uint16, width)
		for x := 0; x < width; x++ {
			row[x] = rgb565(d.currentRow[x][0], d.currentRow[x][1], d.currentRow[x][2])
		}
		if y < maxHeight {
			if err := d.sink.WriteRow(row, y, width, maxHeight); err != nil {
				return err
			}
		}
	}

	d.clearRow()
	return nil
}

func (d *Decoder) clearRow() {
	for x := range d.currentRow {
		d.currentRow[x] = [4]uint8{}
		d.rowWritten[x] = [4]bool{}
	}
}

// classifyAgainstWindow re-checks an observed line length against a
// specific (already-chosen) mode's ±1% window, used during confirm_sync and
// during decode_line's per-sync refresh.
func classifyAgainstWindow(mode ModeSpec, observed int64) bool {
	nominal := int64(mode.SamplesPerLine) >> 8
	lower := (99 * nominal) / 100
	upper := (101 * nominal) / 100
	return observed >= lower && observed <= upper
}

// sampleToPixel is the per-family pure function mapping a 1-D offset into
// the current frame to (x, y, colour), colour==4 marking non-image regions.
// Grounded verbatim (for Martin/Scottie/PD/SC2) on
// original_source/sstv_library/sstv_decoder.cpp's sample_to_pixel; Robot
// and BW are designed from the family table since no reference decoder
// covers them (see modes.go).
func sampleToPixel(imageSample fixed256, mode ModeSpec, meanSamplesPerLine fixed256) (x, y, colour int) {
	// Martin/Scottie wire order is G,B,R; remap to R,G,B on the way out.
	colourmap := [4]int{1, 2, 0, 4}

	switch mode.Family {
	case FamilyMartin:
		mean := int64(meanSamplesPerLine)
		if mean == 0 {
			return 0, 0, decodeLineColourInvalid
		}
		s := int64(imageSample)
		yv := s / mean
		s -= yv * mean
		colourLine := int64(mode.SamplesPerColourLine)
		c := int(s / colourLine)
		s -= int64(c) * colourLine
		if c < 0 || c > 3 {
			return 0, int(yv), decodeLineColourInvalid
		}
		c = colourmap[c]
		pixel := int64(mode.SamplesPerPixel)
		if pixel == 0 {
			return 0, int(yv), decodeLineColourInvalid
		}
		return int(s / pixel), int(yv), c

	case FamilyScottie:
		s := int64(imageSample)
		s -= int64(mode.SamplesPerColourLine)
		s -= int64(mode.SamplesPerHsync)
		if s < 0 {
			return 0, 0, decodeLineColourInvalid
		}
		mean := int64(meanSamplesPerLine)
		if mean == 0 {
			return 0, 0, decodeLineColourInvalid
		}
		yv := s / mean
		s -= yv * mean

		colourLine := int64(mode.SamplesPerColourLine)
		var c int
		if s < 2*colourLine {
			c = int(s / colourLine)
			s -= int64(c) * colourLine
		} else {
			s -= 2 * colourLine
			s -= int64(mode.SamplesPerHsync)
			c = 2 + int(s/colourLine)
		}
		if s < 0 {
			return 0, 0, decodeLineColourInvalid
		}
		if c < 0 || c > 3 {
			return 0, int(yv), decodeLineColourInvalid
		}
		c = colourmap[c]
		pixel := int64(mode.SamplesPerPixel)
		if pixel == 0 {
			return 0, int(yv), decodeLineColourInvalid
		}
		return int(s / pixel), int(yv), c

	case FamilyPD:
		s := int64(imageSample)
		s -= int64(mode.SamplesPerHsync)
		if s < 0 {
			return 0, 0, decodeLineColourInvalid
		}
		mean := int64(meanSamplesPerLine)
		if mean == 0 {
			return 0, 0, decodeLineColourInvalid
		}
		yv := s / mean
		s -= yv * mean
		colourLine := int64(mode.SamplesPerColourLine)
		c := int(s / colourLine)
		s -= int64(c) * colourLine
		if c < 0 || c > 3 {
			return 0, int(yv), decodeLineColourInvalid
		}
		pixel := int64(mode.SamplesPerPixel)
		if pixel == 0 {
			return 0, int(yv), decodeLineColourInvalid
		}
		return int(s / pixel), int(yv), c

	case FamilySC2:
		mean := int64(meanSamplesPerLine)
		if mean == 0 {
			return 0, 0, decodeLineColourInvalid
		}
		s := int64(imageSample)
		yv := s / mean
		s -= yv * mean

		colourLine := int64(mode.SamplesPerColourLine)
		pixel := int64(mode.SamplesPerPixel)
		if pixel == 0 {
			return 0, int(yv), decodeLineColourInvalid
		}
		switch {
		case s < colourLine:
			return int(s / pixel), int(yv), 0
		case s < 2*colourLine:
			s -= colourLine
			return int(s / pixel), int(yv), 1
		case s < 3*colourLine:
			s -= 2 * colourLine
			return int(s / pixel), int(yv), 2
		default:
			return 0, int(yv), decodeLineColourInvalid
		}

	case FamilyBW:
		mean := int64(meanSamplesPerLine)
		if mean == 0 {
			return 0, 0, decodeLineColourInvalid
		}
		s := int64(imageSample)
		s -= int64(mode.SamplesPerHsync)
		if s < 0 {
			return 0, 0, decodeLineColourInvalid
		}
		yv := s / mean
		s -= yv * mean
		pixel := int64(mode.SamplesPerPixel)
		if pixel == 0 || s < 0 {
			return 0, int(yv), decodeLineColourInvalid
		}
		return int(s / pixel), int(yv), 0

	case FamilyRobot:
		// hsync, Y, gap, chroma (half-width), alternating Cb/Cr by row
		// parity - see the doc comment on buildModeTable's FamilyRobot
		// case and encodeRobot in encoder.go.
		mean := int64(meanSamplesPerLine)
		if mean == 0 {
			return 0, 0, decodeLineColourInvalid
		}
		s := int64(imageSample)
		s -= int64(mode.SamplesPerHsync)
		if s < 0 {
			return 0, 0, decodeLineColourInvalid
		}
		yv := s / mean
		s -= yv * mean
		colourLine := int64(mode.SamplesPerColourLine)
		pixel := int64(mode.SamplesPerPixel)
		if pixel == 0 {
			return 0, int(yv), decodeLineColourInvalid
		}
		if s < colourLine {
			return int(s / pixel), int(yv), 0 // Y
		}
		s -= colourLine
		s -= int64(mode.SamplesPerColourGap)
		if s < 0 {
			return 0, int(yv), decodeLineColourInvalid
		}
		chromaPixel := pixel * 2
		if yv%2 == 0 {
			return int(s / chromaPixel), int(yv), 2 // Cb on even rows
		}
		return int(s / chromaPixel), int(yv), 3 // Cr on odd rows
	}

	log.Printf("[sstv] sample_to_pixel: unhandled family %v", mode.Family)
	return 0, 0, decodeLineColourInvalid
}
