package sstv

import "fmt"

// Encoder implements the SSTV encoder FSM: header/VIS framing, per-family
// tone sequencing with residue-carrying duration quantization, and
// RGB↔YCrCb colour transforms. Grounded on
// original_source/sstv_library/sstv_encoder.cpp's generate_sstv and
// per-family generate_* functions.
type Encoder struct {
	cfg  EncoderConfig
	osc  *nco
	sink SampleSink

	sampleResidue int64 // fractional samples (scaled by 1<<16) carried from the previous tone
	abort         bool
}

// NewEncoder builds an encoder for the given configuration.
func NewEncoder(cfg EncoderConfig) *Encoder {
	return &Encoder{
		cfg: cfg,
		osc: newNCO(cfg.SampleRate),
	}
}

// Abort requests the encoder stop cleanly at the next row boundary. It is
// a cooperative cancellation signal, not an error, per spec §4.6/§4.5.
func (e *Encoder) Abort() {
	e.abort = true
}

// generateTone emits duration worth of samples at freqHz, carrying the
// fractional-sample remainder forward so cumulative timing drifts by less
// than one sample over arbitrarily long sequences. duration is the typed
// <<16 fixed-point millisecond value per spec §9; it is converted (rounded
// to nearest) to a <<16 fixed-point sample count here since that is the unit
// the residue carry accumulates in. Grounded on sstv_encoder.cpp's
// generate_tone.
func (e *Encoder) generateTone(freqHz float64, duration fixedMS) error {
	samplesExact := int64(e.cfg.SampleRate*duration.float()/1000.0*65536.0+0.5) + e.sampleResidue
	samples := samplesExact >> 16
	e.sampleResidue = samplesExact - samples<<16
	for i := int64(0); i < samples; i++ {
		if err := e.sink.WriteSample(e.osc.step(freqHz)); err != nil {
			return err
		}
	}
	return nil
}

// GenerateSSTV encodes src using mode and writes the resulting samples to
// sink. It returns as soon as Abort is observed between rows, or when the
// image has been fully transmitted.
func (e *Encoder) GenerateSSTV(mode ModeSpec, src PixelSource, sink SampleSink) error {
	if e.cfg.SampleRate <= 0 {
		return fmt.Errorf("sstv: invalid sample rate %v", e.cfg.SampleRate)
	}
	e.sink = sink
	e.abort = false
	e.sampleResidue = 0

	if err := e.generateTone(headerToneHz, msF16(headerToneMS)); err != nil {
		return err
	}
	if err := e.generateTone(headerBreakHz, msF16(headerBreakMS)); err != nil {
		return err
	}
	if err := e.generateTone(headerToneHz, msF16(headerToneMS)); err != nil {
		return err
	}
	if err := e.generateVIS(mode.VIS); err != nil {
		return err
	}

	maxHeight := mode.MaxHeight
	if maxHeight == 0 {
		maxHeight = 256
	}

	switch mode.Family {
	case FamilyMartin:
		return e.encodeMartin(mode, src, maxHeight)
	case FamilyScottie:
		return e.encodeScottie(mode, src, maxHeight)
	case FamilyPD:
		return e.encodePD(mode, src, maxHeight)
	case FamilySC2:
		return e.encodeSC2(mode, src, maxHeight)
	case FamilyRobot:
		return e.encodeRobot(mode, src, maxHeight)
	case FamilyBW:
		return e.encodeBW(mode, src, maxHeight)
	}
	return fmt.Errorf("sstv: unhandled family %v", mode.Family)
}

// generateVIS emits the 30ms start/data/parity/stop bit sequence per spec
// §4.5/§6.
func (e *Encoder) generateVIS(code uint8) error {
	if err := e.generateTone(visMarkerHz, msF16(visBitMS)); err != nil {
		return err
	}
	bits := visBits(code)
	for _, bit := range bits {
		freq := visBitHz0
		if bit {
			freq = visBitHz1
		}
		if err := e.generateTone(freq, msF16(visBitMS)); err != nil {
			return err
		}
	}
	parityFreq := visBitHz0
	if visParity(code) == 1 {
		parityFreq = visBitHz1
	}
	if err := e.generateTone(parityFreq, msF16(visBitMS)); err != nil {
		return err
	}
	return e.generateTone(visMarkerHz, msF16(visBitMS))
}

func (e *Encoder) pixelTone(src PixelSource, width, height, y, x, colour int) float64 {
	return brightnessToFreq(src.GetPixel(width, height, y, x, colour))
}

// encodeMartin emits gap-G-gap-B-gap-R-hsync rows (hsync at end of line),
// per sstv_encoder.cpp's generate_martin.
func (e *Encoder) encodeMartin(mode ModeSpec, src PixelSource, maxHeight int) error {
	pixelMS := msF16(mode.ColourLineMS / float64(mode.Width))
	gapMS := msF16(mode.GapMS)
	hsyncMS := msF16(mode.HsyncMS)
	for y := 0; y < maxHeight; y++ {
		if e.abort {
			return nil
		}
		for _, colour := range [3]int{1, 2, 0} { // wire order G, B, R
			if err := e.generateTone(1500, gapMS); err != nil {
				return err
			}
			for x := 0; x < mode.Width; x++ {
				freq := e.pixelTone(src, mode.Width, maxHeight, y, x, colour)
				if err := e.generateTone(freq, pixelMS); err != nil {
					return err
				}
			}
		}
		if err := e.generateTone(1200, hsyncMS); err != nil {
			return err
		}
	}
	return nil
}

// encodeScottie emits gap-G-gap-B-hsync-gap-R rows (hsync mid-line, between
// B and R), per sstv_encoder.cpp's generate_scottie.
func (e *Encoder) encodeScottie(mode ModeSpec, src PixelSource, maxHeight int) error {
	pixelMS := msF16(mode.ColourLineMS / float64(mode.Width))
	gapMS := msF16(mode.GapMS)
	hsyncMS := msF16(mode.HsyncMS)
	for y := 0; y < maxHeight; y++ {
		if e.abort {
			return nil
		}
		for _, colour := range [2]int{1, 2} { // G, B
			if err := e.generateTone(1500, gapMS); err != nil {
				return err
			}
			for x := 0; x < mode.Width; x++ {
				freq := e.pixelTone(src, mode.Width, maxHeight, y, x, colour)
				if err := e.generateTone(freq, pixelMS); err != nil {
					return err
				}
			}
		}
		if err := e.generateTone(1200, hsyncMS); err != nil {
			return err
		}
		if err := e.generateTone(1500, gapMS); err != nil {
			return err
		}
		for x := 0; x < mode.Width; x++ {
			freq := e.pixelTone(src, mode.Width, maxHeight, y, x, 0) // R
			if err := e.generateTone(freq, pixelMS); err != nil {
				return err
			}
		}
	}
	return nil
}

// encodePD emits hsync-gap-Y(even)-Cb-Cr-Y(odd) per row pair, intentionally
// preserving the reference encoder's Cb/Cr swap (DESIGN.md Open Question
// 2): the slot nominally carrying Cb is written with Cr and vice versa.
func (e *Encoder) encodePD(mode ModeSpec, src PixelSource, maxHeight int) error {
	pixelMS := msF16(mode.ColourLineMS / float64(mode.Width))
	hsyncMS := msF16(mode.HsyncMS)
	gapMS := msF16(mode.GapMS)
	for y := 0; y < maxHeight; y += 2 {
		if e.abort {
			return nil
		}
		if err := e.generateTone(1200, hsyncMS); err != nil {
			return err
		}
		if err := e.generateTone(1500, gapMS); err != nil {
			return err
		}

		width := mode.Width
		yEven := make([]uint8, width)
		cbRow := make([]uint8, width)
		crRow := make([]uint8, width)
		yOdd := make([]uint8, width)
		for x := 0; x < width; x++ {
			r0 := src.GetPixel(width, maxHeight, y, x, 0)
			g0 := src.GetPixel(width, maxHeight, y, x, 1)
			b0 := src.GetPixel(width, maxHeight, y, x, 2)
			ye, cr, cb := rgbToYCrCb(r0, g0, b0)
			yEven[x] = ye

			y1 := y
			if y+1 < maxHeight {
				y1 = y + 1
			}
			r1 := src.GetPixel(width, maxHeight, y1, x, 0)
			g1 := src.GetPixel(width, maxHeight, y1, x, 1)
			b1 := src.GetPixel(width, maxHeight, y1, x, 2)
			yo, _, _ := rgbToYCrCb(r1, g1, b1)
			yOdd[x] = yo

			// row_cb[col] = cr; row_cr[col] = cb - preserved swap.
			cbRow[x] = cr
			crRow[x] = cb
		}

		for x := 0; x < width; x++ {
			if err := e.generateTone(brightnessToFreq(yEven[x]), pixelMS); err != nil {
				return err
			}
		}
		for x := 0; x < width; x++ {
			if err := e.generateTone(brightnessToFreq(cbRow[x]), pixelMS); err != nil {
				return err
			}
		}
		for x := 0; x < width; x++ {
			if err := e.generateTone(brightnessToFreq(crRow[x]), pixelMS); err != nil {
				return err
			}
		}
		for x := 0; x < width; x++ {
			if err := e.generateTone(brightnessToFreq(yOdd[x]), pixelMS); err != nil {
				return err
			}
		}
	}
	return nil
}

// encodeSC2 emits three contiguous R,G,B bands per row with no gaps, per
// sstv_encoder.cpp's generate_sc2 family constants.
func (e *Encoder) encodeSC2(mode ModeSpec, src PixelSource, maxHeight int) error {
	pixelMS := msF16(mode.ColourLineMS / float64(mode.Width))
	hsyncMS := msF16(mode.HsyncMS)
	for y := 0; y < maxHeight; y++ {
		if e.abort {
			return nil
		}
		if err := e.generateTone(1200, hsyncMS); err != nil {
			return err
		}
		for _, colour := range [3]int{0, 1, 2} {
			for x := 0; x < mode.Width; x++ {
				freq := e.pixelTone(src, mode.Width, maxHeight, y, x, colour)
				if err := e.generateTone(freq, pixelMS); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// encodeRobot emits hsync-Y-gap-chroma rows, alternating which chroma
// channel (Cb on even rows, Cr on odd) is transmitted at half pixel
// resolution, matching the decoder's sampleToPixel FamilyRobot case.
func (e *Encoder) encodeRobot(mode ModeSpec, src PixelSource, maxHeight int) error {
	width := mode.Width
	pixelMS := msF16(mode.ColourLineMS / float64(width))
	chromaPixelMS := pixelMS * 2
	chromaWidth := width / 2
	hsyncMS := msF16(mode.HsyncMS)
	gapMS := msF16(mode.GapMS)

	for y := 0; y < maxHeight; y++ {
		if e.abort {
			return nil
		}
		if err := e.generateTone(1200, hsyncMS); err != nil {
			return err
		}
		for x := 0; x < width; x++ {
			r := src.GetPixel(width, maxHeight, y, x, 0)
			g := src.GetPixel(width, maxHeight, y, x, 1)
			b := src.GetPixel(width, maxHeight, y, x, 2)
			yv, _, _ := rgbToYCrCb(r, g, b)
			if err := e.generateTone(brightnessToFreq(yv), pixelMS); err != nil {
				return err
			}
		}
		if err := e.generateTone(1500, gapMS); err != nil {
			return err
		}
		for x := 0; x < chromaWidth; x++ {
			fullX := x * 2
			r := src.GetPixel(width, maxHeight, y, fullX, 0)
			g := src.GetPixel(width, maxHeight, y, fullX, 1)
			b := src.GetPixel(width, maxHeight, y, fullX, 2)
			_, cr, cb := rgbToYCrCb(r, g, b)
			value := cb
			if y%2 != 0 {
				value = cr
			}
			if err := e.generateTone(brightnessToFreq(value), chromaPixelMS); err != nil {
				return err
			}
		}
	}
	return nil
}

// encodeBW emits hsync then a single Y-only pixel line, no gaps, per
// sstv_encoder.cpp's generate_bw.
func (e *Encoder) encodeBW(mode ModeSpec, src PixelSource, maxHeight int) error {
	pixelMS := msF16(mode.ColourLineMS / float64(mode.Width))
	hsyncMS := msF16(mode.HsyncMS)
	for y := 0; y < maxHeight; y++ {
		if e.abort {
			return nil
		}
		if err := e.generateTone(1200, hsyncMS); err != nil {
			return err
		}
		for x := 0; x < mode.Width; x++ {
			r := src.GetPixel(mode.Width, maxHeight, y, x, 0)
			g := src.GetPixel(mode.Width, maxHeight, y, x, 1)
			b := src.GetPixel(mode.Width, maxHeight, y, x, 2)
			yv, _, _ := rgbToYCrCb(r, g, b)
			if err := e.generateTone(brightnessToFreq(yv), pixelMS); err != nil {
				return err
			}
		}
	}
	return nil
}
