package sstv

// clamp8 clamps an integer to the [0, 255] range a colour channel or
// brightness value must stay within.
func clamp8(v int32) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// rgbToYCrCb converts an 8-bit RGB triple to YCrCb using the fixed-point
// (scaled by 256) coefficients from
// original_source/sstv_library/sstv_encoder.cpp's rgb_to_ycrcb_fixed, with
// each >>8 rounded to nearest.
//
// The caller is responsible for placing the returned Cb/Cr values into the
// wire layout PD actually uses, which swaps them relative to this function's
// naming - see encodePD and DESIGN.md Open Question 2.
func rgbToYCrCb(r, g, b uint8) (y, cr, cb uint8) {
	ri, gi, bi := int32(r), int32(g), int32(b)
	yv := (77*ri + 150*gi + 29*bi + 128) >> 8
	cbv := ((-43*ri - 85*gi + 128*bi + 128) >> 8) + 128
	crv := ((128*ri - 107*gi - 21*bi + 128) >> 8) + 128
	return clamp8(yv), clamp8(crv), clamp8(cbv)
}

// ycrcbToRGB converts YCrCb back to RGB using the fixed-point inverse
// coefficients from original_source/sstv_library/sstv_decoder.cpp's
// ycrcb_to_rgb565, with each division rounded to nearest.
func ycrcbToRGB(y, cr, cb uint8) (r, g, b uint8) {
	yi := int32(y)
	cri := int32(cr) - 128
	cbi := int32(cb) - 128
	rv := yi + (45*cri+16)>>5
	gv := yi - (11*cbi+23*cri+16)>>5
	bv := yi + (113*cbi+32)>>6
	return clamp8(rv), clamp8(gv), clamp8(bv)
}

// rgb565 packs an 8-bit RGB triple into the 16-bit 5/6/5 format used by the
// pixel sink interface.
func rgb565(r, g, b uint8) uint16 {
	return (uint16(r)&0xF8)<<8 | (uint16(g)&0xFC)<<3 | (uint16(b)&0xF8)>>3
}

// brightnessToFreq maps an 8-bit component value to the SSTV tone frequency
// that represents it: 1500 Hz = black, 2300 Hz = white.
func brightnessToFreq(value uint8) float64 {
	return 1500 + (2300-1500)*float64(value)/256.0
}

// freqToBrightness is the decoder-side inverse, clamped to [0, 255] per
// original_source/sstv_library/sstv_decoder.cpp's frequency_to_brightness.
func freqToBrightness(freqHz int16) uint8 {
	v := (256 * (int32(freqHz) - 1500)) / (2300 - 1500)
	return clamp8(v)
}
