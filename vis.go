package sstv

// VIS (Vertical Interval Signaling) framing constants, in Hz and
// milliseconds, matching original_source/sstv_library/sstv_encoder.cpp's
// generate_vis_code and sstv_decoder.cpp's parity_check.
const (
	headerToneHz  = 1900.0
	headerToneMS  = 300.0
	headerBreakHz = 1200.0
	headerBreakMS = 10.0
	visBitHz1     = 1100.0 // binary 1
	visBitHz0     = 1300.0 // binary 0
	visMarkerHz   = 1200.0 // start/stop bit
	visBitMS      = 30.0
)

// visParity computes even parity over the 8 data bits using the same
// XOR-fold reduction as the reference decoder's parity_check, so that the
// encoder and decoder agree bit-for-bit on what "even parity" means for a
// given code.
func visParity(code uint8) uint8 {
	x := code
	x ^= x >> 4
	x ^= x >> 2
	x ^= x >> 1
	return x & 1
}

// visBits returns the 8 data bits of a VIS code, LSB first, as the wire
// encodes them.
func visBits(code uint8) [8]bool {
	var bits [8]bool
	for i := 0; i < 8; i++ {
		bits[i] = (code>>uint(i))&1 == 1
	}
	return bits
}

// visDecoder reconstructs a VIS code from a stream of bit observations
// (8 LSB-first data bits, then the parity bit) and checks the parity. The
// Decoder FSM does not use it: it identifies the mode from the measured
// line length.
type visDecoder struct {
	bits      [8]bool
	bitCount  int
	parityBit bool
}

func (d *visDecoder) reset() {
	d.bitCount = 0
}

// pushDataBit appends one observed data bit (LSB first). Returns true once
// all 8 data bits have been collected.
func (d *visDecoder) pushDataBit(bit bool) bool {
	if d.bitCount < 8 {
		d.bits[d.bitCount] = bit
		d.bitCount++
	}
	return d.bitCount == 8
}

// finish combines the collected data bits with the observed parity bit and
// reports whether the parity checks out.
func (d *visDecoder) finish(parityBit bool) (code uint8, parityOK bool) {
	for i := 0; i < 8; i++ {
		if d.bits[i] {
			code |= 1 << uint(i)
		}
	}
	expected := visParity(code) == 1
	return code, expected == parityBit
}
