package sstv

import "math"

// sinTableSize is the full-wave table size used by the encoder's
// numerically-controlled oscillator. 1024 entries gives under 0.1% THD at
// the tone frequencies SSTV uses (1100-2300 Hz).
const sinTableSize = 1024

var sinTable [sinTableSize]int16

func init() {
	for i := 0; i < sinTableSize; i++ {
		sinTable[i] = int16(math.Round(32767 * math.Sin(2*math.Pi*float64(i)/sinTableSize)))
	}
}

// nco is a 32-bit phase-accumulator numerically-controlled oscillator
// producing signed 16-bit samples from the shared sine table.
type nco struct {
	fs    float64
	phase uint32
}

func newNCO(fs float64) *nco {
	return &nco{fs: fs}
}

// step advances the oscillator by one sample at freqHz and returns the
// resulting signed 16-bit sample.
func (n *nco) step(freqHz float64) int16 {
	step := uint32(freqHz / n.fs * 4294967296.0)
	n.phase += step
	return sinTable[n.phase>>22]
}
