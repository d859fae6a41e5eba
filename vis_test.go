package sstv

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVISRoundTrip(t *testing.T) {
	table := NewModeTable(15000)
	for _, mode := range table.Modes() {
		bits := visBits(mode.VIS)
		dec := &visDecoder{}
		dec.reset()
		for i := 0; i < 8; i++ {
			dec.pushDataBit(bits[i])
		}
		parityBit := visParity(mode.VIS) == 1
		code, ok := dec.finish(parityBit)
		require.True(t, ok, "mode %s: parity must check out", mode.Name)
		require.Equal(t, mode.VIS, code, "mode %s: VIS code must round-trip", mode.Name)
	}
}

func TestVISParityIsEven(t *testing.T) {
	for code := 0; code < 256; code++ {
		p := visParity(uint8(code))
		ones := 0
		for b := uint8(code); b != 0; b &= b - 1 {
			ones++
		}
		require.Zero(t, (ones+int(p))%2, "code %d: popcount+parity must be even", code)
	}
}
