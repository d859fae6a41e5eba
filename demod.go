package sstv

// freqDemodulator converts a real audio stream into instantaneous frequency
// estimates using the Fs/4 spectrum-shift technique: mixing the signal up
// by Fs/4 with a multiplier-free cyclic sequence, low-pass filtering the
// resulting IQ pair, mixing back down by Fs/4, and reading the phase
// rotation per sample via CORDIC. This avoids both a multiplier-based
// mixer and a Hilbert transform, matching
// original_source/sstv_library/sstv_decoder.cpp's get_iq_sample /
// get_frequency_sample.
type freqDemodulator struct {
	fs         float64
	lpf        *iqLowpass
	ssbPhase   int
	lastPhase  int16
	smoothed   int32
	haveSample bool
}

func newFreqDemodulator(fs float64) *freqDemodulator {
	return &freqDemodulator{
		fs:  fs,
		lpf: newIQLowpass(fs, 1200, 17),
	}
}

// mixUp implements the +Fs/4 shift: multiplying the real stream by the
// length-4 cyclic sequence {1, 0, -1, 0} on I and {0, -1, 0, 1} on Q.
func mixUp(audio float64, phase int) (i, q float64) {
	switch phase & 3 {
	case 0:
		return audio, 0
	case 1:
		return 0, -audio
	case 2:
		return -audio, 0
	default:
		return 0, audio
	}
}

// mixDown implements the -Fs/4 shift: {-Q, -I, Q, I} on I and
// {I, -Q, -I, Q} on Q.
func mixDown(ii, qq float64, phase int) (i, q float64) {
	switch phase & 3 {
	case 0:
		return -qq, ii
	case 1:
		return -ii, -qq
	case 2:
		return qq, -ii
	default:
		return ii, qq
	}
}

// process consumes one audio sample and returns the clamped instantaneous
// frequency in Hz ([1000, 2500] per spec). The CORDIC magnitude is not
// returned.
func (d *freqDemodulator) process(audio int16) int16 {
	d.ssbPhase = (d.ssbPhase + 1) & 3

	upI, upQ := mixUp(float64(audio), d.ssbPhase)
	fI, fQ := d.lpf.filter(upI, upQ)
	downI, downQ := mixDown(fI, fQ, d.ssbPhase)

	iq16 := func(v float64) int16 {
		if v > 32767 {
			return 32767
		}
		if v < -32768 {
			return -32768
		}
		return int16(v)
	}

	_, phase := cordicRectangularToPolar(iq16(downI), iq16(downQ))

	var frequency int16
	if d.haveSample {
		frequency = phase - d.lastPhase
	}
	d.lastPhase = phase
	d.haveSample = true

	// 15000 here is the reference decoder's fixed assumed sample rate, not
	// d.fs; it matches sstv_decoder.cpp's get_frequency_sample verbatim and
	// only scales phase-delta to Hz correctly when fs is actually 15000.
	sample := int32(frequency) * 15000 >> 16

	d.smoothed = ((d.smoothed << 3) + sample - d.smoothed) >> 3

	clamped := d.smoothed
	if clamped < 1000 {
		clamped = 1000
	}
	if clamped > 2500 {
		clamped = 2500
	}
	return int16(clamped)
}
