package sstv

import "math"

// cordicIterations is the number of shift-add steps; 16 gives better than
// 0.01 degree angular resolution for 16-bit phase output, matching the
// full-circle-maps-to-2^16 convention used everywhere else in the decoder.
const cordicIterations = 16

// cordicGain compensates for the vector length growth inherent in the
// shift-add rotations; multiplying the final x-component by it yields the
// true magnitude.
const cordicGain = 0.6072529350088812

var (
	cordicAngleTable [cordicIterations]int32 // atan(2^-i) scaled to 2^16 = full circle
)

func init() {
	for i := 0; i < cordicIterations; i++ {
		angle := math.Atan(math.Pow(2, float64(-i)))
		cordicAngleTable[i] = int32(angle / (2 * math.Pi) * 65536.0)
	}
}

// cordicRectangularToPolar converts signed 16-bit rectangular components to
// unsigned 16-bit magnitude and signed 16-bit phase, where a full circle
// maps to 2^16. It never fails; zero input yields zero magnitude and zero
// phase.
func cordicRectangularToPolar(i, q int16) (magnitude uint16, phase int16) {
	x := int32(i)
	y := int32(q)

	if x == 0 && y == 0 {
		return 0, 0
	}

	// The iteration below converges directly for x >= 0 (quadrants 1 and
	// 4); x < 0 (quadrants 2 and 3) needs a +-90 degree pre-rotation first
	// so it stays within CORDIC's convergence range.
	var quadrantAngle int32
	if x < 0 && y >= 0 {
		x, y = y, -x
		quadrantAngle = 16384 // +90 degrees
	} else if x < 0 && y < 0 {
		x, y = -y, x
		quadrantAngle = -16384 // -90 degrees
	}

	var accumulatedAngle int32
	for k := 0; k < cordicIterations; k++ {
		xShift := x >> uint(k)
		yShift := y >> uint(k)
		if y >= 0 {
			x, y = x+yShift, y-xShift
			accumulatedAngle += cordicAngleTable[k]
		} else {
			x, y = x-yShift, y+xShift
			accumulatedAngle -= cordicAngleTable[k]
		}
	}

	magnitude = uint16(float64(x) * cordicGain)
	phase = int16(accumulatedAngle + quadrantAngle)
	return magnitude, phase
}
