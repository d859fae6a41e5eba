package sstv

// syncSubState is the hsync debouncer's own sub-state, distinct from the
// decoder FSM's top-level state per spec §3's Decoder State field list.
type syncSubState int

const (
	syncDetect syncSubState = iota
	syncConfirm
)

// syncEvent is emitted each time the debouncer confirms an hsync pulse.
type syncEvent struct {
	sampleDelta int64 // samples since the previous sync event
}

// syncDebouncer implements the two-state hsync debouncer from spec §4.3:
// detect/confirm with a 40-sample confirmation threshold, tolerating noise
// spikes without triggering false syncs.
type syncDebouncer struct {
	state        syncSubState
	counter      int
	lastSample   int16
	sampleNumber int64
	lastEventAt  int64
	haveSample   bool
}

const syncConfirmThreshold = 40
const syncThresholdHz = 1400

func newSyncDebouncer() *syncDebouncer {
	return &syncDebouncer{}
}

// update advances the debouncer by one frequency sample and reports a
// syncEvent when 40 consecutive sub-threshold samples confirm an hsync.
func (d *syncDebouncer) update(freqHz int16) (ev syncEvent, ok bool) {
	defer func() {
		d.lastSample = freqHz
		d.haveSample = true
		d.sampleNumber++
	}()

	switch d.state {
	case syncDetect:
		if d.haveSample && freqHz < syncThresholdHz && d.lastSample >= syncThresholdHz {
			d.state = syncConfirm
			d.counter = 1 // the falling-edge sample itself is sub-threshold
		}
		return syncEvent{}, false

	case syncConfirm:
		if freqHz < syncThresholdHz {
			d.counter++
		} else if d.counter > 0 {
			d.counter--
		}
		if d.counter == syncConfirmThreshold {
			delta := d.sampleNumber - d.lastEventAt
			d.lastEventAt = d.sampleNumber
			d.state = syncDetect
			return syncEvent{sampleDelta: delta}, true
		}
		return syncEvent{}, false
	}
	return syncEvent{}, false
}
