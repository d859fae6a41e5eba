package sstv

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestSyncDebounce is property 7: a 39-sample sub-threshold excursion must
// not confirm a sync event, a 40-sample excursion must.
func TestSyncDebounce(t *testing.T) {
	run := func(excursionLen int) bool {
		d := newSyncDebouncer()
		d.update(2000) // above threshold, establishes lastSample
		d.update(1300) // falling edge, enters confirm
		gotEvent := false
		for i := 0; i < excursionLen-1; i++ {
			_, ok := d.update(1300)
			if ok {
				gotEvent = true
			}
		}
		return gotEvent
	}

	require.False(t, run(39), "39-sample excursion must not confirm a sync")
	require.True(t, run(40), "40-sample excursion must confirm a sync")
}

func TestSyncDebounceNoiseTolerance(t *testing.T) {
	d := newSyncDebouncer()
	d.update(2000)
	d.update(1300)
	for i := 0; i < 20; i++ {
		d.update(1300)
	}
	// A brief return above threshold decrements, not resets, the counter.
	_, gotEvent := d.update(1600)
	require.False(t, gotEvent)
	confirmed := false
	for i := 0; i < 39; i++ {
		_, ok := d.update(1300)
		if ok {
			confirmed = true
		}
	}
	require.True(t, confirmed, "counter decrement should not force a full restart")
}
