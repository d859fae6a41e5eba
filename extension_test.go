package sstv

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestExtensionLifecycle(t *testing.T) {
	ext := NewExtension(DefaultDecoderConfig())
	require.Equal(t, "sstv", ext.GetName())

	audioChan := make(chan []int16, 4)
	resultChan := make(chan []byte, 16)

	require.NoError(t, ext.Start(audioChan, resultChan))
	require.Error(t, ext.Start(audioChan, resultChan), "starting twice must fail")

	audioChan <- []int16{0, 0, 0, 0}
	close(audioChan)

	done := make(chan struct{})
	go func() {
		require.NoError(t, ext.Stop())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return in time")
	}
}

func TestExtensionEmitsImageMessages(t *testing.T) {
	fs := 15000.0
	table := NewModeTable(fs)
	mode, ok := table.ByName("Martin M1")
	require.True(t, ok)

	rgb := make([]uint8, mode.Width*mode.MaxHeight*3)
	for i := range rgb {
		rgb[i] = 100
	}
	src := &ImagePixelSource{Width: mode.Width, Height: mode.MaxHeight, RGB: rgb}
	enc := NewEncoder(EncoderConfig{SampleRate: fs})
	audio := NewSliceSampleSink()
	require.NoError(t, enc.GenerateSSTV(mode, src, audio))

	ext := NewExtension(DefaultDecoderConfig())
	audioChan := make(chan []int16, 1)
	resultChan := make(chan []byte, 4096)
	require.NoError(t, ext.Start(audioChan, resultChan))

	audioChan <- audio.Samples()
	close(audioChan)

	sawImageStart := false
	timeout := time.After(5 * time.Second)
	for !sawImageStart {
		select {
		case msg := <-resultChan:
			if len(msg) > 0 && msg[0] == msgTypeImageStart {
				sawImageStart = true
			}
		case <-timeout:
			t.Fatal("timed out waiting for image-start message")
		}
	}
	require.NoError(t, ext.Stop())
}
