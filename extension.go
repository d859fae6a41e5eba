package sstv

import (
	"encoding/binary"
	"fmt"
	"log"
	"sync"
)

// AudioExtension is the channel-driven processor shape audio sources push
// PCM into and pull framed results out of, grounded on
// audio_extensions/sstv/extension.go and register.go's AudioExtension
// interface.
type AudioExtension interface {
	Start(audioChan <-chan []int16, resultChan chan<- []byte) error
	Stop() error
	GetName() string
}

// Message type tags for the binary result protocol, grounded on
// audio_extensions/sstv/decoder.go's MsgType* constants but redefined
// against this package's own Decoder/PixelSink semantics.
const (
	msgTypeStatus       = 0x01
	msgTypeModeDetected = 0x02
	msgTypeImageStart   = 0x03
	msgTypeImageLine    = 0x04
	msgTypeComplete     = 0x05
	msgTypeFSKID        = 0x06
)

// Extension wraps a Decoder as an AudioExtension, feeding it from a
// streamed audio channel and emitting framed binary messages (mode
// detection, image rows, completion) on the result channel instead of
// returning a reconstructed image synchronously.
type Extension struct {
	cfg DecoderConfig

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewExtension builds an Extension around the given decoder configuration.
func NewExtension(cfg DecoderConfig) *Extension {
	return &Extension{cfg: cfg}
}

// GetName identifies this extension to the host's registry.
func (e *Extension) GetName() string {
	return "sstv"
}

// Start launches the decode loop in the background. It returns
// immediately; results are delivered asynchronously over resultChan.
func (e *Extension) Start(audioChan <-chan []int16, resultChan chan<- []byte) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return fmt.Errorf("sstv: extension already running")
	}
	e.running = true
	e.stopChan = make(chan struct{})
	e.mu.Unlock()

	e.wg.Add(1)
	go e.run(audioChan, resultChan)
	return nil
}

// Stop signals the decode loop to exit and waits for it to finish.
func (e *Extension) Stop() error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return nil
	}
	stopChan := e.stopChan
	e.mu.Unlock()

	close(stopChan)
	e.wg.Wait()

	e.mu.Lock()
	e.running = false
	e.mu.Unlock()
	return nil
}

func (e *Extension) run(audioChan <-chan []int16, resultChan chan<- []byte) {
	defer e.wg.Done()

	source := newChannelSampleSource(audioChan, e.stopChan)
	sink := &messageSink{resultChan: resultChan}

	for {
		select {
		case <-e.stopChan:
			return
		default:
		}

		dec := NewDecoder(e.cfg)
		sendStatus(resultChan, "waiting for signal")
		completed, mode, err := dec.DecodeImage(source, sink)
		if source.closed {
			return
		}
		if err != nil {
			log.Printf("[sstv] extension decode error: %v", err)
			continue
		}
		if completed {
			sendComplete(resultChan, mode)
			if callsign := dec.LastFSKID(); callsign != "" {
				sendFSKID(resultChan, callsign)
			}
		}
	}
}

// channelSampleSource adapts a streamed audio channel to SampleSource,
// blocking until a sample is available, the channel closes, or Stop fires.
type channelSampleSource struct {
	audioChan <-chan []int16
	stopChan  <-chan struct{}
	buf       []int16
	pos       int
	closed    bool
}

func newChannelSampleSource(audioChan <-chan []int16, stopChan <-chan struct{}) *channelSampleSource {
	return &channelSampleSource{audioChan: audioChan, stopChan: stopChan}
}

func (s *channelSampleSource) NextSample() (int16, bool) {
	for s.pos >= len(s.buf) {
		select {
		case <-s.stopChan:
			s.closed = true
			return 0, false
		case chunk, ok := <-s.audioChan:
			if !ok {
				s.closed = true
				return 0, false
			}
			s.buf = chunk
			s.pos = 0
		}
	}
	v := s.buf[s.pos]
	s.pos++
	return v, true
}

// messageSink adapts the decoder's PixelSink callbacks to the binary result
// protocol, framing each row as [type][y:4][width:4][rgb565 row].
type messageSink struct {
	resultChan chan<- []byte
}

func (s *messageSink) Open(name string, width, height int) error {
	msg := make([]byte, 9)
	msg[0] = msgTypeImageStart
	binary.BigEndian.PutUint32(msg[1:5], uint32(width))
	binary.BigEndian.PutUint32(msg[5:9], uint32(height))
	send(s.resultChan, msg)

	nameBytes := []byte(name)
	modeMsg := make([]byte, 2+len(nameBytes))
	modeMsg[0] = msgTypeModeDetected
	modeMsg[1] = uint8(len(nameBytes))
	copy(modeMsg[2:], nameBytes)
	send(s.resultChan, modeMsg)
	return nil
}

func (s *messageSink) WriteRow(row []uint16, y, width, height int) error {
	msg := make([]byte, 1+4+4+len(row)*2)
	msg[0] = msgTypeImageLine
	binary.BigEndian.PutUint32(msg[1:5], uint32(y))
	binary.BigEndian.PutUint32(msg[5:9], uint32(width))
	for i, px := range row {
		binary.BigEndian.PutUint16(msg[9+i*2:11+i*2], px)
	}
	send(s.resultChan, msg)
	return nil
}

func (s *messageSink) Close() error {
	return nil
}

func sendStatus(resultChan chan<- []byte, status string) {
	statusBytes := []byte(status)
	msg := make([]byte, 3+len(statusBytes))
	msg[0] = msgTypeStatus
	binary.BigEndian.PutUint16(msg[1:3], uint16(len(statusBytes)))
	copy(msg[3:], statusBytes)
	send(resultChan, msg)
}

func sendFSKID(resultChan chan<- []byte, callsign string) {
	callsignBytes := []byte(callsign)
	msg := make([]byte, 2+len(callsignBytes))
	msg[0] = msgTypeFSKID
	msg[1] = uint8(len(callsignBytes))
	copy(msg[2:], callsignBytes)
	send(resultChan, msg)
}

func sendComplete(resultChan chan<- []byte, mode ModeSpec) {
	nameBytes := []byte(mode.Name)
	msg := make([]byte, 2+len(nameBytes))
	msg[0] = msgTypeComplete
	msg[1] = uint8(len(nameBytes))
	copy(msg[2:], nameBytes)
	send(resultChan, msg)
}

func send(resultChan chan<- []byte, msg []byte) {
	select {
	case resultChan <- msg:
	default:
		// result consumer fell behind; drop rather than block decoding.
	}
}
