package sstv

// DecoderConfig carries the tunable, non-algorithmic knobs of the decoder
// FSM. Following decoder_config.go's DefaultXConfig convention, zero values
// are never relied upon directly - always go through DefaultDecoderConfig.
type DecoderConfig struct {
	// SampleRate is the audio sample rate in Hz; default 15000 per spec §6.
	SampleRate float64 `yaml:"sample_rate"`

	// SlantCorrection enables the quarter-weight IIR tracking of
	// mean_samples_per_line during decode_line.
	SlantCorrection bool `yaml:"slant_correction"`

	// DecodeFSKID enables the optional post-image FSK callsign decode
	// path (see fskid.go); never required for image decode.
	DecodeFSKID bool `yaml:"decode_fsk_id"`

	// SyncTimeoutSeconds bounds how long the decoder waits for the next
	// hsync before aborting back to detect_sync; default 30s per spec §5.
	SyncTimeoutSeconds float64 `yaml:"sync_timeout_seconds"`
}

// DefaultDecoderConfig returns the decoder configuration spec §5/§6
// describe as defaults.
func DefaultDecoderConfig() DecoderConfig {
	return DecoderConfig{
		SampleRate:         15000,
		SlantCorrection:    true,
		DecodeFSKID:        false,
		SyncTimeoutSeconds: 30,
	}
}

// EncoderConfig carries the tunable knobs of the encoder FSM.
type EncoderConfig struct {
	SampleRate float64 `yaml:"sample_rate"`
}

// DefaultEncoderConfig returns the encoder configuration defaults.
func DefaultEncoderConfig() EncoderConfig {
	return EncoderConfig{
		SampleRate: 15000,
	}
}
