package sstv

import "fmt"

// Family identifies the per-mode sample-to-pixel mapping and wire colour
// ordering a ModeSpec belongs to.
type Family int

const (
	FamilyMartin Family = iota
	FamilyScottie
	FamilyPD
	FamilySC2
	FamilyRobot
	FamilyBW
)

func (f Family) String() string {
	switch f {
	case FamilyMartin:
		return "martin"
	case FamilyScottie:
		return "scottie"
	case FamilyPD:
		return "pd"
	case FamilySC2:
		return "sc2"
	case FamilyRobot:
		return "robot"
	case FamilyBW:
		return "bw"
	default:
		return "unknown"
	}
}

// MarshalYAML implements yaml.Marshaler, following the string-enum pattern
// used for DecoderMode in the receiver's decoder_config.go.
func (f Family) MarshalYAML() (interface{}, error) {
	return f.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler for Family.
func (f *Family) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	switch s {
	case "martin":
		*f = FamilyMartin
	case "scottie":
		*f = FamilyScottie
	case "pd":
		*f = FamilyPD
	case "sc2":
		*f = FamilySC2
	case "robot":
		*f = FamilyRobot
	case "bw":
		*f = FamilyBW
	default:
		return fmt.Errorf("sstv: unknown family %q", s)
	}
	return nil
}

// ColorEncoding identifies the colour space a mode transmits pixels in.
type ColorEncoding int

const (
	ColorRGB ColorEncoding = iota
	ColorGBR
	ColorYCrCb
)

func (c ColorEncoding) String() string {
	switch c {
	case ColorRGB:
		return "rgb"
	case ColorGBR:
		return "gbr"
	case ColorYCrCb:
		return "ycrcb"
	default:
		return "unknown"
	}
}

func (c ColorEncoding) MarshalYAML() (interface{}, error) {
	return c.String(), nil
}

func (c *ColorEncoding) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	switch s {
	case "rgb":
		*c = ColorRGB
	case "gbr":
		*c = ColorGBR
	case "ycrcb":
		*c = ColorYCrCb
	default:
		return fmt.Errorf("sstv: unknown color encoding %q", s)
	}
	return nil
}

// ModeSpec is an immutable per-mode timing and layout descriptor. All
// "samples per ..." fields are fixed256 (scaled by 256) so that line-length
// comparisons in the decoder FSM tolerate sub-sample drift.
type ModeSpec struct {
	Name      string
	VIS       uint8
	Family    Family
	ColorEnc  ColorEncoding
	Width     int
	MaxHeight int

	HsyncMS      float64
	GapMS        float64
	ColourLineMS float64

	SamplesPerLine       fixed256
	SamplesPerColourLine fixed256
	SamplesPerColourGap  fixed256
	SamplesPerHsync      fixed256
	SamplesPerPixel      fixed256
}

// buildModeTable returns the supported modes at sample rate fs, deriving
// each mode's fixed256 sample counts from its millisecond timings. Family
// layouts differ in how many colour/gap/hsync segments compose one line.
func buildModeTable(fs float64) []ModeSpec {
	mk := func(ms float64) fixed256 { return samples256(fs * ms / 1000.0) }

	specs := []ModeSpec{
		{
			Name: "Martin M1", VIS: 44, Family: FamilyMartin, ColorEnc: ColorGBR,
			Width: 320, MaxHeight: 256,
			HsyncMS: 4.862, GapMS: 0.572, ColourLineMS: 146.342,
			// The two reference encoder variants disagree (146.320 vs
			// 146.342 ms); 146.342 is chosen to match both this table and
			// the decoder's own line-length classification window. The
			// "widely published" 146.432 ms figure is not used here
			// pending confirmation against a hardware reference - see
			// DESIGN.md Open Question 1.
		},
		{
			Name: "Martin M2", VIS: 45, Family: FamilyMartin, ColorEnc: ColorGBR,
			Width: 160, MaxHeight: 256,
			HsyncMS: 4.862, GapMS: 0.572, ColourLineMS: 73.216,
		},
		{
			Name: "Scottie S1", VIS: 60, Family: FamilyScottie, ColorEnc: ColorGBR,
			Width: 320, MaxHeight: 256,
			HsyncMS: 9.0, GapMS: 1.5, ColourLineMS: 138.240,
		},
		{
			Name: "Scottie S2", VIS: 61, Family: FamilyScottie, ColorEnc: ColorGBR,
			Width: 160, MaxHeight: 256,
			HsyncMS: 9.0, GapMS: 1.5, ColourLineMS: 88.064,
		},
		{
			Name: "PD-50", VIS: 93, Family: FamilyPD, ColorEnc: ColorYCrCb,
			Width: 320, MaxHeight: 120,
			HsyncMS: 20.0, GapMS: 2.08, ColourLineMS: 91.520,
		},
		{
			Name: "PD-90", VIS: 94, Family: FamilyPD, ColorEnc: ColorYCrCb,
			Width: 320, MaxHeight: 120,
			HsyncMS: 20.0, GapMS: 2.08, ColourLineMS: 170.240,
		},
		{
			Name: "PD-120", VIS: 95, Family: FamilyPD, ColorEnc: ColorYCrCb,
			Width: 640, MaxHeight: 240,
			HsyncMS: 20.0, GapMS: 2.08, ColourLineMS: 121.600,
		},
		{
			Name: "PD-180", VIS: 97, Family: FamilyPD, ColorEnc: ColorYCrCb,
			Width: 640, MaxHeight: 240,
			HsyncMS: 20.0, GapMS: 2.08, ColourLineMS: 183.040,
		},
		{
			Name: "SC2-120", VIS: 63, Family: FamilySC2, ColorEnc: ColorRGB,
			Width: 320, MaxHeight: 256,
			HsyncMS: 5.0, GapMS: 0.0, ColourLineMS: 156.0,
		},
		{
			Name: "Robot 36", VIS: 8, Family: FamilyRobot, ColorEnc: ColorYCrCb,
			Width: 320, MaxHeight: 240,
			HsyncMS: 9.0, GapMS: 3.0, ColourLineMS: 88.0,
		},
		{
			Name: "Robot 72", VIS: 12, Family: FamilyRobot, ColorEnc: ColorYCrCb,
			Width: 320, MaxHeight: 240,
			HsyncMS: 9.0, GapMS: 4.5, ColourLineMS: 138.0,
		},
		{
			// BW VIS codes collide with other published SSTV assignments
			// (see DESIGN.md Open Question 3); preserved unchanged from
			// the reference encoder rather than silently renumbered.
			Name: "BW-8", VIS: 2, Family: FamilyBW, ColorEnc: ColorGBR,
			Width: 320, MaxHeight: 256,
			HsyncMS: 5.5225, GapMS: 0.0, ColourLineMS: 8.0,
		},
		{
			Name: "BW-12", VIS: 6, Family: FamilyBW, ColorEnc: ColorGBR,
			Width: 320, MaxHeight: 256,
			HsyncMS: 5.5225, GapMS: 0.0, ColourLineMS: 12.0,
		},
		{
			Name: "BW-24", VIS: 10, Family: FamilyBW, ColorEnc: ColorGBR,
			Width: 320, MaxHeight: 256,
			HsyncMS: 5.5225, GapMS: 0.0, ColourLineMS: 24.0,
		},
		{
			Name: "BW-36", VIS: 14, Family: FamilyBW, ColorEnc: ColorGBR,
			Width: 320, MaxHeight: 256,
			HsyncMS: 5.5225, GapMS: 0.0, ColourLineMS: 36.0,
		},
	}

	// Formulas below mirror original_source/sstv_library/sstv_decoder.cpp's
	// per-mode construction exactly: SamplesPerColourLine already folds in
	// the inter-colour gap for Martin/Scottie (the reference decoder's
	// sample_to_pixel decomposes a line using samples_per_colour_line
	// alone, so the gap has to live inside it or the colour boundaries
	// drift); PD and SC2 keep colour_line as pure colour time. For PD,
	// sampleToPixel subtracts only the leading hsync, not the gap after it;
	// for SC2 it subtracts nothing before the first colour band.
	for i := range specs {
		s := &specs[i]
		s.SamplesPerHsync = mk(s.HsyncMS)
		s.SamplesPerColourGap = mk(s.GapMS)
		s.SamplesPerPixel = mk(s.ColourLineMS / float64(s.Width))

		switch s.Family {
		case FamilyMartin:
			s.SamplesPerColourLine = mk(s.ColourLineMS + s.GapMS)
			s.SamplesPerLine = mk(s.ColourLineMS*3 + s.GapMS*4 + s.HsyncMS)
		case FamilyScottie:
			s.SamplesPerColourLine = mk(s.ColourLineMS + s.GapMS)
			s.SamplesPerLine = mk(s.ColourLineMS*3 + s.GapMS*3 + s.HsyncMS)
		case FamilyPD:
			s.SamplesPerColourLine = mk(s.ColourLineMS)
			s.SamplesPerLine = mk(s.ColourLineMS*4 + s.GapMS + s.HsyncMS)
		case FamilySC2:
			s.SamplesPerColourLine = mk(s.ColourLineMS)
			s.SamplesPerLine = mk(s.ColourLineMS*3 + s.HsyncMS)
		case FamilyBW:
			// hsync then a single Y-only pixel line, no inter-component
			// gaps - the simplest family, with no decoder reference
			// needed beyond the encoder's generate_bw structure.
			s.SamplesPerColourLine = mk(s.ColourLineMS)
			s.SamplesPerLine = mk(s.ColourLineMS + s.HsyncMS)
		case FamilyRobot:
			// Robot has no reference decoder in original_source/ (the
			// excerpted c_sstv_decoder only implements Martin/Scottie/
			// PD/SC2); this layout is designed from the family table in
			// spec.md §3 (hsync, Y, gap, Cb, [gap, Cr], per-row,
			// alternating) and kept symmetric with encodeRobot in
			// encoder.go. Chroma is sent at half horizontal resolution,
			// each chroma pixel lasting two luma pixel periods, so the
			// chroma segment is as long as the Y segment and a line is
			// hsync + Y + gap + chroma.
			s.SamplesPerColourLine = mk(s.ColourLineMS)
			s.SamplesPerLine = mk(s.HsyncMS + s.ColourLineMS + s.GapMS + s.ColourLineMS)
		}
	}
	return specs
}

// ModeTable holds the immutable set of modes the codec supports at a given
// sample rate (the fixed256 fields are Fs-dependent, so the table is built
// per instance rather than shared as a single package-level slice).
type ModeTable struct {
	fs    float64
	modes []ModeSpec
}

// NewModeTable builds the mode table for the given sample rate. The table
// is immutable after construction.
func NewModeTable(fs float64) *ModeTable {
	return &ModeTable{fs: fs, modes: buildModeTable(fs)}
}

func (t *ModeTable) Modes() []ModeSpec {
	return t.modes
}

// ByVIS returns the mode with the given VIS code, if any.
func (t *ModeTable) ByVIS(vis uint8) (ModeSpec, bool) {
	for _, m := range t.modes {
		if m.VIS == vis {
			return m, true
		}
	}
	return ModeSpec{}, false
}

// ByName returns the mode with the given name, if any.
func (t *ModeTable) ByName(name string) (ModeSpec, bool) {
	for _, m := range t.modes {
		if m.Name == name {
			return m, true
		}
	}
	return ModeSpec{}, false
}

// ClassifyLineLength returns the mode whose SamplesPerLine lies within ±1%
// of the observed length (in raw, un-scaled samples), choosing the minimum
// absolute-error candidate. Returns false if no mode matches.
func (t *ModeTable) ClassifyLineLength(observedSamples int64) (ModeSpec, bool) {
	var best ModeSpec
	var bestErr int64 = -1
	found := false
	for _, m := range t.modes {
		nominal := int64(m.SamplesPerLine) >> 8
		lower := (99 * nominal) / 100
		upper := (101 * nominal) / 100
		if observedSamples < lower || observedSamples > upper {
			continue
		}
		errAbs := observedSamples - nominal
		if errAbs < 0 {
			errAbs = -errAbs
		}
		if !found || errAbs < bestErr {
			best = m
			bestErr = errAbs
			found = true
		}
	}
	return best, found
}
