package synth

import (
	"encoding/json"
	"log"
	"math"
	"strconv"
)

// ----- Filter Kind ----- //

const (
	filterLowPass = iota
	filterHighPass
	filterBandPass
	filterNotch
)

func filterKindFromString(s string) int {
	switch s {
	case "lowpass":
		return filterLowPass
	case "highpass":
		return filterHighPass
	case "bandpass":
		return filterBandPass
	case "notch":
		return filterNotch
	}
	return filterLowPass
}
func filterKindToString(kind int) string {
	switch kind {
	case filterLowPass:
		return "lowpass"
	case filterHighPass:
		return "highpass"
	case filterBandPass:
		return "bandpass"
	case filterNotch:
		return "notch"
	}
	return "lowpass"
}

// ----- Filter Params ----- //

type filterParams struct {
	kind      int
	cutoff    *smoothedValue // Hz
	resonance *smoothedValue // 0-1
	drive     *smoothedValue // 1 is neutral
}
type filterJSON struct {
	Kind      string  `json:"kind"`
	Cutoff    float64 `json:"cutoff"`
	Resonance float64 `json:"resonance"`
	Drive     float64 `json:"drive"`
}

func newFilterParams(sampleRate float64) *filterParams {
	return &filterParams{
		kind:      filterLowPass,
		cutoff:    newSmoothedValue(sampleRate, 20000),
		resonance: newSmoothedValue(sampleRate, 0),
		drive:     newSmoothedValue(sampleRate, 1),
	}
}

func (f *filterParams) applyJSON(data json.RawMessage) {
	var j filterJSON
	err := json.Unmarshal(data, &j)
	if err != nil {
		log.Println("failed to apply JSON to filterParams")
		return
	}
	f.kind = filterKindFromString(j.Kind)
	f.cutoff.set(clamp(j.Cutoff, 20, 20000))
	f.resonance.set(clamp(j.Resonance, 0, 1))
	f.drive.set(clamp(j.Drive, 0, 10))
}
func (f *filterParams) toJSON() json.RawMessage {
	return toRawMessage(&filterJSON{
		Kind:      filterKindToString(f.kind),
		Cutoff:    f.cutoff.value(),
		Resonance: f.resonance.value(),
		Drive:     f.drive.value(),
	})
}
func (f *filterParams) set(key string, value string) error {
	switch key {
	case "kind":
		f.kind = filterKindFromString(value)
	case "cutoff":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		f.cutoff.set(clamp(value, 20, 20000))
	case "resonance":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		f.resonance.set(clamp(value, 0, 1))
	case "drive":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		f.drive.set(clamp(value, 0, 10))
	}
	return nil
}

// ----- Filter ----- //

// A single biquad stage, Direct Form I, with a drive stage in front.
// Coefficients are stored already normalized by a0.
type filter struct {
	sampleRate     float64
	b0, b1, b2     float64
	a1, a2         float64
	x1, x2, y1, y2 float64
}

func newFilter(sampleRate float64) *filter {
	f := &filter{sampleRate: sampleRate}
	f.setCoefficients(filterLowPass, 20000, 0)
	return f
}

// setCoefficients derives the RBJ cookbook coefficients for the given mode.
// cutoff is clamped below 0.49·sampleRate to stay under Nyquist; the Q floor
// of 0.5 keeps alpha away from degenerate values.
func (f *filter) setCoefficients(kind int, cutoff float64, resonance float64) {
	cutoff = clamp(cutoff, 20, 0.49*f.sampleRate)
	q := clamp(resonance, 0, 1)*10 + 0.5
	w0 := 2 * math.Pi * cutoff / f.sampleRate
	cosW0 := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)
	var b0, b1, b2 float64
	switch kind {
	case filterLowPass:
		b0 = (1 - cosW0) / 2
		b1 = 1 - cosW0
		b2 = (1 - cosW0) / 2
	case filterHighPass:
		b0 = (1 + cosW0) / 2
		b1 = -(1 + cosW0)
		b2 = (1 + cosW0) / 2
	case filterBandPass:
		b0 = alpha
		b1 = 0
		b2 = -alpha
	case filterNotch:
		b0 = 1
		b1 = -2 * cosW0
		b2 = 1
	}
	a0 := 1 + alpha
	f.b0 = b0 / a0
	f.b1 = b1 / a0
	f.b2 = b2 / a0
	f.a1 = -2 * cosW0 / a0
	f.a2 = (1 - alpha) / a0
}

// process runs the drive stage and one step of the difference equation.
// drive <= 1 is a plain linear gain; above 1 the tanh soft clip kicks in,
// scaled so that drive == 1 stays the identity.
func (f *filter) process(in float64, drive float64) float64 {
	if drive > 1 {
		in = math.Tanh(in*drive) / math.Tanh(drive)
	} else {
		in *= drive
	}
	out := f.b0*in + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
	f.x2 = f.x1
	f.x1 = in
	f.y2 = f.y1
	f.y1 = out
	return out
}

// reset clears the delay line so a reused voice does not leak the previous
// note's filter tail.
func (f *filter) reset() {
	f.x1 = 0
	f.x2 = 0
	f.y1 = 0
	f.y2 = 0
}
