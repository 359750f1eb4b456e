package synth

import (
	"encoding/json"
	"log"
	"math"
	"strconv"
)

// ----- Wave Kind ----- //

const (
	waveSine = iota
	waveSquare
	waveTriangle
	waveSaw
)

func waveKindFromString(s string) int {
	switch s {
	case "sine":
		return waveSine
	case "square":
		return waveSquare
	case "triangle":
		return waveTriangle
	case "saw":
		return waveSaw
	}
	return waveSine
}
func waveKindToString(kind int) string {
	switch kind {
	case waveSine:
		return "sine"
	case waveSquare:
		return "square"
	case waveTriangle:
		return "triangle"
	case waveSaw:
		return "saw"
	}
	return "sine"
}

// generate maps (kind, phase) to a sample in [-1,1]. It keeps no state and
// never wraps phase; callers keep their accumulators inside [0, 2π).
func generate(kind int, phase float64) float64 {
	switch kind {
	case waveSine:
		return math.Sin(phase)
	case waveSquare:
		if positiveMod(phase, 2.0*math.Pi) < math.Pi {
			return 1
		}
		return -1
	case waveTriangle:
		// peak at π/2, trough at 3π/2, continuous at the wrap point
		p := positiveMod(phase/(2.0*math.Pi), 1)
		if p < 0.25 {
			return p * 4
		}
		if p < 0.75 {
			return 2 - p*4
		}
		return p*4 - 4
	case waveSaw:
		p := positiveMod(phase/(2.0*math.Pi), 1)
		return p*2 - 1
	}
	return 0
}

// ----- OSC Params ----- //

type oscParams struct {
	kind         int
	octave       int // -4 ~ 4
	unisonVoices int // 1 ~ 8
	freq         *smoothedValue // Hz
	detune       *smoothedValue // cent
	phase        *smoothedValue // 0-1, one full cycle
	gain         *smoothedValue // 0-1
	unisonDetune *smoothedValue // cent, spread across the stack
	unisonBlend  *smoothedValue // 0-1, center vs stack
	unisonVolume *smoothedValue // 0-1
}
type oscJSON struct {
	Kind         string  `json:"kind"`
	Octave       int     `json:"octave"`
	UnisonVoices int     `json:"unisonVoices"`
	Freq         float64 `json:"freq"`
	Detune       float64 `json:"detune"`
	Phase        float64 `json:"phase"`
	Gain         float64 `json:"gain"`
	UnisonDetune float64 `json:"unisonDetune"`
	UnisonBlend  float64 `json:"unisonBlend"`
	UnisonVolume float64 `json:"unisonVolume"`
}

func newOscParams(sampleRate float64) *oscParams {
	return &oscParams{
		kind:         waveSine,
		octave:       0,
		unisonVoices: 1,
		freq:         newSmoothedValue(sampleRate, 440),
		detune:       newSmoothedValue(sampleRate, 0),
		phase:        newSmoothedValue(sampleRate, 0),
		gain:         newSmoothedValue(sampleRate, 0.5),
		unisonDetune: newSmoothedValue(sampleRate, 0),
		unisonBlend:  newSmoothedValue(sampleRate, 0),
		unisonVolume: newSmoothedValue(sampleRate, 1),
	}
}

func (o *oscParams) applyJSON(data json.RawMessage) {
	var j oscJSON
	err := json.Unmarshal(data, &j)
	if err != nil {
		log.Println("failed to apply JSON to oscParams")
		return
	}
	o.kind = waveKindFromString(j.Kind)
	o.octave = clampInt(j.Octave, -4, 4)
	o.unisonVoices = clampInt(j.UnisonVoices, 1, maxUnison)
	o.freq.set(clamp(j.Freq, 20, 20000))
	o.detune.set(clamp(j.Detune, -100, 100))
	o.phase.set(clamp(j.Phase, 0, 1))
	o.gain.set(clamp(j.Gain, 0, 1))
	o.unisonDetune.set(clamp(j.UnisonDetune, 0, 50))
	o.unisonBlend.set(clamp(j.UnisonBlend, 0, 1))
	o.unisonVolume.set(clamp(j.UnisonVolume, 0, 1))
}
func (o *oscParams) toJSON() json.RawMessage {
	return toRawMessage(&oscJSON{
		Kind:         waveKindToString(o.kind),
		Octave:       o.octave,
		UnisonVoices: o.unisonVoices,
		Freq:         o.freq.value(),
		Detune:       o.detune.value(),
		Phase:        o.phase.value(),
		Gain:         o.gain.value(),
		UnisonDetune: o.unisonDetune.value(),
		UnisonBlend:  o.unisonBlend.value(),
		UnisonVolume: o.unisonVolume.value(),
	})
}
func (o *oscParams) set(key string, value string) error {
	switch key {
	case "kind":
		o.kind = waveKindFromString(value)
	case "octave":
		value, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		o.octave = clampInt(int(value), -4, 4)
	case "unisonVoices":
		value, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		o.unisonVoices = clampInt(int(value), 1, maxUnison)
	case "freq":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		o.freq.set(clamp(value, 20, 20000))
	case "detune":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		o.detune.set(clamp(value, -100, 100))
	case "phase":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		o.phase.set(clamp(value, 0, 1))
	case "gain":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		o.gain.set(clamp(value, 0, 1))
	case "unisonDetune":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		o.unisonDetune.set(clamp(value, 0, 50))
	case "unisonBlend":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		o.unisonBlend.set(clamp(value, 0, 1))
	case "unisonVolume":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		o.unisonVolume.set(clamp(value, 0, 1))
	}
	return nil
}

// ----- Unison OSC ----- //

const maxUnison = 8

type oscVoice struct {
	phase        float64 // [0, 2π)
	detuneOffset float64 // [-1, 1], 0 for the center voice
}

type unisonOsc struct {
	voices     [maxUnison]oscVoice
	numVoices  int
	sampleRate float64
}

func newUnisonOsc(sampleRate float64) *unisonOsc {
	u := &unisonOsc{sampleRate: sampleRate}
	u.setNumVoices(1)
	return u
}

// setNumVoices respaces the detune offsets symmetrically across [-1, 1].
// Phases are left untouched so that changing the count mid-note does not
// click.
func (u *unisonOsc) setNumVoices(n int) {
	if n < 1 {
		n = 1
	}
	if n > maxUnison {
		n = maxUnison
	}
	if n == u.numVoices {
		return
	}
	u.numVoices = n
	if n == 1 {
		u.voices[0].detuneOffset = 0
		return
	}
	half := float64(n-1) / 2
	for i := 0; i < n; i++ {
		u.voices[i].detuneOffset = (float64(i) - half) / half
	}
}

func (u *unisonOsc) resetPhases() {
	for i := range u.voices {
		u.voices[i].phase = 0
	}
}

// process advances every active phase accumulator by one sample and returns
// the blended output. With a single voice this degenerates to a plain
// oscillator with no detune applied.
func (u *unisonOsc) process(kind int, freq float64, detuneCents float64, phaseOffset float64, blend float64, volume float64) float64 {
	if u.numVoices == 1 {
		v := &u.voices[0]
		v.phase = positiveMod(v.phase+freq/u.sampleRate*2.0*math.Pi, 2.0*math.Pi)
		return generate(kind, v.phase+phaseOffset*2.0*math.Pi) * volume
	}
	mono := 0.0
	sum := 0.0
	for i := 0; i < u.numVoices; i++ {
		v := &u.voices[i]
		ratio := math.Pow(2, v.detuneOffset*detuneCents/1200)
		v.phase = positiveMod(v.phase+freq*ratio/u.sampleRate*2.0*math.Pi, 2.0*math.Pi)
		value := generate(kind, v.phase+phaseOffset*2.0*math.Pi)
		if i == 0 {
			mono = value
		}
		sum += value
	}
	unison := sum / float64(u.numVoices)
	return (mono*(1-blend) + unison*blend) * volume
}
