package synth

import (
	"math"
)

// ----- Voice Pool ----- //

const maxPoly = 16

// voicePool is a fixed arena of voices; nothing is ever added or removed,
// stealing just reassigns an existing voice's identity.
type voicePool struct {
	voices     [maxPoly]*voice
	generation uint64
	frame      frame
}

func newVoicePool(sampleRate float64) *voicePool {
	p := &voicePool{}
	for i := range p.voices {
		p.voices[i] = newVoice(sampleRate)
	}
	return p
}

// noteOn picks a free voice, or steals the least recently triggered one.
// The generation counter is stamped once per noteOn, so the comparison is
// true trigger order regardless of what envelope stage a voice is in; ties
// keep pool order.
func (p *voicePool) noteOn(note int, velocity float64) *voice {
	var target *voice
	for _, v := range p.voices {
		if !v.active {
			target = v
			break
		}
	}
	if target == nil {
		for _, v := range p.voices {
			if target == nil || v.generation < target.generation {
				target = v
			}
		}
	}
	p.generation++
	target.noteOn(note, velocity, p.generation)
	return target
}

// noteOff releases every voice holding the note; the same pitch can be
// sounding on several voices after a steal race.
func (p *voicePool) noteOff(note int) {
	for _, v := range p.voices {
		if v.active && v.note == note {
			v.noteOff()
		}
	}
}

// choke hard-mutes everything, bypassing release.
func (p *voicePool) choke() {
	for _, v := range p.voices {
		v.choke()
	}
}

func (p *voicePool) activeCount() int {
	count := 0
	for _, v := range p.voices {
		if v.active {
			count++
		}
	}
	return count
}

// calc renders one block. Queued events are applied in arrival order before
// the first sample; nothing on this path allocates.
func (p *voicePool) calc(events []interface{}, prm *params, e *echo, out []float64) {
	e.applyParams(prm.echoParams)
	for _, event := range events {
		switch data := event.(type) {
		case *noteOn:
			if data.velocity > 0 {
				p.noteOn(data.note, data.velocity)
			} else {
				p.noteOff(data.note)
			}
		case *noteOff:
			p.noteOff(data.note)
		case *choke:
			p.choke()
		}
	}
	for i := range out {
		p.frame.advance(prm)
		sample := 0.0
		for _, v := range p.voices {
			if !v.active {
				continue
			}
			sample += p.stepVoice(v, &p.frame)
		}
		out[i] = e.step(math.Tanh(sample) * 0.5)
	}
}

// stepVoice runs one voice's full chain for one sample: three unison banks
// into the filter, scaled by envelope and velocity. The voice is retired
// the moment its envelope goes idle, making it reusable from the next
// sample on.
func (p *voicePool) stepVoice(v *voice, fr *frame) float64 {
	value := 0.0
	for i, u := range v.oscs {
		of := &fr.osc[i]
		u.setNumVoices(of.unisonVoices)
		freq := v.baseFreq * math.Pow(2, float64(of.octave)) * (of.freq / 440.0) * math.Pow(2, of.detune/1200)
		value += u.process(of.kind, freq, of.unisonDetune, of.phase, of.unisonBlend, of.unisonVolume) * of.gain
	}
	v.filter.setCoefficients(fr.filterKind, fr.cutoff, fr.resonance)
	value = v.filter.process(value, fr.drive)
	value *= v.adsr.process(fr.attack, fr.decay, fr.sustain, fr.release) * v.velocity
	if !v.adsr.isActive() {
		v.active = false
	}
	return value
}
