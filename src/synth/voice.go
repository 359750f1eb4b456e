package synth

// ----- Voice ----- //

const numOscs = 3

// voice is one polyphonic note's complete signal chain. Voices are built
// once at pool construction and reused for the life of the process; noteOn
// reinitializes state instead of allocating.
type voice struct {
	active     bool
	note       int
	velocity   float64 // 0-1
	baseFreq   float64 // Hz
	generation uint64  // stamped by the pool at noteOn
	oscs       [numOscs]*unisonOsc
	filter     *filter
	adsr       *adsr
}

func newVoice(sampleRate float64) *voice {
	v := &voice{
		filter: newFilter(sampleRate),
		adsr:   newAdsr(sampleRate),
	}
	for i := range v.oscs {
		v.oscs[i] = newUnisonOsc(sampleRate)
	}
	return v
}

func (v *voice) noteOn(note int, velocity float64, generation uint64) {
	v.active = true
	v.note = note
	v.velocity = clamp(velocity, 0, 1)
	v.baseFreq = noteToFreq(note)
	v.generation = generation
	for _, u := range v.oscs {
		u.resetPhases()
	}
	v.filter.reset()
	v.adsr.noteOn()
}

// noteOff starts the release; the voice keeps rendering until the envelope
// reaches idle on its own.
func (v *voice) noteOff() {
	v.adsr.noteOff()
}

// choke silences the voice immediately, bypassing the release stage.
func (v *voice) choke() {
	v.active = false
	v.adsr.reset()
}
