package synth

// ----- Render Frame ----- //

// frame is the per-sample snapshot of every control. The render loop fills
// it once per sample so each smoothed value's next() is called exactly once
// no matter how many voices are sounding.
type oscFrame struct {
	kind         int
	octave       int
	unisonVoices int
	freq         float64
	detune       float64
	phase        float64
	gain         float64
	unisonDetune float64
	unisonBlend  float64
	unisonVolume float64
}

type frame struct {
	osc        [numOscs]oscFrame
	filterKind int
	cutoff     float64
	resonance  float64
	drive      float64
	attack     float64
	decay      float64
	sustain    float64
	release    float64
}

func (fr *frame) advance(p *params) {
	for i := range fr.osc {
		op := p.oscParams[i]
		of := &fr.osc[i]
		of.kind = op.kind
		of.octave = op.octave
		of.unisonVoices = op.unisonVoices
		of.freq = op.freq.next()
		of.detune = op.detune.next()
		of.phase = op.phase.next()
		of.gain = op.gain.next()
		of.unisonDetune = op.unisonDetune.next()
		of.unisonBlend = op.unisonBlend.next()
		of.unisonVolume = op.unisonVolume.next()
	}
	fr.filterKind = p.filterParams.kind
	fr.cutoff = p.filterParams.cutoff.next()
	fr.resonance = p.filterParams.resonance.next()
	fr.drive = p.filterParams.drive.next()
	fr.attack = p.adsrParams.attack.next()
	fr.decay = p.adsrParams.decay.next()
	fr.sustain = p.adsrParams.sustain.next()
	fr.release = p.adsrParams.release.next()
}
