package synth

// ----- Smoothed Value ----- //

// Continuous controls never jump straight to a new setting; each call to
// next() moves the current value a fixed fraction of the remaining distance
// so per-sample consumers hear a short ramp instead of a step.
const smoothingTime = 0.05 // s

type smoothedValue struct {
	sampleRate float64
	target     float64
	current    float64
}

func newSmoothedValue(sampleRate float64, initial float64) *smoothedValue {
	return &smoothedValue{
		sampleRate: sampleRate,
		target:     initial,
		current:    initial,
	}
}

// set changes the target; the ramp starts from wherever current happens to be.
func (sv *smoothedValue) set(target float64) {
	sv.target = target
}

// reset jumps to value immediately, skipping the ramp.
func (sv *smoothedValue) reset(value float64) {
	sv.target = value
	sv.current = value
}

// value returns the raw, uninterpolated target.
func (sv *smoothedValue) value() float64 {
	return sv.target
}

// next returns one interpolated scalar; call it exactly once per sample.
func (sv *smoothedValue) next() float64 {
	totalSamples := smoothingTime * sv.sampleRate
	if totalSamples < 1 {
		totalSamples = 1
	}
	sv.current += (sv.target - sv.current) / totalSamples
	return sv.current
}
