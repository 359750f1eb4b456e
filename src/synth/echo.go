package synth

import (
	"encoding/json"
	"log"
	"strconv"
)

// ----- Delay ----- //

type delay struct {
	cursor int
	past   []float64
}

func newDelay(sampleRate float64, maxMillis float64) *delay {
	return &delay{
		past: make([]float64, int(sampleRate*maxMillis/1000)),
	}
}

// setLength resizes within the pre-allocated buffer; the ring is never
// reallocated on the render path.
func (d *delay) setLength(sampleRate float64, millis float64) {
	if millis < 10 {
		millis = 10
	}
	length := int(sampleRate * millis / 1000)
	if length > cap(d.past) {
		length = cap(d.past)
	}
	d.past = d.past[0:length]
	if d.cursor >= len(d.past) {
		d.cursor = 0
	}
}

func (d *delay) step(in float64) {
	d.past[d.cursor] = in
	d.cursor++
	if d.cursor >= len(d.past) {
		d.cursor = 0
	}
}
func (d *delay) getDelayed() float64 {
	return d.past[d.cursor]
}

// ----- Echo ----- //

type echoParams struct {
	enabled      bool
	delay        float64 // ms
	feedbackGain float64 // [0,1)
	mix          float64 // [0,1]
}

type echoJSON struct {
	Enabled      bool    `json:"enabled"`
	Delay        float64 `json:"delay"`
	FeedbackGain float64 `json:"feedbackGain"`
	Mix          float64 `json:"mix"`
}

func (l *echoParams) applyJSON(data json.RawMessage) {
	var j echoJSON
	err := json.Unmarshal(data, &j)
	if err != nil {
		log.Println("failed to apply JSON to echoParams")
		return
	}
	l.enabled = j.Enabled
	l.delay = clamp(j.Delay, 0, maxEchoMillis)
	l.feedbackGain = clamp(j.FeedbackGain, 0, 0.99)
	l.mix = clamp(j.Mix, 0, 1)
}
func (l *echoParams) toJSON() json.RawMessage {
	return toRawMessage(&echoJSON{
		Enabled:      l.enabled,
		Delay:        l.delay,
		FeedbackGain: l.feedbackGain,
		Mix:          l.mix,
	})
}
func (l *echoParams) set(key string, value string) error {
	switch key {
	case "enabled":
		l.enabled = value == "true"
	case "delay":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		l.delay = clamp(value, 0, maxEchoMillis)
	case "feedbackGain":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		l.feedbackGain = clamp(value, 0, 0.99)
	case "mix":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		l.mix = clamp(value, 0, 1)
	}
	return nil
}

const maxEchoMillis = 2000

// echo is the optional master effect after the soft clip; disabled it is a
// strict pass-through.
type echo struct {
	sampleRate   float64
	enabled      bool
	delay        *delay
	feedbackGain float64
	mix          float64
}

func newEcho(sampleRate float64) *echo {
	return &echo{
		sampleRate: sampleRate,
		delay:      newDelay(sampleRate, maxEchoMillis),
	}
}

func (e *echo) applyParams(p *echoParams) {
	e.enabled = p.enabled
	e.delay.setLength(e.sampleRate, p.delay)
	e.feedbackGain = p.feedbackGain
	e.mix = p.mix
}

func (e *echo) step(in float64) float64 {
	if !e.enabled {
		return in
	}
	delayed := e.delay.getDelayed()
	e.delay.step(in + delayed*e.feedbackGain)
	return in + delayed*e.mix
}
