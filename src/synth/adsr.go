package synth

import (
	"encoding/json"
	"log"
	"math"
	"strconv"
)

// ----- ADSR Params ----- //

type adsrParams struct {
	attack  *smoothedValue // s
	decay   *smoothedValue // s
	sustain *smoothedValue // 0-1
	release *smoothedValue // s
}
type adsrJSON struct {
	Attack  float64 `json:"attack"`
	Decay   float64 `json:"decay"`
	Sustain float64 `json:"sustain"`
	Release float64 `json:"release"`
}

func newAdsrParams(sampleRate float64) *adsrParams {
	return &adsrParams{
		attack:  newSmoothedValue(sampleRate, 0.01),
		decay:   newSmoothedValue(sampleRate, 0.5),
		sustain: newSmoothedValue(sampleRate, 0.7),
		release: newSmoothedValue(sampleRate, 1.0),
	}
}

func (a *adsrParams) applyJSON(data json.RawMessage) {
	var j adsrJSON
	err := json.Unmarshal(data, &j)
	if err != nil {
		log.Println("failed to apply JSON to adsrParams")
		return
	}
	a.attack.set(clamp(j.Attack, 0, 10))
	a.decay.set(clamp(j.Decay, 0, 10))
	a.sustain.set(clamp(j.Sustain, 0, 1))
	a.release.set(clamp(j.Release, 0, 10))
}
func (a *adsrParams) toJSON() json.RawMessage {
	return toRawMessage(&adsrJSON{
		Attack:  a.attack.value(),
		Decay:   a.decay.value(),
		Sustain: a.sustain.value(),
		Release: a.release.value(),
	})
}
func (a *adsrParams) set(key string, value string) error {
	switch key {
	case "attack":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		a.attack.set(clamp(value, 0, 10))
	case "decay":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		a.decay.set(clamp(value, 0, 10))
	case "sustain":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		a.sustain.set(clamp(value, 0, 1))
	case "release":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		a.release.set(clamp(value, 0, 10))
	}
	return nil
}

// ----- ADSR ----- //

const (
	stageIdle = iota
	stageAttack
	stageDecay
	stageSustain
	stageRelease
)

/*
  1 +     x
    |    / \
  s +   /   x------x
    |  /            \
    | /              \
  0 +-+-----+------+--`--
    |a |d   |      |r |
*/
type adsr struct {
	sampleRate        float64
	stage             int
	level             float64 // 0-1
	samplesElapsed    int
	releaseStartLevel float64
}

func newAdsr(sampleRate float64) *adsr {
	return &adsr{sampleRate: sampleRate}
}

func (a *adsr) noteOn() {
	a.stage = stageAttack
	a.samplesElapsed = 0
}

func (a *adsr) noteOff() {
	if a.stage == stageIdle {
		return
	}
	a.releaseStartLevel = a.level
	a.stage = stageRelease
	a.samplesElapsed = 0
}

func (a *adsr) reset() {
	a.stage = stageIdle
	a.level = 0
	a.samplesElapsed = 0
	a.releaseStartLevel = 0
}

func (a *adsr) isActive() bool {
	return a.stage != stageIdle
}

// process advances the envelope by one sample and returns the new level.
// Stage durations are recomputed from the live parameter values on every
// call, so changing a time mid-stage retimes the remaining portion of that
// stage rather than the whole stage.
func (a *adsr) process(attack float64, decay float64, sustain float64, release float64) float64 {
	a.samplesElapsed++
	switch a.stage {
	case stageIdle:
		a.level = 0
	case stageAttack:
		duration := stageDuration(attack, a.sampleRate)
		if float64(a.samplesElapsed) >= duration {
			a.level = 1
			a.stage = stageDecay
			a.samplesElapsed = 0
		} else {
			progress := float64(a.samplesElapsed) / duration
			a.level = 1 - math.Exp(-5*progress)
		}
	case stageDecay:
		duration := stageDuration(decay, a.sampleRate)
		if float64(a.samplesElapsed) >= duration {
			a.level = sustain
			a.stage = stageSustain
			a.samplesElapsed = 0
		} else {
			progress := float64(a.samplesElapsed) / duration
			a.level = sustain + (1-sustain)*math.Exp(-5*progress)
		}
	case stageSustain:
		a.level = sustain
	case stageRelease:
		duration := stageDuration(release, a.sampleRate)
		if float64(a.samplesElapsed) >= duration {
			a.level = 0
			a.stage = stageIdle
			a.samplesElapsed = 0
		} else {
			progress := float64(a.samplesElapsed) / duration
			a.level = a.releaseStartLevel * math.Exp(-5*progress)
		}
	}
	return a.level
}

// stageDuration floors every stage to one sample so progress is never a
// division by zero.
func stageDuration(seconds float64, sampleRate float64) float64 {
	duration := seconds * sampleRate
	if duration < 1 {
		duration = 1
	}
	return duration
}
