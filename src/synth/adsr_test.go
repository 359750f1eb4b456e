package synth

import (
	"math"
	"testing"
)

func TestAdsrIdleIsSilent(t *testing.T) {
	a := newAdsr(44100)
	for i := 0; i < 100; i++ {
		if got := a.process(0.01, 0.1, 0.7, 0.2); got != 0 {
			t.Fatalf("idle level: got %v, want 0", got)
		}
	}
	if a.isActive() {
		t.Error("idle envelope reported active")
	}
}

func TestAdsrAttackReachesOne(t *testing.T) {
	sr := 44100.0
	a := newAdsr(sr)
	a.noteOn()
	attack := 0.01
	duration := int(attack * sr)
	level := 0.0
	calls := 0
	for a.stage == stageAttack {
		next := a.process(attack, 0.5, 0.7, 0.2)
		calls++
		if a.stage == stageAttack && next <= level {
			t.Fatalf("attack not rising at sample %d: %v <= %v", calls, next, level)
		}
		level = next
		if calls > duration+2 {
			t.Fatalf("attack did not complete within %d samples", duration+2)
		}
	}
	if calls < duration {
		t.Errorf("attack completed early: %d calls, want at least %d", calls, duration)
	}
	if level != 1 {
		t.Errorf("attack completion level: got %v, want 1", level)
	}
	if a.stage != stageDecay {
		t.Errorf("stage after attack: got %d, want %d", a.stage, stageDecay)
	}
}

func TestAdsrDecaySettlesAtSustain(t *testing.T) {
	sr := 44100.0
	a := newAdsr(sr)
	a.noteOn()
	sustain := 0.6
	for i := 0; i < int(0.01*sr)+int(0.05*sr)+10; i++ {
		a.process(0.01, 0.05, sustain, 0.2)
	}
	if a.stage != stageSustain {
		t.Fatalf("stage: got %d, want %d", a.stage, stageSustain)
	}
	if got := a.process(0.01, 0.05, sustain, 0.2); got != sustain {
		t.Errorf("sustain level: got %v, want %v", got, sustain)
	}
}

func TestAdsrReleaseEndsIdle(t *testing.T) {
	sr := 44100.0
	a := newAdsr(sr)
	a.noteOn()
	for i := 0; i < int(0.2*sr); i++ {
		a.process(0.01, 0.05, 0.6, 0.1)
	}
	a.noteOff()
	if a.stage != stageRelease {
		t.Fatalf("stage after noteOff: got %d, want %d", a.stage, stageRelease)
	}
	for i := 0; i <= int(0.1*sr); i++ {
		a.process(0.01, 0.05, 0.6, 0.1)
	}
	if a.isActive() {
		t.Error("envelope still active after release completed")
	}
	if a.level != 0 {
		t.Errorf("level after release: got %v, want 0", a.level)
	}
}

func TestAdsrReleaseFromAttackStartsAtCurrentLevel(t *testing.T) {
	sr := 44100.0
	a := newAdsr(sr)
	a.noteOn()
	for i := 0; i < 50; i++ {
		a.process(1.0, 0.05, 0.6, 0.5)
	}
	before := a.level
	if before <= 0 || before >= 1 {
		t.Fatalf("expected mid-attack level, got %v", before)
	}
	a.noteOff()
	got := a.process(1.0, 0.05, 0.6, 0.5)
	if got > before {
		t.Errorf("release rose above the captured level: %v > %v", got, before)
	}
	want := before * math.Exp(-5/(0.5*sr))
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("release curve: got %v, want %v", got, want)
	}
}

func TestAdsrNoteOffWhileIdleIsNoop(t *testing.T) {
	a := newAdsr(44100)
	a.noteOff()
	if a.stage != stageIdle {
		t.Errorf("stage: got %d, want %d", a.stage, stageIdle)
	}
}

func TestAdsrRetriggerRestartsAttack(t *testing.T) {
	a := newAdsr(44100)
	a.noteOn()
	for i := 0; i < 1000; i++ {
		a.process(0.001, 0.05, 0.6, 0.2)
	}
	a.noteOn()
	if a.stage != stageAttack || a.samplesElapsed != 0 {
		t.Errorf("retrigger: stage %d elapsed %d", a.stage, a.samplesElapsed)
	}
}

func TestAdsrZeroTimesSnapImmediately(t *testing.T) {
	a := newAdsr(44100)
	a.noteOn()
	if got := a.process(0, 0, 0.5, 0); got != 1 {
		t.Errorf("zero attack: got %v, want 1", got)
	}
	if got := a.process(0, 0, 0.5, 0); got != 0.5 {
		t.Errorf("zero decay: got %v, want 0.5", got)
	}
	a.noteOff()
	if got := a.process(0, 0, 0.5, 0); got != 0 {
		t.Errorf("zero release: got %v, want 0", got)
	}
	if a.isActive() {
		t.Error("still active after instant release")
	}
}
