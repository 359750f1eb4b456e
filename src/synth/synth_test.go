package synth

import (
	"context"
	"math"
	"strings"
	"testing"
)

func newTestSynth() *Synth {
	return &Synth{
		ctx:    context.Background(),
		state:  newState(),
		events: newEventQueue(),
	}
}

func TestRenderSineTrace(t *testing.T) {
	sr := float64(sampleRate)
	prm := newParams(sr)
	prm.oscParams[0].gain.reset(1)
	prm.oscParams[1].gain.reset(0)
	prm.oscParams[2].gain.reset(0)
	prm.adsrParams.attack.reset(0)
	prm.adsrParams.sustain.reset(1)
	pool := newVoicePool(sr)
	e := newEcho(sr)
	out := make([]float64, 256)
	pool.calc([]interface{}{&noteOn{note: 69, velocity: 1}}, prm, e, out)

	ref := newFilter(sr)
	ref.setCoefficients(filterLowPass, 20000, 0)
	phase := 0.0
	for n, got := range out {
		phase = positiveMod(phase+440/sr*2*math.Pi, 2*math.Pi)
		want := math.Tanh(ref.process(math.Sin(phase), 1)) * 0.5
		if math.Abs(got-want) > 1e-9 {
			t.Fatalf("sample %d: got %v, want %v", n, got, want)
		}
	}
}

func TestSynthUpdateSetsParams(t *testing.T) {
	s := newTestSynth()
	expectNoError(t, s.update([]string{"set", "osc", "0", "kind", "saw"}))
	if s.state.params.oscParams[0].kind != waveSaw {
		t.Error("osc kind not applied")
	}
	expectNoError(t, s.update([]string{"set", "osc", "1", "unisonVoices", "5"}))
	if s.state.params.oscParams[1].unisonVoices != 5 {
		t.Error("unison voices not applied")
	}
	expectNoError(t, s.update([]string{"set", "filter", "cutoff", "1200"}))
	if s.state.params.filterParams.cutoff.value() != 1200 {
		t.Error("cutoff not applied")
	}
	expectNoError(t, s.update([]string{"set", "adsr", "attack", "0.2"}))
	if s.state.params.adsrParams.attack.value() != 0.2 {
		t.Error("attack not applied")
	}
	expectNoError(t, s.update([]string{"set", "echo", "enabled", "true"}))
	if !s.state.params.echoParams.enabled {
		t.Error("echo not enabled")
	}
}

func TestSynthUpdateClampsOutOfRange(t *testing.T) {
	s := newTestSynth()
	expectNoError(t, s.update([]string{"set", "osc", "0", "octave", "9"}))
	if got := s.state.params.oscParams[0].octave; got != 4 {
		t.Errorf("octave: got %d, want 4", got)
	}
	expectNoError(t, s.update([]string{"set", "filter", "resonance", "3.5"}))
	if got := s.state.params.filterParams.resonance.value(); got != 1 {
		t.Errorf("resonance: got %v, want 1", got)
	}
	expectNoError(t, s.update([]string{"set", "adsr", "release", "-2"}))
	if got := s.state.params.adsrParams.release.value(); got != 0 {
		t.Errorf("release: got %v, want 0", got)
	}
}

func TestSynthUpdateRejectsBadCommands(t *testing.T) {
	s := newTestSynth()
	if err := s.update([]string{"explode"}); err == nil {
		t.Error("expected error for unknown command")
	}
	if err := s.update([]string{"set", "osc", "7", "kind", "saw"}); err == nil {
		t.Error("expected error for osc index out of range")
	}
	if err := s.update([]string{"set", "unknown", "a", "b"}); err == nil {
		t.Error("expected error for unknown target")
	}
	if err := s.update([]string{"note_on", "not-a-number"}); err == nil {
		t.Error("expected error for malformed note")
	}
}

func TestSynthReadProducesAudio(t *testing.T) {
	s := newTestSynth()
	expectNoError(t, s.update([]string{"set", "adsr", "attack", "0.001"}))
	expectNoError(t, s.update([]string{"note_on", "69", "127"}))
	buf := make([]byte, bufferSizeInBytes)
	n, err := s.Read(buf)
	expectNoError(t, err)
	if n != bufferSizeInBytes {
		t.Fatalf("read %d bytes, want %d", n, bufferSizeInBytes)
	}
	silent := true
	for _, b := range buf {
		if b != 0 {
			silent = false
			break
		}
	}
	if silent {
		t.Error("buffer is silent after note on")
	}
}

func TestSynthReadStopsOnCancel(t *testing.T) {
	s := newTestSynth()
	ctx, cancel := context.WithCancel(context.Background())
	s.ctx = ctx
	cancel()
	buf := make([]byte, bufferSizeInBytes)
	if _, err := s.Read(buf); err == nil {
		t.Error("expected EOF after cancel")
	}
}

func TestSynthAddMidiEvent(t *testing.T) {
	s := newTestSynth()
	s.AddMidiEvent([]byte{0x90, 69, 100})
	s.AddMidiEvent([]byte{0x80, 69, 0})
	s.AddMidiEvent([]byte{0x90, 60, 0}) // running-status note off
	s.AddMidiEvent([]byte{0xb0, 120, 0})
	events := s.events.drain()
	if len(events) != 4 {
		t.Fatalf("got %d events, want 4", len(events))
	}
	on, ok := events[0].(*noteOn)
	if !ok || on.note != 69 {
		t.Errorf("first event: %v", events[0])
	}
	if math.Abs(on.velocity-100.0/127) > 1e-9 {
		t.Errorf("velocity: got %v", on.velocity)
	}
	if _, ok := events[1].(*noteOff); !ok {
		t.Errorf("second event: %v", events[1])
	}
	if _, ok := events[2].(*noteOff); !ok {
		t.Errorf("third event: %v", events[2])
	}
	if _, ok := events[3].(*choke); !ok {
		t.Errorf("fourth event: %v", events[3])
	}
}

func TestSynthJSONRoundTrip(t *testing.T) {
	s := newTestSynth()
	expectNoError(t, s.update([]string{"set", "osc", "2", "kind", "triangle"}))
	expectNoError(t, s.update([]string{"set", "filter", "kind", "bandpass"}))
	data := s.ToJSON()
	if !strings.Contains(string(data), "triangle") {
		t.Errorf("missing osc kind in %s", data)
	}
	s2 := newTestSynth()
	s2.ApplyJSON(data)
	if s2.state.params.oscParams[2].kind != waveTriangle {
		t.Error("osc kind lost in round trip")
	}
	if s2.state.params.filterParams.kind != filterBandPass {
		t.Error("filter kind lost in round trip")
	}
}

func TestRenderThroughput(t *testing.T) {
	polyphony := 10
	times := 1000

	s := newTestSynth()
	for _, op := range s.state.params.oscParams {
		op.unisonVoices = maxUnison
		op.unisonDetune.reset(20)
		op.unisonBlend.reset(0.5)
	}
	expectNoError(t, s.update([]string{"set", "echo", "enabled", "true"}))
	for n := 0; n < polyphony; n++ {
		s.events.push(&noteOn{note: 40 + n, velocity: 1})
	}
	out := make([]byte, bufferSizeInBytes)
	start := now()
	for n := 0; n < times; n++ {
		_, err := s.Read(out)
		expectNoError(t, err)
	}
	end := now()
	averageProcessTime := (end - start) / float64(times) * 1000
	t.Logf("average process time: %.2fms", averageProcessTime)
}

func TestEventQueueDropsWhenFull(t *testing.T) {
	q := newEventQueue()
	for i := 0; i < eventQueueCap*2; i++ {
		q.push(&noteOn{note: 60, velocity: 1})
	}
	if got := len(q.drain()); got != eventQueueCap {
		t.Errorf("got %d events, want %d", got, eventQueueCap)
	}
	if got := len(q.drain()); got != 0 {
		t.Errorf("second drain: got %d events, want 0", got)
	}
}
