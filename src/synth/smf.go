package synth

import (
	"fmt"
	"io"
	"os"
	"sort"

	"gitlab.com/gomidi/midi/midimessage/channel"
	"gitlab.com/gomidi/midi/midimessage/meta"
	"gitlab.com/gomidi/midi/smf"
	"gitlab.com/gomidi/midi/smf/smfreader"
)

// ----- SMF ----- //

// timedEvent is a note event scheduled at an absolute sample position.
type timedEvent struct {
	frame int
	event interface{}
}

// loadSMF reads a standard MIDI file into a frame-ordered event schedule.
// Only metric time division is supported, and only the first tempo event
// is honored; tempo changes mid-file are ignored.
func loadSMF(path string, sampleRate float64) ([]timedEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rd := smfreader.New(f)
	if err := rd.ReadHeader(); err != nil {
		return nil, err
	}
	ticks, ok := rd.Header().TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, fmt.Errorf("unsupported SMF time format %v", rd.Header().TimeFormat)
	}
	ticksPerQuarter := float64(ticks.Ticks4th())

	bpm := 120.0
	tempoSet := false
	var events []timedEvent
	trackTicks := make(map[int16]uint64)
	for {
		msg, err := rd.Read()
		if err == smf.ErrFinished {
			break
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		trackTicks[rd.Track()] += uint64(rd.Delta())
		tick := trackTicks[rd.Track()]
		switch v := msg.(type) {
		case meta.Tempo:
			if !tempoSet {
				bpm = v.FractionalBPM()
				tempoSet = true
			}
		case channel.NoteOn:
			if v.Velocity() == 0 {
				events = append(events, timedEvent{frame: int(tick), event: &noteOff{note: int(v.Key())}})
			} else {
				events = append(events, timedEvent{frame: int(tick), event: &noteOn{
					note:     int(v.Key()),
					velocity: float64(v.Velocity()) / 127,
				}})
			}
		case channel.NoteOff:
			events = append(events, timedEvent{frame: int(tick), event: &noteOff{note: int(v.Key())}})
		case channel.NoteOffVelocity:
			events = append(events, timedEvent{frame: int(tick), event: &noteOff{note: int(v.Key())}})
		}
	}

	// ticks to samples with the single tempo
	secPerTick := 60.0 / bpm / ticksPerQuarter
	for i := range events {
		events[i].frame = int(float64(events[i].frame) * secPerTick * sampleRate)
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].frame < events[j].frame
	})
	return events, nil
}
