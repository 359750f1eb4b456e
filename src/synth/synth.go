package synth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/hajimehoshi/oto"
)

const (
	sampleRate      = 44100
	channelNum      = 2
	bitDepthInBytes = 2
	samplesPerCycle = 1024
)
const bytesPerSample = bitDepthInBytes * channelNum
const bufferSizeInBytes = samplesPerCycle * bytesPerSample // should be >= 4096
const secPerSample = 1.0 / sampleRate
const baseFreq = 440.0

// ----- Utility ----- //

func now() float64 {
	return float64(time.Now().UnixNano()) / 1000 / 1000 / 1000
}
func positiveMod(a float64, b float64) float64 {
	if b < 0 {
		panic("b should not be negative")
	}
	for a < 0 {
		a += b
	}
	return math.Mod(a, b)
}
func noteToFreq(note int) float64 {
	return baseFreq * math.Pow(2, float64(note-69)/12)
}
func clamp(value float64, min float64, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
func clampInt(value int, min int, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
func toRawMessage(v interface{}) json.RawMessage {
	bytes, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return json.RawMessage(bytes)
}

// ----- State ----- //

type state struct {
	sync.Mutex
	params *params
	pool   *voicePool
	echo   *echo
	out    []float64 // length: samplesPerCycle
}

func newState() *state {
	return &state{
		params: newParams(sampleRate),
		pool:   newVoicePool(sampleRate),
		echo:   newEcho(sampleRate),
		out:    make([]float64, samplesPerCycle),
	}
}

// ----- Synth ----- //

// Synth owns the render state and streams rendered samples to the audio
// device through io.Reader.
type Synth struct {
	ctx        context.Context
	otoContext *oto.Context
	CommandCh  chan []string
	state      *state
	events     *eventQueue
}

var _ io.Reader = (*Synth)(nil)

type synthJSON struct {
	Params json.RawMessage `json:"params"`
}

// ApplyJSON ...
func (s *Synth) ApplyJSON(data []byte) {
	s.state.Lock()
	defer s.state.Unlock()
	var j synthJSON
	err := json.Unmarshal(data, &j)
	if err != nil {
		log.Println("failed to apply JSON to Synth", err)
		return
	}
	s.state.params.applyJSON(j.Params)
}

// ToJSON ...
func (s *Synth) ToJSON() []byte {
	s.state.Lock()
	defer s.state.Unlock()
	bytes, err := json.Marshal(toRawMessage(&synthJSON{
		Params: s.state.params.toJSON(),
	}))
	if err != nil {
		panic(err)
	}
	return bytes
}

func (s *Synth) Read(buf []byte) (int, error) {
	select {
	case <-s.ctx.Done():
		log.Println("Read() interrupted.")
		return 0, io.EOF
	default:
		s.state.Lock()
		defer s.state.Unlock()
		bufSamples := len(buf) / bytesPerSample
		if bufSamples > len(s.state.out) {
			bufSamples = len(s.state.out)
		}
		out := s.state.out[:bufSamples]
		s.state.pool.calc(s.events.drain(), s.state.params, s.state.echo, out)
		writeBuffer(out, buf, 0)
		writeBuffer(out, buf, 1)
		return bufSamples * bytesPerSample, nil
	}
}

func writeBuffer(out []float64, buf []byte, ch int) {
	for i, value := range out {
		switch bitDepthInBytes {
		case 1:
			const max = 127
			b := int(value * max)
			buf[bytesPerSample*i+ch] = byte(b + 128)
		case 2:
			const max = 32767
			b := int16(value * max)
			buf[bytesPerSample*i+2*ch] = byte(b)
			buf[bytesPerSample*i+2*ch+1] = byte(b >> 8)
		}
	}
}

// NewSynth ...
func NewSynth() (*Synth, error) {
	otoContext, err := oto.NewContext(sampleRate, channelNum, bitDepthInBytes, bufferSizeInBytes)
	if err != nil {
		return nil, err
	}
	commandCh := make(chan []string, 256)
	s := &Synth{
		ctx:        context.Background(),
		otoContext: otoContext,
		CommandCh:  commandCh,
		state:      newState(),
		events:     newEventQueue(),
	}
	go processCommands(s, commandCh)
	return s, nil
}

func processCommands(s *Synth, commandCh <-chan []string) {
	for command := range commandCh {
		if err := s.update(command); err != nil {
			log.Printf("command %v failed: %v", command, err)
		}
	}
	log.Println("processCommands() ended.")
}

func (s *Synth) update(command []string) error {
	s.state.Lock()
	defer s.state.Unlock()

	switch command[0] {
	case "set":
		command = command[1:]
		switch command[0] {
		case "osc":
			command = command[1:]
			index, err := strconv.ParseInt(command[0], 10, 64)
			if err != nil {
				return err
			}
			if index < 0 || int(index) >= numOscs {
				return fmt.Errorf("osc index out of range: %v", index)
			}
			command = command[1:]
			if len(command) != 2 {
				return fmt.Errorf("invalid key-value pair %v", command)
			}
			return s.state.params.oscParams[index].set(command[0], command[1])
		case "filter":
			command = command[1:]
			if len(command) != 2 {
				return fmt.Errorf("invalid key-value pair %v", command)
			}
			return s.state.params.filterParams.set(command[0], command[1])
		case "adsr":
			command = command[1:]
			if len(command) != 2 {
				return fmt.Errorf("invalid key-value pair %v", command)
			}
			return s.state.params.adsrParams.set(command[0], command[1])
		case "echo":
			command = command[1:]
			if len(command) != 2 {
				return fmt.Errorf("invalid key-value pair %v", command)
			}
			return s.state.params.echoParams.set(command[0], command[1])
		default:
			return fmt.Errorf("unknown target %v", command[0])
		}
	case "note_on":
		note, err := strconv.ParseInt(command[1], 10, 32)
		if err != nil {
			return err
		}
		velocity := 127.0
		if len(command) >= 3 {
			velocity, err = strconv.ParseFloat(command[2], 64)
			if err != nil {
				return err
			}
		}
		s.events.push(&noteOn{note: int(note), velocity: velocity / 127})
	case "note_off":
		note, err := strconv.ParseInt(command[1], 10, 32)
		if err != nil {
			return err
		}
		s.events.push(&noteOff{note: int(note)})
	case "choke":
		s.events.push(&choke{})
	default:
		return fmt.Errorf("unknown command %v", command[0])
	}
	return nil
}

// Close ...
func (s *Synth) Close() error {
	log.Println("Closing Synth...")
	close(s.CommandCh)
	return s.otoContext.Close()
}

// Start ...
func (s *Synth) Start(ctx context.Context) error {
	p := s.otoContext.NewPlayer()
	defer func() {
		if err := p.Close(); err != nil {
			log.Printf("error: %v", err)
		}
	}()
	s.ctx = ctx

	// block until cancel() called
	if _, err := io.CopyBuffer(p, s, make([]byte, bufferSizeInBytes)); err != nil {
		return err
	}
	log.Println("Start() ended.")
	return nil
}

// AddMidiEvent ...
func (s *Synth) AddMidiEvent(data []byte) {
	if len(data) < 2 {
		return
	}
	switch data[0] >> 4 {
	case 8:
		s.events.push(&noteOff{note: int(data[1])})
	case 9:
		if len(data) < 3 || data[2] == 0 {
			s.events.push(&noteOff{note: int(data[1])})
		} else {
			s.events.push(&noteOn{note: int(data[1]), velocity: float64(data[2]) / 127})
		}
	case 11:
		// CC 120 (all sound off) and 123 (all notes off)
		if len(data) >= 2 && (data[1] == 120 || data[1] == 123) {
			s.events.push(&choke{})
		}
	}
}
