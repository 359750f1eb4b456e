package synth

import (
	"encoding/json"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ----- Offline Rendering ----- //

// RenderFile renders a standard MIDI file to a 16-bit stereo WAV file.
// patch, if non-empty, is the params object in the same JSON shape that
// ApplyJSON accepts under "params". Rendering runs the same block loop as
// live playback, so the output matches what the realtime path produces.
func RenderFile(smfPath string, wavPath string, patch []byte) error {
	events, err := loadSMF(smfPath, sampleRate)
	if err != nil {
		return err
	}

	prm := newParams(sampleRate)
	if len(patch) > 0 {
		prm.applyJSON(json.RawMessage(patch))
	}
	pool := newVoicePool(sampleRate)
	e := newEcho(sampleRate)

	f, err := os.Create(wavPath)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := wav.NewEncoder(f, sampleRate, bitDepthInBytes*8, channelNum, 1)

	out := make([]float64, samplesPerCycle)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channelNum, SampleRate: sampleRate},
		Data:           make([]int, samplesPerCycle*channelNum),
		SourceBitDepth: bitDepthInBytes * 8,
	}
	block := make([]interface{}, 0, eventQueueCap)
	pos := 0
	next := 0
	tail := 2 * sampleRate // let the echo ring out after the last voice
	for {
		block = block[:0]
		for next < len(events) && events[next].frame < pos+samplesPerCycle {
			block = append(block, events[next].event)
			next++
		}
		pool.calc(block, prm, e, out)
		for i, value := range out {
			sample := int(value * 32767)
			buf.Data[channelNum*i] = sample
			buf.Data[channelNum*i+1] = sample
		}
		if err := enc.Write(buf); err != nil {
			return err
		}
		pos += samplesPerCycle
		if next >= len(events) && pool.activeCount() == 0 {
			tail -= samplesPerCycle
			if tail <= 0 {
				break
			}
		}
	}
	return enc.Close()
}
