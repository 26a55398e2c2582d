package audio

import (
	"fmt"
	"io"
	"math"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/transforms"
	"github.com/go-audio/wav"
)

const (
	sampleRate = 22050
	bitDepth   = 16
	// Peak amplitude as a fraction of full scale
	toneLevel = 0.6
)

type tone struct {
	freq  float64       // Hz
	dur   time.Duration // total length
	decay time.Duration // exponential envelope time constant
	sweep float64       // frequency multiplier reached at the end
}

// Cue shapes. High and Low are short clicks an octave apart so port and
// starboard stay distinguishable; Drum is a falling thump.
var tones = map[Sound]tone{
	High: {freq: 1760, dur: 70 * time.Millisecond, decay: 20 * time.Millisecond, sweep: 1},
	Low:  {freq: 880, dur: 70 * time.Millisecond, decay: 20 * time.Millisecond, sweep: 1},
	Drum: {freq: 160, dur: 220 * time.Millisecond, decay: 60 * time.Millisecond, sweep: 0.5},
}

func (t tone) samples() *goaudio.FloatBuffer {
	n := int(t.dur.Seconds() * sampleRate)
	buf := &goaudio.FloatBuffer{
		Format: &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:   make([]float64, n),
	}
	phase := 0.0
	for i := range buf.Data {
		progress := float64(i) / float64(n)
		freq := t.freq * (1 + (t.sweep-1)*progress)
		phase += 2 * math.Pi * freq / sampleRate
		env := math.Exp(-float64(i) / (t.decay.Seconds() * sampleRate))
		buf.Data[i] = env * math.Sin(phase)
	}
	transforms.NormalizeMax(buf)
	return buf
}

// WriteTone encodes the cue for s as a mono 16-bit WAV stream.
func WriteTone(w io.WriteSeeker, s Sound) error {
	t, ok := tones[s]
	if !ok {
		return fmt.Errorf("no tone for sound %s", s)
	}

	fb := t.samples()
	scale := toneLevel * float64(int(1)<<(bitDepth-1)-1)
	ib := &goaudio.IntBuffer{
		Format:         fb.Format,
		SourceBitDepth: bitDepth,
		Data:           make([]int, len(fb.Data)),
	}
	for i, v := range fb.Data {
		ib.Data[i] = int(math.Round(v * scale))
	}

	enc := wav.NewEncoder(w, sampleRate, bitDepth, 1, 1)
	if err := enc.Write(ib); err != nil {
		return fmt.Errorf("encoding %s: %w", s, err)
	}
	return enc.Close()
}
