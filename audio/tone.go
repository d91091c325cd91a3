// Package audio plays the sound timer.
package audio

import (
	"sync/atomic"
)

const (
	AMPLITUDE = 3000 // Square wave peak, signed 16 bit.
)

// Tone is a mono, signed 16-bit little endian square wave source.
// Read is called from the audio thread; SetPlaying may be called from any
// goroutine.
type Tone struct {
	Frequency  float64 // Hz
	SampleRate int     // Samples per second.
	Amplitude  int16

	playing atomic.Bool
	phase   float64 // In cycles, [0, 1)
}

// NewTone creates a silent square wave.
func NewTone(sampleRate int, frequency float64) *Tone {
	return &Tone{
		Frequency:  frequency,
		SampleRate: sampleRate,
		Amplitude:  AMPLITUDE,
	}
}

// SetPlaying starts or stops the tone.
func (t *Tone) SetPlaying(playing bool) {
	t.playing.Store(playing)
}

// Playing returns true while the tone is audible.
func (t *Tone) Playing() bool {
	return t.playing.Load()
}

// Read fills p with whole samples. It never fails.
func (t *Tone) Read(p []byte) (n int, err error) {
	n = len(p) &^ 1

	if !t.playing.Load() {
		clear(p[:n])
		t.phase = 0
		return
	}

	step := t.Frequency / float64(t.SampleRate)
	for i := 0; i < n; i += 2 {
		sample := t.Amplitude
		if t.phase >= 0.5 {
			sample = -sample
		}
		p[i] = byte(uint16(sample))
		p[i+1] = byte(uint16(sample) >> 8)

		t.phase += step
		if t.phase >= 1.0 {
			t.phase -= 1.0
		}
	}

	return
}
