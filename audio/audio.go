package audio

import (
	"io"
	"os"

	"github.com/ebitengine/oto/v3"

	"github.com/ezrec/chip8/emulator"
)

// Speaker reacts to the emulator's sound state once per frame.
type Speaker interface {
	Play(status emulator.Status)
	Close() error
}

// Beeper plays a square wave while the sound timer runs.
type Beeper struct {
	Tone *Tone

	player *oto.Player
}

var _ Speaker = (*Beeper)(nil)

// NewBeeper opens the audio device.
// Only one audio device may be opened per process.
func NewBeeper(sampleRate int, frequency float64) (beeper *Beeper, err error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		err = ErrAudioDevice{Err: err}
		return
	}
	<-ready

	tone := NewTone(sampleRate, frequency)

	beeper = &Beeper{
		Tone:   tone,
		player: ctx.NewPlayer(tone),
	}
	beeper.player.Play()

	return
}

func (b *Beeper) Play(status emulator.Status) {
	b.Tone.SetPlaying(status.Sound)
}

func (b *Beeper) Close() (err error) {
	b.Tone.SetPlaying(false)
	err = b.player.Close()
	return
}

// Bell rings the terminal bell when the sound timer expires.
type Bell struct {
	Writer io.Writer // Defaults to os.Stdout.
}

var _ Speaker = (*Bell)(nil)

func (b *Bell) Play(status emulator.Status) {
	if !status.SoundStopped {
		return
	}

	w := b.Writer
	if w == nil {
		w = os.Stdout
	}
	_, _ = w.Write([]byte{'\a'})
}

func (b *Bell) Close() error {
	return nil
}

// Silent discards all sound.
type Silent struct{}

var _ Speaker = Silent{}

func (Silent) Play(emulator.Status) {}

func (Silent) Close() error {
	return nil
}
