package audio

import (
	"github.com/ezrec/chip8/translate"
)

var f = translate.From

// ErrAudioDevice is returned when the audio device cannot be opened.
type ErrAudioDevice struct {
	Err error
}

func (err ErrAudioDevice) Error() string {
	return f("audio device unavailable: %v", err.Err)
}

func (err ErrAudioDevice) Unwrap() error {
	return err.Err
}
