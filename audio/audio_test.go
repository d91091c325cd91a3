package audio

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/chip8/emulator"
)

func samples(data []byte) (values []int16) {
	for n := 0; n+1 < len(data); n += 2 {
		values = append(values, int16(binary.LittleEndian.Uint16(data[n:])))
	}
	return
}

func TestTone(t *testing.T) {
	assert := assert.New(t)

	tone := NewTone(44100, 440)
	assert.False(tone.Playing())
	assert.Equal(int16(AMPLITUDE), tone.Amplitude)

	buf := bytes.Repeat([]byte{0xff}, 9)
	n, err := tone.Read(buf)
	assert.NoError(err)
	assert.Equal(8, n)
	assert.Equal(make([]byte, 8), buf[:8])
	// Partial samples are left alone.
	assert.Equal(byte(0xff), buf[8])
}

func TestTone_Square(t *testing.T) {
	assert := assert.New(t)

	tone := NewTone(8000, 2000)
	tone.SetPlaying(true)
	assert.True(tone.Playing())

	buf := make([]byte, 16)
	n, err := tone.Read(buf)
	assert.NoError(err)
	assert.Equal(16, n)

	a := int16(AMPLITUDE)
	assert.Equal([]int16{a, a, -a, -a, a, a, -a, -a}, samples(buf))

	// Stopping resets the phase.
	tone.SetPlaying(false)
	_, _ = tone.Read(buf[:2])
	tone.SetPlaying(true)
	_, _ = tone.Read(buf[:4])
	assert.Equal([]int16{a, a}, samples(buf[:4]))
}

func TestBell(t *testing.T) {
	assert := assert.New(t)

	out := &bytes.Buffer{}
	bell := &Bell{Writer: out}

	bell.Play(emulator.Status{Sound: true})
	assert.Equal(0, out.Len())

	bell.Play(emulator.Status{SoundStopped: true})
	assert.Equal("\a", out.String())

	assert.NoError(bell.Close())
}

func TestSilent(t *testing.T) {
	assert := assert.New(t)

	var speaker Speaker = Silent{}
	speaker.Play(emulator.Status{Sound: true, SoundStopped: true})
	assert.NoError(speaker.Close())
}
