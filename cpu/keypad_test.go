package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeypad(t *testing.T) {
	assert := assert.New(t)

	kp := &Keypad{}

	_, ok := kp.First()
	assert.False(ok)

	kp.Set(0xc, true)
	kp.Set(0x5, true)
	assert.True(kp.Pressed(0xc))
	assert.True(kp.Pressed(0x5))
	assert.False(kp.Pressed(0x0))

	key, ok := kp.First()
	assert.True(ok)
	assert.Equal(uint8(0x5), key)

	kp.Set(0x5, false)
	key, ok = kp.First()
	assert.True(ok)
	assert.Equal(uint8(0xc), key)

	kp.Reset()
	_, ok = kp.First()
	assert.False(ok)
}

func TestKeypad_OutOfRange(t *testing.T) {
	assert := assert.New(t)

	kp := &Keypad{}
	kp.Set(-1, true)
	kp.Set(16, true)
	kp.Set(1000, true)
	assert.Equal(Keypad{}, *kp)

	kp.Set(0xf, true)
	assert.False(kp.Pressed(0x1f))
	assert.False(kp.Pressed(0xff))
}
