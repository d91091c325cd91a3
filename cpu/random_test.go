package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeededRandom(t *testing.T) {
	assert := assert.New(t)

	a := NewSeededRandom(1234)
	b := NewSeededRandom(1234)

	var seq_a, seq_b []uint8
	for range 64 {
		seq_a = append(seq_a, a.Byte())
		seq_b = append(seq_b, b.Byte())
	}
	assert.Equal(seq_a, seq_b)

	c := NewSeededRandom(4321)
	var seq_c []uint8
	for range 64 {
		seq_c = append(seq_c, c.Byte())
	}
	assert.NotEqual(seq_a, seq_c)
}

func TestSequence(t *testing.T) {
	assert := assert.New(t)

	seq := &Sequence{Values: []uint8{0x12, 0x34, 0x56}}
	assert.Equal(uint8(0x12), seq.Byte())
	assert.Equal(uint8(0x34), seq.Byte())
	assert.Equal(uint8(0x56), seq.Byte())
	assert.Equal(uint8(0x12), seq.Byte())

	empty := &Sequence{}
	assert.Equal(uint8(0), empty.Byte())
}

func TestNewRandom(t *testing.T) {
	assert := assert.New(t)

	rng := NewRandom()
	seen := map[uint8]bool{}
	for range 1024 {
		seen[rng.Byte()] = true
	}
	// 1024 draws from 256 values hit more than one.
	assert.Greater(len(seen), 1)
}
