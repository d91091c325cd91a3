package cpu

import (
	"math/rand/v2"
)

// Random supplies the uniformly distributed bytes used by 'rnd'.
type Random interface {
	Byte() uint8
}

// systemRandom draws from the runtime seeded generator.
type systemRandom struct{}

func (systemRandom) Byte() uint8 {
	return uint8(rand.Uint32())
}

// NewRandom returns the default, non-deterministic source.
func NewRandom() Random {
	return systemRandom{}
}

// SeededRandom is a deterministic PCG source.
type SeededRandom struct {
	rng *rand.Rand
}

// NewSeededRandom returns a source that repeats the same sequence for a seed.
func NewSeededRandom(seed uint64) *SeededRandom {
	return &SeededRandom{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (sr *SeededRandom) Byte() uint8 {
	return uint8(sr.rng.Uint32())
}

// Sequence replays a fixed list of values, wrapping at the end.
// An empty Sequence always yields zero.
type Sequence struct {
	Values []uint8
	index  int
}

func (seq *Sequence) Byte() (value uint8) {
	if len(seq.Values) == 0 {
		return
	}

	value = seq.Values[seq.index]
	seq.index = (seq.index + 1) % len(seq.Values)
	return
}
