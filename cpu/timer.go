package cpu

// Timers are the delay and sound countdown timers. Both count down once per
// Tick while non-zero.
type Timers struct {
	Delay uint8
	Sound uint8

	// SoundStopped is raised on the Tick that takes the sound timer from 1
	// to 0. The caller clears it.
	SoundStopped bool
}

// Tick decrements both timers.
func (t *Timers) Tick() {
	if t.Delay > 0 {
		t.Delay--
	}

	if t.Sound > 0 {
		if t.Sound == 1 {
			t.SoundStopped = true
		}
		t.Sound--
	}
}

// Playing returns true while the sound timer is running.
func (t *Timers) Playing() bool {
	return t.Sound > 0
}

func (t *Timers) Reset() {
	*t = Timers{}
}
