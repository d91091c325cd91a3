package cpu

const (
	KEY_COUNT = 16
)

// Keypad is the latched state of the 16 hexadecimal keys.
type Keypad [KEY_COUNT]bool

// Set sets the pressed state of a key. Out of range keys are ignored.
func (kp *Keypad) Set(key int, pressed bool) {
	if key < 0 || key >= KEY_COUNT {
		return
	}
	kp[key] = pressed
}

// Pressed returns the state of a key. Out of range keys are never pressed.
func (kp *Keypad) Pressed(key uint8) bool {
	if int(key) >= KEY_COUNT {
		return false
	}
	return kp[key]
}

// First returns the lowest numbered pressed key.
func (kp *Keypad) First() (key uint8, ok bool) {
	for n, pressed := range kp {
		if pressed {
			return uint8(n), true
		}
	}
	return
}

func (kp *Keypad) Reset() {
	clear(kp[:])
}
