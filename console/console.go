// Package console is the terminal frontend.
package console

import (
	"errors"
	"io"
	"os"
	"strings"
	"time"
	"unicode"

	tm "github.com/buger/goterm"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/ezrec/chip8/audio"
	"github.com/ezrec/chip8/config"
	"github.com/ezrec/chip8/cpu"
	"github.com/ezrec/chip8/emulator"
)

const (
	KEY_QUIT        = 0x1b // Escape
	KEY_HOLD_FRAMES = 3    // Terminals report presses only; hold each one this long.
	CELL_LIT        = "█"
	CELL_UNLIT      = " "
)

// Console runs the emulator in a terminal.
type Console struct {
	Emulator *emulator.Emulator
	Speaker  audio.Speaker
	Keymap   map[rune]int
	Log      logrus.FieldLogger

	In io.Reader // Defaults to os.Stdin.

	hold  [cpu.KEY_COUNT]int
	state *term.State
}

// NewConsole creates a terminal frontend from a configuration.
func NewConsole(emu *emulator.Emulator, cfg *config.Config) (con *Console, err error) {
	keymap, err := RuneKeymap(cfg.Keymap)
	if err != nil {
		return
	}

	con = &Console{
		Emulator: emu,
		Speaker:  &audio.Bell{},
		Keymap:   keymap,
		Log:      emu.Cpu.Log,
	}

	return
}

// RuneKeymap converts host key names to terminal characters.
// Letters are matched case insensitively.
func RuneKeymap(km config.Keymap) (keymap map[rune]int, err error) {
	keymap = make(map[rune]int, len(km))
	for _, name := range km.Names() {
		r, ok := keyRune(name)
		if !ok {
			err = ErrKeyName(name)
			keymap = nil
			return
		}
		keymap[r] = km[name]
	}

	return
}

func keyRune(name string) (r rune, ok bool) {
	name = strings.TrimPrefix(name, "Key")
	name = strings.TrimPrefix(name, "Digit")

	runes := []rune(name)
	switch {
	case len(runes) == 1 && unicode.IsPrint(runes[0]):
		r, ok = unicode.ToLower(runes[0]), true
	case strings.EqualFold(name, "space"):
		r, ok = ' ', true
	}

	return
}

// Render draws the display as text, one line per row.
func Render(display *cpu.Display) string {
	var text strings.Builder
	for _, row := range display.Rows() {
		for _, lit := range row {
			if lit {
				text.WriteString(CELL_LIT)
			} else {
				text.WriteString(CELL_UNLIT)
			}
		}
		// Raw mode terminals need the carriage return.
		text.WriteString("\r\n")
	}

	return text.String()
}

// Input applies terminal input to the keypad latches.
// Returns true when the quit key was seen.
func (con *Console) Input(keys []byte) (quit bool) {
	for n := range con.hold {
		if con.hold[n] > 0 {
			con.hold[n]--
		}
	}

	for _, key := range keys {
		if key == KEY_QUIT {
			quit = true
			continue
		}
		index, ok := con.Keymap[unicode.ToLower(rune(key))]
		if ok {
			con.hold[index] = KEY_HOLD_FRAMES
		}
	}

	for n, frames := range con.hold {
		con.Emulator.Cpu.SetKey(n, frames > 0)
	}

	return
}

// Frame applies the input, and runs one emulator frame.
func (con *Console) Frame(keys []byte) (quit bool, status emulator.Status) {
	quit = con.Input(keys)
	if quit {
		return
	}

	status, err := con.Emulator.Frame()
	if err != nil {
		con.Log.WithError(err).Warn("console: fault")
	}

	if con.Speaker != nil {
		con.Speaker.Play(status)
	}

	return
}

func (con *Console) draw() {
	tm.Clear()
	tm.MoveCursor(1, 1)
	tm.Print(Render(&con.Emulator.Cpu.Display))
	tm.Flush()
}

func (con *Console) input() io.Reader {
	if con.In == nil {
		return os.Stdin
	}
	return con.In
}

func (con *Console) raw() (err error) {
	file, ok := con.input().(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) {
		return
	}

	con.state, err = term.MakeRaw(int(file.Fd()))
	if err != nil {
		err = errors.Join(ErrTerminal, err)
	}

	return
}

func (con *Console) restore() {
	if con.state == nil {
		return
	}

	file := con.input().(*os.File)
	_ = term.Restore(int(file.Fd()), con.state)
	con.state = nil
}

// reader forwards input to keys until the input fails or done is closed.
// A Read already blocked when done closes returns on the next keypress.
func (con *Console) reader(keys chan<- []byte, done <-chan struct{}) {
	defer close(keys)

	buf := make([]byte, 16)
	for {
		select {
		case <-done:
			return
		default:
		}

		n, err := con.input().Read(buf)
		if n > 0 {
			select {
			case keys <- append([]byte(nil), buf[:n]...):
			case <-done:
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// Run until the quit key is pressed, or the input is closed.
func (con *Console) Run() (err error) {
	err = con.raw()
	if err != nil {
		return
	}
	defer con.restore()

	done := make(chan struct{})
	defer close(done)

	keys := make(chan []byte, 16)
	go con.reader(keys, done)

	ticker := time.NewTicker(time.Second / emulator.FRAME_RATE)
	defer ticker.Stop()

	con.draw()

	var pending []byte
	for {
		select {
		case data, ok := <-keys:
			if !ok {
				return
			}
			pending = append(pending, data...)
			continue
		case <-ticker.C:
		}

		quit, status := con.Frame(pending)
		pending = pending[:0]
		if quit {
			return
		}

		if status.Redraw {
			con.draw()
		}
	}
}
