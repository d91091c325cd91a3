// Package video is the windowed frontend.
package video

import (
	"errors"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/sirupsen/logrus"

	"github.com/ezrec/chip8/audio"
	"github.com/ezrec/chip8/config"
	"github.com/ezrec/chip8/cpu"
	"github.com/ezrec/chip8/emulator"
)

const (
	KEY_QUIT  = ebiten.KeyEscape
	KEY_PAUSE = ebiten.KeyF1
	KEY_STEP  = ebiten.KeyF2
	KEY_RESET = ebiten.KeyF5
)

// Game runs the emulator, one frame per ebiten Update.
type Game struct {
	Emulator   *emulator.Emulator
	Speaker    audio.Speaker
	Keymap     map[ebiten.Key]int
	Foreground color.RGBA
	Background color.RGBA
	Scale      int
	Log        logrus.FieldLogger

	Paused bool

	pixels []byte
}

var _ ebiten.Game = (*Game)(nil)

// NewGame creates a game frontend from a configuration.
func NewGame(emu *emulator.Emulator, cfg *config.Config) (game *Game, err error) {
	keymap, err := ParseKeymap(cfg.Keymap)
	if err != nil {
		return
	}

	game = &Game{
		Emulator:   emu,
		Speaker:    audio.Silent{},
		Keymap:     keymap,
		Foreground: cfg.ForegroundColor(),
		Background: cfg.BackgroundColor(),
		Scale:      cfg.Scale,
		Log:        emu.Cpu.Log,
		pixels:     make([]byte, cpu.DISPLAY_SIZE*4),
	}

	return
}

// ParseKeymap converts host key names to ebiten keys.
func ParseKeymap(km config.Keymap) (keymap map[ebiten.Key]int, err error) {
	keymap = make(map[ebiten.Key]int, len(km))
	for _, name := range km.Names() {
		var key ebiten.Key
		err = key.UnmarshalText([]byte(name))
		if err != nil {
			err = errors.Join(ErrKeyName(name), err)
			keymap = nil
			return
		}
		keymap[key] = km[name]
	}

	return
}

// Keypad collects the keypad state from the pressed host keys.
func Keypad(keymap map[ebiten.Key]int, pressed func(ebiten.Key) bool) (keypad cpu.Keypad) {
	for key, index := range keymap {
		if pressed(key) {
			keypad.Set(index, true)
		}
	}

	return
}

// Render fills an RGBA pixel buffer from the display.
func Render(pixels []byte, display *cpu.Display, fg, bg color.RGBA) {
	for n, lit := range display.Pixels() {
		c := bg
		if lit {
			c = fg
		}
		copy(pixels[n*4:], []byte{c.R, c.G, c.B, c.A})
	}
}

// Run opens the window, and runs until it is closed.
func (g *Game) Run(title string) (err error) {
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(cpu.DISPLAY_WIDTH*g.Scale, cpu.DISPLAY_HEIGHT*g.Scale)
	ebiten.SetTPS(emulator.FRAME_RATE)

	err = ebiten.RunGame(g)
	if errors.Is(err, ebiten.Termination) {
		err = nil
	}

	return
}

func (g *Game) Update() (err error) {
	if ebiten.IsWindowBeingClosed() || inpututil.IsKeyJustPressed(KEY_QUIT) {
		err = ebiten.Termination
		return
	}

	emu := g.Emulator

	if inpututil.IsKeyJustPressed(KEY_RESET) {
		g.Log.Info("video: reset")
		err = emu.Reset()
		if err != nil {
			return
		}
	}

	if inpututil.IsKeyJustPressed(KEY_PAUSE) {
		g.Paused = !g.Paused
		g.Log.WithField("paused", g.Paused).Info("video: pause")
	}

	emu.Cpu.Keypad = Keypad(g.Keymap, ebiten.IsKeyPressed)

	var status emulator.Status
	switch {
	case !g.Paused:
		status, err = emu.Frame()
	case inpututil.IsKeyJustPressed(KEY_STEP):
		g.Log.Info(emu.Cpu.String())
		status, err = emu.Tick()
	}
	if err != nil {
		g.Log.WithError(err).Warn("video: fault")
		err = nil
	}

	g.Speaker.Play(status)

	return
}

func (g *Game) Draw(screen *ebiten.Image) {
	Render(g.pixels, &g.Emulator.Cpu.Display, g.Foreground, g.Background)
	screen.WritePixels(g.pixels)
}

func (g *Game) Layout(_, _ int) (int, int) {
	return cpu.DISPLAY_WIDTH, cpu.DISPLAY_HEIGHT
}
