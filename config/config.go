// Package config holds the frontend settings, loaded from TOML.
package config

import (
	"errors"
	"image/color"
	"io"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/ezrec/chip8/cpu"
	"github.com/ezrec/chip8/emulator"
)

const (
	SCALE       = 12        // Default window pixels per display cell.
	FOREGROUND  = "#33ff66" // Default lit cell color.
	BACKGROUND  = "#000000" // Default unlit cell color.
	BEEP_HZ     = 440.0     // Default tone frequency.
	SAMPLE_RATE = 44100     // Default audio sample rate.
	MAX_SCALE   = 64        // Largest window scale.
	MAX_CYCLES  = 1000      // Largest cycles per frame.
)

// Keymap maps host key names to keypad indices.
//
// Names are as understood by the video frontend: 'Digit1', 'Q', 'KeyQ', etc.
type Keymap map[string]int

// DefaultKeymap is the common 1234/QWER/ASDF/ZXCV layout.
func DefaultKeymap() Keymap {
	return Keymap{
		"Digit1": 0x1, "Digit2": 0x2, "Digit3": 0x3, "Digit4": 0xc,
		"Q": 0x4, "W": 0x5, "E": 0x6, "R": 0xd,
		"A": 0x7, "S": 0x8, "D": 0x9, "F": 0xe,
		"Z": 0xa, "X": 0x0, "C": 0xb, "V": 0xf,
	}
}

// Names returns the host key names in sorted order.
func (km Keymap) Names() []string {
	return slices.Sorted(maps.Keys(km))
}

// Config is the frontend configuration.
type Config struct {
	CyclesPerFrame int     `toml:"cycles_per_frame"` // Instructions per 60Hz frame.
	Scale          int     `toml:"scale"`            // Window pixels per display cell.
	Foreground     string  `toml:"foreground"`       // Lit cell color, '#rrggbb'.
	Background     string  `toml:"background"`       // Unlit cell color, '#rrggbb'.
	BeepHz         float64 `toml:"beep_hz"`          // Tone frequency.
	SampleRate     int     `toml:"sample_rate"`      // Audio sample rate.
	Trace          bool    `toml:"trace"`            // Log every instruction.
	Seed           uint64  `toml:"seed"`             // Random seed, 0 for system randomness.
	Keymap         Keymap  `toml:"keymap"`
}

// Default returns the default configuration.
func Default() (cfg *Config) {
	cfg = &Config{
		CyclesPerFrame: emulator.CYCLES_PER_FRAME,
		Scale:          SCALE,
		Foreground:     FOREGROUND,
		Background:     BACKGROUND,
		BeepHz:         BEEP_HZ,
		SampleRate:     SAMPLE_RATE,
		Keymap:         DefaultKeymap(),
	}

	return
}

// Load a TOML configuration on top of the defaults.
// A '[keymap]' table replaces the default keymap entirely.
func Load(r io.Reader) (cfg *Config, err error) {
	cfg = Default()

	var file Config
	md, err := toml.NewDecoder(r).Decode(&file)
	if err != nil {
		err = errors.Join(ErrConfigRead, err)
		cfg = nil
		return
	}

	for _, key := range md.Undecoded() {
		err = ErrKeyUnknown(key.String())
		cfg = nil
		return
	}

	cfg.merge(&file, md)

	err = cfg.Validate()
	if err != nil {
		cfg = nil
	}

	return
}

// LoadFile loads a TOML configuration file on top of the defaults.
func LoadFile(path string) (cfg *Config, err error) {
	file, err := os.Open(path)
	if err != nil {
		err = errors.Join(ErrConfigRead, err)
		return
	}
	defer file.Close()

	cfg, err = Load(file)

	return
}

func (cfg *Config) merge(file *Config, md toml.MetaData) {
	if md.IsDefined("cycles_per_frame") {
		cfg.CyclesPerFrame = file.CyclesPerFrame
	}
	if md.IsDefined("scale") {
		cfg.Scale = file.Scale
	}
	if md.IsDefined("foreground") {
		cfg.Foreground = file.Foreground
	}
	if md.IsDefined("background") {
		cfg.Background = file.Background
	}
	if md.IsDefined("beep_hz") {
		cfg.BeepHz = file.BeepHz
	}
	if md.IsDefined("sample_rate") {
		cfg.SampleRate = file.SampleRate
	}
	if md.IsDefined("trace") {
		cfg.Trace = file.Trace
	}
	if md.IsDefined("seed") {
		cfg.Seed = file.Seed
	}
	if md.IsDefined("keymap") {
		cfg.Keymap = file.Keymap
	}
}

// Validate checks the ranges of all settings.
func (cfg *Config) Validate() (err error) {
	check := func(key string, ok bool) {
		if err == nil && !ok {
			err = &ErrSetting{Key: key, Err: ErrValueRange}
		}
	}

	check("cycles_per_frame", cfg.CyclesPerFrame >= 1 && cfg.CyclesPerFrame <= MAX_CYCLES)
	check("scale", cfg.Scale >= 1 && cfg.Scale <= MAX_SCALE)
	check("beep_hz", cfg.BeepHz > 0 && cfg.BeepHz < float64(cfg.SampleRate)/2)
	check("sample_rate", cfg.SampleRate > 0)
	for _, name := range cfg.Keymap.Names() {
		index := cfg.Keymap[name]
		check("keymap."+name, index >= 0 && index < cpu.KEY_COUNT)
	}
	if err != nil {
		return
	}

	_, err = ParseColor(cfg.Foreground)
	if err != nil {
		err = &ErrSetting{Key: "foreground", Err: err}
		return
	}

	_, err = ParseColor(cfg.Background)
	if err != nil {
		err = &ErrSetting{Key: "background", Err: err}
		return
	}

	return
}

// Write the configuration as TOML.
func (cfg *Config) Write(w io.Writer) (err error) {
	err = toml.NewEncoder(w).Encode(cfg)
	return
}

// ForegroundColor returns the parsed foreground color.
func (cfg *Config) ForegroundColor() color.RGBA {
	rgba, _ := ParseColor(cfg.Foreground)
	return rgba
}

// BackgroundColor returns the parsed background color.
func (cfg *Config) BackgroundColor() color.RGBA {
	rgba, _ := ParseColor(cfg.Background)
	return rgba
}

// ParseColor parses a '#rrggbb' color.
func ParseColor(text string) (rgba color.RGBA, err error) {
	hex, found := strings.CutPrefix(text, "#")
	if !found || len(hex) != 6 {
		err = ErrColorSyntax
		return
	}

	value, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		err = errors.Join(ErrColorSyntax, err)
		return
	}

	rgba = color.RGBA{R: uint8(value >> 16), G: uint8(value >> 8), B: uint8(value), A: 0xff}

	return
}
