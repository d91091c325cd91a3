// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"maps"

	"github.com/ezrec/chip8/cpu"
	"github.com/ezrec/chip8/internal"
)

const (
	FRAME_RATE       = cpu.TIMER_HZ // Frames per second.
	CYCLES_PER_FRAME = 10           // Default instructions per frame.
)

var _emulator_defines = map[string]string{
	"FRAME_RATE":       fmt.Sprintf("%v", FRAME_RATE),
	"CYCLES_PER_FRAME": fmt.Sprintf("%v", CYCLES_PER_FRAME),
}

// Status is the frontend visible state after a tick or frame.
type Status struct {
	Redraw       bool // Display changed.
	Sound        bool // Sound timer is running.
	SoundStopped bool // Sound timer reached zero.
	Unknown      bool // An unrecognized instruction was skipped.
	AwaitingKey  bool // Held on a wait-key instruction.
}

// Emulator state. CPU + program listing + ROM image.
type Emulator struct {
	Verbose        bool         // If set, enables verbose logging.
	*cpu.Cpu                    // Reference to the CPU simulation.
	Program        *cpu.Program // Reference to the currently running program listing.
	CyclesPerFrame int          // Instructions executed per Frame.

	rom []byte
}

// NewEmulator creates a new emulator.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Cpu:            cpu.NewCpu(),
		Program:        &cpu.Program{},
		CyclesPerFrame: CYCLES_PER_FRAME,
	}

	return
}

func fontDefines() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for digit := range uint8(cpu.FONT_GLYPHS) {
			key := fmt.Sprintf("FONT_%X", digit)
			value := fmt.Sprintf("0x%03x", cpu.GlyphAddress(digit))
			if !yield(key, value) {
				return
			}
		}
	}
}

// Defines returns the emulator, cpu and font defines.
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_emulator_defines),
		emu.Cpu.Defines(),
		fontDefines())
}

// Rom returns the currently loaded program image.
func (emu *Emulator) Rom() []byte {
	return emu.rom
}

// Assemble a source program, and load it.
func (emu *Emulator) Assemble(source io.Reader) (err error) {
	asm := &cpu.Assembler{
		Verbose: emu.Verbose,
		Log:     emu.Cpu.Log,
	}
	for key, value := range emu.Defines() {
		asm.Predefine(key, value)
	}

	prog, err := asm.Parse(source)
	if err != nil {
		return
	}

	rom := prog.Binary()
	if len(rom) > cpu.PROGRAM_LIMIT {
		err = cpu.ErrProgramSize(len(rom))
		return
	}

	emu.Program = prog
	emu.rom = rom

	err = emu.Reset()

	return
}

// Load a binary program image, and build a listing for it.
func (emu *Emulator) Load(rom io.Reader) (err error) {
	data, err := io.ReadAll(rom)
	if err != nil {
		err = errors.Join(ErrRomRead, err)
		return
	}

	if len(data) > cpu.PROGRAM_LIMIT {
		err = cpu.ErrProgramSize(len(data))
		return
	}

	emu.Program = cpu.Disassemble(data)
	emu.rom = data

	err = emu.Reset()

	return
}

// Reset the emulator, and reload the current program.
func (emu *Emulator) Reset() (err error) {
	emu.Cpu.Verbose = emu.Verbose
	emu.Cpu.Reset()

	err = emu.Cpu.Load(emu.rom)

	return
}

// LineNo returns the listing line of the current program counter,
// or 0 if unknown.
func (emu *Emulator) LineNo() (line_no int) {
	if emu.Program == nil {
		return
	}

	dbg := emu.Program.Debug(emu.Cpu.Pc)
	if dbg.Opcode != nil {
		line_no = dbg.Opcode.LineNo
	}

	return
}

// Status collects the frontend visible state, and acknowledges the
// one-shot flags.
func (emu *Emulator) Status() (status Status) {
	status = Status{
		Redraw:       emu.Cpu.Redraw,
		Sound:        emu.Cpu.Sound(),
		SoundStopped: emu.Cpu.Timers.SoundStopped,
		Unknown:      emu.Cpu.Unknown,
		AwaitingKey:  emu.Cpu.AwaitingKey(),
	}

	emu.Cpu.Redraw = false
	emu.Cpu.Unknown = false
	emu.Cpu.Timers.SoundStopped = false

	return
}

func (emu *Emulator) wrap(line_no int, pc uint16, err error) error {
	if err == nil {
		return nil
	}
	return &ErrRuntime{LineNo: line_no, Pc: pc, Err: err}
}

// Tick executes a single machine cycle.
// Runtime faults are not fatal; the returned error is for reporting.
func (emu *Emulator) Tick() (status Status, err error) {
	emu.Cpu.Verbose = emu.Verbose

	line_no, pc := emu.LineNo(), emu.Cpu.Pc
	err = emu.wrap(line_no, pc, emu.Cpu.Tick())
	status = emu.Status()

	return
}

// Frame executes CyclesPerFrame instructions, ticking the timers once
// unless the last cycle is held by a wait-key.
// All faults in the frame are joined.
func (emu *Emulator) Frame() (status Status, err error) {
	emu.Cpu.Verbose = emu.Verbose

	cycles := max(emu.CyclesPerFrame, 1)

	var errs []error
	for range cycles - 1 {
		line_no, pc := emu.LineNo(), emu.Cpu.Pc
		errs = append(errs, emu.wrap(line_no, pc, emu.Cpu.Step()))
	}
	line_no, pc := emu.LineNo(), emu.Cpu.Pc
	errs = append(errs, emu.wrap(line_no, pc, emu.Cpu.Tick()))

	status = emu.Status()
	err = errors.Join(errs...)

	return
}
