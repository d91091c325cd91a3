package cpu

import (
	"errors"
	"fmt"
	"iter"
	"maps"

	"github.com/sirupsen/logrus"
)

// Machine layout constants.
const (
	MEMORY_SIZE      = 4096
	MEMORY_MASK      = MEMORY_SIZE - 1
	PROGRAM_START    = 0x200                       // Load address of programs.
	PROGRAM_LIMIT    = MEMORY_SIZE - PROGRAM_START // Largest loadable program.
	REGISTER_COUNT   = 16                          // V0 through VF.
	REGISTER_FLAG    = 0xf                         // VF
	INSTRUCTION_SIZE = 2                           // Bytes per instruction word.
	TIMER_HZ         = 60                          // Nominal timer rate.
)

var _cpu_defines = map[string]string{
	"MEMORY_SIZE":      fmt.Sprintf("0x%x", MEMORY_SIZE),
	"PROGRAM_START":    fmt.Sprintf("0x%x", PROGRAM_START),
	"PROGRAM_LIMIT":    fmt.Sprintf("0x%x", PROGRAM_LIMIT),
	"FONT_START":       fmt.Sprintf("0x%x", FONT_START),
	"FONT_GLYPH_SIZE":  fmt.Sprintf("%d", FONT_GLYPH_SIZE),
	"DISPLAY_WIDTH":    fmt.Sprintf("%d", DISPLAY_WIDTH),
	"DISPLAY_HEIGHT":   fmt.Sprintf("%d", DISPLAY_HEIGHT),
	"INSTRUCTION_SIZE": fmt.Sprintf("%d", INSTRUCTION_SIZE),
}

// Cpu is the complete CHIP-8 machine state.
type Cpu struct {
	Verbose bool               // Set to enable per-cycle trace logging.
	Log     logrus.FieldLogger // Trace and fault logger.
	Random  Random             // Source for the 'rnd' instruction.

	Memory   [MEMORY_SIZE]byte     // Main memory, font included.
	Register [REGISTER_COUNT]uint8 // V0 through VF.
	I        uint16                // Index register.
	Pc       uint16                // Program counter.
	Stack    Stack                 // Return address stack.
	Timers   Timers                // Delay and sound timers.
	Display  Display               // Framebuffer.
	Keypad   Keypad                // Key latches, written by the caller.

	Redraw  bool // Raised when the display changed. Cleared by the caller.
	Unknown bool // Raised on an unrecognized instruction. Cleared by the caller.

	Ticks int // Instructions executed.
}

// NewCpu creates a machine in its power-on state.
func NewCpu() (cpu *Cpu) {
	cpu = &Cpu{
		Log:    logrus.StandardLogger(),
		Random: NewRandom(),
	}

	cpu.Reset()

	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// Reset the machine state.
// - Clears memory, registers, stack, timers, display and keypad.
// - Reloads the font.
// - Sets the program counter to PROGRAM_START.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		cpu.logger().Debug("cpu: reset")
	}

	clear(cpu.Memory[:])
	copy(cpu.Memory[FONT_START:], Font[:])
	clear(cpu.Register[:])
	cpu.I = 0
	cpu.Pc = PROGRAM_START
	cpu.Stack.Reset()
	cpu.Timers.Reset()
	cpu.Display.Clear()
	cpu.Keypad.Reset()
	cpu.Redraw = false
	cpu.Unknown = false
	cpu.Ticks = 0
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	text += fmt.Sprintf("   pc: %03X\n", cpu.Pc)
	text += fmt.Sprintf("    i: %03X\n", cpu.I)
	for n, val := range cpu.Register {
		text += fmt.Sprintf("   v%X: %02X\n", n, val)
	}
	if val, ok := cpu.Stack.Peek(); ok {
		text += fmt.Sprintf("stack: %03X (%d)\n", val, cpu.Stack.Pointer)
	} else {
		text += "stack: ---\n"
	}
	text += fmt.Sprintf("   dt: %02X\n", cpu.Timers.Delay)
	text += fmt.Sprintf("   st: %02X\n", cpu.Timers.Sound)

	return
}

func (cpu *Cpu) logger() logrus.FieldLogger {
	if cpu.Log == nil {
		return logrus.StandardLogger()
	}
	return cpu.Log
}

// Load copies a program into memory at PROGRAM_START. An oversized
// program is rejected without modifying memory.
func (cpu *Cpu) Load(program []byte) (err error) {
	if len(program) > PROGRAM_LIMIT {
		err = ErrProgramSize(len(program))
		return
	}

	copy(cpu.Memory[PROGRAM_START:], program)

	if cpu.Verbose {
		cpu.logger().WithField("size", len(program)).Debug("cpu: load")
	}

	return
}

// Read returns the byte at addr, wrapping at the end of memory.
func (cpu *Cpu) Read(addr uint16) uint8 {
	return cpu.Memory[addr&MEMORY_MASK]
}

// Write stores a byte at addr, wrapping at the end of memory.
func (cpu *Cpu) Write(addr uint16, value uint8) {
	cpu.Memory[addr&MEMORY_MASK] = value
}

// Fetch returns the big-endian instruction word at addr.
func (cpu *Cpu) Fetch(addr uint16) Code {
	return Code(uint16(cpu.Read(addr))<<8 | uint16(cpu.Read(addr+1)))
}

// SetKey sets the pressed state of a keypad key. Out of range keys are ignored.
func (cpu *Cpu) SetKey(key int, pressed bool) {
	cpu.Keypad.Set(key, pressed)
}

// Sound returns true while the sound timer is running.
func (cpu *Cpu) Sound() bool {
	return cpu.Timers.Playing()
}

// AwaitingKey returns true when the instruction at the program counter is a
// wait-key and no key is pressed.
func (cpu *Cpu) AwaitingKey() bool {
	if cpu.Fetch(cpu.Pc).Decode().Op != OP_LD_VX_K {
		return false
	}
	_, pressed := cpu.Keypad.First()
	return !pressed
}

// Tick executes a single machine cycle: one instruction, then one timer tick.
// The timers tick even when the instruction faulted, but are frozen on
// cycles held by a wait-key.
func (cpu *Cpu) Tick() (err error) {
	held := cpu.AwaitingKey()

	err = cpu.Step()
	if !held {
		cpu.Timers.Tick()
	}

	return
}

// Step fetches, decodes and executes the instruction at the program counter,
// without ticking the timers.
func (cpu *Cpu) Step() (err error) {
	code := cpu.Fetch(cpu.Pc)
	ins := code.Decode()

	if cpu.Verbose {
		cpu.logger().WithFields(logrus.Fields{
			"pc":   fmt.Sprintf("0x%03x", cpu.Pc),
			"word": fmt.Sprintf("0x%04x", uint16(code)),
			"op":   ins.String(),
		}).Debug("cpu: step")
	}

	err = cpu.Execute(ins)
	cpu.Ticks++

	return
}

// Execute executes a single decoded instruction.
//
// All faults are non-fatal: the program counter still advances past the
// faulting instruction.
func (cpu *Cpu) Execute(ins Instruction) (err error) {
	defer func() {
		if err != nil {
			err = errors.Join(ErrOpcode(ins.Code), err)
		}
	}()

	v := &cpu.Register
	x, y := ins.X, ins.Y

	next_pc := cpu.Pc + INSTRUCTION_SIZE
	skip := func(cond bool) {
		if cond {
			next_pc += INSTRUCTION_SIZE
		}
	}

	switch ins.Op {
	case OP_CLS:
		cpu.Display.Clear()
		cpu.Redraw = true
	case OP_RET:
		addr, ok := cpu.Stack.Pop()
		if !ok {
			err = ErrStackEmpty
			break
		}
		next_pc = addr + INSTRUCTION_SIZE
	case OP_JP:
		next_pc = ins.NNN
	case OP_CALL:
		if !cpu.Stack.Push(cpu.Pc) {
			err = ErrStackFull
			break
		}
		next_pc = ins.NNN
	case OP_SE_IMM:
		skip(v[x] == ins.NN)
	case OP_SNE_IMM:
		skip(v[x] != ins.NN)
	case OP_SE_REG:
		skip(v[x] == v[y])
	case OP_SNE_REG:
		skip(v[x] != v[y])
	case OP_LD_IMM:
		v[x] = ins.NN
	case OP_ADD_IMM:
		v[x] += ins.NN
	case OP_LD_REG:
		v[x] = v[y]
	case OP_OR:
		v[x] |= v[y]
	case OP_AND:
		v[x] &= v[y]
	case OP_XOR:
		v[x] ^= v[y]
	case OP_ADD_REG:
		sum := uint16(v[x]) + uint16(v[y])
		v[REGISTER_FLAG] = flag(sum > 0xff)
		v[x] = uint8(sum)
	case OP_SUB:
		v[REGISTER_FLAG] = flag(v[x] > v[y])
		v[x] -= v[y]
	case OP_SHR:
		v[REGISTER_FLAG] = v[x] & 1
		v[x] >>= 1
	case OP_SUBN:
		v[REGISTER_FLAG] = flag(v[y] > v[x])
		v[x] = v[y] - v[x]
	case OP_SHL:
		v[REGISTER_FLAG] = v[x] >> 7
		v[x] <<= 1
	case OP_LD_I:
		cpu.I = ins.NNN
	case OP_JP_V0:
		next_pc = ins.NNN + uint16(v[0])
	case OP_RND:
		if cpu.Random == nil {
			cpu.Random = NewRandom()
		}
		v[x] = cpu.Random.Byte() & ins.NN
	case OP_DRW:
		sprite := make([]byte, ins.N)
		for n := range sprite {
			sprite[n] = cpu.Read(cpu.I + uint16(n))
		}
		collision := cpu.Display.Draw(int(v[x]), int(v[y]), sprite)
		v[REGISTER_FLAG] = flag(collision)
		cpu.Redraw = true
	case OP_SKP:
		skip(cpu.Keypad.Pressed(v[x]))
	case OP_SKNP:
		skip(!cpu.Keypad.Pressed(v[x]))
	case OP_LD_VX_DT:
		v[x] = cpu.Timers.Delay
	case OP_LD_VX_K:
		key, ok := cpu.Keypad.First()
		if !ok {
			// Hold; the same instruction runs again next cycle.
			next_pc = cpu.Pc
			break
		}
		v[x] = key
	case OP_LD_DT_VX:
		cpu.Timers.Delay = v[x]
	case OP_LD_ST_VX:
		cpu.Timers.Sound = v[x]
	case OP_ADD_I:
		cpu.I += uint16(v[x])
	case OP_LD_F:
		cpu.I = FONT_START + uint16(v[x])*FONT_GLYPH_SIZE
	case OP_LD_B:
		cpu.Write(cpu.I, v[x]/100)
		cpu.Write(cpu.I+1, (v[x]/10)%10)
		cpu.Write(cpu.I+2, v[x]%10)
	case OP_LD_MEM_VX:
		for n := range uint16(x) + 1 {
			cpu.Write(cpu.I+n, v[n])
		}
	case OP_LD_VX_MEM:
		for n := range uint16(x) + 1 {
			v[n] = cpu.Read(cpu.I + n)
		}
	default:
		cpu.Unknown = true
		cpu.logger().WithFields(logrus.Fields{
			"pc":   fmt.Sprintf("0x%03x", cpu.Pc),
			"word": fmt.Sprintf("0x%04x", uint16(ins.Code)),
		}).Warn("cpu: unrecognized instruction")
		err = ErrOpcodeUnknown
	}

	cpu.Pc = next_pc

	return
}

func flag(cond bool) uint8 {
	if cond {
		return 1
	}
	return 0
}
