package cpu

import (
	"fmt"
	"iter"
	"strings"
)

// Opcode is the assembled output of a single source line.
type Opcode struct {
	LineNo    int      // Source line number.
	Addr      int      // Memory address of the first byte.
	Words     []string // Source words.
	Codes     []Code   // Instruction (or .word) output.
	Data      []byte   // .byte output.
	LinkLabel string   // Label resolved into the last code at link time.
}

// Size returns the number of bytes generated by the opcode.
func (op *Opcode) Size() int {
	return len(op.Codes)*INSTRUCTION_SIZE + len(op.Data)
}

// Bytes returns the generated bytes, big-endian.
func (op *Opcode) Bytes() (data []byte) {
	data = make([]byte, 0, op.Size())
	for _, code := range op.Codes {
		data = append(data, byte(code>>8), byte(code))
	}
	data = append(data, op.Data...)
	return
}

func (op *Opcode) String() string {
	return fmt.Sprintf("%03x: %v", op.Addr, strings.Join(op.Words, " "))
}

// Program is an assembled program.
type Program struct {
	Opcodes []Opcode

	index map[uint16]int // Byte address to Opcodes index.
}

// NewProgram creates a program, indexed by address for Debug.
func NewProgram(opcodes []Opcode) (prog *Program) {
	prog = &Program{
		Opcodes: opcodes,
		index:   map[uint16]int{},
	}

	for n, op := range opcodes {
		for addr := op.Addr; addr < op.Addr+op.Size(); addr++ {
			if _, found := prog.index[uint16(addr)]; !found {
				prog.index[uint16(addr)] = n
			}
		}
	}

	return
}

type Debug struct {
	*Opcode
	Index int // Byte offset into the opcode.
}

// Debug finds the opcode that generated the byte at addr.
func (prog *Program) Debug(addr uint16) (dbg Debug) {
	if prog.index != nil {
		n, found := prog.index[addr]
		if found {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Index:  int(addr) - prog.Opcodes[n].Addr,
			}
		}
		return
	}

	for n, op := range prog.Opcodes {
		if int(addr) >= op.Addr && int(addr) < op.Addr+op.Size() {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Index:  int(addr) - op.Addr,
			}
			break
		}
	}

	return
}

// Binary returns the program image, starting at PROGRAM_START.
func (prog *Program) Binary() (bin []byte) {
	for _, op := range prog.Opcodes {
		offset := op.Addr - PROGRAM_START
		if offset < 0 {
			continue
		}
		end := offset + op.Size()
		if end > len(bin) {
			bin = append(bin, make([]byte, end-len(bin))...)
		}
		copy(bin[offset:], op.Bytes())
	}

	return
}

// Codes iterates over the instruction words of the program by address.
func (prog *Program) Codes() iter.Seq2[uint16, Code] {
	return func(yield func(addr uint16, code Code) bool) {
		for _, op := range prog.Opcodes {
			addr := uint16(op.Addr)
			for n, code := range op.Codes {
				if !yield(addr+uint16(n*INSTRUCTION_SIZE), code) {
					return
				}
			}
		}
	}
}

// Disassemble converts a program image loaded at PROGRAM_START back into
// a Program. Each word becomes one opcode. A trailing odd byte is kept as
// '.byte' data.
func Disassemble(rom []byte) (prog *Program) {
	var opcodes []Opcode

	for n := 0; n < len(rom); n += INSTRUCTION_SIZE {
		op := Opcode{
			LineNo: len(opcodes) + 1,
			Addr:   PROGRAM_START + n,
		}
		if n+1 < len(rom) {
			code := Code(uint16(rom[n])<<8 | uint16(rom[n+1]))
			op.Codes = []Code{code}
			op.Words = strings.Fields(code.Decode().String())
		} else {
			op.Data = []byte{rom[n]}
			op.Words = []string{".byte", fmt.Sprintf("0x%02x", rom[n])}
		}
		opcodes = append(opcodes, op)
	}

	prog = NewProgram(opcodes)

	return
}
