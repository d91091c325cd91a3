package cpu

import (
	"fmt"
)

// Op is a decoded instruction form.
type Op int

//go:generate go tool stringer -linecomment -type=Op
const (
	OP_UNKNOWN   = Op(0)  // unrecognized
	OP_CLS       = Op(1)  // clear-display
	OP_RET       = Op(2)  // return
	OP_JP        = Op(3)  // jump
	OP_CALL      = Op(4)  // call
	OP_SE_IMM    = Op(5)  // skip-eq-imm
	OP_SNE_IMM   = Op(6)  // skip-ne-imm
	OP_SE_REG    = Op(7)  // skip-eq-reg
	OP_LD_IMM    = Op(8)  // set-imm
	OP_ADD_IMM   = Op(9)  // add-imm
	OP_LD_REG    = Op(10) // set-reg
	OP_OR        = Op(11) // or
	OP_AND       = Op(12) // and
	OP_XOR       = Op(13) // xor
	OP_ADD_REG   = Op(14) // add-reg
	OP_SUB       = Op(15) // sub-reg
	OP_SHR       = Op(16) // shift-right
	OP_SUBN      = Op(17) // sub-reg-reverse
	OP_SHL       = Op(18) // shift-left
	OP_SNE_REG   = Op(19) // skip-ne-reg
	OP_LD_I      = Op(20) // set-index
	OP_JP_V0     = Op(21) // jump-offset
	OP_RND       = Op(22) // random
	OP_DRW       = Op(23) // draw
	OP_SKP       = Op(24) // skip-key-pressed
	OP_SKNP      = Op(25) // skip-key-not-pressed
	OP_LD_VX_DT  = Op(26) // get-delay-timer
	OP_LD_VX_K   = Op(27) // wait-key
	OP_LD_DT_VX  = Op(28) // set-delay-timer
	OP_LD_ST_VX  = Op(29) // set-sound-timer
	OP_ADD_I     = Op(30) // add-to-index
	OP_LD_F      = Op(31) // char-sprite-address
	OP_LD_B      = Op(32) // store-bcd
	OP_LD_MEM_VX = Op(33) // store-registers
	OP_LD_VX_MEM = Op(34) // load-registers
)

// OP_COUNT is the number of Op values, OP_UNKNOWN included.
const OP_COUNT = 35

// Code is a raw 16-bit instruction word.
type Code uint16

// Group returns the primary nibble (bits 12-15).
func (code Code) Group() uint8 {
	return uint8(code>>12) & 0xf
}

// X returns the register index in bits 8-11.
func (code Code) X() uint8 {
	return uint8(code>>8) & 0xf
}

// Y returns the register index in bits 4-7.
func (code Code) Y() uint8 {
	return uint8(code>>4) & 0xf
}

// N returns the low nibble.
func (code Code) N() uint8 {
	return uint8(code) & 0xf
}

// NN returns the low byte.
func (code Code) NN() uint8 {
	return uint8(code)
}

// NNN returns the low 12 bits.
func (code Code) NNN() uint16 {
	return uint16(code) & 0xfff
}

// MakeCodeNNN creates an instruction with a 12-bit address operand.
func MakeCodeNNN(group uint8, nnn uint16) Code {
	return Code(uint16(group&0xf)<<12 | (nnn & 0xfff))
}

// MakeCodeXNN creates an instruction with a register and an immediate byte.
func MakeCodeXNN(group uint8, x uint8, nn uint8) Code {
	return Code(uint16(group&0xf)<<12 | uint16(x&0xf)<<8 | uint16(nn))
}

// MakeCodeXYN creates an instruction with two registers and a nibble.
func MakeCodeXYN(group uint8, x, y, n uint8) Code {
	return Code(uint16(group&0xf)<<12 | uint16(x&0xf)<<8 | uint16(y&0xf)<<4 | uint16(n&0xf))
}

// Instruction is a decoded instruction word.
type Instruction struct {
	Code Code   // Raw instruction word.
	Op   Op     // Decoded form.
	X    uint8  // Register index, bits 8-11.
	Y    uint8  // Register index, bits 4-7.
	N    uint8  // Low nibble.
	NN   uint8  // Low byte.
	NNN  uint16 // Low 12 bits.
}

// Decode decodes a raw instruction word into an Instruction.
func Decode(word uint16) Instruction {
	return Code(word).Decode()
}

// Decode maps the instruction word to its form. Words that match no form
// decode as OP_UNKNOWN.
//
// Matching is strict: unlike interpreters that only test the low nibble,
// 5XY1 and 9XY1 are not register skips, and 00F0 is not a clear.
func (code Code) Decode() (ins Instruction) {
	ins = Instruction{
		Code: code,
		Op:   OP_UNKNOWN,
		X:    code.X(),
		Y:    code.Y(),
		N:    code.N(),
		NN:   code.NN(),
		NNN:  code.NNN(),
	}

	switch code.Group() {
	case 0x0:
		switch code {
		case 0x00e0:
			ins.Op = OP_CLS
		case 0x00ee:
			ins.Op = OP_RET
		}
	case 0x1:
		ins.Op = OP_JP
	case 0x2:
		ins.Op = OP_CALL
	case 0x3:
		ins.Op = OP_SE_IMM
	case 0x4:
		ins.Op = OP_SNE_IMM
	case 0x5:
		if ins.N == 0 {
			ins.Op = OP_SE_REG
		}
	case 0x6:
		ins.Op = OP_LD_IMM
	case 0x7:
		ins.Op = OP_ADD_IMM
	case 0x8:
		switch ins.N {
		case 0x0:
			ins.Op = OP_LD_REG
		case 0x1:
			ins.Op = OP_OR
		case 0x2:
			ins.Op = OP_AND
		case 0x3:
			ins.Op = OP_XOR
		case 0x4:
			ins.Op = OP_ADD_REG
		case 0x5:
			ins.Op = OP_SUB
		case 0x6:
			ins.Op = OP_SHR
		case 0x7:
			ins.Op = OP_SUBN
		case 0xe:
			ins.Op = OP_SHL
		}
	case 0x9:
		if ins.N == 0 {
			ins.Op = OP_SNE_REG
		}
	case 0xa:
		ins.Op = OP_LD_I
	case 0xb:
		ins.Op = OP_JP_V0
	case 0xc:
		ins.Op = OP_RND
	case 0xd:
		ins.Op = OP_DRW
	case 0xe:
		switch ins.NN {
		case 0x9e:
			ins.Op = OP_SKP
		case 0xa1:
			ins.Op = OP_SKNP
		}
	case 0xf:
		switch ins.NN {
		case 0x07:
			ins.Op = OP_LD_VX_DT
		case 0x0a:
			ins.Op = OP_LD_VX_K
		case 0x15:
			ins.Op = OP_LD_DT_VX
		case 0x18:
			ins.Op = OP_LD_ST_VX
		case 0x1e:
			ins.Op = OP_ADD_I
		case 0x29:
			ins.Op = OP_LD_F
		case 0x33:
			ins.Op = OP_LD_B
		case 0x55:
			ins.Op = OP_LD_MEM_VX
		case 0x65:
			ins.Op = OP_LD_VX_MEM
		}
	}

	return
}

// WritesFlag returns true if the instruction overwrites VF as a side effect.
func (ins Instruction) WritesFlag() bool {
	switch ins.Op {
	case OP_ADD_REG, OP_SUB, OP_SHR, OP_SUBN, OP_SHL, OP_DRW:
		return true
	}
	return false
}

// String returns the assembly language representation of the instruction.
// The output is accepted by the Assembler.
func (ins Instruction) String() (out string) {
	x, y := ins.X, ins.Y

	switch ins.Op {
	case OP_CLS:
		out = "cls"
	case OP_RET:
		out = "ret"
	case OP_JP:
		out = fmt.Sprintf("jp 0x%03x", ins.NNN)
	case OP_CALL:
		out = fmt.Sprintf("call 0x%03x", ins.NNN)
	case OP_SE_IMM:
		out = fmt.Sprintf("se v%x, 0x%02x", x, ins.NN)
	case OP_SNE_IMM:
		out = fmt.Sprintf("sne v%x, 0x%02x", x, ins.NN)
	case OP_SE_REG:
		out = fmt.Sprintf("se v%x, v%x", x, y)
	case OP_SNE_REG:
		out = fmt.Sprintf("sne v%x, v%x", x, y)
	case OP_LD_IMM:
		out = fmt.Sprintf("ld v%x, 0x%02x", x, ins.NN)
	case OP_ADD_IMM:
		out = fmt.Sprintf("add v%x, 0x%02x", x, ins.NN)
	case OP_LD_REG:
		out = fmt.Sprintf("ld v%x, v%x", x, y)
	case OP_OR:
		out = fmt.Sprintf("or v%x, v%x", x, y)
	case OP_AND:
		out = fmt.Sprintf("and v%x, v%x", x, y)
	case OP_XOR:
		out = fmt.Sprintf("xor v%x, v%x", x, y)
	case OP_ADD_REG:
		out = fmt.Sprintf("add v%x, v%x", x, y)
	case OP_SUB:
		out = fmt.Sprintf("sub v%x, v%x", x, y)
	case OP_SUBN:
		out = fmt.Sprintf("subn v%x, v%x", x, y)
	case OP_SHR, OP_SHL:
		name := "shr"
		if ins.Op == OP_SHL {
			name = "shl"
		}
		// VY is ignored, but kept so the word reassembles unchanged.
		if y != 0 {
			out = fmt.Sprintf("%v v%x, v%x", name, x, y)
		} else {
			out = fmt.Sprintf("%v v%x", name, x)
		}
	case OP_LD_I:
		out = fmt.Sprintf("ld i, 0x%03x", ins.NNN)
	case OP_JP_V0:
		out = fmt.Sprintf("jp v0, 0x%03x", ins.NNN)
	case OP_RND:
		out = fmt.Sprintf("rnd v%x, 0x%02x", x, ins.NN)
	case OP_DRW:
		out = fmt.Sprintf("drw v%x, v%x, %d", x, y, ins.N)
	case OP_SKP:
		out = fmt.Sprintf("skp v%x", x)
	case OP_SKNP:
		out = fmt.Sprintf("sknp v%x", x)
	case OP_LD_VX_DT:
		out = fmt.Sprintf("ld v%x, dt", x)
	case OP_LD_VX_K:
		out = fmt.Sprintf("ld v%x, k", x)
	case OP_LD_DT_VX:
		out = fmt.Sprintf("ld dt, v%x", x)
	case OP_LD_ST_VX:
		out = fmt.Sprintf("ld st, v%x", x)
	case OP_ADD_I:
		out = fmt.Sprintf("add i, v%x", x)
	case OP_LD_F:
		out = fmt.Sprintf("ld f, v%x", x)
	case OP_LD_B:
		out = fmt.Sprintf("ld b, v%x", x)
	case OP_LD_MEM_VX:
		out = fmt.Sprintf("ld [i], v%x", x)
	case OP_LD_VX_MEM:
		out = fmt.Sprintf("ld v%x, [i]", x)
	default:
		out = fmt.Sprintf(".word 0x%04x", uint16(ins.Code))
	}

	return
}
