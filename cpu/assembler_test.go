package cpu

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssembler(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	prog, err := asm.Parse(strings.NewReader(""))
	assert.NoError(err)
	assert.Equal(0, len(prog.Opcodes))
	assert.Empty(prog.Binary())

	assert.Equal("0", asm.Equate["LINENO"])
	assert.Equal("0x200", asm.Equate["PROGRAM_START"])
	assert.Equal("0xe00", asm.Equate["PROGRAM_LIMIT"])
	assert.Equal("64", asm.Equate["DISPLAY_WIDTH"])
	assert.Equal("32", asm.Equate["DISPLAY_HEIGHT"])
}

func opEqual(t *testing.T, expected, opcodes []Opcode) {
	assert := assert.New(t)

	assert.Equal(len(expected), len(opcodes))
	if len(expected) == len(opcodes) {
		for n := range len(expected) {
			assert.Equal(expected[n], opcodes[n])
		}
	}
}

func TestAssemblerInstructions(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		text string
		code Code
	}){
		{"cls", 0x00e0},
		{"ret", 0x00ee},
		{"jp 0x345", 0x1345},
		{"jp v0, 0x345", 0xb345},
		{"call 0x345", 0x2345},
		{"se v1, 0x22", 0x3122},
		{"se v1, v2", 0x5120},
		{"sne v1, 0x22", 0x4122},
		{"sne v1, v2", 0x9120},
		{"ld v1, 0x22", 0x6122},
		{"ld v1, -1", 0x61ff},
		{"ld v1, ~0", 0x61ff},
		{"ld v1, v2", 0x8120},
		{"ld i, 0x345", 0xa345},
		{"ld v1, dt", 0xf107},
		{"ld v1, k", 0xf10a},
		{"ld dt, v1", 0xf115},
		{"ld st, v1", 0xf118},
		{"ld f, v1", 0xf129},
		{"ld b, v1", 0xf133},
		{"ld [i], v1", 0xf155},
		{"ld v1, [i]", 0xf165},
		{"add v1, 0x22", 0x7122},
		{"add v1, v2", 0x8124},
		{"add i, v1", 0xf11e},
		{"or v1, v2", 0x8121},
		{"and v1, v2", 0x8122},
		{"xor v1, v2", 0x8123},
		{"sub v1, v2", 0x8125},
		{"shr v1", 0x8106},
		{"shr v1, v2", 0x8126},
		{"subn v1, v2", 0x8127},
		{"shl v1", 0x810e},
		{"rnd v1, 0x22", 0xc122},
		{"drw v1, v2, 15", 0xd12f},
		{"skp v1", 0xe19e},
		{"sknp v1", 0xe1a1},
		{"LD VA, 'A'", 0x6a41},
		{"ld v1,v2", 0x8120},
		{"\tld\tv1 ,  0x22", 0x6122},
	}

	asm := &Assembler{}
	for _, entry := range table {
		prog, err := asm.Parse(strings.NewReader(entry.text))
		if !assert.NoError(err, entry.text) {
			continue
		}
		codes := []Code{}
		for _, code := range prog.Codes() {
			codes = append(codes, code)
		}
		assert.Equal([]Code{entry.code}, codes, entry.text)
	}
}

func TestAssemblerErrors(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		text string
		err  error
	}){
		{"bogus", ErrInstructionInvalid},
		{"cls v0", ErrOpcodeExtraArgs},
		{"ld v0", ErrOpcodeMissing},
		{"ld v0, 0x100", ErrValueRange},
		{"ld v0, -129", ErrValueRange},
		{"ld v0, zork", ErrParseNumber("zork")},
		{"ld q0, 1", ErrTargetInvalid},
		{"add vg, 1", ErrRegisterInvalid},
		{"drw v0, v1, 16", ErrValueRange},
		{"jp v1, 0x200", ErrTargetInvalid},
		{"jp 0x1000", ErrValueRange},
		{"jp nowhere", ErrLabelMissing("nowhere")},
		{"a:\na:", ErrLabelDuplicate},
		{".equ A 1\n.equ A 2", ErrEquateDuplicate},
		{".equ A", ErrEquateSyntax},
		{".macro A\n.macro B", ErrMacroNesting},
		{".macro A\n.endm\n.macro A\n.endm", ErrMacroDuplicate},
		{".macro A", ErrMacroLonely},
		{".endm", ErrMacroLonelyEndm},
		{".macro A x\n.endm\nA", ErrMacroSyntax},
		{".byte", ErrOpcodeMissing},
		{".byte 256", ErrValueRange},
		{"ld v0, $(1 +)", ErrParseExpression("1 +")},
	}

	asm := &Assembler{}
	for _, entry := range table {
		_, err := asm.Parse(strings.NewReader(entry.text))
		assert.ErrorIs(err, entry.err, entry.text)

		var syntax *ErrSyntax
		assert.True(errors.As(err, &syntax), entry.text)
	}
}

func TestAssemblerLabels(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	program := []string{
		"start:",
		"  call sub      ; forward reference",
		"  jp start",
		"sub: ld i, sprite",
		"  ret",
		"sprite:",
		"  .byte 0x3c, 0x42 0x81",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
		return
	}

	expected := []Opcode{
		{2, 0x200, []string{"call", "sub"}, []Code{0x2204}, nil, "sub"},
		{3, 0x202, []string{"jp", "start"}, []Code{0x1200}, nil, "start"},
		{4, 0x204, []string{"ld", "i", "sprite"}, []Code{0xa208}, nil, "sprite"},
		{5, 0x206, []string{"ret"}, []Code{0x00ee}, nil, ""},
		{7, 0x208, []string{".byte", "0x3c", "0x42", "0x81"}, nil, []byte{0x3c, 0x42, 0x81}, ""},
	}

	opEqual(t, expected, prog.Opcodes)

	assert.Equal(0x200, asm.Label["start"])
	assert.Equal(0x204, asm.Label["sub"])
	assert.Equal(0x208, asm.Label["sprite"])

	assert.Equal([]byte{
		0x22, 0x04,
		0x12, 0x00,
		0xa2, 0x08,
		0x00, 0xee,
		0x3c, 0x42, 0x81,
	}, prog.Binary())
}

func TestAssemblerData(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	program := []string{
		".byte 1",
		".word 0x1234 0xabcd",
		"here: .word here",
	}

	bin, err := asm.Assemble(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	// Words are not aligned.
	assert.Equal([]byte{0x01, 0x12, 0x34, 0xab, 0xcd, 0x02, 0x05}, bin)
}

func TestAssemblerEqu(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	asm.Predefine("SPEED", "3")
	program := []string{
		".equ CONST_10 0x10",
		".equ PLAYER v5",
		"ld v0, CONST_10",
		"ld v1, $(CONST_10 + CONST_10)",
		".equ CONST_30 $(2 * CONST_10 + CONST_10)",
		"ld PLAYER, CONST_30",
		"ld v3, $(LINENO * 8 + 0x10)",
		"ld v4, SPEED",
		"ld i, $(PROGRAM_START + FONT_GLYPH_SIZE)",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(errors.Unwrap(err))
	}

	assert.Equal([]byte{
		0x60, 0x10,
		0x61, 0x20,
		0x65, 0x30,
		0x63, 0x48,
		0x64, 0x03,
		0xa2, 0x05,
	}, prog.Binary())
}

func TestAssemblerMacro(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	program := []string{
		".macro SETADD rn a b",
		"ld rn, a",
		"add rn, b",
		".endm",
		"SETADD v0 8 8",
		".equ CONST_10 0x10",
		"SETADD v1, CONST_10, CONST_10",
		"SETADD v2 $(CONST_10 + CONST_10) v0",
		".macro SPIN reg",
		"@loop: sne reg, 0",
		"jp @loop",
		".endm",
		"SPIN v3",
		"SPIN v4",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
	}

	expected := []Opcode{
		{2, 0x200, []string{"ld", "v0", "8"}, []Code{0x6008}, nil, ""},
		{3, 0x202, []string{"add", "v0", "8"}, []Code{0x7008}, nil, ""},
		{2, 0x204, []string{"ld", "v1", "0x10"}, []Code{0x6110}, nil, ""},
		{3, 0x206, []string{"add", "v1", "0x10"}, []Code{0x7110}, nil, ""},
		{2, 0x208, []string{"ld", "v2", "32"}, []Code{0x6220}, nil, ""},
		{3, 0x20a, []string{"add", "v2", "v0"}, []Code{0x8204}, nil, ""},
		{10, 0x20c, []string{"sne", "v3", "0"}, []Code{0x4300}, nil, ""},
		{11, 0x20e, []string{"jp", "SPIN_4_loop"}, []Code{0x120c}, nil, "SPIN_4_loop"},
		{10, 0x210, []string{"sne", "v4", "0"}, []Code{0x4400}, nil, ""},
		{11, 0x212, []string{"jp", "SPIN_5_loop"}, []Code{0x1210}, nil, "SPIN_5_loop"},
	}

	opEqual(t, expected, prog.Opcodes)
}

func TestAssemblerMacroError(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	program := []string{
		".macro BAD",
		"ld v0, 0x1ff",
		".endm",
		"BAD",
	}

	_, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.ErrorIs(err, ErrValueRange)

	var macro *ErrMacro
	if assert.True(errors.As(err, &macro)) {
		assert.Equal("BAD", macro.Macro)
		assert.Equal(2, macro.Line)
	}
}

func TestAssemblerTooLarge(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	source := strings.Repeat(".byte 0\n", PROGRAM_LIMIT+1)

	_, err := asm.Assemble(strings.NewReader(source))
	assert.ErrorIs(err, ErrProgramTooLarge)
}

func TestAssemblerRun(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	program := []string{
		"    ld v0, 0",
		"    ld v1, 10",
		"loop:",
		"    add v0, 3",
		"    add v1, -1",
		"    se v1, 0",
		"    jp loop",
		"    ld i, result",
		"    ld b, v0",
		"done: jp done",
		"result: .byte 0 0 0",
	}

	bin, err := asm.Assemble(strings.NewReader(strings.Join(program, "\n")))
	if !assert.NoError(err) {
		return
	}

	cpu := NewCpu()
	assert.NoError(cpu.Load(bin))
	for range 100 {
		assert.NoError(cpu.Tick())
	}

	assert.Equal(uint8(30), cpu.Register[0])
	addr := asm.Label["result"]
	assert.Equal([]byte{0, 3, 0}, cpu.Memory[addr:addr+3])
	assert.Equal(uint16(asm.Label["done"]), cpu.Pc)
}
