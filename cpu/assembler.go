// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Predefined system equates
var sysEquate = func() (equ map[string]string) {
	equ = maps.Clone(_cpu_defines)
	equ["LINENO"] = "0"
	return
}()

var (
	reCharacter = regexp.MustCompile(`'\\?[^']'`)
	reParen     = regexp.MustCompile(`\$\([^\$]*\)`)
	reLabel     = regexp.MustCompile(`^[A-Za-z_.][A-Za-z0-9_.]*$`)
)

// Assembler is a single pass macro assembler for CHIP-8 programs.
//
// Instructions use the conventional mnemonics ('ld v0, 0x10', 'drw v0, v1, 5'),
// with ';' comments, 'label:' definitions, '.equ NAME VALUE', '.byte' and
// '.word' data, '.macro NAME ARGS...'/'.endm' and $(...) expressions.
type Assembler struct {
	Verbose bool               // If set, verbosely logs the assembler actions.
	Log     logrus.FieldLogger // Logger for verbose output.
	Opcode  []Opcode           // List of generated opcodes.

	predefine map[string]string   // Predefines
	Label     map[string]int      // Map of labels to addresses.
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.

	expansion int // Count of macro expansions.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

func (asm *Assembler) logger() logrus.FieldLogger {
	if asm.Log == nil {
		return logrus.StandardLogger()
	}
	return asm.Log
}

// valueOf returns the value of a simple word.
func (asm *Assembler) valueOf(word string) (value int64, err error) {
	invert := false
	if word[0] == '~' {
		invert = true
		word = word[1:]
		if len(word) == 0 {
			err = ErrParseNumber("~")
			return
		}
	}
	if word[0] == '\'' {
		// Character quotes should have been expanded into
		// values in parseLine()
		err = ErrParseCharacter(strings.Trim(word, "'"))
		return
	}
	value, err = strconv.ParseInt(word, 0, 32)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	if invert {
		value = ^value
	}

	return
}

// number returns a value in the range [0, limit]. Negative values down to
// -(limit+1)/2 are accepted in two's complement.
func (asm *Assembler) number(word string, limit int64) (value int64, err error) {
	value, err = asm.valueOf(word)
	if err != nil {
		return
	}

	if value < -(limit+1)/2 || value > limit {
		err = errors.Join(ErrValueRange, ErrParseNumber(word))
		return
	}

	value &= limit
	return
}

// register returns the register index of a 'vX' word.
func register(word string) (reg uint8, ok bool) {
	word = strings.ToLower(word)
	if len(word) != 2 || word[0] != 'v' {
		return
	}
	n, err := strconv.ParseUint(word[1:], 16, 4)
	if err != nil {
		return
	}
	return uint8(n), true
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		if len(str) == 0 {
			continue
		}
		var num int64
		num, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			err = nil
			continue
		}
		pred[key] = starlark.MakeInt64(num)
	}
	for key, addr := range asm.Label {
		pred[key] = starlark.MakeInt(addr)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		err = errors.Join(ErrParseExpression(expr), err)
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	return
}

// splitWords splits a line into words. Commas separate words like spaces.
func splitWords(line string) []string {
	return strings.Fields(strings.ReplaceAll(line, ",", " "))
}

// parseLine parses a single line as an opcode.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do 'x' evaluations
	line = reCharacter.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "e":
				str = "\033"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	line = reParen.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%d", value)
	})
	if err != nil {
		return
	}

	words = splitWords(line)

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		// Check for equate next
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		if asm.Label == nil {
			asm.Label = make(map[string]int, 16)
		}
		asm.Label[label] = asm.currentAddr()
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = words[1+n]
		}
		defer func() { asm.Equate = old_equate }()

		// '@' makes labels local to this expansion.
		asm.expansion++
		local := fmt.Sprintf("%v_%v_", name, asm.expansion)

		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			line = strings.ReplaceAll(line, "@", local)
			words, err = asm.parseLine(line, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}

			err = asm.parseWords(words, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}
		}

		words = nil
		return
	}

	return
}

// currentAddr gets the address of the next generated byte.
func (asm *Assembler) currentAddr() int {
	if len(asm.Opcode) == 0 {
		return PROGRAM_START
	}

	last := &asm.Opcode[len(asm.Opcode)-1]

	return last.Addr + last.Size()
}

// Parse parses an input stream into a Program containing opcodes.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {

	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			var syntaxErr *ErrSyntax
			if !errors.As(err, &syntaxErr) {
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
			}
		}
	}()

	clear(asm.Label)
	asm.expansion = 0
	asm.Opcode = asm.Opcode[:0]
	if asm.Macro == nil {
		asm.Macro = make(map[string](*Macro))
	}
	clear(asm.Macro)
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			asm.logger().WithField("line", lineno).Debug(text)
		}

		text_comment := strings.Split(text, ";")
		line = strings.TrimSpace(text_comment[0])
		words := splitWords(line)

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
			}
			if len(words) > 2 {
				macro.Args = words[2:]
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	// Final linking of labels.
	for n := range asm.Opcode {
		op := &asm.Opcode[n]

		if len(op.LinkLabel) == 0 {
			continue
		}
		label := op.LinkLabel
		addr, ok := asm.Label[label]
		if !ok {
			lineno, line = op.LineNo, strings.Join(op.Words, " ")
			err = ErrLabelMissing(label)
			return
		}
		if addr > 0xfff {
			lineno, line = op.LineNo, strings.Join(op.Words, " ")
			err = ErrValueRange
			return
		}
		linked := &op.Codes[len(op.Codes)-1]
		*linked |= Code(addr)
	}

	prog = NewProgram(slices.Clone(asm.Opcode))

	return
}

// Assemble is a convenience wrapper around Parse that returns the binary image.
func (asm *Assembler) Assemble(input io.Reader) (bin []byte, err error) {
	prog, err := asm.Parse(input)
	if err != nil {
		return
	}

	bin = prog.Binary()
	if len(bin) > PROGRAM_LIMIT {
		err = ErrProgramSize(len(bin))
		return
	}

	return
}

// address returns an address operand, or a label to be linked.
func (asm *Assembler) address(word string) (nnn uint16, label string, err error) {
	value, err := asm.number(word, 0xfff)
	if err == nil {
		nnn = uint16(value)
		return
	}

	if reLabel.MatchString(word) {
		label = word
		err = nil
		return
	}

	return
}

// arithMap maps the register-to-register forms to their low nibble.
var arithMap = map[string]uint8{
	"or":   0x1,
	"and":  0x2,
	"xor":  0x3,
	"sub":  0x5,
	"subn": 0x7,
}

// loadMap maps 'ld' forms with a special operand to their low byte.
var loadMap = map[[2]string]uint8{
	{"x", "dt"}:  0x07,
	{"x", "k"}:   0x0a,
	{"dt", "x"}:  0x15,
	{"st", "x"}:  0x18,
	{"f", "x"}:   0x29,
	{"b", "x"}:   0x33,
	{"[i]", "x"}: 0x55,
	{"x", "[i]"}: 0x65,
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	var codes []Code
	var data []byte
	var label string

	// no-op
	if len(words) == 0 {
		return
	}

	initial_words := words

	defer func() {
		if err != nil || (len(codes) == 0 && len(data) == 0) {
			return
		}
		opcode := Opcode{LineNo: lineno, Addr: asm.currentAddr(), Words: initial_words, Codes: codes, Data: data, LinkLabel: label}
		asm.Opcode = append(asm.Opcode, opcode)
	}()

	mnemonic := strings.ToLower(words[0])
	args := words[1:]

	want := func(count int) bool {
		switch {
		case len(args) < count:
			err = ErrOpcodeMissing
		case len(args) > count:
			err = ErrOpcodeExtraArgs
		}
		return err == nil
	}

	reg := func(n int) (x uint8) {
		x, ok := register(args[n])
		if !ok {
			err = errors.Join(ErrRegisterInvalid, ErrParseNumber(args[n]))
		}
		return
	}

	imm := func(n int, limit int64) (value uint8) {
		var v int64
		v, err = asm.number(args[n], limit)
		value = uint8(v)
		return
	}

	switch mnemonic {
	case ".byte":
		if len(args) == 0 {
			err = ErrOpcodeMissing
			return
		}
		for n := range args {
			value := imm(n, 0xff)
			if err != nil {
				return
			}
			data = append(data, value)
		}
	case ".word":
		if len(args) == 0 {
			err = ErrOpcodeMissing
			return
		}
		for _, arg := range args {
			var value int64
			value, err = asm.number(arg, 0xffff)
			if err != nil && len(args) == 1 && reLabel.MatchString(arg) {
				// Single word may be a label.
				value, label, err = 0, arg, nil
			}
			if err != nil {
				return
			}
			codes = append(codes, Code(value))
		}
	case "cls":
		if !want(0) {
			return
		}
		codes = append(codes, 0x00e0)
	case "ret":
		if !want(0) {
			return
		}
		codes = append(codes, 0x00ee)
	case "jp":
		if len(args) == 2 {
			if x := reg(0); err != nil || x != 0 {
				err = ErrTargetInvalid
				return
			}
			args = args[1:]
			var nnn uint16
			nnn, label, err = asm.address(args[0])
			if err != nil {
				return
			}
			codes = append(codes, MakeCodeNNN(0xb, nnn))
			return
		}
		if !want(1) {
			return
		}
		var nnn uint16
		nnn, label, err = asm.address(args[0])
		if err != nil {
			return
		}
		codes = append(codes, MakeCodeNNN(0x1, nnn))
	case "call":
		if !want(1) {
			return
		}
		var nnn uint16
		nnn, label, err = asm.address(args[0])
		if err != nil {
			return
		}
		codes = append(codes, MakeCodeNNN(0x2, nnn))
	case "se", "sne":
		if !want(2) {
			return
		}
		x := reg(0)
		if err != nil {
			return
		}
		if y, ok := register(args[1]); ok {
			group := uint8(0x5)
			if mnemonic == "sne" {
				group = 0x9
			}
			codes = append(codes, MakeCodeXYN(group, x, y, 0))
			return
		}
		nn := imm(1, 0xff)
		if err != nil {
			return
		}
		group := uint8(0x3)
		if mnemonic == "sne" {
			group = 0x4
		}
		codes = append(codes, MakeCodeXNN(group, x, nn))
	case "ld":
		if !want(2) {
			return
		}
		dst, src := strings.ToLower(args[0]), strings.ToLower(args[1])
		if dst == "i" {
			var nnn uint16
			nnn, label, err = asm.address(args[1])
			if err != nil {
				return
			}
			codes = append(codes, MakeCodeNNN(0xa, nnn))
			return
		}
		// Special operand forms.
		x, dst_is_reg := register(dst)
		y, src_is_reg := register(src)
		key := [2]string{dst, src}
		switch {
		case dst_is_reg && !src_is_reg:
			key[0] = "x"
		case src_is_reg && !dst_is_reg:
			key[1] = "x"
			x = y
		}
		if nn, ok := loadMap[key]; ok {
			codes = append(codes, MakeCodeXNN(0xf, x, nn))
			return
		}
		if !dst_is_reg {
			err = ErrTargetInvalid
			return
		}
		if src_is_reg {
			codes = append(codes, MakeCodeXYN(0x8, x, y, 0x0))
			return
		}
		nn := imm(1, 0xff)
		if err != nil {
			return
		}
		codes = append(codes, MakeCodeXNN(0x6, x, nn))
	case "add":
		if !want(2) {
			return
		}
		if strings.ToLower(args[0]) == "i" {
			x, ok := register(args[1])
			if !ok {
				err = ErrRegisterInvalid
				return
			}
			codes = append(codes, MakeCodeXNN(0xf, x, 0x1e))
			return
		}
		x := reg(0)
		if err != nil {
			return
		}
		if y, ok := register(args[1]); ok {
			codes = append(codes, MakeCodeXYN(0x8, x, y, 0x4))
			return
		}
		nn := imm(1, 0xff)
		if err != nil {
			return
		}
		codes = append(codes, MakeCodeXNN(0x7, x, nn))
	case "or", "and", "xor", "sub", "subn":
		if !want(2) {
			return
		}
		x, y := reg(0), reg(1)
		if err != nil {
			return
		}
		codes = append(codes, MakeCodeXYN(0x8, x, y, arithMap[mnemonic]))
	case "shr", "shl":
		if len(args) == 1 {
			args = append(args, "v0")
		}
		if !want(2) {
			return
		}
		x, y := reg(0), reg(1)
		if err != nil {
			return
		}
		n := uint8(0x6)
		if mnemonic == "shl" {
			n = 0xe
		}
		codes = append(codes, MakeCodeXYN(0x8, x, y, n))
	case "rnd":
		if !want(2) {
			return
		}
		x := reg(0)
		if err != nil {
			return
		}
		nn := imm(1, 0xff)
		if err != nil {
			return
		}
		codes = append(codes, MakeCodeXNN(0xc, x, nn))
	case "drw":
		if !want(3) {
			return
		}
		x, y := reg(0), reg(1)
		if err != nil {
			return
		}
		n := imm(2, 0xf)
		if err != nil {
			return
		}
		codes = append(codes, MakeCodeXYN(0xd, x, y, n))
	case "skp", "sknp":
		if !want(1) {
			return
		}
		x := reg(0)
		if err != nil {
			return
		}
		nn := uint8(0x9e)
		if mnemonic == "sknp" {
			nn = 0xa1
		}
		codes = append(codes, MakeCodeXNN(0xe, x, nn))
	default:
		err = ErrInstructionInvalid
		return
	}

	return
}
