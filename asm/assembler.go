// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package asm is a single-pass line assembler for the mcs8 instruction
// set. Forward label references are patched in a final link step.
package asm

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/mcs8/cpu"
	"github.com/ezrec/mcs8/program"
)

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO": "0",
	"OUT0":   "0xff00",
}

// mnemonicMap is the opcode table inverted: mnemonic (fixed register
// included) to the opcode byte per addressing mode.
var mnemonicMap = map[string]map[cpu.AddrMode]uint8{}

func init() {
	for opcode, op := range cpu.Ops() {
		modes, ok := mnemonicMap[op.Name]
		if !ok {
			modes = map[cpu.AddrMode]uint8{}
			mnemonicMap[op.Name] = modes
		}
		modes[op.Mode] = opcode
	}
}

// fixup is a forward label reference awaiting the final link.
type fixup struct {
	label  string
	offset int // of the 16-bit slot within the image
	lineno int
	line   string
}

// Assembler assembles text into a loadable program image.
type Assembler struct {
	Verbose bool   // If set, verbosely logs the assembler actions.
	Origin  uint16 // Load address, unless the source carries a .org.

	Label  map[string]uint16 // Map of labels to addresses.
	Equate map[string]string // Map of equates.

	predefine map[string]string
	data      []byte
	origin    uint16
	fixups    []fixup
	curLine   string
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// valueOf returns the value of a simple word. Both 0x and assembly $
// hex prefixes are accepted.
func (asm *Assembler) valueOf(word string) (value uint32, err error) {
	invert := false
	if len(word) > 0 && word[0] == '~' {
		invert = true
		word = word[1:]
	}
	if strings.HasPrefix(word, "$") {
		word = "0x" + word[1:]
	}
	v64, err := strconv.ParseInt(word, 0, 33)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	if v64 < 0 {
		v64 = 0x100000000 + v64
	}
	value = uint32(v64)

	if invert {
		value = ^value
	}

	return
}

// parenEval evaluates a $( ... ) expression with the equates and the
// labels seen so far as predeclared values.
func (asm *Assembler) parenEval(expr string) (value uint32, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var value32 uint32
		value32, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates.
			continue
		}
		pred[key] = starlark.MakeInt(int(value32))
	}
	for key, addr := range asm.Label {
		pred[key] = starlark.MakeInt(int(addr))
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
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
	st_int64, ok := st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value = uint32(st_int64)
	return
}

// here is the address the next emitted byte lands at.
func (asm *Assembler) here() uint16 {
	return asm.origin + uint16(len(asm.data))
}

func (asm *Assembler) emit(bytes ...byte) {
	asm.data = append(asm.data, bytes...)
}

var parenRe = regexp.MustCompile(`\$\([^\$]*\)`)

// parseLine expands $() expressions and equates, records labels, and
// returns the remaining instruction words.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do $() evaluations
	line = parenRe.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%#v", value)
	})
	if err != nil {
		return
	}

	words = strings.Fields(line)
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

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		if asm.Label == nil {
			asm.Label = make(map[string]uint16, 16)
		}
		asm.Label[label] = asm.here()
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	// Check for equates
	for n, word := range words {
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	return
}

// address resolves an operand word to a 16-bit address, deferring
// unknown words to the final label link.
func (asm *Assembler) address(word string, lineno, line_at int) (addr uint16, deferred bool, err error) {
	value, err := asm.valueOf(word)
	if err == nil {
		if value > 0xffff {
			err = ErrOperandRange
			return
		}
		addr = uint16(value)
		return
	}

	// Not a number: treat as a label for the link pass.
	err = nil
	deferred = true
	asm.fixups = append(asm.fixups, fixup{
		label:  word,
		offset: line_at,
		lineno: lineno,
		line:   asm.curLine,
	})
	return
}

// parseWords assembles one directive or instruction.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	if len(words) == 0 {
		return
	}

	switch words[0] {
	case ".org":
		if len(words) != 2 {
			err = ErrOrgSyntax
			return
		}
		if len(asm.data) > 0 {
			err = ErrOrgLate
			return
		}
		value, err_tmp := asm.valueOf(words[1])
		if err_tmp != nil {
			return err_tmp
		}
		if value > 0xffff {
			return ErrOperandRange
		}
		// Labels defined ahead of the .org move with it.
		for label, addr := range asm.Label {
			asm.Label[label] = addr - asm.origin + uint16(value)
		}
		asm.origin = uint16(value)
		return

	case ".db":
		if len(words) < 2 {
			err = ErrDataSyntax
			return
		}
		for _, word := range words[1:] {
			value, err_tmp := asm.valueOf(word)
			if err_tmp != nil {
				return err_tmp
			}
			if value > 0xff {
				return ErrOperandRange
			}
			asm.emit(byte(value))
		}
		return
	}

	name := strings.ToUpper(words[0])
	args := words[1:]

	// Two-word mnemonics carry their fixed register in the name.
	if len(args) > 0 {
		full := name + " " + strings.ToUpper(args[0])
		if _, ok := mnemonicMap[full]; ok {
			name = full
			args = args[1:]
		}
	}

	modes, ok := mnemonicMap[name]
	if !ok {
		err = ErrMnemonic(words[0])
		return
	}

	operand := strings.Join(args, "")

	var mode cpu.AddrMode
	switch {
	case operand == "":
		mode = cpu.MODE_IMP
	case strings.HasPrefix(operand, "#"):
		mode = cpu.MODE_IMM
		operand = operand[1:]
	case strings.HasSuffix(strings.ToUpper(operand), ",X"):
		mode = cpu.MODE_ABX
		operand = operand[:len(operand)-2]
	default:
		mode = cpu.MODE_ABS
	}

	opcode, ok := modes[mode]
	if !ok {
		err = ErrOperandMode
		return
	}

	switch mode {
	case cpu.MODE_IMP:
		asm.emit(opcode)

	case cpu.MODE_IMM:
		value, err_tmp := asm.valueOf(operand)
		if err_tmp != nil {
			return err_tmp
		}
		if value > 0xff {
			return ErrOperandRange
		}
		asm.emit(opcode, byte(value))

	case cpu.MODE_ABS, cpu.MODE_ABX:
		asm.emit(opcode)
		addr, deferred, err_tmp := asm.address(operand, lineno, len(asm.data))
		if err_tmp != nil {
			return err_tmp
		}
		if deferred {
			asm.emit(0, 0)
		} else {
			asm.emit(byte(addr), byte(addr>>8))
		}
	}

	return
}

// Parse assembles an input stream into a program image.
func (asm *Assembler) Parse(input io.Reader) (prog *program.Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int

	defer func() {
		if err != nil {
			err = ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	clear(asm.Label)
	asm.data = asm.data[:0]
	asm.fixups = asm.fixups[:0]
	asm.origin = asm.Origin
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		line = strings.TrimSpace(stripComment(text))
		asm.curLine = line

		var words []string
		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}
	if err = scanner.Err(); err != nil {
		return
	}

	// Final linking of jump labels.
	for _, fix := range asm.fixups {
		addr, ok := asm.Label[fix.label]
		if !ok {
			lineno = fix.lineno
			line = fix.line
			err = ErrLabelMissing(fix.label)
			return
		}
		asm.data[fix.offset] = byte(addr)
		asm.data[fix.offset+1] = byte(addr >> 8)
	}

	if len(asm.data) == 0 {
		err = program.ErrProgramEmpty
		return
	}

	prog = &program.Program{
		Data:   append([]byte(nil), asm.data...),
		Origin: asm.origin,
	}

	return
}

// stripComment drops ';' line comments. '#' is the immediate-operand
// sigil here, unlike the hex loader's comment marker.
func stripComment(line string) string {
	if at := strings.Index(line, ";"); at >= 0 {
		line = line[:at]
	}
	return line
}
