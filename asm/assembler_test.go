package asm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/mcs8/cpu"
)

func parse(t *testing.T, lines ...string) ([]byte, uint16, error) {
	t.Helper()
	asm := &Assembler{}
	prog, err := asm.Parse(strings.NewReader(strings.Join(lines, "\n")))
	if err != nil {
		return nil, 0, err
	}
	return prog.Data, prog.Origin, nil
}

func TestAssembler(t *testing.T) {
	assert := assert.New(t)

	data, origin, err := parse(t,
		"; counter",
		"  LDA #$00",
		"  LDB #1",
		"loop: STA OUT0",
		"  ADD B",
		"  JNZ loop",
		"  HLT",
	)
	assert.NoError(err)
	assert.Equal(uint16(0), origin)
	assert.Equal([]byte{
		0x10, 0x00,
		0x11, 0x01,
		0x13, 0x00, 0xff,
		0x20,
		0x32, 0x04, 0x00,
		0xff,
	}, data)
}

func TestAssemblerModes(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name   string
		line   string
		expect []byte
	}){
		{"implied", "NOP", []byte{0x00}},
		{"immediate", "LDA #$2a", []byte{0x10, 0x2a}},
		{"immediate_commented", "LDA #$2a ; load", []byte{0x10, 0x2a}},
		{"immediate_decimal", "LDX #10", []byte{0x33, 0x0a}},
		{"absolute", "LDA $1234", []byte{0x12, 0x34, 0x12}},
		{"indexed", "LDA $2000,X", []byte{0x34, 0x00, 0x20}},
		{"indexed_spaced", "STA $2000 , x", []byte{0x35, 0x00, 0x20}},
		{"two_word", "XOR B", []byte{0x24}},
		{"lower_case", "inc a", []byte{0x25}},
		{"halt", "HLT", []byte{0xff}},
	}

	for _, entry := range table {
		data, _, err := parse(t, entry.line)
		if assert.NoError(err, entry.name) {
			assert.Equal(entry.expect, data, entry.name)
		}
	}
}

func TestAssemblerForwardLabel(t *testing.T) {
	assert := assert.New(t)

	data, _, err := parse(t,
		"  JMP done",
		"  NOP",
		"done: HLT",
	)
	assert.NoError(err)
	assert.Equal([]byte{0x30, 0x04, 0x00, 0x00, 0xff}, data)
}

func TestAssemblerOrg(t *testing.T) {
	assert := assert.New(t)

	data, origin, err := parse(t,
		".org $8000",
		"start: JMP start",
	)
	assert.NoError(err)
	assert.Equal(uint16(0x8000), origin)
	assert.Equal([]byte{0x30, 0x00, 0x80}, data)
}

func TestAssemblerOrgAfterLabel(t *testing.T) {
	assert := assert.New(t)

	// A label ahead of the .org rides along to the new origin.
	data, origin, err := parse(t,
		"start:",
		".org $8000",
		"  JMP start",
	)
	assert.NoError(err)
	assert.Equal(uint16(0x8000), origin)
	assert.Equal([]byte{0x30, 0x00, 0x80}, data)
}

func TestAssemblerEquates(t *testing.T) {
	assert := assert.New(t)

	data, _, err := parse(t,
		".equ PORT $ff00",
		".equ TEN 10",
		"  LDB #TEN",
		"  STA PORT",
	)
	assert.NoError(err)
	assert.Equal([]byte{0x11, 0x0a, 0x13, 0x00, 0xff}, data)
}

func TestAssemblerExpressions(t *testing.T) {
	assert := assert.New(t)

	data, _, err := parse(t,
		".equ BASE $1000",
		"  LDA $( BASE + 0x34 )",
		"  LDB #$( 2 * 5 )",
		"  .db $( 0xf0 | 0x0f )",
	)
	assert.NoError(err)
	assert.Equal([]byte{0x12, 0x34, 0x10, 0x11, 0x0a, 0xff}, data)
}

func TestAssemblerData(t *testing.T) {
	assert := assert.New(t)

	data, _, err := parse(t,
		".db 1 2 3",
		".db $ff 0x10",
	)
	assert.NoError(err)
	assert.Equal([]byte{1, 2, 3, 0xff, 0x10}, data)
}

func TestAssemblerPredefine(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	asm.Predefine("PORT", "$ff00")
	prog, err := asm.Parse(strings.NewReader("STA PORT"))
	assert.NoError(err)
	assert.Equal([]byte{0x13, 0x00, 0xff}, prog.Data)
}

func TestAssemblerErrors(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name   string
		lines  []string
		expect error
	}){
		{"bad_mnemonic", []string{"WIBBLE"}, ErrMnemonic("WIBBLE")},
		{"bad_mode", []string{"LDB $1234"}, ErrOperandMode},
		{"imm_range", []string{"LDA #$100"}, ErrOperandRange},
		{"label_missing", []string{"JMP nowhere", "HLT"}, ErrLabelMissing("nowhere")},
		{"label_duplicate", []string{"a: NOP", "a: NOP"}, ErrLabelDuplicate},
		{"equ_duplicate", []string{".equ A 1", ".equ A 2"}, ErrEquateDuplicate},
		{"equ_syntax", []string{".equ A"}, ErrEquateSyntax},
		{"org_late", []string{"NOP", ".org $100"}, ErrOrgLate},
		{"empty", []string{"; nothing"}, nil},
	}

	for _, entry := range table {
		_, _, err := parse(t, entry.lines...)
		if !assert.Error(err, entry.name) {
			continue
		}
		if entry.expect != nil {
			assert.ErrorIs(err, entry.expect, entry.name)
		}

		var syntax ErrSyntax
		if entry.name != "empty" {
			assert.ErrorAs(err, &syntax, entry.name)
		}
	}
}

func TestAssemblerRoundTrip(t *testing.T) {
	assert := assert.New(t)

	data, origin, err := parse(t,
		"  LDA #$00",
		"  LDB #$01",
		"loop:",
		"  STA OUT0",
		"  ADD B",
		"  JMP loop",
	)
	assert.NoError(err)

	cp := cpu.NewCpu(0)
	assert.NoError(cp.LoadProgram(data, origin))
	cp.Reset(origin)

	for range 16 {
		cp.StepInstr()
	}
	assert.False(cp.Halted)
	assert.NotEqual(uint8(0), cp.Mem[0xff00])
}
