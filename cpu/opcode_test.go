package cpu

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpTable(t *testing.T) {
	assert := assert.New(t)

	count := 0
	last := -1
	for opcode, op := range Ops() {
		count++
		assert.Greater(int(opcode), last, op.Name)
		last = int(opcode)

		// Length is fixed by the addressing mode.
		switch op.Mode {
		case MODE_IMP:
			assert.Equal(1, op.Length, op.Name)
		case MODE_IMM:
			assert.Equal(2, op.Length, op.Name)
		case MODE_ABS, MODE_ABX:
			assert.Equal(3, op.Length, op.Name)
		}
		assert.NotNil(op.exec, op.Name)
		assert.NotEmpty(op.Effect, op.Name)
	}
	assert.Equal(19, count)
}

func TestLookup(t *testing.T) {
	assert := assert.New(t)

	op := Lookup(OP_ADD_B)
	if assert.NotNil(op) {
		assert.Equal("ADD B", op.Name)
		assert.Equal(MODE_IMP, op.Mode)
	}

	assert.Nil(Lookup(0x99))
	assert.Nil(Lookup(0x01))
}

func TestAddrModeString(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("implied", MODE_IMP.String())
	assert.Equal("immediate", MODE_IMM.String())
	assert.Equal("absolute", MODE_ABS.String())
	assert.Equal("indexed", MODE_ABX.String())
}

func TestDisassemble(t *testing.T) {
	assert := assert.New(t)

	cp := NewCpu(0)
	err := cp.LoadProgram([]byte{0x10, 0x2a, 0x13, 0x34, 0x12, 0x35, 0x00, 0x20, 0xff, 0x99}, 0)
	assert.NoError(err)

	line, next := cp.Disassemble(0)
	assert.Equal(uint16(2), next)
	assert.True(strings.HasPrefix(line, "0000:"), line)
	assert.Contains(line, "10 2a")
	assert.Contains(line, "LDA")
	assert.Contains(line, "#$2a")
	assert.Contains(line, "(immediate)")

	line, next = cp.Disassemble(2)
	assert.Equal(uint16(5), next)
	assert.Contains(line, "STA")
	assert.Contains(line, "$1234")
	assert.Contains(line, "(absolute)")

	line, next = cp.Disassemble(5)
	assert.Equal(uint16(8), next)
	assert.Contains(line, "$2000,X")
	assert.Contains(line, "(indexed)")

	line, next = cp.Disassemble(8)
	assert.Equal(uint16(9), next)
	assert.Contains(line, "HLT")

	line, next = cp.Disassemble(9)
	assert.Equal(uint16(10), next)
	assert.Contains(line, ".DB")
	assert.Contains(line, "unknown opcode")
}

func TestDisassembleRange(t *testing.T) {
	assert := assert.New(t)

	cp := NewCpu(0)
	err := cp.LoadProgram([]byte{0x10, 0x05, 0x11, 0x03, 0x20, 0xff}, 0)
	assert.NoError(err)

	var lines []string
	for line := range cp.DisassembleRange(0, 4) {
		lines = append(lines, line)
	}

	if assert.Equal(4, len(lines)) {
		assert.True(strings.HasPrefix(lines[0], "0000:"))
		assert.True(strings.HasPrefix(lines[1], "0002:"))
		assert.True(strings.HasPrefix(lines[2], "0004:"))
		assert.True(strings.HasPrefix(lines[3], "0005:"))
	}
}
