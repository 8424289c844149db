// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"fmt"
	"iter"
)

// AddrMode selects how an instruction's operand bytes are interpreted.
type AddrMode int

const (
	MODE_IMP = AddrMode(0) // implied
	MODE_IMM = AddrMode(1) // immediate
	MODE_ABS = AddrMode(2) // absolute
	MODE_ABX = AddrMode(3) // indexed
)

var addrModeName = [...]string{
	MODE_IMP: "implied",
	MODE_IMM: "immediate",
	MODE_ABS: "absolute",
	MODE_ABX: "indexed",
}

func (mode AddrMode) String() string {
	if mode < 0 || int(mode) >= len(addrModeName) {
		return fmt.Sprintf("AddrMode(%d)", int(mode))
	}
	return addrModeName[mode]
}

// Opcode bytes of the instruction set.
const (
	OP_NOP     = uint8(0x00)
	OP_LDA_IMM = uint8(0x10)
	OP_LDB_IMM = uint8(0x11)
	OP_LDA_ABS = uint8(0x12)
	OP_STA_ABS = uint8(0x13)
	OP_ADD_B   = uint8(0x20)
	OP_SUB_B   = uint8(0x21)
	OP_AND_B   = uint8(0x22)
	OP_OR_B    = uint8(0x23)
	OP_XOR_B   = uint8(0x24)
	OP_INC_A   = uint8(0x25)
	OP_DEC_A   = uint8(0x26)
	OP_JMP_ABS = uint8(0x30)
	OP_JZ_ABS  = uint8(0x31)
	OP_JNZ_ABS = uint8(0x32)
	OP_LDX_IMM = uint8(0x33)
	OP_LDA_ABX = uint8(0x34)
	OP_STA_ABX = uint8(0x35)
	OP_HLT     = uint8(0xFF)
)

// Op is one entry of the dispatch table. Both the Decode and the Execute
// micro-states consult the same entry, so operand-fetch classification and
// execute semantics cannot drift apart.
type Op struct {
	Name   string   // Mnemonic, including any fixed register operand.
	Mode   AddrMode // Operand interpretation.
	Length int      // Instruction length in bytes, opcode included.
	Effect string   // Display text for the disassembler.

	exec func(cp *Cpu, ev *[]BusEvent)
}

// opTable is indexed by opcode byte. A nil entry is an unrecognized
// opcode, handled in Execute as a fail-safe halt.
var opTable = [256]*Op{
	OP_NOP:     {"NOP", MODE_IMP, 1, "no effect", (*Cpu).opNop},
	OP_LDA_IMM: {"LDA", MODE_IMM, 2, "A <- imm", (*Cpu).opLdaImm},
	OP_LDB_IMM: {"LDB", MODE_IMM, 2, "B <- imm", (*Cpu).opLdbImm},
	OP_LDX_IMM: {"LDX", MODE_IMM, 2, "X <- imm", (*Cpu).opLdxImm},
	OP_LDA_ABS: {"LDA", MODE_ABS, 3, "A <- [abs]", (*Cpu).opLdaAbs},
	OP_STA_ABS: {"STA", MODE_ABS, 3, "[abs] <- A", (*Cpu).opStaAbs},
	OP_LDA_ABX: {"LDA", MODE_ABX, 3, "A <- [abs+X]", (*Cpu).opLdaAbx},
	OP_STA_ABX: {"STA", MODE_ABX, 3, "[abs+X] <- A", (*Cpu).opStaAbx},
	OP_JMP_ABS: {"JMP", MODE_ABS, 3, "PC <- abs", (*Cpu).opJmp},
	OP_JZ_ABS:  {"JZ", MODE_ABS, 3, "PC <- abs if Z", (*Cpu).opJz},
	OP_JNZ_ABS: {"JNZ", MODE_ABS, 3, "PC <- abs if !Z", (*Cpu).opJnz},
	OP_ADD_B:   {"ADD B", MODE_IMP, 1, "A <- A + B", (*Cpu).opAddB},
	OP_SUB_B:   {"SUB B", MODE_IMP, 1, "A <- A - B", (*Cpu).opSubB},
	OP_AND_B:   {"AND B", MODE_IMP, 1, "A <- A & B", (*Cpu).opAndB},
	OP_OR_B:    {"OR B", MODE_IMP, 1, "A <- A | B", (*Cpu).opOrB},
	OP_XOR_B:   {"XOR B", MODE_IMP, 1, "A <- A ^ B", (*Cpu).opXorB},
	OP_INC_A:   {"INC A", MODE_IMP, 1, "A <- A + 1", (*Cpu).opIncA},
	OP_DEC_A:   {"DEC A", MODE_IMP, 1, "A <- A - 1", (*Cpu).opDecA},
	OP_HLT:     {"HLT", MODE_IMP, 1, "halt", (*Cpu).opHlt},
}

// Lookup returns the table entry for an opcode byte, or nil if the
// opcode is unrecognized.
func Lookup(opcode uint8) *Op {
	return opTable[opcode]
}

// Ops iterates over the defined opcodes in table order.
func Ops() iter.Seq2[uint8, *Op] {
	return func(yield func(opcode uint8, op *Op) bool) {
		for n, op := range opTable {
			if op == nil {
				continue
			}
			if !yield(uint8(n), op) {
				return
			}
		}
	}
}

func (cp *Cpu) opNop(ev *[]BusEvent) {
}

func (cp *Cpu) opHlt(ev *[]BusEvent) {
	cp.halt()
}

func (cp *Cpu) opLdaImm(ev *[]BusEvent) {
	cp.A = uint8(cp.OpAddr)
	cp.setZN(cp.A)
}

func (cp *Cpu) opLdbImm(ev *[]BusEvent) {
	cp.B = uint8(cp.OpAddr)
	cp.setZN(cp.B)
}

func (cp *Cpu) opLdxImm(ev *[]BusEvent) {
	cp.X = uint8(cp.OpAddr)
	cp.setZN(cp.X)
}

func (cp *Cpu) opLdaAbs(ev *[]BusEvent) {
	cp.A = cp.read(cp.OpAddr, ev, REASON_LOAD)
	cp.setZN(cp.A)
}

func (cp *Cpu) opStaAbs(ev *[]BusEvent) {
	cp.write(cp.OpAddr, cp.A, ev, REASON_STORE)
}

func (cp *Cpu) opLdaAbx(ev *[]BusEvent) {
	cp.A = cp.read(cp.OpAddr+uint16(cp.X), ev, REASON_LOAD_INDEXED)
	cp.setZN(cp.A)
}

func (cp *Cpu) opStaAbx(ev *[]BusEvent) {
	cp.write(cp.OpAddr+uint16(cp.X), cp.A, ev, REASON_STORE_INDEXED)
}

func (cp *Cpu) opAddB(ev *[]BusEvent) {
	sum := uint16(cp.A) + uint16(cp.B)
	cp.A = cp.addFlags(sum, cp.A, cp.B)
}

func (cp *Cpu) opSubB(ev *[]BusEvent) {
	sum := uint16(cp.A) + uint16(^cp.B) + 1
	cp.A = cp.subFlags(sum, cp.A, cp.B)
}

func (cp *Cpu) opAndB(ev *[]BusEvent) {
	cp.A &= cp.B
	cp.setZN(cp.A)
}

func (cp *Cpu) opOrB(ev *[]BusEvent) {
	cp.A |= cp.B
	cp.setZN(cp.A)
}

func (cp *Cpu) opXorB(ev *[]BusEvent) {
	cp.A ^= cp.B
	cp.setZN(cp.A)
}

func (cp *Cpu) opIncA(ev *[]BusEvent) {
	cp.A++
	cp.setZN(cp.A)
}

func (cp *Cpu) opDecA(ev *[]BusEvent) {
	cp.A--
	cp.setZN(cp.A)
}

func (cp *Cpu) opJmp(ev *[]BusEvent) {
	cp.PC = cp.OpAddr
}

func (cp *Cpu) opJz(ev *[]BusEvent) {
	if cp.Flag(FLAG_Z) {
		cp.PC = cp.OpAddr
	}
}

func (cp *Cpu) opJnz(ev *[]BusEvent) {
	if !cp.Flag(FLAG_Z) {
		cp.PC = cp.OpAddr
	}
}

// Disassemble formats the instruction at addr as a single listing line
// and returns the address of the following instruction. Unrecognized
// opcodes are rendered as .DB data.
func (cp *Cpu) Disassemble(addr uint16) (line string, next uint16) {
	opcode := cp.Mem[addr]
	op := Lookup(opcode)
	if op == nil {
		line = fmt.Sprintf("%04x:  %-9s  %-4s $%02x        ; data (unknown opcode)",
			addr, fmt.Sprintf("%02x", opcode), ".DB", opcode)
		next = addr + 1
		return
	}

	next = addr + uint16(op.Length)

	raw := fmt.Sprintf("%02x", opcode)
	lo := cp.Mem[addr+1]
	hi := cp.Mem[addr+2]
	if op.Length >= 2 {
		raw += fmt.Sprintf(" %02x", lo)
	}
	if op.Length >= 3 {
		raw += fmt.Sprintf(" %02x", hi)
	}

	var operand string
	switch op.Mode {
	case MODE_IMM:
		operand = fmt.Sprintf("#$%02x", lo)
	case MODE_ABS:
		operand = fmt.Sprintf("$%04x", uint16(lo)|uint16(hi)<<8)
	case MODE_ABX:
		operand = fmt.Sprintf("$%04x,X", uint16(lo)|uint16(hi)<<8)
	}

	line = fmt.Sprintf("%04x:  %-9s  %-5s %-8s ; %s (%v)",
		addr, raw, op.Name, operand, op.Effect, op.Mode)
	return
}

// DisassembleRange yields count listing lines starting at addr.
func (cp *Cpu) DisassembleRange(addr uint16, count int) iter.Seq[string] {
	return func(yield func(string) bool) {
		for range count {
			line, next := cp.Disassemble(addr)
			if !yield(line) {
				return
			}
			addr = next
		}
	}
}
