// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"fmt"
	"log"
)

const (
	MEM_SIZE = 0x10000        // Flat byte-addressable memory size.
	SP_RESET = uint16(0x01ff) // Initial stack pointer. No instruction touches it.
)

// Cpu is the complete, caller-owned state of one processor instance.
// The engine mutates registers, flags and memory only during StepCycle;
// collaborators may read everything, and a debugger may poke Mem
// directly, but the latches (Opcode, OpAddr, State) belong to the engine.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	A     uint8  // Accumulator.
	B     uint8  // Operand register for the ALU ops.
	X     uint8  // Index register.
	PC    uint16 // Program counter.
	SP    uint16 // Stack pointer, inert in this instruction set.
	Flags uint8  // C, Z, N, V in bits 0..3; remaining bits stay 0.

	Mem [MEM_SIZE]byte

	Halted bool
	Cycles uint64     // Micro-steps taken since the last reset.
	State  MicroState // Active micro-state.
	Opcode uint8      // Opcode latch.
	OpAddr uint16     // Operand/address latch, built low byte first.

	Timeline Timeline // One TraceFrame per micro-step.
}

// NewCpu creates a processor whose trace timeline retains at most
// traceDepth frames (zero or less retains everything).
func NewCpu(traceDepth int) (cp *Cpu) {
	cp = &Cpu{
		Timeline: NewTimeline(traceDepth),
	}
	cp.Reset(0)

	return
}

// String returns the register state as a single display line.
func (cp *Cpu) String() string {
	return fmt.Sprintf("PC=%04x  A=%02x  B=%02x  X=%02x  SP=%04x  F=%02x  state=%v  cycles=%d",
		cp.PC, cp.A, cp.B, cp.X, cp.SP, cp.Flags, cp.State, cp.Cycles)
}

// Reset returns the processor to its initial state with PC at pc and
// clears the trace timeline. Memory is left as-is.
func (cp *Cpu) Reset(pc uint16) {
	if cp.Verbose {
		log.Printf("cpu: reset to %04x", pc)
	}

	cp.A = 0
	cp.B = 0
	cp.X = 0
	cp.Flags = 0
	cp.SP = SP_RESET
	cp.PC = pc
	cp.Halted = false
	cp.Cycles = 0
	cp.State = STATE_FETCH_OP
	cp.Opcode = 0
	cp.OpAddr = 0
	cp.Timeline.Reset()
}

// LoadProgram copies bytes into memory starting at origin. The load is
// rejected whole with ErrAddressRange if it would run past the end of
// the address space; nothing is written on failure.
func (cp *Cpu) LoadProgram(bytes []byte, origin uint16) (err error) {
	if int(origin)+len(bytes) > MEM_SIZE {
		err = ErrAddressRange
		return
	}

	copy(cp.Mem[origin:], bytes)

	if cp.Verbose {
		log.Printf("cpu: loaded %d byte(s) at %04x", len(bytes), origin)
	}

	return
}

// Write16 stores a 16-bit value little-endian at addr/addr+1. The write
// is rejected with ErrAddressRange when addr+1 would wrap.
func (cp *Cpu) Write16(addr uint16, value uint16) (err error) {
	if int(addr)+1 >= MEM_SIZE {
		err = ErrAddressRange
		return
	}

	cp.Mem[addr] = uint8(value)
	cp.Mem[addr+1] = uint8(value >> 8)

	return
}

// pushEvent records one bus transaction against the current micro-step.
func (cp *Cpu) pushEvent(ev *[]BusEvent, dir BusDir, addr uint16, data uint8, why BusReason) {
	*ev = append(*ev, BusEvent{
		Cycle:  cp.Cycles,
		State:  cp.State,
		Dir:    dir,
		Addr:   addr,
		Data:   data,
		Reason: why,
	})
}

func (cp *Cpu) read(addr uint16, ev *[]BusEvent, why BusReason) (value uint8) {
	value = cp.Mem[addr]
	cp.pushEvent(ev, DIR_READ, addr, value, why)
	return
}

func (cp *Cpu) write(addr uint16, data uint8, ev *[]BusEvent, why BusReason) {
	cp.Mem[addr] = data
	cp.pushEvent(ev, DIR_WRITE, addr, data, why)
}

func (cp *Cpu) halt() {
	cp.Halted = true
	cp.State = STATE_HALTED
}

// StepCycle advances the processor exactly one micro-state transition,
// appends a TraceFrame carrying the step's bus events, and increments
// the cycle counter. Once halted it declines to act: no transition, no
// frame, no increment.
func (cp *Cpu) StepCycle() {
	if cp.Halted {
		return
	}

	var ev []BusEvent // events emitted this micro-step

	switch cp.State {
	case STATE_FETCH_OP:
		cp.Opcode = cp.read(cp.PC, &ev, REASON_OPCODE_FETCH)
		cp.PC++
		cp.State = STATE_DECODE

	case STATE_DECODE:
		op := Lookup(cp.Opcode)
		if op == nil || op.Mode == MODE_IMP {
			// Unrecognized opcodes fall through to Execute, which
			// converts them into a fail-safe halt.
			cp.State = STATE_EXECUTE
		} else {
			cp.State = STATE_FETCH_LO
		}

	case STATE_FETCH_LO:
		lo := cp.read(cp.PC, &ev, REASON_OPERAND_LO)
		cp.PC++
		cp.OpAddr = uint16(lo)
		if Lookup(cp.Opcode).Mode == MODE_IMM {
			// The low byte is the whole operand.
			cp.State = STATE_EXECUTE
		} else {
			cp.State = STATE_FETCH_HI
		}

	case STATE_FETCH_HI:
		hi := cp.read(cp.PC, &ev, REASON_OPERAND_HI)
		cp.PC++
		cp.OpAddr |= uint16(hi) << 8
		cp.State = STATE_EXECUTE

	case STATE_EXECUTE:
		op := Lookup(cp.Opcode)
		if op == nil {
			if cp.Verbose {
				log.Printf("cpu: illegal opcode %02x, halting", cp.Opcode)
			}
			cp.halt()
		} else {
			if cp.Verbose {
				log.Printf("cpu: %s", op.Name)
			}
			op.exec(cp, &ev)
		}
		if !cp.Halted {
			cp.State = STATE_WRITEBACK
		}

	case STATE_WRITEBACK:
		// Pure instruction boundary; all effects happened in Execute.
		cp.State = STATE_FETCH_OP

	case STATE_MEM_READ, STATE_MEM_WRITE, STATE_HALTED:
		// Not entered in this model.
	}

	cp.Timeline.Push(TraceFrame{
		Cycle:  cp.Cycles,
		PC:     cp.PC,
		A:      cp.A,
		B:      cp.B,
		X:      cp.X,
		SP:     uint8(cp.SP),
		Flags:  cp.Flags,
		Opcode: cp.Opcode,
		State:  cp.State,
		Events: ev,
	})
	cp.Cycles++
}

// StepInstr advances to the next instruction boundary. If called
// mid-instruction it first drains the in-flight instruction, then
// executes one full instruction, leaving the engine at FetchOp or
// Halted.
func (cp *Cpu) StepInstr() {
	if cp.Halted {
		return
	}

	if cp.State != STATE_FETCH_OP {
		for {
			cp.StepCycle()
			if cp.State == STATE_FETCH_OP || cp.Halted {
				break
			}
		}
	}

	for {
		cp.StepCycle()
		if cp.State == STATE_FETCH_OP || cp.Halted {
			break
		}
	}
}
