// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"fmt"
	"iter"

	"github.com/ezrec/mcs8/internal"
)

// MicroState is the current phase of instruction processing.
type MicroState int

const (
	STATE_FETCH_OP  = MicroState(0) // Fetch the opcode byte at PC.
	STATE_DECODE    = MicroState(1) // Classify the latched opcode.
	STATE_FETCH_LO  = MicroState(2) // Fetch the operand low byte.
	STATE_FETCH_HI  = MicroState(3) // Fetch the operand high byte.
	STATE_EXECUTE   = MicroState(4) // Perform the opcode's effect.
	STATE_WRITEBACK = MicroState(5) // Instruction boundary, no effect.
	STATE_MEM_READ  = MicroState(6) // Declared, never entered.
	STATE_MEM_WRITE = MicroState(7) // Declared, never entered.
	STATE_HALTED    = MicroState(8) // Terminal.
)

var microStateName = [...]string{
	STATE_FETCH_OP:  "FET",
	STATE_DECODE:    "DEC",
	STATE_FETCH_LO:  "FLO",
	STATE_FETCH_HI:  "FHI",
	STATE_EXECUTE:   "EXE",
	STATE_WRITEBACK: "WBK",
	STATE_MEM_READ:  "MRD",
	STATE_MEM_WRITE: "MWR",
	STATE_HALTED:    "HLT",
}

func (state MicroState) String() string {
	if state < 0 || int(state) >= len(microStateName) {
		return fmt.Sprintf("MicroState(%d)", int(state))
	}
	return microStateName[state]
}

// BusDir is the direction of a bus transaction.
type BusDir int

const (
	DIR_READ  = BusDir(0) // RD
	DIR_WRITE = BusDir(1) // WR
)

func (dir BusDir) String() string {
	if dir == DIR_WRITE {
		return "WR"
	}
	return "RD"
}

// BusReason tags why the engine touched the bus. The tag is purely for
// trace display; the engine never makes a control decision from it.
type BusReason int

const (
	REASON_OPCODE_FETCH  = BusReason(0) // opcode fetch
	REASON_OPERAND_LO    = BusReason(1) // operand lo
	REASON_OPERAND_HI    = BusReason(2) // operand hi
	REASON_LOAD          = BusReason(3) // load
	REASON_STORE         = BusReason(4) // store
	REASON_LOAD_INDEXED  = BusReason(5) // load indexed
	REASON_STORE_INDEXED = BusReason(6) // store indexed
)

var busReasonName = [...]string{
	REASON_OPCODE_FETCH:  "opcode fetch",
	REASON_OPERAND_LO:    "operand lo",
	REASON_OPERAND_HI:    "operand hi",
	REASON_LOAD:          "load",
	REASON_STORE:         "store",
	REASON_LOAD_INDEXED:  "load indexed",
	REASON_STORE_INDEXED: "store indexed",
}

func (why BusReason) String() string {
	if why < 0 || int(why) >= len(busReasonName) {
		return fmt.Sprintf("BusReason(%d)", int(why))
	}
	return busReasonName[why]
}

// BusEvent records a single memory transaction within one micro-step.
type BusEvent struct {
	Cycle  uint64     // Global cycle number.
	State  MicroState // Micro-state the access occurred in.
	Dir    BusDir     // Transaction direction.
	Addr   uint16     // Memory address.
	Data   uint8      // Byte transferred.
	Reason BusReason  // Display tag.
}

func (ev BusEvent) String() string {
	return fmt.Sprintf("%v [%04x] = %02x  %v", ev.Dir, ev.Addr, ev.Data, ev.Reason)
}

// TraceFrame is a snapshot of the machine taken after one micro-step,
// bundling the bus events emitted during that step.
type TraceFrame struct {
	Cycle  uint64
	PC     uint16
	A      uint8
	B      uint8
	X      uint8
	SP     uint8 // Low byte of the stack pointer.
	Flags  uint8
	Opcode uint8
	State  MicroState // State after the step.
	Events []BusEvent
}

func (frame TraceFrame) String() string {
	return fmt.Sprintf("%d  %04x  %02x  %02x %02x %02x  %02x  %v  events:%d",
		frame.Cycle, frame.PC, frame.Opcode,
		frame.A, frame.B, frame.X, frame.Flags,
		frame.State, len(frame.Events))
}

// Timeline is a bounded ring of trace frames, one per micro-step since
// the last reset. Only the most recent 'depth' frames are retained; the
// total recorded count keeps growing and always equals the cycle counter.
type Timeline struct {
	depth  int
	frames []TraceFrame
	next   int
	total  uint64
}

// NewTimeline creates a timeline retaining at most depth frames.
// A depth of zero or less retains every frame.
func NewTimeline(depth int) Timeline {
	return Timeline{depth: depth}
}

// Reset discards all frames and zeroes the recorded count.
func (tl *Timeline) Reset() {
	tl.frames = tl.frames[:0]
	tl.next = 0
	tl.total = 0
}

// Push appends a frame, evicting the oldest retained frame when full.
func (tl *Timeline) Push(frame TraceFrame) {
	tl.total++

	if tl.depth <= 0 || len(tl.frames) < tl.depth {
		tl.frames = append(tl.frames, frame)
		return
	}

	tl.frames[tl.next] = frame
	tl.next = (tl.next + 1) % tl.depth
}

// Recorded returns the total number of frames pushed since the last reset.
func (tl *Timeline) Recorded() uint64 {
	return tl.total
}

// Len returns the number of retained frames.
func (tl *Timeline) Len() int {
	return len(tl.frames)
}

// Frames yields the retained frames, oldest first.
func (tl *Timeline) Frames() iter.Seq[TraceFrame] {
	return func(yield func(TraceFrame) bool) {
		for k := range len(tl.frames) {
			if !yield(tl.frames[(tl.next+k)%len(tl.frames)]) {
				return
			}
		}
	}
}

// Last yields at most the final n retained frames, oldest first.
func (tl *Timeline) Last(n int) iter.Seq[TraceFrame] {
	return internal.IterSeqTail(tl.Frames(), n)
}
