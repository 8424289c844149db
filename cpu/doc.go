// Package cpu implements the micro-state engine for the mcs8 processor.
//
// The processor has three 8-bit registers (A, B, X), a 16-bit program
// counter and stack pointer, a 4-bit flag set (carry, zero, negative,
// overflow), and a flat 64KiB memory. Instructions are not executed
// atomically: each one is decomposed into discrete micro-states (opcode
// fetch, decode, operand fetch, execute, write-back), advanced one bus
// cycle at a time.
//
// Every memory transaction performed by the engine is captured as a
// BusEvent, and a TraceFrame snapshot of the whole machine is appended
// to a bounded Timeline after every micro-step, making the full
// fetch/decode/execute sequence visible to a debugger or viewer.
package cpu
