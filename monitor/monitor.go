// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package monitor is the interactive machine-language debugger. It
// drives a processor through its public surface only: line commands in,
// text out, suitable for a terminal or a test harness.
package monitor

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/mcs8/cpu"
	"github.com/ezrec/mcs8/program"
)

// RESET_VECTOR is where setrv stores the start address, little-endian.
const RESET_VECTOR = uint16(0xfffc)

// Monitor wraps one processor with a line-oriented debug REPL.
type Monitor struct {
	Cpu *cpu.Cpu

	Verbose  bool   // If set, verbosely logs command handling.
	Prompt   bool   // Print a prompt before each input line.
	OutPort  uint16 // Output port echoed after each run command.
	Watchdog int    // Step ceiling for 'g'.
	TraceK   int    // Default frame count for 't'.
	MemRows  int    // Default row count for 'm'.

	breakpoint map[uint16]bool
	seenCycles uint64 // trace frames already scanned for port writes
}

// New wraps cp with the conventional defaults.
func New(cp *cpu.Cpu) *Monitor {
	return &Monitor{
		Cpu:        cp,
		OutPort:    0xff00,
		Watchdog:   10_000_000,
		TraceK:     20,
		MemRows:    8,
		breakpoint: map[uint16]bool{},
	}
}

// hex16 parses a hex command argument. A leading 0x or $ is tolerated.
func hex16(word string) (value uint16, err error) {
	word = strings.TrimPrefix(strings.TrimPrefix(word, "0x"), "$")
	v64, err := strconv.ParseUint(word, 16, 16)
	if err != nil {
		err = ErrParseHex(word)
		return
	}
	value = uint16(v64)
	return
}

func count(words []string, at, fallback int) int {
	if at >= len(words) {
		return fallback
	}
	n, err := strconv.Atoi(words[at])
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// Run reads commands from in until quit or EOF, writing all output to
// out. Command errors are reported to out and do not end the session;
// only a read failure is returned.
func (mon *Monitor) Run(in io.Reader, out io.Writer) (err error) {
	fmt.Fprintf(out, "%s\n%s\n\n", f("mcs8 monitor"), f("Type 'help' for commands."))
	fmt.Fprintf(out, "%v\n", mon.Cpu)

	scanner := bufio.NewScanner(in)
	for {
		if mon.Prompt {
			fmt.Fprintf(out, "\n> ")
		}
		if !scanner.Scan() {
			err = scanner.Err()
			return
		}

		words := strings.Fields(scanner.Text())
		if len(words) == 0 {
			continue
		}

		cmd := strings.ToLower(words[0])
		if mon.Verbose {
			log.Printf("monitor: %v", words)
		}

		if cmd == "q" || cmd == "quit" || cmd == "exit" {
			return
		}

		mon.command(out, cmd, words[1:])
	}
}

func (mon *Monitor) command(out io.Writer, cmd string, args []string) {
	cp := mon.Cpu

	switch cmd {
	case "help", "h", "?":
		mon.help(out)

	case "s":
		if !cp.Halted {
			cp.StepInstr()
		}
		mon.flush(out)
		fmt.Fprintf(out, "%v\n", cp)

	case "c":
		if !cp.Halted {
			cp.StepCycle()
		}
		mon.flush(out)
		fmt.Fprintf(out, "%v\n", cp)

	case "r":
		n := count(args, 0, 1)
		for range n {
			if cp.Halted || mon.atBreakpoint(out) {
				break
			}
			cp.StepInstr()
			if mon.atBreakpoint(out) {
				break
			}
		}
		mon.flush(out)
		fmt.Fprintf(out, "%v\n", cp)

	case "g":
		for steps := mon.Watchdog; steps > 0 && !cp.Halted; steps-- {
			if mon.atBreakpoint(out) {
				break
			}
			cp.StepInstr()
		}
		mon.flush(out)
		fmt.Fprintf(out, "%v\n", cp)

	case "p":
		fmt.Fprintf(out, "%v\n", cp)

	case "m":
		if len(args) < 1 {
			fmt.Fprintf(out, "%s\n", f("usage: m ADDR [ROWS]"))
			return
		}
		addr, err := hex16(args[0])
		if err != nil {
			fmt.Fprintf(out, "%v\n", err)
			return
		}
		mon.dumpMem(out, addr, count(args, 1, mon.MemRows))

	case "w":
		if len(args) < 2 {
			fmt.Fprintf(out, "%s\n", f("usage: w ADDR BYTE"))
			return
		}
		addr, err := hex16(args[0])
		if err == nil {
			var value uint16
			value, err = hex16(args[1])
			if err == nil && value > 0xff {
				err = ErrParseHex(args[1])
			}
			if err == nil {
				cp.Mem[addr] = uint8(value)
				fmt.Fprintf(out, "%s\n", f("Wrote %02x to [%04x]", uint8(value), addr))
			}
		}
		if err != nil {
			fmt.Fprintf(out, "%v\n", err)
		}

	case "b":
		if len(args) < 1 {
			fmt.Fprintf(out, "%s\n", f("usage: b ADDR"))
			return
		}
		addr, err := hex16(args[0])
		if err != nil {
			fmt.Fprintf(out, "%v\n", err)
			return
		}
		mon.breakpoint[addr] = true
		fmt.Fprintf(out, "%s\n", f("Breakpoint added at PC=%04x", addr))

	case "bl":
		if len(mon.breakpoint) == 0 {
			fmt.Fprintf(out, "%s\n", f("(no breakpoints)"))
			return
		}
		addrs := make([]uint16, 0, len(mon.breakpoint))
		for addr := range mon.breakpoint {
			addrs = append(addrs, addr)
		}
		slices.Sort(addrs)
		for _, addr := range addrs {
			fmt.Fprintf(out, " - %04x\n", addr)
		}

	case "bc":
		if len(args) < 1 {
			clear(mon.breakpoint)
			fmt.Fprintf(out, "%s\n", f("Breakpoints cleared."))
			return
		}
		addr, err := hex16(args[0])
		if err != nil {
			fmt.Fprintf(out, "%v\n", err)
			return
		}
		delete(mon.breakpoint, addr)
		fmt.Fprintf(out, "%s\n", f("Cleared %04x", addr))

	case "t":
		mon.trace(out, count(args, 0, mon.TraceK))

	case "d", "dis", "disasm":
		if len(args) < 1 {
			fmt.Fprintf(out, "%s\n", f("usage: d ADDR [COUNT]"))
			return
		}
		addr, err := hex16(args[0])
		if err != nil {
			fmt.Fprintf(out, "%v\n", err)
			return
		}
		for line := range cp.DisassembleRange(addr, count(args, 1, 16)) {
			fmt.Fprintf(out, "%s\n", line)
		}

	case "loadhex":
		mon.load(out, args, program.ParseHex)

	case "loadbin":
		mon.load(out, args, program.ReadBin)

	case "setrv":
		if len(args) < 1 {
			fmt.Fprintf(out, "%s\n", f("usage: setrv ADDR"))
			return
		}
		addr, err := hex16(args[0])
		if err == nil {
			err = cp.Write16(RESET_VECTOR, addr)
		}
		if err != nil {
			fmt.Fprintf(out, "%v\n", err)
			return
		}
		fmt.Fprintf(out, "%s\n", f("Reset vector set to %04x", addr))

	case "reset":
		pc := uint16(cp.Mem[RESET_VECTOR]) | uint16(cp.Mem[RESET_VECTOR+1])<<8
		cp.Reset(pc)
		mon.seenCycles = 0
		fmt.Fprintf(out, "%s\n", f("Reset done."))
		fmt.Fprintf(out, "%v\n", cp)

	case "sleep":
		if ms := count(args, 0, 0); ms > 0 {
			time.Sleep(time.Duration(ms) * time.Millisecond)
		}

	case "eval":
		if len(args) < 1 {
			fmt.Fprintf(out, "%s\n", f("usage: eval EXPR"))
			return
		}
		value, err := mon.eval(strings.Join(args, " "))
		if err != nil {
			fmt.Fprintf(out, "%v\n", err)
			return
		}
		fmt.Fprintf(out, "%v\n", value)

	default:
		fmt.Fprintf(out, "%s\n", f("Unknown command. Type 'help'."))
	}
}

// atBreakpoint reports and stops a run when the PC sits on a breakpoint.
func (mon *Monitor) atBreakpoint(out io.Writer) bool {
	if !mon.breakpoint[mon.Cpu.PC] {
		return false
	}
	fmt.Fprintf(out, "%s\n", f("* Breakpoint hit at PC=%04x", mon.Cpu.PC))
	return true
}

// flush echoes writes to the output port that landed in the trace since
// the previous flush. Frames already evicted from the ring are gone.
func (mon *Monitor) flush(out io.Writer) {
	for frame := range mon.Cpu.Timeline.Frames() {
		if frame.Cycle < mon.seenCycles {
			continue
		}
		for _, ev := range frame.Events {
			if ev.Dir == cpu.DIR_WRITE && ev.Addr == mon.OutPort {
				fmt.Fprintf(out, "%s\n", f("OUT [%04x] = %02x", ev.Addr, ev.Data))
			}
		}
	}
	mon.seenCycles = mon.Cpu.Cycles
}

func (mon *Monitor) dumpMem(out io.Writer, base uint16, rows int) {
	for row := range rows {
		addr := base + uint16(row*16)
		fmt.Fprintf(out, "%04x: ", addr)
		for col := range uint16(16) {
			fmt.Fprintf(out, "%02x ", mon.Cpu.Mem[addr+col])
		}
		fmt.Fprintf(out, "\n")
	}
}

func (mon *Monitor) trace(out io.Writer, k int) {
	if mon.Cpu.Timeline.Len() == 0 {
		fmt.Fprintf(out, "%s\n", f("(no trace yet)"))
		return
	}
	for frame := range mon.Cpu.Timeline.Last(k) {
		fmt.Fprintf(out, "%v\n", frame)
		for _, ev := range frame.Events {
			fmt.Fprintf(out, "    %v\n", ev)
		}
	}
}

// load reads a program image from a file and copies it into memory.
func (mon *Monitor) load(out io.Writer, args []string, parse func(io.Reader) (*program.Program, error)) {
	if len(args) < 2 {
		fmt.Fprintf(out, "%s\n", f("usage: loadhex|loadbin FILE ADDR"))
		return
	}
	base, err := hex16(args[1])
	if err != nil {
		fmt.Fprintf(out, "%v\n", err)
		return
	}

	file, err := os.Open(args[0])
	if err != nil {
		fmt.Fprintf(out, "%v\n", err)
		return
	}
	defer file.Close()

	prog, err := parse(file)
	if err == nil {
		err = mon.Cpu.LoadProgram(prog.Data, base)
	}
	if err != nil {
		fmt.Fprintf(out, "%v\n", err)
		return
	}

	fmt.Fprintf(out, "%s\n", f("Loaded %d byte(s) at %04x", len(prog.Data), base))
}

// eval runs a starlark expression against the live machine state.
func (mon *Monitor) eval(expr string) (value starlark.Value, err error) {
	cp := mon.Cpu

	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{
		"a":      starlark.MakeInt(int(cp.A)),
		"b":      starlark.MakeInt(int(cp.B)),
		"x":      starlark.MakeInt(int(cp.X)),
		"pc":     starlark.MakeInt(int(cp.PC)),
		"sp":     starlark.MakeInt(int(cp.SP)),
		"flags":  starlark.MakeInt(int(cp.Flags)),
		"cycles": starlark.MakeInt(int(cp.Cycles)),
		"halted": starlark.Bool(cp.Halted),
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	value, ok := dict["rc"]
	if !ok {
		err = ErrEval(expr)
	}
	return
}

func (mon *Monitor) help(out io.Writer) {
	fmt.Fprint(out, f(`Commands:
  s                 step one instruction
  c                 step one cycle (micro-step)
  r N               run N instructions
  g                 run until halt or breakpoint
  p                 print registers
  m ADDR [ROWS]     dump memory from hex ADDR (default 8 rows of 16)
  w ADDR BYTE       write BYTE at ADDR (both hex)
  b ADDR            add breakpoint at PC==ADDR (hex)
  bl                list breakpoints
  bc [ADDR]         clear breakpoint at ADDR or all if none
  t [K]             show last K trace frames (default 20)
  d ADDR [N]        disassemble N instructions starting at ADDR
  loadhex FILE ADDR load hex-text program at ADDR
  loadbin FILE ADDR load binary program at ADDR
  setrv ADDR        set the reset vector
  eval EXPR         evaluate an expression against the registers
  reset             reset via the reset vector and clear the trace
  sleep MS          sleep for MS milliseconds
  help              this text
  quit              exit
`))
}
