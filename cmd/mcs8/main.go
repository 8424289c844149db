// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ezrec/mcs8/asm"
	"github.com/ezrec/mcs8/config"
	"github.com/ezrec/mcs8/cpu"
	"github.com/ezrec/mcs8/monitor"
	"github.com/ezrec/mcs8/program"
)

var (
	cfgFile string
	hexFile string
	binFile string
	asmFile string
	origin  string
	startPc string
	batch   bool
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "mcs8",
	Short: "mcs8 is a cycle-accurate 8-bit processor simulator",
	RunE:  run,

	SilenceUsage: true,
}

func main() {
	flags := rootCmd.Flags()
	flags.StringVarP(&cfgFile, "config", "c", "", "configuration file")
	flags.StringVar(&hexFile, "hex", "", "hex-text program file")
	flags.StringVar(&binFile, "bin", "", "binary program file")
	flags.StringVarP(&asmFile, "asm", "a", "", "assembly program file")
	flags.StringVarP(&origin, "origin", "o", "", "program load address (hex)")
	flags.StringVarP(&startPc, "pc", "p", "", "initial program counter (hex)")
	flags.BoolVarP(&batch, "run", "g", false, "run to halt and exit, no monitor")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose mode")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func parseAddr(word string) (addr uint16, err error) {
	word = strings.TrimPrefix(word, "$")
	if !strings.HasPrefix(word, "0x") && !strings.HasPrefix(word, "0X") {
		word = "0x" + word
	}
	v64, err := strconv.ParseUint(word, 0, 16)
	addr = uint16(v64)
	return
}

// loadImage picks the program source: assembly, hex text, binary, or
// the built-in demo when no file was named.
func loadImage(cfg *config.Config) (prog *program.Program, err error) {
	parse := func(path string, parser func(io.Reader) (*program.Program, error)) (*program.Program, error) {
		file, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer file.Close()
		return parser(file)
	}

	switch {
	case asmFile != "":
		prog, err = parse(asmFile, func(in io.Reader) (*program.Program, error) {
			a := &asm.Assembler{Verbose: verbose, Origin: cfg.Origin}
			return a.Parse(in)
		})
	case hexFile != "":
		prog, err = parse(hexFile, program.ParseHex)
	case binFile != "":
		prog, err = parse(binFile, program.ReadBin)
	default:
		prog = program.Demo()
	}
	if err != nil {
		return
	}

	if prog.Origin == 0 {
		prog.Origin = cfg.Origin
	}
	if origin != "" {
		prog.Origin, err = parseAddr(origin)
	}
	return
}

func run(cmd *cobra.Command, args []string) (err error) {
	cfg, err := config.NewConfig(cfgFile)
	if err != nil {
		return
	}

	prog, err := loadImage(cfg)
	if err != nil {
		return
	}

	cp := cpu.NewCpu(cfg.TraceDepth)
	cp.Verbose = verbose

	if err = cp.LoadProgram(prog.Data, prog.Origin); err != nil {
		return
	}

	pc := prog.Origin
	if startPc != "" {
		if pc, err = parseAddr(startPc); err != nil {
			return
		}
	}
	if err = cp.Write16(monitor.RESET_VECTOR, pc); err != nil {
		return
	}
	cp.Reset(pc)

	if verbose {
		log.Printf("mcs8: %d byte(s) at %04x, pc %04x", len(prog.Data), prog.Origin, pc)
	}

	mon := monitor.New(cp)
	mon.Verbose = verbose
	mon.OutPort = cfg.OutPort
	mon.Watchdog = cfg.Watchdog
	mon.MemRows = cfg.MemRows

	if batch {
		return mon.Run(strings.NewReader("g\np\nquit\n"), os.Stdout)
	}

	mon.Prompt = term.IsTerminal(int(os.Stdin.Fd()))
	return mon.Run(os.Stdin, os.Stdout)
}
