// Command tcrun loads a TC1.6.2 program and runs it to completion or trap,
// mirroring the teacher's run68 front end (stdlib flag, log-based reporting)
// and supplementing it with the raw-binary loading options tricore-run's
// reference CLI exposes (load address, skip prefix, entry override).
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/arnegrim/tc162/asm"
	"github.com/arnegrim/tc162/cpu"
	"github.com/arnegrim/tc162/decoder"
	"github.com/arnegrim/tc162/loader"
	"github.com/arnegrim/tc162/memory"
)

var (
	loadAddr  = flag.Uint64("load", 0, "Load address for raw binary files (hex or decimal).")
	skip      = flag.Uint64("skip", 0, "Bytes to skip at the start of the file before loading.")
	pcAddr    = flag.Uint64("pc", 0, "Initial program counter, defaults to the load address.")
	maxSteps  = flag.Int("max-steps", 1000000, "Maximum number of instructions to execute.")
	ramSize   = flag.Uint64("ram", 16*1024*1024, "Size in bytes of the flat memory backing the run.")
	regValues [16]string
	aValues   [16]string
)

func init() {
	for i := 0; i < 16; i++ {
		flag.StringVar(&regValues[i], fmt.Sprintf("d%d", i), "", "Initial value for data register D (hex).")
		flag.StringVar(&aValues[i], fmt.Sprintf("a%d", i), "", "Initial value for address register A (hex).")
	}
}

func main() {
	log.SetFlags(0)
	flag.Parse()

	if flag.NArg() != 1 {
		log.Println("Usage: tcrun [options] <file>")
		flag.PrintDefaults()
		os.Exit(1)
	}
	filename := flag.Arg(0)

	m := memory.NewFlat(uint32(*loadAddr), int(*ramSize))

	var entry uint32
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".s", ".asm":
		src, err := os.ReadFile(filename)
		if err != nil {
			log.Fatalf("reading source: %v", err)
		}
		a := asm.New()
		code, err := a.Assemble(string(src), uint32(*loadAddr))
		if err != nil {
			log.Fatalf("assembly failed: %v", err)
		}
		for i, b := range code {
			if err := m.WriteByte(uint32(*loadAddr)+uint32(i), b); err != nil {
				log.Fatalf("loading assembled code: %v", err)
			}
		}
		entry = uint32(*loadAddr)

	default:
		data, err := os.ReadFile(filename)
		if err != nil {
			log.Fatalf("reading binary: %v", err)
		}
		loaded, err := loader.Load(data, loader.Options{Base: uint32(*loadAddr), Skip: int(*skip)})
		if err != nil {
			log.Fatalf("loading binary: %v", err)
		}
		m = loaded
		entry = uint32(*loadAddr)
	}

	if *pcAddr != 0 {
		entry = uint32(*pcAddr)
	}

	c := cpu.New(entry)
	if err := setRegisters(c); err != nil {
		log.Fatalf("setting registers: %v", err)
	}

	log.Printf("Execution starts at %#08x", c.Regs.PC)

	steps := 0
	for ; steps < *maxSteps; steps++ {
		raw, err := m.ReadU32(c.Regs.PC)
		if err != nil {
			log.Fatalf("fetch failed after %d instructions: %v", steps, err)
		}
		in, ok := decoder.Decode(raw)
		if !ok {
			log.Fatalf("invalid instruction at %#08x after %d instructions", c.Regs.PC, steps)
		}
		if tr := cpu.Step(c, m, in); tr != nil {
			log.Printf("TRAP after %d instructions: %v", steps, tr)
			dumpRegisters(c)
			os.Exit(1)
		}
	}

	if steps >= *maxSteps {
		log.Printf("Execution stopped: max-steps (%d) reached.", *maxSteps)
	}
	dumpRegisters(c)
}

func setRegisters(c *cpu.CPU) error {
	for i := 0; i < 16; i++ {
		if regValues[i] != "" {
			v, err := strconv.ParseUint(strings.TrimPrefix(regValues[i], "0x"), 16, 32)
			if err != nil {
				return fmt.Errorf("invalid value for d%d: %w", i, err)
			}
			c.Regs.D[i] = uint32(v)
		}
		if aValues[i] != "" {
			v, err := strconv.ParseUint(strings.TrimPrefix(aValues[i], "0x"), 16, 32)
			if err != nil {
				return fmt.Errorf("invalid value for a%d: %w", i, err)
			}
			c.Regs.A[i] = uint32(v)
		}
	}
	return nil
}

func dumpRegisters(c *cpu.CPU) {
	log.Println("--- CPU state ---")
	for i := 0; i < 16; i += 4 {
		log.Printf("d%-2d=%08x d%-2d=%08x d%-2d=%08x d%-2d=%08x",
			i, c.Regs.D[i], i+1, c.Regs.D[i+1], i+2, c.Regs.D[i+2], i+3, c.Regs.D[i+3])
	}
	for i := 0; i < 16; i += 4 {
		log.Printf("a%-2d=%08x a%-2d=%08x a%-2d=%08x a%-2d=%08x",
			i, c.Regs.A[i], i+1, c.Regs.A[i+1], i+2, c.Regs.A[i+2], i+3, c.Regs.A[i+3])
	}
	log.Printf("pc=%08x", c.Regs.PC)
	p := c.Regs.PSW
	log.Printf("psw: C=%v V=%v Z=%v N=%v SV=%v AV=%v SAV=%v", p.C, p.V, p.Z, p.N, p.SV, p.AV, p.SAV)
}
