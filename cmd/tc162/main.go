// Command tc162 is the combined inspection tool: section listing, linear
// disassembly over an address range, and BFS reachability analysis. Built on
// urfave/cli/v2, in the subcommand shape bbcdisasm's CLI uses (cli.NewApp,
// per-command Flags, cli.Exit for error reporting).
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	cli "github.com/urfave/cli/v2"

	"github.com/arnegrim/tc162/analyzer"
	"github.com/arnegrim/tc162/decoder"
	"github.com/arnegrim/tc162/disasm"
	"github.com/arnegrim/tc162/labels"
	"github.com/arnegrim/tc162/loader"
	"github.com/arnegrim/tc162/memory"
)

func parseAddr(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("bad address %q: %w", s, err)
	}
	return uint32(v), nil
}

func loadImage(file string, base uint32, skip int) (*memory.Memory, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	return loader.Load(data, loader.Options{Base: base, Skip: skip})
}

func sectionsCmd(c *cli.Context) error {
	args := c.Args()
	if args.Len() < 1 {
		return cli.Exit("usage: tc162 sections <image>", 1)
	}
	m, err := loadImage(args.First(), uint32(c.Uint64("base")), c.Int("skip"))
	if err != nil {
		return cli.Exit(err, 1)
	}
	fmt.Println("Name  Base      End       Perms Kind")
	for _, seg := range m.Image.Segments {
		fmt.Printf("%-5s %#08x %#08x %s   %s\n", seg.Name, seg.Base, seg.End(), seg.Perms, seg.Kind)
	}
	return nil
}

func rangeCmd(c *cli.Context) error {
	args := c.Args()
	if args.Len() < 3 {
		return cli.Exit("usage: tc162 range <image> <start> <end>", 1)
	}
	m, err := loadImage(args.Get(0), uint32(c.Uint64("base")), c.Int("skip"))
	if err != nil {
		return cli.Exit(err, 1)
	}
	start, err := parseAddr(args.Get(1))
	if err != nil {
		return cli.Exit(err, 1)
	}
	end, err := parseAddr(args.Get(2))
	if err != nil {
		return cli.Exit(err, 1)
	}

	out := os.Stdout
	if fname := c.String("out"); fname != "" {
		f, err := os.Create(fname)
		if err != nil {
			return cli.Exit(err, 1)
		}
		defer f.Close()
		out = f
	}

	showBytes := c.Bool("show-bytes")
	for pc := start; pc < end; {
		raw, err := m.ReadU32(pc)
		if err != nil {
			fmt.Fprintf(out, "%#08x: <unmapped>\n", pc)
			pc += 2
			continue
		}
		in, ok := decoder.Decode(raw)
		if !ok {
			fmt.Fprintf(out, "%#08x: .word %#08x\n", pc, raw)
			pc += 4
			continue
		}
		if showBytes {
			fmt.Fprintf(out, "%#08x: %0*x  %s\n", pc, int(in.Width)*2, raw&widthMask(in.Width), disasm.Format(in, pc))
		} else {
			fmt.Fprintf(out, "%#08x: %s\n", pc, disasm.Format(in, pc))
		}
		pc += uint32(in.Width)
	}
	return nil
}

func widthMask(width uint8) uint32 {
	if width == 2 {
		return 0xFFFF
	}
	return 0xFFFFFFFF
}

func analyzeCmd(c *cli.Context) error {
	args := c.Args()
	if args.Len() < 1 {
		return cli.Exit("usage: tc162 analyze <image>", 1)
	}
	m, err := loadImage(args.First(), uint32(c.Uint64("base")), c.Int("skip"))
	if err != nil {
		return cli.Exit(err, 1)
	}

	var seeds []uint32
	for _, s := range c.StringSlice("entry") {
		a, err := parseAddr(s)
		if err != nil {
			return cli.Exit(err, 1)
		}
		seeds = append(seeds, a)
	}
	if len(seeds) == 0 {
		seeds = []uint32{uint32(c.Uint64("base"))}
	}

	var ls []labels.Label
	if in := c.String("labels-in"); in != "" {
		data, err := os.ReadFile(in)
		if err != nil {
			return cli.Exit(err, 1)
		}
		ls, err = labels.Load(data)
		if err != nil {
			return cli.Exit(err, 1)
		}
	}

	res := analyzer.Run(m, seeds, c.Int("max-instr"))
	blocks, edges, funcs := analyzer.Recover(res, seeds)
	report := analyzer.BuildReport(seeds, res, blocks, edges, funcs, ls)

	if out := c.String("labels-out"); out != "" {
		data, err := labels.Save(ls)
		if err != nil {
			return cli.Exit(err, 1)
		}
		if err := os.WriteFile(out, data, 0644); err != nil {
			return cli.Exit(err, 1)
		}
	}

	w := os.Stdout
	if fname := c.String("out"); fname != "" {
		f, err := os.Create(fname)
		if err != nil {
			return cli.Exit(err, 1)
		}
		defer f.Close()
		w = f
	}

	switch c.String("format") {
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "text":
		return printTextReport(w, report, res, c.Bool("listing"))
	default:
		return cli.Exit(fmt.Sprintf("unknown format %q", c.String("format")), 1)
	}
}

func printTextReport(w *os.File, r analyzer.Report, res *analyzer.Result, listing bool) error {
	fmt.Fprintf(w, "entries: %d  blocks: %d  edges: %d  functions: %d\n",
		len(r.Entries), len(r.Blocks), len(r.Edges), len(r.Functions))
	for _, b := range r.Blocks {
		fmt.Fprintf(w, "block %#08x-%#08x\n", b.Start, b.End)
		if !listing {
			continue
		}
		for _, addr := range b.Insns {
			width := res.Widths[addr]
			fmt.Fprintf(w, "  %#08x: width=%d\n", addr, width)
		}
	}
	for _, e := range r.Edges {
		fmt.Fprintf(w, "edge %#08x -> %#08x (%s)\n", e.From, e.To, e.Kind)
	}
	return nil
}

func main() {
	app := cli.NewApp()
	app.Name = "tc162"
	app.Usage = "TC1.6.2 section dump, disassembly, and reachability analysis"
	app.Action = func(c *cli.Context) error {
		cli.ShowAppHelp(c)
		return nil
	}

	baseFlag := &cli.Uint64Flag{Name: "base", Value: 0, Usage: "load address for the raw image"}
	skipFlag := &cli.IntFlag{Name: "skip", Value: 0, Usage: "bytes to skip at start of file"}
	outFlag := &cli.StringFlag{Name: "out", Usage: "write output to FILE instead of stdout"}

	app.Commands = []*cli.Command{
		{
			Name:      "sections",
			Usage:     "dump the segment table",
			ArgsUsage: "<image>",
			Action:    sectionsCmd,
			Flags:     []cli.Flag{baseFlag, skipFlag},
		},
		{
			Name:      "range",
			Usage:     "linear disassembly between two addresses",
			ArgsUsage: "<image> <start> <end>",
			Action:    rangeCmd,
			Flags: []cli.Flag{
				baseFlag, skipFlag, outFlag,
				&cli.BoolFlag{Name: "show-bytes", Usage: "prefix each line with the raw encoded bytes"},
			},
		},
		{
			Name:      "analyze",
			Usage:     "BFS reachability analysis report",
			ArgsUsage: "<image>",
			Action:    analyzeCmd,
			Flags: []cli.Flag{
				baseFlag, skipFlag, outFlag,
				&cli.StringSliceFlag{Name: "entry", Usage: "seed address (repeatable), defaults to --base"},
				&cli.IntFlag{Name: "max-instr", Usage: "decode budget, 0 for unlimited"},
				&cli.StringFlag{Name: "format", Value: "json", Usage: "text|json"},
				&cli.BoolFlag{Name: "listing", Usage: "include a per-instruction listing in text format"},
				&cli.StringFlag{Name: "labels-in", Usage: "label map/array JSON to load"},
				&cli.StringFlag{Name: "labels-out", Usage: "write the loaded label table back out, sorted"},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
