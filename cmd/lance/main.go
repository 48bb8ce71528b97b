// Command lance is the compiler driver of spec.md §6: it reads a Lance
// source file, runs it through the frontend, the CFG/liveness/reaching-defs
// analyses, the target-specific lowering passes, the linear-scan register
// allocator and spill materializer, and prints (or assembles) the result
// for one of two targets.
//
// Grounded on cmd/wazero's flag-driven CLI style, adapted to a single
// command rather than a subcommand tree: this backend has one job
// (compile one file), so github.com/spf13/pflag is used directly instead
// of cobra (see DESIGN.md).
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/danielecattaneo/acse-multitarget/internal/cfg"
	"github.com/danielecattaneo/acse-multitarget/internal/frontend"
	"github.com/danielecattaneo/acse-multitarget/internal/ir"
	"github.com/danielecattaneo/acse-multitarget/internal/isa/amd64"
	"github.com/danielecattaneo/acse-multitarget/internal/isa/mace"
	"github.com/danielecattaneo/acse-multitarget/internal/lerr"
	"github.com/danielecattaneo/acse-multitarget/internal/regalloc"
	"github.com/danielecattaneo/acse-multitarget/internal/traceapi"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := pflag.NewFlagSet("lance", pflag.ContinueOnError)
	target := flags.String("target", "amd64", "target backend: amd64 or mace")
	emitObject := flags.Bool("emit-object", false, "emit a MACE object file instead of assembly text (mace target only)")
	trace := flags.Bool("trace", false, "enable verbose pass tracing on stderr")
	if err := flags.Parse(args); err != nil {
		return 2
	}
	traceapi.Enabled = *trace

	rest := flags.Args()
	inPath := ""
	if len(rest) > 0 {
		inPath = rest[0]
	}
	outPath := ""
	if len(rest) > 1 {
		outPath = rest[1]
	}

	var src []byte
	var err error
	if inPath == "" {
		inPath = "<stdin>"
		src, err = io.ReadAll(os.Stdin)
	} else {
		src, err = os.ReadFile(inPath)
	}
	if err != nil {
		return fail(lerr.Wrap(lerr.InvalidInputFile, err, inPath))
	}

	p, warnings, err := frontend.Parse(string(src))
	if err != nil {
		return fail(err)
	}
	for _, w := range warnings.Warnings {
		fmt.Fprintln(os.Stderr, w.String())
	}
	traceapi.Printf("parsed %s\n%s", inPath, p.Dump())

	out, err := compile(p, *target, *emitObject)
	if err != nil {
		return fail(err)
	}

	if outPath == "" {
		os.Stdout.Write(out)
		return 0
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fail(lerr.Wrap(lerr.FopenError, err, outPath))
	}
	if _, err = f.Write(out); err != nil {
		f.Close()
		return fail(lerr.Wrap(lerr.FwriteError, err, outPath))
	}
	if err = f.Close(); err != nil {
		return fail(lerr.Wrap(lerr.FcloseError, err, outPath))
	}
	return 0
}

// compile runs the shared middle end (target lowering -> CFG -> liveness ->
// regalloc -> spill materialization) then hands off to the target's
// printer (spec.md §4/§6).
func compile(p *ir.Program, target string, emitObject bool) ([]byte, error) {
	var allocatable, scratch []int

	switch target {
	case "amd64":
		if err := amd64.Lower(p); err != nil {
			return nil, err
		}
		allocatable, scratch = amd64.Allocatable(), amd64.Scratch
	case "mace":
		if err := mace.Lower(p); err != nil {
			return nil, err
		}
		allocatable, scratch = mace.Allocatable(), mace.Scratch
	default:
		return nil, lerr.New(lerr.InvalidInstruction, "unknown target "+target)
	}

	g, err := cfg.Build(p)
	if err != nil {
		return nil, err
	}
	cfg.ComputeLiveness(g, cfg.DefaultOptions())
	g.AssignPositions()

	intervals := regalloc.BuildIntervals(g)
	if err := regalloc.InitConstraints(g, intervals, allocatable); err != nil {
		return nil, err
	}
	result, err := regalloc.Allocate(intervals)
	if err != nil {
		return nil, err
	}
	if err := regalloc.Materialize(p, g, result, scratch); err != nil {
		return nil, err
	}

	switch target {
	case "amd64":
		text, err := amd64.Print(p)
		if err != nil {
			return nil, err
		}
		return []byte(text), nil
	case "mace":
		if emitObject {
			return mace.WriteObject(p)
		}
		text, err := mace.Print(p)
		if err != nil {
			return nil, err
		}
		return []byte(text), nil
	}
	panic("unreachable")
}

func fail(err error) int {
	fmt.Fprintln(os.Stderr, err)
	if k, ok := lerr.KindOf(err); ok {
		traceapi.Printf("exiting on error kind %s\n", k)
	}
	return 1
}
