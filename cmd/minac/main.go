// Command minac is the Mina compiler driver: it reads a single source
// file (or, with no file argument, drives an interactive REPL over
// stdin) and writes the generated assembly to stdout.
//
// Grounded on cmd/sentra/main.go's arg-switch dispatch and stdlib-only
// flag parsing (no "flag" package), trimmed to the two modes spec.md
// §6.4 names; sentra's package manager, LSP, debugger, linter,
// formatter, and test-runner subcommands have no Mina equivalent and
// are not reproduced here.
package main

import (
	"fmt"
	"os"

	"mina/internal/minaerr"
	"mina/internal/mir"
	"mina/internal/pipeline"
	"mina/internal/repl"
)

const usage = `usage:
  minac <file>          compile a Mina source file, writing assembly to stdout
  minac                 start a REPL reading Mina programs from stdin
  minac -cc=sysv|win64  select the target calling convention (default win64)

  minac -h, --help      show this message
  minac -v, --version   print the compiler version`

const version = "minac 0.1.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cc := mir.Win64
	var file string

	for _, arg := range args {
		switch {
		case arg == "-h" || arg == "--help":
			fmt.Println(usage)
			return 0
		case arg == "-v" || arg == "--version":
			fmt.Println(version)
			return 0
		case arg == "-cc=sysv":
			cc = mir.SysV
		case arg == "-cc=win64":
			cc = mir.Win64
		case len(arg) > 0 && arg[0] == '-':
			fmt.Fprintf(os.Stderr, "minac: unrecognized flag %q\n", arg)
			fmt.Fprintln(os.Stderr, usage)
			return 1
		default:
			if file != "" {
				fmt.Fprintf(os.Stderr, "minac: unexpected extra argument %q\n", arg)
				return 1
			}
			file = arg
		}
	}

	if file == "" {
		repl.Start(os.Stdin, os.Stdout, cc)
		return 0
	}
	return compileFile(file, cc)
}

func compileFile(path string, cc mir.CallingConvention) int {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "minac: cannot read %s: %v\n", path, err)
		return 1
	}

	result, err := pipeline.Compile(path, string(source), cc)
	if err != nil {
		reportError(path, err)
		return 1
	}

	fmt.Print(result.Asm)
	return 0
}

// reportError prints a MinaError's taxonomy-tagged message, or falls back
// to a bare error string for anything that didn't originate from the
// compiler's own error taxonomy.
func reportError(path string, err error) {
	if mErr, ok := err.(*minaerr.MinaError); ok {
		fmt.Fprintln(os.Stderr, mErr.Error())
		return
	}
	fmt.Fprintf(os.Stderr, "minac: %s: %v\n", path, err)
}
