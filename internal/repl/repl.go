// Package repl drives minac interactively: each line read from stdin is
// treated as one whole Mina program and compiled to assembly, mirroring
// spec.md §6.4's "REPL (stdin-driven, ends on EOF)" mode. Grounded on the
// teacher's repl.go scan-loop shape (bufio.Scanner over stdin, a ">>> "
// prompt, "exit" as an early-quit line), with the bytecode compiler/VM
// it drove replaced by the real Mina pipeline — there is no persisted
// state between lines, so each line recompiles from scratch.
package repl

import (
	"bufio"
	"fmt"
	"io"

	"mina/internal/minaerr"
	"mina/internal/mir"
	"mina/internal/pipeline"
)

// Start reads Mina programs line by line from in, writing each line's
// compiled assembly (or, on failure, a diagnostic) to out.
func Start(in io.Reader, out io.Writer, cc mir.CallingConvention) {
	fmt.Fprintln(out, "mina REPL | one program per line, Ctrl-D to exit")
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(out, ">>> ")
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		if line == "exit" {
			break
		}
		if line == "" {
			continue
		}

		result, err := pipeline.Compile("<repl>", line, cc)
		if err != nil {
			reportError(out, err)
			continue
		}
		fmt.Fprint(out, result.Asm)
	}
}

func reportError(out io.Writer, err error) {
	if mErr, ok := err.(*minaerr.MinaError); ok {
		fmt.Fprintln(out, mErr.Error())
		return
	}
	fmt.Fprintln(out, err.Error())
}
