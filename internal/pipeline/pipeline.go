// Package pipeline wires lexing, parsing, translation, MIR generation,
// and assembly emission into the single call cmd/minac and internal/repl
// both need. Grounded on the teacher's cmd/sentra/main.go run-mode
// function, which strings its own lex/parse/compile/run stages together
// behind one entry point rather than leaving callers to re-derive the
// order.
package pipeline

import (
	"github.com/google/uuid"

	"mina/internal/ast"
	"mina/internal/cfg"
	"mina/internal/emit"
	"mina/internal/lexer"
	"mina/internal/mir"
	"mina/internal/outofssa"
	"mina/internal/parser"
	"mina/internal/translate"
)

// Result holds everything a caller might want out of a successful
// compile: the rendered assembly plus the intermediate stages, in case a
// future subcommand wants to dump IR or MIR without re-running the
// earlier stages.
type Result struct {
	Program *ast.Program
	Entry   *cfg.Block
	MIR     *mir.Program
	Asm     string
}

// Compile runs the whole pipeline over source, targeting cc. file is used
// only for diagnostic source locations.
func Compile(file, source string, cc mir.CallingConvention) (*Result, error) {
	sessionID := uuid.NewString()

	scan := lexer.NewScanner(file, source)
	tokens, err := scan.ScanTokens()
	if err != nil {
		return nil, err
	}

	p := parser.NewParser(file, tokens)
	prog, err := p.Parse()
	if err != nil {
		return nil, err
	}

	tr := translate.New(file, sessionID)
	entry, err := tr.Translate(prog)
	if err != nil {
		return nil, err
	}

	// internal/mir lowers a renamed, phi-free CFG; a genuine (non-trivial)
	// merge still carries a real Phi at this point, so every entry block
	// — the top level and each declared callable — goes through the
	// out-of-SSA renamer before lowering.
	outofssa.Rename(entry)
	callables := callablesFor(tr)
	for _, c := range callables {
		outofssa.Rename(c.Entry)
	}

	mirProg, err := mir.GenerateCC(entry, callables, cc)
	if err != nil {
		return nil, err
	}

	return &Result{
		Program: prog,
		Entry:   entry,
		MIR:     mirProg,
		Asm:     emit.Render(mirProg),
	}, nil
}

// callablesFor adapts translate's registry (keyed by name, values
// unaware of their own name) into the []mir.Callable shape mir.GenerateCC
// expects.
func callablesFor(tr *translate.Translator) []mir.Callable {
	funcs := tr.Funcs()
	out := make([]mir.Callable, 0, len(funcs))
	for name, c := range funcs {
		out = append(out, mir.Callable{Name: name, Entry: c.Entry, IsFunc: c.IsFunc})
	}
	return out
}
