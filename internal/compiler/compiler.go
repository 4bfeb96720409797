// Package compiler wires lex, parse, sema, ir, and codegen into a single
// in-process pipeline. A batch compile has no reason to pay for separate
// process start-ups and serialization round-trips between passes, so the
// whole pipeline collapses into one Compile call per spec.md §2.
package compiler

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/onecoolx/aurac/internal/codegen"
	"github.com/onecoolx/aurac/internal/diag"
	"github.com/onecoolx/aurac/internal/ir"
	"github.com/onecoolx/aurac/internal/lexer"
	"github.com/onecoolx/aurac/internal/parser"
	"github.com/onecoolx/aurac/internal/sema"
)

// Result carries every artifact a caller might want out of a single
// compile, mirroring the -v/--emit-ir debug surface cmd/aurac exposes.
type Result struct {
	Module *ir.Module
	Asm    string
}

// Compile runs the full pipeline over src (named file for diagnostics) and
// returns the lowered IR and generated assembly text. Lexer and parser
// errors are returned directly (fatal: the first failing pass aborts the
// run); semantic diagnostics are returned through the *diag.Bag so a caller
// can report every one of them, not just the first, per spec.md §7.
func Compile(src io.Reader, file string) (*Result, *diag.Bag, error) {
	toks, err := lexer.Tokenize(src, file)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "%s: lex", file)
	}

	f, perrs := parser.Parse(toks, file)
	if len(perrs) > 0 {
		return nil, nil, errors.Wrapf(joinErrors(perrs), "%s: parse", file)
	}

	bag := sema.Analyze(f, file)
	if bag.HasErrors() {
		return nil, bag, errors.Errorf("%s: %d semantic error(s)", file, len(bag.Items()))
	}

	mod := ir.Lower(f, file)

	var buf bytes.Buffer
	if err := generate(mod, &buf); err != nil {
		return nil, bag, errors.Wrapf(err, "%s: codegen", file)
	}

	return &Result{Module: mod, Asm: buf.String()}, bag, nil
}

// generate recovers a panicking backend invariant (a malformed IR operand
// codegen's dispatch walk did not expect) and rewraps it as an ordinary
// error instead of crashing the driver, the same "assertion, not a runtime
// fault" treatment spec.md §7 gives other internal-consistency checks.
func generate(mod *ir.Module, buf *bytes.Buffer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("internal codegen assertion: %v", r)
		}
	}()
	return codegen.Generate(mod, buf)
}

// joinErrors flattens the parser's panic-mode recovery errors into one
// error, reporting every synchronized error rather than just the first.
func joinErrors(errs []error) error {
	if len(errs) == 1 {
		return errs[0]
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("%d errors:\n%s", len(errs), joinLines(msgs))
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += "  " + l
	}
	return out
}
