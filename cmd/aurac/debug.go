package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/onecoolx/aurac/internal/ast"
	"github.com/onecoolx/aurac/internal/compiler"
	"github.com/onecoolx/aurac/internal/ir"
	"github.com/onecoolx/aurac/internal/lexer"
	"github.com/onecoolx/aurac/internal/parser"
)

// runDebugEmit implements --emit-tokens/--emit-ast: run only as much of the
// pipeline as the requested artifact needs and print it, without making an
// inter-process text protocol between passes the normal build path.
func runDebugEmit(cmd *cobra.Command, file string, src readCloser) error {
	toks, err := lexer.Tokenize(src, file)
	if err != nil {
		return errors.Wrapf(err, "aurac: %s: lex", file)
	}
	if emitTokens {
		for _, t := range toks {
			fmt.Fprintln(cmd.OutOrStdout(), t.String())
		}
		return nil
	}

	f, perrs := parser.Parse(toks, file)
	for _, e := range perrs {
		fmt.Fprintln(cmd.ErrOrStderr(), e)
	}
	if len(perrs) > 0 {
		return errors.Errorf("aurac: %s: %d parse error(s)", file, len(perrs))
	}
	for _, d := range f.Decls {
		fmt.Fprintln(cmd.OutOrStdout(), describeDecl(d))
	}
	return nil
}

// describeDecl renders one top-level declaration's kind and name as a
// human-readable debug line.
func describeDecl(d ast.Decl) string {
	switch n := d.(type) {
	case *ast.FuncDecl:
		if n.Body != nil {
			return fmt.Sprintf("func %s (defined)", n.Name)
		}
		return fmt.Sprintf("func %s (declared)", n.Name)
	case *ast.VarDecl:
		return fmt.Sprintf("var %s", n.Name)
	default:
		return fmt.Sprintf("%T", d)
	}
}

// dumpIR prints one line per instruction, grouped by function, a
// human-readable rendering of the stringly-typed IR.
func dumpIR(cmd *cobra.Command, result *compiler.Result) {
	w := cmd.OutOrStdout()
	mod := result.Module
	for _, g := range mod.Globals {
		fmt.Fprintf(w, "global %s size=%d align=%d", g.Name, g.Size, g.Align)
		if g.Reloc != "" {
			fmt.Fprintf(w, " reloc=%s", g.Reloc)
		}
		fmt.Fprintln(w)
	}
	for _, s := range mod.Strings {
		fmt.Fprintf(w, "string %s %q\n", s.Label, s.Payload)
	}
	for _, fn := range mod.Functions {
		fmt.Fprintf(w, "func %s frame=%d\n", fn.Name, fn.FrameSize)
		for _, ins := range fn.Instrs {
			fmt.Fprintln(w, "  "+formatInstr(ins))
		}
	}
}

func formatInstr(ins ir.Instr) string {
	switch ins.Op {
	case ir.LABEL:
		return ins.Label + ":"
	case ir.JMP:
		return "JMP " + ins.Target
	case ir.JZ, ir.JNZ:
		return fmt.Sprintf("%s %s, %s", ins.Op, ins.Args[0], ins.Target)
	case ir.CALL:
		return fmt.Sprintf("%s = CALL %s/%d", ins.Dest, ins.Callee, ins.ArgCount)
	default:
		return fmt.Sprintf("%s %s %v", ins.Op, ins.Dest, ins.Args)
	}
}
