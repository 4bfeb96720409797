// Package codegen implements Pass C: the x86-64 System V emitter that walks
// an *ir.Module and writes GNU-as-syntax assembly text. Emitter is a
// *bufio.Writer wrapped with a handful of generic Instr0/1/2 helpers plus
// Label/Directive/Comment/NewLabel/Flush, built around the AT&T-syntax
// instruction set codegen.go actually needs rather than one method per
// mnemonic.
package codegen

import (
	"bufio"
	"fmt"
	"io"
)

// Emitter writes assembly text to an underlying writer one instruction at a
// time. It has no knowledge of the IR; codegen.go decides what to emit, this
// type only decides how the text looks.
type Emitter struct {
	out        *bufio.Writer
	labelCount int
}

func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{out: bufio.NewWriter(w)}
}

// NewLabel returns a fresh assembler-local label (the ".L" prefix keeps it
// out of the symbol table the linker sees).
func (e *Emitter) NewLabel(prefix string) string {
	lab := fmt.Sprintf(".L%s%d", prefix, e.labelCount)
	e.labelCount++
	return lab
}

// Label emits a label definition.
func (e *Emitter) Label(name string) {
	fmt.Fprintf(e.out, "%s:\n", name)
}

// Directive emits an assembler directive, e.g. Directive(".globl", "main").
func (e *Emitter) Directive(dir string, args ...interface{}) {
	if len(args) == 0 {
		fmt.Fprintf(e.out, "\t%s\n", dir)
		return
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprint(a)
	}
	fmt.Fprintf(e.out, "\t%s %s\n", dir, joinComma(parts))
}

// Comment emits a standalone assembler comment line.
func (e *Emitter) Comment(format string, args ...interface{}) {
	fmt.Fprintf(e.out, "\t# %s\n", fmt.Sprintf(format, args...))
}

// BlankLine separates functions in the listing.
func (e *Emitter) BlankLine() {
	fmt.Fprintln(e.out)
}

// Instr0 emits a zero-operand instruction: "cqto", "ret", ...
func (e *Emitter) Instr0(op string) {
	fmt.Fprintf(e.out, "\t%s\n", op)
}

// Instr1 emits a one-operand instruction: "pushq %rbp", "call foo", ...
func (e *Emitter) Instr1(op string, a1 interface{}) {
	fmt.Fprintf(e.out, "\t%s %v\n", op, a1)
}

// Instr2 emits a two-operand instruction in AT&T order (source, then
// destination): "movq %rax, %rcx".
func (e *Emitter) Instr2(op string, src, dst interface{}) {
	fmt.Fprintf(e.out, "\t%s %v, %v\n", op, src, dst)
}

func (e *Emitter) Flush() error {
	return e.out.Flush()
}

func joinComma(parts []string) string {
	out := parts[0]
	for _, p := range parts[1:] {
		out += ", " + p
	}
	return out
}
