package codegen

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onecoolx/aurac/internal/ir"
)

func generate(t *testing.T, mod *ir.Module) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Generate(mod, &buf))
	return buf.String()
}

func TestGenerateEmitsPrologueAndEpilogue(t *testing.T) {
	mod := &ir.Module{Functions: []*ir.Func{{
		Name:     "f",
		Exported: true,
		Instrs:   []ir.Instr{{Op: ir.RET, Args: []string{"$0"}}},
	}}}
	asm := generate(t, mod)
	assert.Contains(t, asm, ".globl f")
	assert.Contains(t, asm, "f:")
	assert.Contains(t, asm, "pushq %rbp")
	assert.Contains(t, asm, "movq %rsp, %rbp")
	assert.Contains(t, asm, "popq %rbp")
	assert.Contains(t, asm, "ret")
}

func TestGenerateSignedDivisionUsesCqtoAndIdiv(t *testing.T) {
	mod := &ir.Module{Functions: []*ir.Func{{
		Name: "f",
		Instrs: []ir.Instr{
			{Op: ir.BINOP, Dest: "t0", BinOp: "/", Signed: true, Args: []string{"$10", "$3"}},
			{Op: ir.RET, Args: []string{"t0"}},
		},
	}}}
	asm := generate(t, mod)
	assert.Contains(t, asm, "cqto")
	assert.Contains(t, asm, "idivq %rcx")
}

func TestGenerateUnsignedModuloZeroesRdxAndMovesRemainder(t *testing.T) {
	mod := &ir.Module{Functions: []*ir.Func{{
		Name: "f",
		Instrs: []ir.Instr{
			{Op: ir.BINOP, Dest: "t0", BinOp: "%", Signed: false, Args: []string{"$10", "$3"}},
			{Op: ir.RET, Args: []string{"t0"}},
		},
	}}}
	asm := generate(t, mod)
	assert.Contains(t, asm, "movq $0, %rdx")
	assert.Contains(t, asm, "divq %rcx")
	assert.Contains(t, asm, "movq %rdx, %rax")
}

func TestGenerateByteLoadSignExtendsOrZeroExtends(t *testing.T) {
	mod := &ir.Module{Functions: []*ir.Func{{
		Name: "f",
		Instrs: []ir.Instr{
			{Op: ir.LOAD, Dest: "t0", Width: 1, Signed: true, Args: []string{"L-8"}},
			{Op: ir.LOAD, Dest: "t1", Width: 1, Signed: false, Args: []string{"L-8"}},
			{Op: ir.RET},
		},
	}}}
	asm := generate(t, mod)
	assert.Contains(t, asm, "movsbq")
	assert.Contains(t, asm, "movzbq")
}

func TestGenerateCallWithSevenArgsPushesOnStack(t *testing.T) {
	args := make([]string, 7)
	var instrs []ir.Instr
	for i := range args {
		args[i] = "$1"
		instrs = append(instrs, ir.Instr{Op: ir.PARAM, Args: []string{"$1"}})
	}
	instrs = append(instrs, ir.Instr{Op: ir.CALL, Dest: "t0", Callee: "g", ArgCount: 7})
	instrs = append(instrs, ir.Instr{Op: ir.RET, Args: []string{"t0"}})
	mod := &ir.Module{Functions: []*ir.Func{{Name: "f", Instrs: instrs}}}
	asm := generate(t, mod)
	assert.Contains(t, asm, "pushq %rax")
	assert.Contains(t, asm, "call g")
	assert.Contains(t, asm, "addq $16, %rsp")
}

func TestGenerateDataSectionEmitsBytesAndBss(t *testing.T) {
	mod := &ir.Module{
		Globals: []*ir.Global{
			{Name: "limit", Exported: true, Size: 4, Align: 4, Init: []byte{100, 0, 0, 0}},
			{Name: "zeroed", Exported: false, Size: 4, Align: 4},
			{Name: "p", Exported: true, Size: 8, Align: 8, Reloc: "limit"},
		},
	}
	asm := generate(t, mod)
	assert.Contains(t, asm, ".data")
	assert.Contains(t, asm, ".byte 100,0,0,0")
	assert.Contains(t, asm, ".quad limit")
	assert.Contains(t, asm, ".bss")
	assert.Contains(t, asm, ".zero 4")
}

func TestGenerateStringLiteralGoesToRodata(t *testing.T) {
	mod := &ir.Module{Strings: []*ir.StringLit{{Label: ".LC0", Payload: []byte("hi")}}}
	asm := generate(t, mod)
	assert.Contains(t, asm, ".section .rodata")
	assert.Contains(t, asm, ".LC0:")
}

func TestAssignTempSlotsGivesEachTempAUniqueAlignedSlot(t *testing.T) {
	fn := &ir.Func{
		FrameSize: 8,
		Instrs: []ir.Instr{
			{Op: ir.MOV, Dest: "t0", Args: []string{"$1"}},
			{Op: ir.MOV, Dest: "t1", Args: []string{"t0"}},
			{Op: ir.BINOP, Dest: "t2", BinOp: "+", Args: []string{"t0", "t1"}},
		},
	}
	slots, total := assignTempSlots(fn)
	require.Len(t, slots, 3)
	assert.NotEqual(t, slots["t0"], slots["t1"])
	assert.NotEqual(t, slots["t1"], slots["t2"])
	assert.Equal(t, 0, total%16)
	for name, off := range slots {
		assert.Lessf(t, off, -fn.FrameSize, "temp %s must sit below the frame", name)
	}
}
