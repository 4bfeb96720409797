package codegen

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/onecoolx/aurac/internal/ir"
)

// argRegs holds the SysV integer/pointer argument registers in order
// (spec.md §4.5): rdi, rsi, rdx, rcx, r8, r9. Arguments past the sixth are
// passed on the stack.
var argRegs = []string{"%rdi", "%rsi", "%rdx", "%rcx", "%r8", "%r9"}

// generator carries the per-function state codegen.go's dispatch walk needs:
// the emitter, the current function's temp-slot assignment, and the single
// epilogue label every RET funnels through.
type generator struct {
	emit          *Emitter
	slots         map[string]int
	epilogueLabel string
	pendingParams []string
}

// Generate lowers mod to complete GNU-as assembly text, writing it to w.
// The dispatch in genInstr is built directly from spec.md §4.5's ABI and
// width rules, structurally mirroring internal/ir/lower.go's own per-opcode
// switch (see DESIGN.md for the grounding notes).
func Generate(mod *ir.Module, w io.Writer) error {
	e := NewEmitter(w)
	g := &generator{emit: e}
	if mod.SourceFile != "" && (len(mod.Functions) > 0 || len(mod.Globals) > 0 || len(mod.Strings) > 0) {
		e.Directive(".file", strconv.Quote(mod.SourceFile))
	}
	g.genData(mod)
	for _, fn := range mod.Functions {
		g.genFunc(fn)
	}
	// Every object file this compiler produces marks its stack
	// non-executable; an empty translation unit's assembly is just this one
	// line (spec.md §8's boundary-behavior requirement).
	e.Directive(".section", ".note.GNU-stack,\"\",@progbits")
	return e.Flush()
}

func (g *generator) genData(mod *ir.Module) {
	var data, bss []*ir.Global
	for _, gl := range mod.Globals {
		if gl.Init == nil && gl.Reloc == "" {
			bss = append(bss, gl)
		} else {
			data = append(data, gl)
		}
	}

	if len(data) > 0 {
		g.emit.Directive(".data")
		for _, gl := range data {
			g.genDataGlobal(gl)
		}
	}
	if len(bss) > 0 {
		g.emit.Directive(".bss")
		for _, gl := range bss {
			if gl.Exported {
				g.emit.Directive(".globl", gl.Name)
			}
			g.emit.Directive(".align", gl.Align)
			g.emit.Label(gl.Name)
			g.emit.Directive(".zero", gl.Size)
		}
	}
	if len(mod.Strings) > 0 {
		g.emit.Directive(".section", ".rodata")
		for _, s := range mod.Strings {
			g.emit.Label(s.Label)
			g.emitByteBlob(append(append([]byte(nil), s.Payload...), 0))
		}
	}
}

func (g *generator) genDataGlobal(gl *ir.Global) {
	if gl.Exported {
		g.emit.Directive(".globl", gl.Name)
	}
	g.emit.Directive(".align", gl.Align)
	g.emit.Label(gl.Name)
	if gl.Reloc != "" {
		g.emit.Directive(".quad", gl.Reloc)
		return
	}
	g.emitByteBlob(gl.Init)
}

func (g *generator) emitByteBlob(data []byte) {
	if len(data) == 0 {
		return
	}
	parts := make([]string, len(data))
	for i, b := range data {
		parts[i] = strconv.Itoa(int(b))
	}
	g.emit.Directive(".byte", strings.Join(parts, ","))
}

// genFunc emits one function's prologue, body, and single shared epilogue.
// Every local, parameter, and IR temporary gets its own stack slot
// (spec.md §4.5's register-poor model: no spilling heuristics, because
// nothing is ever held live in a register across an instruction boundary).
func (g *generator) genFunc(fn *ir.Func) {
	slots, total := assignTempSlots(fn)
	g.slots = slots
	g.pendingParams = nil
	g.epilogueLabel = g.emit.NewLabel("ret_" + fn.Name)

	if fn.Exported {
		g.emit.Directive(".globl", fn.Name)
	}
	g.emit.Directive(".text")
	g.emit.Label(fn.Name)
	g.emit.Instr1("pushq", "%rbp")
	g.emit.Instr2("movq", "%rsp", "%rbp")
	if total > 0 {
		g.emit.Instr2("subq", fmt.Sprintf("$%d", total), "%rsp")
	}
	for i, p := range fn.Params {
		if i >= len(argRegs) {
			break
		}
		g.emitStore(memOperand(p.Offset), p.Width, argRegs[i])
	}

	for _, ins := range fn.Instrs {
		g.genInstr(ins)
	}

	g.emit.Label(g.epilogueLabel)
	g.emit.Instr2("movq", "%rbp", "%rsp")
	g.emit.Instr1("popq", "%rbp")
	g.emit.Instr0("ret")
	g.emit.BlankLine()
}

func (g *generator) genInstr(ins ir.Instr) {
	switch ins.Op {
	case ir.MOV:
		g.loadValue("%rax", ins.Args[0])
		g.storeTemp(ins.Dest, "%rax")
	case ir.BINOP:
		g.loadValue("%rax", ins.Args[0])
		g.loadValue("%rcx", ins.Args[1])
		g.emitBinOp(ins)
		g.storeTemp(ins.Dest, "%rax")
	case ir.UNOP:
		g.genUnOp(ins)
	case ir.LOAD:
		mem := g.addrMemOperand(ins.Args[0], "%rax")
		g.emitLoad(mem, ins.Width, ins.Signed)
		g.storeTemp(ins.Dest, "%rax")
	case ir.STORE:
		g.loadValue("%rcx", ins.Args[1])
		mem := g.addrMemOperand(ins.Args[0], "%rax")
		g.emitStore(mem, ins.Width, "%rcx")
	case ir.LEA:
		g.genLEA(ins)
	case ir.LOAD_INDEX:
		g.genIndexAddr(ins.Args[0], ins.Args[1], ins.ElemSize)
		g.emitLoad("(%rax)", ins.Width, ins.Signed)
		g.storeTemp(ins.Dest, "%rax")
	case ir.STORE_INDEX:
		g.loadValue("%rdx", ins.Args[2])
		g.genIndexAddr(ins.Args[0], ins.Args[1], ins.ElemSize)
		g.emitStore("(%rax)", ins.Width, "%rdx")
	case ir.LOAD_MEMBER:
		g.loadValue("%rax", ins.Args[0])
		g.emitLoad(fmt.Sprintf("%d(%%rax)", ins.Offset), ins.Width, ins.Signed)
		g.storeTemp(ins.Dest, "%rax")
	case ir.STORE_MEMBER:
		g.loadValue("%rcx", ins.Args[1])
		g.loadValue("%rax", ins.Args[0])
		g.emitStore(fmt.Sprintf("%d(%%rax)", ins.Offset), ins.Width, "%rcx")
	case ir.PARAM:
		g.pendingParams = append(g.pendingParams, ins.Args[0])
	case ir.CALL:
		g.genCall(ins)
	case ir.RET:
		if len(ins.Args) > 0 {
			g.loadValue("%rax", ins.Args[0])
		}
		g.emit.Instr1("jmp", g.epilogueLabel)
	case ir.LABEL:
		g.emit.Label(ins.Label)
	case ir.JMP:
		g.emit.Instr1("jmp", ins.Target)
	case ir.JZ:
		g.loadValue("%rax", ins.Args[0])
		g.emit.Instr2("testq", "%rax", "%rax")
		g.emit.Instr1("jz", ins.Target)
	case ir.JNZ:
		g.loadValue("%rax", ins.Args[0])
		g.emit.Instr2("testq", "%rax", "%rax")
		g.emit.Instr1("jnz", ins.Target)
	}
}

// genIndexAddr computes base + idx*elemSize into %rax, the shared shape
// behind LEA's AddrIndex form, LOAD_INDEX, and STORE_INDEX.
func (g *generator) genIndexAddr(base, idx string, elemSize int) {
	g.loadValue("%rax", base)
	g.loadValue("%rcx", idx)
	if elemSize != 1 {
		g.emit.Instr2("imulq", fmt.Sprintf("$%d", elemSize), "%rcx")
	}
	g.emit.Instr2("addq", "%rcx", "%rax")
}

func (g *generator) genLEA(ins ir.Instr) {
	switch ins.Form {
	case ir.AddrName:
		name := ins.Args[0]
		if isLocalOperand(name) {
			g.emit.Instr2("leaq", memOperand(localOffset(name)), "%rax")
		} else {
			g.emit.Instr2("leaq", name+"(%rip)", "%rax")
		}
	case ir.AddrIndex:
		g.genIndexAddr(ins.Args[0], ins.Args[1], ins.ElemSize)
	case ir.AddrMember:
		g.loadValue("%rax", ins.Args[0])
		if ins.Offset != 0 {
			g.emit.Instr2("addq", fmt.Sprintf("$%d", ins.Offset), "%rax")
		}
	}
	g.storeTemp(ins.Dest, "%rax")
}

func (g *generator) genUnOp(ins ir.Instr) {
	g.loadValue("%rax", ins.Args[0])
	switch ins.UnOp {
	case "-":
		g.emit.Instr1("negq", "%rax")
	case "~":
		g.emit.Instr1("notq", "%rax")
	case "ext":
		// No-op at the register level: every temp already carries a full
		// 64-bit sign- or zero-extended value (the extension happened when
		// it was LOADed from its narrower memory location), so widening a
		// value already held in a temp requires nothing further.
	}
	g.storeTemp(ins.Dest, "%rax")
}

func (g *generator) emitBinOp(ins ir.Instr) {
	switch ins.BinOp {
	case "+":
		g.emit.Instr2("addq", "%rcx", "%rax")
	case "-":
		g.emit.Instr2("subq", "%rcx", "%rax")
	case "*":
		g.emit.Instr2("imulq", "%rcx", "%rax")
	case "/":
		g.emitDivMod(ins.Signed, false)
	case "%":
		g.emitDivMod(ins.Signed, true)
	case "&":
		g.emit.Instr2("andq", "%rcx", "%rax")
	case "|":
		g.emit.Instr2("orq", "%rcx", "%rax")
	case "^":
		g.emit.Instr2("xorq", "%rcx", "%rax")
	case "<<":
		g.emit.Instr2("shlq", "%cl", "%rax")
	case ">>":
		if ins.Signed {
			g.emit.Instr2("sarq", "%cl", "%rax")
		} else {
			g.emit.Instr2("shrq", "%cl", "%rax")
		}
	case "==", "!=", "<", "<=", ">", ">=":
		g.emit.Instr2("cmpq", "%rcx", "%rax")
		g.emit.Instr1(setcc(ins.BinOp, ins.Signed), "%al")
		g.emit.Instr2("movzbq", "%al", "%rax")
	}
}

// emitDivMod emits the div/mod instruction sequence. Signed division uses
// cqto to sign-extend %rax into %rdx:%rax before idivq; unsigned division
// zeroes %rdx first and uses divq (spec.md §4.5). wantRemainder selects "%"
// (%rdx, the remainder) over "/" (%rax, the quotient already in place).
func (g *generator) emitDivMod(signed, wantRemainder bool) {
	if signed {
		g.emit.Instr0("cqto")
		g.emit.Instr1("idivq", "%rcx")
	} else {
		g.emit.Instr2("movq", "$0", "%rdx")
		g.emit.Instr1("divq", "%rcx")
	}
	if wantRemainder {
		g.emit.Instr2("movq", "%rdx", "%rax")
	}
}

func setcc(op string, signed bool) string {
	switch op {
	case "==":
		return "sete"
	case "!=":
		return "setne"
	case "<":
		if signed {
			return "setl"
		}
		return "setb"
	case "<=":
		if signed {
			return "setle"
		}
		return "setbe"
	case ">":
		if signed {
			return "setg"
		}
		return "seta"
	case ">=":
		if signed {
			return "setge"
		}
		return "setae"
	}
	return "sete"
}

// genCall flushes the pending PARAM queue this CALL consumes: the first six
// go in argRegs, any further ones are pushed right-to-left onto the stack
// with padding to preserve the 16-byte alignment spec.md §4.5 requires
// before every call.
func (g *generator) genCall(ins ir.Instr) {
	params := g.pendingParams
	g.pendingParams = nil

	regArgs := params
	var stackArgs []string
	if len(params) > len(argRegs) {
		regArgs = params[:len(argRegs)]
		stackArgs = params[len(argRegs):]
	}

	padded := len(stackArgs)%2 != 0
	if padded {
		g.emit.Instr2("subq", "$8", "%rsp")
	}
	for i := len(stackArgs) - 1; i >= 0; i-- {
		g.loadValue("%rax", stackArgs[i])
		g.emit.Instr1("pushq", "%rax")
	}

	for i, v := range regArgs {
		g.loadValue(argRegs[i], v)
	}

	if isTempOperand(ins.Callee) {
		g.loadValue("%rax", ins.Callee)
		g.emit.Instr1("call", "*%rax")
	} else {
		g.emit.Instr1("call", ins.Callee)
	}

	cleanup := len(stackArgs) * 8
	if padded {
		cleanup += 8
	}
	if cleanup > 0 {
		g.emit.Instr2("addq", fmt.Sprintf("$%d", cleanup), "%rsp")
	}

	if ins.Dest != "" {
		g.storeTemp(ins.Dest, "%rax")
	}
}

// loadValue loads a generic value operand (always "$N" or "tN" by
// construction — internal/ir.lowerExpr never returns a bare local/global
// name as a value, only through LOAD/LEA first) into reg as a full 64-bit
// quantity.
func (g *generator) loadValue(reg, operand string) {
	switch {
	case strings.HasPrefix(operand, "$"):
		g.emit.Instr2("movq", operand, reg)
	case isTempOperand(operand):
		g.emit.Instr2("movq", memOperand(g.slots[operand]), reg)
	case isLocalOperand(operand):
		g.emit.Instr2("movq", memOperand(localOffset(operand)), reg)
	default:
		g.emit.Instr2("movq", operand+"(%rip)", reg)
	}
}

// addrMemOperand resolves an "addr" operand (a LOAD/STORE/LOAD_MEMBER/
// STORE_MEMBER base) to the memory operand string to dereference: a direct
// frame slot or RIP-relative global reference needs no extra instruction,
// while a temp holding a computed address must first be loaded into
// scratchReg.
func (g *generator) addrMemOperand(addr, scratchReg string) string {
	switch {
	case isLocalOperand(addr):
		return memOperand(localOffset(addr))
	case isTempOperand(addr):
		g.loadValue(scratchReg, addr)
		return "(" + scratchReg + ")"
	default:
		return addr + "(%rip)"
	}
}

func (g *generator) storeTemp(dest, reg string) {
	if dest == "" {
		return
	}
	g.emit.Instr2("movq", reg, memOperand(g.slots[dest]))
}

// emitLoad reads a width-byte value at mem, sign- or zero-extending it up
// to a full 64-bit value in %rax (spec.md §4.5's movsbl/movswl/movzbl/
// movzwl family). A 32-bit zero-extending load needs no dedicated
// instruction: writing a 32-bit destination register implicitly zeroes its
// upper 32 bits.
func (g *generator) emitLoad(mem string, width int, signed bool) {
	switch width {
	case 1:
		if signed {
			g.emit.Instr2("movsbq", mem, "%rax")
		} else {
			g.emit.Instr2("movzbq", mem, "%rax")
		}
	case 2:
		if signed {
			g.emit.Instr2("movswq", mem, "%rax")
		} else {
			g.emit.Instr2("movzwq", mem, "%rax")
		}
	case 4:
		if signed {
			g.emit.Instr2("movslq", mem, "%rax")
		} else {
			g.emit.Instr2("movl", mem, "%eax")
		}
	default:
		g.emit.Instr2("movq", mem, "%rax")
	}
}

func (g *generator) emitStore(mem string, width int, reg string) {
	g.emit.Instr2(movOp(width), subReg(reg, width), mem)
}

func movOp(width int) string {
	switch width {
	case 1:
		return "movb"
	case 2:
		return "movw"
	case 4:
		return "movl"
	default:
		return "movq"
	}
}

var subRegNames = map[string][4]string{
	"%rax": {"%al", "%ax", "%eax", "%rax"},
	"%rcx": {"%cl", "%cx", "%ecx", "%rcx"},
	"%rdx": {"%dl", "%dx", "%edx", "%rdx"},
	"%rdi": {"%dil", "%di", "%edi", "%rdi"},
	"%rsi": {"%sil", "%si", "%esi", "%rsi"},
	"%r8":  {"%r8b", "%r8w", "%r8d", "%r8"},
	"%r9":  {"%r9b", "%r9w", "%r9d", "%r9"},
}

func subReg(reg string, width int) string {
	names, ok := subRegNames[reg]
	if !ok {
		return reg
	}
	switch width {
	case 1:
		return names[0]
	case 2:
		return names[1]
	case 4:
		return names[2]
	default:
		return names[3]
	}
}

func memOperand(offset int) string {
	return fmt.Sprintf("%d(%%rbp)", offset)
}

func isTempOperand(s string) bool { return isPrefixedInt(s, 't') }
func isLocalOperand(s string) bool { return isPrefixedInt(s, 'L') }

func isPrefixedInt(s string, prefix byte) bool {
	if len(s) < 2 || s[0] != prefix {
		return false
	}
	rest := s[1:]
	if rest[0] == '-' {
		rest = rest[1:]
	}
	if rest == "" {
		return false
	}
	for _, c := range rest {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func localOffset(s string) int {
	n, _ := strconv.Atoi(s[1:])
	return n
}

// assignTempSlots gives every distinct "tN" operand in fn a fresh 8-byte
// stack slot below fn.FrameSize (the sema-computed space for locals and
// params), and returns the slot map along with the function's total,
// 16-byte-aligned frame size. This is the stack-slot-only register
// allocator spec.md §4.5 calls for in place of a virtual-to-physical
// register allocator with spill slots (see DESIGN.md): every temporary
// gets its own slot, nothing is ever spilled because nothing is ever kept
// live in a register across an instruction boundary.
func assignTempSlots(fn *ir.Func) (map[string]int, int) {
	slots := make(map[string]int)
	offset := -fn.FrameSize
	note := func(name string) {
		if !isTempOperand(name) {
			return
		}
		if _, ok := slots[name]; ok {
			return
		}
		offset -= 8
		slots[name] = offset
	}
	for _, ins := range fn.Instrs {
		note(ins.Dest)
		for _, a := range ins.Args {
			note(a)
		}
	}
	return slots, alignUp(-offset, 16)
}

func alignUp(v, align int) int {
	if align <= 1 {
		return v
	}
	return (v + align - 1) / align * align
}
