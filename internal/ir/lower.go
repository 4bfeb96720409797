package ir

import (
	"fmt"

	"github.com/onecoolx/aurac/internal/ast"
	"github.com/onecoolx/aurac/internal/constfold"
	"github.com/onecoolx/aurac/internal/types"
)

// lowerer carries the per-module and per-function state needed to turn an
// annotated AST (spec.md §4.3's output) into the IR of ir.go in a single
// pass. It never re-resolves scope: it reads types, frame offsets, and
// symbol kinds straight off the AST nodes internal/sema already annotated.
type lowerer struct {
	mod *Module

	enumConsts   map[string]int64
	stringLabels map[string]string

	curFn *Func

	tempCount  int
	labelCount int

	breakTargets    []string
	continueTargets []string
	caseLabels      []map[ast.Stmt]string
}

// Lower turns one analyzed translation unit into an IR module. f must
// already have been through sema.Analyze: every Expr carries a type, every
// VarDecl/Param a frame offset, and every Ident its resolved Kind.
func Lower(f *ast.File, file string) *Module {
	l := &lowerer{
		mod:          &Module{SourceFile: file},
		enumConsts:   map[string]int64{},
		stringLabels: map[string]string{},
	}

	for _, d := range f.Decls {
		if e, ok := d.(*ast.EnumDecl); ok {
			for _, en := range e.Enumerators {
				l.enumConsts[en.Name] = en.Value
			}
		}
	}
	for _, d := range f.Decls {
		if fn, ok := d.(*ast.FuncDecl); ok && fn.Body != nil {
			var enums []*ast.EnumDecl
			collectEnumDecls(fn.Body, &enums)
			for _, e := range enums {
				for _, en := range e.Enumerators {
					l.enumConsts[en.Name] = en.Value
				}
			}
		}
	}

	for _, d := range f.Decls {
		if vd, ok := d.(*ast.VarDecl); ok && vd.IsGlobal && vd.Storage != ast.Extern {
			l.mod.Globals = append(l.mod.Globals, l.buildGlobal(vd.Name, vd.Storage != ast.Static, vd.Type, vd.Init))
		}
	}

	for _, d := range f.Decls {
		if fn, ok := d.(*ast.FuncDecl); ok && fn.Body != nil {
			l.lowerFunc(fn)
		}
	}

	return l.mod
}

// buildGlobal computes one global's backend-visible shape: a constant-folded
// byte blob, a relocation to another label, or nothing (zero-initialized).
func (l *lowerer) buildGlobal(name string, exported bool, t *types.Type, init ast.Expr) *Global {
	size := sizeOf(t)
	align := types.Alignment(t)
	if align < 1 {
		align = 1
	}
	g := &Global{Name: name, Exported: exported, Size: size, Align: align}
	if init == nil {
		return g
	}
	if v, ok := constfold.Eval(init, l.enumConsts); ok {
		g.Init = encodeInt(v, size)
		return g
	}
	switch x := init.(type) {
	case *ast.StringLit:
		g.Reloc = l.internString(x.Value)
	case *ast.UnaryOp:
		if x.Op == "&" {
			if id, ok := x.X.(*ast.Ident); ok && id.Kind == ast.IdentGlobal {
				g.Reloc = id.GlobalName
			}
		}
	case *ast.Ident:
		if x.Kind == ast.IdentGlobal && x.DecaysToAddr {
			g.Reloc = x.GlobalName
		}
	}
	return g
}

func (l *lowerer) lowerFunc(fn *ast.FuncDecl) {
	l.tempCount = 0
	l.labelCount = 0
	l.breakTargets = nil
	l.continueTargets = nil
	l.caseLabels = nil

	irFn := &Func{
		Name:        fn.Name,
		Exported:    fn.Storage != ast.Static,
		ReturnWidth: widthOf(fn.ReturnType),
		FrameSize:   fn.FrameSize,
	}
	if types.IsVoid(fn.ReturnType) {
		irFn.ReturnWidth = 0
	}
	for _, p := range fn.Params {
		irFn.Params = append(irFn.Params, Param{Name: p.Name, Offset: p.FrameOffset, Width: widthOf(p.Type)})
	}

	var statics []*ast.VarDecl
	collectStaticLocalDecls(fn.Body, &statics)
	for _, v := range statics {
		l.mod.Globals = append(l.mod.Globals, l.buildGlobal(v.MangledName, false, v.Type, v.Init))
	}

	var locals []*ast.VarDecl
	collectAutoLocalDecls(fn.Body, &locals)
	for _, v := range locals {
		irFn.Locals = append(irFn.Locals, Local{Name: v.Name, Offset: v.FrameOffset, Width: widthOf(v.Type)})
	}

	l.curFn = irFn
	l.lowerStmt(fn.Body)
	if len(irFn.Instrs) == 0 || irFn.Instrs[len(irFn.Instrs)-1].Op != RET {
		l.emit(Instr{Op: RET})
	}
	l.curFn = nil

	l.mod.Functions = append(l.mod.Functions, irFn)
}

// ---------------------------------------------------------------------------
// Tree walks that don't need a running lowerer
// ---------------------------------------------------------------------------

func collectEnumDecls(s ast.Stmt, out *[]*ast.EnumDecl) {
	cs, ok := s.(*ast.CompoundStmt)
	if !ok {
		return
	}
	for _, item := range cs.Items {
		if e, ok := item.(*ast.EnumDecl); ok {
			*out = append(*out, e)
		}
		switch st := item.(type) {
		case *ast.CompoundStmt:
			collectEnumDecls(st, out)
		case *ast.IfStmt:
			collectEnumDecls(st.Then, out)
			if st.Else != nil {
				collectEnumDecls(st.Else, out)
			}
		case *ast.WhileStmt:
			collectEnumDecls(st.Body, out)
		case *ast.DoStmt:
			collectEnumDecls(st.Body, out)
		case *ast.ForStmt:
			collectEnumDecls(st.Body, out)
		case *ast.SwitchStmt:
			collectEnumDecls(st.Body, out)
		case *ast.LabeledStmt:
			collectEnumDecls(st.Stmt, out)
		}
	}
}

func collectStaticLocalDecls(s ast.Stmt, out *[]*ast.VarDecl) {
	walkLocalDecls(s, func(v *ast.VarDecl) {
		if v.IsGlobal {
			*out = append(*out, v)
		}
	})
}

func collectAutoLocalDecls(s ast.Stmt, out *[]*ast.VarDecl) {
	walkLocalDecls(s, func(v *ast.VarDecl) {
		if !v.IsGlobal {
			*out = append(*out, v)
		}
	})
}

func walkLocalDecls(s ast.Stmt, visit func(*ast.VarDecl)) {
	cs, ok := s.(*ast.CompoundStmt)
	if !ok {
		return
	}
	for _, item := range cs.Items {
		if v, ok := item.(*ast.VarDecl); ok {
			visit(v)
		}
		switch st := item.(type) {
		case *ast.CompoundStmt:
			walkLocalDecls(st, visit)
		case *ast.IfStmt:
			walkLocalDecls(st.Then, visit)
			if st.Else != nil {
				walkLocalDecls(st.Else, visit)
			}
		case *ast.WhileStmt:
			walkLocalDecls(st.Body, visit)
		case *ast.DoStmt:
			walkLocalDecls(st.Body, visit)
		case *ast.ForStmt:
			walkLocalDecls(st.Body, visit)
		case *ast.SwitchStmt:
			walkLocalDecls(st.Body, visit)
		case *ast.LabeledStmt:
			walkLocalDecls(st.Stmt, visit)
		}
	}
}

// collectCaseLabels gathers a switch's own *ast.CaseStmt/*ast.DefaultStmt
// nodes in source order, stopping at any nested switch (its cases belong to
// it, not to the enclosing one).
func collectCaseLabels(s ast.Stmt, out *[]ast.Stmt) {
	switch n := s.(type) {
	case *ast.CompoundStmt:
		for _, item := range n.Items {
			if st, ok := item.(ast.Stmt); ok {
				collectCaseLabels(st, out)
			}
		}
	case *ast.CaseStmt:
		*out = append(*out, n)
	case *ast.DefaultStmt:
		*out = append(*out, n)
	case *ast.IfStmt:
		collectCaseLabels(n.Then, out)
		if n.Else != nil {
			collectCaseLabels(n.Else, out)
		}
	case *ast.WhileStmt:
		collectCaseLabels(n.Body, out)
	case *ast.DoStmt:
		collectCaseLabels(n.Body, out)
	case *ast.ForStmt:
		collectCaseLabels(n.Body, out)
	case *ast.LabeledStmt:
		collectCaseLabels(n.Stmt, out)
	}
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (l *lowerer) lowerStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.CompoundStmt:
		for _, item := range n.Items {
			switch it := item.(type) {
			case *ast.VarDecl:
				l.lowerLocalDecl(it)
			case ast.Decl:
				// EnumDecl/TypedefDecl/RecordDecl: nothing to lower.
			case ast.Stmt:
				l.lowerStmt(it)
			}
		}
	case *ast.ExprStmt:
		if n.X != nil {
			l.lowerExpr(n.X)
		}
	case *ast.IfStmt:
		l.lowerIf(n)
	case *ast.WhileStmt:
		l.lowerWhile(n)
	case *ast.DoStmt:
		l.lowerDo(n)
	case *ast.ForStmt:
		l.lowerFor(n)
	case *ast.SwitchStmt:
		l.lowerSwitch(n)
	case *ast.CaseStmt:
		l.emit(Instr{Op: LABEL, Label: l.caseLabels[len(l.caseLabels)-1][n]})
	case *ast.DefaultStmt:
		l.emit(Instr{Op: LABEL, Label: l.caseLabels[len(l.caseLabels)-1][n]})
	case *ast.BreakStmt:
		l.emit(Instr{Op: JMP, Target: l.breakTargets[len(l.breakTargets)-1]})
	case *ast.ContinueStmt:
		l.emit(Instr{Op: JMP, Target: l.continueTargets[len(l.continueTargets)-1]})
	case *ast.ReturnStmt:
		if n.X != nil {
			v := l.lowerExpr(n.X)
			l.emit(Instr{Op: RET, Args: []string{v}})
		} else {
			l.emit(Instr{Op: RET})
		}
	case *ast.GotoStmt:
		l.emit(Instr{Op: JMP, Target: n.Label})
	case *ast.LabeledStmt:
		l.emit(Instr{Op: LABEL, Label: n.Label})
		l.lowerStmt(n.Stmt)
	}
}

func (l *lowerer) lowerLocalDecl(n *ast.VarDecl) {
	if n.IsGlobal {
		// Static local: its storage was already promoted to a module
		// global by lowerFunc; only its initializer runs once, at link
		// time, not on every call.
		return
	}
	if n.Init == nil {
		return
	}
	rhs := l.lowerExpr(n.Init)
	l.emit(Instr{Op: STORE, Width: widthOf(n.Type), Args: []string{localOperand(n.FrameOffset), rhs}})
}

func (l *lowerer) lowerIf(n *ast.IfStmt) {
	if n.Else == nil {
		endL := l.newLabel("if_end")
		cv := l.lowerExpr(n.Cond)
		l.emit(Instr{Op: JZ, Target: endL, Args: []string{cv}})
		l.lowerStmt(n.Then)
		l.emit(Instr{Op: LABEL, Label: endL})
		return
	}
	elseL := l.newLabel("if_else")
	endL := l.newLabel("if_end")
	cv := l.lowerExpr(n.Cond)
	l.emit(Instr{Op: JZ, Target: elseL, Args: []string{cv}})
	l.lowerStmt(n.Then)
	l.emit(Instr{Op: JMP, Target: endL})
	l.emit(Instr{Op: LABEL, Label: elseL})
	l.lowerStmt(n.Else)
	l.emit(Instr{Op: LABEL, Label: endL})
}

func (l *lowerer) lowerWhile(n *ast.WhileStmt) {
	topL := l.newLabel("while_top")
	endL := l.newLabel("while_end")
	l.emit(Instr{Op: LABEL, Label: topL})
	cv := l.lowerExpr(n.Cond)
	l.emit(Instr{Op: JZ, Target: endL, Args: []string{cv}})
	l.pushLoop(endL, topL)
	l.lowerStmt(n.Body)
	l.popLoop()
	l.emit(Instr{Op: JMP, Target: topL})
	l.emit(Instr{Op: LABEL, Label: endL})
}

func (l *lowerer) lowerDo(n *ast.DoStmt) {
	topL := l.newLabel("do_top")
	contL := l.newLabel("do_cont")
	endL := l.newLabel("do_end")
	l.emit(Instr{Op: LABEL, Label: topL})
	l.pushLoop(endL, contL)
	l.lowerStmt(n.Body)
	l.popLoop()
	l.emit(Instr{Op: LABEL, Label: contL})
	cv := l.lowerExpr(n.Cond)
	l.emit(Instr{Op: JNZ, Target: topL, Args: []string{cv}})
	l.emit(Instr{Op: LABEL, Label: endL})
}

func (l *lowerer) lowerFor(n *ast.ForStmt) {
	if n.Init != nil {
		switch init := n.Init.(type) {
		case *ast.VarDecl:
			l.lowerLocalDecl(init)
		case *ast.ExprStmt:
			if init.X != nil {
				l.lowerExpr(init.X)
			}
		}
	}
	topL := l.newLabel("for_top")
	contL := l.newLabel("for_cont")
	endL := l.newLabel("for_end")
	l.emit(Instr{Op: LABEL, Label: topL})
	if n.Cond != nil {
		cv := l.lowerExpr(n.Cond)
		l.emit(Instr{Op: JZ, Target: endL, Args: []string{cv}})
	}
	l.pushLoop(endL, contL)
	l.lowerStmt(n.Body)
	l.popLoop()
	l.emit(Instr{Op: LABEL, Label: contL})
	if n.Post != nil {
		l.lowerExpr(n.Post)
	}
	l.emit(Instr{Op: JMP, Target: topL})
	l.emit(Instr{Op: LABEL, Label: endL})
}

func (l *lowerer) pushLoop(breakL, continueL string) {
	l.breakTargets = append(l.breakTargets, breakL)
	l.continueTargets = append(l.continueTargets, continueL)
}

func (l *lowerer) popLoop() {
	l.breakTargets = l.breakTargets[:len(l.breakTargets)-1]
	l.continueTargets = l.continueTargets[:len(l.continueTargets)-1]
}

// lowerSwitch emits the compare-and-jump chain ahead of the body, then
// lowers the body in source order; each CaseStmt/DefaultStmt it encounters
// there just drops a LABEL matching the chain's jump target.
func (l *lowerer) lowerSwitch(n *ast.SwitchStmt) {
	v := l.lowerExpr(n.Tag)
	signed := isSigned(n.Tag.ExprType())
	endL := l.newLabel("switch_end")

	var order []ast.Stmt
	collectCaseLabels(n.Body, &order)

	labels := map[ast.Stmt]string{}
	defaultL := ""
	for _, c := range order {
		switch cs := c.(type) {
		case *ast.CaseStmt:
			labels[cs] = l.newLabel("case")
		case *ast.DefaultStmt:
			lab := l.newLabel("default")
			labels[cs] = lab
			defaultL = lab
		}
	}

	for _, c := range order {
		cs, ok := c.(*ast.CaseStmt)
		if !ok {
			continue
		}
		t := l.newTemp()
		l.emit(Instr{Op: BINOP, Dest: t, BinOp: "==", Signed: signed, Args: []string{v, imm(cs.Value)}})
		l.emit(Instr{Op: JNZ, Target: labels[cs], Args: []string{t}})
	}
	if defaultL != "" {
		l.emit(Instr{Op: JMP, Target: defaultL})
	} else {
		l.emit(Instr{Op: JMP, Target: endL})
	}

	l.breakTargets = append(l.breakTargets, endL)
	l.caseLabels = append(l.caseLabels, labels)
	l.lowerStmt(n.Body)
	l.caseLabels = l.caseLabels[:len(l.caseLabels)-1]
	l.breakTargets = l.breakTargets[:len(l.breakTargets)-1]

	l.emit(Instr{Op: LABEL, Label: endL})
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

func (l *lowerer) lowerExpr(e ast.Expr) string {
	if v, ok := constfold.Eval(e, l.enumConsts); ok {
		return imm(v)
	}
	switch n := e.(type) {
	case *ast.IntLit:
		return imm(int64(n.Value))
	case *ast.CharLit:
		return imm(n.Value)
	case *ast.StringLit:
		t := l.newTemp()
		l.emit(Instr{Op: LEA, Dest: t, Form: AddrName, Args: []string{l.internString(n.Value)}})
		return t
	case *ast.Ident:
		return l.lowerIdentLoad(n)
	case *ast.BinaryOp:
		return l.lowerBinary(n)
	case *ast.UnaryOp:
		return l.lowerUnary(n)
	case *ast.Assign:
		return l.lowerAssign(n)
	case *ast.Cond:
		return l.lowerCond(n)
	case *ast.Call:
		return l.lowerCall(n)
	case *ast.Index:
		return l.lowerIndexLoad(n)
	case *ast.Member:
		return l.lowerMemberLoad(n)
	case *ast.Cast:
		return l.lowerCast(n)
	case *ast.SizeofType:
		return imm(int64(sizeOf(n.Target)))
	case *ast.SizeofExpr:
		return imm(int64(sizeOf(n.X.ExprType())))
	case *ast.Comma:
		l.lowerExpr(n.Left)
		return l.lowerExpr(n.Right)
	default:
		return imm(0)
	}
}

func (l *lowerer) lowerIdentLoad(n *ast.Ident) string {
	if n.Kind == ast.IdentEnumConst {
		return imm(n.EnumValue)
	}
	if n.DecaysToAddr {
		return l.lowerIdentAddr(n)
	}
	t := l.newTemp()
	width := widthOf(n.ExprType())
	signed := isSigned(n.ExprType())
	switch n.Kind {
	case ast.IdentLocal:
		l.emit(Instr{Op: LOAD, Dest: t, Width: width, Signed: signed, Args: []string{localOperand(n.FrameOffset)}})
	case ast.IdentGlobal:
		l.emit(Instr{Op: LOAD, Dest: t, Width: width, Signed: signed, Args: []string{n.GlobalName}})
	}
	return t
}

func (l *lowerer) lowerIdentAddr(n *ast.Ident) string {
	t := l.newTemp()
	var name string
	switch n.Kind {
	case ast.IdentLocal:
		name = localOperand(n.FrameOffset)
	case ast.IdentGlobal:
		name = n.GlobalName
	}
	l.emit(Instr{Op: LEA, Dest: t, Form: AddrName, Args: []string{name}})
	return t
}

// lowerLEA computes e's address, used for unary & and for `.` member access
// on a struct lvalue.
func (l *lowerer) lowerLEA(e ast.Expr) string {
	switch n := e.(type) {
	case *ast.Ident:
		return l.lowerIdentAddr(n)
	case *ast.UnaryOp:
		if n.Op == "*" {
			return l.lowerExpr(n.X)
		}
	case *ast.Index:
		base := l.lowerExpr(n.Base)
		idx := l.lowerExpr(n.Idx)
		t := l.newTemp()
		l.emit(Instr{Op: LEA, Dest: t, Form: AddrIndex, Args: []string{base, idx}, ElemSize: sizeOf(n.ExprType())})
		return t
	case *ast.Member:
		base := l.memberBaseAddr(n)
		offset, _ := l.memberOffsetWidth(n)
		if offset == 0 {
			return base
		}
		t := l.newTemp()
		l.emit(Instr{Op: LEA, Dest: t, Form: AddrMember, Args: []string{base}, Offset: offset})
		return t
	}
	return imm(0)
}

func (l *lowerer) lowerBinary(n *ast.BinaryOp) string {
	switch n.Op {
	case "&&":
		return l.lowerLogicalAnd(n)
	case "||":
		return l.lowerLogicalOr(n)
	case "+", "-":
		return l.lowerArithBinOp(n.Op, n.Left, n.Right, n.ExprType())
	}
	lv := l.lowerExpr(n.Left)
	rv := l.lowerExpr(n.Right)
	t := l.newTemp()
	l.emit(Instr{Op: BINOP, Dest: t, BinOp: n.Op, Signed: isSigned(n.Left.ExprType()), Args: []string{lv, rv}})
	return t
}

// lowerArithBinOp handles + and -, which need pointer-arithmetic scaling
// (spec.md §4.4) alongside the plain arithmetic case.
func (l *lowerer) lowerArithBinOp(op string, left, right ast.Expr, resultType *types.Type) string {
	lt := left.ExprType()
	rt := right.ExprType()

	if op == "+" {
		if types.IsPointer(lt) && types.IsIntegral(rt) {
			lv, rv := l.lowerExpr(left), l.lowerExpr(right)
			return l.ptrAdd(lv, rv, types.Resolve(lt).Pointee)
		}
		if types.IsIntegral(lt) && types.IsPointer(rt) {
			lv, rv := l.lowerExpr(left), l.lowerExpr(right)
			return l.ptrAdd(rv, lv, types.Resolve(rt).Pointee)
		}
	} else { // "-"
		if types.IsPointer(lt) && types.IsPointer(rt) {
			lv, rv := l.lowerExpr(left), l.lowerExpr(right)
			return l.ptrDiff(lv, rv, types.Resolve(lt).Pointee)
		}
		if types.IsPointer(lt) && types.IsIntegral(rt) {
			lv, rv := l.lowerExpr(left), l.lowerExpr(right)
			return l.ptrAdd(lv, l.negate(rv), types.Resolve(lt).Pointee)
		}
	}

	lv := l.lowerExpr(left)
	rv := l.lowerExpr(right)
	t := l.newTemp()
	l.emit(Instr{Op: BINOP, Dest: t, BinOp: op, Signed: isSigned(resultType), Args: []string{lv, rv}})
	return t
}

func (l *lowerer) ptrAdd(ptr, idx string, pointee *types.Type) string {
	size := sizeOf(pointee)
	if size == 1 {
		t := l.newTemp()
		l.emit(Instr{Op: BINOP, Dest: t, BinOp: "+", Args: []string{ptr, idx}})
		return t
	}
	scaled := l.newTemp()
	l.emit(Instr{Op: BINOP, Dest: scaled, BinOp: "*", Args: []string{idx, imm(int64(size))}})
	t := l.newTemp()
	l.emit(Instr{Op: BINOP, Dest: t, BinOp: "+", Args: []string{ptr, scaled}})
	return t
}

func (l *lowerer) ptrDiff(a, b string, pointee *types.Type) string {
	size := sizeOf(pointee)
	diff := l.newTemp()
	l.emit(Instr{Op: BINOP, Dest: diff, BinOp: "-", Signed: true, Args: []string{a, b}})
	if size == 1 {
		return diff
	}
	t := l.newTemp()
	l.emit(Instr{Op: BINOP, Dest: t, BinOp: "/", Signed: true, Args: []string{diff, imm(int64(size))}})
	return t
}

func (l *lowerer) negate(v string) string {
	t := l.newTemp()
	l.emit(Instr{Op: UNOP, Dest: t, UnOp: "-", Args: []string{v}})
	return t
}

// lowerLogicalAnd implements spec.md §4.4's short-circuit && lowering.
func (l *lowerer) lowerLogicalAnd(n *ast.BinaryOp) string {
	falseL := l.newLabel("land_false")
	endL := l.newLabel("land_end")
	result := l.newTemp()
	av := l.lowerExpr(n.Left)
	l.emit(Instr{Op: JZ, Target: falseL, Args: []string{av}})
	bv := l.lowerExpr(n.Right)
	l.emit(Instr{Op: JZ, Target: falseL, Args: []string{bv}})
	l.emit(Instr{Op: MOV, Dest: result, Args: []string{imm(1)}})
	l.emit(Instr{Op: JMP, Target: endL})
	l.emit(Instr{Op: LABEL, Label: falseL})
	l.emit(Instr{Op: MOV, Dest: result, Args: []string{imm(0)}})
	l.emit(Instr{Op: LABEL, Label: endL})
	return result
}

// lowerLogicalOr is the symmetric case: short-circuit to true as soon as
// either operand is nonzero (spec.md §4.4).
func (l *lowerer) lowerLogicalOr(n *ast.BinaryOp) string {
	trueL := l.newLabel("lor_true")
	endL := l.newLabel("lor_end")
	result := l.newTemp()
	av := l.lowerExpr(n.Left)
	l.emit(Instr{Op: JNZ, Target: trueL, Args: []string{av}})
	bv := l.lowerExpr(n.Right)
	l.emit(Instr{Op: JNZ, Target: trueL, Args: []string{bv}})
	l.emit(Instr{Op: MOV, Dest: result, Args: []string{imm(0)}})
	l.emit(Instr{Op: JMP, Target: endL})
	l.emit(Instr{Op: LABEL, Label: trueL})
	l.emit(Instr{Op: MOV, Dest: result, Args: []string{imm(1)}})
	l.emit(Instr{Op: LABEL, Label: endL})
	return result
}

func (l *lowerer) lowerUnary(n *ast.UnaryOp) string {
	switch n.Op {
	case "&":
		return l.lowerLEA(n.X)
	case "*":
		ptr := l.lowerExpr(n.X)
		t := l.newTemp()
		l.emit(Instr{Op: LOAD, Dest: t, Width: widthOf(n.ExprType()), Signed: isSigned(n.ExprType()), Args: []string{ptr}})
		return t
	case "++", "--":
		return l.lowerIncDec(n)
	case "!":
		v := l.lowerExpr(n.X)
		t := l.newTemp()
		l.emit(Instr{Op: BINOP, Dest: t, BinOp: "==", Args: []string{v, imm(0)}})
		return t
	case "+":
		return l.lowerExpr(n.X)
	default: // "-", "~"
		v := l.lowerExpr(n.X)
		t := l.newTemp()
		l.emit(Instr{Op: UNOP, Dest: t, UnOp: n.Op, Args: []string{v}})
		return t
	}
}

func (l *lowerer) lowerIncDec(n *ast.UnaryOp) string {
	old := l.lowerExpr(n.X)
	t := n.X.ExprType()

	var newVal string
	if types.IsPointer(t) {
		delta := int64(1)
		if n.Op == "--" {
			delta = -1
		}
		newVal = l.ptrAdd(old, imm(delta), types.Resolve(t).Pointee)
	} else {
		op := "+"
		if n.Op == "--" {
			op = "-"
		}
		nt := l.newTemp()
		l.emit(Instr{Op: BINOP, Dest: nt, BinOp: op, Signed: isSigned(t), Args: []string{old, imm(1)}})
		newVal = nt
	}

	l.store(n.X, newVal)
	if n.Postfix {
		return old
	}
	return newVal
}

func (l *lowerer) lowerAssign(n *ast.Assign) string {
	if n.Op == "=" {
		rhs := l.lowerExpr(n.Right)
		l.store(n.Left, rhs)
		return rhs
	}
	op := n.Op[:len(n.Op)-1] // "+=" -> "+"
	result := l.lowerArithBinOp(op, n.Left, n.Right, n.Left.ExprType())
	l.store(n.Left, result)
	return result
}

// store writes rhs to lhs's location, dispatching on the lvalue's shape
// (spec.md §4.4: plain name -> STORE, *p -> STORE, a[i] -> STORE_INDEX,
// s.m/p->m -> STORE_MEMBER).
func (l *lowerer) store(lhs ast.Expr, rhs string) {
	switch n := lhs.(type) {
	case *ast.Ident:
		width := widthOf(n.ExprType())
		var addr string
		switch n.Kind {
		case ast.IdentLocal:
			addr = localOperand(n.FrameOffset)
		case ast.IdentGlobal:
			addr = n.GlobalName
		}
		l.emit(Instr{Op: STORE, Width: width, Args: []string{addr, rhs}})
	case *ast.UnaryOp: // *p = rhs
		ptr := l.lowerExpr(n.X)
		l.emit(Instr{Op: STORE, Width: widthOf(n.ExprType()), Args: []string{ptr, rhs}})
	case *ast.Index:
		base := l.lowerExpr(n.Base)
		idx := l.lowerExpr(n.Idx)
		l.emit(Instr{Op: STORE_INDEX, ElemSize: sizeOf(n.ExprType()), Width: widthOf(n.ExprType()), Args: []string{base, idx, rhs}})
	case *ast.Member:
		base := l.memberBaseAddr(n)
		offset, width := l.memberOffsetWidth(n)
		l.emit(Instr{Op: STORE_MEMBER, Offset: offset, Width: width, Args: []string{base, rhs}})
	}
}

func (l *lowerer) lowerCond(n *ast.Cond) string {
	elseL := l.newLabel("cond_else")
	endL := l.newLabel("cond_end")
	result := l.newTemp()
	cv := l.lowerExpr(n.Cond)
	l.emit(Instr{Op: JZ, Target: elseL, Args: []string{cv}})
	tv := l.lowerExpr(n.Then)
	l.emit(Instr{Op: MOV, Dest: result, Args: []string{tv}})
	l.emit(Instr{Op: JMP, Target: endL})
	l.emit(Instr{Op: LABEL, Label: elseL})
	ev := l.lowerExpr(n.Else)
	l.emit(Instr{Op: MOV, Dest: result, Args: []string{ev}})
	l.emit(Instr{Op: LABEL, Label: endL})
	return result
}

func (l *lowerer) lowerCall(n *ast.Call) string {
	argVals := make([]string, len(n.Args))
	for i, a := range n.Args {
		argVals[i] = l.lowerExpr(a)
	}
	for _, v := range argVals {
		l.emit(Instr{Op: PARAM, Args: []string{v}})
	}

	callee := ""
	if id, ok := n.Callee.(*ast.Ident); ok && id.Kind == ast.IdentGlobal {
		callee = id.GlobalName
	} else {
		callee = l.lowerExpr(n.Callee)
	}

	if types.IsVoid(n.ExprType()) {
		l.emit(Instr{Op: CALL, Callee: callee, ArgCount: len(n.Args)})
		return ""
	}
	t := l.newTemp()
	l.emit(Instr{Op: CALL, Dest: t, Callee: callee, ArgCount: len(n.Args)})
	return t
}

func (l *lowerer) lowerIndexLoad(n *ast.Index) string {
	base := l.lowerExpr(n.Base)
	idx := l.lowerExpr(n.Idx)
	t := l.newTemp()
	l.emit(Instr{Op: LOAD_INDEX, Dest: t, ElemSize: sizeOf(n.ExprType()), Width: widthOf(n.ExprType()), Signed: isSigned(n.ExprType()), Args: []string{base, idx}})
	return t
}

func (l *lowerer) lowerMemberLoad(n *ast.Member) string {
	base := l.memberBaseAddr(n)
	offset, width := l.memberOffsetWidth(n)
	t := l.newTemp()
	l.emit(Instr{Op: LOAD_MEMBER, Dest: t, Offset: offset, Width: width, Signed: isSigned(n.ExprType()), Args: []string{base}})
	return t
}

// memberBaseAddr returns the address a member access is relative to: the
// pointer's value for `->`, the struct lvalue's address for `.`.
func (l *lowerer) memberBaseAddr(n *ast.Member) string {
	if n.Arrow {
		return l.lowerExpr(n.Base)
	}
	return l.lowerLEA(n.Base)
}

func (l *lowerer) memberOffsetWidth(n *ast.Member) (int, int) {
	bt := types.Resolve(n.Base.ExprType())
	if n.Arrow && bt != nil && bt.Kind == types.Pointer {
		bt = types.Resolve(bt.Pointee)
	}
	if bt == nil || bt.Layout == nil {
		return 0, widthOf(n.ExprType())
	}
	f, ok := bt.Layout.FieldByName(n.Name)
	if !ok {
		return 0, widthOf(n.ExprType())
	}
	return f.Offset, widthOf(n.ExprType())
}

// lowerCast handles integer width changes explicitly; everything else
// (pointer casts, casts that don't change representation) passes the
// operand's value through unchanged. Narrowing is left to the Width field
// of an eventual STORE-family instruction, matching spec.md §4.4's
// "truncation on stores"; PARAM and RET carry the value at full width.
func (l *lowerer) lowerCast(n *ast.Cast) string {
	v := l.lowerExpr(n.X)
	if !types.IsIntegral(n.Target) || !types.IsIntegral(n.X.ExprType()) {
		return v
	}
	srcW := widthOf(n.X.ExprType())
	dstW := widthOf(n.Target)
	if dstW <= srcW {
		return v
	}
	t := l.newTemp()
	l.emit(Instr{Op: UNOP, Dest: t, UnOp: "ext", Signed: isSigned(n.X.ExprType()), Width: dstW, Args: []string{v}})
	return t
}

// ---------------------------------------------------------------------------
// Operand helpers
// ---------------------------------------------------------------------------

func (l *lowerer) emit(i Instr) {
	l.curFn.Instrs = append(l.curFn.Instrs, i)
}

func (l *lowerer) newTemp() string {
	t := fmt.Sprintf("t%d", l.tempCount)
	l.tempCount++
	return t
}

func (l *lowerer) newLabel(prefix string) string {
	lab := fmt.Sprintf(".L%s%d", prefix, l.labelCount)
	l.labelCount++
	return lab
}

func (l *lowerer) internString(payload []byte) string {
	key := string(payload)
	if lab, ok := l.stringLabels[key]; ok {
		return lab
	}
	lab := fmt.Sprintf(".LC%d", len(l.mod.Strings))
	l.mod.Strings = append(l.mod.Strings, &StringLit{Label: lab, Payload: append([]byte(nil), payload...)})
	l.stringLabels[key] = lab
	return lab
}

func imm(v int64) string {
	return fmt.Sprintf("$%d", v)
}

// localOperand names a local/param's IR operand by its frame offset rather
// than its source name, so two same-named locals in different (possibly
// shadowing) scopes of one function never collide.
func localOperand(offset int) string {
	return fmt.Sprintf("L%d", offset)
}

// widthOf returns the load/store width in bytes for t, clamped to the
// backend's four supported widths (spec.md §4.5).
func widthOf(t *types.Type) int {
	switch types.Size(t) {
	case 1, 2, 4, 8:
		return types.Size(t)
	default:
		return 8
	}
}

// sizeOf returns t's true size for address arithmetic (array-element and
// struct-member offsets), unclamped and never less than 1.
func sizeOf(t *types.Type) int {
	s := types.Size(t)
	if s <= 0 {
		return 1
	}
	return s
}

func isSigned(t *types.Type) bool {
	rt := types.Resolve(t)
	if rt == nil {
		return true
	}
	if rt.Kind == types.Integer {
		return !rt.Unsigned
	}
	return false
}

func encodeInt(v int64, size int) []byte {
	if size <= 0 {
		size = 8
	}
	b := make([]byte, size)
	u := uint64(v)
	for i := 0; i < size && i < 8; i++ {
		b[i] = byte(u >> (8 * i))
	}
	return b
}
