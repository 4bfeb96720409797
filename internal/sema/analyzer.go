// Package sema implements Pass S of the aurac pipeline: it resolves every
// identifier, assigns a type to every expression, lays out each function's
// activation frame, and checks the invariants of spec.md §4.3 (const
// correctness, register address-of, break/continue/goto/case validity).
// Array sizes are checked by internal/parser. It walks the AST twice (top-
// level names first, then bodies), collecting into a running diag.Bag
// instead of exiting on the first error.
package sema

import (
	"github.com/onecoolx/aurac/internal/ast"
	"github.com/onecoolx/aurac/internal/diag"
	"github.com/onecoolx/aurac/internal/types"
)

// Analyzer walks one translation unit.
type Analyzer struct {
	file  string
	diags *diag.Bag

	globals *Scope
	scope   *Scope

	enumConsts map[string]int64

	curFunc        *ast.FuncDecl
	curFrameOffset int

	loopDepth   int
	switchStack []*switchCtx

	labels      map[string]bool
	pendingGoto []*ast.GotoStmt
}

type switchCtx struct {
	seen       map[int64]bool
	sawDefault bool
}

// Analyze runs semantic analysis over f, returning every diagnostic
// collected. The AST is annotated in place: VarDecl.FrameOffset,
// FuncDecl.FrameSize, and every Expr's type.
func Analyze(f *ast.File, file string) *diag.Bag {
	a := &Analyzer{
		file:       file,
		diags:      diag.NewBag(file),
		enumConsts: map[string]int64{},
	}
	a.globals = newScope(nil)
	a.scope = a.globals

	// First pass: register every top-level name so forward references
	// (a function calling another defined later in the file) resolve.
	for _, d := range f.Decls {
		a.registerTopLevel(d)
	}

	// Second pass: check initializers and function bodies.
	for _, d := range f.Decls {
		switch n := d.(type) {
		case *ast.VarDecl:
			if n.Init != nil {
				a.typeExprDecayed(n.Init)
			}
		case *ast.FuncDecl:
			if n.Body != nil {
				a.analyzeFunction(n)
			}
		}
	}

	return a.diags
}

func (a *Analyzer) registerTopLevel(d ast.Decl) {
	switch n := d.(type) {
	case *ast.VarDecl:
		sym := &Symbol{Kind: SymVar, Name: n.Name, IRName: n.Name, Type: n.Type, Storage: n.Storage, IsGlobal: true}
		if !a.globals.define(sym) {
			a.diags.Errorf(n.Pos.Line, n.Pos.Col, "redefinition of %q", n.Name)
		}
	case *ast.FuncDecl:
		fnType := types.NewFunction(n.ReturnType, paramTypesOf(n.Params), n.Variadic)
		if existing, ok := a.globals.lookupLocal(n.Name); ok {
			existing.Type = fnType
			existing.Func = n
		} else {
			a.globals.define(&Symbol{Kind: SymFunc, Name: n.Name, IRName: n.Name, Type: fnType, Storage: n.Storage, IsGlobal: true, Func: n})
		}
	case *ast.EnumDecl:
		for _, e := range n.Enumerators {
			a.enumConsts[e.Name] = e.Value
			a.globals.define(&Symbol{Kind: SymEnumConst, Name: e.Name, Type: types.IntType, EnumValue: e.Value})
		}
	case *ast.TypedefDecl, *ast.RecordDecl:
		// Fully resolved by internal/parser; nothing further to register.
	}
}

func paramTypesOf(params []*ast.Param) []*types.Type {
	ts := make([]*types.Type, len(params))
	for i, p := range params {
		ts[i] = p.Type
	}
	return ts
}

func (a *Analyzer) analyzeFunction(fn *ast.FuncDecl) {
	a.curFunc = fn
	a.curFrameOffset = 0
	a.loopDepth = 0
	a.switchStack = nil
	a.labels = map[string]bool{}
	a.pendingGoto = nil

	fnScope := newScope(a.globals)
	a.scope = fnScope

	a.layoutParams(fn)

	a.collectLabels(fn.Body)
	a.analyzeCompound(fn.Body)

	for _, g := range a.pendingGoto {
		if !a.labels[g.Label] {
			a.diags.Errorf(g.Pos.Line, g.Pos.Col, "goto references undefined label %q", g.Label)
		}
	}

	fn.FrameSize = alignUp(-a.curFrameOffset, 16)
	a.scope = a.globals
	a.curFunc = nil
}

// layoutParams spills the first six integer/pointer parameters to negative
// stack-frame offsets (they arrive in registers per the SysV convention
// and codegen's prologue stores them there) and assigns parameters beyond
// the sixth a positive offset into the caller's argument area, per
// spec.md's register-poor, stack-slot-only codegen model.
func (a *Analyzer) layoutParams(fn *ast.FuncDecl) {
	offset := 0
	for i, p := range fn.Params {
		if i < 6 {
			sz := types.Size(p.Type)
			if sz <= 0 {
				sz = 8
			}
			align := types.Alignment(p.Type)
			offset = alignDownNeg(offset, sz, align)
			p.FrameOffset = offset
		} else {
			p.FrameOffset = 16 + 8*(i-6)
		}
		a.scope.define(&Symbol{Kind: SymVar, Name: p.Name, Type: p.Type, FrameOffset: p.FrameOffset})
	}
	a.curFrameOffset = offset
}

func (a *Analyzer) allocLocal(v *ast.VarDecl) {
	if v.Storage == ast.Static {
		// Static locals live in .data/.bss like globals, labeled from the
		// enclosing function's name so same-named statics in different
		// functions don't collide.
		v.IsGlobal = true
		if a.curFunc != nil {
			v.MangledName = a.curFunc.Name + "." + v.Name
		} else {
			v.MangledName = v.Name
		}
		return
	}
	sz := types.Size(v.Type)
	if sz <= 0 {
		sz = 8
	}
	align := types.Alignment(v.Type)
	a.curFrameOffset = alignDownNeg(a.curFrameOffset, sz, align)
	v.FrameOffset = a.curFrameOffset
}

func alignDownNeg(offset, size, align int) int {
	n := offset - size
	if align <= 1 {
		return n
	}
	rem := n % align
	if rem != 0 {
		if rem < 0 {
			n -= align + rem
		} else {
			n -= rem
		}
	}
	return n
}

func alignUp(v, align int) int {
	if align <= 1 {
		return v
	}
	return (v + align - 1) / align * align
}

// collectLabels pre-scans a function body for every LabeledStmt so forward
// gotos can be validated without a second structural pass.
func (a *Analyzer) collectLabels(n ast.Node) {
	switch s := n.(type) {
	case *ast.CompoundStmt:
		for _, item := range s.Items {
			a.collectLabels(item)
		}
	case *ast.LabeledStmt:
		a.labels[s.Label] = true
		a.collectLabels(s.Stmt)
	case *ast.IfStmt:
		a.collectLabels(s.Then)
		if s.Else != nil {
			a.collectLabels(s.Else)
		}
	case *ast.WhileStmt:
		a.collectLabels(s.Body)
	case *ast.DoStmt:
		a.collectLabels(s.Body)
	case *ast.ForStmt:
		a.collectLabels(s.Body)
	case *ast.SwitchStmt:
		a.collectLabels(s.Body)
	}
}
