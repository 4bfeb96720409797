package sema

import (
	"github.com/onecoolx/aurac/internal/ast"
	"github.com/onecoolx/aurac/internal/types"
)

func (a *Analyzer) analyzeCompound(cs *ast.CompoundStmt) {
	parent := a.scope
	a.scope = newScope(parent)
	for _, item := range cs.Items {
		switch n := item.(type) {
		case ast.Decl:
			a.analyzeLocalDecl(n)
		case ast.Stmt:
			a.analyzeStmt(n)
		}
	}
	a.scope = parent
}

func (a *Analyzer) analyzeLocalDecl(d ast.Decl) {
	switch n := d.(type) {
	case *ast.VarDecl:
		a.allocLocal(n)
		irName := n.Name
		if n.IsGlobal {
			irName = n.MangledName
		}
		sym := &Symbol{Kind: SymVar, Name: n.Name, IRName: irName, Type: n.Type, Storage: n.Storage, FrameOffset: n.FrameOffset, IsGlobal: n.IsGlobal}
		if !a.scope.define(sym) {
			a.diags.Errorf(n.Pos.Line, n.Pos.Col, "redefinition of %q", n.Name)
		}
		if n.Init != nil {
			a.typeExprDecayed(n.Init)
		}
	case *ast.EnumDecl:
		for _, e := range n.Enumerators {
			a.enumConsts[e.Name] = e.Value
			a.scope.define(&Symbol{Kind: SymEnumConst, Name: e.Name, IRName: e.Name, Type: types.IntType, EnumValue: e.Value})
		}
	case *ast.TypedefDecl, *ast.RecordDecl:
		// Resolved entirely by internal/parser.
	}
}

func (a *Analyzer) analyzeStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.CompoundStmt:
		a.analyzeCompound(n)

	case *ast.ExprStmt:
		if n.X != nil {
			a.typeExprDecayed(n.X)
		}

	case *ast.IfStmt:
		a.typeExprDecayed(n.Cond)
		a.analyzeStmt(n.Then)
		if n.Else != nil {
			a.analyzeStmt(n.Else)
		}

	case *ast.WhileStmt:
		a.typeExprDecayed(n.Cond)
		a.loopDepth++
		a.analyzeStmt(n.Body)
		a.loopDepth--

	case *ast.DoStmt:
		a.loopDepth++
		a.analyzeStmt(n.Body)
		a.loopDepth--
		a.typeExprDecayed(n.Cond)

	case *ast.ForStmt:
		parent := a.scope
		a.scope = newScope(parent)
		if n.Init != nil {
			switch init := n.Init.(type) {
			case *ast.VarDecl:
				a.analyzeLocalDecl(init)
			case *ast.ExprStmt:
				if init.X != nil {
					a.typeExprDecayed(init.X)
				}
			}
		}
		if n.Cond != nil {
			a.typeExprDecayed(n.Cond)
		}
		if n.Post != nil {
			a.typeExprDecayed(n.Post)
		}
		a.loopDepth++
		a.analyzeStmt(n.Body)
		a.loopDepth--
		a.scope = parent

	case *ast.SwitchStmt:
		a.typeExprDecayed(n.Tag)
		a.switchStack = append(a.switchStack, &switchCtx{seen: map[int64]bool{}})
		a.analyzeStmt(n.Body)
		a.switchStack = a.switchStack[:len(a.switchStack)-1]

	case *ast.CaseStmt:
		if len(a.switchStack) == 0 {
			a.diags.Errorf(n.Pos.Line, n.Pos.Col, "case label not within a switch statement")
			return
		}
		ctx := a.switchStack[len(a.switchStack)-1]
		if ctx.seen[n.Value] {
			a.diags.Errorf(n.Pos.Line, n.Pos.Col, "duplicate case value %d", n.Value)
		}
		ctx.seen[n.Value] = true

	case *ast.DefaultStmt:
		if len(a.switchStack) == 0 {
			a.diags.Errorf(n.Pos.Line, n.Pos.Col, "default label not within a switch statement")
			return
		}
		ctx := a.switchStack[len(a.switchStack)-1]
		if ctx.sawDefault {
			a.diags.Errorf(n.Pos.Line, n.Pos.Col, "multiple default labels in one switch")
		}
		ctx.sawDefault = true

	case *ast.BreakStmt:
		if a.loopDepth == 0 && len(a.switchStack) == 0 {
			a.diags.Errorf(n.Pos.Line, n.Pos.Col, "break statement not within a loop or switch")
		}

	case *ast.ContinueStmt:
		if a.loopDepth == 0 {
			a.diags.Errorf(n.Pos.Line, n.Pos.Col, "continue statement not within a loop")
		}

	case *ast.ReturnStmt:
		if n.X != nil {
			a.typeExprDecayed(n.X)
		}
		if a.curFunc != nil {
			want := types.Resolve(a.curFunc.ReturnType)
			switch {
			case want != nil && want.Kind == types.Void && n.X != nil:
				a.diags.Errorf(n.Pos.Line, n.Pos.Col, "returning a value from a void function")
			case want != nil && want.Kind != types.Void && n.X == nil:
				a.diags.Errorf(n.Pos.Line, n.Pos.Col, "non-void function must return a value")
			}
		}

	case *ast.GotoStmt:
		a.pendingGoto = append(a.pendingGoto, n)

	case *ast.LabeledStmt:
		a.analyzeStmt(n.Stmt)
	}
}
