package sema

import (
	"math"

	"github.com/onecoolx/aurac/internal/ast"
	"github.com/onecoolx/aurac/internal/token"
	"github.com/onecoolx/aurac/internal/types"
)

// promoteType implements integer promotion (spec.md §4.3): char and short,
// signed or unsigned, always promote to plain int.
func promoteType(t *types.Type) *types.Type {
	rt := types.Resolve(t)
	if rt == nil || rt.Kind != types.Integer {
		return t
	}
	if rt.IntKind == types.Char || rt.IntKind == types.Short {
		return types.IntType
	}
	return t
}

// usualArithConv implements the usual arithmetic conversions over the
// {int,long} x {signed,unsigned} space left after promotion (spec.md §4.3).
func usualArithConv(a, b *types.Type) *types.Type {
	a = promoteType(a)
	b = promoteType(b)
	ra, rb := types.Resolve(a), types.Resolve(b)
	if ra == nil || ra.Kind != types.Integer {
		ra = types.IntType
	}
	if rb == nil || rb.Kind != types.Integer {
		rb = types.IntType
	}
	if ra.IntKind == types.Long || rb.IntKind == types.Long {
		// long holds every unsigned int value, so the result is unsigned
		// only when a long operand is.
		ulong := (ra.IntKind == types.Long && ra.Unsigned) || (rb.IntKind == types.Long && rb.Unsigned)
		return types.NewInt(types.Long, ulong)
	}
	return types.NewInt(types.Int, ra.Unsigned || rb.Unsigned)
}

// decay implements array-to-pointer and function-to-pointer decay
// (spec.md §4.3), applied everywhere an expression is used except as the
// operand of sizeof or unary &.
func decay(t *types.Type) *types.Type {
	rt := types.Resolve(t)
	if rt == nil {
		return t
	}
	switch rt.Kind {
	case types.Array:
		return types.NewPointer(rt.Elem)
	case types.Function:
		return types.NewPointer(rt)
	default:
		return t
	}
}

func (a *Analyzer) typeExprDecayed(e ast.Expr) *types.Type {
	return decay(a.typeExpr(e))
}

func isLvalue(e ast.Expr) bool {
	switch n := e.(type) {
	case *ast.Ident:
		return true
	case *ast.UnaryOp:
		return n.Op == "*"
	case *ast.Index:
		return true
	case *ast.Member:
		return true
	default:
		return false
	}
}

// intLitType assigns the smallest of int/unsigned int/long/unsigned long
// that both fits the literal's value and respects its suffix's floor
// (spec.md §4.1).
func intLitType(n *ast.IntLit) *types.Type {
	v := n.Value
	switch n.Suffix {
	case token.SuffixUL:
		return types.UnsignedLongType
	case token.SuffixL:
		if v > math.MaxInt64 {
			return types.UnsignedLongType
		}
		return types.LongType
	case token.SuffixU:
		if v <= math.MaxUint32 {
			return types.UnsignedIntType
		}
		return types.UnsignedLongType
	default:
		switch {
		case v <= math.MaxInt32:
			return types.IntType
		case v <= math.MaxUint32:
			return types.UnsignedIntType
		case v <= math.MaxInt64:
			return types.LongType
		default:
			return types.UnsignedLongType
		}
	}
}

func (a *Analyzer) typeExpr(e ast.Expr) *types.Type {
	switch n := e.(type) {
	case *ast.IntLit:
		t := intLitType(n)
		n.SetExprType(t)
		return t
	case *ast.CharLit:
		n.SetExprType(types.IntType)
		return types.IntType
	case *ast.StringLit:
		t := types.NewPointer(types.CharType)
		n.SetExprType(t)
		return t
	case *ast.Ident:
		return a.typeIdent(n)
	case *ast.BinaryOp:
		return a.typeBinaryOp(n)
	case *ast.UnaryOp:
		return a.typeUnaryOp(n)
	case *ast.Assign:
		return a.typeAssign(n)
	case *ast.Cond:
		return a.typeCond(n)
	case *ast.Call:
		return a.typeCall(n)
	case *ast.Index:
		return a.typeIndex(n)
	case *ast.Member:
		return a.typeMember(n)
	case *ast.Cast:
		return a.typeCast(n)
	case *ast.SizeofType:
		n.SetExprType(types.UnsignedLongType)
		return types.UnsignedLongType
	case *ast.SizeofExpr:
		a.typeExpr(n.X) // no decay: sizeof an array reports the array's size
		n.SetExprType(types.UnsignedLongType)
		return types.UnsignedLongType
	case *ast.Comma:
		a.typeExprDecayed(n.Left)
		t := a.typeExprDecayed(n.Right)
		n.SetExprType(t)
		return t
	default:
		return types.IntType
	}
}

func (a *Analyzer) typeIdent(n *ast.Ident) *types.Type {
	sym, ok := a.scope.lookup(n.Name)
	if !ok {
		a.diags.Errorf(n.Pos.Line, n.Pos.Col, "undeclared identifier %q", n.Name)
		n.SetExprType(types.IntType)
		return types.IntType
	}
	switch {
	case sym.Kind == SymEnumConst:
		n.Kind = ast.IdentEnumConst
		n.EnumValue = sym.EnumValue
	case sym.IsGlobal:
		n.Kind = ast.IdentGlobal
		n.GlobalName = sym.IRName
	default:
		n.Kind = ast.IdentLocal
		n.FrameOffset = sym.FrameOffset
	}
	rt := types.Resolve(sym.Type)
	n.DecaysToAddr = rt != nil && (rt.Kind == types.Array || rt.Kind == types.Function)
	n.SetExprType(sym.Type)
	return sym.Type
}

func (a *Analyzer) typeBinaryOp(n *ast.BinaryOp) *types.Type {
	lt := a.typeExprDecayed(n.Left)
	rt := a.typeExprDecayed(n.Right)

	var result *types.Type
	switch n.Op {
	case "&&", "||", "==", "!=", "<", "<=", ">", ">=":
		result = types.IntType
	case "+":
		switch {
		case types.IsPointer(lt) && types.IsIntegral(rt):
			result = lt
		case types.IsIntegral(lt) && types.IsPointer(rt):
			result = rt
		default:
			result = usualArithConv(lt, rt)
		}
	case "-":
		switch {
		case types.IsPointer(lt) && types.IsPointer(rt):
			result = types.LongType
		case types.IsPointer(lt) && types.IsIntegral(rt):
			result = lt
		default:
			result = usualArithConv(lt, rt)
		}
	default: // * / % & | ^ << >>
		result = usualArithConv(lt, rt)
	}
	n.SetExprType(result)
	return result
}

func (a *Analyzer) typeUnaryOp(n *ast.UnaryOp) *types.Type {
	switch n.Op {
	case "&":
		t := a.typeExpr(n.X) // no decay: address-of needs the raw operand type
		if id, ok := n.X.(*ast.Ident); ok {
			if sym, found := a.scope.lookup(id.Name); found && sym.Storage == ast.Register {
				a.diags.Errorf(n.Pos.Line, n.Pos.Col, "cannot take the address of register variable %q", id.Name)
			}
		}
		if !isLvalue(n.X) {
			a.diags.Errorf(n.Pos.Line, n.Pos.Col, "cannot take the address of a non-lvalue")
		}
		result := types.NewPointer(t)
		n.SetExprType(result)
		return result
	case "*":
		t := a.typeExprDecayed(n.X)
		rt := types.Resolve(t)
		result := types.IntType
		if rt != nil && rt.Kind == types.Pointer {
			result = rt.Pointee
		} else {
			a.diags.Errorf(n.Pos.Line, n.Pos.Col, "cannot dereference non-pointer type %s", t.String())
		}
		n.SetExprType(result)
		return result
	case "++", "--":
		t := a.typeExprDecayed(n.X)
		if !isLvalue(n.X) {
			a.diags.Errorf(n.Pos.Line, n.Pos.Col, "increment/decrement target is not an lvalue")
		}
		n.SetExprType(t)
		return t
	case "!":
		a.typeExprDecayed(n.X)
		n.SetExprType(types.IntType)
		return types.IntType
	default: // unary + - ~
		t := a.typeExprDecayed(n.X)
		result := promoteType(t)
		n.SetExprType(result)
		return result
	}
}

func (a *Analyzer) typeAssign(n *ast.Assign) *types.Type {
	lt := a.typeExpr(n.Left)
	a.typeExprDecayed(n.Right)
	if !isLvalue(n.Left) {
		a.diags.Errorf(n.Pos.Line, n.Pos.Col, "assignment target is not an lvalue")
	} else if lt != nil && lt.Const {
		a.diags.Errorf(n.Pos.Line, n.Pos.Col, "assignment to const-qualified lvalue")
	}
	n.SetExprType(lt)
	return lt
}

func (a *Analyzer) typeCond(n *ast.Cond) *types.Type {
	a.typeExprDecayed(n.Cond)
	tt := a.typeExprDecayed(n.Then)
	et := a.typeExprDecayed(n.Else)

	result := tt
	switch {
	case types.IsIntegral(tt) && types.IsIntegral(et):
		result = usualArithConv(tt, et)
	case types.IsPointer(tt):
		result = tt
	case types.IsPointer(et):
		result = et
	}
	n.SetExprType(result)
	return result
}

func (a *Analyzer) typeCall(n *ast.Call) *types.Type {
	var fnType *types.Type
	if id, ok := n.Callee.(*ast.Ident); ok {
		sym, found := a.scope.lookup(id.Name)
		if !found {
			a.diags.Errorf(n.Pos.Line, n.Pos.Col, "call to undeclared function %q", id.Name)
		} else {
			fnType = sym.Type
			id.Kind = ast.IdentGlobal
			id.GlobalName = sym.IRName
			id.DecaysToAddr = true
			id.SetExprType(sym.Type)
		}
	} else {
		fnType = a.typeExprDecayed(n.Callee)
	}

	for _, arg := range n.Args {
		a.typeExprDecayed(arg)
	}

	rt := types.Resolve(fnType)
	if rt != nil && rt.Kind == types.Pointer {
		rt = types.Resolve(rt.Pointee)
	}

	result := types.IntType
	switch {
	case rt != nil && rt.Kind == types.Function:
		result = rt.Return
		if !rt.Variadic && len(n.Args) != len(rt.Params) {
			a.diags.Errorf(n.Pos.Line, n.Pos.Col,
				"call argument count mismatch: expected %d, got %d", len(rt.Params), len(n.Args))
		}
	case fnType != nil:
		a.diags.Errorf(n.Pos.Line, n.Pos.Col, "called object is not a function")
	}
	n.SetExprType(result)
	return result
}

func (a *Analyzer) typeIndex(n *ast.Index) *types.Type {
	bt := a.typeExprDecayed(n.Base)
	a.typeExprDecayed(n.Idx)
	rt := types.Resolve(bt)
	result := types.IntType
	if rt != nil && rt.Kind == types.Pointer {
		result = rt.Pointee
	} else {
		a.diags.Errorf(n.Pos.Line, n.Pos.Col, "subscripted value is not a pointer or array")
	}
	n.SetExprType(result)
	return result
}

func (a *Analyzer) typeMember(n *ast.Member) *types.Type {
	bt := a.typeExpr(n.Base)
	rt := types.Resolve(bt)
	if n.Arrow {
		if rt != nil && rt.Kind == types.Pointer {
			rt = types.Resolve(rt.Pointee)
		} else {
			a.diags.Errorf(n.Pos.Line, n.Pos.Col, "member reference base is not a pointer")
			n.SetExprType(types.IntType)
			return types.IntType
		}
	}

	result := types.IntType
	if rt != nil && (rt.Kind == types.Struct || rt.Kind == types.Union) && rt.Layout != nil {
		if f, ok := rt.Layout.FieldByName(n.Name); ok {
			result = f.Type
		} else {
			a.diags.Errorf(n.Pos.Line, n.Pos.Col, "no member named %q in %s", n.Name, rt.String())
		}
	} else {
		a.diags.Errorf(n.Pos.Line, n.Pos.Col, "member reference base is not a struct or union")
	}
	n.SetExprType(result)
	return result
}

func (a *Analyzer) typeCast(n *ast.Cast) *types.Type {
	a.typeExprDecayed(n.X)
	n.SetExprType(n.Target)
	return n.Target
}
