// Package constfold implements the sole optimization aurac performs:
// constant folding of integer literal expressions (spec.md §4.4). Both
// internal/parser (to evaluate array sizes, enum values, and `case` labels
// — spec.md invariants (c)/(d)/testable property 4) and internal/ir (to
// fold literal expressions and global initializers during lowering) share
// this recursive-descent evaluator. It runs at parse/lowering time
// rather than lex time, since aurac has no preprocessor-level conditional
// compilation to drive at lex time.
package constfold

import (
	"github.com/onecoolx/aurac/internal/ast"
)

// Eval attempts to evaluate e as a compile-time integer constant expression.
// enumConsts maps enumerator names to their evaluated values, so `case
// RED:` and `int a[BLUE];` work once an enum has been analyzed.
func Eval(e ast.Expr, enumConsts map[string]int64) (int64, bool) {
	switch n := e.(type) {
	case *ast.IntLit:
		return int64(n.Value), true
	case *ast.CharLit:
		return n.Value, true
	case *ast.Ident:
		if v, ok := enumConsts[n.Name]; ok {
			return v, true
		}
		return 0, false
	case *ast.UnaryOp:
		x, ok := Eval(n.X, enumConsts)
		if !ok {
			return 0, false
		}
		switch n.Op {
		case "-":
			return -x, true
		case "~":
			return ^x, true
		case "!":
			if x == 0 {
				return 1, true
			}
			return 0, true
		case "+":
			return x, true
		default:
			return 0, false
		}
	case *ast.BinaryOp:
		l, ok := Eval(n.Left, enumConsts)
		if !ok {
			return 0, false
		}
		r, ok := Eval(n.Right, enumConsts)
		if !ok {
			return 0, false
		}
		switch n.Op {
		case "+":
			return l + r, true
		case "-":
			return l - r, true
		case "*":
			return l * r, true
		case "/":
			if r == 0 {
				return 0, false
			}
			return l / r, true
		case "%":
			if r == 0 {
				return 0, false
			}
			return l % r, true
		case "&":
			return l & r, true
		case "|":
			return l | r, true
		case "^":
			return l ^ r, true
		case "<<":
			return l << uint(r), true
		case ">>":
			return l >> uint(r), true
		case "==":
			return boolInt(l == r), true
		case "!=":
			return boolInt(l != r), true
		case "<":
			return boolInt(l < r), true
		case "<=":
			return boolInt(l <= r), true
		case ">":
			return boolInt(l > r), true
		case ">=":
			return boolInt(l >= r), true
		case "&&":
			return boolInt(l != 0 && r != 0), true
		case "||":
			return boolInt(l != 0 || r != 0), true
		default:
			return 0, false
		}
	case *ast.Cond:
		c, ok := Eval(n.Cond, enumConsts)
		if !ok {
			return 0, false
		}
		if c != 0 {
			return Eval(n.Then, enumConsts)
		}
		return Eval(n.Else, enumConsts)
	case *ast.Cast:
		x, ok := Eval(n.X, enumConsts)
		if !ok {
			return 0, false
		}
		return x, true
	case *ast.SizeofExpr:
		// sizeof of an expression needs its resolved type, which is only
		// available after sema has typed the AST; internal/ir's lowerExpr
		// handles SizeofExpr/SizeofType itself once Eval reports failure.
		// (SizeofType also falls to the default case.)
		return 0, false
	default:
		return 0, false
	}
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
