package parser

import (
	"github.com/onecoolx/aurac/internal/ast"
	"github.com/onecoolx/aurac/internal/token"
	"github.com/onecoolx/aurac/internal/types"
)

// The chain below implements spec.md §4.2's C89 operator-precedence table,
// lowest to highest: comma, assignment (right-assoc), conditional, ||, &&,
// |, ^, &, equality, relational, shift, additive, multiplicative, cast,
// unary, postfix, primary. Each level is its own method so recovery and
// position-tracking stay local to the production that needs them. `|` vs
// `||` needs no special-casing here: the lexer's longest-match tokenization
// (token.go's MultiCharOps) already disambiguates them before the parser
// ever sees a token.

func (p *Parser) parseExpression() ast.Expr { return p.parseComma() }

func (p *Parser) parseComma() ast.Expr {
	e := p.parseAssignment()
	for p.isPunct(",") {
		pos := p.pos2()
		p.advance()
		rhs := p.parseAssignment()
		ne := &ast.Comma{Left: e, Right: rhs}
		ne.Pos = pos
		e = ne
	}
	return e
}

var assignOps = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
	"&=": true, "|=": true, "^=": true, "<<=": true, ">>=": true,
}

func (p *Parser) parseAssignment() ast.Expr {
	e := p.parseConditional()
	if t := p.cur(); t.Kind == token.Punct && assignOps[t.Lexeme] {
		pos := p.pos2()
		op := t.Lexeme
		p.advance()
		rhs := p.parseAssignment() // right-associative
		ne := &ast.Assign{Op: op, Left: e, Right: rhs}
		ne.Pos = pos
		return ne
	}
	return e
}

func (p *Parser) parseConditional() ast.Expr {
	e := p.parseLogicalOr()
	if p.isPunct("?") {
		pos := p.pos2()
		p.advance()
		then := p.parseExpression()
		p.expectPunct(":")
		els := p.parseConditional()
		ne := &ast.Cond{Cond: e, Then: then, Else: els}
		ne.Pos = pos
		return ne
	}
	return e
}

// binaryLevel factors the shared shape of every left-associative binary
// precedence level: parse one operand at the next tighter level, then loop
// consuming same-level operators.
func (p *Parser) binaryLevel(next func() ast.Expr, ops ...string) ast.Expr {
	e := next()
	for {
		matched := ""
		for _, op := range ops {
			if p.isPunct(op) {
				matched = op
				break
			}
		}
		if matched == "" {
			return e
		}
		pos := p.pos2()
		p.advance()
		rhs := next()
		ne := &ast.BinaryOp{Op: matched, Left: e, Right: rhs}
		ne.Pos = pos
		e = ne
	}
}

func (p *Parser) parseLogicalOr() ast.Expr  { return p.binaryLevel(p.parseLogicalAnd, "||") }
func (p *Parser) parseLogicalAnd() ast.Expr { return p.binaryLevel(p.parseBitOr, "&&") }
func (p *Parser) parseBitOr() ast.Expr      { return p.binaryLevel(p.parseBitXor, "|") }
func (p *Parser) parseBitXor() ast.Expr     { return p.binaryLevel(p.parseBitAnd, "^") }
func (p *Parser) parseBitAnd() ast.Expr     { return p.binaryLevel(p.parseEquality, "&") }
func (p *Parser) parseEquality() ast.Expr   { return p.binaryLevel(p.parseRelational, "==", "!=") }
func (p *Parser) parseRelational() ast.Expr {
	return p.binaryLevel(p.parseShift, "<", ">", "<=", ">=")
}
func (p *Parser) parseShift() ast.Expr { return p.binaryLevel(p.parseAdditive, "<<", ">>") }
func (p *Parser) parseAdditive() ast.Expr {
	return p.binaryLevel(p.parseMultiplicative, "+", "-")
}
func (p *Parser) parseMultiplicative() ast.Expr {
	return p.binaryLevel(p.parseCast, "*", "/", "%")
}

// isTypeStartAt reports whether the token n places ahead can start a
// type-name: a type-specifier keyword, `const`, or a registered typedef
// name. Used to tell a parenthesized cast `(T)x` from a parenthesized
// expression `(x)`.
func (p *Parser) isTypeStartAt(n int) bool {
	t := p.peekN(n)
	if t.Kind == token.Keyword {
		switch t.Lexeme {
		case "void", "char", "short", "int", "long", "signed", "unsigned",
			"struct", "union", "enum", "const":
			return true
		}
		return false
	}
	if t.Kind == token.Ident {
		_, ok := p.typedefNames[t.Lexeme]
		return ok
	}
	return false
}

// parseTypeName parses the type-name grammar used inside casts and sizeof:
// declaration specifiers followed by an optional pointer abstract
// declarator (spec.md Non-goals exclude array/function abstract
// declarators in this position).
func (p *Parser) parseTypeName() *types.Type {
	spec := p.parseDeclSpecifiers()
	t := spec.base
	for p.acceptPunct("*") {
		isConst := false
		for p.acceptKeyword("const") {
			isConst = true
		}
		t = types.NewPointer(t)
		if isConst {
			t = types.WithConst(t)
		}
	}
	return t
}

func (p *Parser) parseCast() ast.Expr {
	if p.isPunct("(") && p.isTypeStartAt(1) {
		pos := p.pos2()
		p.advance()
		t := p.parseTypeName()
		p.expectPunct(")")
		x := p.parseCast()
		e := &ast.Cast{Target: t, X: x}
		e.Pos = pos
		return e
	}
	return p.parseUnary()
}

func (p *Parser) parseUnary() ast.Expr {
	pos := p.pos2()
	switch {
	case p.isPunct("+"), p.isPunct("-"), p.isPunct("!"), p.isPunct("~"), p.isPunct("*"), p.isPunct("&"):
		op := p.advance().Lexeme
		x := p.parseCast()
		e := &ast.UnaryOp{Op: op, X: x}
		e.Pos = pos
		return e
	case p.isPunct("++"), p.isPunct("--"):
		op := p.advance().Lexeme
		x := p.parseUnary()
		e := &ast.UnaryOp{Op: op, X: x}
		e.Pos = pos
		return e
	case p.isKeyword("sizeof"):
		p.advance()
		if p.isPunct("(") && p.isTypeStartAt(1) {
			p.advance()
			t := p.parseTypeName()
			p.expectPunct(")")
			e := &ast.SizeofType{Target: t}
			e.Pos = pos
			return e
		}
		x := p.parseUnary()
		e := &ast.SizeofExpr{X: x}
		e.Pos = pos
		return e
	default:
		return p.parsePostfix()
	}
}

func (p *Parser) parsePostfix() ast.Expr {
	e := p.parsePrimary()
	for {
		pos := p.pos2()
		switch {
		case p.acceptPunct("["):
			idx := p.parseExpression()
			p.expectPunct("]")
			ne := &ast.Index{Base: e, Idx: idx}
			ne.Pos = pos
			e = ne
		case p.acceptPunct("("):
			var args []ast.Expr
			if !p.isPunct(")") {
				args = append(args, p.parseAssignment())
				for p.acceptPunct(",") {
					args = append(args, p.parseAssignment())
				}
			}
			p.expectPunct(")")
			ne := &ast.Call{Callee: e, Args: args}
			ne.Pos = pos
			e = ne
		case p.acceptPunct("."):
			name, _ := p.expectIdent()
			ne := &ast.Member{Base: e, Name: name}
			ne.Pos = pos
			e = ne
		case p.acceptPunct("->"):
			name, _ := p.expectIdent()
			ne := &ast.Member{Base: e, Name: name, Arrow: true}
			ne.Pos = pos
			e = ne
		case p.acceptPunct("++"):
			ne := &ast.UnaryOp{Op: "++", X: e, Postfix: true}
			ne.Pos = pos
			e = ne
		case p.acceptPunct("--"):
			ne := &ast.UnaryOp{Op: "--", X: e, Postfix: true}
			ne.Pos = pos
			e = ne
		default:
			return e
		}
	}
}

func (p *Parser) parsePrimary() ast.Expr {
	t := p.cur()
	pos := ast.Pos{Line: t.Line, Col: t.Col}
	switch {
	case t.Kind == token.Ident:
		p.advance()
		e := &ast.Ident{Name: t.Lexeme}
		e.Pos = pos
		return e
	case t.Kind == token.IntLiteral:
		p.advance()
		e := &ast.IntLit{Value: t.IntValue, Suffix: t.IntSuffix}
		e.Pos = pos
		return e
	case t.Kind == token.CharLiteral:
		p.advance()
		e := &ast.CharLit{Value: t.CharValue}
		e.Pos = pos
		return e
	case t.Kind == token.StringLiteral:
		p.advance()
		e := &ast.StringLit{Value: t.StringValue}
		e.Pos = pos
		return e
	case p.isPunct("("):
		p.advance()
		e := p.parseExpression()
		p.expectPunct(")")
		return e
	default:
		p.errorf("expected expression, found %q", t.String())
		p.advance()
		e := &ast.IntLit{Value: 0}
		e.Pos = pos
		return e
	}
}
