package parser

import (
	"github.com/onecoolx/aurac/internal/ast"
	"github.com/onecoolx/aurac/internal/constfold"
	"github.com/onecoolx/aurac/internal/token"
)

// parseLocalDecl parses one block-scope declaration (spec.md §3: each
// compound statement opens its own scope), returning every ast.Decl it
// produces — more than one for a comma-separated declarator list, or for an
// `enum { ... }` or struct/union definition in the specifier, which
// registers its own EnumDecl or RecordDecl as a side effect.
func (p *Parser) parseLocalDecl() []ast.Decl {
	before := len(p.extraDecls)
	spec := p.parseDeclSpecifiers()
	var out []ast.Decl
	out = append(out, p.extraDecls[before:]...)
	p.extraDecls = p.extraDecls[:before]

	if p.acceptPunct(";") {
		return out
	}

	if spec.isTypedef {
		name, t, pos := p.parseDeclaratorFull(spec.base)
		p.expectPunct(";")
		p.typedefNames[name] = t
		return append(out, &ast.TypedefDecl{Pos: pos, Name: name, Target: t})
	}

	name, t, pos := p.parseDeclaratorFull(spec.base)
	var init ast.Expr
	if p.acceptPunct("=") {
		init = p.parseAssignment()
	}
	out = append(out, &ast.VarDecl{Pos: pos, Name: name, Type: t, Init: init, Storage: spec.storage})

	for p.acceptPunct(",") {
		n2, t2, pos2 := p.parseDeclaratorFull(spec.base)
		var init2 ast.Expr
		if p.acceptPunct("=") {
			init2 = p.parseAssignment()
		}
		out = append(out, &ast.VarDecl{Pos: pos2, Name: n2, Type: t2, Init: init2, Storage: spec.storage})
	}
	p.expectPunct(";")
	return out
}

func (p *Parser) parseCompoundStmt() *ast.CompoundStmt {
	pos := p.pos2()
	p.expectPunct("{")
	cs := &ast.CompoundStmt{Pos: pos}
	for !p.isPunct("}") && !p.atEOF() {
		before := len(p.errs)
		if p.startsDeclSpecifier() {
			for _, d := range p.parseLocalDecl() {
				cs.Items = append(cs.Items, d)
			}
		} else if s := p.parseStatement(); s != nil {
			cs.Items = append(cs.Items, s)
		}
		if len(p.errs) > before {
			p.synchronizeStmt()
		}
	}
	p.expectPunct("}")
	return cs
}

func (p *Parser) parseStatement() ast.Stmt {
	switch {
	case p.isPunct("{"):
		return p.parseCompoundStmt()
	case p.isKeyword("if"):
		return p.parseIfStmt()
	case p.isKeyword("while"):
		return p.parseWhileStmt()
	case p.isKeyword("do"):
		return p.parseDoStmt()
	case p.isKeyword("for"):
		return p.parseForStmt()
	case p.isKeyword("switch"):
		return p.parseSwitchStmt()
	case p.isKeyword("case"):
		return p.parseCaseStmt()
	case p.isKeyword("default"):
		return p.parseDefaultStmt()
	case p.isKeyword("break"):
		pos := p.pos2()
		p.advance()
		p.expectPunct(";")
		return &ast.BreakStmt{Pos: pos}
	case p.isKeyword("continue"):
		pos := p.pos2()
		p.advance()
		p.expectPunct(";")
		return &ast.ContinueStmt{Pos: pos}
	case p.isKeyword("return"):
		return p.parseReturnStmt()
	case p.isKeyword("goto"):
		return p.parseGotoStmt()
	case p.cur().Kind == token.Ident && p.peekN(1).Kind == token.Punct && p.peekN(1).Lexeme == ":":
		return p.parseLabeledStmt()
	case p.isPunct(";"):
		pos := p.pos2()
		p.advance()
		return &ast.ExprStmt{Pos: pos}
	default:
		return p.parseExprStmt()
	}
}

func (p *Parser) parseIfStmt() ast.Stmt {
	pos := p.pos2()
	p.expectKeyword("if")
	p.expectPunct("(")
	cond := p.parseExpression()
	p.expectPunct(")")
	then := p.parseStatement()
	var els ast.Stmt
	if p.acceptKeyword("else") {
		els = p.parseStatement()
	}
	return &ast.IfStmt{Pos: pos, Cond: cond, Then: then, Else: els}
}

func (p *Parser) parseWhileStmt() ast.Stmt {
	pos := p.pos2()
	p.expectKeyword("while")
	p.expectPunct("(")
	cond := p.parseExpression()
	p.expectPunct(")")
	body := p.parseStatement()
	return &ast.WhileStmt{Pos: pos, Cond: cond, Body: body}
}

func (p *Parser) parseDoStmt() ast.Stmt {
	pos := p.pos2()
	p.expectKeyword("do")
	body := p.parseStatement()
	p.expectKeyword("while")
	p.expectPunct("(")
	cond := p.parseExpression()
	p.expectPunct(")")
	p.expectPunct(";")
	return &ast.DoStmt{Pos: pos, Body: body, Cond: cond}
}

func (p *Parser) parseForStmt() ast.Stmt {
	pos := p.pos2()
	p.expectKeyword("for")
	p.expectPunct("(")

	var init ast.Node
	switch {
	case p.isPunct(";"):
		p.advance()
	case p.startsDeclSpecifier():
		if decls := p.parseLocalDecl(); len(decls) > 0 {
			init = decls[0]
		}
	default:
		e := p.parseExpression()
		ipos := p.pos2()
		p.expectPunct(";")
		init = &ast.ExprStmt{Pos: ipos, X: e}
	}

	var cond ast.Expr
	if !p.isPunct(";") {
		cond = p.parseExpression()
	}
	p.expectPunct(";")

	var post ast.Expr
	if !p.isPunct(")") {
		post = p.parseExpression()
	}
	p.expectPunct(")")

	body := p.parseStatement()
	return &ast.ForStmt{Pos: pos, Init: init, Cond: cond, Post: post, Body: body}
}

func (p *Parser) parseSwitchStmt() ast.Stmt {
	pos := p.pos2()
	p.expectKeyword("switch")
	p.expectPunct("(")
	tag := p.parseExpression()
	p.expectPunct(")")
	body := p.parseStatement()
	return &ast.SwitchStmt{Pos: pos, Tag: tag, Body: body}
}

func (p *Parser) parseCaseStmt() ast.Stmt {
	pos := p.pos2()
	p.expectKeyword("case")
	e := p.parseConditional()
	p.expectPunct(":")
	val, ok := constfold.Eval(e, p.enumConsts)
	if !ok {
		p.errorf("case label must be a constant expression")
	}
	return &ast.CaseStmt{Pos: pos, Value: val}
}

func (p *Parser) parseDefaultStmt() ast.Stmt {
	pos := p.pos2()
	p.expectKeyword("default")
	p.expectPunct(":")
	return &ast.DefaultStmt{Pos: pos}
}

func (p *Parser) parseReturnStmt() ast.Stmt {
	pos := p.pos2()
	p.expectKeyword("return")
	var x ast.Expr
	if !p.isPunct(";") {
		x = p.parseExpression()
	}
	p.expectPunct(";")
	return &ast.ReturnStmt{Pos: pos, X: x}
}

func (p *Parser) parseGotoStmt() ast.Stmt {
	pos := p.pos2()
	p.expectKeyword("goto")
	label, _ := p.expectIdent()
	p.expectPunct(";")
	return &ast.GotoStmt{Pos: pos, Label: label}
}

func (p *Parser) parseLabeledStmt() ast.Stmt {
	label, pos := p.expectIdent()
	p.expectPunct(":")
	stmt := p.parseStatement()
	return &ast.LabeledStmt{Pos: pos, Label: label, Stmt: stmt}
}

func (p *Parser) parseExprStmt() ast.Stmt {
	pos := p.pos2()
	e := p.parseExpression()
	p.expectPunct(";")
	return &ast.ExprStmt{Pos: pos, X: e}
}
