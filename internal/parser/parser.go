// Package parser implements Pass P of the aurac pipeline: recursive-descent
// parsing with operator-precedence climbing over the token stream produced
// by internal/lexer, producing the AST consumed by internal/sema (spec.md
// §4.2): a cursor over a token slice, one method per grammar production,
// and panic-mode error recovery via synchronize/synchronizeStmt.
package parser

import (
	"fmt"

	"github.com/onecoolx/aurac/internal/ast"
	"github.com/onecoolx/aurac/internal/token"
	"github.com/onecoolx/aurac/internal/types"
)

// Error is one syntax error. Parse collects every Error it recovers from
// instead of stopping at the first one (spec.md §7).
type Error struct {
	File    string
	Line    int
	Col     int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s:%d:%d: error: %s", e.File, e.Line, e.Col, e.Message)
}

// Parser walks a fixed token slice: the pipeline runs in one process, so the
// parser is handed the lexer's []token.Token directly rather than re-reading
// a textual intermediate form.
type Parser struct {
	file   string
	toks   []token.Token
	pos    int
	errs   []error

	// typedefNames and recordTags let the parser disambiguate `T x;`-style
	// declarations from expression statements as it goes (spec.md §4.3: "the
	// parser consults the environment on each type-specifier parse"). This
	// is a parse-time shadow of the real symbol table that internal/sema
	// builds; it only needs to answer "is this identifier a type name".
	typedefNames map[string]*types.Type
	recordTags   map[string]*types.Type // keyed by "struct "+tag or "union "+tag
	enumConsts   map[string]int64

	// extraDecls accumulates declarations produced as a side effect of
	// parsing a type specifier (an `enum { ... }` or struct/union definition
	// nested inside another declaration), plus the variable declarators of a
	// top-level declaration; after each top-level decl Parse appends them,
	// in order, ahead of whatever parseTopLevelDecl returned.
	extraDecls []ast.Decl
}

// Parse parses toks (produced by internal/lexer.Tokenize) into a *ast.File.
// It returns every *Error it recovered from, or nil if there were none.
func Parse(toks []token.Token, file string) (*ast.File, []error) {
	p := &Parser{
		file:         file,
		toks:         toks,
		typedefNames: map[string]*types.Type{},
		recordTags:   map[string]*types.Type{},
		enumConsts:   map[string]int64{},
	}
	f := &ast.File{}
	for !p.atEOF() {
		before := len(p.extraDecls)
		d := p.parseTopLevelDecl()
		f.Decls = append(f.Decls, p.extraDecls[before:]...)
		if d != nil {
			f.Decls = append(f.Decls, d)
		}
	}
	return f, p.errs
}

// ---------------------------------------------------------------------------
// Token cursor
// ---------------------------------------------------------------------------

func (p *Parser) cur() token.Token {
	if p.pos >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}
	return p.toks[p.pos]
}

func (p *Parser) peekN(n int) token.Token {
	i := p.pos + n
	if i >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}
	return p.toks[i]
}

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *Parser) atEOF() bool { return p.cur().Kind == token.EOF }

func (p *Parser) is(kind token.Kind, lexeme string) bool {
	t := p.cur()
	return t.Kind == kind && t.Lexeme == lexeme
}

func (p *Parser) isPunct(lexeme string) bool   { return p.is(token.Punct, lexeme) }
func (p *Parser) isKeyword(lexeme string) bool { return p.is(token.Keyword, lexeme) }

func (p *Parser) acceptPunct(lexeme string) bool {
	if p.isPunct(lexeme) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) acceptKeyword(lexeme string) bool {
	if p.isKeyword(lexeme) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expectPunct(lexeme string) token.Token {
	if !p.isPunct(lexeme) {
		p.errorf("expected %q, found %q", lexeme, p.cur().String())
		return p.cur()
	}
	return p.advance()
}

func (p *Parser) expectKeyword(lexeme string) token.Token {
	if !p.isKeyword(lexeme) {
		p.errorf("expected %q, found %q", lexeme, p.cur().String())
		return p.cur()
	}
	return p.advance()
}

func (p *Parser) expectIdent() (string, ast.Pos) {
	t := p.cur()
	if t.Kind != token.Ident {
		p.errorf("expected identifier, found %q", t.String())
		return "", p.pos2()
	}
	p.advance()
	return t.Lexeme, ast.Pos{Line: t.Line, Col: t.Col}
}

func (p *Parser) pos2() ast.Pos {
	t := p.cur()
	return ast.Pos{Line: t.Line, Col: t.Col}
}

func (p *Parser) errorf(format string, args ...interface{}) {
	t := p.cur()
	p.errs = append(p.errs, &Error{
		File: p.file, Line: t.Line, Col: t.Col,
		Message: fmt.Sprintf(format, args...),
	})
}

// ---------------------------------------------------------------------------
// Panic-mode recovery (spec.md §7)
// ---------------------------------------------------------------------------

// synchronize skips tokens up to and including the next top-level
// declaration boundary (`;` or `}`), or until a token that can start a new
// declaration, after a malformed top-level declaration.
func (p *Parser) synchronize() {
	for !p.atEOF() {
		if p.isPunct(";") {
			p.advance()
			return
		}
		if p.isPunct("}") {
			p.advance()
			return
		}
		if p.startsDeclSpecifier() {
			return
		}
		p.advance()
	}
}

// synchronizeStmt skips to the next statement boundary inside a function
// body: a `;`, a `}`, or a token that starts a new statement.
func (p *Parser) synchronizeStmt() {
	for !p.atEOF() {
		if p.isPunct(";") {
			p.advance()
			return
		}
		if p.isPunct("}") {
			return
		}
		if p.startsDeclSpecifier() || p.startsStatement() {
			return
		}
		p.advance()
	}
}

func (p *Parser) startsStatement() bool {
	kws := []string{"if", "while", "do", "for", "switch", "case", "default",
		"break", "continue", "return", "goto"}
	for _, k := range kws {
		if p.isKeyword(k) {
			return true
		}
	}
	return p.isPunct("{")
}
