package parser

import (
	"github.com/onecoolx/aurac/internal/ast"
	"github.com/onecoolx/aurac/internal/constfold"
	"github.com/onecoolx/aurac/internal/token"
	"github.com/onecoolx/aurac/internal/types"
)

// declSpec is the collapsed result of scanning storage-class keywords,
// const, and type-specifier keywords in any order (spec.md §4.2's
// "declaration specifiers may appear in any order").
type declSpec struct {
	storage   ast.StorageClass
	isTypedef bool
	isConst   bool
	base      *types.Type
}

var declSpecKeywords = []string{
	"typedef", "static", "extern", "auto", "register", "const", "volatile",
	"void", "char", "short", "int", "long", "signed", "unsigned",
	"struct", "union", "enum",
}

func (p *Parser) startsDeclSpecifier() bool {
	for _, k := range declSpecKeywords {
		if p.isKeyword(k) {
			return true
		}
	}
	if p.cur().Kind == token.Ident {
		_, ok := p.typedefNames[p.cur().Lexeme]
		return ok
	}
	return false
}

func (p *Parser) parseDeclSpecifiers() declSpec {
	var spec declSpec
	var signed, unsigned bool
	var longCount int
	var sawShort, sawInt, sawChar, sawVoid bool
	var named *types.Type

loop:
	for {
		switch {
		case p.acceptKeyword("typedef"):
			spec.isTypedef = true
		case p.acceptKeyword("static"):
			spec.storage = ast.Static
		case p.acceptKeyword("extern"):
			spec.storage = ast.Extern
		case p.acceptKeyword("auto"):
			spec.storage = ast.Auto
		case p.acceptKeyword("register"):
			spec.storage = ast.Register
		case p.acceptKeyword("const"):
			spec.isConst = true
		case p.acceptKeyword("volatile"):
			// accepted and ignored: aurac has no notion of volatile access.
		case p.acceptKeyword("void"):
			sawVoid = true
		case p.acceptKeyword("char"):
			sawChar = true
		case p.acceptKeyword("short"):
			sawShort = true
		case p.acceptKeyword("int"):
			sawInt = true
		case p.acceptKeyword("long"):
			longCount++
		case p.acceptKeyword("signed"):
			signed = true
		case p.acceptKeyword("unsigned"):
			unsigned = true
		case p.isKeyword("struct"):
			named = p.parseRecordSpecifier(false)
		case p.isKeyword("union"):
			named = p.parseRecordSpecifier(true)
		case p.isKeyword("enum"):
			named = p.parseEnumSpecifier()
		case named == nil && spec.base == nil && p.cur().Kind == token.Ident && p.isTypedefName(p.cur().Lexeme):
			named = p.typedefNames[p.cur().Lexeme]
			p.advance()
		default:
			break loop
		}
	}

	switch {
	case named != nil:
		spec.base = named
	case sawVoid:
		spec.base = types.VoidType
	default:
		kind := types.Int
		switch {
		case sawChar:
			kind = types.Char
		case sawShort:
			kind = types.Short
		case longCount > 0:
			kind = types.Long
		}
		spec.base = types.NewInt(kind, unsigned)
		_ = signed // signed is the default; explicit `signed` has no effect
		_ = sawInt
	}

	if spec.isConst {
		spec.base = types.WithConst(spec.base)
	}
	return spec
}

func (p *Parser) isTypedefName(name string) bool {
	_, ok := p.typedefNames[name]
	return ok
}

// parseRecordSpecifier parses `struct|union [tag] [{ members }]`, returning
// the (possibly still-incomplete) tagged type. A second reference to the
// same tag shares the first's *types.Type so a later definition back-fills
// every earlier reference (spec.md §3). A definition (one with a member
// list) also queues an ast.RecordDecl on p.extraDecls.
func (p *Parser) parseRecordSpecifier(isUnion bool) *types.Type {
	pos := p.pos2()
	kw := "struct"
	if isUnion {
		kw = "union"
	}
	p.expectKeyword(kw)

	tag := ""
	if p.cur().Kind == token.Ident {
		tag = p.cur().Lexeme
		p.advance()
	}

	var rt *types.Type
	key := kw + " " + tag
	if tag != "" {
		rt = p.recordTags[key]
	}
	if rt == nil {
		if isUnion {
			rt = types.NewUnion(tag)
		} else {
			rt = types.NewStruct(tag)
		}
		if tag != "" {
			p.recordTags[key] = rt
		}
	}

	if p.acceptPunct("{") {
		var fields []types.Field
		var members []*ast.FieldDecl
		for !p.isPunct("}") && !p.atEOF() {
			memberSpec := p.parseDeclSpecifiers()
			for {
				name, t, fpos := p.parseDeclaratorFull(memberSpec.base)
				fields = append(fields, types.Field{Name: name, Type: t})
				members = append(members, &ast.FieldDecl{Pos: fpos, Name: name, Type: t})
				if !p.acceptPunct(",") {
					break
				}
			}
			p.expectPunct(";")
		}
		p.expectPunct("}")
		rt.Layout = types.ComputeLayout(isUnion, fields)
		p.extraDecls = append(p.extraDecls, &ast.RecordDecl{Pos: pos, Tag: tag, IsUnion: isUnion, Members: members})
	}
	return rt
}

// parseEnumSpecifier parses `enum [tag] [{ enumerator-list }]`. Enumerators
// are registered as compile-time constants (p.enumConsts) usable in any
// later constant expression — array sizes, case labels, other enumerator
// initializers — and the enum itself lowers to plain `int` (spec.md §3: C89
// enums carry no distinct runtime representation).
func (p *Parser) parseEnumSpecifier() *types.Type {
	pos := p.pos2()
	p.expectKeyword("enum")
	tag := ""
	if p.cur().Kind == token.Ident {
		tag = p.cur().Lexeme
		p.advance()
	}
	if p.acceptPunct("{") {
		decl := &ast.EnumDecl{Pos: pos, Tag: tag}
		next := int64(0)
		for !p.isPunct("}") && !p.atEOF() {
			name, epos := p.expectIdent()
			val := next
			if p.acceptPunct("=") {
				e := p.parseConditional()
				if v, ok := constfold.Eval(e, p.enumConsts); ok {
					val = v
				} else {
					p.errorf("enumerator value must be a constant expression")
				}
			}
			decl.Enumerators = append(decl.Enumerators, ast.Enumerator{Pos: epos, Name: name, Value: val})
			p.enumConsts[name] = val
			next = val + 1
			if !p.acceptPunct(",") {
				break
			}
		}
		p.expectPunct("}")
		p.extraDecls = append(p.extraDecls, decl)
	}
	return types.IntType
}

// parseNameAndPointer consumes an optional pointer prefix and a name,
// special-casing the one level of function-pointer declarator aurac
// supports: `(*name)(params)`.
func (p *Parser) parseNameAndPointer(base *types.Type) (string, *types.Type, ast.Pos) {
	if p.isPunct("(") && p.peekN(1).Kind == token.Punct && p.peekN(1).Lexeme == "*" {
		p.advance() // (
		p.advance() // *
		name, pos := p.expectIdent()
		p.expectPunct(")")
		p.expectPunct("(")
		params, variadic := p.parseParams()
		p.expectPunct(")")
		fnType := types.NewFunction(base, paramTypes(params), variadic)
		return name, types.NewPointer(fnType), pos
	}

	t := base
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
	name, pos := p.expectIdent()
	return name, t, pos
}

type arrayDim struct {
	size       int
	incomplete bool
}

// parseArraySuffixes consumes zero or more `[size]`/`[]` trailers, building
// the array type from the innermost (rightmost) dimension outward so that
// `a[3][4]` means "3 arrays of 4 ints", not the reverse.
func (p *Parser) parseArraySuffixes(elemBase *types.Type) *types.Type {
	var dims []arrayDim
	for p.acceptPunct("[") {
		if p.acceptPunct("]") {
			dims = append(dims, arrayDim{incomplete: true})
			continue
		}
		e := p.parseConditional()
		p.expectPunct("]")
		size := 0
		if v, ok := constfold.Eval(e, p.enumConsts); ok {
			size = int(v)
		} else {
			p.errorf("array size must be a constant expression")
		}
		dims = append(dims, arrayDim{size: size})
	}
	t := elemBase
	for i := len(dims) - 1; i >= 0; i-- {
		if dims[i].incomplete {
			t = types.NewIncompleteArray(t)
		} else {
			t = types.NewArray(t, dims[i].size)
		}
	}
	return t
}

func (p *Parser) parseDeclaratorFull(base *types.Type) (string, *types.Type, ast.Pos) {
	name, t, pos := p.parseNameAndPointer(base)
	t = p.parseArraySuffixes(t)
	return name, t, pos
}

func paramTypes(params []*ast.Param) []*types.Type {
	ts := make([]*types.Type, len(params))
	for i, pa := range params {
		ts[i] = pa.Type
	}
	return ts
}

// parseParams parses a parameter-type-list: `void`, empty, or a
// comma-separated list of declarations optionally terminated by `...`. A
// parameter given as a bare type (`int` in `int (*fp)(int, int)`) gets an
// empty name; an unnamed pointer or array parameter (`char *`) is not
// accepted.
func (p *Parser) parseParams() ([]*ast.Param, bool) {
	if p.isPunct(")") {
		return nil, false
	}
	if p.isKeyword("void") && p.peekN(1).Kind == token.Punct && p.peekN(1).Lexeme == ")" {
		p.advance()
		return nil, false
	}

	var params []*ast.Param
	variadic := false
	for {
		if p.acceptPunct("...") {
			variadic = true
			break
		}
		spec := p.parseDeclSpecifiers()
		name, t, pos := "", spec.base, p.pos2()
		if !p.isPunct(",") && !p.isPunct(")") {
			name, t, pos = p.parseDeclaratorFull(spec.base)
		}
		params = append(params, &ast.Param{Pos: pos, Name: name, Type: t})
		if !p.acceptPunct(",") {
			break
		}
	}
	return params, variadic
}

// parseTopLevelDecl parses one top-level declaration: a typedef, a bare
// struct/union/enum declaration, a function prototype or definition, or one
// or more comma-separated variable declarators (spec.md §4.2).
func (p *Parser) parseTopLevelDecl() ast.Decl {
	if !p.startsDeclSpecifier() {
		p.errorf("expected declaration, found %q", p.cur().String())
		p.synchronize()
		return nil
	}

	spec := p.parseDeclSpecifiers()

	if p.acceptPunct(";") {
		// A bare `struct Foo { ... };`/`enum { ... };`/forward reference:
		// any side-effecting declaration has already been registered.
		return nil
	}

	if spec.isTypedef {
		name, t, pos := p.parseDeclaratorFull(spec.base)
		p.expectPunct(";")
		p.typedefNames[name] = t
		return &ast.TypedefDecl{Pos: pos, Name: name, Target: t}
	}

	name, t, pos := p.parseDeclaratorFull(spec.base)

	if p.acceptPunct("(") {
		params, variadic := p.parseParams()
		p.expectPunct(")")
		fn := &ast.FuncDecl{Pos: pos, Name: name, ReturnType: t, Params: params, Variadic: variadic, Storage: spec.storage}
		if p.isPunct("{") {
			fn.Body = p.parseCompoundStmt()
		} else {
			p.expectPunct(";")
		}
		return fn
	}

	var init ast.Expr
	if p.acceptPunct("=") {
		init = p.parseAssignment()
	}
	vd := &ast.VarDecl{Pos: pos, Name: name, Type: t, Init: init, Storage: spec.storage, IsGlobal: true}
	// Every declarator goes through p.extraDecls, so Parse emits them in
	// source order after any declaration the specifier itself produced.
	p.extraDecls = append(p.extraDecls, vd)

	for p.acceptPunct(",") {
		n2, t2, pos2 := p.parseDeclaratorFull(spec.base)
		var init2 ast.Expr
		if p.acceptPunct("=") {
			init2 = p.parseAssignment()
		}
		p.extraDecls = append(p.extraDecls, &ast.VarDecl{
			Pos: pos2, Name: n2, Type: t2, Init: init2, Storage: spec.storage, IsGlobal: true,
		})
	}
	p.expectPunct(";")
	return nil
}
