package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onecoolx/aurac/internal/ast"
	"github.com/onecoolx/aurac/internal/lexer"
	"github.com/onecoolx/aurac/internal/types"
)

func parseSrc(t *testing.T, src string) (*ast.File, []error) {
	t.Helper()
	toks, err := lexer.Tokenize(strings.NewReader(src), "t.c")
	require.NoError(t, err)
	return Parse(toks, "t.c")
}

func TestParseVarDecl(t *testing.T) {
	f, errs := parseSrc(t, "int x = 1, *p, a[10];")
	require.Empty(t, errs)
	require.Len(t, f.Decls, 3)

	v0 := f.Decls[0].(*ast.VarDecl)
	assert.Equal(t, "x", v0.Name)
	assert.NotNil(t, v0.Init)

	v1 := f.Decls[1].(*ast.VarDecl)
	assert.Equal(t, "p", v1.Name)
	assert.Equal(t, "int*", v1.Type.String())

	v2 := f.Decls[2].(*ast.VarDecl)
	assert.Equal(t, "a", v2.Name)
	assert.Equal(t, "int[10]", v2.Type.String())
}

func TestParseFuncDecl(t *testing.T) {
	f, errs := parseSrc(t, "int add(int a, int b) { return a + b; }")
	require.Empty(t, errs)
	require.Len(t, f.Decls, 1)

	fn := f.Decls[0].(*ast.FuncDecl)
	assert.Equal(t, "add", fn.Name)
	require.Len(t, fn.Params, 2)
	assert.Equal(t, "a", fn.Params[0].Name)
	require.NotNil(t, fn.Body)
	require.Len(t, fn.Body.Items, 1)

	ret := fn.Body.Items[0].(*ast.ReturnStmt)
	bin := ret.X.(*ast.BinaryOp)
	assert.Equal(t, "+", bin.Op)
}

func TestParsePrototypeNoBody(t *testing.T) {
	f, errs := parseSrc(t, "int add(int a, int b);")
	require.Empty(t, errs)
	fn := f.Decls[0].(*ast.FuncDecl)
	assert.Nil(t, fn.Body)
}

func TestParseStructDecl(t *testing.T) {
	f, errs := parseSrc(t, "struct point { int x; int y; }; struct point origin;")
	require.Empty(t, errs)
	require.Len(t, f.Decls, 2)
	vd := f.Decls[1].(*ast.VarDecl)
	assert.Equal(t, "struct point", vd.Type.String())
	require.NotNil(t, vd.Type.Layout)
	assert.Len(t, vd.Type.Layout.Fields, 2)
}

func TestParseTypedef(t *testing.T) {
	f, errs := parseSrc(t, "typedef unsigned long size_t; size_t n;")
	require.Empty(t, errs)
	require.Len(t, f.Decls, 2)
	td := f.Decls[0].(*ast.TypedefDecl)
	assert.Equal(t, "size_t", td.Name)
	vd := f.Decls[1].(*ast.VarDecl)
	assert.Equal(t, "unsigned long", vd.Type.String())
}

func TestParseEnum(t *testing.T) {
	f, errs := parseSrc(t, "enum color { RED, GREEN, BLUE = 5 }; int c = BLUE;")
	require.Empty(t, errs)
	require.Len(t, f.Decls, 2)
	ed := f.Decls[0].(*ast.EnumDecl)
	require.Len(t, ed.Enumerators, 3)
	assert.Equal(t, int64(0), ed.Enumerators[0].Value)
	assert.Equal(t, int64(1), ed.Enumerators[1].Value)
	assert.Equal(t, int64(5), ed.Enumerators[2].Value)
}

func TestParseFunctionPointerDecl(t *testing.T) {
	f, errs := parseSrc(t, "int (*fp)(int, int);")
	require.Empty(t, errs)
	vd := f.Decls[0].(*ast.VarDecl)
	assert.Equal(t, "fp", vd.Name)
	require.Equal(t, types.Pointer, vd.Type.Kind)
	require.Equal(t, types.Function, vd.Type.Pointee.Kind)
	assert.Len(t, vd.Type.Pointee.Params, 2)
	assert.Equal(t, "int", vd.Type.Pointee.Return.String())
}

func TestExpressionPrecedence(t *testing.T) {
	f, errs := parseSrc(t, "int x = 1 + 2 * 3;")
	require.Empty(t, errs)
	vd := f.Decls[0].(*ast.VarDecl)
	bin := vd.Init.(*ast.BinaryOp)
	assert.Equal(t, "+", bin.Op)
	rhs := bin.Right.(*ast.BinaryOp)
	assert.Equal(t, "*", rhs.Op)
}

func TestExpressionAssignRightAssoc(t *testing.T) {
	f, errs := parseSrc(t, "int x; void f() { x = x = 3; }")
	require.Empty(t, errs)
	fn := f.Decls[1].(*ast.FuncDecl)
	es := fn.Body.Items[0].(*ast.ExprStmt)
	assign := es.X.(*ast.Assign)
	assert.Equal(t, "=", assign.Op)
	_, ok := assign.Right.(*ast.Assign)
	assert.True(t, ok)
}

func TestExpressionTernaryAndLogical(t *testing.T) {
	f, errs := parseSrc(t, "int x = a || b ? 1 : 2;")
	require.Empty(t, errs)
	vd := f.Decls[0].(*ast.VarDecl)
	cond := vd.Init.(*ast.Cond)
	_, ok := cond.Cond.(*ast.BinaryOp)
	assert.True(t, ok)
}

func TestExpressionCastAndSizeof(t *testing.T) {
	f, errs := parseSrc(t, "int x; void f() { x = (int)sizeof(int); }")
	require.Empty(t, errs)
	fn := f.Decls[1].(*ast.FuncDecl)
	es := fn.Body.Items[0].(*ast.ExprStmt)
	assign := es.X.(*ast.Assign)
	cast := assign.Right.(*ast.Cast)
	assert.Equal(t, "int", cast.Target.String())
	_, ok := cast.X.(*ast.SizeofType)
	assert.True(t, ok)
}

func TestExpressionPostfixChain(t *testing.T) {
	f, errs := parseSrc(t, "struct p { int x; }; void f(struct p *s, int *a) { s->x = a[0]++; }")
	require.Empty(t, errs)
	fn := f.Decls[1].(*ast.FuncDecl)
	es := fn.Body.Items[0].(*ast.ExprStmt)
	assign := es.X.(*ast.Assign)
	member := assign.Left.(*ast.Member)
	assert.True(t, member.Arrow)
	assert.Equal(t, "x", member.Name)
	unary := assign.Right.(*ast.UnaryOp)
	assert.True(t, unary.Postfix)
	assert.Equal(t, "++", unary.Op)
	_, ok := unary.X.(*ast.Index)
	assert.True(t, ok)
}

func TestStatementControlFlow(t *testing.T) {
	f, errs := parseSrc(t, `
int f(int n) {
	int i;
	for (i = 0; i < n; i = i + 1) {
		if (i == 2) {
			continue;
		} else {
			break;
		}
	}
	while (n) {
		n = n - 1;
	}
	do {
		n = n + 1;
	} while (n < 10);
	return n;
}`)
	require.Empty(t, errs)
	fn := f.Decls[0].(*ast.FuncDecl)
	require.Len(t, fn.Body.Items, 5)
	_, ok := fn.Body.Items[1].(*ast.ForStmt)
	assert.True(t, ok)
	_, ok = fn.Body.Items[2].(*ast.WhileStmt)
	assert.True(t, ok)
	_, ok = fn.Body.Items[3].(*ast.DoStmt)
	assert.True(t, ok)
	_, ok = fn.Body.Items[4].(*ast.ReturnStmt)
	assert.True(t, ok)
}

func TestStatementSwitch(t *testing.T) {
	f, errs := parseSrc(t, `
int f(int n) {
	switch (n) {
	case 1:
		n = n + 1;
	case 2:
		n = n + 2;
		break;
	default:
		n = 0;
	}
	return n;
}`)
	require.Empty(t, errs)
	fn := f.Decls[0].(*ast.FuncDecl)
	sw := fn.Body.Items[0].(*ast.SwitchStmt)
	body := sw.Body.(*ast.CompoundStmt)
	case1 := body.Items[0].(*ast.CaseStmt)
	assert.Equal(t, int64(1), case1.Value)
	def := body.Items[5].(*ast.DefaultStmt)
	assert.NotNil(t, def)
}

func TestStatementGotoLabel(t *testing.T) {
	f, errs := parseSrc(t, `
int f() {
	goto done;
done:
	return 0;
}`)
	require.Empty(t, errs)
	fn := f.Decls[0].(*ast.FuncDecl)
	_, ok := fn.Body.Items[0].(*ast.GotoStmt)
	assert.True(t, ok)
	lbl := fn.Body.Items[1].(*ast.LabeledStmt)
	assert.Equal(t, "done", lbl.Label)
}

func TestRecoveryCollectsMultipleErrors(t *testing.T) {
	_, errs := parseSrc(t, "int x = ; int y = ;")
	assert.GreaterOrEqual(t, len(errs), 2)
}
