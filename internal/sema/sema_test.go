package sema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onecoolx/aurac/internal/ast"
	"github.com/onecoolx/aurac/internal/lexer"
	"github.com/onecoolx/aurac/internal/parser"
	"github.com/onecoolx/aurac/internal/types"
)

func analyzeSrc(t *testing.T, src string) (*ast.File, *testing.T) {
	t.Helper()
	toks, err := lexer.Tokenize(strings.NewReader(src), "t.c")
	require.NoError(t, err)
	f, perrs := parser.Parse(toks, "t.c")
	require.Empty(t, perrs)
	return f, t
}

func TestAnalyzeArithmeticPromotion(t *testing.T) {
	f, _ := analyzeSrc(t, `
int f(char a, short b) {
	return a + b;
}`)
	bag := Analyze(f, "t.c")
	assert.False(t, bag.HasErrors())
	fn := f.Decls[0].(*ast.FuncDecl)
	ret := fn.Body.Items[0].(*ast.ReturnStmt)
	bin := ret.X.(*ast.BinaryOp)
	assert.Equal(t, "int", bin.ExprType().String())
}

func TestAnalyzePointerArithmetic(t *testing.T) {
	f, _ := analyzeSrc(t, `
int f(int *p) {
	return *(p + 1);
}`)
	bag := Analyze(f, "t.c")
	assert.False(t, bag.HasErrors())
}

func TestAnalyzeArrayDecay(t *testing.T) {
	f, _ := analyzeSrc(t, `
int f(void) {
	int a[5];
	int *p;
	p = a;
	return p[0];
}`)
	bag := Analyze(f, "t.c")
	assert.False(t, bag.HasErrors())
}

func TestAnalyzeConstAssignRejected(t *testing.T) {
	f, _ := analyzeSrc(t, `
int f(void) {
	const int x = 1;
	x = 2;
	return x;
}`)
	bag := Analyze(f, "t.c")
	assert.True(t, bag.HasErrors())
}

func TestAnalyzeRegisterAddressRejected(t *testing.T) {
	f, _ := analyzeSrc(t, `
int f(void) {
	register int x;
	int *p;
	p = &x;
	return *p;
}`)
	bag := Analyze(f, "t.c")
	assert.True(t, bag.HasErrors())
}

func TestAnalyzeDuplicateCaseRejected(t *testing.T) {
	f, _ := analyzeSrc(t, `
int f(int n) {
	switch (n) {
	case 1:
		return 1;
	case 1:
		return 2;
	}
	return 0;
}`)
	bag := Analyze(f, "t.c")
	assert.True(t, bag.HasErrors())
}

func TestAnalyzeBreakOutsideLoopRejected(t *testing.T) {
	f, _ := analyzeSrc(t, `
int f(void) {
	break;
	return 0;
}`)
	bag := Analyze(f, "t.c")
	assert.True(t, bag.HasErrors())
}

func TestAnalyzeUndeclaredGotoRejected(t *testing.T) {
	f, _ := analyzeSrc(t, `
int f(void) {
	goto nowhere;
	return 0;
}`)
	bag := Analyze(f, "t.c")
	assert.True(t, bag.HasErrors())
}

func TestAnalyzeStructMemberAccess(t *testing.T) {
	f, _ := analyzeSrc(t, `
struct point { int x; int y; };
int f(struct point *p) {
	return p->x + p->y;
}`)
	bag := Analyze(f, "t.c")
	assert.False(t, bag.HasErrors())
}

func TestFrameLayoutParamsAndLocals(t *testing.T) {
	f, _ := analyzeSrc(t, `
int f(int a, int b) {
	int x;
	int y;
	return a + b + x + y;
}`)
	bag := Analyze(f, "t.c")
	require.False(t, bag.HasErrors())

	fn := f.Decls[0].(*ast.FuncDecl)
	assert.Less(t, fn.Params[0].FrameOffset, 0)
	assert.Less(t, fn.Params[1].FrameOffset, fn.Params[0].FrameOffset)
	assert.Equal(t, 0, fn.FrameSize%16)

	localX := fn.Body.Items[0].(*ast.VarDecl)
	localY := fn.Body.Items[1].(*ast.VarDecl)
	assert.Less(t, localX.FrameOffset, 0)
	assert.Less(t, localY.FrameOffset, localX.FrameOffset)
}

func TestAnalyzeUndeclaredIdentifier(t *testing.T) {
	f, _ := analyzeSrc(t, `
int f(void) {
	return undefined_name;
}`)
	bag := Analyze(f, "t.c")
	assert.True(t, bag.HasErrors())
}

func TestAnalyzeSizeofConstant(t *testing.T) {
	f, _ := analyzeSrc(t, `
int f(void) {
	return sizeof(int);
}`)
	bag := Analyze(f, "t.c")
	assert.False(t, bag.HasErrors())
	fn := f.Decls[0].(*ast.FuncDecl)
	ret := fn.Body.Items[0].(*ast.ReturnStmt)
	assert.Equal(t, types.UnsignedLongType.String(), ret.X.ExprType().String())
}
