package ir

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onecoolx/aurac/internal/ast"
	"github.com/onecoolx/aurac/internal/lexer"
	"github.com/onecoolx/aurac/internal/parser"
	"github.com/onecoolx/aurac/internal/sema"
)

func lowerSrc(t *testing.T, src string) *Module {
	t.Helper()
	toks, err := lexer.Tokenize(strings.NewReader(src), "t.c")
	require.NoError(t, err)
	f, perrs := parser.Parse(toks, "t.c")
	require.Empty(t, perrs)
	bag := sema.Analyze(f, "t.c")
	require.False(t, bag.HasErrors(), "%v", bag)
	return Lower(f, "t.c")
}

func findFunc(t *testing.T, mod *Module, name string) *Func {
	t.Helper()
	for _, fn := range mod.Functions {
		if fn.Name == name {
			return fn
		}
	}
	t.Fatalf("no function %q in lowered module", name)
	return nil
}

func opSeq(fn *Func) []Op {
	ops := make([]Op, len(fn.Instrs))
	for i, ins := range fn.Instrs {
		ops[i] = ins.Op
	}
	return ops
}

func countOp(fn *Func, op Op) int {
	n := 0
	for _, ins := range fn.Instrs {
		if ins.Op == op {
			n++
		}
	}
	return n
}

func TestLowerArithmetic(t *testing.T) {
	mod := lowerSrc(t, `
int add(int a, int b) {
	return a + b;
}`)
	fn := findFunc(t, mod, "add")
	assert.True(t, fn.Exported)
	assert.Contains(t, opSeq(fn), BINOP)
	assert.Contains(t, opSeq(fn), RET)
}

func TestLowerConstantFold(t *testing.T) {
	mod := lowerSrc(t, `
int f(void) {
	return 2 + 3 * 4;
}`)
	fn := findFunc(t, mod, "f")
	require.Len(t, fn.Instrs, 1)
	assert.Equal(t, RET, fn.Instrs[0].Op)
	assert.Equal(t, "$14", fn.Instrs[0].Args[0])
}

func TestLowerPointerArithmeticScales(t *testing.T) {
	mod := lowerSrc(t, `
int *advance(int *p) {
	return p + 1;
}`)
	fn := findFunc(t, mod, "advance")
	var binops []Instr
	for _, ins := range fn.Instrs {
		if ins.Op == BINOP {
			binops = append(binops, ins)
		}
	}
	require.Len(t, binops, 2)
	assert.Equal(t, "*", binops[0].BinOp)
	assert.Equal(t, "$4", binops[0].Args[1])
	assert.Equal(t, "+", binops[1].BinOp)
}

func TestLowerLogicalAnd(t *testing.T) {
	mod := lowerSrc(t, `
int f(int a, int b) {
	return a && b;
}`)
	fn := findFunc(t, mod, "f")
	assert.Equal(t, 2, countOp(fn, JZ))
	assert.Equal(t, 2, countOp(fn, MOV))
}

func TestLowerLogicalOr(t *testing.T) {
	mod := lowerSrc(t, `
int f(int a, int b) {
	return a || b;
}`)
	fn := findFunc(t, mod, "f")
	assert.Equal(t, 2, countOp(fn, JNZ))
	assert.Equal(t, 2, countOp(fn, MOV))
}

func TestLowerTernary(t *testing.T) {
	mod := lowerSrc(t, `
int f(int a, int b, int c) {
	return a ? b : c;
}`)
	fn := findFunc(t, mod, "f")
	assert.Equal(t, 1, countOp(fn, JZ))
	assert.Equal(t, 2, countOp(fn, MOV))
}

func TestLowerSwitchCasesAndDefault(t *testing.T) {
	mod := lowerSrc(t, `
int f(int x) {
	switch (x) {
	case 1:
		return 10;
	case 2:
		return 20;
	default:
		return 0;
	}
	return -1;
}`)
	fn := findFunc(t, mod, "f")
	assert.Equal(t, 2, countOp(fn, JNZ))
	labels := countOp(fn, LABEL)
	assert.GreaterOrEqual(t, labels, 3)
}

func TestLowerStructMemberLoadStore(t *testing.T) {
	mod := lowerSrc(t, `
struct point { int x; int y; };
int getx(struct point *p) {
	return p->x;
}
void setx(struct point *p, int v) {
	p->x = v;
}`)
	getx := findFunc(t, mod, "getx")
	assert.Contains(t, opSeq(getx), LOAD_MEMBER)
	setx := findFunc(t, mod, "setx")
	assert.Contains(t, opSeq(setx), STORE_MEMBER)
}

func TestLowerArrayIndexLoadStore(t *testing.T) {
	mod := lowerSrc(t, `
int get(int a[10], int i) {
	return a[i];
}
void set(int a[10], int i, int v) {
	a[i] = v;
}`)
	get := findFunc(t, mod, "get")
	require.Contains(t, opSeq(get), LOAD_INDEX)
	set := findFunc(t, mod, "set")
	require.Contains(t, opSeq(set), STORE_INDEX)
}

func TestLowerCallWithArguments(t *testing.T) {
	mod := lowerSrc(t, `
int add(int a, int b);
int f(void) {
	return add(1, 2);
}`)
	fn := findFunc(t, mod, "f")
	assert.Equal(t, 2, countOp(fn, PARAM))
	assert.Equal(t, 1, countOp(fn, CALL))
	for _, ins := range fn.Instrs {
		if ins.Op == CALL {
			assert.Equal(t, "add", ins.Callee)
			assert.Equal(t, 2, ins.ArgCount)
		}
	}
}

func TestLowerStaticLocalMangling(t *testing.T) {
	mod := lowerSrc(t, `
int counter(void) {
	static int n = 0;
	return n++;
}`)
	require.Len(t, mod.Globals, 1)
	assert.Equal(t, "counter.n", mod.Globals[0].Name)
	assert.False(t, mod.Globals[0].Exported)
}

func TestLowerGlobalInitializerFolding(t *testing.T) {
	mod := lowerSrc(t, `
int limit = 10 * 10;
int zeroed;
`)
	var limit, zeroed *Global
	for _, g := range mod.Globals {
		switch g.Name {
		case "limit":
			limit = g
		case "zeroed":
			zeroed = g
		}
	}
	require.NotNil(t, limit)
	require.NotNil(t, zeroed)
	assert.Equal(t, []byte{100, 0, 0, 0}, limit.Init)
	assert.Nil(t, zeroed.Init)
	assert.True(t, limit.Exported)
}

func TestLowerStringLiteralInterning(t *testing.T) {
	mod := lowerSrc(t, `
char *a(void) { return "hi"; }
char *b(void) { return "hi"; }
`)
	assert.Len(t, mod.Strings, 1)
}
