package compiler

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testdataPath resolves one of the six end-to-end scenario files spec.md §8
// names. These are compiled and checked for the assembly shape each
// scenario's C semantics demand; they are never assembled, linked, or run
// (no `as`/`ld` invocation belongs in a unit test here).
func testdataPath(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join("..", "..", "testdata", name)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("missing testdata file %s: %v", path, err)
	}
	return path
}

func compileFile(t *testing.T, name string) *Result {
	t.Helper()
	path := testdataPath(t, name)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	result, bag, err := Compile(strings.NewReader(string(data)), name)
	if bag != nil {
		require.False(t, bag.HasErrors(), "%v", bag.Items())
	}
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func TestCompileFactorialRecursesAndCalls(t *testing.T) {
	r := compileFile(t, "factorial.c")
	assert.Contains(t, r.Asm, "fact:")
	assert.Contains(t, r.Asm, "call fact")
	assert.Contains(t, r.Asm, "imulq")
}

func TestCompilePointerIndexingScalesByElementSize(t *testing.T) {
	r := compileFile(t, "pointer_indexing.c")
	assert.Contains(t, r.Asm, "main:")
	assert.Contains(t, r.Asm, "imulq $4,")
}

func TestCompileStructMemberUsesByteOffsets(t *testing.T) {
	r := compileFile(t, "struct_member.c")
	assert.Contains(t, r.Asm, "4(%rax)")
}

func TestCompileSwitchFallthroughLaysOutCasesLinearly(t *testing.T) {
	r := compileFile(t, "switch_fallthrough.c")
	assert.True(t, strings.Count(r.Asm, "jnz") >= 3)
	assert.Contains(t, r.Asm, "jmp")
}

func TestCompileShortCircuitSkipsCallsViaJz(t *testing.T) {
	r := compileFile(t, "short_circuit.c")
	assert.Contains(t, r.Asm, "jz")
	assert.Contains(t, r.Asm, "jnz")
	assert.Contains(t, r.Asm, "call f")
}

func TestCompileUnsignedShiftUsesLogicalShift(t *testing.T) {
	r := compileFile(t, "unsigned_shift.c")
	assert.Contains(t, r.Asm, "shrq")
	assert.NotContains(t, r.Asm, "sarq")
}

func TestCompileEmptyTranslationUnitProducesEmptyAssembly(t *testing.T) {
	result, bag, err := Compile(strings.NewReader(""), "empty.c")
	if bag != nil {
		require.False(t, bag.HasErrors())
	}
	require.NoError(t, err)
	assert.Empty(t, result.Module.Functions)
	assert.Empty(t, result.Module.Globals)
	assert.Equal(t, "\t.section .note.GNU-stack,\"\",@progbits\n", result.Asm)
}
