package lexer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onecoolx/aurac/internal/token"
)

func kinds(t *testing.T, toks []token.Token) []string {
	t.Helper()
	out := make([]string, 0, len(toks))
	for _, tok := range toks {
		out = append(out, tok.Lexeme)
	}
	return out
}

func TestTokenizeBasic(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want []string
	}{
		{"empty", "", []string{""}},
		{"decl", "int x;", []string{"int", "x", ";", ""}},
		{"ops_longest_match", "x <<= 1; y >> 2;",
			[]string{"x", "<<=", "1", ";", "y", ">>", "2", ";", ""}},
		{"comment_skip", "int x; // trailing\nint y;",
			[]string{"int", "x", ";", "int", "y", ";", ""}},
		{"block_comment", "int /* c */ x;", []string{"int", "x", ";", ""}},
		{"arrow_and_incdec", "p->x++; --y;",
			[]string{"p", "->", "x", "++", ";", "--", "y", ";", ""}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			toks, err := Tokenize(strings.NewReader(tc.src), "t.c")
			require.NoError(t, err)
			assert.Equal(t, tc.want, kinds(t, toks))
		})
	}
}

func TestTokenizeKeywordVsIdent(t *testing.T) {
	toks, err := Tokenize(strings.NewReader("int integer;"), "t.c")
	require.NoError(t, err)
	require.Len(t, toks, 4)
	assert.Equal(t, token.Keyword, toks[0].Kind)
	assert.Equal(t, token.Ident, toks[1].Kind)
}

func TestTokenizeIntegerSuffixes(t *testing.T) {
	cases := []struct {
		src    string
		value  uint64
		suffix token.IntSuffix
	}{
		{"123", 123, token.NoSuffix},
		{"0x1A", 0x1A, token.NoSuffix},
		{"010", 8, token.NoSuffix},
		{"123u", 123, token.SuffixU},
		{"123L", 123, token.SuffixL},
		{"123ul", 123, token.SuffixUL},
		{"123LU", 123, token.SuffixUL},
	}
	for _, tc := range cases {
		t.Run(tc.src, func(t *testing.T) {
			toks, err := Tokenize(strings.NewReader(tc.src), "t.c")
			require.NoError(t, err)
			require.Equal(t, token.IntLiteral, toks[0].Kind)
			assert.Equal(t, tc.value, toks[0].IntValue)
			assert.Equal(t, tc.suffix, toks[0].IntSuffix)
		})
	}
}

func TestTokenizeCharLiteralEscapes(t *testing.T) {
	cases := []struct {
		src  string
		want int64
	}{
		{`'a'`, 'a'},
		{`'\n'`, '\n'},
		{`'\0'`, 0},
		{`'\x41'`, 0x41},
		{`'\101'`, 0101},
	}
	for _, tc := range cases {
		t.Run(tc.src, func(t *testing.T) {
			toks, err := Tokenize(strings.NewReader(tc.src), "t.c")
			require.NoError(t, err)
			require.Equal(t, token.CharLiteral, toks[0].Kind)
			assert.Equal(t, tc.want, toks[0].CharValue)
		})
	}
}

func TestTokenizeStringLiteral(t *testing.T) {
	toks, err := Tokenize(strings.NewReader(`"hi\n\x41"`), "t.c")
	require.NoError(t, err)
	require.Equal(t, token.StringLiteral, toks[0].Kind)
	assert.Equal(t, []byte("hi\nA"), toks[0].StringValue)
}

func TestTokenizeErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"unterminated_block_comment", "/* never ends", "unterminated block comment"},
		{"unterminated_string", "\"oops", "unterminated string literal"},
		{"unterminated_char", "'a", "unterminated character literal"},
		{"stray_char", "int x $ y;", "unexpected character"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Tokenize(strings.NewReader(tc.src), "t.c")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestTokenizePositions(t *testing.T) {
	toks, err := Tokenize(strings.NewReader("int x;\nint y;"), "t.c")
	require.NoError(t, err)
	// "y" is on the second line.
	for _, tok := range toks {
		if tok.Lexeme == "y" {
			assert.Equal(t, 2, tok.Line)
		}
	}
}
