// Package token defines the lexical tokens produced by internal/lexer and
// consumed by internal/parser.
package token

import "fmt"

// Kind classifies a Token.
type Kind int

const (
	Invalid Kind = iota
	EOF

	Ident
	IntLiteral
	CharLiteral
	StringLiteral

	Keyword
	Punct
)

func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case Ident:
		return "identifier"
	case IntLiteral:
		return "integer literal"
	case CharLiteral:
		return "character literal"
	case StringLiteral:
		return "string literal"
	case Keyword:
		return "keyword"
	case Punct:
		return "punctuator"
	default:
		return "invalid"
	}
}

// IntSuffix records the suffix (if any) on an integer literal, which
// determines its inferred type per spec.md §4.1.
type IntSuffix int

const (
	NoSuffix IntSuffix = iota
	SuffixU
	SuffixL
	SuffixUL
)

// Token is a single lexical token: a kind, the lexeme, and its source
// position. Tokens never mutate once produced.
type Token struct {
	Kind Kind
	// Lexeme is the exact source text for identifiers, keywords,
	// punctuators and integer literals. It is empty for character and
	// string literals; their decoded value is in CharValue/StringValue.
	Lexeme string
	Line   int
	Col    int

	// Populated for IntLiteral only.
	IntValue  uint64
	IntSuffix IntSuffix

	// Populated for CharLiteral only: the integer code of the byte value.
	CharValue int64

	// Populated for StringLiteral only: the decoded byte payload (escapes
	// resolved, NOT NUL-terminated — internal/codegen appends the
	// terminator when it emits the literal).
	StringValue []byte
}

func (t Token) String() string {
	switch t.Kind {
	case EOF:
		return "EOF"
	case StringLiteral:
		return fmt.Sprintf("%q", string(t.StringValue))
	default:
		return t.Lexeme
	}
}

// Keywords is the fixed keyword table for the C89 subset aurac accepts.
// Type-specifier keywords, storage-class keywords, and statement keywords
// are all in one flat set; the parser disambiguates by context.
var Keywords = map[string]bool{
	"auto": true, "break": true, "case": true, "char": true,
	"const": true, "continue": true, "default": true, "do": true,
	"double": true, "else": true, "enum": true, "extern": true,
	"float": true, "for": true, "goto": true, "if": true,
	"int": true, "long": true, "register": true, "return": true,
	"short": true, "signed": true, "sizeof": true, "static": true,
	"struct": true, "switch": true, "typedef": true, "union": true,
	"unsigned": true, "void": true, "volatile": true, "while": true,
}

// MultiCharOps lists multi-character operators/punctuators, longest first,
// so the lexer's longest-match scan never misclassifies a prefix (e.g.
// "<<=" must be tried before "<<" before "<").
var MultiCharOps = []string{
	"<<=", ">>=",
	"...",
	"->", "++", "--", "<<", ">>", "<=", ">=", "==", "!=",
	"&&", "||", "+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=",
}

// SingleCharOps is the set of single-character punctuators/operators.
var SingleCharOps = map[byte]bool{
	'+': true, '-': true, '*': true, '/': true, '%': true,
	'&': true, '|': true, '^': true, '~': true, '!': true,
	'<': true, '>': true, '=': true, '?': true, ':': true,
	'(': true, ')': true, '[': true, ']': true, '{': true, '}': true,
	';': true, ',': true, '.': true,
}
