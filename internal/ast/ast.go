// Package ast defines the abstract syntax tree produced by internal/parser
// and annotated by internal/sema (spec.md §3). Declarations, statements,
// and expressions are each a marker interface implemented by a concrete
// struct per node kind.
package ast

import (
	"github.com/onecoolx/aurac/internal/token"
	"github.com/onecoolx/aurac/internal/types"
)

// Pos is a source position: every node carries one.
type Pos struct {
	Line int
	Col  int
}

// File is the root of the AST: an ordered sequence of top-level
// declarations (spec.md §4.2).
type File struct {
	Decls []Decl
}

// StorageClass enumerates the storage-class specifiers of spec.md §3.
type StorageClass int

const (
	None StorageClass = iota
	Static
	Extern
	Auto
	Register
)

// Decl is any top-level or block-scope declaration.
type Decl interface {
	declNode()
	Position() Pos
}

// Stmt is any statement.
type Stmt interface {
	stmtNode()
	Position() Pos
}

// Expr is any expression. Type is nil until internal/sema annotates it;
// spec.md invariant (a) requires every expression in an annotated AST to
// have a non-nil Type.
type Expr interface {
	exprNode()
	Position() Pos
	ExprType() *types.Type
	SetExprType(*types.Type)
}

// exprBase factors the position/type bookkeeping shared by every Expr.
type exprBase struct {
	Pos Pos
	Typ *types.Type
}

func (e *exprBase) Position() Pos               { return e.Pos }
func (e *exprBase) ExprType() *types.Type        { return e.Typ }
func (e *exprBase) SetExprType(t *types.Type)    { e.Typ = t }

// ---------------------------------------------------------------------------
// Declarations
// ---------------------------------------------------------------------------

// VarDecl is a variable declaration: `[storage] [const] type name [= init];`
type VarDecl struct {
	Pos      Pos
	Name     string
	Type     *types.Type
	Init     Expr // nil if no initializer
	Storage  StorageClass
	IsGlobal bool

	// Filled in by internal/sema during frame layout (spec.md §4.3); zero
	// for globals, which are addressed by name instead.
	FrameOffset int

	// MangledName is set by internal/sema for a `static` local: its storage
	// is promoted to file scope, labeled "<function>.<name>" so two
	// functions' same-named statics don't collide (spec.md §4.5's backend
	// addresses it like any other global).
	MangledName string
}

func (d *VarDecl) declNode()       {}
func (d *VarDecl) Position() Pos   { return d.Pos }

// Param is one function parameter.
type Param struct {
	Pos  Pos
	Name string
	Type *types.Type

	FrameOffset int
}

// FuncDecl is a function prototype or definition. Body is nil for a
// prototype-only declaration.
type FuncDecl struct {
	Pos        Pos
	Name       string
	ReturnType *types.Type
	Params     []*Param
	Variadic   bool
	Body       *CompoundStmt // nil => prototype only
	Storage    StorageClass

	// Filled in by internal/sema (spec.md §4.3's frame layout).
	FrameSize int
}

func (d *FuncDecl) declNode()     {}
func (d *FuncDecl) Position() Pos { return d.Pos }

// RecordDecl is a struct or union declaration/reference.
type RecordDecl struct {
	Pos     Pos
	Tag     string
	IsUnion bool
	Members []*FieldDecl // nil for a forward reference
}

func (d *RecordDecl) declNode()     {}
func (d *RecordDecl) Position() Pos { return d.Pos }

// FieldDecl is one struct/union member.
type FieldDecl struct {
	Pos  Pos
	Name string
	Type *types.Type
}

// TypedefDecl introduces a type alias.
type TypedefDecl struct {
	Pos    Pos
	Name   string
	Target *types.Type
}

func (d *TypedefDecl) declNode()     {}
func (d *TypedefDecl) Position() Pos { return d.Pos }

// EnumDecl is an enum declaration with its ordered, evaluated enumerators.
type EnumDecl struct {
	Pos         Pos
	Tag         string
	Enumerators []Enumerator
}

// Enumerator is one `name [= constexpr]` entry in an enum.
type Enumerator struct {
	Pos   Pos
	Name  string
	Value int64
}

func (d *EnumDecl) declNode()     {}
func (d *EnumDecl) Position() Pos { return d.Pos }

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// CompoundStmt is a `{ ... }` block: an ordered list of items, each either a
// declaration or a statement, opening its own block scope (spec.md §3).
type CompoundStmt struct {
	Pos   Pos
	Items []Node // each is a Decl or a Stmt
}

func (s *CompoundStmt) stmtNode()     {}
func (s *CompoundStmt) Position() Pos { return s.Pos }

// Node is the union of Decl and Stmt, used for CompoundStmt.Items.
type Node interface {
	Position() Pos
}

// ExprStmt is an expression evaluated for effect.
type ExprStmt struct {
	Pos Pos
	X   Expr // nil for an empty statement ";"
}

func (s *ExprStmt) stmtNode()     {}
func (s *ExprStmt) Position() Pos { return s.Pos }

// IfStmt is `if (Cond) Then [else Else]`.
type IfStmt struct {
	Pos  Pos
	Cond Expr
	Then Stmt
	Else Stmt // nil if no else branch
}

func (s *IfStmt) stmtNode()     {}
func (s *IfStmt) Position() Pos { return s.Pos }

// WhileStmt is `while (Cond) Body`.
type WhileStmt struct {
	Pos  Pos
	Cond Expr
	Body Stmt
}

func (s *WhileStmt) stmtNode()     {}
func (s *WhileStmt) Position() Pos { return s.Pos }

// DoStmt is `do Body while (Cond);`.
type DoStmt struct {
	Pos  Pos
	Body Stmt
	Cond Expr
}

func (s *DoStmt) stmtNode()     {}
func (s *DoStmt) Position() Pos { return s.Pos }

// ForStmt is `for (Init; Cond; Post) Body`, with all three clauses optional.
type ForStmt struct {
	Pos  Pos
	Init Node // *VarDecl, *ExprStmt, or nil
	Cond Expr // nil => always true
	Post Expr // nil => no post-expression
	Body Stmt
}

func (s *ForStmt) stmtNode()     {}
func (s *ForStmt) Position() Pos { return s.Pos }

// SwitchStmt is `switch (Tag) Body`, where Body is a compound statement
// whose items may include *CaseStmt and *DefaultStmt labels.
type SwitchStmt struct {
	Pos  Pos
	Tag  Expr
	Body Stmt
}

func (s *SwitchStmt) stmtNode()     {}
func (s *SwitchStmt) Position() Pos { return s.Pos }

// CaseStmt is a `case ConstExpr:` label.
type CaseStmt struct {
	Pos   Pos
	Value int64 // folded integer constant (spec.md invariant (c))
}

func (s *CaseStmt) stmtNode()     {}
func (s *CaseStmt) Position() Pos { return s.Pos }

// DefaultStmt is a `default:` label.
type DefaultStmt struct {
	Pos Pos
}

func (s *DefaultStmt) stmtNode()     {}
func (s *DefaultStmt) Position() Pos { return s.Pos }

// BreakStmt is `break;`.
type BreakStmt struct{ Pos Pos }

func (s *BreakStmt) stmtNode()     {}
func (s *BreakStmt) Position() Pos { return s.Pos }

// ContinueStmt is `continue;`.
type ContinueStmt struct{ Pos Pos }

func (s *ContinueStmt) stmtNode()     {}
func (s *ContinueStmt) Position() Pos { return s.Pos }

// ReturnStmt is `return [X];`.
type ReturnStmt struct {
	Pos Pos
	X   Expr // nil for `return;`
}

func (s *ReturnStmt) stmtNode()     {}
func (s *ReturnStmt) Position() Pos { return s.Pos }

// GotoStmt is `goto Label;`.
type GotoStmt struct {
	Pos   Pos
	Label string
}

func (s *GotoStmt) stmtNode()     {}
func (s *GotoStmt) Position() Pos { return s.Pos }

// LabeledStmt is `Label: Stmt`.
type LabeledStmt struct {
	Pos   Pos
	Label string
	Stmt  Stmt
}

func (s *LabeledStmt) stmtNode()     {}
func (s *LabeledStmt) Position() Pos { return s.Pos }

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// IdentKind classifies what an Ident resolved to, so internal/ir can lower
// it without re-deriving internal/sema's scope walk.
type IdentKind int

const (
	IdentLocal     IdentKind = iota // function parameter or local; FrameOffset valid
	IdentGlobal                     // file-scope variable or function; GlobalName valid
	IdentEnumConst                  // replaced by EnumValue at lowering time
)

// Ident is an identifier reference, resolved to a symbol by internal/sema.
type Ident struct {
	exprBase
	Name string

	// Filled in by internal/sema's symbol lookup (spec.md §4.3).
	Kind        IdentKind
	FrameOffset int    // valid when Kind == IdentLocal
	GlobalName  string // valid when Kind == IdentGlobal (may differ from Name for mangled statics)
	EnumValue   int64  // valid when Kind == IdentEnumConst

	// DecaysToAddr is true when the symbol's own type (before the
	// expression-context decay of spec.md §4.3) is an array or function:
	// internal/ir must take its address rather than load through it.
	DecaysToAddr bool
}

func (e *Ident) exprNode() {}

// IntLit is an integer literal. Suffix records the u/l/ul spelling (if any),
// which participates in its promoted type (spec.md §4.1/§4.3).
type IntLit struct {
	exprBase
	Value  uint64
	Suffix token.IntSuffix
}

func (e *IntLit) exprNode() {}

// CharLit is a character literal; its value is the integer code of the
// single resulting byte (spec.md §3).
type CharLit struct {
	exprBase
	Value int64
}

func (e *CharLit) exprNode() {}

// StringLit is a string literal; at IR/codegen time its bytes live in the
// read-only data section and this node's value is the address of that blob.
type StringLit struct {
	exprBase
	Value []byte
}

func (e *StringLit) exprNode() {}

// BinaryOp is a binary operator expression, excluding comma (its own node).
type BinaryOp struct {
	exprBase
	Op    string
	Left  Expr
	Right Expr
}

func (e *BinaryOp) exprNode() {}

// UnaryOp is a unary operator: `+ - ! ~ * &`, plus pre/post `++`/`--`.
type UnaryOp struct {
	exprBase
	Op      string
	X       Expr
	Postfix bool // true for postfix ++/--
}

func (e *UnaryOp) exprNode() {}

// Assign is a plain or compound assignment (`=`, `+=`, ...).
type Assign struct {
	exprBase
	Op    string // "=" for plain assignment
	Left  Expr
	Right Expr
}

func (e *Assign) exprNode() {}

// Cond is the ternary conditional `C ? T : F`.
type Cond struct {
	exprBase
	Cond Expr
	Then Expr
	Else Expr
}

func (e *Cond) exprNode() {}

// Call is a function call.
type Call struct {
	exprBase
	Callee Expr
	Args   []Expr
}

func (e *Call) exprNode() {}

// Index is an array/pointer subscript `Base[Idx]`.
type Index struct {
	exprBase
	Base Expr
	Idx  Expr
}

func (e *Index) exprNode() {}

// Member is `.` or `->` member access.
type Member struct {
	exprBase
	Base   Expr
	Name   string
	Arrow  bool // true for `->`
}

func (e *Member) exprNode() {}

// Cast is an explicit `(T)X` cast.
type Cast struct {
	exprBase
	Target *types.Type
	X      Expr
}

func (e *Cast) exprNode() {}

// SizeofType is `sizeof(T)`.
type SizeofType struct {
	exprBase
	Target *types.Type
}

func (e *SizeofType) exprNode() {}

// SizeofExpr is `sizeof X`.
type SizeofExpr struct {
	exprBase
	X Expr
}

func (e *SizeofExpr) exprNode() {}

// Comma is the sequencing operator `A, B`.
type Comma struct {
	exprBase
	Left  Expr
	Right Expr
}

func (e *Comma) exprNode() {}
