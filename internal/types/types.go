// Package types implements aurac's type system (spec.md §3): integer types
// with promotions, pointers, arrays, function types, struct/union layouts,
// typedefs, and the const qualifier.
package types

import "fmt"

// Kind discriminates the type tags of spec.md §3.
type Kind int

const (
	Invalid Kind = iota
	Void
	Integer
	Pointer
	Array
	Function
	Struct
	Union
	Typedef
)

// IntKind enumerates the eight integer types: {signed,unsigned} x
// {char,short,int,long}.
type IntKind int

const (
	Char IntKind = iota
	Short
	Int
	Long
)

// Width returns the integer kind's width in bytes.
func (k IntKind) Width() int {
	switch k {
	case Char:
		return 1
	case Short:
		return 2
	case Int:
		return 4
	case Long:
		return 8
	default:
		return 0
	}
}

func (k IntKind) String() string {
	switch k {
	case Char:
		return "char"
	case Short:
		return "short"
	case Int:
		return "int"
	case Long:
		return "long"
	default:
		return "<invalid int kind>"
	}
}

// Type is a tagged union over the type kinds in spec.md §3. Fields are
// populated according to Kind.
type Type struct {
	Kind     Kind
	Const    bool

	// Kind == Integer
	IntKind  IntKind
	Unsigned bool

	// Kind == Pointer
	Pointee *Type

	// Kind == Array
	Elem       *Type
	Len        int  // element count
	Incomplete bool // true when size is unknown ("T x[]")

	// Kind == Function
	Return   *Type
	Params   []*Type
	Variadic bool

	// Kind == Struct / Union
	Tag    string
	Layout *Layout // nil until the tag's definition has been seen

	// Kind == Typedef
	Name   string
	Target *Type
}

// Field is one member of a struct/union layout.
type Field struct {
	Name   string
	Type   *Type
	Offset int
}

// Layout is a struct/union's computed member list, size, and alignment
// (spec.md §3's "Struct/union layout").
type Layout struct {
	IsUnion bool
	Fields  []Field
	Size    int
	Align   int
}

// FieldByName looks up a member by name, returning (field, true) or
// (zero, false).
func (l *Layout) FieldByName(name string) (Field, bool) {
	for _, f := range l.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Convenience constructors, following yparse's NewPointerType/NewArrayType.

func NewInt(kind IntKind, unsigned bool) *Type {
	return &Type{Kind: Integer, IntKind: kind, Unsigned: unsigned}
}

func NewPointer(pointee *Type) *Type {
	return &Type{Kind: Pointer, Pointee: pointee}
}

func NewArray(elem *Type, length int) *Type {
	return &Type{Kind: Array, Elem: elem, Len: length}
}

func NewIncompleteArray(elem *Type) *Type {
	return &Type{Kind: Array, Elem: elem, Incomplete: true}
}

func NewFunction(ret *Type, params []*Type, variadic bool) *Type {
	return &Type{Kind: Function, Return: ret, Params: params, Variadic: variadic}
}

func NewStruct(tag string) *Type  { return &Type{Kind: Struct, Tag: tag} }
func NewUnion(tag string) *Type   { return &Type{Kind: Union, Tag: tag} }
func NewTypedef(name string, target *Type) *Type {
	return &Type{Kind: Typedef, Name: name, Target: target}
}

var VoidType = &Type{Kind: Void}

var (
	CharType          = NewInt(Char, false)
	UnsignedCharType  = NewInt(Char, true)
	ShortType         = NewInt(Short, false)
	UnsignedShortType = NewInt(Short, true)
	IntType           = NewInt(Int, false)
	UnsignedIntType   = NewInt(Int, true)
	LongType          = NewInt(Long, false)
	UnsignedLongType  = NewInt(Long, true)
)

// Resolve follows typedef chains to the underlying non-typedef type.
func Resolve(t *Type) *Type {
	for t != nil && t.Kind == Typedef {
		t = t.Target
	}
	return t
}

// IsIntegral reports whether t (after resolving typedefs) is an integer type.
func IsIntegral(t *Type) bool {
	t = Resolve(t)
	return t != nil && t.Kind == Integer
}

// IsPointer reports whether t (after resolving typedefs) is a pointer type.
func IsPointer(t *Type) bool {
	t = Resolve(t)
	return t != nil && t.Kind == Pointer
}

// IsArray reports whether t (after resolving typedefs) is an array type.
func IsArray(t *Type) bool {
	t = Resolve(t)
	return t != nil && t.Kind == Array
}

// IsAggregate reports whether t (after resolving typedefs) is a struct or
// union type.
func IsAggregate(t *Type) bool {
	t = Resolve(t)
	return t != nil && (t.Kind == Struct || t.Kind == Union)
}

// IsVoid reports whether t (after resolving typedefs) is void.
func IsVoid(t *Type) bool {
	t = Resolve(t)
	return t != nil && t.Kind == Void
}

// Size returns the type's size in bytes, or -1 if it cannot be determined
// (an incomplete array, or a struct/union tag with no layout yet).
func Size(t *Type) int {
	t = Resolve(t)
	if t == nil {
		return -1
	}
	switch t.Kind {
	case Void:
		return 0
	case Integer:
		return t.IntKind.Width()
	case Pointer:
		return 8
	case Array:
		if t.Incomplete {
			return -1
		}
		elemSize := Size(t.Elem)
		if elemSize < 0 {
			return -1
		}
		return elemSize * t.Len
	case Struct, Union:
		if t.Layout == nil {
			return -1
		}
		return t.Layout.Size
	default:
		return -1
	}
}

// Alignment returns the type's natural alignment in bytes (spec.md §3:
// 1/2/4/8 for char/short/int/long-or-pointer; arrays take their element's
// alignment; struct/union take their computed layout alignment).
func Alignment(t *Type) int {
	t = Resolve(t)
	if t == nil {
		return 1
	}
	switch t.Kind {
	case Void:
		return 1
	case Integer:
		return t.IntKind.Width()
	case Pointer:
		return 8
	case Array:
		return Alignment(t.Elem)
	case Struct, Union:
		if t.Layout == nil {
			return 1
		}
		return t.Layout.Align
	default:
		return 1
	}
}

// Equal reports structural equality after resolving typedefs, per spec.md §3.
func Equal(a, b *Type) bool {
	a, b = Resolve(a), Resolve(b)
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case Void:
		return true
	case Integer:
		return a.IntKind == b.IntKind && a.Unsigned == b.Unsigned
	case Pointer:
		return Equal(a.Pointee, b.Pointee)
	case Array:
		return a.Len == b.Len && a.Incomplete == b.Incomplete && Equal(a.Elem, b.Elem)
	case Function:
		if a.Variadic != b.Variadic || len(a.Params) != len(b.Params) || !Equal(a.Return, b.Return) {
			return false
		}
		for i := range a.Params {
			if !Equal(a.Params[i], b.Params[i]) {
				return false
			}
		}
		return true
	case Struct, Union:
		return a.Tag == b.Tag
	default:
		return false
	}
}

func (t *Type) String() string {
	if t == nil {
		return "<nil type>"
	}
	prefix := ""
	if t.Const {
		prefix = "const "
	}
	switch t.Kind {
	case Void:
		return prefix + "void"
	case Integer:
		sign := ""
		if t.Unsigned {
			sign = "unsigned "
		}
		return prefix + sign + t.IntKind.String()
	case Pointer:
		return prefix + t.Pointee.String() + "*"
	case Array:
		if t.Incomplete {
			return fmt.Sprintf("%s%s[]", prefix, t.Elem.String())
		}
		return fmt.Sprintf("%s%s[%d]", prefix, t.Elem.String(), t.Len)
	case Function:
		return fmt.Sprintf("%s(...) -> %s", prefix, t.Return.String())
	case Struct:
		return prefix + "struct " + t.Tag
	case Union:
		return prefix + "union " + t.Tag
	case Typedef:
		return prefix + t.Name
	default:
		return "<invalid type>"
	}
}

// WithConst returns a copy of t with the Const flag set.
func WithConst(t *Type) *Type {
	if t == nil {
		return nil
	}
	cp := *t
	cp.Const = true
	return &cp
}

// ComputeLayout computes a struct/union layout from an ordered member list,
// per spec.md §3: natural alignment per member, size rounded up to the
// largest member's alignment for structs; all members at offset 0 for
// unions, size = max member size, alignment = max member alignment.
func ComputeLayout(isUnion bool, members []Field) *Layout {
	layout := &Layout{IsUnion: isUnion}
	maxAlign := 1
	offset := 0
	for _, m := range members {
		align := Alignment(m.Type)
		size := Size(m.Type)
		if align > maxAlign {
			maxAlign = align
		}
		if isUnion {
			m.Offset = 0
			if size > layout.Size {
				layout.Size = size
			}
		} else {
			offset = alignUp(offset, align)
			m.Offset = offset
			offset += size
		}
		layout.Fields = append(layout.Fields, m)
	}
	if !isUnion {
		layout.Size = alignUp(offset, maxAlign)
	}
	layout.Align = maxAlign
	return layout
}

func alignUp(v, align int) int {
	if align <= 1 {
		return v
	}
	return (v + align - 1) / align * align
}

// Rank orders integer kinds for the usual arithmetic conversions
// (spec.md §4.3): char < short < int < long.
func (k IntKind) Rank() int { return int(k) }
