// Package ir defines the three-address intermediate representation that
// sits between Pass S (internal/sema) and Pass C (internal/codegen): one
// instruction struct with an opcode and a handful of operand slots, plus
// per-function and per-module aggregates. Signedness and width live as
// typed Signed/Width fields on a single BINOP/LOAD/STORE opcode rather than
// baked into an opcode's string suffix (ADD.W, DIV.S, LOAD.BU, ...), since
// the backend needs to branch on them as values, not re-parse them out of
// a mnemonic.
package ir

// Op is an IR opcode.
type Op int

const (
	MOV Op = iota
	BINOP
	UNOP
	LOAD
	STORE
	LEA
	LOAD_INDEX
	STORE_INDEX
	LOAD_MEMBER
	STORE_MEMBER
	PARAM
	CALL
	RET
	LABEL
	JMP
	JZ
	JNZ
)

func (op Op) String() string {
	switch op {
	case MOV:
		return "MOV"
	case BINOP:
		return "BINOP"
	case UNOP:
		return "UNOP"
	case LOAD:
		return "LOAD"
	case STORE:
		return "STORE"
	case LEA:
		return "LEA"
	case LOAD_INDEX:
		return "LOAD_INDEX"
	case STORE_INDEX:
		return "STORE_INDEX"
	case LOAD_MEMBER:
		return "LOAD_MEMBER"
	case STORE_MEMBER:
		return "STORE_MEMBER"
	case PARAM:
		return "PARAM"
	case CALL:
		return "CALL"
	case RET:
		return "RET"
	case LABEL:
		return "LABEL"
	case JMP:
		return "JMP"
	case JZ:
		return "JZ"
	case JNZ:
		return "JNZ"
	default:
		return "?"
	}
}

// AddrForm disambiguates the three shapes of address a LEA instruction can
// compute (spec.md §4.4: "address of a local/global or array element",
// extended here to struct/union members the same way).
type AddrForm int

const (
	AddrName   AddrForm = iota // Args[0] is a symbolic local/global name
	AddrIndex                  // Args[0]=base pointer value, Args[1]=index value, scaled by ElemSize
	AddrMember                 // Args[0]=base address value, offset by Offset
)

// Instr is one IR instruction. Operand strings denote a virtual temporary
// ("t0", "t1", ...), a named local or global, or an immediate ("$123"
// following AT&T convention, chosen so it can never collide with a C
// identifier). Which fields are meaningful depends on Op:
//
//   - MOV:          Dest, Args[0]=src
//   - BINOP:        Dest, BinOp, Signed, Args[0]=a, Args[1]=b
//   - UNOP:         Dest, UnOp, Args[0]=a; UnOp "ext" also sets Signed/Width
//                   for a sign- or zero-extending widen
//   - LOAD:         Dest, Width, Signed (sign- vs zero-extend a sub-register
//                   load up to the full temp width), Args[0]=addr
//   - STORE:        Width, Args[0]=addr, Args[1]=src
//   - LEA:          Dest, Form (see AddrForm), Args/Offset/ElemSize per form
//   - LOAD_INDEX:   Dest, ElemSize, Width, Signed, Args[0]=base, Args[1]=idx
//   - STORE_INDEX:  ElemSize, Width, Args[0]=base, Args[1]=idx, Args[2]=src
//   - LOAD_MEMBER:  Dest, Offset, Width, Signed, Args[0]=base
//   - STORE_MEMBER: Offset, Width, Args[0]=base, Args[1]=src
//   - PARAM:        Args[0]=src
//   - CALL:         Dest (may be ""), Callee, ArgCount
//   - RET:          Args[0]=src (may be absent)
//   - LABEL:        Label
//   - JMP:          Target
//   - JZ, JNZ:      Target, Args[0]=cond
type Instr struct {
	Op       Op
	Dest     string
	Args     []string
	BinOp    string
	UnOp     string
	Signed   bool
	Width    int
	ElemSize int
	Offset   int
	Form     AddrForm // meaningful only when Op == LEA
	Callee   string
	ArgCount int
	Label    string
	Target   string
}

// Param is a function parameter as seen by the backend: its stack-frame
// offset, assigned by internal/sema, and its width in bytes.
type Param struct {
	Name   string
	Offset int
	Width  int
}

// Local is a function-local variable's backend-visible shape.
type Local struct {
	Name   string
	Offset int
	Width  int
}

// Func is one source function lowered to IR.
type Func struct {
	Name       string
	Exported   bool
	ReturnWidth int // 0 for void
	Params     []Param
	Locals     []Local
	FrameSize  int
	Instrs     []Instr
}

// Global is one file-scope variable.
type Global struct {
	Name     string
	Exported bool
	Size     int
	Align    int
	Init     []byte // nil for a zero-initialized (.bss) global

	// Reloc, if non-empty, names another global or string-literal label
	// whose address this global's slot holds, instead of Init bytes — the
	// lowering of `T *p = &other;` and `char *s = "literal";`.
	Reloc string
}

// StringLit is one string-literal constant promoted to the read-only
// section, keyed by its payload so identical literals share a label.
type StringLit struct {
	Label   string
	Payload []byte
}

// Module is the complete lowered translation unit, ready for
// internal/codegen.
type Module struct {
	SourceFile string
	Globals    []*Global
	Strings    []*StringLit
	Functions  []*Func
}
