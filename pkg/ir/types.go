// Package ir is the type & value model and IR builder: the Type and
// Value tuples, the per-module arenas backing their stable references,
// and a QBE-targeting instruction builder standing in for an
// LLVM-IRBuilder-style back-end contract.
package ir

// Base is the machine-level representation an operand is carried in at
// the backend. small-lang's only two widths map onto QBE's word (32-bit)
// and long (64-bit) base types; bool rides in a word, int and every
// pointer ride in a long.
type Base int

const (
	BW Base = iota // word: bool
	BL              // long: int, pointer, function pointer
)

func (b Base) String() string {
	if b == BW {
		return "w"
	}
	return "l"
}

// CallConv is the calling-convention tag a function signature carries.
// "fast" is the default small-lang convention; "c" is used for `cfn`
// declarations that must be callable from outside the module.
type CallConv int

const (
	CCFast CallConv = iota
	CCC
)

func (c CallConv) String() string {
	if c == CCC {
		return "c"
	}
	return "fast"
}

// TypeKind discriminates what shape of handle a Type carries.
type TypeKind int

const (
	KindInt TypeKind = iota
	KindBool
	KindPointer
	KindFunc
)

// Signature is the tuple (backend function-type, calling-convention tag,
// return type, argument types) a function-typed Type points to. Equal
// signatures compare structurally: equal return type, equal calling
// convention, equal-length equal argument lists.
type Signature struct {
	Return *Type
	CC     CallConv
	Params []*Type
}

func (s *Signature) Equal(o *Signature) bool {
	if s == o {
		return true
	}
	if s == nil || o == nil {
		return false
	}
	if s.CC != o.CC || !s.Return.Equal(o.Return) || len(s.Params) != len(o.Params) {
		return false
	}
	for i := range s.Params {
		if !s.Params[i].Equal(o.Params[i]) {
			return false
		}
	}
	return true
}

// Type is the tuple (backend-type-handle, optional pointee-type handle,
// optional function-signature handle). Pointee and Sig are stable
// references into the owning Module's arenas; copying a Type value does
// not copy those arenas. Exact equality of the backend handle is handle
// identity, which for the two scalar kinds means comparing Kind alone
// since there is exactly one Int and one Bool singleton per module.
type Type struct {
	Kind    TypeKind
	Base    Base
	Pointee *Type      // non-nil only when Kind == KindPointer
	Sig     *Signature // non-nil only when Kind == KindFunc
}

func (t *Type) Equal(o *Type) bool {
	if t == o {
		return true
	}
	if t == nil || o == nil || t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case KindInt, KindBool:
		return true
	case KindPointer:
		return t.Pointee.Equal(o.Pointee)
	case KindFunc:
		return t.Sig.Equal(o.Sig)
	}
	return false
}

func (t *Type) IsInteger() bool { return t.Kind == KindInt || t.Kind == KindBool }
func (t *Type) IsPointer() bool { return t.Kind == KindPointer }
func (t *Type) IsFunc() bool    { return t.Kind == KindFunc }

// Width returns the integer bit width backing an integer type: 1 for
// bool, 64 for int.
func (t *Type) Width() int {
	if t.Kind == KindBool {
		return 1
	}
	return 64
}

func (t *Type) String() string {
	switch t.Kind {
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindPointer:
		return "*" + t.Pointee.String()
	case KindFunc:
		return "fn(...)"
	}
	return "?"
}

// Module owns the per-compilation arenas: the singleton Int/Bool types,
// and the pointee-type and function-signature records that Type values
// reference. These grow monotonically and are freed as a whole at the
// end of the session.
type Module struct {
	IntType  *Type
	BoolType *Type

	pointerArena []*Type
	sigArena     []*Signature
}

func NewModule() *Module {
	return &Module{
		IntType:  &Type{Kind: KindInt, Base: BL},
		BoolType: &Type{Kind: KindBool, Base: BW},
	}
}

// PointerTo returns the (interned) pointer-to-elem type, minting a new
// arena entry only the first time a given pointee is requested.
func (m *Module) PointerTo(elem *Type) *Type {
	for _, t := range m.pointerArena {
		if t.Pointee.Equal(elem) {
			return t
		}
	}
	t := &Type{Kind: KindPointer, Base: BL, Pointee: elem}
	m.pointerArena = append(m.pointerArena, t)
	return t
}

// FuncType returns a function type for sig. The signature record is
// interned; the returned Type itself is freshly allocated on each call.
func (m *Module) FuncType(sig *Signature) *Type {
	for _, s := range m.sigArena {
		if s.Equal(sig) {
			return &Type{Kind: KindFunc, Base: BL, Sig: s}
		}
	}
	m.sigArena = append(m.sigArena, sig)
	return &Type{Kind: KindFunc, Base: BL, Sig: sig}
}

// DefaultIntType is named "int": declarations without an explicit type
// default to this 64-bit width, with no narrowing-by-default path.
func (m *Module) DefaultIntType() *Type { return m.IntType }

// LookupTypeName resolves the type names recognized in cast expressions:
// "int" and "bool". Parameter and return types do not go through it;
// they use DefaultIntType. Anything else is
// unrecognized and must surface as a semantic error at the call site.
func (m *Module) LookupTypeName(name string) (*Type, bool) {
	switch name {
	case "int":
		return m.IntType, true
	case "bool":
		return m.BoolType, true
	}
	return nil, false
}
