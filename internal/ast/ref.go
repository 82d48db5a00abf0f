package ast

import "github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/source"

type RefKind uint8

const (
	RefIdent RefKind = iota
	RefPath
	RefTypeName
	RefMember
)

var refKindNames = [...]string{
	RefIdent:    "ident",
	RefPath:     "path",
	RefTypeName: "type",
	RefMember:   "member",
}

func (k RefKind) String() string {
	if int(k) < len(refKindNames) {
		return refKindNames[k]
	}
	return "unknown"
}

func ParseRefKind(s string) (RefKind, bool) {
	for k, name := range refKindNames {
		if name == s {
			return RefKind(k), true
		}
	}
	return 0, false
}

// Ref is a site that denotes a declaration by name. For member accesses
// Name is the member name and Base the accessed expression, when that
// expression is itself a reference.
type Ref struct {
	Kind   RefKind
	Name   string
	Span   source.Span
	Target DeclID // NoDeclID for builtins and unresolved names
	Base   RefID
	Owner  DeclID
	// Detached marks a reference that was replaced and no longer occurs in the tree.
	Detached bool
}

type Refs struct {
	Arena *Arena[Ref]
}

func NewRefs(capHint uint) *Refs {
	if capHint == 0 {
		capHint = 1 << 8
	}
	return &Refs{Arena: NewArena[Ref](capHint)}
}

func (r *Refs) New(ref Ref) RefID {
	return RefID(r.Arena.Allocate(ref))
}

func (r *Refs) Get(id RefID) *Ref {
	return r.Arena.Get(uint32(id))
}
