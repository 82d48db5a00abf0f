package ast

import (
	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/source"
)

type DeclKind uint8

const (
	DeclContract DeclKind = iota
	DeclStruct
	DeclEnum
	DeclError
	DeclEvent
	DeclFunction
	DeclModifier
	DeclVariable
	DeclImport
	DeclPragma
)

var declKindNames = [...]string{
	DeclContract: "contract",
	DeclStruct:   "struct",
	DeclEnum:     "enum",
	DeclError:    "error",
	DeclEvent:    "event",
	DeclFunction: "function",
	DeclModifier: "modifier",
	DeclVariable: "variable",
	DeclImport:   "import",
	DeclPragma:   "pragma",
}

func (k DeclKind) String() string {
	if int(k) < len(declKindNames) {
		return declKindNames[k]
	}
	return "unknown"
}

// ParseDeclKind is the inverse of DeclKind.String.
func ParseDeclKind(s string) (DeclKind, bool) {
	for k, name := range declKindNames {
		if name == s {
			return DeclKind(k), true
		}
	}
	return 0, false
}

// Decl is a named program entity. For imports Name holds the unit alias
// ("" when the import has none); for pragmas it holds the pragma identifier.
type Decl struct {
	Kind    DeclKind
	Name    string
	Span    source.Span
	Scope   Scope
	Refs    []RefID
	Members []DeclID
	Payload PayloadID
}

type ContractKind uint8

const (
	ContractPlain ContractKind = iota
	ContractInterface
	ContractLibrary
	ContractAbstract
)

var contractKindNames = [...]string{
	ContractPlain:     "contract",
	ContractInterface: "interface",
	ContractLibrary:   "library",
	ContractAbstract:  "abstract",
}

func (k ContractKind) String() string {
	if int(k) < len(contractKindNames) {
		return contractKindNames[k]
	}
	return "unknown"
}

func ParseContractKind(s string) (ContractKind, bool) {
	for k, name := range contractKindNames {
		if name == s {
			return ContractKind(k), true
		}
	}
	return 0, false
}

type ContractDecl struct {
	Kind ContractKind
	// Bases is the linearized ancestry, base to derived. A self entry is ignored.
	Bases []DeclID
}

type ImportSymbol struct {
	Foreign DeclID
	Local   string
}

type ImportDecl struct {
	Path    string
	Unit    UnitID
	Symbols []ImportSymbol
}

type PragmaDecl struct {
	Value string
}

type Decls struct {
	Arena     *Arena[Decl]
	Contracts *Arena[ContractDecl]
	Imports   *Arena[ImportDecl]
	Pragmas   *Arena[PragmaDecl]
}

// NewDecls creates the declaration arena with its per-kind payload arenas.
func NewDecls(capHint uint) *Decls {
	if capHint == 0 {
		capHint = 1 << 7
	}
	return &Decls{
		Arena:     NewArena[Decl](capHint),
		Contracts: NewArena[ContractDecl](capHint >> 2),
		Imports:   NewArena[ImportDecl](capHint >> 3),
		Pragmas:   NewArena[PragmaDecl](capHint >> 4),
	}
}

func (d *Decls) New(kind DeclKind, scope Scope, name string, sp source.Span, payload PayloadID) DeclID {
	return DeclID(d.Arena.Allocate(Decl{
		Kind:    kind,
		Name:    name,
		Span:    sp,
		Scope:   scope,
		Payload: payload,
	}))
}

func (d *Decls) Get(id DeclID) *Decl {
	return d.Arena.Get(uint32(id))
}

// Contract returns the contract payload for id, or nil/false if id is not a contract.
func (d *Decls) Contract(id DeclID) (*ContractDecl, bool) {
	decl := d.Get(id)
	if decl == nil || decl.Kind != DeclContract || !decl.Payload.IsValid() {
		return nil, false
	}
	return d.Contracts.Get(uint32(decl.Payload)), true
}

func (d *Decls) Import(id DeclID) (*ImportDecl, bool) {
	decl := d.Get(id)
	if decl == nil || decl.Kind != DeclImport || !decl.Payload.IsValid() {
		return nil, false
	}
	return d.Imports.Get(uint32(decl.Payload)), true
}

func (d *Decls) Pragma(id DeclID) (*PragmaDecl, bool) {
	decl := d.Get(id)
	if decl == nil || decl.Kind != DeclPragma || !decl.Payload.IsValid() {
		return nil, false
	}
	return d.Pragmas.Get(uint32(decl.Payload)), true
}

// IsVersionPragma reports whether id is a "pragma solidity" directive.
func (d *Decls) IsVersionPragma(id DeclID) bool {
	decl := d.Get(id)
	return decl != nil && decl.Kind == DeclPragma && decl.Name == "solidity"
}
