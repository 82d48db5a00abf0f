package ast

import "fmt"

// Scope is the owning container of a declaration: a unit for top-level
// declarations, a declaration for nested ones. Exactly one side is set.
type Scope struct {
	Unit UnitID
	Decl DeclID
}

func UnitScope(id UnitID) Scope { return Scope{Unit: id} }
func DeclScope(id DeclID) Scope { return Scope{Decl: id} }

func (s Scope) IsUnit() bool { return s.Unit.IsValid() && !s.Decl.IsValid() }
func (s Scope) IsDecl() bool { return s.Decl.IsValid() && !s.Unit.IsValid() }

// Valid reports whether exactly one owner is set.
func (s Scope) Valid() bool { return s.IsUnit() || s.IsDecl() }

func (s Scope) String() string {
	switch {
	case s.IsUnit():
		return fmt.Sprintf("unit#%d", s.Unit)
	case s.IsDecl():
		return fmt.Sprintf("decl#%d", s.Decl)
	default:
		return fmt.Sprintf("scope(unit#%d,decl#%d)", s.Unit, s.Decl)
	}
}
