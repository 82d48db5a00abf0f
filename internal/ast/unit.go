package ast

import "github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/source"

// Unit is one program unit: originally a source module, or the merged result.
type Unit struct {
	Name  string
	Path  string
	Span  source.Span
	Items []DeclID
	// Consumed is set once the unit's items were re-parented into a merged unit.
	Consumed bool
}

type Units struct {
	Arena *Arena[Unit]
}

func NewUnits(capHint uint) *Units {
	if capHint == 0 {
		capHint = 1 << 4
	}
	return &Units{Arena: NewArena[Unit](capHint)}
}

func (u *Units) New(name, path string, sp source.Span) UnitID {
	return UnitID(u.Arena.Allocate(Unit{Name: name, Path: path, Span: sp}))
}

func (u *Units) Get(id UnitID) *Unit {
	return u.Arena.Get(uint32(id))
}
