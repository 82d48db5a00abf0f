package ast

import (
	"errors"
	"fmt"
	"slices"

	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/source"
)

type Hints struct{ Units, Decls, Refs uint }

// Builder owns every unit, declaration and reference of one program.
// It is not safe for concurrent use.
type Builder struct {
	Units *Units
	Decls *Decls
	Refs  *Refs
	Files *source.FileTable
}

func NewBuilder(hints Hints) *Builder {
	if hints.Units == 0 {
		hints.Units = 1 << 4
	}
	if hints.Decls == 0 {
		hints.Decls = 1 << 7
	}
	if hints.Refs == 0 {
		hints.Refs = 1 << 8
	}
	return &Builder{
		Units: NewUnits(hints.Units),
		Decls: NewDecls(hints.Decls),
		Refs:  NewRefs(hints.Refs),
		Files: source.NewFileTable(),
	}
}

var (
	ErrNoOwner       = errors.New("reference has no owner")
	ErrNotInOwner    = errors.New("reference does not occur in its owner")
	ErrAlreadyPlaced = errors.New("replacement reference already has an owner")
)

func (b *Builder) NewUnit(name, path string, sp source.Span) UnitID {
	return b.Units.New(name, path, sp)
}

// NewDecl creates a declaration and appends it to its container: the unit's
// items for unit scopes, the owner's members for declaration scopes.
func (b *Builder) NewDecl(kind DeclKind, scope Scope, name string, sp source.Span) DeclID {
	return b.place(b.Decls.New(kind, scope, name, sp, NoPayloadID))
}

func (b *Builder) NewContract(scope Scope, name string, kind ContractKind, sp source.Span) DeclID {
	payload := PayloadID(b.Decls.Contracts.Allocate(ContractDecl{Kind: kind}))
	return b.place(b.Decls.New(DeclContract, scope, name, sp, payload))
}

// SetBases records the linearized ancestry of a contract, base to derived.
func (b *Builder) SetBases(contract DeclID, bases ...DeclID) {
	c, ok := b.Decls.Contract(contract)
	if !ok {
		panic(fmt.Errorf("SetBases: decl#%d is not a contract", contract))
	}
	c.Bases = append(c.Bases[:0], bases...)
}

// NewImport creates an import of unit "imported". alias is "" for imports without one.
func (b *Builder) NewImport(unit UnitID, path, alias string, imported UnitID, sp source.Span, symbols ...ImportSymbol) DeclID {
	payload := PayloadID(b.Decls.Imports.Allocate(ImportDecl{
		Path:    path,
		Unit:    imported,
		Symbols: slices.Clone(symbols),
	}))
	return b.place(b.Decls.New(DeclImport, UnitScope(unit), alias, sp, payload))
}

func (b *Builder) NewPragma(unit UnitID, name, value string, sp source.Span) DeclID {
	payload := PayloadID(b.Decls.Pragmas.Allocate(PragmaDecl{Value: value}))
	return b.place(b.Decls.New(DeclPragma, UnitScope(unit), name, sp, payload))
}

func (b *Builder) place(id DeclID) DeclID {
	decl := b.Decls.Get(id)
	switch {
	case decl.Scope.IsUnit():
		if u := b.Units.Get(decl.Scope.Unit); u != nil {
			u.Items = append(u.Items, id)
		}
	case decl.Scope.IsDecl():
		if owner := b.Decls.Get(decl.Scope.Decl); owner != nil {
			owner.Members = append(owner.Members, id)
		}
	}
	return id
}

// NewRef creates a reference occurring inside owner.
func (b *Builder) NewRef(owner DeclID, kind RefKind, name string, target DeclID, sp source.Span) RefID {
	id := b.Refs.New(Ref{Kind: kind, Name: name, Span: sp, Target: target, Owner: owner})
	b.attach(owner, id)
	return id
}

// NewMemberRef creates a member access "<base>.member" inside owner.
func (b *Builder) NewMemberRef(owner DeclID, base RefID, member string, target DeclID, sp source.Span) RefID {
	id := b.Refs.New(Ref{Kind: RefMember, Name: member, Span: sp, Target: target, Base: base, Owner: owner})
	b.attach(owner, id)
	return id
}

func (b *Builder) attach(owner DeclID, ref RefID) {
	if d := b.Decls.Get(owner); d != nil {
		d.Refs = append(d.Refs, ref)
	}
}

// MakeIdentifierFor creates a detached-from-tree identifier bound to target,
// named after the target's current name. Replace puts it in place.
func (b *Builder) MakeIdentifierFor(target DeclID, sp source.Span) RefID {
	name := ""
	if d := b.Decls.Get(target); d != nil {
		name = d.Name
	}
	return b.Refs.New(Ref{Kind: RefIdent, Name: name, Span: sp, Target: target})
}

// Replace substitutes repl for old at old's position in its owner. old and
// its base reference are detached; live accesses built on old ("old.x")
// are re-based on repl.
func (b *Builder) Replace(old, repl RefID) error {
	o := b.Refs.Get(old)
	r := b.Refs.Get(repl)
	if o == nil || r == nil {
		return fmt.Errorf("replace ref#%d with ref#%d: unknown reference", old, repl)
	}
	if r.Owner.IsValid() {
		return fmt.Errorf("replace ref#%d with ref#%d: %w", old, repl, ErrAlreadyPlaced)
	}
	owner := b.Decls.Get(o.Owner)
	if owner == nil {
		return fmt.Errorf("replace ref#%d: %w", old, ErrNoOwner)
	}
	idx := slices.Index(owner.Refs, old)
	if idx < 0 {
		return fmt.Errorf("replace ref#%d in decl#%d: %w", old, o.Owner, ErrNotInOwner)
	}
	owner.Refs[idx] = repl
	r.Owner = o.Owner
	o.Detached = true
	for _, id := range owner.Refs {
		if ref := b.Refs.Get(id); ref != nil && !ref.Detached && ref.Base == old {
			ref.Base = repl
		}
	}
	if base := b.Refs.Get(o.Base); base != nil && base.Owner == o.Owner {
		if bi := slices.Index(owner.Refs, o.Base); bi >= 0 {
			owner.Refs = slices.Delete(owner.Refs, bi, bi+1)
		}
		base.Detached = true
	}
	return nil
}

// UnitOf follows scope links from decl up to its unit.
func (b *Builder) UnitOf(decl DeclID) UnitID {
	for steps := 0; decl.IsValid(); steps++ {
		d := b.Decls.Get(decl)
		if d == nil || steps > int(b.Decls.Arena.Len()) {
			return NoUnitID
		}
		if d.Scope.IsUnit() {
			return d.Scope.Unit
		}
		decl = d.Scope.Decl
	}
	return NoUnitID
}

// EnclosingContract returns the nearest contract containing decl, decl included.
func (b *Builder) EnclosingContract(decl DeclID) DeclID {
	for steps := 0; decl.IsValid(); steps++ {
		d := b.Decls.Get(decl)
		if d == nil || steps > int(b.Decls.Arena.Len()) {
			return NoDeclID
		}
		if d.Kind == DeclContract {
			return decl
		}
		if !d.Scope.IsDecl() {
			return NoDeclID
		}
		decl = d.Scope.Decl
	}
	return NoDeclID
}
