package astio

import (
	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/ast"
	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/source"
)

type encoder struct {
	b     *ast.Builder
	snap  *Snapshot
	units map[ast.UnitID]uint32
	decls map[ast.DeclID]uint32
	refs  map[ast.RefID]uint32
	order []ast.DeclID
}

// FromBuilder serializes units together with every declaration and live
// reference reachable from them. Ids are renumbered densely; links that
// leave the serialized set (bases, targets, imported units) become 0.
func FromBuilder(b *ast.Builder, units []ast.UnitID) *Snapshot {
	e := &encoder{
		b:     b,
		snap:  &Snapshot{Schema: SchemaVersion, Files: b.Files.Paths()},
		units: make(map[ast.UnitID]uint32),
		decls: make(map[ast.DeclID]uint32),
		refs:  make(map[ast.RefID]uint32),
	}
	for _, uid := range units {
		if u := b.Units.Get(uid); u != nil {
			e.units[uid] = uint32(len(e.units) + 1)
		}
	}
	// number declarations and references first so forward links resolve
	for _, uid := range units {
		b.WalkDecls(uid, func(id ast.DeclID, d *ast.Decl) bool {
			if _, seen := e.decls[id]; seen {
				return false
			}
			e.decls[id] = uint32(len(e.order) + 1)
			e.order = append(e.order, id)
			return true
		})
	}
	var refOrder []ast.RefID
	for _, id := range e.order {
		for _, r := range b.Decls.Get(id).Refs {
			if ref := b.Refs.Get(r); ref != nil && !ref.Detached {
				if _, seen := e.refs[r]; !seen {
					e.refs[r] = uint32(len(refOrder) + 1)
					refOrder = append(refOrder, r)
				}
			}
		}
	}

	for _, uid := range units {
		u := b.Units.Get(uid)
		if u == nil {
			continue
		}
		e.snap.Units = append(e.snap.Units, UnitRec{
			Name:  u.Name,
			Path:  u.Path,
			Src:   src(u.Span),
			Items: e.declList(u.Items),
		})
	}
	for _, id := range e.order {
		e.snap.Decls = append(e.snap.Decls, e.decl(id))
	}
	for _, id := range refOrder {
		r := b.Refs.Get(id)
		e.snap.Refs = append(e.snap.Refs, RefRec{
			Kind:   r.Kind.String(),
			Name:   r.Name,
			Src:    src(r.Span),
			Target: e.decls[r.Target],
			Base:   e.refs[r.Base],
			Owner:  e.decls[r.Owner],
		})
	}
	return e.snap
}

func (e *encoder) decl(id ast.DeclID) DeclRec {
	d := e.b.Decls.Get(id)
	rec := DeclRec{
		Kind:    d.Kind.String(),
		Name:    d.Name,
		Src:     src(d.Span),
		Members: e.declList(d.Members),
	}
	if d.Scope.IsUnit() {
		rec.Unit = e.units[d.Scope.Unit]
	} else {
		rec.Parent = e.decls[d.Scope.Decl]
	}
	for _, r := range d.Refs {
		if n, ok := e.refs[r]; ok {
			rec.Refs = append(rec.Refs, n)
		}
	}
	switch d.Kind {
	case ast.DeclContract:
		c, _ := e.b.Decls.Contract(id)
		rec.Contract = &ContractRec{Kind: c.Kind.String(), Bases: e.declList(c.Bases)}
	case ast.DeclImport:
		imp, _ := e.b.Decls.Import(id)
		ir := &ImportRec{Path: imp.Path, Unit: e.units[imp.Unit]}
		for _, s := range imp.Symbols {
			if n, ok := e.decls[s.Foreign]; ok {
				ir.Symbols = append(ir.Symbols, SymbolRec{Foreign: n, Local: s.Local})
			}
		}
		rec.Import = ir
	case ast.DeclPragma:
		if p, ok := e.b.Decls.Pragma(id); ok {
			rec.Pragma = p.Value
		}
	}
	return rec
}

func (e *encoder) declList(ids []ast.DeclID) []uint32 {
	var out []uint32
	for _, id := range ids {
		if n, ok := e.decls[id]; ok {
			out = append(out, n)
		}
	}
	return out
}

func src(sp source.Span) string {
	if sp == (source.Span{}) {
		return ""
	}
	return sp.Src()
}
