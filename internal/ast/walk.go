package ast

// WalkDecls visits the declarations of unit in pre-order: each item, then
// its members. Returning false from fn skips the members of that declaration.
func (b *Builder) WalkDecls(unit UnitID, fn func(id DeclID, d *Decl) bool) {
	u := b.Units.Get(unit)
	if u == nil {
		return
	}
	for _, id := range u.Items {
		b.walkDecl(id, fn, 0)
	}
}

func (b *Builder) walkDecl(id DeclID, fn func(DeclID, *Decl) bool, depth int) {
	d := b.Decls.Get(id)
	if d == nil || depth > maxDepth {
		return
	}
	if !fn(id, d) {
		return
	}
	for _, m := range d.Members {
		b.walkDecl(m, fn, depth+1)
	}
}

const maxDepth = 64

// UnitRefs returns the live references of unit in declaration order,
// members included. The slice is a snapshot: later replacements do not
// change it.
func (b *Builder) UnitRefs(unit UnitID) []RefID {
	var out []RefID
	b.WalkDecls(unit, func(_ DeclID, d *Decl) bool {
		for _, r := range d.Refs {
			if ref := b.Refs.Get(r); ref != nil && !ref.Detached {
				out = append(out, r)
			}
		}
		return true
	})
	return out
}

// LiveRefs counts the non-detached references reachable from unit.
func (b *Builder) LiveRefs(unit UnitID) int {
	return len(b.UnitRefs(unit))
}
