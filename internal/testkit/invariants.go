package testkit

import (
	"errors"
	"fmt"
	"slices"

	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/ast"
)

// Targets records, per declaration, the targets of the references it holds.
type Targets map[ast.DeclID][]ast.DeclID

// CaptureTargets snapshots reference targets of units before a merge.
// Identifiers that only serve as the alias base of a member access are
// left out: the merge removes them together with the access.
func CaptureTargets(b *ast.Builder, units []ast.UnitID) Targets {
	out := make(Targets)
	for _, uid := range units {
		b.WalkDecls(uid, func(id ast.DeclID, d *ast.Decl) bool {
			if targets := liveTargets(b, d); len(targets) > 0 {
				out[id] = targets
			}
			return true
		})
	}
	return out
}

func liveTargets(b *ast.Builder, d *ast.Decl) []ast.DeclID {
	aliasBases := make(map[ast.RefID]struct{})
	for _, r := range d.Refs {
		ref := b.Refs.Get(r)
		if ref == nil || ref.Detached || ref.Kind != ast.RefMember {
			continue
		}
		if base := b.Refs.Get(ref.Base); base != nil && base.Kind == ast.RefIdent {
			if t := b.Decls.Get(base.Target); t != nil && t.Kind == ast.DeclImport {
				aliasBases[ref.Base] = struct{}{}
			}
		}
	}
	var targets []ast.DeclID
	for _, r := range d.Refs {
		ref := b.Refs.Get(r)
		if ref == nil || ref.Detached {
			continue
		}
		if _, skip := aliasBases[r]; skip {
			continue
		}
		targets = append(targets, ref.Target)
	}
	return targets
}

var namespaced = map[ast.DeclKind]bool{
	ast.DeclContract: true,
	ast.DeclStruct:   true,
	ast.DeclEnum:     true,
	ast.DeclError:    true,
	ast.DeclEvent:    true,
	ast.DeclFunction: true,
	ast.DeclVariable: true,
}

// CheckFlattened verifies a merged unit:
// 1) top-level names are unique
// 2) no imports or version pragmas remain
// 3) every contract comes after its bases that are part of the unit
// 4) every top-level declaration is scoped to merged
// 5) no member access goes through an import alias or a detached base
// 6) when before is non-nil, every declaration still refers to the same targets
func CheckFlattened(b *ast.Builder, merged ast.UnitID, before Targets) error {
	if b == nil {
		return fmt.Errorf("nil builder")
	}
	u := b.Units.Get(merged)
	if u == nil {
		return fmt.Errorf("unit#%d not found", merged)
	}

	var errs []error
	names := make(map[string]ast.DeclID)
	position := make(map[ast.DeclID]int, len(u.Items))
	for i, id := range u.Items {
		position[id] = i
	}

	for _, id := range u.Items {
		d := b.Decls.Get(id)
		if d == nil {
			errs = append(errs, fmt.Errorf("item decl#%d does not exist", id))
			continue
		}
		if namespaced[d.Kind] {
			if prev, dup := names[d.Name]; dup {
				errs = append(errs, fmt.Errorf("name %q declared by decl#%d and decl#%d", d.Name, prev, id))
			}
			names[d.Name] = id
		}
		if d.Kind == ast.DeclImport {
			errs = append(errs, fmt.Errorf("import decl#%d survived", id))
		}
		if b.Decls.IsVersionPragma(id) {
			errs = append(errs, fmt.Errorf("version pragma decl#%d survived", id))
		}
		if d.Scope != ast.UnitScope(merged) {
			errs = append(errs, fmt.Errorf("decl#%d %q has scope %s, want unit#%d", id, d.Name, d.Scope, merged))
		}
		if c, ok := b.Decls.Contract(id); ok {
			for _, base := range c.Bases {
				if p, in := position[base]; in && base != id && p > position[id] {
					errs = append(errs, fmt.Errorf("contract %q precedes its base %q", d.Name, b.Decls.Get(base).Name))
				}
			}
		}
	}

	b.WalkDecls(merged, func(id ast.DeclID, d *ast.Decl) bool {
		for _, r := range d.Refs {
			ref := b.Refs.Get(r)
			if ref == nil || ref.Detached || ref.Kind != ast.RefMember {
				continue
			}
			if base := b.Refs.Get(ref.Base); base != nil {
				if base.Detached {
					errs = append(errs, fmt.Errorf("ref#%d %q is based on detached ref#%d", r, ref.Name, ref.Base))
				}
				if t := b.Decls.Get(base.Target); t != nil && t.Kind == ast.DeclImport {
					errs = append(errs, fmt.Errorf("ref#%d %q still goes through import alias %q", r, ref.Name, base.Name))
				}
			}
		}
		if before != nil {
			if got := liveTargets(b, d); !slices.Equal(got, before[id]) {
				errs = append(errs, fmt.Errorf("decl#%d %q refers to %v, want %v", id, d.Name, got, before[id]))
			}
		}
		return true
	})

	return errors.Join(errs...)
}
