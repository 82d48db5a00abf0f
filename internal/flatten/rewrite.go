package flatten

import (
	"fmt"

	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/ast"
)

type RewriteStats struct {
	Rewritten int // references whose text changed
	Collapsed int // alias-qualified member accesses replaced by identifiers
}

// RewriteReferences fixes the text of every live reference in units so it
// still denotes its target once all units share one namespace. Member
// accesses through an import alias are replaced with direct identifiers
// built by f.
func RewriteReferences(b *ast.Builder, units []ast.UnitID, renamed RenameSet, f Factory) (RewriteStats, error) {
	var stats RewriteStats
	for _, uid := range units {
		for _, id := range b.UnitRefs(uid) {
			ref := b.Refs.Get(id)
			if ref.Detached || !ref.Target.IsValid() {
				continue
			}
			collapse := throughAlias(b, ref)
			target := b.Decls.Get(ref.Target)
			if target == nil {
				return stats, &InvariantError{Reason: fmt.Sprintf("ref#%d %q points at unknown decl#%d", id, ref.Name, ref.Target)}
			}
			if !collapse && !target.Scope.IsUnit() {
				continue
			}
			canonical, err := canonicalName(b, ref, ref.Target)
			if err != nil {
				return stats, err
			}

			if collapse {
				repl := f.MakeIdentifierFor(ref.Target, ref.Span)
				if err := b.Replace(id, repl); err != nil {
					return stats, fmt.Errorf("collapse ref#%d: %w", id, err)
				}
				if r := b.Refs.Get(repl); r.Name != canonical {
					r.Name = canonical
				}
				stats.Collapsed++
				continue
			}

			if !renameable(b, ref) {
				continue
			}
			if renamed.Has(ref.Target) || ref.Name != target.Name {
				if ref.Name != canonical {
					ref.Name = canonical
					stats.Rewritten++
				}
			}
		}
	}
	return stats, nil
}

// throughAlias reports whether ref is "<alias>.X" with alias bound to an import.
func throughAlias(b *ast.Builder, ref *ast.Ref) bool {
	if ref.Kind != ast.RefMember {
		return false
	}
	base := b.Refs.Get(ref.Base)
	if base == nil || base.Kind != ast.RefIdent {
		return false
	}
	d := b.Decls.Get(base.Target)
	return d != nil && d.Kind == ast.DeclImport
}

func renameable(b *ast.Builder, ref *ast.Ref) bool {
	switch ref.Kind {
	case ast.RefIdent:
		if ref.Name == "this" {
			if d := b.Decls.Get(ref.Target); d != nil && d.Kind == ast.DeclContract {
				return false
			}
		}
		return true
	case ast.RefPath:
		return true
	case ast.RefTypeName:
		return ref.Name != ""
	}
	return false
}

// canonicalName is the text a reference to target must carry once module
// boundaries are gone.
func canonicalName(b *ast.Builder, ref *ast.Ref, target ast.DeclID) (string, error) {
	d := b.Decls.Get(target)
	if d == nil {
		return "", &InvariantError{Decl: target, Reason: "unknown declaration"}
	}
	switch {
	case d.Kind == ast.DeclImport, d.Kind == ast.DeclContract:
		return d.Name, nil
	case d.Scope.IsUnit():
		return d.Name, nil
	case d.Scope.IsDecl():
		owner := b.Decls.Get(d.Scope.Decl)
		if owner != nil && owner.Kind == ast.DeclContract {
			if d.Kind == ast.DeclFunction && b.EnclosingContract(ref.Owner) == d.Scope.Decl {
				return d.Name, nil
			}
			return owner.Name + "." + d.Name, nil
		}
	}
	return "", invariant(b, target, "scope %s is neither a unit nor a contract", d.Scope)
}

// validateReferences runs the lookups of RewriteReferences without
// mutating anything, so a bad reference fails the merge up front.
func validateReferences(b *ast.Builder, units []ast.UnitID) error {
	for _, uid := range units {
		for _, id := range b.UnitRefs(uid) {
			ref := b.Refs.Get(id)
			if !ref.Target.IsValid() {
				continue
			}
			target := b.Decls.Get(ref.Target)
			if target == nil {
				return &InvariantError{Reason: fmt.Sprintf("ref#%d %q points at unknown decl#%d", id, ref.Name, ref.Target)}
			}
			if !target.Scope.Valid() {
				return invariant(b, ref.Target, "scope %s is malformed", target.Scope)
			}
			if !throughAlias(b, ref) && !target.Scope.IsUnit() {
				continue
			}
			if _, err := canonicalName(b, ref, ref.Target); err != nil {
				return err
			}
		}
	}
	return nil
}
