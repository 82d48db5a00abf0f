package flatten

import (
	"fmt"
	"slices"

	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/ast"
)

type Rename struct {
	Decl ast.DeclID
	From string
	To   string
}

// RenameSet is the immutable outcome of ResolveConflicts.
type RenameSet struct {
	index map[ast.DeclID]int
	list  []Rename
}

func (s RenameSet) Has(id ast.DeclID) bool {
	_, ok := s.index[id]
	return ok
}

func (s RenameSet) Len() int { return len(s.list) }

// List returns the renames in the order they were made.
func (s RenameSet) List() []Rename { return slices.Clone(s.list) }

// bucketed reports whether a top-level declaration takes part in the shared
// namespace. Imports only do through a non-empty alias.
func bucketed(d *ast.Decl) bool {
	switch d.Kind {
	case ast.DeclContract, ast.DeclStruct, ast.DeclEnum, ast.DeclError,
		ast.DeclEvent, ast.DeclFunction, ast.DeclVariable:
		return true
	case ast.DeclImport:
		return d.Name != ""
	}
	return false
}

// ResolveConflicts renames every top-level declaration whose name was
// already taken by an earlier one: the k-th repeat of "X" becomes "X_k".
// References are left alone.
func ResolveConflicts(b *ast.Builder, units []ast.UnitID) RenameSet {
	buckets := make(map[string][]ast.DeclID)
	var order []string
	for _, uid := range units {
		u := b.Units.Get(uid)
		if u == nil {
			continue
		}
		for _, id := range u.Items {
			d := b.Decls.Get(id)
			if d == nil || !bucketed(d) {
				continue
			}
			if _, seen := buckets[d.Name]; !seen {
				order = append(order, d.Name)
			}
			buckets[d.Name] = append(buckets[d.Name], id)
		}
	}

	set := RenameSet{index: make(map[ast.DeclID]int)}
	for _, name := range order {
		ids := buckets[name]
		for k := 1; k < len(ids); k++ {
			d := b.Decls.Get(ids[k])
			from := d.Name
			d.Name = fmt.Sprintf("%s_%d", from, k)
			set.index[ids[k]] = len(set.list)
			set.list = append(set.list, Rename{Decl: ids[k], From: from, To: d.Name})
		}
	}
	return set
}
