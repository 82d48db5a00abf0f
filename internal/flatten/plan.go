package flatten

import (
	"fmt"
	"slices"

	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/ast"
	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/dag"
	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/diag"
	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/source"
)

// VersionPragma is a dropped "pragma solidity" directive.
type VersionPragma struct {
	Unit  ast.UnitID
	Decl  ast.DeclID
	Value string
	Span  source.Span
}

// Plan is the layout of a merged unit, computed without touching the inputs.
type Plan struct {
	Units []ast.UnitID
	// Items is the final item order: non-contracts as encountered, then contracts.
	Items     []ast.DeclID
	Contracts []ast.DeclID
	// Waves groups contracts by inheritance depth.
	Waves   [][]ast.DeclID
	Dropped []ast.DeclID
	Pragmas []VersionPragma
}

// PlanMerge checks the inputs and decides which items survive and in what
// order. Contracts follow a stable topological order over base -> derived
// edges. Bases outside the merged units produce a warning and no edge.
func PlanMerge(b *ast.Builder, units []ast.UnitID, rep diag.Reporter) (*Plan, error) {
	plan := &Plan{Units: slices.Clone(units)}
	seenUnit := make(map[ast.UnitID]struct{}, len(units))
	seenDecl := make(map[ast.DeclID]ast.UnitID)

	for _, uid := range units {
		u := b.Units.Get(uid)
		if u == nil {
			return nil, &InvariantError{Reason: fmt.Sprintf("unknown unit#%d", uid)}
		}
		if u.Consumed {
			return nil, &InvariantError{Reason: fmt.Sprintf("unit %q was already merged", u.Name)}
		}
		if _, dup := seenUnit[uid]; dup {
			return nil, &InvariantError{Reason: fmt.Sprintf("unit %q listed twice", u.Name)}
		}
		seenUnit[uid] = struct{}{}

		for _, id := range u.Items {
			d := b.Decls.Get(id)
			if d == nil {
				return nil, &InvariantError{Reason: fmt.Sprintf("unit %q lists unknown decl#%d", u.Name, id)}
			}
			if !d.Scope.IsUnit() {
				return nil, invariant(b, id, "top-level declaration has scope %s", d.Scope)
			}
			if prev, dup := seenDecl[id]; dup {
				return nil, invariant(b, id, "listed by unit#%d and unit#%d", prev, uid)
			}
			seenDecl[id] = uid

			switch {
			case d.Kind == ast.DeclImport:
				plan.Dropped = append(plan.Dropped, id)
			case b.Decls.IsVersionPragma(id):
				plan.Dropped = append(plan.Dropped, id)
				value := ""
				if p, ok := b.Decls.Pragma(id); ok {
					value = p.Value
				}
				plan.Pragmas = append(plan.Pragmas, VersionPragma{Unit: uid, Decl: id, Value: value, Span: d.Span})
			case d.Kind == ast.DeclContract:
				plan.Contracts = append(plan.Contracts, id)
			default:
				plan.Items = append(plan.Items, id)
			}
		}
	}

	sorted, waves, err := sortContracts(b, plan.Contracts, rep)
	if err != nil {
		return nil, err
	}
	plan.Contracts = sorted
	plan.Waves = waves
	plan.Items = append(plan.Items, sorted...)
	return plan, nil
}

func sortContracts(b *ast.Builder, contracts []ast.DeclID, rep diag.Reporter) ([]ast.DeclID, [][]ast.DeclID, error) {
	if len(contracts) == 0 {
		return nil, nil, nil
	}
	pos := make(map[ast.DeclID]dag.NodeID, len(contracts))
	for i, id := range contracts {
		pos[id] = dag.NodeID(i)
	}

	g := dag.NewGraph(len(contracts))
	for i, id := range contracts {
		c, ok := b.Decls.Contract(id)
		if !ok {
			return nil, nil, invariant(b, id, "contract has no contract payload")
		}
		for _, base := range c.Bases {
			if base == id {
				continue
			}
			from, ok := pos[base]
			if !ok {
				reportForeignBase(b, rep, id, base)
				continue
			}
			g.AddEdge(from, dag.NodeID(i))
		}
	}

	topo := dag.ToposortKahn(g)
	if topo.Cyclic {
		member := func(n dag.NodeID) CycleMember {
			id := contracts[n]
			return CycleMember{Decl: id, Name: b.Decls.Get(id).Name}
		}
		cerr := &CycleError{}
		for _, n := range topo.Cycles {
			cerr.Contracts = append(cerr.Contracts, member(n))
		}
		for _, n := range topo.Blocked {
			cerr.Blocked = append(cerr.Blocked, member(n))
		}
		reportCycle(b, rep, cerr)
		return nil, nil, cerr
	}

	order := make([]ast.DeclID, len(topo.Order))
	for i, n := range topo.Order {
		order[i] = contracts[n]
	}
	waves := make([][]ast.DeclID, len(topo.Batches))
	for i, batch := range topo.Batches {
		waves[i] = make([]ast.DeclID, len(batch))
		for j, n := range batch {
			waves[i][j] = contracts[n]
		}
	}
	return order, waves, nil
}

func reportForeignBase(b *ast.Builder, rep diag.Reporter, contract, base ast.DeclID) {
	d := b.Decls.Get(contract)
	bd := b.Decls.Get(base)
	if bd == nil {
		diag.ReportWarning(rep, diag.FlatForeignBase, d.Span,
			fmt.Sprintf("contract %q inherits from unknown decl#%d", d.Name, base)).Emit()
		return
	}
	diag.ReportWarning(rep, diag.FlatForeignBase, d.Span,
		fmt.Sprintf("contract %q inherits from %q, which is not part of the merged units", d.Name, bd.Name)).
		WithNote(bd.Span, "base declared here").
		Emit()
}

func reportCycle(b *ast.Builder, rep diag.Reporter, cerr *CycleError) {
	if len(cerr.Contracts) == 0 {
		return
	}
	first := b.Decls.Get(cerr.Contracts[0].Decl)
	rb := diag.ReportError(rep, diag.FlatInheritanceCycle, first.Span, cerr.Error())
	for _, c := range cerr.Contracts[1:] {
		rb.WithNote(b.Decls.Get(c.Decl).Span, fmt.Sprintf("%q is part of the cycle", c.Name))
	}
	for _, c := range cerr.Blocked {
		rb.WithNote(b.Decls.Get(c.Decl).Span, fmt.Sprintf("%q derives from the cycle", c.Name))
	}
	rb.Emit()
}

// Assemble builds the merged unit from plan and consumes the input units.
func Assemble(b *ast.Builder, plan *Plan, name string, f Factory) ast.UnitID {
	merged := f.NewUnit(name, name, source.Span{})
	b.Units.Get(merged).Items = slices.Clone(plan.Items)
	for _, uid := range plan.Units {
		if u := b.Units.Get(uid); u != nil && uid != merged {
			u.Items = nil
			u.Consumed = true
		}
	}
	return merged
}

// RepairScopes points every top-level declaration of merged at merged.
// Members keep their scopes. It returns the number of repaired declarations.
func RepairScopes(b *ast.Builder, merged ast.UnitID) int {
	u := b.Units.Get(merged)
	if u == nil {
		return 0
	}
	n := 0
	for _, id := range u.Items {
		d := b.Decls.Get(id)
		if d == nil || !d.Scope.IsUnit() || d.Scope.Unit == merged {
			continue
		}
		d.Scope = ast.UnitScope(merged)
		n++
	}
	return n
}
