// Package flatten merges program units into one unit without module
// boundaries: colliding top-level names get a "_k" suffix, references are
// rewritten to keep their targets, imports and version pragmas are dropped
// and contracts are ordered so every base precedes its derived contracts.
//
// The merge mutates the builder it works on. Merges over different
// builders may run concurrently; one builder must not be shared.
package flatten

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/ast"
	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/diag"
	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/source"
	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/trace"
)

// Factory creates the nodes the merge needs: the merged unit and the
// identifiers that replace alias-qualified accesses. *ast.Builder satisfies it.
type Factory interface {
	NewUnit(name, path string, sp source.Span) ast.UnitID
	MakeIdentifierFor(target ast.DeclID, sp source.Span) ast.RefID
}

type Options struct {
	// Factory defaults to the builder itself.
	Factory  Factory
	Reporter diag.Reporter
	// ReportRenames emits one info diagnostic per renamed declaration.
	ReportRenames bool
}

type Result struct {
	Unit      ast.UnitID
	Renamed   RenameSet
	Rewritten int
	Collapsed int
	Repaired  int
	Dropped   []ast.DeclID
	Pragmas   []VersionPragma
	Waves     [][]ast.DeclID
}

// Units merges units, in order, into a new unit called name. On error the
// inputs are left untouched and no unit is created.
func Units(ctx context.Context, b *ast.Builder, units []ast.UnitID, name string, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f := opts.Factory
	if f == nil {
		f = b
	}
	rep := opts.Reporter
	if rep == nil {
		rep = diag.NopReporter{}
	}

	ctx, span := trace.Start(ctx, trace.ScopePass, "flatten")
	span.WithExtra("units", strconv.Itoa(len(units)))
	outcome := "failed"
	defer func() { span.End(outcome) }()

	_, planSpan := trace.Start(ctx, trace.ScopePass, "plan")
	plan, err := PlanMerge(b, units, rep)
	if err == nil {
		err = validateReferences(b, units)
	}
	planSpan.End("")
	if err != nil {
		reportInvariant(b, rep, err)
		return nil, fmt.Errorf("flatten %q: %w", name, err)
	}

	_, sp := trace.Start(ctx, trace.ScopePass, "resolve_conflicts")
	renamed := ResolveConflicts(b, units)
	sp.WithExtra("renamed", strconv.Itoa(renamed.Len())).End("")

	_, sp = trace.Start(ctx, trace.ScopePass, "rewrite_references")
	stats, err := RewriteReferences(b, units, renamed, f)
	sp.WithExtra("rewritten", strconv.Itoa(stats.Rewritten)).
		WithExtra("collapsed", strconv.Itoa(stats.Collapsed)).
		End("")
	if err != nil {
		// validateReferences already ran the same checks
		reportInvariant(b, rep, err)
		return nil, fmt.Errorf("flatten %q: %w", name, err)
	}

	_, sp = trace.Start(ctx, trace.ScopePass, "assemble")
	merged := Assemble(b, plan, name, f)
	sp.WithExtra("items", strconv.Itoa(len(plan.Items))).End("")

	_, sp = trace.Start(ctx, trace.ScopePass, "repair_scopes")
	repaired := RepairScopes(b, merged)
	sp.End(strconv.Itoa(repaired))

	if opts.ReportRenames {
		for _, r := range renamed.List() {
			d := b.Decls.Get(r.Decl)
			diag.ReportInfo(rep, diag.FlatRenamed, d.Span,
				fmt.Sprintf("%s %q renamed to %q", d.Kind, r.From, r.To)).Emit()
		}
	}

	outcome = "ok"
	return &Result{
		Unit:      merged,
		Renamed:   renamed,
		Rewritten: stats.Rewritten,
		Collapsed: stats.Collapsed,
		Repaired:  repaired,
		Dropped:   plan.Dropped,
		Pragmas:   plan.Pragmas,
		Waves:     plan.Waves,
	}, nil
}

func reportInvariant(b *ast.Builder, rep diag.Reporter, err error) {
	var ierr *InvariantError
	if !errors.As(err, &ierr) {
		return
	}
	var sp source.Span
	if d := b.Decls.Get(ierr.Decl); d != nil {
		sp = d.Span
	}
	diag.ReportError(rep, diag.FlatInvariant, sp, ierr.Error()).Emit()
}
