package testkit

import (
	"strings"
	"testing"

	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/ast"
	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/source"
)

func TestCheckFlattenedAcceptsCleanUnit(t *testing.T) {
	b := ast.NewBuilder(ast.Hints{})
	u := b.NewUnit("flat", "flat", source.Span{})
	c := b.NewContract(ast.UnitScope(u), "C", ast.ContractLibrary, source.Span{})
	f := b.NewDecl(ast.DeclFunction, ast.DeclScope(c), "f", source.Span{})
	run := b.NewDecl(ast.DeclFunction, ast.UnitScope(u), "run", source.Span{})
	base := b.NewRef(run, ast.RefIdent, "C", c, source.Span{})
	b.NewMemberRef(run, base, "f", f, source.Span{})

	if err := CheckFlattened(b, u, CaptureTargets(b, []ast.UnitID{u})); err != nil {
		t.Fatalf("CheckFlattened: %v", err)
	}
}

func TestCheckFlattenedRejectsDetachedBase(t *testing.T) {
	b := ast.NewBuilder(ast.Hints{})
	u := b.NewUnit("flat", "flat", source.Span{})
	c := b.NewContract(ast.UnitScope(u), "C", ast.ContractLibrary, source.Span{})
	f := b.NewDecl(ast.DeclFunction, ast.DeclScope(c), "f", source.Span{})
	run := b.NewDecl(ast.DeclFunction, ast.UnitScope(u), "run", source.Span{})
	base := b.NewRef(run, ast.RefIdent, "C", c, source.Span{})
	b.NewMemberRef(run, base, "f", f, source.Span{})
	b.Refs.Get(base).Detached = true

	err := CheckFlattened(b, u, nil)
	if err == nil {
		t.Fatalf("expected an error for a member access on a detached base")
	}
	if !strings.Contains(err.Error(), "based on detached") {
		t.Fatalf("unexpected error: %v", err)
	}
}
