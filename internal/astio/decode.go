package astio

import (
	"errors"
	"fmt"

	"golang.org/x/text/unicode/norm"

	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/ast"
	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/diag"
	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/source"
)

var ErrInvalid = errors.New("invalid snapshot")

type checker struct {
	rep    diag.Reporter
	origin string
	errs   int
}

func (c *checker) fail(code diag.Code, format string, args ...any) {
	c.errs++
	diag.ReportError(c.rep, code, source.Span{}, c.origin+": "+fmt.Sprintf(format, args...)).Emit()
}

func (c *checker) warn(code diag.Code, format string, args ...any) {
	diag.ReportWarning(c.rep, code, source.Span{}, c.origin+": "+fmt.Sprintf(format, args...)).Emit()
}

func inRange[T any](id uint32, list []T) bool {
	return id >= 1 && int(id) <= len(list)
}

func (c *checker) span(what, src string) source.Span {
	if src == "" {
		return source.Span{}
	}
	sp, err := source.ParseSrc(src)
	if err != nil {
		c.fail(diag.SnapBadSpan, "%s: %v", what, err)
	}
	return sp
}

func (c *checker) name(what, s string) string {
	n := norm.NFC.String(s)
	if n != s {
		c.warn(diag.SnapNameNotNFC, "%s %q normalized to NFC", what, s)
	}
	return n
}

// Build validates snap and rebuilds the program it describes. Every
// problem is reported to rep; when at least one is an error no builder is
// returned. origin names the snapshot in messages.
func Build(snap *Snapshot, origin string, rep diag.Reporter) (*ast.Builder, []ast.UnitID, error) {
	if rep == nil {
		rep = diag.NopReporter{}
	}
	c := &checker{rep: rep, origin: origin}
	if snap.Schema != SchemaVersion {
		c.fail(diag.SnapSchemaMismatch, "schema %d, want %d", snap.Schema, SchemaVersion)
		return nil, nil, fmt.Errorf("%s: %w: schema %d", origin, ErrInvalid, snap.Schema)
	}
	c.validate(snap)
	if c.errs > 0 {
		return nil, nil, fmt.Errorf("%s: %w (%d problems)", origin, ErrInvalid, c.errs)
	}

	b := ast.NewBuilder(ast.Hints{
		Units: uint(len(snap.Units)),
		Decls: uint(len(snap.Decls)),
		Refs:  uint(len(snap.Refs)),
	})
	for _, p := range snap.Files {
		b.Files.Add(p)
	}

	units := make([]ast.UnitID, len(snap.Units))
	for i, u := range snap.Units {
		units[i] = b.Units.New(c.name("unit", u.Name), u.Path, c.span("unit "+u.Name, u.Src))
	}

	for i := range snap.Decls {
		d := &snap.Decls[i]
		kind, _ := ast.ParseDeclKind(d.Kind)
		var payload ast.PayloadID
		switch kind {
		case ast.DeclContract:
			cd := ast.ContractDecl{}
			if d.Contract != nil {
				cd.Kind, _ = ast.ParseContractKind(d.Contract.Kind)
				cd.Bases = declIDs(d.Contract.Bases)
			}
			payload = ast.PayloadID(b.Decls.Contracts.Allocate(cd))
		case ast.DeclImport:
			imp := ast.ImportDecl{Path: d.Import.Path, Unit: ast.UnitID(d.Import.Unit)}
			for _, s := range d.Import.Symbols {
				imp.Symbols = append(imp.Symbols, ast.ImportSymbol{Foreign: ast.DeclID(s.Foreign), Local: s.Local})
			}
			payload = ast.PayloadID(b.Decls.Imports.Allocate(imp))
		case ast.DeclPragma:
			payload = ast.PayloadID(b.Decls.Pragmas.Allocate(ast.PragmaDecl{Value: d.Pragma}))
		}
		scope := ast.DeclScope(ast.DeclID(d.Parent))
		if d.Unit != 0 {
			scope = ast.UnitScope(ast.UnitID(d.Unit))
		}
		id := b.Decls.New(kind, scope, c.name(kind.String(), d.Name), c.span(d.Kind+" "+d.Name, d.Src), payload)
		decl := b.Decls.Get(id)
		decl.Members = declIDs(d.Members)
		decl.Refs = refIDs(d.Refs)
	}

	for _, r := range snap.Refs {
		kind, _ := ast.ParseRefKind(r.Kind)
		b.Refs.New(ast.Ref{
			Kind:     kind,
			Name:     c.name("reference", r.Name),
			Span:     c.span("reference "+r.Name, r.Src),
			Target:   ast.DeclID(r.Target),
			Base:     ast.RefID(r.Base),
			Owner:    ast.DeclID(r.Owner),
			Detached: r.Detached,
		})
	}

	for i, u := range snap.Units {
		b.Units.Get(units[i]).Items = declIDs(u.Items)
	}
	return b, units, nil
}

func declIDs(ids []uint32) []ast.DeclID {
	if len(ids) == 0 {
		return nil
	}
	out := make([]ast.DeclID, len(ids))
	for i, id := range ids {
		out[i] = ast.DeclID(id)
	}
	return out
}

func refIDs(ids []uint32) []ast.RefID {
	if len(ids) == 0 {
		return nil
	}
	out := make([]ast.RefID, len(ids))
	for i, id := range ids {
		out[i] = ast.RefID(id)
	}
	return out
}

func (c *checker) validate(snap *Snapshot) {
	files := make(map[string]struct{}, len(snap.Files))
	for _, p := range snap.Files {
		if _, dup := files[p]; dup {
			c.fail(diag.SnapDuplicateItem, "file %q listed twice", p)
		}
		files[p] = struct{}{}
	}

	for i := range snap.Decls {
		c.validateDecl(snap, uint32(i+1))
	}

	placed := make(map[uint32]string)
	for ui, u := range snap.Units {
		c.span(fmt.Sprintf("unit %q", u.Name), u.Src)
		for _, id := range u.Items {
			if !inRange(id, snap.Decls) {
				c.fail(diag.SnapBadID, "unit %q lists unknown decl#%d", u.Name, id)
				continue
			}
			if prev, dup := placed[id]; dup {
				c.fail(diag.SnapDuplicateItem, "decl#%d listed by %s and unit %q", id, prev, u.Name)
				continue
			}
			placed[id] = fmt.Sprintf("unit %q", u.Name)
			if d := snap.Decls[id-1]; d.Unit != uint32(ui+1) {
				c.fail(diag.SnapBadScope, "decl#%d %q listed by unit %q but scoped to unit#%d", id, d.Name, u.Name, d.Unit)
			}
		}
	}
	for i, d := range snap.Decls {
		for _, m := range d.Members {
			if !inRange(m, snap.Decls) {
				continue
			}
			if prev, dup := placed[m]; dup {
				c.fail(diag.SnapDuplicateItem, "decl#%d listed by %s and decl#%d", m, prev, i+1)
				continue
			}
			placed[m] = fmt.Sprintf("decl#%d", i+1)
		}
	}

	for i, r := range snap.Refs {
		id := uint32(i + 1)
		if _, ok := ast.ParseRefKind(r.Kind); !ok {
			c.fail(diag.SnapBadKind, "ref#%d has unknown kind %q", id, r.Kind)
		}
		if r.Target != 0 && !inRange(r.Target, snap.Decls) {
			c.fail(diag.SnapBadID, "ref#%d %q targets unknown decl#%d", id, r.Name, r.Target)
		}
		if r.Base != 0 && (!inRange(r.Base, snap.Refs) || r.Base == id) {
			c.fail(diag.SnapBadID, "ref#%d %q has bad base ref#%d", id, r.Name, r.Base)
		}
		if !inRange(r.Owner, snap.Decls) {
			c.fail(diag.SnapBadID, "ref#%d %q has unknown owner decl#%d", id, r.Name, r.Owner)
		}
		c.span(fmt.Sprintf("ref#%d", id), r.Src)
	}
}

func (c *checker) validateDecl(snap *Snapshot, id uint32) {
	d := snap.Decls[id-1]
	kind, ok := ast.ParseDeclKind(d.Kind)
	if !ok {
		c.fail(diag.SnapBadKind, "decl#%d %q has unknown kind %q", id, d.Name, d.Kind)
	}
	c.span(fmt.Sprintf("decl#%d", id), d.Src)

	switch {
	case d.Unit != 0 && d.Parent != 0, d.Unit == 0 && d.Parent == 0:
		c.fail(diag.SnapBadScope, "decl#%d %q must have exactly one of unit and parent", id, d.Name)
	case d.Unit != 0 && !inRange(d.Unit, snap.Units):
		c.fail(diag.SnapBadID, "decl#%d %q is scoped to unknown unit#%d", id, d.Name, d.Unit)
	case d.Parent != 0 && (!inRange(d.Parent, snap.Decls) || d.Parent == id):
		c.fail(diag.SnapBadID, "decl#%d %q has bad parent decl#%d", id, d.Name, d.Parent)
	}

	for _, m := range d.Members {
		if !inRange(m, snap.Decls) {
			c.fail(diag.SnapBadID, "decl#%d %q lists unknown member decl#%d", id, d.Name, m)
			continue
		}
		if snap.Decls[m-1].Parent != id {
			c.fail(diag.SnapBadScope, "member decl#%d of decl#%d has parent decl#%d", m, id, snap.Decls[m-1].Parent)
		}
	}
	for _, r := range d.Refs {
		if !inRange(r, snap.Refs) {
			c.fail(diag.SnapBadID, "decl#%d %q lists unknown ref#%d", id, d.Name, r)
			continue
		}
		if snap.Refs[r-1].Owner != id {
			c.fail(diag.SnapBadScope, "ref#%d listed by decl#%d but owned by decl#%d", r, id, snap.Refs[r-1].Owner)
		}
	}

	if d.Contract != nil && !(ok && kind == ast.DeclContract) {
		c.fail(diag.SnapBadKind, "decl#%d %q is a %s with a contract payload", id, d.Name, d.Kind)
	}
	if d.Contract != nil {
		if _, ok := ast.ParseContractKind(d.Contract.Kind); !ok {
			c.fail(diag.SnapBadKind, "contract %q has unknown kind %q", d.Name, d.Contract.Kind)
		}
		for _, base := range d.Contract.Bases {
			if !inRange(base, snap.Decls) || snap.Decls[base-1].Kind != ast.DeclContract.String() {
				c.fail(diag.SnapBadID, "contract %q has bad base decl#%d", d.Name, base)
			}
		}
	}

	isImport := ok && kind == ast.DeclImport
	switch {
	case isImport && d.Import == nil:
		c.fail(diag.SnapBadKind, "import decl#%d has no import payload", id)
	case !isImport && d.Import != nil:
		c.fail(diag.SnapBadKind, "decl#%d %q is a %s with an import payload", id, d.Name, d.Kind)
	case isImport:
		if d.Import.Unit != 0 && !inRange(d.Import.Unit, snap.Units) {
			c.fail(diag.SnapUnknownUnit, "import %q refers to unknown unit#%d", d.Import.Path, d.Import.Unit)
		}
		for _, s := range d.Import.Symbols {
			if !inRange(s.Foreign, snap.Decls) {
				c.fail(diag.SnapBadID, "import %q names unknown decl#%d", d.Import.Path, s.Foreign)
			}
		}
	}
	if d.Pragma != "" && !(ok && kind == ast.DeclPragma) {
		c.fail(diag.SnapBadKind, "decl#%d %q is a %s with a pragma value", id, d.Name, d.Kind)
	}
}
