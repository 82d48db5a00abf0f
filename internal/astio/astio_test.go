package astio

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/ast"
	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/diag"
	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/flatten"
	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/source"
	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/testkit"
)

type sample struct {
	b        *ast.Builder
	units    []ast.UnitID
	base     ast.DeclID
	derived  ast.DeclID
	memberRf ast.RefID
}

func newSample() sample {
	b := ast.NewBuilder(ast.Hints{})
	f1 := b.Files.Add("lib.sol")
	f2 := b.Files.Add("main.sol")

	lib := b.NewUnit("lib.sol", "contracts/lib.sol", source.Span{File: f1, Start: 0, End: 120})
	b.NewPragma(lib, "solidity", "^0.8.0", source.Span{File: f1, Start: 0, End: 23})
	base := b.NewContract(ast.UnitScope(lib), "Base", ast.ContractAbstract, source.Span{File: f1, Start: 25, End: 90})
	hook := b.NewDecl(ast.DeclFunction, ast.DeclScope(base), "hook", source.Span{File: f1, Start: 40, End: 80})
	b.NewDecl(ast.DeclStruct, ast.UnitScope(lib), "Point", source.Span{File: f1, Start: 92, End: 118})

	main := b.NewUnit("main.sol", "contracts/main.sol", source.Span{File: f2, Start: 0, End: 200})
	imp := b.NewImport(main, "./lib.sol", "L", lib, source.Span{File: f2, Start: 0, End: 30})
	derived := b.NewContract(ast.UnitScope(main), "Main", ast.ContractPlain, source.Span{File: f2, Start: 32, End: 190})
	b.SetBases(derived, base)
	run := b.NewDecl(ast.DeclFunction, ast.DeclScope(derived), "run", source.Span{File: f2, Start: 60, End: 150})
	alias := b.NewRef(run, ast.RefIdent, "L", imp, source.Span{File: f2, Start: 70, End: 71})
	member := b.NewMemberRef(run, alias, "Base", base, source.Span{File: f2, Start: 70, End: 76})
	b.NewRef(run, ast.RefIdent, "hook", hook, source.Span{File: f2, Start: 80, End: 84})

	return sample{b: b, units: []ast.UnitID{lib, main}, base: base, derived: derived, memberRf: member}
}

func TestRoundTripPreservesProgram(t *testing.T) {
	for _, f := range []Format{FormatJSON, FormatMsgpack} {
		t.Run(f.String(), func(t *testing.T) {
			s := newSample()
			snap := FromBuilder(s.b, s.units)

			data, err := Marshal(snap, f)
			require.NoError(t, err)
			decoded, err := Unmarshal(data, f)
			require.NoError(t, err)
			assert.Equal(t, snap, decoded)

			bag := diag.NewBag(0)
			b, units, err := Build(decoded, "sample", diag.BagReporter{Bag: bag})
			require.NoError(t, err)
			require.Zero(t, bag.Len())
			require.Len(t, units, 2)

			// ids were dense from the start, so they survive unchanged
			assert.Equal(t, s.b.Decls.Arena.Len(), b.Decls.Arena.Len())
			assert.Equal(t, s.b.Refs.Arena.Len(), b.Refs.Arena.Len())
			for id := ast.DeclID(1); uint32(id) <= b.Decls.Arena.Len(); id++ {
				want, got := s.b.Decls.Get(id), b.Decls.Get(id)
				assert.Equal(t, want.Kind, got.Kind)
				assert.Equal(t, want.Name, got.Name)
				assert.Equal(t, want.Span, got.Span)
				assert.Equal(t, want.Scope, got.Scope)
				assert.Equal(t, want.Members, got.Members)
				assert.Equal(t, want.Refs, got.Refs)
			}
			c, ok := b.Decls.Contract(s.derived)
			require.True(t, ok)
			assert.Equal(t, []ast.DeclID{s.base}, c.Bases)
			assert.Equal(t, ast.ContractPlain, c.Kind)

			ref := b.Refs.Get(s.memberRf)
			assert.Equal(t, ast.RefMember, ref.Kind)
			assert.Equal(t, s.base, ref.Target)
			assert.True(t, ref.Base.IsValid())

			assert.Equal(t, []string{"lib.sol", "main.sol"}, b.Files.Paths())
			assert.Equal(t, "contracts/main.sol", b.Units.Get(units[1]).Path)
		})
	}
}

// Lib.C.f collapsed to C.f must still be written as a member access on C.
func TestFlattenedChainSurvivesRoundTrip(t *testing.T) {
	b := ast.NewBuilder(ast.Hints{})
	fy := b.Files.Add("Y.sol")
	fx := b.Files.Add("X.sol")
	y := b.NewUnit("Y.sol", "Y.sol", source.Span{File: fy, Start: 0, End: 60})
	c := b.NewContract(ast.UnitScope(y), "C", ast.ContractLibrary, source.Span{File: fy, Start: 0, End: 60})
	f := b.NewDecl(ast.DeclFunction, ast.DeclScope(c), "f", source.Span{File: fy, Start: 20, End: 50})
	x := b.NewUnit("X.sol", "X.sol", source.Span{File: fx, Start: 0, End: 90})
	lib := b.NewImport(x, "./Y.sol", "Lib", y, source.Span{File: fx, Start: 0, End: 25})
	run := b.NewDecl(ast.DeclFunction, ast.UnitScope(x), "run", source.Span{File: fx, Start: 30, End: 90})
	alias := b.NewRef(run, ast.RefIdent, "Lib", lib, source.Span{File: fx, Start: 50, End: 53})
	inner := b.NewMemberRef(run, alias, "C", c, source.Span{File: fx, Start: 50, End: 55})
	b.NewMemberRef(run, inner, "f", f, source.Span{File: fx, Start: 50, End: 57})

	res, err := flatten.Units(context.Background(), b, []ast.UnitID{y, x}, "flat.sol", flatten.Options{})
	require.NoError(t, err)

	data, err := Marshal(FromBuilder(b, []ast.UnitID{res.Unit}), FormatJSON)
	require.NoError(t, err)
	decoded, err := Unmarshal(data, FormatJSON)
	require.NoError(t, err)
	require.Len(t, decoded.Refs, 2)
	assert.Equal(t, "ident", decoded.Refs[0].Kind)
	assert.Equal(t, "C", decoded.Refs[0].Name)
	assert.Zero(t, decoded.Refs[0].Base)
	assert.Equal(t, "member", decoded.Refs[1].Kind)
	assert.Equal(t, "f", decoded.Refs[1].Name)
	assert.Equal(t, uint32(1), decoded.Refs[1].Base)

	rb, units, err := Build(decoded, "flat", nil)
	require.NoError(t, err)
	require.Len(t, units, 1)
	require.NoError(t, testkit.CheckFlattened(rb, units[0], nil))
}

func TestFromBuilderDropsDetachedAndForeign(t *testing.T) {
	s := newSample()
	repl := s.b.MakeIdentifierFor(s.base, source.Span{})
	require.NoError(t, s.b.Replace(s.memberRf, repl))

	// serialize only the second unit: links into lib.sol become 0
	snap := FromBuilder(s.b, s.units[1:])
	require.Len(t, snap.Units, 1)
	for _, r := range snap.Refs {
		assert.False(t, r.Detached)
		assert.NotEqual(t, "member", r.Kind)
	}
	var main DeclRec
	for _, d := range snap.Decls {
		if d.Name == "Main" {
			main = d
		}
	}
	require.NotNil(t, main.Contract)
	assert.Empty(t, main.Contract.Bases)

	_, _, err := Build(snap, "partial", nil)
	require.NoError(t, err)
}

func TestBuildRejectsMalformedSnapshots(t *testing.T) {
	valid := func() *Snapshot {
		s := newSample()
		return FromBuilder(s.b, s.units)
	}

	tests := []struct {
		name   string
		mutate func(*Snapshot)
		code   diag.Code
	}{
		{"schema", func(s *Snapshot) { s.Schema = 99 }, diag.SnapSchemaMismatch},
		{"decl kind", func(s *Snapshot) { s.Decls[1].Kind = "namespace" }, diag.SnapBadKind},
		{"both scopes", func(s *Snapshot) { s.Decls[1].Parent = 2 }, diag.SnapBadScope},
		{"no scope", func(s *Snapshot) { s.Decls[1].Unit = 0 }, diag.SnapBadScope},
		{"unknown unit", func(s *Snapshot) { s.Decls[1].Unit = 42 }, diag.SnapBadID},
		{"span", func(s *Snapshot) { s.Decls[0].Src = "1:x:0" }, diag.SnapBadSpan},
		{"unit span", func(s *Snapshot) { s.Units[0].Src = "nope" }, diag.SnapBadSpan},
		{"ref owner", func(s *Snapshot) { s.Refs[0].Owner = 500 }, diag.SnapBadID},
		{"ref kind", func(s *Snapshot) { s.Refs[0].Kind = "call" }, diag.SnapBadKind},
		{"twice placed", func(s *Snapshot) { s.Units[1].Items = append(s.Units[1].Items, s.Units[0].Items[0]) }, diag.SnapDuplicateItem},
		{"duplicate file", func(s *Snapshot) { s.Files = append(s.Files, s.Files[0]) }, diag.SnapDuplicateItem},
		{"import unit", func(s *Snapshot) {
			for i := range s.Decls {
				if s.Decls[i].Import != nil {
					s.Decls[i].Import.Unit = 9
				}
			}
		}, diag.SnapUnknownUnit},
		{"import payload", func(s *Snapshot) { s.Decls[1].Import = &ImportRec{Path: "x"} }, diag.SnapBadKind},
		{"base not contract", func(s *Snapshot) {
			for i := range s.Decls {
				if s.Decls[i].Name == "Main" {
					s.Decls[i].Contract.Bases = []uint32{1}
				}
			}
		}, diag.SnapBadID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := valid()
			tt.mutate(snap)
			bag := diag.NewBag(0)
			b, units, err := Build(snap, "bad.json", diag.BagReporter{Bag: bag})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid))
			assert.Nil(t, b)
			assert.Nil(t, units)
			require.True(t, bag.HasErrors())
			var codes []diag.Code
			for _, d := range bag.Items() {
				codes = append(codes, d.Code)
			}
			assert.Contains(t, codes, tt.code)
		})
	}
}

func TestBuildNormalizesNames(t *testing.T) {
	snap := &Snapshot{
		Schema: SchemaVersion,
		Units:  []UnitRec{{Name: "u.sol", Items: []uint32{1}}},
		Decls:  []DeclRec{{Kind: "struct", Name: "Cafe\u0301", Unit: 1}},
	}
	bag := diag.NewBag(0)
	b, units, err := Build(snap, "nfc", diag.BagReporter{Bag: bag})
	require.NoError(t, err)
	assert.Equal(t, "Caf\u00e9", b.Decls.Get(b.Units.Get(units[0]).Items[0]).Name)
	require.Equal(t, 1, bag.Len())
	assert.Equal(t, diag.SnapNameNotNFC, bag.Items()[0].Code)
	assert.False(t, bag.HasErrors())
}

func TestUnmarshalJSONRejectsUnknownFields(t *testing.T) {
	_, err := Unmarshal([]byte(`{"schema":1,"units":[],"decls":[],"extra":true}`), FormatJSON)
	require.Error(t, err)
}

func TestFormats(t *testing.T) {
	assert.Equal(t, FormatJSON, FormatFromPath("out/flat.JSON"))
	assert.Equal(t, FormatMsgpack, FormatFromPath("out/flat.mp"))
	assert.Equal(t, FormatMsgpack, FormatFromPath("out/flat"))
	f, err := ParseFormat("json")
	require.NoError(t, err)
	assert.Equal(t, ".json", f.Ext())
	_, err = ParseFormat("xml")
	require.Error(t, err)
}

func TestStoreSaveLoad(t *testing.T) {
	ctx := context.Background()
	st := NewStore()
	s := newSample()
	snap := FromBuilder(s.b, s.units)

	for _, name := range []string{"snap.json", "snap.mp"} {
		path := filepath.Join(t.TempDir(), name)
		require.NoError(t, st.Save(ctx, path, snap, FormatFromPath(path)))
		ok, err := st.Exists(ctx, path)
		require.NoError(t, err)
		assert.True(t, ok)

		loaded, raw, err := st.Load(ctx, path)
		require.NoError(t, err)
		assert.NotEmpty(t, raw)
		assert.Equal(t, snap, loaded)
	}

	_, _, err := st.Load(ctx, filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
