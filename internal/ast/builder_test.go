package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/source"
)

func TestArenaIsOneBased(t *testing.T) {
	a := NewArena[int](0)
	assert.Nil(t, a.Get(0))
	id := a.Allocate(42)
	assert.Equal(t, uint32(1), id)
	assert.Equal(t, 42, *a.Get(id))
	assert.Nil(t, a.Get(2))
	assert.Equal(t, uint32(1), a.Len())
}

func TestBuilderPlacesDecls(t *testing.T) {
	b := NewBuilder(Hints{})
	u := b.NewUnit("A.sol", "contracts/A.sol", source.Span{})
	c := b.NewContract(UnitScope(u), "A", ContractPlain, source.Span{})
	f := b.NewDecl(DeclFunction, DeclScope(c), "f", source.Span{})
	s := b.NewDecl(DeclStruct, UnitScope(u), "S", source.Span{})

	assert.Equal(t, []DeclID{c, s}, b.Units.Get(u).Items)
	assert.Equal(t, []DeclID{f}, b.Decls.Get(c).Members)
	assert.Equal(t, u, b.UnitOf(f))
	assert.Equal(t, c, b.EnclosingContract(f))
	assert.Equal(t, NoDeclID, b.EnclosingContract(s))

	_, ok := b.Decls.Contract(s)
	assert.False(t, ok)
	cd, ok := b.Decls.Contract(c)
	require.True(t, ok)
	assert.Equal(t, ContractPlain, cd.Kind)
}

func TestReplaceDetachesOldAndBase(t *testing.T) {
	b := NewBuilder(Hints{})
	lib := b.NewUnit("Lib.sol", "Lib.sol", source.Span{})
	foo := b.NewDecl(DeclFunction, UnitScope(lib), "Foo", source.Span{})
	x := b.NewUnit("X.sol", "X.sol", source.Span{})
	imp := b.NewImport(x, "Lib.sol", "Lib", lib, source.Span{})
	caller := b.NewDecl(DeclFunction, UnitScope(x), "g", source.Span{})

	base := b.NewRef(caller, RefIdent, "Lib", imp, source.Span{})
	member := b.NewMemberRef(caller, base, "Foo", foo, source.Span{})
	other := b.NewRef(caller, RefIdent, "g", caller, source.Span{})

	repl := b.MakeIdentifierFor(foo, b.Refs.Get(member).Span)
	require.NoError(t, b.Replace(member, repl))

	assert.Equal(t, []RefID{repl, other}, b.Decls.Get(caller).Refs)
	assert.True(t, b.Refs.Get(member).Detached)
	assert.True(t, b.Refs.Get(base).Detached)
	assert.Equal(t, caller, b.Refs.Get(repl).Owner)
	assert.Equal(t, "Foo", b.Refs.Get(repl).Name)
	assert.Equal(t, []RefID{repl, other}, b.UnitRefs(x))

	assert.ErrorIs(t, b.Replace(member, repl), ErrAlreadyPlaced)
}

func TestWalkDeclsPreOrder(t *testing.T) {
	b := NewBuilder(Hints{})
	u := b.NewUnit("U", "U.sol", source.Span{})
	c := b.NewContract(UnitScope(u), "C", ContractPlain, source.Span{})
	f := b.NewDecl(DeclFunction, DeclScope(c), "f", source.Span{})
	v := b.NewDecl(DeclVariable, DeclScope(c), "v", source.Span{})
	e := b.NewDecl(DeclEnum, UnitScope(u), "E", source.Span{})

	var got []DeclID
	b.WalkDecls(u, func(id DeclID, _ *Decl) bool {
		got = append(got, id)
		return true
	})
	assert.Equal(t, []DeclID{c, f, v, e}, got)

	got = got[:0]
	b.WalkDecls(u, func(id DeclID, d *Decl) bool {
		got = append(got, id)
		return d.Kind != DeclContract
	})
	assert.Equal(t, []DeclID{c, e}, got)
}

func TestKindNamesRoundTrip(t *testing.T) {
	for k := DeclContract; k <= DeclPragma; k++ {
		got, ok := ParseDeclKind(k.String())
		require.True(t, ok, k.String())
		assert.Equal(t, k, got)
	}
	for k := RefIdent; k <= RefMember; k++ {
		got, ok := ParseRefKind(k.String())
		require.True(t, ok)
		assert.Equal(t, k, got)
	}
	_, ok := ParseContractKind("trait")
	assert.False(t, ok)
}

func TestScopeValidity(t *testing.T) {
	assert.True(t, UnitScope(1).Valid())
	assert.True(t, DeclScope(3).Valid())
	assert.False(t, Scope{}.Valid())
	assert.False(t, Scope{Unit: 1, Decl: 2}.Valid())
}
