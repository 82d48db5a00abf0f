package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/diag"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

const tomlManifest = `
[package]
name = "token"

[output]
dir = "out"
format = "json"

[compiler]
version = "0.8.21"

[[bundle]]
name = "Token"
snapshot = "snapshots/token.mp"
units = ["Token.sol", "ERC20.sol"]

[[bundle]]
name = "Vault"
snapshot = "mem://localhost/vault.json"
output = "dist/vault.json"
`

func TestFindManifestWalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "scribble.toml"), tomlManifest)
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	path, ok, err := FindManifest(nested)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "scribble.toml"), path)

	dir, ok, err := FindProjectRoot(nested)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, root, dir)
}

func TestLoadTOML(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "scribble.toml")
	writeFile(t, path, tomlManifest)

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "token", m.Config.Package.Name)
	assert.Equal(t, "0.8.21", m.Config.Compiler.Version)
	require.Len(t, m.Config.Bundles, 2)

	tok, ok := m.Bundle("Token")
	require.True(t, ok)
	assert.Equal(t, []string{"Token.sol", "ERC20.sol"}, tok.Units)
	assert.Equal(t, filepath.Join(root, "snapshots", "token.mp"), m.SnapshotURL(tok))
	assert.Equal(t, filepath.Join(root, "out", "Token.json"), m.OutputURL(tok, ".json"))

	vault, ok := m.Bundle("Vault")
	require.True(t, ok)
	assert.Equal(t, "mem://localhost/vault.json", m.SnapshotURL(vault))
	assert.Equal(t, filepath.Join(root, "dist", "vault.json"), m.OutputURL(vault, ".mp"))

	_, ok = m.Bundle("Nope")
	assert.False(t, ok)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scribble.yaml")
	writeFile(t, path, `
package:
  name: token
bundle:
  - name: Token
    snapshot: token.json
`)
	m, err := Load(path)
	require.NoError(t, err)
	require.Len(t, m.Config.Bundles, 1)
	assert.Equal(t, "token.json", m.Config.Bundles[0].Snapshot)
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name, file, content string
		want                error
	}{
		{"no package", "scribble.toml", "[output]\ndir = \"x\"\n", ErrPackageSectionMissing},
		{"blank name", "scribble.toml", "[package]\nname = \"  \"\n", ErrPackageNameMissing},
		{"yaml blank name", "scribble.yaml", "package: {}\n", ErrPackageNameMissing},
		{"unknown key", "scribble.toml", "[package]\nname = \"a\"\nmain = \"b\"\n", nil},
		{"yaml unknown key", "scribble.yml", "package:\n  name: a\nextra: 1\n", nil},
		{"bad toml", "scribble.toml", "[package\n", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			writeFile(t, path, tt.content)
			_, err := Load(path)
			require.Error(t, err)
			if tt.want != nil {
				assert.True(t, errors.Is(err, tt.want), "got %v", err)
			}
		})
	}
}

func codes(bag *diag.Bag) []diag.Code {
	var out []diag.Code
	for _, d := range bag.Items() {
		out = append(out, d.Code)
	}
	return out
}

func TestValidate(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.mp"), "x")
	m := &Manifest{
		Path: filepath.Join(root, "scribble.toml"),
		Root: root,
		Config: Config{
			Package:  PackageConfig{Name: "p"},
			Output:   OutputConfig{Format: "xml"},
			Compiler: CompilerConfig{Version: "latest"},
			Bundles: []BundleConfig{
				{Name: "A", Snapshot: "a.mp"},
				{Name: "A", Snapshot: "a.mp"},
				{Name: "B", Snapshot: "missing.mp"},
				{Name: "C"},
				{Name: "D", Snapshot: "mem://localhost/d.mp"},
				{Snapshot: "a.mp"},
			},
		},
	}
	bag := diag.NewBag(0)
	errs := Validate(m, diag.BagReporter{Bag: bag})
	assert.Equal(t, 6, errs)
	assert.ElementsMatch(t, []diag.Code{
		diag.ManBadFormat,
		diag.ManParseFailed,
		diag.ManDuplicateBundle,
		diag.ManMissingSnapshot,
		diag.ManMissingSnapshot,
		diag.ManParseFailed,
	}, codes(bag))
}

func TestValidateNoBundles(t *testing.T) {
	m := &Manifest{Path: "scribble.toml", Config: Config{Package: PackageConfig{Name: "p"}}}
	bag := diag.NewBag(0)
	assert.Equal(t, 1, Validate(m, diag.BagReporter{Bag: bag}))
	assert.Equal(t, []diag.Code{diag.ManNoBundles}, codes(bag))
}
