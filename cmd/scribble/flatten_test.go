package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/diag"
	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/driver"
	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/source"
)

func testFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("flatten", pflag.ContinueOnError)
	fs.String("manifest", "", "")
	fs.StringSlice("bundle", nil, "")
	fs.StringSlice("units", nil, "")
	fs.StringP("out", "o", "", "")
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return fs
}

func TestBundleName(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"build/program.mp", "program"},
		{"program.json", "program"},
		{`C:\work\token.mp`, "token"},
		{"mem://localhost/snap/erc20.mp", "erc20"},
		{"noext", "noext"},
	}
	for _, tc := range cases {
		if got := bundleName(tc.input); got != tc.want {
			t.Fatalf("bundleName(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestReadUIMode(t *testing.T) {
	for in, want := range map[string]uiMode{"": uiModeAuto, "AUTO": uiModeAuto, "on": uiModeOn, " off ": uiModeOff} {
		got, err := readUIMode(in)
		if err != nil || got != want {
			t.Fatalf("readUIMode(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := readUIMode("sometimes"); err == nil {
		t.Fatalf("expected error for invalid mode")
	}
	if !shouldUseTUI(uiModeOn) || shouldUseTUI(uiModeOff) {
		t.Fatalf("explicit modes must not depend on the terminal")
	}
}

func TestReadColorMode(t *testing.T) {
	if got, err := readColorMode("on", nil); err != nil || !got {
		t.Fatalf("on: got %v, %v", got, err)
	}
	if got, err := readColorMode("never", nil); err != nil || got {
		t.Fatalf("never: got %v, %v", got, err)
	}
	if got, err := readColorMode("auto", nil); err != nil || got {
		t.Fatalf("auto without output: got %v, %v", got, err)
	}
	if got, err := readColorMode("always", nil); err != nil || !got {
		t.Fatalf("always: got %v, %v", got, err)
	}
	_, err := readColorMode("purple", nil)
	if err == nil || !strings.Contains(err.Error(), "--color") {
		t.Fatalf("expected --color error for invalid mode, got %v", err)
	}
}

func TestPlanFromSnapshotsSingle(t *testing.T) {
	plan, err := planFromSnapshots(testFlags(t, "--units", "Token.sol"), []string{"build/app.mp"}, "", driver.BundleRequest{})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(plan.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(plan.requests))
	}
	req := plan.requests[0]
	if req.Name != "app" || req.Snapshot != "build/app.mp" {
		t.Fatalf("unexpected request %+v", req)
	}
	if req.Format != driver.OutputMsgpack {
		t.Fatalf("expected msgpack default, got %v", req.Format)
	}
	if req.Output != "build/app.flat.mp" {
		t.Fatalf("unexpected output %q", req.Output)
	}
	if len(req.Units) != 1 || req.Units[0] != "Token.sol" {
		t.Fatalf("unexpected units %v", req.Units)
	}
	if len(plan.watched) != 1 || plan.watched[0] != "build/app.mp" {
		t.Fatalf("unexpected watched list %v", plan.watched)
	}
}

func TestPlanFromSnapshotsOutputs(t *testing.T) {
	plan, err := planFromSnapshots(testFlags(t, "-o", "out"), []string{"a.mp", "mem://localhost/b.mp"}, "json", driver.BundleRequest{})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if got := plan.requests[0].Output; got != filepath.Join("out", "a.json") {
		t.Fatalf("unexpected output %q", got)
	}
	if got := plan.requests[1].Output; got != filepath.Join("out", "b.json") {
		t.Fatalf("unexpected output %q", got)
	}
	if len(plan.watched) != 1 {
		t.Fatalf("remote snapshots must not be watched: %v", plan.watched)
	}

	plan, err = planFromSnapshots(testFlags(t), []string{"a.mp"}, "text", driver.BundleRequest{})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if plan.requests[0].Output != "" {
		t.Fatalf("text output should go to stdout, got %q", plan.requests[0].Output)
	}
}

func TestPlanFromSnapshotsRejects(t *testing.T) {
	if _, err := planFromSnapshots(testFlags(t, "--units", "A.sol"), []string{"a.mp", "b.mp"}, "", driver.BundleRequest{}); err == nil {
		t.Fatalf("expected error for --units with several snapshots")
	}
	if _, err := planFromSnapshots(testFlags(t), []string{"x/a.mp", "y/a.json"}, "", driver.BundleRequest{}); err == nil {
		t.Fatalf("expected error for colliding bundle names")
	}
	if _, err := planFromSnapshots(testFlags(t), []string{"a.mp"}, "yaml", driver.BundleRequest{}); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestPlanFromManifest(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "snap"), 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"token.mp", "vault.mp"} {
		if err := os.WriteFile(filepath.Join(root, "snap", name), []byte{0x80}, 0o600); err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(root, "scribble.toml")
	data := `[package]
name = "demo"

[output]
dir = "dist"
format = "json"

[compiler]
version = "0.8.21"

[[bundle]]
name = "token"
snapshot = "snap/token.mp"
units = ["Token.sol"]

[[bundle]]
name = "vault"
snapshot = "snap/vault.mp"
output = "out/vault.json"
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	plan, err := planFromManifest(testFlags(t, "--manifest", path), "", driver.BundleRequest{MaxDiagnostics: 10})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if plan.title != "demo" || len(plan.requests) != 2 {
		t.Fatalf("unexpected plan %+v", plan)
	}
	token := plan.requests[0]
	if token.Format != driver.OutputJSON || token.CompilerVersion != "0.8.21" {
		t.Fatalf("manifest defaults not applied: %+v", token)
	}
	if token.Output != filepath.Join(root, "dist", "token.json") {
		t.Fatalf("unexpected token output %q", token.Output)
	}
	if token.Snapshot != filepath.Join(root, "snap", "token.mp") {
		t.Fatalf("unexpected token snapshot %q", token.Snapshot)
	}
	if got := plan.requests[1].Output; got != filepath.Join(root, "out", "vault.json") {
		t.Fatalf("unexpected vault output %q", got)
	}
	if len(plan.watched) != 3 {
		t.Fatalf("expected manifest and two snapshots watched, got %v", plan.watched)
	}

	plan, err = planFromManifest(testFlags(t, "--manifest", path, "--bundle", "vault"), "text", driver.BundleRequest{CompilerVersion: "0.8.4"})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(plan.requests) != 1 || plan.requests[0].Name != "vault" {
		t.Fatalf("bundle filter not applied: %+v", plan.requests)
	}
	if plan.requests[0].Format != driver.OutputText || plan.requests[0].CompilerVersion != "0.8.4" {
		t.Fatalf("flags must override manifest: %+v", plan.requests[0])
	}

	if _, err := planFromManifest(testFlags(t, "--manifest", path, "--bundle", "nope"), "", driver.BundleRequest{}); err == nil {
		t.Fatalf("expected error for unknown bundle")
	}
}

func TestFailingBundles(t *testing.T) {
	clean := &driver.BundleResult{Name: "clean", Bag: diag.NewBag(4)}
	warned := &driver.BundleResult{Name: "warned", Bag: diag.NewBag(4)}
	diag.ReportWarning(diag.BagReporter{Bag: warned.Bag}, diag.FlatForeignBase, source.Span{}, "foreign base").Emit()
	results := []*driver.BundleResult{clean, nil, warned}

	if got := failingBundles(results, diag.SevError); len(got) != 0 {
		t.Fatalf("failingBundles(error) = %v, want none", got)
	}
	got := failingBundles(results, diag.SevWarning)
	if len(got) != 1 || got[0] != "warned" {
		t.Fatalf("failingBundles(warning) = %v, want [warned]", got)
	}
}
