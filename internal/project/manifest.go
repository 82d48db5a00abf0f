package project

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

var (
	// ErrPackageSectionMissing indicates that [package] is missing in a manifest.
	ErrPackageSectionMissing = errors.New("missing [package]")
	// ErrPackageNameMissing indicates that [package].name is missing or blank.
	ErrPackageNameMissing = errors.New("missing [package].name")
)

// Manifest is a loaded scribble.toml (or scribble.yaml).
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

type Config struct {
	Package  PackageConfig  `toml:"package" yaml:"package"`
	Output   OutputConfig   `toml:"output" yaml:"output"`
	Compiler CompilerConfig `toml:"compiler" yaml:"compiler"`
	Bundles  []BundleConfig `toml:"bundle" yaml:"bundle"`
}

type PackageConfig struct {
	Name string `toml:"name" yaml:"name"`
}

type OutputConfig struct {
	Dir    string `toml:"dir" yaml:"dir"`
	Format string `toml:"format" yaml:"format"`
}

type CompilerConfig struct {
	// Version is the compiler release the flattened unit is meant for.
	Version string `toml:"version" yaml:"version"`
}

// BundleConfig names one flattening job: a snapshot and the units to merge.
type BundleConfig struct {
	Name     string   `toml:"name" yaml:"name"`
	Snapshot string   `toml:"snapshot" yaml:"snapshot"`
	Units    []string `toml:"units" yaml:"units"`
	Output   string   `toml:"output" yaml:"output"`
}

// Load parses the manifest at path; the syntax follows the extension.
func Load(path string) (*Manifest, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %q: %w", path, err)
	}
	var cfg Config
	switch strings.ToLower(filepath.Ext(abs)) {
	case ".yaml", ".yml":
		cfg, err = loadYAML(abs)
	default:
		cfg, err = loadTOML(abs)
	}
	if err != nil {
		return nil, err
	}
	return &Manifest{Path: abs, Root: filepath.Dir(abs), Config: cfg}, nil
}

func loadTOML(path string) (Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if !meta.IsDefined("package") {
		return Config{}, fmt.Errorf("%s: %w", path, ErrPackageSectionMissing)
	}
	if !meta.IsDefined("package", "name") || strings.TrimSpace(cfg.Package.Name) == "" {
		return Config{}, fmt.Errorf("%s: %w", path, ErrPackageNameMissing)
	}
	return cfg, nil
}

func loadYAML(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse YAML: %w", path, err)
	}
	if strings.TrimSpace(cfg.Package.Name) == "" {
		return Config{}, fmt.Errorf("%s: %w", path, ErrPackageNameMissing)
	}
	return cfg, nil
}

// SnapshotURL resolves the bundle's snapshot location against the manifest
// root. Values carrying a scheme ("mem://...", "s3://...") are left alone.
func (m *Manifest) SnapshotURL(b BundleConfig) string {
	return m.resolve(b.Snapshot)
}

// OutputURL is where the flattened bundle is written: the bundle's own
// output, or <output.dir>/<name><ext>.
func (m *Manifest) OutputURL(b BundleConfig, ext string) string {
	if b.Output != "" {
		return m.resolve(b.Output)
	}
	dir := m.Config.Output.Dir
	if dir == "" {
		dir = "build"
	}
	return m.resolve(filepath.Join(dir, b.Name+ext))
}

func (m *Manifest) resolve(p string) string {
	if p == "" || strings.Contains(p, "://") || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Root, filepath.FromSlash(p))
}

// Bundle returns the bundle called name.
func (m *Manifest) Bundle(name string) (BundleConfig, bool) {
	for _, b := range m.Config.Bundles {
		if b.Name == name {
			return b, true
		}
	}
	return BundleConfig{}, false
}
