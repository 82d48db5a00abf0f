package project

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/diag"
	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/source"
)

// OutputFormats lists the accepted [output].format values.
var OutputFormats = []string{"msgpack", "json", "text"}

// Validate reports every manifest problem to rep and returns how many of
// them are errors. Snapshots given as URLs are not checked for existence.
func Validate(m *Manifest, rep diag.Reporter) int {
	errs := 0
	fail := func(code diag.Code, format string, args ...any) {
		errs++
		diag.ReportError(rep, code, source.Span{}, m.Path+": "+fmt.Sprintf(format, args...)).Emit()
	}

	if f := m.Config.Output.Format; f != "" && !knownFormat(f) {
		fail(diag.ManBadFormat, "[output].format %q is not one of %s", f, strings.Join(OutputFormats, "|"))
	}
	if v := m.Config.Compiler.Version; v != "" {
		if _, err := semver.StrictNewVersion(v); err != nil {
			fail(diag.ManParseFailed, "[compiler].version %q: %v", v, err)
		}
	}
	if len(m.Config.Bundles) == 0 {
		fail(diag.ManNoBundles, "no [[bundle]] entries")
	}

	seen := make(map[string]int, len(m.Config.Bundles))
	for i, b := range m.Config.Bundles {
		if strings.TrimSpace(b.Name) == "" {
			fail(diag.ManParseFailed, "bundle #%d has no name", i+1)
			continue
		}
		if prev, dup := seen[b.Name]; dup {
			diag.ReportError(rep, diag.ManDuplicateBundle, source.Span{},
				fmt.Sprintf("%s: bundle %q declared twice", m.Path, b.Name)).
				WithNote(source.Span{}, fmt.Sprintf("first declared as bundle #%d", prev+1)).
				Emit()
			errs++
			continue
		}
		seen[b.Name] = i
		if b.Snapshot == "" {
			fail(diag.ManMissingSnapshot, "bundle %q has no snapshot", b.Name)
			continue
		}
		url := m.SnapshotURL(b)
		if strings.Contains(url, "://") {
			continue
		}
		if _, err := os.Stat(url); errors.Is(err, os.ErrNotExist) {
			fail(diag.ManMissingSnapshot, "bundle %q: snapshot %s does not exist", b.Name, url)
		}
	}
	return errs
}

func knownFormat(f string) bool {
	for _, known := range OutputFormats {
		if strings.EqualFold(f, known) {
			return true
		}
	}
	return false
}
