// Package pragma combines the "pragma solidity" directives dropped while
// flattening into one set of compiler version requirements.
package pragma

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
)

var ErrNoCandidate = errors.New("no compiler version satisfies every pragma")

// Directive is one version pragma and where it came from.
type Directive struct {
	Origin string // unit name or path
	Value  string // e.g. "^0.8.0" or ">=0.6.2 <0.9.0"
}

type Requirement struct {
	Value   string
	Origins []string
	c       *semver.Constraints
}

// Set is the conjunction of all requirements.
type Set struct {
	reqs []Requirement
}

// Merge parses every directive and deduplicates identical values. Origins
// of duplicates are accumulated.
func Merge(dirs []Directive) (*Set, error) {
	set := &Set{}
	index := make(map[string]int)
	var errs []error
	for _, d := range dirs {
		value := Normalize(d.Value)
		if i, ok := index[value]; ok {
			set.reqs[i].Origins = append(set.reqs[i].Origins, d.Origin)
			continue
		}
		c, err := semver.NewConstraint(value)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: pragma solidity %q: %w", d.Origin, d.Value, err))
			continue
		}
		index[value] = len(set.reqs)
		set.reqs = append(set.reqs, Requirement{Value: value, Origins: []string{d.Origin}, c: c})
	}
	return set, errors.Join(errs...)
}

// Normalize trims the directive and collapses internal whitespace.
func Normalize(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.reqs)
}

func (s *Set) Requirements() []Requirement {
	if s == nil {
		return nil
	}
	return slices.Clone(s.reqs)
}

// String renders the conjunction, e.g. "^0.8.0, >=0.8.4".
func (s *Set) String() string {
	if s.Len() == 0 {
		return "*"
	}
	parts := make([]string, len(s.reqs))
	for i, r := range s.reqs {
		parts[i] = r.Value
		if strings.Contains(r.Value, "||") {
			parts[i] = "(" + r.Value + ")"
		}
	}
	return strings.Join(parts, ", ")
}

// Check reports whether version satisfies every requirement and lists the
// requirements it violates.
func (s *Set) Check(version string) (bool, []Requirement, error) {
	v, err := semver.NewVersion(version)
	if err != nil {
		return false, nil, fmt.Errorf("compiler version %q: %w", version, err)
	}
	var failing []Requirement
	for _, r := range s.Requirements() {
		if !r.c.Check(v) {
			failing = append(failing, r)
		}
	}
	return len(failing) == 0, failing, nil
}

var versionLiteral = regexp.MustCompile(`\d+\.\d+\.\d+`)

// Mentioned lists the distinct versions spelled out in the requirements,
// in order of appearance. They are the natural candidates for Best.
func (s *Set) Mentioned() []string {
	var out []string
	for _, r := range s.Requirements() {
		for _, v := range versionLiteral.FindAllString(r.Value, -1) {
			if !slices.Contains(out, v) {
				out = append(out, v)
			}
		}
	}
	return out
}

// Best picks the highest candidate that satisfies every requirement.
// Unparsable candidates are skipped.
func (s *Set) Best(candidates []string) (string, error) {
	type cand struct {
		raw string
		v   *semver.Version
	}
	var list []cand
	for _, c := range candidates {
		if v, err := semver.NewVersion(c); err == nil {
			list = append(list, cand{raw: c, v: v})
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].v.GreaterThan(list[j].v) })
	for _, c := range list {
		if ok, _, _ := s.Check(c.v.String()); ok {
			return c.raw, nil
		}
	}
	return "", ErrNoCandidate
}
