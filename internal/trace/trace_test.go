package trace

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	for _, s := range []string{"off", "error", "phase", "detail", "DEBUG"} {
		if _, err := ParseLevel(s); err != nil {
			t.Fatalf("ParseLevel(%q): %v", s, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestLevelFiltersScopes(t *testing.T) {
	if !LevelPhase.ShouldEmit(ScopePass) || LevelPhase.ShouldEmit(ScopeBundle) {
		t.Fatalf("phase level must stop at pass scope")
	}
	if !LevelDetail.ShouldEmit(ScopeBundle) || LevelDetail.ShouldEmit(ScopeNode) {
		t.Fatalf("detail level must stop at bundle scope")
	}
	if LevelOff.ShouldEmit(ScopeDriver) {
		t.Fatalf("off must emit nothing")
	}
}

func TestStartLinksParent(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDebug, FormatNDJSON)
	ctx := WithTracer(context.Background(), tr)

	ctx, root := Start(ctx, ScopeDriver, "flatten")
	_, child := Start(ctx, ScopePass, "resolve_conflicts")
	child.WithExtra("renamed", "2").End("")
	root.End("ok")

	out := buf.String()
	if got := strings.Count(out, "\n"); got != 4 {
		t.Fatalf("got %d events, want 4:\n%s", got, out)
	}
	if !strings.Contains(out, `"parent_id":`) {
		t.Fatalf("child span must carry parent id:\n%s", out)
	}
	if !strings.Contains(out, `"renamed":"2"`) {
		t.Fatalf("extra missing:\n%s", out)
	}
}

func TestNopContext(t *testing.T) {
	ctx, sp := Start(context.Background(), ScopePass, "x")
	if sp.ID() != 0 {
		t.Fatalf("nop span must have zero id")
	}
	if sp.End("") != 0 {
		t.Fatalf("nop span must report zero duration")
	}
	if CurrentSpan(ctx).SpanID != 0 {
		t.Fatalf("nop span must not be stored in context")
	}
}

func TestBundleLabelReachesNestedEvents(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDebug, FormatNDJSON)
	ctx := WithBundle(WithTracer(context.Background(), tr), "token")

	ctx, outer := Start(ctx, ScopeBundle, "bundle")
	_, inner := Start(ctx, ScopePass, "assemble")
	Point(ctx, ScopeNode, "cache", "miss")
	inner.End("")
	outer.End("ok")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("got %d events, want 5:\n%s", len(lines), buf.String())
	}
	for _, line := range lines {
		if !strings.Contains(line, `"bundle":"token"`) {
			t.Fatalf("event without bundle label: %s", line)
		}
	}
	if got := CurrentSpan(ctx).Bundle; got != "token" {
		t.Fatalf("span context bundle = %q, want token", got)
	}
}
