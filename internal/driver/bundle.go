package driver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/ast"
	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/astio"
	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/diag"
	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/diagfmt"
	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/flatten"
	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/observ"
	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/pipeline"
	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/pragma"
	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/source"
	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/testkit"
	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/trace"
)

var (
	ErrUnknownUnit     = errors.New("unknown unit")
	ErrVersionMismatch = errors.New("compiler version does not satisfy pragmas")
	ErrVerifyFailed    = errors.New("flattened unit failed verification")
)

type OutputFormat uint8

const (
	OutputMsgpack OutputFormat = iota
	OutputJSON
	// OutputText is the indented unit tree.
	OutputText
)

func (f OutputFormat) String() string {
	switch f {
	case OutputJSON:
		return "json"
	case OutputText:
		return "text"
	}
	return "msgpack"
}

func (f OutputFormat) Ext() string {
	switch f {
	case OutputJSON:
		return ".json"
	case OutputText:
		return ".txt"
	}
	return ".mp"
}

func ParseOutputFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(s) {
	case "", "msgpack", "mp":
		return OutputMsgpack, nil
	case "json":
		return OutputJSON, nil
	case "text", "tree":
		return OutputText, nil
	}
	return OutputMsgpack, fmt.Errorf("unknown output format %q (expected: msgpack|json|text)", s)
}

// BundleRequest describes one flattening job.
type BundleRequest struct {
	// Name becomes the merged unit's name.
	Name     string
	Snapshot string // snapshot URL
	// Units selects and orders units by name or path; empty means every
	// unit in snapshot order.
	Units []string
	// Output is where the result is stored; empty keeps it in BundleResult.Data only.
	Output          string
	Format          OutputFormat
	Verify          bool
	ReportRenames   bool
	CompilerVersion string
	MaxDiagnostics  int
	Timings         bool

	Store *astio.Store
	Cache *DiskCache
	Sink  pipeline.ProgressSink
}

// RenameRecord is a rename detached from any builder.
type RenameRecord struct {
	Kind string `msgpack:"kind" json:"kind"`
	From string `msgpack:"from" json:"from"`
	To   string `msgpack:"to" json:"to"`
}

type Stats struct {
	Items     int `msgpack:"items" json:"items"`
	Renamed   int `msgpack:"renamed" json:"renamed"`
	Rewritten int `msgpack:"rewritten" json:"rewritten"`
	Collapsed int `msgpack:"collapsed" json:"collapsed"`
	Repaired  int `msgpack:"repaired" json:"repaired"`
	Dropped   int `msgpack:"dropped" json:"dropped"`
	Waves     int `msgpack:"waves" json:"waves"`
}

type BundleResult struct {
	Name string
	Bag  *diag.Bag
	// Files resolves spans in Bag; nil for cached results.
	Files *source.FileTable
	// Builder and Unit hold the merged program; nil for cached results.
	Builder *ast.Builder
	Unit    ast.UnitID

	Renames    []RenameRecord
	Contracts  []string
	Pragmas    []pragma.Directive
	Constraint string
	Stats      Stats

	Data    []byte
	Output  string
	Cached  bool
	Timer   *observ.Timer
	Timings pipeline.Timings
}

type bundleRun struct {
	req   *BundleRequest
	res   *BundleResult
	rep   diag.Reporter
	stage pipeline.Stage
	start time.Time
}

func (r *bundleRun) begin(stage pipeline.Stage) {
	r.stage = stage
	r.start = time.Now()
	pipeline.Emit(r.req.Sink, pipeline.Event{Bundle: r.req.Name, Stage: stage, Status: pipeline.StatusWorking})
}

func (r *bundleRun) end() {
	dur := time.Since(r.start)
	r.res.Timings.Set(r.stage, dur)
	r.res.Timer.Record(string(r.stage), dur, "")
}

func (r *bundleRun) fail(err error) (*BundleResult, error) {
	r.end()
	pipeline.Emit(r.req.Sink, pipeline.Event{
		Bundle:  r.req.Name,
		Stage:   r.stage,
		Status:  pipeline.StatusError,
		Err:     err,
		Elapsed: r.res.Timings.Sum(),
	})
	return r.res, fmt.Errorf("bundle %q: %w", r.req.Name, err)
}

// FlattenBundle loads the snapshot, merges the selected units, checks the
// dropped version pragmas, optionally verifies the merged unit and encodes
// it. Diagnostics end up in the result's Bag; the error tells whether the
// bundle failed.
func FlattenBundle(ctx context.Context, req BundleRequest) (*BundleResult, error) {
	if req.Store == nil {
		req.Store = astio.NewStore()
	}
	res := &BundleResult{
		Name:  req.Name,
		Bag:   diag.NewBag(req.MaxDiagnostics),
		Timer: observ.NewTimer(),
	}
	run := &bundleRun{req: &req, res: res, rep: diag.BagReporter{Bag: res.Bag}}

	ctx, span := trace.Start(trace.WithBundle(ctx, req.Name), trace.ScopeBundle, "bundle")
	outcome := "failed"
	defer func() { span.End(outcome) }()

	run.begin(pipeline.StageLoad)
	data, err := req.Store.Read(ctx, req.Snapshot)
	if err != nil {
		diag.ReportError(run.rep, diag.IOReadFailed, source.Span{}, err.Error()).Emit()
		return run.fail(err)
	}

	var key CacheKey
	if req.Cache != nil {
		if key, err = ComputeCacheKey(data, &req); err == nil {
			var payload DiskPayload
			if ok, _ := req.Cache.Get(key, &payload); ok {
				if res, err := run.replay(ctx, &payload); err != nil {
					return res, err
				}
				outcome = "cached"
				return res, nil
			}
		}
	}

	snap, err := astio.Unmarshal(data, astio.FormatFromPath(req.Snapshot))
	if err != nil {
		diag.ReportError(run.rep, diag.SnapDecodeFailed, source.Span{}, fmt.Sprintf("%s: %v", req.Snapshot, err)).Emit()
		return run.fail(err)
	}
	b, units, err := astio.Build(snap, req.Snapshot, run.rep)
	if err != nil {
		return run.fail(err)
	}
	res.Builder = b
	res.Files = b.Files
	selected, err := selectUnits(b, units, req.Units, run.rep)
	if err != nil {
		return run.fail(err)
	}
	run.end()

	run.begin(pipeline.StageFlatten)
	var before testkit.Targets
	if req.Verify {
		before = testkit.CaptureTargets(b, selected)
	}
	fres, err := flatten.Units(ctx, b, selected, req.Name, flatten.Options{
		Reporter:      run.rep,
		ReportRenames: req.ReportRenames,
	})
	if err != nil {
		return run.fail(err)
	}
	res.Unit = fres.Unit
	run.collect(fres)
	if err := run.checkPragmas(fres); err != nil {
		return run.fail(err)
	}
	run.end()

	if req.Verify {
		run.begin(pipeline.StageVerify)
		if err := testkit.CheckFlattened(b, fres.Unit, before); err != nil {
			diag.ReportError(run.rep, diag.FlatVerifyFailed, source.Span{}, err.Error()).Emit()
			return run.fail(fmt.Errorf("%w: %w", ErrVerifyFailed, err))
		}
		run.end()
	}

	run.begin(pipeline.StageWrite)
	res.Data, err = encodeUnit(b, fres.Unit, req.Format)
	if err != nil {
		diag.ReportError(run.rep, diag.IOWriteFailed, source.Span{}, err.Error()).Emit()
		return run.fail(err)
	}
	if err := run.store(ctx); err != nil {
		return run.fail(err)
	}
	if req.Cache != nil && key != 0 {
		if err := req.Cache.Put(key, run.payload()); err != nil {
			diag.ReportWarning(run.rep, diag.IOWriteFailed, source.Span{}, "result cache: "+err.Error()).Emit()
		}
	}
	run.end()

	run.finish(pipeline.StatusDone)
	outcome = "ok"
	return res, nil
}

func (r *bundleRun) finish(status pipeline.Status) {
	if r.req.Timings {
		report := r.res.Timer.Report()
		appendTimingDiagnostic(r.res.Bag, timingPayload{Bundle: r.req.Name, TotalMS: report.TotalMS, Phases: report.Phases})
	}
	pipeline.Emit(r.req.Sink, pipeline.Event{
		Bundle:  r.req.Name,
		Stage:   r.stage,
		Status:  status,
		Elapsed: r.res.Timings.Sum(),
	})
}

func (r *bundleRun) store(ctx context.Context) error {
	if r.req.Output == "" {
		return nil
	}
	if err := r.req.Store.Write(ctx, r.req.Output, r.res.Data); err != nil {
		diag.ReportError(r.rep, diag.IOWriteFailed, source.Span{}, err.Error()).Emit()
		return err
	}
	r.res.Output = r.req.Output
	return nil
}

func (r *bundleRun) replay(ctx context.Context, p *DiskPayload) (*BundleResult, error) {
	res := r.res
	res.Cached = true
	res.Data = p.Data
	res.Renames = p.Renames
	res.Contracts = p.Contracts
	res.Pragmas = p.Pragmas
	res.Constraint = p.Constraint
	res.Stats = p.Stats
	r.end()

	r.begin(pipeline.StageWrite)
	if err := r.store(ctx); err != nil {
		return r.fail(err)
	}
	r.end()
	r.finish(pipeline.StatusCached)
	return res, nil
}

func (r *bundleRun) payload() *DiskPayload {
	res := r.res
	return &DiskPayload{
		Bundle:     r.req.Name,
		Format:     r.req.Format.String(),
		Data:       res.Data,
		Renames:    res.Renames,
		Contracts:  res.Contracts,
		Pragmas:    res.Pragmas,
		Constraint: res.Constraint,
		Stats:      res.Stats,
	}
}

func (r *bundleRun) collect(fres *flatten.Result) {
	b, res := r.res.Builder, r.res
	for _, rn := range fres.Renamed.List() {
		res.Renames = append(res.Renames, RenameRecord{
			Kind: b.Decls.Get(rn.Decl).Kind.String(),
			From: rn.From,
			To:   rn.To,
		})
	}
	for _, id := range b.Units.Get(fres.Unit).Items {
		if d := b.Decls.Get(id); d.Kind == ast.DeclContract {
			res.Contracts = append(res.Contracts, d.Name)
		}
	}
	for _, p := range fres.Pragmas {
		origin := fmt.Sprintf("unit#%d", p.Unit)
		if u := b.Units.Get(p.Unit); u != nil {
			origin = u.Name
		}
		res.Pragmas = append(res.Pragmas, pragma.Directive{Origin: origin, Value: p.Value})
	}
	res.Stats = Stats{
		Items:     len(b.Units.Get(fres.Unit).Items),
		Renamed:   fres.Renamed.Len(),
		Rewritten: fres.Rewritten,
		Collapsed: fres.Collapsed,
		Repaired:  fres.Repaired,
		Dropped:   len(fres.Dropped),
		Waves:     len(fres.Waves),
	}
}

// checkPragmas merges the dropped version pragmas. Unparsable values are
// warnings; a configured compiler version outside the merged range fails
// the bundle.
func (r *bundleRun) checkPragmas(fres *flatten.Result) error {
	set, err := pragma.Merge(r.res.Pragmas)
	if err != nil {
		for _, line := range strings.Split(err.Error(), "\n") {
			diag.ReportWarning(r.rep, diag.FlatBadPragma, source.Span{}, line).Emit()
		}
	}
	r.res.Constraint = set.String()
	if r.req.CompilerVersion == "" {
		return nil
	}
	ok, failing, err := set.Check(r.req.CompilerVersion)
	if err != nil {
		diag.ReportError(r.rep, diag.FlatVersionMismatch, source.Span{}, err.Error()).Emit()
		return fmt.Errorf("%w: %w", ErrVersionMismatch, err)
	}
	if ok {
		return nil
	}
	rb := diag.ReportError(r.rep, diag.FlatVersionMismatch, source.Span{},
		fmt.Sprintf("compiler %s does not satisfy %s", r.req.CompilerVersion, set.String()))
	spans := make(map[string]source.Span, len(fres.Pragmas))
	for _, p := range fres.Pragmas {
		spans[pragma.Normalize(p.Value)] = p.Span
	}
	for _, req := range failing {
		rb.WithNote(spans[req.Value], fmt.Sprintf("pragma solidity %s in %s", req.Value, strings.Join(req.Origins, ", ")))
	}
	if best, err := set.Best(set.Mentioned()); err == nil {
		rb.WithNote(source.Span{}, fmt.Sprintf("compiler %s satisfies every pragma", best))
	}
	rb.Emit()
	return fmt.Errorf("%w: %s against %s", ErrVersionMismatch, r.req.CompilerVersion, set.String())
}

// selectUnits maps names or paths to unit ids, keeping the requested order.
func selectUnits(b *ast.Builder, units []ast.UnitID, names []string, rep diag.Reporter) ([]ast.UnitID, error) {
	if len(names) == 0 {
		return units, nil
	}
	byName := make(map[string]ast.UnitID, 2*len(units))
	for _, id := range units {
		u := b.Units.Get(id)
		byName[u.Path] = id
		byName[u.Name] = id
	}
	out := make([]ast.UnitID, 0, len(names))
	var missing []string
	for _, name := range names {
		id, ok := byName[name]
		if !ok {
			missing = append(missing, name)
			diag.ReportError(rep, diag.SnapUnknownUnit, source.Span{}, fmt.Sprintf("no unit named %q in snapshot", name)).Emit()
			continue
		}
		out = append(out, id)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownUnit, strings.Join(missing, ", "))
	}
	return out, nil
}

func encodeUnit(b *ast.Builder, unit ast.UnitID, f OutputFormat) ([]byte, error) {
	if f == OutputText {
		var buf bytes.Buffer
		if err := diagfmt.UnitTree(&buf, b, []ast.UnitID{unit}, diagfmt.TreeOpts{}); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	format := astio.FormatMsgpack
	if f == OutputJSON {
		format = astio.FormatJSON
	}
	return astio.Marshal(astio.FromBuilder(b, []ast.UnitID{unit}), format)
}
