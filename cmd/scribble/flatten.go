package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/astio"
	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/diag"
	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/driver"
	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/project"
	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/trace"
)

const noManifestMessage = "no scribble.toml found\nplease name the snapshots explicitly, e.g.:\n  scribble flatten build/program.mp"

var errFlattenFailed = errors.New("flatten failed")

var flattenCmd = &cobra.Command{
	Use:   "flatten [snapshot...]",
	Short: "Merge the units of one or more snapshots",
	Long: `Without arguments, flatten runs every [[bundle]] of the nearest scribble.toml
(or scribble.yaml). With arguments, every snapshot becomes one bundle that
merges all of its units in snapshot order, unless --units picks them.`,
	RunE: runFlatten,
}

func init() {
	flattenCmd.Flags().String("manifest", "", "manifest path (default: search upwards from the working directory)")
	flattenCmd.Flags().StringSlice("bundle", nil, "only run the named bundles")
	flattenCmd.Flags().StringSlice("units", nil, "units to merge, by name or path, in order (snapshot arguments only)")
	flattenCmd.Flags().StringP("out", "o", "", "output file, or directory when several snapshots are given")
	flattenCmd.Flags().String("format", "", "output format (msgpack|json|text)")
	flattenCmd.Flags().String("compiler", "", "compiler version the dropped pragmas must accept")
	flattenCmd.Flags().Bool("verify", false, "re-check the merged unit before writing it")
	flattenCmd.Flags().Bool("renames", false, "print every renamed declaration")
	flattenCmd.Flags().Bool("cache", false, "reuse results of unchanged bundles")
	flattenCmd.Flags().String("diagnostics", "pretty", "diagnostics format (pretty|json)")
	flattenCmd.Flags().String("fail-on", "error", "lowest diagnostic severity that fails the run (info|warning|error)")
	flattenCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	flattenCmd.Flags().Int("jobs", 0, "max parallel bundles (0=auto)")
	flattenCmd.Flags().Bool("watch", false, "run again whenever a snapshot or the manifest changes")
}

type flattenOptions struct {
	quiet       bool
	timings     bool
	color       bool
	renames     bool
	diagnostics string
	failOn      diag.Severity
	ui          uiMode
	jobs        int
}

// flattenPlan is everything needed to (re)run the bundles.
type flattenPlan struct {
	requests []driver.BundleRequest
	// watched lists local files whose change triggers a new run.
	watched []string
	title   string
}

func runFlatten(cmd *cobra.Command, args []string) error {
	opts, err := readFlattenOptions(cmd)
	if err != nil {
		return err
	}
	plan, err := buildFlattenPlan(cmd, args)
	if err != nil {
		return err
	}

	watch, _ := cmd.Flags().GetBool("watch")
	if !watch {
		return runFlattenOnce(cmd, plan, opts)
	}
	// the TUI would fight with the rerun output
	opts.ui = uiModeOff
	_ = runFlattenOnce(cmd, plan, opts)
	return watchAndRerun(cmd.Context(), plan.watched, 200*time.Millisecond, cmd.ErrOrStderr(), func() {
		fresh, err := buildFlattenPlan(cmd, args)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
			return
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "change detected, flattening %d bundle(s)\n", len(fresh.requests))
		_ = runFlattenOnce(cmd, fresh, opts)
	})
}

func readFlattenOptions(cmd *cobra.Command) (flattenOptions, error) {
	var opts flattenOptions
	root := cmd.Root().PersistentFlags()
	opts.quiet, _ = root.GetBool("quiet")
	opts.timings, _ = root.GetBool("timings")
	colorFlag, _ := root.GetString("color")
	var err error
	if opts.color, err = readColorMode(colorFlag, os.Stderr); err != nil {
		return opts, err
	}
	opts.renames, _ = cmd.Flags().GetBool("renames")
	opts.jobs, _ = cmd.Flags().GetInt("jobs")
	opts.diagnostics, _ = cmd.Flags().GetString("diagnostics")
	switch opts.diagnostics {
	case "pretty", "json":
	default:
		return opts, fmt.Errorf("unsupported diagnostics format %q (must be pretty or json)", opts.diagnostics)
	}
	failOn, _ := cmd.Flags().GetString("fail-on")
	if opts.failOn, err = diag.ParseSeverity(failOn); err != nil {
		return opts, fmt.Errorf("--fail-on: %w", err)
	}
	uiFlag, _ := cmd.Flags().GetString("ui")
	if opts.ui, err = readUIMode(uiFlag); err != nil {
		return opts, err
	}
	return opts, nil
}

func buildFlattenPlan(cmd *cobra.Command, args []string) (*flattenPlan, error) {
	flags := cmd.Flags()
	maxDiag, _ := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	timings, _ := cmd.Root().PersistentFlags().GetBool("timings")
	formatFlag, _ := flags.GetString("format")
	compiler, _ := flags.GetString("compiler")
	verify, _ := flags.GetBool("verify")
	renames, _ := flags.GetBool("renames")
	useCache, _ := flags.GetBool("cache")

	base := driver.BundleRequest{
		Verify:          verify,
		ReportRenames:   renames,
		CompilerVersion: compiler,
		MaxDiagnostics:  maxDiag,
		Timings:         timings,
		Store:           astio.NewStore(),
	}
	if useCache {
		cache, err := driver.OpenDiskCache("scribble")
		if err != nil {
			return nil, fmt.Errorf("failed to open result cache: %w", err)
		}
		base.Cache = cache
	}

	if len(args) > 0 {
		return planFromSnapshots(flags, args, formatFlag, base)
	}
	return planFromManifest(flags, formatFlag, base)
}

type flagReader interface {
	GetString(string) (string, error)
	GetStringSlice(string) ([]string, error)
}

func planFromSnapshots(flags flagReader, args []string, formatFlag string, base driver.BundleRequest) (*flattenPlan, error) {
	if formatFlag == "" {
		formatFlag = "msgpack"
	}
	format, err := driver.ParseOutputFormat(formatFlag)
	if err != nil {
		return nil, err
	}
	units, _ := flags.GetStringSlice("units")
	if len(units) > 0 && len(args) > 1 {
		return nil, fmt.Errorf("--units needs exactly one snapshot, got %d", len(args))
	}
	out, _ := flags.GetString("out")

	plan := &flattenPlan{title: "flatten"}
	seen := make(map[string]string, len(args))
	for _, snap := range args {
		req := base
		req.Name = bundleName(snap)
		if prev, dup := seen[req.Name]; dup {
			return nil, fmt.Errorf("snapshots %s and %s both map to bundle %q", prev, snap, req.Name)
		}
		seen[req.Name] = snap
		req.Snapshot = snap
		req.Units = units
		req.Format = format
		switch {
		case out != "" && len(args) == 1:
			req.Output = out
		case out != "":
			req.Output = filepath.Join(out, req.Name+format.Ext())
		case format == driver.OutputText:
			// printed to stdout
		default:
			req.Output = strings.TrimSuffix(snap, filepath.Ext(snap)) + ".flat" + format.Ext()
		}
		plan.requests = append(plan.requests, req)
		if !strings.Contains(snap, "://") {
			plan.watched = append(plan.watched, snap)
		}
	}
	return plan, nil
}

func planFromManifest(flags flagReader, formatFlag string, base driver.BundleRequest) (*flattenPlan, error) {
	path, _ := flags.GetString("manifest")
	if path == "" {
		found, ok, err := project.FindManifest(".")
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.New(noManifestMessage)
		}
		path = found
	}
	m, err := project.Load(path)
	if err != nil {
		return nil, err
	}

	bag := diag.NewBag(base.MaxDiagnostics)
	if errs := project.Validate(m, diag.BagReporter{Bag: bag}); errs > 0 {
		bag.Sort()
		printDiagnostics(os.Stderr, bag, nil, false, "pretty")
		return nil, fmt.Errorf("%s: %d manifest error(s)", m.Path, errs)
	}

	if formatFlag == "" {
		formatFlag = m.Config.Output.Format
	}
	format, err := driver.ParseOutputFormat(formatFlag)
	if err != nil {
		return nil, err
	}
	if base.CompilerVersion == "" {
		base.CompilerVersion = m.Config.Compiler.Version
	}
	only, _ := flags.GetStringSlice("bundle")
	for _, name := range only {
		if _, ok := m.Bundle(name); !ok {
			return nil, fmt.Errorf("%s: no bundle named %q", m.Path, name)
		}
	}

	plan := &flattenPlan{title: m.Config.Package.Name, watched: []string{m.Path}}
	for _, b := range m.Config.Bundles {
		if len(only) > 0 && !slices.Contains(only, b.Name) {
			continue
		}
		req := base
		req.Name = b.Name
		req.Snapshot = m.SnapshotURL(b)
		req.Units = b.Units
		req.Format = format
		req.Output = m.OutputURL(b, format.Ext())
		plan.requests = append(plan.requests, req)
		if !strings.Contains(req.Snapshot, "://") {
			plan.watched = append(plan.watched, req.Snapshot)
		}
	}
	return plan, nil
}

func runFlattenOnce(cmd *cobra.Command, plan *flattenPlan, opts flattenOptions) error {
	ctx, span := trace.Start(cmd.Context(), trace.ScopeDriver, "flatten")
	span.WithExtra("bundles", fmt.Sprint(len(plan.requests)))
	defer span.End("")

	start := time.Now()
	var (
		results []*driver.BundleResult
		err     error
	)
	if !opts.quiet && shouldUseTUI(opts.ui) {
		results, err = runFlattenWithUI(ctx, plan.title, plan.requests, opts.jobs)
	} else {
		results, err = driver.FlattenAll(ctx, plan.requests, opts.jobs)
	}
	wall := time.Since(start)

	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	for _, res := range results {
		if res == nil {
			continue
		}
		res.Bag.Dedup()
		res.Bag.Sort()
		printDiagnostics(errOut, res.Bag, res.Files, opts.color, opts.diagnostics)
		if res.Bag.HasErrors() {
			continue
		}
		if res.Output == "" && len(res.Data) > 0 {
			if _, werr := out.Write(res.Data); werr != nil {
				return werr
			}
		}
		if !opts.quiet {
			printBundleSummary(errOut, res)
		}
		if opts.renames {
			printRenames(out, res)
		}
	}
	if opts.timings {
		printTimings(errOut, results, wall)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return errFlattenFailed
	}
	if failed := failingBundles(results, opts.failOn); len(failed) > 0 {
		fmt.Fprintf(errOut, "failing on %s diagnostics in: %s\n", strings.ToLower(opts.failOn.String()), strings.Join(failed, ", "))
		return errFlattenFailed
	}
	return nil
}

// failingBundles names the bundles holding a diagnostic at failOn or worse.
func failingBundles(results []*driver.BundleResult, failOn diag.Severity) []string {
	var out []string
	for _, res := range results {
		if res != nil && res.Bag.HasAtLeast(failOn) {
			out = append(out, res.Name)
		}
	}
	return out
}

func printBundleSummary(w io.Writer, res *driver.BundleResult) {
	dest := res.Output
	if dest == "" {
		dest = "stdout"
	}
	var notes []string
	if res.Cached {
		notes = append(notes, "cached")
	}
	notes = append(notes,
		fmt.Sprintf("%d contract(s)", len(res.Contracts)),
		fmt.Sprintf("%d rename(s)", len(res.Renames)),
		"pragma solidity "+res.Constraint,
	)
	fmt.Fprintf(w, "flattened %s -> %s (%s)\n", res.Name, dest, strings.Join(notes, ", "))
}

func printRenames(w io.Writer, res *driver.BundleResult) {
	for _, r := range res.Renames {
		fmt.Fprintf(w, "%s\t%s\t%s -> %s\n", res.Name, r.Kind, r.From, r.To)
	}
}

// bundleName derives a bundle name from a snapshot location: its base
// name without extension.
func bundleName(snapshot string) string {
	name := snapshot
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}
