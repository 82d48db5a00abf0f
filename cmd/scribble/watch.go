package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchAndRerun calls run after files change, until ctx is done. Parent
// directories are watched because editors and build tools usually replace
// files instead of writing them in place.
func watchAndRerun(ctx context.Context, files []string, delay time.Duration, errOut io.Writer, run func()) error {
	if len(files) == 0 {
		return fmt.Errorf("--watch needs at least one local snapshot or manifest")
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	wanted := make(map[string]struct{}, len(files))
	dirs := make(map[string]struct{})
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return err
		}
		wanted[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	fmt.Fprintf(errOut, "watching %d file(s), press Ctrl+C to stop\n", len(wanted))

	match := func(name string) bool {
		abs, err := filepath.Abs(name)
		if err != nil {
			return false
		}
		_, ok := wanted[abs]
		return ok
	}
	err = debounceLoop(ctx, w.Events, w.Errors, match, delay, run, errOut)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// debounceLoop collapses bursts of matching events into one run call
// issued delay after the last event.
func debounceLoop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error,
	match func(string) bool, delay time.Duration, run func(), errOut io.Writer) error {
	timer := time.NewTimer(delay)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false
	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 || !match(ev.Name) {
				continue
			}
			if pending && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(delay)
			pending = true
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			fmt.Fprintf(errOut, "watch: %v\n", err)
		case <-timer.C:
			pending = false
			run()
		}
	}
}
