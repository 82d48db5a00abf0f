package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestDebounceLoopCollapsesBursts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan fsnotify.Event)
	errs := make(chan error)
	var runs atomic.Int32
	ran := make(chan struct{}, 4)
	run := func() {
		runs.Add(1)
		ran <- struct{}{}
	}
	match := func(name string) bool { return name == "/w/app.mp" }

	var out bytes.Buffer
	done := make(chan error, 1)
	go func() {
		done <- debounceLoop(ctx, events, errs, match, 50*time.Millisecond, run, &out)
	}()

	events <- fsnotify.Event{Name: "/w/app.mp", Op: fsnotify.Write}
	events <- fsnotify.Event{Name: "/w/other.mp", Op: fsnotify.Write}
	events <- fsnotify.Event{Name: "/w/app.mp", Op: fsnotify.Chmod}
	events <- fsnotify.Event{Name: "/w/app.mp", Op: fsnotify.Create}
	events <- fsnotify.Event{Name: "/w/app.mp", Op: fsnotify.Write}

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatalf("run was not called")
	}
	// no further events: no second run
	select {
	case <-ran:
		t.Fatalf("burst triggered more than one run")
	case <-time.After(150 * time.Millisecond):
	}

	errs <- errors.New("queue overflow")
	events <- fsnotify.Event{Name: "/w/app.mp", Op: fsnotify.Rename}
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatalf("second run was not called")
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if runs.Load() != 2 {
		t.Fatalf("expected 2 runs, got %d", runs.Load())
	}
	if !strings.Contains(out.String(), "watch: queue overflow") {
		t.Fatalf("watcher error not reported: %q", out.String())
	}
}

func TestDebounceLoopStopsOnClosedEvents(t *testing.T) {
	events := make(chan fsnotify.Event)
	close(events)
	err := debounceLoop(context.Background(), events, nil, func(string) bool { return true }, time.Millisecond, func() {}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestWatchAndRerunNeedsFiles(t *testing.T) {
	if err := watchAndRerun(context.Background(), nil, time.Millisecond, &bytes.Buffer{}, func() {}); err == nil {
		t.Fatalf("expected error without files")
	}
}
