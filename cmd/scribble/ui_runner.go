package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/driver"
	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/pipeline"
	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/ui"
)

type flattenOutcome struct {
	results []*driver.BundleResult
	err     error
}

// runFlattenWithUI runs the bundles while a progress view follows their
// events. The view quits when the event channel closes.
func runFlattenWithUI(ctx context.Context, title string, reqs []driver.BundleRequest, jobs int) ([]*driver.BundleResult, error) {
	events := make(chan pipeline.Event, 256)
	outcomeCh := make(chan flattenOutcome, 1)

	names := make([]string, len(reqs))
	withSink := make([]driver.BundleRequest, len(reqs))
	for i, req := range reqs {
		names[i] = req.Name
		req.Sink = pipeline.ChannelSink{Ch: events}
		withSink[i] = req
	}

	go func() {
		results, err := driver.FlattenAll(ctx, withSink, jobs)
		outcomeCh <- flattenOutcome{results: results, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, names, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout), tea.WithContext(ctx))
	_, uiErr := program.Run()
	if uiErr != nil {
		// keep the workers from blocking on a view that is gone
		go func() {
			for range events {
			}
		}()
	}
	outcome := <-outcomeCh
	if uiErr != nil && outcome.err == nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}
