package pipeline

import "time"

// Stage describes one step of flattening a bundle.
type Stage string

const (
	// StageLoad reads and validates the snapshot.
	StageLoad Stage = "load"
	// StageFlatten runs the merge itself.
	StageFlatten Stage = "flatten"
	// StageVerify re-checks the merged unit.
	StageVerify Stage = "verify"
	// StageWrite encodes and stores the result.
	StageWrite Stage = "write"
)

// Stages lists every stage in execution order.
var Stages = []Stage{StageLoad, StageFlatten, StageVerify, StageWrite}

// Status captures progress state within a stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	// StatusCached marks a bundle served from the result cache.
	StatusCached Status = "cached"
	StatusError  Status = "error"
)

// Event reports progress for a bundle (or for the whole run when Bundle is empty).
type Event struct {
	Bundle  string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// Final reports whether the event closes its bundle.
func (e Event) Final() bool {
	return e.Status == StatusDone || e.Status == StatusCached || e.Status == StatusError
}

// Timings holds stage durations.
type Timings struct {
	stages map[Stage]time.Duration
}

func (t *Timings) ensure() {
	if t.stages == nil {
		t.stages = make(map[Stage]time.Duration)
	}
}

// Set stores a duration for the given stage.
func (t *Timings) Set(stage Stage, dur time.Duration) {
	if t == nil {
		return
	}
	t.ensure()
	t.stages[stage] = dur
}

func (t Timings) Has(stage Stage) bool {
	if t.stages == nil {
		return false
	}
	_, ok := t.stages[stage]
	return ok
}

func (t Timings) Duration(stage Stage) time.Duration {
	if t.stages == nil {
		return 0
	}
	return t.stages[stage]
}

// Sum returns the sum of durations across the provided stages, or across
// all of them when none are given.
func (t Timings) Sum(stages ...Stage) time.Duration {
	if t.stages == nil {
		return 0
	}
	if len(stages) == 0 {
		stages = Stages
	}
	var total time.Duration
	for _, stage := range stages {
		total += t.stages[stage]
	}
	return total
}
