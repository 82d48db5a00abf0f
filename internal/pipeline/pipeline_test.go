package pipeline

import (
	"sync"
	"testing"
	"time"
)

func TestTimingsSum(t *testing.T) {
	var tm Timings
	if tm.Has(StageLoad) {
		t.Fatalf("empty timings report a stage")
	}
	tm.Set(StageLoad, 2*time.Millisecond)
	tm.Set(StageWrite, 3*time.Millisecond)
	if got := tm.Sum(); got != 5*time.Millisecond {
		t.Fatalf("Sum() = %v, want 5ms", got)
	}
	if got := tm.Sum(StageLoad, StageFlatten); got != 2*time.Millisecond {
		t.Fatalf("Sum(load, flatten) = %v, want 2ms", got)
	}
	if !tm.Has(StageWrite) || tm.Duration(StageVerify) != 0 {
		t.Fatalf("unexpected stage state: %+v", tm)
	}
}

func TestRecorderConcurrent(t *testing.T) {
	var rec Recorder
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			Emit(&rec, Event{Bundle: "b", Stage: StageFlatten, Status: StatusWorking})
		}()
	}
	wg.Wait()
	if got := len(rec.Events()); got != 8 {
		t.Fatalf("recorded %d events, want 8", got)
	}
	Emit(nil, Event{})
}

func TestChannelSinkAndFinal(t *testing.T) {
	ch := make(chan Event, 1)
	ChannelSink{Ch: ch}.OnEvent(Event{Bundle: "x", Status: StatusCached})
	evt := <-ch
	if !evt.Final() {
		t.Fatalf("cached event should be final")
	}
	if (Event{Status: StatusWorking}).Final() {
		t.Fatalf("working event should not be final")
	}
	ChannelSink{}.OnEvent(Event{})
}
