// Package trace records where scribble spends its time.
//
// Enable tracing via command-line flags:
//
//	scribble flatten --trace=- --trace-level=phase
//
// Levels:
//
//   - LevelOff: no tracing
//   - LevelError: reserved for failure reports
//   - LevelPhase: driver and flattening stage boundaries
//   - LevelDetail: per-bundle events
//   - LevelDebug: everything, including per-reference events
//
// A Tracer travels in the context (WithTracer / FromContext). Spans are
// opened with Begin and closed with End; Start additionally links the span
// to the one already stored in the context.
package trace
