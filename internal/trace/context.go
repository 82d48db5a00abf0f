package trace

import "context"

type ctxKey struct{}

// FromContext returns the Tracer stored in ctx, or Nop.
func FromContext(ctx context.Context) Tracer {
	if ctx == nil {
		return Nop
	}
	if t, ok := ctx.Value(ctxKey{}).(Tracer); ok {
		return t
	}
	return Nop
}

func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, ctxKey{}, t)
}

// SpanContext is what nested spans inherit: the parent span and the
// bundle being flattened. Bundles run in parallel, so their events
// interleave in one stream and are told apart by Bundle.
type SpanContext struct {
	SpanID uint64
	Bundle string
}

type spanCtxKey struct{}

func CurrentSpan(ctx context.Context) SpanContext {
	if ctx == nil {
		return SpanContext{}
	}
	sc, _ := ctx.Value(spanCtxKey{}).(SpanContext)
	return sc
}

func WithSpanContext(ctx context.Context, sc SpanContext) context.Context {
	return context.WithValue(ctx, spanCtxKey{}, sc)
}

// WithBundle labels every span and point started under ctx with bundle.
func WithBundle(ctx context.Context, bundle string) context.Context {
	sc := CurrentSpan(ctx)
	sc.Bundle = bundle
	return WithSpanContext(ctx, sc)
}
