package protocol

import "context"

// Span identifies an in-flight traced operation.
type Span interface {
	End(err error)
}

// Observability is the engine's window to the outside world: events,
// metrics, and spans around every externally visible operation. Every
// method must be safe on a no-op implementation; the engine never checks
// whether anyone is listening.
type Observability interface {
	LogEvent(ctx context.Context, name string, data map[string]any)
	RecordMetric(ctx context.Context, name string, value float64, tags map[string]string)
	StartSpan(ctx context.Context, op string) (context.Context, Span)
}
