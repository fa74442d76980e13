// Package observability provides protocol.Observability implementations:
// a no-op, a slog-backed adapter, and an OpenTelemetry-backed adapter.
package observability

import (
	"context"

	"github.com/conductor-ai/conductor/pkg/protocol"
)

// Noop discards everything. The engine is wired with this when no
// observability backend is configured.
type Noop struct{}

func NewNoop() *Noop {
	return &Noop{}
}

func (*Noop) LogEvent(context.Context, string, map[string]any) {}

func (*Noop) RecordMetric(context.Context, string, float64, map[string]string) {}

func (*Noop) StartSpan(ctx context.Context, _ string) (context.Context, protocol.Span) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error) {}
