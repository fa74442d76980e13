package observability

import (
	"context"
	"log/slog"
	"time"

	"github.com/conductor-ai/conductor/pkg/protocol"
)

// Slog emits events and metrics through a structured logger and reports
// span durations on completion. Useful for local runs and tests where an
// OTLP collector is not available.
type Slog struct {
	logger *slog.Logger
}

func NewSlog(logger *slog.Logger) *Slog {
	return &Slog{logger: logger}
}

func (o *Slog) LogEvent(ctx context.Context, name string, data map[string]any) {
	o.logger.InfoContext(ctx, "event", append([]any{"name", name}, flatten(data)...)...)
}

func (o *Slog) RecordMetric(ctx context.Context, name string, value float64, tags map[string]string) {
	attrs := []any{"name", name, "value", value}
	for k, v := range tags {
		attrs = append(attrs, k, v)
	}

	o.logger.DebugContext(ctx, "metric", attrs...)
}

func (o *Slog) StartSpan(ctx context.Context, op string) (context.Context, protocol.Span) {
	return ctx, &slogSpan{logger: o.logger, op: op, started: time.Now()}
}

type slogSpan struct {
	logger  *slog.Logger
	op      string
	started time.Time
}

func (s *slogSpan) End(err error) {
	if err != nil {
		s.logger.Warn("span finished with error", "op", s.op, "duration", time.Since(s.started), "error", err)

		return
	}

	s.logger.Debug("span finished", "op", s.op, "duration", time.Since(s.started))
}

func flatten(data map[string]any) []any {
	attrs := make([]any, 0, len(data)*2)
	for k, v := range data {
		attrs = append(attrs, k, v)
	}

	return attrs
}
