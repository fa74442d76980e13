package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/conductor-ai/conductor/pkg/otelhelper"
	"github.com/conductor-ai/conductor/pkg/protocol"
)

// Otel bridges the engine's observability port onto OpenTelemetry spans.
type Otel struct {
	tracer trace.Tracer
}

// NewOtel creates an observability adapter backed by an OTLP tracer for
// the given service name.
func NewOtel(ctx context.Context, serviceName string) (*Otel, error) {
	tracer, err := otelhelper.NewTracer(ctx, serviceName)
	if err != nil {
		return nil, err
	}

	return &Otel{tracer: tracer}, nil
}

// attributeKeys maps engine event data keys onto the namespaced span
// attribute keys. Unknown keys pass through as-is.
var attributeKeys = map[string]string{
	"workflow_id":   otelhelper.WorkflowIDKey,
	"workflow_name": otelhelper.WorkflowNameKey,
	"mode":          otelhelper.WorkflowModeKey,
	"task_id":       otelhelper.TaskIDKey,
	"task_name":     otelhelper.TaskNameKey,
	"role":          otelhelper.AgentRoleKey,
	"attempt":       otelhelper.TaskRevisionKey,
}

func (o *Otel) LogEvent(ctx context.Context, name string, data map[string]any) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	attrs := make([]attribute.KeyValue, 0, len(data))

	for k, v := range data {
		if mapped, ok := attributeKeys[k]; ok {
			k = mapped
		}

		attrs = append(attrs, attribute.String(k, stringify(v)))
	}

	span.AddEvent(name, trace.WithAttributes(attrs...))
}

func (o *Otel) RecordMetric(ctx context.Context, name string, value float64, tags map[string]string) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	attrs := []attribute.KeyValue{attribute.Float64("value", value)}
	for k, v := range tags {
		attrs = append(attrs, attribute.String(k, v))
	}

	span.AddEvent("metric."+name, trace.WithAttributes(attrs...))
}

func (o *Otel) StartSpan(ctx context.Context, op string) (context.Context, protocol.Span) {
	ctx, span := otelhelper.StartSpan(ctx, o.tracer, op)

	return ctx, &otelSpan{span: span}
}

type otelSpan struct {
	span trace.Span
}

func (s *otelSpan) End(err error) {
	if err != nil {
		otelhelper.SetError(s.span, err)
	}

	s.span.End()
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}

	return fmt.Sprintf("%v", v)
}
