package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/conductor-ai/conductor/pkg/observability"
	"github.com/conductor-ai/conductor/pkg/protocol"
)

// NewObservability selects the engine's observability backend. OTLP
// tracing is enabled when OTEL_EXPORTER_OTLP_ENDPOINT is set; otherwise
// spans are logged through slog.
func NewObservability(ctx context.Context, logger *slog.Logger, serviceName string) protocol.Observability {
	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") == "" {
		return observability.NewSlog(logger)
	}

	obs, err := observability.NewOtel(ctx, serviceName)
	if err != nil {
		panic("Failed to initialize tracing: " + err.Error())
	}

	return obs
}
