package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dejobratic/cosrent/internal/rental/domain"
	"github.com/dejobratic/cosrent/internal/rental/metrics"
	"github.com/dejobratic/cosrent/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// ObservableHandler wraps a Handler with a span, structured logs and
// command metrics.
type ObservableHandler[C Command, R any] struct {
	handler Handler[C, R]
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewObservableHandler[C Command, R any](handler Handler[C, R], logger *slog.Logger, metrics *metrics.Metrics) *ObservableHandler[C, R] {
	return &ObservableHandler[C, R]{
		handler: handler,
		logger:  logger,
		metrics: metrics,
	}
}

func (o *ObservableHandler[C, R]) Handle(ctx context.Context, cmd C) (R, error) {
	name := cmd.CommandName()

	ctx, span := telemetry.StartSpan(ctx, name+".Handle")
	defer span.End()

	start := time.Now()
	var kind string
	defer func() {
		o.metrics.RecordCommand(ctx, name, kind, time.Since(start).Seconds())
	}()

	attrs := cmd.LogAttrs()
	o.logger.InfoContext(ctx, "handling command", append([]any{"command", name}, attrs...)...)

	result, err := o.handler.Handle(ctx, cmd)
	if err != nil {
		kind = domain.Kind(err)
		telemetry.RecordSpanError(span, err)
		telemetry.AddSpanAttributes(span, attribute.String("error.kind", kind))

		level := slog.LevelWarn
		if kind == "internal" || errors.Is(err, domain.ErrUploadFailed) {
			level = slog.LevelError
		}
		o.logger.Log(ctx, level, "command failed",
			append([]any{"command", name, "error", err, "error_kind", kind}, attrs...)...,
		)
		var zero R
		return zero, err
	}

	o.logger.InfoContext(ctx, "command succeeded", "command", name)
	telemetry.SetSpanSuccess(span)

	return result, nil
}
