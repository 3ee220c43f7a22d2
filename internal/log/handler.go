package log

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

var _ slog.Handler = (*enrichedHandler)(nil)

// enrichedHandler enriches logs with the terminal's device id and trace data
type enrichedHandler struct {
	h        slog.Handler
	deviceID string
}

func newEnrichedHandler(h slog.Handler, deviceID string) enrichedHandler {
	return enrichedHandler{h: h, deviceID: deviceID}
}

func (eh enrichedHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return eh.h.Enabled(ctx, level)
}

func (eh enrichedHandler) Handle(ctx context.Context, r slog.Record) error {
	if eh.deviceID != "" {
		r.Add("device_id", slog.StringValue(eh.deviceID))
	}

	spanCtx := trace.SpanFromContext(ctx).SpanContext()
	if spanCtx.IsValid() {
		r.Add("trace_id", slog.StringValue(spanCtx.TraceID().String()))
		r.Add("span_id", slog.StringValue(spanCtx.SpanID().String()))
	}

	return eh.h.Handle(ctx, r)
}

func (eh enrichedHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return newEnrichedHandler(eh.h.WithAttrs(attrs), eh.deviceID)
}

func (eh enrichedHandler) WithGroup(name string) slog.Handler {
	return newEnrichedHandler(eh.h.WithGroup(name), eh.deviceID)
}
