package otelhelper

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const ErrorTypeKey = "error.type"

// SetError records err on span. A canceled context is recorded as an event
// only, leaving the span status unset. A nil err is ignored.
func SetError(span trace.Span, err error, attrs ...attribute.KeyValue) {
	if err == nil {
		return
	}

	attrs = append(attrs, attribute.String(ErrorTypeKey, fmt.Sprintf("%T", err)))

	if errors.Is(err, context.Canceled) {
		span.AddEvent("canceled", trace.WithAttributes(attrs...))

		return
	}

	span.RecordError(err, trace.WithAttributes(attrs...))
	span.SetStatus(codes.Error, err.Error())
}
