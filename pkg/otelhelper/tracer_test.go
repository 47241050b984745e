package otelhelper

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartSpanAndSetError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := provider.Tracer("test")

	_, span := StartSpan(context.Background(), tracer, "client.get_workflow", attribute.String(WorkflowIDKey, "wf-1"))
	SetError(span, errors.New("boom"), attribute.String(HTTPMethodKey, "GET"))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "client.get_workflow", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(), attribute.String(WorkflowIDKey, "wf-1"))
	assert.NotEmpty(t, spans[0].Events())
}

func TestTracer_NoopWithoutProvider(t *testing.T) {
	_, span := StartSpan(context.Background(), Tracer("noop"), "x")
	defer span.End()

	assert.NotNil(t, span)
}

func TestSetError_Canceled(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tracer := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)).Tracer("test")

	_, span := StartSpan(context.Background(), tracer, "session.save")
	SetError(span, fmt.Errorf("save: %w", context.Canceled))
	SetError(span, nil)
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, "canceled", spans[0].Events()[0].Name)
}
