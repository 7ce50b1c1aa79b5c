package nats

import (
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestNewMessage_EncodesPayloadAndTraceContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	ctx, span := tp.Tracer("test").Start(context.Background(), "publish")
	defer span.End()

	msg, err := newMessage(ctx, "listing.created", map[string]interface{}{"listing_id": "l1", "price": 12.5})
	require.NoError(t, err)

	assert.Equal(t, "listing.created", msg.Subject)
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(msg.Data, &payload))
	assert.Equal(t, "l1", payload["listing_id"])
	assert.Equal(t, 12.5, payload["price"])

	traceparent := msg.Header.Get("traceparent")
	require.NotEmpty(t, traceparent)
	assert.Contains(t, traceparent, span.SpanContext().TraceID().String())
}

func TestNewMessage_UnencodablePayload(t *testing.T) {
	_, err := newMessage(context.Background(), "listing.updated", math.Inf(1))
	assert.Error(t, err)
}

func TestHeaderCarrier(t *testing.T) {
	c := HeaderCarrier{}
	c.Set("Traceparent", "abc")
	assert.Equal(t, "abc", c.Get("Traceparent"))
	assert.Equal(t, []string{"Traceparent"}, c.Keys())
}
