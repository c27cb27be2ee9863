package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"

	"github.com/fyrsmithlabs/mcp-cliniko/internal/telemetry"
)

func TestDispatcher_RecordsSpans(t *testing.T) {
	tt := telemetry.NewTestTelemetry()

	failing := testTool("delete_patient")
	failing.Handler = func(context.Context, Args) (*Result, error) {
		return nil, errors.New("cliniko unavailable")
	}
	b := NewBuilder().AddTool(testTool("list_patients")).AddTool(failing)
	reg, err := b.Build()
	require.NoError(t, err)
	d := NewDispatcher(reg, WithTracer(tt.Tracer("test")))

	_, err = d.CallTool(context.Background(), "list_patients", nil)
	require.NoError(t, err)
	_, err = d.CallTool(context.Background(), "delete_patient", nil)
	require.Error(t, err)

	tt.AssertSpanExists(t, "tool list_patients")
	tt.AssertSpanAttribute(t, "tool list_patients", "mcp.tool", "list_patients")
	assert.Equal(t, codes.Unset, tt.SpanByName("tool list_patients").Status().Code)

	span := tt.SpanByName("tool delete_patient")
	require.NotNil(t, span)
	assert.Equal(t, codes.Error, span.Status().Code)
	assert.Equal(t, "cliniko unavailable", span.Status().Description)
}

func TestWithTracer_IgnoresNil(t *testing.T) {
	reg, err := NewBuilder().Build()
	require.NoError(t, err)
	d := NewDispatcher(reg, WithTracer(nil))
	assert.NotNil(t, d.tracer)
}
