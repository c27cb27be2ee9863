// Package telemetry sets up OpenTelemetry tracing and metrics export for
// the Cliniko MCP server.
//
// Telemetry is off by default. When enabled it exports over OTLP, gRPC or
// HTTP/protobuf, to a collector:
//
//	telemetry:
//	  enabled: true
//	  endpoint: "localhost:4318"
//	  protocol: "http/protobuf"
//	  insecure: true
//
// Insecure export is only accepted for loopback endpoints. Failures while
// building exporters degrade the instance to no-op providers instead of
// stopping the server.
//
// Tests use NewTestTelemetry, which records spans and metrics in memory:
//
//	tt := telemetry.NewTestTelemetry()
//	d := mcp.NewDispatcher(reg, mcp.WithTracer(tt.Tracer("test")))
//	...
//	tt.AssertSpanExists(t, "tool list_patients")
package telemetry
