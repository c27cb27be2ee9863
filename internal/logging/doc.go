// Package logging provides structured logging for mcp-cliniko.
//
// Logger wraps Zap with:
//   - a Trace level (-2, below Debug)
//   - stderr output, optionally teed into OpenTelemetry logs
//   - context field injection (trace_id, request.id, tool)
//   - redaction of credentials and patient identifiers
//
// Standard output is reserved for the MCP stdio transport, so nothing in this
// package ever writes there.
//
// Usage:
//
//	logger, err := logging.NewLogger(logging.NewDefaultConfig(), nil)
//	if err != nil {
//	    return err
//	}
//	defer logger.Sync()
//
//	ctx = logging.WithTool(logging.WithRequestID(ctx, logging.NewRequestID()), "list_patients")
//	logger.Info(ctx, "tool invoked", zap.Duration("duration", d))
//
// Tests use NewTestLogger, which records entries in memory:
//
//	tl := logging.NewTestLogger()
//	doWork(tl.Logger)
//	tl.AssertLogged(t, zapcore.InfoLevel, "tool invoked")
//	tl.AssertNoSecrets(t)
package logging
