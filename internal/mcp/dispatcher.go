package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/mcp-cliniko/internal/logging"
)

// Dispatcher executes tool calls and resource reads against a Registry.
type Dispatcher struct {
	registry *Registry
	logger   *logging.Logger
	metrics  *Metrics
	tracer   trace.Tracer
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

func WithLogger(l *logging.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = l }
}

func WithMetrics(m *Metrics) DispatcherOption {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithTracer replaces the global tracer.
func WithTracer(t trace.Tracer) DispatcherOption {
	return func(d *Dispatcher) {
		if t != nil {
			d.tracer = t
		}
	}
}

// NewDispatcher returns a dispatcher over reg.
func NewDispatcher(reg *Registry, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		registry: reg,
		logger:   logging.Nop(),
		tracer:   otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Registry returns the registry the dispatcher serves.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// ToolDescriptor is the discovery view of a tool.
type ToolDescriptor struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	InputSchema *jsonschema.Schema `json:"inputSchema"`
}

// ResourceDescriptor is the discovery view of a resource.
type ResourceDescriptor struct {
	URI         string `json:"uri,omitempty"`
	URITemplate string `json:"uriTemplate,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MIMEType    string `json:"mimeType,omitempty"`
}

// Prompt is the discovery view of a prompt. None are registered.
type Prompt struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ListTools describes every tool in registration order.
func (d *Dispatcher) ListTools() []ToolDescriptor {
	out := make([]ToolDescriptor, 0, len(d.registry.tools))
	for _, t := range d.registry.tools {
		out = append(out, ToolDescriptor{Name: t.Name, Description: t.Description, InputSchema: t.InputSchema})
	}
	return out
}

// ListResources describes every resource in registration order.
func (d *Dispatcher) ListResources() []ResourceDescriptor {
	out := make([]ResourceDescriptor, 0, len(d.registry.resources))
	for _, r := range d.registry.resources {
		desc := ResourceDescriptor{Name: r.Name, Description: r.Description, MIMEType: r.MIMEType}
		if r.Templated() {
			desc.URITemplate = r.URITemplate
		} else {
			desc.URI = r.URITemplate
		}
		out = append(out, desc)
	}
	return out
}

// ListPrompts always returns an empty list.
func (d *Dispatcher) ListPrompts() []Prompt {
	return []Prompt{}
}

// CallTool runs the named tool. raw may be nil, a JSON document as string,
// []byte or json.RawMessage (a JSON string holding an object is unwrapped
// once), or an already structured map. The tool name is checked before the
// arguments are parsed. Defaults declared by the schema are applied and the
// result validated before the handler runs. Handler errors are returned
// unchanged.
func (d *Dispatcher) CallTool(ctx context.Context, name string, raw any) (*Result, error) {
	rt, ok := d.registry.byName[name]
	if !ok {
		d.metrics.RecordInvocation(ctx, name, 0, nil, &UnknownToolError{Name: name})
		return nil, &UnknownToolError{Name: name}
	}

	ctx = logging.WithTool(ctx, name)
	if logging.RequestIDFromContext(ctx) == "" {
		ctx = logging.WithRequestID(ctx, logging.NewRequestID())
	}
	ctx, span := d.tracer.Start(ctx, "tool "+name, trace.WithAttributes(attribute.String("mcp.tool", name)))
	defer span.End()

	d.metrics.IncrementActive(ctx, name)
	defer d.metrics.DecrementActive(ctx, name)
	start := time.Now()

	res, err := d.invoke(ctx, rt, raw)

	elapsed := time.Since(start)
	d.metrics.RecordInvocation(ctx, name, elapsed, res, err)
	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		d.logger.Warn(ctx, "tool call failed", zap.Duration("duration", elapsed), zap.Error(err))
	case res.IsError:
		span.SetStatus(codes.Error, "tool returned an error result")
		d.logger.Info(ctx, "tool call returned error result", zap.Duration("duration", elapsed))
	default:
		d.logger.Debug(ctx, "tool call completed", zap.Duration("duration", elapsed))
	}
	return res, err
}

func (d *Dispatcher) invoke(ctx context.Context, rt *registeredTool, raw any) (*Result, error) {
	args, err := parseArgs(raw)
	if err != nil {
		return nil, &ValidationError{Tool: rt.Name, Err: err}
	}
	if err := applyDefaults(rt.InputSchema, args); err != nil {
		return nil, &ValidationError{Tool: rt.Name, Err: err}
	}
	if err := rt.schema.Validate(plain(args)); err != nil {
		return nil, &ValidationError{Tool: rt.Name, Err: err}
	}

	d.logger.Trace(ctx, "invoking tool handler", zap.Int("args", len(args)))
	res, err := rt.Handler(ctx, Args(args))
	if err != nil {
		return nil, err
	}
	if res == nil {
		res = &Result{Content: []Content{}}
	}
	return res, nil
}

// ReadResource resolves uri against the registered templates, first match
// wins, and invokes the matching handler.
func (d *Dispatcher) ReadResource(ctx context.Context, uri string) (*ResourceContents, error) {
	res, params, ok := d.registry.resolveResource(uri)
	if !ok {
		return nil, &UnknownResourceError{URI: uri}
	}

	if logging.RequestIDFromContext(ctx) == "" {
		ctx = logging.WithRequestID(ctx, logging.NewRequestID())
	}
	ctx, span := d.tracer.Start(ctx, "resource "+res.URITemplate, trace.WithAttributes(attribute.String("mcp.resource", uri)))
	defer span.End()

	contents, err := res.Handler(ctx, uri, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		d.logger.Warn(ctx, "resource read failed", zap.String("uri", uri), zap.Error(err))
		return nil, err
	}
	if contents.URI == "" {
		contents.URI = uri
	}
	if contents.MIMEType == "" {
		contents.MIMEType = res.MIMEType
	}
	return contents, nil
}

var errNotObject = errors.New("arguments must be a JSON object")

// parseArgs normalises raw call arguments into a JSON object. Numbers are
// kept as json.Number so large identifiers survive intact.
func parseArgs(raw any) (map[string]any, error) {
	switch v := raw.(type) {
	case nil:
		return map[string]any{}, nil
	case string:
		return parseJSONArgs([]byte(v), true)
	case []byte:
		return parseJSONArgs(v, true)
	case json.RawMessage:
		return parseJSONArgs(v, true)
	case Args:
		return normalize(map[string]any(v))
	default:
		return normalize(v)
	}
}

func normalize(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding arguments: %w", err)
	}
	return parseJSONArgs(data, false)
}

func parseJSONArgs(data []byte, unwrap bool) (map[string]any, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return map[string]any{}, nil
	}

	var v any
	if err := decodeJSON(data, &v); err != nil {
		return nil, fmt.Errorf("parsing arguments: %w", err)
	}
	switch t := v.(type) {
	case map[string]any:
		return t, nil
	case string:
		if unwrap {
			return parseJSONArgs([]byte(t), false)
		}
	}
	return nil, errNotObject
}

func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("trailing data after JSON value")
	}
	return nil
}

// applyDefaults fills absent top-level properties from their schema
// defaults.
func applyDefaults(schema *jsonschema.Schema, args map[string]any) error {
	for name, prop := range schema.Properties {
		if _, ok := args[name]; ok || prop == nil || len(prop.Default) == 0 {
			continue
		}
		var v any
		if err := decodeJSON(prop.Default, &v); err != nil {
			return fmt.Errorf("default for %s: %w", name, err)
		}
		args[name] = v
	}
	return nil
}

// plain returns a copy of v with every json.Number converted to float64,
// the representation the validator expects.
func plain(v any) any {
	switch t := v.(type) {
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = plain(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plain(e)
		}
		return out
	default:
		return v
	}
}
