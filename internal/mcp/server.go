package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/mcp-cliniko/internal/logging"
)

const (
	DefaultServerName    = "mcp-cliniko"
	DefaultServerVersion = "1.0.0"
)

// ServerConfig configures the protocol server.
type ServerConfig struct {
	// Name is the server implementation name (default: "mcp-cliniko")
	Name string

	// Version is the server version (default: "1.0.0")
	Version string

	Logger *logging.Logger
}

// Server binds a Dispatcher into the MCP SDK server.
type Server struct {
	mcp        *sdk.Server
	dispatcher *Dispatcher
	logger     *logging.Logger
}

// NewServer registers every tool and resource of d with a new SDK server.
func NewServer(cfg ServerConfig, d *Dispatcher) *Server {
	if cfg.Name == "" {
		cfg.Name = DefaultServerName
	}
	if cfg.Version == "" {
		cfg.Version = DefaultServerVersion
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Nop()
	}

	s := &Server{
		mcp:        sdk.NewServer(&sdk.Implementation{Name: cfg.Name, Version: cfg.Version}, nil),
		dispatcher: d,
		logger:     cfg.Logger,
	}

	for _, t := range d.registry.Tools() {
		s.mcp.AddTool(&sdk.Tool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		}, s.toolHandler(t.Name))
	}

	for _, r := range d.registry.Resources() {
		if r.Templated() {
			s.mcp.AddResourceTemplate(&sdk.ResourceTemplate{
				URITemplate: r.URITemplate,
				Name:        r.Name,
				Description: r.Description,
				MIMEType:    r.MIMEType,
			}, s.readResource)
			continue
		}
		s.mcp.AddResource(&sdk.Resource{
			URI:         r.URITemplate,
			Name:        r.Name,
			Description: r.Description,
			MIMEType:    r.MIMEType,
		}, s.readResource)
	}

	return s
}

// MCPServer exposes the SDK server, for the streamable HTTP handler.
func (s *Server) MCPServer() *sdk.Server {
	return s.mcp
}

// Run serves the protocol on stdin/stdout until ctx is done or the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info(ctx, "starting MCP server on stdio transport",
		zap.Int("tools", s.dispatcher.registry.Count()),
		zap.Int("resources", len(s.dispatcher.registry.resources)),
	)
	if err := s.mcp.Run(ctx, &sdk.StdioTransport{}); err != nil {
		return fmt.Errorf("server run failed: %w", err)
	}
	return nil
}

// toolHandler delegates to the dispatcher. Validation failures become an
// error result the client can read; other errors fail the request.
func (s *Server) toolHandler(name string) sdk.ToolHandler {
	return func(ctx context.Context, req *sdk.CallToolRequest) (*sdk.CallToolResult, error) {
		var raw json.RawMessage
		if req != nil && req.Params != nil {
			raw = req.Params.Arguments
		}
		res, err := s.dispatcher.CallTool(ctx, name, raw)
		if err != nil {
			if IsValidation(err) {
				return toSDKResult(ErrorResult("%s", err.Error())), nil
			}
			return nil, err
		}
		return toSDKResult(res), nil
	}
}

func (s *Server) readResource(ctx context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	uri := req.Params.URI
	c, err := s.dispatcher.ReadResource(ctx, uri)
	if err != nil {
		var unknown *UnknownResourceError
		if errors.As(err, &unknown) {
			return nil, sdk.ResourceNotFoundError(uri)
		}
		return nil, err
	}
	return &sdk.ReadResourceResult{
		Contents: []*sdk.ResourceContents{{URI: c.URI, MIMEType: c.MIMEType, Text: c.Text}},
	}, nil
}

func toSDKResult(res *Result) *sdk.CallToolResult {
	out := &sdk.CallToolResult{
		Content: make([]sdk.Content, 0, len(res.Content)),
		IsError: res.IsError,
	}
	for _, c := range res.Content {
		out.Content = append(out.Content, &sdk.TextContent{Text: c.Text})
	}
	if obj := structured(res.Data); obj != nil {
		out.StructuredContent = obj
	}
	return out
}

// structured returns v encoded as JSON when it is an object, which is the
// only shape structured content may take.
func structured(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil || !bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
		return nil
	}
	return data
}
