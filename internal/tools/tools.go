// Package tools registers the Cliniko tools and resources on an mcp.Builder.
//
// Handlers decode their typed input, make one client call (or run one
// workflow) and reshape the result. Failures of patient, appointment,
// invoice and billing calls come back as an error result reading
// "Failed to <action>: <message>"; failures of reference-data calls are
// returned as errors.
package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/fyrsmithlabs/mcp-cliniko/internal/cliniko"
	"github.com/fyrsmithlabs/mcp-cliniko/internal/logging"
	"github.com/fyrsmithlabs/mcp-cliniko/internal/mcp"
	"github.com/fyrsmithlabs/mcp-cliniko/internal/workflows"
)

// Options configures Register.
type Options struct {
	// Runner executes the workflow tools. When nil a runner with default
	// intervals is built over the client.
	Runner *workflows.Runner

	Logger *logging.Logger

	// Now replaces time.Now when resolving "today".
	Now func() time.Time
}

// handlers carries the dependencies shared by every tool.
type handlers struct {
	client *cliniko.Client
	runner *workflows.Runner
	logger *logging.Logger
	now    func() time.Time
}

func newHandlers(c *cliniko.Client, opts Options) *handlers {
	h := &handlers{client: c, runner: opts.Runner, logger: opts.Logger, now: opts.Now}
	if h.now == nil {
		h.now = time.Now
	}
	if h.logger == nil {
		h.logger = logging.Nop()
	}
	if h.runner == nil {
		h.runner = workflows.NewRunner(c, workflows.Config{}, workflows.WithLogger(h.logger))
	}
	return h
}

// Register adds every Cliniko tool and resource to b.
func Register(b *mcp.Builder, c *cliniko.Client, opts Options) {
	h := newHandlers(c, opts)
	h.registerPatientTools(b)
	h.registerAppointmentTools(b)
	h.registerReferenceTools(b)
	h.registerInvoiceTools(b)
	h.registerBillingTools(b)
	h.registerCaseTools(b)
	h.registerWorkflowTools(b)
	h.registerResources(b)
}

// Build registers everything plus search_tools, which searches the
// resulting registry, and returns the frozen registry.
func Build(c *cliniko.Client, opts Options) (*mcp.Registry, error) {
	b := mcp.NewBuilder()
	Register(b, c, opts)

	var reg *mcp.Registry
	b.AddTool(searchTool(func() *mcp.Registry { return reg }))

	built, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("building tool registry: %w", err)
	}
	reg = built
	return reg, nil
}

// failed renders a client failure as an error result. A cancelled ctx is
// returned as an error instead.
func failed(ctx context.Context, action string, err error) (*mcp.Result, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return mcp.ErrorResult("Failed to %s: %s", action, err.Error()), nil
}

// pageOrFirst echoes the requested page, defaulting to 1.
func pageOrFirst(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// listResult renders a page of records as
// {<key>: [...], total_entries, page, has_more}.
func listResult[T any](key string, resp *cliniko.ListResponse[T], page int) (*mcp.Result, error) {
	return mcp.JSONResult(pageData(key, resp, page))
}

func pageData[T any](key string, resp *cliniko.ListResponse[T], page int) map[string]any {
	return map[string]any{
		key:             items(resp),
		"total_entries": resp.TotalEntries,
		"page":          pageOrFirst(page),
		"has_more":      resp.HasMore(),
	}
}

// pageInput is embedded by every paged tool input.
type pageInput struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

func (p pageInput) options() cliniko.PageOptions {
	return cliniko.PageOptions{Page: p.Page, PerPage: p.PerPage}
}

func idSchema(desc string) *jsonschema.Schema {
	return mcp.Min(mcp.Integer(desc), 1)
}
