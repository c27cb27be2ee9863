package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

// ToolCategory groups tools by the remote resource they operate on.
type ToolCategory string

const (
	CategoryPatients     ToolCategory = "patients"
	CategoryAppointments ToolCategory = "appointments"
	CategoryReference    ToolCategory = "reference"
	CategoryInvoices     ToolCategory = "invoices"
	CategoryBilling      ToolCategory = "billing"
	CategoryCases        ToolCategory = "cases"
	CategoryWorkflows    ToolCategory = "workflows"
)

// Tool is a named operation with a declared input schema and the handler
// that executes it. Schema and handler are registered together.
type Tool struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
	Handler     Handler

	// Category and Keywords only feed Registry.Search.
	Category ToolCategory
	Keywords []string
}

// Handler executes a tool against arguments that already passed schema
// validation. Returning an error surfaces a protocol-level failure; user
// facing failures belong in an ErrorResult.
type Handler func(ctx context.Context, args Args) (*Result, error)

// Args are the parsed arguments of a tool call.
type Args map[string]any

// Decode copies the arguments into dst through a JSON round trip.
func (a Args) Decode(dst any) error {
	data, err := json.Marshal(map[string]any(a))
	if err != nil {
		return fmt.Errorf("encoding arguments: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decoding arguments: %w", err)
	}
	return nil
}

// Typed adapts a handler taking a typed input struct.
func Typed[T any](fn func(ctx context.Context, in T) (*Result, error)) Handler {
	return func(ctx context.Context, args Args) (*Result, error) {
		var in T
		if err := args.Decode(&in); err != nil {
			return nil, err
		}
		return fn(ctx, in)
	}
}

// Content is one block of a tool result.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Result is what a tool returns: content blocks for display plus an
// optional raw value for programmatic consumers.
type Result struct {
	Content []Content `json:"content"`
	Data    any       `json:"data,omitempty"`
	IsError bool      `json:"isError,omitempty"`
}

// Text joins the text of every content block.
func (r *Result) Text() string {
	if r == nil {
		return ""
	}
	parts := make([]string, len(r.Content))
	for i, c := range r.Content {
		parts[i] = c.Text
	}
	return strings.Join(parts, "\n")
}

// TextResult returns a single text block.
func TextResult(text string) *Result {
	return &Result{Content: []Content{{Type: "text", Text: text}}}
}

// JSONResult renders v as indented JSON text and keeps v as Data.
func JSONResult(v any) (*Result, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	res := TextResult(string(data))
	res.Data = v
	return res, nil
}

// ErrorResult returns a single text block flagged as an error.
func ErrorResult(format string, args ...any) *Result {
	res := TextResult(fmt.Sprintf(format, args...))
	res.IsError = true
	return res
}
