// Package mcp holds the tool and resource registry, the dispatcher that
// executes calls against it, and the binding into the MCP Go SDK server.
//
// A Registry is assembled once with a Builder and never changes afterwards.
// The Dispatcher parses and validates arguments against each tool's declared
// JSON schema before the handler runs, so handlers only ever see input that
// matches their schema. Server wires a Dispatcher into the stdio transport
// (or the streamable HTTP handler) without adding behaviour of its own.
package mcp
