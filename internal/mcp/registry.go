package mcp

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

// Builder collects tools and resources before they are frozen into a
// Registry. It is not safe for concurrent use.
type Builder struct {
	tools     []*Tool
	resources []*Resource
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// AddTool queues a tool. Problems are reported by Build.
func (b *Builder) AddTool(t *Tool) *Builder {
	b.tools = append(b.tools, t)
	return b
}

// AddResource queues a resource. Problems are reported by Build.
func (b *Builder) AddResource(r *Resource) *Builder {
	b.resources = append(b.resources, r)
	return b
}

// registeredTool is a tool with its resolved validator.
type registeredTool struct {
	*Tool
	schema *jsonschema.Resolved
}

// registeredResource is a resource with its compiled template.
type registeredResource struct {
	*Resource
	pattern *uriPattern
}

// Registry is the immutable set of tools and resources served by a
// Dispatcher. Safe for concurrent reads.
type Registry struct {
	tools     []*registeredTool
	byName    map[string]*registeredTool
	resources []*registeredResource
}

// Build validates every queued tool and resource and returns the frozen
// registry. It fails on empty or duplicate names, missing handlers, input
// schemas that are not objects or do not resolve, and URI templates that do
// not compile.
func (b *Builder) Build() (*Registry, error) {
	r := &Registry{byName: make(map[string]*registeredTool, len(b.tools))}

	for _, t := range b.tools {
		if t == nil || t.Name == "" {
			return nil, fmt.Errorf("tool: %w", ErrEmptyName)
		}
		if _, dup := r.byName[t.Name]; dup {
			return nil, fmt.Errorf("tool %s already registered", t.Name)
		}
		if t.Handler == nil {
			return nil, fmt.Errorf("tool %s has no handler", t.Name)
		}
		if t.InputSchema == nil || t.InputSchema.Type != "object" {
			return nil, fmt.Errorf("tool %s: input schema must be an object", t.Name)
		}
		resolved, err := t.InputSchema.Resolve(&jsonschema.ResolveOptions{})
		if err != nil {
			return nil, fmt.Errorf("tool %s: resolving input schema: %w", t.Name, err)
		}
		rt := &registeredTool{Tool: t, schema: resolved}
		r.tools = append(r.tools, rt)
		r.byName[t.Name] = rt
	}

	seen := make(map[string]bool, len(b.resources))
	for _, res := range b.resources {
		if res == nil || res.URITemplate == "" {
			return nil, fmt.Errorf("resource: %w", ErrEmptyName)
		}
		if seen[res.URITemplate] {
			return nil, fmt.Errorf("resource %s already registered", res.URITemplate)
		}
		if res.Handler == nil {
			return nil, fmt.Errorf("resource %s has no handler", res.URITemplate)
		}
		pattern, err := compileTemplate(res.URITemplate)
		if err != nil {
			return nil, fmt.Errorf("resource %s: %w", res.URITemplate, err)
		}
		seen[res.URITemplate] = true
		r.resources = append(r.resources, &registeredResource{Resource: res, pattern: pattern})
	}

	return r, nil
}

// Tools returns the tools in registration order.
func (r *Registry) Tools() []*Tool {
	out := make([]*Tool, len(r.tools))
	for i, t := range r.tools {
		out[i] = t.Tool
	}
	return out
}

// Tool returns the named tool.
func (r *Registry) Tool(name string) (*Tool, bool) {
	t, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return t.Tool, true
}

// Resources returns the resources in registration order.
func (r *Registry) Resources() []*Resource {
	out := make([]*Resource, len(r.resources))
	for i, res := range r.resources {
		out[i] = res.Resource
	}
	return out
}

// ListByCategory returns the tools in one category, in registration order.
func (r *Registry) ListByCategory(category ToolCategory) []*Tool {
	var out []*Tool
	for _, t := range r.tools {
		if t.Category == category {
			out = append(out, t.Tool)
		}
	}
	return out
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	return len(r.tools)
}

// SearchResult is a tool matched by Search.
type SearchResult struct {
	Tool *Tool `json:"tool"`

	// Score indicates match quality (higher is better).
	// 3 = exact name match
	// 2 = name contains query
	// 1 = description/keywords match
	Score int `json:"score"`

	MatchReason string `json:"match_reason"`
}

// Search finds tools matching query, case-insensitively, against names,
// descriptions and keywords. A query that compiles as a regular expression
// is also applied as one.
func (r *Registry) Search(query string) []*SearchResult {
	if query == "" {
		return nil
	}

	queryLower := strings.ToLower(query)
	var regex *regexp.Regexp
	if re, err := regexp.Compile("(?i)" + query); err == nil {
		regex = re
	}

	var results []*SearchResult
	for _, rt := range r.tools {
		if res := scoreTool(rt.Tool, queryLower, regex); res != nil {
			results = append(results, res)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

func scoreTool(t *Tool, queryLower string, regex *regexp.Regexp) *SearchResult {
	nameLower := strings.ToLower(t.Name)
	switch {
	case nameLower == queryLower:
		return &SearchResult{Tool: t, Score: 3, MatchReason: "exact name match"}
	case strings.Contains(nameLower, queryLower):
		return &SearchResult{Tool: t, Score: 2, MatchReason: "name contains query"}
	case regex != nil && regex.MatchString(t.Name):
		return &SearchResult{Tool: t, Score: 2, MatchReason: "name matches pattern"}
	case strings.Contains(strings.ToLower(t.Description), queryLower):
		return &SearchResult{Tool: t, Score: 1, MatchReason: "description contains query"}
	case regex != nil && regex.MatchString(t.Description):
		return &SearchResult{Tool: t, Score: 1, MatchReason: "description matches pattern"}
	}
	for _, kw := range t.Keywords {
		if strings.Contains(strings.ToLower(kw), queryLower) || (regex != nil && regex.MatchString(kw)) {
			return &SearchResult{Tool: t, Score: 1, MatchReason: "keyword match"}
		}
	}
	return nil
}

// resolveResource returns the first resource whose template matches uri.
func (r *Registry) resolveResource(uri string) (*registeredResource, map[string]string, bool) {
	for _, res := range r.resources {
		if params, ok := res.pattern.match(uri); ok {
			return res, params, true
		}
	}
	return nil, nil, false
}
