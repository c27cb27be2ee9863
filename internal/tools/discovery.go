package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/fyrsmithlabs/mcp-cliniko/internal/mcp"
)

const defaultSearchLimit = 5

type searchInput struct {
	Query    string `json:"query"`
	Category string `json:"category"`
	Limit    int    `json:"limit"`
}

type searchMatch struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Category    mcp.ToolCategory `json:"category,omitempty"`
	Score       int              `json:"score"`
	MatchReason string           `json:"match_reason"`
}

var toolCategories = []string{
	string(mcp.CategoryPatients),
	string(mcp.CategoryAppointments),
	string(mcp.CategoryReference),
	string(mcp.CategoryInvoices),
	string(mcp.CategoryBilling),
	string(mcp.CategoryCases),
	string(mcp.CategoryWorkflows),
}

// searchTool returns search_tools. get is called per invocation so the
// tool can be registered before the registry it searches is built.
func searchTool(get func() *mcp.Registry) *mcp.Tool {
	return &mcp.Tool{
		Name:        "search_tools",
		Description: "Search the available tools by name, description or keyword",
		Keywords:    []string{"discover", "find", "help"},
		InputSchema: mcp.Object(map[string]*jsonschema.Schema{
			"query":    mcp.String("Text or regular expression to match"),
			"category": mcp.Enum("Only return tools in this category", toolCategories...),
			"limit":    mcp.Default(mcp.Between(mcp.Integer("Maximum number of matches"), 1, 50), defaultSearchLimit),
		}, "query"),
		Handler: mcp.Typed(func(_ context.Context, in searchInput) (*mcp.Result, error) {
			reg := get()
			if reg == nil {
				return nil, errors.New("tool registry not built")
			}
			return searchResult(reg, in), nil
		}),
	}
}

func searchResult(reg *mcp.Registry, in searchInput) *mcp.Result {
	limit := in.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	matches := []searchMatch{}
	for _, r := range reg.Search(in.Query) {
		if in.Category != "" && string(r.Tool.Category) != in.Category {
			continue
		}
		matches = append(matches, searchMatch{
			Name:        r.Tool.Name,
			Description: r.Tool.Description,
			Category:    r.Tool.Category,
			Score:       r.Score,
			MatchReason: r.MatchReason,
		})
		if len(matches) == limit {
			break
		}
	}

	if len(matches) == 0 {
		res := mcp.TextResult(fmt.Sprintf("No tools match %q.", in.Query))
		res.Data = matches
		return res
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d matching tools:\n", len(matches))
	for _, m := range matches {
		fmt.Fprintf(&b, "\n- %s: %s (%s)", m.Name, m.Description, m.MatchReason)
	}
	return textWithData(b.String(), matches)
}
