package http

import "github.com/fyrsmithlabs/mcp-cliniko/internal/mcp"

// CountByCategory returns the number of registered tools per category.
// Tools registered without a category are counted under "uncategorized".
func CountByCategory(reg *mcp.Registry) map[string]int {
	counts := make(map[string]int)
	if reg == nil {
		return counts
	}
	for _, t := range reg.Tools() {
		key := string(t.Category)
		if key == "" {
			key = "uncategorized"
		}
		counts[key]++
	}
	return counts
}
