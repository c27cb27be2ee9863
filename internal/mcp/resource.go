package mcp

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// ResourceHandler reads a resource. params holds the values captured by the
// template placeholders, keyed by placeholder name.
type ResourceHandler func(ctx context.Context, uri string, params map[string]string) (*ResourceContents, error)

// Resource is a read-only view addressed by a URI template such as
// "patient://{id}". A template without placeholders names a single URI.
type Resource struct {
	URITemplate string
	Name        string
	Description string
	MIMEType    string
	Handler     ResourceHandler
}

// ResourceContents is the payload returned by a resource read.
type ResourceContents struct {
	URI      string `json:"uri"`
	MIMEType string `json:"mimeType,omitempty"`
	Text     string `json:"text"`
}

// Templated reports whether the resource carries placeholders.
func (r *Resource) Templated() bool {
	return strings.Contains(r.URITemplate, "{")
}

var placeholderRe = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// uriPattern is a compiled resource template.
type uriPattern struct {
	re     *regexp.Regexp
	params []string
}

// compileTemplate turns each {name} into a ([^/]+) group and quotes the
// literal text between them. The result is anchored at both ends.
func compileTemplate(tmpl string) (*uriPattern, error) {
	if strings.Count(tmpl, "{") != len(placeholderRe.FindAllString(tmpl, -1)) {
		return nil, fmt.Errorf("malformed placeholder in %q", tmpl)
	}

	var b strings.Builder
	b.WriteByte('^')
	var params []string
	seen := make(map[string]bool)
	last := 0
	for _, loc := range placeholderRe.FindAllStringSubmatchIndex(tmpl, -1) {
		b.WriteString(regexp.QuoteMeta(tmpl[last:loc[0]]))
		name := tmpl[loc[2]:loc[3]]
		if seen[name] {
			return nil, fmt.Errorf("placeholder %q repeated in %q", name, tmpl)
		}
		seen[name] = true
		params = append(params, name)
		b.WriteString(`([^/]+)`)
		last = loc[1]
	}
	b.WriteString(regexp.QuoteMeta(tmpl[last:]))
	b.WriteByte('$')

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("compiling %q: %w", tmpl, err)
	}
	return &uriPattern{re: re, params: params}, nil
}

// match extracts the placeholder values from uri, positionally by name.
func (p *uriPattern) match(uri string) (map[string]string, bool) {
	m := p.re.FindStringSubmatch(uri)
	if m == nil {
		return nil, false
	}
	params := make(map[string]string, len(p.params))
	for i, name := range p.params {
		params[name] = m[i+1]
	}
	return params, true
}
