package cliniko

import (
	"net/url"
	"strconv"
	"strings"
)

// query builds a query string that keeps parameters in insertion order.
// Zero values are treated as "not supplied" and skipped.
type query struct {
	parts []string
}

func (q *query) add(key, value string) {
	q.parts = append(q.parts, url.QueryEscape(key)+"="+url.QueryEscape(value))
}

func (q *query) str(key, value string) *query {
	if value != "" {
		q.add(key, value)
	}
	return q
}

func (q *query) int(key string, value int) *query {
	if value != 0 {
		q.add(key, strconv.Itoa(value))
	}
	return q
}

func (q *query) id(key string, value ID) *query {
	if value != 0 {
		q.add(key, value.String())
	}
	return q
}

// encode returns "?a=1&b=2", or "" when nothing was supplied.
func (q *query) encode() string {
	if q == nil || len(q.parts) == 0 {
		return ""
	}
	return "?" + strings.Join(q.parts, "&")
}

// PageOptions selects a page of a list endpoint.
type PageOptions struct {
	Page    int
	PerPage int
}

func (o PageOptions) query() *query {
	return new(query).int("page", o.Page).int("per_page", o.PerPage)
}
