package cliniko

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ListResponse is a page of records from a list endpoint.
type ListResponse[T any] struct {
	Items        []T
	TotalEntries int
	Links        Links
}

// HasMore reports whether the API advertised a next page.
func (l *ListResponse[T]) HasMore() bool {
	return l.Links.Next != ""
}

// decodeList reads an envelope of the form
// {"<key>": [...], "total_entries": n, "links": {...}}. When key is missing
// and the envelope holds exactly one other array, that array is used; more
// than one is a parse error. Each item keeps the bytes it was decoded from.
func decodeList[T any](raw json.RawMessage, key string) (*ListResponse[T], error) {
	out := &ListResponse[T]{Items: []T{}}
	if len(raw) == 0 {
		return out, nil
	}

	var env map[string]json.RawMessage
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	if v, ok := env["total_entries"]; ok {
		if err := json.Unmarshal(v, &out.TotalEntries); err != nil {
			return nil, fmt.Errorf("%w: total_entries: %v", ErrParse, err)
		}
	}
	if v, ok := env["links"]; ok {
		if err := json.Unmarshal(v, &out.Links); err != nil {
			return nil, fmt.Errorf("%w: links: %v", ErrParse, err)
		}
	}

	items, ok := env[key]
	if !ok {
		var err error
		if items, ok, err = soleArray(env, key); err != nil {
			return nil, err
		}
	}
	if !ok || string(items) == "null" {
		return out, nil
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(items, &raws); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, key, err)
	}
	out.Items = make([]T, len(raws))
	for i, r := range raws {
		if err := json.Unmarshal(r, &out.Items[i]); err != nil {
			return nil, fmt.Errorf("%w: %s[%d]: %v", ErrParse, key, i, err)
		}
		if s, ok := any(&out.Items[i]).(rawSetter); ok {
			s.setRaw(r)
		}
	}
	return out, nil
}

// soleArray finds the only array-valued member of env besides the paging
// fields.
func soleArray(env map[string]json.RawMessage, key string) (json.RawMessage, bool, error) {
	var names []string
	for k, v := range env {
		if k == "links" || k == "total_entries" {
			continue
		}
		if len(v) > 0 && v[0] == '[' {
			names = append(names, k)
		}
	}
	switch len(names) {
	case 0:
		return nil, false, nil
	case 1:
		return env[names[0]], true, nil
	default:
		sort.Strings(names)
		return nil, false, fmt.Errorf("%w: no %q in envelope and several candidates (%s)",
			ErrParse, key, strings.Join(names, ", "))
	}
}
