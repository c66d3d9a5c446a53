// Package headers normalizes upstream response headers into a lower-cased,
// multi-value map suitable for a serverless gateway response.
package headers

import (
	"net/http"
	"sort"
	"strings"
)

// setCookie is the one header whose values are never comma-split.
const setCookie = "set-cookie"

// hopByHop holds the lower-cased names dropped from every normalized response.
var hopByHop = map[string]struct{}{
	"transfer-encoding":   {},
	"connection":          {},
	"keep-alive":          {},
	"proxy-authenticate":  {},
	"proxy-authorization": {},
	"te":                  {},
	"trailers":            {},
	"upgrade":             {},
}

// Normalized maps a lower-cased header name to its values in received order.
// Keys are always lower-case; callers must lower-case names before lookup.
type Normalized map[string][]string

// Get returns the first value stored under name, matched case-insensitively.
func (n Normalized) Get(name string) string {
	if vals := n[strings.ToLower(name)]; len(vals) > 0 {
		return vals[0]
	}
	return ""
}

// Field is one (name, value) pair in header iteration order.
type Field struct {
	Name  string
	Value string
}

// IsHopByHop reports whether name is a hop-by-hop header, ignoring case.
func IsHopByHop(name string) bool {
	_, ok := hopByHop[strings.ToLower(name)]
	return ok
}

// Normalize folds fields into a Normalized map.
//
// Hop-by-hop names are discarded. Set-Cookie values are kept verbatim, one
// entry each. Every other value is split on "," and each trimmed piece becomes
// its own entry, re-expanding the comma join that Fields (and most HTTP
// stacks) apply to repeated headers.
func Normalize(fields []Field) Normalized {
	out := make(Normalized, len(fields))
	for _, f := range fields {
		name := strings.ToLower(f.Name)
		if _, skip := hopByHop[name]; skip {
			continue
		}
		if name == setCookie {
			out[name] = append(out[name], f.Value)
			continue
		}
		for _, piece := range strings.Split(f.Value, ",") {
			out[name] = append(out[name], strings.TrimSpace(piece))
		}
	}
	return out
}

// Fields iterates h the way a fetch Headers object does: one field per
// distinct lower-cased name in sorted order, repeated values joined with
// ", ", except Set-Cookie which yields one field per value.
func Fields(h http.Header) []Field {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	// Sorting raw keys first keeps value order stable when a map carries
	// case variants of the same name.
	sort.Strings(keys)

	grouped := make(map[string][]string, len(keys))
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		name := strings.ToLower(k)
		if _, seen := grouped[name]; !seen {
			names = append(names, name)
		}
		grouped[name] = append(grouped[name], h[k]...)
	}
	sort.Strings(names)

	fields := make([]Field, 0, len(names))
	for _, name := range names {
		vals := grouped[name]
		if name == setCookie {
			for _, v := range vals {
				fields = append(fields, Field{Name: name, Value: v})
			}
			continue
		}
		fields = append(fields, Field{Name: name, Value: strings.Join(vals, ", ")})
	}
	return fields
}

// FromHTTP normalizes a Go response header.
func FromHTTP(h http.Header) Normalized {
	return Normalize(Fields(h))
}
