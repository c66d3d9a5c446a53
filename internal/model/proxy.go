// Package model defines shared types for the proxy.
package model

import (
	"encoding/json"
	"net/http"

	"gateway-proxy-go/internal/headers"
)

// InboundRequest is a gateway event reduced to what the proxy and the
// collaborator endpoints need.
type InboundRequest struct {
	Method   string
	Path     string
	RawQuery string // without the leading "?"
	Header   http.Header
	Body     *string // nil when the event carried no body

	RouteKey   string // e.g. "GET /users/{id}"; empty outside a routed gateway
	PathParams map[string]string
}

// OutboundRequest describes the call made to the upstream origin.
type OutboundRequest struct {
	Method string
	URL    string
	Header http.Header
	Body   *string // nil means no body is sent
}

// UpstreamResponse is the fully read upstream reply.
type UpstreamResponse struct {
	StatusCode int
	Header     http.Header
	Body       string
}

// Result is what the runtime hands back to the caller.
type Result struct {
	StatusCode int
	Body       string
	Header     headers.Normalized
}

// JSONResult builds a Result with a JSON body and a content-type header.
// A value that cannot be encoded degrades to a bare 500.
func JSONResult(status int, v any) *Result {
	b, err := json.Marshal(v)
	if err != nil {
		return &Result{
			StatusCode: http.StatusInternalServerError,
			Body:       `{"message":"Internal Server Error"}`,
			Header:     headers.Normalized{"content-type": {"application/json"}},
		}
	}
	return &Result{
		StatusCode: status,
		Body:       string(b),
		Header:     headers.Normalized{"content-type": {"application/json"}},
	}
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }
