package handler

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"gateway-proxy-go/internal/model"
)

// Lambda function names accepted by SelectEndpoint.
const (
	FunctionProxy = "proxy"
	FunctionUsers = "users"
	FunctionAuth  = "auth"
)

// SelectEndpoint returns the endpoint serving the named function.
func SelectEndpoint(function string, proxy, users, auth Endpoint) (Endpoint, error) {
	switch function {
	case FunctionProxy:
		return proxy, nil
	case FunctionUsers:
		return users, nil
	case FunctionAuth:
		return auth, nil
	}
	return nil, fmt.Errorf("unknown function %q", function)
}

// LambdaHandler serves API Gateway HTTP API (payload v2) events.
type LambdaHandler struct {
	endpoint Endpoint
	logger   *slog.Logger
}

// NewLambdaHandler creates a LambdaHandler for ep.
func NewLambdaHandler(ep Endpoint, logger *slog.Logger) *LambdaHandler {
	return &LambdaHandler{
		endpoint: ep,
		logger:   logger.With("component", "lambda_handler"),
	}
}

// Invoke handles one event. Failures are always reported in the response,
// never as an invocation error.
func (h *LambdaHandler) Invoke(ctx context.Context, ev events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	in, err := inboundFromEvent(ev)
	if err != nil {
		h.logger.Warn("rejecting event", "err", err, "route", ev.RouteKey)
		return toResponse(model.JSONResult(http.StatusBadRequest, messageBody{
			Message: "Invalid request body",
			Error:   err.Error(),
		})), nil
	}
	return toResponse(h.endpoint.Handle(ctx, in)), nil
}

func inboundFromEvent(ev events.APIGatewayV2HTTPRequest) (*model.InboundRequest, error) {
	// API Gateway lower-cases header names; Add canonicalizes them so the
	// HTTP client recognizes its own framing headers.
	header := make(http.Header, len(ev.Headers)+1)
	for k, v := range ev.Headers {
		header.Add(k, v)
	}
	// Payload v2 moves request cookies out of the headers.
	if len(ev.Cookies) > 0 {
		header.Set("Cookie", strings.Join(ev.Cookies, "; "))
	}

	in := &model.InboundRequest{
		Method:     ev.RequestContext.HTTP.Method,
		Path:       ev.RawPath,
		RawQuery:   ev.RawQueryString,
		Header:     header,
		RouteKey:   ev.RouteKey,
		PathParams: ev.PathParameters,
	}
	if in.Path == "" {
		in.Path = ev.RequestContext.HTTP.Path
	}

	if ev.Body != "" {
		body := ev.Body
		if ev.IsBase64Encoded {
			raw, err := base64.StdEncoding.DecodeString(ev.Body)
			if err != nil {
				return nil, fmt.Errorf("decode base64 body: %w", err)
			}
			body = string(raw)
		}
		in.Body = &body
	}
	return in, nil
}

func toResponse(res *model.Result) events.APIGatewayV2HTTPResponse {
	return events.APIGatewayV2HTTPResponse{
		StatusCode:        res.StatusCode,
		Body:              res.Body,
		MultiValueHeaders: res.Header,
	}
}
