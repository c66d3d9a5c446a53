// Package service implements the core proxy forwarding logic.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"gateway-proxy-go/internal/client"
	"gateway-proxy-go/internal/headers"
	"gateway-proxy-go/internal/metrics"
	"gateway-proxy-go/internal/model"
)

// Upstream performs an outbound request and returns the fully read response.
type Upstream interface {
	Do(ctx context.Context, out *model.OutboundRequest) (*model.UpstreamResponse, error)
}

// ProxyService forwards inbound requests to the single configured origin.
type ProxyService struct {
	translator *Translator
	upstream   Upstream
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewProxyService creates a ProxyService. The metrics parameter is optional.
func NewProxyService(t *Translator, up Upstream, logger *slog.Logger, m *metrics.Metrics) *ProxyService {
	return &ProxyService{
		translator: t,
		upstream:   up,
		logger:     logger.With("component", "proxy_service"),
		metrics:    m,
	}
}

// NewUpstream adapts the concrete client for dependency injection.
func NewUpstream(c *client.UpstreamClient) Upstream { return c }

// Forward translates in, calls the upstream once and normalizes the reply.
func (s *ProxyService) Forward(ctx context.Context, in *model.InboundRequest) (*model.Result, error) {
	out, err := s.translator.Translate(in)
	if err != nil {
		return nil, fmt.Errorf("translate request: %w", err)
	}

	s.logger.Debug("forwarding request",
		"method", out.Method,
		"path", in.Path,
	)

	resp, err := s.upstream.Do(ctx, out)
	if err != nil {
		return nil, fmt.Errorf("forward to upstream: %w", err)
	}

	h := headers.FromHTTP(resp.Header)
	s.logger.Debug("upstream replied",
		"status", resp.StatusCode,
		"content_type", h.Get("content-type"),
	)

	return &model.Result{
		StatusCode: resp.StatusCode,
		Body:       resp.Body,
		Header:     h,
	}, nil
}

// Handle is Forward with every failure, panics included, mapped to a result.
func (s *ProxyService) Handle(ctx context.Context, in *model.InboundRequest) (res *model.Result) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("proxy panic", "panic", r, "path", in.Path)
			s.countFailure(model.KindInternal)
			res = ErrorResult(fmt.Errorf("panic: %v", r))
		}
	}()

	res, err := s.Forward(ctx, in)
	if err != nil {
		kind := model.KindOf(err)
		s.logger.Error("proxy error",
			"err", err,
			"kind", kind.String(),
			"timeout", client.IsTimeout(err),
			"path", in.Path,
		)
		s.countFailure(kind)
		return ErrorResult(err)
	}
	return res
}

func (s *ProxyService) countFailure(kind model.ErrorKind) {
	if s.metrics != nil {
		s.metrics.ProxyFailures.WithLabelValues(kind.String()).Inc()
	}
}
