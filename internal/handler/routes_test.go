package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"gateway-proxy-go/internal/client"
	"gateway-proxy-go/internal/config"
	"gateway-proxy-go/internal/metrics"
	"gateway-proxy-go/internal/model"
	"gateway-proxy-go/internal/service"
)

func TestRegisterRoutes_Wiring(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Connection", "close")
		_, _ = w.Write([]byte(`{"path":"` + r.URL.Path + `"}`))
	}))
	defer upstream.Close()

	cfg := &config.Config{
		Upstream: config.UpstreamConfig{
			BaseURL:         upstream.URL,
			TimeoutSeconds:  10,
			IdleConnections: 10,
		},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
	t.Setenv(config.KeyTargetURL, "")
	t.Setenv(config.KeyUsersTable, "")

	logger := discardLogger()
	m := metrics.New()
	uc := client.NewUpstreamClient(cfg, logger, m)
	proxy := service.NewProxyService(service.NewTranslator(cfg), uc, logger, m)

	e := echo.New()
	RegisterRoutes(e, cfg, m, NewHealthHandler(cfg, "test"), Endpoints{
		Proxy: proxy,
		Users: newTestUsersHandler(t, usersLookup),
		Auth:  &recordingEndpoint{res: &model.Result{StatusCode: http.StatusCreated}},
	})

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"GET /healthz", http.MethodGet, "/healthz", "", http.StatusOK},
		{"GET /proxy/status", http.MethodGet, "/proxy/status", "", http.StatusOK},
		{"GET /metrics", http.MethodGet, "/metrics", "", http.StatusOK},
		{"GET /users", http.MethodGet, "/users", "", http.StatusOK},
		{"GET /users/:id missing", http.MethodGet, "/users/nope", "", http.StatusNotFound},
		{"POST /users invalid", http.MethodPost, "/users", `{}`, http.StatusBadRequest},
		{"POST /signup", http.MethodPost, "/signup", `{"email":"a@b.co"}`, http.StatusCreated},
		{"GET proxied", http.MethodGet, "/anything/else?q=1", "", http.StatusOK},
		{"POST proxied", http.MethodPost, "/items", `{"a":1}`, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body io.Reader = http.NoBody
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			req := httptest.NewRequest(tt.method, tt.path, body)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestServe_ProxyResponseHeaders(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Add("Set-Cookie", "a=1")
		w.Header().Add("Set-Cookie", "b=2")
		w.Header().Set("X-Request-Id", "abc")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer upstream.Close()

	cfg := &config.Config{Upstream: config.UpstreamConfig{TimeoutSeconds: 10, IdleConnections: 10}}
	logger := discardLogger()
	proxy := service.NewProxyService(
		service.NewTranslator(mapLookup{config.KeyTargetURL: upstream.URL}),
		client.NewUpstreamClient(cfg, logger, nil), logger, nil)

	e := echo.New()
	e.Any("/*", Serve(proxy, "$default"))

	req := httptest.NewRequest(http.MethodGet, "/x", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if got := rec.Header().Values("Set-Cookie"); len(got) != 2 {
		t.Errorf("Set-Cookie = %v, want two values", got)
	}
	if rec.Header().Get("X-Request-Id") != "abc" {
		t.Errorf("X-Request-Id = %q", rec.Header().Get("X-Request-Id"))
	}
	if rec.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", rec.Body.String())
	}
}

func TestServe_RequestConversion(t *testing.T) {
	ep := &recordingEndpoint{res: &model.Result{StatusCode: http.StatusOK, Body: "ok"}}

	e := echo.New()
	e.PUT("/users/:id", Serve(ep, RouteUpdateUser))

	tests := []struct {
		name     string
		body     string
		wantBody *string
	}{
		{"with body", `{"name":"x"}`, model.StringPtr(`{"name":"x"}`)},
		{"empty body is absent", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/users/42?v=1", strings.NewReader(tt.body))
			req.Header.Set("X-Trace", "t1")
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			in := ep.got
			if in == nil {
				t.Fatal("endpoint not called")
			}
			if in.RouteKey != RouteUpdateUser || in.PathParams["id"] != "42" {
				t.Errorf("route = %q params = %v", in.RouteKey, in.PathParams)
			}
			if in.Path != "/users/42" || in.RawQuery != "v=1" {
				t.Errorf("path = %q query = %q", in.Path, in.RawQuery)
			}
			if in.Header.Get("X-Trace") != "t1" {
				t.Errorf("X-Trace = %q", in.Header.Get("X-Trace"))
			}
			if (in.Body == nil) != (tt.wantBody == nil) || (in.Body != nil && *in.Body != *tt.wantBody) {
				t.Errorf("Body = %v, want %v", in.Body, tt.wantBody)
			}
			if rec.Body.String() != "ok" {
				t.Errorf("response body = %q", rec.Body.String())
			}
		})
	}
}

func TestServe_EndpointContext(t *testing.T) {
	type key struct{}
	ep := endpointFunc(func(ctx context.Context, _ *model.InboundRequest) *model.Result {
		if ctx.Value(key{}) != "v" {
			t.Error("request context not propagated")
		}
		return &model.Result{StatusCode: http.StatusAccepted}
	})

	e := echo.New()
	e.GET("/", Serve(ep, "$default"))

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req = req.WithContext(context.WithValue(req.Context(), key{}, "v"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusAccepted)
	}
}
