package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gateway-proxy-go/internal/config"
	"gateway-proxy-go/internal/metrics"
)

// Endpoints groups the gateway functions served by the http runtime.
type Endpoints struct {
	Proxy Endpoint
	Users Endpoint
	Auth  Endpoint
}

// RegisterRoutes wires all route handlers onto the Echo instance. Anything
// not matched by a named route is proxied.
func RegisterRoutes(e *echo.Echo, cfg *config.Config, m *metrics.Metrics, health *HealthHandler, ep Endpoints) {
	e.GET("/healthz", health.Healthz)
	e.GET("/proxy/status", health.Status)

	if cfg.Metrics.Enabled && m != nil {
		e.GET(cfg.Metrics.Path, echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}

	e.POST("/users", Serve(ep.Users, RouteCreateUser))
	e.GET("/users", Serve(ep.Users, RouteListUsers))
	e.GET("/users/:id", Serve(ep.Users, RouteGetUser))
	e.PUT("/users/:id", Serve(ep.Users, RouteUpdateUser))
	e.DELETE("/users/:id", Serve(ep.Users, RouteDeleteUser))

	e.POST("/signup", Serve(ep.Auth, RouteSignup))
	e.POST("/confirm", Serve(ep.Auth, RouteConfirm))

	e.Any("/*", Serve(ep.Proxy, "$default"))
}
