package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"gateway-proxy-go/internal/config"
)

// Version is a string type for dependency injection of the build version.
type Version string

// HealthHandler serves health and status endpoints.
type HealthHandler struct {
	cfg     *config.Config
	version Version
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(cfg *config.Config, v Version) *HealthHandler {
	return &HealthHandler{cfg: cfg, version: v}
}

// Healthz returns a simple OK response for liveness probes.
func (h *HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Status returns proxy status information. An unset target is reported as
// an empty upstream_url with status "unconfigured".
func (h *HealthHandler) Status(c echo.Context) error {
	status := "ok"
	target, err := h.cfg.String(config.KeyTargetURL)
	if err != nil {
		status = "unconfigured"
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":       status,
		"version":      string(h.version),
		"upstream_url": target,
	})
}
