package service

import (
	"net/http"

	"gateway-proxy-go/internal/model"
)

// errorBody is the JSON shape of every mapped failure.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// ErrorResult maps a proxy failure to the response the caller sees.
// Upstream trouble is a 502; configuration and everything else a 500.
func ErrorResult(err error) *model.Result {
	detail := ""
	if err != nil {
		detail = err.Error()
	}

	switch model.KindOf(err) {
	case model.KindUpstreamUnreachable, model.KindUpstreamBodyUnreadable:
		return model.JSONResult(http.StatusBadGateway, errorBody{Message: "Bad Gateway", Error: detail})
	case model.KindConfigurationMissing:
		return model.JSONResult(http.StatusInternalServerError, errorBody{Message: "Internal Server Error - Configuration Error", Error: detail})
	default:
		return model.JSONResult(http.StatusInternalServerError, errorBody{Message: "Internal Server Error", Error: detail})
	}
}
