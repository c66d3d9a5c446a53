package handler

import (
	"context"
	"errors"
	"net/http"

	"gateway-proxy-go/internal/model"
)

// Endpoint serves one gateway function. Handle never fails: every error is
// already mapped to a Result.
type Endpoint interface {
	Handle(ctx context.Context, in *model.InboundRequest) *model.Result
}

type messageBody struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func notFound() *model.Result {
	return model.JSONResult(http.StatusNotFound, messageBody{Message: "Not Found"})
}

// inputError maps a model.DecodeInput failure. ok is false for any other error.
func inputError(err error) (res *model.Result, ok bool) {
	switch {
	case errors.Is(err, model.ErrInvalidBody):
		return model.JSONResult(http.StatusBadRequest, messageBody{Message: "Invalid request body", Error: err.Error()}), true
	case errors.Is(err, model.ErrInvalidInput):
		return model.JSONResult(http.StatusBadRequest, messageBody{Message: "Invalid input data", Error: err.Error()}), true
	}
	return nil, false
}
