package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"gateway-proxy-go/internal/auth"
	"gateway-proxy-go/internal/model"
	"gateway-proxy-go/internal/service"
)

// Route keys served by AuthHandler.
const (
	RouteSignup  = "POST /signup"
	RouteConfirm = "POST /confirm"
)

// authErrors maps provider failures to their client response.
var authErrors = []struct {
	err     error
	status  int
	message string
}{
	{auth.ErrUsernameExists, http.StatusConflict, "An account with the given email already exists."},
	{auth.ErrCodeMismatch, http.StatusBadRequest, "Invalid verification code provided, please try again."},
	{auth.ErrExpiredCode, http.StatusBadRequest, "Invalid code provided, please request a code again."},
	{auth.ErrUserNotFound, http.StatusNotFound, "Username/client id combination not found."},
}

type confirmBody struct {
	Message string `json:"message"`
	auth.Tokens
}

// AuthHandler serves sign-up and confirmation.
type AuthHandler struct {
	svc    *auth.Service
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(svc *auth.Service, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		svc:    svc,
		logger: logger.With("component", "auth_handler"),
	}
}

// Handle dispatches on the route key. Unknown routes get 404.
func (h *AuthHandler) Handle(ctx context.Context, in *model.InboundRequest) *model.Result {
	switch in.RouteKey {
	case RouteSignup:
		if err := h.svc.Signup(ctx, in.Body); err != nil {
			return h.fail(in, err)
		}
		return model.JSONResult(http.StatusCreated, messageBody{
			Message: "User registered successfully, an OTP has been sent to your email for confirmation.",
		})

	case RouteConfirm:
		tokens, err := h.svc.Confirm(ctx, in.Body)
		if err != nil {
			return h.fail(in, err)
		}
		return model.JSONResult(http.StatusOK, confirmBody{
			Message: "Email confirmed successfully and logged in.",
			Tokens:  tokens,
		})
	}

	return notFound()
}

func (h *AuthHandler) fail(in *model.InboundRequest, err error) *model.Result {
	if res, ok := inputError(err); ok {
		return res
	}
	for _, m := range authErrors {
		if errors.Is(err, m.err) {
			return model.JSONResult(m.status, messageBody{Message: m.message})
		}
	}

	h.logger.Error("auth request failed", "err", err, "route", in.RouteKey)
	if model.KindOf(err) == model.KindConfigurationMissing {
		return service.ErrorResult(err)
	}
	return model.JSONResult(http.StatusInternalServerError, messageBody{
		Message: "Authentication operation failed",
		Error:   err.Error(),
	})
}
