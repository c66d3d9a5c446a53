package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"gateway-proxy-go/internal/model"
	"gateway-proxy-go/internal/service"
	"gateway-proxy-go/internal/user"
)

// Route keys served by UsersHandler.
const (
	RouteCreateUser = "POST /users"
	RouteListUsers  = "GET /users"
	RouteGetUser    = "GET /users/{id}"
	RouteUpdateUser = "PUT /users/{id}"
	RouteDeleteUser = "DELETE /users/{id}"
)

// UsersHandler serves the users CRUD routes.
type UsersHandler struct {
	svc    *user.Service
	logger *slog.Logger
}

// NewUsersHandler creates a UsersHandler.
func NewUsersHandler(svc *user.Service, logger *slog.Logger) *UsersHandler {
	return &UsersHandler{
		svc:    svc,
		logger: logger.With("component", "users_handler"),
	}
}

// Handle dispatches on the route key. Unknown routes get 404.
func (h *UsersHandler) Handle(ctx context.Context, in *model.InboundRequest) *model.Result {
	id := in.PathParams["id"]

	switch in.RouteKey {
	case RouteCreateUser:
		var input user.Input
		if err := model.DecodeInput(in.Body, &input); err != nil {
			return h.fail(in, err)
		}
		u, err := h.svc.Create(ctx, input)
		if err != nil {
			return h.fail(in, err)
		}
		return model.JSONResult(http.StatusCreated, u)

	case RouteListUsers:
		users, err := h.svc.List(ctx)
		if err != nil {
			return h.fail(in, err)
		}
		return model.JSONResult(http.StatusOK, users)

	case RouteGetUser:
		u, err := h.svc.Get(ctx, id)
		if err != nil {
			return h.fail(in, err)
		}
		return model.JSONResult(http.StatusOK, u)

	case RouteUpdateUser:
		var input user.Input
		if err := model.DecodeInput(in.Body, &input); err != nil {
			return h.fail(in, err)
		}
		u, err := h.svc.Update(ctx, id, input)
		if err != nil {
			return h.fail(in, err)
		}
		return model.JSONResult(http.StatusOK, u)

	case RouteDeleteUser:
		if err := h.svc.Delete(ctx, id); err != nil {
			return h.fail(in, err)
		}
		return model.JSONResult(http.StatusOK, map[string]string{"message": "User deleted", "id": id})
	}

	return notFound()
}

func (h *UsersHandler) fail(in *model.InboundRequest, err error) *model.Result {
	if res, ok := inputError(err); ok {
		return res
	}
	if errors.Is(err, user.ErrNotFound) {
		return model.JSONResult(http.StatusNotFound, messageBody{Message: "User not found"})
	}
	h.logger.Error("users request failed",
		"err", err,
		"route", in.RouteKey,
		"kind", model.KindOf(err).String(),
	)
	return service.ErrorResult(err)
}
