package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"gateway-proxy-go/internal/model"
)

// Serve adapts ep to an echo route. routeKey is passed through as the
// InboundRequest route key, and echo path params become PathParams.
func Serve(ep Endpoint, routeKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()

		data, err := io.ReadAll(req.Body)
		if err != nil {
			var he *echo.HTTPError
			if errors.As(err, &he) {
				return he
			}
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body").SetInternal(err)
		}

		in := &model.InboundRequest{
			Method:   req.Method,
			Path:     req.URL.Path,
			RawQuery: req.URL.RawQuery,
			Header:   req.Header,
			RouteKey: routeKey,
		}
		// A local server cannot tell an empty body from an absent one.
		if len(data) > 0 {
			in.Body = model.StringPtr(string(data))
		}
		if names := c.ParamNames(); len(names) > 0 {
			in.PathParams = make(map[string]string, len(names))
			for i, name := range names {
				in.PathParams[name] = c.ParamValues()[i]
			}
		}

		return writeResult(c, ep.Handle(req.Context(), in))
	}
}

func writeResult(c echo.Context, res *model.Result) error {
	h := c.Response().Header()
	for name, vals := range res.Header {
		for _, v := range vals {
			h.Add(name, v)
		}
	}
	c.Response().WriteHeader(res.StatusCode)
	if res.Body == "" {
		return nil
	}
	_, err := io.WriteString(c.Response(), res.Body)
	return err
}
