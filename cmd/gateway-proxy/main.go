package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"gateway-proxy-go/internal/auth"
	"gateway-proxy-go/internal/client"
	"gateway-proxy-go/internal/config"
	"gateway-proxy-go/internal/handler"
	"gateway-proxy-go/internal/metrics"
	"gateway-proxy-go/internal/middleware"
	"gateway-proxy-go/internal/service"
	"gateway-proxy-go/internal/user"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	var cli config.CLI
	kong.Parse(&cli,
		kong.Name("gateway-proxy"),
		kong.Description("Serverless gateway functions: transparent proxy, users and auth."),
		kong.Vars{"version": fmt.Sprintf("%s (%s, %s)", version, commit, date)},
	)

	fx.New(
		fx.Provide(
			func() *config.CLI { return &cli },
			func() handler.Version { return handler.Version(version) },
			config.Load,
			func(cfg *config.Config) config.Lookup { return cfg },
			newLogger,
			metrics.New,
			newRedisClient,

			client.NewUpstreamClient,
			service.NewUpstream,
			service.NewTranslator,
			service.NewProxyService,

			fx.Annotate(user.NewRedisRepository, fx.As(new(user.Repository))),
			user.NewService,

			fx.Annotate(auth.NewLogSender, fx.As(new(auth.CodeSender))),
			fx.Annotate(auth.NewRedisProvider, fx.As(new(auth.IdentityProvider))),
			auth.NewService,

			handler.NewUsersHandler,
			handler.NewAuthHandler,
			handler.NewHealthHandler,
			newEndpoints,
		),
		fx.Invoke(warnConfigPermissions, run),
	).Run()
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	switch strings.ToLower(cfg.Log.Format) {
	case "text":
		h = slog.NewTextHandler(os.Stdout, opts)
	default:
		h = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(h)
}

// newRedisClient builds the shared users/auth store client. Connections are
// made lazily, so the proxy function never dials Redis.
func newRedisClient(lc fx.Lifecycle, cfg *config.Config) (redis.UniversalClient, error) {
	opts, err := redis.ParseURL(cfg.Users.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error { return rdb.Close() },
	})
	return rdb, nil
}

func newEndpoints(proxy *service.ProxyService, users *handler.UsersHandler, a *handler.AuthHandler) handler.Endpoints {
	return handler.Endpoints{Proxy: proxy, Users: users, Auth: a}
}

func newEcho(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Inbound timeouts to mitigate slow-client attacks.
	e.Server.ReadTimeout = 30 * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.Upstream.TimeoutSeconds+5) * time.Second
	e.Server.IdleTimeout = 120 * time.Second
	e.Server.ReadHeaderTimeout = 10 * time.Second

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(logger))
	if cfg.Metrics.Enabled {
		e.Use(middleware.MetricsMiddleware(m, cfg.Metrics.Path))
	}
	e.Use(echomw.BodyLimit(fmt.Sprintf("%dB", cfg.Server.BodyMaxBytes)))
	e.Use(middleware.SecurityHeaders())

	if cfg.Server.RateLimit.Enabled {
		e.Use(middleware.RateLimiter(cfg.Server.RateLimit.RequestsPerSecond))
		logger.Info("rate limiter enabled", "rps", cfg.Server.RateLimit.RequestsPerSecond)
	}

	return e
}

func warnConfigPermissions(cfg *config.Config, logger *slog.Logger) {
	cfg.WarnPermissions(logger)
}

type runParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	CLI        *config.CLI
	Config     *config.Config
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
	Health     *handler.HealthHandler
	Endpoints  handler.Endpoints
}

func run(p runParams) error {
	switch p.CLI.Runtime {
	case "http":
		e := newEcho(p.Config, p.Logger, p.Metrics)
		handler.RegisterRoutes(e, p.Config, p.Metrics, p.Health, p.Endpoints)
		startServer(p.Lifecycle, e, p.Config, p.Logger)
		return nil
	case "lambda":
		ep, err := handler.SelectEndpoint(p.CLI.Function, p.Endpoints.Proxy, p.Endpoints.Users, p.Endpoints.Auth)
		if err != nil {
			return err
		}
		startLambda(p.Lifecycle, handler.NewLambdaHandler(ep, p.Logger), p.CLI.Function, p.Logger)
		return nil
	}
	return errors.New("unknown runtime " + p.CLI.Runtime)
}

func startServer(lc fx.Lifecycle, e *echo.Echo, cfg *config.Config, logger *slog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			addr := cfg.Server.Addr()
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("bind %s: %w", addr, err)
			}
			logger.Info("starting server", "addr", addr)
			go func() {
				if err := e.Server.Serve(ln); err != nil && err != http.ErrServerClosed {
					logger.Error("server error", "err", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("shutting down server")
			return e.Shutdown(ctx)
		},
	})
}

// startLambda hands the process to the Lambda runtime loop, which never
// returns while the function is live.
func startLambda(lc fx.Lifecycle, h *handler.LambdaHandler, function string, logger *slog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			logger.Info("starting lambda runtime", "function", function)
			go lambda.Start(h.Invoke)
			return nil
		},
	})
}
