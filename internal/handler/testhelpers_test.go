package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"gateway-proxy-go/internal/auth"
	"gateway-proxy-go/internal/config"
	"gateway-proxy-go/internal/model"
	"gateway-proxy-go/internal/user"
)

type mapLookup map[string]string

func (m mapLookup) String(key string) (string, error) {
	if v := m[key]; v != "" {
		return v, nil
	}
	return "", fmt.Errorf("%s: %w", key, config.ErrMissing)
}

// endpointFunc adapts a function to Endpoint.
type endpointFunc func(ctx context.Context, in *model.InboundRequest) *model.Result

func (f endpointFunc) Handle(ctx context.Context, in *model.InboundRequest) *model.Result {
	return f(ctx, in)
}

// recordingEndpoint captures the last request and answers with res.
type recordingEndpoint struct {
	got *model.InboundRequest
	res *model.Result
}

func (r *recordingEndpoint) Handle(_ context.Context, in *model.InboundRequest) *model.Result {
	r.got = in
	return r.res
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func newTestUsersHandler(t *testing.T, lookup config.Lookup) *UsersHandler {
	t.Helper()
	repo := user.NewRedisRepository(newRedisClient(t), lookup)
	return NewUsersHandler(user.NewService(repo, discardLogger()), discardLogger())
}

// codeSink keeps the last confirmation code per email.
type codeSink map[string]string

func (s codeSink) Send(_ context.Context, email, code string) error {
	s[email] = code
	return nil
}

func newTestAuthHandler(t *testing.T, cfg *config.Config) (*AuthHandler, codeSink) {
	t.Helper()
	sink := codeSink{}
	provider := auth.NewRedisProvider(newRedisClient(t), cfg, sink)
	svc := auth.NewService(provider, cfg, discardLogger())
	return NewAuthHandler(svc, discardLogger()), sink
}

func decodeMap(t *testing.T, body string) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		t.Fatalf("unmarshal %q: %v", body, err)
	}
	return out
}
