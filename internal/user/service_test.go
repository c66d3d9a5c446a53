package user

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_CreateAssignsUUID(t *testing.T) {
	repo, _ := newTestRepository(t)
	svc := NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	u, err := svc.Create(ctx, Input{Name: "Ann", Email: "ann@example.com"})
	require.NoError(t, err)
	_, err = uuid.Parse(u.ID)
	assert.NoError(t, err, "id should be a UUID")

	other, err := svc.Create(ctx, Input{Name: "Ann", Email: "ann@example.com"})
	require.NoError(t, err)
	assert.NotEqual(t, u.ID, other.ID)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestService_UpdateAndDelete(t *testing.T) {
	repo, _ := newTestRepository(t)
	svc := NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.newID = func() string { return "fixed" }
	ctx := context.Background()

	_, err := svc.Create(ctx, Input{Name: "Ann", Email: "ann@example.com"})
	require.NoError(t, err)

	u, err := svc.Update(ctx, "fixed", Input{Name: "Bea", Email: "bea@example.com"})
	require.NoError(t, err)
	assert.Equal(t, User{ID: "fixed", Name: "Bea", Email: "bea@example.com"}, u)

	require.NoError(t, svc.Delete(ctx, "fixed"))
	_, err = svc.Get(ctx, "fixed")
	assert.ErrorIs(t, err, ErrNotFound)
}
