package user

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gateway-proxy-go/internal/config"
	"gateway-proxy-go/internal/model"
)

type mapLookup map[string]string

func (m mapLookup) String(key string) (string, error) {
	if v := m[key]; v != "" {
		return v, nil
	}
	return "", fmt.Errorf("%s: %w", key, config.ErrMissing)
}

func newTestRepository(t *testing.T) (*RedisRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisRepository(client, mapLookup{config.KeyUsersTable: "users"}), mr
}

func TestRedisRepository_CreateAndGet(t *testing.T) {
	repo, mr := newTestRepository(t)
	ctx := context.Background()

	u := User{ID: "u1", Name: "Ann", Email: "ann@example.com"}
	created, err := repo.Create(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, u, created)

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, u, got)

	assert.Equal(t, "Ann", mr.HGet("users:user:u1", "name"))
	ok, err := mr.SIsMember("users:ids", "u1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisRepository_GetMissing(t *testing.T) {
	repo, _ := newTestRepository(t)

	_, err := repo.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisRepository_List(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	users, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
	assert.NotNil(t, users)

	for _, u := range []User{
		{ID: "b", Name: "Bo", Email: "bo@example.com"},
		{ID: "a", Name: "Al", Email: "al@example.com"},
	} {
		_, err := repo.Create(ctx, u)
		require.NoError(t, err)
	}

	users, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "a", users[0].ID)
	assert.Equal(t, "b", users[1].ID)
}

func TestRedisRepository_Update(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, User{ID: "u1", Name: "Ann", Email: "ann@example.com"})
	require.NoError(t, err)

	updated, err := repo.Update(ctx, User{ID: "u1", Name: "Anna", Email: "anna@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Anna", updated.Name)

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, User{ID: "u1", Name: "Anna", Email: "anna@example.com"}, got)
}

func TestRedisRepository_UpdateMissingWritesNothing(t *testing.T) {
	repo, mr := newTestRepository(t)

	_, err := repo.Update(context.Background(), User{ID: "ghost", Name: "G", Email: "g@example.com"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, mr.Exists("users:user:ghost"))
}

func TestRedisRepository_Delete(t *testing.T) {
	repo, mr := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, User{ID: "u1", Name: "Ann", Email: "ann@example.com"})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, "u1"))
	assert.False(t, mr.Exists("users:user:u1"))

	_, err = repo.Get(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting again is not an error.
	assert.NoError(t, repo.Delete(ctx, "u1"))
}

func TestRedisRepository_MissingTable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	repo := NewRedisRepository(client, mapLookup{})

	_, err := repo.List(context.Background())
	require.Error(t, err)
	assert.Equal(t, model.KindConfigurationMissing, model.KindOf(err))
	assert.ErrorIs(t, err, config.ErrMissing)
}

func TestRedisRepository_StoreFailure(t *testing.T) {
	repo, mr := newTestRepository(t)
	mr.Close()

	_, err := repo.Get(context.Background(), "u1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, model.KindInternal, model.KindOf(err))
}
