package user

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"gateway-proxy-go/internal/config"
	"gateway-proxy-go/internal/model"
)

// Repository persists users.
type Repository interface {
	Create(ctx context.Context, u User) (User, error)
	List(ctx context.Context) ([]User, error)
	Get(ctx context.Context, id string) (User, error)
	Update(ctx context.Context, u User) (User, error)
	Delete(ctx context.Context, id string) error
}

// RedisRepository stores each user as a hash and tracks ids in a set.
// Keys are namespaced by the table name resolved on every call.
type RedisRepository struct {
	client redis.UniversalClient
	lookup config.Lookup
}

// NewRedisRepository creates a RedisRepository.
func NewRedisRepository(client redis.UniversalClient, lookup config.Lookup) *RedisRepository {
	return &RedisRepository{client: client, lookup: lookup}
}

func (r *RedisRepository) table() (string, error) {
	name, err := r.lookup.String(config.KeyUsersTable)
	if err != nil {
		return "", model.NewError(model.KindConfigurationMissing, err)
	}
	return name, nil
}

func userKey(table, id string) string { return table + ":user:" + id }
func idsKey(table string) string { return table + ":ids" }

// Create writes u and registers its id atomically.
func (r *RedisRepository) Create(ctx context.Context, u User) (User, error) {
	table, err := r.table()
	if err != nil {
		return User{}, err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, userKey(table, u.ID), "id", u.ID, "name", u.Name, "email", u.Email)
		pipe.SAdd(ctx, idsKey(table), u.ID)
		return nil
	})
	if err != nil {
		return User{}, fmt.Errorf("create user %s: %w", u.ID, err)
	}
	return u, nil
}

// List returns every user ordered by id.
func (r *RedisRepository) List(ctx context.Context) ([]User, error) {
	table, err := r.table()
	if err != nil {
		return nil, err
	}

	ids, err := r.client.SMembers(ctx, idsKey(table)).Result()
	if err != nil {
		return nil, fmt.Errorf("list user ids: %w", err)
	}
	sort.Strings(ids)

	users := make([]User, 0, len(ids))
	for _, id := range ids {
		u, err := r.get(ctx, table, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

// Get returns the user with id, or ErrNotFound.
func (r *RedisRepository) Get(ctx context.Context, id string) (User, error) {
	table, err := r.table()
	if err != nil {
		return User{}, err
	}
	return r.get(ctx, table, id)
}

func (r *RedisRepository) get(ctx context.Context, table, id string) (User, error) {
	fields, err := r.client.HGetAll(ctx, userKey(table, id)).Result()
	if err != nil {
		return User{}, fmt.Errorf("get user %s: %w", id, err)
	}
	if len(fields) == 0 {
		return User{}, ErrNotFound
	}
	return User{ID: id, Name: fields["name"], Email: fields["email"]}, nil
}

// Update overwrites an existing user. A missing user yields ErrNotFound and
// nothing is written.
func (r *RedisRepository) Update(ctx context.Context, u User) (User, error) {
	table, err := r.table()
	if err != nil {
		return User{}, err
	}
	key := userKey(table, u.ID)

	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, "name", u.Name, "email", u.Email)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, ErrNotFound) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("update user %s: %w", u.ID, err)
	}
	return u, nil
}

// Delete removes the user with id. Deleting a missing user is not an error.
func (r *RedisRepository) Delete(ctx context.Context, id string) error {
	table, err := r.table()
	if err != nil {
		return err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, userKey(table, id))
		pipe.SRem(ctx, idsKey(table), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete user %s: %w", id, err)
	}
	return nil
}
