package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"gateway-proxy-go/internal/config"
	"gateway-proxy-go/internal/model"
)

const (
	statusUnconfirmed = "UNCONFIRMED"
	statusConfirmed   = "CONFIRMED"

	refreshTTL = 30 * 24 * time.Hour
	codeDigits = 6
)

// RedisProvider is a self-hosted IdentityProvider backed by Redis.
//
// Users live in a hash per client and email, pending confirmation codes and
// refresh tokens in TTL'd string keys.
type RedisProvider struct {
	client     redis.UniversalClient
	lookup     config.Lookup
	sender     CodeSender
	codeTTL    time.Duration
	tokenTTL   time.Duration
	bcryptCost int
	now        func() time.Time
}

// NewRedisProvider creates a RedisProvider using the TTLs from cfg.
func NewRedisProvider(client redis.UniversalClient, cfg *config.Config, sender CodeSender) *RedisProvider {
	return &RedisProvider{
		client:     client,
		lookup:     cfg,
		sender:     sender,
		codeTTL:    time.Duration(cfg.Auth.CodeTTLSeconds) * time.Second,
		tokenTTL:   time.Duration(cfg.Auth.TokenTTLSeconds) * time.Second,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
}

func userKey(clientID, email string) string { return "auth:" + clientID + ":user:" + email }
func codeKey(clientID, email string) string { return "auth:" + clientID + ":code:" + email }
func refreshKey(clientID, token string) string {
	return "auth:" + clientID + ":refresh:" + token
}

// SignUp registers an unconfirmed user and sends a confirmation code.
func (p *RedisProvider) SignUp(ctx context.Context, clientID, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	code, err := newCode()
	if err != nil {
		return err
	}

	key := userKey(clientID, email)
	err = p.client.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrUsernameExists
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key,
				"sub", uuid.NewString(),
				"password_hash", string(hash),
				"status", statusUnconfirmed,
			)
			pipe.Set(ctx, codeKey(clientID, email), code, p.codeTTL)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, ErrUsernameExists) {
		return ErrUsernameExists
	}
	if err != nil {
		return fmt.Errorf("store user: %w", err)
	}

	if err := p.sender.Send(ctx, email, code); err != nil {
		return fmt.Errorf("send confirmation code: %w", err)
	}
	return nil
}

// ConfirmSignUp marks the user confirmed when code matches the pending one.
func (p *RedisProvider) ConfirmSignUp(ctx context.Context, clientID, email, code string) error {
	status, err := p.client.HGet(ctx, userKey(clientID, email), "status").Result()
	if errors.Is(err, redis.Nil) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if status == statusConfirmed {
		return fmt.Errorf("user cannot be confirmed: current status is %s", status)
	}

	want, err := p.client.Get(ctx, codeKey(clientID, email)).Result()
	if errors.Is(err, redis.Nil) {
		return ErrExpiredCode
	}
	if err != nil {
		return fmt.Errorf("load confirmation code: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(want), []byte(code)) != 1 {
		return ErrCodeMismatch
	}

	_, err = p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, userKey(clientID, email), "status", statusConfirmed)
		pipe.Del(ctx, codeKey(clientID, email))
		return nil
	})
	if err != nil {
		return fmt.Errorf("confirm user: %w", err)
	}
	return nil
}

// InitiateAuth issues tokens for a confirmed user without a password check.
func (p *RedisProvider) InitiateAuth(ctx context.Context, clientID, poolID, email string) (Tokens, error) {
	fields, err := p.client.HGetAll(ctx, userKey(clientID, email)).Result()
	if err != nil {
		return Tokens{}, fmt.Errorf("load user: %w", err)
	}
	if len(fields) == 0 {
		return Tokens{}, ErrUserNotFound
	}
	if fields["status"] != statusConfirmed {
		return Tokens{}, ErrNotConfirmed
	}

	secret, err := p.lookup.String(config.KeyAuthSigningKey)
	if err != nil {
		return Tokens{}, model.NewError(model.KindConfigurationMissing, err)
	}

	now := p.now()
	base := func() *jwt.Builder {
		return jwt.NewBuilder().
			Issuer(poolID).
			Audience([]string{clientID}).
			Subject(fields["sub"]).
			IssuedAt(now).
			Expiration(now.Add(p.tokenTTL)).
			JwtID(uuid.NewString())
	}

	access, err := sign(base().Claim("token_use", "access").Claim("client_id", clientID), secret)
	if err != nil {
		return Tokens{}, fmt.Errorf("sign access token: %w", err)
	}
	id, err := sign(base().
		Claim("token_use", "id").
		Claim("email", email).
		Claim("email_verified", true), secret)
	if err != nil {
		return Tokens{}, fmt.Errorf("sign id token: %w", err)
	}

	refresh, err := randomToken(32)
	if err != nil {
		return Tokens{}, err
	}
	if err := p.client.Set(ctx, refreshKey(clientID, refresh), email, refreshTTL).Err(); err != nil {
		return Tokens{}, fmt.Errorf("store refresh token: %w", err)
	}

	return Tokens{
		AccessToken:  access,
		IDToken:      id,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int(p.tokenTTL.Seconds()),
	}, nil
}

func sign(b *jwt.Builder, secret string) (string, error) {
	tok, err := b.Build()
	if err != nil {
		return "", err
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, []byte(secret)))
	if err != nil {
		return "", err
	}
	return string(signed), nil
}

// newCode returns a zero-padded numeric confirmation code.
func newCode() (string, error) {
	limit := big.NewInt(1)
	for i := 0; i < codeDigits; i++ {
		limit.Mul(limit, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}

// randomToken returns n random bytes, base64url encoded.
func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
