// Package auth implements passwordless email sign-up: a confirmation code is
// sent on registration and confirming it issues a token bundle.
package auth

import (
	"context"
	"errors"
	"log/slog"
)

// Identity provider failures with a dedicated client response.
var (
	ErrUsernameExists = errors.New("username exists")
	ErrCodeMismatch   = errors.New("confirmation code mismatch")
	ErrExpiredCode    = errors.New("confirmation code expired")
	ErrUserNotFound   = errors.New("user not found")
	ErrNotConfirmed   = errors.New("user not confirmed")
)

// Tokens is the bundle returned after a successful confirmation. Field names
// follow the usual identity provider AuthenticationResult shape.
type Tokens struct {
	AccessToken  string `json:"AccessToken"`
	IDToken      string `json:"IdToken"`
	RefreshToken string `json:"RefreshToken"`
	TokenType    string `json:"TokenType"`
	ExpiresIn    int    `json:"ExpiresIn"`
}

// IdentityProvider registers users, confirms them and issues tokens.
type IdentityProvider interface {
	SignUp(ctx context.Context, clientID, email, password string) error
	ConfirmSignUp(ctx context.Context, clientID, email, code string) error
	InitiateAuth(ctx context.Context, clientID, poolID, email string) (Tokens, error)
}

// CodeSender delivers a confirmation code to an email address.
type CodeSender interface {
	Send(ctx context.Context, email, code string) error
}

// LogSender "delivers" codes by logging them. Suitable for local runs only.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger.With("component", "code_sender")}
}

// Send logs the code.
func (s *LogSender) Send(_ context.Context, email, code string) error {
	s.logger.Info("confirmation code issued", "email", email, "code", code)
	return nil
}
