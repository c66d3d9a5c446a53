package auth

import (
	"context"
	"fmt"
	"log/slog"

	"gateway-proxy-go/internal/config"
	"gateway-proxy-go/internal/model"
)

// SignupInput is the sign-up request body.
type SignupInput struct {
	Email string `json:"email" validate:"required,email"`
}

// ConfirmInput is the confirmation request body.
type ConfirmInput struct {
	Email            string `json:"email" validate:"required,email"`
	ConfirmationCode string `json:"confirmationCode" validate:"required"`
}

// Service runs the sign-up and confirmation flows against an IdentityProvider.
type Service struct {
	provider IdentityProvider
	lookup   config.Lookup
	logger   *slog.Logger
}

// NewService creates a Service.
func NewService(provider IdentityProvider, lookup config.Lookup, logger *slog.Logger) *Service {
	return &Service{
		provider: provider,
		lookup:   lookup,
		logger:   logger.With("component", "auth_service"),
	}
}

// Signup registers the email from body with a throwaway password. The user
// signs in later through confirmation, never with that password.
func (s *Service) Signup(ctx context.Context, body *string) error {
	var in SignupInput
	if err := model.DecodeInput(body, &in); err != nil {
		return err
	}
	clientID, err := s.setting(config.KeyAuthClientID)
	if err != nil {
		return err
	}
	password, err := randomToken(32)
	if err != nil {
		return err
	}
	if err := s.provider.SignUp(ctx, clientID, in.Email, password); err != nil {
		return fmt.Errorf("sign up: %w", err)
	}
	s.logger.Info("user signed up", "email", in.Email)
	return nil
}

// Confirm verifies the code from body and returns fresh tokens.
func (s *Service) Confirm(ctx context.Context, body *string) (Tokens, error) {
	var in ConfirmInput
	if err := model.DecodeInput(body, &in); err != nil {
		return Tokens{}, err
	}
	clientID, err := s.setting(config.KeyAuthClientID)
	if err != nil {
		return Tokens{}, err
	}
	poolID, err := s.setting(config.KeyAuthPoolID)
	if err != nil {
		return Tokens{}, err
	}
	// Confirming consumes the code, so token issue must not fail on config afterwards.
	if _, err := s.setting(config.KeyAuthSigningKey); err != nil {
		return Tokens{}, err
	}

	if err := s.provider.ConfirmSignUp(ctx, clientID, in.Email, in.ConfirmationCode); err != nil {
		return Tokens{}, fmt.Errorf("confirm sign up: %w", err)
	}
	tokens, err := s.provider.InitiateAuth(ctx, clientID, poolID, in.Email)
	if err != nil {
		return Tokens{}, fmt.Errorf("initiate auth: %w", err)
	}
	s.logger.Info("user confirmed", "email", in.Email)
	return tokens, nil
}

func (s *Service) setting(key string) (string, error) {
	v, err := s.lookup.String(key)
	if err != nil {
		return "", model.NewError(model.KindConfigurationMissing, err)
	}
	return v, nil
}
