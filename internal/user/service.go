package user

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Service implements the user operations on top of a Repository.
type Service struct {
	repo   Repository
	logger *slog.Logger
	newID  func() string
}

// NewService creates a Service that assigns random UUIDs to new users.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With("component", "user_service"),
		newID:  uuid.NewString,
	}
}

// Create stores a new user built from in.
func (s *Service) Create(ctx context.Context, in Input) (User, error) {
	u, err := s.repo.Create(ctx, User{ID: s.newID(), Name: in.Name, Email: in.Email})
	if err != nil {
		return User{}, err
	}
	s.logger.Info("user created", "id", u.ID)
	return u, nil
}

// List returns all users.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// Get returns one user.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	return s.repo.Get(ctx, id)
}

// Update replaces the name and email of user id.
func (s *Service) Update(ctx context.Context, id string, in Input) (User, error) {
	return s.repo.Update(ctx, User{ID: id, Name: in.Name, Email: in.Email})
}

// Delete removes user id.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("user deleted", "id", id)
	return nil
}
