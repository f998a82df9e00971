package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (User, error)
	List(ctx context.Context) ([]User, error)
	UpdateRole(ctx context.Context, email string, role Role) (User, error)
	Update(ctx context.Context, id uuid.UUID, in UpdateInput) (User, error)
	Delete(ctx context.Context, id uuid.UUID) (User, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// SessionRevoker drops every refresh token of a user.
type SessionRevoker interface {
	RevokeSessions(ctx context.Context, userID uuid.UUID) (int64, error)
}

type transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service implements user management operations.
type Service struct {
	repo     repository
	sessions SessionRevoker
	tx       transactor
	logger   *zap.Logger
}

// NewService constructs a user Service.
func NewService(repo repository, sessions SessionRevoker, tx transactor, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, sessions: sessions, tx: tx, logger: logger}
}

// List returns every user without credential material.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// Get returns a single user.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (User, error) {
	return s.repo.FindByID(ctx, id)
}

// ChangeRole sets the role of the user registered under email. Outstanding
// access tokens carrying the old role stop passing the auth guard immediately.
func (s *Service) ChangeRole(ctx context.Context, email, role string) (User, error) {
	parsed, ok := ParseRole(role)
	if !ok {
		return User{}, ErrInvalidRole
	}

	user, err := s.repo.UpdateRole(ctx, NormalizeEmail(email), parsed)
	if err != nil {
		return User{}, err
	}
	s.logger.Info("user role changed", zap.String("user_id", user.ID.String()), zap.String("role", string(parsed)))
	return user, nil
}

// Update changes name and/or email.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (User, error) {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		in.Name = &name
	}
	if in.Email != nil {
		email := NormalizeEmail(*in.Email)
		in.Email = &email
	}
	return s.repo.Update(ctx, id, in)
}

// Delete removes a user together with its refresh tokens.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) (User, error) {
	var deleted User
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.sessions.RevokeSessions(ctx, id); err != nil {
			return fmt.Errorf("revoke sessions: %w", err)
		}
		user, err := s.repo.Delete(ctx, id)
		if err != nil {
			return err
		}
		deleted = user
		return nil
	})
	if err != nil {
		return User{}, err
	}

	s.logger.Info("user deleted", zap.String("user_id", id.String()))
	return deleted, nil
}

// DeleteAll removes every user. Refresh tokens go with them through the foreign key cascade.
func (s *Service) DeleteAll(ctx context.Context) (int64, error) {
	count, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Warn("all users deleted", zap.Int64("count", count))
	return count, nil
}
