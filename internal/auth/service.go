package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/abduss/goshop/internal/apperr"
	"github.com/abduss/goshop/internal/config"
	"github.com/abduss/goshop/internal/metrics"
	"github.com/abduss/goshop/internal/user"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	refreshTokenBytes  = 64
	minPasswordLength  = 6
	maxPasswordLength  = 72 // bcrypt limit
	defaultAccessTTL   = 15 * time.Minute
	defaultRefreshTTL  = 7 * 24 * time.Hour
	logoutConfirmation = "Logged out successfully"
)

type userStore interface {
	Create(ctx context.Context, in user.CreateInput) (user.User, error)
	FindByEmail(ctx context.Context, email string) (user.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (user.User, error)
}

type tokenStore interface {
	CreateRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error
	FindRefreshToken(ctx context.Context, token string) (RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, id uuid.UUID) error
	DeleteUserRefreshTokens(ctx context.Context, userID uuid.UUID) (int64, error)
}

type transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Stores bundles the persistence dependencies of Service.
type Stores struct {
	Users  userStore
	Tokens tokenStore
	Tx     transactor
}

// Service encapsulates authentication use cases.
type Service struct {
	users   userStore
	tokens  tokenStore
	tx      transactor
	hasher  PasswordHasher
	codec   *TokenCodec
	cfg     config.AuthConfig
	logger  *zap.Logger
	nowFunc func() time.Time
}

// NewService creates a Service. Zero TTLs fall back to 15 minutes and 7 days.
func NewService(stores Stores, cfg config.AuthConfig, logger *zap.Logger) *Service {
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = defaultAccessTTL
	}
	if cfg.RefreshTokenTTL <= 0 {
		cfg.RefreshTokenTTL = defaultRefreshTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		users:   stores.Users,
		tokens:  stores.Tokens,
		tx:      stores.Tx,
		hasher:  NewBcryptHasher(cfg.BcryptCost),
		cfg:     cfg,
		logger:  logger,
		nowFunc: time.Now,
	}
	s.codec = NewTokenCodec(cfg.JWTSecret, func() time.Time { return s.nowFunc() })
	return s
}

// Register creates a USER account and issues its first token pair.
func (s *Service) Register(ctx context.Context, input RegisterInput) (TokenPair, error) {
	name := strings.TrimSpace(input.Name)
	email := user.NormalizeEmail(input.Email)
	if err := validateRegistration(name, email, input.Password); err != nil {
		return TokenPair{}, err
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		s.logger.Warn("registration for existing email", zap.String("email", email))
		metrics.AuthEvent("register", "conflict")
		return TokenPair{}, ErrUserExists
	} else if !errors.Is(err, user.ErrUserNotFound) {
		return TokenPair{}, fmt.Errorf("find user: %w", err)
	}

	hashed, err := s.hasher.Hash(input.Password)
	if err != nil {
		return TokenPair{}, fmt.Errorf("hash password: %w", err)
	}

	var pair TokenPair
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		created, err := s.users.Create(ctx, user.CreateInput{
			Name:         name,
			Email:        email,
			PasswordHash: hashed,
			Role:         user.DefaultRole,
		})
		if err != nil {
			return err
		}
		pair, err = s.generateTokens(ctx, created)
		return err
	})
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			metrics.AuthEvent("register", "conflict")
			return TokenPair{}, ErrUserExists
		}
		return TokenPair{}, err
	}

	s.logger.Info("user registered", zap.String("email", email))
	metrics.AuthEvent("register", "success")
	return pair, nil
}

// Login checks credentials and issues a fresh token pair. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, input LoginInput) (TokenPair, error) {
	email := user.NormalizeEmail(input.Email)
	if email == "" || input.Password == "" || len(input.Password) > maxPasswordLength {
		metrics.AuthEvent("login", "invalid_credentials")
		return TokenPair{}, ErrInvalidCredentials
	}

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			s.logger.Warn("login for unknown email", zap.String("email", email))
			metrics.AuthEvent("login", "invalid_credentials")
			return TokenPair{}, ErrInvalidCredentials
		}
		return TokenPair{}, fmt.Errorf("find user: %w", err)
	}

	ok, err := s.hasher.Verify(input.Password, u.PasswordHash)
	if err != nil {
		return TokenPair{}, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		s.logger.Warn("login with wrong password", zap.String("user_id", u.ID.String()))
		metrics.AuthEvent("login", "invalid_credentials")
		return TokenPair{}, ErrInvalidCredentials
	}

	pair, err := s.generateTokens(ctx, u)
	if err != nil {
		return TokenPair{}, err
	}

	s.logger.Info("user logged in", zap.String("user_id", u.ID.String()))
	metrics.AuthEvent("login", "success")
	return pair, nil
}

// Refresh consumes a refresh token and issues a new pair. Consumption and
// issuance commit together; a replayed or expired token fails without
// touching state.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		metrics.AuthEvent("refresh", "invalid_token")
		return TokenPair{}, ErrInvalidRefreshToken
	}

	var pair TokenPair
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		stored, err := s.tokens.FindRefreshToken(ctx, refreshToken)
		if err != nil {
			if errors.Is(err, ErrRefreshTokenNotFound) {
				return ErrInvalidRefreshToken
			}
			return err
		}
		if stored.ExpiresAt.Before(s.nowFunc()) {
			return ErrInvalidRefreshToken
		}

		if err := s.tokens.DeleteRefreshToken(ctx, stored.ID); err != nil {
			return err
		}
		pair, err = s.generateTokens(ctx, stored.Owner)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrInvalidRefreshToken) {
			s.logger.Warn("refresh rejected")
			metrics.AuthEvent("refresh", "invalid_token")
		}
		return TokenPair{}, err
	}

	metrics.AuthEvent("refresh", "success")
	return pair, nil
}

// Logout revokes every refresh token of userID. Having none is not an error.
func (s *Service) Logout(ctx context.Context, userID uuid.UUID) (LogoutResult, error) {
	revoked, err := s.RevokeSessions(ctx, userID)
	if err != nil {
		return LogoutResult{}, err
	}
	metrics.AuthEvent("logout", "success")
	return LogoutResult{Message: logoutConfirmation, Revoked: revoked}, nil
}

// RevokeSessions drops every refresh token of userID. Access tokens already
// issued stay valid until they expire.
func (s *Service) RevokeSessions(ctx context.Context, userID uuid.UUID) (int64, error) {
	revoked, err := s.tokens.DeleteUserRefreshTokens(ctx, userID)
	if err != nil {
		s.logger.Error("revoke refresh tokens", zap.String("user_id", userID.String()), zap.Error(err))
		return 0, err
	}
	s.logger.Info("refresh tokens revoked", zap.String("user_id", userID.String()), zap.Int64("count", revoked))
	return revoked, nil
}

// Authenticate verifies an access token and re-resolves its subject, so
// deleted users and changed roles take effect before the token expires.
func (s *Service) Authenticate(ctx context.Context, token string) (Principal, error) {
	claims, err := s.codec.Verify(token)
	if err != nil {
		return Principal{}, ErrUnauthorized
	}
	if claims.Subject == "" || claims.Role == "" {
		return Principal{}, ErrInvalidTokenPayload
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Principal{}, ErrInvalidTokenPayload
	}

	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return Principal{}, ErrUserNotFound
		}
		return Principal{}, fmt.Errorf("find token subject: %w", err)
	}
	if u.Role != claims.Role {
		return Principal{}, ErrInvalidTokenPayload
	}

	p := Principal{Sub: u.ID.String(), Email: u.Email, Role: u.Role}
	if claims.IssuedAt != nil {
		p.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		p.ExpiresAt = claims.ExpiresAt.Time
	}
	return p, nil
}

// Me returns the live user record behind a principal.
func (s *Service) Me(ctx context.Context, p Principal) (user.User, error) {
	id, err := p.UserID()
	if err != nil {
		return user.User{}, ErrInvalidTokenPayload
	}
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return user.User{}, ErrUserNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

func (s *Service) generateTokens(ctx context.Context, u user.User) (TokenPair, error) {
	access, err := s.codec.Sign(Claims{
		Email: u.Email,
		Role:  u.Role,
	}.withSubject(u.ID.String()), s.cfg.AccessTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}

	refresh, err := newRefreshTokenValue()
	if err != nil {
		return TokenPair{}, fmt.Errorf("generate refresh token: %w", err)
	}

	expiresAt := s.nowFunc().Add(s.cfg.RefreshTokenTTL)
	if err := s.tokens.CreateRefreshToken(ctx, u.ID, refresh, expiresAt); err != nil {
		s.logger.Error("persist refresh token", zap.String("user_id", u.ID.String()), zap.Error(err))
		return TokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}

	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    TokenType,
		ExpiresIn:    int64(s.cfg.AccessTokenTTL / time.Second),
	}, nil
}

func (c Claims) withSubject(sub string) Claims {
	c.Subject = sub
	return c
}

func newRefreshTokenValue() (string, error) {
	b := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func validateRegistration(name, email, password string) error {
	if name == "" {
		return apperr.New(apperr.ErrInvalidInput, "name is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return apperr.New(apperr.ErrInvalidInput, "email is invalid")
	}
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return apperr.New(apperr.ErrInvalidInput, fmt.Sprintf("password must be %d to %d characters", minPasswordLength, maxPasswordLength))
	}
	return nil
}
