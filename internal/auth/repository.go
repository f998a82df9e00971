package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abduss/goshop/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const defaultQueryTimeout = 5 * time.Second

type conn interface {
	Conn(ctx context.Context) storage.Querier
}

// Repository persists refresh tokens.
type Repository struct {
	db conn
}

// NewRepository constructs a new Repository.
func NewRepository(db conn) *Repository {
	return &Repository{db: db}
}

// CreateRefreshToken stores a refresh token for userID.
func (r *Repository) CreateRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `
INSERT INTO refresh_tokens (token, user_id, expires_at)
VALUES ($1, $2, $3);`

	if _, err := r.db.Conn(ctx).Exec(ctx, query, token, userID, expiresAt); err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}
	return nil
}

// FindRefreshToken loads a refresh token together with its owner. Inside a
// transaction the token row stays locked until commit, so concurrent
// consumers of the same value serialize.
func (r *Repository) FindRefreshToken(ctx context.Context, token string) (RefreshToken, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `
SELECT rt.id, rt.token, rt.user_id, rt.expires_at, rt.created_at,
       u.id, u.name, u.email, u.password_hash, u.role, u.created_at, u.updated_at
FROM refresh_tokens rt
JOIN users u ON u.id = rt.user_id
WHERE rt.token = $1`
	if storage.InTx(ctx) {
		query += `
FOR UPDATE OF rt`
	}

	var rt RefreshToken
	err := r.db.Conn(ctx).QueryRow(ctx, query+";", token).Scan(
		&rt.ID, &rt.Token, &rt.UserID, &rt.ExpiresAt, &rt.CreatedAt,
		&rt.Owner.ID, &rt.Owner.Name, &rt.Owner.Email, &rt.Owner.PasswordHash,
		&rt.Owner.Role, &rt.Owner.CreatedAt, &rt.Owner.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RefreshToken{}, ErrRefreshTokenNotFound
		}
		return RefreshToken{}, fmt.Errorf("find refresh token: %w", err)
	}
	return rt, nil
}

// DeleteRefreshToken removes one token. Deleting a missing id is not an error.
func (r *Repository) DeleteRefreshToken(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	if _, err := r.db.Conn(ctx).Exec(ctx, `DELETE FROM refresh_tokens WHERE id = $1;`, id); err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	return nil
}

// DeleteUserRefreshTokens removes every token of userID and reports how many there were.
func (r *Repository) DeleteUserRefreshTokens(ctx context.Context, userID uuid.UUID) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	tag, err := r.db.Conn(ctx).Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1;`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete user refresh tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
