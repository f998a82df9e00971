package auth

import (
	"context"
	"errors"
	"reflect"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/abduss/goshop/internal/storage"
	"github.com/abduss/goshop/internal/user"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// recordingQuerier captures every statement and answers with canned results.
type recordingQuerier struct {
	sql  []string
	args [][]any
	row  pgx.Row
	tag  pgconn.CommandTag
	err  error
}

func (q *recordingQuerier) Conn(ctx context.Context) storage.Querier { return q }

func (q *recordingQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q.record(sql, args)
	return q.tag, q.err
}

func (q *recordingQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	q.record(sql, args)
	return nil, errors.New("unexpected Query")
}

func (q *recordingQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	q.record(sql, args)
	if q.row == nil {
		return stubRow{err: pgx.ErrNoRows}
	}
	return q.row
}

func (q *recordingQuerier) record(sql string, args []any) {
	q.sql = append(q.sql, sql)
	q.args = append(q.args, args)
}

// stubRow copies values into Scan destinations in order.
type stubRow struct {
	values []any
	err    error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return errors.New("column count mismatch")
	}
	for i, v := range r.values {
		reflect.ValueOf(dest[i]).Elem().Set(reflect.ValueOf(v))
	}
	return nil
}

// openTx marks a context as transactional; its methods are never called.
type openTx struct{ pgx.Tx }

func newRepoWithRecorder(t *testing.T) (*Repository, *recordingQuerier) {
	t.Helper()
	q := &recordingQuerier{}
	return NewRepository(q), q
}

var lockClause = regexp.MustCompile(`(?s)FOR\s+UPDATE\s+OF\s+rt\s*;\s*$`)

func TestFindRefreshToken_LocksRowInsideTransaction(t *testing.T) {
	repo, q := newRepoWithRecorder(t)
	ctx := storage.WithTx(context.Background(), openTx{})

	_, _ = repo.FindRefreshToken(ctx, "tok123")

	if len(q.sql) != 1 || !lockClause.MatchString(q.sql[0]) {
		t.Fatalf("expected row lock inside a transaction, got %q", q.sql)
	}
}

func TestFindRefreshToken_NoLockOutsideTransaction(t *testing.T) {
	repo, q := newRepoWithRecorder(t)

	_, _ = repo.FindRefreshToken(context.Background(), "tok123")

	if len(q.sql) != 1 || strings.Contains(q.sql[0], "FOR UPDATE") {
		t.Fatalf("unexpected lock outside a transaction: %q", q.sql)
	}
	if !reflect.DeepEqual(q.args[0], []any{"tok123"}) {
		t.Fatalf("unexpected args: %v", q.args[0])
	}
}

func TestFindRefreshToken_Found(t *testing.T) {
	repo, q := newRepoWithRecorder(t)
	tokenID, ownerID := uuid.New(), uuid.New()
	expires := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	created := expires.Add(-time.Hour)
	q.row = stubRow{values: []any{
		tokenID, "tok123", ownerID, expires, created,
		ownerID, "Ann", "ann@example.com", "hash", user.RoleAdmin, created, created,
	}}

	got, err := repo.FindRefreshToken(context.Background(), "tok123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != tokenID || got.UserID != ownerID || !got.ExpiresAt.Equal(expires) {
		t.Fatalf("unexpected token: %+v", got)
	}
	if got.Owner.Email != "ann@example.com" || got.Owner.Role != user.RoleAdmin {
		t.Fatalf("unexpected owner: %+v", got.Owner)
	}
}

func TestFindRefreshToken_NotFound(t *testing.T) {
	repo, q := newRepoWithRecorder(t)
	q.row = stubRow{err: pgx.ErrNoRows}

	_, err := repo.FindRefreshToken(context.Background(), "missing")
	if !errors.Is(err, ErrRefreshTokenNotFound) {
		t.Fatalf("expected ErrRefreshTokenNotFound, got %v", err)
	}
}

func TestFindRefreshToken_DBError(t *testing.T) {
	repo, q := newRepoWithRecorder(t)
	down := errors.New("db down")
	q.row = stubRow{err: down}

	_, err := repo.FindRefreshToken(context.Background(), "tok123")
	if !errors.Is(err, down) || errors.Is(err, ErrRefreshTokenNotFound) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestCreateRefreshToken(t *testing.T) {
	repo, q := newRepoWithRecorder(t)
	userID := uuid.New()
	expires := time.Date(2024, 5, 8, 0, 0, 0, 0, time.UTC)

	if err := repo.CreateRefreshToken(context.Background(), userID, "tok123", expires); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !regexp.MustCompile(`(?s)INSERT\s+INTO\s+refresh_tokens\s*\(token, user_id, expires_at\)`).MatchString(q.sql[0]) {
		t.Fatalf("unexpected statement: %q", q.sql[0])
	}
	if !reflect.DeepEqual(q.args[0], []any{"tok123", userID, expires}) {
		t.Fatalf("unexpected args: %v", q.args[0])
	}

	q.err = errors.New("db down")
	err := repo.CreateRefreshToken(context.Background(), userID, "tok123", expires)
	if err == nil || !strings.Contains(err.Error(), "insert refresh token: db down") {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestDeleteRefreshToken_MissingIsNotAnError(t *testing.T) {
	repo, q := newRepoWithRecorder(t)
	q.tag = pgconn.NewCommandTag("DELETE 0")

	if err := repo.DeleteRefreshToken(context.Background(), uuid.New()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDeleteUserRefreshTokens_ReportsRowsAffected(t *testing.T) {
	repo, q := newRepoWithRecorder(t)
	q.tag = pgconn.NewCommandTag("DELETE 3")
	userID := uuid.New()

	n, err := repo.DeleteUserRefreshTokens(context.Background(), userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 deleted, got %d", n)
	}
	if !reflect.DeepEqual(q.args[0], []any{userID}) {
		t.Fatalf("unexpected args: %v", q.args[0])
	}
}
