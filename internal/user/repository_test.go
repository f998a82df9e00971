package user

import (
	"context"
	"errors"
	"reflect"
	"regexp"
	"testing"
	"time"

	"github.com/abduss/goshop/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type recordingQuerier struct {
	sql  []string
	args [][]any
	row  pgx.Row
	rows pgx.Rows
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
	return q.rows, q.err
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

// stubRows iterates over canned rows. Methods not listed are never called.
type stubRows struct {
	pgx.Rows
	rows   []stubRow
	pos    int
	closed bool
}

func (r *stubRows) Next() bool {
	if r.pos >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

func (r *stubRows) Scan(dest ...any) error { return r.rows[r.pos-1].Scan(dest...) }
func (r *stubRows) Err() error { return nil }
func (r *stubRows) Close() { r.closed = true }

func userRow(u User) stubRow {
	return stubRow{values: []any{u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.CreatedAt, u.UpdatedAt}}
}

func newRepoWithRecorder(t *testing.T) (*Repository, *recordingQuerier) {
	t.Helper()
	q := &recordingQuerier{}
	return NewRepository(q), q
}

func sampleUser() User {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return User{ID: uuid.New(), Name: "Ann", Email: "ann@example.com", PasswordHash: "hash", Role: RoleUser, CreatedAt: at, UpdatedAt: at}
}

func TestCreate_Success(t *testing.T) {
	repo, q := newRepoWithRecorder(t)
	want := sampleUser()
	q.row = userRow(want)

	got, err := repo.Create(context.Background(), CreateInput{Name: "Ann", Email: "ann@example.com", PasswordHash: "hash", Role: RoleUser})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Fatalf("unexpected user: %+v", got)
	}
	if !regexp.MustCompile(`(?s)INSERT\s+INTO\s+users\s*\(name, email, password_hash, role\)`).MatchString(q.sql[0]) {
		t.Fatalf("unexpected statement: %q", q.sql[0])
	}
	if !reflect.DeepEqual(q.args[0], []any{"Ann", "ann@example.com", "hash", RoleUser}) {
		t.Fatalf("unexpected args: %v", q.args[0])
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo, q := newRepoWithRecorder(t)
	q.row = stubRow{err: &pgconn.PgError{Code: "23505"}}

	_, err := repo.Create(context.Background(), CreateInput{Email: "ann@example.com"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestFindByEmail_NotFound(t *testing.T) {
	repo, q := newRepoWithRecorder(t)
	q.row = stubRow{err: pgx.ErrNoRows}

	if _, err := repo.FindByEmail(context.Background(), "ghost@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestFindByID_DBError(t *testing.T) {
	repo, q := newRepoWithRecorder(t)
	down := errors.New("db down")
	q.row = stubRow{err: down}

	_, err := repo.FindByID(context.Background(), uuid.New())
	if !errors.Is(err, down) || errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestUpdate_ErrorMapping(t *testing.T) {
	cases := map[string]struct {
		scanErr error
		want    error
	}{
		"missing user":    {scanErr: pgx.ErrNoRows, want: ErrUserNotFound},
		"duplicate email": {scanErr: &pgconn.PgError{Code: "23505"}, want: ErrEmailTaken},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			repo, q := newRepoWithRecorder(t)
			q.row = stubRow{err: tc.scanErr}

			email := "taken@example.com"
			_, err := repo.Update(context.Background(), uuid.New(), UpdateInput{Email: &email})
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestUpdateRole_NotFound(t *testing.T) {
	repo, q := newRepoWithRecorder(t)
	q.row = stubRow{err: pgx.ErrNoRows}

	if _, err := repo.UpdateRole(context.Background(), "ghost@example.com", RoleAdmin); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestDelete_NotFound(t *testing.T) {
	repo, q := newRepoWithRecorder(t)
	q.row = stubRow{err: pgx.ErrNoRows}

	if _, err := repo.Delete(context.Background(), uuid.New()); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestDeleteAll_ReportsRowsAffected(t *testing.T) {
	repo, q := newRepoWithRecorder(t)
	q.tag = pgconn.NewCommandTag("DELETE 4")

	n, err := repo.DeleteAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 4 {
		t.Fatalf("expected 4 deleted, got %d", n)
	}
}

func TestList_ScansEveryRow(t *testing.T) {
	repo, q := newRepoWithRecorder(t)
	first, second := sampleUser(), sampleUser()
	rows := &stubRows{rows: []stubRow{userRow(first), userRow(second)}}
	q.rows = rows

	users, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(users) != 2 || users[0].ID != first.ID || users[1].ID != second.ID {
		t.Fatalf("unexpected users: %+v", users)
	}
	if !rows.closed {
		t.Fatal("rows were not closed")
	}
}
