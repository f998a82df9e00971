package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/abduss/goshop/internal/apperr"
	"github.com/abduss/goshop/internal/config"
	"github.com/abduss/goshop/internal/user"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func testConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		BcryptCost:      4,
	}
}

func newTestService(t *testing.T) (*Service, *memoryStore) {
	t.Helper()
	store := newMemoryStore()
	service := NewService(Stores{Users: store, Tokens: store, Tx: &lockingTx{store: store}}, testConfig(), zap.NewNop())
	return service, store
}

func register(t *testing.T, service *Service, email string) TokenPair {
	t.Helper()
	pair, err := service.Register(context.Background(), RegisterInput{Name: "Ann", Email: email, Password: "secret1"})
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}
	return pair
}

func TestRegisterSuccess(t *testing.T) {
	service, store := newTestService(t)

	pair := register(t, service, "Ann@Example.com")

	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected tokens to be issued")
	}
	if pair.TokenType != "Bearer" || pair.ExpiresIn != 900 {
		t.Fatalf("unexpected bundle metadata: %+v", pair)
	}
	if len(pair.RefreshToken) != 128 {
		t.Fatalf("expected 128 hex chars, got %d", len(pair.RefreshToken))
	}

	u, err := store.FindByEmail(context.Background(), "ann@example.com")
	if err != nil {
		t.Fatalf("expected user stored under normalized email: %v", err)
	}
	if u.Role != user.RoleUser {
		t.Fatalf("expected default role USER, got %s", u.Role)
	}
	if u.PasswordHash == "secret1" {
		t.Fatalf("password stored in plain text")
	}
	if store.tokenCount(u.ID) != 1 {
		t.Fatalf("expected one refresh token, got %d", store.tokenCount(u.ID))
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	service, store := newTestService(t)
	register(t, service, "user@example.com")

	_, err := service.Register(context.Background(), RegisterInput{Name: "B", Email: "user@example.com", Password: "another"})
	if !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	if apperr.Status(err) != 409 || apperr.PublicMessage(err) != "User already exists" {
		t.Fatalf("unexpected mapping: %d %q", apperr.Status(err), apperr.PublicMessage(err))
	}
	if len(store.tokens) != 1 {
		t.Fatalf("expected no extra tokens, got %d", len(store.tokens))
	}
}

func TestRegisterValidation(t *testing.T) {
	service, _ := newTestService(t)

	cases := []RegisterInput{
		{Name: "", Email: "a@b.com", Password: "secret1"},
		{Name: "A", Email: "not-an-email", Password: "secret1"},
		{Name: "A", Email: "a@b.com", Password: "short"},
	}
	for _, in := range cases {
		if _, err := service.Register(context.Background(), in); !errors.Is(err, apperr.ErrInvalidInput) {
			t.Fatalf("expected invalid input for %+v, got %v", in, err)
		}
	}
}

func TestLogin(t *testing.T) {
	service, _ := newTestService(t)
	register(t, service, "user@example.com")

	pair, err := service.Login(context.Background(), LoginInput{Email: "USER@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("login returned error: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected tokens")
	}
}

func TestLoginDoesNotRevealWhichCheckFailed(t *testing.T) {
	service, _ := newTestService(t)
	register(t, service, "user@example.com")

	_, wrongPassword := service.Login(context.Background(), LoginInput{Email: "user@example.com", Password: "WrongPass"})
	_, unknownEmail := service.Login(context.Background(), LoginInput{Email: "ghost@example.com", Password: "secret1"})

	if !errors.Is(wrongPassword, ErrInvalidCredentials) || !errors.Is(unknownEmail, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v and %v", wrongPassword, unknownEmail)
	}
	if wrongPassword.Error() != unknownEmail.Error() {
		t.Fatalf("messages differ: %q vs %q", wrongPassword, unknownEmail)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	service, store := newTestService(t)
	first := register(t, service, "user@example.com")

	second, err := service.Refresh(context.Background(), first.RefreshToken)
	if err != nil {
		t.Fatalf("refresh returned error: %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Fatalf("expected a new refresh token")
	}
	if _, ok := store.tokens[first.RefreshToken]; ok {
		t.Fatalf("consumed token still stored")
	}

	if _, err := service.Refresh(context.Background(), first.RefreshToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected replay to fail, got %v", err)
	}
	if _, err := service.Refresh(context.Background(), second.RefreshToken); err != nil {
		t.Fatalf("expected rotated token to work: %v", err)
	}
}

func TestRefreshUnknownAndExpiredShareMessage(t *testing.T) {
	service, store := newTestService(t)
	pair := register(t, service, "user@example.com")

	service.nowFunc = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }
	_, expired := service.Refresh(context.Background(), pair.RefreshToken)
	_, unknown := service.Refresh(context.Background(), "does-not-exist")

	if !errors.Is(expired, ErrInvalidRefreshToken) || !errors.Is(unknown, ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken, got %v and %v", expired, unknown)
	}
	if _, ok := store.tokens[pair.RefreshToken]; !ok {
		t.Fatalf("expired refresh must not change state")
	}
}

func TestRefreshRollsBackWhenIssuanceFails(t *testing.T) {
	service, store := newTestService(t)
	pair := register(t, service, "user@example.com")

	store.failCreate = errors.New("disk full")
	if _, err := service.Refresh(context.Background(), pair.RefreshToken); err == nil {
		t.Fatalf("expected refresh to fail")
	}
	store.failCreate = nil

	if _, ok := store.tokens[pair.RefreshToken]; !ok {
		t.Fatalf("token consumed although no replacement was issued")
	}
	if _, err := service.Refresh(context.Background(), pair.RefreshToken); err != nil {
		t.Fatalf("expected retry to succeed: %v", err)
	}
}

func TestConcurrentRefreshSucceedsOnce(t *testing.T) {
	service, _ := newTestService(t)
	pair := register(t, service, "user@example.com")

	const callers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := service.Refresh(context.Background(), pair.RefreshToken); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Fatalf("expected exactly one successful refresh, got %d", successes)
	}
}

func TestLogoutRevokesAllRefreshTokens(t *testing.T) {
	service, store := newTestService(t)
	first := register(t, service, "user@example.com")
	if _, err := service.Login(context.Background(), LoginInput{Email: "user@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("login returned error: %v", err)
	}

	p, err := service.Authenticate(context.Background(), first.AccessToken)
	if err != nil {
		t.Fatalf("authenticate returned error: %v", err)
	}
	id, _ := p.UserID()

	result, err := service.Logout(context.Background(), id)
	if err != nil {
		t.Fatalf("logout returned error: %v", err)
	}
	if result.Message != "Logged out successfully" || result.Revoked != 2 {
		t.Fatalf("unexpected logout result: %+v", result)
	}
	if store.tokenCount(id) != 0 {
		t.Fatalf("expected no refresh tokens left")
	}

	again, err := service.Logout(context.Background(), id)
	if err != nil || again.Revoked != 0 {
		t.Fatalf("expected idempotent logout, got %+v, %v", again, err)
	}

	// Access tokens stay valid until expiry.
	if _, err := service.Authenticate(context.Background(), first.AccessToken); err != nil {
		t.Fatalf("expected access token to outlive logout: %v", err)
	}
}

func TestLogoutPropagatesStoreErrors(t *testing.T) {
	service, store := newTestService(t)
	store.failDelete = errors.New("connection reset")

	if _, err := service.Logout(context.Background(), uuid.New()); err == nil {
		t.Fatalf("expected logout to fail")
	}
}

func TestAuthenticateReResolvesUser(t *testing.T) {
	service, store := newTestService(t)
	pair := register(t, service, "user@example.com")

	p, err := service.Authenticate(context.Background(), pair.AccessToken)
	if err != nil {
		t.Fatalf("authenticate returned error: %v", err)
	}
	if p.Email != "user@example.com" || p.Role != user.RoleUser {
		t.Fatalf("unexpected principal: %+v", p)
	}
	if p.ExpiresAt.Sub(p.IssuedAt) != 15*time.Minute {
		t.Fatalf("expected 15 minute lifetime, got %s", p.ExpiresAt.Sub(p.IssuedAt))
	}

	id, _ := p.UserID()
	store.setRole(id, user.RoleAdmin)
	if _, err := service.Authenticate(context.Background(), pair.AccessToken); !errors.Is(err, ErrInvalidTokenPayload) {
		t.Fatalf("expected stale role to be rejected, got %v", err)
	}

	store.deleteUser(id)
	if _, err := service.Authenticate(context.Background(), pair.AccessToken); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	service, _ := newTestService(t)
	pair := register(t, service, "user@example.com")

	forged := NewTokenCodec("other-secret", nil)
	forgedToken, err := forged.Sign(Claims{Role: user.RoleAdmin}.withSubject(uuid.NewString()), time.Minute)
	if err != nil {
		t.Fatalf("sign returned error: %v", err)
	}
	noRole, _ := service.codec.Sign(Claims{Email: "x@y.z"}.withSubject(uuid.NewString()), time.Minute)
	badSub, _ := service.codec.Sign(Claims{Role: user.RoleUser}.withSubject("42"), time.Minute)

	cases := map[string]struct {
		token string
		want  error
	}{
		"garbage":      {token: "not.a.jwt", want: ErrUnauthorized},
		"wrong secret": {token: forgedToken, want: ErrUnauthorized},
		"missing role": {token: noRole, want: ErrInvalidTokenPayload},
		"non uuid sub": {token: badSub, want: ErrInvalidTokenPayload},
	}
	for name, tc := range cases {
		if _, err := service.Authenticate(context.Background(), tc.token); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", name, tc.want, err)
		}
	}

	service.nowFunc = func() time.Time { return time.Now().Add(16 * time.Minute) }
	if _, err := service.Authenticate(context.Background(), pair.AccessToken); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}
}

// memoryStore implements userStore and tokenStore for tests.
type memoryStore struct {
	mu         sync.Mutex
	users      map[uuid.UUID]user.User
	tokens     map[string]RefreshToken
	failCreate error
	failDelete error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users:  make(map[uuid.UUID]user.User),
		tokens: make(map[string]RefreshToken),
	}
}

func (m *memoryStore) Create(ctx context.Context, in user.CreateInput) (user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == in.Email {
			return user.User{}, user.ErrEmailTaken
		}
	}
	u := user.User{
		ID:           uuid.New(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		Role:         in.Role,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	m.users[u.ID] = u
	return u, nil
}

func (m *memoryStore) FindByEmail(ctx context.Context, email string) (user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return user.User{}, user.ErrUserNotFound
}

func (m *memoryStore) FindByID(ctx context.Context, id uuid.UUID) (user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return user.User{}, user.ErrUserNotFound
	}
	return u, nil
}

func (m *memoryStore) CreateRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreate != nil {
		return m.failCreate
	}
	m.tokens[token] = RefreshToken{ID: uuid.New(), Token: token, UserID: userID, ExpiresAt: expiresAt, CreatedAt: time.Now()}
	return nil
}

func (m *memoryStore) FindRefreshToken(ctx context.Context, token string) (RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rt, ok := m.tokens[token]
	if !ok {
		return RefreshToken{}, ErrRefreshTokenNotFound
	}
	rt.Owner = m.users[rt.UserID]
	return rt, nil
}

func (m *memoryStore) DeleteRefreshToken(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, rt := range m.tokens {
		if rt.ID == id {
			delete(m.tokens, k)
		}
	}
	return nil
}

func (m *memoryStore) DeleteUserRefreshTokens(ctx context.Context, userID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDelete != nil {
		return 0, m.failDelete
	}
	var n int64
	for k, rt := range m.tokens {
		if rt.UserID == userID {
			delete(m.tokens, k)
			n++
		}
	}
	return n, nil
}

func (m *memoryStore) tokenCount(userID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, rt := range m.tokens {
		if rt.UserID == userID {
			n++
		}
	}
	return n
}

func (m *memoryStore) setRole(id uuid.UUID, role user.Role) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.users[id]
	u.Role = role
	m.users[id] = u
}

func (m *memoryStore) deleteUser(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
}

func (m *memoryStore) snapshot() (map[uuid.UUID]user.User, map[string]RefreshToken) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := make(map[uuid.UUID]user.User, len(m.users))
	for k, v := range m.users {
		users[k] = v
	}
	tokens := make(map[string]RefreshToken, len(m.tokens))
	for k, v := range m.tokens {
		tokens[k] = v
	}
	return users, tokens
}

func (m *memoryStore) restore(users map[uuid.UUID]user.User, tokens map[string]RefreshToken) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users, m.tokens = users, tokens
}

// lockingTx serializes transactions and restores the store when fn fails,
// standing in for row locks and rollback.
type lockingTx struct {
	mu    sync.Mutex
	store *memoryStore
}

func (l *lockingTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	users, tokens := l.store.snapshot()
	if err := fn(ctx); err != nil {
		l.store.restore(users, tokens)
		return err
	}
	return nil
}
