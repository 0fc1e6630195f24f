package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"user-session-api/internal/apperr"
	"user-session-api/internal/security"
	sessiondomain "user-session-api/internal/session/domain"
	userdomain "user-session-api/internal/user/domain"
)

type memUserRepo struct {
	mu     sync.Mutex
	byUUID map[string]*userdomain.User
	byName map[string]*userdomain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byUUID: map[string]*userdomain.User{}, byName: map[string]*userdomain.User{}}
}

func (r *memUserRepo) GetByUUID(ctx context.Context, id string) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byUUID[id], nil
}

func (r *memUserRepo) GetByUsername(ctx context.Context, name string) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byName[name], nil
}

func (r *memUserRepo) add(u *userdomain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byUUID[u.UUID] = u
	r.byName[u.Username] = u
}

type memSessionRepo struct {
	mu     sync.Mutex
	byUser map[string]*sessiondomain.Session
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{byUser: map[string]*sessiondomain.Session{}}
}

func (r *memSessionRepo) GetByUserUUID(ctx context.Context, userUUID string) (*sessiondomain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.byUser[userUUID]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, nil
}

func (r *memSessionRepo) GetByUserUUIDForUpdate(ctx context.Context, userUUID string) (*sessiondomain.Session, error) {
	return r.GetByUserUUID(ctx, userUUID)
}

func (r *memSessionRepo) Create(ctx context.Context, s *sessiondomain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byUser[s.UserUUID]; ok {
		// what the unique constraint on user_uuid yields after translation
		return apperr.Conflict("resource already exists")
	}
	copied := *s
	copied.ID = int64(len(r.byUser) + 1)
	r.byUser[s.UserUUID] = &copied
	s.ID = copied.ID
	return nil
}

func (r *memSessionRepo) UpdateToken(ctx context.Context, sessionUUID, token string, refreshes int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.byUser {
		if s.UUID == sessionUUID {
			s.Token = token
			s.Refreshes = refreshes
			return nil
		}
	}
	return nil
}

func (r *memSessionRepo) DeleteByUserUUID(ctx context.Context, userUUID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byUser, userUUID)
	return nil
}

type memTxRunner struct {
	users    *memUserRepo
	sessions *memSessionRepo
}

func (t *memTxRunner) RunInTx(ctx context.Context, fn func(users UserRepo, sessions SessionRepo) error) error {
	return fn(t.users, t.sessions)
}

type fixture struct {
	svc      *Service
	users    *memUserRepo
	sessions *memSessionRepo
	user     *userdomain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	users := newMemUserRepo()
	sessions := newMemSessionRepo()
	hasher := security.NewHasher(4)
	hash, err := hasher.Hash([]byte("secret123"))
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u, err := userdomain.New(map[string]any{"username": "Eve", "password": hash})
	if err != nil {
		t.Fatalf("user: %v", err)
	}
	u.ID = 1
	users.add(u)
	tokens := security.NewTokenProvider([]byte("test-secret"), "user-session-api", time.Hour)
	svc := New(users, sessions, &memTxRunner{users: users, sessions: sessions}, tokens, hasher)
	return &fixture{svc: svc, users: users, sessions: sessions, user: u}
}

func TestCreate_Login(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.Create(context.Background(), CreateInput{Username: "Eve", Password: "secret123"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if res.User.Username != "Eve" || res.User.UUID != f.user.UUID {
		t.Errorf("projection wrong: %+v", res.User)
	}
	if res.Token == "" {
		t.Error("login must yield a signed credential")
	}
	sess, _ := f.sessions.GetByUserUUID(context.Background(), f.user.UUID)
	if sess == nil {
		t.Fatal("session row must exist after login")
	}
	if sess.Refreshes != 0 {
		t.Errorf("fresh session Refreshes = %d, want 0", sess.Refreshes)
	}
	if sess.Token != res.Token {
		t.Error("persisted token must match the issued credential")
	}
}

func TestCreate_UnknownUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), CreateInput{Username: "Mallory", Password: "x"})
	if err == nil {
		t.Fatal("unknown user must fail")
	}
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("kind = %v, want not found", apperr.KindOf(err))
	}
}

func TestCreate_WrongPassword(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), CreateInput{Username: "Eve", Password: "nope"})
	if err == nil {
		t.Fatal("wrong password must fail")
	}
	if apperr.KindOf(err) != apperr.KindUnauthorized {
		t.Errorf("kind = %v, want unauthorized", apperr.KindOf(err))
	}
}

// Logging in twice rotates the one session row instead of inserting a second.
func TestCreate_IdempotentLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := CreateInput{Username: "Eve", Password: "secret123"}

	first, err := f.svc.Create(ctx, in)
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	second, err := f.svc.Create(ctx, in)
	if err != nil {
		t.Fatalf("second login: %v", err)
	}

	f.sessions.mu.Lock()
	rows := len(f.sessions.byUser)
	f.sessions.mu.Unlock()
	if rows != 1 {
		t.Fatalf("session rows = %d, want exactly 1", rows)
	}
	sess, _ := f.sessions.GetByUserUUID(ctx, f.user.UUID)
	if sess.Refreshes != 1 {
		t.Errorf("Refreshes = %d, want 1 after second login", sess.Refreshes)
	}
	if first.Token == second.Token {
		t.Error("token must change between logins")
	}
	if sess.Token != second.Token {
		t.Error("persisted token must be the latest issuance")
	}
}

func TestCreate_RaceSurfacesConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	// A concurrent login inserted the row between the existence check and
	// the insert; the transaction must observe the uniqueness conflict.
	sess, err := sessiondomain.New(map[string]any{"userUuid": f.user.UUID, "token": "other"})
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	svc := f.svc
	// Bypass the pre-check by inserting after lookup: simulate by swapping
	// in a TxRunner that plants the row before running fn.
	svc.tx = &racingTxRunner{inner: &memTxRunner{users: f.users, sessions: f.sessions}, plant: sess, repo: f.sessions}

	_, err = svc.Create(ctx, CreateInput{Username: "Eve", Password: "secret123"})
	if err == nil {
		t.Fatal("racing create must fail")
	}
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Errorf("kind = %v, want conflict", apperr.KindOf(err))
	}
}

type racingTxRunner struct {
	inner *memTxRunner
	plant *sessiondomain.Session
	repo  *memSessionRepo
	once  sync.Once
}

func (t *racingTxRunner) RunInTx(ctx context.Context, fn func(users UserRepo, sessions SessionRepo) error) error {
	t.once.Do(func() { _ = t.repo.Create(ctx, t.plant) })
	return t.inner.RunInTx(ctx, fn)
}

func TestUpdate_RefreshCeiling(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.Create(ctx, CreateInput{Username: "Eve", Password: "secret123"}); err != nil {
		t.Fatalf("login: %v", err)
	}

	var lastToken string
	for i := 1; i <= sessiondomain.MaxRefreshes; i++ {
		res, err := f.svc.Update(ctx, f.user.UUID)
		if err != nil {
			t.Fatalf("refresh %d: %v", i, err)
		}
		sess, _ := f.sessions.GetByUserUUID(ctx, f.user.UUID)
		if sess.Refreshes != i {
			t.Fatalf("refresh %d: Refreshes = %d", i, sess.Refreshes)
		}
		if res.Token == lastToken {
			t.Fatalf("refresh %d: token did not rotate", i)
		}
		lastToken = res.Token
	}

	_, err := f.svc.Update(ctx, f.user.UUID)
	if err == nil {
		t.Fatal("rotation past the ceiling must fail")
	}
	if apperr.KindOf(err) != apperr.KindUnauthorized {
		t.Errorf("kind = %v, want unauthorized (propagated untouched)", apperr.KindOf(err))
	}
	if err.Error() != "Maximum refreshes exceeded" {
		t.Errorf("message = %q", err.Error())
	}
	// The compensating delete is the caller's job; the row still exists here.
	sess, _ := f.sessions.GetByUserUUID(ctx, f.user.UUID)
	if sess == nil {
		t.Error("service must not delete the row itself on ceiling breach")
	}
}

func TestUpdate_CeilingBreachDoesNotPersist(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.Create(ctx, CreateInput{Username: "Eve", Password: "secret123"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	for i := 1; i <= sessiondomain.MaxRefreshes; i++ {
		if _, err := f.svc.Update(ctx, f.user.UUID); err != nil {
			t.Fatalf("refresh %d: %v", i, err)
		}
	}
	before, _ := f.sessions.GetByUserUUID(ctx, f.user.UUID)
	if _, err := f.svc.Update(ctx, f.user.UUID); err == nil {
		t.Fatal("expected ceiling breach")
	}
	after, _ := f.sessions.GetByUserUUID(ctx, f.user.UUID)
	if after.Token != before.Token || after.Refreshes != before.Refreshes {
		t.Error("failed rotation must not write anything")
	}
}

func TestUpdate_MissingUserAndSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Update(ctx, uuid.NewString())
	if err == nil || !strings.Contains(err.Error(), "User by uuid") {
		t.Errorf("unknown user: got %v", err)
	}

	_, err = f.svc.Update(ctx, f.user.UUID)
	if err == nil || !strings.Contains(err.Error(), "Session for user uuid") {
		t.Errorf("no session: got %v", err)
	}
}

// "User not found" and "session not found" must never be interchangeable.
func TestExists_Dual404(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ghost := uuid.NewString()
	err := f.svc.Exists(ctx, ghost)
	if err == nil {
		t.Fatal("unknown user must fail")
	}
	if want := fmt.Sprintf("User by uuid %s not found", ghost); err.Error() != want {
		t.Errorf("message = %q, want %q", err.Error(), want)
	}

	err = f.svc.Exists(ctx, f.user.UUID)
	if err == nil {
		t.Fatal("existing user without session must fail")
	}
	if want := fmt.Sprintf("Session for user uuid %s not found", f.user.UUID); err.Error() != want {
		t.Errorf("message = %q, want %q", err.Error(), want)
	}

	if _, err := f.svc.Create(ctx, CreateInput{Username: "Eve", Password: "secret123"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := f.svc.Exists(ctx, f.user.UUID); err != nil {
		t.Errorf("Exists after login: %v", err)
	}
}

func TestRemove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.Create(ctx, CreateInput{Username: "Eve", Password: "secret123"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := f.svc.Remove(ctx, f.user.UUID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := f.svc.Exists(ctx, f.user.UUID); err == nil {
		t.Error("session must be gone after Remove")
	}
	if err := f.svc.Remove(ctx, f.user.UUID); err == nil {
		t.Error("second Remove must fail the session lookup")
	}
}
