package auth

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"lessonpress/internal/apperr"
)

type memStore struct {
	data   map[string]SessionState
	getErr error
}

func newMemStore() *memStore { return &memStore{data: map[string]SessionState{}} }

func (m *memStore) Get(_ context.Context, id string) (*SessionState, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	st, ok := m.data[id]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (m *memStore) Put(_ context.Context, id string, st SessionState) error {
	m.data[id] = st
	return nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	delete(m.data, id)
	return nil
}

func testGuard(t *testing.T) *Guard {
	t.Helper()
	return NewGuard(Config{
		AdminLogin:     "admin",
		AdminPassword:  "s3cret",
		CSRFSecretSeed: "seed",
		SessionMaxAge:  time.Hour,
	}, newMemStore())
}

func TestCheckCredentialsPlain(t *testing.T) {
	g := testGuard(t)
	tests := []struct {
		login, password string
		want            bool
	}{
		{"admin", "s3cret", true},
		{"admin", "wrong", false},
		{"root", "s3cret", false},
		{"", "", false},
		{"admin", "s3cret ", false},
	}
	for _, tt := range tests {
		if got := g.CheckCredentials(tt.login, tt.password); got != tt.want {
			t.Errorf("CheckCredentials(%q, %q) = %v, want %v", tt.login, tt.password, got, tt.want)
		}
	}
}

func TestCheckCredentialsBcrypt(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hashed-pw"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	g := NewGuard(Config{
		AdminLogin:        "admin",
		AdminPassword:     "ignored",
		AdminPasswordHash: string(hash),
	}, newMemStore())

	if !g.CheckCredentials("admin", "hashed-pw") {
		t.Error("expected bcrypt match")
	}
	if g.CheckCredentials("admin", "ignored") {
		t.Error("plain password must be ignored when a hash is configured")
	}
}

func TestCheckCredentialsUnconfigured(t *testing.T) {
	g := NewGuard(Config{}, newMemStore())
	if g.CheckCredentials("", "") {
		t.Error("empty configuration must reject everything")
	}
	g = NewGuard(Config{AdminLogin: "admin"}, newMemStore())
	if g.CheckCredentials("admin", "") {
		t.Error("missing password must reject")
	}
}

func TestLoginLogout(t *testing.T) {
	g := testGuard(t)

	st, err := g.Login(SessionState{CSRFToken: "tok"}, "admin", "wrong")
	if !apperr.Is(err, apperr.KindAuthorization) {
		t.Fatalf("wrong password: err = %v", err)
	}
	if st.IsAdmin {
		t.Fatal("failed login must not grant admin")
	}

	st, err = g.Login(st, "admin", "s3cret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !st.IsAdmin || st.CSRFToken != "tok" {
		t.Errorf("after login: %+v", st)
	}
	if err := g.RequireAdmin(st); err != nil {
		t.Errorf("RequireAdmin after login: %v", err)
	}

	st = g.Logout(st)
	if st != (SessionState{}) {
		t.Errorf("after logout: %+v, want zero state", st)
	}
	if err := g.RequireAdmin(st); !apperr.Is(err, apperr.KindAuthorization) {
		t.Errorf("RequireAdmin after logout: %v", err)
	}
}

func TestEnsureCSRFToken(t *testing.T) {
	g := testGuard(t)

	st, changed, err := g.EnsureCSRFToken(SessionState{})
	if err != nil {
		t.Fatal(err)
	}
	if !changed || st.CSRFToken == "" {
		t.Fatalf("expected a new token, got %+v changed=%v", st, changed)
	}
	if len(st.CSRFToken) != 43 {
		t.Errorf("token length = %d, want 43 (32 bytes base64url)", len(st.CSRFToken))
	}

	again, changed, err := g.EnsureCSRFToken(st)
	if err != nil {
		t.Fatal(err)
	}
	if changed || again.CSRFToken != st.CSRFToken {
		t.Error("existing token must be kept")
	}
}

func TestEnsureCSRFTokenRandFailure(t *testing.T) {
	g := testGuard(t)
	g.rand = bytes.NewReader(nil)
	if _, _, err := g.EnsureCSRFToken(SessionState{}); err == nil {
		t.Error("expected error when randomness is unavailable")
	}
}

func TestVerifyCSRF(t *testing.T) {
	g := testGuard(t)
	st := SessionState{CSRFToken: "expected-token"}

	tests := []struct {
		name      string
		st        SessionState
		submitted string
		ok        bool
	}{
		{"match", st, "expected-token", true},
		{"mismatch", st, "other-token", false},
		{"prefix", st, "expected", false},
		{"empty submitted", st, "", false},
		{"no session token", SessionState{}, "", false},
		{"no session token but submitted", SessionState{}, "expected-token", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.VerifyCSRF(tt.st, tt.submitted)
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && !apperr.Is(err, apperr.KindCSRF) {
				t.Errorf("err = %v, want CSRF error", err)
			}
		})
	}
}

func TestLoadSaveDestroy(t *testing.T) {
	store := newMemStore()
	g := NewGuard(Config{}, store)
	ctx := context.Background()

	st, found, err := g.Load(ctx, "")
	if err != nil || found || st != (SessionState{}) {
		t.Fatalf("Load(empty) = %+v, %v, %v", st, found, err)
	}
	st, found, err = g.Load(ctx, "unknown")
	if err != nil || found || st != (SessionState{}) {
		t.Fatalf("Load(unknown) = %+v, %v, %v", st, found, err)
	}

	want := SessionState{IsAdmin: true, CSRFToken: "t"}
	if err := g.Save(ctx, "sid", want); err != nil {
		t.Fatal(err)
	}
	if st, found, _ = g.Load(ctx, "sid"); !found || st != want {
		t.Errorf("Load(sid) = %+v, %v; want %+v", st, found, want)
	}

	if err := g.Destroy(ctx, "sid"); err != nil {
		t.Fatal(err)
	}
	if _, ok := store.data["sid"]; ok {
		t.Error("session not destroyed")
	}

	store.getErr = errors.New("valkey down")
	if _, _, err := g.Load(ctx, "sid"); err == nil {
		t.Error("expected store error")
	}
}

func TestNewSessionIDUnique(t *testing.T) {
	g := testGuard(t)
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id, err := g.NewSessionID()
		if err != nil {
			t.Fatal(err)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}
