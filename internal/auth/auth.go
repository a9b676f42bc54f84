// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package auth implements the admin session state machine and the
// double-submit CSRF token that gates every mutating request.
//
// A session is either anonymous or admin and may carry a CSRF token:
//
//	anonymous --Login--> admin --Logout--> anonymous (token cleared)
//
// The Guard operates on SessionState values and returns updated copies;
// persistence goes through an injected SessionStore.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"time"

	"golang.org/x/crypto/bcrypt"

	"lessonpress/internal/apperr"
)

const tokenBytes = 32

// SessionState is the per-browser authentication state.
type SessionState struct {
	IsAdmin   bool   `json:"is_admin"`
	CSRFToken string `json:"csrf_token,omitempty"`
}

// SessionStore persists session state by opaque id. Get returns (nil, nil)
// for unknown or expired ids.
type SessionStore interface {
	Get(ctx context.Context, id string) (*SessionState, error)
	Put(ctx context.Context, id string, st SessionState) error
	Delete(ctx context.Context, id string) error
}

// Config holds the admin credentials and CSRF secret.
type Config struct {
	AdminLogin        string
	AdminPassword     string // used when AdminPasswordHash is empty
	AdminPasswordHash string // bcrypt hash
	CSRFSecretSeed    string
	SessionMaxAge     time.Duration
}

// Guard answers authentication and CSRF questions.
type Guard struct {
	cfg   Config
	store SessionStore
	rand  io.Reader
}

// NewGuard creates a Guard.
func NewGuard(cfg Config, store SessionStore) *Guard {
	return &Guard{cfg: cfg, store: store, rand: rand.Reader}
}

// MaxAge is the configured session lifetime.
func (g *Guard) MaxAge() time.Duration {
	return g.cfg.SessionMaxAge
}

// Load reads the state for a session id. found is false for empty,
// unknown or expired ids, which yield the anonymous state.
func (g *Guard) Load(ctx context.Context, id string) (st SessionState, found bool, err error) {
	if id == "" {
		return SessionState{}, false, nil
	}
	stored, err := g.store.Get(ctx, id)
	if err != nil {
		return SessionState{}, false, fmt.Errorf("load session: %w", err)
	}
	if stored == nil {
		return SessionState{}, false, nil
	}
	return *stored, true, nil
}

// Save persists state under id.
func (g *Guard) Save(ctx context.Context, id string, st SessionState) error {
	if err := g.store.Put(ctx, id, st); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Destroy removes the session.
func (g *Guard) Destroy(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := g.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	return nil
}

// CheckCredentials compares login and password against the configured
// admin pair in constant time. Both halves are always evaluated.
func (g *Guard) CheckCredentials(login, password string) bool {
	if g.cfg.AdminLogin == "" {
		return false
	}
	loginOK := digestEqual(login, g.cfg.AdminLogin)

	var passOK bool
	if g.cfg.AdminPasswordHash != "" {
		passOK = bcrypt.CompareHashAndPassword([]byte(g.cfg.AdminPasswordHash), []byte(password)) == nil
	} else {
		passOK = g.cfg.AdminPassword != "" && digestEqual(password, g.cfg.AdminPassword)
	}
	return loginOK && passOK
}

// Login marks the session as admin when the credentials match. The CSRF
// token is kept so forms rendered before login stay valid.
func (g *Guard) Login(st SessionState, login, password string) (SessionState, error) {
	if !g.CheckCredentials(login, password) {
		return st, apperr.Authorization("Invalid login or password.")
	}
	st.IsAdmin = true
	return st, nil
}

// Logout returns the anonymous state. The CSRF token goes with it.
func (g *Guard) Logout(SessionState) SessionState {
	return SessionState{}
}

// EnsureCSRFToken returns st with a token, generating one if absent.
// changed reports whether st must be saved.
func (g *Guard) EnsureCSRFToken(st SessionState) (out SessionState, changed bool, err error) {
	if st.CSRFToken != "" {
		return st, false, nil
	}
	tok, err := g.newToken()
	if err != nil {
		return st, false, fmt.Errorf("generate csrf token: %w", err)
	}
	st.CSRFToken = tok
	return st, true, nil
}

// VerifyCSRF checks a submitted token against the session token. Missing
// tokens on either side fail.
func (g *Guard) VerifyCSRF(st SessionState, submitted string) error {
	if st.CSRFToken == "" || submitted == "" {
		return apperr.CSRF("CSRF token missing.")
	}
	if !hmac.Equal(g.mac(st.CSRFToken), g.mac(submitted)) {
		return apperr.CSRF("CSRF token invalid.")
	}
	return nil
}

// RequireAdmin fails with an authorization error for anonymous sessions.
func (g *Guard) RequireAdmin(st SessionState) error {
	if !st.IsAdmin {
		return apperr.Authorization("Unauthorized")
	}
	return nil
}

// NewSessionID returns a random opaque session identifier.
func (g *Guard) NewSessionID() (string, error) {
	return g.newToken()
}

func (g *Guard) newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := io.ReadFull(g.rand, b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// mac keys token comparison with the configured seed so digests have a
// fixed length whatever was submitted.
func (g *Guard) mac(token string) []byte {
	m := hmac.New(sha256.New, []byte(g.cfg.CSRFSecretSeed))
	m.Write([]byte(token))
	return m.Sum(nil)
}

func digestEqual(a, b string) bool {
	da := sha256.Sum256([]byte(a))
	db := sha256.Sum256([]byte(b))
	return subtle.ConstantTimeCompare(da[:], db[:]) == 1
}
