// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package session provides Valkey-backed storage for admin session state.
// Sessions are identified by an opaque cookie value and stored as JSON in
// Valkey with a TTL that is refreshed on every write.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"lessonpress/internal/auth"
)

const (
	// CookieName is the name of the session cookie sent to the browser.
	CookieName = "lp_session"

	// DefaultTTL is the session lifetime when none is configured.
	DefaultTTL = 30 * 24 * time.Hour

	// keyPrefix namespaces session keys in Valkey to avoid collisions.
	keyPrefix = "session:"
)

// Store implements auth.SessionStore on Valkey.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a session store backed by the given Valkey client.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{client: client, ttl: ttl}
}

// Get returns the stored state, or nil if the session does not exist.
func (s *Store) Get(ctx context.Context, id string) (*auth.SessionState, error) {
	payload, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}

	var st auth.SessionState
	if err := json.Unmarshal(payload, &st); err != nil {
		return nil, fmt.Errorf("session unmarshal: %w", err)
	}
	return &st, nil
}

// Put writes the state and resets the TTL.
func (s *Store) Put(ctx context.Context, id string, st auth.SessionState) error {
	payload, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("session marshal: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+id, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("session store: %w", err)
	}
	return nil
}

// Delete removes the session.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("session delete: %w", err)
	}
	return nil
}

// Cookies issues and clears the session cookie.
type Cookies struct {
	Secure bool
	MaxAge time.Duration
}

// ID returns the session id carried by the request, or "".
func ID(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// Set writes the session cookie.
func (c Cookies) Set(w http.ResponseWriter, id string) {
	maxAge := c.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultTTL
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(maxAge.Seconds()),
	})
}

// Clear expires the session cookie immediately.
func (c Cookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
