// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"lessonpress/internal/apperr"
	"lessonpress/internal/auth"
	"lessonpress/internal/session"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// SessionKey is the context key for the loaded session.
	SessionKey contextKey = "session"

	// LoginPath is where unauthenticated page requests are sent.
	LoginPath = "/bod"
)

// Surface selects how guards reject a request: the JSON API answers with
// a JSON error, the page surface redirects or answers in plain text.
type Surface int

const (
	SurfaceAPI Surface = iota
	SurfacePage
)

// Session is the request's session: its id (empty until first saved) and
// state.
type Session struct {
	ID    string
	State auth.SessionState
}

// LoadSession reads the session cookie, loads the state through the guard
// and stores it in the request context. It never rejects: unknown ids and
// store failures yield an anonymous session with no id, so a fresh id is
// issued on the next save.
func LoadSession(guard *auth.Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := &Session{}
			if id := session.ID(r); id != "" {
				st, found, err := guard.Load(r.Context(), id)
				if err != nil {
					slog.Warn("session load failed", "error", err)
				}
				if found {
					sess.ID = id
					sess.State = st
				}
			}

			ctx := context.WithValue(r.Context(), SessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects anonymous sessions: 401 JSON on the API, a 303
// redirect to the login page otherwise. Must follow LoadSession.
func RequireAdmin(guard *auth.Guard, surface Surface) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := guard.RequireAdmin(SessionFromCtx(r.Context()).State); err != nil {
				if surface == SurfaceAPI {
					writeJSONError(w, err)
					return
				}
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SessionFromCtx returns the loaded session, or an empty anonymous one
// when LoadSession did not run.
func SessionFromCtx(ctx context.Context) *Session {
	if sess, ok := ctx.Value(SessionKey).(*Session); ok {
		return sess
	}
	return &Session{}
}

// writeJSONError writes {"error": message} with the status of err.
func writeJSONError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apperr.StatusCode(err))
	json.NewEncoder(w).Encode(map[string]string{"error": apperr.Message(err)})
}
