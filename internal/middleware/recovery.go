// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
)

// Recoverer catches panics in downstream handlers, logs the stack trace,
// and returns a 500 instead of crashing the server. API requests get a
// JSON body. http.ErrAbortHandler is re-raised so net/http can abort the
// connection as intended.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}

			slog.Error("panic recovered",
				"error", rec,
				"method", r.Method,
				"path", r.URL.Path,
				"stack", string(debug.Stack()),
			)

			if strings.HasPrefix(r.URL.Path, "/api/") {
				writeJSONError(w, errors.New("panic"))
				return
			}
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}()

		next.ServeHTTP(w, r)
	})
}
