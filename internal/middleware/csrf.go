// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net/http"

	"lessonpress/internal/apperr"
	"lessonpress/internal/auth"
)

const (
	// CSRFHeaderName is the header API clients send the token in.
	CSRFHeaderName = "X-CSRF-Token"

	// CSRFFormField is the hidden form field name for page forms.
	CSRFFormField = "csrf_token"
)

// RequireCSRF validates the double-submit token on state-changing methods
// (POST, PUT, PATCH, DELETE) against the token stored in the session.
// The API surface reads only the header; page forms may use either the
// header or the form field. Failure is always 403, never a redirect.
// Must follow LoadSession.
func RequireCSRF(guard *auth.Guard, surface Surface) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isSafeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			submitted := r.Header.Get(CSRFHeaderName)
			if submitted == "" && surface == SurfacePage {
				submitted = r.PostFormValue(CSRFFormField)
			}

			if err := guard.VerifyCSRF(SessionFromCtx(r.Context()).State, submitted); err != nil {
				if surface == SurfaceAPI {
					writeJSONError(w, err)
					return
				}
				http.Error(w, apperr.Message(err), http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isSafeMethod(m string) bool {
	return m == http.MethodGet || m == http.MethodHead || m == http.MethodOptions
}
