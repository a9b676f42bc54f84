// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up the HTTP routes and middleware chains: the JSON API
// under /api, the admin form surface under /bod and the public lesson reads.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	"lessonpress/internal/auth"
	"lessonpress/internal/handlers"
	"lessonpress/internal/middleware"
)

// bodyLimit caps request bodies on both admin surfaces. It leaves room for
// a full-size image upload plus multipart framing, and for lesson payloads.
const bodyLimit = 8 << 20

// Handlers bundles the handler groups the router mounts.
type Handlers struct {
	API    *handlers.API
	Pages  *handlers.Pages
	Public *handlers.Public
}

// New creates the chi router. loginLimiter throttles POST /bod/login;
// corsOrigins lists the origins allowed to call /api with credentials and
// disables CORS when empty.
func New(guard *auth.Guard, h Handlers, loginLimiter *middleware.RateLimiter, corsOrigins []string) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.LoadSession(guard))

	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		if len(corsOrigins) > 0 {
			r.Use(cors.New(cors.Options{
				AllowedOrigins:   corsOrigins,
				AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
				AllowedHeaders:   []string{"Content-Type", middleware.CSRFHeaderName},
				AllowCredentials: true,
				MaxAge:           300,
			}).Handler)
		}
		r.Use(middleware.MaxBodySize(bodyLimit))

		// Token bootstrap; the session is created on first call.
		r.Get("/csrf", h.API.CSRFToken)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(guard, middleware.SurfaceAPI))
			r.Use(middleware.RequireCSRF(guard, middleware.SurfaceAPI))

			r.Route("/sections", func(r chi.Router) {
				r.Get("/", h.API.ListSections)
				r.Post("/", h.API.CreateSection)
				r.Put("/{id}", h.API.UpdateSection)
				r.Delete("/{id}", h.API.DeleteSection)
			})

			r.Route("/lessons", func(r chi.Router) {
				r.Get("/", h.API.ListLessons)
				r.Post("/", h.API.CreateLesson)
				r.Get("/{id}", h.API.GetLesson)
				r.Put("/{id}", h.API.UpdateLesson)
				r.Delete("/{id}", h.API.DeleteLesson)
			})

			r.Post("/upload-image", h.API.UploadImage)
			r.Get("/orphaned-images", h.API.ListOrphanedImages)
		})
	})

	r.Route("/bod", func(r chi.Router) {
		r.Use(middleware.MaxBodySize(bodyLimit))

		r.Get("/", h.Pages.Home)
		r.With(loginLimiter.Middleware, middleware.RequireCSRF(guard, middleware.SurfacePage)).
			Post("/login", h.Pages.Login)
		r.With(middleware.RequireCSRF(guard, middleware.SurfacePage)).
			Post("/logout", h.Pages.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(guard, middleware.SurfacePage))
			r.Use(middleware.RequireCSRF(guard, middleware.SurfacePage))

			r.Get("/dashboard", h.Pages.Dashboard)

			r.Route("/section", func(r chi.Router) {
				r.Post("/create", h.Pages.CreateSection)
				r.Get("/edit/{id}", h.Pages.SectionForm)
				r.Post("/edit/{id}", h.Pages.EditSection)
				r.Post("/delete/{id}", h.Pages.DeleteSection)
			})

			r.Route("/lesson", func(r chi.Router) {
				r.Post("/create", h.Pages.CreateLesson)
				r.Get("/edit/{id}", h.Pages.LessonForm)
				r.Post("/edit/{id}", h.Pages.EditLesson)
				r.Post("/delete/{id}", h.Pages.DeleteLesson)
			})
		})
	})

	// Public reads: the table of contents, then sections and lessons
	// addressed by "<number>-<slug>" descriptors.
	r.Get("/", h.Public.Index)
	r.Get("/section-{section}", h.Public.Section)
	r.Get("/section-{section}/lesson-{lesson}", h.Public.Lesson)

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
