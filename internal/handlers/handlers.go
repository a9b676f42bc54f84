// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for LessonPress. Handlers are
// grouped by surface (the JSON API, the /bod admin forms, the public reads)
// and receive their dependencies through a shared Deps value.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"lessonpress/internal/apperr"
	"lessonpress/internal/auth"
	"lessonpress/internal/lesson"
	"lessonpress/internal/middleware"
	"lessonpress/internal/models"
	"lessonpress/internal/session"
	"lessonpress/internal/storage"
	"lessonpress/internal/store"
)

// SectionRepository is the section record store used by the handlers.
type SectionRepository interface {
	List(ctx context.Context) ([]models.Section, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Section, error)
	FindByNumberSlug(ctx context.Context, number int, slug string) (*models.Section, error)
	Create(ctx context.Context, sec *models.Section) (*models.Section, error)
	Update(ctx context.Context, sec *models.Section) (*models.Section, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// LessonRepository is the lesson record store used by the handlers.
type LessonRepository interface {
	List(ctx context.Context, sectionID uuid.UUID) ([]models.Lesson, error)
	ListPublishedBySection(ctx context.Context, sectionID uuid.UUID) ([]models.Lesson, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Lesson, error)
	FindBySection(ctx context.Context, sectionID uuid.UUID, number int, slug string) (*models.Lesson, error)
	Create(ctx context.Context, l *models.Lesson) (*models.Lesson, error)
	Update(ctx context.Context, l *models.Lesson) (*models.Lesson, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ImageStore uploads and removes lesson images.
type ImageStore interface {
	UploadImage(ctx context.Context, data []byte, contentType, ext string) (storage.Upload, error)
	RemoveImages(ctx context.Context, keys []string) error
}

// ResponseCache caches encoded public responses.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, body []byte)
	InvalidateAll(ctx context.Context)
}

// OrphanLog keeps track of images a delete failed to remove.
type OrphanLog interface {
	Record(ctx context.Context, entityType string, entityID uuid.UUID, keys []string, cause error)
	Recent(ctx context.Context, limit int) ([]store.OrphanEntry, error)
}

// Deps holds everything the handler groups need.
type Deps struct {
	Guard    *auth.Guard
	Cookies  session.Cookies
	Sections SectionRepository
	Lessons  LessonRepository
	Images   ImageStore
	Cache    ResponseCache
	Orphans  OrphanLog
}

// catalog implements the section and lesson mutations shared by the API
// and the admin forms. Every successful mutation flushes the public cache.
type catalog struct {
	sections  SectionRepository
	lessons   LessonRepository
	lifecycle *lesson.Lifecycle
	cache     ResponseCache
	orphans   OrphanLog
}

func newCatalog(d Deps) *catalog {
	return &catalog{
		sections:  d.Sections,
		lessons:   d.Lessons,
		lifecycle: lesson.NewLifecycle(d.Lessons, d.Sections, d.Images),
		cache:     d.Cache,
		orphans:   d.Orphans,
	}
}

func (c *catalog) createSection(ctx context.Context, in sectionInput) (*models.Section, error) {
	in = in.normalized()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	created, err := c.sections.Create(ctx, in.section())
	if err != nil {
		return nil, storageErr("Failed to create section.", err)
	}
	c.cache.InvalidateAll(ctx)
	return created, nil
}

func (c *catalog) updateSection(ctx context.Context, id uuid.UUID, in sectionInput) (*models.Section, error) {
	in = in.normalized()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	sec := in.section()
	sec.ID = id
	updated, err := c.sections.Update(ctx, sec)
	if err != nil {
		return nil, storageErr("Failed to update section.", err)
	}
	if updated == nil {
		return nil, apperr.NotFound("Section not found.")
	}
	c.cache.InvalidateAll(ctx)
	return updated, nil
}

func (c *catalog) deleteSection(ctx context.Context, id uuid.UUID) (lesson.DeleteResult, error) {
	res, err := c.lifecycle.DeleteSection(ctx, id)
	c.afterDelete(ctx, "section", id, res)
	if err != nil {
		return res, err
	}
	c.cache.InvalidateAll(ctx)
	return res, nil
}

// createLesson and updateLesson normalize content with opts; the two
// surfaces differ in whether quiz question images are counted.
func (c *catalog) createLesson(ctx context.Context, in lessonInput, opts lesson.Options) (*models.Lesson, error) {
	in = in.normalized()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	l := in.lesson(opts)
	created, err := c.lessons.Create(ctx, l)
	if err != nil {
		return nil, storageErr("Failed to create lesson.", err)
	}
	c.cache.InvalidateAll(ctx)
	return created, nil
}

func (c *catalog) updateLesson(ctx context.Context, id uuid.UUID, in lessonInput, opts lesson.Options) (*models.Lesson, error) {
	in = in.normalized()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	l := in.lesson(opts)
	l.ID = id
	updated, err := c.lessons.Update(ctx, l)
	if err != nil {
		return nil, storageErr("Failed to update lesson.", err)
	}
	if updated == nil {
		return nil, apperr.NotFound("Lesson not found.")
	}
	c.cache.InvalidateAll(ctx)
	return updated, nil
}

func (c *catalog) deleteLesson(ctx context.Context, id uuid.UUID) (lesson.DeleteResult, error) {
	res, err := c.lifecycle.DeleteLesson(ctx, id)
	c.afterDelete(ctx, "lesson", id, res)
	if err != nil {
		return res, err
	}
	c.cache.InvalidateAll(ctx)
	return res, nil
}

// afterDelete records images that could not be removed.
func (c *catalog) afterDelete(ctx context.Context, entityType string, id uuid.UUID, res lesson.DeleteResult) {
	if res.ImageErr != nil && c.orphans != nil {
		c.orphans.Record(ctx, entityType, id, res.ImageKeys, res.ImageErr)
	}
}

// storageErr keeps store validation errors (duplicate keys, missing
// sections) as they are and wraps anything else as a storage failure.
func storageErr(msg string, err error) error {
	if _, ok := apperr.As(err); ok {
		return err
	}
	return apperr.Storage(msg, err)
}

// sessions persists session state and keeps the cookie in step.
type sessions struct {
	guard   *auth.Guard
	cookies session.Cookies
}

// save stores st for the request's session. A session without an id, or
// one being rotated after login, gets a fresh id and cookie.
func (s sessions) save(w http.ResponseWriter, r *http.Request, sess *middleware.Session, st auth.SessionState, rotate bool) error {
	ctx := r.Context()
	id := sess.ID
	if id == "" || rotate {
		newID, err := s.guard.NewSessionID()
		if err != nil {
			return err
		}
		if id != "" {
			if err := s.guard.Destroy(ctx, id); err != nil {
				slog.Warn("destroy rotated session failed", "error", err)
			}
		}
		id = newID
	}
	if err := s.guard.Save(ctx, id, st); err != nil {
		return err
	}
	if id != sess.ID {
		s.cookies.Set(w, id)
	}
	sess.ID = id
	sess.State = st
	return nil
}

// ensureToken issues a CSRF token for the session if it has none.
func (s sessions) ensureToken(w http.ResponseWriter, r *http.Request) (string, error) {
	sess := middleware.SessionFromCtx(r.Context())
	st, changed, err := s.guard.EnsureCSRFToken(sess.State)
	if err != nil {
		return "", err
	}
	if changed {
		if err := s.save(w, r, sess, st, false); err != nil {
			return "", err
		}
	}
	return st.CSRFToken, nil
}

// destroy removes the session record and the cookie.
func (s sessions) destroy(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess.ID != "" {
		if err := s.guard.Destroy(r.Context(), sess.ID); err != nil {
			slog.Warn("session destroy failed", "error", err)
		}
	}
	s.cookies.Clear(w)
	sess.ID = ""
	sess.State = s.guard.Logout(sess.State)
}

// parseID reads a UUID URL parameter. Malformed ids are reported as not
// found, like ids that do not exist.
func parseID(r *http.Request, name, notFoundMsg string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, apperr.NotFound(notFoundMsg)
	}
	return id, nil
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response failed", "error", err)
	}
}

// writeError writes {"error": message}. Internal and storage errors are
// logged with their cause; clients only see the message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.StatusCode(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": apperr.Message(err)})
}

// deleteResponse is the body of a successful delete.
func deleteResponse(res lesson.DeleteResult) map[string]any {
	body := map[string]any{"status": "ok"}
	if res.ImageErr != nil {
		body["image_cleanup_error"] = apperr.Message(res.ImageErr)
	}
	return body
}

// decodeJSON reads a JSON request body into v.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperr.Validation("Request body too large.")
		}
		return apperr.Validation("Invalid JSON body.")
	}
	return nil
}
