// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"lessonpress/internal/apperr"
	"lessonpress/internal/imaging"
	"lessonpress/internal/lesson"
	"lessonpress/internal/models"
	"lessonpress/internal/storage"
)

// uploadFormOverhead is the multipart framing allowed on top of the image.
const uploadFormOverhead = 1 << 20

// API groups the JSON endpoints under /api. Admin and CSRF checks are
// applied by middleware before these handlers run.
type API struct {
	*catalog
	sessions sessions
	images   ImageStore
}

// NewAPI creates the JSON API handler group.
func NewAPI(d Deps) *API {
	return &API{
		catalog:  newCatalog(d),
		sessions: sessions{guard: d.Guard, cookies: d.Cookies},
		images:   d.Images,
	}
}

// CSRFToken returns the session's CSRF token, creating the session and
// token on first use.
func (a *API) CSRFToken(w http.ResponseWriter, r *http.Request) {
	token, err := a.sessions.ensureToken(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"csrf_token": token})
}

// ListSections returns every section ordered by number.
func (a *API) ListSections(w http.ResponseWriter, r *http.Request) {
	sections, err := a.sections.List(r.Context())
	if err != nil {
		writeError(w, r, apperr.Storage("Failed to list sections.", err))
		return
	}
	if sections == nil {
		sections = []models.Section{}
	}
	writeJSON(w, http.StatusOK, sections)
}

// CreateSection creates a section from a JSON payload.
func (a *API) CreateSection(w http.ResponseWriter, r *http.Request) {
	var in sectionInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := a.createSection(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, created)
}

// UpdateSection replaces a section's number, title and slug.
func (a *API) UpdateSection(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id", "Section not found.")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in sectionInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := a.updateSection(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteSection removes a section, its lessons and their images.
func (a *API) DeleteSection(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id", "Section not found.")
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := a.deleteSection(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteResponse(res))
}

// ListLessons returns all lessons, or those of ?section_id= when given.
func (a *API) ListLessons(w http.ResponseWriter, r *http.Request) {
	sectionID := uuid.Nil
	if raw := r.URL.Query().Get("section_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, r, apperr.Validation("section_id must be a valid UUID."))
			return
		}
		sectionID = id
	}

	lessons, err := a.lessons.List(r.Context(), sectionID)
	if err != nil {
		writeError(w, r, apperr.Storage("Failed to list lessons.", err))
		return
	}
	if lessons == nil {
		lessons = []models.Lesson{}
	}
	writeJSON(w, http.StatusOK, lessons)
}

// GetLesson returns one lesson with its content.
func (a *API) GetLesson(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id", "Lesson not found.")
	if err != nil {
		writeError(w, r, err)
		return
	}
	l, err := a.lessons.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, r, apperr.Storage("Failed to load lesson.", err))
		return
	}
	if l == nil {
		writeError(w, r, apperr.NotFound("Lesson not found."))
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// CreateLesson creates a lesson. Content is sanitized and its image keys
// collected from the theory and task HTML.
func (a *API) CreateLesson(w http.ResponseWriter, r *http.Request) {
	var in lessonInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := a.createLesson(r.Context(), in, lesson.Options{})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, created)
}

// UpdateLesson replaces a lesson and its content.
func (a *API) UpdateLesson(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id", "Lesson not found.")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in lessonInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := a.updateLesson(r.Context(), id, in, lesson.Options{})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteLesson removes a lesson's images and then the lesson. An image
// cleanup failure is reported in the body; the delete still succeeds.
func (a *API) DeleteLesson(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id", "Lesson not found.")
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := a.deleteLesson(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteResponse(res))
}

// ListOrphanedImages returns the most recent image purges that failed,
// newest first. ?limit= defaults to 50 and is capped at 500.
func (a *API) ListOrphanedImages(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, r, apperr.Validation("limit must be a positive integer."))
			return
		}
		limit = min(n, 500)
	}
	entries, err := a.orphans.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, r, apperr.Storage("Failed to list orphaned images.", err))
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// UploadImage stores a multipart "file" field in the image bucket and
// returns its key and public URL.
func (a *API) UploadImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(imaging.MaxBytes + uploadFormOverhead); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, r, apperr.Validation("File too large. Maximum size is 5 MB."))
			return
		}
		writeError(w, r, apperr.Validation("Invalid upload form."))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, apperr.Validation("No file provided."))
		return
	}
	defer file.Close()

	// One byte past the limit is enough for Inspect to reject it.
	data, err := io.ReadAll(io.LimitReader(file, imaging.MaxBytes+1))
	if err != nil {
		writeError(w, r, apperr.Validation("Failed to read file."))
		return
	}

	info, err := imaging.Inspect(data)
	if err != nil {
		writeError(w, r, err)
		return
	}

	up, err := a.images.UploadImage(r.Context(), data, info.ContentType, info.Ext)
	if errors.Is(err, storage.ErrNotConfigured) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "Image storage is not configured."})
		return
	}
	if err != nil {
		writeError(w, r, apperr.Storage("Failed to upload image.", err))
		return
	}

	slog.Info("image uploaded", "key", up.Key, "type", info.ContentType, "bytes", len(data),
		"width", info.Width, "height", info.Height)
	writeJSON(w, http.StatusOK, up)
}
