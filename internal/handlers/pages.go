// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"lessonpress/internal/apperr"
	"lessonpress/internal/auth"
	"lessonpress/internal/lesson"
	"lessonpress/internal/middleware"
	"lessonpress/internal/models"
	"lessonpress/internal/slug"
)

const dashboardPath = "/bod/dashboard"

// Pages groups the /bod admin surface. Reads answer with JSON, form posts
// answer with a 303 redirect on success and a JSON error otherwise.
type Pages struct {
	*catalog
	sessions sessions
	guard    *auth.Guard
}

// NewPages creates the admin form handler group.
func NewPages(d Deps) *Pages {
	return &Pages{
		catalog:  newCatalog(d),
		sessions: sessions{guard: d.Guard, cookies: d.Cookies},
		guard:    d.Guard,
	}
}

// Home issues the CSRF token the login form needs. Admins are sent to the
// dashboard.
func (p *Pages) Home(w http.ResponseWriter, r *http.Request) {
	token, err := p.sessions.ensureToken(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if middleware.SessionFromCtx(r.Context()).State.IsAdmin {
		http.Redirect(w, r, dashboardPath, http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"csrf_token": token,
		"is_admin":   false,
	})
}

// Login checks the submitted credentials. On success the session is
// promoted to admin under a fresh id; a failure answers 401 JSON like every
// other form error.
func (p *Pages) Login(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	st, err := p.guard.Login(sess.State, r.PostFormValue("login"), r.PostFormValue("password"))
	if err != nil {
		slog.Warn("admin login failed", "remote", r.RemoteAddr)
		writeError(w, r, err)
		return
	}

	if err := p.sessions.save(w, r, sess, st, true); err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("admin logged in", "remote", r.RemoteAddr)
	http.Redirect(w, r, dashboardPath, http.StatusSeeOther)
}

// Logout clears the session and returns to the login page.
func (p *Pages) Logout(w http.ResponseWriter, r *http.Request) {
	p.sessions.destroy(w, r)
	http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
}

// sectionEntry is a dashboard row: a section and its lessons.
type sectionEntry struct {
	models.Section
	Lessons []lessonSummary `json:"lessons"`
}

// Dashboard lists every section with its lessons (drafts included),
// ordered by number.
func (p *Pages) Dashboard(w http.ResponseWriter, r *http.Request) {
	var (
		sections []models.Section
		lessons  []models.Lesson
	)

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		sections, err = p.sections.List(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		lessons, err = p.lessons.List(ctx, uuid.Nil)
		return err
	})
	if err := g.Wait(); err != nil {
		writeError(w, r, apperr.Storage("Failed to load dashboard.", err))
		return
	}

	bySection := make(map[uuid.UUID][]lessonSummary, len(sections))
	for _, l := range lessons {
		bySection[l.SectionID] = append(bySection[l.SectionID], summarize(l, ""))
	}

	entries := make([]sectionEntry, 0, len(sections))
	for _, s := range sections {
		ls := bySection[s.ID]
		if ls == nil {
			ls = []lessonSummary{}
		}
		entries = append(entries, sectionEntry{Section: s, Lessons: ls})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"csrf_token": middleware.SessionFromCtx(r.Context()).State.CSRFToken,
		"sections":   entries,
	})
}

// SectionForm returns a section for editing.
func (p *Pages) SectionForm(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id", "Section not found.")
	if err != nil {
		writeError(w, r, err)
		return
	}
	sec, err := p.sections.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, r, apperr.Storage("Failed to load section.", err))
		return
	}
	if sec == nil {
		writeError(w, r, apperr.NotFound("Section not found."))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"csrf_token": middleware.SessionFromCtx(r.Context()).State.CSRFToken,
		"section":    sec,
	})
}

// CreateSection handles the new section form.
func (p *Pages) CreateSection(w http.ResponseWriter, r *http.Request) {
	in, err := sectionFromForm(r, 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := p.createSection(r.Context(), in); err != nil {
		writeError(w, r, err)
		return
	}
	http.Redirect(w, r, dashboardPath, http.StatusSeeOther)
}

// EditSection handles the section edit form. A blank number keeps the
// current one.
func (p *Pages) EditSection(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id", "Section not found.")
	if err != nil {
		writeError(w, r, err)
		return
	}
	current, err := p.sections.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, r, apperr.Storage("Failed to load section.", err))
		return
	}
	if current == nil {
		writeError(w, r, apperr.NotFound("Section not found."))
		return
	}

	in, err := sectionFromForm(r, current.Number)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := p.updateSection(r.Context(), id, in); err != nil {
		writeError(w, r, err)
		return
	}
	http.Redirect(w, r, dashboardPath, http.StatusSeeOther)
}

// DeleteSection handles the section delete button.
func (p *Pages) DeleteSection(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id", "Section not found.")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := p.deleteSection(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	http.Redirect(w, r, dashboardPath, http.StatusSeeOther)
}

// LessonForm returns a lesson and the section list for editing.
func (p *Pages) LessonForm(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id", "Lesson not found.")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var (
		les      *models.Lesson
		sections []models.Section
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		les, err = p.lessons.FindByID(ctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		sections, err = p.sections.List(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		writeError(w, r, apperr.Storage("Failed to load lesson.", err))
		return
	}
	if les == nil {
		writeError(w, r, apperr.NotFound("Lesson not found."))
		return
	}
	if sections == nil {
		sections = []models.Section{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"csrf_token": middleware.SessionFromCtx(r.Context()).State.CSRFToken,
		"lesson":     les,
		"sections":   sections,
	})
}

// CreateLesson handles the new lesson form. Saving a draft returns to
// the editor; publishing returns to the dashboard.
func (p *Pages) CreateLesson(w http.ResponseWriter, r *http.Request) {
	in, err := lessonFromForm(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	created, err := p.createLesson(r.Context(), in, lesson.Options{IncludeQuizImages: true})
	if err != nil {
		writeError(w, r, err)
		return
	}
	http.Redirect(w, r, afterLessonSave(created), http.StatusSeeOther)
}

// EditLesson handles the lesson edit form.
func (p *Pages) EditLesson(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id", "Lesson not found.")
	if err != nil {
		writeError(w, r, err)
		return
	}
	in, err := lessonFromForm(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := p.updateLesson(r.Context(), id, in, lesson.Options{IncludeQuizImages: true})
	if err != nil {
		writeError(w, r, err)
		return
	}
	http.Redirect(w, r, afterLessonSave(updated), http.StatusSeeOther)
}

// DeleteLesson handles the lesson delete button.
func (p *Pages) DeleteLesson(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id", "Lesson not found.")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := p.deleteLesson(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	http.Redirect(w, r, dashboardPath, http.StatusSeeOther)
}

func afterLessonSave(l *models.Lesson) string {
	if l.IsPublished() {
		return dashboardPath
	}
	return "/bod/lesson/edit/" + l.ID.String()
}

// sectionFromForm reads the section form. A blank slug is generated from
// the title; a blank number falls back to defaultNumber.
func sectionFromForm(r *http.Request, defaultNumber int) (sectionInput, error) {
	number, err := formNumber(r, defaultNumber)
	if err != nil {
		return sectionInput{}, err
	}
	in := sectionInput{
		Number: number,
		Title:  r.PostFormValue("title"),
		Slug:   r.PostFormValue("slug"),
	}
	if strings.TrimSpace(in.Slug) == "" {
		in.Slug = slug.Generate(in.Title)
	}
	return in, nil
}

// lessonFromForm reads the lesson editor form. Tasks and quiz questions
// arrive as JSON in tasks_json and tests_json and are decoded leniently.
func lessonFromForm(r *http.Request) (lessonInput, error) {
	number, err := formNumber(r, 0)
	if err != nil {
		return lessonInput{}, err
	}
	in := lessonInput{
		SectionID: r.PostFormValue("section_id"),
		Number:    number,
		Title:     r.PostFormValue("title"),
		Slug:      r.PostFormValue("slug"),
		Status:    string(models.StatusFromAction(r.PostFormValue("action"))),
		Content: lesson.RawContent{
			TheoryHTML: r.PostFormValue("theory_html"),
			Tasks:      lesson.ParseTasks(r.PostFormValue("tasks_json")),
			Tests:      lesson.ParseQuiz(r.PostFormValue("tests_json")),
		},
	}
	if strings.TrimSpace(in.Slug) == "" {
		in.Slug = slug.Generate(in.Title)
	}
	return in, nil
}

func formNumber(r *http.Request, fallback int) (int, error) {
	raw := strings.TrimSpace(r.PostFormValue("number"))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation("number: must be an integer.")
	}
	return n, nil
}
