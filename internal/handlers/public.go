// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"lessonpress/internal/apperr"
	"lessonpress/internal/cache"
	"lessonpress/internal/models"
	"lessonpress/internal/slug"
)

// Public serves published sections and lessons addressed by descriptor
// ("<number>-<slug>"). It checks the Valkey response cache first and stores
// the encoded response on a miss.
type Public struct {
	sections SectionRepository
	lessons  LessonRepository
	cache    ResponseCache
}

// NewPublic creates the public read handler group.
func NewPublic(d Deps) *Public {
	return &Public{sections: d.Sections, lessons: d.Lessons, cache: d.Cache}
}

// lessonSummary is a lesson without its content.
type lessonSummary struct {
	ID     uuid.UUID           `json:"id"`
	Number int                 `json:"number"`
	Title  string              `json:"title"`
	Slug   string              `json:"slug"`
	Status models.LessonStatus `json:"status"`
	URL    string              `json:"url,omitempty"`
}

// summarize drops the content; sectionPath, when set, yields a public URL.
func summarize(l models.Lesson, sectionPath string) lessonSummary {
	s := lessonSummary{ID: l.ID, Number: l.Number, Title: l.Title, Slug: l.Slug, Status: l.Status}
	if sectionPath != "" {
		s.URL = sectionPath + "/lesson-" + slug.Descriptor(l.Number, l.Slug)
	}
	return s
}

func sectionPath(s *models.Section) string {
	return "/section-" + slug.Descriptor(s.Number, s.Slug)
}

// indexSection is a table-of-contents row.
type indexSection struct {
	models.Section
	URL     string          `json:"url"`
	Lessons []lessonSummary `json:"lessons"`
}

// Index returns every section ordered by number, each with its published
// lessons ordered by number. Sections without published lessons are listed
// with an empty lesson list.
func (p *Public) Index(w http.ResponseWriter, r *http.Request) {
	key := cache.HomepageKey()
	if cached, ok := p.cache.Get(r.Context(), key); ok {
		writeCached(w, cached)
		return
	}

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
		writeError(w, r, apperr.Storage("Failed to load sections.", err))
		return
	}

	bySection := make(map[uuid.UUID][]models.Lesson, len(sections))
	for _, l := range lessons {
		if l.IsPublished() {
			bySection[l.SectionID] = append(bySection[l.SectionID], l)
		}
	}

	entries := make([]indexSection, 0, len(sections))
	for i := range sections {
		s := &sections[i]
		path := sectionPath(s)
		published := bySection[s.ID]
		sort.SliceStable(published, func(a, b int) bool { return published[a].Number < published[b].Number })

		summaries := make([]lessonSummary, 0, len(published))
		for _, l := range published {
			summaries = append(summaries, summarize(l, path))
		}
		entries = append(entries, indexSection{Section: *s, URL: path, Lessons: summaries})
	}

	p.respond(w, r, key, map[string]any{"sections": entries})
}

// Section returns a section with its published lessons.
func (p *Public) Section(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	number, sectionSlug, ok := slug.ParseDescriptor(chi.URLParam(r, "section"))
	if !ok {
		writeError(w, r, apperr.NotFound("Section not found."))
		return
	}

	key := cache.SectionKey(number, sectionSlug)
	if cached, ok := p.cache.Get(ctx, key); ok {
		writeCached(w, cached)
		return
	}

	sec, err := p.sections.FindByNumberSlug(ctx, number, sectionSlug)
	if err != nil {
		writeError(w, r, apperr.Storage("Failed to load section.", err))
		return
	}
	if sec == nil {
		writeError(w, r, apperr.NotFound("Section not found."))
		return
	}

	lessons, err := p.lessons.ListPublishedBySection(ctx, sec.ID)
	if err != nil {
		writeError(w, r, apperr.Storage("Failed to load lessons.", err))
		return
	}

	path := sectionPath(sec)
	summaries := make([]lessonSummary, 0, len(lessons))
	for _, l := range lessons {
		summaries = append(summaries, summarize(l, path))
	}

	p.respond(w, r, key, map[string]any{
		"section": sec,
		"lessons": summaries,
	})
}

// Lesson returns a published lesson with links to its published
// neighbours. Drafts are not found.
func (p *Public) Lesson(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sNumber, sSlug, ok := slug.ParseDescriptor(chi.URLParam(r, "section"))
	if !ok {
		writeError(w, r, apperr.NotFound("Lesson not found."))
		return
	}
	lNumber, lSlug, ok := slug.ParseDescriptor(chi.URLParam(r, "lesson"))
	if !ok {
		writeError(w, r, apperr.NotFound("Lesson not found."))
		return
	}

	key := cache.LessonKey(sNumber, sSlug, lNumber, lSlug)
	if cached, ok := p.cache.Get(ctx, key); ok {
		writeCached(w, cached)
		return
	}

	sec, err := p.sections.FindByNumberSlug(ctx, sNumber, sSlug)
	if err != nil {
		writeError(w, r, apperr.Storage("Failed to load section.", err))
		return
	}
	if sec == nil {
		writeError(w, r, apperr.NotFound("Lesson not found."))
		return
	}

	les, err := p.lessons.FindBySection(ctx, sec.ID, lNumber, lSlug)
	if err != nil {
		writeError(w, r, apperr.Storage("Failed to load lesson.", err))
		return
	}
	if les == nil || !les.IsPublished() {
		writeError(w, r, apperr.NotFound("Lesson not found."))
		return
	}

	published, err := p.lessons.ListPublishedBySection(ctx, sec.ID)
	if err != nil {
		writeError(w, r, apperr.Storage("Failed to load lessons.", err))
		return
	}

	path := sectionPath(sec)
	var prev, next *lessonSummary
	for i, l := range published {
		if l.ID != les.ID {
			continue
		}
		if i > 0 {
			s := summarize(published[i-1], path)
			prev = &s
		}
		if i+1 < len(published) {
			s := summarize(published[i+1], path)
			next = &s
		}
		break
	}

	p.respond(w, r, key, map[string]any{
		"section":     sec,
		"lesson":      les,
		"prev_lesson": prev,
		"next_lesson": next,
	})
}

// respond encodes body, caches it under key and writes it.
func (p *Public) respond(w http.ResponseWriter, r *http.Request, key string, body any) {
	encoded, err := json.Marshal(body)
	if err != nil {
		slog.Error("encode public response failed", "path", r.URL.Path, "error", err)
		writeError(w, r, err)
		return
	}
	p.cache.Set(r.Context(), key, encoded)
	writeCached(w, encoded)
}

func writeCached(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}
