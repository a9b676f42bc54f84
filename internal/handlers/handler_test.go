// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides in-memory collaborators for the handler tests.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"lessonpress/internal/apperr"
	"lessonpress/internal/auth"
	"lessonpress/internal/middleware"
	"lessonpress/internal/models"
	"lessonpress/internal/session"
	"lessonpress/internal/storage"
	"lessonpress/internal/store"
)

// memSessions is an in-memory auth.SessionStore.
type memSessions struct {
	mu     sync.Mutex
	states map[string]auth.SessionState
}

func (m *memSessions) Get(_ context.Context, id string) (*auth.SessionState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[id]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (m *memSessions) Put(_ context.Context, id string, st auth.SessionState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[id] = st
	return nil
}

func (m *memSessions) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, id)
	return nil
}

// memDB holds sections and lessons and enforces the constraints the
// PostgreSQL schema does: unique keys, the section foreign key and the
// delete cascade.
type memDB struct {
	mu       sync.Mutex
	sections map[uuid.UUID]models.Section
	lessons  map[uuid.UUID]models.Lesson
	err      error // returned by every call when set
}

func newMemDB() *memDB {
	return &memDB{
		sections: make(map[uuid.UUID]models.Section),
		lessons:  make(map[uuid.UUID]models.Lesson),
	}
}

type memSections struct{ db *memDB }

func (s memSections) List(context.Context) ([]models.Section, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.err != nil {
		return nil, s.db.err
	}
	out := make([]models.Section, 0, len(s.db.sections))
	for _, sec := range s.db.sections {
		out = append(out, sec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (s memSections) FindByID(_ context.Context, id uuid.UUID) (*models.Section, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.err != nil {
		return nil, s.db.err
	}
	sec, ok := s.db.sections[id]
	if !ok {
		return nil, nil
	}
	return &sec, nil
}

func (s memSections) FindByNumberSlug(_ context.Context, number int, slug string) (*models.Section, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.err != nil {
		return nil, s.db.err
	}
	for _, sec := range s.db.sections {
		if sec.Number == number && sec.Slug == slug {
			return &sec, nil
		}
	}
	return nil, nil
}

func (s memSections) Create(_ context.Context, sec *models.Section) (*models.Section, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.err != nil {
		return nil, s.db.err
	}
	if s.db.sectionTaken(uuid.Nil, sec.Number, sec.Slug) {
		return nil, apperr.Validation("A section with this number and slug already exists.")
	}
	out := *sec
	out.ID = uuid.New()
	out.CreatedAt = time.Now()
	out.UpdatedAt = out.CreatedAt
	s.db.sections[out.ID] = out
	return &out, nil
}

func (s memSections) Update(_ context.Context, sec *models.Section) (*models.Section, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.err != nil {
		return nil, s.db.err
	}
	cur, ok := s.db.sections[sec.ID]
	if !ok {
		return nil, nil
	}
	if s.db.sectionTaken(sec.ID, sec.Number, sec.Slug) {
		return nil, apperr.Validation("A section with this number and slug already exists.")
	}
	cur.Number, cur.Title, cur.Slug = sec.Number, sec.Title, sec.Slug
	cur.UpdatedAt = time.Now()
	s.db.sections[cur.ID] = cur
	return &cur, nil
}

func (s memSections) Delete(_ context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.err != nil {
		return s.db.err
	}
	delete(s.db.sections, id)
	for lid, l := range s.db.lessons {
		if l.SectionID == id {
			delete(s.db.lessons, lid)
		}
	}
	return nil
}

func (db *memDB) sectionTaken(except uuid.UUID, number int, slug string) bool {
	for id, sec := range db.sections {
		if id != except && sec.Number == number && sec.Slug == slug {
			return true
		}
	}
	return false
}

type memLessons struct{ db *memDB }

func (s memLessons) sorted(keep func(models.Lesson) bool) []models.Lesson {
	out := []models.Lesson{}
	for _, l := range s.db.lessons {
		if keep(l) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		si, sj := s.db.sections[out[i].SectionID].Number, s.db.sections[out[j].SectionID].Number
		if si != sj {
			return si < sj
		}
		return out[i].Number < out[j].Number
	})
	return out
}

func (s memLessons) List(_ context.Context, sectionID uuid.UUID) ([]models.Lesson, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.err != nil {
		return nil, s.db.err
	}
	return s.sorted(func(l models.Lesson) bool {
		return sectionID == uuid.Nil || l.SectionID == sectionID
	}), nil
}

func (s memLessons) ListPublishedBySection(_ context.Context, sectionID uuid.UUID) ([]models.Lesson, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.err != nil {
		return nil, s.db.err
	}
	return s.sorted(func(l models.Lesson) bool {
		return l.SectionID == sectionID && l.IsPublished()
	}), nil
}

func (s memLessons) FindByID(_ context.Context, id uuid.UUID) (*models.Lesson, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.err != nil {
		return nil, s.db.err
	}
	l, ok := s.db.lessons[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (s memLessons) FindBySection(_ context.Context, sectionID uuid.UUID, number int, slug string) (*models.Lesson, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.err != nil {
		return nil, s.db.err
	}
	for _, l := range s.db.lessons {
		if l.SectionID == sectionID && l.Number == number && l.Slug == slug {
			return &l, nil
		}
	}
	return nil, nil
}

func (s memLessons) Create(_ context.Context, l *models.Lesson) (*models.Lesson, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.err != nil {
		return nil, s.db.err
	}
	if _, ok := s.db.sections[l.SectionID]; !ok {
		return nil, apperr.Validation("Section does not exist.")
	}
	out := *l
	out.ID = uuid.New()
	out.CreatedAt = time.Now()
	out.UpdatedAt = out.CreatedAt
	s.db.lessons[out.ID] = out
	return &out, nil
}

func (s memLessons) Update(_ context.Context, l *models.Lesson) (*models.Lesson, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.err != nil {
		return nil, s.db.err
	}
	cur, ok := s.db.lessons[l.ID]
	if !ok {
		return nil, nil
	}
	if _, ok := s.db.sections[l.SectionID]; !ok {
		return nil, apperr.Validation("Section does not exist.")
	}
	out := *l
	out.CreatedAt = cur.CreatedAt
	out.UpdatedAt = time.Now()
	s.db.lessons[out.ID] = out
	return &out, nil
}

func (s memLessons) Delete(_ context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.err != nil {
		return s.db.err
	}
	delete(s.db.lessons, id)
	return nil
}

// fakeImages records uploads and removals.
type fakeImages struct {
	mu        sync.Mutex
	uploads   [][]byte
	removed   [][]string
	uploadErr error
	removeErr error
}

func (f *fakeImages) UploadImage(_ context.Context, data []byte, _, ext string) (storage.Upload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return storage.Upload{}, f.uploadErr
	}
	f.uploads = append(f.uploads, data)
	key := "img-" + strings.Repeat("a", len(f.uploads)) + ext
	return storage.Upload{Key: key, URL: "https://cdn.test/" + key}, nil
}

func (f *fakeImages) RemoveImages(_ context.Context, keys []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, append([]string(nil), keys...))
	return f.removeErr
}

// memCache is an in-memory ResponseCache.
type memCache struct {
	mu          sync.Mutex
	entries     map[string][]byte
	invalidated int
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.entries[key]
	return b, ok
}

func (c *memCache) Set(_ context.Context, key string, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = body
}

func (c *memCache) InvalidateAll(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]byte)
	c.invalidated++
}

// memOrphans is an in-memory OrphanLog.
type memOrphans struct {
	mu      sync.Mutex
	entries []store.OrphanEntry
}

func (o *memOrphans) Record(_ context.Context, entityType string, entityID uuid.UUID, keys []string, cause error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.entries = append([]store.OrphanEntry{{
		ID:         int64(len(o.entries) + 1),
		EntityType: entityType,
		EntityID:   entityID,
		Keys:       keys,
		Error:      cause.Error(),
		RecordedAt: time.Now(),
	}}, o.entries...)
}

func (o *memOrphans) Recent(_ context.Context, limit int) ([]store.OrphanEntry, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.entries[:min(limit, len(o.entries))], nil
}

// testEnv wires the handler groups to in-memory collaborators.
type testEnv struct {
	Sessions *memSessions
	Guard    *auth.Guard
	DB       *memDB
	Images   *fakeImages
	Cache    *memCache
	Orphans  *memOrphans
	API      *API
	Pages    *Pages
	Public   *Public
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		Sessions: &memSessions{states: make(map[string]auth.SessionState)},
		DB:       newMemDB(),
		Images:   &fakeImages{},
		Cache:    &memCache{entries: make(map[string][]byte)},
		Orphans:  &memOrphans{},
	}
	env.Guard = auth.NewGuard(auth.Config{
		AdminLogin:     "admin",
		AdminPassword:  "secret",
		CSRFSecretSeed: "test-seed",
		SessionMaxAge:  time.Hour,
	}, env.Sessions)

	d := Deps{
		Guard:    env.Guard,
		Cookies:  session.Cookies{MaxAge: time.Hour},
		Sections: memSections{db: env.DB},
		Lessons:  memLessons{db: env.DB},
		Images:   env.Images,
		Cache:    env.Cache,
		Orphans:  env.Orphans,
	}
	env.API = NewAPI(d)
	env.Pages = NewPages(d)
	env.Public = NewPublic(d)
	return env
}

// seedSection inserts a section directly.
func (e *testEnv) seedSection(t *testing.T, number int, slug string) models.Section {
	t.Helper()
	sec, err := memSections{db: e.DB}.Create(context.Background(), &models.Section{Number: number, Title: "Section " + slug, Slug: slug})
	if err != nil {
		t.Fatalf("seed section: %v", err)
	}
	return *sec
}

// seedLesson inserts a lesson directly.
func (e *testEnv) seedLesson(t *testing.T, sectionID uuid.UUID, number int, slug string, status models.LessonStatus, images ...string) models.Lesson {
	t.Helper()
	content := models.Content{Images: images}
	l, err := memLessons{db: e.DB}.Create(context.Background(), &models.Lesson{
		SectionID: sectionID, Number: number, Title: "Lesson " + slug, Slug: slug, Status: status, Content: content,
	})
	if err != nil {
		t.Fatalf("seed lesson: %v", err)
	}
	return *l
}

// request builds a request carrying a loaded session and chi URL params.
// params alternates names and values.
func request(method, target string, body io.Reader, sess *middleware.Session, params ...string) *http.Request {
	r := httptest.NewRequest(method, target, body)
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(params); i += 2 {
		rctx.URLParams.Add(params[i], params[i+1])
	}
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	if sess == nil {
		sess = &middleware.Session{}
	}
	ctx = context.WithValue(ctx, middleware.SessionKey, sess)
	return r.WithContext(ctx)
}

// jsonRequest builds a JSON-body request.
func jsonRequest(method, target, body string, sess *middleware.Session, params ...string) *http.Request {
	r := request(method, target, strings.NewReader(body), sess, params...)
	r.Header.Set("Content-Type", "application/json")
	return r
}

// adminSession returns a saved admin session.
func (e *testEnv) adminSession(t *testing.T) *middleware.Session {
	t.Helper()
	st := auth.SessionState{IsAdmin: true, CSRFToken: "tok"}
	if err := e.Guard.Save(context.Background(), "admin-sid", st); err != nil {
		t.Fatal(err)
	}
	return &middleware.Session{ID: "admin-sid", State: st}
}

// decode unmarshals a recorded JSON body.
func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

// errorBody returns the "error" field of a JSON error response.
func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, rec)["error"]
}

var errBoom = errors.New("boom")
