// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"lessonpress/internal/models"
)

const lessonColumns = `l.id, l.section_id, l.number, l.title, l.slug, l.status, l.content, l.created_at, l.updated_at`

const duplicateLesson = "A lesson with this number and slug already exists in the section."

// LessonStore handles lesson persistence. Content is stored as JSONB.
type LessonStore struct {
	db *sql.DB
}

// NewLessonStore creates a new LessonStore with the given database connection.
func NewLessonStore(db *sql.DB) *LessonStore {
	return &LessonStore{db: db}
}

func scanLesson(row interface{ Scan(...any) error }) (*models.Lesson, error) {
	l := &models.Lesson{}
	if err := row.Scan(
		&l.ID, &l.SectionID, &l.Number, &l.Title, &l.Slug,
		&l.Status, &l.Content, &l.CreatedAt, &l.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *LessonStore) query(ctx context.Context, op, query string, args ...any) ([]models.Lesson, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var items []models.Lesson
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		items = append(items, *l)
	}
	return items, rows.Err()
}

// List returns lessons ordered by section number then lesson number.
// uuid.Nil lists every section.
func (s *LessonStore) List(ctx context.Context, sectionID uuid.UUID) ([]models.Lesson, error) {
	if sectionID == uuid.Nil {
		return s.query(ctx, "list lessons", `
			SELECT `+lessonColumns+`
			FROM lessons l JOIN sections s ON s.id = l.section_id
			ORDER BY s.number, l.number, l.slug`)
	}
	return s.query(ctx, "list lessons by section", `
		SELECT `+lessonColumns+`
		FROM lessons l
		WHERE l.section_id = $1
		ORDER BY l.number, l.slug`, sectionID)
}

// ListPublishedBySection returns a section's published lessons in order.
func (s *LessonStore) ListPublishedBySection(ctx context.Context, sectionID uuid.UUID) ([]models.Lesson, error) {
	return s.query(ctx, "list published lessons", `
		SELECT `+lessonColumns+`
		FROM lessons l
		WHERE l.section_id = $1 AND l.status = $2
		ORDER BY l.number, l.slug`, sectionID, string(models.LessonStatusPublished))
}

// FindByID retrieves a lesson by its UUID. Returns nil if not found.
func (s *LessonStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Lesson, error) {
	l, err := scanLesson(s.db.QueryRowContext(ctx,
		`SELECT `+lessonColumns+` FROM lessons l WHERE l.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find lesson by id: %w", err)
	}
	return l, nil
}

// FindBySection retrieves a lesson by its key within a section. Returns
// nil if not found.
func (s *LessonStore) FindBySection(ctx context.Context, sectionID uuid.UUID, number int, slug string) (*models.Lesson, error) {
	l, err := scanLesson(s.db.QueryRowContext(ctx, `
		SELECT `+lessonColumns+` FROM lessons l
		WHERE l.section_id = $1 AND l.number = $2 AND l.slug = $3`,
		sectionID, number, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find lesson by section: %w", err)
	}
	return l, nil
}

// Create inserts a lesson and returns it with the generated ID.
func (s *LessonStore) Create(ctx context.Context, l *models.Lesson) (*models.Lesson, error) {
	out, err := scanLesson(s.db.QueryRowContext(ctx, `
		INSERT INTO lessons AS l (section_id, number, title, slug, status, content)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+lessonColumns,
		l.SectionID, l.Number, l.Title, l.Slug, string(l.Status), l.Content,
	))
	if err != nil {
		return nil, wrap("create lesson", err, duplicateLesson)
	}
	return out, nil
}

// Update modifies a lesson. Returns nil if the lesson does not exist.
func (s *LessonStore) Update(ctx context.Context, l *models.Lesson) (*models.Lesson, error) {
	out, err := scanLesson(s.db.QueryRowContext(ctx, `
		UPDATE lessons AS l SET
			section_id = $2, number = $3, title = $4, slug = $5,
			status = $6, content = $7, updated_at = now()
		WHERE l.id = $1
		RETURNING `+lessonColumns,
		l.ID, l.SectionID, l.Number, l.Title, l.Slug, string(l.Status), l.Content,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("update lesson", err, duplicateLesson)
	}
	return out, nil
}

// Delete removes a lesson record.
func (s *LessonStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM lessons WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete lesson: %w", err)
	}
	return nil
}
