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

const sectionColumns = `id, number, title, slug, created_at, updated_at`

const duplicateSection = "A section with this number and slug already exists."

// SectionStore handles section persistence.
type SectionStore struct {
	db *sql.DB
}

// NewSectionStore creates a new SectionStore with the given database connection.
func NewSectionStore(db *sql.DB) *SectionStore {
	return &SectionStore{db: db}
}

func scanSection(row interface{ Scan(...any) error }) (*models.Section, error) {
	s := &models.Section{}
	if err := row.Scan(&s.ID, &s.Number, &s.Title, &s.Slug, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return s, nil
}

// List returns all sections ordered by number.
func (s *SectionStore) List(ctx context.Context) ([]models.Section, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sectionColumns+` FROM sections ORDER BY number, slug`)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	defer rows.Close()

	var items []models.Section
	for rows.Next() {
		sec, err := scanSection(rows)
		if err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		items = append(items, *sec)
	}
	return items, rows.Err()
}

// FindByID retrieves a section by its UUID. Returns nil if not found.
func (s *SectionStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Section, error) {
	sec, err := scanSection(s.db.QueryRowContext(ctx,
		`SELECT `+sectionColumns+` FROM sections WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find section by id: %w", err)
	}
	return sec, nil
}

// FindByNumberSlug retrieves a section by its external key. Returns nil if
// not found.
func (s *SectionStore) FindByNumberSlug(ctx context.Context, number int, slug string) (*models.Section, error) {
	sec, err := scanSection(s.db.QueryRowContext(ctx,
		`SELECT `+sectionColumns+` FROM sections WHERE number = $1 AND slug = $2`, number, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find section by number and slug: %w", err)
	}
	return sec, nil
}

// Create inserts a section and returns it with the generated ID.
func (s *SectionStore) Create(ctx context.Context, sec *models.Section) (*models.Section, error) {
	out, err := scanSection(s.db.QueryRowContext(ctx, `
		INSERT INTO sections (number, title, slug)
		VALUES ($1, $2, $3)
		RETURNING `+sectionColumns,
		sec.Number, sec.Title, sec.Slug,
	))
	if err != nil {
		return nil, wrap("create section", err, duplicateSection)
	}
	return out, nil
}

// Update modifies a section. Returns nil if the section does not exist.
func (s *SectionStore) Update(ctx context.Context, sec *models.Section) (*models.Section, error) {
	out, err := scanSection(s.db.QueryRowContext(ctx, `
		UPDATE sections SET number = $2, title = $3, slug = $4, updated_at = now()
		WHERE id = $1
		RETURNING `+sectionColumns,
		sec.ID, sec.Number, sec.Title, sec.Slug,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("update section", err, duplicateSection)
	}
	return out, nil
}

// Delete removes a section; its lessons are removed by the cascade.
func (s *SectionStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sections WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete section: %w", err)
	}
	return nil
}
