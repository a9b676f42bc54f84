// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"lessonpress/internal/lesson"
	"lessonpress/internal/models"
)

// Seed populates an empty database with a starter section and a draft
// lesson so a fresh development install has something to edit.
func Seed(ctx context.Context, db *sql.DB) error {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sections").Scan(&count); err != nil {
		return fmt.Errorf("seed check sections: %w", err)
	}
	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	content := lesson.NormalizeContent(lesson.RawContent{
		TheoryHTML: "<h2>Welcome</h2><p>Edit this lesson from the <strong>/bod</strong> dashboard.</p>",
		Tasks:      []lesson.RawTask{{Title: "First task", HTML: "<p>Publish this lesson.</p>"}},
		Tests: []lesson.RawQuestion{{
			Question: "Where are lessons edited?",
			Options:  []string{"/bod", "/api", "/health", "/section-1-getting-started"},
		}},
	}, lesson.Options{LessonTitle: "Welcome"})

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	var sectionID string
	err = tx.QueryRowContext(ctx,
		`INSERT INTO sections (number, title, slug) VALUES ($1, $2, $3) RETURNING id`,
		1, "Getting started", "getting-started",
	).Scan(&sectionID)
	if err != nil {
		return fmt.Errorf("seed insert section: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO lessons (section_id, number, title, slug, status, content)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		sectionID, 1, "Welcome", "welcome", string(models.LessonStatusDraft), content,
	)
	if err != nil {
		return fmt.Errorf("seed insert lesson: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded with starter section", "section", "1-getting-started")
	return nil
}
