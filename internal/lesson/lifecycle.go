// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package lesson

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"lessonpress/internal/apperr"
	"lessonpress/internal/models"
)

// LessonRepository is the slice of the lesson store the lifecycle needs.
// FindByID returns (nil, nil) when the lesson does not exist. List with
// uuid.Nil returns every lesson.
type LessonRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Lesson, error)
	List(ctx context.Context, sectionID uuid.UUID) ([]models.Lesson, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// SectionRepository is the slice of the section store the lifecycle needs.
type SectionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Section, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ImageRemover deletes stored objects by key.
type ImageRemover interface {
	RemoveImages(ctx context.Context, keys []string) error
}

// DeleteResult reports what a delete did besides removing the record.
// ImageErr is set when the image purge failed; the record is deleted anyway.
type DeleteResult struct {
	ImageKeys []string
	ImageErr  error
}

// Lifecycle deletes lessons and sections together with the images their
// last saved content references. Keys are taken from the stored
// content.images snapshot, never recomputed, and are not reference counted:
// a key shared by two lessons is removed when either is deleted.
type Lifecycle struct {
	lessons  LessonRepository
	sections SectionRepository
	images   ImageRemover
}

// NewLifecycle creates a lifecycle manager.
func NewLifecycle(lessons LessonRepository, sections SectionRepository, images ImageRemover) *Lifecycle {
	return &Lifecycle{lessons: lessons, sections: sections, images: images}
}

// DeleteLesson removes the lesson's images and then the lesson record.
func (l *Lifecycle) DeleteLesson(ctx context.Context, id uuid.UUID) (DeleteResult, error) {
	les, err := l.lessons.FindByID(ctx, id)
	if err != nil {
		return DeleteResult{}, apperr.Storage("Failed to load lesson.", err)
	}
	if les == nil {
		return DeleteResult{}, apperr.NotFound("Lesson not found.")
	}

	res := DeleteResult{ImageKeys: les.Content.Images}
	res.ImageErr = l.purge(ctx, res.ImageKeys, "lesson_id", id)

	if err := l.lessons.Delete(ctx, id); err != nil {
		return res, apperr.Storage("Failed to delete lesson.", err)
	}
	return res, nil
}

// DeleteSection removes the images of every lesson in the section in one
// call, then the section record. Lesson rows go with it through the
// foreign key cascade.
func (l *Lifecycle) DeleteSection(ctx context.Context, id uuid.UUID) (DeleteResult, error) {
	sec, err := l.sections.FindByID(ctx, id)
	if err != nil {
		return DeleteResult{}, apperr.Storage("Failed to load section.", err)
	}
	if sec == nil {
		return DeleteResult{}, apperr.NotFound("Section not found.")
	}

	lessons, err := l.lessons.List(ctx, id)
	if err != nil {
		return DeleteResult{}, apperr.Storage("Failed to load section lessons.", err)
	}
	lists := make([][]string, 0, len(lessons))
	for _, les := range lessons {
		lists = append(lists, les.Content.Images)
	}

	res := DeleteResult{ImageKeys: union(lists...)}
	res.ImageErr = l.purge(ctx, res.ImageKeys, "section_id", id)

	if err := l.sections.Delete(ctx, id); err != nil {
		return res, apperr.Storage("Failed to delete section.", err)
	}
	return res, nil
}

// purge issues a single removal call for keys. Failures are logged and
// returned, never fatal.
func (l *Lifecycle) purge(ctx context.Context, keys []string, idKey string, id uuid.UUID) error {
	if len(keys) == 0 {
		return nil
	}
	if err := l.images.RemoveImages(ctx, keys); err != nil {
		slog.Warn("image cleanup failed", idKey, id, "keys", len(keys), "error", err)
		return apperr.Storage("Failed to remove images.", err)
	}
	return nil
}
