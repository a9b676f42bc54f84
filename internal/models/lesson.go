// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// LessonStatus represents the publishing state of a lesson.
type LessonStatus string

const (
	LessonStatusDraft     LessonStatus = "draft"
	LessonStatusPublished LessonStatus = "published"
)

// Lesson belongs to exactly one Section and is ordered by Number within it.
type Lesson struct {
	ID        uuid.UUID    `json:"id"`
	SectionID uuid.UUID    `json:"section_id"`
	Number    int          `json:"number"`
	Title     string       `json:"title"`
	Slug      string       `json:"slug"`
	Status    LessonStatus `json:"status"`
	Content   Content      `json:"content"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// IsPublished returns true if the lesson is visible on the public site.
func (l *Lesson) IsPublished() bool {
	return l.Status == LessonStatusPublished
}

// StatusFromAction maps the admin form's submit button to a status:
// "publish" publishes, anything else saves a draft.
func StatusFromAction(action string) LessonStatus {
	if action == "publish" {
		return LessonStatusPublished
	}
	return LessonStatusDraft
}
