// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"strings"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"lessonpress/internal/apperr"
	"lessonpress/internal/lesson"
	"lessonpress/internal/models"
	"lessonpress/internal/slug"
)

// Validation limits for section and lesson fields.
const (
	maxTitleLen = 300
	maxHTMLLen  = 200_000
)

var (
	slugRule = validation.By(func(v any) error {
		s, _ := v.(string)
		if !slug.Valid(s) {
			return errors.New("must contain only lowercase letters and hyphens")
		}
		return nil
	})

	uuidRule = validation.By(func(v any) error {
		s, _ := v.(string)
		if _, err := uuid.Parse(s); err != nil {
			return errors.New("must be a valid UUID")
		}
		return nil
	})

	htmlLenRule = validation.By(func(v any) error {
		s, _ := v.(string)
		if utf8.RuneCountInString(s) > maxHTMLLen {
			return errors.New("is too long (max 200,000 characters)")
		}
		return nil
	})
)

// sectionInput is a section create/update payload.
type sectionInput struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Slug   string `json:"slug"`
}

func (in sectionInput) normalized() sectionInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Slug = strings.TrimSpace(in.Slug)
	return in
}

// Validate checks the payload and returns a validation error naming every
// failing field.
func (in sectionInput) Validate() error {
	return asValidation(validation.ValidateStruct(&in,
		validation.Field(&in.Number, validation.Min(0)),
		validation.Field(&in.Title, validation.Required, validation.RuneLength(1, maxTitleLen)),
		validation.Field(&in.Slug, validation.Required, slugRule),
	))
}

func (in sectionInput) section() *models.Section {
	return &models.Section{Number: in.Number, Title: in.Title, Slug: in.Slug}
}

// lessonInput is a lesson create/update payload.
type lessonInput struct {
	SectionID string            `json:"section_id"`
	Number    int               `json:"number"`
	Title     string            `json:"title"`
	Slug      string            `json:"slug"`
	Status    string            `json:"status"`
	Content   lesson.RawContent `json:"content"`
}

func (in lessonInput) normalized() lessonInput {
	in.SectionID = strings.TrimSpace(in.SectionID)
	in.Title = strings.TrimSpace(in.Title)
	in.Slug = strings.TrimSpace(in.Slug)
	return in
}

// Validate checks the payload fields, including the raw HTML size limits
// applied before sanitization.
func (in lessonInput) Validate() error {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.SectionID, validation.Required, uuidRule),
		validation.Field(&in.Number, validation.Min(0)),
		validation.Field(&in.Title, validation.Required, validation.RuneLength(1, maxTitleLen)),
		validation.Field(&in.Slug, validation.Required, slugRule),
		validation.Field(&in.Status, validation.Required,
			validation.In(string(models.LessonStatusDraft), string(models.LessonStatusPublished))),
	)
	if err != nil {
		return asValidation(err)
	}
	if err := htmlLenRule.Validate(in.Content.TheoryHTML); err != nil {
		return apperr.Validation("theory html: " + err.Error() + ".")
	}
	for _, t := range in.Content.Tasks {
		if err := htmlLenRule.Validate(t.HTML); err != nil {
			return apperr.Validation("task html: " + err.Error() + ".")
		}
	}
	return nil
}

// lesson builds the record with normalized content. Validate must have
// passed, so SectionID parses.
func (in lessonInput) lesson(opts lesson.Options) *models.Lesson {
	opts.LessonTitle = in.Title
	return &models.Lesson{
		SectionID: uuid.MustParse(in.SectionID),
		Number:    in.Number,
		Title:     in.Title,
		Slug:      in.Slug,
		Status:    models.LessonStatus(in.Status),
		Content:   lesson.NormalizeContent(in.Content, opts),
	}
}

// asValidation turns ozzo field errors into an apperr validation error.
func asValidation(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		return apperr.Validation(fieldErrs.Error())
	}
	return err
}
