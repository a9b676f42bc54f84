// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// QuizOptionCount is the fixed number of answer options per question.
const QuizOptionCount = 4

// Content is the lesson body persisted as a single JSON document.
// Images is the union of every storage key referenced by Theory and Tasks
// (and quiz questions when saved from the admin form).
type Content struct {
	Theory Theory     `json:"theory"`
	Tests  []Question `json:"tests"`
	Tasks  []Task     `json:"tasks"`
	Images []string   `json:"images"`
}

// Theory is the reading part of a lesson.
type Theory struct {
	Title  string   `json:"title"`
	HTML   string   `json:"html"`
	Images []string `json:"images"`
}

// Question is a single-choice quiz question with exactly four options.
type Question struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
}

// Task is a practical exercise attached to a lesson.
type Task struct {
	Title string `json:"title"`
	HTML  string `json:"html"`
}

// Value implements driver.Valuer so Content is stored as JSONB.
func (c Content) Value() (driver.Value, error) {
	b, err := json.Marshal(c.withEmptySlices())
	if err != nil {
		return nil, fmt.Errorf("marshal content: %w", err)
	}
	return b, nil
}

// Scan implements sql.Scanner for JSONB columns.
func (c *Content) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*c = Content{}.withEmptySlices()
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("scan content: unsupported type %T", src)
	}
	var out Content
	if err := json.Unmarshal(b, &out); err != nil {
		return fmt.Errorf("unmarshal content: %w", err)
	}
	*c = out.withEmptySlices()
	return nil
}

// withEmptySlices replaces nil slices so JSON encodes [] instead of null.
func (c Content) withEmptySlices() Content {
	if c.Tests == nil {
		c.Tests = []Question{}
	}
	if c.Tasks == nil {
		c.Tasks = []Task{}
	}
	if c.Images == nil {
		c.Images = []string{}
	}
	if c.Theory.Images == nil {
		c.Theory.Images = []string{}
	}
	return c
}
