// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package lesson

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"

	"lessonpress/internal/models"
	"lessonpress/internal/sanitize"
)

// RawContent is an unsanitized lesson body as submitted by the editor.
type RawContent struct {
	TheoryTitle string
	TheoryHTML  string
	Tasks       []RawTask
	Tests       []RawQuestion
}

// RawTask is an unsanitized task.
type RawTask struct {
	Title string
	HTML  string
}

// Options selects the normalization variant.
type Options struct {
	// IncludeQuizImages makes quiz question HTML contribute image keys.
	// The admin form sets it; the JSON API does not.
	IncludeQuizImages bool

	// LessonTitle fills the theory title when none was submitted.
	LessonTitle string
}

// UnmarshalJSON decodes the content document leniently: wrong-typed
// fields are treated as absent.
func (c *RawContent) UnmarshalJSON(b []byte) error {
	if !gjson.ValidBytes(b) {
		return errors.New("lesson: invalid content JSON")
	}
	*c = rawContentFrom(gjson.ParseBytes(b))
	return nil
}

// ParseContent decodes a content document shaped like models.Content.
func ParseContent(data string) RawContent {
	return rawContentFrom(gjson.Parse(data))
}

// ParseTasks decodes a JSON array of {title, html} objects, as posted by the
// admin form's tasks_json field.
func ParseTasks(data string) []RawTask {
	return rawTasksFrom(gjson.Parse(data))
}

func rawContentFrom(r gjson.Result) RawContent {
	if !r.IsObject() {
		return RawContent{}
	}
	theory := r.Get("theory")
	return RawContent{
		TheoryTitle: scalarString(theory.Get("title")),
		TheoryHTML:  scalarString(theory.Get("html")),
		Tasks:       rawTasksFrom(r.Get("tasks")),
		Tests:       rawQuestionsFrom(r.Get("tests")),
	}
}

func rawTasksFrom(r gjson.Result) []RawTask {
	if !r.IsArray() {
		return nil
	}
	var out []RawTask
	for _, t := range r.Array() {
		if !t.IsObject() {
			continue
		}
		out = append(out, RawTask{
			Title: scalarString(t.Get("title")),
			HTML:  scalarString(t.Get("html")),
		})
	}
	return out
}

// RawFromContent turns stored content back into editor input, used to
// prefill edit forms and to re-normalize.
func RawFromContent(c models.Content) RawContent {
	raw := RawContent{
		TheoryTitle: c.Theory.Title,
		TheoryHTML:  c.Theory.HTML,
	}
	for _, t := range c.Tasks {
		raw.Tasks = append(raw.Tasks, RawTask{Title: t.Title, HTML: t.HTML})
	}
	for _, q := range c.Tests {
		raw.Tests = append(raw.Tests, RawQuestion{
			Question:     q.Question,
			Options:      append([]string(nil), q.Options...),
			CorrectIndex: gjson.Result{Type: gjson.Number, Num: float64(q.CorrectIndex)},
		})
	}
	return raw
}

// NormalizeContent builds the canonical Content: theory and task HTML are
// sanitized, the quiz is normalized, and image keys are extracted from the
// sanitized HTML. Theory.Images holds the theory keys alone; Images is the
// ordered union over theory, tasks and (optionally) quiz questions.
func NormalizeContent(raw RawContent, opts Options) models.Content {
	theoryHTML := sanitize.HTML(raw.TheoryHTML)

	tasks := make([]models.Task, 0, len(raw.Tasks))
	taskHTML := make([]string, 0, len(raw.Tasks))
	for _, t := range raw.Tasks {
		html := sanitize.HTML(t.HTML)
		tasks = append(tasks, models.Task{Title: strings.TrimSpace(t.Title), HTML: html})
		taskHTML = append(taskHTML, html)
	}

	tests := NormalizeQuiz(raw.Tests)

	theoryKeys := sanitize.ImageKeys(theoryHTML)
	sources := [][]string{
		theoryKeys,
		sanitize.ImageKeys(strings.Join(taskHTML, " ")),
	}
	if opts.IncludeQuizImages {
		questionHTML := make([]string, 0, len(tests))
		for _, q := range tests {
			questionHTML = append(questionHTML, q.Question)
		}
		sources = append(sources, sanitize.ImageKeys(strings.Join(questionHTML, " ")))
	}

	title := strings.TrimSpace(raw.TheoryTitle)
	if title == "" {
		title = strings.TrimSpace(opts.LessonTitle)
	}

	return models.Content{
		Theory: models.Theory{
			Title:  title,
			HTML:   theoryHTML,
			Images: theoryKeys,
		},
		Tests:  tests,
		Tasks:  tasks,
		Images: union(sources...),
	}
}

// union concatenates key lists, keeping the first occurrence of each key.
func union(lists ...[]string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, list := range lists {
		for _, k := range list {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	return out
}
