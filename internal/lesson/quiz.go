// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package lesson turns loosely-typed authoring input into the canonical
// lesson Content and manages the lifetime of the images a lesson references.
// Nothing in the normalization path returns an error: malformed input is
// defaulted, clamped or stripped.
package lesson

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"lessonpress/internal/models"
	"lessonpress/internal/sanitize"
)

// RawQuestion is a quiz question as submitted by the editor. CorrectIndex
// keeps the raw JSON value so NormalizeQuiz can coerce it.
type RawQuestion struct {
	Question     string
	Options      []string
	CorrectIndex gjson.Result
}

// UnmarshalJSON decodes a question leniently. Any valid JSON value is
// accepted; values that are not objects decode to an empty question.
func (q *RawQuestion) UnmarshalJSON(b []byte) error {
	if !gjson.ValidBytes(b) {
		return errors.New("lesson: invalid question JSON")
	}
	*q = rawQuestionFrom(gjson.ParseBytes(b))
	return nil
}

// ParseQuiz decodes a JSON array of questions. Anything that is not an
// array yields no questions.
func ParseQuiz(data string) []RawQuestion {
	return rawQuestionsFrom(gjson.Parse(data))
}

func rawQuestionsFrom(r gjson.Result) []RawQuestion {
	if !r.IsArray() {
		return nil
	}
	items := r.Array()
	out := make([]RawQuestion, 0, len(items))
	for _, item := range items {
		out = append(out, rawQuestionFrom(item))
	}
	return out
}

func rawQuestionFrom(r gjson.Result) RawQuestion {
	if !r.IsObject() {
		return RawQuestion{}
	}
	q := RawQuestion{
		Question:     scalarString(r.Get("question")),
		CorrectIndex: r.Get("correct_index"),
	}
	if opts := r.Get("options"); opts.IsArray() {
		for _, o := range opts.Array() {
			q.Options = append(q.Options, scalarString(o))
		}
	}
	return q
}

// scalarString stringifies JSON scalars. Objects, arrays and null become "".
func scalarString(r gjson.Result) string {
	switch r.Type {
	case gjson.String:
		return r.Str
	case gjson.Number:
		return r.Raw
	case gjson.True:
		return "true"
	case gjson.False:
		return "false"
	default:
		return ""
	}
}

// NormalizeQuiz coerces every question into the fixed shape: sanitized
// question text, exactly four sanitized options and a correct index in
// [0, 3]. It never fails and never drops a question.
func NormalizeQuiz(raw []RawQuestion) []models.Question {
	out := make([]models.Question, 0, len(raw))
	for _, q := range raw {
		out = append(out, normalizeQuestion(q))
	}
	return out
}

func normalizeQuestion(q RawQuestion) models.Question {
	opts := make([]string, models.QuizOptionCount)
	for i := 0; i < models.QuizOptionCount && i < len(q.Options); i++ {
		opts[i] = sanitize.HTML(q.Options[i])
	}
	return models.Question{
		Question:     sanitize.HTML(q.Question),
		Options:      opts,
		CorrectIndex: clampIndex(parseIndex(q.CorrectIndex)),
	}
}

// parseIndex reads correct_index. Numbers truncate toward zero, integer
// strings parse, booleans are 1/0 and everything else is 0. Values outside
// the int range saturate so clamping still picks the nearest bound.
func parseIndex(r gjson.Result) int {
	switch r.Type {
	case gjson.Number:
		return saturate(math.Trunc(r.Num))
	case gjson.String:
		s := strings.TrimSpace(r.Str)
		n, err := strconv.Atoi(s)
		if err == nil {
			return n
		}
		if errors.Is(err, strconv.ErrRange) {
			if strings.HasPrefix(s, "-") {
				return math.MinInt
			}
			return math.MaxInt
		}
		return 0
	case gjson.True:
		return 1
	default:
		return 0
	}
}

func saturate(f float64) int {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	}
	return int(f)
}

func clampIndex(n int) int {
	if n < 0 {
		return 0
	}
	if n > models.QuizOptionCount-1 {
		return models.QuizOptionCount - 1
	}
	return n
}
