// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug validates and generates the lowercase-hyphen identifiers used
// for sections and lessons, and parses the "<number>-<slug>" descriptors that
// address them in public URLs.
package slug

import (
	"regexp"
	"strconv"
	"strings"

	"lessonpress/internal/apperr"
)

var (
	// pattern is the only accepted slug shape: letter runs joined by single hyphens.
	pattern = regexp.MustCompile(`^[a-z]+(-[a-z]+)*$`)
	// descriptor matches "<number>-<slug>", e.g. "1-intro-to-apis".
	descriptor = regexp.MustCompile(`^(\d+)-([a-z]+(?:-[a-z]+)*)$`)
	// nonLetter matches anything that isn't an ASCII letter, whitespace, or hyphen.
	nonLetter = regexp.MustCompile(`[^a-z\s-]`)
	// separators collapses whitespace and hyphen runs into one hyphen.
	separators = regexp.MustCompile(`[\s-]+`)
)

// Valid reports whether s is a well-formed slug.
func Valid(s string) bool {
	return pattern.MatchString(s)
}

// Validate returns a validation error when s is empty or malformed.
func Validate(s string) error {
	if !Valid(s) {
		return apperr.Validation("Slug must contain only lowercase letters and hyphens.")
	}
	return nil
}

// Generate creates a slug from a title by dropping everything that is not an
// ASCII letter. The result is either empty or Valid.
// Example: "Intro to APIs (part 2)" → "intro-to-apis-part"
func Generate(s string) string {
	result := strings.ToLower(strings.TrimSpace(s))
	result = nonLetter.ReplaceAllString(result, "")
	result = separators.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}

// ParseDescriptor splits "<number>-<slug>" into its parts. ok is false for
// anything that does not match; callers treat that as "not found".
func ParseDescriptor(s string) (number int, slug string, ok bool) {
	m := descriptor.FindStringSubmatch(s)
	if m == nil {
		return 0, "", false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		// Only overflow gets here.
		return 0, "", false
	}
	return n, m[2], true
}

// Descriptor formats the public URL token for a section or lesson.
func Descriptor(number int, slug string) string {
	return strconv.Itoa(number) + "-" + slug
}
