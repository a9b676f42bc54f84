// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package sanitize cleans admin-authored rich text before it is stored and
// extracts the storage keys of images embedded in it.
//
// The policy is default-deny: only the tags, attributes, URL schemes and CSS
// properties listed here survive. Unknown tags are removed and their text is
// kept; script and style bodies are dropped entirely. Sanitizing the output
// again returns it unchanged.
package sanitize

import (
	"regexp"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// ImageKeyAttr is the attribute the editor sets on <img> to record which
// storage object the image was uploaded as. It is independent of src.
const ImageKeyAttr = "data-path"

var (
	policy     *bluemonday.Policy
	policyOnce sync.Once

	// imageKey allows any slash-separated key whose segments are non-empty,
	// are not "." or "..", and hold no quotes, backslashes or control
	// characters.
	imageKey = regexp.MustCompile(`^` + keySegment + `(/` + keySegment + `)*$`)
	// linkTarget limits anchors to the standard browsing contexts.
	linkTarget = regexp.MustCompile(`^(_blank|_self|_parent|_top)$`)
	// wordList matches space-separated keyword lists (rel, class).
	wordList = regexp.MustCompile(`^[A-Za-z0-9_-]+( [A-Za-z0-9_-]+)*$`)
)

const keySegment = `(?:[^"'\\/.\x00-\x1f\x7f][^"'\\/\x00-\x1f\x7f]*` +
	`|\.[^"'\\/.\x00-\x1f\x7f][^"'\\/\x00-\x1f\x7f]*` +
	`|\.\.[^"'\\/\x00-\x1f\x7f]+)`

// blockAndInline are the elements the lesson editor produces.
var blockAndInline = []string{
	"p", "br", "strong", "em", "u", "s", "span",
	"h1", "h2", "h3", "h4", "h5", "h6",
	"ul", "ol", "li", "blockquote",
	"pre", "code",
	"table", "thead", "tbody", "tr", "th", "td",
	"a", "img",
}

// getPolicy returns the shared policy, building it on first use.
// bluemonday policies are safe for concurrent use once built.
func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		p := bluemonday.NewPolicy()
		p.AllowElements(blockAndInline...)

		p.AllowAttrs("href", "title").OnElements("a")
		p.AllowAttrs("target").Matching(linkTarget).OnElements("a")
		p.AllowAttrs("rel").Matching(wordList).OnElements("a")

		p.AllowAttrs("src", "alt", "title").OnElements("img")
		p.AllowAttrs(ImageKeyAttr).Matching(imageKey).OnElements("img")

		p.AllowAttrs("class").Matching(wordList).OnElements("code", "pre", "table")

		// Inline styles from the editor's colour and alignment tools.
		p.AllowAttrs("style").OnElements("span", "p")
		p.AllowStyles(
			"color", "background-color", "text-align",
			"font-weight", "font-style", "text-decoration",
		).OnElements("span", "p")

		p.AllowURLSchemes("http", "https", "mailto")
		p.AllowRelativeURLs(true)
		p.RequireParseableURLs(true)

		policy = p
	})
	return policy
}

// HTML returns raw with everything outside the allow-list removed.
// The empty string sanitizes to itself.
func HTML(raw string) string {
	if raw == "" {
		return ""
	}
	return getPolicy().Sanitize(raw)
}
