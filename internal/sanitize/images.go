// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package sanitize

import (
	"strings"

	"golang.org/x/net/html"
)

// ImageKeys returns the ImageKeyAttr values of every <img> in s, in document
// order with duplicates removed. It never fails: malformed markup simply
// yields whatever keys the tokenizer recognised. Callers pass sanitized HTML.
func ImageKeys(s string) []string {
	keys := []string{}
	if s == "" {
		return keys
	}

	seen := make(map[string]bool)
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or a tokenizer error; either way there is nothing more to read.
			return keys
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if !hasAttr || string(name) != "img" {
				continue
			}
			for {
				attr, val, more := z.TagAttr()
				if string(attr) == ImageKeyAttr && len(val) > 0 {
					k := string(val)
					if !seen[k] {
						seen[k] = true
						keys = append(keys, k)
					}
				}
				if !more {
					break
				}
			}
		}
	}
}
