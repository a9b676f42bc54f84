// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package sanitize

import (
	"reflect"
	"testing"

	"golang.org/x/net/html"
)

func TestImageKeys(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"single image", `<img data-path="abc123.png">`, []string{"abc123.png"}},
		{"no image", `<p>no image</p>`, []string{}},
		{"empty", "", []string{}},
		{"self closing", `<p>a<img data-path="a.png"/>b</p>`, []string{"a.png"}},
		{"document order", `<img data-path="b.png"><img data-path="a.png">`, []string{"b.png", "a.png"}},
		{"dedup keeps first", `<img data-path="a.png"><img data-path="b.png"><img data-path="a.png">`, []string{"a.png", "b.png"}},
		{"img without marker", `<img src="https://x/y.png">`, []string{}},
		{"empty marker", `<img data-path="">`, []string{}},
		{"marker on other tag ignored", `<span data-path="x.png">x</span>`, []string{}},
		{"entities unescaped", `<img data-path="a&amp;b.png">`, []string{"a&b.png"}},
		{"uppercase tag", `<IMG DATA-PATH="up.png">`, []string{"up.png"}},
		{"malformed tail", `<img data-path="ok.png"><img data-path="`, []string{"ok.png"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ImageKeys(tt.in)
			if got == nil {
				t.Fatal("ImageKeys returned nil, want empty slice")
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ImageKeys(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

// TestImageKeysAfterSanitize checks that keys survive sanitization and that
// traversal-shaped keys are dropped by the sanitizer.
func TestImageKeysAfterSanitize(t *testing.T) {
	got := ImageKeys(HTML(`<p onclick="x()">Hi<img data-path="img1.png"></p>`))
	if !reflect.DeepEqual(got, []string{"img1.png"}) {
		t.Errorf("got %v, want [img1.png]", got)
	}

	for _, key := range []string{
		"media/2026/01/f00d.webp",
		"folder/a b.png",
		".hidden",
		"...png",
		"lessons/Урок 1/схема.png",
		"a&b.png",
	} {
		got := ImageKeys(HTML(`<img data-path="` + html.EscapeString(key) + `">`))
		if !reflect.DeepEqual(got, []string{key}) {
			t.Errorf("key %q: got %v", key, got)
		}
	}

	for _, bad := range []string{"../secret.png", "a/../b.png", "./a.png", "a/.", "a//b.png", "/abs.png", "a/", `a\b.png`, "a'b.png"} {
		if got := ImageKeys(HTML(`<img alt="x" data-path="` + html.EscapeString(bad) + `">`)); len(got) != 0 {
			t.Errorf("key %q should be dropped, got %v", bad, got)
		}
	}
}
