package models

import "testing"

// TestLessonIsPublished verifies that IsPublished returns true only for
// the "published" status.
func TestLessonIsPublished(t *testing.T) {
	tests := []struct {
		name   string
		status LessonStatus
		want   bool
	}{
		{name: "published", status: LessonStatusPublished, want: true},
		{name: "draft", status: LessonStatusDraft, want: false},
		{name: "empty status", status: LessonStatus(""), want: false},
		{name: "uppercase PUBLISHED", status: LessonStatus("PUBLISHED"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &Lesson{Status: tt.status}
			if got := l.IsPublished(); got != tt.want {
				t.Errorf("Lesson{Status: %q}.IsPublished() = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestStatusFromAction(t *testing.T) {
	if got := StatusFromAction("publish"); got != LessonStatusPublished {
		t.Errorf("publish: got %q", got)
	}
	for _, action := range []string{"draft", "", "PUBLISH", "save"} {
		if got := StatusFromAction(action); got != LessonStatusDraft {
			t.Errorf("%q: got %q, want draft", action, got)
		}
	}
}
