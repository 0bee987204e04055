package generator

import (
	"strings"
	"testing"

	"github.com/abhisek/lingua/internal/content"
	"github.com/abhisek/lingua/internal/level"
)

func TestBuildUserMessage(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Language = "Spanish"
	msg := buildUserMessage(Request{
		SkillArea:    "past tense",
		ExerciseType: "reading_cloze",
		Band:         level.B1,
	}, content.KindPassage, cfg)

	for _, want := range []string{
		"Target language: Spanish",
		"Skill area: past tense",
		"Exercise type: reading_cloze",
		"CEFR band: B1 (Intermediate",
		"exactly 6 comprehension questions",
		"Topics to draw on:\nAny",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestBuildHints(t *testing.T) {
	tests := []struct {
		name  string
		hints []string
		max   int
		want  string
	}{
		{"none", nil, 5, "Any"},
		{"blank only", []string{" ", ""}, 5, "Any"},
		{"numbered", []string{"travel", "food"}, 5, "1. travel\n2. food"},
		{"capped", []string{"a", "b", "c"}, 2, "1. a\n2. b"},
		{"unlimited", []string{"a", "b", "c"}, 0, "1. a\n2. b\n3. c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildHints(tt.hints, tt.max); got != tt.want {
				t.Errorf("buildHints() = %q, want %q", got, tt.want)
			}
		})
	}
}
