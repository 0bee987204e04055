package generator

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/abhisek/lingua/internal/content"
)

const (
	conversationOptions = 4
	passageQuestions    = 6
	minQuestionOptions  = 2
	maxTextLen          = 4000
)

var blankMarker = regexp.MustCompile(`\{\{(\d+)\}\}`)

// StructuralValidator enforces the invariants JSON Schema cannot express:
// option counts, correct-index bounds and blank markers.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(p content.Payload, _ Request) *ValidationError {
	var msg string
	switch p := p.(type) {
	case *content.Conversation:
		msg = checkConversation(p)
	case *content.FillBlank:
		msg = checkFillBlank(p)
	case *content.Passage:
		msg = checkPassage(p)
	default:
		msg = fmt.Sprintf("unsupported payload %T", p)
	}
	if msg == "" {
		return nil
	}
	return &ValidationError{Validator: v.Name(), Message: msg}
}

func checkConversation(c *content.Conversation) string {
	if strings.TrimSpace(c.Title) == "" {
		return "title is empty"
	}
	if len(c.Turns) == 0 {
		return "conversation has no turns"
	}
	for i, t := range c.Turns {
		if strings.TrimSpace(t.Line) == "" {
			return fmt.Sprintf("turn %d: line is empty", i+1)
		}
		if len(t.Options) != conversationOptions {
			return fmt.Sprintf("turn %d: want %d options, got %d", i+1, conversationOptions, len(t.Options))
		}
		if msg := checkOptions(t.Options, t.CorrectIndex); msg != "" {
			return fmt.Sprintf("turn %d: %s", i+1, msg)
		}
	}
	return ""
}

func checkFillBlank(f *content.FillBlank) string {
	if len(f.Items) == 0 {
		return "no items"
	}
	for i, it := range f.Items {
		if strings.TrimSpace(it.Answer) == "" {
			return fmt.Sprintf("item %d: answer is empty", i+1)
		}
		if strings.TrimSpace(it.Prefix) == "" && strings.TrimSpace(it.Suffix) == "" {
			return fmt.Sprintf("item %d: sentence has no text around the gap", i+1)
		}
		for _, a := range it.Accepted {
			if strings.TrimSpace(a) == "" {
				return fmt.Sprintf("item %d: empty accepted alternative", i+1)
			}
		}
	}
	return ""
}

func checkPassage(p *content.Passage) string {
	if strings.TrimSpace(p.Text) == "" {
		return "text is empty"
	}
	if len(p.Text) > maxTextLen {
		return fmt.Sprintf("text exceeds %d characters", maxTextLen)
	}

	seen := make(map[int]bool)
	for _, m := range blankMarker.FindAllStringSubmatch(p.Text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 || n > len(p.Blanks) {
			return fmt.Sprintf("marker {{%s}} has no matching blank", m[1])
		}
		if seen[n] {
			return fmt.Sprintf("marker {{%d}} appears more than once", n)
		}
		seen[n] = true
	}
	if len(seen) != len(p.Blanks) {
		return fmt.Sprintf("text has %d markers for %d blanks", len(seen), len(p.Blanks))
	}
	for i, b := range p.Blanks {
		if strings.TrimSpace(b.Answer) == "" {
			return fmt.Sprintf("blank %d: answer is empty", i+1)
		}
	}

	if len(p.Questions) != passageQuestions {
		return fmt.Sprintf("want %d questions, got %d", passageQuestions, len(p.Questions))
	}
	for i, q := range p.Questions {
		if strings.TrimSpace(q.Prompt) == "" {
			return fmt.Sprintf("question %d: prompt is empty", i+1)
		}
		if len(q.Options) < minQuestionOptions {
			return fmt.Sprintf("question %d: want at least %d options, got %d", i+1, minQuestionOptions, len(q.Options))
		}
		if msg := checkOptions(q.Options, q.CorrectIndex); msg != "" {
			return fmt.Sprintf("question %d: %s", i+1, msg)
		}
	}
	return ""
}

// checkOptions requires non-empty, distinct options and an in-range index.
func checkOptions(options []string, correct int) string {
	if correct < 0 || correct >= len(options) {
		return fmt.Sprintf("correct_index %d out of range [0,%d)", correct, len(options))
	}
	seen := make(map[string]bool, len(options))
	for _, o := range options {
		key := strings.ToLower(strings.TrimSpace(o))
		if key == "" {
			return "empty option"
		}
		if seen[key] {
			return fmt.Sprintf("duplicate option %q", o)
		}
		seen[key] = true
	}
	return ""
}
