package generator

import (
	"fmt"
	"sort"

	"github.com/abhisek/lingua/internal/content"
	"github.com/abhisek/lingua/internal/llm"
)

func str(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func strList(desc string, minItems, maxItems int) map[string]any {
	s := map[string]any{
		"type":        "array",
		"items":       map[string]any{"type": "string"},
		"description": desc,
	}
	if minItems > 0 {
		s["minItems"] = minItems
	}
	if maxItems > 0 {
		s["maxItems"] = maxItems
	}
	return s
}

func object(props map[string]any) map[string]any {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	required := make([]any, len(keys))
	for i, k := range keys {
		required[i] = k
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}

func list(items map[string]any, minItems, maxItems int, desc string) map[string]any {
	s := map[string]any{"type": "array", "items": items, "description": desc}
	if minItems > 0 {
		s["minItems"] = minItems
	}
	if maxItems > 0 {
		s["maxItems"] = maxItems
	}
	return s
}

func correctIndex() map[string]any {
	return map[string]any{
		"type":        "integer",
		"minimum":     0,
		"description": "Zero-based index of the correct option",
	}
}

// ConversationSchema describes a multiple-choice dialogue.
var ConversationSchema = &llm.Schema{
	Name:        "conversation-exercise",
	Description: "A short dialogue where the learner picks the right reply at each turn",
	Definition: object(map[string]any{
		"title":    str("Short title for the dialogue"),
		"scenario": str("One sentence setting the scene"),
		"turns": list(object(map[string]any{
			"speaker":       str("Who speaks this line"),
			"line":          str("What the speaker says"),
			"options":       strList("Exactly 4 candidate replies for the learner", conversationOptions, conversationOptions),
			"correct_index": correctIndex(),
		}), 1, 8, "Dialogue turns in order"),
	}),
}

// FillBlankSchema describes single-gap sentences.
var FillBlankSchema = &llm.Schema{
	Name:        "fill-blank-exercise",
	Description: "Sentences with one gap each for the learner to complete",
	Definition: object(map[string]any{
		"instructions": str("One-line instruction shown above the sentences"),
		"items": list(object(map[string]any{
			"prefix":   str("Sentence text before the gap"),
			"suffix":   str("Sentence text after the gap"),
			"answer":   str("The expected word or phrase"),
			"accepted": strList("Other answers that are also correct; may be empty", 0, 0),
		}), 1, 12, "Sentences"),
	}),
}

// PassageSchema describes a reading cloze with comprehension questions.
var PassageSchema = &llm.Schema{
	Name:        "passage-exercise",
	Description: "A reading passage with numbered gaps and six comprehension questions",
	Definition: object(map[string]any{
		"title": str("Title of the passage"),
		"text":  str("Passage text; gap n is written as {{n}}, numbered from 1"),
		"blanks": list(object(map[string]any{
			"answer":   str("The word that fills the gap"),
			"accepted": strList("Other answers that are also correct; may be empty", 0, 0),
		}), 1, 0, "Answers for gaps {{1}}..{{n}} in order"),
		"questions": list(object(map[string]any{
			"prompt":        str("The question"),
			"options":       strList("Answer options", minQuestionOptions, 6),
			"correct_index": correctIndex(),
		}), passageQuestions, passageQuestions, "Exactly 6 comprehension questions"),
	}),
}

// SchemaFor returns the response schema for a payload kind.
func SchemaFor(kind content.SchemaKind) (*llm.Schema, error) {
	switch kind {
	case content.KindConversation:
		return ConversationSchema, nil
	case content.KindFillBlank:
		return FillBlankSchema, nil
	case content.KindPassage:
		return PassageSchema, nil
	}
	return nil, fmt.Errorf("no schema for kind %q", kind)
}
