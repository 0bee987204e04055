package generator

import (
	"fmt"
	"strings"

	"github.com/abhisek/lingua/internal/content"
	"github.com/abhisek/lingua/internal/level"
)

const systemPrompt = `You write practice exercises for adult language learners.

Rules:
- Write every learner-facing string in the target language, pitched at the given CEFR band.
- Use vocabulary and grammar a learner at that band can reasonably be expected to know, with at most a few stretch items.
- Content must be self-contained, culturally neutral and free of real people's names.
- Multiple-choice options must be distinct; exactly one is correct. Distractors should reflect common learner mistakes.
- Follow the requested output schema exactly. Do not add commentary.`

var bandDescriptors = map[level.Band]string{
	level.A1: "Beginner: familiar everyday expressions and very basic phrases",
	level.A2: "Elementary: simple sentences on routine topics and immediate needs",
	level.B1: "Intermediate: main points of clear standard input on familiar matters",
	level.B2: "Upper intermediate: main ideas of complex text, spontaneous interaction",
	level.C1: "Advanced: demanding, longer texts and implicit meaning",
	level.C2: "Proficient: virtually everything heard or read, fine shades of meaning",
}

var kindInstructions = map[content.SchemaKind]string{
	content.KindConversation: "Write a dialogue of 3 to 6 turns. At each turn give exactly 4 possible replies for the learner.",
	content.KindFillBlank:    "Write 6 to 10 sentences, each with a single gap testing the skill area.",
	content.KindPassage:      "Write a passage of 120 to 300 words with 4 to 8 numbered gaps written {{1}}, {{2}}, ... in order, then exactly 6 comprehension questions.",
}

// buildUserMessage constructs the user message for one generation call.
func buildUserMessage(req Request, kind content.SchemaKind, cfg Config) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Target language: %s\n", cfg.Language)
	fmt.Fprintf(&b, "Skill area: %s\n", req.SkillArea)
	fmt.Fprintf(&b, "Exercise type: %s\n", req.ExerciseType)
	fmt.Fprintf(&b, "CEFR band: %s (%s)\n", req.Band, bandDescriptors[req.Band])
	fmt.Fprintf(&b, "Format: %s\n", kindInstructions[kind])

	b.WriteString("\nTopics to draw on:\n")
	b.WriteString(buildHints(req.TopicHints, cfg.MaxTopicHints))

	return b.String()
}

// buildHints formats topic hints for the prompt, respecting the max limit.
// Returns "Any" if there are none.
func buildHints(hints []string, max int) string {
	var kept []string
	for _, h := range hints {
		if h = strings.TrimSpace(h); h != "" {
			kept = append(kept, h)
		}
	}
	if len(kept) == 0 {
		return "Any"
	}
	if max > 0 && len(kept) > max {
		kept = kept[:max]
	}

	var b strings.Builder
	for i, h := range kept {
		fmt.Fprintf(&b, "%d. %s\n", i+1, h)
	}
	return strings.TrimRight(b.String(), "\n")
}
