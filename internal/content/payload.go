package content

import (
	"encoding/json"
	"fmt"
)

// Payload is the structured body of a content item. It is one of
// *Conversation, *FillBlank or *Passage.
type Payload interface {
	Kind() SchemaKind
	isPayload()
}

// Conversation is a multiple-choice dialogue: at each turn the learner
// picks the right reply from four options.
type Conversation struct {
	Title    string             `json:"title"`
	Scenario string             `json:"scenario"`
	Turns    []ConversationTurn `json:"turns"`
}

// ConversationTurn is one exchange in a Conversation.
type ConversationTurn struct {
	Speaker      string   `json:"speaker"`
	Line         string   `json:"line"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
}

// FillBlank is a list of single-gap sentences.
type FillBlank struct {
	Instructions string          `json:"instructions"`
	Items        []FillBlankItem `json:"items"`
}

// FillBlankItem is one sentence: Prefix + gap + Suffix.
type FillBlankItem struct {
	Prefix   string   `json:"prefix"`
	Suffix   string   `json:"suffix"`
	Answer   string   `json:"answer"`
	Accepted []string `json:"accepted"`
}

// Passage is a reading text with numbered gaps ({{1}}..{{n}}) and six
// comprehension questions.
type Passage struct {
	Title     string            `json:"title"`
	Text      string            `json:"text"`
	Blanks    []PassageBlank    `json:"blanks"`
	Questions []PassageQuestion `json:"questions"`
}

// PassageBlank is the answer for gap number Index+1.
type PassageBlank struct {
	Answer   string   `json:"answer"`
	Accepted []string `json:"accepted"`
}

// PassageQuestion is one comprehension question about a Passage.
type PassageQuestion struct {
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
}

func (*Conversation) Kind() SchemaKind { return KindConversation }
func (*FillBlank) Kind() SchemaKind    { return KindFillBlank }
func (*Passage) Kind() SchemaKind      { return KindPassage }

func (*Conversation) isPayload() {}
func (*FillBlank) isPayload()    {}
func (*Passage) isPayload()      {}

// EncodePayload serializes p for storage.
func EncodePayload(p Payload) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("encode payload: nil")
	}
	return json.Marshal(p)
}

// DecodePayload parses a stored or generated payload of the given kind.
func DecodePayload(kind SchemaKind, data []byte) (Payload, error) {
	var p Payload
	switch kind {
	case KindConversation:
		p = &Conversation{}
	case KindFillBlank:
		p = &FillBlank{}
	case KindPassage:
		p = &Passage{}
	default:
		return nil, fmt.Errorf("decode payload: unknown schema kind %q", kind)
	}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", kind, err)
	}
	return p, nil
}
