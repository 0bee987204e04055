package content

import (
	"errors"
	"strings"
	"testing"
)

func TestDecodePayloadByKind(t *testing.T) {
	raw := []byte(`{"title":"Cafe","scenario":"Ordering","turns":[{"speaker":"Waiter","line":"Hello!","options":["a","b","c","d"],"correct_index":2}]}`)

	p, err := DecodePayload(KindConversation, raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	conv, ok := p.(*Conversation)
	if !ok {
		t.Fatalf("got %T, want *Conversation", p)
	}
	if len(conv.Turns) != 1 || conv.Turns[0].CorrectIndex != 2 {
		t.Errorf("turns = %+v", conv.Turns)
	}
	if p.Kind() != KindConversation {
		t.Errorf("kind = %s", p.Kind())
	}
}

func TestDecodePayloadErrors(t *testing.T) {
	if _, err := DecodePayload("poem", []byte(`{}`)); err == nil {
		t.Error("expected error for unknown kind")
	}
	if _, err := DecodePayload(KindPassage, []byte(`{"title":`)); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestEncodePayloadNil(t *testing.T) {
	if _, err := EncodePayload(nil); err == nil {
		t.Error("expected error for nil payload")
	}
}

func TestCatalog(t *testing.T) {
	c := DefaultCatalog()
	if err := c.Validate(); err != nil {
		t.Fatalf("default catalog invalid: %v", err)
	}

	k, err := c.Kind("listening")
	if err != nil || k != KindConversation {
		t.Errorf("Kind(listening) = %s, %v", k, err)
	}
	_, err = c.Kind("karaoke")
	if !errors.Is(err, ErrUnknownExerciseType) {
		t.Fatalf("expected ErrUnknownExerciseType, got %v", err)
	}
	if !strings.Contains(err.Error(), "known: conversation, fill_blank, listening, passage, reading_cloze, vocabulary") {
		t.Errorf("error does not list the known types: %v", err)
	}

	bad := Catalog{"poetry": "sonnet"}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for unknown kind")
	}
}
