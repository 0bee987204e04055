package content

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownExerciseType is returned for exercise types absent from the catalog.
var ErrUnknownExerciseType = errors.New("content: unknown exercise type")

// SchemaKind identifies the payload shape an exercise type produces.
type SchemaKind string

const (
	KindConversation SchemaKind = "conversation"
	KindFillBlank    SchemaKind = "fill_blank"
	KindPassage      SchemaKind = "passage"
)

// Kinds lists every payload shape the engine can validate and store.
var Kinds = []SchemaKind{KindConversation, KindFillBlank, KindPassage}

// Valid reports whether k is a known schema kind.
func (k SchemaKind) Valid() bool {
	for _, x := range Kinds {
		if x == k {
			return true
		}
	}
	return false
}

// Catalog maps exercise types to the schema kind their content uses. Several
// exercise types may share one kind.
type Catalog map[string]SchemaKind

// DefaultCatalog returns the built-in exercise types.
func DefaultCatalog() Catalog {
	return Catalog{
		"conversation":  KindConversation,
		"listening":     KindConversation,
		"fill_blank":    KindFillBlank,
		"vocabulary":    KindFillBlank,
		"passage":       KindPassage,
		"reading_cloze": KindPassage,
	}
}

// Kind returns the schema kind registered for exerciseType.
func (c Catalog) Kind(exerciseType string) (SchemaKind, error) {
	k, ok := c[exerciseType]
	if !ok {
		return "", fmt.Errorf("%w: %q (known: %s)", ErrUnknownExerciseType, exerciseType, strings.Join(c.Types(), ", "))
	}
	return k, nil
}

// Types returns the registered exercise types in sorted order.
func (c Catalog) Types() []string {
	out := make([]string, 0, len(c))
	for t := range c {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Validate checks that every entry names a known kind.
func (c Catalog) Validate() error {
	if len(c) == 0 {
		return errors.New("catalog is empty")
	}
	for t, k := range c {
		if !k.Valid() {
			return fmt.Errorf("exercise type %q: unknown schema kind %q", t, k)
		}
	}
	return nil
}
