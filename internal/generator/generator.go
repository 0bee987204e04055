package generator

import (
	"context"

	"github.com/abhisek/lingua/internal/content"
	"github.com/abhisek/lingua/internal/level"
)

// SchemaVersion is stamped on every generated item. Bump it when a payload
// schema changes shape.
const SchemaVersion = 1

// Generator produces exercise content for a skill, exercise type and band.
type Generator interface {
	// Generate returns a payload that passed every configured validator.
	// Once a backend call is attempted, failures are one of
	// *SchemaInvalidError, *UpstreamUnavailableError or
	// *UpstreamTimeoutError. Requests rejected before any backend call
	// return plain errors instead: content.ErrUnknownExerciseType for a type
	// missing from the catalog, or an error for an invalid band or a kind
	// with no schema. It makes at most one backend call.
	Generate(ctx context.Context, req Request) (*Result, error)
}

// Request describes the content to generate.
type Request struct {
	SkillArea    string
	ExerciseType string
	Band         level.Band

	// TopicHints steer the subject matter, e.g. "travel", "ordering food".
	TopicHints []string
}

// Result is a validated payload with its provenance.
type Result struct {
	Kind    content.SchemaKind
	Payload content.Payload
	Meta    content.GenerationMeta
}
