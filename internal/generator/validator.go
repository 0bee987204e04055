package generator

import (
	"fmt"

	"github.com/abhisek/lingua/internal/content"
)

// Validator checks a decoded payload. Implementations must be stateless and
// safe for concurrent use.
type Validator interface {
	// Name returns a short identifier, e.g. "structural".
	Name() string

	// Validate returns nil if p passes.
	Validate(p content.Payload, req Request) *ValidationError
}

// ValidationError describes why a payload failed validation.
type ValidationError struct {
	Validator string
	Message   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}
