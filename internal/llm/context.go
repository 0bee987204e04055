package llm

import "context"

// UnknownPurpose labels events from calls that never set a purpose.
const UnknownPurpose = "unknown"

type purposeKey struct{}

// WithPurpose labels backend calls made with ctx in the event log. An empty
// purpose leaves any existing label in place.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	if purpose == "" {
		return ctx
	}
	return context.WithValue(ctx, purposeKey{}, purpose)
}

// PurposeFrom returns the label set by WithPurpose, or UnknownPurpose.
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey{}).(string); ok {
		return v
	}
	return UnknownPurpose
}
