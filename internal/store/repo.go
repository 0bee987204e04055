package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrVersionConflict is returned by LevelRepo.CompareAndSwap when the
	// stored row changed since it was read.
	ErrVersionConflict = errors.New("store: version conflict")

	// ErrNotFound is returned when an operation targets a row that does not
	// exist. Lookups that may legitimately miss return nil instead.
	ErrNotFound = errors.New("store: not found")
)

// Backend is one storage technology providing every repo the engine needs.
type Backend interface {
	LevelRepo() LevelRepo
	ContentRepo() ContentRepo
	EventRepo() EventRepo
	Close() error
}

// LevelKey identifies one proficiency row.
type LevelKey struct {
	UserID       string
	SkillArea    string
	ExerciseType string
}

// LevelRecord is the persisted form of a user's proficiency for one key.
type LevelRecord struct {
	LevelKey
	NumericLevel   float64
	BandLevel      string
	AttemptsAtBand int
	CorrectStreak  int
	FailureStreak  int
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// LevelRepo persists proficiency rows.
type LevelRepo interface {
	// Get returns the row for key, or nil if none exists.
	Get(ctx context.Context, key LevelKey) (*LevelRecord, error)

	// InsertIfAbsent inserts rec unless a row for its key already exists.
	// It reports whether this call created the row.
	InsertIfAbsent(ctx context.Context, rec *LevelRecord) (bool, error)

	// CompareAndSwap overwrites the row for rec's key if its stored version
	// equals expected, bumping the version to expected+1 (reflected in rec).
	// Returns ErrVersionConflict when the version moved.
	CompareAndSwap(ctx context.Context, rec *LevelRecord, expected int64) error
}

// ContentRecord is the persisted form of a cached content item.
type ContentRecord struct {
	ID               string
	SkillArea        string
	ExerciseType     string
	BandLevel        string
	SchemaKind       string
	Payload          []byte
	GenProvider      string
	GenModel         string
	GenSchemaVersion int
	GenLatencyMs     int64
	TimesUsed        int64
	Active           bool
	CreatedAt        time.Time
}

// ContentQuery filters active content items. An empty BandLevel matches
// every band; a non-empty UnusedBy excludes items that user already consumed.
type ContentQuery struct {
	SkillArea    string
	ExerciseType string
	BandLevel    string
	UnusedBy     string
}

// UsageRecord is one consumption of a content item by a user.
type UsageRecord struct {
	UserID        string
	ContentItemID string
	UsedAt        time.Time
	Score         *int
}

// BandStat aggregates the active pool for one band.
type BandStat struct {
	BandLevel string
	Items     int
	TimesUsed int64
}

// ContentRepo persists content items and usage history.
type ContentRepo interface {
	Insert(ctx context.Context, rec *ContentRecord) error

	// Get returns the item with id, or nil if none exists.
	Get(ctx context.Context, id string) (*ContentRecord, error)

	// FindLeastUsed returns the active item matching q with the lowest
	// times_used, oldest first on ties, or nil when nothing matches.
	FindLeastUsed(ctx context.Context, q ContentQuery) (*ContentRecord, error)

	// MarkUsed records that userID consumed itemID and increments the item's
	// times_used. A repeated (user, item) pair adds no usage row but still
	// increments the counter. It reports whether a usage row was created.
	// Returns ErrNotFound for an unknown item.
	MarkUsed(ctx context.Context, userID, itemID string, at time.Time) (bool, error)

	// SetActive flips the soft-delete flag. Returns ErrNotFound for an unknown item.
	SetActive(ctx context.Context, id string, active bool) error

	// RecordScore sets the score on the user's most recent usage row for an
	// item of the given skill and type. It reports whether a row was found.
	RecordScore(ctx context.Context, userID, skillArea, exerciseType string, score int) (bool, error)

	// Usage lists a user's usage rows, newest first.
	Usage(ctx context.Context, userID string) ([]UsageRecord, error)

	// PoolStats aggregates active items per band for a skill and type.
	PoolStats(ctx context.Context, skillArea, exerciseType string) ([]BandStat, error)
}

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int    // max results (0 = unlimited)
	Purpose string // exact purpose match ("" = any)
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEvent is a stored LLMRequestEventData.
type LLMRequestEvent struct {
	ID        int
	Timestamp time.Time
	LLMRequestEventData
}

// PurposeUsage aggregates LLM calls for one purpose label.
type PurposeUsage struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// ModelUsage aggregates LLM calls for one model.
type ModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// EventRepo provides append and query access to LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error)

	// GetLLMEvent returns one event, or nil if none exists.
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEvent, error)

	// LLMUsageByPurpose aggregates token usage per purpose.
	LLMUsageByPurpose(ctx context.Context) ([]PurposeUsage, error)

	// LLMUsageByModel aggregates token usage per model.
	LLMUsageByModel(ctx context.Context) ([]ModelUsage, error)
}
