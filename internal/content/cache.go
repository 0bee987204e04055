package content

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/lingua/internal/level"
	"github.com/abhisek/lingua/internal/logger"
	"github.com/abhisek/lingua/internal/store"
)

// ErrNotFound is returned when an operation targets an unknown item.
var ErrNotFound = errors.New("content: item not found")

// GenerationMeta records which backend produced an item.
type GenerationMeta struct {
	Provider      string
	Model         string
	SchemaVersion int
	Latency       time.Duration
}

// Item is one cached, schema-valid exercise instance.
type Item struct {
	ID           string
	SkillArea    string
	ExerciseType string
	Band         level.Band
	Kind         SchemaKind
	Payload      Payload
	Generation   GenerationMeta
	TimesUsed    int64
	Active       bool
	CreatedAt    time.Time
}

// BandStat summarizes the active pool at one band.
type BandStat struct {
	Band      level.Band
	Items     int
	TimesUsed int64
}

// Cache is the Content Cache: generated items, their popularity counters
// and per-user usage history.
type Cache struct {
	repo    store.ContentRepo
	catalog Catalog
	log     *logger.Logger
	now     func() time.Time
	newID   func() string
}

// NewCache creates a cache over repo.
func NewCache(repo store.ContentRepo, catalog Catalog, log *logger.Logger) *Cache {
	if log == nil {
		log = logger.Nop()
	}
	return &Cache{
		repo:    repo,
		catalog: catalog,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   func() string { return uuid.NewString() },
	}
}

// Catalog returns the exercise catalog the cache validates against.
func (c *Cache) Catalog() Catalog {
	return c.catalog
}

// FindUnused returns the least-used active item at band that userID has
// never consumed, or nil.
func (c *Cache) FindUnused(ctx context.Context, userID, skillArea, exerciseType string, band level.Band) (*Item, error) {
	rec, err := c.repo.FindLeastUsed(ctx, store.ContentQuery{
		SkillArea:    skillArea,
		ExerciseType: exerciseType,
		BandLevel:    band.String(),
		UnusedBy:     userID,
	})
	if err != nil {
		return nil, fmt.Errorf("find unused: %w", err)
	}
	return c.toItem(rec)
}

// FindAnyFallback ignores usage history: it returns the least-used active
// item at band, or failing that at any band, or nil.
func (c *Cache) FindAnyFallback(ctx context.Context, skillArea, exerciseType string, band level.Band) (*Item, error) {
	for _, b := range []string{band.String(), ""} {
		rec, err := c.repo.FindLeastUsed(ctx, store.ContentQuery{
			SkillArea:    skillArea,
			ExerciseType: exerciseType,
			BandLevel:    b,
		})
		if err != nil {
			return nil, fmt.Errorf("find fallback: %w", err)
		}
		if rec != nil {
			return c.toItem(rec)
		}
	}
	return nil, nil
}

// Store inserts a new active item with times_used 0.
func (c *Cache) Store(ctx context.Context, skillArea, exerciseType string, band level.Band, payload Payload, meta GenerationMeta) (*Item, error) {
	kind, err := c.catalog.Kind(exerciseType)
	if err != nil {
		return nil, err
	}
	if payload == nil || payload.Kind() != kind {
		return nil, fmt.Errorf("store %s item: payload kind mismatch", exerciseType)
	}
	if !band.Valid() {
		return nil, fmt.Errorf("store %s item: invalid band %q", exerciseType, band)
	}
	data, err := EncodePayload(payload)
	if err != nil {
		return nil, err
	}

	item := &Item{
		ID:           c.newID(),
		SkillArea:    skillArea,
		ExerciseType: exerciseType,
		Band:         band,
		Kind:         kind,
		Payload:      payload,
		Generation:   meta,
		Active:       true,
		CreatedAt:    c.now(),
	}
	err = c.repo.Insert(ctx, &store.ContentRecord{
		ID:               item.ID,
		SkillArea:        skillArea,
		ExerciseType:     exerciseType,
		BandLevel:        band.String(),
		SchemaKind:       string(kind),
		Payload:          data,
		GenProvider:      meta.Provider,
		GenModel:         meta.Model,
		GenSchemaVersion: meta.SchemaVersion,
		GenLatencyMs:     meta.Latency.Milliseconds(),
		Active:           true,
		CreatedAt:        item.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("store item: %w", err)
	}
	c.log.Debug("content stored", "id", item.ID, "skill", skillArea, "type", exerciseType, "band", band)
	return item, nil
}

// MarkUsed records that userID consumed itemID. Repeats add no usage row
// but still count toward times_used.
func (c *Cache) MarkUsed(ctx context.Context, userID, itemID string) error {
	inserted, err := c.repo.MarkUsed(ctx, userID, itemID, c.now())
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, itemID)
	}
	if err != nil {
		return fmt.Errorf("mark used: %w", err)
	}
	if !inserted {
		c.log.Debug("content reused", "user", userID, "id", itemID)
	}
	return nil
}

// Get returns one item by id, or nil.
func (c *Cache) Get(ctx context.Context, id string) (*Item, error) {
	rec, err := c.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return c.toItem(rec)
}

// Retire excludes an item from every future lookup. The row is kept.
func (c *Cache) Retire(ctx context.Context, id string) error {
	err := c.repo.SetActive(ctx, id, false)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("retire item: %w", err)
	}
	c.log.Info("content retired", "id", id)
	return nil
}

// RecordScore writes score onto the user's latest usage of an item with
// the given skill and type. It reports whether such a usage existed.
func (c *Cache) RecordScore(ctx context.Context, userID, skillArea, exerciseType string, score int) (bool, error) {
	found, err := c.repo.RecordScore(ctx, userID, skillArea, exerciseType, score)
	if err != nil {
		return false, fmt.Errorf("record score: %w", err)
	}
	return found, nil
}

// History lists a user's consumption, newest first.
func (c *Cache) History(ctx context.Context, userID string) ([]store.UsageRecord, error) {
	recs, err := c.repo.Usage(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("usage history: %w", err)
	}
	return recs, nil
}

// PoolStats summarizes the active pool per band for a skill and type.
func (c *Cache) PoolStats(ctx context.Context, skillArea, exerciseType string) ([]BandStat, error) {
	stats, err := c.repo.PoolStats(ctx, skillArea, exerciseType)
	if err != nil {
		return nil, fmt.Errorf("pool stats: %w", err)
	}
	out := make([]BandStat, 0, len(stats))
	for _, st := range stats {
		out = append(out, BandStat{Band: level.Band(st.BandLevel), Items: st.Items, TimesUsed: st.TimesUsed})
	}
	return out, nil
}

func (c *Cache) toItem(rec *store.ContentRecord) (*Item, error) {
	if rec == nil {
		return nil, nil
	}
	kind := SchemaKind(rec.SchemaKind)
	payload, err := DecodePayload(kind, rec.Payload)
	if err != nil {
		return nil, fmt.Errorf("item %s: %w", rec.ID, err)
	}
	return &Item{
		ID:           rec.ID,
		SkillArea:    rec.SkillArea,
		ExerciseType: rec.ExerciseType,
		Band:         level.Band(rec.BandLevel),
		Kind:         kind,
		Payload:      payload,
		Generation: GenerationMeta{
			Provider:      rec.GenProvider,
			Model:         rec.GenModel,
			SchemaVersion: rec.GenSchemaVersion,
			Latency:       time.Duration(rec.GenLatencyMs) * time.Millisecond,
		},
		TimesUsed: rec.TimesUsed,
		Active:    rec.Active,
		CreatedAt: rec.CreatedAt,
	}, nil
}
