package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/abhisek/lingua/internal/content"
	"github.com/abhisek/lingua/internal/generator"
	"github.com/abhisek/lingua/internal/level"
	"github.com/abhisek/lingua/internal/logger"
)

// ErrNoContentAvailable is returned when every selection tier came up empty.
var ErrNoContentAvailable = errors.New("engine: no content available")

// Source tells the caller which tier produced a selection.
type Source string

const (
	SourceCache     Source = "cache"
	SourceGenerated Source = "generated"
	SourceFallback  Source = "fallback"
)

// Selection is the content chosen for one practice attempt.
type Selection struct {
	// Item is the row as found, before this use was recorded.
	Item   *content.Item
	Source Source

	// Level is the learner's level at selection time. Item.Band may differ
	// when an adjacent band or the fallback pool was used.
	Level level.UserSkillLevel
}

type selectOptions struct {
	topicHints []string
}

// SelectOption customizes a single SelectFor call.
type SelectOption func(*selectOptions)

// WithTopicHints forwards topic hints to on-demand generation.
func WithTopicHints(hints ...string) SelectOption {
	return func(o *selectOptions) {
		o.topicHints = append(o.topicHints, hints...)
	}
}

// Selector is the engine's entry point: it picks content for a learner and
// feeds scores back into their level.
type Selector struct {
	levels *level.Service
	cache  *content.Cache
	gen    generator.Generator
	log    *logger.Logger
	flight singleflight.Group
}

// New creates a Selector. gen may be nil, in which case selection never
// generates and goes straight from the cache tiers to the fallback.
func New(levels *level.Service, cache *content.Cache, gen generator.Generator, log *logger.Logger) *Selector {
	if log == nil {
		log = logger.Nop()
	}
	return &Selector{levels: levels, cache: cache, gen: gen, log: log}
}

// SelectFor returns a content item for the learner and records its use.
// Tiers, in order: unused at the learner's band, unused at the band below
// then above, freshly generated at the learner's band, and finally any
// active item regardless of history.
func (s *Selector) SelectFor(ctx context.Context, userID, skillArea, exerciseType string, opts ...SelectOption) (*Selection, error) {
	var o selectOptions
	for _, opt := range opts {
		opt(&o)
	}

	if _, err := s.cache.Catalog().Kind(exerciseType); err != nil {
		return nil, err
	}

	lvl, err := s.levels.GetOrCreate(ctx, userID, skillArea, exerciseType)
	if err != nil {
		return nil, err
	}
	band := lvl.Band()
	log := s.log.With("user", userID, "skill", skillArea, "type", exerciseType, "band", band)

	for _, b := range append([]level.Band{band}, band.Adjacent()...) {
		item, err := s.cache.FindUnused(ctx, userID, skillArea, exerciseType, b)
		if err != nil {
			return nil, err
		}
		if item != nil {
			log.Debug("selected from cache", "id", item.ID, "item_band", b)
			return s.use(ctx, userID, item, SourceCache, lvl)
		}
	}

	if s.gen != nil {
		item, err := s.generate(ctx, skillArea, exerciseType, band, o.topicHints)
		if err == nil {
			log.Debug("selected generated content", "id", item.ID)
			return s.use(ctx, userID, item, SourceGenerated, lvl)
		}
		log.Warn("generation failed, falling back", "upstream", generator.IsUpstream(err), "error", err)
	}

	item, err := s.cache.FindAnyFallback(ctx, skillArea, exerciseType, band)
	if err != nil {
		return nil, err
	}
	if item != nil {
		log.Debug("selected fallback content", "id", item.ID, "item_band", item.Band)
		return s.use(ctx, userID, item, SourceFallback, lvl)
	}

	log.Warn("no content available")
	return nil, fmt.Errorf("%w for %s/%s at %s", ErrNoContentAvailable, skillArea, exerciseType, band)
}

// generate produces and stores one item. Concurrent misses for the same
// skill, type and band share a single backend call; each caller then marks
// the shared item used for itself.
func (s *Selector) generate(ctx context.Context, skillArea, exerciseType string, band level.Band, hints []string) (*content.Item, error) {
	key := strings.Join([]string{skillArea, exerciseType, band.String()}, "\x00")

	v, err, shared := s.flight.Do(key, func() (any, error) {
		// Waiters must not inherit the first caller's cancellation. The
		// generator's own timeout still bounds the call.
		gctx := context.WithoutCancel(ctx)

		res, err := s.gen.Generate(gctx, generator.Request{
			SkillArea:    skillArea,
			ExerciseType: exerciseType,
			Band:         band,
			TopicHints:   hints,
		})
		if err != nil {
			return nil, err
		}
		return s.cache.Store(gctx, skillArea, exerciseType, band, res.Payload, res.Meta)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.log.Debug("joined in-flight generation", "skill", skillArea, "type", exerciseType, "band", band)
	}
	return v.(*content.Item), nil
}

func (s *Selector) use(ctx context.Context, userID string, item *content.Item, src Source, lvl level.UserSkillLevel) (*Selection, error) {
	if err := s.cache.MarkUsed(ctx, userID, item.ID); err != nil {
		return nil, err
	}
	// Generated items are shared between flight waiters.
	cp := *item
	return &Selection{Item: &cp, Source: src, Level: lvl}, nil
}

// ReportScore feeds a graded attempt into the learner's level, then writes
// the score onto their most recent matching usage. Unknown exercise types
// are rejected before any level row is touched. A failed back-fill is
// logged and does not fail the call.
func (s *Selector) ReportScore(ctx context.Context, userID, skillArea, exerciseType string, score int) (*level.Result, error) {
	if _, err := s.cache.Catalog().Kind(exerciseType); err != nil {
		return nil, err
	}

	res, err := s.levels.UpdateOnScore(ctx, userID, skillArea, exerciseType, score)
	if err != nil {
		return nil, err
	}

	found, err := s.cache.RecordScore(ctx, userID, skillArea, exerciseType, score)
	switch {
	case err != nil:
		s.log.Warn("score back-fill failed", "user", userID, "skill", skillArea, "type", exerciseType, "error", err)
	case !found:
		s.log.Debug("no usage to back-fill", "user", userID, "skill", skillArea, "type", exerciseType)
	}
	return res, nil
}
