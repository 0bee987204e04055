package engine

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/lingua/internal/content"
	"github.com/abhisek/lingua/internal/generator"
	"github.com/abhisek/lingua/internal/level"
	"github.com/abhisek/lingua/internal/llm"
	"github.com/abhisek/lingua/internal/store"
)

const (
	user  = "u1"
	skill = "grammar"
	typ   = "fill_blank"
)

type fixture struct {
	sel    *Selector
	levels *level.Service
	cache  *content.Cache
	mock   *llm.MockProvider
}

func newFixture(t *testing.T, backend store.Backend, responses ...llm.MockResponse) *fixture {
	t.Helper()
	mock := llm.NewMockProvider(responses...)
	catalog := content.DefaultCatalog()
	cfg := generator.DefaultConfig()
	cfg.Timeout = time.Second
	f := &fixture{
		levels: level.NewService(backend.LevelRepo(), level.DefaultPolicy(), nil),
		cache:  content.NewCache(backend.ContentRepo(), catalog, nil),
		mock:   mock,
	}
	f.sel = New(f.levels, f.cache, generator.New(mock, catalog, cfg, nil), nil)
	return f
}

func fillBlank(answer string) *content.FillBlank {
	return &content.FillBlank{
		Instructions: "Complete the sentence.",
		Items:        []content.FillBlankItem{{Prefix: "I ", Suffix: " here.", Answer: answer}},
	}
}

func generated(answer string) llm.MockResponse {
	raw, _ := json.Marshal(map[string]any{
		"instructions": "Complete the sentence.",
		"items": []map[string]any{
			{"prefix": "I ", "suffix": " here.", "answer": answer, "accepted": []string{}},
		},
	})
	return llm.MockResponse{Content: raw}
}

func (f *fixture) seed(t *testing.T, band level.Band) *content.Item {
	t.Helper()
	item, err := f.cache.Store(context.Background(), skill, typ, band, fillBlank("am"), content.GenerationMeta{Provider: "seed"})
	require.NoError(t, err)
	return item
}

func (f *fixture) timesUsed(t *testing.T, id string) int64 {
	t.Helper()
	item, err := f.cache.Get(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, item)
	return item.TimesUsed
}

func TestSelectFor_CacheHitAtBand(t *testing.T) {
	f := newFixture(t, store.NewMemory())
	seeded := f.seed(t, level.A2)

	sel, err := f.sel.SelectFor(context.Background(), user, skill, typ)
	require.NoError(t, err)
	assert.Equal(t, SourceCache, sel.Source)
	assert.Equal(t, seeded.ID, sel.Item.ID)
	assert.Equal(t, level.A2, sel.Level.Band())
	assert.Equal(t, int64(1), f.timesUsed(t, seeded.ID))
	assert.Zero(t, f.mock.CallCount(), "cache hit must not generate")
}

func TestSelectFor_AdjacentBandOrder(t *testing.T) {
	f := newFixture(t, store.NewMemory())
	above := f.seed(t, level.B1)
	below := f.seed(t, level.A1)

	sel, err := f.sel.SelectFor(context.Background(), user, skill, typ)
	require.NoError(t, err)
	assert.Equal(t, SourceCache, sel.Source)
	assert.Equal(t, below.ID, sel.Item.ID, "band below is tried before band above")

	sel, err = f.sel.SelectFor(context.Background(), user, skill, typ)
	require.NoError(t, err)
	assert.Equal(t, SourceCache, sel.Source)
	assert.Equal(t, above.ID, sel.Item.ID)
}

func TestSelectFor_SkipsNonAdjacentBands(t *testing.T) {
	f := newFixture(t, store.NewMemory(), generated("am"))
	far := f.seed(t, level.C1)

	sel, err := f.sel.SelectFor(context.Background(), user, skill, typ)
	require.NoError(t, err)
	assert.Equal(t, SourceGenerated, sel.Source)
	assert.NotEqual(t, far.ID, sel.Item.ID)
}

func TestSelectFor_GeneratesOnMiss(t *testing.T) {
	f := newFixture(t, store.NewMemory(), generated("am"))

	sel, err := f.sel.SelectFor(context.Background(), user, skill, typ, WithTopicHints("travel"))
	require.NoError(t, err)
	assert.Equal(t, SourceGenerated, sel.Source)
	assert.Equal(t, level.A2, sel.Item.Band)
	assert.Equal(t, "mock", sel.Item.Generation.Provider)
	assert.Equal(t, int64(1), f.timesUsed(t, sel.Item.ID))
	require.Equal(t, 1, f.mock.CallCount())
	assert.Contains(t, f.mock.Calls[0].Messages[0].Content, "1. travel")

	stats, err := f.cache.PoolStats(context.Background(), skill, typ)
	require.NoError(t, err)
	assert.Equal(t, []content.BandStat{{Band: level.A2, Items: 1, TimesUsed: 1}}, stats)
}

func TestSelectFor_NeverRepeatsForUser(t *testing.T) {
	f := newFixture(t, store.NewMemory(), generated("am"), generated("is"), generated("are"))
	f.seed(t, level.A2)
	f.seed(t, level.A1)

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		sel, err := f.sel.SelectFor(context.Background(), user, skill, typ)
		require.NoError(t, err)
		require.NotEqual(t, SourceFallback, sel.Source)
		assert.False(t, seen[sel.Item.ID], "item %s repeated", sel.Item.ID)
		seen[sel.Item.ID] = true
	}
	assert.Equal(t, 3, f.mock.CallCount())
}

func TestSelectFor_FallbackAfterGeneratorFailure(t *testing.T) {
	f := newFixture(t, store.NewMemory(), llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("down")}})
	seeded := f.seed(t, level.A2)

	first, err := f.sel.SelectFor(context.Background(), user, skill, typ)
	require.NoError(t, err)
	assert.Equal(t, SourceCache, first.Source)

	second, err := f.sel.SelectFor(context.Background(), user, skill, typ)
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, second.Source)
	assert.Equal(t, seeded.ID, second.Item.ID)
	assert.Equal(t, int64(2), f.timesUsed(t, seeded.ID))

	history, err := f.cache.History(context.Background(), user)
	require.NoError(t, err)
	assert.Len(t, history, 1, "reuse adds no second usage record")
}

func TestSelectFor_FallbackAnyBand(t *testing.T) {
	f := newFixture(t, store.NewMemory(), llm.MockResponse{Content: json.RawMessage(`{"items": []}`)})
	far := f.seed(t, level.C2)
	require.NoError(t, f.cache.MarkUsed(context.Background(), user, far.ID))

	sel, err := f.sel.SelectFor(context.Background(), user, skill, typ)
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, sel.Source)
	assert.Equal(t, far.ID, sel.Item.ID)
}

func TestSelectFor_NoContentAvailable(t *testing.T) {
	tests := []struct {
		name string
		resp llm.MockResponse
	}{
		{"unavailable", llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("down")}}},
		{"schema invalid", llm.MockResponse{Content: json.RawMessage(`{"instructions": "x"}`)}},
		{"out of range index", llm.MockResponse{Content: json.RawMessage(`{"title":"t","scenario":"s","turns":[{"speaker":"A","line":"Hi","options":["a","b","c","d"],"correct_index":7}]}`)}},
		{"timeout", llm.MockResponse{Content: json.RawMessage(`{}`), Delay: 5 * time.Second}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, store.NewMemory(), tt.resp)
			if tt.name == "timeout" {
				cfg := generator.DefaultConfig()
				cfg.Timeout = 20 * time.Millisecond
				f.sel.gen = generator.New(f.mock, content.DefaultCatalog(), cfg, nil)
			}
			exerciseType := typ
			if tt.name == "out of range index" {
				exerciseType = "conversation"
			}

			sel, err := f.sel.SelectFor(context.Background(), user, skill, exerciseType)
			assert.Nil(t, sel)
			assert.ErrorIs(t, err, ErrNoContentAvailable)

			stats, err := f.cache.PoolStats(context.Background(), skill, exerciseType)
			require.NoError(t, err)
			assert.Empty(t, stats, "invalid content never reaches the cache")
		})
	}
}

func TestSelectFor_NilGenerator(t *testing.T) {
	f := newFixture(t, store.NewMemory())
	f.sel = New(f.levels, f.cache, nil, nil)

	_, err := f.sel.SelectFor(context.Background(), user, skill, typ)
	assert.ErrorIs(t, err, ErrNoContentAvailable)
}

func TestSelectFor_RetiredItemsIgnored(t *testing.T) {
	f := newFixture(t, store.NewMemory())
	item := f.seed(t, level.A2)
	require.NoError(t, f.cache.Retire(context.Background(), item.ID))

	_, err := f.sel.SelectFor(context.Background(), user, skill, typ)
	assert.ErrorIs(t, err, ErrNoContentAvailable)
}

func TestSelectFor_UnknownExerciseType(t *testing.T) {
	f := newFixture(t, store.NewMemory())

	_, err := f.sel.SelectFor(context.Background(), user, skill, "karaoke")
	assert.ErrorIs(t, err, content.ErrUnknownExerciseType)

	lvl, err := f.levels.Get(context.Background(), user, skill, "karaoke")
	require.NoError(t, err)
	assert.Nil(t, lvl, "no level row for an unknown type")
}

func TestSelectFor_CoalescesConcurrentGeneration(t *testing.T) {
	f := newFixture(t, store.NewMemory(), llm.MockResponse{
		Content: generated("am").Content,
		Delay:   100 * time.Millisecond,
	})

	const users = 5
	var wg sync.WaitGroup
	results := make([]*Selection, users)
	errs := make([]error, users)
	for i := range users {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = f.sel.SelectFor(context.Background(), string(rune('a'+i)), skill, typ)
		}()
	}
	wg.Wait()

	for i := range users {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0].Item.ID, results[i].Item.ID)
	}
	assert.Equal(t, 1, f.mock.CallCount())
	assert.Equal(t, int64(users), f.timesUsed(t, results[0].Item.ID))
}

func TestSelectFor_FollowsLevelChanges(t *testing.T) {
	f := newFixture(t, store.NewMemory())
	b1 := f.seed(t, level.B1)
	c1 := f.seed(t, level.C1)
	ctx := context.Background()

	for _, score := range []int{90, 90, 90, 90} {
		_, err := f.sel.ReportScore(ctx, user, skill, typ, score)
		require.NoError(t, err)
	}
	lvl, err := f.levels.Get(ctx, user, skill, typ)
	require.NoError(t, err)
	require.Equal(t, 3.0, lvl.NumericLevel)

	sel, err := f.sel.SelectFor(ctx, user, skill, typ)
	require.NoError(t, err)
	assert.Equal(t, b1.ID, sel.Item.ID)
	assert.Equal(t, level.B1, sel.Level.Band())
	assert.NotEqual(t, c1.ID, sel.Item.ID)
}

func TestReportScore(t *testing.T) {
	f := newFixture(t, store.NewMemory())
	ctx := context.Background()

	res, err := f.sel.ReportScore(ctx, user, skill, typ, 65)
	require.NoError(t, err, "nothing to back-fill is not an error")
	assert.Equal(t, level.OutcomeNeutral, res.Outcome)
	assert.Equal(t, 1, res.Level.AttemptsAtBand)

	item := f.seed(t, level.A2)
	_, err = f.sel.SelectFor(ctx, user, skill, typ)
	require.NoError(t, err)

	res, err = f.sel.ReportScore(ctx, user, skill, typ, 40)
	require.NoError(t, err)
	assert.Equal(t, level.OutcomeFailure, res.Outcome)

	history, err := f.cache.History(ctx, user)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, item.ID, history[0].ContentItemID)
	require.NotNil(t, history[0].Score)
	assert.Equal(t, 40, *history[0].Score)

	_, err = f.sel.ReportScore(ctx, user, skill, typ, 101)
	assert.ErrorIs(t, err, level.ErrInvalidScore)
}

func TestReportScore_UnknownExerciseType(t *testing.T) {
	f := newFixture(t, store.NewMemory())
	ctx := context.Background()

	_, err := f.sel.ReportScore(ctx, user, skill, "karaoke", 90)
	assert.ErrorIs(t, err, content.ErrUnknownExerciseType)

	lvl, err := f.levels.Get(ctx, user, skill, "karaoke")
	require.NoError(t, err)
	assert.Nil(t, lvl, "no level row for an unknown type")
}

func TestSelector_SQLiteEndToEnd(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "lingua.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := newFixture(t, db, generated("am"))
	ctx := context.Background()

	sel, err := f.sel.SelectFor(ctx, user, skill, typ)
	require.NoError(t, err)
	assert.Equal(t, SourceGenerated, sel.Source)

	other, err := f.sel.SelectFor(ctx, "u2", skill, typ)
	require.NoError(t, err)
	assert.Equal(t, SourceCache, other.Source, "generated content is shared across users")
	assert.Equal(t, sel.Item.ID, other.Item.ID)

	_, err = f.sel.ReportScore(ctx, user, skill, typ, 85)
	require.NoError(t, err)
	history, err := f.cache.History(ctx, user)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.NotNil(t, history[0].Score)
	assert.Equal(t, 85, *history[0].Score)
}
