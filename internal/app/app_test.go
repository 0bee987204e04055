package app

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/lingua/internal/config"
	"github.com/abhisek/lingua/internal/engine"
	"github.com/abhisek/lingua/internal/generator"
	"github.com/abhisek/lingua/internal/level"
	"github.com/abhisek/lingua/internal/llm"
	"github.com/abhisek/lingua/internal/logger"
	"github.com/abhisek/lingua/internal/store"
)

func fillBlankResponse() llm.MockResponse {
	return llm.MockResponse{Content: json.RawMessage(`{"instructions":"Fill in.","items":[{"prefix":"I ","suffix":" tired.","answer":"am","accepted":[]}]}`)}
}

func memoryConfig() *config.Config {
	cfg := config.Default()
	cfg.Database.Driver = config.DriverMemory
	cfg.LLM.Provider = "none"
	cfg.LLM.Retry.InitialWait = 0
	cfg.LLM.Retry.MaxWait = 0
	return cfg
}

func TestNewWithoutBackend(t *testing.T) {
	a, err := New(context.Background(), memoryConfig(), Options{Logger: logger.Nop()})
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.Provider)
	assert.Nil(t, a.Generator)

	_, err = a.Selector.SelectFor(context.Background(), "u1", "grammar", "fill_blank")
	assert.ErrorIs(t, err, engine.ErrNoContentAvailable)

	_, err = a.PreGenerate(context.Background(), generator.Request{SkillArea: "grammar", ExerciseType: "fill_blank", Band: level.A2}, 1)
	assert.ErrorIs(t, err, ErrGenerationDisabled)
}

func TestNewWithProviderRecordsEvents(t *testing.T) {
	mock := llm.NewMockProvider(fillBlankResponse())
	a, err := New(context.Background(), memoryConfig(), Options{Provider: mock, Logger: logger.Nop()})
	require.NoError(t, err)
	defer a.Close()

	sel, err := a.Selector.SelectFor(context.Background(), "u1", "grammar", "fill_blank")
	require.NoError(t, err)
	assert.Equal(t, engine.SourceGenerated, sel.Source)

	events, err := a.Store.EventRepo().QueryLLMEvents(context.Background(), store.QueryOpts{Purpose: generator.Purpose})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, events[0].Success)
}

func TestPreGenerateRetriesTransientFailures(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("503")}},
		fillBlankResponse(),
		fillBlankResponse(),
	)
	a, err := New(context.Background(), memoryConfig(), Options{Provider: mock, Logger: logger.Nop()})
	require.NoError(t, err)
	defer a.Close()

	req := generator.Request{SkillArea: "grammar", ExerciseType: "fill_blank", Band: level.B1}
	items, err := a.PreGenerate(context.Background(), req, 2)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 3, mock.CallCount())

	stats, err := a.Cache.PoolStats(context.Background(), "grammar", "fill_blank")
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, level.B1, stats[0].Band)
	assert.Equal(t, 2, stats[0].Items)
}

func TestNewSQLite(t *testing.T) {
	cfg := memoryConfig()
	cfg.Database.Driver = config.DriverSQLite
	path := filepath.Join(t.TempDir(), "nested", "lingua.db")

	a, err := New(context.Background(), cfg, Options{DBPath: path, Logger: logger.Nop()})
	require.NoError(t, err)
	lvl, err := a.Levels.GetOrCreate(context.Background(), "u1", "grammar", "passage")
	require.NoError(t, err)
	assert.Equal(t, level.A2, lvl.Band())
	require.NoError(t, a.Close())

	a, err = New(context.Background(), cfg, Options{DBPath: path, Logger: logger.Nop()})
	require.NoError(t, err)
	defer a.Close()
	got, err := a.Levels.Get(context.Background(), "u1", "grammar", "passage")
	require.NoError(t, err)
	assert.NotNil(t, got, "level persisted across reopen")
}
