package level

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/lingua/internal/store"
)

func newTestService(t *testing.T, p Policy) *Service {
	t.Helper()
	return NewService(store.NewMemory().LevelRepo(), p, nil)
}

func TestGetOrCreateDefaults(t *testing.T) {
	svc := newTestService(t, DefaultPolicy())
	ctx := context.Background()

	got, err := svc.Get(ctx, "u1", "reading", "passage")
	require.NoError(t, err)
	assert.Nil(t, got)

	l, err := svc.GetOrCreate(ctx, "u1", "reading", "passage")
	require.NoError(t, err)
	assert.Equal(t, 2.0, l.NumericLevel)
	assert.Equal(t, A2, l.Band())
	assert.Zero(t, l.AttemptsAtBand)
	assert.Zero(t, l.CorrectStreak)

	again, err := svc.GetOrCreate(ctx, "u1", "reading", "passage")
	require.NoError(t, err)
	assert.Equal(t, l.CreatedAt, again.CreatedAt)
}

func TestGetOrCreateConcurrent(t *testing.T) {
	s, err := store.Open(t.TempDir() + "/levels.db")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	svc := NewService(s.LevelRepo(), DefaultPolicy(), nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.GetOrCreate(ctx, "u1", "listening", "conversation"); err != nil {
				t.Errorf("get or create: %v", err)
			}
		}()
	}
	wg.Wait()

	var n int
	err = s.DB().QueryRow(`SELECT COUNT(*) FROM user_skill_levels WHERE user_id = 'u1'`).Scan(&n)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestUpdateOnScoreScenarios(t *testing.T) {
	tests := []struct {
		name       string
		scores     []int
		wantLevel  float64
		wantBand   Band
		wantChange bool // on the last score
	}{
		{"two successes", []int{90, 90}, 2.5, A2, true},
		{"four successes", []int{90, 90, 90, 90}, 3.0, B1, true},
		{"success after failure", []int{40, 90}, 2.0, A2, false},
		{"two failures", []int{40, 10}, 1.5, A1, true},
		{"neutral only", []int{60, 70, 55}, 2.0, A2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, DefaultPolicy())
			ctx := context.Background()

			var res *Result
			for _, score := range tt.scores {
				var err error
				res, err = svc.UpdateOnScore(ctx, "u1", "reading", "fill_blank", score)
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantLevel, res.Level.NumericLevel)
			assert.Equal(t, tt.wantBand, res.Level.Band())
			assert.Equal(t, tt.wantChange, res.Change != nil)
			assert.Equal(t, int64(len(tt.scores)), res.Level.Version)

			stored, err := svc.Get(ctx, "u1", "reading", "fill_blank")
			require.NoError(t, err)
			require.NotNil(t, stored)
			assert.Equal(t, res.Level.NumericLevel, stored.NumericLevel)
		})
	}
}

func TestUpdateOnScoreRejectsInvalid(t *testing.T) {
	svc := newTestService(t, DefaultPolicy())
	ctx := context.Background()

	for _, score := range []int{-1, 101} {
		_, err := svc.UpdateOnScore(ctx, "u1", "reading", "passage", score)
		assert.ErrorIs(t, err, ErrInvalidScore)
	}

	got, err := svc.Get(ctx, "u1", "reading", "passage")
	require.NoError(t, err)
	assert.Nil(t, got, "invalid score must not create a row")
}

func TestUpdateOnScoreConcurrentSameKey(t *testing.T) {
	const n = 10
	p := DefaultPolicy()
	// Each loser of a round lost to a distinct writer, so n attempts suffice.
	p.MaxRetries = n
	svc := newTestService(t, p)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.UpdateOnScore(ctx, "u1", "reading", "passage", 65); err != nil {
				t.Errorf("update: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := svc.Get(ctx, "u1", "reading", "passage")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, n, got.AttemptsAtBand, "every update applied exactly once")
	assert.Equal(t, int64(n), got.Version)
}

func TestUpdateOnScoreDifferentKeysIndependent(t *testing.T) {
	svc := newTestService(t, DefaultPolicy())
	ctx := context.Background()

	_, err := svc.UpdateOnScore(ctx, "u1", "reading", "passage", 90)
	require.NoError(t, err)
	_, err = svc.UpdateOnScore(ctx, "u1", "reading", "passage", 90)
	require.NoError(t, err)
	_, err = svc.UpdateOnScore(ctx, "u1", "listening", "passage", 10)
	require.NoError(t, err)

	a, err := svc.Get(ctx, "u1", "reading", "passage")
	require.NoError(t, err)
	b, err := svc.Get(ctx, "u1", "listening", "passage")
	require.NoError(t, err)
	assert.Equal(t, 2.5, a.NumericLevel)
	assert.Equal(t, 2.0, b.NumericLevel)
	assert.Equal(t, 1, b.FailureStreak)
}

// conflictRepo loses every compare-and-set.
type conflictRepo struct {
	store.LevelRepo
	calls int
}

func (r *conflictRepo) CompareAndSwap(context.Context, *store.LevelRecord, int64) error {
	r.calls++
	return store.ErrVersionConflict
}

func TestUpdateOnScoreGivesUpAfterRetries(t *testing.T) {
	repo := &conflictRepo{LevelRepo: store.NewMemory().LevelRepo()}
	p := DefaultPolicy()
	p.MaxRetries = 3
	svc := NewService(repo, p, nil)

	_, err := svc.UpdateOnScore(context.Background(), "u1", "reading", "passage", 90)
	assert.ErrorIs(t, err, ErrConcurrencyConflict)
	assert.Equal(t, 3, repo.calls)
}
