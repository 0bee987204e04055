package level

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/lingua/internal/logger"
	"github.com/abhisek/lingua/internal/store"
)

var (
	// ErrInvalidScore is returned for scores outside 0..100.
	ErrInvalidScore = errors.New("level: score must be between 0 and 100")

	// ErrConcurrencyConflict is returned when an update lost the
	// compare-and-set race more times than the policy allows.
	ErrConcurrencyConflict = errors.New("level: concurrent update conflict")
)

// Result is the outcome of one UpdateOnScore call.
type Result struct {
	Level   UserSkillLevel
	Outcome Outcome
	Change  *Change // nil when the numeric level did not move
}

// Service is the Level Store: it owns reads and writes of user proficiency.
type Service struct {
	repo   store.LevelRepo
	policy Policy
	log    *logger.Logger
	now    func() time.Time
}

// NewService creates a level service over repo.
func NewService(repo store.LevelRepo, policy Policy, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:   repo,
		policy: policy,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Policy returns the thresholds in effect.
func (s *Service) Policy() Policy {
	return s.policy
}

// Get returns the stored level, or nil if the user has none for this key.
func (s *Service) Get(ctx context.Context, userID, skillArea, exerciseType string) (*UserSkillLevel, error) {
	rec, err := s.repo.Get(ctx, store.LevelKey{UserID: userID, SkillArea: skillArea, ExerciseType: exerciseType})
	if err != nil {
		return nil, fmt.Errorf("get level: %w", err)
	}
	if rec == nil {
		return nil, nil
	}
	l := fromRecord(rec)
	return &l, nil
}

// GetOrCreate returns the stored level, creating the default row if absent.
// Concurrent first access converges on a single row.
func (s *Service) GetOrCreate(ctx context.Context, userID, skillArea, exerciseType string) (UserSkillLevel, error) {
	key := store.LevelKey{UserID: userID, SkillArea: skillArea, ExerciseType: exerciseType}

	rec, err := s.repo.Get(ctx, key)
	if err != nil {
		return UserSkillLevel{}, fmt.Errorf("get level: %w", err)
	}
	if rec != nil {
		return fromRecord(rec), nil
	}

	now := s.now()
	fresh := UserSkillLevel{
		UserID:       userID,
		SkillArea:    skillArea,
		ExerciseType: exerciseType,
		NumericLevel: s.policy.DefaultLevel,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	created, err := s.repo.InsertIfAbsent(ctx, toRecord(fresh))
	if err != nil {
		return UserSkillLevel{}, fmt.Errorf("create level: %w", err)
	}
	if created {
		s.log.Debug("level created", "user", userID, "skill", skillArea, "type", exerciseType, "band", fresh.Band())
		return fresh, nil
	}

	// Lost the insert race; read the winner.
	rec, err = s.repo.Get(ctx, key)
	if err != nil {
		return UserSkillLevel{}, fmt.Errorf("get level: %w", err)
	}
	if rec == nil {
		return UserSkillLevel{}, fmt.Errorf("level for %s/%s/%s vanished after insert", userID, skillArea, exerciseType)
	}
	return fromRecord(rec), nil
}

// UpdateOnScore applies one scored attempt and persists the result.
// Updates to the same key serialize through compare-and-set on the row
// version; a lost race re-reads and re-applies.
func (s *Service) UpdateOnScore(ctx context.Context, userID, skillArea, exerciseType string, score int) (*Result, error) {
	if score < 0 || score > 100 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidScore, score)
	}

	for attempt := 1; attempt <= s.policy.MaxRetries; attempt++ {
		cur, err := s.GetOrCreate(ctx, userID, skillArea, exerciseType)
		if err != nil {
			return nil, err
		}

		next, change := s.policy.Apply(cur, score)
		next.UpdatedAt = s.now()

		rec := toRecord(next)
		err = s.repo.CompareAndSwap(ctx, rec, cur.Version)
		if errors.Is(err, store.ErrVersionConflict) {
			s.log.Debug("level update conflict, retrying", "user", userID, "skill", skillArea, "type", exerciseType, "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("update level: %w", err)
		}

		next.Version = rec.Version
		if change != nil {
			s.log.Info("level changed",
				"user", userID, "skill", skillArea, "type", exerciseType,
				"trigger", change.Trigger, "from", change.From, "to", change.To, "band", next.Band())
		}
		return &Result{Level: next, Outcome: s.policy.Classify(score), Change: change}, nil
	}

	return nil, fmt.Errorf("%w: %s/%s/%s after %d attempts", ErrConcurrencyConflict, userID, skillArea, exerciseType, s.policy.MaxRetries)
}

func fromRecord(r *store.LevelRecord) UserSkillLevel {
	return UserSkillLevel{
		UserID:         r.UserID,
		SkillArea:      r.SkillArea,
		ExerciseType:   r.ExerciseType,
		NumericLevel:   r.NumericLevel,
		AttemptsAtBand: r.AttemptsAtBand,
		CorrectStreak:  r.CorrectStreak,
		FailureStreak:  r.FailureStreak,
		Version:        r.Version,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

// toRecord derives band_level from the numeric level on every write.
func toRecord(l UserSkillLevel) *store.LevelRecord {
	return &store.LevelRecord{
		LevelKey: store.LevelKey{
			UserID:       l.UserID,
			SkillArea:    l.SkillArea,
			ExerciseType: l.ExerciseType,
		},
		NumericLevel:   l.NumericLevel,
		BandLevel:      l.Band().String(),
		AttemptsAtBand: l.AttemptsAtBand,
		CorrectStreak:  l.CorrectStreak,
		FailureStreak:  l.FailureStreak,
		Version:        l.Version,
		CreatedAt:      l.CreatedAt,
		UpdatedAt:      l.UpdatedAt,
	}
}
