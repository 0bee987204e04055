package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

// levelRepo implements LevelRepo with dialect-aware ent query builders.
type levelRepo struct {
	db *sql.DB
	b  *entsql.DialectBuilder
}

var levelColumns = []string{
	"user_id", "skill_area", "exercise_type",
	"numeric_level", "band_level",
	"attempts_at_band", "correct_streak", "failure_streak",
	"version", "created_at", "updated_at",
}

func (r *levelRepo) Get(ctx context.Context, key LevelKey) (*LevelRecord, error) {
	query, args := r.b.Select(levelColumns...).
		From(r.b.Table(tableLevels)).
		Where(levelKeyPredicate(key)).
		Limit(1).
		Query()

	var rec LevelRecord
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&rec.UserID, &rec.SkillArea, &rec.ExerciseType,
		&rec.NumericLevel, &rec.BandLevel,
		&rec.AttemptsAtBand, &rec.CorrectStreak, &rec.FailureStreak,
		&rec.Version, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query level: %w", err)
	}
	return &rec, nil
}

func (r *levelRepo) InsertIfAbsent(ctx context.Context, rec *LevelRecord) (bool, error) {
	query, args := r.b.Insert(tableLevels).
		Columns(levelColumns...).
		Values(
			rec.UserID, rec.SkillArea, rec.ExerciseType,
			rec.NumericLevel, rec.BandLevel,
			rec.AttemptsAtBand, rec.CorrectStreak, rec.FailureStreak,
			rec.Version, rec.CreatedAt, rec.UpdatedAt,
		).
		OnConflict(
			entsql.ConflictColumns("user_id", "skill_area", "exercise_type"),
			entsql.DoNothing(),
		).
		Query()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("insert level: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert level: %w", err)
	}
	return n > 0, nil
}

func (r *levelRepo) CompareAndSwap(ctx context.Context, rec *LevelRecord, expected int64) error {
	query, args := r.b.Update(tableLevels).
		Set("numeric_level", rec.NumericLevel).
		Set("band_level", rec.BandLevel).
		Set("attempts_at_band", rec.AttemptsAtBand).
		Set("correct_streak", rec.CorrectStreak).
		Set("failure_streak", rec.FailureStreak).
		Set("version", expected+1).
		Set("updated_at", rec.UpdatedAt).
		Where(entsql.And(
			levelKeyPredicate(rec.LevelKey),
			entsql.EQ("version", expected),
		)).
		Query()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update level: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update level: %w", err)
	}
	if n == 0 {
		cur, err := r.Get(ctx, rec.LevelKey)
		if err != nil {
			return err
		}
		if cur == nil {
			return ErrNotFound
		}
		return ErrVersionConflict
	}
	rec.Version = expected + 1
	return nil
}

func levelKeyPredicate(key LevelKey) *entsql.Predicate {
	return entsql.And(
		entsql.EQ("user_id", key.UserID),
		entsql.EQ("skill_area", key.SkillArea),
		entsql.EQ("exercise_type", key.ExerciseType),
	)
}
