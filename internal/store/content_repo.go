package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// contentRepo implements ContentRepo with dialect-aware ent query builders.
type contentRepo struct {
	db *sql.DB
	b  *entsql.DialectBuilder
}

var contentColumns = []string{
	"id", "skill_area", "exercise_type", "band_level", "schema_kind", "payload",
	"gen_provider", "gen_model", "gen_schema_version", "gen_latency_ms",
	"times_used", "is_active", "created_at",
}

func (r *contentRepo) Insert(ctx context.Context, rec *ContentRecord) error {
	query, args := r.b.Insert(tableContent).
		Columns(contentColumns...).
		Values(
			rec.ID, rec.SkillArea, rec.ExerciseType, rec.BandLevel, rec.SchemaKind, string(rec.Payload),
			rec.GenProvider, rec.GenModel, rec.GenSchemaVersion, rec.GenLatencyMs,
			rec.TimesUsed, rec.Active, rec.CreatedAt,
		).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert content item: %w", err)
	}
	return nil
}

func (r *contentRepo) Get(ctx context.Context, id string) (*ContentRecord, error) {
	query, args := r.b.Select(contentColumns...).
		From(r.b.Table(tableContent)).
		Where(entsql.EQ("id", id)).
		Query()
	return r.scanOne(ctx, query, args)
}

func (r *contentRepo) FindLeastUsed(ctx context.Context, q ContentQuery) (*ContentRecord, error) {
	t := r.b.Table(tableContent)
	preds := []*entsql.Predicate{
		entsql.EQ(t.C("skill_area"), q.SkillArea),
		entsql.EQ(t.C("exercise_type"), q.ExerciseType),
		entsql.EQ(t.C("is_active"), true),
	}
	if q.BandLevel != "" {
		preds = append(preds, entsql.EQ(t.C("band_level"), q.BandLevel))
	}
	if q.UnusedBy != "" {
		u := r.b.Table(tableUsage)
		preds = append(preds, entsql.NotExists(
			r.b.Select(u.C("id")).
				From(u).
				Where(entsql.And(
					entsql.ColumnsEQ(u.C("content_item_id"), t.C("id")),
					entsql.EQ(u.C("user_id"), q.UnusedBy),
				)),
		))
	}

	query, args := r.b.Select(t.Columns(contentColumns...)...).
		From(t).
		Where(entsql.And(preds...)).
		OrderBy(t.C("times_used"), t.C("created_at"), t.C("id")).
		Limit(1).
		Query()
	return r.scanOne(ctx, query, args)
}

func (r *contentRepo) MarkUsed(ctx context.Context, userID, itemID string, at time.Time) (inserted bool, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	query, args := r.b.Update(tableContent).
		Add("times_used", 1).
		Where(entsql.EQ("id", itemID)).
		Query()
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("increment times_used: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("increment times_used: %w", err)
	}
	if n == 0 {
		return false, ErrNotFound
	}

	query, args = r.b.Insert(tableUsage).
		Columns("user_id", "content_item_id", "used_at").
		Values(userID, itemID, at).
		OnConflict(
			entsql.ConflictColumns("user_id", "content_item_id"),
			entsql.DoNothing(),
		).
		Query()
	res, err = tx.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("insert usage record: %w", err)
	}
	if n, err = res.RowsAffected(); err != nil {
		return false, fmt.Errorf("insert usage record: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return n > 0, nil
}

func (r *contentRepo) SetActive(ctx context.Context, id string, active bool) error {
	query, args := r.b.Update(tableContent).
		Set("is_active", active).
		Where(entsql.EQ("id", id)).
		Query()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("set is_active: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set is_active: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *contentRepo) RecordScore(ctx context.Context, userID, skillArea, exerciseType string, score int) (bool, error) {
	u := r.b.Table(tableUsage)
	c := r.b.Table(tableContent)
	query, args := r.b.Select(u.C("id")).
		From(u).
		Join(c).
		On(u.C("content_item_id"), c.C("id")).
		Where(entsql.And(
			entsql.EQ(u.C("user_id"), userID),
			entsql.EQ(c.C("skill_area"), skillArea),
			entsql.EQ(c.C("exercise_type"), exerciseType),
		)).
		OrderBy(entsql.Desc(u.C("used_at")), entsql.Desc(u.C("id"))).
		Limit(1).
		Query()

	var id int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("query latest usage: %w", err)
	}

	query, args = r.b.Update(tableUsage).
		Set("score", score).
		Where(entsql.EQ("id", id)).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return false, fmt.Errorf("update usage score: %w", err)
	}
	return true, nil
}

func (r *contentRepo) Usage(ctx context.Context, userID string) ([]UsageRecord, error) {
	query, args := r.b.Select("user_id", "content_item_id", "used_at", "score").
		From(r.b.Table(tableUsage)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy(entsql.Desc("used_at"), entsql.Desc("id")).
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query usage: %w", err)
	}
	defer rows.Close()

	var out []UsageRecord
	for rows.Next() {
		var (
			rec   UsageRecord
			score sql.NullInt64
		)
		if err := rows.Scan(&rec.UserID, &rec.ContentItemID, &rec.UsedAt, &score); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		if score.Valid {
			v := int(score.Int64)
			rec.Score = &v
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *contentRepo) PoolStats(ctx context.Context, skillArea, exerciseType string) ([]BandStat, error) {
	query, args := r.b.Select("band_level", entsql.Count("*"), entsql.Sum("times_used")).
		From(r.b.Table(tableContent)).
		Where(entsql.And(
			entsql.EQ("skill_area", skillArea),
			entsql.EQ("exercise_type", exerciseType),
			entsql.EQ("is_active", true),
		)).
		GroupBy("band_level").
		OrderBy("band_level").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pool stats: %w", err)
	}
	defer rows.Close()

	var out []BandStat
	for rows.Next() {
		var st BandStat
		if err := rows.Scan(&st.BandLevel, &st.Items, &st.TimesUsed); err != nil {
			return nil, fmt.Errorf("scan pool stats: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (r *contentRepo) scanOne(ctx context.Context, query string, args []any) (*ContentRecord, error) {
	var (
		rec     ContentRecord
		payload []byte
	)
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&rec.ID, &rec.SkillArea, &rec.ExerciseType, &rec.BandLevel, &rec.SchemaKind, &payload,
		&rec.GenProvider, &rec.GenModel, &rec.GenSchemaVersion, &rec.GenLatencyMs,
		&rec.TimesUsed, &rec.Active, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query content item: %w", err)
	}
	rec.Payload = payload
	return &rec, nil
}
