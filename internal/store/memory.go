package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Memory is an in-process Backend with the same semantics as Store.
// Every operation runs under one mutex, so it is linearizable.
type Memory struct {
	mu      sync.Mutex
	levels  map[LevelKey]LevelRecord
	items   map[string]*ContentRecord
	usage   []UsageRecord
	usageID map[usageKey]int // index into usage
	events  []LLMRequestEvent
}

type usageKey struct {
	user string
	item string
}

// NewMemory returns an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{
		levels:  make(map[LevelKey]LevelRecord),
		items:   make(map[string]*ContentRecord),
		usageID: make(map[usageKey]int),
	}
}

func (m *Memory) LevelRepo() LevelRepo     { return memLevels{m} }
func (m *Memory) ContentRepo() ContentRepo { return memContent{m} }
func (m *Memory) EventRepo() EventRepo     { return memEvents{m} }
func (m *Memory) Close() error             { return nil }

type memLevels struct{ m *Memory }

func (r memLevels) Get(_ context.Context, key LevelKey) (*LevelRecord, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	rec, ok := r.m.levels[key]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (r memLevels) InsertIfAbsent(_ context.Context, rec *LevelRecord) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.levels[rec.LevelKey]; ok {
		return false, nil
	}
	r.m.levels[rec.LevelKey] = *rec
	return true, nil
}

func (r memLevels) CompareAndSwap(_ context.Context, rec *LevelRecord, expected int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	cur, ok := r.m.levels[rec.LevelKey]
	if !ok {
		return ErrNotFound
	}
	if cur.Version != expected {
		return ErrVersionConflict
	}
	next := *rec
	next.Version = expected + 1
	next.CreatedAt = cur.CreatedAt
	r.m.levels[rec.LevelKey] = next
	rec.Version = next.Version
	return nil
}

type memContent struct{ m *Memory }

func (r memContent) Insert(_ context.Context, rec *ContentRecord) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	cp := *rec
	cp.Payload = append([]byte(nil), rec.Payload...)
	r.m.items[rec.ID] = &cp
	return nil
}

func (r memContent) Get(_ context.Context, id string) (*ContentRecord, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	rec, ok := r.m.items[id]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (r memContent) FindLeastUsed(_ context.Context, q ContentQuery) (*ContentRecord, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var best *ContentRecord
	for _, rec := range r.m.items {
		if !rec.Active || rec.SkillArea != q.SkillArea || rec.ExerciseType != q.ExerciseType {
			continue
		}
		if q.BandLevel != "" && rec.BandLevel != q.BandLevel {
			continue
		}
		if q.UnusedBy != "" {
			if _, used := r.m.usageID[usageKey{q.UnusedBy, rec.ID}]; used {
				continue
			}
		}
		if best == nil || lessUsed(rec, best) {
			best = rec
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

// lessUsed orders by times_used, then created_at, then id.
func lessUsed(a, b *ContentRecord) bool {
	if a.TimesUsed != b.TimesUsed {
		return a.TimesUsed < b.TimesUsed
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

func (r memContent) MarkUsed(_ context.Context, userID, itemID string, at time.Time) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	rec, ok := r.m.items[itemID]
	if !ok {
		return false, ErrNotFound
	}
	rec.TimesUsed++
	k := usageKey{userID, itemID}
	if _, dup := r.m.usageID[k]; dup {
		return false, nil
	}
	r.m.usageID[k] = len(r.m.usage)
	r.m.usage = append(r.m.usage, UsageRecord{UserID: userID, ContentItemID: itemID, UsedAt: at})
	return true, nil
}

func (r memContent) SetActive(_ context.Context, id string, active bool) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	rec, ok := r.m.items[id]
	if !ok {
		return ErrNotFound
	}
	rec.Active = active
	return nil
}

func (r memContent) RecordScore(_ context.Context, userID, skillArea, exerciseType string, score int) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	latest := -1
	for i, u := range r.m.usage {
		if u.UserID != userID {
			continue
		}
		item := r.m.items[u.ContentItemID]
		if item == nil || item.SkillArea != skillArea || item.ExerciseType != exerciseType {
			continue
		}
		// Later rows win ties on used_at.
		if latest < 0 || !u.UsedAt.Before(r.m.usage[latest].UsedAt) {
			latest = i
		}
	}
	if latest < 0 {
		return false, nil
	}
	s := score
	r.m.usage[latest].Score = &s
	return true, nil
}

func (r memContent) Usage(_ context.Context, userID string) ([]UsageRecord, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var out []UsageRecord
	for i := len(r.m.usage) - 1; i >= 0; i-- {
		if u := r.m.usage[i]; u.UserID == userID {
			out = append(out, u)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UsedAt.After(out[j].UsedAt) })
	return out, nil
}

func (r memContent) PoolStats(_ context.Context, skillArea, exerciseType string) ([]BandStat, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	byBand := make(map[string]*BandStat)
	for _, rec := range r.m.items {
		if !rec.Active || rec.SkillArea != skillArea || rec.ExerciseType != exerciseType {
			continue
		}
		st := byBand[rec.BandLevel]
		if st == nil {
			st = &BandStat{BandLevel: rec.BandLevel}
			byBand[rec.BandLevel] = st
		}
		st.Items++
		st.TimesUsed += rec.TimesUsed
	}
	out := make([]BandStat, 0, len(byBand))
	for _, st := range byBand {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BandLevel < out[j].BandLevel })
	return out, nil
}

type memEvents struct{ m *Memory }

func (r memEvents) AppendLLMRequest(_ context.Context, data LLMRequestEventData) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.events = append(r.m.events, LLMRequestEvent{
		ID:                  len(r.m.events) + 1,
		Timestamp:           time.Now().UTC(),
		LLMRequestEventData: data,
	})
	return nil
}

func (r memEvents) QueryLLMEvents(_ context.Context, opts QueryOpts) ([]LLMRequestEvent, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []LLMRequestEvent
	for i := len(r.m.events) - 1; i >= 0; i-- {
		e := r.m.events[i]
		if opts.Purpose != "" && e.Purpose != opts.Purpose {
			continue
		}
		out = append(out, e)
		if opts.Limit > 0 && len(out) == opts.Limit {
			break
		}
	}
	return out, nil
}

func (r memEvents) GetLLMEvent(_ context.Context, id int) (*LLMRequestEvent, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if id < 1 || id > len(r.m.events) {
		return nil, nil
	}
	e := r.m.events[id-1]
	return &e, nil
}

func (r memEvents) LLMUsageByPurpose(_ context.Context) ([]PurposeUsage, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	type acc struct {
		PurposeUsage
		latency int64
	}
	by := make(map[string]*acc)
	for _, e := range r.m.events {
		a := by[e.Purpose]
		if a == nil {
			a = &acc{PurposeUsage: PurposeUsage{Purpose: e.Purpose}}
			by[e.Purpose] = a
		}
		a.Calls++
		a.InputTokens += e.InputTokens
		a.OutputTokens += e.OutputTokens
		a.latency += e.LatencyMs
	}
	out := make([]PurposeUsage, 0, len(by))
	for _, a := range by {
		a.AvgLatencyMs = a.latency / int64(a.Calls)
		out = append(out, a.PurposeUsage)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Purpose < out[j].Purpose })
	return out, nil
}

func (r memEvents) LLMUsageByModel(_ context.Context) ([]ModelUsage, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	by := make(map[string]*ModelUsage)
	for _, e := range r.m.events {
		mu := by[e.Model]
		if mu == nil {
			mu = &ModelUsage{Model: e.Model}
			by[e.Model] = mu
		}
		mu.Calls++
		mu.InputTokens += e.InputTokens
		mu.OutputTokens += e.OutputTokens
	}
	out := make([]ModelUsage, 0, len(by))
	for _, mu := range by {
		out = append(out, *mu)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Model < out[j].Model })
	return out, nil
}

var (
	_ Backend = (*Memory)(nil)
	_ Backend = (*Store)(nil)
)
