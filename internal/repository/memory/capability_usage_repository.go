package memory

import (
	"context"
	"time"

	"ai-consulting-be/internal/entity"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// CapabilityUsageRepository keeps one append-only slice per session.
type CapabilityUsageRepository struct {
	store *Store
}

func (r *CapabilityUsageRepository) records(sessionId string) []*entity.CapabilityUsageRecord {
	if x, found := r.store.usage.Get(sessionId); found {
		return x.([]*entity.CapabilityUsageRecord)
	}
	return nil
}

func (r *CapabilityUsageRepository) Create(ctx context.Context, record *entity.CapabilityUsageRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if record.Id == uuid.Nil {
		record.Id = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = r.store.now().UTC()
	}
	stored := *record
	existing := r.records(record.SessionId)
	updated := make([]*entity.CapabilityUsageRecord, len(existing), len(existing)+1)
	copy(updated, existing)
	r.store.usage.Set(record.SessionId, append(updated, &stored), cache.DefaultExpiration)
	return nil
}

func (r *CapabilityUsageRepository) FindBySessionId(ctx context.Context, sessionId string, limit, offset int) ([]*entity.CapabilityUsageRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records := r.records(sessionId)
	out := make([]*entity.CapabilityUsageRecord, 0, limit)
	// stored oldest first, returned newest first
	for i := len(records) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		c := *records[i]
		out = append(out, &c)
	}
	return out, nil
}

func (r *CapabilityUsageRepository) CountBySessionId(ctx context.Context, sessionId string) (int64, error) {
	return int64(len(r.records(sessionId))), ctx.Err()
}

func (r *CapabilityUsageRepository) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var deleted int64
	for sessionId, item := range r.store.usage.Items() {
		records := item.Object.([]*entity.CapabilityUsageRecord)
		kept := make([]*entity.CapabilityUsageRecord, 0, len(records))
		for _, rec := range records {
			if rec.CreatedAt.Before(cutoff) {
				deleted++
				continue
			}
			kept = append(kept, rec)
		}
		if len(kept) == 0 {
			r.store.usage.Delete(sessionId)
		} else if len(kept) != len(records) {
			r.store.usage.Set(sessionId, kept, cache.DefaultExpiration)
		}
	}
	return deleted, nil
}
