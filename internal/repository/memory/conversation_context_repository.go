package memory

import (
	"context"
	"sort"
	"time"

	"ai-consulting-be/internal/entity"
	"ai-consulting-be/pkg/intelligence"

	"github.com/patrickmn/go-cache"
)

type ConversationContextRepository struct {
	store *Store
}

func (r *ConversationContextRepository) get(sessionId string) (*entity.ContextSnapshot, bool) {
	if x, found := r.store.contexts.Get(sessionId); found {
		return x.(*entity.ContextSnapshot), true
	}
	return nil, false
}

func (r *ConversationContextRepository) FindBySessionId(ctx context.Context, sessionId string) (*entity.ContextSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s, ok := r.get(sessionId); ok {
		return s.Clone(), nil
	}
	return nil, nil
}

func (r *ConversationContextRepository) Create(ctx context.Context, snapshot *entity.ContextSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.get(snapshot.SessionId); ok {
		return intelligence.ErrVersionConflict
	}
	now := r.store.now().UTC()
	snapshot.Version = 1
	snapshot.CreatedAt = now
	snapshot.UpdatedAt = &now
	r.store.contexts.Set(snapshot.SessionId, snapshot.Clone(), cache.DefaultExpiration)
	return nil
}

func (r *ConversationContextRepository) UpdateIfVersion(ctx context.Context, snapshot *entity.ContextSnapshot, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	current, ok := r.get(snapshot.SessionId)
	if !ok || current.Version != expectedVersion {
		return intelligence.ErrVersionConflict
	}
	now := r.store.now().UTC()
	snapshot.Version = expectedVersion + 1
	snapshot.CreatedAt = current.CreatedAt
	snapshot.UpdatedAt = &now
	r.store.contexts.Set(snapshot.SessionId, snapshot.Clone(), cache.DefaultExpiration)
	return nil
}

func (r *ConversationContextRepository) all() []*entity.ContextSnapshot {
	items := r.store.contexts.Items()
	out := make([]*entity.ContextSnapshot, 0, len(items))
	for _, item := range items {
		out = append(out, item.Object.(*entity.ContextSnapshot))
	}
	return out
}

func (r *ConversationContextRepository) FindRecent(ctx context.Context, limit, offset int) ([]*entity.ContextSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	all := r.all()
	sort.Slice(all, func(i, j int) bool {
		a, b := updatedAt(all[i]), updatedAt(all[j])
		if !a.Equal(b) {
			return a.After(b)
		}
		return all[i].SessionId < all[j].SessionId
	})

	out := make([]*entity.ContextSnapshot, 0, limit)
	for i := offset; i < len(all) && len(out) < limit; i++ {
		out = append(out, all[i].Clone())
	}
	return out, nil
}

func (r *ConversationContextRepository) Count(ctx context.Context) (int64, error) {
	return int64(r.store.contexts.ItemCount()), ctx.Err()
}

func (r *ConversationContextRepository) FindIdleSessionIds(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var idle []*entity.ContextSnapshot
	for _, s := range r.all() {
		if updatedAt(s).Before(cutoff) {
			idle = append(idle, s)
		}
	}
	sort.Slice(idle, func(i, j int) bool {
		a, b := updatedAt(idle[i]), updatedAt(idle[j])
		if !a.Equal(b) {
			return a.Before(b)
		}
		return idle[i].SessionId < idle[j].SessionId
	})

	ids := make([]string, 0, limit)
	for i := 0; i < len(idle) && len(ids) < limit; i++ {
		ids = append(ids, idle[i].SessionId)
	}
	return ids, nil
}

func (r *ConversationContextRepository) DeleteIfIdle(ctx context.Context, sessionId string, cutoff time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	s, ok := r.get(sessionId)
	if !ok || !updatedAt(s).Before(cutoff) {
		return false, nil
	}
	r.store.contexts.Delete(sessionId)
	return true, nil
}

func updatedAt(s *entity.ContextSnapshot) time.Time {
	if s.UpdatedAt != nil {
		return *s.UpdatedAt
	}
	return s.CreatedAt
}
