package memory

import (
	"context"
	"testing"
	"time"

	"ai-consulting-be/internal/entity"
	"ai-consulting-be/pkg/intelligence"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationContextVersioning(t *testing.T) {
	ctx := context.Background()
	uow := NewRepositoryFactory(NewStore(0)).NewUnitOfWork(ctx)
	repo := uow.ConversationContextRepository()

	got, err := repo.FindBySessionId(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, got)

	snapshot := &entity.ContextSnapshot{SessionId: "s1", Role: "CEO"}
	require.NoError(t, repo.Create(ctx, snapshot))
	assert.Equal(t, int64(1), snapshot.Version)
	assert.ErrorIs(t, repo.Create(ctx, &entity.ContextSnapshot{SessionId: "s1"}), intelligence.ErrVersionConflict)

	snapshot.Role = "CTO"
	require.NoError(t, repo.UpdateIfVersion(ctx, snapshot, 1))
	assert.Equal(t, int64(2), snapshot.Version)

	stale := &entity.ContextSnapshot{SessionId: "s1", Role: "CFO"}
	assert.ErrorIs(t, repo.UpdateIfVersion(ctx, stale, 1), intelligence.ErrVersionConflict)

	got, err = repo.FindBySessionId(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "CTO", got.Role)
	assert.Equal(t, int64(2), got.Version)

	// returned snapshots are copies
	got.Role = "mutated"
	again, _ := repo.FindBySessionId(ctx, "s1")
	assert.Equal(t, "CTO", again.Role)
}

func TestConversationContextRecentAndSweep(t *testing.T) {
	ctx := context.Background()
	store := NewStore(0)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := base
	store.now = func() time.Time { return clock }
	repo := NewRepositoryFactory(store).NewUnitOfWork(ctx).ConversationContextRepository()

	for i, id := range []string{"a", "b", "c"} {
		clock = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, repo.Create(ctx, &entity.ContextSnapshot{SessionId: id}))
	}

	recent, err := repo.FindRecent(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "c", recent[0].SessionId)
	assert.Equal(t, "b", recent[1].SessionId)

	count, _ := repo.Count(ctx)
	assert.Equal(t, int64(3), count)

	cutoff := base.Add(90 * time.Minute)
	idle, err := repo.FindIdleSessionIds(ctx, cutoff, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, idle)

	idle, err = repo.FindIdleSessionIds(ctx, cutoff, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, idle)

	// b is written after the sweep listed it, so it is no longer idle
	clock = base.Add(3 * time.Hour)
	b, err := repo.FindBySessionId(ctx, "b")
	require.NoError(t, err)
	require.NoError(t, repo.UpdateIfVersion(ctx, b, b.Version))

	for _, id := range []string{"a", "b", "missing"} {
		deleted, err := repo.DeleteIfIdle(ctx, id, cutoff)
		require.NoError(t, err)
		assert.Equal(t, id == "a", deleted, id)
	}
	count, _ = repo.Count(ctx)
	assert.Equal(t, int64(2), count)
}

func TestCapabilityUsageLog(t *testing.T) {
	ctx := context.Background()
	store := NewStore(0)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := NewRepositoryFactory(store).NewUnitOfWork(ctx).CapabilityUsageRepository()

	for i, name := range []string{"search", "search", "voice"} {
		require.NoError(t, repo.Create(ctx, &entity.CapabilityUsageRecord{
			SessionId:      "s1",
			CapabilityName: name,
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		}))
	}

	records, err := repo.FindBySessionId(ctx, "s1", 10, 0)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "voice", records[0].CapabilityName)
	assert.NotEqual(t, records[1].Id, records[2].Id)

	page, _ := repo.FindBySessionId(ctx, "s1", 1, 1)
	require.Len(t, page, 1)
	assert.Equal(t, base.Add(time.Minute), page[0].CreatedAt)

	deleted, err := repo.DeleteCreatedBefore(ctx, base.Add(30*time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	n, _ := repo.CountBySessionId(ctx, "s1")
	assert.Equal(t, int64(2), n)
}
