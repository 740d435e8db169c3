package capability

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ai-consulting-be/internal/entity"
	"ai-consulting-be/internal/pkg/logger"
	"ai-consulting-be/internal/repository/contract"
	"ai-consulting-be/internal/repository/memory"
	"ai-consulting-be/internal/repository/unitofwork"
	"ai-consulting-be/pkg/intelligence/contextstore"
	"ai-consulting-be/pkg/locker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func newTestRecorder(factory unitofwork.RepositoryFactory) *Recorder {
	store := contextstore.New(factory, locker.NewKeyedMutex(time.Second), logger.NewNopLogger())
	return NewRecorder(store, factory, nil, logger.NewNopLogger())
}

func TestRecordTwiceKeepsOneSetEntryAndTwoLogEntries(t *testing.T) {
	ctx := context.Background()
	factory := memory.NewRepositoryFactory(memory.NewStore(0))
	r := newTestRecorder(factory)

	r.Record(ctx, "s1", "search", map[string]interface{}{"query": "pricing"})
	r.Record(ctx, "s1", "search", nil)

	assert.Equal(t, []string{"search"}, r.Used(ctx, "s1"))

	records, total, err := r.History(ctx, "s1", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, records, 2)
	for _, rec := range records {
		assert.Equal(t, "search", rec.CapabilityName)
	}
}

func TestRecordFoldsNameCase(t *testing.T) {
	ctx := context.Background()
	factory := memory.NewRepositoryFactory(memory.NewStore(0))
	r := newTestRecorder(factory)

	r.Record(ctx, "s1", "Search", nil)
	r.Record(ctx, "s1", " search ", nil)
	r.Record(ctx, "s1", "SEARCH", nil)

	assert.Equal(t, []string{"search"}, r.Used(ctx, "s1"))

	records, _, err := r.History(ctx, "s1", 10, 0)
	require.NoError(t, err)
	require.Len(t, records, 3)
	for _, rec := range records {
		assert.Equal(t, "search", rec.CapabilityName)
	}

	snapshot, err := r.store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, snapshot.HasCapability("Search"))
}

func TestRecordIgnoresInvalidInput(t *testing.T) {
	ctx := context.Background()
	r := newTestRecorder(memory.NewRepositoryFactory(memory.NewStore(0)))

	assert.NotPanics(t, func() {
		r.Record(ctx, "", "search", nil)
		r.Record(ctx, "s1", "  ", nil)
	})
	assert.Empty(t, r.Used(ctx, "s1"))
}

func TestUsedIsEmptyOnFailure(t *testing.T) {
	r := newTestRecorder(brokenFactory{})
	got := r.Used(context.Background(), "s1")
	assert.NotNil(t, got)
	assert.Empty(t, got)

	assert.Empty(t, r.Used(context.Background(), "not valid!"))
}

func TestRecordSurvivesLogFailure(t *testing.T) {
	ctx := context.Background()
	factory := logFailingFactory{inner: memory.NewRepositoryFactory(memory.NewStore(0))}
	r := newTestRecorder(factory)

	assert.NotPanics(t, func() { r.Record(ctx, "s1", "voice", nil) })
	// the snapshot set is still maintained when the audit append fails
	assert.Equal(t, []string{"voice"}, r.Used(ctx, "s1"))
}

type brokenFactory struct{}

func (brokenFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork { return brokenUow{} }

type brokenUow struct{}

func (brokenUow) Begin(ctx context.Context) error { return nil }
func (brokenUow) Commit() error                   { return nil }
func (brokenUow) Rollback() error                 { return nil }
func (brokenUow) ConversationContextRepository() contract.ConversationContextRepository {
	return brokenContexts{}
}
func (brokenUow) CapabilityUsageRepository() contract.CapabilityUsageRepository { return brokenUsage{} }

type brokenContexts struct{ contract.ConversationContextRepository }

func (brokenContexts) FindBySessionId(ctx context.Context, sessionId string) (*entity.ContextSnapshot, error) {
	return nil, errors.New("db down")
}

type brokenUsage struct{ contract.CapabilityUsageRepository }

func (brokenUsage) Create(ctx context.Context, record *entity.CapabilityUsageRecord) error {
	return errors.New("db down")
}

type logFailingFactory struct{ inner unitofwork.RepositoryFactory }

func (f logFailingFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return logFailingUow{UnitOfWork: f.inner.NewUnitOfWork(ctx)}
}

type logFailingUow struct{ unitofwork.UnitOfWork }

func (logFailingUow) CapabilityUsageRepository() contract.CapabilityUsageRepository {
	return brokenUsage{}
}

type countingHandler struct {
	mu    sync.Mutex
	calls []string
	ctxOK bool
}

func (h *countingHandler) Record(ctx context.Context, sessionId, name string, usageData map[string]interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, hasDeadline := ctx.Deadline()
	h.ctxOK = hasDeadline
	h.calls = append(h.calls, sessionId+"/"+name)
}

func (h *countingHandler) snapshot() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string{}, h.calls...)
}

func TestDispatcherDeliversAll(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := &countingHandler{}
	d := NewDispatcher(NewPubSub(false), h, 100*time.Millisecond, logger.NewNopLogger())
	require.NoError(t, d.Start(context.Background()))

	d.Dispatch("s1", "search", nil)
	d.Dispatch("s1", "voice", map[string]interface{}{"seconds": 12})
	d.Dispatch("s2", "webcam", nil)

	assert.Eventually(t, func() bool { return len(h.snapshot()) == 3 }, 2*time.Second, 5*time.Millisecond)
	assert.ElementsMatch(t, []string{"s1/search", "s1/voice", "s2/webcam"}, h.snapshot())
	assert.True(t, h.ctxOK)

	require.NoError(t, d.Close())
	require.NoError(t, d.Close())
}

func TestDispatcherWithRecorder(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := context.Background()
	r := newTestRecorder(memory.NewRepositoryFactory(memory.NewStore(0)))
	d := NewDispatcher(NewPubSub(false), r, time.Second, logger.NewNopLogger())
	require.NoError(t, d.Start(ctx))

	d.Dispatch("s1", "search", nil)
	d.Dispatch("s1", "search", nil)

	assert.Eventually(t, func() bool {
		_, total, err := r.History(ctx, "s1", 10, 0)
		return err == nil && total == 2
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"search"}, r.Used(ctx, "s1"))

	require.NoError(t, d.Close())
}
