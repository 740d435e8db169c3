package implementation_test

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"ai-consulting-be/internal/entity"
	"ai-consulting-be/internal/model"
	"ai-consulting-be/internal/repository/unitofwork"
	"ai-consulting-be/pkg/database"
	"ai-consulting-be/pkg/intelligence"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFactory(t *testing.T) unitofwork.RepositoryFactory {
	t.Helper()
	// Load .env from root
	if err := godotenv.Load("../../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn, database.DefaultPoolConfig())
	require.NoError(t, err)
	require.NoError(t, gormDB.AutoMigrate(&model.ConversationContext{}, &model.CapabilityUsageLog{}))

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	return unitofwork.NewRepositoryFactory(gormDB)
}

func TestGormConversationContextVersioning(t *testing.T) {
	factory := newFactory(t)
	ctx := context.Background()
	repo := factory.NewUnitOfWork(ctx).ConversationContextRepository()

	sessionId := "it-" + uuid.NewString()
	confidence := 0.9
	snapshot := &entity.ContextSnapshot{
		SessionId:      sessionId,
		Lead:           entity.Lead{Email: "cto@acme.io"},
		Company:        &entity.CompanyContext{Name: "Acme"},
		Role:           "CTO",
		RoleConfidence: &confidence,
		Intent:         &entity.IntentResult{Type: entity.IntentPricing, Confidence: 0.8, Slots: map[string]string{"budget": "$50k"}},
		Capabilities:   []string{"search"},
		Stage:          "INTENT",
	}
	require.NoError(t, repo.Create(ctx, snapshot))

	assert.ErrorIs(t, repo.Create(ctx, snapshot), intelligence.ErrVersionConflict)

	got, err := repo.FindBySessionId(ctx, sessionId)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(1), got.Version)
	assert.Equal(t, "Acme", got.Company.Name)
	assert.Equal(t, "$50k", got.Intent.Slots["budget"])
	assert.Equal(t, []string{"search"}, got.Capabilities)

	got.Stage = "QUALIFY"
	require.NoError(t, repo.UpdateIfVersion(ctx, got, 1))
	assert.ErrorIs(t, repo.UpdateIfVersion(ctx, got, 1), intelligence.ErrVersionConflict)

	got, err = repo.FindBySessionId(ctx, sessionId)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Version)
	assert.Equal(t, "QUALIFY", got.Stage)
	assert.NotNil(t, got.UpdatedAt)

	missing, err := repo.FindBySessionId(ctx, "it-missing-"+uuid.NewString())
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGormCapabilityUsageLog(t *testing.T) {
	factory := newFactory(t)
	ctx := context.Background()
	repo := factory.NewUnitOfWork(ctx).CapabilityUsageRepository()

	sessionId := "it-" + uuid.NewString()
	for _, name := range []string{"search", "roi_calculator"} {
		require.NoError(t, repo.Create(ctx, &entity.CapabilityUsageRecord{
			SessionId:      sessionId,
			CapabilityName: name,
			UsageData:      map[string]interface{}{"source": "integration"},
		}))
	}

	total, err := repo.CountBySessionId(ctx, sessionId)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	records, err := repo.FindBySessionId(ctx, sessionId, 10, 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "integration", records[0].UsageData["source"])
}

func TestGormUnitOfWorkRollback(t *testing.T) {
	factory := newFactory(t)
	ctx := context.Background()
	uow := factory.NewUnitOfWork(ctx)

	sessionId := "it-" + uuid.NewString()
	require.NoError(t, uow.Begin(ctx))
	require.NoError(t, uow.ConversationContextRepository().Create(ctx, &entity.ContextSnapshot{SessionId: sessionId, Stage: "GREETING"}))
	require.NoError(t, uow.Rollback())

	got, err := factory.NewUnitOfWork(ctx).ConversationContextRepository().FindBySessionId(ctx, sessionId)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGormDeleteIfIdle(t *testing.T) {
	factory := newFactory(t)
	ctx := context.Background()
	repo := factory.NewUnitOfWork(ctx).ConversationContextRepository()

	sessionId := "it-" + uuid.NewString()
	require.NoError(t, repo.Create(ctx, &entity.ContextSnapshot{SessionId: sessionId, Stage: "GREETING"}))

	deleted, err := repo.DeleteIfIdle(ctx, sessionId, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.False(t, deleted, "written after the cutoff")

	ids, err := repo.FindIdleSessionIds(ctx, time.Now().Add(time.Hour), 1)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(ids), 1)

	deleted, err = repo.DeleteIfIdle(ctx, sessionId, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, deleted)

	got, err := repo.FindBySessionId(ctx, sessionId)
	require.NoError(t, err)
	assert.Nil(t, got)
}
