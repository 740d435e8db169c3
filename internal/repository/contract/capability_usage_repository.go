package contract

import (
	"context"
	"time"

	"ai-consulting-be/internal/entity"
)

type CapabilityUsageRepository interface {
	Create(ctx context.Context, record *entity.CapabilityUsageRecord) error
	// FindBySessionId lists records newest first.
	FindBySessionId(ctx context.Context, sessionId string, limit, offset int) ([]*entity.CapabilityUsageRecord, error)
	CountBySessionId(ctx context.Context, sessionId string) (int64, error)
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
