package contract

import (
	"context"
	"time"

	"ai-consulting-be/internal/entity"
)

type ConversationContextRepository interface {
	// FindBySessionId returns nil, nil when the session has no snapshot.
	FindBySessionId(ctx context.Context, sessionId string) (*entity.ContextSnapshot, error)
	// Create inserts version 1. An existing row yields intelligence.ErrVersionConflict.
	Create(ctx context.Context, snapshot *entity.ContextSnapshot) error
	// UpdateIfVersion writes snapshot only if the stored version equals expectedVersion,
	// bumping the version. A mismatch yields intelligence.ErrVersionConflict.
	UpdateIfVersion(ctx context.Context, snapshot *entity.ContextSnapshot, expectedVersion int64) error
	FindRecent(ctx context.Context, limit, offset int) ([]*entity.ContextSnapshot, error)
	Count(ctx context.Context) (int64, error)
	// FindIdleSessionIds lists up to limit sessions last written before cutoff, oldest first.
	FindIdleSessionIds(ctx context.Context, cutoff time.Time, limit int) ([]string, error)
	// DeleteIfIdle removes the session only if it is still unwritten since cutoff.
	DeleteIfIdle(ctx context.Context, sessionId string, cutoff time.Time) (bool, error)
}
