// Package capability tracks which product capabilities a session has been shown.
package capability

import (
	"context"

	"ai-consulting-be/internal/entity"
	"ai-consulting-be/internal/pkg/logger"
	"ai-consulting-be/internal/repository/unitofwork"
	"ai-consulting-be/pkg/intelligence"
	"ai-consulting-be/pkg/intelligence/contextstore"
	"ai-consulting-be/pkg/intelligence/events"
)

const MaxNameLength = 64

// Recorder writes the audit log and the deduplicated snapshot set. Both steps
// are best-effort and fail independently; nothing is returned to the caller.
type Recorder struct {
	store      *contextstore.Store
	uowFactory unitofwork.RepositoryFactory
	publisher  events.Publisher
	logger     logger.ILogger
}

func NewRecorder(store *contextstore.Store, uowFactory unitofwork.RepositoryFactory, publisher events.Publisher, logger logger.ILogger) *Recorder {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Recorder{
		store:      store,
		uowFactory: uowFactory,
		publisher:  publisher,
		logger:     logger,
	}
}

// NormalizeName is the form a capability name is logged and stored under.
func NormalizeName(name string) string {
	return entity.CapabilityKey(name)
}

// ValidateName checks a capability name before it is recorded.
func ValidateName(name string) error {
	name = NormalizeName(name)
	if name == "" {
		return intelligence.NewValidationError("capability", "must not be empty")
	}
	if len(name) > MaxNameLength {
		return intelligence.NewValidationError("capability", "name too long")
	}
	return nil
}

func (r *Recorder) Record(ctx context.Context, sessionId, name string, usageData map[string]interface{}) {
	name = NormalizeName(name)
	if err := intelligence.ValidateSessionId(sessionId); err != nil {
		r.logger.Warn("CAPABILITY", "Skipping capability with invalid session", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := ValidateName(name); err != nil {
		r.logger.Warn("CAPABILITY", "Skipping invalid capability", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
		return
	}

	uow := r.uowFactory.NewUnitOfWork(ctx)
	err := uow.CapabilityUsageRepository().Create(ctx, &entity.CapabilityUsageRecord{
		SessionId:      sessionId,
		CapabilityName: name,
		UsageData:      usageData,
	})
	if err != nil {
		r.logger.Error("CAPABILITY", "Failed to append usage log", map[string]interface{}{
			"session_id": sessionId,
			"capability": name,
			"error":      err.Error(),
		})
	}

	if _, err := r.store.AddCapability(ctx, sessionId, name); err != nil {
		r.logger.Error("CAPABILITY", "Failed to update capability set", map[string]interface{}{
			"session_id": sessionId,
			"capability": name,
			"error":      err.Error(),
		})
		return
	}

	r.publisher.PublishCapabilityUsed(ctx, sessionId, name, usageData)
	r.logger.Debug("CAPABILITY", "Capability recorded", map[string]interface{}{
		"session_id": sessionId,
		"capability": name,
	})
}

// Used returns the session's capability set, or an empty set on any failure.
func (r *Recorder) Used(ctx context.Context, sessionId string) []string {
	snapshot, err := r.store.Get(ctx, sessionId)
	if err != nil {
		r.logger.Warn("CAPABILITY", "Failed to read capability set", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
		return []string{}
	}
	if snapshot == nil {
		return []string{}
	}
	return entity.UnionCapabilities(snapshot.Capabilities)
}

// History lists audit log entries newest first with the total count.
func (r *Recorder) History(ctx context.Context, sessionId string, limit, offset int) ([]*entity.CapabilityUsageRecord, int64, error) {
	if err := intelligence.ValidateSessionId(sessionId); err != nil {
		return nil, 0, err
	}
	repo := r.uowFactory.NewUnitOfWork(ctx).CapabilityUsageRepository()

	records, err := repo.FindBySessionId(ctx, sessionId, limit, offset)
	if err != nil {
		return nil, 0, intelligence.NewPersistenceError("capability_log", err)
	}
	total, err := repo.CountBySessionId(ctx, sessionId)
	if err != nil {
		return nil, 0, intelligence.NewPersistenceError("capability_log", err)
	}
	return records, total, nil
}
