package unitofwork

import (
	"context"

	"ai-consulting-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ConversationContextRepository() contract.ConversationContextRepository
	CapabilityUsageRepository() contract.CapabilityUsageRepository
}
