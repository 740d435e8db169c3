// Package memory keeps conversation contexts in process, for tests and
// single-instance deployments without Postgres.
package memory

import (
	"context"
	"sync"
	"time"

	"ai-consulting-be/internal/repository/contract"
	"ai-consulting-be/internal/repository/unitofwork"

	"github.com/patrickmn/go-cache"
)

// Store owns the caches shared by every unit of work it hands out.
type Store struct {
	mu       sync.Mutex // serializes compare-and-set on contexts and appends to logs
	contexts *cache.Cache
	usage    *cache.Cache
	now      func() time.Time
}

// NewStore creates an empty store. A zero ttl keeps entries until swept and
// starts no janitor goroutine.
func NewStore(ttl time.Duration) *Store {
	cleanup := 10 * time.Minute
	if ttl <= 0 {
		ttl = cache.NoExpiration
		cleanup = 0
	}
	return &Store{
		contexts: cache.New(ttl, cleanup),
		usage:    cache.New(ttl, cleanup),
		now:      time.Now,
	}
}

type RepositoryFactory struct {
	store *Store
}

func NewRepositoryFactory(store *Store) unitofwork.RepositoryFactory {
	return &RepositoryFactory{store: store}
}

func (f *RepositoryFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &unitOfWork{store: f.store}
}

// unitOfWork has no transactions; every write is applied immediately.
type unitOfWork struct {
	store *Store
}

func (u *unitOfWork) Begin(ctx context.Context) error { return nil }
func (u *unitOfWork) Commit() error                   { return nil }
func (u *unitOfWork) Rollback() error                 { return nil }

func (u *unitOfWork) ConversationContextRepository() contract.ConversationContextRepository {
	return &ConversationContextRepository{store: u.store}
}

func (u *unitOfWork) CapabilityUsageRepository() contract.CapabilityUsageRepository {
	return &CapabilityUsageRepository{store: u.store}
}
