// Package retention expires idle conversation contexts and old capability log rows.
package retention

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ai-consulting-be/internal/pkg/logger"
	"ai-consulting-be/internal/repository/unitofwork"
	"ai-consulting-be/pkg/intelligence"
	"ai-consulting-be/pkg/locker"

	"github.com/robfig/cron/v3"
)

// DefaultBatchSize bounds how many idle sessions are listed per round trip.
const DefaultBatchSize = 500

type Result struct {
	Contexts   int64 `json:"contexts"`
	Skipped    int64 `json:"skipped"`
	UsageLogs  int64 `json:"usageLogs"`
	DurationMs int64 `json:"durationMs"`
}

// Sweeper deletes idle contexts under the same per-session lock the context
// store writes with, so a sweep never races a concurrent update.
type Sweeper struct {
	uowFactory   unitofwork.RepositoryFactory
	locker       locker.Locker
	batchSize    int
	contextTTL   time.Duration
	logRetention time.Duration
	logger       logger.ILogger
	now          func() time.Time

	cron *cron.Cron
}

// NewSweeper builds a sweeper. A zero duration disables that half of the sweep.
func NewSweeper(uowFactory unitofwork.RepositoryFactory, sessionLocker locker.Locker, contextTTL, logRetention time.Duration, logger logger.ILogger) *Sweeper {
	return &Sweeper{
		uowFactory:   uowFactory,
		locker:       sessionLocker,
		batchSize:    DefaultBatchSize,
		contextTTL:   contextTTL,
		logRetention: logRetention,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *Sweeper) Sweep(ctx context.Context) (Result, error) {
	start := s.now()
	var res Result

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if s.contextTTL > 0 {
		if err := s.sweepContexts(ctx, start.Add(-s.contextTTL), &res); err != nil {
			return res, fmt.Errorf("sweep contexts: %w", err)
		}
	}
	if s.logRetention > 0 {
		n, err := uow.CapabilityUsageRepository().DeleteCreatedBefore(ctx, start.Add(-s.logRetention))
		if err != nil {
			return res, fmt.Errorf("sweep capability log: %w", err)
		}
		res.UsageLogs = n
	}

	res.DurationMs = s.now().Sub(start).Milliseconds()
	return res, nil
}

// sweepContexts deletes sessions idle since cutoff one at a time, each under its
// session lock and only if no write landed after it was listed. Sessions whose
// lock cannot be taken are left for the next sweep.
func (s *Sweeper) sweepContexts(ctx context.Context, cutoff time.Time, res *Result) error {
	repo := s.uowFactory.NewUnitOfWork(ctx).ConversationContextRepository()
	busy := make(map[string]struct{})
	for {
		ids, err := repo.FindIdleSessionIds(ctx, cutoff, s.batchSize)
		if err != nil {
			return err
		}

		var deletedInBatch int64
		for _, id := range ids {
			if _, ok := busy[id]; ok {
				continue
			}
			deleted, err := s.deleteIdle(ctx, id, cutoff)
			if errors.Is(err, intelligence.ErrLockTimeout) {
				busy[id] = struct{}{}
				s.logger.Warn("RETENTION", "Session busy, skipping", map[string]interface{}{"session_id": id})
				continue
			}
			if err != nil {
				return err
			}
			if deleted {
				deletedInBatch++
			}
		}
		res.Contexts += deletedInBatch
		res.Skipped = int64(len(busy))

		// a batch that deleted nothing holds only busy or refreshed sessions
		if len(ids) < s.batchSize || deletedInBatch == 0 {
			return nil
		}
	}
}

func (s *Sweeper) deleteIdle(ctx context.Context, sessionId string, cutoff time.Time) (bool, error) {
	unlock, err := s.locker.Lock(ctx, sessionId)
	if err != nil {
		return false, err
	}
	defer unlock()
	return s.uowFactory.NewUnitOfWork(ctx).ConversationContextRepository().DeleteIfIdle(ctx, sessionId, cutoff)
}

// Start runs Sweep on the cron schedule (standard 5-field spec or descriptors like "@hourly").
func (s *Sweeper) Start(schedule string) error {
	if s.cron != nil {
		return fmt.Errorf("sweeper already started")
	}
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		res, err := s.Sweep(ctx)
		if err != nil {
			s.logger.Error("RETENTION", "Sweep failed", map[string]interface{}{"error": err.Error()})
			return
		}
		s.logger.Info("RETENTION", "Sweep finished", map[string]interface{}{
			"contexts":    res.Contexts,
			"skipped":     res.Skipped,
			"usage_logs":  res.UsageLogs,
			"duration_ms": res.DurationMs,
		})
	})
	if err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	s.cron = c
	c.Start()
	return nil
}

// Stop halts scheduling and waits for a running sweep.
func (s *Sweeper) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.cron = nil
}
