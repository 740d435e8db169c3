// Package contextstore persists one ContextSnapshot per session and merges
// patches onto it.
package contextstore

import (
	"context"
	"errors"
	"strings"

	"ai-consulting-be/internal/entity"
	"ai-consulting-be/internal/pkg/logger"
	"ai-consulting-be/internal/repository/unitofwork"
	"ai-consulting-be/pkg/intelligence"
	"ai-consulting-be/pkg/intelligence/normalize"
	"ai-consulting-be/pkg/intelligence/scoring"
	"ai-consulting-be/pkg/intelligence/stage"
	"ai-consulting-be/pkg/locker"
)

type Store struct {
	uowFactory unitofwork.RepositoryFactory
	locker     locker.Locker
	logger     logger.ILogger
}

func New(uowFactory unitofwork.RepositoryFactory, l locker.Locker, logger logger.ILogger) *Store {
	return &Store{
		uowFactory: uowFactory,
		locker:     l,
		logger:     logger,
	}
}

// Get returns nil, nil when the session has no snapshot yet.
func (s *Store) Get(ctx context.Context, sessionId string) (*entity.ContextSnapshot, error) {
	if err := intelligence.ValidateSessionId(sessionId); err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	snapshot, err := uow.ConversationContextRepository().FindBySessionId(ctx, sessionId)
	if err != nil {
		return nil, intelligence.NewPersistenceError("get", err)
	}
	return snapshot, nil
}

// Update merges patch onto the stored snapshot and writes it back conditionally
// on the version read. The read-modify-write runs under the session lock.
func (s *Store) Update(ctx context.Context, sessionId string, patch entity.ContextPatch) (*entity.ContextSnapshot, error) {
	if err := intelligence.ValidateSessionId(sessionId); err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return nil, intelligence.NewValidationError("patch", "must set at least one field")
	}
	if err := ValidatePatch(patch); err != nil {
		return nil, err
	}

	return s.mutate(ctx, sessionId, "update", func(current *entity.ContextSnapshot) (*entity.ContextSnapshot, error) {
		return Merge(current, patch), nil
	})
}

// PatchFunc derives a patch from the snapshot as read under the session lock.
// current is a copy; for a new session it is Empty(sessionId).
type PatchFunc func(current *entity.ContextSnapshot) (entity.ContextPatch, error)

// UpdateFunc is Update for patches that depend on the stored state, such as a
// stage transition. build runs once, while the session lock is held, so no other
// writer can change the snapshot between the read and the write. An error from
// build aborts the update and is returned unchanged.
func (s *Store) UpdateFunc(ctx context.Context, sessionId string, build PatchFunc) (*entity.ContextSnapshot, error) {
	if err := intelligence.ValidateSessionId(sessionId); err != nil {
		return nil, err
	}

	return s.mutate(ctx, sessionId, "update", func(current *entity.ContextSnapshot) (*entity.ContextSnapshot, error) {
		patch, err := build(current.Clone())
		if err != nil {
			return nil, err
		}
		if patch.IsEmpty() {
			return nil, intelligence.NewValidationError("patch", "must set at least one field")
		}
		if err := ValidatePatch(patch); err != nil {
			return nil, err
		}
		return Merge(current, patch), nil
	})
}

// AddCapability unions names into the snapshot's capability set.
func (s *Store) AddCapability(ctx context.Context, sessionId string, names ...string) (*entity.ContextSnapshot, error) {
	if err := intelligence.ValidateSessionId(sessionId); err != nil {
		return nil, err
	}
	return s.mutate(ctx, sessionId, "add_capability", func(current *entity.ContextSnapshot) (*entity.ContextSnapshot, error) {
		return Merge(current, entity.ContextPatch{Capabilities: names}), nil
	})
}

func (s *Store) mutate(ctx context.Context, sessionId, op string, apply func(*entity.ContextSnapshot) (*entity.ContextSnapshot, error)) (*entity.ContextSnapshot, error) {
	unlock, err := s.locker.Lock(ctx, sessionId)
	if err != nil {
		if errors.Is(err, intelligence.ErrLockTimeout) {
			return nil, err
		}
		return nil, intelligence.NewPersistenceError(op, err)
	}
	defer unlock()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.ConversationContextRepository()

	current, err := repo.FindBySessionId(ctx, sessionId)
	if err != nil {
		return nil, intelligence.NewPersistenceError(op, err)
	}

	isNew := current == nil
	if isNew {
		current = Empty(sessionId)
	}
	expected := current.Version
	next, err := apply(current)
	if err != nil {
		return nil, err
	}

	if isNew {
		err = repo.Create(ctx, next)
	} else {
		err = repo.UpdateIfVersion(ctx, next, expected)
	}
	if err != nil {
		if errors.Is(err, intelligence.ErrVersionConflict) {
			s.logger.Warn("CONTEXT", "Concurrent snapshot write detected", map[string]interface{}{
				"session_id": sessionId,
				"version":    expected,
			})
			return nil, err
		}
		return nil, intelligence.NewPersistenceError(op, err)
	}

	s.logger.Debug("CONTEXT", "Snapshot written", map[string]interface{}{
		"session_id": sessionId,
		"version":    next.Version,
		"op":         op,
	})
	return next, nil
}

// Empty is the default snapshot of a session nobody has written to yet.
func Empty(sessionId string) *entity.ContextSnapshot {
	return &entity.ContextSnapshot{
		SessionId:    sessionId,
		Capabilities: []string{},
		Stage:        stage.Greeting.String(),
	}
}

// ValidatePatch rejects values that can never be stored.
func ValidatePatch(patch entity.ContextPatch) error {
	if patch.Stage != nil {
		if _, err := stage.Parse(*patch.Stage); err != nil {
			return intelligence.NewValidationError("stage", err.Error())
		}
	}
	if patch.Intent != nil && strings.TrimSpace(patch.Intent.Type) == "" {
		return intelligence.NewValidationError("intent.type", "must not be empty")
	}
	for _, name := range patch.Capabilities {
		if strings.TrimSpace(name) == "" {
			return intelligence.NewValidationError("capabilities", "must not contain blank names")
		}
	}
	return nil
}

// Merge applies patch onto a copy of base. Set fields override, nil fields keep
// the prior value. Capabilities are unioned; confidences are clamped to [0,1];
// company and person go through the normalizer rules.
func Merge(base *entity.ContextSnapshot, patch entity.ContextPatch) *entity.ContextSnapshot {
	out := base.Clone()
	if out == nil {
		out = Empty("")
	}

	if patch.Lead != nil {
		out.Lead = *patch.Lead
	}
	if patch.Company != nil {
		c := normalize.CanonicalCompany(*patch.Company)
		out.Company = &c
	}
	if patch.Person != nil {
		p := normalize.CanonicalPerson(*patch.Person)
		out.Person = &p
	}
	if patch.Role != nil {
		out.Role = *patch.Role
	}
	if patch.RoleConfidence != nil {
		rc := scoring.Clamp01(*patch.RoleConfidence)
		out.RoleConfidence = &rc
	}
	if patch.Intent != nil {
		i := *patch.Intent
		i.Confidence = scoring.Clamp01(i.Confidence)
		i.Slots = make(map[string]string, len(patch.Intent.Slots))
		for k, v := range patch.Intent.Slots {
			i.Slots[k] = v
		}
		out.Intent = &i
	}
	if patch.Stage != nil {
		st, err := stage.Parse(*patch.Stage)
		if err == nil {
			out.Stage = st.String()
		}
	}
	out.Capabilities = entity.UnionCapabilities(out.Capabilities, patch.Capabilities...)
	return out
}
