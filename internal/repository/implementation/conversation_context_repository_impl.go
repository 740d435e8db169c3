package implementation

import (
	"context"
	"errors"
	"time"

	"ai-consulting-be/internal/entity"
	"ai-consulting-be/internal/mapper"
	"ai-consulting-be/internal/model"
	"ai-consulting-be/internal/repository/contract"
	"ai-consulting-be/internal/repository/specification"
	"ai-consulting-be/pkg/intelligence"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ConversationContextRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ConversationContextMapper
}

func NewConversationContextRepository(db *gorm.DB) contract.ConversationContextRepository {
	return &ConversationContextRepositoryImpl{
		db:     db,
		mapper: mapper.NewConversationContextMapper(),
	}
}

func (r *ConversationContextRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ConversationContextRepositoryImpl) FindBySessionId(ctx context.Context, sessionId string) (*entity.ContextSnapshot, error) {
	var m model.ConversationContext
	query := r.applySpecifications(r.db.WithContext(ctx), specification.BySessionId{SessionId: sessionId})
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ContextToEntity(&m), nil
}

func (r *ConversationContextRepositoryImpl) Create(ctx context.Context, snapshot *entity.ContextSnapshot) error {
	m := r.mapper.ContextToModel(snapshot)
	m.Version = 1

	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(m)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return intelligence.ErrVersionConflict
	}
	*snapshot = *r.mapper.ContextToEntity(m)
	return nil
}

func (r *ConversationContextRepositoryImpl) UpdateIfVersion(ctx context.Context, snapshot *entity.ContextSnapshot, expectedVersion int64) error {
	m := r.mapper.ContextToModel(snapshot)
	m.Version = expectedVersion + 1
	m.UpdatedAt = time.Now().UTC()

	query := r.applySpecifications(
		r.db.WithContext(ctx).Model(&model.ConversationContext{}),
		specification.BySessionId{SessionId: snapshot.SessionId},
		specification.AtVersion{Version: expectedVersion},
	)

	// Select("*") so zero values (cleared strings, empty capability sets) are written too.
	res := query.Select("*").Omit("session_id", "created_at").Updates(m)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return intelligence.ErrVersionConflict
	}
	snapshot.Version = m.Version
	snapshot.UpdatedAt = &m.UpdatedAt
	return nil
}

func (r *ConversationContextRepositoryImpl) FindRecent(ctx context.Context, limit, offset int) ([]*entity.ContextSnapshot, error) {
	var models []*model.ConversationContext
	query := r.applySpecifications(r.db.WithContext(ctx),
		specification.OrderBy{Field: "updated_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: offset},
	)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.ContextSnapshot, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ContextToEntity(m)
	}
	return entities, nil
}

func (r *ConversationContextRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.ConversationContext{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ConversationContextRepositoryImpl) FindIdleSessionIds(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	var ids []string
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.ConversationContext{}),
		specification.UpdatedBefore{Cutoff: cutoff},
		specification.OrderBy{Field: "updated_at"},
		specification.Pagination{Limit: limit},
	)
	if err := query.Pluck("session_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *ConversationContextRepositoryImpl) DeleteIfIdle(ctx context.Context, sessionId string, cutoff time.Time) (bool, error) {
	query := r.applySpecifications(r.db.WithContext(ctx),
		specification.BySessionId{SessionId: sessionId},
		specification.UpdatedBefore{Cutoff: cutoff},
	)
	res := query.Delete(&model.ConversationContext{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
