package implementation

import (
	"context"
	"time"

	"ai-consulting-be/internal/entity"
	"ai-consulting-be/internal/mapper"
	"ai-consulting-be/internal/model"
	"ai-consulting-be/internal/repository/contract"
	"ai-consulting-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CapabilityUsageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ConversationContextMapper
}

func NewCapabilityUsageRepository(db *gorm.DB) contract.CapabilityUsageRepository {
	return &CapabilityUsageRepositoryImpl{
		db:     db,
		mapper: mapper.NewConversationContextMapper(),
	}
}

func (r *CapabilityUsageRepositoryImpl) Create(ctx context.Context, record *entity.CapabilityUsageRecord) error {
	if record.Id == uuid.Nil {
		record.Id = uuid.New()
	}
	m := r.mapper.UsageToModel(record)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*record = *r.mapper.UsageToEntity(m)
	return nil
}

func (r *CapabilityUsageRepositoryImpl) FindBySessionId(ctx context.Context, sessionId string, limit, offset int) ([]*entity.CapabilityUsageRecord, error) {
	var models []*model.CapabilityUsageLog
	query := r.db.WithContext(ctx)
	for _, spec := range []specification.Specification{
		specification.BySessionId{SessionId: sessionId},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: offset},
	} {
		query = spec.Apply(query)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	records := make([]*entity.CapabilityUsageRecord, len(models))
	for i, m := range models {
		records[i] = r.mapper.UsageToEntity(m)
	}
	return records, nil
}

func (r *CapabilityUsageRepositoryImpl) CountBySessionId(ctx context.Context, sessionId string) (int64, error) {
	var count int64
	query := specification.BySessionId{SessionId: sessionId}.Apply(r.db.WithContext(ctx).Model(&model.CapabilityUsageLog{}))
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *CapabilityUsageRepositoryImpl) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := specification.CreatedBefore{Cutoff: cutoff}.Apply(r.db.WithContext(ctx)).Delete(&model.CapabilityUsageLog{})
	return res.RowsAffected, res.Error
}
