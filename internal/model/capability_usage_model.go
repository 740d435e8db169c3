package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// CapabilityUsageLog is the append-only audit trail of shown capabilities.
type CapabilityUsageLog struct {
	Id             uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId      string         `gorm:"type:varchar(128);not null;index:idx_capability_usage_session_created,priority:1"`
	CapabilityName string         `gorm:"type:varchar(100);not null;index"`
	UsageData      datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt      time.Time      `gorm:"autoCreateTime;index:idx_capability_usage_session_created,priority:2"`
}

func (CapabilityUsageLog) TableName() string {
	return "capability_usage_log"
}
