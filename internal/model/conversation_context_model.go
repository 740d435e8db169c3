package model

import (
	"time"

	"gorm.io/datatypes"
)

// ConversationContext is one row per session. Version guards conditional writes.
type ConversationContext struct {
	SessionId      string                      `gorm:"type:varchar(128);primaryKey"`
	Email          string                      `gorm:"type:varchar(320)"`
	Name           string                      `gorm:"type:varchar(200)"`
	CompanyContext datatypes.JSON              `gorm:"type:jsonb"`
	PersonContext  datatypes.JSON              `gorm:"type:jsonb"`
	Role           string                      `gorm:"type:varchar(120)"`
	RoleConfidence *float64                    `gorm:"type:double precision"`
	IntentData     datatypes.JSON              `gorm:"type:jsonb"`
	Capabilities   datatypes.JSONSlice[string] `gorm:"type:jsonb;not null;default:'[]'"`
	Stage          string                      `gorm:"type:varchar(16);not null;default:'GREETING'"`
	Version        int64                       `gorm:"not null;default:1"`
	CreatedAt      time.Time                   `gorm:"autoCreateTime"`
	UpdatedAt      time.Time                   `gorm:"index"`
}

func (ConversationContext) TableName() string {
	return "conversation_contexts"
}
