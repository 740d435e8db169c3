package specification

import (
	"time"

	"gorm.io/gorm"
)

// BySessionId filters rows belonging to one conversation session
type BySessionId struct {
	SessionId string
}

func (s BySessionId) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id = ?", s.SessionId)
}

// AtVersion matches the expected optimistic-concurrency version
type AtVersion struct {
	Version int64
}

func (s AtVersion) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("version = ?", s.Version)
}

// UpdatedBefore selects snapshots idle since cutoff
type UpdatedBefore struct {
	Cutoff time.Time
}

func (s UpdatedBefore) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("updated_at < ?", s.Cutoff)
}

// CreatedBefore selects audit rows older than cutoff
type CreatedBefore struct {
	Cutoff time.Time
}

func (s CreatedBefore) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("created_at < ?", s.Cutoff)
}
