package dto

import (
	"time"

	"github.com/google/uuid"
)

type PageQuery struct {
	Limit  int `query:"limit" validate:"gte=0,lte=200"`
	Offset int `query:"offset" validate:"gte=0"`
}

// Normalize applies the default page size.
func (q *PageQuery) Normalize() {
	if q.Limit == 0 {
		q.Limit = 50
	}
}

type ListContextsResponse struct {
	Items  []*ContextResponse `json:"items"`
	Total  int64              `json:"total"`
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
}

type CapabilityLogEntry struct {
	Id         uuid.UUID              `json:"id"`
	Capability string                 `json:"capability"`
	UsageData  map[string]interface{} `json:"usageData,omitempty"`
	CreatedAt  time.Time              `json:"createdAt"`
}

type CapabilityLogResponse struct {
	SessionId string                `json:"sessionId"`
	Items     []*CapabilityLogEntry `json:"items"`
	Total     int64                 `json:"total"`
	Limit     int                   `json:"limit"`
	Offset    int                   `json:"offset"`
}
