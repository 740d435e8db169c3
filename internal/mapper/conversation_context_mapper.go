package mapper

import (
	"encoding/json"
	"time"

	"ai-consulting-be/internal/entity"
	"ai-consulting-be/internal/model"

	"gorm.io/datatypes"
)

type ConversationContextMapper struct{}

func NewConversationContextMapper() *ConversationContextMapper {
	return &ConversationContextMapper{}
}

func (m *ConversationContextMapper) ContextToEntity(c *model.ConversationContext) *entity.ContextSnapshot {
	if c == nil {
		return nil
	}

	var updatedAt *time.Time
	if !c.UpdatedAt.IsZero() {
		t := c.UpdatedAt
		updatedAt = &t
	}

	var roleConfidence *float64
	if c.RoleConfidence != nil {
		rc := *c.RoleConfidence
		roleConfidence = &rc
	}

	capabilities := []string(c.Capabilities)
	if capabilities == nil {
		capabilities = []string{}
	}

	return &entity.ContextSnapshot{
		SessionId:      c.SessionId,
		Lead:           entity.Lead{Email: c.Email, Name: c.Name},
		Company:        decodeJSON[entity.CompanyContext](c.CompanyContext),
		Person:         decodeJSON[entity.PersonContext](c.PersonContext),
		Role:           c.Role,
		RoleConfidence: roleConfidence,
		Intent:         decodeJSON[entity.IntentResult](c.IntentData),
		Capabilities:   entity.UnionCapabilities(capabilities),
		Stage:          c.Stage,
		Version:        c.Version,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      updatedAt,
	}
}

func (m *ConversationContextMapper) ContextToModel(s *entity.ContextSnapshot) *model.ConversationContext {
	if s == nil {
		return nil
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	return &model.ConversationContext{
		SessionId:      s.SessionId,
		Email:          s.Lead.Email,
		Name:           s.Lead.Name,
		CompanyContext: encodeJSON(s.Company),
		PersonContext:  encodeJSON(s.Person),
		Role:           s.Role,
		RoleConfidence: s.RoleConfidence,
		IntentData:     encodeJSON(s.Intent),
		Capabilities:   datatypes.JSONSlice[string](entity.UnionCapabilities(s.Capabilities)),
		Stage:          s.Stage,
		Version:        s.Version,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      updatedAt,
	}
}

func (m *ConversationContextMapper) UsageToEntity(u *model.CapabilityUsageLog) *entity.CapabilityUsageRecord {
	if u == nil {
		return nil
	}

	var usage map[string]interface{}
	if len(u.UsageData) > 0 {
		_ = json.Unmarshal(u.UsageData, &usage)
	}

	return &entity.CapabilityUsageRecord{
		Id:             u.Id,
		SessionId:      u.SessionId,
		CapabilityName: u.CapabilityName,
		UsageData:      usage,
		CreatedAt:      u.CreatedAt,
	}
}

func (m *ConversationContextMapper) UsageToModel(r *entity.CapabilityUsageRecord) *model.CapabilityUsageLog {
	if r == nil {
		return nil
	}

	var usage datatypes.JSON
	if r.UsageData != nil {
		usage, _ = json.Marshal(r.UsageData)
	}

	return &model.CapabilityUsageLog{
		Id:             r.Id,
		SessionId:      r.SessionId,
		CapabilityName: r.CapabilityName,
		UsageData:      usage,
		CreatedAt:      r.CreatedAt,
	}
}

// encodeJSON returns nil for nil pointers so the column stays NULL.
func encodeJSON[T any](v *T) datatypes.JSON {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(data)
}

func decodeJSON[T any](data datatypes.JSON) *T {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	return &v
}
