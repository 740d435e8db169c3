package dto

import (
	"time"

	"ai-consulting-be/pkg/intelligence/suggest"
)

type LeadDto struct {
	Email string `json:"email" validate:"omitempty,email,max=320"`
	Name  string `json:"name" validate:"max=200"`
}

type CompanyContextDto struct {
	Name     string `json:"name" validate:"max=200"`
	Domain   string `json:"domain,omitempty" validate:"max=253"`
	Industry string `json:"industry,omitempty" validate:"max=120"`
	Size     string `json:"size,omitempty" validate:"max=60"`
	Summary  string `json:"summary,omitempty" validate:"max=4000"`
}

type PersonContextDto struct {
	FullName   string `json:"fullName" validate:"max=200"`
	Role       string `json:"role,omitempty" validate:"max=120"`
	Seniority  string `json:"seniority,omitempty" validate:"max=60"`
	ProfileUrl string `json:"profileUrl,omitempty" validate:"omitempty,url"`
}

type IntentDto struct {
	Type       string            `json:"type" validate:"required,max=64"`
	Confidence float64           `json:"confidence"`
	Slots      map[string]string `json:"slots"`
}

// UpdateContextRequest is the explicit patch body. Omitted fields are left unchanged.
type UpdateContextRequest struct {
	Lead           *LeadDto           `json:"lead" validate:"omitempty"`
	Company        *CompanyContextDto `json:"company" validate:"omitempty"`
	Person         *PersonContextDto  `json:"person" validate:"omitempty"`
	Role           *string            `json:"role" validate:"omitempty,max=120"`
	RoleConfidence *float64           `json:"roleConfidence"`
	Intent         *IntentDto         `json:"intent" validate:"omitempty"`
	Capabilities   []string           `json:"capabilities" validate:"omitempty,dive,required,max=64"`
	Stage          *string            `json:"stage" validate:"omitempty,max=16"`
}

type RawCompanyDto struct {
	Name        string `json:"name"`
	Domain      string `json:"domain"`
	Industry    string `json:"industry"`
	Size        string `json:"size"`
	About       string `json:"about"`
	Description string `json:"description"`
}

type RawPersonDto struct {
	FullName   string `json:"fullName"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Title      string `json:"title"`
	Seniority  string `json:"seniority"`
	ProfileUrl string `json:"profileUrl"`
}

// EnrichContextRequest carries raw enrichment payloads to be normalized.
type EnrichContextRequest struct {
	Company        *RawCompanyDto `json:"company"`
	Person         *RawPersonDto  `json:"person"`
	RoleConfidence *float64       `json:"roleConfidence" validate:"omitempty,gte=0,lte=1"`
}

type ContextResponse struct {
	SessionId      string             `json:"sessionId"`
	Lead           LeadDto            `json:"lead"`
	Company        *CompanyContextDto `json:"company"`
	Person         *PersonContextDto  `json:"person"`
	Role           string             `json:"role,omitempty"`
	RoleConfidence *float64           `json:"roleConfidence"`
	Intent         *IntentDto         `json:"intent"`
	Capabilities   []string           `json:"capabilities"`
	Stage          string             `json:"stage"`
	Version        int64              `json:"version"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      *time.Time         `json:"updatedAt"`
}

type RecordCapabilityRequest struct {
	Capability string                 `json:"capability" validate:"required,max=64"`
	UsageData  map[string]interface{} `json:"usageData"`
}

type CapabilitiesResponse struct {
	SessionId    string   `json:"sessionId"`
	Capabilities []string `json:"capabilities"`
}

// SuggestionsRequest ranks tools for a stored session. Intent wins over Message;
// with neither, the stored intent is used.
type SuggestionsRequest struct {
	Intent  *IntentDto `json:"intent" validate:"omitempty"`
	Message string     `json:"message" validate:"max=4000"`
}

type SuggestionsResponse struct {
	Intent      IntentDto            `json:"intent"`
	Suggestions []suggest.Suggestion `json:"suggestions"`
}

type DetectIntentRequest struct {
	Message string `json:"message" validate:"max=4000"`
}

type NextStageRequest struct {
	Current    string `json:"current" validate:"max=16"`
	HasIntent  bool   `json:"hasIntent"`
	HasContext bool   `json:"hasContext"`
}

type NextStageResponse struct {
	Stage string `json:"stage"`
}

type ChatTurnRequest struct {
	SessionId string                 `json:"sessionId" validate:"required,max=128"`
	Message   string                 `json:"message" validate:"max=4000"`
	Lead      *LeadDto               `json:"lead" validate:"omitempty"`
	ToolUsed  string                 `json:"toolUsed" validate:"max=64"`
	ToolUsage map[string]interface{} `json:"toolUsage"`
}

type ChatTurnResponse struct {
	Intent      IntentDto            `json:"intent"`
	StageFrom   string               `json:"stageFrom"`
	StageTo     string               `json:"stageTo"`
	Advanced    bool                 `json:"advanced"`
	Context     ContextResponse      `json:"context"`
	Suggestions []suggest.Suggestion `json:"suggestions"`
}
