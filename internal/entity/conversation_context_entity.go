package entity

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Intent types produced by the rule-based detector
const (
	IntentPricing    = "pricing_inquiry"
	IntentDemo       = "demo_request"
	IntentTechnical  = "technical_question"
	IntentConsulting = "consulting_inquiry"
	IntentWorkshop   = "workshop_inquiry"
	IntentOther      = "other"
)

type Lead struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type CompanyContext struct {
	Name     string `json:"name"`
	Domain   string `json:"domain,omitempty"`
	Industry string `json:"industry,omitempty"`
	Size     string `json:"size,omitempty"`
	Summary  string `json:"summary,omitempty"`
}

type PersonContext struct {
	FullName   string `json:"fullName"`
	Role       string `json:"role,omitempty"`
	Seniority  string `json:"seniority,omitempty"`
	ProfileUrl string `json:"profileUrl,omitempty"`
}

type IntentResult struct {
	Type       string            `json:"type"`
	Confidence float64           `json:"confidence"`
	Slots      map[string]string `json:"slots"`
}

// ContextSnapshot is the merged view of everything known about a session.
type ContextSnapshot struct {
	SessionId      string
	Lead           Lead
	Company        *CompanyContext
	Person         *PersonContext
	Role           string
	RoleConfidence *float64
	Intent         *IntentResult
	Capabilities   []string
	Stage          string
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}

// HasCapability reports whether name was already shown to the session.
// Names compare case-insensitively.
func (s *ContextSnapshot) HasCapability(name string) bool {
	name = CapabilityKey(name)
	for _, c := range s.Capabilities {
		if CapabilityKey(c) == name {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can mutate without touching cached state.
func (s *ContextSnapshot) Clone() *ContextSnapshot {
	if s == nil {
		return nil
	}
	out := *s
	if s.Company != nil {
		c := *s.Company
		out.Company = &c
	}
	if s.Person != nil {
		p := *s.Person
		out.Person = &p
	}
	if s.RoleConfidence != nil {
		rc := *s.RoleConfidence
		out.RoleConfidence = &rc
	}
	if s.Intent != nil {
		i := *s.Intent
		i.Slots = make(map[string]string, len(s.Intent.Slots))
		for k, v := range s.Intent.Slots {
			i.Slots[k] = v
		}
		out.Intent = &i
	}
	if s.UpdatedAt != nil {
		t := *s.UpdatedAt
		out.UpdatedAt = &t
	}
	out.Capabilities = append([]string{}, s.Capabilities...)
	return &out
}

// ContextPatch enumerates every updatable snapshot field. Nil fields are left untouched.
type ContextPatch struct {
	Lead           *Lead
	Company        *CompanyContext
	Person         *PersonContext
	Role           *string
	RoleConfidence *float64
	Intent         *IntentResult
	Capabilities   []string
	Stage          *string
}

func (p ContextPatch) IsEmpty() bool {
	return p.Lead == nil &&
		p.Company == nil &&
		p.Person == nil &&
		p.Role == nil &&
		p.RoleConfidence == nil &&
		p.Intent == nil &&
		p.Capabilities == nil &&
		p.Stage == nil
}

// CapabilityKey is the canonical form of a capability name: trimmed and lower case.
func CapabilityKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// UnionCapabilities merges names into existing and returns a sorted set of
// canonical names without blanks.
func UnionCapabilities(existing []string, names ...string) []string {
	seen := make(map[string]struct{}, len(existing)+len(names))
	out := make([]string, 0, len(existing)+len(names))
	for _, list := range [][]string{existing, names} {
		for _, n := range list {
			n = CapabilityKey(n)
			if n == "" {
				continue
			}
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

type CapabilityUsageRecord struct {
	Id             uuid.UUID
	SessionId      string
	CapabilityName string
	UsageData      map[string]interface{}
	CreatedAt      time.Time
}
