package service

import (
	"ai-consulting-be/internal/dto"
	"ai-consulting-be/internal/entity"
	"ai-consulting-be/pkg/intelligence/scoring"
)

func toContextResponse(s *entity.ContextSnapshot) *dto.ContextResponse {
	if s == nil {
		return nil
	}
	res := &dto.ContextResponse{
		SessionId:      s.SessionId,
		Lead:           dto.LeadDto{Email: s.Lead.Email, Name: s.Lead.Name},
		Role:           s.Role,
		RoleConfidence: s.RoleConfidence,
		Capabilities:   entity.UnionCapabilities(s.Capabilities),
		Stage:          s.Stage,
		Version:        s.Version,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
	if s.Company != nil {
		res.Company = &dto.CompanyContextDto{
			Name:     s.Company.Name,
			Domain:   s.Company.Domain,
			Industry: s.Company.Industry,
			Size:     s.Company.Size,
			Summary:  s.Company.Summary,
		}
	}
	if s.Person != nil {
		res.Person = &dto.PersonContextDto{
			FullName:   s.Person.FullName,
			Role:       s.Person.Role,
			Seniority:  s.Person.Seniority,
			ProfileUrl: s.Person.ProfileUrl,
		}
	}
	if s.Intent != nil {
		i := toIntentDto(*s.Intent)
		res.Intent = &i
	}
	return res
}

func toIntentDto(i entity.IntentResult) dto.IntentDto {
	slots := i.Slots
	if slots == nil {
		slots = map[string]string{}
	}
	return dto.IntentDto{Type: i.Type, Confidence: i.Confidence, Slots: slots}
}

func toIntentResult(i *dto.IntentDto) *entity.IntentResult {
	if i == nil {
		return nil
	}
	slots := make(map[string]string, len(i.Slots))
	for k, v := range i.Slots {
		slots[k] = v
	}
	return &entity.IntentResult{Type: i.Type, Confidence: scoring.Clamp01(i.Confidence), Slots: slots}
}

// toContextPatch converts the request body into the explicit patch type.
func toContextPatch(req *dto.UpdateContextRequest) entity.ContextPatch {
	patch := entity.ContextPatch{
		Role:           req.Role,
		RoleConfidence: req.RoleConfidence,
		Intent:         toIntentResult(req.Intent),
		Capabilities:   req.Capabilities,
		Stage:          req.Stage,
	}
	if req.Lead != nil {
		patch.Lead = &entity.Lead{Email: req.Lead.Email, Name: req.Lead.Name}
	}
	if req.Company != nil {
		patch.Company = &entity.CompanyContext{
			Name:     req.Company.Name,
			Domain:   req.Company.Domain,
			Industry: req.Company.Industry,
			Size:     req.Company.Size,
			Summary:  req.Company.Summary,
		}
	}
	if req.Person != nil {
		patch.Person = &entity.PersonContext{
			FullName:   req.Person.FullName,
			Role:       req.Person.Role,
			Seniority:  req.Person.Seniority,
			ProfileUrl: req.Person.ProfileUrl,
		}
	}
	return patch
}

// patchedFields names the fields a patch sets, for event payloads.
func patchedFields(p entity.ContextPatch) []string {
	fields := make([]string, 0, 8)
	add := func(set bool, name string) {
		if set {
			fields = append(fields, name)
		}
	}
	add(p.Lead != nil, "lead")
	add(p.Company != nil, "company")
	add(p.Person != nil, "person")
	add(p.Role != nil, "role")
	add(p.RoleConfidence != nil, "roleConfidence")
	add(p.Intent != nil, "intent")
	add(p.Capabilities != nil, "capabilities")
	add(p.Stage != nil, "stage")
	return fields
}
