package service

import (
	"context"
	"strings"

	"ai-consulting-be/internal/dto"
	"ai-consulting-be/internal/entity"
	"ai-consulting-be/internal/pkg/logger"
	"ai-consulting-be/internal/repository/unitofwork"
	"ai-consulting-be/internal/tracer"
	"ai-consulting-be/pkg/intelligence"
	"ai-consulting-be/pkg/intelligence/capability"
	"ai-consulting-be/pkg/intelligence/contextstore"
	"ai-consulting-be/pkg/intelligence/events"
	"ai-consulting-be/pkg/intelligence/intent"
	"ai-consulting-be/pkg/intelligence/normalize"
	"ai-consulting-be/pkg/intelligence/scoring"
	"ai-consulting-be/pkg/intelligence/stage"
	"ai-consulting-be/pkg/intelligence/suggest"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type IConversationService interface {
	GetContext(ctx context.Context, sessionId string) (*dto.ContextResponse, error)
	UpdateContext(ctx context.Context, sessionId string, req *dto.UpdateContextRequest) (*dto.ContextResponse, error)
	EnrichContext(ctx context.Context, sessionId string, req *dto.EnrichContextRequest) (*dto.ContextResponse, error)
	GetCapabilities(ctx context.Context, sessionId string) (*dto.CapabilitiesResponse, error)
	RecordCapability(ctx context.Context, sessionId string, req *dto.RecordCapabilityRequest) error
	SuggestTools(ctx context.Context, sessionId string, req *dto.SuggestionsRequest) (*dto.SuggestionsResponse, error)
	DetectIntent(ctx context.Context, req *dto.DetectIntentRequest) *dto.IntentDto
	NextStage(ctx context.Context, req *dto.NextStageRequest) (*dto.NextStageResponse, error)
	ProcessTurn(ctx context.Context, req *dto.ChatTurnRequest) (*dto.ChatTurnResponse, error)
	ListContexts(ctx context.Context, page dto.PageQuery) (*dto.ListContextsResponse, error)
	GetCapabilityLog(ctx context.Context, sessionId string, page dto.PageQuery) (*dto.CapabilityLogResponse, error)
}

// CapabilityDispatcher queues capability recording off the request path.
type CapabilityDispatcher interface {
	Dispatch(sessionId, name string, usageData map[string]interface{})
}

type conversationService struct {
	uowFactory   unitofwork.RepositoryFactory
	store        *contextstore.Store
	detector     *intent.Detector
	stageManager *stage.Manager
	engine       *suggest.Engine
	recorder     *capability.Recorder
	dispatcher   CapabilityDispatcher
	publisher    events.Publisher
	logger       logger.ILogger
}

func NewConversationService(
	uowFactory unitofwork.RepositoryFactory,
	store *contextstore.Store,
	detector *intent.Detector,
	stageManager *stage.Manager,
	engine *suggest.Engine,
	recorder *capability.Recorder,
	dispatcher CapabilityDispatcher,
	publisher events.Publisher,
	logger logger.ILogger,
) IConversationService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &conversationService{
		uowFactory:   uowFactory,
		store:        store,
		detector:     detector,
		stageManager: stageManager,
		engine:       engine,
		recorder:     recorder,
		dispatcher:   dispatcher,
		publisher:    publisher,
		logger:       logger,
	}
}

func startSpan(ctx context.Context, name, sessionId string) (context.Context, trace.Span) {
	ctx, span := tracer.Tracer().Start(ctx, "ConversationService."+name)
	if sessionId != "" {
		span.SetAttributes(attribute.String("session.id", sessionId))
	}
	return ctx, span
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *conversationService) GetContext(ctx context.Context, sessionId string) (res *dto.ContextResponse, err error) {
	ctx, span := startSpan(ctx, "GetContext", sessionId)
	defer func() { endSpan(span, err) }()

	snapshot, err := s.store.Get(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	return toContextResponse(snapshot), nil
}

func (s *conversationService) UpdateContext(ctx context.Context, sessionId string, req *dto.UpdateContextRequest) (res *dto.ContextResponse, err error) {
	ctx, span := startSpan(ctx, "UpdateContext", sessionId)
	defer func() { endSpan(span, err) }()

	patch := toContextPatch(req)
	updated, err := s.store.Update(ctx, sessionId, patch)
	if err != nil {
		return nil, err
	}

	s.publisher.PublishContextUpdated(ctx, updated, patchedFields(patch))
	return toContextResponse(updated), nil
}

func (s *conversationService) EnrichContext(ctx context.Context, sessionId string, req *dto.EnrichContextRequest) (res *dto.ContextResponse, err error) {
	ctx, span := startSpan(ctx, "EnrichContext", sessionId)
	defer func() { endSpan(span, err) }()

	if req.Company == nil && req.Person == nil {
		return nil, intelligence.NewValidationError("enrichment", "company or person is required")
	}

	var patch entity.ContextPatch
	if req.Company != nil {
		company := normalize.NormalizeCompany(normalize.RawCompany(*req.Company))
		patch.Company = &company
	}
	if req.Person != nil {
		person := normalize.NormalizePerson(normalize.RawPerson(*req.Person))
		patch.Person = &person

		if person.Role != "" {
			role := person.Role
			confidence := roleConfidenceFromProfile(person)
			if req.RoleConfidence != nil {
				confidence = *req.RoleConfidence
			}
			patch.Role = &role
			patch.RoleConfidence = &confidence
		}
	}

	updated, err := s.store.Update(ctx, sessionId, patch)
	if err != nil {
		return nil, err
	}

	s.logger.Info("CONTEXT", "Session enriched", map[string]interface{}{
		"session_id":  sessionId,
		"has_company": patch.Company != nil,
		"has_person":  patch.Person != nil,
	})
	s.publisher.PublishContextUpdated(ctx, updated, patchedFields(patch))
	return toContextResponse(updated), nil
}

// roleConfidenceFromProfile trusts a job title more when seniority corroborates it.
func roleConfidenceFromProfile(p entity.PersonContext) float64 {
	seniority := 0.0
	if p.Seniority != "" {
		seniority = 1
	}
	return scoring.CombineScores([]float64{0.7, 0.3}, []float64{1, seniority})
}

func (s *conversationService) GetCapabilities(ctx context.Context, sessionId string) (*dto.CapabilitiesResponse, error) {
	if err := intelligence.ValidateSessionId(sessionId); err != nil {
		return nil, err
	}
	return &dto.CapabilitiesResponse{
		SessionId:    sessionId,
		Capabilities: s.recorder.Used(ctx, sessionId),
	}, nil
}

// RecordCapability validates and queues; it never waits for the write.
func (s *conversationService) RecordCapability(ctx context.Context, sessionId string, req *dto.RecordCapabilityRequest) error {
	if err := intelligence.ValidateSessionId(sessionId); err != nil {
		return err
	}
	if err := capability.ValidateName(req.Capability); err != nil {
		return err
	}
	s.dispatcher.Dispatch(sessionId, capability.NormalizeName(req.Capability), req.UsageData)
	return nil
}

func (s *conversationService) SuggestTools(ctx context.Context, sessionId string, req *dto.SuggestionsRequest) (res *dto.SuggestionsResponse, err error) {
	ctx, span := startSpan(ctx, "SuggestTools", sessionId)
	defer func() { endSpan(span, err) }()

	snapshot, err := s.store.Get(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		snapshot = contextstore.Empty(sessionId)
	}

	var current entity.IntentResult
	switch {
	case req.Intent != nil:
		current = *toIntentResult(req.Intent)
	case strings.TrimSpace(req.Message) != "":
		current = s.detector.Detect(req.Message)
	case snapshot.Intent != nil:
		current = *snapshot.Intent
	default:
		current = intent.Fallback()
	}

	return &dto.SuggestionsResponse{
		Intent:      toIntentDto(current),
		Suggestions: s.engine.Suggest(snapshot, current),
	}, nil
}

func (s *conversationService) DetectIntent(ctx context.Context, req *dto.DetectIntentRequest) *dto.IntentDto {
	_, span := startSpan(ctx, "DetectIntent", "")
	defer span.End()

	res := toIntentDto(s.detector.Detect(req.Message))
	span.SetAttributes(attribute.String("intent.type", res.Type), attribute.Float64("intent.confidence", res.Confidence))
	return &res
}

func (s *conversationService) NextStage(ctx context.Context, req *dto.NextStageRequest) (*dto.NextStageResponse, error) {
	current, err := stage.Parse(req.Current)
	if err != nil {
		return nil, intelligence.NewValidationError("current", err.Error())
	}
	return &dto.NextStageResponse{Stage: stage.Next(current, req.HasIntent, req.HasContext).String()}, nil
}

// ProcessTurn runs one inbound chat message through detection, staging,
// persistence, capability recording and suggestion.
func (s *conversationService) ProcessTurn(ctx context.Context, req *dto.ChatTurnRequest) (res *dto.ChatTurnResponse, err error) {
	ctx, span := startSpan(ctx, "ProcessTurn", req.SessionId)
	defer func() { endSpan(span, err) }()

	if err := intelligence.ValidateSessionId(req.SessionId); err != nil {
		return nil, err
	}
	toolUsed := capability.NormalizeName(req.ToolUsed)
	if toolUsed != "" {
		if err := capability.ValidateName(toolUsed); err != nil {
			return nil, err
		}
	}

	detected := s.detector.Detect(req.Message)

	// the patch and the transition depend on the stored stage and role, so both
	// are derived from the locked read
	var (
		patch      entity.ContextPatch
		transition stage.Transition
	)
	updated, err := s.store.UpdateFunc(ctx, req.SessionId, func(current *entity.ContextSnapshot) (entity.ContextPatch, error) {
		patch = s.turnPatch(current, detected, req.Lead)

		from, err := stage.Parse(current.Stage)
		if err != nil {
			from = stage.Greeting
		}
		transition = s.stageManager.Advance(from, &detected, contextstore.Merge(current, patch))
		to := transition.To.String()
		patch.Stage = &to
		return patch, nil
	})
	if err != nil {
		return nil, err
	}
	to := transition.To.String()

	view := updated
	if toolUsed != "" {
		s.dispatcher.Dispatch(req.SessionId, toolUsed, req.ToolUsage)
		// the tool was just shown even if the recorder has not caught up yet
		view = updated.Clone()
		view.Capabilities = entity.UnionCapabilities(view.Capabilities, toolUsed)
	}

	s.publisher.PublishContextUpdated(ctx, updated, patchedFields(patch))
	if transition.Changed() {
		s.publisher.PublishStageAdvanced(ctx, req.SessionId, transition.From.String(), to)
	}

	span.SetAttributes(
		attribute.String("intent.type", detected.Type),
		attribute.String("stage.to", to),
	)

	return &dto.ChatTurnResponse{
		Intent:      toIntentDto(detected),
		StageFrom:   transition.From.String(),
		StageTo:     to,
		Advanced:    transition.Changed(),
		Context:     *toContextResponse(view),
		Suggestions: s.engine.Suggest(view, detected),
	}, nil
}

// turnPatch fills context the message reveals without overwriting what is already known.
func (s *conversationService) turnPatch(current *entity.ContextSnapshot, detected entity.IntentResult, lead *dto.LeadDto) entity.ContextPatch {
	patch := entity.ContextPatch{Intent: &detected}

	merged := current.Lead
	if lead != nil {
		if lead.Email != "" {
			merged.Email = strings.ToLower(strings.TrimSpace(lead.Email))
		}
		if lead.Name != "" {
			merged.Name = strings.TrimSpace(lead.Name)
		}
	}
	if merged.Email == "" {
		merged.Email = detected.Slots[intent.SlotEmail]
	}
	if merged != current.Lead {
		patch.Lead = &merged
	}

	if name := detected.Slots[intent.SlotCompany]; name != "" && current.Company == nil {
		company := normalize.NormalizeCompany(normalize.RawCompany{Name: name})
		patch.Company = &company
	}

	if role := detected.Slots[intent.SlotRole]; role != "" {
		// a self-stated role is strong evidence; the message's overall clarity adds to it
		confidence := scoring.CombineScores([]float64{0.75, 0.25}, []float64{1, detected.Confidence})
		if current.RoleConfidence == nil || *current.RoleConfidence <= confidence {
			patch.Role = &role
			patch.RoleConfidence = &confidence
		}
	}
	return patch
}

func (s *conversationService) ListContexts(ctx context.Context, page dto.PageQuery) (res *dto.ListContextsResponse, err error) {
	ctx, span := startSpan(ctx, "ListContexts", "")
	defer func() { endSpan(span, err) }()

	page.Normalize()
	repo := s.uowFactory.NewUnitOfWork(ctx).ConversationContextRepository()

	snapshots, err := repo.FindRecent(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, intelligence.NewPersistenceError("list", err)
	}
	total, err := repo.Count(ctx)
	if err != nil {
		return nil, intelligence.NewPersistenceError("count", err)
	}

	items := make([]*dto.ContextResponse, 0, len(snapshots))
	for _, snapshot := range snapshots {
		items = append(items, toContextResponse(snapshot))
	}
	return &dto.ListContextsResponse{Items: items, Total: total, Limit: page.Limit, Offset: page.Offset}, nil
}

func (s *conversationService) GetCapabilityLog(ctx context.Context, sessionId string, page dto.PageQuery) (res *dto.CapabilityLogResponse, err error) {
	ctx, span := startSpan(ctx, "GetCapabilityLog", sessionId)
	defer func() { endSpan(span, err) }()

	page.Normalize()
	records, total, err := s.recorder.History(ctx, sessionId, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.CapabilityLogEntry, 0, len(records))
	for _, r := range records {
		items = append(items, &dto.CapabilityLogEntry{
			Id:         r.Id,
			Capability: r.CapabilityName,
			UsageData:  r.UsageData,
			CreatedAt:  r.CreatedAt,
		})
	}
	return &dto.CapabilityLogResponse{
		SessionId: sessionId,
		Items:     items,
		Total:     total,
		Limit:     page.Limit,
		Offset:    page.Offset,
	}, nil
}
