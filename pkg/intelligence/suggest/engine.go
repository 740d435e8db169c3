// Package suggest ranks the next tools worth surfacing to a visitor.
package suggest

import (
	"math"
	"sort"
	"strings"

	"ai-consulting-be/internal/entity"
	"ai-consulting-be/pkg/intelligence/scoring"
)

const (
	DefaultMaxSuggestions    = 3
	DefaultMinRoleConfidence = 0.7
)

// Weights for the intent, role and context-fit signals.
type Weights struct {
	Intent  float64
	Role    float64
	Context float64
}

func DefaultWeights() Weights {
	return Weights{Intent: 0.6, Role: 0.25, Context: 0.15}
}

type Config struct {
	MaxSuggestions    int
	MinRoleConfidence float64
	Weights           Weights
}

type Suggestion struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	Description string   `json:"description"`
	Score       float64  `json:"score"`
	Reasons     []string `json:"reasons"`

	priority int
}

type Engine struct {
	catalog *Catalog
	cfg     Config
}

func NewEngine(catalog *Catalog, cfg Config) *Engine {
	if cfg.MaxSuggestions <= 0 {
		cfg.MaxSuggestions = DefaultMaxSuggestions
	}
	if cfg.MinRoleConfidence <= 0 || cfg.MinRoleConfidence > 1 {
		cfg.MinRoleConfidence = DefaultMinRoleConfidence
	}
	if cfg.Weights == (Weights{}) {
		cfg.Weights = DefaultWeights()
	}
	return &Engine{catalog: catalog, cfg: cfg}
}

// Catalog exposes the tool list, e.g. for listing endpoints.
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// Suggest ranks tools the session has not seen yet.
//
// Ordering: score descending, then catalog priority ascending, then id.
// Tools with neither intent relevance nor a role match are never suggested.
func (e *Engine) Suggest(snapshot *entity.ContextSnapshot, intent entity.IntentResult) []Suggestion {
	if snapshot == nil {
		snapshot = &entity.ContextSnapshot{}
	}

	roleOK := snapshot.Role != "" &&
		snapshot.RoleConfidence != nil &&
		*snapshot.RoleConfidence >= e.cfg.MinRoleConfidence

	weights := []float64{e.cfg.Weights.Intent, e.cfg.Weights.Role, e.cfg.Weights.Context}
	candidates := make([]Suggestion, 0, len(e.catalog.Tools))

	for _, tool := range e.catalog.Tools {
		if snapshot.HasCapability(tool.ID) {
			continue
		}

		var reasons []string
		relevance := tool.Intents[intent.Type]
		if relevance > 0 {
			reasons = append(reasons, "intent:"+intent.Type)
		}

		roleMatch := 0.0
		if roleOK && matchesRole(snapshot.Role, tool.Roles) {
			roleMatch = 1
			reasons = append(reasons, "role:"+strings.ToLower(snapshot.Role))
		}

		if relevance == 0 && roleMatch == 0 {
			continue
		}

		score := scoring.CombineScores(weights, []float64{
			relevance * scoring.Clamp01(intent.Confidence),
			roleMatch,
			contextFit(snapshot, tool.Requires),
		})

		candidates = append(candidates, Suggestion{
			ID:          tool.ID,
			Label:       tool.Label,
			Description: tool.Description,
			Score:       math.Round(score*1e6) / 1e6,
			Reasons:     reasons,
			priority:    tool.Priority,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.priority != b.priority {
			return a.priority < b.priority
		}
		return a.ID < b.ID
	})

	if len(candidates) > e.cfg.MaxSuggestions {
		candidates = candidates[:e.cfg.MaxSuggestions]
	}
	return candidates
}

func contextFit(s *entity.ContextSnapshot, requires []string) float64 {
	if len(requires) == 0 {
		return 1
	}
	met := 0
	for _, r := range requires {
		switch r {
		case RequireCompany:
			if s.Company != nil {
				met++
			}
		case RequirePerson:
			if s.Person != nil {
				met++
			}
		case RequireLead:
			if s.Lead.Email != "" || s.Lead.Name != "" {
				met++
			}
		case RequireRole:
			if s.Role != "" {
				met++
			}
		}
	}
	return float64(met) / float64(len(requires))
}

// matchesRole compares whole words so "director" does not match "cto".
func matchesRole(role string, candidates []string) bool {
	r := " " + roleWords(role) + " "
	for _, c := range candidates {
		if strings.Contains(r, " "+roleWords(c)+" ") {
			return true
		}
	}
	return false
}

func roleWords(s string) string {
	s = strings.ToLower(strings.ReplaceAll(s, "-", " "))
	return strings.Join(strings.Fields(s), " ")
}
