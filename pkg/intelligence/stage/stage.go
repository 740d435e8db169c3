// Package stage implements the conversation stage machine
// GREETING -> INTENT -> QUALIFY -> ACTION.
package stage

import (
	"fmt"
	"strings"

	"ai-consulting-be/internal/entity"
	"ai-consulting-be/internal/pkg/logger"
)

type Stage string

const (
	Greeting Stage = "GREETING"
	Intent   Stage = "INTENT"
	Qualify  Stage = "QUALIFY"
	Action   Stage = "ACTION"
)

const DefaultIntentThreshold = 0.7

func (s Stage) String() string {
	return string(s)
}

func (s Stage) Valid() bool {
	switch s {
	case Greeting, Intent, Qualify, Action:
		return true
	}
	return false
}

// Parse accepts stage names case-insensitively. Empty input means GREETING.
func Parse(s string) (Stage, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Greeting, nil
	}
	st := Stage(strings.ToUpper(s))
	if !st.Valid() {
		return "", fmt.Errorf("unknown stage %q", s)
	}
	return st, nil
}

// Next is the pure transition function. Losing context always restarts at
// GREETING; ACTION is terminal.
func Next(current Stage, hasIntent, hasContext bool) Stage {
	if !hasContext {
		return Greeting
	}
	switch {
	case current == Greeting && hasIntent:
		return Intent
	case current == Intent:
		return Qualify
	case current == Qualify:
		return Action
	}
	return current
}

// Transition describes one evaluation of the machine.
type Transition struct {
	From       Stage `json:"from"`
	To         Stage `json:"to"`
	HasIntent  bool  `json:"has_intent"`
	HasContext bool  `json:"has_context"`
}

func (t Transition) Changed() bool {
	return t.From != t.To
}

// Manager derives the transition inputs from session data.
type Manager struct {
	intentThreshold float64
	logger          logger.ILogger
}

func NewManager(intentThreshold float64, logger logger.ILogger) *Manager {
	if intentThreshold <= 0 || intentThreshold > 1 {
		intentThreshold = DefaultIntentThreshold
	}
	return &Manager{intentThreshold: intentThreshold, logger: logger}
}

// HasIntent reports whether the intent is strong enough to advance the stage.
func (m *Manager) HasIntent(intent *entity.IntentResult) bool {
	return intent != nil &&
		intent.Type != "" &&
		intent.Type != entity.IntentOther &&
		intent.Confidence >= m.intentThreshold
}

// HasContext reports whether anything meaningful is known about the session.
func HasContext(snapshot *entity.ContextSnapshot) bool {
	if snapshot == nil {
		return false
	}
	return snapshot.Lead.Email != "" ||
		snapshot.Lead.Name != "" ||
		snapshot.Company != nil ||
		snapshot.Person != nil ||
		snapshot.Intent != nil
}

// Advance evaluates Next for the given session data.
func (m *Manager) Advance(current Stage, intent *entity.IntentResult, snapshot *entity.ContextSnapshot) Transition {
	t := Transition{
		From:       current,
		HasIntent:  m.HasIntent(intent),
		HasContext: HasContext(snapshot),
	}
	t.To = Next(current, t.HasIntent, t.HasContext)

	if t.Changed() {
		m.logger.Info("STAGE", "Stage transition", map[string]interface{}{
			"from":        t.From,
			"to":          t.To,
			"has_intent":  t.HasIntent,
			"has_context": t.HasContext,
		})
	}
	return t
}
