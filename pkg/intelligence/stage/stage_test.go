package stage

import (
	"testing"

	"ai-consulting-be/internal/entity"
	"ai-consulting-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNext(t *testing.T) {
	tests := []struct {
		current    Stage
		hasIntent  bool
		hasContext bool
		want       Stage
	}{
		{Greeting, false, false, Greeting},
		{Greeting, true, false, Greeting},
		{Greeting, false, true, Greeting},
		{Greeting, true, true, Intent},
		{Intent, false, true, Qualify},
		{Intent, true, true, Qualify},
		{Intent, false, false, Greeting},
		{Qualify, true, true, Action},
		{Qualify, false, true, Action},
		{Qualify, true, false, Greeting},
		{Action, true, true, Action},
		{Action, false, true, Action},
		{Action, true, false, Greeting},
	}

	for _, tt := range tests {
		got := Next(tt.current, tt.hasIntent, tt.hasContext)
		assert.Equal(t, tt.want, got, "Next(%s, %v, %v)", tt.current, tt.hasIntent, tt.hasContext)
	}
}

func TestNextNeverRegressesWithContext(t *testing.T) {
	order := map[Stage]int{Greeting: 0, Intent: 1, Qualify: 2, Action: 3}
	for _, s := range []Stage{Greeting, Intent, Qualify, Action} {
		for _, hasIntent := range []bool{false, true} {
			next := Next(s, hasIntent, true)
			assert.GreaterOrEqual(t, order[next], order[s])
		}
	}
}

func TestNextTerminalIsIdempotent(t *testing.T) {
	s := Action
	for i := 0; i < 5; i++ {
		s = Next(s, true, true)
	}
	assert.Equal(t, Action, s)
}

func TestParse(t *testing.T) {
	s, err := Parse("qualify")
	require.NoError(t, err)
	assert.Equal(t, Qualify, s)

	s, err = Parse("")
	require.NoError(t, err)
	assert.Equal(t, Greeting, s)

	_, err = Parse("CLOSING")
	assert.Error(t, err)
}

func TestManagerAdvance(t *testing.T) {
	m := NewManager(0.7, logger.NewNopLogger())

	strong := &entity.IntentResult{Type: entity.IntentPricing, Confidence: 0.8}
	weak := &entity.IntentResult{Type: entity.IntentPricing, Confidence: 0.65}
	other := &entity.IntentResult{Type: entity.IntentOther, Confidence: 0.9}
	known := &entity.ContextSnapshot{Lead: entity.Lead{Email: "a@b.co"}}

	tr := m.Advance(Greeting, strong, known)
	assert.Equal(t, Intent, tr.To)
	assert.True(t, tr.Changed())

	assert.Equal(t, Greeting, m.Advance(Greeting, weak, known).To)
	assert.Equal(t, Greeting, m.Advance(Greeting, other, known).To)
	assert.Equal(t, Greeting, m.Advance(Qualify, strong, nil).To)
	assert.Equal(t, Greeting, m.Advance(Qualify, strong, &entity.ContextSnapshot{}).To)
	assert.False(t, m.Advance(Action, strong, known).Changed())
}

func TestNewManagerDefaultsThreshold(t *testing.T) {
	m := NewManager(0, logger.NewNopLogger())
	assert.True(t, m.HasIntent(&entity.IntentResult{Type: entity.IntentDemo, Confidence: 0.7}))
	assert.False(t, m.HasIntent(&entity.IntentResult{Type: entity.IntentDemo, Confidence: 0.69}))
	assert.False(t, m.HasIntent(nil))
}
