package intent

import (
	"strings"
	"testing"

	"ai-consulting-be/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFallback(t *testing.T) {
	d := NewDetector()

	for _, msg := range []string{"", "   ", "\n\t", "Hello there", "!!!???"} {
		t.Run(msg, func(t *testing.T) {
			got := d.Detect(msg)
			assert.Equal(t, entity.IntentOther, got.Type)
			assert.LessOrEqual(t, got.Confidence, 0.5)
			assert.NotNil(t, got.Slots)
			assert.Empty(t, got.Slots)
		})
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		wantType string
		minConf  float64
		slots    map[string]string
	}{
		{
			name:     "pricing beats workshop on weight",
			message:  "How much does an AI workshop cost?",
			wantType: entity.IntentPricing,
			minConf:  0.9,
		},
		{
			name:     "demo with timeline",
			message:  "Can I book a demo next week?",
			wantType: entity.IntentDemo,
			minConf:  0.9,
			slots:    map[string]string{SlotTimeline: "next week"},
		},
		{
			name:     "technical with role and company",
			message:  "I'm the CTO at Acme Corp and we want to integrate an LLM via your API",
			wantType: entity.IntentTechnical,
			minConf:  0.9,
			slots:    map[string]string{SlotRole: "CTO", SlotCompany: "Acme Corp"},
		},
		{
			name:     "single keyword stays below default threshold",
			message:  "Our budget is $50k and we have 200 employees",
			wantType: entity.IntentPricing,
			minConf:  0.6,
			slots:    map[string]string{SlotBudget: "$50k", SlotTeamSize: "200"},
		},
		{
			name:     "workshop",
			message:  "Do you run hands-on workshops for our team?",
			wantType: entity.IntentWorkshop,
			minConf:  0.8,
		},
		{
			name:     "consulting",
			message:  "We need an AI strategy and a roadmap to automate support",
			wantType: entity.IntentConsulting,
			minConf:  0.9,
		},
		{
			name:     "email is not read as a company",
			message:  "Send the pricing to Jane.Doe@Example.com please",
			wantType: entity.IntentPricing,
			minConf:  0.75,
			slots:    map[string]string{SlotEmail: "jane.doe@example.com"},
		},
	}

	d := NewDetector()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Detect(tt.message)
			assert.Equal(t, tt.wantType, got.Type)
			assert.GreaterOrEqual(t, got.Confidence, tt.minConf)
			assert.LessOrEqual(t, got.Confidence, 1.0)
			for k, v := range tt.slots {
				assert.Equal(t, v, got.Slots[k], "slot %s", k)
			}
			_, hasCompany := got.Slots[SlotCompany]
			if _, want := tt.slots[SlotCompany]; !want {
				assert.False(t, hasCompany, "unexpected company slot %q", got.Slots[SlotCompany])
			}
		})
	}
}

func TestDetectTieUsesRuleOrder(t *testing.T) {
	got := NewDetector().Detect("price demo")
	assert.Equal(t, entity.IntentPricing, got.Type)
}

func TestDetectIsDeterministic(t *testing.T) {
	d := NewDetector()
	msg := "I'm a founder from Globex, how much for a workshop in 3 weeks?"
	first := d.Detect(msg)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, d.Detect(msg))
	}
}

func TestDetectHandlesLargeInput(t *testing.T) {
	msg := strings.Repeat("pricing ", 10000)
	require.NotPanics(t, func() {
		got := NewDetector().Detect(msg)
		assert.Equal(t, entity.IntentPricing, got.Type)
		assert.LessOrEqual(t, got.Confidence, maxConfidence)
	})
}

func TestExtractSlotsIgnoresPronounsAsCompany(t *testing.T) {
	slots := ExtractSlots("This is for My team")
	_, ok := slots[SlotCompany]
	assert.False(t, ok)
}
