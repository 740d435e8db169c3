package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnionCapabilitiesFoldsCase(t *testing.T) {
	got := UnionCapabilities([]string{"Voice", "search"}, " SEARCH ", "", "roi_calculator")
	assert.Equal(t, []string{"roi_calculator", "search", "voice"}, got)
}

func TestHasCapabilityIgnoresCase(t *testing.T) {
	s := &ContextSnapshot{Capabilities: []string{"search"}}
	assert.True(t, s.HasCapability("Search"))
	assert.True(t, s.HasCapability(" SEARCH"))
	assert.False(t, s.HasCapability("voice"))

	legacy := &ContextSnapshot{Capabilities: []string{"Voice"}}
	assert.True(t, legacy.HasCapability("voice"))
}
