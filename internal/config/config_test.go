package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"MIN_ROLE_CONFIDENCE", "MAX_SUGGESTIONS", "INTENT_CONFIDENCE_THRESHOLD", "STORE_DRIVER", "CAPABILITY_TIMEOUT"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg := FromEnv()
	assert.Equal(t, 0.7, cfg.Intelligence.MinRoleConfidence)
	assert.Equal(t, 3, cfg.Intelligence.MaxSuggestions)
	assert.Equal(t, 0.7, cfg.Intelligence.IntentConfidenceThreshold)
	assert.Equal(t, 3*time.Second, cfg.Intelligence.CapabilityTimeout)
	assert.Equal(t, StoreDriverPostgres, cfg.Database.Driver)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("MIN_ROLE_CONFIDENCE", "0.55")
	t.Setenv("MAX_SUGGESTIONS", "5")
	t.Setenv("CAPABILITY_TIMEOUT", "750ms")
	t.Setenv("STORE_DRIVER", "MEMORY")
	t.Setenv("GO_ENV", "production")
	t.Setenv("OTEL_ENABLED", "true")

	cfg := FromEnv()
	assert.Equal(t, 0.55, cfg.Intelligence.MinRoleConfidence)
	assert.Equal(t, 5, cfg.Intelligence.MaxSuggestions)
	assert.Equal(t, 750*time.Millisecond, cfg.Intelligence.CapabilityTimeout)
	assert.Equal(t, StoreDriverMemory, cfg.Database.Driver)
	assert.True(t, cfg.IsProduction())
	assert.True(t, cfg.App.OtelEnabled)
}

func TestFromEnvIgnoresGarbage(t *testing.T) {
	t.Setenv("MAX_SUGGESTIONS", "many")
	t.Setenv("LOCK_TTL", "soon")

	cfg := FromEnv()
	assert.Equal(t, 3, cfg.Intelligence.MaxSuggestions)
	assert.Equal(t, 5*time.Second, cfg.Intelligence.LockTTL)
}
