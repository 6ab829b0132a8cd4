package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("COUNCIL_DATABASE_URL", "postgres://localhost/council_test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.False(t, cfg.Debug)
	assert.Equal(t, "postgres://localhost/council_test", cfg.DatabaseURL)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.Equal(t, "CouncilMeetingsBot/1.0 (civic engagement tool)", cfg.FetchUserAgent)
	assert.True(t, cfg.FetchInsecureSkipTLS)
	assert.Equal(t, "guelph", cfg.MunicipalitySlug)
	assert.Equal(t, "America/Toronto", cfg.MunicipalityTimezone)
	assert.False(t, cfg.HasOpenAI())
	assert.False(t, cfg.HasSentry())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("COUNCIL_DATABASE_URL", "postgres://localhost/council_test")
	t.Setenv("COUNCIL_PORT", "9090")
	t.Setenv("COUNCIL_DEBUG", "true")
	t.Setenv("COUNCIL_OPENAI_API_KEY", "sk-test")
	t.Setenv("COUNCIL_FETCH_TIMEOUT", "10s")
	t.Setenv("COUNCIL_MUNICIPALITY_SLUG", "kitchener")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
	assert.Equal(t, "kitchener", cfg.MunicipalitySlug)
	assert.True(t, cfg.HasOpenAI())
}
