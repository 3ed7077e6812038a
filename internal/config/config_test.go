package config

import (
	"testing"
	"time"

	"auditapi/internal/audit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "MONGO_URI", "MONGO_DATABASE", "REDIS_URI", "SESSION_SECRET", "SESSION_TTL",
		"CORS_ALLOWED_ORIGINS", "DEBUG", "GEMINI_API_KEY", "GEMINI_MODEL", "GEMINI_TIMEOUT_MS",
		"REPORT_SCHEMA_VARIANT", "REPORT_LENIENT_REPAIR", "REPORT_SCORE_TOLERANCE",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "auditdb", cfg.MongoDatabase)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
	assert.Equal(t, []string{"https://audit.createlo.in", "http://localhost:3000"}, cfg.AllowedOrigins)
	assert.False(t, cfg.Debug)
	assert.False(t, cfg.AI.IsEnabled())
	assert.Equal(t, 30000, cfg.AI.TimeoutMS)
	assert.Equal(t, 40, cfg.AI.Generation.TopK)

	pc, err := cfg.Report.PipelineConfig()
	require.NoError(t, err)
	assert.Equal(t, audit.VariantWebsite, pc.Variant)
	assert.Equal(t, audit.DefaultDeclarationName, pc.DeclarationName)
	assert.Equal(t, 10.0, pc.ScoreTolerance)
	assert.False(t, pc.LenientRepair)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("REDIS_URI", "redis://cache:6380")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.test , ,https://b.test")
	t.Setenv("DEBUG", "true")
	t.Setenv("GEMINI_API_KEY", "secret")
	t.Setenv("GEMINI_MODEL", "gemini-2.0-flash")
	t.Setenv("REPORT_SCHEMA_VARIANT", "legacy")
	t.Setenv("REPORT_LENIENT_REPAIR", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "cache:6380", cfg.RedisAddr)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.AllowedOrigins)
	assert.True(t, cfg.Debug)
	assert.True(t, cfg.AI.IsEnabled())
	assert.Equal(t, "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent", cfg.AI.ModelEndpoint())

	pc, err := cfg.Report.PipelineConfig()
	require.NoError(t, err)
	assert.Equal(t, audit.VariantLegacy, pc.Variant)
	assert.True(t, pc.LenientRepair)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"SESSION_TTL", "an hour"},
		{"DEBUG", "maybe"},
		{"GEMINI_TIMEOUT_MS", "fast"},
		{"GEMINI_TEMPERATURE", "warm"},
		{"REPORT_SCORE_TOLERANCE", "ten"},
		{"REPORT_SCHEMA_VARIANT", "v3"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}
