package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	require.NotNil(t, cfg)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, []string{"name", "nom"}, cfg.Columns.NameKeywords)
	assert.Equal(t, []string{"coefficient", "coef"}, cfg.Columns.CoefficientKeywords)
	assert.Equal(t, "report.pdf", cfg.Report.Filename)
	assert.Equal(t, int64(5*1024*1024), cfg.Upload.MaxFileSizeBytes)
	assert.Equal(t, 10*time.Minute, cfg.Analysis.CacheTTL)
	assert.False(t, cfg.Reports.Enabled)
	assert.False(t, cfg.Analysis.DecimalComma)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("COLUMN_QUIZ_KEYWORDS", "quiz, test ,")
	t.Setenv("ANALYSIS_CACHE_TTL", "not-a-duration")
	t.Setenv("SCORES_DECIMAL_COMMA", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, []string{"quiz", "test"}, cfg.Columns.QuizKeywords)
	assert.Equal(t, 10*time.Minute, cfg.Analysis.CacheTTL)
	assert.True(t, cfg.Analysis.DecimalComma)
}
