package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eslsoft/vocdrill/internal/infrastructure/config"
)

func TestProvidePolicy(t *testing.T) {
	cfg := &config.Config{Learning: config.LearningConfig{
		Timezone:        "Asia/Tokyo",
		DailyBatchSize:  12,
		QuizBatchSize:   5,
		WeakMinAttempts: 4,
		WeakMaxAccuracy: 0.5,
	}}

	policy, err := providePolicy(cfg)
	require.NoError(t, err)
	assert.Equal(t, 12, policy.DailyBatchSize)
	assert.Equal(t, 5, policy.QuizBatchSize)
	assert.Equal(t, 4, policy.Weak.MinAttempts)
	assert.InDelta(t, 0.5, policy.Weak.MaxAccuracy, 1e-9)
	assert.Equal(t, "Asia/Tokyo", policy.Calendar.Location.String())

	cfg.Learning.Timezone = "Mars/Olympus"
	_, err = providePolicy(cfg)
	assert.Error(t, err)
}
