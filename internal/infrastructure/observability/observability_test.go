package observability

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLogger_JSONOutsideDevelopment(t *testing.T) {
	prev := log.Logger
	prevLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})

	var buf bytes.Buffer
	initLogger(&buf, "dashboard", "production", "warn")

	log.Info().Msg("hidden")
	log.Warn().Str("k", "v").Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"service":"dashboard"`)
	assert.Contains(t, out, `"message":"shown"`)
}

func TestInitLogger_UnknownLevelFallsBackToInfo(t *testing.T) {
	prev := log.Logger
	prevLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})

	var buf bytes.Buffer
	initLogger(&buf, "dashboard", "production", "loud")

	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestMetrics_NilIsSafe(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		RecordQueryMetric(ctx, nil, "success", time.Millisecond)
		RecordSnapshotHit(ctx, nil)
		RecordSnapshotMiss(ctx, nil, "absent")
		RecordTrackingFailure(ctx, nil, "chart_bar")
		RecordRequestMetric(ctx, nil, "GET", "/health", 200, time.Millisecond)
	})
}

func TestInitMetrics_NoopProvider(t *testing.T) {
	m, err := InitMetrics()
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		RecordQueryMetric(context.Background(), m, "error", 3*time.Millisecond)
		RecordSnapshotMiss(context.Background(), m, "corrupted")
	})
}
