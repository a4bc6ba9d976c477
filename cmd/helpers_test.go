package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/roadaudit/internal/config"
)

func TestOutputPathFallsBackToInput(t *testing.T) {
	c := &config.Config{}
	c.Data.SegmentsPath = "segments.geojson"
	assert.Equal(t, "segments.geojson", outputPath(c))

	c.Data.OutputPath = "out.geojson"
	assert.Equal(t, "out.geojson", outputPath(c))
}

func TestSummaryPathDerivedFromOutput(t *testing.T) {
	c := &config.Config{}
	c.Data.SegmentsPath = "lake_routed.geojson"
	assert.Equal(t, "lake_routed.summary.yaml", summaryPath(c))

	c.Data.SummaryPath = "custom.yaml"
	assert.Equal(t, "custom.yaml", summaryPath(c))
}

func TestLoadBoundaryRequiresSource(t *testing.T) {
	c := &config.Config{}
	_, err := loadBoundary(c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no boundary source")
}
