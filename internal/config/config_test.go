package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	require.NoError(t, DefaultOptions().Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "edittrace.toml")
	body := `
visualization_mode = "heatmap"
enable_security = true
trajectory_window_size = 25
direction_threshold = 1.5
auto_save_interval_seconds = 2.5
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	opts, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "heatmap", opts.VisualizationMode)
	assert.True(t, opts.EnableSecurity)
	assert.Equal(t, 25, opts.TrajectoryWindowSize)
	assert.Equal(t, 1.5, opts.DirectionThreshold)
	assert.Equal(t, 2.5, opts.AutoSaveIntervalSeconds)

	// Untouched keys keep defaults.
	assert.Equal(t, 50, opts.InputBufferSize)
	assert.Equal(t, 5, opts.PredictionLookahead)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []func(*Options){
		func(o *Options) { o.VisualizationMode = "sparkline" },
		func(o *Options) { o.TrajectoryWindowSize = 0 },
		func(o *Options) { o.InputBufferSize = -1 },
		func(o *Options) { o.AutoSaveIntervalSeconds = -2 },
		func(o *Options) { o.PredictionLookahead = 0 },
		func(o *Options) { o.MinPredictionConfidence = 1.7 },
	}
	for i, mutate := range cases {
		opts := DefaultOptions()
		mutate(&opts)
		assert.Error(t, opts.Validate(), "case %d", i)
	}
}
