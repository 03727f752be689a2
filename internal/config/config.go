// Package config holds the recognized engine options, their defaults, and
// the TOML loader.
package config

// #region imports
import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// #endregion imports

// #region options

// Options is the full set of recognized configuration options.
type Options struct {
	VisualizationMode string `toml:"visualization_mode"`

	EnableSecurity    bool `toml:"enable_security"`
	EnablePredictions bool `toml:"enable_predictions"`
	EnableSuggestions bool `toml:"enable_suggestions"`

	TrajectoryWindowSize int `toml:"trajectory_window_size"`
	InputBufferSize      int `toml:"input_buffer_size"`
	UndoStackDepth       int `toml:"undo_stack_depth"`

	AutoSaveIntervalSeconds float64 `toml:"auto_save_interval_seconds"`
	MetricsWindowSeconds    float64 `toml:"metrics_window_seconds"`

	DirectionThreshold      float64 `toml:"direction_threshold"`
	DirectionFlipThreshold  int     `toml:"direction_flip_threshold"`
	AnalysisDepth           int     `toml:"analysis_depth"`
	PredictionLookahead     int     `toml:"prediction_lookahead"`
	MinPredictionConfidence float64 `toml:"min_prediction_confidence"`
	CauseEffectDepth        int     `toml:"cause_effect_depth"`

	ExportLimit int `toml:"export_limit"`
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		VisualizationMode:       "timeline",
		EnablePredictions:       true,
		EnableSuggestions:       true,
		TrajectoryWindowSize:    100,
		InputBufferSize:         50,
		UndoStackDepth:          100,
		AutoSaveIntervalSeconds: 30,
		MetricsWindowSeconds:    5,
		DirectionThreshold:      0.5,
		DirectionFlipThreshold:  3,
		AnalysisDepth:           10,
		PredictionLookahead:     5,
		MinPredictionConfidence: 0.3,
		CauseEffectDepth:        10,
		ExportLimit:             256,
	}
}

// #endregion options

// #region loader

// Load reads TOML options from path on top of the defaults.
func Load(path string) (Options, error) {
	opts := DefaultOptions()
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("parse config: %w", err)
	}
	if err := opts.Validate(); err != nil {
		return opts, err
	}
	return opts, nil
}

// #endregion loader

// #region validation

var validModes = map[string]bool{
	"timeline": true,
	"tree":     true,
	"flow":     true,
	"heatmap":  true,
}

// Validate checks option ranges.
func (o Options) Validate() error {
	if !validModes[o.VisualizationMode] {
		return fmt.Errorf("unknown visualization_mode %q", o.VisualizationMode)
	}
	if o.TrajectoryWindowSize < 1 {
		return fmt.Errorf("trajectory_window_size must be >= 1, got %d", o.TrajectoryWindowSize)
	}
	if o.InputBufferSize < 1 {
		return fmt.Errorf("input_buffer_size must be >= 1, got %d", o.InputBufferSize)
	}
	if o.AutoSaveIntervalSeconds < 0 {
		return fmt.Errorf("auto_save_interval_seconds must be >= 0, got %g", o.AutoSaveIntervalSeconds)
	}
	if o.PredictionLookahead < 1 {
		return fmt.Errorf("prediction_lookahead must be >= 1, got %d", o.PredictionLookahead)
	}
	if o.MinPredictionConfidence < 0 || o.MinPredictionConfidence > 1 {
		return fmt.Errorf("min_prediction_confidence must be in [0,1], got %g", o.MinPredictionConfidence)
	}
	return nil
}

// #endregion validation
