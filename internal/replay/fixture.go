package replay

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"edittrace/internal/config"
	"edittrace/internal/input"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description  string               `json:"description"`
	Options      FixtureOptions       `json:"options"`
	Events       []FixtureEvent       `json:"events"`
	Expectations []FixtureExpectation `json:"expectations"`
}

// FixtureOptions mirrors the engine options a fixture may override. Zero
// values fall back to the defaults.
type FixtureOptions struct {
	VisualizationMode       string  `json:"visualization_mode"`
	EnablePredictions       *bool   `json:"enable_predictions"`
	TrajectoryWindowSize    int     `json:"trajectory_window_size"`
	AnalysisDepth           int     `json:"analysis_depth"`
	DirectionThreshold      float64 `json:"direction_threshold"`
	DirectionFlipThreshold  int     `json:"direction_flip_threshold"`
	PredictionLookahead     int     `json:"prediction_lookahead"`
	MinPredictionConfidence float64 `json:"min_prediction_confidence"`
}

// FixtureEvent mirrors input.Event with JSON tags plus a relative clock
// offset, so fixtures replay with deterministic timestamps.
type FixtureEvent struct {
	Type     string `json:"type"`
	Position int    `json:"position"`
	Length   int    `json:"length"`
	Payload  string `json:"payload"`
	AtMillis int64  `json:"at_millis"`
}

// FixtureExpectation captures the expected analysis after a given event.
type FixtureExpectation struct {
	AfterEvent    int     `json:"after_event"`
	Direction     string  `json:"direction"`
	MinConfidence float64 `json:"min_confidence"`
	SegmentCount  int     `json:"segment_count"` // 0 means unchecked
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// ToOptions applies fixture overrides on top of the defaults.
func (fo *FixtureOptions) ToOptions() config.Options {
	opts := config.DefaultOptions()
	opts.EnableSecurity = false
	opts.AutoSaveIntervalSeconds = 0
	if fo.VisualizationMode != "" {
		opts.VisualizationMode = fo.VisualizationMode
	}
	if fo.EnablePredictions != nil {
		opts.EnablePredictions = *fo.EnablePredictions
	}
	if fo.TrajectoryWindowSize > 0 {
		opts.TrajectoryWindowSize = fo.TrajectoryWindowSize
	}
	if fo.AnalysisDepth > 0 {
		opts.AnalysisDepth = fo.AnalysisDepth
	}
	if fo.DirectionThreshold > 0 {
		opts.DirectionThreshold = fo.DirectionThreshold
	}
	if fo.DirectionFlipThreshold > 0 {
		opts.DirectionFlipThreshold = fo.DirectionFlipThreshold
	}
	if fo.PredictionLookahead > 0 {
		opts.PredictionLookahead = fo.PredictionLookahead
	}
	if fo.MinPredictionConfidence > 0 {
		opts.MinPredictionConfidence = fo.MinPredictionConfidence
	}
	return opts
}

// ToEvent converts a FixtureEvent to a domain event. The timestamp is left
// to the harness clock.
func (fe *FixtureEvent) ToEvent() input.Event {
	return input.Event{
		Type:     input.EventType(fe.Type),
		Position: fe.Position,
		Length:   fe.Length,
		Payload:  fe.Payload,
	}
}

// Offset returns the event's clock offset from the run start.
func (fe *FixtureEvent) Offset() time.Duration {
	return time.Duration(fe.AtMillis) * time.Millisecond
}

// #endregion fixture-loader
