package trajectory

import "time"

// #region direction

// Direction classifies the recent trend in content size.
type Direction string

const (
	Expanding  Direction = "expanding"
	Converging Direction = "converging"
	Pivoting   Direction = "pivoting"
	Stable     Direction = "stable"
	Uncertain  Direction = "uncertain"
)

// #endregion direction

// #region point

// Point is one immutable sample of the edit state. Points are appended to
// the engine's bounded window and never modified afterwards.
type Point struct {
	Seq           int
	Timestamp     time.Time
	ContentLength int
	Metadata      map[string]string
}

// #endregion point

// #region segment

// Segment is a maximal contiguous run of points sharing one direction.
// Start and End are sequence indexes, inclusive on both ends.
type Segment struct {
	Start     int
	End       int
	Direction Direction
	Coherence float32
}

// #endregion segment

// #region prediction

// Prediction is a probability-weighted guess at a near-future state.
// Predictions are recomputed on demand and never stored in the window.
type Prediction struct {
	Description string
	Probability float32
	Lookahead   int
}

// #endregion prediction

// #region chain

// ChainLink pairs a point with its immediate predecessor. The oldest link
// in a chain has a nil predecessor.
type ChainLink struct {
	Point       Point
	Predecessor *Point
}

// CauseEffectChain is a newest-first backward explanation of recent points.
type CauseEffectChain []ChainLink

// #endregion chain

// #region analyzer

// Analyzer is a custom direction classifier consulted before the built-in
// one. Returning ok=false defers to the next analyzer or the default.
type Analyzer func(points []Point) (dir Direction, ok bool)

// #endregion analyzer

// #region snapshot

// Snapshot is a read-only view of the engine state handed to the renderer
// and the persistence collaborator. Slices are copies.
type Snapshot struct {
	Points     []Point
	Segments   []Segment
	Direction  Direction
	Confidence float32
}

// Seq returns the sequence index of the newest point, or -1 when empty.
func (s Snapshot) Seq() int {
	if len(s.Points) == 0 {
		return -1
	}
	return s.Points[len(s.Points)-1].Seq
}

// #endregion snapshot

// #region config

// Config holds classification and prediction knobs.
type Config struct {
	WindowSize              int     // rolling window capacity
	AnalysisDepth           int     // k: diffs considered, capped by window size
	DirectionThreshold      float64 // |mean diff| below this is flat
	FlipThreshold           int     // sign flips above this is pivoting
	TrendSpread             float64 // stddev <= |mean|*this keeps a trend classifiable
	StableSpread            float64 // stddev <= threshold*this keeps flat classifiable as stable
	MinPredictionConfidence float32 // below this, a single uncertain prediction
	PredictionLookahead     int
	CauseEffectDepth        int
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		WindowSize:              100,
		AnalysisDepth:           10,
		DirectionThreshold:      0.5,
		FlipThreshold:           3,
		TrendSpread:             6.0,
		StableSpread:            3.0,
		MinPredictionConfidence: 0.3,
		PredictionLookahead:     5,
		CauseEffectDepth:        10,
	}
}

// #endregion config
