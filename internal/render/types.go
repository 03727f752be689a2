package render

import "fmt"

// #region mode

// Mode selects the visual layout of a frame.
type Mode string

const (
	ModeTimeline Mode = "timeline"
	ModeTree     Mode = "tree"
	ModeFlow     Mode = "flow"
	ModeHeatmap  Mode = "heatmap"
)

// Modes lists every supported mode.
func Modes() []Mode {
	return []Mode{ModeTimeline, ModeTree, ModeFlow, ModeHeatmap}
}

// #endregion mode

// #region frame

// ElementKind tags what a frame element represents.
type ElementKind string

const (
	KindNode   ElementKind = "node"
	KindLink   ElementKind = "link"
	KindRoot   ElementKind = "root"
	KindBranch ElementKind = "branch"
	KindMarker ElementKind = "marker"
	KindCell   ElementKind = "cell"
)

// Element is one positioned, colored, labeled item in a frame.
type Element struct {
	Kind  ElementKind
	X     float64
	Y     float64
	Color string
	Label string
}

// Frame is the rendered output for one snapshot. Seq is the sequence index
// of the newest point at render time.
type Frame struct {
	Mode     Mode
	Seq      int
	Elements []Element
}

// #endregion frame

// #region errors

// InvalidModeError reports an unsupported render mode. No partial frame is
// ever produced alongside it.
type InvalidModeError struct {
	Mode Mode
}

func (e *InvalidModeError) Error() string {
	return fmt.Sprintf("unsupported render mode %q", e.Mode)
}

// #endregion errors

// #region config

// Config holds renderer limits.
type Config struct {
	ExportLimit int // max frames an export sequence yields
	CacheSize   int // LRU entries for rendered frames
	HeatmapCols int // fixed time buckets
	HeatmapRows int // fixed intensity bands
}

// DefaultConfig returns the renderer defaults.
func DefaultConfig() Config {
	return Config{
		ExportLimit: 256,
		CacheSize:   64,
		HeatmapCols: 8,
		HeatmapRows: 4,
	}
}

// #endregion config
