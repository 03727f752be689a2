package render

// #region imports
import (
	"fmt"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"

	"edittrace/internal/trajectory"
)

// #endregion imports

// #region colors

// directionColors is the fixed mapping from direction to color tag.
var directionColors = map[trajectory.Direction]string{
	trajectory.Expanding:  "green",
	trajectory.Converging: "blue",
	trajectory.Pivoting:   "orange",
	trajectory.Stable:     "gray",
	trajectory.Uncertain:  "red",
}

// DirectionColor returns the deterministic color tag for a direction.
func DirectionColor(dir trajectory.Direction) string {
	if c, ok := directionColors[dir]; ok {
		return c
	}
	return directionColors[trajectory.Uncertain]
}

// #endregion colors

// #region renderer

type cacheKey struct {
	mode Mode
	seq  int
}

// Renderer turns trajectory snapshots into frames. Rendered frames are
// cached per (mode, newest sequence index) so repeated renders of one
// snapshot reuse segment layout instead of rescanning history.
type Renderer struct {
	cfg   Config
	cache *lru.Cache[cacheKey, Frame]
}

// NewRenderer creates a renderer with the given configuration.
func NewRenderer(cfg Config) *Renderer {
	if cfg.ExportLimit < 1 {
		cfg.ExportLimit = DefaultConfig().ExportLimit
	}
	if cfg.CacheSize < 2 {
		cfg.CacheSize = DefaultConfig().CacheSize
	}
	if cfg.HeatmapCols < 1 {
		cfg.HeatmapCols = DefaultConfig().HeatmapCols
	}
	if cfg.HeatmapRows < 1 {
		cfg.HeatmapRows = DefaultConfig().HeatmapRows
	}
	cache, _ := lru.New[cacheKey, Frame](cfg.CacheSize)
	return &Renderer{cfg: cfg, cache: cache}
}

// #endregion renderer

// #region render

// Render produces a frame for the snapshot in the given mode. An
// unrecognized mode fails with *InvalidModeError and yields no frame.
func (r *Renderer) Render(snap trajectory.Snapshot, mode Mode) (Frame, error) {
	switch mode {
	case ModeTimeline, ModeTree, ModeFlow, ModeHeatmap:
	default:
		return Frame{}, &InvalidModeError{Mode: mode}
	}

	key := cacheKey{mode: mode, seq: snap.Seq()}
	if snap.Seq() >= 0 {
		if cached, ok := r.cache.Get(key); ok {
			return copyFrame(cached), nil
		}
	}

	frame := Frame{Mode: mode, Seq: snap.Seq()}
	switch mode {
	case ModeTimeline:
		frame.Elements = r.timeline(snap)
	case ModeTree:
		frame.Elements = r.tree(snap)
	case ModeFlow:
		frame.Elements = r.flow(snap)
	case ModeHeatmap:
		frame.Elements = r.heatmap(snap)
	}

	if snap.Seq() >= 0 {
		r.cache.Add(key, copyFrame(frame))
	}
	return frame, nil
}

func copyFrame(f Frame) Frame {
	out := Frame{Mode: f.Mode, Seq: f.Seq}
	out.Elements = make([]Element, len(f.Elements))
	copy(out.Elements, f.Elements)
	return out
}

// #endregion render

// #region timeline

// timeline emits one node per point in sequence order, each annotated with
// its cause-effect link to the previous node. Linear in window size.
func (r *Renderer) timeline(snap trajectory.Snapshot) []Element {
	out := make([]Element, 0, 2*len(snap.Points))
	color := DirectionColor(snap.Direction)
	for i, p := range snap.Points {
		if i > 0 {
			prev := snap.Points[i-1]
			out = append(out, Element{
				Kind:  KindLink,
				X:     float64(i) - 0.5,
				Y:     float64(p.ContentLength+prev.ContentLength) / 2,
				Color: color,
				Label: fmt.Sprintf("#%d ← #%d", p.Seq, prev.Seq),
			})
		}
		out = append(out, Element{
			Kind:  KindNode,
			X:     float64(i),
			Y:     float64(p.ContentLength),
			Color: segmentColor(snap.Segments, p.Seq, snap.Direction),
			Label: fmt.Sprintf("#%d len=%d", p.Seq, p.ContentLength),
		})
	}
	return out
}

// segmentColor colors a point by the direction of its containing segment.
func segmentColor(segs []trajectory.Segment, seq int, fallback trajectory.Direction) string {
	for _, s := range segs {
		if seq >= s.Start && seq <= s.End {
			return DirectionColor(s.Direction)
		}
	}
	return DirectionColor(fallback)
}

// #endregion timeline

// #region tree

// tree emits a root plus one branch per segment in segment order, labeled
// by direction. Linear in segment count.
func (r *Renderer) tree(snap trajectory.Snapshot) []Element {
	out := make([]Element, 0, len(snap.Segments)+1)
	out = append(out, Element{
		Kind:  KindRoot,
		Color: DirectionColor(snap.Direction),
		Label: fmt.Sprintf("session (%s %.0f%%)", snap.Direction, snap.Confidence*100),
	})
	for i, s := range snap.Segments {
		out = append(out, Element{
			Kind:  KindBranch,
			X:     float64(i + 1),
			Y:     float64(s.End - s.Start + 1),
			Color: DirectionColor(s.Direction),
			Label: fmt.Sprintf("%s #%d–#%d coherence=%.2f", s.Direction, s.Start, s.End, s.Coherence),
		})
	}
	return out
}

// #endregion tree

// #region flow

// flow emits a weighted marker cluster. Expanding trajectories spread
// markers outward with recency, converging ones pull them inward, pivoting
// alternates sides, stable and uncertain keep a flat base radius.
func (r *Renderer) flow(snap trajectory.Snapshot) []Element {
	n := len(snap.Points)
	if n == 0 {
		return nil
	}
	color := DirectionColor(snap.Direction)
	base := 1.0
	step := float64(snap.Confidence) // tighter cluster at low confidence

	out := make([]Element, 0, n+1)
	out = append(out, Element{
		Kind:  KindMarker,
		Color: color,
		Label: fmt.Sprintf("center %s %.2f", snap.Direction, snap.Confidence),
	})
	for i, p := range snap.Points {
		var radius float64
		switch snap.Direction {
		case trajectory.Expanding:
			radius = base + step*float64(i)
		case trajectory.Converging:
			radius = base + step*float64(n-1-i)
		case trajectory.Pivoting:
			radius = base + step
		default:
			radius = base
		}
		side := 1.0
		if i%2 == 1 {
			side = -1.0
		}
		out = append(out, Element{
			Kind:  KindMarker,
			X:     side * radius,
			Y:     float64(p.ContentLength),
			Color: color,
			Label: fmt.Sprintf("#%d w=%.2f", p.Seq, radius),
		})
	}
	return out
}

// #endregion flow

// #region heatmap

// heatmap buckets points into a fixed cols×rows grid by time and edit
// intensity. Intensity for a point is |content delta| per second since its
// predecessor. Cells are tiered cold/warm/hot by occupancy.
func (r *Renderer) heatmap(snap trajectory.Snapshot) []Element {
	pts := snap.Points
	if len(pts) < 2 {
		return nil
	}

	span := pts[len(pts)-1].Timestamp.Sub(pts[0].Timestamp).Seconds()
	if span <= 0 {
		span = 1
	}

	intensities := make([]float64, len(pts))
	maxIntensity := 0.0
	for i := 1; i < len(pts); i++ {
		dt := pts[i].Timestamp.Sub(pts[i-1].Timestamp).Seconds()
		if dt <= 0 {
			dt = 1
		}
		intensities[i] = math.Abs(float64(pts[i].ContentLength-pts[i-1].ContentLength)) / dt
		if intensities[i] > maxIntensity {
			maxIntensity = intensities[i]
		}
	}
	if maxIntensity == 0 {
		maxIntensity = 1
	}

	counts := make(map[[2]int]int)
	for i, p := range pts {
		col := int(p.Timestamp.Sub(pts[0].Timestamp).Seconds() / span * float64(r.cfg.HeatmapCols))
		if col >= r.cfg.HeatmapCols {
			col = r.cfg.HeatmapCols - 1
		}
		row := int(intensities[i] / maxIntensity * float64(r.cfg.HeatmapRows))
		if row >= r.cfg.HeatmapRows {
			row = r.cfg.HeatmapRows - 1
		}
		counts[[2]int{col, row}]++
	}

	out := make([]Element, 0, len(counts))
	for col := 0; col < r.cfg.HeatmapCols; col++ {
		for row := 0; row < r.cfg.HeatmapRows; row++ {
			c := counts[[2]int{col, row}]
			if c == 0 {
				continue
			}
			out = append(out, Element{
				Kind:  KindCell,
				X:     float64(col),
				Y:     float64(row),
				Color: heatTier(c),
				Label: fmt.Sprintf("%d", c),
			})
		}
	}
	return out
}

func heatTier(count int) string {
	switch {
	case count >= 6:
		return "hot"
	case count >= 3:
		return "warm"
	default:
		return "cold"
	}
}

// #endregion heatmap
