package trajectory

// #region imports
import (
	"log"
	"math"
	"time"
)

// #endregion imports

// #region engine-struct

// Engine maintains the bounded point window and derives direction,
// confidence, and segments from it. It is owned by a single orchestrator
// and must not be shared across goroutines.
type Engine struct {
	cfg       Config
	win       *window
	nextSeq   int
	dir       Direction
	conf      float32
	segments  []Segment
	analyzers []Analyzer
	now       func() time.Time
}

// #endregion engine-struct

// #region constructor

// NewEngine creates an engine with the given configuration.
func NewEngine(cfg Config) *Engine {
	if cfg.WindowSize < 1 {
		cfg.WindowSize = DefaultConfig().WindowSize
	}
	if cfg.AnalysisDepth < 1 {
		cfg.AnalysisDepth = DefaultConfig().AnalysisDepth
	}
	return &Engine{
		cfg: cfg,
		win: newWindow(cfg.WindowSize),
		dir: Uncertain,
		now: time.Now,
	}
}

// SetClock replaces the engine clock. Test hook.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// #endregion constructor

// #region register-analyzer

// RegisterAnalyzer installs a custom direction classifier. Analyzers are
// consulted in registration order before the built-in classifier.
func (e *Engine) RegisterAnalyzer(fn Analyzer) {
	e.analyzers = append(e.analyzers, fn)
}

// #endregion register-analyzer

// #region add-point

// AddPoint appends the next point, evicting the oldest at capacity, then
// re-runs direction analysis, confidence, and the segment update.
func (e *Engine) AddPoint(contentLength int, metadata map[string]string) Point {
	p := Point{
		Seq:           e.nextSeq,
		Timestamp:     e.now(),
		ContentLength: contentLength,
		Metadata:      metadata,
	}
	e.nextSeq++

	if _, evicted := e.win.append(p); evicted {
		e.trimSegments(e.win.at(0).Seq)
	}

	prev := e.dir
	e.dir = e.classify()
	e.conf = e.confidence(e.dir)
	e.updateSegments(p)

	if e.dir != prev {
		log.Printf("[TRAJ] direction %s → %s (confidence=%.2f, points=%d)",
			prev, e.dir, e.conf, e.win.len())
	}
	return p
}

// #endregion add-point

// #region accessors

// Direction returns the current classification.
func (e *Engine) Direction() Direction { return e.dir }

// Confidence returns the current classification confidence in [0,1].
func (e *Engine) Confidence() float32 { return e.conf }

// Len returns the number of points in the window.
func (e *Engine) Len() int { return e.win.len() }

// Points returns the window contents, oldest first.
func (e *Engine) Points() []Point { return e.win.points() }

// Segments returns a copy of the current segment partition.
func (e *Engine) Segments() []Segment {
	out := make([]Segment, len(e.segments))
	copy(out, e.segments)
	return out
}

// Snapshot captures the engine state for rendering and persistence.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Points:     e.win.points(),
		Segments:   e.Segments(),
		Direction:  e.dir,
		Confidence: e.conf,
	}
}

// #endregion accessors

// #region classify

// classify runs registered analyzers first, then the built-in classifier.
func (e *Engine) classify() Direction {
	if len(e.analyzers) > 0 {
		pts := e.win.points()
		for _, fn := range e.analyzers {
			if dir, ok := fn(pts); ok {
				return dir
			}
		}
	}
	return e.defaultClassify()
}

// defaultClassify works on first differences of content length over the
// last k points. Flip count is checked before the mean so oscillation wins
// over a small residual trend.
func (e *Engine) defaultClassify() Direction {
	diffs := e.recentDiffs()
	if len(diffs) == 0 {
		return Uncertain
	}

	mean, stddev := meanStddev(diffs)

	if flipCount(diffs) > e.cfg.FlipThreshold {
		return Pivoting
	}

	if math.Abs(mean) <= e.cfg.DirectionThreshold {
		if stddev <= e.cfg.DirectionThreshold*e.cfg.StableSpread {
			return Stable
		}
		return Uncertain
	}

	if stddev > math.Abs(mean)*e.cfg.TrendSpread {
		return Uncertain
	}
	if mean > 0 {
		return Expanding
	}
	return Converging
}

// recentDiffs returns first differences over the last k points,
// k = min(AnalysisDepth, window size).
func (e *Engine) recentDiffs() []float64 {
	n := e.win.len()
	k := e.cfg.AnalysisDepth
	if k > n {
		k = n
	}
	if k < 2 {
		return nil
	}
	diffs := make([]float64, 0, k-1)
	for i := n - k + 1; i < n; i++ {
		diffs = append(diffs, float64(e.win.at(i).ContentLength-e.win.at(i-1).ContentLength))
	}
	return diffs
}

func meanStddev(vals []float64) (float64, float64) {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	mean := sum / float64(len(vals))
	var sq float64
	for _, v := range vals {
		d := v - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(vals)))
}

// flipCount counts sign changes between consecutive non-zero diffs.
func flipCount(diffs []float64) int {
	flips := 0
	prev := 0
	for _, d := range diffs {
		sign := 0
		if d > 0 {
			sign = 1
		} else if d < 0 {
			sign = -1
		}
		if sign != 0 && prev != 0 && sign != prev {
			flips++
		}
		if sign != 0 {
			prev = sign
		}
	}
	return flips
}

// #endregion classify

// #region confidence

// confidence is the fraction of recent transitions consistent with dir.
// Windows with fewer than two points score zero.
func (e *Engine) confidence(dir Direction) float32 {
	diffs := e.recentDiffs()
	if len(diffs) == 0 {
		return 0
	}

	if dir == Pivoting {
		if len(diffs) < 2 {
			return 0
		}
		return clamp01(float32(flipCount(diffs)) / float32(len(diffs)-1))
	}

	consistent := 0
	for _, d := range diffs {
		switch dir {
		case Expanding:
			if d > 0 {
				consistent++
			}
		case Converging:
			if d < 0 {
				consistent++
			}
		case Stable:
			if math.Abs(d) <= e.cfg.DirectionThreshold {
				consistent++
			}
		}
	}
	return clamp01(float32(consistent) / float32(len(diffs)))
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// #endregion confidence

// #region segments

// updateSegments extends the open segment or closes it and opens a new one
// when the direction changed. Segments are defined once the window holds
// two points; the first classified direction covers the whole window so a
// uniform run yields a single segment.
func (e *Engine) updateSegments(p Point) {
	if e.win.len() < 2 {
		return
	}

	if len(e.segments) == 0 {
		e.segments = append(e.segments, Segment{
			Start:     e.win.at(0).Seq,
			End:       p.Seq,
			Direction: e.dir,
			Coherence: e.conf,
		})
		return
	}

	open := &e.segments[len(e.segments)-1]
	if open.Direction == e.dir {
		open.End = p.Seq
		open.Coherence = e.conf
		return
	}

	// Close the open segment at the previous point and start a new run.
	e.segments = append(e.segments, Segment{
		Start:     p.Seq,
		End:       p.Seq,
		Direction: e.dir,
		Coherence: e.conf,
	})
}

// trimSegments drops segments fully evicted from the window and clamps the
// oldest surviving segment to the window start, keeping the partition
// contiguous and gap-free.
func (e *Engine) trimSegments(firstSeq int) {
	for len(e.segments) > 0 && e.segments[0].End < firstSeq {
		e.segments = e.segments[1:]
	}
	if len(e.segments) > 0 && e.segments[0].Start < firstSeq {
		e.segments[0].Start = firstSeq
	}
}

// #endregion segments

// #region chain

// Chain builds the backward cause-effect chain for the last n points,
// newest first. The oldest link in the chain has no predecessor.
func (e *Engine) Chain(n int) CauseEffectChain {
	if n <= 0 {
		n = e.cfg.CauseEffectDepth
	}
	total := e.win.len()
	if n > total {
		n = total
	}

	chain := make(CauseEffectChain, 0, n)
	for i := 0; i < n; i++ {
		idx := total - 1 - i
		link := ChainLink{Point: e.win.at(idx)}
		if i < n-1 {
			pred := e.win.at(idx - 1)
			link.Predecessor = &pred
		}
		chain = append(chain, link)
	}
	return chain
}

// #endregion chain
