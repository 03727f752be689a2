package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edittrace/internal/trajectory"
)

func testSnapshot() trajectory.Snapshot {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	pts := make([]trajectory.Point, 0, 6)
	lengths := []int{10, 30, 50, 70, 60, 50}
	for i, l := range lengths {
		pts = append(pts, trajectory.Point{
			Seq:           i,
			Timestamp:     base.Add(time.Duration(i) * time.Second),
			ContentLength: l,
		})
	}
	return trajectory.Snapshot{
		Points: pts,
		Segments: []trajectory.Segment{
			{Start: 0, End: 3, Direction: trajectory.Expanding, Coherence: 0.9},
			{Start: 4, End: 5, Direction: trajectory.Converging, Coherence: 0.6},
		},
		Direction:  trajectory.Converging,
		Confidence: 0.6,
	}
}

func TestInvalidMode(t *testing.T) {
	r := NewRenderer(DefaultConfig())

	frame, err := r.Render(testSnapshot(), Mode("hologram"))
	var modeErr *InvalidModeError
	require.ErrorAs(t, err, &modeErr)
	assert.Equal(t, Mode("hologram"), modeErr.Mode)
	assert.Empty(t, frame.Elements, "no partial frame on invalid mode")
}

func TestTimelineLinksEveryPoint(t *testing.T) {
	r := NewRenderer(DefaultConfig())
	snap := testSnapshot()

	frame, err := r.Render(snap, ModeTimeline)
	require.NoError(t, err)

	nodes, links := 0, 0
	for _, el := range frame.Elements {
		switch el.Kind {
		case KindNode:
			nodes++
		case KindLink:
			links++
		}
	}
	assert.Equal(t, len(snap.Points), nodes)
	assert.Equal(t, len(snap.Points)-1, links, "each point after the first links to its predecessor")
}

func TestTimelineColorsFollowSegments(t *testing.T) {
	r := NewRenderer(DefaultConfig())
	frame, err := r.Render(testSnapshot(), ModeTimeline)
	require.NoError(t, err)

	var nodes []Element
	for _, el := range frame.Elements {
		if el.Kind == KindNode {
			nodes = append(nodes, el)
		}
	}
	require.Len(t, nodes, 6)
	assert.Equal(t, "green", nodes[0].Color)
	assert.Equal(t, "green", nodes[3].Color)
	assert.Equal(t, "blue", nodes[4].Color)
	assert.Equal(t, "blue", nodes[5].Color)
}

func TestTreeOneBranchPerSegment(t *testing.T) {
	r := NewRenderer(DefaultConfig())
	snap := testSnapshot()

	frame, err := r.Render(snap, ModeTree)
	require.NoError(t, err)
	require.NotEmpty(t, frame.Elements)
	assert.Equal(t, KindRoot, frame.Elements[0].Kind)

	branches := frame.Elements[1:]
	require.Len(t, branches, len(snap.Segments))
	assert.Equal(t, "green", branches[0].Color)
	assert.Equal(t, "blue", branches[1].Color)
}

func TestFlowSpreadEncodesDirection(t *testing.T) {
	r := NewRenderer(DefaultConfig())
	snap := testSnapshot()
	snap.Direction = trajectory.Expanding
	snap.Confidence = 1.0

	frame, err := r.Render(snap, ModeFlow)
	require.NoError(t, err)

	markers := frame.Elements[1:] // skip center
	require.Len(t, markers, len(snap.Points))
	// Outward spread: |X| grows with recency.
	for i := 2; i < len(markers); i++ {
		assert.Greater(t, abs(markers[i].X), abs(markers[i-2].X))
	}
}

func TestHeatmapStaysOnGrid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HeatmapCols = 4
	cfg.HeatmapRows = 3
	r := NewRenderer(cfg)

	frame, err := r.Render(testSnapshot(), ModeHeatmap)
	require.NoError(t, err)
	require.NotEmpty(t, frame.Elements)
	for _, el := range frame.Elements {
		assert.Equal(t, KindCell, el.Kind)
		assert.GreaterOrEqual(t, el.X, 0.0)
		assert.Less(t, el.X, 4.0)
		assert.GreaterOrEqual(t, el.Y, 0.0)
		assert.Less(t, el.Y, 3.0)
		assert.Contains(t, []string{"cold", "warm", "hot"}, el.Color)
	}
}

func TestRenderDeterministic(t *testing.T) {
	snap := testSnapshot()
	for _, mode := range Modes() {
		a, err := NewRenderer(DefaultConfig()).Render(snap, mode)
		require.NoError(t, err)
		b, err := NewRenderer(DefaultConfig()).Render(snap, mode)
		require.NoError(t, err)
		assert.Equal(t, a, b, "mode %s", mode)
	}
}

func TestRenderCacheHit(t *testing.T) {
	r := NewRenderer(DefaultConfig())
	snap := testSnapshot()

	first, err := r.Render(snap, ModeTree)
	require.NoError(t, err)
	second, err := r.Render(snap, ModeTree)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Mutating the returned frame must not poison the cache.
	second.Elements[0].Label = "tampered"
	third, err := r.Render(snap, ModeTree)
	require.NoError(t, err)
	assert.Equal(t, first, third)
}

func TestExportBoundedAndRestartable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ExportLimit = 2
	r := NewRenderer(cfg)

	frames := []Frame{
		{Mode: ModeTree, Seq: 0},
		{Mode: ModeTree, Seq: 1},
		{Mode: ModeTree, Seq: 2},
	}
	exp, err := r.NewExport(frames, FormatJSON)
	require.NoError(t, err)

	count := 0
	for {
		_, ok := exp.Next()
		if !ok {
			break
		}
		count++
	}
	assert.Equal(t, 2, count, "export limit honored")

	exp.Reset()
	out, ok := exp.Next()
	require.True(t, ok)
	assert.Contains(t, string(out), `"seq":0`)
}

func TestExportDoesNotMutateInput(t *testing.T) {
	r := NewRenderer(DefaultConfig())
	frames := []Frame{{Mode: ModeFlow, Seq: 7, Elements: []Element{{Kind: KindMarker, Label: "orig"}}}}

	exp, err := r.NewExport(frames, FormatText)
	require.NoError(t, err)
	_, _ = exp.Next()

	assert.Equal(t, "orig", frames[0].Elements[0].Label)

	_, err = r.NewExport(frames, Format("yaml"))
	assert.Error(t, err)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
