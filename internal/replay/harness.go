package replay

import (
	"fmt"
	"time"

	"edittrace/internal/orchestrator"
	"edittrace/internal/trajectory"
)

// #region types

// StepResult captures the analysis outcome of replaying one event.
type StepResult struct {
	EventIndex int
	Action     string // "processed" | "rejected" | "error"
	Reason     string

	Direction  trajectory.Direction
	Confidence float32
	Segments   int
	WindowLen  int

	// Invariant violations detected after this step, empty when clean.
	Violations []string
}

// Summary provides aggregate stats from a replay run.
type Summary struct {
	TotalEvents int
	Processed   int
	Rejected    int
	Errors      int
	Violations  int

	FinalDirection  trajectory.Direction
	FinalConfidence float32
	FinalContent    string
}

// #endregion types

// #region run

// Run replays a fixture through a fresh engine with a deterministic clock
// and checks the structural invariants after every event. Operates entirely
// in-memory.
func Run(f *Fixture) ([]StepResult, Summary, error) {
	opts := f.Options.ToOptions()
	if err := opts.Validate(); err != nil {
		return nil, Summary{}, fmt.Errorf("fixture options: %w", err)
	}

	o := orchestrator.New(opts, orchestrator.Deps{})
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start
	o.SetClock(func() time.Time { return now })
	if err := o.Start(); err != nil {
		return nil, Summary{}, err
	}
	defer o.Stop()

	results := make([]StepResult, 0, len(f.Events))
	for i, fe := range f.Events {
		now = start.Add(fe.Offset())

		step := StepResult{EventIndex: i, Action: "processed"}
		res, err := o.ProcessInput(fe.ToEvent())
		switch {
		case err != nil:
			step.Action = "error"
			step.Reason = err.Error()
		case !res.Accepted:
			step.Action = "rejected"
		}

		snap := o.EngineSnapshot()
		step.Direction = snap.Direction
		step.Confidence = snap.Confidence
		step.Segments = len(snap.Segments)
		step.WindowLen = len(snap.Points)
		step.Violations = checkInvariants(snap, opts.TrajectoryWindowSize)
		results = append(results, step)
	}

	summary := Summary{
		TotalEvents:  len(results),
		FinalContent: o.Content(),
	}
	snap := o.EngineSnapshot()
	summary.FinalDirection = snap.Direction
	summary.FinalConfidence = snap.Confidence
	for _, r := range results {
		switch r.Action {
		case "processed":
			summary.Processed++
		case "rejected":
			summary.Rejected++
		case "error":
			summary.Errors++
		}
		summary.Violations += len(r.Violations)
	}
	return results, summary, nil
}

// checkInvariants validates the structural guarantees of a snapshot: the
// window never exceeds its capacity, confidence stays in [0,1], segments
// partition the window without gaps or overlap, and the direction is one of
// the five enumerated values.
func checkInvariants(snap trajectory.Snapshot, windowSize int) []string {
	var out []string

	if len(snap.Points) > windowSize {
		out = append(out, fmt.Sprintf("window holds %d points, capacity %d", len(snap.Points), windowSize))
	}
	if snap.Confidence < 0 || snap.Confidence > 1 {
		out = append(out, fmt.Sprintf("confidence %.4f out of range", snap.Confidence))
	}
	switch snap.Direction {
	case trajectory.Expanding, trajectory.Converging, trajectory.Pivoting,
		trajectory.Stable, trajectory.Uncertain:
	default:
		out = append(out, fmt.Sprintf("direction %q not enumerated", snap.Direction))
	}

	if len(snap.Segments) > 0 && len(snap.Points) > 0 {
		first := snap.Points[0].Seq
		last := snap.Points[len(snap.Points)-1].Seq
		if snap.Segments[0].Start != first {
			out = append(out, fmt.Sprintf("first segment starts at %d, window at %d", snap.Segments[0].Start, first))
		}
		if snap.Segments[len(snap.Segments)-1].End != last {
			out = append(out, fmt.Sprintf("last segment ends at %d, window at %d", snap.Segments[len(snap.Segments)-1].End, last))
		}
		for i := 1; i < len(snap.Segments); i++ {
			if snap.Segments[i].Start != snap.Segments[i-1].End+1 {
				out = append(out, fmt.Sprintf("gap between segment %d and %d", i-1, i))
			}
		}
	}
	return out
}

// #endregion run

// #region verify

// Mismatch reports one failed expectation.
type Mismatch struct {
	AfterEvent int
	Want       string
	Got        string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("after event %d: want %s, got %s", m.AfterEvent, m.Want, m.Got)
}

// Verify compares step results against a fixture's expectations.
func Verify(results []StepResult, expectations []FixtureExpectation) []Mismatch {
	var out []Mismatch
	for _, exp := range expectations {
		if exp.AfterEvent < 0 || exp.AfterEvent >= len(results) {
			out = append(out, Mismatch{
				AfterEvent: exp.AfterEvent,
				Want:       "a replayed event at this index",
				Got:        fmt.Sprintf("%d events", len(results)),
			})
			continue
		}
		step := results[exp.AfterEvent]
		if exp.Direction != "" && string(step.Direction) != exp.Direction {
			out = append(out, Mismatch{
				AfterEvent: exp.AfterEvent,
				Want:       "direction " + exp.Direction,
				Got:        "direction " + string(step.Direction),
			})
		}
		if exp.MinConfidence > 0 && float64(step.Confidence) < exp.MinConfidence {
			out = append(out, Mismatch{
				AfterEvent: exp.AfterEvent,
				Want:       fmt.Sprintf("confidence >= %.2f", exp.MinConfidence),
				Got:        fmt.Sprintf("confidence %.2f", step.Confidence),
			})
		}
		if exp.SegmentCount > 0 && step.Segments != exp.SegmentCount {
			out = append(out, Mismatch{
				AfterEvent: exp.AfterEvent,
				Want:       fmt.Sprintf("%d segments", exp.SegmentCount),
				Got:        fmt.Sprintf("%d segments", step.Segments),
			})
		}
	}
	return out
}

// #endregion verify
