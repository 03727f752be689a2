package replay

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFixture(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

const growthFixture = `{
	"description": "steady growth settles on expanding",
	"options": {"trajectory_window_size": 20},
	"events": [
		{"type": "insert", "position": 0, "payload": "0123456789", "at_millis": 0},
		{"type": "insert", "position": 10, "payload": "0123456789", "at_millis": 500},
		{"type": "insert", "position": 20, "payload": "0123456789", "at_millis": 1000},
		{"type": "insert", "position": 30, "payload": "0123456789", "at_millis": 1500},
		{"type": "insert", "position": 40, "payload": "0123456789", "at_millis": 2000}
	],
	"expectations": [
		{"after_event": 4, "direction": "expanding", "min_confidence": 0.7, "segment_count": 1}
	]
}`

func TestLoadFixture(t *testing.T) {
	path := writeFixture(t, growthFixture)

	f, err := LoadFixture(path)
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	if len(f.Events) != 5 || len(f.Expectations) != 1 {
		t.Fatalf("fixture shape: %d events, %d expectations", len(f.Events), len(f.Expectations))
	}
	if f.Options.TrajectoryWindowSize != 20 {
		t.Fatalf("options not parsed: %+v", f.Options)
	}
	if f.Events[2].Offset().Milliseconds() != 1000 {
		t.Fatalf("offset = %v", f.Events[2].Offset())
	}
}

func TestLoadFixtureMissingFile(t *testing.T) {
	if _, err := LoadFixture(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing fixture")
	}
}

func TestRunGrowthFixture(t *testing.T) {
	f, err := LoadFixture(writeFixture(t, growthFixture))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}

	results, summary, err := Run(f)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Processed != 5 || summary.Rejected != 0 || summary.Errors != 0 {
		t.Fatalf("summary = %+v", summary)
	}
	if summary.Violations != 0 {
		t.Fatalf("invariant violations: %+v", results)
	}
	if summary.FinalContent != "01234567890123456789012345678901234567890123456789" {
		t.Fatalf("final content = %q", summary.FinalContent)
	}

	if mismatches := Verify(results, f.Expectations); len(mismatches) != 0 {
		t.Fatalf("expectations not met: %v", mismatches)
	}
}

func TestRunCountsErrors(t *testing.T) {
	f := &Fixture{
		Events: []FixtureEvent{
			{Type: "insert", Position: 0, Payload: "abc"},
			{Type: "insert", Position: 99, Payload: "out of range"},
		},
	}

	results, summary, err := Run(f)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Processed != 1 || summary.Errors != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if results[1].Action != "error" || results[1].Reason == "" {
		t.Fatalf("step 1 = %+v", results[1])
	}
}

func TestVerifyReportsMismatches(t *testing.T) {
	results := []StepResult{
		{EventIndex: 0, Direction: "expanding", Confidence: 0.5, Segments: 1},
	}
	expectations := []FixtureExpectation{
		{AfterEvent: 0, Direction: "converging", MinConfidence: 0.9, SegmentCount: 2},
		{AfterEvent: 7, Direction: "stable"},
	}

	mismatches := Verify(results, expectations)
	if len(mismatches) != 4 {
		t.Fatalf("expected 4 mismatches, got %v", mismatches)
	}
}

func TestWindowInvariantHoldsUnderEviction(t *testing.T) {
	f := &Fixture{
		Options: FixtureOptions{TrajectoryWindowSize: 5},
	}
	for i := 0; i < 30; i++ {
		f.Events = append(f.Events, FixtureEvent{
			Type: "insert", Position: i, Payload: "x", AtMillis: int64(i * 100),
		})
	}

	results, summary, err := Run(f)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Violations != 0 {
		t.Fatalf("violations: %+v", results)
	}
	if last := results[len(results)-1]; last.WindowLen != 5 {
		t.Fatalf("window length = %d", last.WindowLen)
	}
}
