package session

import (
	"path/filepath"
	"testing"
	"time"

	"edittrace/internal/config"
	"edittrace/internal/input"
	"edittrace/internal/trajectory"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleSnapshot(sessionID string, at time.Time) Snapshot {
	return Snapshot{
		SessionID: sessionID,
		CreatedAt: at,
		Points: []trajectory.Point{
			{Seq: 0, Timestamp: at, ContentLength: 10},
			{Seq: 1, Timestamp: at.Add(time.Second), ContentLength: 20},
		},
		Segments: []trajectory.Segment{
			{Start: 0, End: 1, Direction: trajectory.Expanding, Coherence: 1},
		},
		Direction:  trajectory.Expanding,
		Confidence: 1,
		History: []input.Event{
			{Type: input.EventInsert, Payload: "hello", Timestamp: at},
		},
		Options: config.DefaultOptions(),
	}
}

func TestSaveAndLatest(t *testing.T) {
	s := tempStore(t)
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	if err := s.SaveSnapshot(sampleSnapshot("sess-1", base)); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	newer := sampleSnapshot("sess-1", base.Add(time.Minute))
	newer.Direction = trajectory.Converging
	if err := s.SaveSnapshot(newer); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	got, err := s.Latest("sess-1")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if got.Direction != trajectory.Converging {
		t.Fatalf("expected newest snapshot, got direction %s", got.Direction)
	}
	if len(got.Points) != 2 || got.Points[1].ContentLength != 20 {
		t.Fatalf("points round-trip failed: %+v", got.Points)
	}
	if len(got.Segments) != 1 || got.Segments[0].Direction != trajectory.Expanding {
		t.Fatalf("segments round-trip failed: %+v", got.Segments)
	}
	if len(got.History) != 1 || got.History[0].Payload != "hello" {
		t.Fatalf("history round-trip failed: %+v", got.History)
	}
	if got.Options.TrajectoryWindowSize != 100 {
		t.Fatalf("options round-trip failed: %+v", got.Options)
	}
}

func TestListNewestFirst(t *testing.T) {
	s := tempStore(t)
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		snap := sampleSnapshot("sess-2", base.Add(time.Duration(i)*time.Minute))
		if err := s.SaveSnapshot(snap); err != nil {
			t.Fatalf("SaveSnapshot %d: %v", i, err)
		}
	}

	list, err := s.List(3)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(list))
	}
	if !list[0].CreatedAt.After(list[1].CreatedAt) {
		t.Fatal("list not newest-first")
	}
}

func TestJournalRoundTrip(t *testing.T) {
	s := tempStore(t)

	entries := []JournalEntry{
		{SessionID: "sess-3", EventSeq: 0, EventType: "insert", Decision: "processed"},
		{SessionID: "sess-3", EventSeq: 1, EventType: "delete", Decision: "rejected",
			Reason: "denied by security", ShieldFactor: 0.2},
	}
	for _, e := range entries {
		if err := s.LogDecision(e); err != nil {
			t.Fatalf("LogDecision: %v", err)
		}
	}

	got, err := s.Decisions("sess-3")
	if err != nil {
		t.Fatalf("Decisions: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[1].Decision != "rejected" || got[1].Reason != "denied by security" {
		t.Fatalf("journal entry mismatch: %+v", got[1])
	}
	if got[1].ShieldFactor != 0.2 {
		t.Fatalf("shield factor mismatch: %f", got[1].ShieldFactor)
	}
}
