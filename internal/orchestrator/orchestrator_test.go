package orchestrator

import (
	"errors"
	"testing"
	"time"

	"edittrace/internal/config"
	"edittrace/internal/input"
	"edittrace/internal/session"
	"edittrace/internal/shield"
	"edittrace/internal/trajectory"
)

// #region fakes

type fakeSaver struct {
	snapshots []session.Snapshot
	fail      bool
}

func (f *fakeSaver) SaveSnapshot(snap session.Snapshot) error {
	if f.fail {
		return errors.New("disk full")
	}
	f.snapshots = append(f.snapshots, snap)
	return nil
}

type fakeJournal struct {
	entries []session.JournalEntry
}

func (f *fakeJournal) LogDecision(e session.JournalEntry) error {
	f.entries = append(f.entries, e)
	return nil
}

type denyMutations struct{}

func (denyMutations) Authorize(class shield.OperationClass) shield.Decision {
	return shield.Decision{
		Allowed:      class != shield.OpMutateContent,
		ShieldFactor: 0.25,
		RiskLevel:    "high",
	}
}

// #endregion fakes

func testOrchestrator(t *testing.T, opts config.Options, deps Deps) (*Orchestrator, *time.Time) {
	t.Helper()
	o := New(opts, deps)
	now := time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC)
	o.SetClock(func() time.Time { return now })
	return o, &now
}

func insert(text string, pos int) input.Event {
	return input.Event{Type: input.EventInsert, Position: pos, Payload: text}
}

func TestLifecycle(t *testing.T) {
	o, _ := testOrchestrator(t, config.DefaultOptions(), Deps{})

	if o.State() != StateStopped {
		t.Fatalf("initial state = %s", o.State())
	}
	if err := o.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := o.Start(); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("second Start: %v", err)
	}
	o.Stop()
	if o.State() != StateStopped {
		t.Fatalf("state after Stop = %s", o.State())
	}
	o.Stop() // idempotent
}

func TestProcessInputWhileStopped(t *testing.T) {
	o, _ := testOrchestrator(t, config.DefaultOptions(), Deps{})

	_, err := o.ProcessInput(insert("hi", 0))
	if !errors.Is(err, ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning, got %v", err)
	}
	if len(o.EngineSnapshot().Points) != 0 || o.Content() != "" {
		t.Fatal("stopped ProcessInput mutated state")
	}
}

func TestFullPipelineResult(t *testing.T) {
	opts := config.DefaultOptions()
	o, _ := testOrchestrator(t, opts, Deps{})
	o.RegisterSuggestionProvider(func(input.AdaptationContext) []string {
		return []string{"hint"}
	})
	if err := o.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	var res Result
	var err error
	for i := 0; i < 5; i++ {
		res, err = o.ProcessInput(insert("0123456789", 0))
		if err != nil {
			t.Fatalf("ProcessInput %d: %v", i, err)
		}
	}

	if !res.Accepted {
		t.Fatal("expected accepted result")
	}
	if res.Point.Seq != 4 || res.Point.ContentLength != 50 {
		t.Fatalf("point = %+v", res.Point)
	}
	if res.Direction != trajectory.Expanding {
		t.Fatalf("direction = %s", res.Direction)
	}
	if res.Confidence < 0.7 {
		t.Fatalf("confidence = %.2f", res.Confidence)
	}
	if len(res.Segments) != 1 {
		t.Fatalf("segments = %+v", res.Segments)
	}
	if len(res.Predictions) == 0 {
		t.Fatal("predictions missing")
	}
	if len(res.Suggestions) != 1 || res.Suggestions[0] != "hint" {
		t.Fatalf("suggestions = %v", res.Suggestions)
	}
	if res.Frame == nil || res.Frame.Mode != "timeline" {
		t.Fatalf("frame = %+v", res.Frame)
	}
	if o.State() != StateActive {
		t.Fatalf("state after pipeline = %s", o.State())
	}
}

func TestPredictionsDisabled(t *testing.T) {
	opts := config.DefaultOptions()
	opts.EnablePredictions = false
	o, _ := testOrchestrator(t, opts, Deps{})
	o.Start()

	res, err := o.ProcessInput(insert("abc", 0))
	if err != nil {
		t.Fatalf("ProcessInput: %v", err)
	}
	if res.Predictions != nil {
		t.Fatalf("predictions should be disabled, got %v", res.Predictions)
	}
}

func TestSecurityDenialLeavesStateUntouched(t *testing.T) {
	opts := config.DefaultOptions()
	opts.EnableSecurity = true
	journal := &fakeJournal{}
	o, _ := testOrchestrator(t, opts, Deps{Authorizer: denyMutations{}, Journal: journal})
	o.Start()

	res, err := o.ProcessInput(insert("blocked", 0))
	if err != nil {
		t.Fatalf("denial must not be an error: %v", err)
	}
	if res.Accepted {
		t.Fatal("expected rejected result")
	}
	if res.Security == nil || res.Security.Allowed {
		t.Fatalf("security = %+v", res.Security)
	}
	if len(o.EngineSnapshot().Points) != 0 || o.Content() != "" {
		t.Fatal("denied event mutated state")
	}
	if len(journal.entries) != 1 || journal.entries[0].Decision != "rejected" {
		t.Fatalf("journal = %+v", journal.entries)
	}

	// The sequence index must not advance across a denial.
	allowed := shield.AllowAll()
	o2, _ := testOrchestrator(t, opts, Deps{Authorizer: allowed})
	o2.Start()
	if _, err := o2.ProcessInput(insert("ok", 0)); err != nil {
		t.Fatalf("ProcessInput: %v", err)
	}
	if got := o2.EngineSnapshot().Points[0].Seq; got != 0 {
		t.Fatalf("first accepted point seq = %d", got)
	}
}

func TestValidationErrorSurfacedWithoutMutation(t *testing.T) {
	o, _ := testOrchestrator(t, config.DefaultOptions(), Deps{})
	o.Start()

	_, err := o.ProcessInput(insert("x", 99))
	var verr *input.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(o.EngineSnapshot().Points) != 0 {
		t.Fatal("rejected event produced a trajectory point")
	}
}

func TestUndoOnEmptyStackStillTracks(t *testing.T) {
	o, _ := testOrchestrator(t, config.DefaultOptions(), Deps{})
	o.Start()

	res, err := o.ProcessInput(input.Event{Type: input.EventUndo})
	if err != nil {
		t.Fatalf("empty-stack undo must be recovered: %v", err)
	}
	if !res.Accepted {
		t.Fatal("expected accepted no-op result")
	}
	if len(o.EngineSnapshot().Points) != 1 {
		t.Fatal("no-op undo should still record a trajectory point")
	}
}

func TestBusyOnReentrantCall(t *testing.T) {
	o, _ := testOrchestrator(t, config.DefaultOptions(), Deps{})
	var reentrant error
	o.RegisterCallback(func(Result) {
		_, reentrant = o.ProcessInput(insert("again", 0))
	})
	o.Start()

	if _, err := o.ProcessInput(insert("first", 0)); err != nil {
		t.Fatalf("ProcessInput: %v", err)
	}
	if !errors.Is(reentrant, ErrBusy) {
		t.Fatalf("expected ErrBusy from re-entrant call, got %v", reentrant)
	}
}

func TestCallbackPanicIsolated(t *testing.T) {
	o, _ := testOrchestrator(t, config.DefaultOptions(), Deps{})
	secondRan := false
	o.RegisterCallback(func(Result) { panic("bad callback") })
	o.RegisterCallback(func(Result) { secondRan = true })
	o.Start()

	if _, err := o.ProcessInput(insert("x", 0)); err != nil {
		t.Fatalf("ProcessInput: %v", err)
	}
	if !secondRan {
		t.Fatal("panicking callback blocked later callbacks")
	}
}

func TestStopFromCallbackMidPipeline(t *testing.T) {
	o, _ := testOrchestrator(t, config.DefaultOptions(), Deps{})
	o.RegisterCallback(func(Result) { o.Stop() })
	o.Start()

	if _, err := o.ProcessInput(insert("x", 0)); err != nil {
		t.Fatalf("ProcessInput: %v", err)
	}
	if o.State() != StateStopped {
		t.Fatalf("Stop from callback lost: state = %s", o.State())
	}
	// Window survived intact.
	if len(o.EngineSnapshot().Points) != 1 {
		t.Fatal("stop corrupted the window")
	}
}

func TestAutoSaveIntervalAndFlush(t *testing.T) {
	opts := config.DefaultOptions()
	opts.AutoSaveIntervalSeconds = 10
	saver := &fakeSaver{}
	o, now := testOrchestrator(t, opts, Deps{Saver: saver})
	o.Start()

	*now = now.Add(3 * time.Second)
	o.ProcessInput(insert("a", 0))
	if len(saver.snapshots) != 0 {
		t.Fatal("saved before the interval elapsed")
	}

	*now = now.Add(8 * time.Second) // 11s since start
	o.ProcessInput(insert("b", 1))
	if len(saver.snapshots) != 1 {
		t.Fatalf("expected 1 auto-save, got %d", len(saver.snapshots))
	}
	snap := saver.snapshots[0]
	if snap.SessionID != o.SessionID() || len(snap.Points) != 2 || len(snap.History) != 2 {
		t.Fatalf("snapshot = %+v", snap)
	}

	o.Stop()
	if len(saver.snapshots) != 2 {
		t.Fatalf("Stop did not flush, saves = %d", len(saver.snapshots))
	}
}

func TestAutoSaveErrorDoesNotPropagate(t *testing.T) {
	opts := config.DefaultOptions()
	opts.AutoSaveIntervalSeconds = 1
	o, now := testOrchestrator(t, opts, Deps{Saver: &fakeSaver{fail: true}})
	o.Start()

	*now = now.Add(5 * time.Second)
	if _, err := o.ProcessInput(insert("x", 0)); err != nil {
		t.Fatalf("saver failure leaked: %v", err)
	}
}

func TestJournalRecordsProcessedEvents(t *testing.T) {
	journal := &fakeJournal{}
	o, _ := testOrchestrator(t, config.DefaultOptions(), Deps{Journal: journal})
	o.Start()

	o.ProcessInput(insert("abc", 0))
	o.ProcessInput(input.Event{Type: input.EventUndo})

	if len(journal.entries) != 2 {
		t.Fatalf("journal entries = %d", len(journal.entries))
	}
	if journal.entries[0].Decision != "processed" || journal.entries[0].EventSeq != 0 {
		t.Fatalf("entry 0 = %+v", journal.entries[0])
	}
	if journal.entries[1].EventType != "undo" {
		t.Fatalf("entry 1 = %+v", journal.entries[1])
	}
}
