package orchestrator

// #region imports
import (
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"edittrace/internal/config"
	"edittrace/internal/input"
	"edittrace/internal/render"
	"edittrace/internal/session"
	"edittrace/internal/shield"
	"edittrace/internal/trajectory"
)

// #endregion imports

// #region orchestrator-struct

// Orchestrator wires one input adapter, one trajectory engine, and one
// renderer into a fixed per-event pipeline. Each orchestrator exclusively
// owns its three components; collaborators are borrowed via Deps.
//
// Ownership is single-goroutine cooperative: one event runs the pipeline
// to completion before the next is accepted.
type Orchestrator struct {
	opts      config.Options
	deps      Deps
	sessionID string

	adapter  *input.Adapter
	engine   *trajectory.Engine
	renderer *render.Renderer
	mode     render.Mode

	callbacks []Callback
	state     State
	lastSave  time.Time
	now       func() time.Time
}

// #endregion orchestrator-struct

// #region constructor

// New creates a fully wired orchestrator. Collaborators are injected at
// construction; there is no process-wide default instance.
func New(opts config.Options, deps Deps) *Orchestrator {
	tcfg := trajectory.DefaultConfig()
	tcfg.WindowSize = opts.TrajectoryWindowSize
	tcfg.AnalysisDepth = opts.AnalysisDepth
	tcfg.DirectionThreshold = opts.DirectionThreshold
	tcfg.FlipThreshold = opts.DirectionFlipThreshold
	tcfg.MinPredictionConfidence = float32(opts.MinPredictionConfidence)
	tcfg.PredictionLookahead = opts.PredictionLookahead
	tcfg.CauseEffectDepth = opts.CauseEffectDepth

	icfg := input.DefaultConfig()
	icfg.HistorySize = opts.InputBufferSize
	icfg.StackDepth = opts.UndoStackDepth
	if opts.MetricsWindowSeconds > 0 {
		icfg.MetricsWindow = time.Duration(opts.MetricsWindowSeconds * float64(time.Second))
	}

	rcfg := render.DefaultConfig()
	rcfg.ExportLimit = opts.ExportLimit

	return &Orchestrator{
		opts:      opts,
		deps:      deps,
		sessionID: uuid.New().String(),
		adapter:   input.NewAdapter(icfg),
		engine:    trajectory.NewEngine(tcfg),
		renderer:  render.NewRenderer(rcfg),
		mode:      render.Mode(opts.VisualizationMode),
		state:     StateStopped,
		now:       time.Now,
	}
}

// SetClock replaces the orchestrator clock and propagates it to the owned
// components. Test hook.
func (o *Orchestrator) SetClock(now func() time.Time) {
	o.now = now
	o.adapter.SetClock(now)
	o.engine.SetClock(now)
}

// #endregion constructor

// #region registration

// RegisterCallback appends an event callback.
func (o *Orchestrator) RegisterCallback(cb Callback) {
	o.callbacks = append(o.callbacks, cb)
}

// RegisterSuggestionProvider forwards to the owned adapter. Providers are
// only registered while suggestions are enabled.
func (o *Orchestrator) RegisterSuggestionProvider(fn input.SuggestionProvider) {
	if !o.opts.EnableSuggestions {
		log.Printf("[ORCH] suggestions disabled, provider ignored")
		return
	}
	o.adapter.RegisterSuggestionProvider(fn)
}

// RegisterAnalyzer forwards a custom direction classifier to the engine.
func (o *Orchestrator) RegisterAnalyzer(fn trajectory.Analyzer) {
	o.engine.RegisterAnalyzer(fn)
}

// #endregion registration

// #region accessors

// State returns the lifecycle state.
func (o *Orchestrator) State() State { return o.state }

// SessionID identifies this orchestrator's session in snapshots and the
// decision journal.
func (o *Orchestrator) SessionID() string { return o.sessionID }

// Content returns the adapter's current content state.
func (o *Orchestrator) Content() string { return o.adapter.Content() }

// EngineSnapshot returns a read-only view of the trajectory engine.
func (o *Orchestrator) EngineSnapshot() trajectory.Snapshot { return o.engine.Snapshot() }

// Chain builds the backward cause-effect chain for the last n points.
func (o *Orchestrator) Chain(n int) trajectory.CauseEffectChain { return o.engine.Chain(n) }

// Renderer exposes the owned renderer for frame export.
func (o *Orchestrator) Renderer() *render.Renderer { return o.renderer }

// #endregion accessors

// #region lifecycle

// Start moves Stopped → Active.
func (o *Orchestrator) Start() error {
	if o.state != StateStopped {
		return ErrAlreadyRunning
	}
	o.state = StateActive
	o.lastSave = o.now()
	log.Printf("[ORCH] session %s started", o.sessionID)
	return nil
}

// Stop moves any state → Stopped and flushes a pending auto-save. Safe to
// call at any time, including from a callback mid-pipeline; the window,
// stacks, and segment list are left intact.
func (o *Orchestrator) Stop() {
	if o.state == StateStopped {
		return
	}
	o.state = StateStopped
	o.flushSave()
	log.Printf("[ORCH] session %s stopped", o.sessionID)
}

// #endregion lifecycle

// #region process-input

// ProcessInput runs the fixed pipeline for one event: authorize, adapt,
// track, predict, render, fan out, auto-save. Fails with ErrNotRunning on
// a stopped orchestrator and with ErrBusy if called re-entrantly while an
// event is mid-pipeline (busy calls fail fast; they are never queued).
func (o *Orchestrator) ProcessInput(ev input.Event) (Result, error) {
	switch o.state {
	case StateStopped:
		return Result{}, ErrNotRunning
	case StateWorking:
		return Result{}, ErrBusy
	}

	o.state = StateWorking
	defer func() {
		// Stop() from a callback wins over returning to Active.
		if o.state == StateWorking {
			o.state = StateActive
		}
	}()

	res := Result{Event: ev}

	// 1. Security gate. A denial is a reported outcome, not an error, and
	// leaves all component state untouched.
	if o.opts.EnableSecurity && o.deps.Authorizer != nil {
		dec := o.deps.Authorizer.Authorize(classFor(ev.Type))
		res.Security = &dec
		if !dec.Allowed {
			log.Printf("[ORCH] %s denied (risk=%s shield=%.2f)", ev.Type, dec.RiskLevel, dec.ShieldFactor)
			o.journal(ev, -1, "rejected", "denied by security", dec.ShieldFactor)
			return res, nil
		}
	}

	// 2. Input adapter.
	ctx, err := o.adapter.SubmitEvent(ev)
	if err != nil && !errors.Is(err, input.ErrEmptyStack) {
		o.journal(ev, -1, "error", err.Error(), 0)
		return Result{}, err
	}
	res.Context = ctx

	// 3. Trajectory engine.
	point := o.engine.AddPoint(len([]rune(o.adapter.Content())), map[string]string{
		"event": string(ev.Type),
	})
	res.Point = point
	res.Direction = o.engine.Direction()
	res.Confidence = o.engine.Confidence()
	res.Segments = o.engine.Segments()

	// 4. Predictions.
	if o.opts.EnablePredictions {
		res.Predictions = o.engine.Predictions(o.opts.PredictionLookahead)
	}

	// 5. Suggestions were gathered in step 2.
	if o.opts.EnableSuggestions {
		res.Suggestions = ctx.Suggestions
	}

	// 6. Render the current snapshot.
	snap := o.engine.Snapshot()
	frame, rerr := o.renderer.Render(snap, o.mode)
	if rerr != nil {
		log.Printf("[ORCH] render failed: %v", rerr)
	} else {
		res.Frame = &frame
	}

	res.Accepted = true
	o.journal(ev, point.Seq, "processed", "", securityFactor(res.Security))

	// 7. Callback fan-out, panic-isolated.
	for i, cb := range o.callbacks {
		o.invokeCallback(i, cb, res)
	}

	// 8. Auto-save check.
	o.maybeAutoSave(snap)

	// 9. Result bundle.
	return res, nil
}

func classFor(t input.EventType) shield.OperationClass {
	switch t {
	case input.EventUndo, input.EventRedo:
		return shield.OpUndoRedo
	default:
		return shield.OpMutateContent
	}
}

func securityFactor(dec *shield.Decision) float32 {
	if dec == nil {
		return 0
	}
	return dec.ShieldFactor
}

func (o *Orchestrator) invokeCallback(i int, cb Callback, res Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ORCH] callback %d panicked: %v", i, r)
		}
	}()
	cb(res)
}

// #endregion process-input

// #region auto-save

// maybeAutoSave delegates a session snapshot to the persistence
// collaborator once the configured interval has elapsed.
func (o *Orchestrator) maybeAutoSave(snap trajectory.Snapshot) {
	if o.deps.Saver == nil || o.opts.AutoSaveIntervalSeconds <= 0 {
		return
	}
	interval := time.Duration(o.opts.AutoSaveIntervalSeconds * float64(time.Second))
	if o.now().Sub(o.lastSave) < interval {
		return
	}
	o.save(snap)
	o.lastSave = o.now()
}

// flushSave writes a final snapshot on Stop.
func (o *Orchestrator) flushSave() {
	if o.deps.Saver == nil || o.opts.AutoSaveIntervalSeconds <= 0 {
		return
	}
	o.save(o.engine.Snapshot())
	o.lastSave = o.now()
}

func (o *Orchestrator) save(snap trajectory.Snapshot) {
	err := o.deps.Saver.SaveSnapshot(session.Snapshot{
		SessionID:  o.sessionID,
		CreatedAt:  o.now(),
		Points:     snap.Points,
		Segments:   snap.Segments,
		Direction:  snap.Direction,
		Confidence: snap.Confidence,
		History:    o.adapter.History(),
		Options:    o.opts,
	})
	if err != nil {
		log.Printf("[ORCH] auto-save failed: %v", err)
	}
}

// #endregion auto-save

// #region journal

func (o *Orchestrator) journal(ev input.Event, seq int, decision, reason string, shieldFactor float32) {
	if o.deps.Journal == nil {
		return
	}
	err := o.deps.Journal.LogDecision(session.JournalEntry{
		SessionID:    o.sessionID,
		EventSeq:     seq,
		EventType:    string(ev.Type),
		Decision:     decision,
		Reason:       reason,
		ShieldFactor: shieldFactor,
		CreatedAt:    o.now(),
	})
	if err != nil {
		log.Printf("[ORCH] journal write failed: %v", err)
	}
}

// #endregion journal
