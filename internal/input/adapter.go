package input

// #region imports
import (
	"log"
	"time"
)

// #endregion imports

// #region edit

// edit is an explicit inverse-edit value object. Undo and redo apply
// stored edits instead of replaying the forward event log, so what "undo"
// reconstructs is never ambiguous.
type edit struct {
	typ    EventType // insert, delete, or replace
	pos    int
	text   string // text to insert (insert/replace)
	length int    // runes to remove (delete/replace)
}

// #endregion edit

// #region adapter-struct

// Adapter ingests edit events, maintains content state with undo/redo
// stacks, and computes per-event velocity/intensity metrics. Owned by a
// single orchestrator.
type Adapter struct {
	cfg       Config
	content   []rune
	history   []Event
	undo      []edit
	redo      []edit
	providers []SuggestionProvider
	samples   []metricSample
	now       func() time.Time
}

type metricSample struct {
	at    time.Time
	chars int
}

// NewAdapter creates an adapter with the given configuration.
func NewAdapter(cfg Config) *Adapter {
	if cfg.HistorySize < 1 {
		cfg.HistorySize = DefaultConfig().HistorySize
	}
	if cfg.StackDepth < 1 {
		cfg.StackDepth = DefaultConfig().StackDepth
	}
	if cfg.MetricsWindow <= 0 {
		cfg.MetricsWindow = DefaultConfig().MetricsWindow
	}
	return &Adapter{cfg: cfg, now: time.Now}
}

// SetClock replaces the adapter clock. Test hook.
func (a *Adapter) SetClock(now func() time.Time) {
	a.now = now
}

// #endregion adapter-struct

// #region accessors

// Content returns the current content state.
func (a *Adapter) Content() string {
	return string(a.content)
}

// History returns a copy of the bounded event history, oldest first.
func (a *Adapter) History() []Event {
	out := make([]Event, len(a.history))
	copy(out, a.history)
	return out
}

// #endregion accessors

// #region register-provider

// RegisterSuggestionProvider appends a provider. Providers are invoked in
// registration order; no other ordering is guaranteed.
func (a *Adapter) RegisterSuggestionProvider(fn SuggestionProvider) {
	a.providers = append(a.providers, fn)
}

// #endregion register-provider

// #region submit

// SubmitEvent validates and applies one event, records it in the bounded
// history, maintains the undo/redo stacks, recomputes trailing metrics,
// and gathers suggestions. A *ValidationError leaves all state untouched.
// Undo/redo on an empty stack returns a no-op context with ErrEmptyStack.
func (a *Adapter) SubmitEvent(ev Event) (AdaptationContext, error) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = a.now()
	}

	if err := a.validate(ev); err != nil {
		return AdaptationContext{}, err
	}

	before := string(a.content)
	changed, err := a.apply(ev)
	if err != nil {
		log.Printf("[INPUT] %s on empty stack, no-op", ev.Type)
		return AdaptationContext{}, err
	}

	a.pushHistory(ev)
	a.samples = append(a.samples, metricSample{at: ev.Timestamp, chars: changed})

	ctx := AdaptationContext{
		Diff: Diff(before, string(a.content)),
	}
	ctx.TypingVelocity, ctx.EditIntensity = a.metrics(ev.Timestamp)
	ctx.Suggestions = a.gatherSuggestions(ctx)
	return ctx, nil
}

// #endregion submit

// #region validate

func (a *Adapter) validate(ev Event) error {
	switch ev.Type {
	case EventInsert:
		if ev.Position < 0 || ev.Position > len(a.content) {
			return &ValidationError{Event: ev.Type, Position: ev.Position, Reason: "position out of bounds"}
		}
	case EventDelete, EventReplace:
		if ev.Position < 0 || ev.Position > len(a.content) {
			return &ValidationError{Event: ev.Type, Position: ev.Position, Reason: "position out of bounds"}
		}
		if ev.Length < 0 || ev.Position+ev.Length > len(a.content) {
			return &ValidationError{Event: ev.Type, Position: ev.Position, Reason: "length exceeds content bounds"}
		}
	case EventUndo, EventRedo:
		// Position and payload are ignored.
	default:
		return &ValidationError{Event: ev.Type, Position: ev.Position, Reason: "unknown event type"}
	}
	return nil
}

// #endregion validate

// #region apply

// apply mutates content and the undo/redo stacks, returning the number of
// characters changed.
func (a *Adapter) apply(ev Event) (int, error) {
	switch ev.Type {
	case EventInsert, EventDelete, EventReplace:
		fwd := edit{typ: ev.Type, pos: ev.Position, text: ev.Payload, length: ev.Length}
		inverse, changed := a.applyEdit(fwd)
		a.undo = pushBounded(a.undo, inverse, a.cfg.StackDepth)
		a.redo = nil
		return changed, nil

	case EventUndo:
		if len(a.undo) == 0 {
			return 0, ErrEmptyStack
		}
		top := a.undo[len(a.undo)-1]
		a.undo = a.undo[:len(a.undo)-1]
		inverse, changed := a.applyEdit(top)
		a.redo = pushBounded(a.redo, inverse, a.cfg.StackDepth)
		return changed, nil

	case EventRedo:
		if len(a.redo) == 0 {
			return 0, ErrEmptyStack
		}
		top := a.redo[len(a.redo)-1]
		a.redo = a.redo[:len(a.redo)-1]
		inverse, changed := a.applyEdit(top)
		a.undo = pushBounded(a.undo, inverse, a.cfg.StackDepth)
		return changed, nil
	}
	return 0, nil
}

// applyEdit performs one edit on the content and returns its inverse plus
// the character change count.
func (a *Adapter) applyEdit(e edit) (edit, int) {
	switch e.typ {
	case EventInsert:
		ins := []rune(e.text)
		rest := append([]rune{}, a.content[e.pos:]...)
		a.content = append(append(a.content[:e.pos], ins...), rest...)
		return edit{typ: EventDelete, pos: e.pos, length: len(ins)}, len(ins)

	case EventDelete:
		removed := string(a.content[e.pos : e.pos+e.length])
		a.content = append(a.content[:e.pos], a.content[e.pos+e.length:]...)
		return edit{typ: EventInsert, pos: e.pos, text: removed}, e.length

	case EventReplace:
		removed := string(a.content[e.pos : e.pos+e.length])
		ins := []rune(e.text)
		rest := append([]rune{}, a.content[e.pos+e.length:]...)
		a.content = append(append(a.content[:e.pos], ins...), rest...)
		return edit{typ: EventReplace, pos: e.pos, text: removed, length: len(ins)}, e.length + len(ins)
	}
	return edit{}, 0
}

func pushBounded(stack []edit, e edit, depth int) []edit {
	if len(stack) >= depth {
		stack = stack[1:]
	}
	return append(stack, e)
}

// #endregion apply

// #region history

func (a *Adapter) pushHistory(ev Event) {
	if len(a.history) >= a.cfg.HistorySize {
		a.history = a.history[1:]
	}
	a.history = append(a.history, ev)
}

// #endregion history

// #region metrics

// metrics recomputes typing velocity (chars/s) and edit intensity
// (events/s) over the trailing metrics window ending at now.
func (a *Adapter) metrics(now time.Time) (float64, float64) {
	cutoff := now.Add(-a.cfg.MetricsWindow)
	kept := a.samples[:0]
	for _, s := range a.samples {
		if s.at.After(cutoff) {
			kept = append(kept, s)
		}
	}
	a.samples = kept

	chars := 0
	for _, s := range a.samples {
		chars += s.chars
	}
	seconds := a.cfg.MetricsWindow.Seconds()
	return float64(chars) / seconds, float64(len(a.samples)) / seconds
}

// #endregion metrics

// #region suggestions

// gatherSuggestions runs every registered provider, isolating panics so one
// bad plugin never breaks event processing.
func (a *Adapter) gatherSuggestions(ctx AdaptationContext) []string {
	var out []string
	for i, fn := range a.providers {
		out = append(out, a.callProvider(i, fn, ctx)...)
	}
	return out
}

func (a *Adapter) callProvider(i int, fn SuggestionProvider, ctx AdaptationContext) (res []string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[INPUT] suggestion provider %d panicked: %v", i, r)
			res = nil
		}
	}()
	return fn(ctx)
}

// #endregion suggestions
