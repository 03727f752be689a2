package orchestrator

import (
	"errors"

	"edittrace/internal/input"
	"edittrace/internal/render"
	"edittrace/internal/session"
	"edittrace/internal/shield"
	"edittrace/internal/trajectory"
)

// #region state

// State is the orchestrator lifecycle state.
type State string

const (
	StateStopped State = "stopped"
	StateActive  State = "active"
	StateWorking State = "working"
)

// #endregion state

// #region errors

var (
	// ErrAlreadyRunning is returned by Start on a non-stopped orchestrator.
	ErrAlreadyRunning = errors.New("orchestrator already running")
	// ErrNotRunning is returned by ProcessInput on a stopped orchestrator.
	ErrNotRunning = errors.New("orchestrator not running")
	// ErrBusy is returned by ProcessInput while another event is mid-pipeline.
	ErrBusy = errors.New("orchestrator busy processing another event")
)

// #endregion errors

// #region result

// Result is the per-event bundle handed to callbacks and returned to the
// caller. Accepted is false only for a security denial, which is a normal
// outcome, not an error.
type Result struct {
	Accepted    bool
	Event       input.Event
	Context     input.AdaptationContext
	Point       trajectory.Point
	Direction   trajectory.Direction
	Confidence  float32
	Segments    []trajectory.Segment
	Predictions []trajectory.Prediction
	Suggestions []string
	Frame       *render.Frame
	Security    *shield.Decision
}

// Callback receives the per-event result bundle. Panics are caught and
// logged; the return value is ignored.
type Callback func(res Result)

// #endregion result

// #region deps

// Journal records per-event pipeline decisions. *session.Store satisfies it.
type Journal interface {
	LogDecision(entry session.JournalEntry) error
}

// Deps are the injected external collaborators. Any of them may be nil:
// a nil Authorizer disables the security gate regardless of configuration,
// a nil Saver disables auto-save, a nil Journal disables decision logging.
type Deps struct {
	Authorizer shield.Authorizer
	Saver      session.Saver
	Journal    Journal
}

// #endregion deps
