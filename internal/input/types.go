package input

import (
	"errors"
	"fmt"
	"time"
)

// #region event

// EventType enumerates the edit operations the adapter accepts.
type EventType string

const (
	EventInsert  EventType = "insert"
	EventDelete  EventType = "delete"
	EventReplace EventType = "replace"
	EventUndo    EventType = "undo"
	EventRedo    EventType = "redo"
)

// Event is one edit operation. Position and Length are rune offsets into
// the current content; Payload is the inserted or replacement text. Undo
// and redo ignore all three.
type Event struct {
	Type      EventType
	Position  int
	Length    int
	Payload   string
	Timestamp time.Time
}

// #endregion event

// #region context

// Span is a run of text at a rune offset.
type Span struct {
	Position int
	Text     string
}

// DiffSummary describes the added and removed spans between two content
// snapshots.
type DiffSummary struct {
	Added   []Span
	Removed []Span
}

// AdaptationContext is produced per event and not retained. Velocity is
// characters changed per second and intensity is events per second, both
// over the trailing metrics window.
type AdaptationContext struct {
	TypingVelocity float64
	EditIntensity  float64
	Suggestions    []string
	Diff           DiffSummary
}

// SuggestionProvider derives short hints from a per-event context.
// Providers run in registration order; a panicking provider is logged and
// skipped, never propagated.
type SuggestionProvider func(ctx AdaptationContext) []string

// #endregion context

// #region errors

// ValidationError reports a malformed event. The event is rejected with no
// state mutation.
type ValidationError struct {
	Event    EventType
	Position int
	Reason   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s event at position %d: %s", e.Event, e.Position, e.Reason)
}

// ErrEmptyStack is returned by undo/redo on an empty stack. The adapter
// recovers locally and hands back a no-op context.
var ErrEmptyStack = errors.New("undo/redo stack is empty")

// #endregion errors

// #region config

// Config holds adapter buffer sizes and the metrics window.
type Config struct {
	HistorySize   int           // bounded event history, oldest dropped
	StackDepth    int           // bounded undo/redo stacks, oldest dropped
	MetricsWindow time.Duration // trailing window for velocity/intensity
}

// DefaultConfig returns the adapter defaults.
func DefaultConfig() Config {
	return Config{
		HistorySize:   50,
		StackDepth:    100,
		MetricsWindow: 5 * time.Second,
	}
}

// #endregion config
