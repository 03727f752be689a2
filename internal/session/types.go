package session

import (
	"time"

	"edittrace/internal/config"
	"edittrace/internal/input"
	"edittrace/internal/trajectory"
)

// #region snapshot

// Snapshot is the serializable session state handed to the persistence
// collaborator: the point window, segments, adapter history, and the
// configuration in force.
type Snapshot struct {
	SessionID  string
	CreatedAt  time.Time
	Points     []trajectory.Point
	Segments   []trajectory.Segment
	Direction  trajectory.Direction
	Confidence float32
	History    []input.Event
	Options    config.Options
}

// #endregion snapshot

// #region saver

// Saver is the injected persistence capability. Storage format is entirely
// the collaborator's concern.
type Saver interface {
	SaveSnapshot(snap Snapshot) error
}

// #endregion saver

// #region journal

// JournalEntry records one pipeline decision for a processed event.
type JournalEntry struct {
	SessionID    string
	EventSeq     int
	EventType    string
	Decision     string // "processed" | "rejected" | "error"
	Reason       string
	ShieldFactor float32
	CreatedAt    time.Time
}

// #endregion journal
