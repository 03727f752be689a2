package session

// #region imports
import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"edittrace/internal/trajectory"
)

// #endregion imports

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS session_snapshots (
	snapshot_id   TEXT PRIMARY KEY,
	session_id    TEXT NOT NULL,
	created_at    TEXT NOT NULL,
	direction     TEXT NOT NULL,
	confidence    REAL NOT NULL,
	points_json   TEXT NOT NULL,
	segments_json TEXT NOT NULL,
	history_json  TEXT NOT NULL,
	options_json  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_session
ON session_snapshots(session_id, created_at);

CREATE TABLE IF NOT EXISTS decision_journal (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id    TEXT NOT NULL,
	event_seq     INTEGER NOT NULL,
	event_type    TEXT NOT NULL,
	decision      TEXT NOT NULL,
	reason        TEXT,
	shield_factor REAL NOT NULL DEFAULT 0,
	created_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_journal_session
ON decision_journal(session_id, event_seq);
`

// #endregion schema

// #region store-struct

// Store persists session snapshots and the decision journal in SQLite.
// It implements Saver.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the raw database handle for tooling that reads the stored
// JSON columns directly.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion store-struct

// #region save

// SaveSnapshot durably stores one session snapshot.
func (s *Store) SaveSnapshot(snap Snapshot) error {
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now().UTC()
	}

	points, err := json.Marshal(snap.Points)
	if err != nil {
		return fmt.Errorf("marshal points: %w", err)
	}
	segments, err := json.Marshal(snap.Segments)
	if err != nil {
		return fmt.Errorf("marshal segments: %w", err)
	}
	history, err := json.Marshal(snap.History)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	options, err := json.Marshal(snap.Options)
	if err != nil {
		return fmt.Errorf("marshal options: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO session_snapshots
		 (snapshot_id, session_id, created_at, direction, confidence,
		  points_json, segments_json, history_json, options_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), snap.SessionID,
		snap.CreatedAt.Format(time.RFC3339Nano),
		string(snap.Direction), snap.Confidence,
		string(points), string(segments), string(history), string(options),
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// #endregion save

// #region load

// Latest returns the most recent snapshot for a session.
func (s *Store) Latest(sessionID string) (Snapshot, error) {
	row := s.db.QueryRow(
		`SELECT session_id, created_at, direction, confidence,
		        points_json, segments_json, history_json, options_json
		 FROM session_snapshots WHERE session_id = ?
		 ORDER BY created_at DESC LIMIT 1`, sessionID,
	)
	return scanSnapshot(row)
}

// List returns the newest snapshots across sessions, newest first.
func (s *Store) List(limit int) ([]Snapshot, error) {
	rows, err := s.db.Query(
		`SELECT session_id, created_at, direction, confidence,
		        points_json, segments_json, history_json, options_json
		 FROM session_snapshots ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (Snapshot, error) {
	var snap Snapshot
	var createdStr, direction string
	var points, segments, history, options string

	err := row.Scan(&snap.SessionID, &createdStr, &direction, &snap.Confidence,
		&points, &segments, &history, &options)
	if err != nil {
		return Snapshot{}, fmt.Errorf("scan snapshot: %w", err)
	}

	snap.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	snap.Direction = trajectory.Direction(direction)
	if err := json.Unmarshal([]byte(points), &snap.Points); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal points: %w", err)
	}
	if err := json.Unmarshal([]byte(segments), &snap.Segments); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal segments: %w", err)
	}
	if err := json.Unmarshal([]byte(history), &snap.History); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal history: %w", err)
	}
	if err := json.Unmarshal([]byte(options), &snap.Options); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal options: %w", err)
	}
	return snap, nil
}

// #endregion load

// #region journal

// LogDecision appends one pipeline decision to the journal.
func (s *Store) LogDecision(entry JournalEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO decision_journal
		 (session_id, event_seq, event_type, decision, reason, shield_factor, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.SessionID, entry.EventSeq, entry.EventType, entry.Decision,
		entry.Reason, entry.ShieldFactor,
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert journal entry: %w", err)
	}
	return nil
}

// Decisions returns the journal for a session in event order.
func (s *Store) Decisions(sessionID string) ([]JournalEntry, error) {
	rows, err := s.db.Query(
		`SELECT session_id, event_seq, event_type, decision, reason, shield_factor, created_at
		 FROM decision_journal WHERE session_id = ? ORDER BY event_seq`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	defer rows.Close()

	var out []JournalEntry
	for rows.Next() {
		var e JournalEntry
		var reason sql.NullString
		var createdStr string
		if err := rows.Scan(&e.SessionID, &e.EventSeq, &e.EventType, &e.Decision,
			&reason, &e.ShieldFactor, &createdStr); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		e.Reason = reason.String
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, e)
	}
	return out, rows.Err()
}

// #endregion journal
