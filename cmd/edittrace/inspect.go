package main

// #region imports
import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"edittrace/internal/session"
)

// #endregion imports

// #region command

var (
	flagLast    int
	flagSession string
	flagJSON    bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "show stored session snapshots and the decision journal",
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagDB == "" {
			return fmt.Errorf("inspect requires --db")
		}
		store, err := session.NewStore(flagDB)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer store.Close()

		if flagSession != "" {
			return inspectSession(store, flagSession)
		}
		return listSnapshots(store, flagLast)
	},
}

func init() {
	inspectCmd.Flags().IntVar(&flagLast, "last", 20, "show N most recent snapshots")
	inspectCmd.Flags().StringVar(&flagSession, "session", "", "show one session's journal and latest snapshot")
	inspectCmd.Flags().BoolVar(&flagJSON, "json", false, "output as JSON instead of a table")
}

// #endregion command

// #region list-mode

type snapshotRow struct {
	SnapshotID string  `json:"snapshot_id"`
	SessionID  string  `json:"session_id"`
	CreatedAt  string  `json:"created_at"`
	Direction  string  `json:"direction"`
	Confidence float64 `json:"confidence"`
	Points     int64   `json:"points"`
	Segments   int64   `json:"segments"`
	LastLength int64   `json:"last_length"`
	Mode       string  `json:"mode"`
}

// listSnapshots reads the raw snapshot rows and summarizes the JSON columns
// without unmarshaling the whole payload.
func listSnapshots(store *session.Store, limit int) error {
	rows, err := store.DB().Query(
		`SELECT snapshot_id, session_id, created_at, direction, confidence,
		        points_json, segments_json, options_json
		 FROM session_snapshots ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var out []snapshotRow
	for rows.Next() {
		var r snapshotRow
		var points, segments, options string
		if err := rows.Scan(&r.SnapshotID, &r.SessionID, &r.CreatedAt,
			&r.Direction, &r.Confidence, &points, &segments, &options); err != nil {
			return fmt.Errorf("scan snapshot: %w", err)
		}
		r.Points = gjson.Get(points, "#").Int()
		r.Segments = gjson.Get(segments, "#").Int()
		if r.Points > 0 {
			r.LastLength = gjson.Get(points, fmt.Sprintf("%d.ContentLength", r.Points-1)).Int()
		}
		r.Mode = gjson.Get(options, "VisualizationMode").String()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if flagJSON {
		return json.NewEncoder(os.Stdout).Encode(out)
	}
	fmt.Printf("%-10s %-12s %-25s %-10s %5s %6s %4s %6s\n",
		"snapshot", "session", "created", "direction", "conf", "points", "seg", "len")
	for _, r := range out {
		fmt.Printf("%-10.8s %-12.10s %-25s %-10s %5.2f %6d %4d %6d\n",
			r.SnapshotID, r.SessionID, r.CreatedAt, r.Direction,
			r.Confidence, r.Points, r.Segments, r.LastLength)
	}
	return nil
}

// #endregion list-mode

// #region session-mode

// inspectSession prints one session's latest snapshot and its full
// decision journal.
func inspectSession(store *session.Store, sessionID string) error {
	snap, err := store.Latest(sessionID)
	if err != nil {
		return fmt.Errorf("latest snapshot: %w", err)
	}
	entries, err := store.Decisions(sessionID)
	if err != nil {
		return fmt.Errorf("journal: %w", err)
	}

	if flagJSON {
		return json.NewEncoder(os.Stdout).Encode(struct {
			Snapshot session.Snapshot       `json:"snapshot"`
			Journal  []session.JournalEntry `json:"journal"`
		}{snap, entries})
	}

	fmt.Printf("session %s at %s\n", snap.SessionID, snap.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("direction=%s confidence=%.2f points=%d events=%d\n",
		snap.Direction, snap.Confidence, len(snap.Points), len(snap.History))
	for _, seg := range snap.Segments {
		fmt.Printf("  segment [%d..%d] %s coherence=%.2f\n",
			seg.Start, seg.End, seg.Direction, seg.Coherence)
	}
	fmt.Println("journal:")
	for _, e := range entries {
		line := fmt.Sprintf("  #%d %-8s %s", e.EventSeq, e.EventType, e.Decision)
		if e.Reason != "" {
			line += " (" + e.Reason + ")"
		}
		fmt.Println(line)
	}
	return nil
}

// #endregion session-mode
