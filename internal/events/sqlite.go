package events

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/patchpilot/patchpilot/pkg/models"
)

// SQLiteSink persists events to a local SQLite database so a human can
// diagnose why escalation was insufficient after the process exits.
// Tasks themselves are never persisted; only their event trail is.
type SQLiteSink struct {
	conn *sql.DB
	mu   sync.Mutex
}

// OpenSQLiteSink opens (or creates) the event database at path and
// applies the schema. WAL mode is enabled for concurrent reads.
func OpenSQLiteSink(path string) (*SQLiteSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create event db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open event database: %w", err)
	}
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		task_id TEXT NOT NULL,
		tier TEXT NOT NULL,
		event TEXT NOT NULL,
		attempt INTEGER NOT NULL,
		detail TEXT,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_events_task ON events(task_id);`
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create events schema: %w", err)
	}

	return &SQLiteSink{conn: conn}, nil
}

// Emit inserts one event row. Insert failures are reported on stderr
// rather than failing the attempt; event persistence is best-effort.
func (s *SQLiteSink) Emit(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.conn.Exec(
		"INSERT INTO events (task_id, tier, event, attempt, detail, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		e.TaskID, string(e.Tier), e.Name, e.Attempt, e.Detail, e.Time,
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[events] sqlite insert failed: %v\n", err)
	}
}

// TaskEvents returns the stored events for one task, oldest first.
func (s *SQLiteSink) TaskEvents(taskID string) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.conn.Query(
		"SELECT task_id, tier, event, attempt, detail, created_at FROM events WHERE task_id = ? ORDER BY id",
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var tier string
		if err := rows.Scan(&e.TaskID, &tier, &e.Name, &e.Attempt, &e.Detail, &e.Time); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Tier = models.Tier(tier)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}

var _ Sink = (*SQLiteSink)(nil)
