// Package reflection journals every resolved command so the system can
// report on its own accuracy and absorb user feedback.
package reflection

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Record is one journaled command resolution, from raw text through
// dispatch outcome and any feedback the user later attached.
type Record struct {
	ID         string
	Timestamp  time.Time
	Sender     string
	RawText    string
	Normalized string

	// Intent is the resolved primary; it is never rewritten, even when an
	// alternative won the execution. SkillName is what actually ran.
	Intent       string
	Confidence   float64
	Alternatives string
	SkillName    string

	Success  bool
	Error    string
	Duration time.Duration

	// Feedback is empty until the user grades the record.
	Feedback        string // "correct" or "wrong"
	CorrectedIntent string
}

// IntentStat aggregates journal rows for one intent.
type IntentStat struct {
	Intent    string
	Total     int
	Succeeded int
	Correct   int
	Wrong     int
}

// Store persists reflection records in SQLite. An empty path opens an
// in-memory database that lives only as long as the process.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// OpenStore opens (and if necessary creates) the journal database.
func OpenStore(path string) (*Store, error) {
	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// initialize creates the journal table.
func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS reflection_records (
		id TEXT PRIMARY KEY,
		timestamp DATETIME NOT NULL,
		sender TEXT,
		raw_text TEXT NOT NULL,
		normalized TEXT,
		intent TEXT NOT NULL,
		confidence REAL NOT NULL,
		alternatives TEXT DEFAULT '',
		skill_name TEXT DEFAULT '',
		success INTEGER NOT NULL,
		error TEXT,
		duration_ns INTEGER NOT NULL,
		feedback TEXT DEFAULT '',
		corrected_intent TEXT DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_reflection_intent ON reflection_records(intent);
	CREATE INDEX IF NOT EXISTS idx_reflection_timestamp ON reflection_records(timestamp);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create journal schema: %w", err)
	}
	return nil
}

// WriteBatch inserts records in one transaction.
func (s *Store) WriteBatch(records []Record) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin journal transaction: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO reflection_records
		(id, timestamp, sender, raw_text, normalized, intent, confidence, alternatives, skill_name, success, error, duration_ns, feedback, corrected_intent)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare journal insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		_, err := stmt.Exec(
			r.ID, r.Timestamp.UTC(), r.Sender, r.RawText, r.Normalized,
			r.Intent, r.Confidence, r.Alternatives, r.SkillName,
			boolToInt(r.Success), r.Error,
			r.Duration.Nanoseconds(), r.Feedback, r.CorrectedIntent,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert journal record %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

// UpdateFeedback overwrites the feedback columns of one record.
func (s *Store) UpdateFeedback(id, feedback, correctedIntent string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		`UPDATE reflection_records SET feedback = ?, corrected_intent = ? WHERE id = ?`,
		feedback, correctedIntent, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update feedback for %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("journal record %s not found", id)
	}
	return nil
}

// Recent returns the newest records, newest first.
func (s *Store) Recent(limit int) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT id, timestamp, sender, raw_text, normalized, intent, confidence, alternatives, skill_name, success, error, duration_ns, feedback, corrected_intent
		FROM reflection_records ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var success int
		var durationNs int64
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.Sender, &r.RawText, &r.Normalized,
			&r.Intent, &r.Confidence, &r.Alternatives, &r.SkillName,
			&success, &r.Error, &durationNs,
			&r.Feedback, &r.CorrectedIntent); err != nil {
			return nil, fmt.Errorf("failed to scan journal row: %w", err)
		}
		r.Success = success != 0
		r.Duration = time.Duration(durationNs)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Stats aggregates the journal per intent.
func (s *Store) Stats() ([]IntentStat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT intent,
		       COUNT(*),
		       SUM(success),
		       SUM(CASE WHEN feedback = 'correct' THEN 1 ELSE 0 END),
		       SUM(CASE WHEN feedback = 'wrong' THEN 1 ELSE 0 END)
		FROM reflection_records GROUP BY intent ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	defer rows.Close()

	var out []IntentStat
	for rows.Next() {
		var st IntentStat
		if err := rows.Scan(&st.Intent, &st.Total, &st.Succeeded, &st.Correct, &st.Wrong); err != nil {
			return nil, fmt.Errorf("failed to scan stats row: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// Count returns the total number of journaled records.
func (s *Store) Count() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM reflection_records`).Scan(&n)
	return n, err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
