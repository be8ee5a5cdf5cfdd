package db

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/hyperspectral/internal/hsi/l6objects"
)

// ObjectLog records finalised objects per acquisition run. It satisfies
// the pipeline's ObjectSink.
type ObjectLog struct {
	db    *DB
	model string
}

// NewObjectLog returns a log writing to db. model is stored with each new
// run for reference.
func NewObjectLog(db *DB, model string) *ObjectLog {
	return &ObjectLog{db: db, model: model}
}

// RunSummary describes one logged run.
type RunSummary struct {
	RunID     uuid.UUID
	Model     string
	StartedAt time.Time
	Objects   int
}

// Record stores rec under runID, creating the run on first use.
func (l *ObjectLog) Record(runID uuid.UUID, rec l6objects.Record) error {
	classSizes, err := json.Marshal(rec.ClassSizes)
	if err != nil {
		return fmt.Errorf("failed to encode class sizes: %w", err)
	}
	regression, err := json.Marshal(rec.Regression)
	if err != nil {
		return fmt.Errorf("failed to encode regression: %w", err)
	}

	tx, err := l.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT OR IGNORE INTO runs (run_id, model) VALUES (?, ?)`,
		runID.String(), l.model); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	_, err = tx.Exec(`
		INSERT INTO objects (
			uid, run_id, object_id, frame, pos, min_frame, max_frame,
			min_col, max_col, size, class, class_sizes, regression
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), runID.String(), rec.ID, rec.Frame, rec.Pos, rec.MinFrame, rec.MaxFrame,
		rec.MinCol, rec.MaxCol, rec.Size, rec.Class, string(classSizes), string(regression))
	if err != nil {
		return fmt.Errorf("failed to insert object %d: %w", rec.ID, err)
	}
	return tx.Commit()
}

// List returns the objects of runID in finalisation order.
func (l *ObjectLog) List(runID uuid.UUID) ([]l6objects.Record, error) {
	rows, err := l.db.Query(`
		SELECT object_id, frame, pos, min_frame, max_frame, min_col, max_col,
		       size, class, class_sizes, regression
		FROM objects WHERE run_id = ? ORDER BY rowid`, runID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []l6objects.Record
	for rows.Next() {
		var r l6objects.Record
		var classSizes, regression string
		if err := rows.Scan(&r.ID, &r.Frame, &r.Pos, &r.MinFrame, &r.MaxFrame, &r.MinCol, &r.MaxCol,
			&r.Size, &r.Class, &classSizes, &regression); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(classSizes), &r.ClassSizes); err != nil {
			return nil, fmt.Errorf("object %d: bad class sizes: %w", r.ID, err)
		}
		if err := json.Unmarshal([]byte(regression), &r.Regression); err != nil {
			return nil, fmt.Errorf("object %d: bad regression: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Runs lists every logged run, oldest first.
func (l *ObjectLog) Runs() ([]RunSummary, error) {
	rows, err := l.db.Query(`
		SELECT r.run_id, r.model, strftime('%Y-%m-%dT%H:%M:%SZ', r.started_at), COUNT(o.uid)
		FROM runs r LEFT JOIN objects o ON o.run_id = r.run_id
		GROUP BY r.run_id
		ORDER BY r.rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var (
			s       RunSummary
			id      string
			started string
		)
		if err := rows.Scan(&id, &s.Model, &started, &s.Objects); err != nil {
			return nil, err
		}
		if s.RunID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("bad run id %q: %w", id, err)
		}
		if s.StartedAt, err = time.Parse(time.RFC3339, started); err != nil {
			return nil, fmt.Errorf("bad start time %q: %w", started, err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
