package store

import (
	"database/sql"
	"time"
)

// RecordingStatus is the outcome of a recording.
type RecordingStatus string

const (
	RecordingRequested RecordingStatus = "requested"
	RecordingFinished  RecordingStatus = "finished"
	RecordingFailed    RecordingStatus = "failed"
)

// Recording is one entry of the session's recording history.
type Recording struct {
	ID         string          `json:"id"`
	Kind       string          `json:"kind"`
	PhotoCount int             `json:"photoCount"`
	DurationMs int64           `json:"durationMs"`
	Status     RecordingStatus `json:"status"`
	ElapsedMs  int64           `json:"elapsedMs"`
	CreatedAt  time.Time       `json:"createdAt"`
	FinishedAt *time.Time      `json:"finishedAt,omitempty"`
}

// RecordingRepository provides access to the recording history.
type RecordingRepository struct {
	db *sql.DB
}

// Recordings returns the recording repository for this store.
func (s *Store) Recordings() *RecordingRepository {
	return &RecordingRepository{db: s.db}
}

// Create inserts a requested recording.
func (r *RecordingRepository) Create(rec *Recording) error {
	rec.CreatedAt = time.Now()
	if rec.Status == "" {
		rec.Status = RecordingRequested
	}

	_, err := r.db.Exec(
		`INSERT INTO recordings (id, kind, photo_count, duration_ms, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Kind, rec.PhotoCount, rec.DurationMs, string(rec.Status), rec.CreatedAt,
	)
	return err
}

// Finish records the outcome of a recording.
func (r *RecordingRepository) Finish(id string, status RecordingStatus, elapsedMs int64) error {
	result, err := r.db.Exec(
		`UPDATE recordings SET status = ?, elapsed_ms = ?, finished_at = ? WHERE id = ?`,
		string(status), elapsedMs, time.Now(), id,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns the history, newest first.
func (r *RecordingRepository) List() ([]*Recording, error) {
	rows, err := r.db.Query(
		`SELECT id, kind, photo_count, duration_ms, status, elapsed_ms, created_at, finished_at
		 FROM recordings ORDER BY rowid DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*Recording
	for rows.Next() {
		rec := &Recording{}
		var status string
		var finished sql.NullTime
		if err := rows.Scan(&rec.ID, &rec.Kind, &rec.PhotoCount, &rec.DurationMs, &status, &rec.ElapsedMs, &rec.CreatedAt, &finished); err != nil {
			return nil, err
		}
		rec.Status = RecordingStatus(status)
		if finished.Valid {
			rec.FinishedAt = &finished.Time
		}
		recs = append(recs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return recs, nil
}
