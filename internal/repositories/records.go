package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/alignx/internal/models"
	"github.com/desertthunder/alignx/internal/shared"
)

// RecordRepository persists [models.AlignmentRecord] snapshots.
type RecordRepository struct {
	db *sql.DB
}

// NewRecordRepository creates a new RecordRepository with the given database connection
func NewRecordRepository(db *sql.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

const recordColumns = `task_id, audio_url, json_url, source_url, status, timestamp`

const upsertRecord = `
	INSERT INTO alignment_records (task_id, audio_url, json_url, source_url, status, timestamp, saved_at)
	VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(task_id) DO UPDATE SET
		audio_url = excluded.audio_url,
		json_url = excluded.json_url,
		source_url = excluded.source_url,
		status = excluded.status,
		timestamp = excluded.timestamp,
		saved_at = CURRENT_TIMESTAMP
`

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func putRecord(e execer, rec models.AlignmentRecord) error {
	if rec.TaskID == "" {
		return fmt.Errorf("%w: record has no task id", shared.ErrInvalidInput)
	}
	_, err := e.Exec(upsertRecord,
		rec.TaskID,
		rec.AudioURL,
		rec.JSONURL,
		rec.SourceURL,
		rec.Status,
		rec.Timestamp.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save record %s: %w", rec.TaskID, err)
	}
	return nil
}

// Put inserts the record or replaces the stored snapshot for the same task.
func (r *RecordRepository) Put(rec models.AlignmentRecord) error {
	return putRecord(r.db, rec)
}

// Get retrieves the snapshot for a task.
func (r *RecordRepository) Get(taskID string) (*models.AlignmentRecord, error) {
	row := r.db.QueryRow(`SELECT `+recordColumns+` FROM alignment_records WHERE task_id = ?`, taskID)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrTaskNotFound, taskID)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// GetAll returns every snapshot, most recent first.
func (r *RecordRepository) GetAll() ([]models.AlignmentRecord, error) {
	rows, err := r.db.Query(`SELECT ` + recordColumns + ` FROM alignment_records ORDER BY timestamp DESC, task_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []models.AlignmentRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

// Clear removes every snapshot.
func (r *RecordRepository) Clear() error {
	if _, err := r.db.Exec(`DELETE FROM alignment_records`); err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}
	return nil
}

// ReplaceAll swaps the stored snapshots for records in one transaction.
func (r *RecordRepository) ReplaceAll(records []models.AlignmentRecord) error {
	return withTx(r.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM alignment_records`); err != nil {
			return fmt.Errorf("failed to clear records: %w", err)
		}
		for _, rec := range records {
			if err := putRecord(tx, rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// Count returns the number of stored snapshots.
func (r *RecordRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM alignment_records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return n, nil
}

func scanRecord(s scanner) (*models.AlignmentRecord, error) {
	var (
		rec models.AlignmentRecord
		ts  time.Time
	)

	err := s.Scan(&rec.TaskID, &rec.AudioURL, &rec.JSONURL, &rec.SourceURL, &rec.Status, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan record: %w", err)
	}

	rec.Timestamp = ts.UTC()
	return &rec, nil
}
