// package repositories provides the SQLite persistence layer for import history.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/sheetify/internal/models"
	"github.com/desertthunder/sheetify/internal/shared"
)

const runColumns = `id, input_path, playlist_id, playlist_name, playlist_url, total_rows, added, missing, report_path, created_at`

// RunRepository stores completed import runs and the songs each one missed.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a run and its unresolved songs in one transaction.
//
// An empty ID is replaced with a generated one.
func (r *RunRepository) Create(ctx context.Context, run *models.ImportRun) error {
	if run.ID == "" {
		run.ID = shared.GenerateID()
	}
	if err := run.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO import_runs (` + runColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.ExecContext(ctx, query,
		run.ID,
		run.InputPath,
		run.PlaylistID,
		run.PlaylistName,
		run.PlaylistURL,
		run.TotalRows,
		run.Added,
		run.Missing,
		run.ReportPath,
		run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO unresolved_songs (run_id, position, song_name, artist, reason)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare unresolved insert: %w", err)
	}
	defer stmt.Close()

	for i, entry := range run.Unresolved {
		if _, err := stmt.ExecContext(ctx, run.ID, i, entry.Name, entry.Artist, string(entry.Reason)); err != nil {
			return fmt.Errorf("failed to insert unresolved song %q: %w", entry.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// Get retrieves a run by ID along with its unresolved songs.
func (r *RunRepository) Get(ctx context.Context, id string) (*models.ImportRun, error) {
	query := `SELECT ` + runColumns + ` FROM import_runs WHERE id = ?`

	run, err := scanRun(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	run.Unresolved, err = r.unresolved(ctx, id)
	if err != nil {
		return nil, err
	}
	return run, nil
}

// List returns the most recent runs first, without their unresolved songs.
//
// A limit of zero or less returns every run.
func (r *RunRepository) List(ctx context.Context, limit int) ([]*models.ImportRun, error) {
	query := `SELECT ` + runColumns + ` FROM import_runs ORDER BY created_at DESC, id ASC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.ImportRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

// Delete removes a run; its unresolved songs cascade.
func (r *RunRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM import_runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrRunNotFound, id)
	}
	return nil
}

func (r *RunRepository) unresolved(ctx context.Context, runID string) ([]models.UnresolvedEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT song_name, artist, reason
		FROM unresolved_songs
		WHERE run_id = ?
		ORDER BY position ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query unresolved songs: %w", err)
	}
	defer rows.Close()

	var entries []models.UnresolvedEntry
	for rows.Next() {
		var (
			entry  models.UnresolvedEntry
			reason string
		)
		if err := rows.Scan(&entry.Name, &entry.Artist, &reason); err != nil {
			return nil, fmt.Errorf("failed to scan unresolved song: %w", err)
		}
		entry.Reason = models.UnresolvedReason(reason)
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return entries, nil
}

// scanner is satisfied by [sql.Row] and [sql.Rows]
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*models.ImportRun, error) {
	var run models.ImportRun
	err := s.Scan(
		&run.ID,
		&run.InputPath,
		&run.PlaylistID,
		&run.PlaylistName,
		&run.PlaylistURL,
		&run.TotalRows,
		&run.Added,
		&run.Missing,
		&run.ReportPath,
		&run.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	return &run, nil
}
