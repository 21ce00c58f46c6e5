package db

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/whitebeard-ai/pawn-installer/pkg/errors"
)

// Repository provides database operations for install runs
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new repository
func NewRepository(dbPath string) (*Repository, error) {
	slog.Info("database_init", "db_path", dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		slog.Error("database_open_failed", "db_path", dbPath, "error", err)
		return nil, errors.Wrap(err, "failed to open database")
	}
	// One writer; the pipeline never touches the journal concurrently.
	db.SetMaxOpenConns(1)

	slog.Info("database_create_schema", "db_path", dbPath)
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		slog.Error("database_schema_failed", "db_path", dbPath, "error", err)
		return nil, errors.Wrap(err, "failed to create schema")
	}

	slog.Info("database_ready", "db_path", dbPath)
	return &Repository{db: db}, nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

const selectColumns = `
	SELECT id, run_id, state, failed_stage, failure_kind, error_message,
	       license_path, organization_name, contact_email, target_root, install_source_dir,
	       elevated, elevated_checked, plugin_path, license_copy_path, warnings,
	       created_at, updated_at
	FROM install_runs`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var run Run
	var errorMessage sql.NullString
	var warnings string

	err := s.Scan(
		&run.ID, &run.RunID, &run.State, &run.FailedStage, &run.FailureKind, &errorMessage,
		&run.LicensePath, &run.OrganizationName, &run.ContactEmail, &run.TargetRoot, &run.InstallSourceDir,
		&run.Elevated, &run.ElevatedChecked, &run.PluginPath, &run.LicenseCopyPath, &warnings,
		&run.CreatedAt, &run.UpdatedAt)
	if err != nil {
		return nil, err
	}

	run.ErrorMessage = errorMessage.String
	run.Warnings = splitWarnings(warnings)
	return &run, nil
}

// Warnings are stored one per line.
func joinWarnings(w []string) string {
	return strings.Join(w, "\n")
}

func splitWarnings(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// Create inserts a new run record
func (r *Repository) Create(run *Run) error {
	slog.Info("database_create_run", "run_id", run.RunID, "state", run.State)

	query := `
		INSERT INTO install_runs (run_id, state, failed_stage, failure_kind, error_message,
			license_path, organization_name, contact_email, target_root, install_source_dir,
			elevated, elevated_checked, plugin_path, license_copy_path, warnings)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.Exec(query,
		run.RunID, run.State, run.FailedStage, run.FailureKind, run.ErrorMessage,
		run.LicensePath, run.OrganizationName, run.ContactEmail, run.TargetRoot, run.InstallSourceDir,
		run.Elevated, run.ElevatedChecked, run.PluginPath, run.LicenseCopyPath, joinWarnings(run.Warnings))
	if err != nil {
		slog.Error("database_insert_failed", "run_id", run.RunID, "error", err)
		return errors.Wrap(err, "failed to insert run")
	}

	id, err := result.LastInsertId()
	if err != nil {
		slog.Error("database_last_insert_id_failed", "run_id", run.RunID, "error", err)
		return errors.Wrap(err, "failed to get last insert id")
	}
	run.ID = id

	slog.Info("database_run_created", "run_id", run.RunID, "id", run.ID)
	return nil
}

// GetByRunID retrieves a run by its run id. It returns nil, nil when the
// run does not exist.
func (r *Repository) GetByRunID(runID string) (*Run, error) {
	run, err := scanRun(r.db.QueryRow(selectColumns+` WHERE run_id = ?`, runID))
	if err == sql.ErrNoRows {
		slog.Info("database_run_not_found", "run_id", runID)
		return nil, nil
	}
	if err != nil {
		slog.Error("database_query_failed", "run_id", runID, "error", err)
		return nil, errors.Wrap(err, "failed to query run")
	}
	return run, nil
}

// Update writes every mutable column of an existing run
func (r *Repository) Update(run *Run) error {
	slog.Info("database_update_run", "run_id", run.RunID, "state", run.State)

	query := `
		UPDATE install_runs
		SET state = ?, failed_stage = ?, failure_kind = ?, error_message = ?,
		    license_path = ?, organization_name = ?, contact_email = ?, target_root = ?,
		    install_source_dir = ?, elevated = ?, elevated_checked = ?, plugin_path = ?,
		    license_copy_path = ?, warnings = ?, updated_at = CURRENT_TIMESTAMP
		WHERE run_id = ?
	`
	result, err := r.db.Exec(query,
		run.State, run.FailedStage, run.FailureKind, run.ErrorMessage,
		run.LicensePath, run.OrganizationName, run.ContactEmail, run.TargetRoot,
		run.InstallSourceDir, run.Elevated, run.ElevatedChecked, run.PluginPath,
		run.LicenseCopyPath, joinWarnings(run.Warnings), run.RunID)
	if err != nil {
		slog.Error("database_update_failed", "run_id", run.RunID, "error", err)
		return errors.Wrap(err, "failed to update run")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		slog.Error("database_rows_affected_failed", "run_id", run.RunID, "error", err)
		return errors.Wrap(err, "failed to get rows affected")
	}
	if rows == 0 {
		slog.Error("database_run_not_found_for_update", "run_id", run.RunID)
		return fmt.Errorf("run not found: run_id=%s", run.RunID)
	}

	return nil
}

// UpdateState updates only the state and error message
func (r *Repository) UpdateState(runID, state, errorMessage string) error {
	slog.Info("database_update_state", "run_id", runID, "state", state)

	query := `UPDATE install_runs SET state = ?, error_message = ?, updated_at = CURRENT_TIMESTAMP WHERE run_id = ?`
	if _, err := r.db.Exec(query, state, errorMessage, runID); err != nil {
		slog.Error("database_state_update_failed", "run_id", runID, "state", state, "error", err)
		return errors.Wrap(err, "failed to update state")
	}
	return nil
}

// List retrieves all runs, newest first
func (r *Repository) List() ([]*Run, error) {
	slog.Info("database_list_runs")

	rows, err := r.db.Query(selectColumns + ` ORDER BY created_at DESC, id DESC`)
	if err != nil {
		slog.Error("database_list_query_failed", "error", err)
		return nil, errors.Wrap(err, "failed to list runs")
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			slog.Error("database_scan_row_failed", "error", err)
			return nil, errors.Wrap(err, "failed to scan row")
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		slog.Error("database_rows_error", "error", err)
		return nil, errors.Wrap(err, "rows error")
	}

	slog.Info("database_list_complete", "run_count", len(runs))
	return runs, nil
}

// Delete deletes a run by run id
func (r *Repository) Delete(runID string) error {
	slog.Info("database_delete_run", "run_id", runID)

	result, err := r.db.Exec(`DELETE FROM install_runs WHERE run_id = ?`, runID)
	if err != nil {
		slog.Error("database_delete_failed", "run_id", runID, "error", err)
		return errors.Wrap(err, "failed to delete run")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("run not found: run_id=%s", runID)
	}

	slog.Info("database_run_deleted", "run_id", runID)
	return nil
}

// DeleteByState removes every run in the given state and returns how many
// were deleted.
func (r *Repository) DeleteByState(state string) (int64, error) {
	slog.Info("database_delete_by_state", "state", state)

	result, err := r.db.Exec(`DELETE FROM install_runs WHERE state = ?`, state)
	if err != nil {
		slog.Error("database_delete_failed", "state", state, "error", err)
		return 0, errors.Wrap(err, "failed to delete runs")
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "failed to get rows affected")
	}

	slog.Info("database_runs_deleted", "state", state, "count", n)
	return n, nil
}
