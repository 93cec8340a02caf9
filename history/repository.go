// Package history archives finished compliance reports in local SQLite.
// Summary figures live in plain columns for cheap listing; the per-step
// results and the warped power series travel as msgpack blobs.
package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/veloplan/paceline/compliance"
	"github.com/veloplan/paceline/internal/database"
)

// Report is one archived analysis. Results is the source of truth; Summary
// is derived from it on save and load.
type Report struct {
	ID          string                        `json:"id"`
	CreatedAt   time.Time                     `json:"created_at"`
	WorkoutName string                        `json:"workout_name"`
	Strategy    string                        `json:"strategy"`
	Summary     compliance.Summary            `json:"summary"`
	Results     []compliance.ComplianceResult `json:"results"`
	Aligned     []float64                     `json:"aligned,omitempty"` // Warped series, nil for constant-offset analyses
}

// Repository provides CRUD operations for archived reports
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a report repository over an open history database
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "history").Logger(),
	}
}

// Save archives a report, assigning an ID and timestamp when absent.
// Saving an existing ID replaces the stored report.
func (r *Repository) Save(report *Report) error {
	if report == nil {
		return fmt.Errorf("report cannot be nil")
	}

	if report.ID == "" {
		report.ID = uuid.New().String()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}
	report.Summary = compliance.Summarize(report.Results)

	resultsBlob, err := msgpack.Marshal(report.Results)
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}

	var alignedBlob []byte
	if report.Aligned != nil {
		alignedBlob, err = msgpack.Marshal(report.Aligned)
		if err != nil {
			return fmt.Errorf("failed to encode aligned series: %w", err)
		}
	}

	err = database.WithTransaction(r.db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT OR REPLACE INTO compliance_reports
			(id, created_at, workout_name, strategy, step_count,
			 planned_seconds, actual_seconds, compliance_pct, results, aligned)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			report.ID,
			report.CreatedAt.Unix(),
			report.WorkoutName,
			report.Strategy,
			report.Summary.StepCount,
			report.Summary.PlannedSeconds,
			report.Summary.ActualSeconds,
			report.Summary.CompliancePct,
			resultsBlob,
			alignedBlob,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to save report %s: %w", report.ID, err)
	}

	r.log.Info().
		Str("id", report.ID).
		Str("workout", report.WorkoutName).
		Int("steps", report.Summary.StepCount).
		Msg("Report archived")
	return nil
}

// Get loads a full report by ID, nil when it does not exist
func (r *Repository) Get(id string) (*Report, error) {
	var (
		report        Report
		createdAtUnix int64
		resultsBlob   []byte
		alignedBlob   []byte
	)

	err := r.db.QueryRow(`
		SELECT id, created_at, workout_name, strategy, results, aligned
		FROM compliance_reports
		WHERE id = ?
	`, id).Scan(
		&report.ID,
		&createdAtUnix,
		&report.WorkoutName,
		&report.Strategy,
		&resultsBlob,
		&alignedBlob,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report %s: %w", id, err)
	}

	report.CreatedAt = time.Unix(createdAtUnix, 0).UTC()
	if err := msgpack.Unmarshal(resultsBlob, &report.Results); err != nil {
		return nil, fmt.Errorf("failed to decode results for %s: %w", id, err)
	}
	if len(alignedBlob) > 0 {
		if err := msgpack.Unmarshal(alignedBlob, &report.Aligned); err != nil {
			return nil, fmt.Errorf("failed to decode aligned series for %s: %w", id, err)
		}
	}
	report.Summary = compliance.Summarize(report.Results)

	return &report, nil
}

// List returns reports newest first, limited when limit > 0. Listed reports
// carry their summary columns only; load the blobs with Get.
func (r *Repository) List(limit int) ([]Report, error) {
	query := `
		SELECT id, created_at, workout_name, strategy, step_count,
		       planned_seconds, actual_seconds, compliance_pct
		FROM compliance_reports
		ORDER BY created_at DESC, id DESC
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var reports []Report
	for rows.Next() {
		var (
			report        Report
			createdAtUnix int64
		)
		err := rows.Scan(
			&report.ID,
			&createdAtUnix,
			&report.WorkoutName,
			&report.Strategy,
			&report.Summary.StepCount,
			&report.Summary.PlannedSeconds,
			&report.Summary.ActualSeconds,
			&report.Summary.CompliancePct,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		report.CreatedAt = time.Unix(createdAtUnix, 0).UTC()
		reports = append(reports, report)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reports: %w", err)
	}

	return reports, nil
}

// Delete removes a report by ID, a no-op when it does not exist
func (r *Repository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM compliance_reports WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete report %s: %w", id, err)
	}

	if affected, err := result.RowsAffected(); err == nil && affected > 0 {
		r.log.Info().Str("id", id).Msg("Report deleted")
	}
	return nil
}
