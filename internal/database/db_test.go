package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHistoryDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(Config{
		Path:    filepath.Join(t.TempDir(), "history.db"),
		Profile: ProfileArchive,
		Name:    "history",
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func insertReportRow(t *testing.T, db *DB, id string) {
	t.Helper()

	_, err := db.Exec(`
		INSERT INTO compliance_reports
		(id, created_at, workout_name, strategy, step_count,
		 planned_seconds, actual_seconds, compliance_pct, results, aligned)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, 1710057600, "ride", "windowed_mse", 3, 1200, 1180, 92.5, []byte{0x90}, nil)
	require.NoError(t, err)
}

func countReportRows(t *testing.T, db *DB) int {
	t.Helper()

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM compliance_reports").Scan(&count))
	return count
}

func TestNew_CreatesNestedDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "nested", "history.db")

	db, err := New(Config{Path: path, Name: "history"})
	require.NoError(t, err)
	defer db.Close()

	assert.FileExists(t, path)
	assert.Equal(t, "history", db.Name())
	assert.Equal(t, ProfileStandard, db.Profile(), "empty profile defaults to standard")
	assert.Equal(t, path, db.Path())
}

func TestMigrate_IsIdempotent(t *testing.T) {
	db := newHistoryDB(t)

	// A second migration must not disturb existing data
	insertReportRow(t, db, "report-1")
	require.NoError(t, db.Migrate())

	assert.Equal(t, 1, countReportRows(t, db))
}

func TestMigrate_UnknownNameHasNoSchema(t *testing.T) {
	db, err := New(Config{
		Path: filepath.Join(t.TempDir(), "scratch.db"),
		Name: "scratch",
	})
	require.NoError(t, err)
	defer db.Close()

	assert.NoError(t, db.Migrate())

	_, err = db.Query("SELECT COUNT(*) FROM compliance_reports")
	assert.Error(t, err, "no schema should have been applied")
}

func TestWithTransaction_CommitsOnSuccess(t *testing.T) {
	db := newHistoryDB(t)

	err := WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO compliance_reports
			(id, created_at, workout_name, strategy, step_count,
			 planned_seconds, actual_seconds, compliance_pct, results, aligned)
			VALUES ('tx-1', 1710057600, 'ride', 'dtw', 3, 1200, 1180, 92.5, X'90', NULL)
		`)
		return err
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, countReportRows(t, db))
}

func TestWithTransaction_RollsBackOnError(t *testing.T) {
	db := newHistoryDB(t)

	err := WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
			INSERT INTO compliance_reports
			(id, created_at, workout_name, strategy, step_count,
			 planned_seconds, actual_seconds, compliance_pct, results, aligned)
			VALUES ('tx-1', 1710057600, 'ride', 'dtw', 3, 1200, 1180, 92.5, X'90', NULL)
		`); err != nil {
			return err
		}
		return errors.New("bad report")
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "transaction failed")
	assert.Equal(t, 0, countReportRows(t, db), "insert should have been rolled back")
}

func TestWithTransaction_RecoversPanic(t *testing.T) {
	db := newHistoryDB(t)

	err := WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
			INSERT INTO compliance_reports
			(id, created_at, workout_name, strategy, step_count,
			 planned_seconds, actual_seconds, compliance_pct, results, aligned)
			VALUES ('tx-1', 1710057600, 'ride', 'dtw', 3, 1200, 1180, 92.5, X'90', NULL)
		`); err != nil {
			return err
		}
		panic("scoring bug")
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "panic in transaction")
	assert.Equal(t, 0, countReportRows(t, db))
}

func TestWithTransaction_NilConnection(t *testing.T) {
	err := WithTransaction(nil, func(tx *sql.Tx) error { return nil })
	assert.Error(t, err)
}

func TestHealthCheck(t *testing.T) {
	db := newHistoryDB(t)
	ctx := context.Background()

	assert.NoError(t, db.HealthCheck(ctx))
	assert.NoError(t, db.QuickCheck(ctx))
}

func TestGetStats(t *testing.T) {
	db := newHistoryDB(t)
	insertReportRow(t, db, "report-1")

	stats, err := db.GetStats()
	require.NoError(t, err)
	assert.Greater(t, stats.PageCount, int64(0))
	assert.Greater(t, stats.PageSize, int64(0))
	assert.Greater(t, stats.SizeBytes, int64(0))
}

func TestMaintenanceOperations(t *testing.T) {
	db := newHistoryDB(t)
	insertReportRow(t, db, "report-1")

	assert.NoError(t, db.WALCheckpoint(""))
	assert.NoError(t, db.WALCheckpoint("PASSIVE"))
	assert.NoError(t, db.Vacuum())
}

func TestBuildConnectionString(t *testing.T) {
	testCases := []struct {
		name     string
		profile  DatabaseProfile
		contains []string
	}{
		{
			name:     "archive fsyncs every write",
			profile:  ProfileArchive,
			contains: []string{"synchronous(FULL)", "auto_vacuum(INCREMENTAL)"},
		},
		{
			name:     "cache skips fsync",
			profile:  ProfileCache,
			contains: []string{"synchronous(OFF)", "auto_vacuum(FULL)", "temp_store(MEMORY)"},
		},
		{
			name:     "standard fsyncs at checkpoints",
			profile:  ProfileStandard,
			contains: []string{"synchronous(NORMAL)", "auto_vacuum(INCREMENTAL)"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			connStr := buildConnectionString("/tmp/test.db", tc.profile)

			assert.True(t, strings.HasPrefix(connStr, "/tmp/test.db?"))
			assert.Contains(t, connStr, "journal_mode(WAL)")
			assert.Contains(t, connStr, "foreign_keys(1)")
			assert.Contains(t, connStr, "wal_autocheckpoint(1000)")
			for _, fragment := range tc.contains {
				assert.Contains(t, connStr, fragment)
			}
		})
	}
}
