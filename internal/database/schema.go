package database

// schemas maps database names to their embedded DDL. Compiling the schema
// into the binary keeps migration working regardless of working directory
// or where the database file lives.
var schemas = map[string]string{
	"history": historySchema,
}

// historySchema backs the compliance report archive. Summary figures are
// denormalized into columns so listings never decode the blobs; the full
// per-step results and the aligned power series travel as msgpack.
const historySchema = `
CREATE TABLE IF NOT EXISTS compliance_reports (
    id              TEXT PRIMARY KEY,
    created_at      INTEGER NOT NULL,
    workout_name    TEXT NOT NULL,
    strategy        TEXT NOT NULL,
    step_count      INTEGER NOT NULL,
    planned_seconds INTEGER NOT NULL,
    actual_seconds  INTEGER NOT NULL,
    compliance_pct  REAL NOT NULL,
    results         BLOB NOT NULL,
    aligned         BLOB
);

CREATE INDEX IF NOT EXISTS idx_compliance_reports_created_at
    ON compliance_reports(created_at);

CREATE INDEX IF NOT EXISTS idx_compliance_reports_workout_name
    ON compliance_reports(workout_name);
`
