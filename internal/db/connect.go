package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
	// DriverMemory keeps attempts in process; no database is opened.
	DriverMemory Driver = "memory"
)

// SQLiteDSN builds a modernc DSN for a database file, creating its directory.
func SQLiteDSN(path string) (string, error) {
	if path == "" {
		path = "data.sqlite3"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	return "file:" + path + "?_pragma=busy_timeout(5000)", nil
}

var dsnPassword = regexp.MustCompile(`(?i)(password\s*=\s*)('[^']*'|\S+)`)

// RedactDSN masks the password of a postgres URL or keyword/value DSN so it
// can be logged and shown in diagnostics.
func RedactDSN(dsn string) string {
	if u, err := url.Parse(dsn); err == nil && u.Scheme != "" && u.User != nil {
		return u.Redacted()
	}
	return dsnPassword.ReplaceAllString(dsn, "${1}xxxxx")
}

// Open opens a DB and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:data.sqlite3?_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/videoquiz?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		// one writer at a time; concurrent inserts queue on busy_timeout
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := ensureSchema(ctx, db, driver); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return db, nil
}

// Rebind rewrites ? placeholders to $N for postgres.
func Rebind(driver Driver, q string) string {
	if driver != DriverPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Columns lists the column names of table.
func Columns(ctx context.Context, db *sql.DB, driver Driver, table string) ([]string, error) {
	var (
		rows *sql.Rows
		err  error
	)
	switch driver {
	case DriverSQLite:
		rows, err = db.QueryContext(ctx, `SELECT name FROM pragma_table_info(?)`, table)
	case DriverPostgres:
		rows, err = db.QueryContext(ctx,
			`SELECT column_name FROM information_schema.columns
			 WHERE table_schema = current_schema() AND table_name = $1
			 ORDER BY ordinal_position`, table)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

// AnswersColumn prefers answers_json; installs that predate it store the
// document in answers.
func AnswersColumn(cols []string) string {
	has := map[string]bool{}
	for _, c := range cols {
		has[c] = true
	}
	if !has["answers_json"] && has["answers"] {
		return "answers"
	}
	return "answers_json"
}

func ensureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	var base, realType string
	switch driver {
	case DriverSQLite:
		base, realType = schemaSQLite, "REAL"
	case DriverPostgres:
		base, realType = schemaPostgres, "DOUBLE PRECISION"
	}
	if _, err := db.ExecContext(ctx, base); err != nil {
		return err
	}

	// Older installs only have the base columns; add the rest in place.
	cols, err := Columns(ctx, db, driver, "attempts")
	if err != nil {
		return err
	}
	has := map[string]bool{}
	for _, c := range cols {
		has[c] = true
	}
	var alters []string
	if !has["score_percent"] {
		alters = append(alters, "ALTER TABLE attempts ADD COLUMN score_percent "+realType+" DEFAULT 0")
	}
	if !has["answers_json"] && !has["answers"] {
		alters = append(alters, "ALTER TABLE attempts ADD COLUMN answers_json TEXT")
	}
	if !has["category"] {
		alters = append(alters, "ALTER TABLE attempts ADD COLUMN category TEXT")
	}
	if !has["created_at"] {
		alters = append(alters, "ALTER TABLE attempts ADD COLUMN created_at TEXT")
	}
	alters = append(alters,
		"CREATE INDEX IF NOT EXISTS idx_attempts_quiz_viewer ON attempts (quiz_id, viewer)",
		"CREATE INDEX IF NOT EXISTS idx_attempts_created ON attempts (created_at, id)",
	)
	for _, stmt := range alters {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s: %w", stmt, err)
		}
	}
	return nil
}

// Base columns only; the rest are added by ensureSchema so that fresh and
// upgraded databases converge on the same shape.
const schemaSQLite = `
CREATE TABLE IF NOT EXISTS attempts (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  quiz_id TEXT NOT NULL,
  viewer TEXT,
  points REAL DEFAULT 0,
  max_points REAL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS event_log (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  site_id TEXT NOT NULL DEFAULT 'local',
  typ TEXT NOT NULL,                         -- e.g., AttemptsDeleted
  key TEXT NOT NULL,
  data TEXT NOT NULL,                        -- JSON payload
  created_at INTEGER NOT NULL                -- unix seconds
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS attempts (
  id BIGSERIAL PRIMARY KEY,
  quiz_id TEXT NOT NULL,
  viewer TEXT,
  points DOUBLE PRECISION DEFAULT 0,
  max_points DOUBLE PRECISION DEFAULT 0
);

CREATE TABLE IF NOT EXISTS event_log (
  seq BIGSERIAL PRIMARY KEY,
  site_id TEXT NOT NULL DEFAULT 'local',
  typ TEXT NOT NULL,
  key TEXT NOT NULL,
  data TEXT NOT NULL,
  created_at BIGINT NOT NULL
);
`
