// Package recorder persists simulation steps to a SQL database, selecting
// a driver by DSN scheme the way a connection manager with a pluggable
// driverName switch would. It is an optional sink: the simulator never
// imports this package directly, only a Hooks closure built by the CLI.
package recorder

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"nps/internal/model"
	"nps/internal/nerrors"
)

// Recorder owns one *sql.DB and writes one (steps, enzymes) row batch per
// simulation step inside a transaction.
type Recorder struct {
	db    *sql.DB
	runID string
}

// driverFor maps a DSN scheme to a registered database/sql driver name,
// defaulting to the pure-Go sqlite driver when no scheme is present.
func driverFor(dsn string) (driverName, rest string, err error) {
	scheme, rest, ok := strings.Cut(dsn, ":")
	if !ok {
		return "sqlite", dsn, nil
	}
	switch scheme {
	case "sqlite", "sqlite3":
		return "sqlite", rest, nil
	case "sqlite3-cgo":
		return "sqlite3", rest, nil
	case "postgres", "postgresql":
		return "postgres", dsn, nil
	case "mysql":
		return "mysql", rest, nil
	case "sqlserver":
		return "sqlserver", dsn, nil
	default:
		return "", "", fmt.Errorf("recorder: unsupported DSN scheme %q", scheme)
	}
}

// Open opens a new recorder against dsn, creates its tables if missing,
// and tags the run with a fresh UUID so concurrent runs against the same
// database never collide.
func Open(dsn string) (*Recorder, error) {
	driverName, conn, err := driverFor(dsn)
	if err != nil {
		return nil, nerrors.IO("opening recorder database", err)
	}

	db, err := sql.Open(driverName, conn)
	if err != nil {
		return nil, nerrors.IO("opening recorder database", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nerrors.IO("pinging recorder database", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(5 * time.Minute)

	r := &Recorder{db: db, runID: uuid.NewString()}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Recorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS steps (
			run_id TEXT NOT NULL,
			step INTEGER NOT NULL,
			var_name TEXT NOT NULL,
			value REAL NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS enzymes (
			run_id TEXT NOT NULL,
			step INTEGER NOT NULL,
			var_name TEXT NOT NULL,
			value REAL NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.Exec(stmt); err != nil {
			return nerrors.IO("creating recorder tables", err)
		}
	}
	return nil
}

// RunID returns the UUID tagging every row this recorder writes.
func (r *Recorder) RunID() string { return r.runID }

// WriteStep appends one row per variable and enzyme cell for step,
// inside a single transaction.
func (r *Recorder) WriteStep(sys *model.System, step int) error {
	tx, err := r.db.Begin()
	if err != nil {
		return nerrors.IO("beginning recorder transaction", err)
	}

	if err := r.insertBatch(tx, "steps", sys.AllVars, step); err != nil {
		tx.Rollback()
		return err
	}
	if err := r.insertBatch(tx, "enzymes", sys.AllEnzymes, step); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return nerrors.IO("committing recorder transaction", err)
	}
	return nil
}

func (r *Recorder) insertBatch(tx *sql.Tx, table string, cells []*model.Cell, step int) error {
	stmt, err := tx.Prepare(fmt.Sprintf("INSERT INTO %s (run_id, step, var_name, value) VALUES (?, ?, ?, ?)", table))
	if err != nil {
		return nerrors.IO("preparing recorder insert", err)
	}
	defer stmt.Close()

	for _, c := range cells {
		if _, err := stmt.Exec(r.runID, step, c.Name, c.Value); err != nil {
			return nerrors.IO("writing recorder row", err)
		}
	}
	return nil
}

// Close releases the underlying database handle.
func (r *Recorder) Close() error {
	return r.db.Close()
}
