// Package journal keeps a SQLite history of rule invocations and the moves
// they made.
package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/arthur-debert/tidyvault/pkg/errors"
	"github.com/arthur-debert/tidyvault/pkg/logging"
	"github.com/arthur-debert/tidyvault/pkg/types"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

//go:embed schema.sql
var schemaSQL string

// MemoryPath opens a private in-memory journal
const MemoryPath = ":memory:"

// Invocation is one journaled rule invocation
type Invocation struct {
	ID           string        `json:"id"`
	RuleID       string        `json:"rule_id"`
	RuleName     string        `json:"rule_name"`
	Reached      string        `json:"reached"`
	ErrorCode    string        `json:"error_code,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
	Matched      int           `json:"matched"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration"`
	Moves        []Move        `json:"moves"`
}

// Moved counts successful moves
func (inv Invocation) Moved() int {
	return inv.count(types.MoveStatusMoved)
}

// Failed counts failed moves
func (inv Invocation) Failed() int {
	return inv.count(types.MoveStatusFailed)
}

// InPlace counts matches that were already in the target folder
func (inv Invocation) InPlace() int {
	return inv.count(types.MoveStatusInPlace)
}

func (inv Invocation) count(status types.MoveStatus) int {
	n := 0
	for _, m := range inv.Moves {
		if m.Status == string(status) {
			n++
		}
	}
	return n
}

// Move is one journaled file move
type Move struct {
	Source       string `json:"source"`
	Destination  string `json:"destination"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// Journal is the SQLite-backed history
type Journal struct {
	db     *sql.DB
	path   string
	logger zerolog.Logger
}

// Open opens or creates the journal at path
func Open(path string) (*Journal, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, errors.Wrapf(err, errors.ErrJournal, "cannot create journal directory for %s", path)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrJournal, "cannot open journal %s", path)
	}
	if path == MemoryPath {
		// Every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA busy_timeout=5000",
	}
	if path != MemoryPath {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL", "PRAGMA synchronous=NORMAL")
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			_ = db.Close()
			return nil, errors.Wrapf(err, errors.ErrJournal, "cannot set %s", pragma)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, errors.ErrJournal, "cannot initialize journal schema")
	}

	return &Journal{
		db:     db,
		path:   path,
		logger: logging.GetLogger("journal").With().Str("path", path).Logger(),
	}, nil
}

// execWithRetry retries a statement while the database is locked
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Path returns the journal location
func (j *Journal) Path() string {
	return j.path
}

// Close closes the database
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Record stores a finished report. It satisfies runner.ReportRecorder.
func (j *Journal) Record(report *types.RunReport) error {
	return j.RecordContext(context.Background(), report)
}

// RecordContext stores a finished report in one transaction
func (j *Journal) RecordContext(ctx context.Context, report *types.RunReport) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrJournal, "cannot begin journal transaction")
	}
	defer func() { _ = tx.Rollback() }()

	var code, message string
	if report.Err != nil {
		code = string(errors.GetErrorCode(report.Err))
		message = errors.GetErrorMessage(report.Err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO invocations
			(id, rule_id, rule_name, reached, error_code, error_message, matched, started_at, duration_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.InvocationID, report.RuleID, report.RuleName, string(report.Reached),
		code, message, report.Matched, report.StartedAt.UnixNano(), int64(report.Duration),
	)
	if err != nil {
		return errors.Wrapf(err, errors.ErrJournal, "cannot record invocation %s", report.InvocationID)
	}

	for _, o := range report.Outcomes {
		var errMsg string
		if o.Err != nil {
			errMsg = o.Err.Error()
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO moves (invocation_id, source, destination, status, error_message)
			VALUES (?, ?, ?, ?, ?)`,
			report.InvocationID, o.Source, o.Destination, string(o.Status), errMsg,
		)
		if err != nil {
			return errors.Wrapf(err, errors.ErrJournal, "cannot record move of %s", o.Source)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.ErrJournal, "cannot commit journal transaction")
	}

	j.logger.Trace().Str("invocation", report.InvocationID).Int("moves", len(report.Outcomes)).Msg("Recorded invocation")
	return nil
}

// Query filters Recent
type Query struct {
	// RuleID limits results to one rule when set
	RuleID string
	// Limit caps the number of invocations; 0 means 20
	Limit int
}

// Recent returns the latest invocations, newest first, with their moves
func (j *Journal) Recent(ctx context.Context, q Query) ([]Invocation, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT id, rule_id, rule_name, reached, error_code, error_message, matched, started_at, duration_ns
		FROM invocations`
	args := []interface{}{}
	if q.RuleID != "" {
		query += ` WHERE rule_id = ?`
		args = append(args, q.RuleID)
	}
	query += ` ORDER BY started_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrJournal, "cannot query invocations")
	}
	defer func() { _ = rows.Close() }()

	var invocations []Invocation
	for rows.Next() {
		var (
			inv       Invocation
			startedAt int64
			duration  int64
		)
		if err := rows.Scan(&inv.ID, &inv.RuleID, &inv.RuleName, &inv.Reached,
			&inv.ErrorCode, &inv.ErrorMessage, &inv.Matched, &startedAt, &duration); err != nil {
			return nil, errors.Wrap(err, errors.ErrJournal, "cannot read invocation")
		}
		inv.StartedAt = time.Unix(0, startedAt)
		inv.Duration = time.Duration(duration)
		invocations = append(invocations, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrJournal, "cannot read invocations")
	}
	_ = rows.Close()

	for i := range invocations {
		moves, err := j.moves(ctx, invocations[i].ID)
		if err != nil {
			return nil, err
		}
		invocations[i].Moves = moves
	}
	return invocations, nil
}

func (j *Journal) moves(ctx context.Context, invocationID string) ([]Move, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT source, destination, status, error_message FROM moves
		WHERE invocation_id = ? ORDER BY id`, invocationID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrJournal, "cannot query moves")
	}
	defer func() { _ = rows.Close() }()

	moves := []Move{}
	for rows.Next() {
		var m Move
		if err := rows.Scan(&m.Source, &m.Destination, &m.Status, &m.ErrorMessage); err != nil {
			return nil, errors.Wrap(err, errors.ErrJournal, "cannot read move")
		}
		moves = append(moves, m)
	}
	return moves, rows.Err()
}

// Prune deletes invocations that started before cutoff, with their moves,
// and returns how many invocations were removed
func (j *Journal) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrJournal, "cannot begin journal transaction")
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM moves WHERE invocation_id IN (SELECT id FROM invocations WHERE started_at < ?)`,
		cutoff.UnixNano())
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrJournal, "cannot prune moves")
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM invocations WHERE started_at < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrJournal, "cannot prune invocations")
	}
	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, errors.ErrJournal, "cannot commit prune")
	}

	n, _ := res.RowsAffected()
	j.logger.Debug().Int64("removed", n).Time("cutoff", cutoff).Msg("Pruned journal")
	return n, nil
}
