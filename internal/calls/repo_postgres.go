package calls

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"callmanager/pkg/utils"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresRepo persists calls in Postgres via database/sql (pgx stdlib driver).
//
// Assumed schema:
// - calls with UNIQUE (subject_identifier, label, scheduled)
// - call_logs with UNIQUE (call_id)
// - call_log_entries (append-only; INSERT only)
//
// The unique index on the call natural key is the primary race guard:
// a duplicate insert surfaces as ErrDuplicateCall and the engine no-ops.

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func (r *PostgresRepo) CreateCall(ctx context.Context, c Call) error {
	const q = `
INSERT INTO calls (
  id, subject_identifier, label, scheduled, repeats, last_called,
  first_name, initials, consent_datetime, call_attempts, call_outcome,
  status, auto_closed, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15
)
`
	_, err := r.db.ExecContext(ctx, q,
		c.ID,
		c.SubjectIdentifier,
		c.Label,
		c.Scheduled,
		c.Repeats,
		c.LastCalled,
		c.FirstName,
		c.Initials,
		c.ConsentDatetime,
		c.CallAttempts,
		c.CallOutcome,
		c.Status,
		c.AutoClosed,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateCall
	}
	return err
}

const callColumns = `
id, subject_identifier, label, scheduled, repeats, last_called,
first_name, initials, consent_datetime, call_attempts, call_outcome,
status, auto_closed, created_at, updated_at
`

func scanCall(row *sql.Row) (Call, error) {
	var c Call
	err := row.Scan(
		&c.ID,
		&c.SubjectIdentifier,
		&c.Label,
		&c.Scheduled,
		&c.Repeats,
		&c.LastCalled,
		&c.FirstName,
		&c.Initials,
		&c.ConsentDatetime,
		&c.CallAttempts,
		&c.CallOutcome,
		&c.Status,
		&c.AutoClosed,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Call{}, ErrNotFound
		}
		return Call{}, err
	}
	return c, nil
}

func (r *PostgresRepo) GetCall(ctx context.Context, id string) (Call, error) {
	const q = `SELECT ` + callColumns + ` FROM calls WHERE id = $1`
	return scanCall(r.db.QueryRowContext(ctx, q, id))
}

func (r *PostgresRepo) FindCallByKey(ctx context.Context, subjectIdentifier, label string, scheduled time.Time) (Call, error) {
	const q = `
SELECT ` + callColumns + `
FROM calls
WHERE subject_identifier = $1 AND label = $2 AND scheduled = $3::date
`
	return scanCall(r.db.QueryRowContext(ctx, q, subjectIdentifier, label, scheduled))
}

func (r *PostgresRepo) listCalls(ctx context.Context, q string, args ...any) ([]Call, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Call, 0)
	for rows.Next() {
		var c Call
		if err := rows.Scan(
			&c.ID,
			&c.SubjectIdentifier,
			&c.Label,
			&c.Scheduled,
			&c.Repeats,
			&c.LastCalled,
			&c.FirstName,
			&c.Initials,
			&c.ConsentDatetime,
			&c.CallAttempts,
			&c.CallOutcome,
			&c.Status,
			&c.AutoClosed,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) ListActiveCalls(ctx context.Context, subjectIdentifier, label string) ([]Call, error) {
	const q = `
SELECT ` + callColumns + `
FROM calls
WHERE subject_identifier = $1 AND label = $2 AND status IN ('NEW','OPEN')
ORDER BY scheduled
`
	return r.listCalls(ctx, q, subjectIdentifier, label)
}

func (r *PostgresRepo) ListCallsBySubject(ctx context.Context, subjectIdentifier string) ([]Call, error) {
	const q = `
SELECT ` + callColumns + `
FROM calls
WHERE subject_identifier = $1
ORDER BY scheduled
`
	return r.listCalls(ctx, q, subjectIdentifier)
}

func (r *PostgresRepo) UpdateCall(ctx context.Context, c Call) error {
	const q = `
UPDATE calls
SET last_called = $2,
    call_attempts = $3,
    call_outcome = $4,
    status = $5,
    auto_closed = $6,
    updated_at = $7
WHERE id = $1
`
	res, err := r.db.ExecContext(ctx, q,
		c.ID,
		c.LastCalled,
		c.CallAttempts,
		c.CallOutcome,
		c.Status,
		c.AutoClosed,
		c.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) DeleteCall(ctx context.Context, id string) error {
	// Cascade in one transaction: entries, log, then the call row.
	return utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM call_log_entries WHERE log_id IN (SELECT id FROM call_logs WHERE call_id = $1)`, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM call_logs WHERE call_id = $1`, id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM calls WHERE id = $1`, id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *PostgresRepo) CreateLog(ctx context.Context, l Log) error {
	const q = `
INSERT INTO call_logs (id, call_id, locator_information, contact_notes, created_at)
VALUES ($1,$2,$3,$4,$5)
`
	_, err := r.db.ExecContext(ctx, q, l.ID, l.CallID, l.LocatorInformation, l.ContactNotes, l.CreatedAt)
	return err
}

func scanLog(row *sql.Row) (Log, error) {
	var l Log
	err := row.Scan(&l.ID, &l.CallID, &l.LocatorInformation, &l.ContactNotes, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Log{}, ErrNotFound
		}
		return Log{}, err
	}
	return l, nil
}

func (r *PostgresRepo) GetLog(ctx context.Context, id string) (Log, error) {
	const q = `SELECT id, call_id, locator_information, contact_notes, created_at FROM call_logs WHERE id = $1`
	return scanLog(r.db.QueryRowContext(ctx, q, id))
}

func (r *PostgresRepo) GetLogByCall(ctx context.Context, callID string) (Log, error) {
	const q = `SELECT id, call_id, locator_information, contact_notes, created_at FROM call_logs WHERE call_id = $1`
	return scanLog(r.db.QueryRowContext(ctx, q, callID))
}

func (r *PostgresRepo) CreateLogEntry(ctx context.Context, e LogEntry) error {
	const q = `
INSERT INTO call_log_entries (
  id, log_id, call_datetime, invalid_numbers, contact_type, survival_status,
  time_of_week, time_of_day, appt, appt_date, appt_grading, appt_location,
  appt_location_other, delivered, call_again, created_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16
)
`
	_, err := r.db.ExecContext(ctx, q,
		e.ID,
		e.LogID,
		e.CallDatetime,
		e.InvalidNumbers,
		e.ContactType,
		e.SurvivalStatus,
		e.TimeOfWeek,
		e.TimeOfDay,
		e.Appt,
		e.ApptDate,
		e.ApptGrading,
		e.ApptLocation,
		e.ApptLocationOther,
		e.Delivered,
		e.CallAgain,
		e.CreatedAt,
	)
	return err
}

func (r *PostgresRepo) ListLogEntries(ctx context.Context, logID string) ([]LogEntry, error) {
	const q = `
SELECT id, log_id, call_datetime, invalid_numbers, contact_type, survival_status,
       time_of_week, time_of_day, appt, appt_date, appt_grading, appt_location,
       appt_location_other, delivered, call_again, created_at
FROM call_log_entries
WHERE log_id = $1
ORDER BY call_datetime
`
	rows, err := r.db.QueryContext(ctx, q, logID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]LogEntry, 0)
	for rows.Next() {
		var e LogEntry
		if err := rows.Scan(
			&e.ID,
			&e.LogID,
			&e.CallDatetime,
			&e.InvalidNumbers,
			&e.ContactType,
			&e.SurvivalStatus,
			&e.TimeOfWeek,
			&e.TimeOfDay,
			&e.Appt,
			&e.ApptDate,
			&e.ApptGrading,
			&e.ApptLocation,
			&e.ApptLocationOther,
			&e.Delivered,
			&e.CallAgain,
			&e.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
