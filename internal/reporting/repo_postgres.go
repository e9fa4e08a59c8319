package reporting

import (
	"context"
	"database/sql"
	"time"

	"callmanager/internal/calls"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) ListCalls(ctx context.Context, label string, from, to time.Time) ([]calls.Call, error) {
	q := `
SELECT id, subject_identifier, label, scheduled, repeats, status, auto_closed,
       call_attempts
FROM calls
WHERE scheduled >= $1 AND scheduled < $2`
	args := []any{from, to}
	if label != "" {
		q += ` AND label = $3`
		args = append(args, label)
	}
	q += ` ORDER BY scheduled, subject_identifier`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []calls.Call
	for rows.Next() {
		var c calls.Call
		if err := rows.Scan(
			&c.ID, &c.SubjectIdentifier, &c.Label, &c.Scheduled, &c.Repeats,
			&c.Status, &c.AutoClosed, &c.CallAttempts,
		); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
