package subjects

import (
	"context"
	"database/sql"
	"errors"
)

// PostgresRepo reads subject and locator projections from the registration
// tables owned by the enrollment system. Read-only by design.

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) ResolveSubject(ctx context.Context, subjectRef string) (Subject, error) {
	const q = `
SELECT identifier, first_name, initials, consent_datetime
FROM registered_subjects
WHERE identifier = $1
`
	var s Subject
	if err := r.db.QueryRowContext(ctx, q, subjectRef).Scan(
		&s.Identifier,
		&s.FirstName,
		&s.Initials,
		&s.ConsentDatetime,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Subject{}, ErrNotFound
		}
		return Subject{}, err
	}
	return s, nil
}

func (r *PostgresRepo) ResolveLocator(ctx context.Context, subjectRef string) (Locator, error) {
	const q = `
SELECT subject_identifier, locator_information
FROM subject_locators
WHERE subject_identifier = $1
`
	var l Locator
	if err := r.db.QueryRowContext(ctx, q, subjectRef).Scan(
		&l.SubjectIdentifier,
		&l.LocatorInformation,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Locator{}, ErrNotFound
		}
		return Locator{}, err
	}
	return l, nil
}
