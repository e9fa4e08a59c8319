package subjects

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("subjects: not found")

// Subject is the fixed projection of a registered subject the scheduling
// engine copies onto a call. No dynamic field copying: this struct is the
// whole contract.
type Subject struct {
	Identifier      string     `json:"identifier" db:"identifier"`
	FirstName       string     `json:"first_name" db:"first_name"`
	Initials        string     `json:"initials" db:"initials"`
	ConsentDatetime *time.Time `json:"consent_datetime,omitempty" db:"consent_datetime"`
}

// Locator is the projection of a subject's locator record. Its free text is
// copied onto a new call log as a starting point for the caller.
type Locator struct {
	SubjectIdentifier  string `json:"subject_identifier" db:"subject_identifier"`
	LocatorInformation string `json:"locator_information" db:"locator_information"`
}

// Resolver resolves the subject referenced by a trigger event.
// A missing subject is fatal for one spec's processing of one event, so
// implementations must return ErrNotFound rather than an empty Subject.
type Resolver interface {
	ResolveSubject(ctx context.Context, subjectRef string) (Subject, error)
}

// LocatorResolver resolves locator text for a subject. Absence is
// non-fatal; callers treat ErrNotFound as "no locator yet".
type LocatorResolver interface {
	ResolveLocator(ctx context.Context, subjectRef string) (Locator, error)
}
