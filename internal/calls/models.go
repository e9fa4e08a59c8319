package calls

import (
	"strings"
	"time"
)

// Call is one scheduled follow-up call for one subject.
//
// Natural key invariant: (subject_identifier, label, scheduled) is unique.
// The store must reject a second call for the same triple; the scheduling
// engine treats that rejection as an idempotent no-op.
//
// Status only moves NEW -> OPEN -> CLOSED, or NEW -> CLOSED directly.
// CLOSED is terminal for this row; a repeating schedule continues through a
// freshly created successor call, never by re-opening this one.

type Call struct {
	ID                string `json:"id" db:"id"`
	SubjectIdentifier string `json:"subject_identifier" db:"subject_identifier"`
	Label             string `json:"label" db:"label"`

	// Scheduled is the date this call is due. Date precision only.
	Scheduled time.Time `json:"scheduled" db:"scheduled"`

	// Repeats makes a closed call spawn a successor at the next interval.
	Repeats bool `json:"repeats" db:"repeats"`

	// LastCalled is updated from log entries and only ever moves forward.
	LastCalled *time.Time `json:"last_called,omitempty" db:"last_called"`

	FirstName       string     `json:"first_name,omitempty" db:"first_name"`
	Initials        string     `json:"initials,omitempty" db:"initials"`
	ConsentDatetime *time.Time `json:"consent_datetime,omitempty" db:"consent_datetime"`

	CallAttempts int    `json:"call_attempts" db:"call_attempts"`
	CallOutcome  string `json:"call_outcome,omitempty" db:"call_outcome"`

	Status CallStatus `json:"status" db:"status"`

	// AutoClosed is true only when the engine, not an operator, closed the call.
	AutoClosed bool `json:"auto_closed" db:"auto_closed"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type CallStatus string

const (
	CallStatusNew    CallStatus = "NEW"
	CallStatusOpen   CallStatus = "OPEN"
	CallStatusClosed CallStatus = "CLOSED"
)

// Log groups all dial attempts for exactly one call. Created alongside the
// call; deleted with it if the call is unscheduled before any attempt.
type Log struct {
	ID     string `json:"id" db:"id"`
	CallID string `json:"call_id" db:"call_id"`

	// LocatorInformation is copied from the subject's locator record at
	// scheduling time when one resolves; absence is not an error.
	LocatorInformation string `json:"locator_information,omitempty" db:"locator_information"`
	ContactNotes       string `json:"contact_notes,omitempty" db:"contact_notes"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// LogEntry is a single dial attempt. Entries are append-only: never edited
// or deleted after creation.
type LogEntry struct {
	ID    string `json:"id" db:"id"`
	LogID string `json:"log_id" db:"log_id"`

	CallDatetime time.Time `json:"call_datetime" db:"call_datetime"`

	// InvalidNumbers is a comma-delimited list of 7-8 digit numbers that
	// failed when dialed from the locator information.
	InvalidNumbers string `json:"invalid_numbers,omitempty" db:"invalid_numbers"`

	ContactType    ContactType    `json:"contact_type" db:"contact_type"`
	SurvivalStatus SurvivalStatus `json:"survival_status" db:"survival_status"`

	TimeOfWeek string `json:"time_of_week,omitempty" db:"time_of_week"`
	TimeOfDay  string `json:"time_of_day,omitempty" db:"time_of_day"`

	Appt     YesNoUnknown `json:"appt,omitempty" db:"appt"`
	ApptDate *time.Time   `json:"appt_date,omitempty" db:"appt_date"`

	ApptGrading       string `json:"appt_grading,omitempty" db:"appt_grading"`
	ApptLocation      string `json:"appt_location,omitempty" db:"appt_location"`
	ApptLocationOther string `json:"appt_location_other,omitempty" db:"appt_location_other"`

	Delivered *bool `json:"delivered,omitempty" db:"delivered"`

	// CallAgain is forced to NO at write time when SurvivalStatus is DEAD.
	CallAgain YesNo `json:"call_again" db:"call_again"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type SurvivalStatus string

const (
	SurvivalStatusAlive   SurvivalStatus = "ALIVE"
	SurvivalStatusDead    SurvivalStatus = "DEAD"
	SurvivalStatusUnknown SurvivalStatus = "UNKNOWN"
)

type YesNo string

const (
	Yes YesNo = "YES"
	No  YesNo = "NO"
)

type YesNoUnknown string

const (
	ApptYes     YesNoUnknown = "YES"
	ApptNo      YesNoUnknown = "NO"
	ApptUnknown YesNoUnknown = "UNKNOWN"
)

type ContactType string

const (
	ContactTypeDirect   ContactType = "direct"
	ContactTypeIndirect ContactType = "indirect"
	ContactTypeNone     ContactType = "no_contact"
)

// Outcome derives the attempt outcome list. It is computed, never stored.
func (e LogEntry) Outcome() []string {
	var out []string
	if e.ApptDate != nil {
		out = append(out, "Appt. scheduled")
	}
	switch e.SurvivalStatus {
	case SurvivalStatusAlive:
		out = append(out, "Alive")
	case SurvivalStatusDead:
		out = append(out, "Deceased")
	}
	switch e.CallAgain {
	case Yes:
		out = append(out, "Call again")
	case No:
		out = append(out, "Do not call")
	}
	return out
}

// OutcomeSummary renders the outcome list as the call-level summary text.
func (e LogEntry) OutcomeSummary() string {
	return strings.Join(e.Outcome(), ". ")
}
