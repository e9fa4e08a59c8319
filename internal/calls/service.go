package calls

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// invalidNumbersPattern: comma separated 7-8 digit numbers, no spaces, no
// trailing comma.
var invalidNumbersPattern = regexp.MustCompile(`^[0-9]{7,8}(,[0-9]{7,8})*$`)

// ValidationError reports the specific field an operator must correct.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("calls: invalid %s: %s", e.Field, e.Reason)
}

// EntrySink receives every accepted log entry after it is durably written.
// The dispatch glue implements this to drive the call-state reconciler.
type EntrySink interface {
	LogEntryRecorded(ctx context.Context, entry LogEntry) error
}

// Service is the operator-facing write API for call attempt records.
//
// Invariants enforced here, at write time:
// - survival_status DEAD forces call_again to NO regardless of input.
// - appt_date must be strictly in the future when set.
// - invalid_numbers must match the comma-delimited number pattern when set.
type Service struct {
	repo  Repository
	sink  EntrySink
	log   *slog.Logger
	clock func() time.Time
}

func NewService(repo Repository, sink EntrySink, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, sink: sink, log: log, clock: time.Now}
}

type CreateLogEntryRequest struct {
	LogID string `json:"log_id"`

	CallDatetime   time.Time      `json:"call_datetime"`
	InvalidNumbers string         `json:"invalid_numbers,omitempty"`
	ContactType    ContactType    `json:"contact_type"`
	SurvivalStatus SurvivalStatus `json:"survival_status"`

	TimeOfWeek string `json:"time_of_week,omitempty"`
	TimeOfDay  string `json:"time_of_day,omitempty"`

	Appt     YesNoUnknown `json:"appt,omitempty"`
	ApptDate *time.Time   `json:"appt_date,omitempty"`

	ApptGrading       string `json:"appt_grading,omitempty"`
	ApptLocation      string `json:"appt_location,omitempty"`
	ApptLocationOther string `json:"appt_location_other,omitempty"`

	CallAgain YesNo `json:"call_again"`
}

// CreateLogEntry validates, coerces and persists one dial attempt, then
// notifies the sink so the owning call is reconciled.
func (s *Service) CreateLogEntry(ctx context.Context, req CreateLogEntryRequest) (LogEntry, error) {
	if req.LogID == "" {
		return LogEntry{}, &ValidationError{Field: "log_id", Reason: "required"}
	}
	if _, err := s.repo.GetLog(ctx, req.LogID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return LogEntry{}, &ValidationError{Field: "log_id", Reason: "unknown log"}
		}
		return LogEntry{}, err
	}

	now := s.clock().UTC()
	if req.CallDatetime.IsZero() {
		return LogEntry{}, &ValidationError{Field: "call_datetime", Reason: "required"}
	}
	if req.InvalidNumbers != "" && !invalidNumbersPattern.MatchString(req.InvalidNumbers) {
		return LogEntry{}, &ValidationError{
			Field:  "invalid_numbers",
			Reason: "only contact numbers separated by commas, no spaces and no trailing comma",
		}
	}
	switch req.ContactType {
	case ContactTypeDirect, ContactTypeIndirect, ContactTypeNone:
	default:
		return LogEntry{}, &ValidationError{Field: "contact_type", Reason: "unknown value"}
	}
	switch req.SurvivalStatus {
	case SurvivalStatusAlive, SurvivalStatusDead, SurvivalStatusUnknown:
	default:
		return LogEntry{}, &ValidationError{Field: "survival_status", Reason: "unknown value"}
	}
	if req.ApptDate != nil && !req.ApptDate.After(now) {
		return LogEntry{}, &ValidationError{Field: "appt_date", Reason: "must be a future date"}
	}

	callAgain := req.CallAgain
	if callAgain == "" {
		callAgain = Yes
	}
	if callAgain != Yes && callAgain != No {
		return LogEntry{}, &ValidationError{Field: "call_again", Reason: "must be YES or NO"}
	}
	// Deceased subjects are never called again, whatever the form said.
	if req.SurvivalStatus == SurvivalStatusDead {
		callAgain = No
	}

	delivered := false
	entry := LogEntry{
		ID:                uuid.NewString(),
		LogID:             req.LogID,
		CallDatetime:      req.CallDatetime.UTC(),
		InvalidNumbers:    req.InvalidNumbers,
		ContactType:       req.ContactType,
		SurvivalStatus:    req.SurvivalStatus,
		TimeOfWeek:        req.TimeOfWeek,
		TimeOfDay:         req.TimeOfDay,
		Appt:              req.Appt,
		ApptDate:          req.ApptDate,
		ApptGrading:       req.ApptGrading,
		ApptLocation:      req.ApptLocation,
		ApptLocationOther: req.ApptLocationOther,
		Delivered:         &delivered,
		CallAgain:         callAgain,
		CreatedAt:         now,
	}

	if err := s.repo.CreateLogEntry(ctx, entry); err != nil {
		return LogEntry{}, err
	}

	if s.sink != nil {
		if err := s.sink.LogEntryRecorded(ctx, entry); err != nil {
			// The entry is already durable; reconciliation failure must not
			// surface to the operator as a rejected write. It does surface
			// to ops, so the unreconciled call can be found.
			s.log.Error("log entry reconciliation failed",
				"entry_id", entry.ID,
				"log_id", entry.LogID,
				"err", err,
			)
			return entry, nil
		}
	}
	return entry, nil
}

func (s *Service) GetCall(ctx context.Context, id string) (Call, error) {
	return s.repo.GetCall(ctx, id)
}

func (s *Service) ListCallsBySubject(ctx context.Context, subjectIdentifier string) ([]Call, error) {
	if subjectIdentifier == "" {
		return nil, &ValidationError{Field: "subject_identifier", Reason: "required"}
	}
	return s.repo.ListCallsBySubject(ctx, subjectIdentifier)
}

func (s *Service) GetCallLog(ctx context.Context, callID string) (Log, []LogEntry, error) {
	l, err := s.repo.GetLogByCall(ctx, callID)
	if err != nil {
		return Log{}, nil, err
	}
	entries, err := s.repo.ListLogEntries(ctx, l.ID)
	if err != nil {
		return Log{}, nil, err
	}
	return l, entries, nil
}
