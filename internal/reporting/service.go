package reporting

import (
	"context"
	"errors"
	"time"

	"callmanager/internal/calls"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// Repository abstracts data access for reporting.
//
// Implementations should query the call store directly; calls are the only
// source needed since outcome and attempt counts live on the call row.

type Repository interface {
	ListCalls(ctx context.Context, label string, from, to time.Time) ([]calls.Call, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

func (s *Service) CallsSummary(ctx context.Context, req CallsSummaryRequest) (CallsSummary, error) {
	if req.Range.From.IsZero() || req.Range.To.IsZero() || !req.Range.To.After(req.Range.From) {
		return CallsSummary{}, ErrInvalidRequest
	}
	if s.repo == nil {
		return CallsSummary{}, errors.New("reporting: repository not configured")
	}

	rows, err := s.repo.ListCalls(ctx, req.Label, req.Range.From, req.Range.To)
	if err != nil {
		return CallsSummary{}, err
	}

	out := CallsSummary{Label: req.Label}
	for _, c := range rows {
		out.TotalCalls++
		out.TotalAttempts += c.CallAttempts
		if c.Repeats {
			out.RepeatingCalls++
		}
		switch c.Status {
		case calls.CallStatusNew:
			out.NewCalls++
		case calls.CallStatusOpen:
			out.OpenCalls++
		case calls.CallStatusClosed:
			out.ClosedCalls++
			if c.AutoClosed {
				out.AutoClosedCalls++
			}
		}
	}
	if out.TotalCalls > 0 {
		out.AverageAttemptsPerCall = float64(out.TotalAttempts) / float64(out.TotalCalls)
	}
	return out, nil
}
