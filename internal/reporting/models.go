package reporting

import "time"

// TimeRange bounds a report over call scheduled dates. From inclusive, To exclusive.
type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

type CallsSummaryRequest struct {
	// Label restricts the summary to one call spec; empty means all labels.
	Label string    `json:"label,omitempty"`
	Range TimeRange `json:"range"`
}

// CallsSummary aggregates the follow-up workload for a window.
type CallsSummary struct {
	Label string `json:"label,omitempty"`

	TotalCalls      int `json:"total_calls"`
	NewCalls        int `json:"new_calls"`
	OpenCalls       int `json:"open_calls"`
	ClosedCalls     int `json:"closed_calls"`
	AutoClosedCalls int `json:"auto_closed_calls"`
	RepeatingCalls  int `json:"repeating_calls"`

	TotalAttempts          int     `json:"total_attempts"`
	AverageAttemptsPerCall float64 `json:"average_attempts_per_call"`
}
