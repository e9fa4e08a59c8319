package reporting

import (
	"context"
	"testing"
	"time"

	"callmanager/internal/calls"
)

func TestReporting_CallsSummaryCounts(t *testing.T) {
	repo := NewMemoryRepo()
	day := time.Date(2023, 11, 14, 0, 0, 0, 0, time.UTC)
	repo.Calls = []calls.Call{
		{ID: "c1", Label: "followup", Status: calls.CallStatusNew, Scheduled: day},
		{ID: "c2", Label: "followup", Status: calls.CallStatusOpen, CallAttempts: 2, Scheduled: day},
		{ID: "c3", Label: "followup", Status: calls.CallStatusClosed, AutoClosed: true, CallAttempts: 3, Repeats: true, Scheduled: day},
	}
	svc := NewService(repo)

	out, err := svc.CallsSummary(context.Background(), CallsSummaryRequest{
		Label: "followup",
		Range: TimeRange{From: day.AddDate(0, 0, -1), To: day.AddDate(0, 0, 1)},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.TotalCalls != 3 || out.NewCalls != 1 || out.OpenCalls != 1 || out.ClosedCalls != 1 {
		t.Fatalf("unexpected summary: %+v", out)
	}
	if out.AutoClosedCalls != 1 || out.RepeatingCalls != 1 {
		t.Fatalf("unexpected closed breakdown: %+v", out)
	}
	if out.TotalAttempts != 5 {
		t.Fatalf("expected 5 attempts, got %d", out.TotalAttempts)
	}
}

func TestReporting_LabelFilter(t *testing.T) {
	repo := NewMemoryRepo()
	day := time.Date(2023, 11, 14, 0, 0, 0, 0, time.UTC)
	repo.Calls = []calls.Call{
		{ID: "c1", Label: "followup", Status: calls.CallStatusNew, Scheduled: day},
		{ID: "c2", Label: "annual", Status: calls.CallStatusNew, Scheduled: day},
	}
	svc := NewService(repo)

	out, err := svc.CallsSummary(context.Background(), CallsSummaryRequest{
		Label: "annual",
		Range: TimeRange{From: day.AddDate(0, 0, -1), To: day.AddDate(0, 0, 1)},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.TotalCalls != 1 {
		t.Fatalf("expected 1 call, got %d", out.TotalCalls)
	}
}

func TestReporting_RejectsInvalidRange(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	if _, err := svc.CallsSummary(context.Background(), CallsSummaryRequest{}); err != ErrInvalidRequest {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}
