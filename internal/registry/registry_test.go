package registry

import (
	"errors"
	"testing"
)

func spec(label, appLabel string) CallSpec {
	return CallSpec{
		Label:      label,
		AppLabel:   appLabel,
		ScheduleOn: []EventType{"consent"},
	}
}

func TestRegister_RejectsDuplicate(t *testing.T) {
	r := New()
	s := spec("followup", "study")

	if err := r.Register(s); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if err := r.Register(s); !errors.Is(err, ErrDuplicateRegistration) {
		t.Fatalf("expected ErrDuplicateRegistration, got %v", err)
	}
}

func TestRegister_SameLabelDifferentAppLabel(t *testing.T) {
	r := New()
	if err := r.Register(spec("followup", "study_a")); err != nil {
		t.Fatalf("register a: %v", err)
	}
	if err := r.Register(spec("followup", "study_b")); err != nil {
		t.Fatalf("register b: %v", err)
	}
}

func TestRegister_RequiresLabelsAndTriggers(t *testing.T) {
	r := New()
	if err := r.Register(CallSpec{AppLabel: "study", ScheduleOn: []EventType{"consent"}}); err == nil {
		t.Fatal("missing label accepted")
	}
	if err := r.Register(CallSpec{Label: "followup", ScheduleOn: []EventType{"consent"}}); err == nil {
		t.Fatal("missing app label accepted")
	}
	if err := r.Register(CallSpec{Label: "followup", AppLabel: "study"}); err == nil {
		t.Fatal("spec with no trigger event types accepted")
	}
}

func TestScheduledBy_PreservesRegistrationOrder(t *testing.T) {
	r := New()
	for _, label := range []string{"first", "second", "third"} {
		if err := r.Register(spec(label, "study")); err != nil {
			t.Fatalf("register %s: %v", label, err)
		}
	}

	got := r.ScheduledBy("consent")
	if len(got) != 3 {
		t.Fatalf("expected 3 specs, got %d", len(got))
	}
	for i, want := range []string{"first", "second", "third"} {
		if got[i].Label != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, got[i].Label)
		}
	}
}

func TestScheduledBy_FiltersByEventType(t *testing.T) {
	r := New()
	a := spec("a", "study")
	b := spec("b", "study")
	b.ScheduleOn = []EventType{"missed_visit"}
	_ = r.Register(a)
	_ = r.Register(b)

	got := r.ScheduledBy("missed_visit")
	if len(got) != 1 || got[0].Label != "b" {
		t.Fatalf("unexpected specs: %+v", got)
	}
	if len(r.ScheduledBy("unknown")) != 0 {
		t.Fatal("unknown event type matched a spec")
	}
}

func TestUnscheduledBy(t *testing.T) {
	r := New()
	a := spec("a", "study")
	a.UnscheduleOn = []EventType{"offstudy", "death"}
	b := spec("b", "study")
	b.UnscheduleOn = []EventType{"death"}
	_ = r.Register(a)
	_ = r.Register(b)

	if got := r.UnscheduledBy("death"); len(got) != 2 {
		t.Fatalf("expected 2 specs for death, got %d", len(got))
	}
	if got := r.UnscheduledBy("offstudy"); len(got) != 1 || got[0].Label != "a" {
		t.Fatalf("unexpected specs for offstudy: %+v", got)
	}
}

func TestParticipates(t *testing.T) {
	r := New()
	s := spec("a", "study")
	s.UnscheduleOn = []EventType{"death"}
	_ = r.Register(s)

	if !r.Participates("consent") || !r.Participates("death") {
		t.Fatal("registered event types must participate")
	}
	if r.Participates("visit") {
		t.Fatal("unregistered event type must not participate")
	}
}

func TestSpecByLabel(t *testing.T) {
	r := New()
	s := spec("followup", "study")
	s.Repeats = true
	_ = r.Register(s)

	got, ok := r.SpecByLabel("followup")
	if !ok || !got.Repeats {
		t.Fatalf("lookup failed: %+v ok=%v", got, ok)
	}
	if _, ok := r.SpecByLabel("missing"); ok {
		t.Fatal("missing label reported found")
	}
}
