package planner

import (
	"errors"
	"testing"

	"github.com/javiermolinar/horario/internal/catalog"
)

var algoritmos = catalog.Course{ID: "ALG", Name: "Algoritmos", Cycle: 3, WeeklyHours: 4, Kind: catalog.KindMandatory}

func TestPlanGroups(t *testing.T) {
	p := New()
	cp, err := p.PlanGroups(algoritmos, 2)
	if err != nil {
		t.Fatalf("PlanGroups failed: %v", err)
	}
	if len(cp.Groups) != 2 {
		t.Fatalf("len(Groups) = %d, want 2", len(cp.Groups))
	}
	for _, g := range cp.Groups {
		if len(g.Sessions) != 1 || g.Sessions[0].Duration != 4 {
			t.Errorf("group %d sessions = %+v, want one 4h session", g.ID, g.Sessions)
		}
	}
	if cp.Groups[0].Sessions[0].ID == cp.Groups[1].Sessions[0].ID {
		t.Error("sessions with equal durations must have distinct IDs")
	}
}

func TestPlanGroups_InvalidCount(t *testing.T) {
	for _, n := range []int{0, 4, -1} {
		if _, err := New().PlanGroups(algoritmos, n); !errors.Is(err, ErrInvalidGroupCount) {
			t.Errorf("PlanGroups(%d) error = %v, want ErrInvalidGroupCount", n, err)
		}
	}
}

func TestPlanGroups_ReplanWithPlacedSession(t *testing.T) {
	p := New()
	cp, _ := p.PlanGroups(algoritmos, 1)
	if err := p.MarkPlaced(cp.Groups[0].Sessions[0].ID); err != nil {
		t.Fatalf("MarkPlaced failed: %v", err)
	}
	if _, err := p.PlanGroups(algoritmos, 2); !errors.Is(err, ErrSessionPlaced) {
		t.Errorf("re-plan error = %v, want ErrSessionPlaced", err)
	}
}

func TestSplitAndMerge(t *testing.T) {
	p := New()
	cp, _ := p.PlanGroups(algoritmos, 1)
	orig := cp.Groups[0].Sessions[0].ID

	parts, err := p.SplitSession("ALG", orig, 2, 2)
	if err != nil {
		t.Fatalf("SplitSession failed: %v", err)
	}
	if len(parts) != 2 || parts[0].ID == parts[1].ID {
		t.Fatalf("unexpected parts: %+v", parts)
	}
	if _, _, _, ok := p.Session(orig); ok {
		t.Error("original session should be gone after split")
	}
	if got := cp.Groups[0].PlannedHours(); got != 4 {
		t.Errorf("PlannedHours = %d, want 4", got)
	}

	merged, err := p.MergeSessions("ALG", parts[0].ID, parts[1].ID)
	if err != nil {
		t.Fatalf("MergeSessions failed: %v", err)
	}
	if merged.Duration != 4 || len(cp.Groups[0].Sessions) != 1 {
		t.Errorf("merge result = %+v, sessions = %d", merged, len(cp.Groups[0].Sessions))
	}
}

func TestSplitSession_Errors(t *testing.T) {
	p := New()
	cp, _ := p.PlanGroups(algoritmos, 1)
	id := cp.Groups[0].Sessions[0].ID

	if _, err := p.SplitSession("ALG", id, 3, 2); err == nil {
		t.Error("expected error when durations do not sum to the session")
	}
	if _, err := p.SplitSession("ALG", id, 4, 0); !errors.Is(err, ErrInvalidDuration) {
		t.Errorf("error = %v, want ErrInvalidDuration", err)
	}
	if _, err := p.SplitSession("ALG", "nope", 2, 2); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("error = %v, want ErrSessionNotFound", err)
	}

	_ = p.MarkPlaced(id)
	if _, err := p.SplitSession("ALG", id, 2, 2); !errors.Is(err, ErrSessionPlaced) {
		t.Errorf("error = %v, want ErrSessionPlaced", err)
	}
}

func TestMergeSessions_DifferentGroups(t *testing.T) {
	p := New()
	cp, _ := p.PlanGroups(algoritmos, 2)
	_, err := p.MergeSessions("ALG", cp.Groups[0].Sessions[0].ID, cp.Groups[1].Sessions[0].ID)
	if err == nil {
		t.Error("expected error merging sessions from different groups")
	}
}

func TestValidateGroup(t *testing.T) {
	g := &Group{ID: 1, Sessions: []*Session{{ID: "a", Duration: 3}}}
	err := ValidateGroup("ALG", g, 4)
	var mismatch *HoursMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("error = %v, want *HoursMismatchError", err)
	}
	if mismatch.Planned != 3 || mismatch.Required != 4 {
		t.Errorf("mismatch = %+v", mismatch)
	}
	if !errors.Is(err, ErrHoursMismatch) {
		t.Error("HoursMismatchError should unwrap to ErrHoursMismatch")
	}

	g.Sessions = append(g.Sessions, &Session{ID: "b", Duration: 1})
	if err := ValidateGroup("ALG", g, 4); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestSubmit(t *testing.T) {
	p := New()
	cp, _ := p.PlanGroups(algoritmos, 1)
	id := cp.Groups[0].Sessions[0].ID

	if err := p.Submit("ALG"); !errors.Is(err, ErrMissingProfessor) {
		t.Fatalf("Submit without professor error = %v, want ErrMissingProfessor", err)
	}
	if err := p.AssignGroup("ALG", 1, "P1", 30); err != nil {
		t.Fatalf("AssignGroup failed: %v", err)
	}
	if err := p.SetDuration("ALG", id, 3); err != nil {
		t.Fatalf("SetDuration failed: %v", err)
	}
	if err := p.Submit("ALG"); !errors.Is(err, ErrHoursMismatch) {
		t.Fatalf("Submit error = %v, want ErrHoursMismatch", err)
	}
	if cp.Submitted {
		t.Fatal("plan must stay unsubmitted after a failed submit")
	}

	if _, err := p.AddSession("ALG", 1, 1); err != nil {
		t.Fatalf("AddSession failed: %v", err)
	}
	if err := p.Submit("ALG"); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if !cp.Submitted {
		t.Error("expected plan to be submitted")
	}

	// any edit reopens the plan
	if _, err := p.AddSession("ALG", 1, 1); err != nil {
		t.Fatalf("AddSession failed: %v", err)
	}
	if cp.Submitted {
		t.Error("editing a submitted plan should clear Submitted")
	}
}

func TestRemoveSession_ByIdentity(t *testing.T) {
	p := New()
	cp, _ := p.PlanGroups(algoritmos, 1)
	parts, _ := p.SplitSession("ALG", cp.Groups[0].Sessions[0].ID, 2, 2)

	if err := p.MarkPlaced(parts[0].ID); err != nil {
		t.Fatalf("MarkPlaced failed: %v", err)
	}
	if err := p.RemoveSession("ALG", parts[0].ID); !errors.Is(err, ErrSessionPlaced) {
		t.Errorf("removing placed session error = %v, want ErrSessionPlaced", err)
	}
	if err := p.RemoveSession("ALG", parts[1].ID); err != nil {
		t.Fatalf("RemoveSession failed: %v", err)
	}
	remaining := cp.Groups[0].Sessions
	if len(remaining) != 1 || remaining[0].ID != parts[0].ID {
		t.Errorf("remaining = %+v, want only the placed session", remaining)
	}
}

func TestPendingAndRelease(t *testing.T) {
	p := New()
	cp, _ := p.PlanGroups(algoritmos, 1)
	parts, _ := p.SplitSession("ALG", cp.Groups[0].Sessions[0].ID, 2, 2)

	_ = p.MarkPlaced(parts[0].ID)
	pending := p.Pending("ALG")
	if len(pending) != 1 || pending[0].ID != parts[1].ID {
		t.Fatalf("Pending = %+v, want only second part", pending)
	}
	if err := p.MarkPlaced(parts[0].ID); !errors.Is(err, ErrSessionPlaced) {
		t.Errorf("double MarkPlaced error = %v, want ErrSessionPlaced", err)
	}

	if !p.Release(parts[0].ID) {
		t.Error("Release should report true for a placed session")
	}
	if p.Release("unknown") {
		t.Error("Release of unknown session should be a no-op")
	}
	if len(p.PendingSessions()) != 2 {
		t.Errorf("PendingSessions = %d, want 2", len(p.PendingSessions()))
	}
}

func TestPendingCourses(t *testing.T) {
	bd := catalog.Course{ID: "BD", Cycle: 3, WeeklyHours: 2, Kind: catalog.KindMandatory}
	eti := catalog.Course{ID: "ETI", Cycle: 3, WeeklyHours: 2, Kind: catalog.KindElective}
	courses := []catalog.Course{algoritmos, bd, eti}

	p := New()
	cp, _ := p.PlanGroups(bd, 1)
	_ = p.MarkPlaced(cp.Groups[0].Sessions[0].ID)
	_, _ = p.PlanGroups(eti, 1)

	tests := []struct {
		name   string
		placed map[string]bool
		want   []string
	}{
		{name: "nothing placed", placed: nil, want: []string{"ALG", "ETI"}},
		{name: "placements override plan", placed: map[string]bool{"ETI": true}, want: []string{"ALG"}},
		{name: "unplanned but placed", placed: map[string]bool{"ALG": true, "ETI": true}, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PendingCourses(courses, p, tt.placed)
			if len(got) != len(tt.want) {
				t.Fatalf("PendingCourses = %+v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i].ID != tt.want[i] {
					t.Errorf("got[%d] = %s, want %s", i, got[i].ID, tt.want[i])
				}
			}
		})
	}
}

func TestClone(t *testing.T) {
	p := New()
	cp, _ := p.PlanGroups(algoritmos, 1)
	c := p.Clone()
	_ = c.MarkPlaced(cp.Groups[0].Sessions[0].ID)
	if cp.Groups[0].Sessions[0].Placed {
		t.Error("mutating a clone must not affect the original")
	}
}

func TestSubmittedGroupsKeepRequiredHours(t *testing.T) {
	p := New()
	cp, _ := p.PlanGroups(algoritmos, 3)
	for _, g := range cp.Groups {
		_ = p.AssignGroup("ALG", g.ID, "P1", 20)
		_, _ = p.SplitSession("ALG", g.Sessions[0].ID, 1, 3)
	}
	if err := p.Submit("ALG"); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	for _, g := range cp.Groups {
		if g.PlannedHours() != algoritmos.WeeklyHours {
			t.Errorf("group %d planned %dh, want %dh", g.ID, g.PlannedHours(), algoritmos.WeeklyHours)
		}
	}
}
