package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestStatusProgressPercentage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		total     int
		completed int
		want      int
	}{
		{name: "no tasks", total: 0, completed: 0, want: 0},
		{name: "half done", total: 4, completed: 2, want: 50},
		{name: "rounds down", total: 3, completed: 1, want: 33},
		{name: "all done", total: 7, completed: 7, want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := Status{TotalTasks: tt.total, CompletedTasks: tt.completed}
			if got := s.ProgressPercentage(); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestStatusIsComplete(t *testing.T) {
	t.Parallel()

	if (Status{Running: true, TotalTasks: 1, CompletedTasks: 1}).IsComplete() {
		t.Error("running crawl must not be complete")
	}
	if (Status{Paused: true, TotalTasks: 3, CompletedTasks: 1}).IsComplete() {
		t.Error("paused crawl with outstanding tasks must not be complete")
	}
	if !(Status{TotalTasks: 3, CompletedTasks: 3}).IsComplete() {
		t.Error("idle crawl with all tasks done must be complete")
	}
}

func TestStatusFormattedDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		elapsed time.Duration
		want    string
	}{
		{elapsed: 0, want: "0 seconds"},
		{elapsed: 42 * time.Second, want: "42 seconds"},
		{elapsed: 61 * time.Second, want: "1 minutes 1 seconds"},
		{elapsed: 2*time.Hour + 5*time.Minute + 9*time.Second, want: "2 hours 5 minutes"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()

			s := Status{Duration: tt.elapsed.Milliseconds()}
			if got := s.FormattedDuration(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestStatusMarshalJSON(t *testing.T) {
	t.Parallel()

	s := Status{Running: true, State: StateRunning, TotalTasks: 4, CompletedTasks: 1, Duration: 3000}
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if decoded["totalTasks"] != float64(4) {
		t.Errorf("expected totalTasks 4, got %v", decoded["totalTasks"])
	}
	if decoded["progressPercentage"] != float64(25) {
		t.Errorf("expected progressPercentage 25, got %v", decoded["progressPercentage"])
	}
	if decoded["complete"] != false {
		t.Errorf("expected complete false, got %v", decoded["complete"])
	}
	if decoded["formattedDuration"] != "3 seconds" {
		t.Errorf("expected formattedDuration '3 seconds', got %v", decoded["formattedDuration"])
	}
	if decoded["state"] != "running" {
		t.Errorf("expected state running, got %v", decoded["state"])
	}
}

func TestVisitInfo(t *testing.T) {
	t.Parallel()

	now := time.Now()
	first := VisitInfo{Count: 1, LastVisit: now}
	if first.IsRevisit() {
		t.Error("first visit must not be a revisit")
	}
	if first.SincePrevious() != 0 {
		t.Errorf("expected zero elapsed on first visit, got %v", first.SincePrevious())
	}

	second := VisitInfo{Count: 2, LastVisit: now, PreviousVisit: now.Add(-90 * time.Second)}
	if !second.IsRevisit() {
		t.Error("second visit must be a revisit")
	}
	if second.SincePrevious() != 90*time.Second {
		t.Errorf("expected 90s elapsed, got %v", second.SincePrevious())
	}
}
