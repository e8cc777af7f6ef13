package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// State is the lifecycle state of a crawl orchestrator.
type State string

const (
	// StateIdle means no crawl has started, or the last one ran to completion.
	StateIdle State = "idle"
	// StateRunning means tasks are being executed.
	StateRunning State = "running"
	// StatePaused means the crawl was stopped with work outstanding.
	StatePaused State = "paused"
	// StateTerminated means the last crawl was hard-stopped.
	StateTerminated State = "terminated"
)

// Status is a point-in-time progress snapshot. It is computed on demand.
type Status struct {
	Running        bool   `json:"running"`
	Paused         bool   `json:"paused"`
	State          State  `json:"state"`
	SessionID      string `json:"sessionId,omitempty"`
	TotalTasks     int    `json:"totalTasks"`
	CompletedTasks int    `json:"completedTasks"`
	PendingTasks   int    `json:"pendingTasks"`
	// Duration is the elapsed time in milliseconds since the crawl started.
	Duration int64 `json:"duration"`
}

// ProgressPercentage returns completed/total as an integer percentage.
func (s Status) ProgressPercentage() int {
	if s.TotalTasks == 0 {
		return 0
	}
	return int(float64(s.CompletedTasks) * 100 / float64(s.TotalTasks))
}

// IsComplete reports whether the crawl is not running and every counted task finished.
func (s Status) IsComplete() bool {
	return !s.Running && s.CompletedTasks >= s.TotalTasks
}

// Elapsed returns Duration as a time.Duration.
func (s Status) Elapsed() time.Duration {
	return time.Duration(s.Duration) * time.Millisecond
}

// FormattedDuration renders the elapsed time as "N seconds",
// "N minutes M seconds" or "H hours M minutes".
func (s Status) FormattedDuration() string {
	seconds := s.Duration / 1000
	switch {
	case seconds < 60:
		return fmt.Sprintf("%d seconds", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%d minutes %d seconds", seconds/60, seconds%60)
	default:
		return fmt.Sprintf("%d hours %d minutes", seconds/3600, (seconds%3600)/60)
	}
}

// MarshalJSON adds the derived fields to the encoded snapshot.
func (s Status) MarshalJSON() ([]byte, error) {
	type plain Status
	return json.Marshal(struct {
		plain
		ProgressPercentage int    `json:"progressPercentage"`
		Complete           bool   `json:"complete"`
		FormattedDuration  string `json:"formattedDuration"`
	}{
		plain:              plain(s),
		ProgressPercentage: s.ProgressPercentage(),
		Complete:           s.IsComplete(),
		FormattedDuration:  s.FormattedDuration(),
	})
}
