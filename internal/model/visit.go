package model

import "time"

// VisitInfo is the visit history of one URL within a crawl.
type VisitInfo struct {
	// Count is the number of times the URL has been visited, starting at 1.
	Count int

	// LastVisit is the time of the most recent visit.
	LastVisit time.Time

	// PreviousVisit is the time of the visit before LastVisit.
	// It is zero on the first visit.
	PreviousVisit time.Time
}

// IsRevisit reports whether the URL had been visited before.
func (v VisitInfo) IsRevisit() bool {
	return v.Count > 1
}

// SincePrevious returns the time between the previous and the latest visit.
func (v VisitInfo) SincePrevious() time.Duration {
	if v.PreviousVisit.IsZero() {
		return 0
	}
	return v.LastVisit.Sub(v.PreviousVisit)
}
