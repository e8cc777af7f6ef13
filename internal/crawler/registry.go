package crawler

import (
	"sync"
	"time"

	"github.com/nao1215/multicrawler/internal/model"
)

// VisitedRegistry tracks how often each URL has been visited during a crawl.
// Updates for one URL are serialized by a per-entry lock, so workers
// visiting different URLs never contend on a registry-wide lock.
type VisitedRegistry struct {
	entries sync.Map // map[string]*visitEntry
	now     func() time.Time
}

type visitEntry struct {
	mu    sync.Mutex
	count int
	last  time.Time
}

// NewVisitedRegistry creates an empty registry.
func NewVisitedRegistry() *VisitedRegistry {
	return &VisitedRegistry{now: time.Now}
}

// RecordVisit increments the visit count of rawURL, stamps the visit time
// and returns the updated info. The first call for a URL yields Count 1.
func (r *VisitedRegistry) RecordVisit(rawURL string) model.VisitInfo {
	v, _ := r.entries.LoadOrStore(rawURL, &visitEntry{})
	e := v.(*visitEntry) //nolint:forcetypeassert // only *visitEntry is stored

	now := r.now()

	e.mu.Lock()
	defer e.mu.Unlock()

	previous := e.last
	e.count++
	e.last = now

	return model.VisitInfo{
		Count:         e.count,
		LastVisit:     now,
		PreviousVisit: previous,
	}
}

// Lookup returns the current visit info of rawURL without recording a visit.
func (r *VisitedRegistry) Lookup(rawURL string) (model.VisitInfo, bool) {
	v, ok := r.entries.Load(rawURL)
	if !ok {
		return model.VisitInfo{}, false
	}
	e := v.(*visitEntry) //nolint:forcetypeassert // only *visitEntry is stored

	e.mu.Lock()
	defer e.mu.Unlock()
	return model.VisitInfo{Count: e.count, LastVisit: e.last}, true
}

// Len returns the number of distinct URLs recorded.
func (r *VisitedRegistry) Len() int {
	n := 0
	r.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
