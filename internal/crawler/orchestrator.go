package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nao1215/multicrawler/internal/model"
)

// ErrNoStore is returned by operations that need a persistence store when
// the orchestrator was built without one.
var ErrNoStore = errors.New("no result store configured")

// ResultStore persists crawl results outside the process.
type ResultStore interface {
	Insert(ctx context.Context, result model.CrawlResult) error
	GetAll(ctx context.Context) ([]model.CrawlResult, error)
	ClearAll(ctx context.Context) error
}

// Orchestrator owns the lifecycle of one crawl at a time: it schedules
// tasks on a worker pool, tracks progress, and supports pause, resume and
// hard termination.
//
// All lifecycle state is guarded by mu. The result log has its own lock so
// that readers never wait on scheduling.
type Orchestrator struct {
	fetcher     Fetcher
	store       ResultStore
	logger      *slog.Logger
	maxBodySize int64
	now         func() time.Time

	// registry survives stop/resume. Each fresh start gets a new one so
	// that stray tasks of a terminated crawl cannot mark URLs in it.
	registry *VisitedRegistry

	mu    sync.Mutex
	state model.State

	// sessionID identifies the current crawl. Callbacks carrying another
	// id come from tasks of an earlier crawl and are ignored.
	sessionID string

	// request is the remembered configuration used by resume.
	request    *model.CrawlRequest
	filter     *regexp.Regexp
	sessionCtx context.Context
	cancel     context.CancelFunc
	pool       *workerPool

	// backlog holds tasks that were scheduled but never started because
	// the crawl was paused.
	backlog []Task

	totalTasks     int
	completedTasks int
	resuming       bool

	startTime time.Time
	endTime   time.Time
	done      chan struct{}

	resultsMu sync.RWMutex
	results   []model.CrawlResult
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithStore sets the store every result is forwarded to.
func WithStore(store ResultStore) Option {
	return func(o *Orchestrator) {
		o.store = store
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMaxBodySize limits how many body bytes a task reads per page.
func WithMaxBodySize(size int64) Option {
	return func(o *Orchestrator) {
		if size > 0 {
			o.maxBodySize = size
		}
	}
}

// WithClock replaces time.Now for timestamps and durations.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// New creates an idle orchestrator that fetches pages with fetcher.
func New(fetcher Fetcher, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		fetcher:     fetcher,
		logger:      slog.Default(),
		maxBodySize: DefaultMaxBodySize,
		now:         time.Now,
		state:       model.StateIdle,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.registry = o.newRegistry()
	return o
}

// Start begins a crawl. It is a no-op while a crawl is running, and it
// resumes instead when the current crawl is paused. Configuration errors
// are returned and leave the orchestrator untouched.
func (o *Orchestrator) Start(req model.CrawlRequest) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch o.state {
	case model.StateRunning:
		return nil
	case model.StatePaused:
		if o.request != nil {
			o.resumeLocked()
			return nil
		}
	}

	req = req.WithDefaults()
	if err := req.Validate(); err != nil {
		return err
	}
	filter, err := req.CompileFilter()
	if err != nil {
		return err
	}

	if o.cancel != nil {
		o.cancel()
	}
	o.clearResults()
	o.registry = o.newRegistry()

	o.sessionID = uuid.NewString()
	o.request = &req
	o.filter = filter
	o.sessionCtx, o.cancel = context.WithCancel(context.Background())
	o.backlog = nil
	o.totalTasks = 1
	o.completedTasks = 0
	o.resuming = false
	o.startTime = o.now()
	o.endTime = time.Time{}
	o.done = make(chan struct{})
	o.state = model.StateRunning
	o.pool = o.newPool(req.Threads)

	o.logger.Info("crawl started",
		"session", o.sessionID,
		"seed", req.SeedURL,
		"max_depth", req.MaxDepth,
		"threads", req.Threads,
	)

	o.pool.submit(seedTask(req, filter))
	return nil
}

// Stop pauses a running crawl. In-flight tasks finish normally; tasks that
// were queued but not yet started move to the backlog. It is a no-op when
// not running.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != model.StateRunning {
		return
	}
	o.state = model.StatePaused
	o.resuming = false
	o.backlog = append(o.backlog, o.pool.shutdown()...)
	o.pool = nil

	o.logger.Info("crawl paused", "session", o.sessionID, "backlog", len(o.backlog))
}

// Resume continues a paused crawl on a fresh worker pool. It is a no-op
// unless the crawl is paused.
func (o *Orchestrator) Resume() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != model.StatePaused || o.request == nil {
		return
	}
	o.resumeLocked()
}

func (o *Orchestrator) resumeLocked() {
	if len(o.backlog) == 0 && o.completedTasks >= o.totalTasks {
		o.finishLocked()
		return
	}

	o.resuming = true
	o.state = model.StateRunning
	o.pool = o.newPool(o.request.Threads)

	pending := o.backlog
	o.backlog = nil

	if len(pending) == 0 {
		// Work is outstanding but nothing is queued. The registry was kept,
		// so the seed comes back as a revisit.
		o.totalTasks++
		pending = []Task{seedTask(*o.request, o.filter)}
		o.logger.Warn("resume found no backlog, reseeding",
			"session", o.sessionID,
			"completed", o.completedTasks,
			"total", o.totalTasks,
		)
	}
	for _, task := range pending {
		o.pool.submit(task)
	}

	o.logger.Info("crawl resumed", "session", o.sessionID, "resubmitted", len(pending))
}

// Terminate hard-stops the crawl: running tasks are cancelled, queued and
// paused work is discarded and the remembered request is forgotten.
func (o *Orchestrator) Terminate() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != model.StateRunning && o.state != model.StatePaused {
		return
	}

	if o.pool != nil {
		o.pool.shutdownNow()
		o.pool = nil
	}
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}

	o.logger.Info("crawl terminated",
		"session", o.sessionID,
		"completed", o.completedTasks,
		"total", o.totalTasks,
		"discarded", len(o.backlog),
	)

	o.backlog = nil
	o.request = nil
	o.filter = nil
	o.resuming = false
	o.sessionID = ""
	o.state = model.StateTerminated
	o.endTime = o.now()
	o.closeDone()
}

// Status returns a snapshot of the crawl progress.
func (o *Orchestrator) Status() model.Status {
	o.mu.Lock()
	defer o.mu.Unlock()

	var elapsed time.Duration
	switch {
	case o.startTime.IsZero():
	case !o.endTime.IsZero():
		elapsed = o.endTime.Sub(o.startTime)
	default:
		elapsed = o.now().Sub(o.startTime)
	}

	return model.Status{
		Running:        o.state == model.StateRunning,
		Paused:         o.state == model.StatePaused,
		State:          o.state,
		SessionID:      o.sessionID,
		TotalTasks:     o.totalTasks,
		CompletedTasks: o.completedTasks,
		PendingTasks:   o.totalTasks - o.completedTasks,
		Duration:       elapsed.Milliseconds(),
	}
}

// Results returns the in-memory results of the current crawl in arrival order.
func (o *Orchestrator) Results() []model.CrawlResult {
	o.resultsMu.RLock()
	defer o.resultsMu.RUnlock()
	return slices.Clone(o.results)
}

// StoredResults returns every result held by the store.
func (o *Orchestrator) StoredResults(ctx context.Context) ([]model.CrawlResult, error) {
	if o.store == nil {
		return nil, ErrNoStore
	}
	results, err := o.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load stored results: %w", err)
	}
	return results, nil
}

// ClearStore deletes every result held by the store.
func (o *Orchestrator) ClearStore(ctx context.Context) error {
	if o.store == nil {
		return ErrNoStore
	}
	if err := o.store.ClearAll(ctx); err != nil {
		return fmt.Errorf("failed to clear stored results: %w", err)
	}
	return nil
}

// Wait blocks until the current crawl completes or is terminated, or ctx
// is done. A paused crawl keeps Wait blocked until it is resumed and
// finishes. It returns immediately if no crawl was ever started.
func (o *Orchestrator) Wait(ctx context.Context) error {
	o.mu.Lock()
	done := o.done
	o.mu.Unlock()

	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) newRegistry() *VisitedRegistry {
	r := NewVisitedRegistry()
	r.now = o.now
	return r
}

func (o *Orchestrator) newPool(threads int) *workerPool {
	env := &taskEnv{
		sink:        &sessionSink{o: o, id: o.sessionID},
		registry:    o.registry,
		fetcher:     o.fetcher,
		logger:      o.logger,
		maxBodySize: o.maxBodySize,
		now:         o.now,
	}
	return newWorkerPool(o.sessionCtx, threads, func(ctx context.Context, task Task) {
		task.execute(ctx, env)
	})
}

func (o *Orchestrator) enqueue(session string, task Task) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if session != o.sessionID {
		return
	}

	switch o.state {
	case model.StateRunning:
		o.totalTasks++
		if !o.pool.submit(task) {
			o.backlog = append(o.backlog, task)
		}
	case model.StatePaused:
		o.totalTasks++
		o.backlog = append(o.backlog, task)
	default:
		o.logger.Debug("dropping task", "url", task.URL, "state", o.state)
	}
}

func (o *Orchestrator) taskCompleted(session string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if session != o.sessionID {
		return
	}
	o.completedTasks++

	if o.resuming && len(o.backlog) == 0 {
		o.resuming = false
	}
	if o.state == model.StateRunning && !o.resuming && o.completedTasks >= o.totalTasks {
		o.finishLocked()
	}
}

// finishLocked moves a crawl with no outstanding work to idle rather than
// paused, so the next Start begins a new crawl instead of resuming an empty
// backlog.
func (o *Orchestrator) finishLocked() {
	if o.pool != nil {
		o.pool.shutdown()
		o.pool = nil
	}
	o.state = model.StateIdle
	o.resuming = false
	o.backlog = nil
	o.endTime = o.now()
	o.closeDone()

	o.logger.Info("crawl finished",
		"session", o.sessionID,
		"pages", o.completedTasks,
		"elapsed", o.endTime.Sub(o.startTime).Round(time.Millisecond),
	)
}

func (o *Orchestrator) closeDone() {
	if o.done == nil {
		return
	}
	select {
	case <-o.done:
	default:
		close(o.done)
	}
}

func (o *Orchestrator) isSession(session string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return session != "" && session == o.sessionID
}

func (o *Orchestrator) addResult(session string, result model.CrawlResult) {
	o.mu.Lock()
	if session == "" || session != o.sessionID {
		o.mu.Unlock()
		return
	}
	o.resultsMu.Lock()
	o.results = append(o.results, result)
	o.resultsMu.Unlock()
	o.mu.Unlock()

	if o.store == nil {
		return
	}
	if err := o.store.Insert(context.Background(), result); err != nil {
		o.logger.Warn("failed to persist result", "url", result.URL, "error", err)
	}
}

func (o *Orchestrator) clearResults() {
	o.resultsMu.Lock()
	o.results = nil
	o.resultsMu.Unlock()
}

// sessionSink binds task callbacks to the session that created them.
type sessionSink struct {
	o  *Orchestrator
	id string
}

func (s *sessionSink) Enqueue(task Task) { s.o.enqueue(s.id, task) }

func (s *sessionSink) AddResult(result model.CrawlResult) { s.o.addResult(s.id, result) }

func (s *sessionSink) TaskCompleted() { s.o.taskCompleted(s.id) }

func (s *sessionSink) ActiveSession() bool { return s.o.isSession(s.id) }
