package crawler

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/nao1215/multicrawler/internal/model"
)

// Task is the unit of work for one URL. It is a plain value: executing it
// never recurses, children are handed back to the orchestrator instead.
type Task struct {
	URL      string
	Depth    int
	MaxDepth int
	Referrer string

	// Filter must fully match a discovered link for it to be scheduled.
	// Nil accepts every http(s) link.
	Filter *regexp.Regexp

	Delay     time.Duration
	UserAgent string
	Timeout   time.Duration
}

// seedTask builds the depth-0 task for a crawl request.
func seedTask(req model.CrawlRequest, filter *regexp.Regexp) Task {
	return Task{
		URL:       req.SeedURL,
		Depth:     0,
		MaxDepth:  req.MaxDepth,
		Referrer:  "",
		Filter:    filter,
		Delay:     req.DelayDuration(),
		UserAgent: req.UserAgent,
		Timeout:   req.TimeoutDuration(),
	}
}

// child derives the task for a link discovered on t's page.
func (t Task) child(link string) Task {
	c := t
	c.URL = link
	c.Depth = t.Depth + 1
	c.Referrer = t.URL
	return c
}

// accepts reports whether a discovered link may be scheduled: it must parse,
// use http or https, and satisfy the filter when one is set.
func (t Task) accepts(link string) bool {
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return false
	}
	if t.Filter != nil && !t.Filter.MatchString(link) {
		return false
	}
	return true
}

// taskSink is the orchestrator entry point a running task reports to.
type taskSink interface {
	// Enqueue schedules a child task. It must be called before TaskCompleted.
	Enqueue(task Task)
	AddResult(result model.CrawlResult)
	TaskCompleted()
	ActiveSession() bool
}

// taskEnv carries the collaborators shared by every task of one session.
type taskEnv struct {
	sink        taskSink
	registry    *VisitedRegistry
	fetcher     Fetcher
	logger      *slog.Logger
	maxBodySize int64
	now         func() time.Time
}

// execute runs the task. Whatever path it takes, it emits at most one
// result and reports completion exactly once.
func (t Task) execute(ctx context.Context, env *taskEnv) {
	defer env.sink.TaskCompleted()

	if t.Delay > 0 {
		timer := time.NewTimer(t.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
	if ctx.Err() != nil {
		return
	}

	visit := env.registry.RecordVisit(t.URL)
	revisit := visit.IsRevisit()

	if revisit && env.sink.ActiveSession() {
		env.sink.AddResult(model.CrawlResult{
			URL:         t.URL,
			StatusCode:  model.StatusRevisit,
			ContentSize: 0,
			Referrer:    t.Referrer,
			ContentType: "text/html",
			Title:       "REVISIT: previously visited " + formatElapsed(visit.SincePrevious()) + " ago",
			LoadTime:    0,
			Timestamp:   env.now().UnixMilli(),
		})
		return
	}

	result, err := t.fetchAndExpand(ctx, env, revisit)
	if err != nil {
		if ctx.Err() != nil {
			env.logger.Debug("task cancelled", "url", t.URL, "error", err)
			return
		}
		env.logger.Debug("fetch failed", "url", t.URL, "depth", t.Depth, "error", err)

		title := model.ErrorTitle
		if revisit {
			title = model.RevisitedPrefix + title
		}
		env.sink.AddResult(model.CrawlResult{
			URL:        t.URL,
			StatusCode: model.StatusFetchError,
			Referrer:   t.Referrer,
			Title:      title,
			Timestamp:  env.now().UnixMilli(),
		})
		return
	}

	env.sink.AddResult(result)
}

// fetchAndExpand fetches the page, schedules accepted children and builds
// the result. Children are enqueued before the result is returned.
func (t Task) fetchAndExpand(ctx context.Context, env *taskEnv, revisit bool) (model.CrawlResult, error) {
	start := time.Now()
	resp, err := env.fetcher.Fetch(ctx, FetchRequest{
		URL:             t.URL,
		UserAgent:       t.UserAgent,
		Timeout:         t.Timeout,
		MaxBodyBytes:    env.maxBodySize,
		FollowRedirects: true,
	})
	loadTime := time.Since(start)
	if err != nil {
		return model.CrawlResult{}, err
	}

	var title string
	if isHTML(resp.ContentType) {
		base := resp.FinalURL
		if base == "" {
			base = t.URL
		}
		parser, err := NewParser(base)
		if err != nil {
			return model.CrawlResult{}, fmt.Errorf("parse base URL: %w", err)
		}
		page, err := parser.Parse(bytes.NewReader(resp.Body))
		if err != nil {
			return model.CrawlResult{}, fmt.Errorf("parse HTML: %w", err)
		}

		title = page.Title
		if revisit {
			title = model.RevisitedPrefix + title
		}

		if t.Depth < t.MaxDepth {
			for _, link := range page.Links {
				if t.accepts(link) {
					env.sink.Enqueue(t.child(link))
				}
			}
		}
	}

	return model.CrawlResult{
		URL:         t.URL,
		StatusCode:  resp.StatusCode,
		ContentSize: int64(len(resp.Body)),
		Referrer:    t.Referrer,
		ContentType: resp.ContentType,
		Title:       title,
		LoadTime:    loadTime.Milliseconds(),
		Timestamp:   env.now().UnixMilli(),
	}, nil
}

// formatElapsed renders d as whole seconds, minutes or hours.
func formatElapsed(d time.Duration) string {
	seconds := int64(d / time.Second)
	switch {
	case seconds < 60:
		return fmt.Sprintf("%d seconds", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%d minutes", seconds/60)
	default:
		return fmt.Sprintf("%d hours", seconds/3600)
	}
}
