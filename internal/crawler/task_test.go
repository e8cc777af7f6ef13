package crawler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/multicrawler/internal/model"
)

var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestEnv(sink taskSink, fetcher Fetcher) *taskEnv {
	registry := NewVisitedRegistry()
	registry.now = func() time.Time { return fixedTime }
	return &taskEnv{
		sink:        sink,
		registry:    registry,
		fetcher:     fetcher,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxBodySize: DefaultMaxBodySize,
		now:         func() time.Time { return fixedTime },
	}
}

func TestTaskAccepts(t *testing.T) {
	t.Parallel()

	unfiltered := Task{}
	filtered := Task{Filter: regexp.MustCompile(`^(?:https://allowed\.test/.*)$`)}

	tests := []struct {
		name string
		task Task
		link string
		want bool
	}{
		{"http link", unfiltered, "http://a.test/page", true},
		{"https link", unfiltered, "https://a.test/page", true},
		{"upper-case scheme", unfiltered, "HTTPS://a.test/page", true},
		{"ftp link", unfiltered, "ftp://a.test/file", false},
		{"mailto link", unfiltered, "mailto:someone@a.test", false},
		{"javascript link", unfiltered, "javascript:void(0)", false},
		{"malformed link", unfiltered, "http://a.test/%zz", false},
		{"missing host", unfiltered, "http:///path", false},
		{"filter match", filtered, "https://allowed.test/x", true},
		{"filter mismatch", filtered, "https://denied.test/x", false},
		{"filter must match fully", filtered, "https://allowed.test.evil/x", false},
		{"ftp ignored even when filter matches", Task{Filter: regexp.MustCompile(`^(?:.*)$`)}, "ftp://a.test/f", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.task.accepts(tt.link); got != tt.want {
				t.Errorf("accepts(%q) = %v, want %v", tt.link, got, tt.want)
			}
		})
	}
}

func TestFormatElapsed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0 seconds"},
		{59 * time.Second, "59 seconds"},
		{90 * time.Second, "1 minutes"},
		{2 * time.Hour, "2 hours"},
	}
	for _, tt := range tests {
		if got := formatElapsed(tt.in); got != tt.want {
			t.Errorf("formatElapsed(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTaskExecute(t *testing.T) {
	t.Parallel()

	t.Run("fetches page and enqueues children before completing", func(t *testing.T) {
		t.Parallel()

		fetcher := newFakeFetcher()
		fetcher.html("http://a.test/", "Home", "/one", "http://b.test/two", "ftp://c.test/")
		sink := &recordingSink{}
		env := newTestEnv(sink, fetcher)

		task := Task{URL: "http://a.test/", MaxDepth: 1, UserAgent: model.DefaultUserAgent}
		task.execute(context.Background(), env)

		if sink.completed != 1 {
			t.Errorf("completed = %d, want 1", sink.completed)
		}
		if len(sink.results) != 1 {
			t.Fatalf("results = %d, want 1", len(sink.results))
		}
		r := sink.results[0]
		if r.StatusCode != 200 || r.Title != "Home" || r.Referrer != "" {
			t.Errorf("unexpected result %+v", r)
		}
		if r.ContentSize == 0 {
			t.Error("expected content size to be recorded")
		}
		if r.Timestamp != fixedTime.UnixMilli() {
			t.Errorf("Timestamp = %d, want %d", r.Timestamp, fixedTime.UnixMilli())
		}

		if len(sink.enqueued) != 2 {
			t.Fatalf("enqueued = %d, want 2", len(sink.enqueued))
		}
		for _, child := range sink.enqueued {
			if child.Depth != 1 {
				t.Errorf("child %s depth = %d, want 1", child.URL, child.Depth)
			}
			if child.Referrer != "http://a.test/" {
				t.Errorf("child %s referrer = %q", child.URL, child.Referrer)
			}
		}
	})

	t.Run("no children at max depth", func(t *testing.T) {
		t.Parallel()

		fetcher := newFakeFetcher()
		fetcher.html("http://a.test/", "Home", "/one", "/two")
		sink := &recordingSink{}

		Task{URL: "http://a.test/", Depth: 2, MaxDepth: 2}.execute(context.Background(), newTestEnv(sink, fetcher))

		if len(sink.enqueued) != 0 {
			t.Errorf("enqueued %d children at max depth", len(sink.enqueued))
		}
		if len(sink.results) != 1 {
			t.Errorf("results = %d, want 1", len(sink.results))
		}
	})

	t.Run("non-HTML content is not parsed", func(t *testing.T) {
		t.Parallel()

		fetcher := newFakeFetcher()
		fetcher.set("http://a.test/data.json", fakePage{
			status:      200,
			contentType: "application/json",
			body:        `{"href":"<a href='/x'>"}`,
		})
		sink := &recordingSink{}

		Task{URL: "http://a.test/data.json", MaxDepth: 3}.execute(context.Background(), newTestEnv(sink, fetcher))

		if len(sink.enqueued) != 0 {
			t.Errorf("enqueued %d children from JSON", len(sink.enqueued))
		}
		r := sink.results[0]
		if r.Title != "" || r.ContentType != "application/json" {
			t.Errorf("unexpected result %+v", r)
		}
	})

	t.Run("fetch failure yields error result", func(t *testing.T) {
		t.Parallel()

		fetcher := newFakeFetcher()
		fetcher.set("http://a.test/", fakePage{err: errors.New("connection refused")})
		sink := &recordingSink{}

		Task{URL: "http://a.test/", Referrer: "http://r.test/"}.execute(context.Background(), newTestEnv(sink, fetcher))

		if sink.completed != 1 || len(sink.results) != 1 {
			t.Fatalf("completed = %d, results = %d", sink.completed, len(sink.results))
		}
		r := sink.results[0]
		if r.StatusCode != model.StatusFetchError || r.ContentSize != 0 || r.Title != model.ErrorTitle {
			t.Errorf("unexpected error result %+v", r)
		}
		if r.Referrer != "http://r.test/" {
			t.Errorf("Referrer = %q", r.Referrer)
		}
	})

	t.Run("revisit short-circuits without fetching", func(t *testing.T) {
		t.Parallel()

		fetcher := newFakeFetcher()
		fetcher.html("http://a.test/", "Home")
		sink := &recordingSink{}
		env := newTestEnv(sink, fetcher)

		Task{URL: "http://a.test/"}.execute(context.Background(), env)
		Task{URL: "http://a.test/", Referrer: "http://a.test/"}.execute(context.Background(), env)

		if got := fetcher.count("http://a.test/"); got != 1 {
			t.Errorf("fetch count = %d, want 1", got)
		}
		if len(sink.results) != 2 {
			t.Fatalf("results = %d, want 2", len(sink.results))
		}
		r := sink.results[1]
		if r.StatusCode != model.StatusRevisit || r.ContentSize != 0 || r.ContentType != "text/html" {
			t.Errorf("unexpected revisit result %+v", r)
		}
		if r.Title != "REVISIT: previously visited 0 seconds ago" {
			t.Errorf("Title = %q", r.Title)
		}
		if sink.completed != 2 {
			t.Errorf("completed = %d, want 2", sink.completed)
		}
	})

	t.Run("revisit outside active session is refetched with prefix", func(t *testing.T) {
		t.Parallel()

		fetcher := newFakeFetcher()
		fetcher.html("http://a.test/", "Home")
		sink := &recordingSink{}
		env := newTestEnv(sink, fetcher)

		Task{URL: "http://a.test/"}.execute(context.Background(), env)
		sink.inactive = true
		Task{URL: "http://a.test/"}.execute(context.Background(), env)

		if got := fetcher.count("http://a.test/"); got != 2 {
			t.Errorf("fetch count = %d, want 2", got)
		}
		if title := sink.results[1].Title; !strings.HasPrefix(title, model.RevisitedPrefix) {
			t.Errorf("Title = %q, want %q prefix", title, model.RevisitedPrefix)
		}
	})

	t.Run("cancelled during delay reports completion only", func(t *testing.T) {
		t.Parallel()

		fetcher := newFakeFetcher()
		fetcher.html("http://a.test/", "Home")
		sink := &recordingSink{}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		Task{URL: "http://a.test/", Delay: time.Hour}.execute(ctx, newTestEnv(sink, fetcher))

		if sink.completed != 1 {
			t.Errorf("completed = %d, want 1", sink.completed)
		}
		if len(sink.results) != 0 {
			t.Errorf("results = %d, want 0", len(sink.results))
		}
		if fetcher.count("http://a.test/") != 0 {
			t.Error("cancelled task should not fetch")
		}
	})

	t.Run("cancelled task leaves the registry untouched", func(t *testing.T) {
		t.Parallel()

		fetcher := newFakeFetcher()
		fetcher.html("http://a.test/", "Home")
		sink := &recordingSink{}
		env := newTestEnv(sink, fetcher)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		Task{URL: "http://a.test/"}.execute(ctx, env)

		if n := env.registry.Len(); n != 0 {
			t.Errorf("registry Len() = %d, want 0", n)
		}
		if sink.completed != 1 || len(sink.results) != 0 {
			t.Errorf("completed = %d, results = %d", sink.completed, len(sink.results))
		}
		if fetcher.count("http://a.test/") != 0 {
			t.Error("cancelled task should not fetch")
		}
	})

	t.Run("cancelled during fetch reports completion only", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		fetcher := newFakeFetcher()
		fetcher.hook = func(ctx context.Context, _ string) error {
			cancel()
			<-ctx.Done()
			return ctx.Err()
		}
		sink := &recordingSink{}

		Task{URL: "http://a.test/"}.execute(ctx, newTestEnv(sink, fetcher))

		if sink.completed != 1 || len(sink.results) != 0 {
			t.Errorf("completed = %d, results = %d", sink.completed, len(sink.results))
		}
	})
}
