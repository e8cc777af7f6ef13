package crawler

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/nao1215/multicrawler/internal/model"
)

// fakePage is a canned response served by fakeFetcher.
type fakePage struct {
	status      int
	contentType string
	body        string
	err         error
}

// fakeFetcher serves pages from memory and counts fetches per URL.
type fakeFetcher struct {
	mu     sync.Mutex
	pages  map[string]fakePage
	counts map[string]int

	// hook, when set, runs before the page is returned. A non-nil error
	// turns into a *FetchError.
	hook func(ctx context.Context, url string) error
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		pages:  make(map[string]fakePage),
		counts: make(map[string]int),
	}
}

// html registers an HTML page with the given title and links.
func (f *fakeFetcher) html(url, title string, links ...string) {
	var b strings.Builder
	fmt.Fprintf(&b, "<html><head><title>%s</title></head><body>", title)
	for _, link := range links {
		fmt.Fprintf(&b, `<a href="%s">link</a>`, link)
	}
	b.WriteString("</body></html>")

	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[url] = fakePage{status: 200, contentType: "text/html; charset=utf-8", body: b.String()}
}

func (f *fakeFetcher) set(url string, page fakePage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[url] = page
}

func (f *fakeFetcher) count(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[url]
}

func (f *fakeFetcher) Fetch(ctx context.Context, req FetchRequest) (*FetchResponse, error) {
	f.mu.Lock()
	f.counts[req.URL]++
	page, ok := f.pages[req.URL]
	hook := f.hook
	f.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, req.URL); err != nil {
			return nil, &FetchError{URL: req.URL, Err: err}
		}
	}
	if !ok {
		return &FetchResponse{StatusCode: 404, ContentType: "text/plain", FinalURL: req.URL}, nil
	}
	if page.err != nil {
		return nil, &FetchError{URL: req.URL, Err: page.err}
	}
	return &FetchResponse{
		StatusCode:  page.status,
		Body:        []byte(page.body),
		ContentType: page.contentType,
		FinalURL:    req.URL,
	}, nil
}

// memoryStore is an in-memory ResultStore.
type memoryStore struct {
	mu        sync.Mutex
	results   []model.CrawlResult
	insertErr error
}

func (s *memoryStore) Insert(_ context.Context, result model.CrawlResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	s.results = append(s.results, result)
	return nil
}

func (s *memoryStore) GetAll(_ context.Context) ([]model.CrawlResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.CrawlResult, len(s.results))
	copy(out, s.results)
	return out, nil
}

func (s *memoryStore) ClearAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = nil
	return nil
}

// recordingSink is a taskSink that records every callback.
type recordingSink struct {
	mu        sync.Mutex
	enqueued  []Task
	results   []model.CrawlResult
	completed int
	inactive  bool
}

func (s *recordingSink) Enqueue(task Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enqueued = append(s.enqueued, task)
}

func (s *recordingSink) AddResult(result model.CrawlResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
}

func (s *recordingSink) TaskCompleted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed++
}

func (s *recordingSink) ActiveSession() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.inactive
}
