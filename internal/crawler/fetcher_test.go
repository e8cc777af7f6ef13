package crawler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHTTPFetcher(t *testing.T) {
	t.Parallel()

	t.Run("returns status, body and content type", func(t *testing.T) {
		t.Parallel()

		var gotUA string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUA = r.Header.Get("User-Agent")
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte("<html><title>ok</title></html>"))
		}))
		defer server.Close()

		f, err := NewHTTPFetcher()
		if err != nil {
			t.Fatalf("NewHTTPFetcher() error = %v", err)
		}

		resp, err := f.Fetch(context.Background(), FetchRequest{
			URL:             server.URL,
			UserAgent:       "TestBot/1.0",
			Timeout:         5 * time.Second,
			FollowRedirects: true,
		})
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}

		if resp.StatusCode != http.StatusOK {
			t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
		}
		if resp.ContentType != "text/html; charset=utf-8" {
			t.Errorf("ContentType = %q", resp.ContentType)
		}
		if !strings.Contains(string(resp.Body), "<title>ok</title>") {
			t.Errorf("unexpected body %q", resp.Body)
		}
		if gotUA != "TestBot/1.0" {
			t.Errorf("server saw User-Agent %q", gotUA)
		}
	})

	t.Run("non-2xx is not an error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.NotFoundHandler())
		defer server.Close()

		f, err := NewHTTPFetcher()
		if err != nil {
			t.Fatalf("NewHTTPFetcher() error = %v", err)
		}

		resp, err := f.Fetch(context.Background(), FetchRequest{URL: server.URL})
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("StatusCode = %d, want 404", resp.StatusCode)
		}
	})

	t.Run("truncates body", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(strings.Repeat("x", 1000)))
		}))
		defer server.Close()

		f, err := NewHTTPFetcher()
		if err != nil {
			t.Fatalf("NewHTTPFetcher() error = %v", err)
		}

		resp, err := f.Fetch(context.Background(), FetchRequest{URL: server.URL, MaxBodyBytes: 100})
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if len(resp.Body) != 100 {
			t.Errorf("body length = %d, want 100", len(resp.Body))
		}
	})

	t.Run("redirects", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/new/", http.StatusFound)
		})
		mux.HandleFunc("/new/", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("moved"))
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		f, err := NewHTTPFetcher()
		if err != nil {
			t.Fatalf("NewHTTPFetcher() error = %v", err)
		}

		followed, err := f.Fetch(context.Background(), FetchRequest{URL: server.URL + "/old", FollowRedirects: true})
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if followed.StatusCode != http.StatusOK {
			t.Errorf("followed StatusCode = %d, want 200", followed.StatusCode)
		}
		if followed.FinalURL != server.URL+"/new/" {
			t.Errorf("FinalURL = %q, want %q", followed.FinalURL, server.URL+"/new/")
		}

		stopped, err := f.Fetch(context.Background(), FetchRequest{URL: server.URL + "/old"})
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if stopped.StatusCode != http.StatusFound {
			t.Errorf("unfollowed StatusCode = %d, want 302", stopped.StatusCode)
		}
	})

	t.Run("timeout is a fetch error", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer server.Close()
		defer close(release)

		f, err := NewHTTPFetcher()
		if err != nil {
			t.Fatalf("NewHTTPFetcher() error = %v", err)
		}

		_, err = f.Fetch(context.Background(), FetchRequest{URL: server.URL, Timeout: 50 * time.Millisecond})
		var fetchErr *FetchError
		if !errors.As(err, &fetchErr) {
			t.Fatalf("expected *FetchError, got %v", err)
		}
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected deadline exceeded, got %v", err)
		}
	})

	t.Run("connection failure is a fetch error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.NotFoundHandler())
		addr := server.URL
		server.Close()

		f, err := NewHTTPFetcher()
		if err != nil {
			t.Fatalf("NewHTTPFetcher() error = %v", err)
		}

		_, err = f.Fetch(context.Background(), FetchRequest{URL: addr, Timeout: time.Second})
		var fetchErr *FetchError
		if !errors.As(err, &fetchErr) {
			t.Fatalf("expected *FetchError, got %v", err)
		}
		if fetchErr.URL != addr {
			t.Errorf("FetchError.URL = %q, want %q", fetchErr.URL, addr)
		}
	})

	t.Run("invalid proxy address", func(t *testing.T) {
		t.Parallel()

		if _, err := NewHTTPFetcher(WithProxy("no-port")); err == nil {
			t.Error("expected error for proxy address without port")
		}
	})

	t.Run("proxy address accepted", func(t *testing.T) {
		t.Parallel()

		if _, err := NewHTTPFetcher(WithProxy("127.0.0.1:9050")); err != nil {
			t.Errorf("NewHTTPFetcher() error = %v", err)
		}
	})
}
