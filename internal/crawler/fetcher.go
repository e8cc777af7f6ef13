package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/proxy"
)

// DefaultMaxBodySize caps how many bytes of a response body are read.
const DefaultMaxBodySize = 10_000_000

// Fetcher retrieves a single URL.
type Fetcher interface {
	Fetch(ctx context.Context, req FetchRequest) (*FetchResponse, error)
}

// FetchRequest describes one fetch.
type FetchRequest struct {
	URL             string
	UserAgent       string
	Timeout         time.Duration
	MaxBodyBytes    int64
	FollowRedirects bool
}

// FetchResponse is what a Fetcher returns for a completed exchange.
// Body is truncated to the requested maximum size.
type FetchResponse struct {
	StatusCode  int
	Body        []byte
	ContentType string

	// FinalURL is the URL after redirects, used as the base for resolving links.
	FinalURL string
}

// FetchError reports a network, timeout or protocol failure for a URL.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// HTTPFetcher is a Fetcher backed by net/http, optionally routed through a
// SOCKS5 proxy.
type HTTPFetcher struct {
	client     *http.Client
	noRedirect *http.Client
}

// FetcherOption configures an HTTPFetcher.
type FetcherOption func(*fetcherOptions)

type fetcherOptions struct {
	proxyAddress string
	transport    http.RoundTripper
}

// WithProxy routes every request through the SOCKS5 proxy at address ("host:port").
func WithProxy(address string) FetcherOption {
	return func(o *fetcherOptions) {
		o.proxyAddress = address
	}
}

// WithTransport replaces the HTTP transport. It takes precedence over WithProxy.
func WithTransport(rt http.RoundTripper) FetcherOption {
	return func(o *fetcherOptions) {
		o.transport = rt
	}
}

// NewHTTPFetcher creates an HTTPFetcher.
func NewHTTPFetcher(opts ...FetcherOption) (*HTTPFetcher, error) {
	var o fetcherOptions
	for _, opt := range opts {
		opt(&o)
	}

	rt := o.transport
	if rt == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone() //nolint:forcetypeassert // DefaultTransport is *http.Transport
		if o.proxyAddress != "" {
			dialContext, err := socks5DialContext(o.proxyAddress)
			if err != nil {
				return nil, err
			}
			transport.Proxy = nil
			transport.DialContext = dialContext
		}
		rt = transport
	}

	return &HTTPFetcher{
		client: &http.Client{Transport: rt},
		noRedirect: &http.Client{
			Transport: rt,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}, nil
}

func socks5DialContext(address string) (func(ctx context.Context, network, addr string) (net.Conn, error), error) {
	if _, _, err := net.SplitHostPort(address); err != nil {
		return nil, fmt.Errorf("invalid proxy address %q: %w", address, err)
	}
	dialer, err := proxy.SOCKS5("tcp", address, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}
	if cd, ok := dialer.(proxy.ContextDialer); ok {
		return cd.DialContext, nil
	}
	return func(_ context.Context, network, addr string) (net.Conn, error) {
		return dialer.Dial(network, addr)
	}, nil
}

// Fetch performs a GET for req.URL. Any status code is a successful fetch;
// only transport, timeout and body read failures return a *FetchError.
func (f *HTTPFetcher) Fetch(ctx context.Context, req FetchRequest) (*FetchResponse, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, &FetchError{URL: req.URL, Err: err}
	}
	if req.UserAgent != "" {
		httpReq.Header.Set("User-Agent", req.UserAgent)
	}
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	client := f.client
	if !req.FollowRedirects {
		client = f.noRedirect
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, &FetchError{URL: req.URL, Err: err}
	}
	defer resp.Body.Close()

	maxBody := req.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodySize
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, &FetchError{URL: req.URL, Err: err}
	}

	return &FetchResponse{
		StatusCode:  resp.StatusCode,
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		FinalURL:    resp.Request.URL.String(),
	}, nil
}
