// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// # Security Features
//
// The SecureHandler sanitizes sensitive information in log output:
//   - HTTP headers (Authorization, Cookie, Set-Cookie, X-Api-Key)
//   - Secret values detected by pattern matching (passwords, tokens, keys)
//   - Credentials embedded in crawled URLs: userinfo and query parameters
//     such as token, sig or session, also inside error messages
//
// Even in verbose mode, sensitive values are masked so that logs of a crawl
// can be shared without leaking the secrets of the crawled sites.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, log.FormatJSON, verbose)
//	logger.Info("fetched", "url", "https://example.com/?token=abc")
//	// url=https://example.com/?token=REDACTED
//	slog.SetDefault(logger)
package log
