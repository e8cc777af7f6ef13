// Package api exposes a crawl Controller over HTTP with JSON bodies.
//
// # Routes
//
//	POST /api/start       start a crawl from a CrawlRequest body
//	POST /api/stop        pause the running crawl
//	POST /api/resume      resume a paused crawl
//	POST /api/terminate   hard-stop the crawl
//	POST /api/clear-db    delete every stored result
//	GET  /api/status      progress snapshot
//	GET  /api/results     in-memory results of the current crawl
//	GET  /api/db-results  every stored result
//	GET  /api/stats       aggregate statistics
//	GET  /health          liveness probe
//	GET  /                browser dashboard polling the routes above
//	GET  /static/...      dashboard assets
//
// Every response allows any origin. Unknown routes answer 404 with
// {"error":"Not found"} and handler panics answer 500.
package api
