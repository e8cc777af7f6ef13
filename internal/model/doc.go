// Package model defines the data types shared by the crawler, the control
// API and the persistence layer.
//
// # Types
//
//   - CrawlRequest: immutable crawl configuration submitted by a caller
//   - CrawlResult: outcome of one fetched URL
//   - Status: derived progress snapshot of the orchestrator
//   - VisitInfo: per-URL visit history held by the visited registry
//   - Statistics: aggregate view over persisted results
//   - CrawlReport: results, statistics and final status rendered by report writers
//
// JSON field names follow the control API wire format (camelCase, times in
// Unix milliseconds).
package model
