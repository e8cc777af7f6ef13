// Package crawler implements a multi-threaded web crawler with pause,
// resume and hard termination.
//
// # Components
//
//   - Orchestrator: owns the crawl lifecycle, the progress counters and the
//     backlog of paused work
//   - Task: fetches one URL, records the visit, extracts links and hands
//     children back to the orchestrator
//   - VisitedRegistry: per-URL visit counts used to short-circuit revisits
//   - HTTPFetcher: net/http Fetcher, optionally through a SOCKS5 proxy
//   - Parser: HTML title and link extraction
//
// # Lifecycle
//
//	idle --Start--> running --Stop--> paused --Resume--> running
//	running --(all tasks done)--> idle
//	running|paused --Terminate--> terminated
//
// A task always schedules its children before it reports its own
// completion, so the completed counter can only catch up with the total
// once no more work can be discovered.
//
// # Usage
//
//	fetcher, err := crawler.NewHTTPFetcher()
//	if err != nil {
//		return err
//	}
//	o := crawler.New(fetcher, crawler.WithStore(db), crawler.WithLogger(logger))
//	if err := o.Start(model.CrawlRequest{SeedURL: "https://example.com", MaxDepth: 2, Threads: 4}); err != nil {
//		return err
//	}
//	if err := o.Wait(ctx); err != nil {
//		o.Terminate()
//	}
package crawler
