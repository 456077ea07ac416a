// Package scraper provides the core fetch, download and deduplication
// pipeline.
//
// The Scraper coordinates the API client, rate limiting, storage and the
// worker pool:
//   - a query (single id, tag search or pool id) produces a sequence of
//     post identifiers
//   - pagination runs sequentially, one page in flight at a time, and
//     fans identifiers out to a bounded worker pool
//   - each worker consults the shared dedup index before touching the
//     network: known content is skipped or linked, new content is
//     downloaded, verified, written atomically and registered
//   - per-task outcomes are aggregated into a Summary; one failed task
//     never aborts the rest of the run
//
// The Clean operation is the offline maintenance pass over an existing
// tree: scan, index, replace duplicates with symlinks.
package scraper
