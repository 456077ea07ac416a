// Package dedup eliminates redundant copies of identical content across
// a directory tree.
//
// The package has three parts:
//   - Index: a thread-safe fingerprint to canonical-path map with
//     first-writer-wins insert semantics
//   - Scan: a queue-based directory walk that fingerprints every regular
//     file, hashing in parallel under a bounded worker limit
//   - ReplaceWithSymlinks: swaps non-canonical duplicates for relative
//     symlinks to the canonical file, reporting per-file errors without
//     stopping the batch
//
// A maintenance pass builds the index from a completed scan, then runs
// the replacer; download runs populate the index incrementally instead.
package dedup
