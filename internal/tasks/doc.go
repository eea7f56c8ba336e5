// Package tasks runs track enrichment with real-time progress reporting.
//
// # Aggregation
//
// [Aggregator] queries every configured [services.Source] for a single track in a fixed
// order (Spotify, Last.fm, MusicBrainz) and merges the fields of every hit. A source that
// misses, fails or is disabled contributes nothing; no source error reaches the caller and
// nothing is retried.
//
// With parallel sources enabled the lookups for one track run concurrently, but the merge
// still walks the results in source order, so both modes produce the same record.
//
// # Batches
//
// [BatchRunner] validates the input table (required TITLE and ARTIST columns, at least one
// row) and then enriches every row:
//   - output order and length always match the input
//   - input fields are copied, never modified
//   - a source counter increments when that source contributed at least one field
//   - tracks not started before cancellation are emitted unenriched
//
// # Progress Reporting
//
// Operations accept an optional channel of [ProgressUpdate]. Updates use select with default
// so a slow or absent reader never blocks enrichment.
package tasks
