// Package repositories implements SQLite persistence for enrichment runs and scraped tracklists.
//
// Key Implementations:
//   - [RunRepository] : Enrichment run history with per-source hit counters
//   - [EnrichedTrackRepository] : Output rows of a run, one column per enrichment field
//   - [TracklistRepository] : Scraped NTS tracklists keyed by episode
//   - [Sink] : Writes a complete [models.BatchResult] in a single call
//
// Tables are created by the embedded migrations in the shared package.
package repositories
