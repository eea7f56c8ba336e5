// Package models defines the domain types shared by the ntscat pipeline.
//
// The package contains two categories of types:
//
// 1. Pipeline values: plain structs passed between the reader, the sources and the writers
//   - [TrackQuery] : A (title, artist) pair submitted to every metadata source
//   - [Table] : The rows and ordered columns of an input file
//   - [SourceRecord] : Prefixed enrichment fields produced by one source
//   - [EnrichedTrack] : An input row with merged enrichment fields
//   - [BatchResult] : The enriched rows of a run and its per-source hit counts
//   - [Episode] / [TracklistEntry] : NTS episodes and the tracks scraped from them
//
// 2. Persistent entities: database-backed records with lifecycle management
//   - [EnrichmentRun] : A single enrichment run written to the SQLite sink
//
// Persistent entities implement the Model interface providing ID generation, timestamps and validation.
// The Repository[T] interface defines the data access operations used by the sink.
package models
