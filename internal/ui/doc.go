// Package ui implements the interactive terminal interface for enrichment runs using bubbletea's Elm architecture.
//
// The TUI has two views:
//  1. [ProgressView] : Progress bar fed by the batch runner's update channel
//  2. [ResultView] : Per-source hit rates and a browsable list of enriched tracks
//
// Progress updates flow through a channel from the BatchRunner; the channel closes when the run returns.
//
// The package also renders the plain summaries printed by the CLI when the TUI is not used.
package ui
