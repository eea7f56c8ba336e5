package ui

import (
	"fmt"
	"strings"

	"github.com/desertthunder/ntscat/internal/models"
)

// Summary renders the hit-rate table printed at the end of a run.
func Summary(res *models.BatchResult, output string) string {
	var b strings.Builder

	b.WriteString(styles.title.Render("Enrichment Complete"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Tracks: %d\n", res.Total)
	if res.Skipped > 0 {
		b.WriteString(styles.warn.Render(fmt.Sprintf("Skipped: %d (interrupted)", res.Skipped)))
		b.WriteString("\n")
	}
	if output != "" {
		fmt.Fprintf(&b, "Output: %s\n", output)
	}
	b.WriteString("\n")

	width := 0
	for _, s := range res.Stats {
		width = max(width, len(s.Source))
	}
	for _, s := range res.Stats {
		line := fmt.Sprintf("%-*s  %d/%d (%.1f%%)", width, s.Source, s.Hits, s.Total, s.HitRate())
		b.WriteString(styles.rate(s.HitRate()).Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

// CatalogSummary renders the episode and track counts of a scraped show.
func CatalogSummary(show string, episodes, withTracks, tracks int, avg float64, output string) string {
	var b strings.Builder

	b.WriteString(styles.title.Render("Tracklist Complete"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Show: %s\n", show)
	fmt.Fprintf(&b, "Total Episodes: %d\n", episodes)
	fmt.Fprintf(&b, "Total Tracks: %d\n", tracks)
	if output != "" {
		fmt.Fprintf(&b, "Output File: %s\n", output)
	}
	b.WriteString(styles.help.Render(fmt.Sprintf("Episodes with tracks: %d/%d, average tracks per episode: %.1f", withTracks, episodes, avg)))
	b.WriteString("\n")
	return b.String()
}

// Sources renders which providers are configured.
func Sources(names []string, enabled map[string]bool) string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Sources"))
	b.WriteString("\n")
	for _, n := range names {
		if enabled[n] {
			b.WriteString(styles.ok.Render("✓ " + n))
		} else {
			b.WriteString(styles.err.Render("✗ "+n) + styles.help.Render(" (not configured)"))
		}
		b.WriteString("\n")
	}
	return b.String()
}
