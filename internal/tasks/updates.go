package tasks

import (
	"fmt"
	"strings"

	"github.com/desertthunder/ntscat/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	Validate Phase = iota
	Enrich
	Summarize
	DiscoverEpisodes
	ExtractTracklists
)

func (p Phase) String() string {
	switch p {
	case Validate:
		return "validate"
	case Enrich:
		return "enrich"
	case Summarize:
		return "summarize"
	case DiscoverEpisodes:
		return "discover_episodes"
	case ExtractTracklists:
		return "extract_tracklists"
	default:
		return ""
	}
}

func validateUpdate(rows int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Validate,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Loaded %d tracks", rows),
	}
}

func enrichUpdate(step, total int, q models.TrackQuery, m Merge) ProgressUpdate {
	found := "no matches"
	if len(m.Sources) > 0 {
		found = strings.Join(m.Sources, ", ")
	}
	return ProgressUpdate{
		Phase:   Enrich,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s (%s)", step, total, q, found),
		Data:    m,
	}
}

func skippedUpdate(step, total int, q models.TrackQuery) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Enrich,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s (cancelled)", step, total, q),
	}
}

func summaryUpdate(res *models.BatchResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Summarize,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Enriched %d tracks", res.Total),
		Data:    res,
	}
}

// DiscoverUpdate reports a page of episode discovery.
func DiscoverUpdate(page, found int, show string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DiscoverEpisodes,
		Step:    page,
		Total:   0,
		Message: fmt.Sprintf("Page %d: %d episodes found for %s", page, found, show),
	}
}

// TracklistUpdate reports one extracted episode tracklist.
func TracklistUpdate(step, total int, episodeURL string, tracks int, err error) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] ✓ %s (%d tracks)", step, total, episodeURL, tracks)
	if err != nil {
		msg = fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, episodeURL, err)
	}
	return ProgressUpdate{
		Phase:   ExtractTracklists,
		Step:    step,
		Total:   total,
		Message: msg,
	}
}

// SendProgress sends update without blocking. A nil channel is ignored.
func SendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	sendProgress(progress, update)
}
