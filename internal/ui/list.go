package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/ntscat/internal/models"
)

var (
	_ list.Item = trackItem{}
)

// trackItem wraps [models.EnrichedTrack] to implement [list.Item].
type trackItem struct {
	track  models.EnrichedTrack
	title  string
	artist string
}

func newTrackItem(t models.EnrichedTrack, titleCol, artistCol string) trackItem {
	return trackItem{track: t, title: t.Input[titleCol], artist: t.Input[artistCol]}
}

func (i trackItem) FilterValue() string { return i.artist + " " + i.title }
func (i trackItem) Title() string       { return fmt.Sprintf("%s - %s", i.artist, i.title) }
func (i trackItem) Description() string {
	if len(i.track.Sources) == 0 {
		return "no matches"
	}
	desc := strings.Join(i.track.Sources, ", ")
	if album := i.track.Fields["spotify_album"]; album != "" {
		desc = fmt.Sprintf("%s • %s", desc, album)
	}
	return desc
}
