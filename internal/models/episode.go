package models

// Episode is a single broadcast of an NTS show.
type Episode struct {
	Show  string
	Alias string
	URL   string
}

// TracklistEntry is one track scraped from an episode page.
type TracklistEntry struct {
	Title      string
	Artist     string
	EpisodeURL string
}

// Row converts the entry into an input row with the TITLE, ARTIST and EPISODE_URL columns.
func (e TracklistEntry) Row() Row {
	return Row{"TITLE": e.Title, "ARTIST": e.Artist, "EPISODE_URL": e.EpisodeURL}
}

// TracklistColumns is the header written for scraped tracklists.
var TracklistColumns = []string{"TITLE", "ARTIST", "EPISODE_URL"}
