package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/ntscat/internal/models"
)

// TracklistRepository stores scraped tracklists so a show can be re-enriched without scraping again.
type TracklistRepository struct {
	db *sql.DB
}

// NewTracklistRepository creates a new TracklistRepository with the given database connection
func NewTracklistRepository(db *sql.DB) *TracklistRepository {
	return &TracklistRepository{db: db}
}

// Save replaces the stored tracklists of every episode present in entries
func (r *TracklistRepository) Save(show string, entries []models.TracklistEntry) error {
	return withTx(r.db, func(tx *sql.Tx) error {
		positions := make(map[string]int)
		cleared := make(map[string]bool)

		for _, e := range entries {
			if !cleared[e.EpisodeURL] {
				if _, err := tx.Exec("DELETE FROM tracklist_entries WHERE episode_url = ?", e.EpisodeURL); err != nil {
					return fmt.Errorf("failed to clear episode %s: %w", e.EpisodeURL, err)
				}
				cleared[e.EpisodeURL] = true
			}

			_, err := tx.Exec(
				"INSERT INTO tracklist_entries (show, episode_url, position, title, artist) VALUES (?, ?, ?, ?, ?)",
				show, e.EpisodeURL, positions[e.EpisodeURL], e.Title, e.Artist,
			)
			if err != nil {
				return fmt.Errorf("failed to insert tracklist entry: %w", err)
			}
			positions[e.EpisodeURL]++
		}
		return nil
	})
}

// ListByShow retrieves the stored entries of a show in insertion order
func (r *TracklistRepository) ListByShow(show string) ([]models.TracklistEntry, error) {
	rows, err := r.db.Query(
		"SELECT title, artist, episode_url FROM tracklist_entries WHERE show = ? ORDER BY rowid ASC",
		show,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracklist: %w", err)
	}
	defer rows.Close()

	var entries []models.TracklistEntry
	for rows.Next() {
		var e models.TracklistEntry
		if err := rows.Scan(&e.Title, &e.Artist, &e.EpisodeURL); err != nil {
			return nil, fmt.Errorf("failed to scan tracklist entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return entries, nil
}
