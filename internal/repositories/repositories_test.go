package repositories

import (
	"database/sql"
	"reflect"
	"testing"
	"time"

	"github.com/desertthunder/ntscat/internal/models"
	"github.com/desertthunder/ntscat/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	shared.ConfigureDatabase(db, 1, 1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func sampleResult() *models.BatchResult {
	return &models.BatchResult{
		RunID:   shared.GenerateID(),
		Columns: append([]string{"TITLE", "ARTIST"}, models.EnrichmentColumns()...),
		Total:   2,
		Tracks: []models.EnrichedTrack{
			{
				Input:   models.Row{"TITLE": "Toxic", "ARTIST": "Britney Spears"},
				Fields:  models.SourceRecord{"spotify_id": "abc", "spotify_tempo": "143.04", "musicbrainz_id": "mb"},
				Sources: []string{"spotify", "musicbrainz"},
			},
			{
				Input:  models.Row{"TITLE": "Unknown", "ARTIST": "Nobody"},
				Fields: models.SourceRecord{},
			},
		},
		Stats: []models.SourceStat{
			{Source: "spotify", Hits: 1, Total: 2},
			{Source: "lastfm", Hits: 0, Total: 2},
			{Source: "musicbrainz", Hits: 1, Total: 2},
		},
	}
}

func TestRunRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := models.NewEnrichmentRun("tracks.csv", 3)

		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}
		if run.ID() == "" {
			t.Error("run ID should be set after creation")
		}
	})

	t.Run("Get", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := models.NewEnrichmentRun("tracks.csv", 3)
		run.SetStats([]models.SourceStat{{Source: "spotify", Hits: 2, Total: 3}})

		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		retrieved, err := repo.Get(run.ID())
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if retrieved.Input() != "tracks.csv" || retrieved.Total() != 3 {
			t.Errorf("unexpected run %+v", retrieved)
		}
		if !reflect.DeepEqual(retrieved.Stats(), run.Stats()) {
			t.Errorf("expected stats %v, got %v", run.Stats(), retrieved.Stats())
		}
		if retrieved.FinishedAt() != nil {
			t.Error("expected unfinished run")
		}
	})

	t.Run("Get Not Found", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		if _, err := repo.Get("missing"); err == nil {
			t.Error("expected error for missing run")
		}
	})

	t.Run("Update", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := models.NewEnrichmentRun("tracks.csv", 1)
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		run.SetStats([]models.SourceStat{{Source: "lastfm", Hits: 1, Total: 1}})
		run.Finish(time.Now())
		if err := repo.Update(run); err != nil {
			t.Fatalf("failed to update run: %v", err)
		}

		retrieved, err := repo.Get(run.ID())
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if retrieved.FinishedAt() == nil {
			t.Error("expected finished run")
		}
		if len(retrieved.Stats()) != 1 || retrieved.Stats()[0].Source != "lastfm" {
			t.Errorf("unexpected stats %v", retrieved.Stats())
		}
	})

	t.Run("Update Not Found", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := models.NewEnrichmentRun("x.csv", 0)
		run.SetID("missing")
		if err := repo.Update(run); err == nil {
			t.Error("expected error for missing run")
		}
	})

	t.Run("Create Invalid", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		if err := repo.Create(models.NewEnrichmentRun("x.csv", -1)); err == nil {
			t.Error("expected validation error")
		}
	})

	t.Run("List", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		for _, input := range []string{"a.csv", "b.csv", "a.csv"} {
			if err := repo.Create(models.NewEnrichmentRun(input, 1)); err != nil {
				t.Fatalf("failed to create run: %v", err)
			}
		}

		all, err := repo.List(nil)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(all) != 3 {
			t.Errorf("expected 3 runs, got %d", len(all))
		}

		filtered, err := repo.List(map[string]any{"input": "a.csv", "finished": false})
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(filtered) != 2 {
			t.Errorf("expected 2 runs, got %d", len(filtered))
		}
	})
}

func TestSink(t *testing.T) {
	t.Run("SaveResult", func(t *testing.T) {
		db := setupTestDB(t)
		sink := NewSink(db)
		res := sampleResult()

		run, err := sink.SaveResult("tracks.csv", res)
		if err != nil {
			t.Fatalf("failed to save result: %v", err)
		}
		if run.ID() != res.RunID {
			t.Errorf("expected run ID %s, got %s", res.RunID, run.ID())
		}

		stored, err := sink.Runs().Get(res.RunID)
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if stored.FinishedAt() == nil || stored.Total() != 2 {
			t.Errorf("unexpected stored run %+v", stored)
		}

		tracks, err := sink.Tracks().ListByRun(res.RunID)
		if err != nil {
			t.Fatalf("failed to list tracks: %v", err)
		}
		if len(tracks) != 2 {
			t.Fatalf("expected 2 tracks, got %d", len(tracks))
		}
		if !reflect.DeepEqual(tracks[0].Input, res.Tracks[0].Input) {
			t.Errorf("expected input %v, got %v", res.Tracks[0].Input, tracks[0].Input)
		}
		if !reflect.DeepEqual(tracks[0].Fields, res.Tracks[0].Fields) {
			t.Errorf("expected fields %v, got %v", res.Tracks[0].Fields, tracks[0].Fields)
		}
		if !reflect.DeepEqual(tracks[0].Sources, []string{"spotify", "musicbrainz"}) {
			t.Errorf("unexpected sources %v", tracks[0].Sources)
		}
		if len(tracks[1].Fields) != 0 || len(tracks[1].Sources) != 0 {
			t.Errorf("expected empty enrichment for second track, got %+v", tracks[1])
		}

		n, err := sink.Tracks().CountBySource(res.RunID, "musicbrainz")
		if err != nil || n != 1 {
			t.Errorf("expected 1 musicbrainz track, got %d (%v)", n, err)
		}
	})

	t.Run("Duplicate Run", func(t *testing.T) {
		sink := NewSink(setupTestDB(t))
		res := sampleResult()
		if _, err := sink.SaveResult("a.csv", res); err != nil {
			t.Fatalf("failed to save result: %v", err)
		}
		if _, err := sink.SaveResult("a.csv", res); err == nil {
			t.Error("expected error for duplicate run ID")
		}
	})

	t.Run("Failed Track Insert Stores Nothing", func(t *testing.T) {
		db := setupTestDB(t)
		sink := NewSink(db)
		if _, err := db.Exec("DROP TABLE enriched_tracks"); err != nil {
			t.Fatalf("failed to drop table: %v", err)
		}

		if _, err := sink.SaveResult("tracks.csv", sampleResult()); err == nil {
			t.Fatal("expected error when tracks cannot be saved")
		}

		runs, err := sink.Runs().List(nil)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(runs) != 0 {
			t.Errorf("expected no runs after failed save, got %d", len(runs))
		}
	})

	t.Run("Tracks Require Run", func(t *testing.T) {
		repo := NewEnrichedTrackRepository(setupTestDB(t))
		if err := repo.SaveBatch("missing", sampleResult().Tracks); err == nil {
			t.Error("expected foreign key error")
		}
		if err := repo.SaveBatch("", nil); err == nil {
			t.Error("expected error for empty run ID")
		}
	})
}

func TestTracklistRepository(t *testing.T) {
	entries := []models.TracklistEntry{
		{Title: "hyph mngo", Artist: "joy orbison", EpisodeURL: "ep-1"},
		{Title: "hyperballad", Artist: "bjork", EpisodeURL: "ep-1"},
		{Title: "windowlicker", Artist: "aphex twin", EpisodeURL: "ep-2"},
	}

	t.Run("Save And List", func(t *testing.T) {
		repo := NewTracklistRepository(setupTestDB(t))
		if err := repo.Save("the-trip", entries); err != nil {
			t.Fatalf("failed to save tracklist: %v", err)
		}

		stored, err := repo.ListByShow("the-trip")
		if err != nil {
			t.Fatalf("failed to list tracklist: %v", err)
		}
		if !reflect.DeepEqual(stored, entries) {
			t.Errorf("expected %v, got %v", entries, stored)
		}
	})

	t.Run("Save Replaces Episode", func(t *testing.T) {
		repo := NewTracklistRepository(setupTestDB(t))
		if err := repo.Save("the-trip", entries); err != nil {
			t.Fatalf("failed to save tracklist: %v", err)
		}
		if err := repo.Save("the-trip", entries[2:]); err != nil {
			t.Fatalf("failed to save tracklist: %v", err)
		}

		stored, err := repo.ListByShow("the-trip")
		if err != nil {
			t.Fatalf("failed to list tracklist: %v", err)
		}
		if len(stored) != 3 {
			t.Errorf("expected 3 entries, got %d", len(stored))
		}
	})

	t.Run("Unknown Show", func(t *testing.T) {
		repo := NewTracklistRepository(setupTestDB(t))
		stored, err := repo.ListByShow("nobody")
		if err != nil || len(stored) != 0 {
			t.Errorf("expected no entries, got %v (%v)", stored, err)
		}
	})
}
