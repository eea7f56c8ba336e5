package tasks

import (
	"context"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/ntscat/internal/models"
	"github.com/desertthunder/ntscat/internal/services"
)

// fakeSource is a [services.Source] driven by a lookup function.
type fakeSource struct {
	name    string
	enabled bool
	lookup  func(q models.TrackQuery) services.Result
	calls   atomic.Int32
}

func newFakeSource(name string, lookup func(q models.TrackQuery) services.Result) *fakeSource {
	return &fakeSource{name: name, enabled: true, lookup: lookup}
}

func (f *fakeSource) Name() string      { return f.name }
func (f *fakeSource) Columns() []string { return nil }
func (f *fakeSource) Enabled() bool     { return f.enabled }

func (f *fakeSource) Lookup(ctx context.Context, q models.TrackQuery) services.Result {
	f.calls.Add(1)
	return f.lookup(q)
}

func hitWith(source string, rec models.SourceRecord) func(models.TrackQuery) services.Result {
	return func(models.TrackQuery) services.Result {
		return services.Result{Source: source, Record: rec, Outcome: services.Hit}
	}
}

func outcome(source string, o services.Outcome) func(models.TrackQuery) services.Result {
	return func(models.TrackQuery) services.Result {
		return services.Result{Source: source, Outcome: o}
	}
}

type recordingObserver struct {
	mu   sync.Mutex
	seen []string
}

func (r *recordingObserver) ObserveLookup(source, outcome string, elapsed time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, source+":"+outcome)
}

func TestAggregator(t *testing.T) {
	q := models.TrackQuery{Title: "Toxic", Artist: "Britney Spears"}

	t.Run("Merges Hits In Source Order", func(t *testing.T) {
		agg := NewAggregator([]services.Source{
			newFakeSource("spotify", hitWith("spotify", models.SourceRecord{"spotify_id": "abc", "shared": "spotify"})),
			newFakeSource("lastfm", hitWith("lastfm", models.SourceRecord{"lastfm_url": "u", "shared": "lastfm"})),
			newFakeSource("musicbrainz", hitWith("musicbrainz", models.SourceRecord{"musicbrainz_id": "mb"})),
		})

		m := agg.Enrich(context.Background(), q)
		if !reflect.DeepEqual(m.Sources, []string{"spotify", "lastfm", "musicbrainz"}) {
			t.Errorf("expected all sources in order, got %v", m.Sources)
		}
		if m.Fields["shared"] != "lastfm" {
			t.Errorf("expected later source to win a shared field, got %q", m.Fields["shared"])
		}
		if len(m.Fields) != 4 {
			t.Errorf("expected 4 merged fields, got %d", len(m.Fields))
		}
		if len(m.Results) != 3 {
			t.Errorf("expected 3 results, got %d", len(m.Results))
		}
	})

	t.Run("Absorbs Source Failures", func(t *testing.T) {
		panicking := newFakeSource("lastfm", func(models.TrackQuery) services.Result { panic("boom") })
		agg := NewAggregator([]services.Source{
			newFakeSource("spotify", outcome("spotify", services.Failed)),
			panicking,
			newFakeSource("musicbrainz", hitWith("musicbrainz", models.SourceRecord{"musicbrainz_id": "mb"})),
		})

		m := agg.Enrich(context.Background(), q)
		if !reflect.DeepEqual(m.Sources, []string{"musicbrainz"}) {
			t.Errorf("expected only musicbrainz, got %v", m.Sources)
		}
		if m.Results[1].Outcome != services.Failed || m.Results[1].Err == nil {
			t.Errorf("expected panic to become a failed result, got %+v", m.Results[1])
		}
		if m.Succeeded("spotify") || !m.Succeeded("musicbrainz") {
			t.Errorf("unexpected success flags %v", m.Sources)
		}
	})

	t.Run("Misses Contribute Nothing", func(t *testing.T) {
		agg := NewAggregator([]services.Source{
			newFakeSource("spotify", outcome("spotify", services.Miss)),
			newFakeSource("lastfm", outcome("lastfm", services.Disabled)),
			newFakeSource("musicbrainz", hitWith("musicbrainz", models.SourceRecord{})),
		})

		m := agg.Enrich(context.Background(), q)
		if len(m.Sources) != 0 || len(m.Fields) != 0 {
			t.Errorf("expected empty merge, got %v %v", m.Sources, m.Fields)
		}
	})

	t.Run("Parallel Matches Sequential", func(t *testing.T) {
		delayed := func(name string, d time.Duration, rec models.SourceRecord) *fakeSource {
			return newFakeSource(name, func(models.TrackQuery) services.Result {
				time.Sleep(d)
				return services.Result{Source: name, Record: rec, Outcome: services.Hit}
			})
		}
		sources := func() []services.Source {
			return []services.Source{
				delayed("spotify", 30*time.Millisecond, models.SourceRecord{"x": "spotify"}),
				delayed("lastfm", 15*time.Millisecond, models.SourceRecord{"x": "lastfm"}),
				delayed("musicbrainz", 0, models.SourceRecord{"x": "musicbrainz", "musicbrainz_id": "mb"}),
			}
		}

		seq := NewAggregator(sources()).Enrich(context.Background(), q)
		par := NewAggregator(sources(), WithParallelSources(true)).Enrich(context.Background(), q)

		if !reflect.DeepEqual(seq.Fields, par.Fields) {
			t.Errorf("expected identical fields, got %v and %v", seq.Fields, par.Fields)
		}
		if !reflect.DeepEqual(seq.Sources, par.Sources) {
			t.Errorf("expected identical sources, got %v and %v", seq.Sources, par.Sources)
		}
	})

	t.Run("Observer Sees Every Lookup", func(t *testing.T) {
		obs := &recordingObserver{}
		agg := NewAggregator([]services.Source{
			newFakeSource("spotify", outcome("spotify", services.Disabled)),
			newFakeSource("lastfm", outcome("lastfm", services.Miss)),
			newFakeSource("musicbrainz", hitWith("musicbrainz", models.SourceRecord{"musicbrainz_id": "mb"})),
		}, WithObserver(obs))

		agg.Enrich(context.Background(), q)
		want := []string{"spotify:disabled", "lastfm:miss", "musicbrainz:hit"}
		if !reflect.DeepEqual(obs.seen, want) {
			t.Errorf("expected %v, got %v", want, obs.seen)
		}
	})

	t.Run("Sources", func(t *testing.T) {
		agg := NewAggregator([]services.Source{
			newFakeSource("spotify", outcome("spotify", services.Miss)),
			newFakeSource("lastfm", outcome("lastfm", services.Miss)),
		})
		if got := agg.Sources(); !reflect.DeepEqual(got, []string{"spotify", "lastfm"}) {
			t.Errorf("unexpected sources %v", got)
		}
	})
}

func TestSendProgress(t *testing.T) {
	t.Run("Nil Channel", func(t *testing.T) {
		sendProgress(nil, ProgressUpdate{Phase: Enrich})
	})

	t.Run("Full Channel Does Not Block", func(t *testing.T) {
		ch := make(chan ProgressUpdate, 1)
		sendProgress(ch, ProgressUpdate{Step: 1})
		sendProgress(ch, ProgressUpdate{Step: 2})

		if u := <-ch; u.Step != 1 {
			t.Errorf("expected first update to be kept, got step %d", u.Step)
		}
	})

	t.Run("Phase Names", func(t *testing.T) {
		tc := map[Phase]string{
			Validate:          "validate",
			Enrich:            "enrich",
			Summarize:         "summarize",
			DiscoverEpisodes:  "discover_episodes",
			ExtractTracklists: "extract_tracklists",
			Phase(99):         "",
		}
		for p, want := range tc {
			if p.String() != want {
				t.Errorf("expected %q, got %q", want, p.String())
			}
		}
	})
}
