package tasks

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ntscat/internal/models"
	"github.com/desertthunder/ntscat/internal/services"
	"github.com/desertthunder/ntscat/internal/shared"
	"golang.org/x/sync/errgroup"
)

// Observer receives the outcome and latency of every source lookup.
type Observer interface {
	ObserveLookup(source, outcome string, elapsed time.Duration)
}

// Merge is the aggregated enrichment of one track.
type Merge struct {
	Fields  models.SourceRecord // Union of the fields of every hit
	Sources []string            // Sources that hit, in aggregation order
	Results []services.Result   // One result per source, in aggregation order
}

// Succeeded reports whether source contributed to the merge.
func (m Merge) Succeeded(source string) bool {
	for _, s := range m.Sources {
		if s == source {
			return true
		}
	}
	return false
}

// Aggregator queries every source for a track and merges the hits.
type Aggregator struct {
	sources  []services.Source
	parallel bool
	observer Observer
	logger   *log.Logger
}

// AggregatorOption configures an [Aggregator].
type AggregatorOption func(*Aggregator)

// WithParallelSources runs the lookups for a single track concurrently.
func WithParallelSources(p bool) AggregatorOption {
	return func(a *Aggregator) { a.parallel = p }
}

// WithObserver registers an observer for lookup outcomes.
func WithObserver(o Observer) AggregatorOption {
	return func(a *Aggregator) { a.observer = o }
}

// WithAggregatorLogger sets the logger.
func WithAggregatorLogger(l *log.Logger) AggregatorOption {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAggregator creates an aggregator over sources, which are queried and merged in the given order.
func NewAggregator(sources []services.Source, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		sources: sources,
		logger:  shared.NewLogger(io.Discard),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Sources returns the source names in aggregation order.
func (a *Aggregator) Sources() []string {
	names := make([]string, len(a.sources))
	for i, s := range a.sources {
		names[i] = s.Name()
	}
	return names
}

// Enrich looks the track up in every source and merges the fields of each hit.
//
// When two sources produce the same field the later source wins.
func (a *Aggregator) Enrich(ctx context.Context, q models.TrackQuery) Merge {
	results := make([]services.Result, len(a.sources))

	if a.parallel && len(a.sources) > 1 {
		var g errgroup.Group
		for i, src := range a.sources {
			g.Go(func() error {
				results[i] = a.lookup(ctx, src, q)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, src := range a.sources {
			results[i] = a.lookup(ctx, src, q)
		}
	}

	m := Merge{Fields: models.SourceRecord{}, Results: results}
	for _, r := range results {
		if r.OK() {
			m.Fields.Merge(r.Record)
			m.Sources = append(m.Sources, r.Source)
		}
	}
	return m
}

// lookup runs a single source, converting a panic into a failed result.
func (a *Aggregator) lookup(ctx context.Context, src services.Source, q models.TrackQuery) (res services.Result) {
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			a.logger.Error("source panicked", "source", src.Name(), "track", q.String(), "panic", p)
			res = services.Result{Source: src.Name(), Outcome: services.Failed, Err: fmt.Errorf("%w: %v", shared.ErrAPIRequest, p)}
		}
		if a.observer != nil {
			a.observer.ObserveLookup(src.Name(), res.Outcome.String(), time.Since(start))
		}
	}()

	res = src.Lookup(ctx, q)
	if res.Source == "" {
		res.Source = src.Name()
	}
	return res
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
