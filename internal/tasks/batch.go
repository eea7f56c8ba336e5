package tasks

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ntscat/internal/models"
	"github.com/desertthunder/ntscat/internal/services"
	"github.com/desertthunder/ntscat/internal/shared"
	"github.com/samber/lo"
)

const (
	defaultTitleColumn  = "TITLE"
	defaultArtistColumn = "ARTIST"
	maxConcurrency      = 16
)

// BatchOpts contains configuration for an enrichment run.
type BatchOpts struct {
	TitleColumn  string // Required title column (default: TITLE)
	ArtistColumn string // Required artist column (default: ARTIST)
	Concurrency  int    // Tracks enriched at once (default: 1)
}

// BatchRunner enriches every row of a table through an [Aggregator].
type BatchRunner struct {
	agg    *Aggregator
	opts   BatchOpts
	logger *log.Logger
}

// NewBatchRunner creates a runner. A nil logger discards output.
func NewBatchRunner(agg *Aggregator, opts BatchOpts, logger *log.Logger) *BatchRunner {
	if opts.TitleColumn == "" {
		opts.TitleColumn = defaultTitleColumn
	}
	if opts.ArtistColumn == "" {
		opts.ArtistColumn = defaultArtistColumn
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Concurrency > maxConcurrency {
		opts.Concurrency = maxConcurrency
	}
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &BatchRunner{agg: agg, opts: opts, logger: logger}
}

// Sources returns the source names of the underlying aggregator.
func (b *BatchRunner) Sources() []string { return b.agg.Sources() }

// Validate checks the run preconditions and returns the actual title and artist header names.
func (b *BatchRunner) Validate(table *models.Table) (title, artist string, err error) {
	if table == nil {
		return "", "", shared.ErrEmptyInput
	}

	title, okTitle := table.Column(b.opts.TitleColumn)
	artist, okArtist := table.Column(b.opts.ArtistColumn)

	var missing []string
	if !okTitle {
		missing = append(missing, b.opts.TitleColumn)
	}
	if !okArtist {
		missing = append(missing, b.opts.ArtistColumn)
	}
	if len(missing) > 0 {
		return "", "", fmt.Errorf("%w: %w: %s", shared.ErrConfiguration, shared.ErrMissingColumns, strings.Join(missing, ", "))
	}

	if len(table.Rows) == 0 {
		return "", "", shared.ErrEmptyInput
	}
	return title, artist, nil
}

// Run enriches every row in input order and returns per-source hit counters.
//
// Precondition failures are returned before any source is queried. After that the run always
// completes: a cancelled context stops new lookups and the remaining rows are emitted unenriched
// and counted in [models.BatchResult.Skipped].
//
// Rows repeating an earlier title and artist are looked up once.
func (b *BatchRunner) Run(ctx context.Context, table *models.Table, prog chan<- ProgressUpdate) (*models.BatchResult, error) {
	titleCol, artistCol, err := b.Validate(table)
	if err != nil {
		return nil, err
	}

	total := len(table.Rows)
	result := &models.BatchResult{
		RunID:   shared.GenerateID(),
		Columns: outputColumns(table.Columns),
		Tracks:  make([]models.EnrichedTrack, total),
		Total:   total,
	}
	logger := shared.WithLogger(b.logger, "run", result.RunID)
	logger.Info("starting enrichment", "tracks", total, "sources", b.agg.Sources(), "concurrency", b.opts.Concurrency)
	sendProgress(prog, validateUpdate(total))

	queries := make([]models.TrackQuery, total)
	for i, row := range table.Rows {
		result.Tracks[i] = models.EnrichedTrack{Input: row.Clone(), Fields: models.SourceRecord{}}
		queries[i] = models.TrackQuery{
			Title:  strings.TrimSpace(row[titleCol]),
			Artist: strings.TrimSpace(row[artistCol]),
		}
	}

	primaries, repeats := groupRepeats(queries)
	if n := total - len(primaries); n > 0 {
		logger.Debug("reusing lookups for repeated tracks", "repeats", n)
	}

	jobs := make(chan int, len(primaries))
	done := make(chan int, len(primaries))
	outcomes := newOutcomeCounter()

	var wg sync.WaitGroup
	for range b.opts.Concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					done <- -(i + 1)
					continue
				}
				m := b.agg.Enrich(ctx, queries[i])
				result.Tracks[i].Fields = m.Fields
				result.Tracks[i].Sources = m.Sources
				outcomes.add(m)
				done <- i
			}
		}()
	}

	for _, i := range primaries {
		jobs <- i
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(done)
	}()

	completed := 0
	for i := range done {
		cancelled := i < 0
		if cancelled {
			i = -i - 1
		}
		for _, j := range append([]int{i}, repeats[i]...) {
			completed++
			if cancelled {
				result.Skipped++
				sendProgress(prog, skippedUpdate(completed, total, queries[j]))
				continue
			}
			if j != i {
				result.Tracks[j].Fields = maps.Clone(result.Tracks[i].Fields)
				result.Tracks[j].Sources = slices.Clone(result.Tracks[i].Sources)
			}
			t := result.Tracks[j]
			sendProgress(prog, enrichUpdate(completed, total, queries[j], Merge{Fields: t.Fields, Sources: t.Sources}))
		}
	}

	result.Stats = b.stats(result)
	if result.Skipped > 0 {
		logger.Warn("run cancelled; remaining tracks emitted unenriched", "skipped", result.Skipped)
	}
	for _, s := range result.Stats {
		c := outcomes.get(s.Source)
		logger.Info("source summary",
			"source", s.Source, "hits", s.Hits, "total", s.Total, "rate", fmt.Sprintf("%.1f%%", s.HitRate()),
			"misses", c.misses, "failures", c.failures, "disabled", c.disabled)
	}

	sendProgress(prog, summaryUpdate(result))
	return result, nil
}

// groupRepeats returns the first row index of every distinct track, in input order, and maps each
// of those indexes to the later rows with the same normalized title and artist.
func groupRepeats(queries []models.TrackQuery) ([]int, map[int][]int) {
	first := make(map[string]int, len(queries))
	repeats := make(map[int][]int)
	var primaries []int
	for i, q := range queries {
		key := shared.NormalizeTrackKey(q.Title, q.Artist)
		if p, ok := first[key]; ok {
			repeats[p] = append(repeats[p], i)
			continue
		}
		first[key] = i
		primaries = append(primaries, i)
	}
	return primaries, repeats
}

// stats counts, per source, the tracks that source contributed to.
func (b *BatchRunner) stats(res *models.BatchResult) []models.SourceStat {
	names := b.agg.Sources()
	stats := make([]models.SourceStat, len(names))
	for i, name := range names {
		stats[i] = models.SourceStat{
			Source: name,
			Hits:   lo.CountBy(res.Tracks, func(t models.EnrichedTrack) bool { return t.Has(name) }),
			Total:  res.Total,
		}
	}
	return stats
}

// outputColumns returns the input columns followed by every enrichment column not already present.
func outputColumns(input []string) []string {
	cols := append([]string{}, input...)
	return append(cols, lo.Without(models.EnrichmentColumns(), input...)...)
}

type outcomeCounts struct {
	misses, failures, disabled int
}

// outcomeCounter tallies non-hit outcomes for the run log.
type outcomeCounter struct {
	mu     sync.Mutex
	counts map[string]*outcomeCounts
}

func newOutcomeCounter() *outcomeCounter {
	return &outcomeCounter{counts: make(map[string]*outcomeCounts)}
}

func (o *outcomeCounter) add(m Merge) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, r := range m.Results {
		c, ok := o.counts[r.Source]
		if !ok {
			c = &outcomeCounts{}
			o.counts[r.Source] = c
		}
		switch r.Outcome {
		case services.Miss:
			c.misses++
		case services.Failed:
			c.failures++
		case services.Disabled:
			c.disabled++
		}
	}
}

func (o *outcomeCounter) get(source string) outcomeCounts {
	o.mu.Lock()
	defer o.mu.Unlock()
	if c, ok := o.counts[source]; ok {
		return *c
	}
	return outcomeCounts{}
}
