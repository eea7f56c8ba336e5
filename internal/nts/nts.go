// package nts discovers the episodes of an NTS Radio show and scrapes their tracklists
package nts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/ntscat/internal/models"
	"github.com/desertthunder/ntscat/internal/shared"
	"github.com/desertthunder/ntscat/internal/tasks"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const (
	defaultAPIURL   = "https://www.nts.live/api/v2"
	defaultSiteURL  = "https://www.nts.live"
	defaultPageSize = 12
	defaultWorkers  = 4
	maxWorkers      = 10
	defaultRate     = 2.0
)

// Client talks to the NTS episode API and episode pages.
type Client struct {
	apiURL     string
	siteURL    string
	userAgent  string
	pageSize   int
	workers    int
	rateLimit  float64
	httpClient *http.Client
	logger     *log.Logger
}

// Option configures a [Client].
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a client from cfg. Zero values fall back to the public NTS endpoints,
// 12 episodes per page, 4 workers and 2 page fetches per second.
func NewClient(cfg shared.NTSConfig, opts ...Option) *Client {
	c := &Client{
		apiURL:     strings.TrimRight(cfg.APIURL, "/"),
		siteURL:    strings.TrimRight(cfg.SiteURL, "/"),
		userAgent:  cfg.UserAgent,
		pageSize:   cfg.PageSize,
		workers:    cfg.Workers,
		rateLimit:  cfg.RateLimit,
		httpClient: http.DefaultClient,
		logger:     shared.NewLogger(io.Discard),
	}
	if c.apiURL == "" {
		c.apiURL = defaultAPIURL
	}
	if c.siteURL == "" {
		c.siteURL = defaultSiteURL
	}
	if c.pageSize <= 0 {
		c.pageSize = defaultPageSize
	}
	if c.workers <= 0 {
		c.workers = defaultWorkers
	}
	if c.workers > maxWorkers {
		c.workers = maxWorkers
	}
	if c.rateLimit <= 0 {
		c.rateLimit = defaultRate
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EpisodeURL builds the public page URL of an episode.
func (c *Client) EpisodeURL(show, alias string) string {
	return fmt.Sprintf("%s/shows/%s/episodes/%s", c.siteURL, show, alias)
}

// Episodes pages through the show's episode list.
//
// Discovery stops at an empty page, at the result count reported in the response metadata,
// or at a page that adds no unseen episodes. A failed page ends discovery; the episodes
// collected so far are returned.
func (c *Client) Episodes(ctx context.Context, show string, prog chan<- tasks.ProgressUpdate) ([]models.Episode, error) {
	show = strings.TrimSpace(show)
	if show == "" {
		return nil, fmt.Errorf("%w: show name", shared.ErrMissingArgument)
	}

	var episodes []models.Episode
	seen := make(map[string]bool)
	for page, offset := 1, 0; ; page, offset = page+1, offset+c.pageSize {
		endpoint := fmt.Sprintf("%s/shows/%s/episodes?limit=%d&offset=%d", c.apiURL, url.PathEscape(show), c.pageSize, offset)

		body, err := c.fetch(ctx, endpoint)
		if err != nil {
			c.logger.Error("failed to fetch episodes", "show", show, "offset", offset, "error", err)
			break
		}
		if !gjson.ValidBytes(body) {
			c.logger.Error("failed to parse episodes response", "show", show, "offset", offset)
			break
		}

		results := gjson.GetBytes(body, "results").Array()
		if len(results) == 0 {
			break
		}

		added := 0
		for _, r := range results {
			alias := r.Get("episode_alias").String()
			if alias == "" || seen[alias] {
				continue
			}
			seen[alias] = true
			added++
			episodes = append(episodes, models.Episode{Show: show, Alias: alias, URL: c.EpisodeURL(show, alias)})
		}
		if added == 0 {
			c.logger.Warn("episode page repeated earlier results", "show", show, "offset", offset)
			break
		}
		c.logger.Info("found episodes", "show", show, "count", len(results), "offset", offset)
		tasks.SendProgress(prog, tasks.DiscoverUpdate(page, len(episodes), show))

		if count := gjson.GetBytes(body, "metadata.resultset.count"); count.Exists() && offset+len(results) >= int(count.Int()) {
			break
		}
	}

	if err := ctx.Err(); err != nil && len(episodes) == 0 {
		return nil, err
	}
	c.logger.Info("episode discovery finished", "show", show, "episodes", len(episodes))
	return episodes, nil
}

// Tracklist scrapes the tracks of a single episode page.
//
// Artist and title are normalized with [shared.CleanString]; tracks where either is empty are skipped.
// A page without an episode container yields no tracks.
func (c *Client) Tracklist(ctx context.Context, episodeURL string) ([]models.TracklistEntry, error) {
	body, err := c.fetch(ctx, episodeURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse episode page: %v", shared.ErrInvalidInput, err)
	}

	container := doc.Find("#episode-container").First()
	if container.Length() == 0 {
		c.logger.Warn("no episode container found", "url", episodeURL)
		return nil, nil
	}

	var entries []models.TracklistEntry
	container.Find(".track").Each(func(_ int, s *goquery.Selection) {
		artistSel := s.Find(".track__artist").First()
		titleSel := s.Find(".track__title").First()
		if artistSel.Length() == 0 || titleSel.Length() == 0 {
			return
		}

		artist := shared.CleanString(artistSel.Text())
		title := shared.CleanString(titleSel.Text())
		if artist == "" || title == "" {
			return
		}
		entries = append(entries, models.TracklistEntry{Title: title, Artist: artist, EpisodeURL: episodeURL})
	})

	c.logger.Debug("extracted tracks", "url", episodeURL, "count", len(entries))
	return entries, nil
}

// Catalog is every track of a show, in episode order.
type Catalog struct {
	Show     string
	Episodes []models.Episode
	Entries  []models.TracklistEntry
}

// EpisodesWithTracks counts the episodes that contributed at least one track.
func (c *Catalog) EpisodesWithTracks() int {
	seen := make(map[string]struct{})
	for _, e := range c.Entries {
		seen[e.EpisodeURL] = struct{}{}
	}
	return len(seen)
}

// AverageTracks returns the mean number of tracks per episode with tracks.
func (c *Catalog) AverageTracks() float64 {
	n := c.EpisodesWithTracks()
	if n == 0 {
		return 0
	}
	return float64(len(c.Entries)) / float64(n)
}

// Catalog discovers every episode of show and scrapes their tracklists concurrently.
//
// Page fetches are paced by a shared rate limiter. A failed episode contributes no tracks.
func (c *Client) Catalog(ctx context.Context, show string, prog chan<- tasks.ProgressUpdate) (*Catalog, error) {
	episodes, err := c.Episodes(ctx, show, prog)
	if err != nil {
		return nil, err
	}
	if len(episodes) == 0 {
		return nil, fmt.Errorf("%w: %s", shared.ErrShowNotFound, show)
	}

	total := len(episodes)
	slots := make([][]models.TracklistEntry, total)
	limiter := rate.NewLimiter(rate.Limit(c.rateLimit), 1)

	jobs := make(chan int, total)
	type done struct {
		index int
		err   error
	}
	results := make(chan done, total)

	var wg sync.WaitGroup
	for range c.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if err := limiter.Wait(ctx); err != nil {
					results <- done{index: i, err: err}
					continue
				}
				entries, err := c.Tracklist(ctx, episodes[i].URL)
				if err != nil {
					c.logger.Error("failed to extract tracklist", "url", episodes[i].URL, "error", err)
				}
				slots[i] = entries
				results <- done{index: i, err: err}
			}
		}()
	}

	for i := range total {
		jobs <- i
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for r := range results {
		completed++
		tasks.SendProgress(prog, tasks.TracklistUpdate(completed, total, episodes[r.index].URL, len(slots[r.index]), r.err))
	}

	cat := &Catalog{Show: show, Episodes: episodes}
	for _, entries := range slots {
		cat.Entries = append(cat.Entries, entries...)
	}
	if len(cat.Entries) == 0 {
		return cat, fmt.Errorf("%w: %d episodes of %s have no tracklist", shared.ErrNoTracks, total, show)
	}

	c.logger.Info("catalog complete", "show", show, "episodes", total, "tracks", len(cat.Entries))
	return cat, nil
}

// fetch performs a GET and returns the body of a 2xx response.
func (c *Client) fetch(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %v", shared.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", shared.ErrTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d from %s", shared.ErrAPIRequest, resp.StatusCode, target)
	}
	return body, nil
}
